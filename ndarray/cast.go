/*
Copyright © 2018 the Cube authors.
This file is part of Cube.

Cube is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Cube is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Cube.  If not, see <http://www.gnu.org/licenses/>.
*/

package ndarray

import "fmt"

// Cast returns a copy of the array converted to the given dtype.
// Any attached mask is carried over unchanged.
func (a *Array) Cast(dtype Dtype) (*Array, error) {
	if dtype == Invalid {
		return nil, fmt.Errorf("ndarray: cannot cast to invalid dtype")
	}
	if dtype == a.Dtype() {
		return a.Copy(), nil
	}
	out := Zeros(dtype, a.Shape...)
	for i := 0; i < a.Len(); i++ {
		out.SetFloat64At(i, a.Float64At(i))
	}
	if a.Mask != nil {
		out.Mask = append([]bool{}, a.Mask...)
	}
	return out, nil
}

// Filled returns a copy of the array with masked elements replaced by
// fill and the mask dropped. An unmasked array is returned as a plain
// copy.
func (a *Array) Filled(fill float64) *Array {
	out := a.Copy()
	for i, m := range out.Mask {
		if m {
			out.SetFloat64At(i, fill)
		}
	}
	out.Mask = nil
	return out
}

// DropMask returns a copy of the array with any attached mask removed,
// leaving the element values as they are.
func (a *Array) DropMask() *Array {
	out := a.Copy()
	out.Mask = nil
	return out
}

// Reshape changes the shape of the array in place. The new shape must
// imply the same number of elements.
func (a *Array) Reshape(shape ...int) error {
	if NumElements(shape) != a.Len() {
		return fmt.Errorf("ndarray: cannot reshape %v to %v", a.Shape, shape)
	}
	a.Shape = append([]int{}, shape...)
	return nil
}
