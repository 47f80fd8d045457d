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

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// AsArray normalizes an arbitrary array-like value into an *Array.
// All special-casing of foreign array representations lives here, so
// that the rest of the system only ever sees the canonical form.
//
// Accepted values: *Array (returned unchanged), *sparse.DenseArray,
// the supported element slices ([]float64 etc., treated as
// 1-dimensional), and scalar numeric or boolean values (treated as
// 0-dimensional).
func AsArray(value interface{}) (*Array, error) {
	switch v := value.(type) {
	case *Array:
		return v, nil
	case *sparse.DenseArray:
		return FromDense(v), nil
	case []float64:
		return New(v, len(v))
	case []float32:
		return New(v, len(v))
	case []int64:
		return New(v, len(v))
	case []int32:
		return New(v, len(v))
	case []bool:
		return New(v, len(v))
	case float64:
		return Scalar(v), nil
	case float32:
		return New([]float32{v})
	case int:
		return New([]int64{int64(v)})
	case int64:
		return New([]int64{v})
	case int32:
		return New([]int32{v})
	case bool:
		return New([]bool{v})
	}
	return nil, fmt.Errorf("ndarray: cannot coerce %T to an array", value)
}

// FromDense converts a sparse.DenseArray to a float64 Array.
func FromDense(d *sparse.DenseArray) *Array {
	return &Array{
		Shape: append([]int{}, d.Shape...),
		Data:  append([]float64{}, d.Elements...),
	}
}

// ToDense converts the array to a sparse.DenseArray for use with
// DenseArray-based numeric code. Masked elements are filled with NaN
// before conversion; non-float64 elements are converted.
func (a *Array) ToDense() *sparse.DenseArray {
	out := sparse.ZerosDense(a.Shape...)
	for i := 0; i < a.Len(); i++ {
		if a.Mask != nil && a.Mask[i] {
			out.Elements[i] = math.NaN()
		} else {
			out.Elements[i] = a.Float64At(i)
		}
	}
	return out
}
