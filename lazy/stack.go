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

package lazy

import "fmt"

// Stack builds a lazy array by stacking parts along a new leading
// axis. All parts must share a shape and dtype. No part is realised.
func Stack(parts []*Array) (*Array, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("lazy: cannot stack zero arrays")
	}
	first := parts[0]
	for _, p := range parts[1:] {
		if !intsEqual(p.shape, first.shape) {
			return nil, fmt.Errorf("lazy: cannot stack arrays with shapes %v and %v",
				first.shape, p.shape)
		}
		if p.dtype != first.dtype {
			return nil, fmt.Errorf("lazy: cannot stack arrays with dtypes %v and %v",
				first.dtype, p.dtype)
		}
	}
	shape := append([]int{len(parts)}, first.shape...)
	chunks := append([]int{1}, first.chunks...)
	return &Array{
		shape:  shape,
		dtype:  first.dtype,
		chunks: chunks,
		node:   stackNode{parts: append([]*Array{}, parts...)},
	}, nil
}

// StackNested recursively builds a multidimensional lazy array from a
// nested sequence whose leaves are lazy arrays: a bare *Array is the
// 0-dimensional base case, a []*Array stacks directly, and a
// []interface{} of deeper sequences recurses per element before
// stacking the results. No leaf is realised.
func StackNested(value interface{}) (*Array, error) {
	switch v := value.(type) {
	case *Array:
		return v, nil
	case []*Array:
		return Stack(v)
	case []interface{}:
		parts := make([]*Array, len(v))
		for i, elem := range v {
			sub, err := StackNested(elem)
			if err != nil {
				return nil, err
			}
			parts[i] = sub
		}
		return Stack(parts)
	}
	return nil, fmt.Errorf("lazy: cannot stack value of type %T", value)
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
