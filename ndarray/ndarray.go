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

// Package ndarray provides dtyped, maskable, n-dimensional in-memory arrays.
// These are the realized payloads managed by the cube data managers; deferred
// payloads are handled by package lazy.
package ndarray

import (
	"fmt"

	"github.com/gonum/floats"
)

// Dtype is the element type of an Array.
type Dtype int

// The supported element types. The zero value is Invalid so that an
// unset dtype is never mistaken for a real one.
const (
	Invalid Dtype = iota
	Float64
	Float32
	Int64
	Int32
	Bool
)

// Size returns the storage size of one element in bytes.
func (d Dtype) Size() int {
	switch d {
	case Float64, Int64:
		return 8
	case Float32, Int32:
		return 4
	case Bool:
		return 1
	}
	return 0
}

func (d Dtype) String() string {
	switch d {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	case Int32:
		return "int32"
	case Bool:
		return "bool"
	}
	return "invalid"
}

// IsInteger reports whether d is an integer kind.
func (d Dtype) IsInteger() bool { return d == Int64 || d == Int32 }

// IsBool reports whether d is the boolean kind.
func (d Dtype) IsBool() bool { return d == Bool }

// An Array is an n-dimensional array of a single element type, optionally
// carrying an element-wise mask. A zero-length Shape denotes a scalar
// holding exactly one element. Data is one of []float64, []float32,
// []int64, []int32 or []bool, holding the elements in row-major order.
// Mask is either nil (no mask attached) or the same length as Data, with
// true marking elements that hold no value.
type Array struct {
	Shape []int
	Data  interface{}
	Mask  []bool
}

// NumElements returns the number of elements implied by a shape
// (one for a scalar shape).
func NumElements(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// New creates an Array holding data, which must be one of the supported
// slice types with exactly the number of elements implied by shape.
func New(data interface{}, shape ...int) (*Array, error) {
	n, d := bufLen(data)
	if d == Invalid {
		return nil, fmt.Errorf("ndarray: unsupported data type %T", data)
	}
	if n != NumElements(shape) {
		return nil, fmt.Errorf("ndarray: data has %d elements but shape %v requires %d",
			n, shape, NumElements(shape))
	}
	return &Array{Shape: append([]int{}, shape...), Data: data}, nil
}

// Zeros creates a zero-filled Array of the given dtype and shape.
func Zeros(dtype Dtype, shape ...int) *Array {
	n := NumElements(shape)
	a := &Array{Shape: append([]int{}, shape...)}
	switch dtype {
	case Float64:
		a.Data = make([]float64, n)
	case Float32:
		a.Data = make([]float32, n)
	case Int64:
		a.Data = make([]int64, n)
	case Int32:
		a.Data = make([]int32, n)
	case Bool:
		a.Data = make([]bool, n)
	default:
		panic(fmt.Sprintf("ndarray: cannot create array of dtype %v", dtype))
	}
	return a
}

// Scalar creates a 0-dimensional float64 Array holding v.
func Scalar(v float64) *Array {
	return &Array{Shape: []int{}, Data: []float64{v}}
}

// MaskedScalar creates a 0-dimensional Array of the given dtype whose
// single element is masked. It is the canonical form of a fully-masked
// scalar constant: a proper masked array with a writeable payload rather
// than a bare sentinel value.
func MaskedScalar(dtype Dtype) *Array {
	a := Zeros(dtype, []int{}...)
	a.Mask = []bool{true}
	return a
}

// Dtype returns the element type of the array.
func (a *Array) Dtype() Dtype {
	_, d := bufLen(a.Data)
	return d
}

// Ndim returns the number of dimensions.
func (a *Array) Ndim() int { return len(a.Shape) }

// Len returns the total number of elements.
func (a *Array) Len() int { return NumElements(a.Shape) }

// HasMask reports whether a mask is attached, whether or not any of
// its elements are set.
func (a *Array) HasMask() bool { return a.Mask != nil }

// IsMasked reports whether any element is actually masked.
func (a *Array) IsMasked() bool {
	for _, m := range a.Mask {
		if m {
			return true
		}
	}
	return false
}

// Float64At returns element i converted to float64, regardless of dtype.
func (a *Array) Float64At(i int) float64 {
	switch d := a.Data.(type) {
	case []float64:
		return d[i]
	case []float32:
		return float64(d[i])
	case []int64:
		return float64(d[i])
	case []int32:
		return float64(d[i])
	case []bool:
		if d[i] {
			return 1
		}
		return 0
	}
	panic(fmt.Sprintf("ndarray: unsupported data type %T", a.Data))
}

// SetFloat64At sets element i from a float64, converting to the
// array's dtype.
func (a *Array) SetFloat64At(i int, v float64) {
	switch d := a.Data.(type) {
	case []float64:
		d[i] = v
	case []float32:
		d[i] = float32(v)
	case []int64:
		d[i] = int64(v)
	case []int32:
		d[i] = int32(v)
	case []bool:
		d[i] = v != 0
	default:
		panic(fmt.Sprintf("ndarray: unsupported data type %T", a.Data))
	}
}

// Copy returns a deep copy of the array: element and mask storage are
// duplicated so that mutating the copy cannot affect the original.
func (a *Array) Copy() *Array {
	out := &Array{Shape: append([]int{}, a.Shape...)}
	switch d := a.Data.(type) {
	case []float64:
		out.Data = append([]float64{}, d...)
	case []float32:
		out.Data = append([]float32{}, d...)
	case []int64:
		out.Data = append([]int64{}, d...)
	case []int32:
		out.Data = append([]int32{}, d...)
	case []bool:
		out.Data = append([]bool{}, d...)
	default:
		panic(fmt.Sprintf("ndarray: unsupported data type %T", a.Data))
	}
	if a.Mask != nil {
		out.Mask = append([]bool{}, a.Mask...)
	}
	return out
}

// Equal reports whether two arrays have the same shape, dtype, mask and
// element values. Masked elements compare equal to each other regardless
// of the values underneath.
func (a *Array) Equal(b *Array) bool {
	if b == nil {
		return a == nil
	}
	if !shapeEqual(a.Shape, b.Shape) || a.Dtype() != b.Dtype() {
		return false
	}
	if a.IsMasked() != b.IsMasked() {
		return false
	}
	for i, m := range a.Mask {
		if i < len(b.Mask) && m != b.Mask[i] {
			return false
		}
	}
	switch d := a.Data.(type) {
	case []float64:
		return maskedFloatsEqual(d, b.Data.([]float64), a.Mask)
	default:
		for i := 0; i < a.Len(); i++ {
			if a.Mask != nil && a.Mask[i] {
				continue
			}
			if a.Float64At(i) != b.Float64At(i) {
				return false
			}
		}
	}
	return true
}

func maskedFloatsEqual(a, b []float64, mask []bool) bool {
	if mask == nil {
		return floats.Equal(a, b)
	}
	for i := range a {
		if !mask[i] && a[i] != b[i] {
			return false
		}
	}
	return true
}

func shapeEqual(a, b []int) bool {
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

// bufLen returns the length and dtype of a storage buffer, or
// (0, Invalid) for an unsupported type.
func bufLen(data interface{}) (int, Dtype) {
	switch d := data.(type) {
	case []float64:
		return len(d), Float64
	case []float32:
		return len(d), Float32
	case []int64:
		return len(d), Int64
	case []int32:
		return len(d), Int32
	case []bool:
		return len(d), Bool
	}
	return 0, Invalid
}
