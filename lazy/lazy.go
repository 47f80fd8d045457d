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

// Package lazy implements deferred computation over ndarray data.
//
// A lazy Array is a description of a computation that yields an
// ndarray.Array when realised. Its shape and dtype are known without
// executing anything, so consumers can validate writes and report
// metadata without triggering I/O. Graphs are immutable once built and
// may be freely shared; realising the same graph twice performs the
// work twice, while CoRealise executes a batch of graphs with shared
// nodes computed once per batch.
package lazy

import (
	"fmt"

	"github.com/spatialmodel/cube/ndarray"
)

// A Source supplies array data on demand, section by section. It is
// the contract file-backed proxies satisfy: Shape and Dtype must be
// answerable without I/O, and ReadSection performs the actual read of
// the half-open hyper-rectangle [start, end).
//
// If the process has opted into a concurrent scheduler, ReadSection
// must be safe for concurrent use; sources that wrap a single file
// handle should open their own handle per read or serialize access
// themselves.
type Source interface {
	Shape() []int
	Dtype() ndarray.Dtype
	ReadSection(start, end []int) (*ndarray.Array, error)
}

// An Array is a deferred array: an immutable description of a
// computation yielding an ndarray.Array of known shape and dtype.
type Array struct {
	shape  []int
	dtype  ndarray.Dtype
	chunks []int
	node   node
}

// node is the private payload of a graph vertex.
type node interface {
	children() []*Array
}

type sourceNode struct{ src Source }

type arrayNode struct{ data *ndarray.Array }

type mapNode struct {
	in *Array
	f  func(float64) float64
}

type castNode struct {
	in    *Array
	dtype ndarray.Dtype
}

type fillNode struct {
	in   *Array
	fill float64
}

type stackNode struct{ parts []*Array }

func (sourceNode) children() []*Array  { return nil }
func (arrayNode) children() []*Array   { return nil }
func (n mapNode) children() []*Array   { return []*Array{n.in} }
func (n castNode) children() []*Array  { return []*Array{n.in} }
func (n fillNode) children() []*Array  { return []*Array{n.in} }
func (n stackNode) children() []*Array { return n.parts }

// FromArray wraps realized data as a lazy leaf. If chunks is nil the
// default chunking policy is applied. The data is not copied; callers
// must not mutate it afterwards.
func FromArray(data *ndarray.Array, chunks []int) *Array {
	if chunks == nil {
		chunks = DefaultChunks(data.Shape, data.Dtype())
	}
	return &Array{
		shape:  append([]int{}, data.Shape...),
		dtype:  data.Dtype(),
		chunks: chunks,
		node:   arrayNode{data: data},
	}
}

// FromSource wraps a data source as a lazy leaf. Realisation reads the
// source section by section on the chunk grid. If chunks is nil the
// default chunking policy is applied.
func FromSource(src Source, chunks []int) (*Array, error) {
	shape := src.Shape()
	dtype := src.Dtype()
	if dtype == ndarray.Invalid {
		return nil, fmt.Errorf("lazy: source has invalid dtype")
	}
	if chunks == nil {
		chunks = DefaultChunks(shape, dtype)
	}
	if len(chunks) != len(shape) {
		return nil, fmt.Errorf("lazy: chunk shape %v does not match array shape %v", chunks, shape)
	}
	return &Array{
		shape:  append([]int{}, shape...),
		dtype:  dtype,
		chunks: chunks,
		node:   sourceNode{src: src},
	}, nil
}

// Shape returns the shape the realised result will have. It never
// triggers computation.
func (a *Array) Shape() []int { return append([]int{}, a.shape...) }

// Dtype returns the nominal dtype of the realised result. It never
// triggers computation.
func (a *Array) Dtype() ndarray.Dtype { return a.dtype }

// Chunks returns the chunk shape used when realising from a source.
func (a *Array) Chunks() []int { return append([]int{}, a.chunks...) }

// Ndim returns the number of dimensions.
func (a *Array) Ndim() int { return len(a.shape) }

// NumElements returns the total number of elements the realised
// result will hold.
func (a *Array) NumElements() int { return ndarray.NumElements(a.shape) }

// Map returns a new lazy array applying f to each element. The dtype
// is unchanged; any mask on the input is carried through.
func (a *Array) Map(f func(float64) float64) *Array {
	return &Array{
		shape:  a.shape,
		dtype:  a.dtype,
		chunks: a.chunks,
		node:   mapNode{in: a, f: f},
	}
}

// AddScalar returns a new lazy array adding c to each element.
func (a *Array) AddScalar(c float64) *Array {
	return a.Map(func(v float64) float64 { return v + c })
}

// MulScalar returns a new lazy array multiplying each element by c.
func (a *Array) MulScalar(c float64) *Array {
	return a.Map(func(v float64) float64 { return v * c })
}

// Cast returns a new lazy array whose realised result is converted to
// the given dtype.
func (a *Array) Cast(dtype ndarray.Dtype) *Array {
	return &Array{
		shape:  a.shape,
		dtype:  dtype,
		chunks: a.chunks,
		node:   castNode{in: a, dtype: dtype},
	}
}

// Filled returns a new lazy array whose realised result has masked
// elements replaced by fill and the mask dropped.
func (a *Array) Filled(fill float64) *Array {
	return &Array{
		shape:  a.shape,
		dtype:  a.dtype,
		chunks: a.chunks,
		node:   fillNode{in: a, fill: fill},
	}
}

// Rechunk returns a lazy array with the given chunk shape. Only leaf
// arrays are rechunked; for derived arrays re-chunking would require
// re-planning the whole graph, so the array is returned unchanged.
func (a *Array) Rechunk(chunks []int) *Array {
	if len(chunks) != len(a.shape) {
		return a
	}
	switch a.node.(type) {
	case sourceNode, arrayNode:
		return &Array{
			shape:  a.shape,
			dtype:  a.dtype,
			chunks: append([]int{}, chunks...),
			node:   a.node,
		}
	}
	return a
}
