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

import "github.com/spatialmodel/cube/ndarray"

// MaxChunkBytes is the ceiling on the size of a single default chunk.
// The value balances chunk creation overhead against the memory cost
// of holding a chunk during computation.
const MaxChunkBytes = 16 * 1024 * 1024

// DefaultChunks reduces a shape to a chunk shape whose total byte size
// is at or under MaxChunkBytes, reducing earlier dimensions
// preferentially. Each over-budget dimension is divided by the smallest
// integer factor that would bring the total under budget, moving to
// the next dimension if the current one is exhausted.
//
// This is only a heuristic: it assumes earlier dimensions are "outer"
// storage dimensions, which is usual but not guaranteed for NetCDF
// data.
func DefaultChunks(shape []int, dtype ndarray.Dtype) []int {
	maxElems := MaxChunkBytes / dtype.Size()
	chunks := append([]int{}, shape...)
	for i := 0; i < len(chunks) && ndarray.NumElements(chunks) > maxElems; i++ {
		n := ndarray.NumElements(chunks)
		factor := (n + maxElems - 1) / maxElems
		newDim := chunks[i] / factor
		if newDim < 1 {
			newDim = 1
		}
		chunks[i] = newDim
	}
	return chunks
}

// gridShape returns the number of chunks along each dimension:
// ceil(shape[i] / chunks[i]).
func gridShape(shape, chunks []int) []int {
	grid := make([]int, len(shape))
	for i := range shape {
		grid[i] = (shape[i] + chunks[i] - 1) / chunks[i]
	}
	return grid
}

// chunkBounds returns the [start, end) bounds of the chunk at the
// given grid index, clipped to the array shape.
func chunkBounds(index, shape, chunks []int) (start, end []int) {
	start = make([]int, len(shape))
	end = make([]int, len(shape))
	for i := range shape {
		start[i] = index[i] * chunks[i]
		end[i] = start[i] + chunks[i]
		if end[i] > shape[i] {
			end[i] = shape[i]
		}
	}
	return start, end
}

// gridIndices enumerates all chunk grid indices in row-major order.
func gridIndices(grid []int) [][]int {
	n := ndarray.NumElements(grid)
	out := make([][]int, 0, n)
	index := make([]int, len(grid))
	for i := 0; i < n; i++ {
		out = append(out, append([]int{}, index...))
		for d := len(grid) - 1; d >= 0; d-- {
			index[d]++
			if index[d] < grid[d] {
				break
			}
			index[d] = 0
		}
	}
	return out
}
