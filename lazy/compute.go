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

import (
	"context"
	"fmt"
	"sync"

	"github.com/spatialmodel/cube/ndarray"
)

// A Scheduler is the execution context for realisation. The zero
// Workers value and Workers == 1 both mean synchronous, single-worker
// execution, which is the library default: file-backed sources are not
// in general safe for uncoordinated concurrent access, and this
// package does not impose locking around them. Processes that opt in
// to Workers > 1 must only realise sources that are safe under
// concurrent reads.
//
// MaxBytes, when positive, limits the size of any single realised
// result; realisation of a larger array fails with a *MemoryError.
type Scheduler struct {
	Workers  int
	MaxBytes int64
}

var (
	defaultMu    sync.RWMutex
	defaultSched = &Scheduler{Workers: 1}
)

// DefaultScheduler returns the process-wide scheduler used when no
// explicit execution context is given.
func DefaultScheduler() *Scheduler {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultSched
}

// SetDefaultScheduler replaces the process-wide default scheduler.
// This is a global, opt-in setting; see Scheduler for the concurrency
// contract it implies.
func SetDefaultScheduler(s *Scheduler) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSched = s
}

// A MemoryError indicates that realising a lazy array would exceed
// the scheduler's memory budget.
type MemoryError struct {
	Shape  []int
	Dtype  ndarray.Dtype
	Budget int64
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("lazy: failed to realise data with shape %v and dtype %v: "+
		"the result would exceed the %d byte budget; consider freeing memory or "+
		"indexing the data before trying again", e.Shape, e.Dtype, e.Budget)
}

// IsMemoryError reports whether err is a realisation memory failure.
func IsMemoryError(err error) bool {
	_, ok := err.(*MemoryError)
	return ok
}

// Realise executes the lazy array's computation graph using the
// default scheduler and returns the realised result. The result is
// always a genuine *ndarray.Array, including for degenerate scalar
// graphs, and is exclusively owned by the caller.
func Realise(ctx context.Context, a *Array) (*ndarray.Array, error) {
	return RealiseWith(ctx, DefaultScheduler(), a)
}

// RealiseWith is Realise with an explicit execution context.
func RealiseWith(ctx context.Context, sched *Scheduler, a *Array) (*ndarray.Array, error) {
	results, err := CoRealiseWith(ctx, sched, []*Array{a})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// CoRealise executes all the given lazy arrays in a single pass using
// the default scheduler. Graph nodes shared between inputs are
// computed once for the whole batch, so several arrays derived from
// one backing read cause a single read. The output order matches the
// input order; duplicate inputs yield independent results.
func CoRealise(ctx context.Context, arrays []*Array) ([]*ndarray.Array, error) {
	return CoRealiseWith(ctx, DefaultScheduler(), arrays)
}

// CoRealiseWith is CoRealise with an explicit execution context.
func CoRealiseWith(ctx context.Context, sched *Scheduler, arrays []*Array) ([]*ndarray.Array, error) {
	if sched == nil {
		sched = DefaultScheduler()
	}
	e := &evaluator{sched: sched, memo: make(map[*Array]*ndarray.Array)}
	results := make([]*ndarray.Array, len(arrays))
	seen := make(map[*ndarray.Array]bool)
	for i, a := range arrays {
		r, err := e.eval(ctx, a)
		if err != nil {
			return nil, err
		}
		if seen[r] {
			r = r.Copy()
		}
		seen[r] = true
		results[i] = r
	}
	return results, nil
}

// An evaluator executes one realisation batch. The memo holds results
// of already-computed graph nodes so shared sub-graphs are executed at
// most once per batch. Memoized entries are only read while building
// dependent nodes, never mutated.
type evaluator struct {
	sched *Scheduler
	memo  map[*Array]*ndarray.Array
}

func (e *evaluator) eval(ctx context.Context, a *Array) (*ndarray.Array, error) {
	if r, ok := e.memo[a]; ok {
		return r, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.sched.MaxBytes > 0 {
		size := int64(a.NumElements()) * int64(a.dtype.Size())
		if size > e.sched.MaxBytes {
			return nil, &MemoryError{Shape: a.Shape(), Dtype: a.dtype, Budget: e.sched.MaxBytes}
		}
	}

	var result *ndarray.Array
	var err error
	switch n := a.node.(type) {
	case arrayNode:
		// Leaf data may still be referenced by its owner, so the
		// realised result must be an independent copy.
		result = n.data.Copy()
	case sourceNode:
		result, err = e.readSource(ctx, a, n.src)
	case mapNode:
		var in *ndarray.Array
		in, err = e.eval(ctx, n.in)
		if err == nil {
			result = in.Copy()
			for i := 0; i < result.Len(); i++ {
				if result.Mask != nil && result.Mask[i] {
					continue
				}
				result.SetFloat64At(i, n.f(result.Float64At(i)))
			}
		}
	case castNode:
		var in *ndarray.Array
		in, err = e.eval(ctx, n.in)
		if err == nil {
			result, err = in.Cast(n.dtype)
		}
	case fillNode:
		var in *ndarray.Array
		in, err = e.eval(ctx, n.in)
		if err == nil {
			result = in.Filled(n.fill)
		}
	case stackNode:
		result, err = e.evalStack(ctx, a, n)
	default:
		err = fmt.Errorf("lazy: unknown node type %T", a.node)
	}
	if err != nil {
		return nil, err
	}
	e.memo[a] = result
	return result, nil
}

// evalStack realises the parts of a stack node and assembles them
// along a new leading axis.
func (e *evaluator) evalStack(ctx context.Context, a *Array, n stackNode) (*ndarray.Array, error) {
	result := ndarray.Zeros(a.dtype, a.shape...)
	partLen := ndarray.NumElements(a.shape[1:])
	for i, part := range n.parts {
		p, err := e.eval(ctx, part)
		if err != nil {
			return nil, err
		}
		if p.Dtype() != a.dtype {
			cast, err := p.Cast(a.dtype)
			if err != nil {
				return nil, err
			}
			p = cast
		}
		for j := 0; j < partLen; j++ {
			result.SetFloat64At(i*partLen+j, p.Float64At(j))
		}
		if p.Mask != nil {
			if result.Mask == nil {
				result.Mask = make([]bool, result.Len())
			}
			copy(result.Mask[i*partLen:(i+1)*partLen], p.Mask)
		}
	}
	return result, nil
}

// readSource realises a source leaf, reading one section per chunk on
// the chunk grid. With a multi-worker scheduler the sections of this
// leaf are read concurrently; each section writes to a disjoint region
// of the result.
func (e *evaluator) readSource(ctx context.Context, a *Array, src Source) (*ndarray.Array, error) {
	result := ndarray.Zeros(a.dtype, a.shape...)
	indices := gridIndices(gridShape(a.shape, a.chunks))

	var maskMu sync.Mutex
	readChunk := func(index []int) error {
		start, end := chunkBounds(index, a.shape, a.chunks)
		sec, err := src.ReadSection(start, end)
		if err != nil {
			return err
		}
		if sec.Dtype() != a.dtype {
			return fmt.Errorf("lazy: source returned dtype %v for section of %v array",
				sec.Dtype(), a.dtype)
		}
		if sec.Mask != nil {
			maskMu.Lock()
			if result.Mask == nil {
				result.Mask = make([]bool, result.Len())
			}
			maskMu.Unlock()
		}
		copySection(result, sec, start)
		return nil
	}

	if e.sched.Workers <= 1 || len(indices) == 1 {
		for _, index := range indices {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := readChunk(index); err != nil {
				return nil, err
			}
		}
		return result, nil
	}

	work := make(chan []int)
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error
	for w := 0; w < e.sched.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range work {
				if err := readChunk(index); err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
				}
			}
		}()
	}
	for _, index := range indices {
		work <- index
	}
	close(work)
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

// copySection copies the section src, whose origin within dst is
// start, into dst. The section must fit entirely within dst.
func copySection(dst, src *ndarray.Array, start []int) {
	if len(dst.Shape) == 0 {
		dst.SetFloat64At(0, src.Float64At(0))
		if src.Mask != nil && src.Mask[0] && dst.Mask != nil {
			dst.Mask[0] = true
		}
		return
	}
	dstStrides := strides(dst.Shape)
	index := make([]int, len(src.Shape))
	for i := 0; i < src.Len(); i++ {
		flat := 0
		for d := range index {
			flat += (start[d] + index[d]) * dstStrides[d]
		}
		dst.SetFloat64At(flat, src.Float64At(i))
		if src.Mask != nil && src.Mask[i] && dst.Mask != nil {
			dst.Mask[flat] = true
		}
		for d := len(index) - 1; d >= 0; d-- {
			index[d]++
			if index[d] < src.Shape[d] {
				break
			}
			index[d] = 0
		}
	}
}

// strides returns the row-major element strides of a shape.
func strides(shape []int) []int {
	out := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		out[i] = s
		s *= shape[i]
	}
	return out
}
