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

package cube

import (
	"context"
	"fmt"

	"github.com/spatialmodel/cube/lazy"
	"github.com/spatialmodel/cube/ndarray"
)

// A DataManager owns exactly one array-valued payload and manages its
// lazy/real duality. At any time it holds exactly one of: a realised
// array, a lazy array, or no data at all with only a declared shape
// (the dataless state). Reading Data realises a lazy payload in place;
// every other accessor preserves laziness.
//
// A manager is not internally synchronized: it is owned by exactly one
// cube or coordinate, and sharing one across goroutines without
// external locking violates that ownership contract.
type DataManager struct {
	// self guards against shallow struct copies; see guard.
	self *DataManager

	lazyArray *lazy.Array
	realArray *ndarray.Array

	// shape is the declared shape of the dataless state. It is cleared
	// whenever the manager acquires a payload, and recomputed from the
	// live payload when asked.
	shape []int

	// realisedDtype, when valid, records that the lazy payload must be
	// reinterpreted as this dtype once computed, provided nothing is
	// masked at compute time.
	realisedDtype ndarray.Dtype
}

// NewDataManager creates a manager for the given payload. data may be
// a *lazy.Array, an *ndarray.Array, any value accepted by
// ndarray.AsArray, or nil together with a non-nil shape for the
// dataless state. Supplying both data and a shape is an error: a cube
// may not be created with both data and a custom shape.
func NewDataManager(data interface{}, shape []int) (*DataManager, error) {
	if data != nil && shape != nil {
		return nil, InvalidStateError("a cube may not be created with both data and a custom shape")
	}
	m := &DataManager{shape: shape}
	m.self = m
	if err := m.SetData(data); err != nil {
		return nil, err
	}
	return m, nil
}

// guard detects use of a shallow struct copy. The managed payload
// would be aliased between the copy and the original, so all such use
// fails with ErrShallowCopy.
func (m *DataManager) guard() error {
	if m.self != m {
		return ErrShallowCopy
	}
	return nil
}

// assertAxioms checks the manager state invariant: exactly one of
// lazy payload, real payload, or declared-shape dataless state.
func (m *DataManager) assertAxioms() error {
	if m.lazyArray != nil && m.realArray != nil {
		return InvalidStateError("unexpected data state, got both lazy and real data")
	}
	if m.lazyArray == nil && m.realArray == nil && m.shape == nil {
		return InvalidStateError("unexpected data state, got no lazy or real data, and no shape")
	}
	return nil
}

// Data returns the real data, realising any lazy payload in place
// first. After a successful call on a lazy manager, the manager holds
// real data and the lazy handle is released. For a dataless manager
// the result is nil. Realisation failures due to the scheduler's
// memory budget are returned as *lazy.MemoryError naming the shape
// and dtype that would have been required.
func (m *DataManager) Data(ctx context.Context) (*ndarray.Array, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	if m.lazyArray != nil {
		result, err := lazy.Realise(ctx, m.lazyArray)
		if err != nil {
			return nil, err
		}
		m.realArray = m.applyRealisedDtype(result)
		m.lazyArray = nil
		m.realisedDtype = ndarray.Invalid
		m.shape = nil
		if err := m.assertAxioms(); err != nil {
			return nil, err
		}
	}
	return m.realArray, nil
}

// applyRealisedDtype applies the pending realised-dtype cast to a
// freshly computed result. The cast only applies when nothing is
// masked: a mask attached with no bits set does not count as masked,
// so the cast applies and the mask wrapper is dropped. If any element
// is actually masked the result keeps its mask and natural dtype.
func (m *DataManager) applyRealisedDtype(result *ndarray.Array) *ndarray.Array {
	if m.realisedDtype == ndarray.Invalid {
		return result
	}
	if result.IsMasked() {
		return result
	}
	cast, err := result.Cast(m.realisedDtype)
	if err != nil {
		return result
	}
	cast.Mask = nil
	return cast
}

// SetData replaces the managed payload. Lazy data is stored as-is;
// anything else is coerced through ndarray.AsArray. A nil data value
// makes the manager dataless while keeping its current shape.
//
// The only shape promotion permitted is replacing 0-dimensional
// scalar data with single-element 1-dimensional data; any other shape
// change is an error. Any pending realised dtype is discarded.
func (m *DataManager) SetData(data interface{}) error {
	if err := m.guard(); err != nil {
		return err
	}
	// A typed nil pointer is the same request as an untyped nil.
	switch v := data.(type) {
	case *lazy.Array:
		if v == nil {
			data = nil
		}
	case *ndarray.Array:
		if v == nil {
			data = nil
		}
	}
	if data == nil {
		m.shape = m.Shape()
		m.lazyArray = nil
		m.realArray = nil
		m.realisedDtype = ndarray.Invalid
		return m.assertAxioms()
	}

	var newLazy *lazy.Array
	var newReal *ndarray.Array
	switch v := data.(type) {
	case *lazy.Array:
		newLazy = v
	default:
		a, err := ndarray.AsArray(data)
		if err != nil {
			return fmt.Errorf("cube: %v", err)
		}
		newReal = a
	}

	newShape := func() []int {
		if newLazy != nil {
			return newLazy.Shape()
		}
		return newReal.Shape
	}()
	if cur := m.Shape(); cur != nil && !sameShape(cur, newShape) {
		// The only reshape permitted is promoting a 0-dimensional
		// scalar to a 1-dimensional array of length one.
		if len(cur) != 0 || len(newShape) != 1 || newShape[0] != 1 {
			return fmt.Errorf("cube: require data with shape %s, got %s",
				shapeString(cur), shapeString(newShape))
		}
	}

	m.lazyArray = newLazy
	m.realArray = newReal
	m.shape = nil
	m.realisedDtype = ndarray.Invalid
	return m.assertAxioms()
}

// CoreData returns whichever payload is present without realising
// anything: a *lazy.Array, an *ndarray.Array, or nil for the dataless
// state.
func (m *DataManager) CoreData() interface{} {
	if m.lazyArray != nil {
		return m.lazyArray
	}
	if m.realArray != nil {
		return m.realArray
	}
	return nil
}

// LazyData returns a lazy view of the managed payload without ever
// realising anything. A real payload is wrapped as a lazy leaf; the
// stored payload itself is unchanged and the manager still holds real
// data afterwards. For a dataless manager the result is nil.
func (m *DataManager) LazyData() *lazy.Array {
	if m.lazyArray != nil {
		return m.lazyArray
	}
	if m.realArray != nil {
		return lazy.FromArray(m.realArray, nil)
	}
	return nil
}

// HasLazyData reports whether a lazy payload is being managed.
func (m *DataManager) HasLazyData() bool { return m.lazyArray != nil }

// HasRealData reports whether a realised payload is being managed.
func (m *DataManager) HasRealData() bool { return m.realArray != nil }

// Shape returns the shape of the managed data, without realising
// anything: the graph-known shape for lazy data, the array shape for
// real data, or the declared shape for the dataless state (nil when
// no shape was ever declared).
func (m *DataManager) Shape() []int {
	if m.lazyArray != nil {
		return m.lazyArray.Shape()
	}
	if m.realArray != nil {
		return append([]int{}, m.realArray.Shape...)
	}
	if m.shape == nil {
		return nil
	}
	return append([]int{}, m.shape...)
}

// Ndim returns the number of dimensions covered by the managed data.
func (m *DataManager) Ndim() int { return len(m.Shape()) }

// Dtype returns the dtype the realised data will have: the pending
// realised dtype if one is set, otherwise the payload's native dtype.
// It is Invalid for a dataless manager.
func (m *DataManager) Dtype() ndarray.Dtype {
	if m.realisedDtype != ndarray.Invalid {
		return m.realisedDtype
	}
	if m.lazyArray != nil {
		return m.lazyArray.Dtype()
	}
	if m.realArray != nil {
		return m.realArray.Dtype()
	}
	return ndarray.Invalid
}

// RealisedDtype returns the pending realised dtype, or Invalid if
// none is set.
func (m *DataManager) RealisedDtype() ndarray.Dtype { return m.realisedDtype }

// SetRealisedDtype records that the lazy payload, once computed with
// nothing masked, must be cast to the given dtype. It is only legal
// while lazy data is being managed, and only for integer or boolean
// kinds: the sole sanctioned use is reinterpreting a lazily unmasked
// array, and floating data never needs that. Passing Invalid clears
// any pending cast.
func (m *DataManager) SetRealisedDtype(dtype ndarray.Dtype) error {
	if err := m.guard(); err != nil {
		return err
	}
	if dtype == ndarray.Invalid {
		m.realisedDtype = ndarray.Invalid
		return nil
	}
	if m.lazyArray == nil {
		return fmt.Errorf("cube: cannot set realised dtype, no lazy data is available")
	}
	if !dtype.IsInteger() && !dtype.IsBool() {
		return fmt.Errorf("cube: realised dtype must be an integer or boolean kind, got %v", dtype)
	}
	m.realisedDtype = dtype
	return nil
}

// Copy returns an independent manager. With nil data the current
// payload is duplicated: a real array is deep-copied, while a lazy
// payload shares the immutable computation graph and duplicates only
// the managing record (including any pending realised dtype). With
// non-nil data, the replacement is validated against the current
// payload under the same shape rules as SetData and the new manager
// is built from the replacement.
func (m *DataManager) Copy(data interface{}) (*DataManager, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	if data == nil {
		switch {
		case m.lazyArray != nil:
			out, err := NewDataManager(m.lazyArray, nil)
			if err != nil {
				return nil, err
			}
			out.realisedDtype = m.realisedDtype
			return out, nil
		case m.realArray != nil:
			return NewDataManager(m.realArray.Copy(), nil)
		default:
			return NewDataManager(nil, m.Shape())
		}
	}

	// Validate the replacement against the currently managed data
	// using a throwaway manager, so the setter's shape rules apply
	// identically.
	check, err := NewDataManager(nil, m.Shape())
	if err == nil {
		err = check.SetData(data)
	}
	if err != nil {
		return nil, fmt.Errorf("cube: cannot copy DataManager: %v", err)
	}
	return NewDataManager(data, nil)
}

// Equal reports whether two managers hold the same data. This is
// explicitly not a lazy operation: lazy payloads on either side are
// computed (in one shared batch, so common upstream work runs once),
// although neither manager's stored state is modified. Managers are
// equal when their laziness state matches, their dtypes match, and
// their payloads are element-wise equal.
func (m *DataManager) Equal(ctx context.Context, other *DataManager) (bool, error) {
	if err := m.guard(); err != nil {
		return false, err
	}
	if other == nil {
		return false, nil
	}
	if m.HasLazyData() != other.HasLazyData() || m.Dtype() != other.Dtype() {
		return false, nil
	}
	if m.CoreData() == nil || other.CoreData() == nil {
		return m.CoreData() == nil && other.CoreData() == nil &&
			sameShape(m.Shape(), other.Shape()), nil
	}

	var batch []*lazy.Array
	if m.lazyArray != nil {
		batch = append(batch, m.lazyArray)
	}
	if other.lazyArray != nil {
		batch = append(batch, other.lazyArray)
	}
	results, err := lazy.CoRealise(ctx, batch)
	if err != nil {
		return false, err
	}
	a, b := m.realArray, other.realArray
	if m.lazyArray != nil {
		a, results = results[0], results[1:]
	}
	if other.lazyArray != nil {
		b = results[0]
	}
	return a.Equal(b), nil
}

// String summarizes the manager without realising anything.
func (m *DataManager) String() string {
	switch {
	case m.lazyArray != nil:
		return fmt.Sprintf("DataManager(lazy %v %s)", m.Dtype(), shapeString(m.Shape()))
	case m.realArray != nil:
		return fmt.Sprintf("DataManager(%v %s)", m.Dtype(), shapeString(m.Shape()))
	}
	return fmt.Sprintf("DataManager(dataless %s)", shapeString(m.Shape()))
}

func sameShape(a, b []int) bool {
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

// shapeString formats a shape in tuple style, e.g. "(4, 5)".
func shapeString(shape []int) string {
	s := "("
	for i, d := range shape {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d", d)
	}
	return s + ")"
}
