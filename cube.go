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

// Package cube provides a labelled multidimensional array type for
// gridded scientific data, built around the lazy/real data duality of
// the DataManager: every array-bearing entity (cube data, coordinate
// points, coordinate bounds) owns one manager that decides whether its
// payload is held realised in memory or as a deferred computation, and
// keeps transitions between the two consistent.
package cube

import (
	"context"
	"fmt"

	"github.com/ctessum/sparse"

	"github.com/spatialmodel/cube/lazy"
	"github.com/spatialmodel/cube/ndarray"
)

// A Cube is a single physical quantity over a set of coordinates. Its
// data payload is owned by exactly one DataManager; all data access
// goes through that manager so laziness is preserved wherever
// possible.
type Cube struct {
	// Name identifies the phenomenon, e.g. "air_temperature".
	Name string
	// Units is the physical unit of the data, e.g. "K".
	Units string
	// Attributes holds arbitrary metadata carried from the data source.
	Attributes map[string]string

	dm *DataManager

	// Coords are the coordinates describing the cube's dimensions and
	// locations. Each owns its own data managers for points and bounds.
	Coords []*Coord
}

// NewCube creates a cube managing the given data, which may be lazy,
// real, or anything else accepted by the DataManager.
func NewCube(name string, data interface{}) (*Cube, error) {
	dm, err := NewDataManager(data, nil)
	if err != nil {
		return nil, err
	}
	return &Cube{Name: name, dm: dm}, nil
}

// NewDatalessCube creates a cube with a declared shape but no data.
func NewDatalessCube(name string, shape []int) (*Cube, error) {
	dm, err := NewDataManager(nil, shape)
	if err != nil {
		return nil, err
	}
	return &Cube{Name: name, dm: dm}, nil
}

// DataManager returns the manager owning the cube's payload.
func (c *Cube) DataManager() *DataManager { return c.dm }

// Data returns the cube's real data, realising a lazy payload in
// place. Nil for a dataless cube.
func (c *Cube) Data(ctx context.Context) (*ndarray.Array, error) { return c.dm.Data(ctx) }

// SetData replaces the cube's payload through its manager, enforcing
// the manager's shape rules.
func (c *Cube) SetData(data interface{}) error { return c.dm.SetData(data) }

// CoreData returns the payload as-is, without realising anything.
func (c *Cube) CoreData() interface{} { return c.dm.CoreData() }

// LazyData returns a lazy view of the payload; never realises.
func (c *Cube) LazyData() *lazy.Array { return c.dm.LazyData() }

// HasLazyData reports whether the cube's payload is lazy.
func (c *Cube) HasLazyData() bool { return c.dm.HasLazyData() }

// Shape returns the cube's data shape without realising anything.
func (c *Cube) Shape() []int { return c.dm.Shape() }

// Dtype returns the dtype the realised data will have.
func (c *Cube) Dtype() ndarray.Dtype { return c.dm.Dtype() }

// DenseArray realises the cube's data and converts it for use with
// DenseArray-based numeric code. Masked elements become NaN.
func (c *Cube) DenseArray(ctx context.Context) (*sparse.DenseArray, error) {
	data, err := c.dm.Data(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("cube: cube %q has no data", c.Name)
	}
	return data.ToDense(), nil
}

// Copy returns an independent cube: metadata is duplicated and the
// data manager is copied with its usual semantics (deep for real
// payloads, shared immutable graph for lazy ones).
func (c *Cube) Copy() (*Cube, error) {
	dm, err := c.dm.Copy(nil)
	if err != nil {
		return nil, err
	}
	out := &Cube{Name: c.Name, Units: c.Units, dm: dm}
	if c.Attributes != nil {
		out.Attributes = make(map[string]string, len(c.Attributes))
		for k, v := range c.Attributes {
			out.Attributes[k] = v
		}
	}
	for _, crd := range c.Coords {
		crdCopy, err := crd.Copy()
		if err != nil {
			return nil, err
		}
		out.Coords = append(out.Coords, crdCopy)
	}
	return out, nil
}

// Equal reports whether two cubes have the same name, units and data.
// Like DataManager.Equal this is not a lazy operation, although the
// cubes' stored payloads are left as they were.
func (c *Cube) Equal(ctx context.Context, other *Cube) (bool, error) {
	if other == nil {
		return false, nil
	}
	if c.Name != other.Name || c.Units != other.Units {
		return false, nil
	}
	return c.dm.Equal(ctx, other.dm)
}

func (c *Cube) String() string {
	return fmt.Sprintf("Cube(%q, %v)", c.Name, c.dm)
}
