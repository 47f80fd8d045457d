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

// A Coord describes one axis or location-dimension of a cube. Its
// points, and optionally its bounds, each have their own independent
// data manager, so either may be lazy or real on its own.
type Coord struct {
	Name  string
	Units string

	points *DataManager
	bounds *DataManager
}

// NewCoord creates a coordinate managing the given points data.
func NewCoord(name string, points interface{}) (*Coord, error) {
	dm, err := NewDataManager(points, nil)
	if err != nil {
		return nil, err
	}
	return &Coord{Name: name, points: dm}, nil
}

// SetBounds attaches bounds data to the coordinate. The bounds shape
// must be the points shape plus one trailing dimension (of e.g. 2 for
// interval bounds or 4 for cell corners).
func (c *Coord) SetBounds(bounds interface{}) error {
	if bounds == nil {
		c.bounds = nil
		return nil
	}
	dm, err := NewDataManager(bounds, nil)
	if err != nil {
		return err
	}
	pShape := c.points.Shape()
	bShape := dm.Shape()
	if len(bShape) != len(pShape)+1 || !sameShape(bShape[:len(pShape)], pShape) {
		return fmt.Errorf("cube: bounds shape %s is not points shape %s plus one trailing dimension",
			shapeString(bShape), shapeString(pShape))
	}
	c.bounds = dm
	return nil
}

// PointsManager returns the manager owning the coordinate's points.
func (c *Coord) PointsManager() *DataManager { return c.points }

// BoundsManager returns the manager owning the coordinate's bounds,
// or nil if no bounds are attached.
func (c *Coord) BoundsManager() *DataManager { return c.bounds }

// HasBounds reports whether bounds are attached.
func (c *Coord) HasBounds() bool { return c.bounds != nil }

// Points returns the realised points.
func (c *Coord) Points(ctx context.Context) (*ndarray.Array, error) {
	return c.points.Data(ctx)
}

// LazyPoints returns a lazy view of the points; never realises.
func (c *Coord) LazyPoints() *lazy.Array { return c.points.LazyData() }

// Bounds returns the realised bounds, or nil if none are attached.
func (c *Coord) Bounds(ctx context.Context) (*ndarray.Array, error) {
	if c.bounds == nil {
		return nil, nil
	}
	return c.bounds.Data(ctx)
}

// LazyBounds returns a lazy view of the bounds, or nil if none are
// attached; never realises.
func (c *Coord) LazyBounds() *lazy.Array {
	if c.bounds == nil {
		return nil
	}
	return c.bounds.LazyData()
}

// Shape returns the shape of the points.
func (c *Coord) Shape() []int { return c.points.Shape() }

// Copy returns an independent coordinate with copied points and
// bounds managers.
func (c *Coord) Copy() (*Coord, error) {
	points, err := c.points.Copy(nil)
	if err != nil {
		return nil, err
	}
	out := &Coord{Name: c.Name, Units: c.Units, points: points}
	if c.bounds != nil {
		bounds, err := c.bounds.Copy(nil)
		if err != nil {
			return nil, err
		}
		out.bounds = bounds
	}
	return out, nil
}

// Equal reports whether two coordinates have the same name, units,
// points and bounds. Not a lazy operation.
func (c *Coord) Equal(ctx context.Context, other *Coord) (bool, error) {
	if other == nil {
		return false, nil
	}
	if c.Name != other.Name || c.Units != other.Units {
		return false, nil
	}
	if c.HasBounds() != other.HasBounds() {
		return false, nil
	}
	eq, err := c.points.Equal(ctx, other.points)
	if err != nil || !eq {
		return eq, err
	}
	if c.bounds != nil {
		return c.bounds.Equal(ctx, other.bounds)
	}
	return true, nil
}
