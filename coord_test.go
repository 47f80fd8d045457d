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
	"strings"
	"testing"

	"github.com/spatialmodel/cube/lazy"
)

func TestCoordBoundsShape(t *testing.T) {
	c, err := NewCoord("latitude", arange(4, 4))
	if err != nil {
		t.Fatal(err)
	}
	if c.HasBounds() {
		t.Fatal("expected no bounds on a fresh coordinate")
	}
	if err := c.SetBounds(arange(8, 4, 2)); err != nil {
		t.Fatalf("interval bounds rejected: %v", err)
	}
	if !c.HasBounds() {
		t.Error("expected bounds to be attached")
	}

	c, _ = NewCoord("latitude", arange(4, 4))
	err = c.SetBounds(arange(6, 3, 2))
	if err == nil {
		t.Fatal("expected a shape error for mismatched bounds")
	}
	if !strings.Contains(err.Error(), "(3, 2)") || !strings.Contains(err.Error(), "(4)") {
		t.Errorf("error does not name both shapes: %v", err)
	}

	// Bounds with no trailing dimension are also rejected.
	c, _ = NewCoord("latitude", arange(4, 4))
	if err := c.SetBounds(arange(4, 4)); err == nil {
		t.Error("expected a shape error for bounds without a trailing dimension")
	}
}

func TestCoordLazyPointsAndBounds(t *testing.T) {
	ctx := context.Background()
	c, err := NewCoord("longitude", lazy.FromArray(arange(4, 4), nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetBounds(lazy.FromArray(arange(8, 4, 2), nil)); err != nil {
		t.Fatal(err)
	}
	if c.LazyPoints() == nil || c.LazyBounds() == nil {
		t.Fatal("expected lazy views of points and bounds")
	}
	if !c.PointsManager().HasLazyData() || !c.BoundsManager().HasLazyData() {
		t.Error("taking lazy views realised the payloads")
	}
	points, err := c.Points(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if points.Float64At(3) != 3 {
		t.Errorf("expected 3, got %g", points.Float64At(3))
	}
	bounds, err := c.Bounds(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if bounds.Float64At(7) != 7 {
		t.Errorf("expected 7, got %g", bounds.Float64At(7))
	}
}

func TestCoordCopyAndEqual(t *testing.T) {
	ctx := context.Background()
	c, err := NewCoord("latitude", arange(4, 4))
	if err != nil {
		t.Fatal(err)
	}
	c.Units = "degrees"
	if err := c.SetBounds(arange(8, 4, 2)); err != nil {
		t.Fatal(err)
	}
	c2, err := c.Copy()
	if err != nil {
		t.Fatal(err)
	}
	if eq, err := c.Equal(ctx, c2); err != nil || !eq {
		t.Fatalf("expected the copy to equal the original: %v %v", eq, err)
	}
	p2, err := c2.Points(ctx)
	if err != nil {
		t.Fatal(err)
	}
	p2.SetFloat64At(0, -90)
	if eq, _ := c.Equal(ctx, c2); eq {
		t.Error("mutating the copy's points should break equality")
	}

	// Bounds presence is part of equality.
	a, _ := NewCoord("latitude", arange(4, 4))
	b, _ := NewCoord("latitude", arange(4, 4))
	if err := b.SetBounds(arange(8, 4, 2)); err != nil {
		t.Fatal(err)
	}
	if eq, _ := a.Equal(ctx, b); eq {
		t.Error("expected bounds presence to break equality")
	}
}
