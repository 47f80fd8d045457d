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

package ncdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"

	"github.com/spatialmodel/cube"
	"github.com/spatialmodel/cube/ndarray"
)

// writeTestFile creates a small NetCDF file with a float64, a float32
// and an int16 variable on a 4x5 grid.
func writeTestFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.nc")

	h := cdf.NewHeader([]string{"y", "x"}, []int{4, 5})
	h.AddVariable("temperature", []string{"y", "x"}, []float64{0})
	h.AddAttribute("temperature", "units", "K")
	h.AddAttribute("temperature", "standard_name", "air_temperature")
	h.AddVariable("pressure", []string{"y", "x"}, []float32{0})
	h.AddAttribute("pressure", "units", "Pa")
	h.AddAttribute("pressure", "_FillValue", []float32{-999})
	h.AddVariable("count", []string{"y", "x"}, []int16{0})
	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}

	temp := make([]float64, 20)
	pres := make([]float32, 20)
	counts := make([]int16, 20)
	for i := range temp {
		temp[i] = float64(i)
		pres[i] = float32(i) * 100
		counts[i] = int16(i + 1)
	}
	pres[7] = -999
	if _, err := f.Writer("temperature", []int{0, 0}, []int{4, 0}).Write(temp); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Writer("pressure", []int{0, 0}, []int{4, 0}).Write(pres); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Writer("count", []int{0, 0}, []int{4, 0}).Write(counts); err != nil {
		t.Fatal(err)
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		t.Fatal(err)
	}
	if err := ff.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenReadsOnlyHeader(t *testing.T) {
	f, err := Open(writeTestFile(t))
	if err != nil {
		t.Fatal(err)
	}
	vars := f.Variables()
	if len(vars) != 3 {
		t.Errorf("expected 3 variables, got %v", vars)
	}
	if got := f.Shape("temperature"); got[0] != 4 || got[1] != 5 {
		t.Errorf("expected shape [4 5], got %v", got)
	}
	if got := f.Dimensions("temperature"); got[0] != "y" || got[1] != "x" {
		t.Errorf("expected dimensions [y x], got %v", got)
	}
	if got := f.Attribute("temperature", "units"); got != "K" {
		t.Errorf("expected units K, got %q", got)
	}
	if got := f.Attribute("temperature", "nonexistent"); got != "" {
		t.Errorf("expected an empty string for a missing attribute, got %q", got)
	}
}

func TestCubeIsLazy(t *testing.T) {
	ctx := context.Background()
	f, err := Open(writeTestFile(t))
	if err != nil {
		t.Fatal(err)
	}
	c, err := f.Cube("temperature")
	if err != nil {
		t.Fatal(err)
	}
	if !c.HasLazyData() {
		t.Fatal("expected a lazy cube straight from the file")
	}
	if got := c.Shape(); got[0] != 4 || got[1] != 5 {
		t.Errorf("expected shape [4 5], got %v", got)
	}
	if c.Dtype() != ndarray.Float64 {
		t.Errorf("expected float64, got %v", c.Dtype())
	}
	if c.Units != "K" {
		t.Errorf("expected units K, got %q", c.Units)
	}
	if c.Attributes["standard_name"] != "air_temperature" {
		t.Errorf("expected the standard_name attribute to be carried: %v", c.Attributes)
	}

	data, err := c.Data(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		if data.Float64At(i) != float64(i) {
			t.Fatalf("element %d: expected %d, got %g", i, i, data.Float64At(i))
		}
	}
	if c.HasLazyData() {
		t.Error("expected real data after access")
	}
}

func TestFillValueMasking(t *testing.T) {
	ctx := context.Background()
	f, err := Open(writeTestFile(t))
	if err != nil {
		t.Fatal(err)
	}
	c, err := f.Cube("pressure")
	if err != nil {
		t.Fatal(err)
	}
	if c.Dtype() != ndarray.Float32 {
		t.Errorf("expected float32, got %v", c.Dtype())
	}
	data, err := c.Data(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !data.IsMasked() {
		t.Fatal("expected the fill value to be masked")
	}
	for i := 0; i < 20; i++ {
		if data.Mask[i] != (i == 7) {
			t.Errorf("element %d: unexpected mask %v", i, data.Mask[i])
		}
	}
	if data.Float64At(8) != 800 {
		t.Errorf("expected 800, got %g", data.Float64At(8))
	}
}

func TestInt16Widening(t *testing.T) {
	ctx := context.Background()
	f, err := Open(writeTestFile(t))
	if err != nil {
		t.Fatal(err)
	}
	c, err := f.Cube("count")
	if err != nil {
		t.Fatal(err)
	}
	if c.Dtype() != ndarray.Int32 {
		t.Errorf("expected int32, got %v", c.Dtype())
	}
	data, err := c.Data(ctx)
	if err != nil {
		t.Fatal(err)
	}
	values, ok := data.Data.([]int32)
	if !ok {
		t.Fatalf("expected []int32 storage, got %T", data.Data)
	}
	for i, v := range values {
		if v != int32(i+1) {
			t.Errorf("element %d: expected %d, got %d", i, i+1, v)
		}
	}
}

func TestChunkedSectionReads(t *testing.T) {
	ctx := context.Background()
	f, err := Open(writeTestFile(t))
	if err != nil {
		t.Fatal(err)
	}
	p, err := f.Proxy("temperature")
	if err != nil {
		t.Fatal(err)
	}
	p.CacheSize = 0
	la, err := p.Lazy([]int{2, 3})
	if err != nil {
		t.Fatal(err)
	}
	c, err := cube.NewCube("temperature", la)
	if err != nil {
		t.Fatal(err)
	}
	data, err := c.Data(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		if data.Float64At(i) != float64(i) {
			t.Fatalf("element %d: expected %d, got %g", i, i, data.Float64At(i))
		}
	}
}

func TestDirectSectionRead(t *testing.T) {
	f, err := Open(writeTestFile(t))
	if err != nil {
		t.Fatal(err)
	}
	p, err := f.Proxy("temperature")
	if err != nil {
		t.Fatal(err)
	}
	p.CacheSize = 0
	sec, err := p.ReadSection([]int{1, 2}, []int{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if got := sec.Shape; got[0] != 2 || got[1] != 2 {
		t.Fatalf("expected section shape [2 2], got %v", got)
	}
	// Rows 1 and 2, columns 2 and 3 of the 4x5 grid.
	want := []float64{7, 8, 12, 13}
	for i, w := range want {
		if sec.Float64At(i) != w {
			t.Errorf("element %d: expected %g, got %g", i, w, sec.Float64At(i))
		}
	}
}

func TestCachedReadsAreDeduplicated(t *testing.T) {
	f, err := Open(writeTestFile(t))
	if err != nil {
		t.Fatal(err)
	}
	p, err := f.Proxy("temperature")
	if err != nil {
		t.Fatal(err)
	}
	first, err := p.ReadSection([]int{0, 0}, []int{4, 5})
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.ReadSection([]int{0, 0}, []int{4, 5})
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equal(second) {
		t.Error("cached read returned different values")
	}
}

func TestMissingVariable(t *testing.T) {
	f, err := Open(writeTestFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Proxy("nonexistent"); err == nil {
		t.Error("expected an error for a missing variable")
	}
	if _, err := f.Cube("nonexistent"); err == nil {
		t.Error("expected an error for a missing variable")
	}
}
