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

// Package ncdf loads NetCDF variables as lazily-backed cubes. Each
// variable is exposed through a proxy that satisfies lazy.Source:
// opening a file reads only the header, and variable data is read
// section by section when (and if) a consumer realises it.
package ncdf

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"

	"github.com/spatialmodel/cube"
	"github.com/spatialmodel/cube/ndarray"
)

// A File provides lazy access to the variables of a NetCDF file. Only
// the header is held in memory; data stays on disk until realised.
type File struct {
	path   string
	header *cdf.Header
}

// Open reads the header of the NetCDF file at path. No variable data
// is read.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ncdf: %v", err)
	}
	defer f.Close()
	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("ncdf: opening %s: %v", path, err)
	}
	return &File{path: path, header: cf.Header}, nil
}

// Variables returns the names of the variables in the file.
func (f *File) Variables() []string { return f.header.Variables() }

// Dimensions returns the dimension names of a variable.
func (f *File) Dimensions(name string) []string { return f.header.Dimensions(name) }

// Shape returns the dimension lengths of a variable.
func (f *File) Shape(name string) []int { return f.header.Lengths(name) }

// Attribute returns a string attribute of a variable, or "" if the
// attribute is absent or not character data.
func (f *File) Attribute(name, attr string) string {
	if s, ok := f.header.GetAttribute(name, attr).(string); ok {
		return s
	}
	return ""
}

// Proxy returns a lazy data source for the named variable.
func (f *File) Proxy(name string) (*VarProxy, error) {
	shape := f.header.Lengths(name)
	if len(shape) == 0 {
		return nil, fmt.Errorf("ncdf: variable %s not in %s", name, f.path)
	}
	dtype, err := varDtype(f.header, name)
	if err != nil {
		return nil, err
	}
	p := &VarProxy{
		path:      f.path,
		name:      name,
		shape:     shape,
		dtype:     dtype,
		fill:      fillValue(f.header, name),
		CacheSize: defaultCacheSize,
	}
	return p, nil
}

// Cube builds a cube holding the named variable as lazy data, with
// units and standard metadata attributes carried from the header.
// No variable data is read.
func (f *File) Cube(name string) (*cube.Cube, error) {
	p, err := f.Proxy(name)
	if err != nil {
		return nil, err
	}
	la, err := p.Lazy(nil)
	if err != nil {
		return nil, err
	}
	c, err := cube.NewCube(name, la)
	if err != nil {
		return nil, err
	}
	c.Units = f.Attribute(name, "units")
	for _, a := range f.header.Attributes(name) {
		if s, ok := f.header.GetAttribute(name, a).(string); ok {
			if c.Attributes == nil {
				c.Attributes = make(map[string]string)
			}
			c.Attributes[a] = s
		}
	}
	return c, nil
}

// varDtype maps a variable's NetCDF storage type to an ndarray dtype.
// 16-bit integers are widened to int32; byte and character variables
// are not supported as cube payloads.
func varDtype(h *cdf.Header, name string) (ndarray.Dtype, error) {
	switch h.ZeroValue(name, 1).(type) {
	case []float64:
		return ndarray.Float64, nil
	case []float32:
		return ndarray.Float32, nil
	case []int32:
		return ndarray.Int32, nil
	case []int16:
		return ndarray.Int32, nil
	}
	return ndarray.Invalid, fmt.Errorf("ncdf: variable %s has an unsupported storage type", name)
}

// fillValue returns the variable's fill or missing value, or nil if
// none is declared.
func fillValue(h *cdf.Header, name string) *float64 {
	for _, attr := range []string{"_FillValue", "missing_value"} {
		switch v := h.GetAttribute(name, attr).(type) {
		case []float64:
			if len(v) > 0 {
				return &v[0]
			}
		case []float32:
			if len(v) > 0 {
				f := float64(v[0])
				return &f
			}
		case []int32:
			if len(v) > 0 {
				f := float64(v[0])
				return &f
			}
		case []int16:
			if len(v) > 0 {
				f := float64(v[0])
				return &f
			}
		}
	}
	return nil
}
