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
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/ctessum/cdf"
	"github.com/ctessum/requestcache"

	"github.com/spatialmodel/cube/lazy"
	"github.com/spatialmodel/cube/ndarray"
)

// defaultCacheSize is the default number of variable sections held in
// a proxy's memory cache.
const defaultCacheSize = 100

// A VarProxy supplies one NetCDF variable's data on demand,
// satisfying lazy.Source. Each read opens its own file handle, so
// proxies are safe under the concurrent schedulers that a process may
// opt into. Section reads are deduplicated and cached, so identical
// concurrent sections hit the disk once.
type VarProxy struct {
	path  string
	name  string
	shape []int
	dtype ndarray.Dtype
	fill  *float64

	// CacheSize is the number of section results held in the memory
	// cache. It can only be changed before the first read. A value
	// of zero or less disables caching.
	CacheSize int

	cacheInit sync.Once
	cache     *requestcache.Cache
}

// Shape returns the variable's dimension lengths. No I/O.
func (p *VarProxy) Shape() []int { return append([]int{}, p.shape...) }

// Dtype returns the variable's element type. No I/O.
func (p *VarProxy) Dtype() ndarray.Dtype { return p.dtype }

// Lazy returns a lazy array backed by this proxy. If chunks is nil
// the default chunking policy is applied.
func (p *VarProxy) Lazy(chunks []int) (*lazy.Array, error) {
	return lazy.FromSource(p, chunks)
}

type sectionRequest struct {
	start, end []int
}

// ReadSection reads the half-open hyper-rectangle [start, end) of the
// variable. Elements equal to the variable's declared fill value are
// masked in the result.
func (p *VarProxy) ReadSection(start, end []int) (*ndarray.Array, error) {
	if p.CacheSize <= 0 {
		return p.readSection(start, end)
	}
	p.cacheInit.Do(func() {
		p.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			r := request.(sectionRequest)
			return p.readSection(r.start, r.end)
		}, runtime.GOMAXPROCS(-1),
			requestcache.Deduplicate(), requestcache.Memory(p.CacheSize))
	})
	key := fmt.Sprintf("%s:%s:%v:%v", p.path, p.name, start, end)
	req := p.cache.NewRequest(context.Background(), sectionRequest{start: start, end: end}, key)
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.(*ndarray.Array), nil
}

// readSection performs the actual file I/O for one section. The
// section is decomposed into contiguous runs, since the underlying
// reader addresses flat element ranges.
func (p *VarProxy) readSection(start, end []int) (*ndarray.Array, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("ncdf: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("ncdf: opening %s: %v", p.path, err)
	}

	secShape := make([]int, len(p.shape))
	for i := range secShape {
		secShape[i] = end[i] - start[i]
	}
	result := ndarray.Zeros(p.dtype, secShape...)

	// contig is the first dimension after which the section covers
	// whole dimensions, so a run along it is a flat range in the file.
	contig := 0
	for d := len(p.shape) - 1; d > 0; d-- {
		if start[d] != 0 || end[d] != p.shape[d] {
			contig = d
			break
		}
	}
	runLen := end[contig] - start[contig]
	for _, d := range p.shape[contig+1:] {
		runLen *= d
	}

	prefix := make([]int, contig)
	copy(prefix, start[:contig])
	nRuns := 1
	for d := 0; d < contig; d++ {
		nRuns *= end[d] - start[d]
	}
	for run := 0; run < nRuns; run++ {
		begin := make([]int, len(p.shape))
		last := make([]int, len(p.shape))
		copy(begin, prefix)
		copy(last, prefix)
		begin[contig] = start[contig]
		last[contig] = end[contig] - 1
		for d := contig + 1; d < len(p.shape); d++ {
			last[d] = p.shape[d] - 1
		}
		if err := p.readRun(ff, begin, last, runLen, result, run*runLen); err != nil {
			return nil, err
		}
		for d := contig - 1; d >= 0; d-- {
			prefix[d]++
			if prefix[d] < end[d] {
				break
			}
			prefix[d] = start[d]
		}
	}

	if p.fill != nil {
		for i := 0; i < result.Len(); i++ {
			if result.Float64At(i) == *p.fill {
				if result.Mask == nil {
					result.Mask = make([]bool, result.Len())
				}
				result.Mask[i] = true
			}
		}
	}
	return result, nil
}

// readRun reads one contiguous run of n elements, from the begin
// corner through the last (inclusive) corner, into result starting at
// element offset.
func (p *VarProxy) readRun(ff *cdf.File, begin, last []int, n int, result *ndarray.Array, offset int) error {
	r := ff.Reader(p.name, begin, last)
	if r == nil {
		return fmt.Errorf("ncdf: variable %s not in %s", p.name, p.path)
	}
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return fmt.Errorf("ncdf: reading variable %s: %v", p.name, err)
	}
	switch b := buf.(type) {
	case []float64:
		copy(result.Data.([]float64)[offset:], b)
	case []float32:
		copy(result.Data.([]float32)[offset:], b)
	case []int32:
		copy(result.Data.([]int32)[offset:], b)
	case []int16:
		out := result.Data.([]int32)
		for i, v := range b {
			out[offset+i] = int32(v)
		}
	default:
		return fmt.Errorf("ncdf: variable %s has an unsupported storage type", p.name)
	}
	return nil
}
