/*
Copyright © 2021 the EUSES authors.
This file is part of EUSES.

EUSES is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

EUSES is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with EUSES.  If not, see <http://www.gnu.org/licenses/>.
*/

package spatial

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/requestcache"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/euses"
	"github.com/spatialmodel/euses/internal/hash"
)

// zonalCacheSize is the number of region zonal sums kept in memory per
// raster.
const zonalCacheSize = 2000

// Raster is a regular grid of values, such as heat demand density.
// Cell (i, j) has its centre at (X0 + (i+0.5)*Dx, Y0 + (j+0.5)*Dy);
// Dx and Dy may be negative.
type Raster struct {
	Nx, Ny         int
	X0, Y0, Dx, Dy float64

	// Values has shape [Ny, Nx]. NaN marks cells without data.
	Values *sparse.DenseArray

	// SR is the spatial reference of the grid.
	SR *proj.SR

	key   string
	cache *requestcache.Cache
}

// NewRaster returns a raster with the given values and grid.
func NewRaster(values *sparse.DenseArray, x0, y0, dx, dy float64, sr *proj.SR) (*Raster, error) {
	const op = "NewRaster"
	if values == nil || len(values.Shape) != 2 {
		return nil, euses.NewInputError(op, "", "", "raster values need to be two-dimensional")
	}
	if dx == 0 || dy == 0 || math.IsNaN(dx) || math.IsNaN(dy) {
		return nil, euses.NewInputError(op, "", "", "invalid cell size %g×%g", dx, dy)
	}
	if sr == nil {
		return nil, euses.NewInputError(op, "", "", "raster has no spatial reference")
	}
	r := &Raster{
		Ny:     values.Shape[0],
		Nx:     values.Shape[1],
		X0:     x0,
		Y0:     y0,
		Dx:     dx,
		Dy:     dy,
		Values: values,
		SR:     sr,
	}
	r.key = hash.Key(r.Nx, r.Ny, x0, y0, dx, dy, values.Elements)
	r.cache = requestcache.NewCache(r.zonalWorker, runtime.GOMAXPROCS(0),
		requestcache.Deduplicate(), requestcache.Memory(zonalCacheSize))
	return r, nil
}

// Center returns the centre of cell (i, j).
func (r *Raster) Center(i, j int) geom.Point {
	return geom.Point{
		X: r.X0 + (float64(i)+0.5)*r.Dx,
		Y: r.Y0 + (float64(j)+0.5)*r.Dy,
	}
}

// Sum returns the sum of all cells with data.
func (r *Raster) Sum() float64 {
	var s float64
	for _, v := range r.Values.Elements {
		if !math.IsNaN(v) {
			s += v
		}
	}
	return s
}

// cellRange returns the inclusive range of cell indices along one axis
// whose centres may fall between lo and hi.
func cellRange(lo, hi, o, d float64, n int) (int, int) {
	a := (lo-o)/d - 0.5
	b := (hi-o)/d - 0.5
	if a > b {
		a, b = b, a
	}
	i0 := int(math.Max(math.Floor(a), 0))
	i1 := int(math.Min(math.Ceil(b), float64(n-1)))
	return i0, i1
}

type zonalRequest struct {
	region *euses.Region
	src    *proj.SR
}

type zonalResult struct {
	sum   float64
	cells []int
}

// zonalWorker sums the cells whose centre is inside or on the edge of
// the requested region.
func (r *Raster) zonalWorker(ctx context.Context, reqI interface{}) (interface{}, error) {
	req := reqI.(zonalRequest)
	const op = "AllocateByRaster"
	trans, err := req.src.NewTransform(r.SR)
	if err != nil {
		return nil, &euses.InputError{Op: op, Country: req.region.Country, Region: req.region.ID, Err: err}
	}
	g, err := req.region.Polygonal.Transform(trans)
	if err != nil {
		return nil, &euses.InputError{Op: op, Country: req.region.Country, Region: req.region.ID,
			Err: fmt.Errorf("reprojecting region to raster: %w", err)}
	}
	poly, ok := g.(geom.Polygonal)
	if !ok {
		return nil, euses.NewInputError(op, req.region.Country, req.region.ID, "reprojected region is %T", g)
	}
	b := poly.Bounds()
	i0, i1 := cellRange(b.Min.X, b.Max.X, r.X0, r.Dx, r.Nx)
	j0, j1 := cellRange(b.Min.Y, b.Max.Y, r.Y0, r.Dy, r.Ny)
	var res zonalResult
	for j := j0; j <= j1; j++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := i0; i <= i1; i++ {
			if r.Center(i, j).Within(poly) == geom.Outside {
				continue
			}
			k := j*r.Nx + i
			res.cells = append(res.cells, k)
			if v := r.Values.Elements[k]; !math.IsNaN(v) {
				res.sum += v
			}
		}
	}
	return res, nil
}

// AllocateByRaster returns the zonal sum of r within each region of idx:
// the sum of all cells whose centre lies inside or on the edge of the
// region polygon. Regions are reprojected to the spatial reference of r.
// Regions that cover no cells get zero. Cells with non-zero values that
// lie outside all regions are recorded in the returned Audit.
// Zonal sums are memoized per raster and region.
func AllocateByRaster(ctx context.Context, idx *euses.RegionIndex, r *Raster) (map[string]float64, Audit, error) {
	regions := idx.Regions()
	reqs := make([]*requestcache.Request, len(regions))
	srKey := hash.Key(idx.SR)
	for i, reg := range regions {
		key := fmt.Sprintf("zonal_%s_%s_%s_%s", r.key, srKey, reg.ID, hash.Key(reg.Bounds()))
		reqs[i] = r.cache.NewRequest(ctx, zonalRequest{region: reg, src: idx.SR}, key)
	}
	o := make(map[string]float64, len(regions))
	covered := make([]bool, len(r.Values.Elements))
	for i, req := range reqs {
		resI, err := req.Result()
		if err != nil {
			return nil, Audit{}, err
		}
		res := resI.(zonalResult)
		o[regions[i].ID] = res.sum
		for _, k := range res.cells {
			covered[k] = true
		}
	}
	gap := euses.CoverageGap{Kind: "raster cell"}
	for k, v := range r.Values.Elements {
		if covered[k] || v == 0 || math.IsNaN(v) {
			continue
		}
		gap.Count++
		gap.Excluded += v
	}
	var a Audit
	a.Record(gap)
	return o, a, nil
}
