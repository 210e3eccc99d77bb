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
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/euses"
)

const (
	testProj = "+proj=longlat +datum=WGS84 +no_defs"
	mercProj = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}}
}

func testSR(t *testing.T, p string) *proj.SR {
	sr, err := proj.Parse(p)
	if err != nil {
		t.Fatal(err)
	}
	return sr
}

// testIndex returns two adjacent regions of country A, A1 covering
// [0,2]×[0,2] and A2 covering [2,4]×[0,2].
func testIndex(t *testing.T) *euses.RegionIndex {
	idx, err := euses.NewRegionIndex(testSR(t, testProj), []*euses.Region{
		{Polygonal: square(2, 0, 4, 2), ID: "A2", Country: "A", Population: 3},
		{Polygonal: square(0, 0, 2, 2), ID: "A1", Country: "A", Population: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestAllocateByPopulation(t *testing.T) {
	idx := testIndex(t)
	o, err := AllocateByPopulation(100, idx.InCountry("A"))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"A1": 25, "A2": 75}
	var sum float64
	for id, w := range want {
		if different(o[id], w, 1e-12) {
			t.Errorf("%s: have %g but want %g", id, o[id], w)
		}
		sum += o[id]
	}
	if different(sum, 100, 1e-12) {
		t.Errorf("conservation: have %g but want 100", sum)
	}
}

func TestAllocateByPopulation_zero(t *testing.T) {
	_, err := AllocateByPopulation(100, []*euses.Region{{ID: "A1", Country: "A"}})
	var ie *euses.InputError
	if !errors.As(err, &ie) {
		t.Fatalf("have error %v but want InputError", err)
	}
	if ie.Country != "A" {
		t.Errorf("have country %q but want A", ie.Country)
	}
}

func testRaster(t *testing.T) *Raster {
	// Columns 0-1 are in A1, 2-3 in A2 and 4 outside both regions.
	vals := sparse.ZerosDense(2, 5)
	copy(vals.Elements, []float64{
		1, 2, 3, 4, 10,
		5, 6, 7, 8, math.NaN(),
	})
	r, err := NewRaster(vals, 0, 0, 1, 1, testSR(t, testProj))
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestAllocateByRaster(t *testing.T) {
	idx := testIndex(t)
	r := testRaster(t)
	want := map[string]float64{"A1": 14, "A2": 22}
	for i := 0; i < 2; i++ { // The second pass is served from the cache.
		o, audit, err := AllocateByRaster(context.Background(), idx, r)
		if err != nil {
			t.Fatal(err)
		}
		for id, w := range want {
			if o[id] != w {
				t.Errorf("pass %d, %s: have %g but want %g", i, id, o[id], w)
			}
		}
		if len(audit.Gaps) != 1 {
			t.Fatalf("have %d gaps but want 1", len(audit.Gaps))
		}
		if g := audit.Gaps[0]; g.Count != 1 || g.Excluded != 10 {
			t.Errorf("have gap %v but want 1 cell with 10 excluded", g)
		}
	}
}

func TestAllocateByRaster_reproject(t *testing.T) {
	toMerc, err := testSR(t, testProj).NewTransform(testSR(t, mercProj))
	if err != nil {
		t.Fatal(err)
	}
	merc := func(x0, y0, x1, y1 float64) geom.Polygonal {
		p, err := square(x0, y0, x1, y1).Transform(toMerc)
		if err != nil {
			t.Fatal(err)
		}
		return p.(geom.Polygonal)
	}
	idx, err := euses.NewRegionIndex(testSR(t, mercProj), []*euses.Region{
		{Polygonal: merc(2, 0, 4, 2), ID: "A2", Country: "A", Population: 3},
		{Polygonal: merc(0, 0, 2, 2), ID: "A1", Country: "A", Population: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	o, audit, err := AllocateByRaster(context.Background(), idx, testRaster(t))
	if err != nil {
		t.Fatal(err)
	}
	for id, w := range map[string]float64{"A1": 14, "A2": 22} {
		if o[id] != w {
			t.Errorf("%s: have %g but want %g", id, o[id], w)
		}
	}
	if len(audit.Gaps) != 1 || audit.Gaps[0].Count != 1 {
		t.Errorf("have gaps %v but want 1 uncovered cell", audit.Gaps)
	}
}

func TestAllocateByRaster_noCoverage(t *testing.T) {
	idx, err := euses.NewRegionIndex(testSR(t, testProj), []*euses.Region{
		{Polygonal: square(20, 20, 21, 21), ID: "B1", Country: "B", Population: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	o, audit, err := AllocateByRaster(context.Background(), idx, testRaster(t))
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := o["B1"]; !ok || v != 0 {
		t.Errorf("have %g, %v but want 0, true", v, ok)
	}
	if have, want := audit.Excluded(), 46.; have != want {
		t.Errorf("excluded: have %g but want %g", have, want)
	}
}

func TestNewRaster_noSR(t *testing.T) {
	_, err := NewRaster(sparse.ZerosDense(1, 1), 0, 0, 1, 1, nil)
	var ie *euses.InputError
	if !errors.As(err, &ie) {
		t.Errorf("have error %v but want InputError", err)
	}
}

func TestReadRaster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "density.nc")
	r := testRaster(t)
	if err := WriteRaster(path, "heat", testProj, r); err != nil {
		t.Fatal(err)
	}
	r2, err := ReadRaster(path, "heat")
	if err != nil {
		t.Fatal(err)
	}
	if r2.Nx != 5 || r2.Ny != 2 || r2.Dx != 1 || r2.Dy != 1 || r2.X0 != 0 || r2.Y0 != 0 {
		t.Errorf("have grid %d×%d at (%g, %g) by (%g, %g)", r2.Nx, r2.Ny, r2.X0, r2.Y0, r2.Dx, r2.Dy)
	}
	if have, want := r2.Values.Get(1, 2), 7.; have != want {
		t.Errorf("cell (2, 1): have %g but want %g", have, want)
	}
	if have, want := r2.Sum(), r.Sum(); have != want {
		t.Errorf("sum: have %g but want %g", have, want)
	}
}

func TestAllocatePointsToRegions(t *testing.T) {
	idx := testIndex(t)
	ll := testSR(t, testProj)
	merc := testSR(t, mercProj)
	toMerc, err := ll.NewTransform(merc)
	if err != nil {
		t.Fatal(err)
	}
	pts := []Point{
		{Point: geom.Point{X: 1, Y: 1}, Tag: "steel", Quantity: 10},
		{Point: geom.Point{X: 1.5, Y: 0.5}, Tag: "steel", Quantity: 5},
		{Point: geom.Point{X: 3, Y: 1}, Tag: "steel", Quantity: 7},
		{Point: geom.Point{X: 3, Y: 0.5}, Tag: "other", Quantity: 1},
		{Point: geom.Point{X: 10, Y: 10}, Tag: "steel", Quantity: 3},
	}
	for i, p := range pts {
		x, y, err := toMerc(p.X, p.Y)
		if err != nil {
			t.Fatal(err)
		}
		pts[i].Point = geom.Point{X: x, Y: y}
	}
	o, audit, err := AllocatePointsToRegions(idx, pts, merc)
	if err != nil {
		t.Fatal(err)
	}
	if a := o["A1"]; a == nil || different(a.Quantity, 15, 1e-9) || a.Count != 2 {
		t.Errorf("A1: have %+v but want 15 from 2 points", a)
	}
	if a := o["A2"]; a == nil || different(a.ByTag["steel"], 7, 1e-9) || different(a.ByTag["other"], 1, 1e-9) {
		t.Errorf("A2: have %+v but want steel 7 and other 1", a)
	}
	if len(audit.Gaps) != 1 || audit.Gaps[0].Count != 1 || audit.Gaps[0].Excluded != 3 {
		t.Errorf("have audit %+v but want 1 point with 3 excluded", audit)
	}
}

func TestAllocatePointsToRegions_sharedEdge(t *testing.T) {
	idx := testIndex(t)
	pts := []Point{{Point: geom.Point{X: 2, Y: 1}, Tag: "steel", Quantity: 5}}
	o, _, err := AllocatePointsToRegions(idx, pts, idx.SR)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := o["A2"]; ok || o["A1"] == nil {
		t.Errorf("point on shared edge: have %+v but want it in A1", o)
	}
}
