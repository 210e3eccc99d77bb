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
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/euses"
)

// Point is a quantity located at a point, such as the production
// capacity of a facility.
type Point struct {
	geom.Point

	// Tag groups points within a region, e.g. by sector.
	Tag string

	Quantity float64
}

// Aggregate is the sum of the points allocated to a region.
type Aggregate struct {
	// Quantity is the total over all tags.
	Quantity float64

	// ByTag holds the total per tag.
	ByTag map[string]float64

	// Count is the number of points.
	Count int
}

func (a *Aggregate) add(p Point) {
	a.Quantity += p.Quantity
	a.ByTag[p.Tag] += p.Quantity
	a.Count++
}

// Scale multiplies all quantities in a by f.
func (a *Aggregate) Scale(f float64) {
	a.Quantity *= f
	for t, v := range a.ByTag {
		a.ByTag[t] = v * f
	}
}

// AllocatePointsToRegions reprojects points from sr to the spatial
// reference of idx and assigns each one to the region that contains it.
// A point on an edge shared by several regions goes to the region with
// the lowest ID. The returned map is keyed by region ID and only holds
// regions with at least one point. Points outside all regions are left
// out and recorded in the returned Audit.
func AllocatePointsToRegions(idx *euses.RegionIndex, points []Point, sr *proj.SR) (map[string]*Aggregate, Audit, error) {
	const op = "AllocatePointsToRegions"
	if sr == nil {
		return nil, Audit{}, euses.NewInputError(op, "", "", "points have no spatial reference")
	}
	trans, err := sr.NewTransform(idx.SR)
	if err != nil {
		return nil, Audit{}, &euses.InputError{Op: op, Err: err}
	}
	o := make(map[string]*Aggregate)
	gap := euses.CoverageGap{Kind: "point"}
	for i, p := range points {
		if math.IsNaN(p.Quantity) || math.IsInf(p.Quantity, 0) {
			return nil, Audit{}, euses.NewInputError(op, "", "", "point %d has invalid quantity %g", i, p.Quantity)
		}
		x, y, err := trans(p.X, p.Y)
		if err != nil {
			return nil, Audit{}, &euses.InputError{Op: op, Err: fmt.Errorf("reprojecting point %d: %w", i, err)}
		}
		r, ok := idx.Locate(geom.Point{X: x, Y: y})
		if !ok {
			gap.Count++
			gap.Excluded += p.Quantity
			continue
		}
		a, ok := o[r.ID]
		if !ok {
			a = &Aggregate{ByTag: make(map[string]float64)}
			o[r.ID] = a
		}
		a.add(p)
	}
	var audit Audit
	audit.Record(gap)
	return o, audit, nil
}
