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

// Package spatial allocates quantities known for a larger area, or at
// points, to the regions of a euses.RegionIndex.
package spatial

import (
	"math"

	"github.com/spatialmodel/euses"
)

// PopulationShares returns the fraction of the total population of
// regions that lives in each region.
func PopulationShares(regions []*euses.Region) (map[string]float64, error) {
	var total float64
	for _, r := range regions {
		total += r.Population
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		country := ""
		if len(regions) > 0 {
			country = regions[0].Country
		}
		return nil, euses.NewInputError("PopulationShares", country, "",
			"total population of %d regions is %g", len(regions), total)
	}
	o := make(map[string]float64, len(regions))
	for _, r := range regions {
		o[r.ID] = r.Population / total
	}
	return o, nil
}

// AllocateByPopulation splits q among regions in proportion to their
// population. The allocated values sum to q.
func AllocateByPopulation(q float64, regions []*euses.Region) (map[string]float64, error) {
	shares, err := PopulationShares(regions)
	if err != nil {
		return nil, err
	}
	for id, s := range shares {
		shares[id] = s * q
	}
	return shares, nil
}

// Audit records input that could not be allocated to any region.
type Audit struct {
	Gaps []euses.CoverageGap
}

// Record adds g to the audit if it excludes anything.
func (a *Audit) Record(g euses.CoverageGap) {
	if g.Count == 0 {
		return
	}
	a.Gaps = append(a.Gaps, g)
}

// Merge adds the gaps in b to a.
func (a *Audit) Merge(b Audit) {
	a.Gaps = append(a.Gaps, b.Gaps...)
}

// Excluded returns the total quantity excluded.
func (a Audit) Excluded() float64 {
	var v float64
	for _, g := range a.Gaps {
		v += g.Excluded
	}
	return v
}
