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

package euses

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

// Region is a sub-national area, normally a NUTS-2 region, that demand
// is allocated to.
type Region struct {
	geom.Polygonal

	// ID is the primary region identifier, e.g. "DE11".
	ID string

	// Country is the code of the country the region belongs to.
	Country string

	// Population is the number of residents.
	Population float64
}

// RegionIndex is the set of regions considered in a run. It is built
// once and only read afterwards, so it is safe for concurrent use.
type RegionIndex struct {
	// SR is the spatial reference that the region geometries are in.
	SR *proj.SR

	regions   []*Region
	byID      map[string]*Region
	byCountry map[string][]*Region
	tree      *rtree.Rtree
}

// NewRegionIndex validates the given regions and indexes them.
// sr is the spatial reference of the region geometry.
func NewRegionIndex(sr *proj.SR, regions []*Region) (*RegionIndex, error) {
	const op = "NewRegionIndex"
	if sr == nil {
		return nil, NewInputError(op, "", "", "missing spatial reference")
	}
	idx := &RegionIndex{
		SR:        sr,
		byID:      make(map[string]*Region),
		byCountry: make(map[string][]*Region),
		tree:      rtree.NewTree(25, 50),
	}
	for _, r := range regions {
		switch {
		case r.ID == "":
			return nil, NewInputError(op, r.Country, "", "region with empty ID")
		case r.Country == "":
			return nil, NewInputError(op, "", r.ID, "region has no country")
		case r.Polygonal == nil:
			return nil, NewInputError(op, r.Country, r.ID, "region has no geometry")
		case r.Population < 0 || math.IsNaN(r.Population) || math.IsInf(r.Population, 0):
			return nil, NewInputError(op, r.Country, r.ID, "invalid population %g", r.Population)
		}
		if _, ok := idx.byID[r.ID]; ok {
			return nil, NewInputError(op, r.Country, r.ID, "duplicate region")
		}
		idx.byID[r.ID] = r
		idx.regions = append(idx.regions, r)
		idx.byCountry[r.Country] = append(idx.byCountry[r.Country], r)
		idx.tree.Insert(r)
	}
	sort.Slice(idx.regions, func(i, j int) bool { return idx.regions[i].ID < idx.regions[j].ID })
	for _, rs := range idx.byCountry {
		sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
	}
	return idx, nil
}

// Len returns the number of regions.
func (idx *RegionIndex) Len() int { return len(idx.regions) }

// Get returns the region with the given ID.
func (idx *RegionIndex) Get(id string) (*Region, bool) {
	r, ok := idx.byID[id]
	return r, ok
}

// Regions returns all regions sorted by ID. The returned slice must not be
// modified.
func (idx *RegionIndex) Regions() []*Region { return idx.regions }

// IDs returns the sorted region IDs.
func (idx *RegionIndex) IDs() []string {
	ids := make([]string, len(idx.regions))
	for i, r := range idx.regions {
		ids[i] = r.ID
	}
	return ids
}

// Countries returns the sorted codes of the countries with at least one
// region.
func (idx *RegionIndex) Countries() []string {
	o := make([]string, 0, len(idx.byCountry))
	for c := range idx.byCountry {
		o = append(o, c)
	}
	sort.Strings(o)
	return o
}

// InCountry returns the regions belonging to the given country, sorted by ID.
func (idx *RegionIndex) InCountry(country string) []*Region {
	return idx.byCountry[country]
}

// Locate returns the region containing p, which must be in the spatial
// reference of the index. Points on a boundary shared by several regions
// are assigned to the region with the lowest ID.
func (idx *RegionIndex) Locate(p geom.Point) (*Region, bool) {
	var found *Region
	for _, g := range idx.tree.SearchIntersect(p.Bounds()) {
		r := g.(*Region)
		if p.Within(r.Polygonal) == geom.Outside {
			continue
		}
		if found == nil || r.ID < found.ID {
			found = r
		}
	}
	return found, found != nil
}

// Subset returns a new index holding only the regions of the given
// countries.
func (idx *RegionIndex) Subset(countries ...string) (*RegionIndex, error) {
	var regions []*Region
	for _, c := range countries {
		rs, ok := idx.byCountry[c]
		if !ok {
			return nil, NewInputError("Subset", c, "", "no regions for country")
		}
		regions = append(regions, rs...)
	}
	return NewRegionIndex(idx.SR, regions)
}
