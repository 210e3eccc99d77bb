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

// Package aggregate combines and decomposes regional time series.
package aggregate

import (
	"math"

	"github.com/spatialmodel/euses"
	"gonum.org/v1/gonum/floats"
)

// Combine returns the element-wise sum of the given series, which must
// all cover the same year and the same regions.
func Combine(profiles ...*euses.TimeSeries) (*euses.TimeSeries, error) {
	const op = "Combine"
	if len(profiles) == 0 {
		return nil, euses.NewInputError(op, "", "", "no series to combine")
	}
	first := profiles[0]
	o := first.Clone()
	for i, p := range profiles[1:] {
		if p.Year != first.Year || p.Len() != first.Len() {
			return nil, euses.NewInputError(op, "", "",
				"series %d covers %d hours of %d but series 0 covers %d hours of %d",
				i+1, p.Len(), p.Year, first.Len(), first.Year)
		}
		if len(p.Values) != len(first.Values) {
			return nil, euses.NewInputError(op, "", "",
				"series %d has %d regions but series 0 has %d", i+1, len(p.Values), len(first.Values))
		}
		for r, v := range p.Values {
			dst, ok := o.Values[r]
			if !ok {
				return nil, euses.NewInputError(op, "", r, "region missing from series 0")
			}
			floats.Add(dst, v)
		}
	}
	return o, nil
}

// SplitByFixedShare splits each regional series of total into the part
// given by the share of the region's country and the remainder, so that
// the two parts add up to total. Every country with a region in total
// needs a share between 0 and 1.
func SplitByFixedShare(total *euses.TimeSeries, shares map[string]float64, idx *euses.RegionIndex) (part, rest *euses.TimeSeries, err error) {
	const op = "SplitByFixedShare"
	part = euses.NewTimeSeries(total.Year)
	rest = euses.NewTimeSeries(total.Year)
	for r, v := range total.Values {
		reg, ok := idx.Get(r)
		if !ok {
			return nil, nil, euses.NewInputError(op, "", r, "region not in index")
		}
		s, ok := shares[reg.Country]
		if !ok {
			return nil, nil, euses.NewInputError(op, reg.Country, r, "missing share")
		}
		if s < 0 || s > 1 || math.IsNaN(s) {
			return nil, nil, euses.NewInputError(op, reg.Country, r, "share %g is not between 0 and 1", s)
		}
		p := make([]float64, len(v))
		q := make([]float64, len(v))
		for i, x := range v {
			p[i] = x * s
			q[i] = x - p[i]
		}
		if err := part.Set(r, p); err != nil {
			return nil, nil, err
		}
		if err := rest.Set(r, q); err != nil {
			return nil, nil, err
		}
	}
	return part, rest, nil
}
