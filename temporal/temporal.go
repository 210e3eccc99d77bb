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

// Package temporal distributes annual volumes over the hours of a year
// using generic load profiles, either indexed by outdoor temperature or by
// calendar attributes (season, day type and hour of day).
package temporal

import (
	"math"

	"github.com/spatialmodel/euses"
	"gonum.org/v1/gonum/floats"
)

// Normalize returns w divided by its sum, so that the result sums to one.
// country and c identify the profile in the returned error if w
// sums to zero.
func Normalize(w []float64, country string, c euses.Category) ([]float64, error) {
	sum := floats.Sum(w)
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, &euses.NormalizationError{Country: country, Sector: c.String()}
	}
	o := make([]float64, len(w))
	copy(o, w)
	floats.Scale(1/sum, o)
	return o, nil
}

// Scale returns the normalized profile pu multiplied by volume.
func Scale(pu []float64, volume float64) []float64 {
	o := make([]float64, len(pu))
	copy(o, pu)
	floats.Scale(volume, o)
	return o
}
