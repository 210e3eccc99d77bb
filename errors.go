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
	"fmt"
	"strings"
)

// InputError is returned when reference, geometry or metadata input is
// malformed, missing or inconsistent. It is fatal for the run.
type InputError struct {
	// Op names the processing step that failed, e.g. "AllocateByPopulation".
	Op string

	// Country and Region identify the affected unit, if known.
	Country, Region string

	Err error
}

// NewInputError returns an InputError for the given step and location
// with a formatted message.
func NewInputError(op, country, region, format string, a ...interface{}) *InputError {
	return &InputError{Op: op, Country: country, Region: region, Err: fmt.Errorf(format, a...)}
}

func (e *InputError) Error() string {
	return fmt.Sprintf("euses: %s%s: %v", e.Op, location(e.Country, e.Region), e.Err)
}

// Unwrap returns the underlying cause.
func (e *InputError) Unwrap() error { return e.Err }

// NormalizationError is returned when a weight series sums to zero, so
// that it cannot be scaled to an annual volume.
type NormalizationError struct {
	Country, Region, Sector string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("euses: normalizing %s profile%s: weights sum to zero",
		e.Sector, location(e.Country, e.Region))
}

// CoverageGap records input that fell outside all known region polygons.
// It is not an error: the excluded quantity is kept for auditing.
type CoverageGap struct {
	// Kind describes the excluded input, e.g. "facility" or "raster cell".
	Kind string

	// Count is the number of excluded items.
	Count int

	// Excluded is the sum of the quantity carried by excluded items.
	Excluded float64
}

func (g CoverageGap) String() string {
	return fmt.Sprintf("%d %s(s) outside all regions, %g excluded", g.Count, g.Kind, g.Excluded)
}

func location(country, region string) string {
	var parts []string
	if country != "" {
		parts = append(parts, "country "+country)
	}
	if region != "" {
		parts = append(parts, "region "+region)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
