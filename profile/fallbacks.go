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

package profile

import (
	"io"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/euses"
)

// Fallback kinds.
const (
	VolumeCountry      = "heat_volumes"
	SpaceHeatingClass  = "space_heating_class"
	SpaceHeatingSeries = "space_heating_temperature"
	HotWaterClass      = "hot_water_class"
)

// Fallbacks maps, for each kind of lookup, codes missing from a table to
// the code of a similar country that is used in their place.
type Fallbacks map[string]map[string]string

// DefaultFallbacks are the substitutions used for the Hotmaps tables.
var DefaultFallbacks = Fallbacks{
	VolumeCountry: {
		"AL": "HR", "MK": "HR", "ME": "HR",
		"CH": "LU", "NO": "SE", "EE00": "EE",
	},
	SpaceHeatingClass: {
		"NO": "SE", "CH": "LU",
	},
	SpaceHeatingSeries: {
		"AL": "HR", "MK": "HR", "ME": "HR",
		"EE": "EE00", "EL": "GR",
	},
	HotWaterClass: {
		"AL": "HR", "MK": "HR", "ME": "HR",
		"CH": "LU", "NO": "SE", "GR": "EL",
	},
}

// ReadFallbacks reads fallbacks in TOML format, with one table per kind:
//
//	[space_heating_class]
//	NO = "SE"
//	CH = "LU"
func ReadFallbacks(r io.Reader) (Fallbacks, error) {
	f := make(Fallbacks)
	if _, err := toml.DecodeReader(r, &f); err != nil {
		return nil, &euses.InputError{Op: "ReadFallbacks", Err: err}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// ReadFallbacksFile reads fallbacks from the TOML file at path.
func ReadFallbacksFile(path string) (Fallbacks, error) {
	r, err := open("ReadFallbacks", path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ReadFallbacks(r)
}

// Validate checks that every substitution is non-empty and that no
// chain of substitutions returns to where it started.
func (f Fallbacks) Validate() error {
	kinds := make([]string, 0, len(f))
	for k := range f {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		m := f[kind]
		for from, to := range m {
			if from == "" || to == "" {
				return euses.NewInputError("Fallbacks", from, "", "%s: empty substitution %q → %q", kind, from, to)
			}
			seen := map[string]bool{from: true}
			for c, ok := to, true; ok; c, ok = m[c] {
				if seen[c] {
					return euses.NewInputError("Fallbacks", from, "", "%s: substitution of %s is circular", kind, from)
				}
				seen[c] = true
			}
		}
	}
	return nil
}

// Resolve returns the code to look up in a table for the given kind and
// code. has reports whether the table holds a code. code itself is used if
// present; otherwise substitutions are followed until one is present.
func (f Fallbacks) Resolve(kind, code string, has func(string) bool) (string, error) {
	if has(code) {
		return code, nil
	}
	m := f[kind]
	c, ok := m[code]
	for i := 0; ok && i < len(m); i++ {
		if has(c) {
			return c, nil
		}
		c, ok = m[c]
	}
	return "", euses.NewInputError("Fallbacks.Resolve", code, "", "no %s data and no usable substitute", kind)
}
