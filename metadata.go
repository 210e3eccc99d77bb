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
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
)

// Metadata field names.
const (
	FieldNUTSID            = "nuts_id"
	FieldHotmapsID         = "hotmaps_id"
	FieldRenewablesNinjaID = "renewables_nj_id"
	FieldName              = "name"
	FieldDHShare           = "dh_share"
	FieldCO2In1990         = "co_2_1990"
	FieldPopulationFactor  = "population_factor"
)

// Metadata provides per-country attributes such as identifiers used by
// different data sources and the district heating share.
type Metadata interface {
	Get(country, field string) (interface{}, bool)
}

// MetadataTable is a Metadata backed by a table keyed by country code.
type MetadataTable map[string]map[string]interface{}

// ReadMetadata reads a MetadataTable in TOML format, where each table
// is a country code and each key a field:
//
//	[DE]
//	nuts_id = "DE"
//	hotmaps_id = "DE"
//	dh_share = 0.12
func ReadMetadata(r io.Reader) (MetadataTable, error) {
	t := make(MetadataTable)
	if _, err := toml.DecodeReader(r, &t); err != nil {
		return nil, &InputError{Op: "ReadMetadata", Err: err}
	}
	return t, nil
}

// ReadMetadataFile reads a MetadataTable from the TOML file at path.
func ReadMetadataFile(path string) (MetadataTable, error) {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, &InputError{Op: "ReadMetadata", Err: err}
	}
	defer f.Close()
	return ReadMetadata(f)
}

// Get implements Metadata.
func (t MetadataTable) Get(country, field string) (interface{}, bool) {
	c, ok := t[country]
	if !ok {
		return nil, false
	}
	v, ok := c[field]
	return v, ok
}

// MetadataFloat returns the given field as a number.
func MetadataFloat(m Metadata, country, field string) (float64, error) {
	v, ok := m.Get(country, field)
	if !ok {
		return 0, NewInputError("Metadata", country, "", "missing field %q", field)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, &InputError{Op: "Metadata", Country: country, Err: fmt.Errorf("field %q: %w", field, err)}
	}
	return f, nil
}

// MetadataString returns the given field as a string. If the field is
// absent, the country code itself is returned.
func MetadataString(m Metadata, country, field string) string {
	v, ok := m.Get(country, field)
	if !ok {
		return country
	}
	s, err := cast.ToStringE(v)
	if err != nil || s == "" {
		return country
	}
	return s
}
