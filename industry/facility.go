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

package industry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/gocarina/gocsv"
	"github.com/spatialmodel/euses"
)

// FacilityProj is the spatial reference of facility locations.
const FacilityProj = "+proj=longlat +datum=WGS84 +no_defs"

// IronAndSteel is the subsector of iron and steel plants.
const IronAndSteel = "Iron and steel"

// Facility is an industrial site.
type Facility struct {
	// Location is longitude and latitude in FacilityProj.
	Location geom.Point

	// Production is the annual production in tonnes.
	Production float64

	Subsector   string
	CompanyName string
}

type facilityRecord struct {
	Geom        string `csv:"geom"`
	Subsector   string `csv:"Subsector"`
	Production  string `csv:"Production"`
	CompanyName string `csv:"CompanyName"`
}

// ReadFacilities reads the semicolon-separated Hotmaps industrial
// database and returns the facilities of the given subsector whose
// location is given as an EPSG:4326 point. Missing production values
// are read as zero.
func ReadFacilities(r io.Reader, subsector string) ([]Facility, error) {
	const op = "ReadFacilities"
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	var recs []*facilityRecord
	if err := gocsv.UnmarshalCSV(cr, &recs); err != nil {
		return nil, &euses.InputError{Op: op, Err: err}
	}
	var o []Facility
	for i, rec := range recs {
		if rec.Subsector != subsector {
			continue
		}
		p, ok, err := parseEWKTPoint(rec.Geom, 4326)
		if err != nil {
			return nil, &euses.InputError{Op: op, Err: fmt.Errorf("row %d (%s): %w", i+2, rec.CompanyName, err)}
		}
		if !ok {
			continue
		}
		f := Facility{Location: p, Subsector: rec.Subsector, CompanyName: rec.CompanyName}
		if s := strings.TrimSpace(rec.Production); s != "" {
			f.Production, err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, &euses.InputError{Op: op, Err: fmt.Errorf("row %d (%s): %w", i+2, rec.CompanyName, err)}
			}
		}
		o = append(o, f)
	}
	return o, nil
}

// ReadFacilitiesFile reads the industrial database at path.
func ReadFacilitiesFile(path, subsector string) ([]Facility, error) {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, &euses.InputError{Op: "ReadFacilities", Err: err}
	}
	defer f.Close()
	return ReadFacilities(f, subsector)
}

// parseEWKTPoint parses a point such as "SRID=4326;POINT(9.1 48.7)".
// ok is false if s is empty or has a different SRID.
func parseEWKTPoint(s string, srid int) (p geom.Point, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return p, false, nil
	}
	parts := strings.SplitN(s, ";", 2)
	if len(parts) != 2 || !strings.HasPrefix(strings.ToUpper(parts[0]), "SRID=") {
		return p, false, nil
	}
	if strings.TrimSpace(parts[0][5:]) != strconv.Itoa(srid) {
		return p, false, nil
	}
	w := strings.TrimSpace(parts[1])
	if !strings.HasPrefix(strings.ToUpper(w), "POINT") {
		return p, false, fmt.Errorf("geometry %q is not a point", s)
	}
	w = strings.TrimSpace(w[len("POINT"):])
	if !strings.HasPrefix(w, "(") || !strings.HasSuffix(w, ")") {
		return p, false, fmt.Errorf("invalid point %q", s)
	}
	xy := strings.Fields(w[1 : len(w)-1])
	if len(xy) != 2 {
		return p, false, fmt.Errorf("invalid point %q", s)
	}
	if p.X, err = strconv.ParseFloat(xy[0], 64); err != nil {
		return p, false, err
	}
	if p.Y, err = strconv.ParseFloat(xy[1], 64); err != nil {
		return p, false, err
	}
	return p, true, nil
}
