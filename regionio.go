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
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"github.com/gocarina/gocsv"
)

// ReadRegionsShapefile reads regions from the shapefile at path,
// reprojecting them to sr. idField, countryField and popField name the
// attribute columns holding the region ID, country code and population.
// If countryField is empty, the country code is taken to be the first two
// characters of the region ID, following the NUTS convention.
func ReadRegionsShapefile(path, idField, countryField, popField string, sr *proj.SR) ([]*Region, error) {
	const op = "ReadRegionsShapefile"
	d, err := shp.NewDecoder(os.ExpandEnv(path))
	if err != nil {
		return nil, &InputError{Op: op, Err: err}
	}
	defer d.Close()
	shpSR, err := d.SR()
	if err != nil {
		return nil, &InputError{Op: op, Err: fmt.Errorf("reading shapefile projection: %w", err)}
	}
	trans, err := shpSR.NewTransform(sr)
	if err != nil {
		return nil, &InputError{Op: op, Err: err}
	}
	fields := []string{idField, popField}
	if countryField != "" {
		fields = append(fields, countryField)
	}

	var regions []*Region
	for {
		g, vals, more := d.DecodeRowFields(fields...)
		if !more {
			break
		}
		r, err := newRegion(vals[idField], vals[countryField], vals[popField])
		if err != nil {
			return nil, err
		}
		gg, err := g.Transform(trans)
		if err != nil {
			return nil, &InputError{Op: op, Country: r.Country, Region: r.ID, Err: err}
		}
		p, ok := gg.(geom.Polygonal)
		if !ok {
			return nil, NewInputError(op, r.Country, r.ID, "region shapes need to be polygons, not %T", gg)
		}
		r.Polygonal = p
		regions = append(regions, r)
	}
	if err := d.Error(); err != nil {
		return nil, &InputError{Op: op, Err: err}
	}
	return regions, nil
}

// regionRecord is a row of a region table.
type regionRecord struct {
	ID         string `csv:"id"`
	Country    string `csv:"country"`
	Population string `csv:"population"`

	// Geometry is a GeoJSON geometry object.
	Geometry string `csv:"geometry"`
}

// ReadRegionsCSV reads regions from a comma-separated table with the
// columns id, country, population and geometry, where geometry holds a
// GeoJSON Polygon or MultiPolygon in the spatial reference of the index
// the regions are destined for.
func ReadRegionsCSV(r io.Reader) ([]*Region, error) {
	const op = "ReadRegionsCSV"
	var recs []*regionRecord
	if err := gocsv.Unmarshal(r, &recs); err != nil {
		return nil, &InputError{Op: op, Err: err}
	}
	regions := make([]*Region, len(recs))
	for i, rec := range recs {
		reg, err := newRegion(rec.ID, rec.Country, rec.Population)
		if err != nil {
			return nil, err
		}
		g, err := geojson.Decode([]byte(rec.Geometry))
		if err != nil {
			return nil, &InputError{Op: op, Country: reg.Country, Region: reg.ID, Err: err}
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, NewInputError(op, reg.Country, reg.ID, "region shapes need to be polygons, not %T", g)
		}
		reg.Polygonal = p
		regions[i] = reg
	}
	return regions, nil
}

func newRegion(id, country, pop string) (*Region, error) {
	id = strings.TrimSpace(id)
	country = strings.TrimSpace(country)
	if country == "" && len(id) >= 2 {
		country = id[0:2]
	}
	r := &Region{ID: id, Country: country}
	if s := strings.TrimSpace(pop); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &InputError{Op: "Region", Country: country, Region: id, Err: err}
		}
		r.Population = v
	}
	return r, nil
}
