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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spatialmodel/euses"
)

// TotalHeatTopic is the topic of the rows holding the total useful heat
// demand of each country.
const TotalHeatTopic = "Total useful heating demand - residential and service sector [TWh/y]"

var volumeFeatures = map[euses.EndUse]string{
	euses.SpaceHeating: "Total useful heating demand, per country - %s sector [TWh/y]",
	euses.HotWater:     "Total useful DHW demand, per country - %s sector [TWh/y]",
}

// squash collapses runs of white space, which are not used consistently
// in the source table.
func squash(s string) string { return strings.Join(strings.Fields(s), " ") }

type volumeRecord struct {
	Country string  `csv:"country_code"`
	Topic   string  `csv:"topic"`
	Feature string  `csv:"feature"`
	Value   float64 `csv:"value"`
}

// HeatVolumes holds national useful heat demand by sector and end use
// from the Hotmaps top-down table.
type HeatVolumes struct {
	totals   map[string]float64
	features map[string]map[string]float64
}

// ReadHeatVolumes reads the pipe-separated Hotmaps top-down space heating
// and hot water table, with the columns country_code, topic, feature and
// value. Where a country has several rows for a topic or feature, the
// first is used.
func ReadHeatVolumes(r io.Reader) (*HeatVolumes, error) {
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.LazyQuotes = true
	var recs []*volumeRecord
	if err := gocsv.UnmarshalCSV(cr, &recs); err != nil {
		return nil, &euses.InputError{Op: "ReadHeatVolumes", Err: err}
	}
	h := &HeatVolumes{
		totals:   make(map[string]float64),
		features: make(map[string]map[string]float64),
	}
	total := squash(TotalHeatTopic)
	for _, rec := range recs {
		c := strings.ToUpper(strings.TrimSpace(rec.Country))
		if squash(rec.Topic) == total {
			if _, ok := h.totals[c]; !ok {
				h.totals[c] = rec.Value
			}
		}
		f := squash(rec.Feature)
		if f == "" {
			continue
		}
		m, ok := h.features[c]
		if !ok {
			m = make(map[string]float64)
			h.features[c] = m
		}
		if _, ok := m[f]; !ok {
			m[f] = rec.Value
		}
	}
	return h, nil
}

// ReadHeatVolumesFile reads the top-down table at path.
func ReadHeatVolumesFile(path string) (*HeatVolumes, error) {
	f, err := open("ReadHeatVolumes", path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadHeatVolumes(f)
}

// Has returns whether the table holds a total for country.
func (h *HeatVolumes) Has(country string) bool {
	_, ok := h.totals[country]
	return ok
}

// Shares returns the share of each of euses.HeatCategories in the total
// useful heat demand of country.
func (h *HeatVolumes) Shares(country string) (map[euses.Category]float64, error) {
	const op = "HeatVolumes.Shares"
	total, ok := h.totals[country]
	if !ok {
		return nil, euses.NewInputError(op, country, "", "no total heat demand")
	}
	if total == 0 || math.IsNaN(total) {
		return nil, euses.NewInputError(op, country, "", "total heat demand is %g", total)
	}
	o := make(map[euses.Category]float64, len(euses.HeatCategories))
	for _, c := range euses.HeatCategories {
		f := squash(fmt.Sprintf(volumeFeatures[c.EndUse], c.Sector))
		v, ok := h.features[country][f]
		if !ok {
			return nil, euses.NewInputError(op, country, "", "missing feature %q", f)
		}
		o[c] = v / total
	}
	return o, nil
}
