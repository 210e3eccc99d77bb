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

package demand

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/euses"
	"github.com/spatialmodel/euses/industry"
	"github.com/spatialmodel/euses/profile"
	"github.com/spatialmodel/euses/spatial"
	"github.com/spatialmodel/euses/temporal"
	"gonum.org/v1/gonum/floats"
)

const testYear = 2015

func different(a, b, tolerance float64) bool {
	return !floats.EqualWithinAbsOrRel(a, b, tolerance, tolerance)
}

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}}
}

func testSR(t *testing.T) *proj.SR {
	sr, err := proj.Parse(industry.FacilityProj)
	if err != nil {
		t.Fatal(err)
	}
	return sr
}

// testBuilder returns a builder for country A, with regions A1 covering
// [0,2]×[0,2] with population 1 and A2 covering [2,4]×[0,2] with
// population 3, and country B, with region B1 covering [0,2]×[2,4].
func testBuilder(t *testing.T) *Builder {
	idx, err := euses.NewRegionIndex(testSR(t), []*euses.Region{
		{Polygonal: square(0, 0, 2, 2), ID: "A1", Country: "A", Population: 1},
		{Polygonal: square(2, 0, 4, 2), ID: "A2", Country: "A", Population: 3},
		{Polygonal: square(0, 2, 2, 4), ID: "B1", Country: "B", Population: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return &Builder{
		Year:    testYear,
		Regions: idx,
		Metadata: euses.MetadataTable{
			"A": {euses.FieldDHShare: 0.25},
			"B": {euses.FieldDHShare: 0.5, euses.FieldHotmapsID: "BB"},
		},
		Fallbacks: profile.Fallbacks{
			profile.VolumeCountry:      {"BB": "A"},
			profile.SpaceHeatingClass:  {"B": "A"},
			profile.SpaceHeatingSeries: {"B": "A"},
		},
		Log: log,
	}
}

type nationalLoad map[string][]float64

func (n nationalLoad) Hourly(country string, year int) ([]float64, error) {
	v, ok := n[country]
	if !ok {
		return nil, euses.NewInputError("Hourly", country, "", "no load")
	}
	return v, nil
}

func ramp(n int, scale float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = scale * float64(i%24+1)
	}
	return v
}

func TestPower(t *testing.T) {
	b := testBuilder(t)
	n := euses.HoursInYear(testYear)
	load := nationalLoad{"A": ramp(n, 10), "B": ramp(n, 1)}
	ts, err := b.Power(context.Background(), load)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i += 997 {
		a := ts.Values["A1"][i] + ts.Values["A2"][i]
		if different(a, load["A"][i], 1e-12) {
			t.Errorf("hour %d: have %g but want %g", i, a, load["A"][i])
		}
		if different(ts.Values["A2"][i], 3*ts.Values["A1"][i], 1e-12) {
			t.Errorf("hour %d: A2 should be three times A1", i)
		}
		if different(ts.Values["B1"][i], load["B"][i], 1e-12) {
			t.Errorf("hour %d: have %g but want %g", i, ts.Values["B1"][i], load["B"][i])
		}
	}

	delete(load, "B")
	var ie *euses.InputError
	if _, err := b.Power(context.Background(), load); !errors.As(err, &ie) || ie.Country != "B" {
		t.Errorf("missing country: have error %v", err)
	}
}

type volumeShares map[string]map[euses.Category]float64

func (v volumeShares) Has(c string) bool { _, ok := v[c]; return ok }

func (v volumeShares) Shares(c string) (map[euses.Category]float64, error) {
	s, ok := v[c]
	if !ok {
		return nil, euses.NewInputError("Shares", c, "", "no volumes")
	}
	return s, nil
}

var (
	resSH = euses.Category{Sector: euses.Residential, EndUse: euses.SpaceHeating}
	serSH = euses.Category{Sector: euses.Service, EndUse: euses.SpaceHeating}
	resHW = euses.Category{Sector: euses.Residential, EndUse: euses.HotWater}
	serHW = euses.Category{Sector: euses.Service, EndUse: euses.HotWater}
)

// temperatureTable returns a table for class A that grades temperatures
// below 10 as cold and others as warm.
func temperatureTable(t *testing.T, cold, warm float64) *temporal.TemperatureTable {
	var rows []temporal.TemperatureRow
	for h := 0; h < 24; h++ {
		rows = append(rows,
			temporal.TemperatureRow{Class: "A", Hour: h, Temperature: -50, Load: cold},
			temporal.TemperatureRow{Class: "A", Hour: h, Temperature: 10, Load: warm},
			temporal.TemperatureRow{Class: "A", Hour: h, Temperature: 50, Load: 0},
		)
	}
	tt, err := temporal.NewTemperatureTable(rows)
	if err != nil {
		t.Fatal(err)
	}
	return tt
}

// testHeatInput returns a raster of 4×4 one-degree cells each holding 10
// MWh, so each region has 40 MWh and the upper right quarter lies outside
// all regions.
func testHeatInput(t *testing.T) HeatInput {
	v := sparse.ZerosDense(4, 4)
	for i := range v.Elements {
		v.Elements[i] = 10
	}
	r, err := spatial.NewRaster(v, 0, 0, 1, 1, testSR(t))
	if err != nil {
		t.Fatal(err)
	}

	tt := temperatureTable(t, 3, 1)

	temps := euses.NewTimeSeries(testYear)
	tv := make([]float64, temps.Len())
	for i := range tv {
		tv[i] = 20
		if temps.Times[i].Month() == 1 {
			tv[i] = 0
		}
	}
	if err := temps.Set("A", tv); err != nil {
		t.Fatal(err)
	}

	var arows, brows []temporal.CalendarRow
	for h := 1; h <= 24; h++ {
		for d := 0; d < 3; d++ {
			arows = append(arows, temporal.CalendarRow{Class: "A", Hour: h, DayType: d, Load: float64(h)})
			brows = append(brows, temporal.CalendarRow{Class: "BB", Hour: h, DayType: d, Load: 1})
		}
	}
	res, err := temporal.NewCalendarTable(append(brows, arows...), false)
	if err != nil {
		t.Fatal(err)
	}
	// The service table lacks BB, which falls back to the residential table.
	ser, err := temporal.NewCalendarTable(arows, false)
	if err != nil {
		t.Fatal(err)
	}
	return HeatInput{
		Density: r,
		Shares: volumeShares{"A": {
			resSH: 0.4, serSH: 0.3, resHW: 0.2, serHW: 0.1,
		}},
		SpaceHeating: map[euses.Sector]*temporal.TemperatureTable{
			euses.Residential: tt,
			euses.Service:     tt,
		},
		Temperatures: temps,
		HotWater: temporal.NewCalendarShaper(map[euses.Sector]*temporal.CalendarTable{
			euses.Residential: res,
			euses.Service:     ser,
		}),
		Decentralized: true,
	}
}

func TestHeat(t *testing.T) {
	b := testBuilder(t)
	in := testHeatInput(t)
	h, err := b.Heat(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if have := h.Audit.Excluded(); have != 40 {
		t.Errorf("excluded: have %g but want 40", have)
	}
	shares := in.Shares.(volumeShares)["A"]
	for _, c := range euses.HeatCategories {
		p, ok := h.Profiles[c]
		if !ok {
			t.Fatalf("missing %s profile", c)
		}
		for _, id := range []string{"A1", "A2", "B1"} {
			want := 40 * shares[c]
			if have := h.Volumes[c][id]; different(have, want, 1e-12) {
				t.Errorf("%s %s volume: have %g but want %g", c, id, have, want)
			}
			if have := p.Sum(id); different(have, want, 1e-9) {
				t.Errorf("%s %s profile sum: have %g but want %g", c, id, have, want)
			}
		}
	}

	// January is three times as cold as the rest of the year.
	sh := h.Profiles[resSH].Values["A1"]
	if different(sh[0], 3*sh[len(sh)-1], 1e-12) {
		t.Errorf("have %g in January and %g in December", sh[0], sh[len(sh)-1])
	}
	// Hot water in A follows the hour of day, with midnight as hour 24.
	// B uses the flat BB class.
	for _, c := range []euses.Category{resHW, serHW} {
		hw := h.Profiles[c]
		if a := hw.Values["A1"]; different(a[2], 2*a[1], 1e-12) || different(a[0], 24*a[1], 1e-12) {
			t.Errorf("%s: have %g, %g, %g at 00:00, 01:00, 02:00", c, a[0], a[1], a[2])
		}
		if bv := hw.Values["B1"]; different(bv[0], bv[12], 1e-12) {
			t.Errorf("%s: B1 should be flat but has %g and %g", c, bv[0], bv[12])
		}
	}

	for _, id := range h.Total.Regions() {
		var sum float64
		for _, c := range euses.HeatCategories {
			sum += h.Profiles[c].Sum(id)
		}
		if have := h.Total.Sum(id); different(have, sum, 1e-9) {
			t.Errorf("%s total: have %g but want %g", id, have, sum)
		}
		for i, v := range h.Total.Values[id] {
			if c, d := h.Centralized.Values[id][i], h.Decentralized.Values[id][i]; different(c+d, v, 1e-12) {
				t.Fatalf("%s hour %d: split does not add up", id, i)
			}
		}
	}
	if have, want := h.Centralized.Sum("B1"), 0.5*h.Total.Sum("B1"); different(have, want, 1e-9) {
		t.Errorf("B1 centralized: have %g but want %g", have, want)
	}
}

func TestHeat_missingTemperature(t *testing.T) {
	b := testBuilder(t)
	delete(b.Fallbacks, profile.SpaceHeatingSeries)
	_, err := b.Heat(context.Background(), testHeatInput(t))
	var ie *euses.InputError
	if !errors.As(err, &ie) || ie.Country != "B" {
		t.Errorf("have error %v but want InputError for B", err)
	}
}

func TestHeat_zeroProfile(t *testing.T) {
	b := testBuilder(t)
	in := testHeatInput(t)
	in.SpaceHeating[euses.Service] = temperatureTable(t, 0, 0)
	_, err := b.Heat(context.Background(), in)
	var ne *euses.NormalizationError
	if !errors.As(err, &ne) {
		t.Errorf("have error %v but want NormalizationError", err)
	}
}

func testFacilities() []industry.Facility {
	return []industry.Facility{
		{Location: geom.Point{X: 1, Y: 1}, Production: 100, Subsector: industry.IronAndSteel},
		{Location: geom.Point{X: 3, Y: 1}, Production: 300, Subsector: industry.IronAndSteel},
		{Location: geom.Point{X: 3, Y: 3}, Production: 50, Subsector: industry.IronAndSteel},
	}
}

func TestIndustry(t *testing.T) {
	b := testBuilder(t)
	est := &industry.Estimator{Coefficients: industry.DefaultCoefficients}
	res, err := b.Industry(context.Background(), est, testFacilities())
	if err != nil {
		t.Fatal(err)
	}
	if have := res.Audit.Excluded(); have != 50 {
		t.Errorf("excluded: have %g but want 50", have)
	}
	if have := res.Capacity["A2"][industry.IronAndSteel]; have != 300 {
		t.Errorf("A2 capacity: have %g but want 300", have)
	}
	for _, c := range industry.Carriers {
		ts := res.Power
		if c == euses.Hydrogen {
			ts = res.Hydrogen
		}
		if have, want := ts.Total(), res.Total(c); different(have, want, 1e-9) {
			t.Errorf("%s: have %g but want %g", c, have, want)
		}
	}
	if v := res.Power.Values["B1"]; len(v) != euses.HoursInYear(testYear) || v[0] != 0 {
		t.Errorf("B1 should have a zero series")
	}
}

func TestExport(t *testing.T) {
	b := testBuilder(t)
	ctx := context.Background()
	n := euses.HoursInYear(testYear)
	power, err := b.Power(ctx, nationalLoad{"A": ramp(n, 10), "B": ramp(n, 1)})
	if err != nil {
		t.Fatal(err)
	}
	est := &industry.Estimator{Coefficients: industry.DefaultCoefficients}
	ind, err := b.Industry(ctx, est, testFacilities())
	if err != nil {
		t.Fatal(err)
	}
	out := &Output{Power: power, Industry: ind}
	series, err := out.Series()
	if err != nil {
		t.Fatal(err)
	}
	merged := series[string(euses.Electricity)]
	if have, want := merged.Total(), power.Total()+ind.Total(euses.Electricity); different(have, want, 1e-9) {
		t.Errorf("merged power: have %g but want %g", have, want)
	}
	if power.Total() == merged.Total() {
		t.Error("industrial power should be added")
	}

	dir := t.TempDir()
	paths, err := Export(filepath.Join(dir, "out"), out)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 5 {
		t.Errorf("have %d files: %v", len(paths), paths)
	}
	ts, err := euses.ReadCSV(mustOpen(t, filepath.Join(dir, "out", "power.csv")), testYear)
	if err != nil {
		t.Fatal(err)
	}
	if have, want := ts.Total(), -merged.Total(); different(have, want, 1e-9) || want >= 0 {
		t.Errorf("exported power: have %g but want %g", have, want)
	}
}

func mustOpen(t *testing.T, path string) *os.File {
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}
