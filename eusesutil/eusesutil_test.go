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

package eusesutil

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/euses"
	"github.com/spatialmodel/euses/spatial"
	"github.com/tealeg/xlsx"
)

const testRegions = `id,country,population,geometry
DE11,DE,1,"{""type"":""Polygon"",""coordinates"":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}"
DE12,DE,3,"{""type"":""Polygon"",""coordinates"":[[[1,0],[2,0],[2,1],[1,1],[1,0]]]}"
`

const testMetadata = `
[DE]
nuts_id = "DE"
renewables_nj_id = "DE"
dh_share = 0.1
`

const testFacilities = `CompanyName;Subsector;geom;Production
Alpha AG;Iron and steel;"SRID=4326;POINT(0.5 0.5)";1000
Beta;Iron and steel;"SRID=4326;POINT(1.5 0.5)";3000
`

func writeFile(t *testing.T, dir, name, data string) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writePowerLoad(t *testing.T, dir string, year int) string {
	f := xlsx.NewFile()
	sh, err := f.AddSheet("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	header := sh.AddRow()
	for _, h := range []string{"Country", "Year", "Month", "Day", "Coverage ratio"} {
		header.AddCell().SetString(h)
	}
	for h := 0; h < 24; h++ {
		header.AddCell().SetString(strconv.Itoa(h))
	}
	for d := 0; d < euses.HoursInYear(year)/24; d++ {
		row := sh.AddRow()
		row.AddCell().SetString("DE")
		row.AddCell().SetInt(year)
		row.AddCell().SetInt(1)
		row.AddCell().SetInt(d + 1)
		row.AddCell().SetInt(100)
		for h := 0; h < 24; h++ {
			row.AddCell().SetFloat(400)
		}
	}
	path := filepath.Join(dir, "load.xlsx")
	if err := f.Save(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func setTestConfig(t *testing.T) string {
	dir := t.TempDir()
	Cfg.Set("config", "")
	Cfg.Set("Year", 2015)
	Cfg.Set("Regions.File", writeFile(t, dir, "regions.csv", testRegions))
	Cfg.Set("Metadata", writeFile(t, dir, "metadata.toml", testMetadata))
	Cfg.Set("Fallbacks", "")
	Cfg.Set("Power.LoadFile", writePowerLoad(t, dir, 2015))
	Cfg.Set("Industry.FacilitiesFile", writeFile(t, dir, "facilities.csv", testFacilities))
	Cfg.Set("Industry.Correction", `{"de": 8000}`)
	out := filepath.Join(dir, "out")
	Cfg.Set("OutputDir", out)
	return out
}

func TestVersion(t *testing.T) {
	var b bytes.Buffer
	Root.SetOutput(&b)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "EUSES v" + euses.Version + "\n"; b.String() != want {
		t.Errorf("have %q but want %q", b.String(), want)
	}
}

func TestRunPower(t *testing.T) {
	out := setTestConfig(t)
	Root.SetArgs([]string{"run", "power"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(filepath.Join(out, "power.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ts, err := euses.ReadCSV(f, 2015)
	if err != nil {
		t.Fatal(err)
	}
	if have := ts.Values["DE11"][10]; have != -100 {
		t.Errorf("DE11: have %g but want -100", have)
	}
	if have := ts.Values["DE12"][10]; have != -300 {
		t.Errorf("DE12: have %g but want -300", have)
	}
}

func TestRunIndustry(t *testing.T) {
	setTestConfig(t)
	Cfg.Set("Countries", []string{"DE"})
	defer Cfg.Set("Countries", []string{})
	if err := Root.PersistentPreRunE(nil, nil); err != nil {
		t.Fatal(err)
	}
	est, err := Estimator(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if est.Correction["DE"] != 8000 {
		t.Errorf("have correction %v", est.Correction)
	}
	if err := industryCmd.RunE(industryCmd, nil); err != nil {
		t.Fatal(err)
	}
	b, err := Builder(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if b.Regions.Len() != 2 {
		t.Errorf("have %d regions but want 2", b.Regions.Len())
	}
}

const testVolumes = `country|country_code|topic|feature|value|unit
Germany|de|Total useful heating demand - residential and service sector [TWh/y]|Total useful heating demand, per country [TWh/y]|100|TWh/y
Germany|de|Total useful heating demand - residential and service sector [TWh/y]|Total useful heating demand, per country - residential sector [TWh/y]|60|TWh/y
Germany|de|Total useful heating demand - residential and service sector [TWh/y]|Total useful heating demand, per country - service sector [TWh/y]|20|TWh/y
Germany|de|DHW|Total useful DHW demand, per country - residential sector [TWh/y]|15|TWh/y
Germany|de|DHW|Total useful DHW demand, per country - service sector [TWh/y]|5|TWh/y
`

// writeHeatInput writes the heat reference data for the test regions and
// sets the Heat configuration to it.
func writeHeatInput(t *testing.T, dir string, year int) {
	sr, err := proj.Parse("+proj=longlat +datum=WGS84 +no_defs")
	if err != nil {
		t.Fatal(err)
	}
	vals := sparse.ZerosDense(1, 2)
	copy(vals.Elements, []float64{10, 30})
	r, err := spatial.NewRaster(vals, 0, 0, 1, 1, sr)
	if err != nil {
		t.Fatal(err)
	}
	density := filepath.Join(dir, "density.nc")
	if err := spatial.WriteRaster(density, "heat", "+proj=longlat +datum=WGS84 +no_defs", r); err != nil {
		t.Fatal(err)
	}
	Cfg.Set("Heat.DensityRaster", density)
	Cfg.Set("Heat.DensityVariable", "heat")
	Cfg.Set("Heat.VolumesFile", writeFile(t, dir, "volumes.csv", testVolumes))

	var temp strings.Builder
	temp.WriteString("NUTS2_code,hour,temperature,load\n")
	for h := 1; h <= 24; h++ {
		for _, row := range []string{"-10,3", "20,1"} {
			temp.WriteString("DE," + strconv.Itoa(h) + "," + row + "\n")
		}
	}
	Cfg.Set("Heat.SpaceHeating.Residential", writeFile(t, dir, "sh_residential.csv", temp.String()))
	Cfg.Set("Heat.SpaceHeating.Service", writeFile(t, dir, "sh_service.csv", temp.String()))

	// The residential table has a summer (0) and a winter (1) load; the
	// service table has no season column.
	var res, ser strings.Builder
	res.WriteString("NUTS2_code,hour,day_type,season,load\n")
	ser.WriteString("NUTS2_code,hour,day_type,load\n")
	for h := 1; h <= 24; h++ {
		for d := 0; d < 3; d++ {
			prefix := "DE," + strconv.Itoa(h) + "," + strconv.Itoa(d) + ","
			res.WriteString(prefix + "0,1\n")
			res.WriteString(prefix + "1,5\n")
			ser.WriteString(prefix + "2\n")
		}
	}
	Cfg.Set("Heat.HotWater.Residential", writeFile(t, dir, "hw_residential.csv", res.String()))
	Cfg.Set("Heat.HotWater.Service", writeFile(t, dir, "hw_service.csv", ser.String()))

	temps := euses.NewTimeSeries(year)
	temps.Values["DE"] = make([]float64, temps.Len())
	for i := range temps.Values["DE"] {
		temps.Values["DE"][i] = 5
	}
	f, err := os.Create(filepath.Join(dir, "temperature.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := euses.WriteCSV(f, temps, 1); err != nil {
		t.Fatal(err)
	}
	Cfg.Set("Heat.TemperatureFile", f.Name())
	Cfg.Set("Heat.Decentralized", true)
}

func readOutput(t *testing.T, out, name string, year int) *euses.TimeSeries {
	f, err := os.Open(filepath.Join(out, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ts, err := euses.ReadCSV(f, year)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestRunHeat(t *testing.T) {
	out := setTestConfig(t)
	writeHeatInput(t, filepath.Dir(out), 2015)
	defer Cfg.Set("Heat.Decentralized", false)
	Root.SetArgs([]string{"run", "heat"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	hour := func(ts *euses.TimeSeries, month time.Month, day int) int {
		return int(time.Date(2015, month, day, 10, 0, 0, 0, time.UTC).Sub(ts.Times[0]) / time.Hour)
	}
	near := func(a, b float64) bool { return math.Abs(a-b) <= 1e-9*math.Abs(a+b) }

	res := readOutput(t, out, "heat_residential_hot_water.csv", 2015)
	winter, summer := res.Values["DE12"][hour(res, time.January, 15)], res.Values["DE12"][hour(res, time.July, 15)]
	if winter >= 0 || summer >= 0 {
		t.Errorf("demand should be negative: have winter %g, summer %g", winter, summer)
	}
	if !near(winter, 5*summer) {
		t.Errorf("residential hot water: have winter %g and summer %g but want a ratio of 5", winter, summer)
	}
	// Each region gets 15/100 of its zonal sum, which is 30 for DE12.
	if have := -res.Sum("DE12"); !near(have, 4.5) {
		t.Errorf("residential hot water DE12 total: have %g but want 4.5", have)
	}

	ser := readOutput(t, out, "heat_service_hot_water.csv", 2015)
	if w, s := ser.Values["DE11"][hour(ser, time.January, 15)], ser.Values["DE11"][hour(ser, time.July, 15)]; !near(w, s) {
		t.Errorf("service hot water: have winter %g and summer %g but want them equal", w, s)
	}

	total := readOutput(t, out, "heat.csv", 2015)
	if have := -total.Total(); !near(have, 40) {
		t.Errorf("total heat: have %g but want 40", have)
	}
	central := readOutput(t, out, "heat_centralized.csv", 2015)
	if have := -central.Sum("DE11"); !near(have, 1) {
		t.Errorf("centralized heat DE11: have %g but want 1", have)
	}
}

func TestRun_badRegions(t *testing.T) {
	setTestConfig(t)
	Cfg.Set("Regions.File", "regions.json")
	if _, err := Builder(Cfg); err == nil {
		t.Error("unknown region file type should fail")
	}
}

func TestGetStringMapFloat(t *testing.T) {
	tests := []struct {
		in   interface{}
		want map[string]float64
	}{
		{in: `{"DE": 45e6}`, want: map[string]float64{"DE": 45e6}},
		{in: map[string]interface{}{"de": int64(10)}, want: map[string]float64{"DE": 10}},
		{in: map[string]string{"AT": "2.5"}, want: map[string]float64{"AT": 2.5}},
		{in: "", want: map[string]float64{}},
	}
	for i, test := range tests {
		Cfg.Set("Industry.Correction", test.in)
		have, err := getStringMapFloat("Industry.Correction", Cfg)
		if err != nil {
			t.Fatalf("%d: %v", i, err)
		}
		if len(have) != len(test.want) {
			t.Errorf("%d: have %v but want %v", i, have, test.want)
		}
		for k, v := range test.want {
			if have[k] != v {
				t.Errorf("%d: have %v but want %v", i, have, test.want)
			}
		}
	}
	Cfg.Set("Industry.Correction", `{"DE": "lots"}`)
	if _, err := getStringMapFloat("Industry.Correction", Cfg); err == nil {
		t.Error("non-numeric correction should fail")
	}
}
