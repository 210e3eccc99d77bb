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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/euses"
	"github.com/spatialmodel/euses/demand"
	"github.com/spatialmodel/euses/industry"
	"github.com/spatialmodel/euses/profile"
	"github.com/spatialmodel/euses/spatial"
	"github.com/spatialmodel/euses/temporal"
	"github.com/spf13/cast"
)

// Parts selects the kinds of demand a run calculates.
type Parts struct {
	Power, Heat, Industry bool
}

// Run calculates the selected parts of demand as configured in cfg and
// writes them to the configured output directory. It returns the paths
// of the files written.
func Run(ctx context.Context, cfg *viper.Viper, p Parts) ([]string, error) {
	b, err := Builder(cfg)
	if err != nil {
		return nil, err
	}
	out := new(demand.Output)
	if p.Power {
		load, err := profile.OpenPowerLoad(path(cfg, "Power.LoadFile"))
		if err != nil {
			return nil, err
		}
		if out.Power, err = b.Power(ctx, load); err != nil {
			return nil, err
		}
	}
	if p.Heat {
		in, err := HeatInput(cfg, b.Year)
		if err != nil {
			return nil, err
		}
		if out.Heat, err = b.Heat(ctx, in); err != nil {
			return nil, err
		}
	}
	if p.Industry {
		est, err := Estimator(cfg)
		if err != nil {
			return nil, err
		}
		facilities, err := industry.ReadFacilitiesFile(path(cfg, "Industry.FacilitiesFile"), industry.IronAndSteel)
		if err != nil {
			return nil, err
		}
		if out.Industry, err = b.Industry(ctx, est, facilities); err != nil {
			return nil, err
		}
	}
	return demand.Export(path(cfg, "OutputDir"), out)
}

// path returns the configuration variable varName with environment
// variables expanded.
func path(cfg *viper.Viper, varName string) string {
	return os.ExpandEnv(cfg.GetString(varName))
}

// Builder returns a demand builder for the regions, metadata and
// fallbacks in cfg.
func Builder(cfg *viper.Viper) (*demand.Builder, error) {
	idx, err := RegionIndex(cfg)
	if err != nil {
		return nil, err
	}
	b := &demand.Builder{
		Year:      cfg.GetInt("Year"),
		Regions:   idx,
		Fallbacks: profile.DefaultFallbacks,
		Log:       logrus.StandardLogger(),
	}
	if f := path(cfg, "Metadata"); f != "" {
		m, err := euses.ReadMetadataFile(f)
		if err != nil {
			return nil, err
		}
		b.Metadata = m
	}
	if f := path(cfg, "Fallbacks"); f != "" {
		if b.Fallbacks, err = profile.ReadFallbacksFile(f); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// RegionIndex reads the configured region file and returns the regions
// of the configured countries.
func RegionIndex(cfg *viper.Viper) (*euses.RegionIndex, error) {
	sr, err := proj.Parse(cfg.GetString("Regions.Proj"))
	if err != nil {
		return nil, fmt.Errorf("euses: parsing Regions.Proj: %v", err)
	}
	file := path(cfg, "Regions.File")
	var regions []*euses.Region
	switch strings.ToLower(filepath.Ext(file)) {
	case ".shp":
		regions, err = euses.ReadRegionsShapefile(file, cfg.GetString("Regions.IDField"),
			cfg.GetString("Regions.CountryField"), cfg.GetString("Regions.PopulationField"), sr)
	case ".csv":
		var f *os.File
		if f, err = os.Open(file); err != nil {
			return nil, fmt.Errorf("euses: opening region file: %w", err)
		}
		defer f.Close()
		regions, err = euses.ReadRegionsCSV(f)
	default:
		return nil, fmt.Errorf("euses: region file %s is neither a shapefile nor a CSV file", file)
	}
	if err != nil {
		return nil, err
	}
	idx, err := euses.NewRegionIndex(sr, regions)
	if err != nil {
		return nil, err
	}
	countries, err := cast.ToStringSliceE(cfg.Get("Countries"))
	if err != nil {
		return nil, fmt.Errorf("euses: invalid Countries: %v", err)
	}
	if len(countries) == 0 {
		return idx, nil
	}
	return idx.Subset(countries...)
}

// HeatInput reads the configured heat reference data for year.
func HeatInput(cfg *viper.Viper, year int) (demand.HeatInput, error) {
	in := demand.HeatInput{Decentralized: cfg.GetBool("Heat.Decentralized")}
	var err error
	if in.Density, err = spatial.ReadRaster(path(cfg, "Heat.DensityRaster"), cfg.GetString("Heat.DensityVariable")); err != nil {
		return in, err
	}
	if in.Shares, err = profile.ReadHeatVolumesFile(path(cfg, "Heat.VolumesFile")); err != nil {
		return in, err
	}
	in.SpaceHeating = make(map[euses.Sector]*temporal.TemperatureTable)
	for s, name := range map[euses.Sector]string{
		euses.Residential: "Heat.SpaceHeating.Residential",
		euses.Service:     "Heat.SpaceHeating.Service",
	} {
		if in.SpaceHeating[s], err = profile.ReadTemperatureProfilesFile(path(cfg, name)); err != nil {
			return in, err
		}
	}
	hw := make(map[euses.Sector]*temporal.CalendarTable)
	if hw[euses.Residential], err = profile.ReadCalendarProfilesFile(path(cfg, "Heat.HotWater.Residential"), true); err != nil {
		return in, err
	}
	if hw[euses.Service], err = profile.ReadCalendarProfilesFile(path(cfg, "Heat.HotWater.Service"), false); err != nil {
		return in, err
	}
	in.HotWater = temporal.NewCalendarShaper(hw)

	f, err := os.Open(path(cfg, "Heat.TemperatureFile"))
	if err != nil {
		return in, fmt.Errorf("euses: opening temperature file: %w", err)
	}
	defer f.Close()
	in.Temperatures, err = euses.ReadCSV(f, year)
	return in, err
}

// Estimator returns an industrial demand estimator using the configured
// production corrections.
func Estimator(cfg *viper.Viper) (*industry.Estimator, error) {
	c, err := getStringMapFloat("Industry.Correction", cfg)
	if err != nil {
		return nil, err
	}
	return &industry.Estimator{
		Coefficients: industry.DefaultCoefficients,
		Correction:   c,
	}, nil
}

// getStringMapFloat returns a map[string]float64 from a viper
// configuration, accounting for the fact that it might be a json object
// if it was set from a command line argument.
func getStringMapFloat(varName string, cfg *viper.Viper) (map[string]float64, error) {
	var m map[string]interface{}
	switch v := cfg.Get(varName).(type) {
	case map[string]interface{}:
		m = v
	case map[string]string:
		m = make(map[string]interface{}, len(v))
		for k, x := range v {
			m[k] = x
		}
	case string:
		if v == "" {
			return map[string]float64{}, nil
		}
		if err := json.NewDecoder(bytes.NewBufferString(v)).Decode(&m); err != nil {
			return nil, fmt.Errorf("euses: invalid %s: %v", varName, err)
		}
	default:
		return nil, fmt.Errorf("euses: invalid type for %s: %#v", varName, v)
	}
	o := make(map[string]float64, len(m))
	for k, v := range m {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("euses: invalid %s value for %s: %v", varName, k, err)
		}
		o[strings.ToUpper(k)] = f
	}
	return o, nil
}
