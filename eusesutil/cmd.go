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

// Package eusesutil holds the command-line interface and configuration
// handling for EUSES.
package eusesutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/euses"
	"github.com/spatialmodel/euses/industry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	correction := make(map[string]string)
	for c, v := range industry.DefaultCorrection {
		correction[c] = fmt.Sprint(v)
	}

	// Options are the configuration options available to EUSES.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel sets the level of messages that are logged: one of
              debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Year",
			usage: `
              Year is the year demand is calculated for. All reference
              data, such as temperatures and hourly load, must cover it.`,
			shorthand:  "y",
			defaultVal: 2015,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Countries",
			usage: `
              Countries lists the codes of the countries to include. If it
              is empty, every country in the region file is included.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Regions.File",
			usage: `
              Regions.File is the path to the region boundaries, either a
              shapefile or a CSV file with the columns id, country,
              population and geometry, where geometry is GeoJSON.`,
			defaultVal: "${EUSES_DATA}/regions.shp",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Regions.IDField",
			usage: `
              Regions.IDField is the shapefile attribute holding the region ID.`,
			defaultVal: "NUTS_ID",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Regions.CountryField",
			usage: `
              Regions.CountryField is the shapefile attribute holding the
              country code. If it is empty, the first two characters of the
              region ID are used.`,
			defaultVal: "CNTR_CODE",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Regions.PopulationField",
			usage: `
              Regions.PopulationField is the shapefile attribute holding the
              number of residents.`,
			defaultVal: "population",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Regions.Proj",
			usage: `
              Regions.Proj gives the spatial projection that regions are
              processed in, in Proj4 format. Shapefile regions are
              reprojected to it, and CSV regions are assumed to be in it.`,
			defaultVal: "+proj=longlat +datum=WGS84 +no_defs",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Metadata",
			usage: `
              Metadata is the path to a TOML file holding the identifiers
              and district heating share of each country.`,
			defaultVal: "${EUSES_DATA}/metadata.toml",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Fallbacks",
			usage: `
              Fallbacks is the path to a TOML file holding the country
              substitutions used when reference data lack a country. If it
              is empty, the built-in substitutions are used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory results are written to.`,
			shorthand:  "o",
			defaultVal: "euses_output",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Power.LoadFile",
			usage: `
              Power.LoadFile is the path to the ENTSO-E monthly hourly load
              spreadsheet.`,
			defaultVal: "${EUSES_DATA}/entsoe/Monthly-hourly-load-values.xlsx",
			flagsets:   []*pflag.FlagSet{powerCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "Heat.DensityRaster",
			usage: `
              Heat.DensityRaster is the path to the NetCDF raster of annual
              useful heat demand per cell, in MWh.`,
			defaultVal: "${EUSES_DATA}/hotmaps/heat_tot_curr_density.nc",
			flagsets:   []*pflag.FlagSet{heatCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "Heat.DensityVariable",
			usage: `
              Heat.DensityVariable is the name of the raster variable in
              Heat.DensityRaster.`,
			defaultVal: "heat",
			flagsets:   []*pflag.FlagSet{heatCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "Heat.VolumesFile",
			usage: `
              Heat.VolumesFile is the path to the Hotmaps top-down space
              heating and hot water demand table.`,
			defaultVal: "${EUSES_DATA}/hotmaps/space_heating_hot_water.csv",
			flagsets:   []*pflag.FlagSet{heatCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "Heat.SpaceHeating.Residential",
			usage: `
              Heat.SpaceHeating.Residential is the path to the Hotmaps
              temperature-dependent residential heating load profiles.`,
			defaultVal: "${EUSES_DATA}/hotmaps/hotmaps_task_2.7_load_profile_residential_heating_generic.csv",
			flagsets:   []*pflag.FlagSet{heatCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "Heat.SpaceHeating.Service",
			usage: `
              Heat.SpaceHeating.Service is the path to the Hotmaps
              temperature-dependent tertiary heating load profiles.`,
			defaultVal: "${EUSES_DATA}/hotmaps/hotmaps_task_2.7_load_profile_tertiary_heating_generic.csv",
			flagsets:   []*pflag.FlagSet{heatCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "Heat.HotWater.Residential",
			usage: `
              Heat.HotWater.Residential is the path to the Hotmaps
              calendar-dependent residential hot water load profiles,
              which distinguish seasons.`,
			defaultVal: "${EUSES_DATA}/hotmaps/hotmaps_task_2.7_load_profile_residential_shw_generic.csv",
			flagsets:   []*pflag.FlagSet{heatCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "Heat.HotWater.Service",
			usage: `
              Heat.HotWater.Service is the path to the Hotmaps
              calendar-dependent tertiary hot water load profiles. The
              season column, if present, is ignored.`,
			defaultVal: "${EUSES_DATA}/hotmaps/hotmaps_task_2.7_load_profile_tertiary_shw_generic.csv",
			flagsets:   []*pflag.FlagSet{heatCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "Heat.TemperatureFile",
			usage: `
              Heat.TemperatureFile is the path to a CSV file of hourly
              temperatures with one column per country.`,
			defaultVal: "${EUSES_DATA}/weather/temperature.csv",
			flagsets:   []*pflag.FlagSet{heatCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "Heat.Decentralized",
			usage: `
              Heat.Decentralized specifies whether to split heat demand
              into district heating and decentralized supply.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{heatCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "Industry.FacilitiesFile",
			usage: `
              Industry.FacilitiesFile is the path to the Hotmaps industrial
              database.`,
			defaultVal: "${EUSES_DATA}/hotmaps/Industrial_Database.csv",
			flagsets:   []*pflag.FlagSet{industryCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "Industry.Correction",
			usage: `
              Industry.Correction gives the total iron and steel production
              in tonnes per year that the facilities of a country are
              scaled to, as a map of country codes to values.`,
			defaultVal: correction,
			flagsets:   []*pflag.FlagSet{industryCmd.Flags(), allCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("EUSES")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			case map[string]string:
				b := bytes.NewBuffer(nil)
				json.NewEncoder(b).Encode(v)
				set.StringP(option.name, option.shorthand, b.String(), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	runCmd.AddCommand(powerCmd)
	runCmd.AddCommand(heatCmd)
	runCmd.AddCommand(industryCmd)
	runCmd.AddCommand(allCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("euses: problem reading configuration file: %v", err)
		}
	}
	lvl, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("euses: %v", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "euses",
	Short: "Hourly regional energy demand.",
	Long: `EUSES disaggregates annual national energy statistics into hourly
demand time series for the sub-national regions of European countries.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'EUSES_var' where 'var' is the
name of the variable to be set, with dots replaced by underscores. File paths are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of EUSES.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("EUSES v%s\n", euses.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Calculate demand.",
	Long: `run calculates hourly regional demand and writes it to OutputDir.
Use the subcommands specified below to choose which demand to calculate.`,
	DisableAutoGenTag: true,
}

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Calculate power demand.",
	Long: `power allocates national hourly electricity load to regions by
population.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAndReport(cmd, Parts{Power: true})
	},
	DisableAutoGenTag: true,
}

var heatCmd = &cobra.Command{
	Use:   "heat",
	Short: "Calculate heat demand.",
	Long: `heat calculates hourly space heating and hot water demand of the
residential and service sectors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAndReport(cmd, Parts{Heat: true})
	},
	DisableAutoGenTag: true,
}

var industryCmd = &cobra.Command{
	Use:   "industry",
	Short: "Calculate industrial demand.",
	Long: `industry estimates the hydrogen and power demand of iron and steel
plants.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAndReport(cmd, Parts{Industry: true})
	},
	DisableAutoGenTag: true,
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Calculate all demand.",
	Long: `all calculates power, heat and industrial demand and adds industrial
power demand to the power series.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAndReport(cmd, Parts{Power: true, Heat: true, Industry: true})
	},
	DisableAutoGenTag: true,
}

func runAndReport(cmd *cobra.Command, p Parts) error {
	paths, err := Run(context.Background(), Cfg, p)
	if err != nil {
		return err
	}
	for _, path := range paths {
		cmd.Printf("%s\n", path)
	}
	return nil
}
