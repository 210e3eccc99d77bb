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

// Package profile reads the reference tables used to shape and scale
// demand: generic load profiles, national heat volumes, national hourly
// power load and the country substitutions used when a table lacks a
// country.
package profile

import (
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spatialmodel/euses"
	"github.com/spatialmodel/euses/temporal"
)

type temperatureRecord struct {
	Class       string  `csv:"NUTS2_code"`
	Hour        int     `csv:"hour"`
	Temperature float64 `csv:"temperature"`
	Load        float64 `csv:"load"`
}

// ReadTemperatureProfiles reads a Hotmaps temperature-indexed generic
// heating profile with the columns NUTS2_code, hour, temperature and load.
// Hours run from 1 to 24 in the source; hour 24 is read as hour 0.
func ReadTemperatureProfiles(r io.Reader) (*temporal.TemperatureTable, error) {
	var recs []*temperatureRecord
	if err := gocsv.Unmarshal(r, &recs); err != nil {
		return nil, &euses.InputError{Op: "ReadTemperatureProfiles", Err: err}
	}
	rows := make([]temporal.TemperatureRow, len(recs))
	for i, rec := range recs {
		h := rec.Hour
		if h == 24 {
			h = 0
		}
		rows[i] = temporal.TemperatureRow{
			Class:       strings.TrimSpace(rec.Class),
			Hour:        h,
			Temperature: rec.Temperature,
			Load:        rec.Load,
		}
	}
	return temporal.NewTemperatureTable(rows)
}

type calendarRecord struct {
	Class   string  `csv:"NUTS2_code"`
	Hour    int     `csv:"hour"`
	DayType int     `csv:"day_type"`
	Season  int     `csv:"season"`
	Load    float64 `csv:"load"`
}

// ReadCalendarProfiles reads a Hotmaps calendar-indexed generic profile
// with the columns NUTS2_code, hour, day_type, load and, if seasonAware,
// season.
func ReadCalendarProfiles(r io.Reader, seasonAware bool) (*temporal.CalendarTable, error) {
	var recs []*calendarRecord
	if err := gocsv.Unmarshal(r, &recs); err != nil {
		return nil, &euses.InputError{Op: "ReadCalendarProfiles", Err: err}
	}
	rows := make([]temporal.CalendarRow, len(recs))
	for i, rec := range recs {
		rows[i] = temporal.CalendarRow{
			Class:   strings.TrimSpace(rec.Class),
			Hour:    rec.Hour,
			DayType: rec.DayType,
			Season:  rec.Season,
			Load:    rec.Load,
		}
	}
	return temporal.NewCalendarTable(rows, seasonAware)
}

// open opens the file at path, expanding environment variables.
func open(op, path string) (*os.File, error) {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, &euses.InputError{Op: op, Err: err}
	}
	return f, nil
}

// ReadTemperatureProfilesFile reads the temperature-indexed profile at path.
func ReadTemperatureProfilesFile(path string) (*temporal.TemperatureTable, error) {
	f, err := open("ReadTemperatureProfiles", path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTemperatureProfiles(f)
}

// ReadCalendarProfilesFile reads the calendar-indexed profile at path.
func ReadCalendarProfilesFile(path string, seasonAware bool) (*temporal.CalendarTable, error) {
	f, err := open("ReadCalendarProfiles", path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCalendarProfiles(f, seasonAware)
}
