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

package temporal

import (
	"strings"

	"github.com/spatialmodel/euses"
)

// CalendarRow is one row of a calendar-indexed generic load profile.
// DayType and Season hold the numeric codes used by the source table.
type CalendarRow struct {
	Class   string
	Hour    int
	DayType int
	Season  int
	Load    float64
}

type calendarKey struct {
	hour, dayType, season int
}

// CalendarTable holds calendar-indexed generic load profiles for a number
// of classes. Tables that are not season-aware ignore the season column.
type CalendarTable struct {
	SeasonAware bool

	classes []string
	byClass map[string]map[calendarKey]float64

	// anySeason holds the first row of each class, hour and day type,
	// whatever its season.
	anySeason map[string]map[calendarKey]float64
}

// NewCalendarTable indexes rows by class. Where several rows have the
// same class, hour, day type and season, the first one is used.
func NewCalendarTable(rows []CalendarRow, seasonAware bool) (*CalendarTable, error) {
	t := &CalendarTable{
		SeasonAware: seasonAware,
		byClass:     make(map[string]map[calendarKey]float64),
		anySeason:   make(map[string]map[calendarKey]float64),
	}
	for _, r := range rows {
		if r.Hour < 1 || r.Hour > 24 {
			return nil, euses.NewInputError("NewCalendarTable", r.Class, "", "invalid hour %d", r.Hour)
		}
		m, ok := t.byClass[r.Class]
		if !ok {
			m = make(map[calendarKey]float64)
			t.byClass[r.Class] = m
			t.anySeason[r.Class] = make(map[calendarKey]float64)
			t.classes = append(t.classes, r.Class)
		}
		k := calendarKey{hour: r.Hour, dayType: r.DayType, season: r.Season}
		if !seasonAware {
			k.season = 0
		}
		if _, ok := m[k]; !ok {
			m[k] = r.Load
		}
		a := t.anySeason[r.Class]
		k.season = 0
		if _, ok := a[k]; !ok {
			a[k] = r.Load
		}
	}
	return t, nil
}

// Resolve returns the first class in table order whose code starts with
// class.
func (t *CalendarTable) Resolve(class string) (string, bool) {
	if class == "" {
		return "", false
	}
	for _, c := range t.classes {
		if strings.HasPrefix(c, class) {
			return c, true
		}
	}
	return "", false
}

// CalendarShaper looks up hourly loads in calendar-indexed profile tables.
type CalendarShaper struct {
	// Tables holds the profile table of each sector.
	Tables map[euses.Sector]*CalendarTable

	// Default is the sector whose table is used when a class is missing
	// from the table of the requested sector.
	Default euses.Sector

	// SeasonCodes and DayTypeCodes map calendar attributes to the codes
	// used in the tables.
	SeasonCodes  map[Season]int
	DayTypeCodes map[DayType]int
}

// NewCalendarShaper returns a shaper for the given tables that falls back
// to the residential table and uses the Hotmaps codes: summer 0, winter
// and shoulder 1; weekday 0, Saturday 1, Sunday 2.
func NewCalendarShaper(tables map[euses.Sector]*CalendarTable) *CalendarShaper {
	return &CalendarShaper{
		Tables:       tables,
		Default:      euses.Residential,
		SeasonCodes:  map[Season]int{Summer: 0, Winter: 1, Shoulder: 1},
		DayTypeCodes: map[DayType]int{Weekday: 0, Saturday: 1, Sunday: 2},
	}
}

// Weights returns the generic load of each hour of cal for the given
// sector and class. The result is not normalized. A class missing from
// the sector's table is looked up in the Default table, keyed the way the
// sector's own table is: if either table ignores seasons, the first row
// for each hour and day type is used.
func (s *CalendarShaper) Weights(cal *Calendar, sector euses.Sector, class string) ([]float64, error) {
	const op = "CalendarShaper.Weights"
	t, ok := s.Tables[sector]
	if !ok {
		return nil, euses.NewInputError(op, class, "", "no calendar profile table for sector %s", sector)
	}
	seasonAware := t.SeasonAware
	code, ok := t.Resolve(class)
	if !ok {
		t, ok = s.Tables[s.Default]
		if ok {
			code, ok = t.Resolve(class)
		}
		if !ok {
			return nil, euses.NewInputError(op, class, "", "no %s calendar profile for class", sector)
		}
	}
	m := t.byClass[code]
	if seasonAware = seasonAware && t.SeasonAware; !seasonAware {
		m = t.anySeason[code]
	}
	o := make([]float64, len(cal.Hours))
	for i, h := range cal.Hours {
		k := calendarKey{hour: h.Hour, dayType: s.DayTypeCodes[h.DayType]}
		if seasonAware {
			k.season = s.SeasonCodes[h.Season]
		}
		v, ok := m[k]
		if !ok {
			return nil, euses.NewInputError(op, class, "",
				"no %s profile row for hour %d, day type %d, season %d in class %s",
				sector, k.hour, k.dayType, k.season, code)
		}
		o[i] = v
	}
	return o, nil
}
