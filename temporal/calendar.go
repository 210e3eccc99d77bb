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
	"fmt"
	"time"

	"github.com/spatialmodel/euses"
)

// Season is a part of the year with similar hot water use.
type Season int

// Seasons.
const (
	Winter Season = iota
	Shoulder
	Summer
)

func (s Season) String() string {
	switch s {
	case Winter:
		return "winter"
	case Shoulder:
		return "shoulder"
	case Summer:
		return "summer"
	default:
		return fmt.Sprintf("Season(%d)", int(s))
	}
}

// DayType classifies days of the week.
type DayType int

// Day types.
const (
	Weekday DayType = iota
	Saturday
	Sunday
)

func (d DayType) String() string {
	switch d {
	case Weekday:
		return "weekday"
	case Saturday:
		return "saturday"
	case Sunday:
		return "sunday"
	default:
		return fmt.Sprintf("DayType(%d)", int(d))
	}
}

// dayType returns the day type of the given weekday.
func dayType(d time.Weekday) DayType {
	switch d {
	case time.Saturday:
		return Saturday
	case time.Sunday:
		return Sunday
	default:
		return Weekday
	}
}

// MonthDay is a day of the year independent of the year.
type MonthDay struct {
	Month time.Month
	Day   int
}

// SeasonRange assigns a season to the days from Start to End, inclusive.
type SeasonRange struct {
	Season     Season
	Start, End MonthDay
}

// DefaultSeasons is a full year of winter, overridden by a shoulder
// season from March through November, overridden by summer from June
// through August. Ranges cover whole days, so Aug 31 01:00 to 23:00 is
// summer here; Hotmaps reference output, whose summer range ends at
// Aug 31 00:00, has those 23 hours in the shoulder season.
var DefaultSeasons = []SeasonRange{
	{Season: Winter, Start: MonthDay{time.January, 1}, End: MonthDay{time.December, 31}},
	{Season: Shoulder, Start: MonthDay{time.March, 1}, End: MonthDay{time.November, 30}},
	{Season: Summer, Start: MonthDay{time.June, 1}, End: MonthDay{time.August, 31}},
}

// HourClass is the calendar classification of one hour.
type HourClass struct {
	Season  Season
	DayType DayType

	// Hour is the hour of day from 1 to 24, where 24 is used for the
	// hour starting at midnight.
	Hour int
}

// Calendar holds the classification of every hour of a year.
type Calendar struct {
	Year  int
	Times []time.Time
	Hours []HourClass
}

// NewCalendar classifies every hour of year. Seasons are taken from
// ranges in order, so later ranges override earlier ones. Days not
// covered by any range are winter.
func NewCalendar(year int, ranges []SeasonRange) (*Calendar, error) {
	type span struct {
		s          Season
		start, end time.Time
	}
	spans := make([]span, len(ranges))
	for i, r := range ranges {
		start, err := r.Start.in(year)
		if err != nil {
			return nil, err
		}
		end, err := r.End.in(year)
		if err != nil {
			return nil, err
		}
		if end.Before(start) {
			return nil, euses.NewInputError("NewCalendar", "", "", "%s season ends before it starts", r.Season)
		}
		spans[i] = span{s: r.Season, start: start, end: end.AddDate(0, 0, 1)}
	}
	ts := euses.NewTimeSeries(year)
	c := &Calendar{Year: year, Times: ts.Times, Hours: make([]HourClass, len(ts.Times))}
	for i, t := range ts.Times {
		s := Winter
		for _, sp := range spans {
			if !t.Before(sp.start) && t.Before(sp.end) {
				s = sp.s
			}
		}
		h := t.Hour()
		if h == 0 {
			h = 24
		}
		c.Hours[i] = HourClass{Season: s, DayType: dayType(t.Weekday()), Hour: h}
	}
	return c, nil
}

func (md MonthDay) in(year int) (time.Time, error) {
	t := time.Date(year, md.Month, md.Day, 0, 0, 0, 0, time.UTC)
	if t.Month() != md.Month || t.Day() != md.Day {
		return time.Time{}, euses.NewInputError("NewCalendar", "", "", "%s %d is not a valid day in %d", md.Month, md.Day, year)
	}
	return t, nil
}
