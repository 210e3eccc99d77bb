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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
)

// TimeFormat is the layout of timestamps in CSV output.
const TimeFormat = "2006-01-02 15:04:05"

// HoursInYear returns the number of hours in the given calendar year.
func HoursInYear(year int) int {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start) / time.Hour)
}

// TimeSeries holds hourly values for a set of regions over one year.
// All regions share the same timestamp axis.
type TimeSeries struct {
	Year int

	// Times holds the hourly UTC timestamps, starting at 00:00 on
	// January 1.
	Times []time.Time

	// Values holds one series per region ID, each the same length as Times.
	Values map[string][]float64
}

// NewTimeSeries returns an empty time series covering every hour of year.
func NewTimeSeries(year int) *TimeSeries {
	n := HoursInYear(year)
	ts := &TimeSeries{
		Year:   year,
		Times:  make([]time.Time, n),
		Values: make(map[string][]float64),
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range ts.Times {
		ts.Times[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return ts
}

// Len returns the number of hours in the series.
func (ts *TimeSeries) Len() int { return len(ts.Times) }

// Set assigns the values for a region. v must hold one value per hour.
func (ts *TimeSeries) Set(region string, v []float64) error {
	if len(v) != len(ts.Times) {
		return NewInputError("TimeSeries.Set", "", region,
			"series has %d values but the year %d has %d hours", len(v), ts.Year, len(ts.Times))
	}
	ts.Values[region] = v
	return nil
}

// Regions returns the sorted region IDs in the series.
func (ts *TimeSeries) Regions() []string {
	o := make([]string, 0, len(ts.Values))
	for r := range ts.Values {
		o = append(o, r)
	}
	sort.Strings(o)
	return o
}

// Sum returns the annual total for the given region.
func (ts *TimeSeries) Sum(region string) float64 {
	return floats.Sum(ts.Values[region])
}

// Total returns the sum over all regions and hours.
func (ts *TimeSeries) Total() float64 {
	var t float64
	for _, v := range ts.Values {
		t += floats.Sum(v)
	}
	return t
}

// Annual returns the annual total of every region.
func (ts *TimeSeries) Annual() map[string]float64 {
	o := make(map[string]float64, len(ts.Values))
	for r, v := range ts.Values {
		o[r] = floats.Sum(v)
	}
	return o
}

// Clone returns a deep copy of ts.
func (ts *TimeSeries) Clone() *TimeSeries {
	o := &TimeSeries{
		Year:   ts.Year,
		Times:  append([]time.Time(nil), ts.Times...),
		Values: make(map[string][]float64, len(ts.Values)),
	}
	for r, v := range ts.Values {
		o.Values[r] = append([]float64(nil), v...)
	}
	return o
}

// WriteCSV writes ts to w with a timestamp column followed by one column
// per region, sorted by ID. Every value is multiplied by sign, so that
// demand can be written as a negative quantity.
func WriteCSV(w io.Writer, ts *TimeSeries, sign float64) error {
	cw := csv.NewWriter(w)
	regions := ts.Regions()
	if err := cw.Write(append([]string{"utc_timestamp"}, regions...)); err != nil {
		return fmt.Errorf("euses: writing time series header: %w", err)
	}
	row := make([]string, len(regions)+1)
	for i, t := range ts.Times {
		row[0] = t.Format(TimeFormat)
		for j, r := range regions {
			row[j+1] = strconv.FormatFloat(sign*ts.Values[r][i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("euses: writing time series: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a time series for year in the format written by WriteCSV:
// a timestamp column followed by one column per region or country. Every
// hour of the year must be present, in order. Empty cells are read as NaN.
func ReadCSV(r io.Reader, year int) (*TimeSeries, error) {
	const op = "ReadCSV"
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, &InputError{Op: op, Err: fmt.Errorf("reading header: %w", err)}
	}
	if len(header) < 2 {
		return nil, NewInputError(op, "", "", "time series needs a timestamp and at least one value column")
	}
	ts := NewTimeSeries(year)
	cols := make([][]float64, len(header)-1)
	for i := range cols {
		cols[i] = make([]float64, 0, ts.Len())
	}
	n := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, &InputError{Op: op, Err: err}
		}
		t, err := time.Parse(TimeFormat, rec[0])
		if err != nil {
			return nil, &InputError{Op: op, Err: fmt.Errorf("row %d: %w", n+2, err)}
		}
		if t.Year() != year {
			continue
		}
		if n >= ts.Len() || !t.Equal(ts.Times[n]) {
			return nil, NewInputError(op, "", "", "row %d: have time %s but want %s",
				n+2, rec[0], ts.Times[min(n, ts.Len()-1)].Format(TimeFormat))
		}
		for i, s := range rec[1:] {
			v := math.NaN()
			if s != "" {
				if v, err = strconv.ParseFloat(s, 64); err != nil {
					return nil, &InputError{Op: op, Region: header[i+1], Err: fmt.Errorf("row %d: %w", n+2, err)}
				}
			}
			cols[i] = append(cols[i], v)
		}
		n++
	}
	if n != ts.Len() {
		return nil, NewInputError(op, "", "", "have %d hours of %d but want %d", n, year, ts.Len())
	}
	for i, c := range cols {
		ts.Values[header[i+1]] = c
	}
	return ts, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// WriteScalarsCSV writes one row per region holding the region ID and the
// region's value. name is the header of the value column.
func WriteScalarsCSV(w io.Writer, name string, values map[string]float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", name}); err != nil {
		return fmt.Errorf("euses: writing %s header: %w", name, err)
	}
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := cw.Write([]string{id, strconv.FormatFloat(values[id], 'g', -1, 64)}); err != nil {
			return fmt.Errorf("euses: writing %s: %w", name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
