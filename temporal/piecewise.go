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
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spatialmodel/euses"
)

// TemperatureRow is one row of a temperature-indexed generic load
// profile: the load grade that applies at the given hour of day (0-23)
// from the given temperature upwards.
type TemperatureRow struct {
	Class       string
	Hour        int
	Temperature float64
	Load        float64
}

// Buckets maps temperatures to load grades. Grade i applies to
// temperatures from Breakpoints[i] up to, but not including,
// Breakpoints[i+1].
type Buckets struct {
	Breakpoints []float64
	Grades      []float64
}

// NewBuckets sorts rows by temperature and drops the last row, which
// only closes the final bucket.
func NewBuckets(rows []TemperatureRow) (Buckets, error) {
	if len(rows) < 2 {
		var class string
		if len(rows) > 0 {
			class = rows[0].Class
		}
		return Buckets{}, euses.NewInputError("NewBuckets", class, "",
			"temperature profile needs at least 2 rows per hour but has %d", len(rows))
	}
	s := make([]TemperatureRow, len(rows))
	copy(s, rows)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Temperature < s[j].Temperature })
	s = s[:len(s)-1]
	b := Buckets{
		Breakpoints: make([]float64, len(s)),
		Grades:      make([]float64, len(s)),
	}
	for i, r := range s {
		b.Breakpoints[i] = r.Temperature
		b.Grades[i] = r.Load
	}
	return b, nil
}

// Grade returns the grade of the bucket that temperature falls in.
// Temperatures below the first breakpoint take the first grade.
func (b Buckets) Grade(temperature float64) float64 {
	p := sort.Search(len(b.Breakpoints), func(i int) bool { return b.Breakpoints[i] > temperature })
	i := p - 1
	if i < 0 {
		i = 0
	}
	return b.Grades[i]
}

// Piecewise is the temperature-to-load mapping of one profile class for
// each hour of the day.
type Piecewise struct {
	Class string
	Hours [24]Buckets
}

// Weights returns the load grade for each hour, given the temperature
// and timestamp of that hour. The result is not normalized.
func (pw *Piecewise) Weights(temps []float64, times []time.Time) ([]float64, error) {
	const op = "Piecewise.Weights"
	if len(temps) != len(times) {
		return nil, euses.NewInputError(op, pw.Class, "",
			"%d temperatures for %d hours", len(temps), len(times))
	}
	o := make([]float64, len(temps))
	for i, t := range temps {
		if math.IsNaN(t) {
			return nil, euses.NewInputError(op, pw.Class, "", "missing temperature at %s", times[i].Format(euses.TimeFormat))
		}
		o[i] = pw.Hours[times[i].UTC().Hour()].Grade(t)
	}
	return o, nil
}

// TemperatureTable holds temperature-indexed generic load profiles for
// a number of classes.
type TemperatureTable struct {
	classes []string
	byClass map[string][]TemperatureRow
}

// NewTemperatureTable indexes rows by class.
func NewTemperatureTable(rows []TemperatureRow) (*TemperatureTable, error) {
	t := &TemperatureTable{byClass: make(map[string][]TemperatureRow)}
	for _, r := range rows {
		if r.Hour < 0 || r.Hour > 23 {
			return nil, euses.NewInputError("NewTemperatureTable", r.Class, "", "invalid hour %d", r.Hour)
		}
		if math.IsNaN(r.Temperature) || math.IsNaN(r.Load) {
			return nil, euses.NewInputError("NewTemperatureTable", r.Class, "", "missing value at hour %d", r.Hour)
		}
		if _, ok := t.byClass[r.Class]; !ok {
			t.classes = append(t.classes, r.Class)
		}
		t.byClass[r.Class] = append(t.byClass[r.Class], r)
	}
	return t, nil
}

// Resolve returns the first class in table order whose code starts with
// class.
func (t *TemperatureTable) Resolve(class string) (string, bool) {
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

// Classes returns the sorted class codes in the table.
func (t *TemperatureTable) Classes() []string {
	o := make([]string, 0, len(t.byClass))
	for c := range t.byClass {
		o = append(o, c)
	}
	sort.Strings(o)
	return o
}

// Piecewise returns the temperature-to-load mapping for class.
func (t *TemperatureTable) Piecewise(class string) (*Piecewise, error) {
	rows, ok := t.byClass[class]
	if !ok {
		return nil, euses.NewInputError("TemperatureTable.Piecewise", class, "", "no temperature profile for class")
	}
	var byHour [24][]TemperatureRow
	for _, r := range rows {
		byHour[r.Hour] = append(byHour[r.Hour], r)
	}
	pw := &Piecewise{Class: class}
	for h, hr := range byHour {
		if len(hr) < 2 {
			return nil, euses.NewInputError("TemperatureTable.Piecewise", class, "",
				"hour %d has %d rows; at least 2 are needed", h, len(hr))
		}
		pw.Hours[h], _ = NewBuckets(hr)
	}
	return pw, nil
}
