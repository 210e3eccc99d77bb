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
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/euses"
	"github.com/tealeg/xlsx"
	"gonum.org/v1/gonum/mat"
)

// excelCache holds previously opened spreadsheets so that a file
// queried for several countries is only read once.
var excelCache *requestcache.Cache

var loadExcelCacheOnce sync.Once

func loadExcelFile(path string) (*xlsx.File, error) {
	loadExcelCacheOnce.Do(func() {
		excelCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			f, err := xlsx.OpenFile(req.(string))
			if err != nil {
				return nil, fmt.Errorf("profile: opening xlsx file: %w", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(10))
	})
	r := excelCache.NewRequest(context.Background(), path, path)
	fI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// entsoeAliases maps country codes to the codes used by ENTSO-E.
var entsoeAliases = map[string]string{"UK": "GB"}

// entsoeMetaColumns are the columns of the ENTSO-E table that do not hold
// hourly load.
var entsoeMetaColumns = map[string]bool{
	"Country": true, "Year": true, "Month": true, "Day": true, "Coverage ratio": true,
}

// PowerLoad is the ENTSO-E monthly hourly load values table, with one row
// per country and day and one column per hour, in MW.
type PowerLoad struct {
	sheet      *xlsx.Sheet
	headerRow  int
	countryCol int
	yearCol    int
	hourCols   []int
}

// OpenPowerLoad opens the ENTSO-E spreadsheet at path. The header row,
// which starts with "Country", is searched for among the first rows of the
// first sheet.
func OpenPowerLoad(path string) (*PowerLoad, error) {
	const op = "OpenPowerLoad"
	f, err := loadExcelFile(path)
	if err != nil {
		return nil, &euses.InputError{Op: op, Err: err}
	}
	if len(f.Sheets) == 0 {
		return nil, euses.NewInputError(op, "", "", "%s has no sheets", path)
	}
	p := &PowerLoad{sheet: f.Sheets[0], headerRow: -1, countryCol: -1, yearCol: -1}
	for j, row := range p.sheet.Rows {
		if j > 20 {
			break
		}
		if len(row.Cells) == 0 || strings.TrimSpace(row.Cells[0].Value) != "Country" {
			continue
		}
		p.headerRow = j
		for i, c := range row.Cells {
			v := strings.TrimSpace(c.Value)
			switch {
			case v == "Country":
				p.countryCol = i
			case v == "Year":
				p.yearCol = i
			case v != "" && !entsoeMetaColumns[v]:
				p.hourCols = append(p.hourCols, i)
			}
		}
		break
	}
	if p.headerRow < 0 || p.yearCol < 0 {
		return nil, euses.NewInputError(op, "", "", "%s: no header row with Country and Year columns", path)
	}
	if len(p.hourCols) != 24 {
		return nil, euses.NewInputError(op, "", "", "%s: have %d hour columns but want 24", path, len(p.hourCols))
	}
	return p, nil
}

func (p *PowerLoad) cell(row *xlsx.Row, i int) string {
	if i >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[i].Value)
}

// Hourly returns the national load of country in the given year, in MW,
// one value per hour. Days are taken in table order. Missing values are
// replaced by the mean of the country's other values in that year.
func (p *PowerLoad) Hourly(country string, year int) ([]float64, error) {
	const op = "PowerLoad.Hourly"
	id := country
	if a, ok := entsoeAliases[id]; ok {
		id = a
	}
	days := euses.HoursInYear(year) / 24
	m := mat.NewDense(days, 24, nil)
	d := 0
	for _, row := range p.sheet.Rows[p.headerRow+1:] {
		if d == days {
			break
		}
		if p.cell(row, p.countryCol) != id {
			continue
		}
		y, err := strconv.ParseFloat(p.cell(row, p.yearCol), 64)
		if err != nil || int(y) != year {
			continue
		}
		for h, i := range p.hourCols {
			v := math.NaN()
			if s := p.cell(row, i); s != "" {
				if v, err = strconv.ParseFloat(s, 64); err != nil {
					return nil, &euses.InputError{Op: op, Country: country, Err: err}
				}
			}
			m.Set(d, h, v)
		}
		d++
	}
	if d < days {
		return nil, euses.NewInputError(op, country, "", "have %d days of load for %d but want %d", d, year, days)
	}
	o := make([]float64, 0, days*24)
	for j := 0; j < days; j++ {
		o = append(o, mat.Row(nil, j, m)...)
	}
	var sum float64
	var n int
	for _, v := range o {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil, euses.NewInputError(op, country, "", "no load values for %d", year)
	}
	mean := sum / float64(n)
	for i, v := range o {
		if math.IsNaN(v) {
			o[i] = mean
		}
	}
	return o, nil
}
