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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spatialmodel/euses"
	"github.com/spatialmodel/euses/aggregate"
	"github.com/spatialmodel/euses/industry"
)

// DemandSign is the sign demand series are exported with: consumption
// is negative supply.
const DemandSign = -1

// Output holds the results of a run. Unset parts are not exported.
type Output struct {
	Power    *euses.TimeSeries
	Heat     *HeatResult
	Industry *IndustryResult
}

// Series returns the hourly series to export by name. Industrial power
// demand is added to the power series and industrial hydrogen demand is
// returned as the "hydrogen" series.
func (o *Output) Series() (map[string]*euses.TimeSeries, error) {
	s := make(map[string]*euses.TimeSeries)
	var power []*euses.TimeSeries
	if o.Power != nil {
		power = append(power, o.Power)
	}
	if o.Industry != nil {
		power = append(power, o.Industry.Power)
		s[string(euses.Hydrogen)] = o.Industry.Hydrogen
	}
	if len(power) > 0 {
		p, err := aggregate.Combine(power...)
		if err != nil {
			return nil, fmt.Errorf("euses: merging industrial power demand: %w", err)
		}
		s[string(euses.Electricity)] = p
	}
	if h := o.Heat; h != nil {
		s["heat"] = h.Total
		for c, ts := range h.Profiles {
			s["heat_"+c.String()] = ts
		}
		if h.Centralized != nil {
			s["heat_centralized"] = h.Centralized
			s["heat_decentralized"] = h.Decentralized
		}
	}
	return s, nil
}

// Scalars returns the annual region totals to export by name.
func (o *Output) Scalars() map[string]map[string]float64 {
	s := make(map[string]map[string]float64)
	if o.Industry != nil {
		name := "capacity_" + strings.ReplaceAll(strings.ToLower(industry.IronAndSteel), " ", "_")
		c := make(map[string]float64)
		for id, bySector := range o.Industry.Capacity {
			c[id] = bySector[industry.IronAndSteel]
		}
		s[name] = c
		for carrier, d := range o.Industry.Demand {
			s["industry_"+string(carrier)] = d
		}
	}
	if o.Heat != nil {
		for c, v := range o.Heat.Volumes {
			s["volume_"+c.String()] = v
		}
	}
	return s
}

// Export writes every series of o to dir as <name>.csv with DemandSign
// applied and every annual total as <name>.csv. It returns the paths
// written.
func Export(dir string, o *Output) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("euses: creating output directory: %w", err)
	}
	series, err := o.Series()
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, name := range sortedKeys(series) {
		ts := series[name]
		p, err := writeFile(dir, name, func(f *os.File) error { return euses.WriteCSV(f, ts, DemandSign) })
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	scalars := o.Scalars()
	for _, name := range sortedKeys(scalars) {
		v := scalars[name]
		p, err := writeFile(dir, name, func(f *os.File) error { return euses.WriteScalarsCSV(f, name, v) })
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func writeFile(dir, name string, write func(*os.File) error) (string, error) {
	path := filepath.Join(dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("euses: writing %s: %w", name, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return "", fmt.Errorf("euses: writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("euses: writing %s: %w", name, err)
	}
	return path, nil
}

func sortedKeys[T any](m map[string]T) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}
