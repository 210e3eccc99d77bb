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

// Package industry estimates the energy demand of industrial sites from
// their production capacity.
package industry

import (
	"fmt"
	"sort"

	"github.com/ctessum/geom/proj"
	"github.com/ctessum/unit"
	"github.com/spatialmodel/euses"
	"github.com/spatialmodel/euses/spatial"
)

const (
	joulesPerMWh = 3.6e9
	kgPerTonne   = 1000.
)

var (
	massDims          = unit.Dimensions{unit.MassDim: 1}
	energyDims        = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 2, unit.TimeDim: -2}
	specificEnergyDim = unit.Dimensions{unit.LengthDim: 2, unit.TimeDim: -2}
)

// Tonnes returns a mass in tonnes.
func Tonnes(v float64) *unit.Unit { return unit.New(v*kgPerTonne, massDims) }

// MWhPerTonne returns an energy intensity in MWh per tonne.
func MWhPerTonne(v float64) *unit.Unit { return unit.New(v*joulesPerMWh/kgPerTonne, specificEnergyDim) }

// Energy returns production multiplied by intensity, in MWh.
func Energy(production, intensity *unit.Unit) (float64, error) {
	e := unit.Mul(production, intensity)
	if err := e.Check(energyDims); err != nil {
		return 0, fmt.Errorf("industry: %w", err)
	}
	return e.Value() / joulesPerMWh, nil
}

// Coefficients describe the energy needed to produce a tonne of steel
// with hydrogen direct reduction and an electric arc furnace.
type Coefficients struct {
	// H2PerTonne is the hydrogen needed, in kg per tonne of steel.
	H2PerTonne float64

	// H2KWhPerKg is the energy content of hydrogen in kWh per kg.
	H2KWhPerKg float64

	// PowerEAF and PowerAdditional are the electricity used by the arc
	// furnace and by the remaining process, in MWh per tonne.
	PowerEAF, PowerAdditional float64
}

// DefaultCoefficients are the coefficients for hydrogen-based steel making.
var DefaultCoefficients = Coefficients{
	H2PerTonne:      60,
	H2KWhPerKg:      33.33,
	PowerEAF:        0.65,
	PowerAdditional: 0.32,
}

// Intensity returns the energy intensity of the given carrier, which may
// be euses.Electricity or euses.Hydrogen.
func (c Coefficients) Intensity(carrier euses.EndUse) (*unit.Unit, error) {
	switch carrier {
	case euses.Electricity:
		return MWhPerTonne(c.PowerEAF + c.PowerAdditional), nil
	case euses.Hydrogen:
		return MWhPerTonne(c.H2PerTonne * c.H2KWhPerKg / 1000), nil
	default:
		return nil, fmt.Errorf("industry: invalid carrier %q", carrier)
	}
}

// Carriers are the energy carriers industrial demand is estimated for.
var Carriers = []euses.EndUse{euses.Hydrogen, euses.Electricity}

// DefaultCorrection is the total iron and steel production, in tonnes
// per year, that regional capacities are scaled to.
var DefaultCorrection = map[string]float64{"DE": 45e6}

// Estimator estimates regional industrial demand.
type Estimator struct {
	Coefficients Coefficients

	// Correction holds target production totals in tonnes per year by
	// country. The capacities of each listed country are scaled to
	// match its target.
	Correction map[string]float64
}

// Result is the estimated industrial capacity and demand per region.
type Result struct {
	// Capacity is production in tonnes per year by region and sector.
	Capacity map[string]map[string]float64

	// Demand is annual demand in MWh by carrier and region.
	Demand map[euses.EndUse]map[string]float64

	// Factors holds the correction factor applied to each corrected
	// country.
	Factors map[string]float64

	// Audit records facilities outside all regions.
	Audit spatial.Audit
}

// Estimate joins facilities to the regions of idx and estimates their
// annual demand for each carrier.
func (e *Estimator) Estimate(idx *euses.RegionIndex, facilities []Facility) (*Result, error) {
	sr, err := proj.Parse(FacilityProj)
	if err != nil {
		return nil, err
	}
	pts := make([]spatial.Point, len(facilities))
	for i, f := range facilities {
		pts[i] = spatial.Point{Point: f.Location, Tag: f.Subsector, Quantity: f.Production}
	}
	agg, audit, err := spatial.AllocatePointsToRegions(idx, pts, sr)
	if err != nil {
		return nil, err
	}
	factors, err := correctionFactors(idx, agg, e.Correction)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Capacity: make(map[string]map[string]float64),
		Demand:   make(map[euses.EndUse]map[string]float64),
		Factors:  factors,
		Audit:    audit,
	}
	intensity := make(map[euses.EndUse]*unit.Unit)
	for _, c := range Carriers {
		res.Demand[c] = make(map[string]float64)
		if intensity[c], err = e.Coefficients.Intensity(c); err != nil {
			return nil, err
		}
	}
	for id, a := range agg {
		r, _ := idx.Get(id)
		if f, ok := factors[r.Country]; ok {
			a.Scale(f)
		}
		res.Capacity[id] = a.ByTag
		for _, c := range Carriers {
			v, err := Energy(Tonnes(a.Quantity), intensity[c])
			if err != nil {
				return nil, err
			}
			res.Demand[c][id] = v
		}
	}
	return res, nil
}

// correctionFactors returns target / current production for each
// country in targets.
func correctionFactors(idx *euses.RegionIndex, agg map[string]*spatial.Aggregate, targets map[string]float64) (map[string]float64, error) {
	current := make(map[string]float64)
	for id, a := range agg {
		r, _ := idx.Get(id)
		current[r.Country] += a.Quantity
	}
	countries := make([]string, 0, len(targets))
	for c := range targets {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	o := make(map[string]float64)
	for _, c := range countries {
		target := targets[c]
		if len(idx.InCountry(c)) == 0 {
			continue
		}
		cur := current[c]
		if cur == 0 {
			if target == 0 {
				continue
			}
			return nil, euses.NewInputError("Estimate", c, "",
				"no production to correct to the target of %g t", target)
		}
		o[c] = target / cur
	}
	return o, nil
}

// Hourly returns the demand for carrier spread evenly over every hour of
// year, with a series for every region of idx.
func (r *Result) Hourly(idx *euses.RegionIndex, year int, carrier euses.EndUse) (*euses.TimeSeries, error) {
	ts := euses.NewTimeSeries(year)
	n := float64(ts.Len())
	for _, id := range idx.IDs() {
		v := make([]float64, ts.Len())
		h := r.Demand[carrier][id] / n
		for i := range v {
			v[i] = h
		}
		if err := ts.Set(id, v); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// Total returns the annual demand for carrier over all regions, in MWh.
func (r *Result) Total(carrier euses.EndUse) float64 {
	var t float64
	for _, v := range r.Demand[carrier] {
		t += v
	}
	return t
}
