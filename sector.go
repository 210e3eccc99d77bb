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

// Sector is an economic sector that demand is attributed to.
type Sector string

// Sectors.
const (
	Residential Sector = "residential"
	Service     Sector = "service"
	Industry    Sector = "industry"
)

// EndUse is the purpose energy is consumed for.
type EndUse string

// End uses.
const (
	SpaceHeating EndUse = "space_heating"
	HotWater     EndUse = "hot_water"
	Electricity  EndUse = "power"
	Hydrogen     EndUse = "hydrogen"
)

// Category is a combination of sector and end use, e.g. residential
// space heating.
type Category struct {
	Sector Sector
	EndUse EndUse
}

func (c Category) String() string { return string(c.Sector) + "_" + string(c.EndUse) }

// HeatCategories are the four sub-profiles that make up total heat demand.
var HeatCategories = []Category{
	{Residential, SpaceHeating},
	{Service, SpaceHeating},
	{Residential, HotWater},
	{Service, HotWater},
}

// AnnualVolumes holds yearly demand, in MWh, by category and region ID.
type AnnualVolumes map[Category]map[string]float64

// Add adds v to the volume of the given category and region.
func (av AnnualVolumes) Add(c Category, region string, v float64) {
	m, ok := av[c]
	if !ok {
		m = make(map[string]float64)
		av[c] = m
	}
	m[region] += v
}
