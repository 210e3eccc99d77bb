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
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/euses"
	"github.com/spatialmodel/euses/aggregate"
	"github.com/spatialmodel/euses/profile"
	"github.com/spatialmodel/euses/spatial"
	"github.com/spatialmodel/euses/temporal"
)

// VolumeShares provides the national split of useful heat demand into
// sectors and end uses, such as *profile.HeatVolumes.
type VolumeShares interface {
	Has(country string) bool
	Shares(country string) (map[euses.Category]float64, error)
}

// HeatVolumes returns the annual useful heat demand in MWh of each region
// for each of euses.HeatCategories: the zonal sum of the heat density
// raster over the region multiplied by the national share of the category.
func (b *Builder) HeatVolumes(ctx context.Context, density *spatial.Raster, shares VolumeShares) (euses.AnnualVolumes, spatial.Audit, error) {
	zonal, audit, err := spatial.AllocateByRaster(ctx, b.Regions, density)
	if err != nil {
		return nil, audit, err
	}
	b.logAudit("HeatVolumes", audit)
	o := make(euses.AnnualVolumes)
	for _, c := range euses.HeatCategories {
		o[c] = make(map[string]float64)
	}
	for _, country := range b.Regions.Countries() {
		id := b.code(country, euses.FieldHotmapsID, euses.FieldNUTSID)
		id, err = b.Fallbacks.Resolve(profile.VolumeCountry, id, shares.Has)
		if err != nil {
			return nil, audit, err
		}
		s, err := shares.Shares(id)
		if err != nil {
			return nil, audit, err
		}
		for _, r := range b.Regions.InCountry(country) {
			for _, c := range euses.HeatCategories {
				o.Add(c, r.ID, s[c]*zonal[r.ID])
			}
		}
		b.log().WithFields(logrus.Fields{"country": country, "source": id}).Info("calculated heat volumes")
	}
	return o, audit, nil
}

// regionProfile scales the normalized profile pu to the volume of each
// region of country in category c.
func (b *Builder) regionProfile(country string, c euses.Category, pu []float64, volumes euses.AnnualVolumes) regionSeries {
	regions := b.Regions.InCountry(country)
	o := make(regionSeries, len(regions))
	for _, r := range regions {
		o[r.ID] = temporal.Scale(pu, volumes[c][r.ID])
	}
	return o
}

// SpaceHeating returns hourly space heating demand in MW for each sector
// in tables. Each country's temperature series, looked up in temps,
// selects a load grade for every hour from the temperature profile of the
// country's class, which is normalized and scaled to each region's annual
// volume.
func (b *Builder) SpaceHeating(ctx context.Context, tables map[euses.Sector]*temporal.TemperatureTable,
	temps *euses.TimeSeries, volumes euses.AnnualVolumes) (map[euses.Sector]*euses.TimeSeries, error) {
	if temps.Year != b.Year {
		return nil, euses.NewInputError("SpaceHeating", "", "", "temperatures are for %d but demand is for %d", temps.Year, b.Year)
	}
	hasSeries := func(c string) bool { _, ok := temps.Values[c]; return ok }
	o := make(map[euses.Sector]*euses.TimeSeries, len(tables))
	for _, sector := range sortedSectors(tables) {
		table := tables[sector]
		cat := euses.Category{Sector: sector, EndUse: euses.SpaceHeating}
		hasClass := func(c string) bool { _, ok := table.Resolve(c); return ok }
		ts, err := b.forEachCountry(ctx, func(ctx context.Context, country string) (regionSeries, error) {
			class, err := b.Fallbacks.Resolve(profile.SpaceHeatingClass, country, hasClass)
			if err != nil {
				return nil, err
			}
			code, _ := table.Resolve(class)
			pw, err := table.Piecewise(code)
			if err != nil {
				return nil, err
			}
			series, err := b.Fallbacks.Resolve(profile.SpaceHeatingSeries, country, hasSeries)
			if err != nil {
				return nil, err
			}
			w, err := pw.Weights(temps.Values[series], temps.Times)
			if err != nil {
				return nil, err
			}
			pu, err := temporal.Normalize(w, country, cat)
			if err != nil {
				return nil, err
			}
			b.log().WithFields(logrus.Fields{
				"country": country, "sector": sector, "class": code, "temperature": series,
			}).Info("shaped space heating demand")
			return b.regionProfile(country, cat, pu, volumes), nil
		})
		if err != nil {
			return nil, err
		}
		o[sector] = ts
	}
	return o, nil
}

// HotWater returns hourly domestic hot water demand in MW for each sector
// of shaper. Each country's calendar profile is normalized and scaled to
// each region's annual volume.
func (b *Builder) HotWater(ctx context.Context, shaper *temporal.CalendarShaper, cal *temporal.Calendar,
	volumes euses.AnnualVolumes) (map[euses.Sector]*euses.TimeSeries, error) {
	if cal.Year != b.Year {
		return nil, euses.NewInputError("HotWater", "", "", "calendar is for %d but demand is for %d", cal.Year, b.Year)
	}
	o := make(map[euses.Sector]*euses.TimeSeries, len(shaper.Tables))
	for _, sector := range sortedSectors(shaper.Tables) {
		cat := euses.Category{Sector: sector, EndUse: euses.HotWater}
		hasClass := func(c string) bool {
			if _, ok := shaper.Tables[sector].Resolve(c); ok {
				return true
			}
			if t, ok := shaper.Tables[shaper.Default]; ok {
				_, ok = t.Resolve(c)
				return ok
			}
			return false
		}
		ts, err := b.forEachCountry(ctx, func(ctx context.Context, country string) (regionSeries, error) {
			id := b.code(country, euses.FieldHotmapsID, euses.FieldNUTSID)
			class, err := b.Fallbacks.Resolve(profile.HotWaterClass, id, hasClass)
			if err != nil {
				return nil, err
			}
			w, err := shaper.Weights(cal, sector, class)
			if err != nil {
				return nil, err
			}
			pu, err := temporal.Normalize(w, country, cat)
			if err != nil {
				return nil, err
			}
			b.log().WithFields(logrus.Fields{"country": country, "sector": sector, "class": class}).
				Info("shaped hot water demand")
			return b.regionProfile(country, cat, pu, volumes), nil
		})
		if err != nil {
			return nil, err
		}
		o[sector] = ts
	}
	return o, nil
}

func sortedSectors[T any](m map[euses.Sector]T) []euses.Sector {
	o := make([]euses.Sector, 0, len(m))
	for s := range m {
		o = append(o, s)
	}
	sort.Slice(o, func(i, j int) bool { return o[i] < o[j] })
	return o
}

// HeatInput holds the reference data for a heat demand run.
type HeatInput struct {
	// Density is the annual useful heat demand density raster.
	Density *spatial.Raster

	// Shares splits national heat demand into sectors and end uses.
	Shares VolumeShares

	// SpaceHeating holds the temperature-indexed profile of each sector.
	SpaceHeating map[euses.Sector]*temporal.TemperatureTable

	// Temperatures holds hourly temperatures by country code.
	Temperatures *euses.TimeSeries

	// HotWater looks up the calendar-indexed profile of each sector.
	HotWater *temporal.CalendarShaper

	// Seasons classifies days for the hot water profiles. It defaults to
	// temporal.DefaultSeasons.
	Seasons []temporal.SeasonRange

	// Decentralized requests the split of total heat into centralized
	// (district heating) and decentralized supply.
	Decentralized bool
}

// HeatResult is the outcome of a heat demand run.
type HeatResult struct {
	Volumes  euses.AnnualVolumes
	Profiles map[euses.Category]*euses.TimeSeries

	// Total is the sum of all Profiles.
	Total *euses.TimeSeries

	// Centralized and Decentralized split Total by the district heating
	// share of each country. They are only set if requested.
	Centralized, Decentralized *euses.TimeSeries

	Audit spatial.Audit
}

// Heat calculates space heating and hot water demand for the residential
// and service sectors and their total.
func (b *Builder) Heat(ctx context.Context, in HeatInput) (*HeatResult, error) {
	vols, audit, err := b.HeatVolumes(ctx, in.Density, in.Shares)
	if err != nil {
		return nil, err
	}
	res := &HeatResult{
		Volumes:  vols,
		Profiles: make(map[euses.Category]*euses.TimeSeries),
		Audit:    audit,
	}
	sh, err := b.SpaceHeating(ctx, in.SpaceHeating, in.Temperatures, vols)
	if err != nil {
		return nil, err
	}
	for s, ts := range sh {
		res.Profiles[euses.Category{Sector: s, EndUse: euses.SpaceHeating}] = ts
	}
	seasons := in.Seasons
	if seasons == nil {
		seasons = temporal.DefaultSeasons
	}
	cal, err := temporal.NewCalendar(b.Year, seasons)
	if err != nil {
		return nil, err
	}
	hw, err := b.HotWater(ctx, in.HotWater, cal, vols)
	if err != nil {
		return nil, err
	}
	for s, ts := range hw {
		res.Profiles[euses.Category{Sector: s, EndUse: euses.HotWater}] = ts
	}

	parts := make([]*euses.TimeSeries, 0, len(euses.HeatCategories))
	for _, c := range euses.HeatCategories {
		p, ok := res.Profiles[c]
		if !ok {
			return nil, euses.NewInputError("Heat", "", "", "no %s profile", c)
		}
		parts = append(parts, p)
	}
	if res.Total, err = aggregate.Combine(parts...); err != nil {
		return nil, err
	}
	if in.Decentralized {
		shares := make(map[string]float64)
		for _, c := range b.Regions.Countries() {
			if b.Metadata == nil {
				return nil, euses.NewInputError("Heat", c, "", "district heating shares need metadata")
			}
			if shares[c], err = euses.MetadataFloat(b.Metadata, c, euses.FieldDHShare); err != nil {
				return nil, err
			}
		}
		res.Centralized, res.Decentralized, err = aggregate.SplitByFixedShare(res.Total, shares, b.Regions)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}
