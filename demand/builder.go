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

// Package demand builds hourly regional demand time series for power,
// heat and industry from national statistics and generic profiles.
package demand

import (
	"context"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/euses"
	"github.com/spatialmodel/euses/profile"
	"github.com/spatialmodel/euses/spatial"
	"golang.org/x/sync/errgroup"
)

// Builder holds the inputs shared by all demand calculations.
type Builder struct {
	// Year is the year demand is calculated for.
	Year int

	Regions  *euses.RegionIndex
	Metadata euses.Metadata

	// Fallbacks holds the country substitutions used when a reference
	// table lacks a country.
	Fallbacks profile.Fallbacks

	// Log receives progress messages. It defaults to the standard logger.
	Log logrus.FieldLogger
}

func (b *Builder) log() logrus.FieldLogger {
	if b.Log == nil {
		return logrus.StandardLogger()
	}
	return b.Log
}

// code returns the first of the given metadata fields that is set for
// country, or the country code itself.
func (b *Builder) code(country string, fields ...string) string {
	if b.Metadata == nil {
		return country
	}
	for _, f := range fields {
		if v := euses.MetadataString(b.Metadata, country, f); v != country {
			return v
		}
	}
	return country
}

// regionSeries holds the finished series of a set of regions.
type regionSeries map[string][]float64

// forEachCountry runs f for every country of the index on a bounded
// group of workers and merges the returned series. The first error
// cancels the remaining work.
func (b *Builder) forEachCountry(ctx context.Context, f func(ctx context.Context, country string) (regionSeries, error)) (*euses.TimeSeries, error) {
	countries := b.Regions.Countries()
	results := make([]regionSeries, len(countries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range countries {
		i, c := i, c
		g.Go(func() error {
			r, err := f(ctx, c)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	ts := euses.NewTimeSeries(b.Year)
	for _, r := range results {
		for id, v := range r {
			if err := ts.Set(id, v); err != nil {
				return nil, err
			}
		}
	}
	return ts, nil
}

// logAudit logs every coverage gap in a.
func (b *Builder) logAudit(step string, a spatial.Audit) {
	for _, g := range a.Gaps {
		b.log().WithFields(logrus.Fields{
			"step":     step,
			"kind":     g.Kind,
			"count":    g.Count,
			"excluded": g.Excluded,
		}).Warn("input outside all regions")
	}
}
