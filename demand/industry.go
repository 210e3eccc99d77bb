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

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/euses"
	"github.com/spatialmodel/euses/industry"
)

// IndustryResult holds industrial demand estimates and their hourly
// series.
type IndustryResult struct {
	*industry.Result

	// Power and Hydrogen are flat hourly demand in MW for every region.
	Power, Hydrogen *euses.TimeSeries
}

// Industry estimates the power and hydrogen demand of facilities.
func (b *Builder) Industry(ctx context.Context, est *industry.Estimator, facilities []industry.Facility) (*IndustryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := est.Estimate(b.Regions, facilities)
	if err != nil {
		return nil, err
	}
	b.logAudit("Industry", res.Audit)
	for c, f := range res.Factors {
		b.log().WithFields(logrus.Fields{"country": c, "factor": f}).Info("corrected industrial capacity")
	}
	o := &IndustryResult{Result: res}
	if o.Power, err = res.Hourly(b.Regions, b.Year, euses.Electricity); err != nil {
		return nil, err
	}
	if o.Hydrogen, err = res.Hourly(b.Regions, b.Year, euses.Hydrogen); err != nil {
		return nil, err
	}
	b.log().WithFields(logrus.Fields{
		"facilities": len(facilities),
		"power_mwh":  res.Total(euses.Electricity),
		"h2_mwh":     res.Total(euses.Hydrogen),
	}).Info("estimated industrial demand")
	return o, nil
}
