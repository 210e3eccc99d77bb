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
	"github.com/spatialmodel/euses/spatial"
)

// NationalLoad provides national hourly power load, such as
// *profile.PowerLoad.
type NationalLoad interface {
	Hourly(country string, year int) ([]float64, error)
}

// Power returns hourly power demand in MW for every region: the national
// load of each hour split among regions by population.
func (b *Builder) Power(ctx context.Context, load NationalLoad) (*euses.TimeSeries, error) {
	n := euses.HoursInYear(b.Year)
	return b.forEachCountry(ctx, func(ctx context.Context, country string) (regionSeries, error) {
		id := b.code(country, euses.FieldRenewablesNinjaID, euses.FieldNUTSID)
		national, err := load.Hourly(id, b.Year)
		if err != nil {
			return nil, err
		}
		if len(national) != n {
			return nil, euses.NewInputError("Power", country, "",
				"national load has %d hours but %d has %d", len(national), b.Year, n)
		}
		shares, err := spatial.PopulationShares(b.Regions.InCountry(country))
		if err != nil {
			return nil, err
		}
		o := make(regionSeries, len(shares))
		for r, s := range shares {
			v := make([]float64, n)
			for i, x := range national {
				v[i] = x * s
			}
			o[r] = v
		}
		b.log().WithFields(logrus.Fields{"country": country, "source": id}).Info("allocated power demand")
		return o, nil
	})
}
