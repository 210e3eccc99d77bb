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

// Package euses disaggregates annual national energy statistics into
// hourly, sub-national demand time series for power, space heating,
// domestic hot water and heavy industry.
//
// The root package holds the types shared by every processing step:
// regions and their spatial index, hourly time series, country metadata
// and the error kinds used to abort a run. The spatial, temporal,
// aggregate and industry packages implement the individual
// disaggregation algorithms, and package demand strings them together.
package euses

// Version gives the version number.
const Version = "0.3.0"
