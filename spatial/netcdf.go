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

package spatial

import (
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/euses"
)

// ReadRaster reads the given two-dimensional variable from a NetCDF file.
// The variable has dimensions [y, x]. The grid is described by the global
// attributes x0, y0, dx and dy and the spatial reference by the global
// attribute proj4. Values equal to the variable's _FillValue attribute
// are read as NaN.
func ReadRaster(path, variable string) (*Raster, error) {
	const op = "ReadRaster"
	ff, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, &euses.InputError{Op: op, Err: err}
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, &euses.InputError{Op: op, Err: fmt.Errorf("%s: %w", path, err)}
	}

	var grid [4]float64
	for i, a := range []string{"x0", "y0", "dx", "dy"} {
		v, err := floatAttribute(f, a)
		if err != nil {
			return nil, &euses.InputError{Op: op, Err: fmt.Errorf("%s: %w", path, err)}
		}
		grid[i] = v
	}
	projI := f.Header.GetAttribute("", "proj4")
	projS, ok := projI.(string)
	if !ok {
		return nil, euses.NewInputError(op, "", "", "%s: missing proj4 attribute", path)
	}
	sr, err := proj.Parse(projS)
	if err != nil {
		return nil, &euses.InputError{Op: op, Err: fmt.Errorf("%s: parsing projection: %w", path, err)}
	}

	dims := f.Header.Lengths(variable)
	if len(dims) != 2 {
		return nil, euses.NewInputError(op, "", "", "%s: variable %s has %d dimensions; it needs 2",
			path, variable, len(dims))
	}
	r := f.Reader(variable, nil, nil)
	buf := r.Zero(dims[0] * dims[1])
	if _, err = r.Read(buf); err != nil {
		return nil, &euses.InputError{Op: op, Err: fmt.Errorf("%s: reading %s: %w", path, variable, err)}
	}
	data := sparse.ZerosDense(dims...)
	switch b := buf.(type) {
	case []float64:
		copy(data.Elements, b)
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	default:
		return nil, euses.NewInputError(op, "", "", "%s: variable %s has type %T; it needs to be floating point",
			path, variable, buf)
	}
	if fill, ok := fillValue(f, variable); ok {
		for i, v := range data.Elements {
			if v == fill {
				data.Elements[i] = math.NaN()
			}
		}
	}
	return NewRaster(data, grid[0], grid[1], grid[2], grid[3], sr)
}

func floatAttribute(f *cdf.File, name string) (float64, error) {
	switch v := f.Header.GetAttribute("", name).(type) {
	case []float64:
		return v[0], nil
	case []float32:
		return float64(v[0]), nil
	default:
		return 0, fmt.Errorf("attribute %s has invalid type %T", name, v)
	}
}

func fillValue(f *cdf.File, variable string) (float64, bool) {
	switch v := f.Header.GetAttribute(variable, "_FillValue").(type) {
	case []float64:
		return v[0], true
	case []float32:
		return float64(v[0]), true
	default:
		return 0, false
	}
}

// WriteRaster writes r to a new NetCDF file at path as the given
// variable, in the layout read by ReadRaster. proj4 is the projection
// definition to record, since a parsed spatial reference cannot be
// converted back to text.
func WriteRaster(path, variable, proj4 string, r *Raster) error {
	h := cdf.NewHeader([]string{"y", "x"}, []int{r.Ny, r.Nx})
	h.AddAttribute("", "x0", []float64{r.X0})
	h.AddAttribute("", "y0", []float64{r.Y0})
	h.AddAttribute("", "dx", []float64{r.Dx})
	h.AddAttribute("", "dy", []float64{r.Dy})
	h.AddAttribute("", "proj4", proj4)
	h.AddVariable(variable, []string{"y", "x"}, []float64{0})
	h.Define()
	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("spatial: writing raster: %w", err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("spatial: writing raster: %w", err)
	}
	w := f.Writer(variable, []int{0, 0}, []int{r.Ny, r.Nx})
	if _, err := w.Write(r.Values.Elements); err != nil {
		ff.Close()
		return fmt.Errorf("spatial: writing raster: %w", err)
	}
	return ff.Close()
}
