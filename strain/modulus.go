/*
 * modulus.go, part of simfit.
 *
 * Copyright 2024 The simfit Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package strain

import (
	"errors"
	"fmt"
	"math"

	"github.com/rmera/simfit"
	"gonum.org/v1/gonum/stat"
)

// ErrZeroStrain is returned when a modulus is requested for a strain of zero.
var ErrZeroStrain = errors.New("strain: zero strain, modulus undefined")

// Modulus returns the elastic modulus (stress-reference)/strain. The standard errors of
// both stresses are added in quadrature. Units are those of the stresses.
func Modulus(stress, reference Averaged, strain float64) (Averaged, error) {
	if math.Abs(strain) <= simfit.Appzero {
		return Averaged{}, ErrZeroStrain
	}
	return Averaged{
		Mean:   (stress.Mean - reference.Mean) / strain,
		StdErr: math.Hypot(stress.StdErr, reference.StdErr) / math.Abs(strain),
	}, nil
}

// FitModulus fits stress = intercept + slope*strain by least squares over the points
// of a stress-strain curve, and returns the slope (the modulus) and the intercept.
func FitModulus(strains, stresses []float64) (slope, intercept float64, err error) {
	if len(strains) != len(stresses) {
		return 0, 0, fmt.Errorf("strain.FitModulus: %d strains but %d stresses", len(strains), len(stresses))
	}
	if len(strains) < 2 {
		return 0, 0, fmt.Errorf("strain.FitModulus: at least 2 points needed, %d given", len(strains))
	}
	if _, v := stat.PopMeanVariance(strains, nil); v <= simfit.Appzero {
		return 0, 0, ErrZeroStrain
	}
	intercept, slope = stat.LinearRegression(strains, stresses, nil, false)
	return slope, intercept, nil
}
