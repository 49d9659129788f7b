/*
 * pmf.go, part of simfit.
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

package potfit

import (
	"math"

	"github.com/rmera/simfit"
	"github.com/rmera/simfit/histo"
)

// Jacobian is the volume element that relates a geometric distribution to the
// corresponding probability density, as a function of the coordinate.
type Jacobian func(x float64) float64

// UnitJacobian is used for torsions and for distributions that are already
// normalized by their volume element, such as radial distribution functions.
func UnitJacobian(x float64) float64 { return 1 }

// BondJacobian is the r² volume element of distance distributions.
func BondJacobian(r float64) float64 { return r * r }

// AngleJacobian is the sin(θ) volume element of angle distributions, θ in degrees.
// It is exactly zero at 0 and 180 degrees.
func AngleJacobian(theta float64) float64 {
	s := math.Sin(simfit.Deg2Rad(theta))
	if math.Abs(s) <= simfit.Appzero {
		return 0
	}
	return s
}

// PMF returns the potential of mean force E(x) = -kT ln(P(x)/J(x)) for the distribution D.
// The energy is undefined in the bins where P or J are zero or negative. The returned
// table carries the probabilities of D.
func PMF(D *histo.Distribution, kT float64, jac Jacobian) *Table {
	if jac == nil {
		jac = UnitJacobian
	}
	ret := NewTable(D.X())
	ret.ID = D.ID()
	ret.P = append([]float64(nil), D.P()...)
	for i, x := range ret.X {
		p := ret.P[i]
		j := jac(x)
		if p <= 0 || j <= 0 {
			continue
		}
		ret.E[i] = -kT * math.Log(p/j)
	}
	return ret
}

// Probability recovers the probabilities P = exp(-E/kT)*J from a PMF. Undefined
// energies give a zero probability.
func Probability(T *Table, kT float64, jac Jacobian) []float64 {
	if jac == nil {
		jac = UnitJacobian
	}
	ret := make([]float64, T.Len())
	for i, x := range T.X {
		if !T.Defined(i) {
			continue
		}
		ret[i] = math.Exp(-T.E[i]/kT) * jac(x)
	}
	return ret
}
