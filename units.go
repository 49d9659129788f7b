/*
 * units.go, part of simfit.
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

package simfit

import "math"

// Boltzmann constant in kcal/(mol K). Energies in the library are in kcal/mol
// unless stated otherwise.
const KB = 0.0019872041

const (
	// XTolerance is the largest difference between two abscissas that are
	// considered the same bin. Tables can come from different sources, so
	// bins are never matched by index.
	XTolerance = 1e-8

	// Appzero is used to correct floating point errors. Everything equal
	// or less than this is considered zero.
	Appzero = 1e-12

	// GPa2Atm and Atm2GPa convert between the pressure units used by the stress tensors.
	Atm2GPa = 1.01325e-4
	GPa2Atm = 1 / Atm2GPa
)

// KT returns the thermal energy in kcal/mol at temperature temp (in K).
func KT(temp float64) float64 {
	return KB * temp
}

// SameX returns true if a and b are within XTolerance of each other.
func SameX(a, b float64) bool {
	return math.Abs(a-b) <= XTolerance
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(f float64) float64 {
	return f * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(f float64) float64 {
	return f * 180 / math.Pi
}
