/*
 * interaction.go, part of simfit.
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

package ibi

import (
	"fmt"
	"strings"

	"github.com/rmera/simfit/potfit"
)

// Kind is the type of coarse-grained interaction a potential describes.
type Kind int

const (
	Bond Kind = iota
	Angle
	Torsion
	Pair
)

var kindNames = [...]string{"bond", "angle", "torsion", "pair"}

func (k Kind) String() string {
	if k < Bond || k > Pair {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the kind named s. "vdw" and "nonbond" are accepted for pairs.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "vdw", "nonbond", "non-bond":
		return Pair, nil
	}
	for i, v := range kindNames {
		if v == s {
			return Kind(i), nil
		}
	}
	return -1, fmt.Errorf("ibi: unknown interaction kind %q", s)
}

// Jacobian returns the volume element for the distributions of this kind.
// Pair distances are raw distances, not radial distribution functions, so
// they use r² like bonds.
func (k Kind) Jacobian() potfit.Jacobian {
	switch k {
	case Bond, Pair:
		return potfit.BondJacobian
	case Angle:
		return potfit.AngleJacobian
	}
	return potfit.UnitJacobian
}

// DefaultGap is the gap filling used when an interaction doesn't set one.
func (k Kind) DefaultGap() potfit.GapMode {
	switch k {
	case Bond, Angle:
		return potfit.QuadraticAtEnds
	case Torsion:
		return potfit.Periodic
	case Pair:
		return potfit.TruncateAtLargeX
	}
	return potfit.Nearest
}

// Interaction describes one of the tabulated terms being fitted. Name is the
// interaction sequence (e.g. "B-B" or "A-B-A") and must be unique within a fit.
type Interaction struct {
	Name     string
	Kind     Kind
	BinWidth float64
	Start    float64
	End      float64
	// Gap is the name of the gap filling mode (see potfit.ParseGapMode).
	// If empty, the default for Kind is used.
	Gap string
	// TruncateAfter zeroes pair potentials after this many sign changes. 0 disables it.
	TruncateAfter int
}

// GapMode returns the gap filling mode for the interaction.
func (I Interaction) GapMode() potfit.GapMode {
	if I.Gap == "" {
		return I.Kind.DefaultGap()
	}
	return potfit.ParseGapMode(I.Gap)
}

// Check returns an error if the interaction is not well defined.
func (I Interaction) Check() error {
	if I.Name == "" {
		return fmt.Errorf("ibi: interaction without a name")
	}
	if I.Kind < Bond || I.Kind > Pair {
		return fmt.Errorf("ibi: interaction %s has an invalid kind", I.Name)
	}
	if I.BinWidth <= 0 {
		return fmt.Errorf("ibi: interaction %s: bin width must be positive", I.Name)
	}
	if I.End <= I.Start {
		return fmt.Errorf("ibi: interaction %s: the domain end must be larger than the start", I.Name)
	}
	if I.TruncateAfter < 0 {
		return fmt.Errorf("ibi: interaction %s: negative number of sign changes", I.Name)
	}
	return nil
}
