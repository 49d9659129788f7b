/*
 * gaps.go, part of simfit.
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
	"fmt"
	"strings"

	"gonum.org/v1/gonum/interp"
)

// GapMode selects how FillGaps extrapolates undefined bins that only have
// defined neighbours on one side.
type GapMode int

const (
	// Nearest copies the closest defined value. It is also the behaviour of unknown modes.
	Nearest GapMode = iota
	// Linear grows the last defined value linearly towards the right edge.
	Linear
	// QuadraticAtEnds uses a parabola that vanishes in the middle of the defined data.
	QuadraticAtEnds
	// TruncateAtLargeX leaves undefined bins at the right edge alone.
	TruncateAtLargeX
	// Periodic treats the table as periodic (torsions).
	Periodic
)

var gapModeNames = [...]string{"nearest", "linear", "quadratic", "truncate", "periodic"}

func (m GapMode) String() string {
	if m < Nearest || m > Periodic {
		return fmt.Sprintf("GapMode(%d)", int(m))
	}
	return gapModeNames[m]
}

// ParseGapMode returns the mode named s. Unknown names, including the empty
// string, give Nearest.
func ParseGapMode(s string) GapMode {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, v := range gapModeNames {
		if v == s {
			return GapMode(i)
		}
	}
	return Nearest
}

// anchors returns a linear interpolator over the defined bins of T, with the bin index
// as abscissa. In periodic mode the first and last defined bins are repeated one period
// away, so the bins beyond them interpolate across the wrap. It returns nil if there
// are fewer than two anchors.
func anchors(T *Table, first, last int, periodic bool) *interp.PiecewiseLinear {
	n := T.Len()
	var xs, ys []float64
	if periodic {
		xs = append(xs, float64(last-n))
		ys = append(ys, T.E[last])
	}
	for i := first; i <= last; i++ {
		if T.Defined(i) {
			xs = append(xs, float64(i))
			ys = append(ys, T.E[i])
		}
	}
	if periodic {
		xs = append(xs, float64(first+n))
		ys = append(ys, T.E[first])
	}
	if len(xs) < 2 {
		return nil
	}
	pl := new(interp.PiecewiseLinear)
	pl.Fit(xs, ys)
	return pl
}

// FillGaps returns a copy of T where the undefined bins have been estimated. Bins with
// defined values on both sides are linearly interpolated (with the distances measured in bins,
// wrapping around in Periodic mode). Bins with defined values only on one side are
// extrapolated according to mode. Only the bins defined in T are used as anchors.
// In Periodic mode, the last bin is set equal to the first one at the end.
// A table without any defined bins is returned unchanged.
func FillGaps(T *Table, mode GapMode) *Table {
	ret := T.Copy()
	n := T.Len()
	first, last := -1, -1
	for i := 0; i < n; i++ {
		if T.Defined(i) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return ret
	}
	mid := float64(first+last) / 2
	periodic := mode == Periodic
	pl := anchors(T, first, last, periodic)
	for i := 0; i < n; i++ {
		if T.Defined(i) {
			continue
		}
		switch {
		case periodic || (i > first && i < last):
			ret.E[i] = pl.Predict(float64(i))
		case i > last:
			ret.E[i] = rightEdge(T, i, last, n, mid, mode)
		default:
			ret.E[i] = leftEdge(T, i, first, mid, mode)
		}
	}
	if periodic && n > 0 {
		ret.E[n-1] = ret.E[0]
	}
	return ret
}

// rightEdge extrapolates bin i from the defined bin l to its left.
func rightEdge(T *Table, i, l, n int, mid float64, mode GapMode) float64 {
	switch mode {
	case Linear:
		return T.E[l] * (1 + float64(i-l)/float64(n))
	case QuadraticAtEnds:
		return quadratic(T.E[l], i, l, mid)
	case TruncateAtLargeX:
		return T.E[i]
	}
	return T.E[l]
}

// leftEdge extrapolates bin i from the defined bin r to its right.
func leftEdge(T *Table, i, r int, mid float64, mode GapMode) float64 {
	if mode == QuadraticAtEnds {
		return quadratic(T.E[r], i, r, mid)
	}
	return T.E[r]
}

// quadratic evaluates at i the parabola that vanishes at mid and passes through
// (known, e). If known is mid, it just returns e.
func quadratic(e float64, i, known int, mid float64) float64 {
	width := float64(known) - mid
	if width == 0 {
		return e
	}
	f := (float64(i) - mid) / width
	return e * f * f
}
