/*
 * table.go, part of simfit.
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
	"math"
	"strings"

	"github.com/rmera/simfit"
	"gonum.org/v1/gonum/floats"
)

// Table is a tabulated function of one variable, a potential of mean force or a
// tabulated potential. Undefined energies are NaN. If the table was derived from a
// distribution, P holds the probability of each bin, otherwise P is nil.
type Table struct {
	ID string
	X  []float64
	E  []float64
	P  []float64
}

// NewTable returns a table on the grid x (which is copied) with all its energies undefined.
func NewTable(x []float64) *Table {
	T := &Table{X: append([]float64(nil), x...), E: make([]float64, len(x))}
	for i := range T.E {
		T.E[i] = math.NaN()
	}
	return T
}

// FromValues returns a table with the given grid and energies, both copied.
func FromValues(x, e []float64) (*Table, error) {
	if len(x) != len(e) {
		return nil, fmt.Errorf("potfit.FromValues: %d abscissas and %d energies", len(x), len(e))
	}
	T := NewTable(x)
	copy(T.E, e)
	return T, nil
}

// Len returns the number of bins in the table.
func (T *Table) Len() int { return len(T.X) }

// Defined returns true if the energy at bin i is known.
func (T *Table) Defined(i int) bool { return !math.IsNaN(T.E[i]) }

// NDefined returns the number of bins with a known energy.
func (T *Table) NDefined() int {
	n := 0
	for i := range T.E {
		if T.Defined(i) {
			n++
		}
	}
	return n
}

// Copy returns a deep copy of the table.
func (T *Table) Copy() *Table {
	ret := &Table{ID: T.ID, X: append([]float64(nil), T.X...), E: append([]float64(nil), T.E...)}
	if T.P != nil {
		ret.P = append([]float64(nil), T.P...)
	}
	return ret
}

// MaxP returns the largest probability carried by the table. It returns an
// *simfit.EmptyDistributionError if the table carries no probabilities or they add up to zero.
func (T *Table) MaxP() (float64, error) {
	if len(T.P) == 0 || floats.Sum(T.P) <= 0 {
		return 0, simfit.NewEmptyDistributionError("potfit.Table.MaxP")
	}
	return floats.Max(T.P), nil
}

// Zero sets all the undefined energies to zero.
func (T *Table) Zero() {
	for i := range T.E {
		if !T.Defined(i) {
			T.E[i] = 0
		}
	}
}

func (T *Table) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table %s, %d bins, %d defined\n", T.ID, T.Len(), T.NDefined())
	for i, x := range T.X {
		fmt.Fprintf(&b, "%10.4f %12.5f\n", x, T.E[i])
	}
	return b.String()
}

// seek advances *pos over xs until xs[*pos] is not smaller than x (within simfit.XTolerance)
// and returns *pos if that element is x, or -1 otherwise. xs must be sorted.
func seek(xs []float64, pos *int, x float64) int {
	for *pos < len(xs) && xs[*pos] < x-simfit.XTolerance {
		*pos++
	}
	if *pos < len(xs) && simfit.SameX(xs[*pos], x) {
		return *pos
	}
	return -1
}

// Align returns a table on grid, taking the energies (and probabilities) of T in the points
// where both grids coincide. The other bins are undefined. It is used to warm-start a fit
// from a table produced elsewhere.
func Align(T *Table, grid []float64) *Table {
	ret := NewTable(grid)
	ret.ID = T.ID
	if T.P != nil {
		ret.P = make([]float64, len(grid))
	}
	pos := 0
	for i, x := range grid {
		j := seek(T.X, &pos, x)
		if j < 0 {
			continue
		}
		ret.E[i] = T.E[j]
		if T.P != nil {
			ret.P[i] = T.P[j]
		}
	}
	return ret
}

// ZeroAtEnd shifts the energies of T so that its last defined bin is zero.
// Non-bonded tables are expected to vanish at the cutoff.
func ZeroAtEnd(T *Table) {
	for i := T.Len() - 1; i >= 0; i-- {
		if T.Defined(i) {
			Shift(T, -T.E[i])
			return
		}
	}
}

// Shift adds e to every defined energy in T.
func Shift(T *Table, e float64) {
	for i := range T.E {
		if T.Defined(i) {
			T.E[i] += e
		}
	}
}
