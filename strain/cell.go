/*
 * cell.go, part of simfit.
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
	"fmt"
	"math"
	"strings"

	"github.com/rmera/simfit"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Cell is the matrix h of a periodic cell. The three lattice vectors a, b and c
// are stored as the columns of the matrix, so a fractional coordinate s maps to
// the cartesian r = h·s.
type Cell struct {
	*mat.Dense
}

// NewCell returns the cell spanned by the lattice vectors a, b and c.
func NewCell(a, b, c [3]float64) *Cell {
	d := mat.NewDense(3, 3, nil)
	for i, v := range [3][3]float64{a, b, c} {
		for j := 0; j < 3; j++ {
			d.Set(j, i, v[j])
		}
	}
	return &Cell{d}
}

// CellFromSlice builds a cell from 9 numbers: the X, Y and Z components of a,
// then those of b, then those of c. This is the order in which the vectors
// appear in a frame file.
func CellFromSlice(data []float64) (*Cell, error) {
	if len(data) != 9 {
		return nil, fmt.Errorf("strain.CellFromSlice: %d values given, 9 needed", len(data))
	}
	var a, b, c [3]float64
	copy(a[:], data[0:3])
	copy(b[:], data[3:6])
	copy(c[:], data[6:9])
	return NewCell(a, b, c), nil
}

// Vector returns the i-th lattice vector (0 for a, 1 for b and 2 for c).
func (C *Cell) Vector(i int) [3]float64 {
	if i < 0 || i > 2 {
		panic(fmt.Sprintf("strain.Cell.Vector: index %d out of range", i))
	}
	return [3]float64{C.At(0, i), C.At(1, i), C.At(2, i)}
}

// Lengths returns the lengths of the three lattice vectors.
func (C *Cell) Lengths() (float64, float64, float64) {
	var l [3]float64
	for i := range l {
		v := C.Vector(i)
		l[i] = floats.Norm(v[:], 2)
	}
	return l[0], l[1], l[2]
}

// Det returns the determinant of the cell matrix.
func (C *Cell) Det() float64 {
	return mat.Det(C.Dense)
}

// Volume returns the volume of the cell.
func (C *Cell) Volume() float64 {
	return math.Abs(C.Det())
}

// Singular returns true if the cell can't be inverted, that is, if its volume is
// negligible compared with that of the box with the same edge lengths. The criterion
// doesn't depend on the units of the cell.
func (C *Cell) Singular() bool {
	a, b, c := C.Lengths()
	box := a * b * c
	if box == 0 {
		return true
	}
	return math.Abs(C.Det())/box <= simfit.Appzero
}

func (C *Cell) String() string {
	a, b, c := C.Vector(0), C.Vector(1), C.Vector(2)
	return fmt.Sprintf("a: %8.4f %8.4f %8.4f\nb: %8.4f %8.4f %8.4f\nc: %8.4f %8.4f %8.4f", a[0], a[1], a[2], b[0], b[1], b[2], c[0], c[1], c[2])
}

// Component is one of the six independent elements of a symmetric
// 3x3 tensor (stress or strain).
type Component int

const (
	XX Component = iota
	YY
	ZZ
	XY
	XZ
	YZ
)

var componentNames = [...]string{"XX", "YY", "ZZ", "XY", "XZ", "YZ"}

// Components lists all the components in Voigt-like order.
var Components = []Component{XX, YY, ZZ, XY, XZ, YZ}

func (c Component) String() string {
	if c < XX || c > YZ {
		return fmt.Sprintf("Component(%d)", int(c))
	}
	return componentNames[c]
}

// Shear returns true for the off-diagonal components.
func (c Component) Shear() bool {
	return c == XY || c == XZ || c == YZ
}

// Indexes returns the row and column of the component in a 3x3 matrix.
func (c Component) Indexes() (int, int) {
	switch c {
	case XX:
		return 0, 0
	case YY:
		return 1, 1
	case ZZ:
		return 2, 2
	case XY:
		return 0, 1
	case XZ:
		return 0, 2
	case YZ:
		return 1, 2
	}
	panic(fmt.Sprintf("strain: invalid component %d", int(c)))
}

// ParseComponent returns the component named s ("XX", "yz"...).
func ParseComponent(s string) (Component, error) {
	for i, v := range componentNames {
		if strings.EqualFold(v, s) {
			return Component(i), nil
		}
	}
	return -1, fmt.Errorf("strain: unknown tensor component %q", s)
}

// Stress holds the six independent components of the stress tensor
// for one frame, indexed by Component.
type Stress [6]float64

// Get returns the c component of the stress.
func (S Stress) Get(c Component) float64 {
	return S[c]
}

// Frame is the data the stress-strain analysis needs from one trajectory frame.
type Frame struct {
	Step   int
	Stress Stress
	Cell   *Cell
}
