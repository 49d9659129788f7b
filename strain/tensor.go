/*
 * tensor.go, part of simfit.
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

	"github.com/rmera/simfit"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Tensor is a symmetric strain tensor.
type Tensor struct {
	*mat.SymDense
}

// NewTensor returns a tensor with the given components, in the order XX, YY, ZZ, XY, XZ, YZ.
func NewTensor(voigt [6]float64) *Tensor {
	t := &Tensor{mat.NewSymDense(3, nil)}
	for _, c := range Components {
		i, j := c.Indexes()
		t.SetSym(i, j, voigt[c])
	}
	return t
}

// Get returns the tensorial value of the c component.
func (T *Tensor) Get(c Component) float64 {
	i, j := c.Indexes()
	return T.At(i, j)
}

// Voigt returns the six engineering strains, in the order XX, YY, ZZ, XY, XZ, YZ.
func (T *Tensor) Voigt() [6]float64 {
	var ret [6]float64
	for _, c := range Components {
		ret[c] = EngineeringStrain(T, c)
	}
	return ret
}

func (T *Tensor) String() string {
	return fmt.Sprintf("%v", mat.Formatted(T.SymDense, mat.Squeeze()))
}

// ComputeTensor returns the strain of the current cell relative to the reference one:
// ε = ½(h·h0⁻¹ + (h0⁻¹)ᵗ·hᵗ) − I,
// with h the current and h0 the reference cell matrices. It returns an *simfit.SingularMatrixError
// if the reference can't be inverted.
func ComputeTensor(reference, current *Cell) (*Tensor, error) {
	det := reference.Det()
	if reference.Singular() {
		return nil, simfit.NewSingularMatrixError(det, "strain.ComputeTensor")
	}
	var inv mat.Dense
	if err := inv.Inverse(reference.Dense); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return nil, simfit.NewSingularMatrixError(det, "strain.ComputeTensor")
		}
		log.WithFields(log.Fields{"det": det, "condition": err.Error()}).Warn("strain: reference cell is ill-conditioned")
	}
	//F is the deformation gradient, F·h0 = h
	var F mat.Dense
	F.Mul(current.Dense, &inv)
	ret := &Tensor{mat.NewSymDense(3, nil)}
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			v := 0.5 * (F.At(i, j) + F.At(j, i))
			if i == j {
				v--
			}
			ret.SetSym(i, j, v)
		}
	}
	return ret, nil
}

// EngineeringStrain returns the engineering strain for the c component of T.
// Shear components are twice the tensorial ones, normal components are unchanged.
func EngineeringStrain(T *Tensor, c Component) float64 {
	if c.Shear() {
		return 2 * T.Get(c)
	}
	return T.Get(c)
}
