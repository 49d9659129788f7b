/*
 * strain_test.go, part of simfit.
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
	"math"
	"testing"

	"github.com/rmera/simfit"
)

func triclinic() *Cell {
	return NewCell([3]float64{10, 0, 0}, [3]float64{1.5, 11, 0}, [3]float64{-0.7, 2, 12.5})
}

func constantFrames(n int, c *Cell, s Stress) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{Step: i * 100, Stress: s, Cell: c}
	}
	return frames
}

func TestCellVectors(Te *testing.T) {
	C := triclinic()
	b := C.Vector(1)
	if b != [3]float64{1.5, 11, 0} {
		Te.Errorf("b vector should be [1.5 11 0], got %v", b)
	}
	if v := C.Volume(); math.Abs(v-10*11*12.5) > 1e-9 {
		Te.Errorf("Volume of an upper-triangular cell should be the product of the diagonal, got %f", v)
	}
	_, err := CellFromSlice([]float64{1, 2, 3})
	if err == nil {
		Te.Error("CellFromSlice should fail with 3 values")
	}
}

func TestBlockAveragesConstant(Te *testing.T) {
	s := Stress{1.5, -2, 0.3, 0.01, 0, -0.07}
	frames := constantFrames(57, triclinic(), s)
	for _, blocks := range []int{2, 3, 5, 10, 57} {
		avs, err := BlockAverages(frames, BlockOptions{Blocks: blocks, Equilibration: 4})
		if err != nil {
			Te.Fatal(err)
		}
		for _, c := range Components {
			av := avs[StressProperty(c)]
			if math.Abs(av.Mean-s[c]) > 1e-12 || av.StdErr != 0 {
				Te.Errorf("blocks %d, %s: expected %f +/- 0, got %v", blocks, c, s[c], av)
			}
		}
		if av := avs["CellBY"]; math.Abs(av.Mean-11) > 1e-12 || av.StdErr != 0 {
			Te.Errorf("blocks %d, CellBY: expected 11 +/- 0, got %v", blocks, av)
		}
	}
}

func TestBlockAverage(Te *testing.T) {
	//4 frames in 2 blocks: means 1.5 and 3.5.
	av := BlockAverage([]float64{1, 2, 3, 4}, 2)
	if av.Mean != 2.5 {
		Te.Errorf("mean should be 2.5, got %f", av.Mean)
	}
	//population variance of {1.5,3.5} is 1, times 2/1.
	if math.Abs(av.StdErr-math.Sqrt(2)) > 1e-12 {
		Te.Errorf("stderr should be sqrt(2), got %f", av.StdErr)
	}
	//5 frames in 2 blocks: [0,2) and [2,5)
	av = BlockAverage([]float64{0, 2, 4, 4, 4}, 2)
	if math.Abs(av.Mean-2.5) > 1e-12 {
		Te.Errorf("mean of block means should be 2.5, got %f", av.Mean)
	}
	if av = BlockAverage([]float64{3, 5}, 1); av.Mean != 4 || av.StdErr != 0 {
		Te.Errorf("a single block should give 4 +/- 0, got %v", av)
	}
	//unequal blocks of constant data
	seven := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	for _, blocks := range []int{2, 3, 4} {
		if av = BlockAverage(seven, blocks); av.StdErr != 0 || math.Abs(av.Mean-0.1) > 1e-15 {
			Te.Errorf("%d blocks of constant data should give 0.1 +/- 0, got %v", blocks, av)
		}
	}
}

func TestBlockAveragesInsufficient(Te *testing.T) {
	frames := constantFrames(5, triclinic(), Stress{})
	_, err := BlockAverages(frames, BlockOptions{Blocks: 5, Equilibration: 5})
	var ins *simfit.InsufficientDataError
	if !errors.As(err, &ins) {
		Te.Fatalf("expected an InsufficientDataError, got %v", err)
	}
	if !ins.Critical() {
		Te.Error("InsufficientDataError should be critical")
	}
	if _, err = MeanCell(nil, BlockOptions{Blocks: 2}); !errors.As(err, &ins) {
		Te.Errorf("MeanCell on no frames should give an InsufficientDataError, got %v", err)
	}
}

func TestMeanCell(Te *testing.T) {
	frames := constantFrames(10, triclinic(), Stress{})
	frames = append(frames, constantFrames(10, NewCell([3]float64{12, 0, 0}, [3]float64{1.5, 11, 0}, [3]float64{-0.7, 2, 12.5}), Stress{})...)
	C, err := MeanCell(frames, BlockOptions{Blocks: 2})
	if err != nil {
		Te.Fatal(err)
	}
	if a := C.Vector(0); math.Abs(a[0]-11) > 1e-12 {
		Te.Errorf("mean a_x should be 11, got %f", a[0])
	}
}

func TestStrainIdentity(Te *testing.T) {
	for _, C := range []*Cell{triclinic(), NewCell([3]float64{3, 0, 0}, [3]float64{0, 3, 0}, [3]float64{0, 0, 3})} {
		T, err := ComputeTensor(C, C)
		if err != nil {
			Te.Fatal(err)
		}
		for _, c := range Components {
			if v := T.Get(c); math.Abs(v) > 1e-12 {
				Te.Errorf("strain of a cell relative to itself should be 0, %s=%g", c, v)
			}
		}
	}
}

func TestStrainUniaxial(Te *testing.T) {
	ref := triclinic()
	cur := NewCell([3]float64{10.1, 0, 0}, [3]float64{1.5 * 1.01, 11, 0}, [3]float64{-0.7 * 1.01, 2, 12.5})
	T, err := ComputeTensor(ref, cur)
	if err != nil {
		Te.Fatal(err)
	}
	want := [6]float64{0.01, 0, 0, 0, 0, 0}
	for _, c := range Components {
		if math.Abs(T.Get(c)-want[c]) > 1e-12 {
			Te.Errorf("%s: expected %g, got %g", c, want[c], T.Get(c))
		}
	}
}

func TestStrainSimpleShear(Te *testing.T) {
	ref := NewCell([3]float64{10, 0, 0}, [3]float64{0, 10, 0}, [3]float64{0, 0, 10})
	//b tilted along x by 0.2, so F_xy=0.02 and the tensorial shear is 0.01
	cur := NewCell([3]float64{10, 0, 0}, [3]float64{0.2, 10, 0}, [3]float64{0, 0, 10})
	T, err := ComputeTensor(ref, cur)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(T.Get(XY)-0.01) > 1e-12 {
		Te.Errorf("tensorial XY should be 0.01, got %g", T.Get(XY))
	}
	if math.Abs(EngineeringStrain(T, XY)-0.02) > 1e-12 {
		Te.Errorf("engineering XY should be 0.02, got %g", EngineeringStrain(T, XY))
	}
}

func TestStrainSingular(Te *testing.T) {
	ref := NewCell([3]float64{1, 0, 0}, [3]float64{2, 0, 0}, [3]float64{0, 0, 1})
	if !ref.Singular() {
		Te.Error("a cell with parallel vectors should be singular")
	}
	_, err := ComputeTensor(ref, triclinic())
	var sing *simfit.SingularMatrixError
	if !errors.As(err, &sing) {
		Te.Errorf("expected a SingularMatrixError, got %v", err)
	}
	flat := NewCell([3]float64{1e-10, 0, 0}, [3]float64{0, 1e-10, 0}, [3]float64{1e-10, 1e-10, 0})
	if !flat.Singular() {
		Te.Error("a flat cell should be singular at any scale")
	}
}

// scaled returns C with every element multiplied by f.
func scaled(C *Cell, f float64) *Cell {
	a, b, c := C.Vector(0), C.Vector(1), C.Vector(2)
	for i := range a {
		a[i] *= f
		b[i] *= f
		c[i] *= f
	}
	return NewCell(a, b, c)
}

func TestStrainScale(Te *testing.T) {
	ref := triclinic()
	cur := NewCell([3]float64{10.1, 0, 0}, [3]float64{1.5 * 1.01, 11, 0}, [3]float64{-0.7 * 1.01, 2, 12.5})
	//Angstrom cells in nm, in m and in micro-Angstrom.
	for _, f := range []float64{0.1, 1e-10, 1e-6} {
		r, c := scaled(ref, f), scaled(cur, f)
		if r.Singular() {
			Te.Errorf("scale %g: the cell should not be singular", f)
		}
		T, err := ComputeTensor(r, r)
		if err != nil {
			Te.Fatalf("scale %g: %v", f, err)
		}
		for _, k := range Components {
			if v := T.Get(k); math.Abs(v) > 1e-12 {
				Te.Errorf("scale %g: strain of a cell relative to itself should be 0, %s=%g", f, k, v)
			}
		}
		T, err = ComputeTensor(r, c)
		if err != nil {
			Te.Fatalf("scale %g: %v", f, err)
		}
		if math.Abs(T.Get(XX)-0.01) > 1e-12 || math.Abs(T.Get(YY)) > 1e-12 {
			Te.Errorf("scale %g: expected a uniaxial strain of 0.01, got %v", f, T)
		}
	}
	tiny := NewCell([3]float64{1e-5, 0, 0}, [3]float64{0, 1e-5, 0}, [3]float64{0, 0, 1e-5})
	if _, err := ComputeTensor(tiny, tiny); err != nil {
		Te.Errorf("a small cell should be invertible: %v", err)
	}
}

func TestEngineeringStrain(Te *testing.T) {
	T := NewTensor([6]float64{0.03, -0.01, 0, 0.01, 0.005, -0.002})
	if v := EngineeringStrain(T, XY); v != 0.02 {
		Te.Errorf("XY engineering strain should be 0.02, got %g", v)
	}
	if v := EngineeringStrain(T, XX); v != 0.03 {
		Te.Errorf("XX engineering strain should be unchanged, got %g", v)
	}
	if v := T.Voigt(); v[YZ] != -0.004 || v[YY] != -0.01 {
		Te.Errorf("wrong Voigt strains %v", v)
	}
}

func TestEstimateSamplingInterval(Te *testing.T) {
	cases := []struct{ target, steps, want int }{
		{1000, 5000, 500},
		{1000, 50000, 1000},
		{1000, 5, 1},
		{0, 100, 1},
	}
	for _, c := range cases {
		if got := EstimateSamplingInterval(c.target, c.steps); got != c.want {
			Te.Errorf("EstimateSamplingInterval(%d, %d) = %d, want %d", c.target, c.steps, got, c.want)
		}
	}
}

func TestParseComponent(Te *testing.T) {
	c, err := ParseComponent("xz")
	if err != nil || c != XZ {
		Te.Errorf("xz should parse to XZ, got %v, %v", c, err)
	}
	if _, err := ParseComponent("XW"); err == nil {
		Te.Error("XW should not parse")
	}
}

func TestModulus(Te *testing.T) {
	m, err := Modulus(Averaged{Mean: 1.2, StdErr: 0.03}, Averaged{Mean: 0.2, StdErr: 0.04}, 0.01)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(m.Mean-100) > 1e-9 || math.Abs(m.StdErr-5) > 1e-9 {
		Te.Errorf("expected 100 +/- 5, got %v", m)
	}
	if _, err := Modulus(Averaged{}, Averaged{}, 0); !errors.Is(err, ErrZeroStrain) {
		Te.Errorf("zero strain should give ErrZeroStrain, got %v", err)
	}
	slope, icpt, err := FitModulus([]float64{0, 0.01, 0.02, 0.03}, []float64{0.1, 1.1, 2.1, 3.1})
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(slope-100) > 1e-9 || math.Abs(icpt-0.1) > 1e-9 {
		Te.Errorf("expected slope 100 and intercept 0.1, got %g %g", slope, icpt)
	}
}

func TestCorrelation(Te *testing.T) {
	alt := make([]float64, 64)
	for i := range alt {
		alt[i] = float64(1 - 2*(i%2))
	}
	c := Autocorrelation(alt)
	if math.Abs(c[0]-1) > 1e-9 {
		Te.Errorf("autocorrelation at lag 0 should be 1, got %g", c[0])
	}
	if c[1] >= 0 {
		Te.Errorf("alternating series should anticorrelate at lag 1, got %g", c[1])
	}
	if tau := CorrelationTime(alt); tau != 1 {
		Te.Errorf("correlation time of an alternating series should be 1, got %g", tau)
	}
	if tau := CorrelationTime([]float64{2, 2, 2, 2}); tau != 0 {
		Te.Errorf("correlation time of a constant should be 0, got %g", tau)
	}
	if b := SuggestBlocks(100, 5, 20); b != 10 {
		Te.Errorf("100 frames with tau 5 should give 10 blocks, got %d", b)
	}
	if b := SuggestBlocks(100, 0.2, 8); b != 8 {
		Te.Errorf("blocks should be clamped to 8, got %d", b)
	}
}
