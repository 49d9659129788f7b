/*
 * tables_test.go, part of simfit.
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

package tables

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/simfit"
	"github.com/rmera/simfit/potfit"
	"github.com/rmera/simfit/strain"
)

func TestFrames(Te *testing.T) {
	dir := Te.TempDir()
	frames := []strain.Frame{
		{Step: 0, Stress: strain.Stress{1, 2, 3, 0.1, 0.2, 0.3}, Cell: strain.NewCell([3]float64{10, 0, 0}, [3]float64{1, 11, 0}, [3]float64{0, 2, 12})},
		{Step: 500, Stress: strain.Stress{-1, -2, -3, 0, 0, 0}, Cell: strain.NewCell([3]float64{10.5, 0, 0}, [3]float64{1, 11, 0}, [3]float64{0, 2, 12})},
	}
	for _, ext := range []string{".dat", ".dat.gz", ".dat.zst"} {
		name := filepath.Join(dir, "frames"+ext)
		if err := WriteFrames(name, frames); err != nil {
			Te.Fatal(err)
		}
		got, err := ReadFrames(name)
		if err != nil {
			Te.Fatal(err)
		}
		if len(got) != 2 || got[1].Step != 500 || got[1].Stress[2] != -3 {
			Te.Fatalf("%s: frames did not survive the round trip: %v", ext, got)
		}
		if a := got[1].Cell.Vector(0); a[0] != 10.5 {
			Te.Errorf("%s: expected a_x 10.5, got %g", ext, a[0])
		}
		if b := got[0].Cell.Vector(1); b != [3]float64{1, 11, 0} {
			Te.Errorf("%s: expected b [1 11 0], got %v", ext, b)
		}
	}
}

func TestFramesErrors(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "bad.dat")
	os.WriteFile(name, []byte("# header\n0 1 2 3 4 5 6 1 0 0 0 1 0 0 0 1\n100 1 2 3\n"), 0644)
	_, err := ReadFrames(name)
	var te *Error
	if !errors.As(err, &te) || te.Line() != 3 {
		Te.Errorf("expected an error at line 3, got %v", err)
	}
	if _, ok := err.(simfit.Error); !ok {
		Te.Error("tables errors should implement simfit.Error")
	}
	if _, err := ReadFrames(filepath.Join(dir, "missing.dat")); err == nil {
		Te.Error("reading a missing file should fail")
	}
}

func TestTable(Te *testing.T) {
	dir := Te.TempDir()
	T, _ := potfit.FromValues([]float64{1, 1.5, 2}, []float64{3, math.NaN(), -0.5})
	T.ID = "B-B"
	T.P = []float64{0.1, 0, 0.9}
	name := filepath.Join(dir, "B-B.table.gz")
	if err := WriteTable(name, T); err != nil {
		Te.Fatal(err)
	}
	got, err := ReadTable(name)
	if err != nil {
		Te.Fatal(err)
	}
	if got.Len() != 3 || got.Defined(1) || got.E[2] != -0.5 || got.P == nil || got.P[2] != 0.9 {
		Te.Errorf("table did not survive the round trip: %v %v", got.E, got.P)
	}
	plain := filepath.Join(dir, "plain.table")
	os.WriteFile(plain, []byte("0.5 1\n1.0 nan\n1.5 0\n"), 0644)
	got, err = ReadTable(plain)
	if err != nil || got.P != nil || got.NDefined() != 2 {
		Te.Errorf("unexpected table %v, %v", got, err)
	}
	os.WriteFile(plain, []byte("0.5 1\n0.4 2\n"), 0644)
	if _, err := ReadTable(plain); err == nil {
		Te.Error("decreasing abscissas should fail")
	}
}

func TestSamples(Te *testing.T) {
	dir := Te.TempDir()
	if err := WriteSamples(filepath.Join(dir, "A-A.dat.zst"), []float64{1.5, 2.25, 3}); err != nil {
		Te.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "B-B.dat"), []byte("1 2 3\n4\n#5\n"), 0644)
	s := DirSampler{Dir: dir}
	a, err := s.Samples(context.Background(), "A-A")
	if err != nil || len(a) != 3 || a[1] != 2.25 {
		Te.Errorf("unexpected samples %v, %v", a, err)
	}
	b, err := s.Samples(context.Background(), "B-B")
	if err != nil || len(b) != 4 {
		Te.Errorf("unexpected samples %v, %v", b, err)
	}
	if _, err := s.Samples(context.Background(), "C-C"); err == nil {
		Te.Error("missing samples should fail")
	}
}
