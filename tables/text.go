/*
 * text.go, part of simfit.
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

// Package tables reads and writes the whitespace-separated text files simfit works with:
// stress/cell frames, tabulated potentials and raw samples. Files ending in .gz are
// gzip-compressed and files ending in .zst are zstd-compressed.
package tables

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rmera/simfit/potfit"
	"github.com/rmera/simfit/strain"
)

// records calls f with the fields of each non-empty, non-comment line of the file name.
// Comments start with '#' and run to the end of the line.
func records(name string, caller string, f func(line int, fields []string) error) error {
	r, err := openSource(name)
	if err != nil {
		e := err.(*Error)
		e.Decorate(caller)
		return e
	}
	defer r.Close()
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for s.Scan() {
		line++
		text := s.Text()
		if i := strings.Index(text, "#"); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if err := f(line, fields); err != nil {
			return err
		}
	}
	if err := s.Err(); err != nil {
		return newError(err.Error(), name, caller)
	}
	return nil
}

// parseFloats parses fields into dst, which must have the same length.
func parseFloats(fields []string, dst []float64) error {
	for i, v := range fields {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		dst[i] = f
	}
	return nil
}

// FrameColumns is the number of columns of a frames file:
// step, the 6 stress components (xx yy zz xy xz yz) and the 9 cell components (ax ay az bx by bz cx cy cz).
const FrameColumns = 16

// ReadFrames reads a frames file.
func ReadFrames(name string) ([]strain.Frame, error) {
	var frames []strain.Frame
	vals := make([]float64, FrameColumns-1)
	err := records(name, "tables.ReadFrames", func(line int, fields []string) error {
		if len(fields) != FrameColumns {
			return lineError(fmt.Sprintf("%d columns, %d expected", len(fields), FrameColumns), name, line, "tables.ReadFrames")
		}
		step, err := strconv.Atoi(fields[0])
		if err != nil {
			return lineError("bad step: "+err.Error(), name, line, "tables.ReadFrames")
		}
		if err := parseFloats(fields[1:], vals); err != nil {
			return lineError(err.Error(), name, line, "tables.ReadFrames")
		}
		var s strain.Stress
		copy(s[:], vals[:6])
		cell, err := strain.CellFromSlice(vals[6:])
		if err != nil {
			return lineError(err.Error(), name, line, "tables.ReadFrames")
		}
		frames = append(frames, strain.Frame{Step: step, Stress: s, Cell: cell})
		return nil
	})
	return frames, err
}

// WriteFrames writes frames in the format ReadFrames reads.
func WriteFrames(name string, frames []strain.Frame) error {
	w, err := createTarget(name)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "# step sxx syy szz sxy sxz syz ax ay az bx by bz cx cy cz")
	for _, f := range frames {
		fmt.Fprintf(w, "%d", f.Step)
		for _, s := range f.Stress {
			fmt.Fprintf(w, " %.10g", s)
		}
		for i := 0; i < 3; i++ {
			for _, v := range f.Cell.Vector(i) {
				fmt.Fprintf(w, " %.10g", v)
			}
		}
		fmt.Fprintln(w)
	}
	if err := w.Close(); err != nil {
		return newError(err.Error(), name, "tables.WriteFrames")
	}
	return nil
}

// ReadTable reads a table file with columns x, E and, optionally, P. Undefined
// energies are written as "nan". The ID of the table is left empty.
// Either all the lines have a P column, or none does.
func ReadTable(name string) (*potfit.Table, error) {
	T := new(potfit.Table)
	cols := 0
	vals := make([]float64, 3)
	err := records(name, "tables.ReadTable", func(line int, fields []string) error {
		if cols == 0 {
			cols = len(fields)
			if cols != 2 && cols != 3 {
				return lineError(fmt.Sprintf("%d columns, 2 or 3 expected", cols), name, line, "tables.ReadTable")
			}
		}
		if len(fields) != cols {
			return lineError(fmt.Sprintf("%d columns, %d expected", len(fields), cols), name, line, "tables.ReadTable")
		}
		if err := parseFloats(fields, vals[:cols]); err != nil {
			return lineError(err.Error(), name, line, "tables.ReadTable")
		}
		if n := len(T.X); n > 0 && vals[0] <= T.X[n-1] {
			return lineError("abscissas must increase", name, line, "tables.ReadTable")
		}
		T.X = append(T.X, vals[0])
		T.E = append(T.E, vals[1])
		if cols == 3 {
			T.P = append(T.P, vals[2])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if T.Len() == 0 {
		return nil, newError("no data", name, "tables.ReadTable")
	}
	return T, nil
}

// writeTable writes T to w, with its P column if T has one.
func writeTable(w io.Writer, T *potfit.Table) {
	if T.ID != "" {
		fmt.Fprintf(w, "# %s\n", T.ID)
	}
	num := func(v float64) string {
		if math.IsNaN(v) {
			return "nan"
		}
		return strconv.FormatFloat(v, 'g', 10, 64)
	}
	for i, x := range T.X {
		fmt.Fprintf(w, "%s %s", num(x), num(T.E[i]))
		if T.P != nil {
			fmt.Fprintf(w, " %s", num(T.P[i]))
		}
		fmt.Fprintln(w)
	}
}

// WriteTable writes T in the format ReadTable reads.
func WriteTable(name string, T *potfit.Table) error {
	w, err := createTarget(name)
	if err != nil {
		return err
	}
	writeTable(w, T)
	if err := w.Close(); err != nil {
		return newError(err.Error(), name, "tables.WriteTable")
	}
	return nil
}

// ReadSamples reads all the numbers in a file, however they are distributed in lines.
func ReadSamples(name string) ([]float64, error) {
	var ret []float64
	err := records(name, "tables.ReadSamples", func(line int, fields []string) error {
		for _, v := range fields {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return lineError(err.Error(), name, line, "tables.ReadSamples")
			}
			ret = append(ret, f)
		}
		return nil
	})
	return ret, err
}

// WriteSamples writes one sample per line.
func WriteSamples(name string, samples []float64) error {
	w, err := createTarget(name)
	if err != nil {
		return err
	}
	for _, v := range samples {
		fmt.Fprintln(w, strconv.FormatFloat(v, 'g', -1, 64))
	}
	if err := w.Close(); err != nil {
		return newError(err.Error(), name, "tables.WriteSamples")
	}
	return nil
}
