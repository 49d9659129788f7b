/*
 * blocks.go, part of simfit.
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

	"github.com/rmera/simfit"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BlockOptions controls how a trajectory is split for block averaging.
type BlockOptions struct {
	Blocks        int //number of blocks, clamped to [1, usable frames]
	Equilibration int //frames discarded at the beginning of the trajectory
}

// Averaged is a property averaged over blocks, with its standard error.
type Averaged struct {
	Mean   float64
	StdErr float64
}

func (A Averaged) String() string {
	return fmt.Sprintf("%.6g +/- %.3g", A.Mean, A.StdErr)
}

// Properties are the names of the quantities BlockAverages returns, in the order
// in which they are extracted from each frame.
var Properties = []string{
	"StressXX", "StressYY", "StressZZ", "StressXY", "StressXZ", "StressYZ",
	"CellAX", "CellAY", "CellAZ",
	"CellBX", "CellBY", "CellBZ",
	"CellCX", "CellCY", "CellCZ",
	"CellA", "CellB", "CellC",
	"Volume",
}

// StressProperty returns the name of the block averaged property for the
// stress component c.
func StressProperty(c Component) string {
	return "Stress" + c.String()
}

// frameValues puts the values of all Properties for frame f in dst.
func frameValues(f Frame, dst []float64) []float64 {
	dst = dst[:0]
	dst = append(dst, f.Stress[:]...)
	for i := 0; i < 3; i++ {
		v := f.Cell.Vector(i)
		dst = append(dst, v[:]...)
	}
	a, b, c := f.Cell.Lengths()
	return append(dst, a, b, c, f.Cell.Volume())
}

// propertySeries discards the equilibration frames and returns one time series
// per element of Properties.
func propertySeries(frames []Frame, equil int, caller string) ([][]float64, error) {
	if equil < 0 {
		equil = 0
	}
	usable := len(frames) - equil
	if usable <= 0 {
		return nil, simfit.NewInsufficientDataError(len(frames), equil, caller)
	}
	series := make([][]float64, len(Properties))
	for i := range series {
		series[i] = make([]float64, 0, usable)
	}
	vals := make([]float64, 0, len(Properties))
	for i, f := range frames[equil:] {
		if f.Cell == nil {
			return nil, fmt.Errorf("%s: frame %d (step %d) has no cell", caller, i+equil, f.Step)
		}
		vals = frameValues(f, vals)
		for j, v := range vals {
			series[j] = append(series[j], v)
		}
	}
	return series, nil
}

// BlockAverage splits data in blocks contiguous, near-equal blocks. Block b spans
// the elements from floor(b*n/blocks) to floor((b+1)*n/blocks). It returns the mean of
// the block means and its standard error, sqrt(var*N/(N-1)), where var is the population
// variance of the N block means. A spread of the block means below rounding error gives a StdErr
// of exactly 0. data can't be empty.
func BlockAverage(data []float64, blocks int) Averaged {
	n := len(data)
	if blocks > n {
		blocks = n
	}
	if blocks < 1 {
		blocks = 1
	}
	means := make([]float64, blocks)
	for b := range means {
		start := b * n / blocks
		end := (b + 1) * n / blocks
		means[b] = stat.Mean(data[start:end], nil)
	}
	mean, variance := stat.PopMeanVariance(means, nil)
	ret := Averaged{Mean: mean}
	//block means of constant data can still differ in the last bits when the blocks
	//have different sizes.
	noise := simfit.Appzero * floats.Norm(means, math.Inf(1))
	if blocks > 1 && variance > noise*noise {
		ret.StdErr = math.Sqrt(variance * float64(blocks) / float64(blocks-1))
	}
	return ret
}

// BlockAverages returns the block average of each of the Properties over the frames
// after the equilibration prefix. It returns an *simfit.InsufficientDataError if no frames
// remain after discarding the equilibration.
func BlockAverages(frames []Frame, opts BlockOptions) (map[string]Averaged, error) {
	series, err := propertySeries(frames, opts.Equilibration, "strain.BlockAverages")
	if err != nil {
		return nil, err
	}
	ret := make(map[string]Averaged, len(Properties))
	for i, name := range Properties {
		ret[name] = BlockAverage(series[i], opts.Blocks)
	}
	return ret, nil
}

// MeanCell returns the cell built from the block-averaged cell components.
func MeanCell(frames []Frame, opts BlockOptions) (*Cell, error) {
	avs, err := BlockAverages(frames, opts)
	if err != nil {
		return nil, simfit.ErrDecorate(err, "strain.MeanCell")
	}
	return CellFromAverages(avs)
}

// CellFromAverages rebuilds a cell from the CellAX...CellCZ entries of a BlockAverages result.
func CellFromAverages(avs map[string]Averaged) (*Cell, error) {
	data := make([]float64, 0, 9)
	for _, vec := range []string{"A", "B", "C"} {
		for _, comp := range []string{"X", "Y", "Z"} {
			av, ok := avs["Cell"+vec+comp]
			if !ok {
				return nil, fmt.Errorf("strain.CellFromAverages: missing Cell%s%s", vec, comp)
			}
			data = append(data, av.Mean)
		}
	}
	return CellFromSlice(data)
}
