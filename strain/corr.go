/*
 * corr.go, part of simfit.
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
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

//The block averages are only meaningful if each block is longer than the
//correlation time of the property. These functions estimate that time so
//the number of blocks can be chosen from the data.

// Autocorrelation returns the normalized autocorrelation function of data for lags
// 0 to len(data)-1. The function is obtained with FFTs, zero-padding data to twice
// its length so the correlation is not circular. A constant series gives 1 at lag 0
// and 0 elsewhere.
func Autocorrelation(data []float64) []float64 {
	n := len(data)
	ret := make([]float64, n)
	if n == 0 {
		return ret
	}
	mean, variance := stat.PopMeanVariance(data, nil)
	if variance <= 0 {
		ret[0] = 1
		return ret
	}
	pad := make([]complex128, 2*n)
	for i, v := range data {
		pad[i] = complex(v-mean, 0)
	}
	f := fourier.NewCmplxFFT(len(pad))
	f.Coefficients(pad, pad)
	for i, v := range pad {
		pad[i] = v * cmplx.Conj(v)
	}
	f.Sequence(pad, pad)
	//Sequence is not normalized.
	norm := 1 / (float64(len(pad)) * float64(n) * variance)
	for i := range ret {
		ret[i] = real(pad[i]) * norm
	}
	return ret
}

// CorrelationTime returns the integrated autocorrelation time of data, in frames:
// 1+2*sum(c(k)), where the sum runs until the autocorrelation c first drops to zero or below.
// A constant series has a correlation time of 0.
func CorrelationTime(data []float64) float64 {
	c := Autocorrelation(data)
	if len(c) < 2 || c[0] == 0 {
		return 0
	}
	if _, v := stat.PopMeanVariance(data, nil); v <= 0 {
		return 0
	}
	tau := 1.0
	for _, v := range c[1:] {
		if v <= 0 {
			break
		}
		tau += 2 * v
	}
	return tau
}

// SuggestBlocks returns a number of blocks for n frames such that each block is at
// least twice the correlation time tau long. The result is between 2 and max, unless
// there are fewer than 2 frames.
func SuggestBlocks(n int, tau float64, max int) int {
	if n < 2 {
		return 1
	}
	length := int(math.Ceil(2 * tau))
	if length < 1 {
		length = 1
	}
	blocks := n / length
	if max > 0 && blocks > max {
		blocks = max
	}
	if blocks < 2 {
		blocks = 2
	}
	return blocks
}
