/*
 * histo.go, part of simfit.
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

package histo

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rmera/simfit"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Distribution is a normalized histogram with fixed-width bins. X holds the center of
// each bin and P the probability density in it, so that the sum of P times the bin
// width is 1 (or 0 if no data fell inside the domain).
type Distribution struct {
	id       string
	binWidth float64
	dividers []float64
	x        []float64
	p        []float64
	total    int //number of samples inside the domain
}

// Compute returns the distribution of samples over the bins of width binWidth that
// cover [start, end). If (end-start) is not a multiple of binWidth, the last bin is
// the one that contains end. Samples outside the domain are omitted. samples is not modified.
func Compute(samples []float64, binWidth, start, end float64) (*Distribution, error) {
	if binWidth <= 0 || math.IsNaN(binWidth) {
		return nil, fmt.Errorf("histo.Compute: invalid bin width %g", binWidth)
	}
	if !(end > start) {
		return nil, fmt.Errorf("histo.Compute: domain end %g must be larger than its start %g", end, start)
	}
	//the tolerance keeps exact multiples from getting an extra bin due to rounding
	bins := int(math.Ceil((end-start)/binWidth - simfit.XTolerance))
	if bins < 1 {
		bins = 1
	}
	D := &Distribution{
		binWidth: binWidth,
		dividers: make([]float64, bins+1),
		x:        make([]float64, bins),
	}
	floats.Span(D.dividers, start, start+float64(bins)*binWidth)
	for i := range D.x {
		D.x[i] = start + (float64(i)+0.5)*binWidth
	}
	D.rehisto(samples)
	return D, nil
}

//rehisto fills the histogram from rawdata. stat.Histogram panics instead of omitting the values
//that are off limits, so we remove them before the call. NaNs are dropped as well.
func (D *Distribution) rehisto(rawdata []float64) {
	data := make([]float64, 0, len(rawdata))
	for _, v := range rawdata {
		if !math.IsNaN(v) {
			data = append(data, v)
		}
	}
	sort.Float64s(data)
	mini := sort.SearchFloat64s(data, D.dividers[0])
	maxi := sort.SearchFloat64s(data, D.dividers[len(D.dividers)-1])
	data = data[mini:maxi]
	D.total = len(data)
	D.p = stat.Histogram(nil, D.dividers, data, nil)
	if D.total > 0 {
		floats.Scale(1/(float64(D.total)*D.binWidth), D.p)
	}
}

// FromValues builds a distribution from already computed bin centers and probabilities,
// for instance read from a file. The bins must be evenly spaced.
func FromValues(x, p []float64) (*Distribution, error) {
	if len(x) != len(p) || len(x) < 2 {
		return nil, fmt.Errorf("histo.FromValues: need at least 2 bins and as many probabilities as bins (%d, %d)", len(x), len(p))
	}
	w := x[1] - x[0]
	if w <= 0 {
		return nil, fmt.Errorf("histo.FromValues: bins must be in increasing order")
	}
	D := &Distribution{binWidth: w, x: append([]float64(nil), x...), p: append([]float64(nil), p...)}
	D.dividers = make([]float64, len(x)+1)
	for i, v := range x {
		D.dividers[i] = v - w/2
	}
	D.dividers[len(x)] = x[len(x)-1] + w/2
	return D, nil
}

// SetID sets a label for the distribution, normally the name of the interaction it describes.
func (D *Distribution) SetID(id string) { D.id = id }

// ID returns the label of the distribution.
func (D *Distribution) ID() string { return D.id }

// Len returns the number of bins.
func (D *Distribution) Len() int { return len(D.x) }

// BinWidth returns the width of the bins.
func (D *Distribution) BinWidth() float64 { return D.binWidth }

// Total returns how many samples fell inside the domain.
func (D *Distribution) Total() int { return D.total }

// X returns a view of the bin centers.
func (D *Distribution) X() []float64 { return D.x }

// P returns a view of the probabilities.
func (D *Distribution) P() []float64 { return D.p }

// CopyDividers copies the bin limits into dest, if given and large enough, or into a new slice.
func (D *Distribution) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.dividers), dest...)
	copy(d, D.dividers)
	return d
}

// Sum returns the sum of the probabilities (not their integral).
func (D *Distribution) Sum() float64 {
	return floats.Sum(D.p)
}

// Integral returns the sum of the probabilities times the bin width.
func (D *Distribution) Integral() float64 {
	return D.Sum() * D.binWidth
}

// MaxProbability returns the largest probability in the distribution. It returns an
// *simfit.EmptyDistributionError if the distribution adds up to zero.
func (D *Distribution) MaxProbability() (float64, error) {
	if len(D.p) == 0 || D.Sum() <= 0 {
		return 0, simfit.NewEmptyDistributionError("histo.MaxProbability")
	}
	return floats.Max(D.p), nil
}

// Overlap returns the integral of |Pa-Pb| over the bins of a that have a matching bin in b.
// It is 0 for identical distributions and at most 2. Bins are matched by their center, so the
// distributions can cover different domains as long as their bins coincide.
func Overlap(a, b *Distribution) (float64, error) {
	if math.Abs(a.binWidth-b.binWidth) > simfit.XTolerance {
		return 0, fmt.Errorf("histo.Overlap: bin widths differ (%g, %g)", a.binWidth, b.binWidth)
	}
	var ret float64
	matched := 0
	j := 0
	for i, x := range a.x {
		for j < len(b.x) && b.x[j] < x-simfit.XTolerance {
			j++
		}
		if j == len(b.x) {
			break
		}
		if simfit.SameX(x, b.x[j]) {
			ret += math.Abs(a.p[i] - b.p[j])
			matched++
		}
	}
	if matched == 0 {
		return 0, fmt.Errorf("histo.Overlap: no common bins")
	}
	return ret * a.binWidth, nil
}

func (D *Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string    `json:"id"`
		BinWidth float64   `json:"binwidth"`
		Total    int       `json:"total"`
		X        []float64 `json:"x"`
		P        []float64 `json:"p"`
	}{D.id, D.binWidth, D.total, D.x, D.p})
}

// String prints a -hopefully- pretty representation of the distribution in 3 lines of text.
func (D *Distribution) String() string {
	ret := fmt.Sprintf("ID: %s, BinWidth: %g, TotalData: %d\n", D.id, D.binWidth, D.total)
	x := make([]string, 0, len(D.x))
	p := make([]string, 0, len(D.p))
	for i, v := range D.x {
		x = append(x, fmt.Sprintf("%9.3f", v))
		p = append(p, fmt.Sprintf("%9.5f", D.p[i]))
	}
	return ret + strings.Join(x, " ") + "\n" + strings.Join(p, " ")
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	if len(dest) > 0 && len(dest[0]) >= N {
		return dest[0][:N]
	}
	return make([]float64, N)
}
