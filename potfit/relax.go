/*
 * relax.go, part of simfit.
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
	"github.com/rmera/simfit"
)

// RelaxOptions are the parameters of one iterative Boltzmann inversion update.
type RelaxOptions struct {
	// Factor is the relaxation factor that damps the correction.
	Factor float64
	// Cutoff is the fraction of the largest probability under which a bin
	// is considered not sampled well enough to be corrected.
	Cutoff float64
	// MaxProbability is the largest observed probability. If it is not positive,
	// the largest probability carried by the trial table is used.
	MaxProbability float64
}

// Relax returns the updated potential prev + Factor*(target-trial). target and trial are the
// potentials of mean force of the target and trial distributions. Bins are matched by their
// abscissas, within simfit.XTolerance, and points of target or trial outside prev's grid are
// skipped. A bin of the result is undefined if it is undefined in any of the three tables, if
// target or trial lack it, or if the probability carried by target or trial is under
// Cutoff*MaxProbability. It returns an *simfit.EmptyDistributionError when the largest probability
// needs to be obtained from a trial table whose probabilities add up to zero.
func Relax(prev, target, trial *Table, opts RelaxOptions) (*Table, error) {
	max := opts.MaxProbability
	if max <= 0 {
		var err error
		max, err = trial.MaxP()
		if err != nil {
			return nil, simfit.ErrDecorate(err, "potfit.Relax")
		}
	}
	threshold := opts.Cutoff * max
	ret := NewTable(prev.X)
	ret.ID = prev.ID
	var tg, tr int
	for i, x := range prev.X {
		it := seek(target.X, &tg, x)
		ir := seek(trial.X, &tr, x)
		e, err := relaxBin(prev, target, trial, i, it, ir, threshold, opts.Factor)
		if err != nil {
			if e, ok := err.(simfit.Error); ok && !e.Critical() {
				continue //left undefined, filled later.
			}
			return nil, err
		}
		ret.E[i] = e
	}
	return ret, nil
}

// relaxBin computes the updated energy for bin i of prev, which corresponds to bins it of
// target and ir of trial (-1 if they don't exist). It returns an *simfit.UndefinedBinError if
// the energy can't be estimated.
func relaxBin(prev, target, trial *Table, i, it, ir int, threshold, factor float64) (float64, error) {
	if it < 0 || ir < 0 || !prev.Defined(i) || !target.Defined(it) || !trial.Defined(ir) {
		return 0, simfit.NewUndefinedBinError(i, prev.X[i], "potfit.relaxBin")
	}
	if (target.P != nil && target.P[it] < threshold) || (trial.P != nil && trial.P[ir] < threshold) {
		return 0, simfit.NewUndefinedBinError(i, prev.X[i], "potfit.relaxBin: poorly sampled")
	}
	return prev.E[i] + factor*(target.E[it]-trial.E[ir]), nil
}
