/*
 * fitter.go, part of simfit.
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

package ibi

import (
	"context"
	"fmt"
	"sync"

	"github.com/rmera/simfit"
	"github.com/rmera/simfit/histo"
	"github.com/rmera/simfit/potfit"
	log "github.com/sirupsen/logrus"
)

// Sampler gives the measurements (bond lengths, angles, torsions or pair distances) of
// the interaction name over a trajectory.
type Sampler interface {
	Samples(ctx context.Context, name string) ([]float64, error)
}

// Runner performs the trial simulation of a round with the given potentials, and returns
// a Sampler for the resulting trajectory. It is normally slow and always external.
type Runner interface {
	Run(ctx context.Context, round int, potentials map[string]*potfit.Table) (Sampler, error)
}

// Store persists the results of each round.
type Store interface {
	SaveRound(round int, results []Result) error
}

// Settings are the parameters shared by all the interactions in a fit.
type Settings struct {
	KT         float64 //thermal energy, in the energy units of the potentials
	Relaxation float64 //relaxation factor
	Cutoff     float64 //fraction of the largest probability under which bins are not corrected
}

// Check returns an error if the settings are not usable.
func (S Settings) Check() error {
	if S.KT <= 0 {
		return fmt.Errorf("ibi: kT must be positive")
	}
	if S.Relaxation <= 0 {
		return fmt.Errorf("ibi: the relaxation factor must be positive")
	}
	if S.Cutoff < 0 || S.Cutoff >= 1 {
		return fmt.Errorf("ibi: the probability cutoff must be in [0,1)")
	}
	return nil
}

// Result is the outcome of one round for one interaction.
type Result struct {
	Name      string
	Round     int
	Potential *potfit.Table
	// Target is the target PMF. It is only set in round 0.
	Target *potfit.Table
	// Merit is the integral of |Ptarget-Ptrial|. 0 is a perfect fit. It is 0 in round 0.
	Merit float64
}

// Fitter carries the state of an iterative Boltzmann inversion across rounds.
// Round 0 obtains the target distributions and uses their PMFs as first potentials.
// Each later round corrects the potentials with the distributions of a trial simulation
// performed with the potentials of the previous round.
// Within a round, the interactions are processed concurrently. Rounds are strictly sequential.
type Fitter struct {
	Store Store

	settings    Settings
	inter       []Interaction
	targets     []*potfit.Table
	targetDists []*histo.Distribution
	pots        []*potfit.Table
	round       int
}

// New returns a Fitter for the given interactions, which have not gone through round 0.
func New(settings Settings, interactions []Interaction) (*Fitter, error) {
	if err := settings.Check(); err != nil {
		return nil, err
	}
	if len(interactions) == 0 {
		return nil, fmt.Errorf("ibi: no interactions to fit")
	}
	seen := make(map[string]bool, len(interactions))
	for _, v := range interactions {
		if err := v.Check(); err != nil {
			return nil, err
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("ibi: interaction %s given twice", v.Name)
		}
		seen[v.Name] = true
	}
	n := len(interactions)
	return &Fitter{
		settings:    settings,
		inter:       append([]Interaction(nil), interactions...),
		targets:     make([]*potfit.Table, n),
		targetDists: make([]*histo.Distribution, n),
		pots:        make([]*potfit.Table, n),
		round:       -1,
	}, nil
}

// Round returns the last completed round, or -1 if round 0 has not been performed.
func (F *Fitter) Round() int { return F.round }

// Interactions returns the interactions being fitted.
func (F *Fitter) Interactions() []Interaction {
	return append([]Interaction(nil), F.inter...)
}

// Potentials returns copies of the current potentials, by interaction name.
func (F *Fitter) Potentials() map[string]*potfit.Table {
	ret := make(map[string]*potfit.Table, len(F.inter))
	for i, v := range F.inter {
		if F.pots[i] != nil {
			ret[v.Name] = F.pots[i].Copy()
		}
	}
	return ret
}

// Resume sets the state of the fitter as it was at the end of round, from the target PMFs
// (which must carry their probabilities) and the potentials of that round, both by
// interaction name. The tables are aligned on each interaction's grid.
func (F *Fitter) Resume(round int, targets, potentials map[string]*potfit.Table) error {
	if round < 0 {
		return fmt.Errorf("ibi.Resume: invalid round %d", round)
	}
	for i, v := range F.inter {
		tg, ok := targets[v.Name]
		if !ok || tg.P == nil {
			return fmt.Errorf("ibi.Resume: no target with probabilities for %s", v.Name)
		}
		pot, ok := potentials[v.Name]
		if !ok {
			return fmt.Errorf("ibi.Resume: no potential for %s", v.Name)
		}
		grid := binCenters(v)
		F.targets[i] = potfit.Align(tg, grid)
		F.targets[i].ID = v.Name
		d, err := histo.FromValues(grid, F.targets[i].P)
		if err != nil {
			return fmt.Errorf("ibi.Resume: %s: %w", v.Name, err)
		}
		d.SetID(v.Name)
		F.targetDists[i] = d
		F.pots[i] = potfit.Align(pot, grid)
		F.pots[i].ID = v.Name
		F.pots[i].P = nil
	}
	F.round = round
	return nil
}

// binCenters returns the grid histo.Compute uses for I.
func binCenters(I Interaction) []float64 {
	d, err := histo.Compute(nil, I.BinWidth, I.Start, I.End)
	if err != nil {
		panic(err.Error()) //I was checked when the fitter was created.
	}
	return d.X()
}

// distribution measures the distribution of interaction i with the samples from s.
func (F *Fitter) distribution(ctx context.Context, i int, s Sampler) (*histo.Distribution, float64, error) {
	I := F.inter[i]
	samples, err := s.Samples(ctx, I.Name)
	if err != nil {
		return nil, 0, err
	}
	d, err := histo.Compute(samples, I.BinWidth, I.Start, I.End)
	if err != nil {
		return nil, 0, err
	}
	d.SetID(I.Name)
	max, err := d.MaxProbability()
	if err != nil {
		return nil, 0, err
	}
	return d, max, nil
}

// finish turns a raw table into a usable potential for interaction i: gaps are
// filled and, for pairs, the tail is zeroed and truncated.
func (F *Fitter) finish(i int, raw *potfit.Table) (*potfit.Table, error) {
	I := F.inter[i]
	pot := potfit.FillGaps(raw, I.GapMode())
	if pot.NDefined() == 0 {
		return nil, simfit.NewEmptyDistributionError("ibi.finish: no usable bins")
	}
	if I.Kind == Pair {
		pot.Zero()
		potfit.ZeroAtEnd(pot)
		pot = potfit.TruncateAfterNthSignChange(pot, I.TruncateAfter)
	}
	pot.ID = I.Name
	pot.P = nil
	return pot, nil
}

// each runs f concurrently for every interaction and collects the results. If any call fails,
// the error of the first failing interaction (in the order they were given) is returned.
func (F *Fitter) each(ctx context.Context, f func(i int) (Result, error)) ([]Result, error) {
	results := make([]Result, len(F.inter))
	errs := make([]error, len(F.inter))
	var wg sync.WaitGroup
	for i := range F.inter {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = f(i)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err == nil {
			continue
		}
		caller := "ibi: interaction " + F.inter[i].Name
		if _, ok := err.(simfit.Error); ok {
			return nil, simfit.ErrDecorate(err, caller)
		}
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	return results, nil
}

// Reference performs round 0: the target distributions are measured with ref, and
// their gap-filled PMFs become the first trial potentials. The state of the fitter only
// changes if all the interactions succeed.
func (F *Fitter) Reference(ctx context.Context, ref Sampler) ([]Result, error) {
	if F.round >= 0 {
		return nil, fmt.Errorf("ibi.Reference: round 0 already performed")
	}
	dists := make([]*histo.Distribution, len(F.inter))
	results, err := F.each(ctx, func(i int) (Result, error) {
		I := F.inter[i]
		d, _, err := F.distribution(ctx, i, ref)
		if err != nil {
			return Result{}, err
		}
		dists[i] = d
		target := potfit.PMF(d, F.settings.KT, I.Kind.Jacobian())
		pot, err := F.finish(i, target)
		if err != nil {
			return Result{}, err
		}
		log.WithFields(log.Fields{"interaction": I.Name, "round": 0, "samples": d.Total(), "defined": target.NDefined()}).Info("ibi: target distribution obtained")
		return Result{Name: I.Name, Round: 0, Potential: pot, Target: target}, nil
	})
	if err != nil {
		return nil, err
	}
	if err := F.commit(0, results, dists); err != nil {
		return nil, err
	}
	return results, nil
}

// Update performs the round after the last completed one, with the distributions measured by
// trial, which must come from a simulation with the current potentials. The state of the
// fitter only changes if all the interactions succeed.
func (F *Fitter) Update(ctx context.Context, trial Sampler) ([]Result, error) {
	if F.round < 0 {
		return nil, fmt.Errorf("ibi.Update: round 0 has not been performed")
	}
	round := F.round + 1
	results, err := F.each(ctx, func(i int) (Result, error) {
		I := F.inter[i]
		d, max, err := F.distribution(ctx, i, trial)
		if err != nil {
			return Result{}, err
		}
		trialPMF := potfit.PMF(d, F.settings.KT, I.Kind.Jacobian())
		relaxed, err := potfit.Relax(F.pots[i], F.targets[i], trialPMF, potfit.RelaxOptions{
			Factor:         F.settings.Relaxation,
			Cutoff:         F.settings.Cutoff,
			MaxProbability: max,
		})
		if err != nil {
			return Result{}, err
		}
		pot, err := F.finish(i, relaxed)
		if err != nil {
			return Result{}, err
		}
		merit, err := histo.Overlap(F.targetDists[i], d)
		if err != nil {
			return Result{}, err
		}
		log.WithFields(log.Fields{"interaction": I.Name, "round": round, "merit": merit, "corrected": relaxed.NDefined()}).Info("ibi: potential updated")
		return Result{Name: I.Name, Round: round, Potential: pot, Merit: merit}, nil
	})
	if err != nil {
		return nil, err
	}
	if err := F.commit(round, results, nil); err != nil {
		return nil, err
	}
	return results, nil
}

// commit stores the results of a successful round in the Store, if there is one, and then
// in the fitter. If the Store fails, the fitter is left as it was.
func (F *Fitter) commit(round int, results []Result, dists []*histo.Distribution) error {
	if F.Store != nil {
		if err := F.Store.SaveRound(round, results); err != nil {
			return fmt.Errorf("ibi: saving round %d: %w", round, err)
		}
	}
	for i, r := range results {
		F.pots[i] = r.Potential
		if r.Target != nil {
			F.targets[i] = r.Target
		}
		if dists != nil {
			F.targetDists[i] = dists[i]
		}
	}
	F.round = round
	return nil
}

// Run performs round 0 with ref, if needed, and then as many rounds as needed to complete
// the given number, obtaining each trial trajectory from runner. It stops at the first error
// or when ctx is cancelled.
func (F *Fitter) Run(ctx context.Context, ref Sampler, runner Runner, rounds int) error {
	if F.round < 0 {
		if _, err := F.Reference(ctx, ref); err != nil {
			return err
		}
	}
	for F.round < rounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := F.round + 1
		log.WithField("round", next).Info("ibi: running trial simulation")
		trial, err := runner.Run(ctx, next, F.Potentials())
		if err != nil {
			return fmt.Errorf("ibi: trial simulation for round %d: %w", next, err)
		}
		if _, err := F.Update(ctx, trial); err != nil {
			return err
		}
	}
	return nil
}
