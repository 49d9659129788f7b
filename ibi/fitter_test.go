/*
 * fitter_test.go, part of simfit.
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
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/rmera/simfit"
	"github.com/rmera/simfit/potfit"
)

// mapSampler returns fixed samples for each interaction.
type mapSampler map[string][]float64

func (m mapSampler) Samples(ctx context.Context, name string) ([]float64, error) {
	s, ok := m[name]
	if !ok {
		return nil, errors.New("no samples for " + name)
	}
	return s, nil
}

// fixedRunner always "simulates" the same trajectory.
type fixedRunner struct {
	s      Sampler
	rounds []int
}

func (r *fixedRunner) Run(ctx context.Context, round int, pots map[string]*potfit.Table) (Sampler, error) {
	r.rounds = append(r.rounds, round)
	return r.s, nil
}

type memStore struct {
	mu     sync.Mutex
	rounds map[int][]Result
	fail   error //if not nil, SaveRound returns it and stores nothing
}

func (m *memStore) SaveRound(round int, results []Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if m.rounds == nil {
		m.rounds = make(map[int][]Result)
	}
	m.rounds[round] = results
	return nil
}

// spread returns n deterministic samples with a bell-like shape centered at c, of half-width w.
func spread(n int, c, w float64) []float64 {
	const (
		phi   = 0.6180339887498949
		sqrt2 = 0.41421356237309515
	)
	ret := make([]float64, n)
	u1, u2 := 0.1, 0.7
	for i := range ret {
		u1 = math.Mod(u1+phi, 1)
		u2 = math.Mod(u2+sqrt2, 1)
		ret[i] = c + w*(u1+u2-1)
	}
	return ret
}

func testInteractions() []Interaction {
	return []Interaction{
		{Name: "B-B", Kind: Bond, BinWidth: 0.02, Start: 0.8, End: 1.6},
		{Name: "B-B-B", Kind: Angle, BinWidth: 5, Start: 0, End: 180},
		{Name: "B-B-B-B", Kind: Torsion, BinWidth: 10, Start: -180, End: 180},
	}
}

func testSamples(shift float64) mapSampler {
	return mapSampler{
		"B-B":     spread(5000, 1.2+shift, 0.25),
		"B-B-B":   spread(5000, 110+10*shift, 40),
		"B-B-B-B": spread(5000, 10*shift, 170),
	}
}

func TestFixedPoint(Te *testing.T) {
	F, err := New(Settings{KT: simfit.KT(300), Relaxation: 0.2, Cutoff: 0}, testInteractions())
	if err != nil {
		Te.Fatal(err)
	}
	store := new(memStore)
	F.Store = store
	ref := testSamples(0)
	first, err := F.Reference(context.Background(), ref)
	if err != nil {
		Te.Fatal(err)
	}
	runner := &fixedRunner{s: ref}
	if err := F.Run(context.Background(), ref, runner, 3); err != nil {
		Te.Fatal(err)
	}
	if F.Round() != 3 || len(runner.rounds) != 3 || runner.rounds[0] != 1 {
		Te.Fatalf("expected 3 rounds, got %d (runner: %v)", F.Round(), runner.rounds)
	}
	if len(store.rounds) != 4 {
		Te.Errorf("store should have rounds 0 to 3, has %d", len(store.rounds))
	}
	pots := F.Potentials()
	for _, r := range first {
		if r.Target == nil || r.Target.P == nil {
			Te.Errorf("round 0 of %s should carry the target", r.Name)
		}
		p := pots[r.Name]
		for i := range p.E {
			if math.Abs(p.E[i]-r.Potential.E[i]) > 1e-9 {
				Te.Errorf("%s bin %d moved from %g to %g with a perfect trial", r.Name, i, r.Potential.E[i], p.E[i])
				break
			}
		}
	}
	for _, r := range store.rounds[3] {
		if r.Merit > 1e-12 {
			Te.Errorf("%s: merit should be 0 for identical distributions, got %g", r.Name, r.Merit)
		}
	}
	tor := pots["B-B-B-B"]
	if tor.E[0] != tor.E[tor.Len()-1] {
		Te.Error("torsion potential should be periodic")
	}
}

func TestUpdateMoves(Te *testing.T) {
	F, err := New(Settings{KT: 1, Relaxation: 1, Cutoff: 0.05}, testInteractions()[:1])
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := F.Reference(context.Background(), testSamples(0)); err != nil {
		Te.Fatal(err)
	}
	before := F.Potentials()["B-B"]
	res, err := F.Update(context.Background(), testSamples(0.05))
	if err != nil {
		Te.Fatal(err)
	}
	if res[0].Merit <= 0 || res[0].Round != 1 {
		Te.Errorf("a shifted trial should have a positive merit in round 1, got %+v", res[0])
	}
	after := F.Potentials()["B-B"]
	//the trial is shifted to larger distances, so the potential must become steeper there.
	i := int((1.4 - 0.8) / 0.02)
	if !(after.E[i] > before.E[i]) {
		Te.Errorf("potential at 1.4 should rise, went from %g to %g", before.E[i], after.E[i])
	}
}

func TestPairTruncation(Te *testing.T) {
	inter := []Interaction{{Name: "A-A", Kind: Pair, BinWidth: 0.1, Start: 3, End: 12, TruncateAfter: 1}}
	F, err := New(Settings{KT: 0.6, Relaxation: 0.5, Cutoff: 0.01}, inter)
	if err != nil {
		Te.Fatal(err)
	}
	res, err := F.Reference(context.Background(), mapSampler{"A-A": spread(20000, 8, 4)})
	if err != nil {
		Te.Fatal(err)
	}
	p := res[0].Potential
	if p.NDefined() != p.Len() {
		Te.Error("pair potentials should be fully defined")
	}
	if p.E[p.Len()-1] != 0 {
		Te.Errorf("pair potential should vanish at the cutoff, got %g", p.E[p.Len()-1])
	}
}

func TestErrors(Te *testing.T) {
	if _, err := New(Settings{KT: 1, Relaxation: 1}, append(testInteractions(), testInteractions()[0])); err == nil {
		Te.Error("repeated interactions should fail")
	}
	if _, err := New(Settings{KT: 0, Relaxation: 1}, testInteractions()); err == nil {
		Te.Error("zero kT should fail")
	}
	F, err := New(Settings{KT: 1, Relaxation: 1}, testInteractions())
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := F.Update(context.Background(), testSamples(0)); err == nil {
		Te.Error("Update before Reference should fail")
	}
	partial := testSamples(0)
	delete(partial, "B-B-B")
	_, err = F.Reference(context.Background(), partial)
	if err == nil || !strings.Contains(err.Error(), "B-B-B") {
		Te.Errorf("missing samples should fail naming the interaction, got %v", err)
	}
	if F.Round() != -1 {
		Te.Error("a failed round should not change the state")
	}
	empty := testSamples(0)
	empty["B-B"] = []float64{100, 200}
	_, err = F.Reference(context.Background(), empty)
	var ede *simfit.EmptyDistributionError
	if !errors.As(err, &ede) {
		Te.Errorf("samples out of the domain should give an EmptyDistributionError, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := F.Run(ctx, testSamples(0), &fixedRunner{s: testSamples(0)}, 2); !errors.Is(err, context.Canceled) {
		Te.Errorf("a cancelled context should stop the fit, got %v", err)
	}
}

func TestStoreFailure(Te *testing.T) {
	F, err := New(Settings{KT: 1, Relaxation: 0.3, Cutoff: 0.02}, testInteractions())
	if err != nil {
		Te.Fatal(err)
	}
	full := errors.New("disk full")
	store := &memStore{fail: full}
	F.Store = store
	if res, err := F.Reference(context.Background(), testSamples(0)); !errors.Is(err, full) || res != nil {
		Te.Fatalf("a failed save should fail the round, got %v", err)
	}
	if F.Round() != -1 || F.Potentials()["B-B"] != nil {
		Te.Error("a round that wasn't saved should not change the state")
	}
	store.fail = nil
	if _, err := F.Reference(context.Background(), testSamples(0)); err != nil {
		Te.Fatal(err)
	}
	before := F.Potentials()["B-B"].Copy()
	store.fail = full
	if _, err := F.Update(context.Background(), testSamples(0.02)); !errors.Is(err, full) {
		Te.Fatalf("a failed save should fail the round, got %v", err)
	}
	if F.Round() != 0 {
		Te.Errorf("the fitter should stay in round 0, it is in %d", F.Round())
	}
	after := F.Potentials()["B-B"]
	for i := range before.E {
		if before.E[i] != after.E[i] {
			Te.Errorf("potential changed at bin %d by a round that wasn't saved", i)
			break
		}
	}
	if _, ok := store.rounds[1]; ok {
		Te.Error("round 1 should not be stored")
	}
}

func TestResume(Te *testing.T) {
	settings := Settings{KT: 1, Relaxation: 0.3, Cutoff: 0.02}
	F, _ := New(settings, testInteractions())
	res0, err := F.Reference(context.Background(), testSamples(0))
	if err != nil {
		Te.Fatal(err)
	}
	targets := make(map[string]*potfit.Table)
	for _, r := range res0 {
		targets[r.Name] = r.Target
	}
	G, _ := New(settings, testInteractions())
	if err := G.Resume(0, targets, F.Potentials()); err != nil {
		Te.Fatal(err)
	}
	a, err := F.Update(context.Background(), testSamples(0.02))
	if err != nil {
		Te.Fatal(err)
	}
	b, err := G.Update(context.Background(), testSamples(0.02))
	if err != nil {
		Te.Fatal(err)
	}
	for i := range a {
		if math.Abs(a[i].Merit-b[i].Merit) > 1e-12 {
			Te.Errorf("%s: resumed merit %g differs from %g", a[i].Name, b[i].Merit, a[i].Merit)
		}
		for j := range a[i].Potential.E {
			if math.Abs(a[i].Potential.E[j]-b[i].Potential.E[j]) > 1e-12 {
				Te.Errorf("%s: resumed fit differs at bin %d", a[i].Name, j)
				break
			}
		}
	}
}

func TestParseKind(Te *testing.T) {
	k, err := ParseKind("VdW")
	if err != nil || k != Pair {
		Te.Errorf("vdw should be a pair, got %v %v", k, err)
	}
	if _, err := ParseKind("improper"); err == nil {
		Te.Error("improper is not supported")
	}
	if g := (Interaction{Kind: Torsion}).GapMode(); g != potfit.Periodic {
		Te.Errorf("torsions should default to periodic, got %v", g)
	}
	if g := (Interaction{Kind: Torsion, Gap: "linear"}).GapMode(); g != potfit.Linear {
		Te.Errorf("explicit gap mode ignored, got %v", g)
	}
}
