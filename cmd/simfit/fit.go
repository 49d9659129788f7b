/*
 * fit.go, part of simfit.
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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/rmera/simfit/config"
	"github.com/rmera/simfit/ibi"
	"github.com/rmera/simfit/potfit"
	"github.com/rmera/simfit/potplot"
	"github.com/rmera/simfit/store"
	"github.com/rmera/simfit/tables"
)

// fitCmd performs one round of a fit. Round 0 reads the target samples; later rounds
// read the samples of the trial simulation run with the potentials of the previous
// round, which are taken from the database.
func fitCmd(ctx context.Context, argv []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("fit", stderr)
	cfgPath := fs.String("config", "", "configuration file (yaml, toml or ini)")
	dbPath := fs.String("db", "simfit.db", "database with the rounds of the fit")
	round := fs.Int("round", 0, "round to perform")
	samples := fs.String("samples", ".", "directory with the samples, one NAME.dat file per interaction")
	out := fs.String("out", ".", "directory for the tables of the round")
	plot := fs.Bool("plot", false, "plot the potentials of every round and the merits")
	verbose := fs.Bool("v", false, "debug output")
	if err := parse(fs, argv); err != nil {
		return err
	}
	if *cfgPath == "" {
		return fmt.Errorf("%w: -config is required", errUsage)
	}
	if *round < 0 {
		return fmt.Errorf("%w: negative round", errUsage)
	}
	cfg, err := loadConfig(*cfgPath, *verbose)
	if err != nil {
		return err
	}
	inter, err := cfg.Interactions()
	if err != nil {
		return err
	}
	if len(inter) == 0 {
		return fmt.Errorf("%w: no interactions in %s", errUsage, *cfgPath)
	}
	if *round > cfg.Fit.Rounds {
		log.WithFields(log.Fields{"round": *round, "rounds": cfg.Fit.Rounds}).Warn("simfit: going past the configured number of rounds")
	}
	if err := os.MkdirAll(*out, 0755); err != nil {
		return err
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	campaign, err := openCampaign(db, cfg, *round)
	if err != nil {
		return err
	}
	F, err := ibi.New(cfg.Settings(), inter)
	if err != nil {
		return err
	}
	F.Store = campaign

	sampler := tables.DirSampler{Dir: *samples}
	var results []ibi.Result
	if *round == 0 {
		results, err = F.Reference(ctx, sampler)
	} else {
		if err = resume(F, campaign, *round-1); err != nil {
			return err
		}
		results, err = F.Update(ctx, sampler)
	}
	if err != nil {
		return err
	}

	for _, r := range results {
		if err := tables.WriteTable(filepath.Join(*out, r.Name+".table"), r.Potential); err != nil {
			return err
		}
		if r.Target != nil {
			if err := tables.WriteTable(filepath.Join(*out, r.Name+".target"), r.Target); err != nil {
				return err
			}
		}
		fmt.Fprintf(stdout, "%-12s round %d merit %.6g defined %d/%d\n", r.Name, r.Round, r.Merit, r.Potential.NDefined(), r.Potential.Len())
	}
	log.WithFields(log.Fields{"campaign": campaign.ID, "round": *round}).Infof("simfit: %s tables written to %s", humanize.Comma(int64(len(results))), *out)
	if *plot {
		return plotCampaign(campaign, inter, *round, *out)
	}
	return nil
}

// openCampaign returns the campaign named in cfg. Only round 0 may create it, and it
// always starts a new campaign, so a fit can be restarted from scratch under the same name.
func openCampaign(db *store.DB, cfg *config.Config, round int) (*store.Campaign, error) {
	if round == 0 {
		c, err := db.NewCampaign(cfg.Fit.Campaign, cfg.KT())
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"campaign": c.ID, "name": c.Name}).Info("simfit: new campaign")
		return c, nil
	}
	c, err := db.Campaign(cfg.Fit.Campaign)
	if errors.Is(err, store.ErrNoCampaign) {
		return nil, fmt.Errorf("%w: run round 0 first", err)
	}
	if err != nil {
		return nil, err
	}
	last, err := c.LastRound()
	if err != nil {
		return nil, err
	}
	if last != round-1 {
		return nil, fmt.Errorf("campaign %s: the last round stored is %d, can't perform round %d", c.Name, last, round)
	}
	if c.KT != cfg.KT() {
		log.WithFields(log.Fields{"stored": c.KT, "config": cfg.KT()}).Warn("simfit: kT differs from the one the campaign started with")
	}
	return c, nil
}

// resume loads the targets and the potentials of round into F.
func resume(F *ibi.Fitter, c *store.Campaign, round int) error {
	targets := make(map[string]*potfit.Table)
	pots := make(map[string]*potfit.Table)
	for _, I := range F.Interactions() {
		t, err := c.LoadTarget(I.Name)
		if err != nil {
			return err
		}
		p, err := c.LoadPotential(round, I.Name)
		if err != nil {
			return err
		}
		targets[I.Name] = t
		pots[I.Name] = p
	}
	return F.Resume(round, targets, pots)
}

// plotCampaign draws the potentials of each interaction over rounds 0 to last, and
// the merits.
func plotCampaign(c *store.Campaign, inter []ibi.Interaction, last int, out string) error {
	merits := make(map[string][]float64, len(inter))
	for _, I := range inter {
		byRound := make(map[int]*potfit.Table, last+1)
		for r := 0; r <= last; r++ {
			p, err := c.LoadPotential(r, I.Name)
			if err != nil {
				return err
			}
			byRound[r] = p
		}
		xlabel := "r"
		if I.Kind == ibi.Angle || I.Kind == ibi.Torsion {
			xlabel = "degrees"
		}
		p, err := potplot.Rounds(I.Name, xlabel, byRound)
		if err != nil {
			return err
		}
		if err := potplot.Save(p, filepath.Join(out, I.Name+".png")); err != nil {
			return err
		}
		m, err := c.Merits(I.Name)
		if err != nil {
			return err
		}
		for _, v := range m {
			merits[I.Name] = append(merits[I.Name], v.Merit)
		}
	}
	p, err := potplot.Merits(c.Name, merits)
	if err != nil {
		return err
	}
	return potplot.Save(p, filepath.Join(out, "merits.png"))
}
