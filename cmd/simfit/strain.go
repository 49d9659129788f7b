/*
 * strain.go, part of simfit.
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
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/rmera/simfit"
	"github.com/rmera/simfit/config"
	"github.com/rmera/simfit/strain"
	"github.com/rmera/simfit/tables"
)

func strainCmd(ctx context.Context, argv []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("strain", stderr)
	cfgPath := fs.String("config", "", "configuration file (yaml, toml or ini)")
	blocks := fs.Int("blocks", -1, "number of blocks, 0 to choose it from the correlation time (default from the configuration)")
	equil := fs.Int("eq", -1, "frames discarded for equilibration (default from the configuration)")
	comp := fs.String("component", "", "component for the modulus: xx, yy, zz, xy, xz or yz (default from the configuration)")
	verbose := fs.Bool("v", false, "debug output")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: simfit strain [options] frames [reference-frames]")
		fs.PrintDefaults()
	}
	if err := parse(fs, argv); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return fmt.Errorf("%w: one or two frame files needed", errUsage)
	}
	cfg, err := loadConfig(*cfgPath, *verbose)
	if err != nil {
		return err
	}
	if *blocks >= 0 {
		cfg.Strain.Blocks = *blocks
	}
	if *equil >= 0 {
		cfg.Strain.Equilibration = *equil
	}
	if *comp != "" {
		cfg.Strain.Component = *comp
	}
	if err := cfg.Check(); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	frames, err := tables.ReadFrames(fs.Arg(0))
	if err != nil {
		return err
	}
	log.WithField("file", fs.Arg(0)).Infof("simfit: read %s frames", humanize.Comma(int64(len(frames))))
	if err := ctx.Err(); err != nil {
		return err
	}
	avs, err := averages(frames, cfg)
	if err != nil {
		return simfit.ErrDecorate(err, "simfit strain: "+fs.Arg(0))
	}
	fmt.Fprintf(stdout, "# %s\n", fs.Arg(0))
	printAverages(stdout, avs)
	if fs.NArg() == 1 {
		return nil
	}

	refFrames, err := tables.ReadFrames(fs.Arg(1))
	if err != nil {
		return err
	}
	log.WithField("file", fs.Arg(1)).Infof("simfit: read %s reference frames", humanize.Comma(int64(len(refFrames))))
	refAvs, err := averages(refFrames, cfg)
	if err != nil {
		return simfit.ErrDecorate(err, "simfit strain: "+fs.Arg(1))
	}
	reference, err := strain.CellFromAverages(refAvs)
	if err != nil {
		return err
	}
	current, err := strain.CellFromAverages(avs)
	if err != nil {
		return err
	}
	T, err := strain.ComputeTensor(reference, current)
	if err != nil {
		return simfit.ErrDecorate(err, "simfit strain")
	}
	c := cfg.Component()
	eng := strain.EngineeringStrain(T, c)
	fmt.Fprintf(stdout, "\n# strain relative to %s\n", fs.Arg(1))
	v := T.Voigt()
	for _, k := range strain.Components {
		fmt.Fprintf(stdout, "Strain%s %12.6g\n", k, v[k])
	}
	fmt.Fprintf(stdout, "Engineering%s %12.6g\n", c, eng)
	prop := strain.StressProperty(c)
	mod, err := strain.Modulus(avs[prop], refAvs[prop], eng)
	if err != nil {
		log.WithField("component", c).Warn(err)
		return nil
	}
	fmt.Fprintf(stdout, "Modulus%s %s\n", c, mod)
	return nil
}

// averages block-averages frames, choosing the number of blocks from the correlation
// time of the stress component of cfg when cfg doesn't give it.
func averages(frames []strain.Frame, cfg *config.Config) (map[string]strain.Averaged, error) {
	n := cfg.Strain.Blocks
	if n == 0 {
		c := cfg.Component()
		var series []float64
		for i := cfg.Strain.Equilibration; i < len(frames); i++ {
			series = append(series, frames[i].Stress.Get(c))
		}
		tau := strain.CorrelationTime(series)
		n = strain.SuggestBlocks(len(series), tau, cfg.Strain.MaxBlocks)
		log.WithFields(log.Fields{"tau": tau, "blocks": n}).Info("simfit: blocks chosen from the stress correlation time")
	}
	return strain.BlockAverages(frames, cfg.BlockOptions(n))
}

func printAverages(w io.Writer, avs map[string]strain.Averaged) {
	for _, name := range strain.Properties {
		av := avs[name]
		fmt.Fprintf(w, "%-9s %14.8g %12.4g\n", name, av.Mean, av.StdErr)
	}
}

func samplingCmd(ctx context.Context, argv []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("sampling", stderr)
	target := fs.Int("target", 1000, "desired sampling interval, in steps")
	steps := fs.Int("steps", 0, "total steps of the run")
	if err := parse(fs, argv); err != nil {
		return err
	}
	if *steps <= 0 {
		return fmt.Errorf("%w: -steps must be positive", errUsage)
	}
	interval := strain.EstimateSamplingInterval(*target, *steps)
	log.Debugf("simfit: %s samples", humanize.Comma(int64(*steps/interval)))
	fmt.Fprintln(stdout, interval)
	return nil
}
