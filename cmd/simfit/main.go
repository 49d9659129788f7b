/*
 * main.go, part of simfit.
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

// Command simfit analyzes strain/stress trajectories and drives iterative Boltzmann
// inversions of coarse-grained potentials, one round per invocation.
//
//	simfit strain [-config c.yaml] [-blocks n] [-eq n] [-component xx] frames [reference-frames]
//	simfit sampling -target n -steps n
//	simfit fit -config c.yaml -db rounds.db -round r -samples dir -out dir [-plot]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/rmera/simfit/config"
)

const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitCanceled = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if ctx.Err() != nil && code == exitOK {
		code = exitCanceled
	}
	stop()
	os.Exit(code)
}

type command struct {
	help string
	run  func(ctx context.Context, argv []string, stdout, stderr io.Writer) error
}

var commands = map[string]command{
	"strain":   {"block averages, strain tensor and modulus from frame files", strainCmd},
	"sampling": {"sampling interval for a run", samplingCmd},
	"fit":      {"one round of iterative Boltzmann inversion", fitCmd},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: simfit <command> [options] [files]")
	fmt.Fprintln(w, "\nCommands:")
	for _, name := range []string{"strain", "sampling", "fit"} {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].help)
	}
	fmt.Fprintln(w, "\nRun simfit <command> -h for the options of each command.")
}

// errUsage marks errors in the command line.
var errUsage = errors.New("bad usage")

// run executes the command in argv and returns the exit code.
func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if len(argv) == 0 || argv[0] == "-h" || argv[0] == "--help" || argv[0] == "help" {
		usage(stdout)
		return exitOK
	}
	cmd, ok := commands[argv[0]]
	if !ok {
		fmt.Fprintf(stderr, "simfit: unknown command %q\n", argv[0])
		usage(stderr)
		return exitUsage
	}
	err := cmd.run(ctx, argv[1:], stdout, stderr)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "simfit %s: %v\n", argv[0], err)
		return exitUsage
	case errors.Is(err, context.Canceled):
		log.Warn("simfit: interrupted")
		return exitCanceled
	}
	log.WithField("command", argv[0]).Error(err)
	return exitError
}

// newFlagSet returns a flag set that reports to stderr and doesn't exit on errors.
func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("simfit "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parse parses argv with fs, turning bad flags into usage errors.
func parse(fs *flag.FlagSet, argv []string) error {
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// loadConfig reads the configuration at path, or returns the defaults if path is empty,
// and sets the log level. verbose forces debug output.
func loadConfig(path string, verbose bool) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	return cfg, nil
}
