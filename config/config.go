/*
 * config.go, part of simfit.
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

// Package config reads the parameters of the strain analysis and of potential fits.
// YAML (.yaml, .yml), TOML (.toml) and INI (.ini) files are accepted. Fields that are
// not given, or are zero, take the values of Default.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/rmera/simfit"
	"github.com/rmera/simfit/ibi"
	"github.com/rmera/simfit/strain"
)

// Strain holds the parameters of the block-averaged strain analysis.
type Strain struct {
	// Blocks is the number of blocks. If 0, it is chosen from the correlation
	// time of the stress, up to MaxBlocks.
	Blocks    int `yaml:"blocks" toml:"blocks"`
	MaxBlocks int `yaml:"maxBlocks" toml:"maxBlocks"`
	// Equilibration is the number of frames discarded at the start of each trajectory.
	Equilibration int `yaml:"equilibration" toml:"equilibration"`
	// Component is the strain/stress component used for the modulus (xx, yy, zz, xy, xz or yz).
	Component string `yaml:"component" toml:"component"`
	// TargetSamples is the number of frames the sampling interval aims for.
	TargetSamples int `yaml:"targetSamples" toml:"targetSamples"`
}

// Interaction is one tabulated term of a fit.
type Interaction struct {
	Name          string  `yaml:"name" toml:"name"`
	Kind          string  `yaml:"kind" toml:"kind"`
	BinWidth      float64 `yaml:"binWidth" toml:"binWidth"`
	Start         float64 `yaml:"start" toml:"start"`
	End           float64 `yaml:"end" toml:"end"`
	Gap           string  `yaml:"gap" toml:"gap"`
	TruncateAfter int     `yaml:"truncateAfter" toml:"truncateAfter"`
}

// Fit holds the parameters of an iterative Boltzmann inversion.
type Fit struct {
	// Campaign is the name under which the rounds are stored.
	Campaign string `yaml:"campaign" toml:"campaign"`
	// Temperature in K.
	Temperature  float64       `yaml:"temperature" toml:"temperature"`
	Relaxation   float64       `yaml:"relaxation" toml:"relaxation"`
	Cutoff       float64       `yaml:"cutoff" toml:"cutoff"`
	Rounds       int           `yaml:"rounds" toml:"rounds"`
	Interactions []Interaction `yaml:"interactions" toml:"interactions"`
}

// Config is the whole configuration of a simfit run.
type Config struct {
	LogLevel string `yaml:"logLevel" toml:"logLevel"`
	Strain   Strain `yaml:"strain" toml:"strain"`
	Fit      Fit    `yaml:"fit" toml:"fit"`
}

// Default returns the default configuration. It has no interactions.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Strain: Strain{
			MaxBlocks:     20,
			Component:     "xx",
			TargetSamples: 1000,
		},
		Fit: Fit{
			Campaign:    "simfit",
			Temperature: 300,
			Relaxation:  0.2,
			Cutoff:      0.01,
			Rounds:      10,
		},
	}
}

// fill sets the zero-valued fields of c to their defaults.
func (c *Config) fill() {
	d := Default()
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Strain.MaxBlocks == 0 {
		c.Strain.MaxBlocks = d.Strain.MaxBlocks
	}
	if c.Strain.Component == "" {
		c.Strain.Component = d.Strain.Component
	}
	if c.Strain.TargetSamples == 0 {
		c.Strain.TargetSamples = d.Strain.TargetSamples
	}
	if c.Fit.Campaign == "" {
		c.Fit.Campaign = d.Fit.Campaign
	}
	if c.Fit.Temperature == 0 {
		c.Fit.Temperature = d.Fit.Temperature
	}
	if c.Fit.Relaxation == 0 {
		c.Fit.Relaxation = d.Fit.Relaxation
	}
	if c.Fit.Cutoff == 0 {
		c.Fit.Cutoff = d.Fit.Cutoff
	}
	if c.Fit.Rounds == 0 {
		c.Fit.Rounds = d.Fit.Rounds
	}
}

// Load opens and decodes the configuration file at path, choosing the format from its
// extension, and checks the result.
func Load(path string) (*Config, error) {
	var c *Config
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c, err = decodeWith(path, func(f *os.File, c *Config) error {
			return yaml.NewDecoder(bufio.NewReader(f)).Decode(c)
		})
	case ".toml":
		c, err = decodeWith(path, func(f *os.File, c *Config) error {
			return toml.NewDecoder(f).Decode(c)
		})
	case ".ini":
		c, err = loadINI(path)
	default:
		return nil, fmt.Errorf("config: unknown format for %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	c.fill()
	if err := c.Check(); err != nil {
		return nil, fmt.Errorf("config: %s: Check: %w", path, err)
	}
	log.WithFields(log.Fields{"file": path, "interactions": len(c.Fit.Interactions)}).Debug("config: loaded")
	return c, nil
}

func decodeWith(path string, decode func(*os.File, *Config) error) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c := new(Config)
	if err := decode(f, c); err != nil {
		return nil, err
	}
	return c, nil
}

// interactionPrefix starts the names of the INI sections that describe interactions,
// as in [interaction.B-B].
const interactionPrefix = "interaction."

func loadINI(path string) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, path)
	if err != nil {
		return nil, err
	}
	st := file.Section("strain")
	fit := file.Section("fit")
	c := &Config{
		LogLevel: file.Section("").Key("loglevel").String(),
		Strain: Strain{
			Blocks:        st.Key("blocks").MustInt(0),
			MaxBlocks:     st.Key("maxblocks").MustInt(0),
			Equilibration: st.Key("equilibration").MustInt(0),
			Component:     st.Key("component").String(),
			TargetSamples: st.Key("targetsamples").MustInt(0),
		},
		Fit: Fit{
			Campaign:    fit.Key("campaign").String(),
			Temperature: fit.Key("temperature").MustFloat64(0),
			Relaxation:  fit.Key("relaxation").MustFloat64(0),
			Cutoff:      fit.Key("cutoff").MustFloat64(0),
			Rounds:      fit.Key("rounds").MustInt(0),
		},
	}
	for _, s := range file.Sections() {
		if !strings.HasPrefix(s.Name(), interactionPrefix) {
			continue
		}
		c.Fit.Interactions = append(c.Fit.Interactions, Interaction{
			Name:          strings.TrimPrefix(s.Name(), interactionPrefix),
			Kind:          s.Key("kind").String(),
			BinWidth:      s.Key("binwidth").MustFloat64(0),
			Start:         s.Key("start").MustFloat64(0),
			End:           s.Key("end").MustFloat64(0),
			Gap:           s.Key("gap").String(),
			TruncateAfter: s.Key("truncateafter").MustInt(0),
		})
	}
	return c, nil
}

// Check returns an error if a field doesn't meet the requirements.
func (c *Config) Check() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Strain.Blocks < 0 || c.Strain.MaxBlocks < 1 {
		return fmt.Errorf("the number of blocks must be positive")
	}
	if c.Strain.Equilibration < 0 {
		return fmt.Errorf("the equilibration can't be negative")
	}
	if _, err := strain.ParseComponent(c.Strain.Component); err != nil {
		return err
	}
	if c.Strain.TargetSamples < 1 {
		return fmt.Errorf("the target number of samples must be positive")
	}
	if c.Fit.Rounds < 1 {
		return fmt.Errorf("the number of rounds must be positive")
	}
	if err := c.Settings().Check(); err != nil {
		return err
	}
	_, err := c.Interactions()
	return err
}

// KT returns the thermal energy, in kcal/mol, at the temperature of the fit.
func (c *Config) KT() float64 {
	return simfit.KT(c.Fit.Temperature)
}

// Settings returns the parameters of the fit shared by all interactions.
func (c *Config) Settings() ibi.Settings {
	return ibi.Settings{KT: c.KT(), Relaxation: c.Fit.Relaxation, Cutoff: c.Fit.Cutoff}
}

// Interactions returns the interactions of the fit, checked.
func (c *Config) Interactions() ([]ibi.Interaction, error) {
	ret := make([]ibi.Interaction, 0, len(c.Fit.Interactions))
	for _, v := range c.Fit.Interactions {
		k, err := ibi.ParseKind(v.Kind)
		if err != nil {
			return nil, fmt.Errorf("interaction %s: %w", v.Name, err)
		}
		I := ibi.Interaction{
			Name:          v.Name,
			Kind:          k,
			BinWidth:      v.BinWidth,
			Start:         v.Start,
			End:           v.End,
			Gap:           v.Gap,
			TruncateAfter: v.TruncateAfter,
		}
		if err := I.Check(); err != nil {
			return nil, err
		}
		ret = append(ret, I)
	}
	return ret, nil
}

// Component returns the strain component of the analysis.
func (c *Config) Component() strain.Component {
	comp, _ := strain.ParseComponent(c.Strain.Component)
	return comp
}

// BlockOptions returns the block averaging options for n blocks.
func (c *Config) BlockOptions(n int) strain.BlockOptions {
	return strain.BlockOptions{Blocks: n, Equilibration: c.Strain.Equilibration}
}
