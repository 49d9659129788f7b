/*
 * potplot.go, part of simfit.
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

// Package potplot draws tabulated potentials and the progress of a fit with gonum/plot.
// The format of the output file is given by its extension (png, svg, pdf...).
package potplot

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/rmera/simfit/potfit"
)

// Size is the side, in inches, of the saved plots.
const Size = 5 * vg.Inch

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

// segments splits the defined points of T into runs of consecutive defined bins.
func segments(T *potfit.Table) []plotter.XYs {
	var ret []plotter.XYs
	var cur plotter.XYs
	for i, x := range T.X {
		if !T.Defined(i) || math.IsInf(T.E[i], 0) {
			if len(cur) > 0 {
				ret = append(ret, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: x, Y: T.E[i]})
	}
	if len(cur) > 0 {
		ret = append(ret, cur)
	}
	return ret
}

// addTable adds T to p as one line per run of defined bins, all with color c.
// A lone defined bin is drawn as a point.
func addTable(p *plot.Plot, T *potfit.Table, c color.Color, legend string) error {
	first := true
	for _, seg := range segments(T) {
		var thumb plot.Thumbnailer
		if len(seg) == 1 {
			s, err := plotter.NewScatter(seg)
			if err != nil {
				return err
			}
			s.GlyphStyle.Color = c
			s.GlyphStyle.Shape = draw.CircleGlyph{}
			p.Add(s)
			thumb = s
		} else {
			l, err := plotter.NewLine(seg)
			if err != nil {
				return err
			}
			l.Color = c
			l.Width = vg.Points(1.5)
			p.Add(l)
			thumb = l
		}
		if first && legend != "" {
			p.Legend.Add(legend, thumb)
			first = false
		}
	}
	return nil
}

// Tables plots the given tables together, each with its ID as legend. Undefined bins
// break the lines.
func Tables(title, xlabel string, tables ...*potfit.Table) (*plot.Plot, error) {
	p := basicPlot(title, xlabel, "E")
	for i, T := range tables {
		if err := addTable(p, T, palette(i, len(tables)), T.ID); err != nil {
			return nil, fmt.Errorf("potplot.Tables: %s: %w", T.ID, err)
		}
	}
	return p, nil
}

// Rounds plots the potential of one interaction across the rounds of a fit, from red
// (first round) to violet (last round).
func Rounds(name, xlabel string, byRound map[int]*potfit.Table) (*plot.Plot, error) {
	rounds := make([]int, 0, len(byRound))
	for r := range byRound {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)
	p := basicPlot(name, xlabel, "E")
	for i, r := range rounds {
		if err := addTable(p, byRound[r], palette(i, len(rounds)), fmt.Sprintf("round %d", r)); err != nil {
			return nil, fmt.Errorf("potplot.Rounds: %s round %d: %w", name, r, err)
		}
	}
	return p, nil
}

// Merits plots the merit of each interaction against the round.
func Merits(title string, merits map[string][]float64) (*plot.Plot, error) {
	names := make([]string, 0, len(merits))
	for n := range merits {
		names = append(names, n)
	}
	sort.Strings(names)
	p := basicPlot(title, "round", "merit")
	for i, n := range names {
		pts := make(plotter.XYs, len(merits[n]))
		for r, m := range merits[n] {
			pts[r].X = float64(r)
			pts[r].Y = m
		}
		l, s, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("potplot.Merits: %s: %w", n, err)
		}
		c := palette(i, len(names))
		l.Color = c
		s.GlyphStyle.Color = c
		p.Add(l, s)
		p.Legend.Add(n, l, s)
	}
	return p, nil
}

// Save writes p to filename, whose extension sets the format.
func Save(p *plot.Plot, filename string) error {
	return p.Save(Size, Size, filename)
}

// hsv2rgb takes hue (0-360), saturation and value (0-1).
func hsv2rgb(h, s, v float64) color.RGBA {
	if s == 0 {
		g := uint8(255 * v)
		return color.RGBA{R: g, G: g, B: g, A: 255}
	}
	h = h / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{R: uint8(255 * r), G: uint8(255 * g), B: uint8(255 * b), A: 255}
}

// palette returns the color for item key out of steps, going along the hue circle
// from red to violet, skipping the hardly visible yellows.
func palette(key, steps int) color.RGBA {
	if steps < 1 {
		steps = 1
	}
	h := float64(key)*260/float64(steps) + 20
	if h < 55 {
		h -= 20
	} else {
		h += 20
	}
	return hsv2rgb(h, 1, 0.9)
}
