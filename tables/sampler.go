/*
 * sampler.go, part of simfit.
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

package tables

import (
	"context"
	"os"
	"path/filepath"
)

// DirSampler reads the samples of each interaction from Dir/NAME.dat, or from
// Dir/NAME.dat.gz or Dir/NAME.dat.zst if the plain file is not there.
// It implements ibi.Sampler.
type DirSampler struct {
	Dir string
}

// Samples returns the samples for the interaction name.
func (D DirSampler) Samples(ctx context.Context, name string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := filepath.Join(D.Dir, name+".dat")
	for _, fname := range []string{base, base + ".gz", base + ".zst"} {
		if _, err := os.Stat(fname); err == nil {
			return ReadSamples(fname)
		}
	}
	return nil, newError("no samples found", base, "tables.DirSampler.Samples")
}
