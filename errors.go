/*
 * errors.go, part of simfit.
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

package simfit

import (
	"fmt"
	"strings"
)

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing its type or wrapping it around something else.
type Error interface {
	Error() string
	//Decorate adds the given string (usually the name of the calling function, optionally followed by ": extra info")
	//to the decoration slice and returns the slice. An empty string just returns the current slice.
	Decorate(string) []string
	//Critical errors must abort the current analysis step.
	Critical() bool
}

// ErrDecorate asserts that err implements Error and, if so, decorates it with
// the caller's name before returning it. Other errors are returned unchanged.
func ErrDecorate(err error, caller string) error {
	if err2, ok := err.(Error); ok {
		err2.Decorate(caller)
		return err2
	}
	return err
}

// decoration keeps the call-stack information shared by all the error types.
type decoration struct {
	deco []string
}

func (d *decoration) Decorate(deco string) []string {
	if deco != "" {
		d.deco = append(d.deco, deco)
	}
	return d.deco
}

func (d *decoration) trace() string {
	if len(d.deco) == 0 {
		return ""
	}
	return " (" + strings.Join(d.deco, " <- ") + ")"
}

// InsufficientDataError is returned when fewer than one usable frame
// remains after the equilibration prefix is discarded.
type InsufficientDataError struct {
	decoration
	Frames        int //total frames given
	Equilibration int //frames discarded
}

func NewInsufficientDataError(frames, equil int, caller string) *InsufficientDataError {
	e := &InsufficientDataError{Frames: frames, Equilibration: equil}
	e.Decorate(caller)
	return e
}

func (err *InsufficientDataError) Error() string {
	return fmt.Sprintf("simfit: insufficient data: %d frames, %d discarded for equilibration%s", err.Frames, err.Equilibration, err.trace())
}

func (err *InsufficientDataError) Critical() bool { return true }

// SingularMatrixError is returned when a reference cell matrix can't be inverted.
type SingularMatrixError struct {
	decoration
	Det float64
}

func NewSingularMatrixError(det float64, caller string) *SingularMatrixError {
	e := &SingularMatrixError{Det: det}
	e.Decorate(caller)
	return e
}

func (err *SingularMatrixError) Error() string {
	return fmt.Sprintf("simfit: singular reference matrix (det=%g)%s", err.Det, err.trace())
}

func (err *SingularMatrixError) Critical() bool { return true }

// EmptyDistributionError signals a distribution whose total probability is zero,
// i.e. degenerate sampling.
type EmptyDistributionError struct {
	decoration
}

func NewEmptyDistributionError(caller string) *EmptyDistributionError {
	e := new(EmptyDistributionError)
	e.Decorate(caller)
	return e
}

func (err *EmptyDistributionError) Error() string {
	return "simfit: distribution has zero total probability" + err.trace()
}

func (err *EmptyDistributionError) Critical() bool { return true }

// UndefinedBinError marks a bin whose energy can't be estimated in the current round.
// It is not critical: the bin is left undefined and filled later.
type UndefinedBinError struct {
	decoration
	Index int
	X     float64
}

func NewUndefinedBinError(index int, x float64, caller string) *UndefinedBinError {
	e := &UndefinedBinError{Index: index, X: x}
	e.Decorate(caller)
	return e
}

func (err *UndefinedBinError) Error() string {
	return fmt.Sprintf("simfit: bin %d (x=%g) undefined%s", err.Index, err.X, err.trace())
}

func (err *UndefinedBinError) Critical() bool { return false }
