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

package tables

import (
	"fmt"
	"strings"
)

// Error is the error type for all the file operations in this package. It fulfills simfit.Error.
type Error struct {
	message  string
	filename string
	line     int //0 if the error is not tied to a line
	deco     []string
}

func newError(message, filename string, deco ...string) *Error {
	return &Error{message: message, filename: filename, deco: deco}
}

func lineError(message, filename string, line int, caller string) *Error {
	return &Error{message: message, filename: filename, line: line, deco: []string{caller}}
}

func (err *Error) Error() string {
	where := err.filename
	if err.line > 0 {
		where = fmt.Sprintf("%s:%d", err.filename, err.line)
	}
	return fmt.Sprintf("tables: file %s: %s (%s)", where, err.message, strings.Join(err.deco, " <- "))
}

// Decorate adds new information to the error.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// FileName returns the file that caused the error.
func (err *Error) FileName() string { return err.filename }

// Line returns the line of the file where the error was found, or 0.
func (err *Error) Line() int { return err.line }

// Critical returns true: a file that can't be read aborts the current step.
func (err *Error) Critical() bool { return true }
