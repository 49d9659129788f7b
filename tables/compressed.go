/*
 * compressed.go, part of simfit.
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
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// compression returns the compression format implied by the extension of name:
// "gz", "zst" or "" for plain text.
func compression(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return "gz"
	case ".zst", ".zstd":
		return "zst"
	}
	return ""
}

// zstdReadCloser gives *zstd.Decoder the io.ReadCloser Close signature.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// source closes the decompressor and then the file.
type source struct {
	io.Reader
	closers []io.Closer
}

func (s *source) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openSource opens name for reading, decompressing it if its extension says so.
func openSource(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, newError(err.Error(), name, "os.Open", "openSource")
	}
	buf := bufio.NewReader(f)
	var dec io.ReadCloser
	switch compression(name) {
	case "gz":
		dec, err = gzip.NewReader(buf)
	case "zst":
		var z *zstd.Decoder
		z, err = zstd.NewReader(buf)
		if err == nil {
			dec = zstdReadCloser{z}
		}
	default:
		return &source{Reader: buf, closers: []io.Closer{f}}, nil
	}
	if err != nil {
		f.Close()
		return nil, newError("can't read compressed data: "+err.Error(), name, "openSource")
	}
	return &source{Reader: dec, closers: []io.Closer{dec, f}}, nil
}

// target flushes the buffer and closes the compressor and the file, in that order.
type target struct {
	*bufio.Writer
	closers []io.Closer
}

func (t *target) Close() error {
	first := t.Writer.Flush()
	for _, c := range t.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// createTarget creates name and returns a writer that compresses the data if the extension
// of name says so.
func createTarget(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, newError(err.Error(), name, "os.Create", "createTarget")
	}
	var enc io.WriteCloser
	switch compression(name) {
	case "gz":
		enc = gzip.NewWriter(f)
	case "zst":
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	default:
		return &target{Writer: bufio.NewWriter(f), closers: []io.Closer{f}}, nil
	}
	if err != nil {
		f.Close()
		return nil, newError("can't compress: "+err.Error(), name, "createTarget")
	}
	return &target{Writer: bufio.NewWriter(enc), closers: []io.Closer{enc, f}}, nil
}
