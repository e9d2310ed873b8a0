// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package compression implements the block compression algorithms a log file
// may use. Each algorithm is exposed through a Compressor and a Decompressor;
// callers never deal with the libraries directly.
package compression

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/redact"
	"github.com/minio/minlz"
)

// Algorithm identifies a compression algorithm. The values other than
// Default are part of the on-disk format and must not be changed.
type Algorithm uint8

const (
	// Default selects DefaultAlgorithm. It is never written to a file.
	Default Algorithm = iota
	NoCompression
	Snappy
	Zstd
	MinLZ

	NumAlgorithms
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = Zstd

// Resolve returns DefaultAlgorithm if a is Default, and a otherwise.
func (a Algorithm) Resolve() Algorithm {
	if a == Default {
		return DefaultAlgorithm
	}
	return a
}

// zstdLevel is the compression level used with Zstd.
const zstdLevel = 3

var algorithmNames = [NumAlgorithms]string{
	Default:       "default",
	NoCompression: "none",
	Snappy:        "snappy",
	Zstd:          "zstd",
	MinLZ:         "minlz",
}

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	if a < NumAlgorithms {
		return algorithmNames[a]
	}
	return "unknown"
}

// SafeFormat implements redact.SafeFormatter.
func (a Algorithm) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(a.String()))
}

// Valid returns true if a is a known algorithm that may be written to a
// file.
func (a Algorithm) Valid() bool {
	return a > Default && a < NumAlgorithms
}

// ParseAlgorithm parses the name of an algorithm, as returned by String.
func ParseAlgorithm(s string) (Algorithm, error) {
	for a, name := range algorithmNames {
		if strings.EqualFold(s, name) {
			return Algorithm(a), nil
		}
	}
	return 0, errors.Newf("unknown compression algorithm %q", s)
}

// Compressor compresses blocks.
type Compressor interface {
	Algorithm() Algorithm

	// Compress appends the compressed form of src to dst[:0] and returns the
	// result.
	Compress(dst, src []byte) []byte

	// Close releases the Compressor. It must not be used afterwards.
	Close()
}

// GetCompressor returns a Compressor for the given algorithm.
func GetCompressor(a Algorithm) Compressor {
	switch a.Resolve() {
	case NoCompression:
		return noopCompressor{}
	case Snappy:
		return snappyCompressor{}
	case Zstd:
		return getZstdCompressor(zstdLevel)
	case MinLZ:
		return minlzCompressor{level: minlz.LevelBalanced}
	default:
		panic(errors.AssertionFailedf("invalid compression algorithm %d", errors.Safe(a)))
	}
}

// Decompressor decompresses blocks.
type Decompressor interface {
	// Decompress appends the decompressed form of src to dst[:0] and returns
	// the result. A block that is malformed, or that would decompress to more
	// than limit bytes, returns an error marked with base.ErrCorruption.
	Decompress(dst, src []byte, limit int) ([]byte, error)

	// Close releases the Decompressor. It must not be used afterwards.
	Close()
}

// GetDecompressor returns a Decompressor for the given algorithm.
func GetDecompressor(a Algorithm) Decompressor {
	switch a {
	case NoCompression:
		return noopDecompressor{}
	case Snappy:
		return snappyDecompressor{}
	case Zstd:
		return getZstdDecompressor()
	case MinLZ:
		return minlzDecompressor{}
	default:
		panic(errors.AssertionFailedf("invalid compression algorithm %d", errors.Safe(a)))
	}
}

// sizeBuffer returns dst resized to n bytes, reallocating if its capacity is
// insufficient. It fails if n is negative or exceeds limit.
func sizeBuffer(a Algorithm, dst []byte, n, limit int) ([]byte, error) {
	if n < 0 || n > limit {
		return nil, base.CorruptionErrorf("iolog: %s block decompresses to %d bytes, exceeding limit %d",
			a, errors.Safe(n), errors.Safe(limit))
	}
	if cap(dst) < n {
		return make([]byte, n), nil
	}
	return dst[:n], nil
}

// sameBuffer fails if a library decoded into a buffer other than the one it
// was given, which happens when the block lied about its decoded length.
func sameBuffer(a Algorithm, got, want []byte) error {
	if len(got) != len(want) || (len(got) > 0 && &got[0] != &want[0]) {
		return base.CorruptionErrorf("iolog: %s block decoded to %d bytes, expected %d",
			a, errors.Safe(len(got)), errors.Safe(len(want)))
	}
	return nil
}
