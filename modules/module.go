// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package modules implements the record formats of the instrumentation
// modules that contribute segments to a log file.
//
// Every module record starts with a base record: the 64-bit identifier of the
// resource the record describes and the rank of the process that produced
// it. A rank of base.AggregateRank marks a record that aggregates the records
// of several processes. The remainder of the record is module defined and may
// change between module format versions; a Module knows how to translate
// older versions of its records into newer ones.
package modules // import "github.com/cockroachdb/iolog/modules"

import (
	"encoding/binary"

	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/logfile"
)

// MaxRecordSize is the capacity of a Buffer. No version of any module may
// define records larger than this.
const MaxRecordSize = 1 << 10

// baseRecordLen is the size of the identifier and rank every record starts
// with.
const baseRecordLen = 16

// A Module reads, writes and aggregates the records of one instrumentation
// module.
type Module interface {
	// ID returns the module's identifier.
	ID() base.ModuleID

	// Name returns the module's name, e.g. "POSIX".
	Name() string

	// CurrentVersion returns the newest record format version the module
	// supports.
	CurrentVersion() uint32

	// RecordSize returns the size of a record of the given format version.
	RecordSize(version uint32) (int, error)

	// GetRecord reads the next record of the segment into buf. It returns
	// io.EOF when the segment is exhausted.
	GetRecord(seg *logfile.SegmentReader, buf *Buffer) error

	// PutRecord appends the record in buf to seg, translating it from its own
	// format version to target. The target must be the version seg is
	// written with. Translating a record to an older version is not
	// supported. Failures are marked with base.ErrModuleWrite.
	PutRecord(seg *logfile.SegmentWriter, buf *Buffer, target uint32) error

	// AggRecords folds rec into agg. If first is true, agg is initialized
	// from rec: the base record is copied, the rank is set to
	// base.AggregateRank and any running statistics are seeded. Records of
	// differing versions are folded after upgrading the older one.
	AggRecords(rec, agg *Buffer, first bool)
}

// Buffer holds a single module record along with the format version it is
// encoded in. A Buffer used as an aggregate also carries running statistics
// that are not part of the record.
type Buffer struct {
	// Version is the format version of the record in the buffer.
	Version uint32

	n     int
	data  [MaxRecordSize]byte
	stats rankStats
}

// Bytes returns the encoded record.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.n]
}

// Len returns the size of the encoded record.
func (b *Buffer) Len() int {
	return b.n
}

// ID returns the identifier of the resource the record describes.
func (b *Buffer) ID() base.RecordID {
	return base.RecordID(binary.LittleEndian.Uint64(b.data[0:8]))
}

// Rank returns the rank of the process that produced the record.
func (b *Buffer) Rank() int64 {
	return int64(binary.LittleEndian.Uint64(b.data[8:16]))
}

// SetRank sets the rank of the record.
func (b *Buffer) SetRank(rank int64) {
	binary.LittleEndian.PutUint64(b.data[8:16], uint64(rank))
}

// reset zeroes a record of the given size and version.
func (b *Buffer) reset(version uint32, size int) {
	b.Version = version
	b.n = size
	clear(b.data[:size])
	b.stats = rankStats{}
}

func (b *Buffer) setID(id base.RecordID) {
	binary.LittleEndian.PutUint64(b.data[0:8], uint64(id))
}

// rankStats are the running statistics of an aggregate record.
type rankStats struct {
	n         float64
	timeMean  float64
	timeM2    float64
	bytesMean float64
	bytesM2   float64
}

// add folds one observation into the statistics using Welford's algorithm.
func (s *rankStats) add(time, bytes float64) {
	s.n++
	d := time - s.timeMean
	s.timeMean += d / s.n
	s.timeM2 += d * (time - s.timeMean)
	d = bytes - s.bytesMean
	s.bytesMean += d / s.n
	s.bytesM2 += d * (bytes - s.bytesMean)
}

// variance returns the population variance of the rank times and rank
// bytes.
func (s *rankStats) variance() (time, bytes float64) {
	if s.n == 0 {
		return 0, 0
	}
	return s.timeM2 / s.n, s.bytesM2 / s.n
}
