// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/redact"
)

// RecordID identifies the resource (usually a file) a module record
// describes. See MakeRecordID.
type RecordID uint64

// MakeRecordID returns the identifier of the named resource.
func MakeRecordID(name string) RecordID {
	return RecordID(xxhash.Sum64String(name))
}

// String implements fmt.Stringer.
func (id RecordID) String() string {
	return redact.StringWithoutMarkers(id)
}

// SafeFormat implements redact.SafeFormatter. Identifiers are hashes and
// never leak the name they were derived from.
func (id RecordID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%016x", redact.SafeUint(id))
}

// AggregateRank is the rank of a record that aggregates the records of
// several processes.
const AggregateRank = -1

// ModuleID identifies an instrumentation module.
type ModuleID uint8

// MaxModules bounds the module identifier space.
const MaxModules = 64

// String implements fmt.Stringer.
func (m ModuleID) String() string {
	return strconv.Itoa(int(m))
}

// SafeFormat implements redact.SafeFormatter.
func (m ModuleID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeUint(m))
}
