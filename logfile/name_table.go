// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package logfile

import (
	"encoding/binary"
	"maps"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
)

// NameTable maps record identifiers to the names of the resources they
// describe.
type NameTable map[base.RecordID]string

// Add records that id names name. Adding a different name for an identifier
// that is already present returns an error marked with base.ErrNameConflict.
func (t NameTable) Add(id base.RecordID, name string) error {
	if existing, ok := t[id]; ok {
		if existing != name {
			return errors.Mark(
				errors.Newf("iolog: record %s maps to both %q and %q", id, existing, name),
				base.ErrNameConflict)
		}
		return nil
	}
	t[id] = name
	return nil
}

// Merge adds every entry of local to t. Entries already present with the
// same name are ignored. The first identifier found with a differing name
// aborts the merge with an error marked with base.ErrNameConflict; entries
// merged before the conflict remain in t.
func (t NameTable) Merge(local NameTable) error {
	for _, id := range local.IDs() {
		if err := t.Add(id, local[id]); err != nil {
			return err
		}
	}
	return nil
}

// IDs returns the identifiers in the table in increasing order.
func (t NameTable) IDs() []base.RecordID {
	return slices.Sorted(maps.Keys(t))
}

func (t NameTable) encode(buf []byte) ([]byte, error) {
	buf = binary.AppendUvarint(buf[:0], uint64(len(t)))
	for _, id := range t.IDs() {
		name := t[id]
		if len(name) > MaxNameLen {
			return nil, errors.Newf("iolog: name of record %s is %d bytes, exceeding limit %d",
				id, errors.Safe(len(name)), errors.Safe(MaxNameLen))
		}
		buf = binary.LittleEndian.AppendUint64(buf, uint64(id))
		buf = appendString(buf, name)
	}
	return buf, nil
}

func decodeNameTable(buf []byte) (NameTable, error) {
	d := decoder{buf: buf}
	n := d.uvarint()
	if d.err != nil {
		return nil, d.err
	}
	// Every entry occupies at least nine bytes.
	if n > uint64(len(d.buf))/9 {
		return nil, base.CorruptionErrorf("iolog: name table claims %d entries", errors.Safe(n))
	}
	t := make(NameTable, n)
	for i := uint64(0); i < n; i++ {
		id := base.RecordID(d.u64())
		name := d.bytes(MaxNameLen)
		if d.err != nil {
			return nil, d.err
		}
		if _, ok := t[id]; ok {
			return nil, base.CorruptionErrorf("iolog: record %s appears twice in name table", id)
		}
		t[id] = string(name)
	}
	if len(d.buf) != 0 {
		return nil, base.CorruptionErrorf("iolog: %d trailing bytes after name table", errors.Safe(len(d.buf)))
	}
	return t, nil
}
