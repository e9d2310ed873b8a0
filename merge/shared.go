// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package merge

import (
	"cmp"
	"slices"

	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/modules"
	"github.com/cockroachdb/swiss"
)

// sharedRecord is the running aggregate of every record seen for one
// identifier.
type sharedRecord struct {
	refs int64
	agg  modules.Buffer
}

// sharedTable collects the aggregates of a single module. Every identifier
// seen becomes a candidate; once all inputs have been folded in, prune drops
// the candidates that not every process contributed to.
type sharedTable struct {
	mod modules.Module
	m   swiss.Map[base.RecordID, *sharedRecord]
}

func (t *sharedTable) init(mod modules.Module) {
	t.mod = mod
	t.m.Init(16)
}

func (t *sharedTable) add(rec *modules.Buffer) {
	id := rec.ID()
	if r, ok := t.m.Get(id); ok {
		t.mod.AggRecords(rec, &r.agg, false)
		r.refs++
		return
	}
	r := &sharedRecord{refs: 1}
	t.mod.AggRecords(rec, &r.agg, true)
	t.m.Put(id, r)
}

// prune removes the candidates whose reference count differs from nprocs.
func (t *sharedTable) prune(nprocs int64) {
	var drop []base.RecordID
	t.m.All(func(id base.RecordID, r *sharedRecord) bool {
		if r.refs != nprocs {
			drop = append(drop, id)
		}
		return true
	})
	for _, id := range drop {
		t.m.Delete(id)
	}
}

func (t *sharedTable) contains(id base.RecordID) bool {
	_, ok := t.m.Get(id)
	return ok
}

// sorted returns the aggregates in increasing identifier order.
func (t *sharedTable) sorted() []*sharedRecord {
	recs := make([]*sharedRecord, 0, t.m.Len())
	t.m.All(func(_ base.RecordID, r *sharedRecord) bool {
		recs = append(recs, r)
		return true
	})
	slices.SortFunc(recs, func(a, b *sharedRecord) int {
		return cmp.Compare(a.agg.ID(), b.agg.ID())
	})
	return recs
}

func (t *sharedTable) close() {
	t.m.Close()
}
