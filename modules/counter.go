// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package modules

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/logfile"
)

// AggKind describes how a field of a record is reduced when records are
// aggregated.
type AggKind uint8

const (
	// Sum adds the values.
	Sum AggKind = iota
	// Max keeps the largest value.
	Max
	// MinNonZero keeps the smallest non-zero value. It is used for start
	// timestamps, where zero means the operation never happened.
	MinNonZero
	// FirstNonZero keeps the first non-zero value seen.
	FirstNonZero
	// FastestRank, FastestRankBytes and FastestRankTime describe the rank
	// with the smallest rank time.
	FastestRank
	FastestRankBytes
	FastestRankTime
	// SlowestRank, SlowestRankBytes and SlowestRankTime describe the rank
	// with the largest rank time.
	SlowestRank
	SlowestRankBytes
	SlowestRankTime
	// VarianceRankTime and VarianceRankBytes hold the population variance
	// of the rank times and rank bytes of the aggregated records.
	VarianceRankTime
	VarianceRankBytes

	numAggKinds
)

func (k AggKind) derived() bool {
	return k >= FastestRank
}

// Field names a counter of a record and how it is aggregated.
type Field struct {
	Name string
	Agg  AggKind
}

// Layout describes one format version of a counter module's records: the
// base record followed by the integer counters and then the floating point
// counters, all 8 bytes wide.
type Layout struct {
	Version   uint32
	Counters  []Field
	FCounters []Field

	counterIdx  map[string]int
	fcounterIdx map[string]int
	// derived holds the counter or fcounter index of every derived field,
	// or -1 if the layout lacks it.
	derived [numAggKinds]int
	// rankTime and rankBytes are the fcounters and counters that sum to a
	// record's rank time and rank bytes.
	rankTime  []int
	rankBytes []int
}

// RecordSize returns the size of a record with this layout.
func (l *Layout) RecordSize() int {
	return baseRecordLen + 8*(len(l.Counters)+len(l.FCounters))
}

func (l *Layout) counterOff(i int) int {
	return baseRecordLen + 8*i
}

func (l *Layout) fcounterOff(i int) int {
	return baseRecordLen + 8*(len(l.Counters)+i)
}

func (l *Layout) counter(b *Buffer, i int) int64 {
	off := l.counterOff(i)
	return int64(binary.LittleEndian.Uint64(b.data[off : off+8]))
}

func (l *Layout) setCounter(b *Buffer, i int, v int64) {
	off := l.counterOff(i)
	binary.LittleEndian.PutUint64(b.data[off:off+8], uint64(v))
}

func (l *Layout) fcounter(b *Buffer, i int) float64 {
	off := l.fcounterOff(i)
	return math.Float64frombits(binary.LittleEndian.Uint64(b.data[off : off+8]))
}

func (l *Layout) setFCounter(b *Buffer, i int, v float64) {
	off := l.fcounterOff(i)
	binary.LittleEndian.PutUint64(b.data[off:off+8], math.Float64bits(v))
}

func (l *Layout) rankTimeAndBytes(b *Buffer) (time, bytes float64) {
	for _, i := range l.rankTime {
		time += l.fcounter(b, i)
	}
	for _, i := range l.rankBytes {
		bytes += float64(l.counter(b, i))
	}
	return time, bytes
}

// fieldMap translates records of one layout into another. For each counter
// and fcounter of the destination layout it holds the index of the field
// with the same name in the source layout, or -1.
type fieldMap struct {
	from, to  *Layout
	counters  []int
	fcounters []int
}

func makeFieldMap(from, to *Layout) *fieldMap {
	m := &fieldMap{
		from:      from,
		to:        to,
		counters:  make([]int, len(to.Counters)),
		fcounters: make([]int, len(to.FCounters)),
	}
	for i, f := range to.Counters {
		if j, ok := from.counterIdx[f.Name]; ok {
			m.counters[i] = j
		} else {
			m.counters[i] = -1
		}
	}
	for i, f := range to.FCounters {
		if j, ok := from.fcounterIdx[f.Name]; ok {
			m.fcounters[i] = j
		} else {
			m.fcounters[i] = -1
		}
	}
	return m
}

// apply writes the translation of src into dst. The two may not alias.
func (m *fieldMap) apply(src, dst *Buffer) {
	stats := src.stats
	dst.reset(m.to.Version, m.to.RecordSize())
	dst.stats = stats
	copy(dst.data[:baseRecordLen], src.data[:baseRecordLen])
	for i, j := range m.counters {
		if j >= 0 {
			m.to.setCounter(dst, i, m.from.counter(src, j))
		}
	}
	for i, j := range m.fcounters {
		if j >= 0 {
			m.to.setFCounter(dst, i, m.from.fcounter(src, j))
		}
	}
}

// CounterModule is a Module whose records consist of named integer and
// floating point counters. Records of older versions are upgraded by copying
// the counters by name; counters the older version lacks are zero.
type CounterModule struct {
	id        base.ModuleID
	name      string
	layouts   []*Layout
	rankTime  []string
	rankBytes []string
	// maps[from-1][to-1] translates between versions, for from < to.
	maps [][]*fieldMap
}

var _ Module = (*CounterModule)(nil)

// NewCounterModule constructs a CounterModule. The layouts must have
// consecutive versions starting at 1. The rank time of a record is the sum of
// the rankTime fcounters and the rank bytes the sum of the rankBytes
// counters; both feed the derived rank statistics of aggregates.
func NewCounterModule(
	id base.ModuleID, name string, rankTime, rankBytes []string, layouts ...*Layout,
) *CounterModule {
	m := &CounterModule{
		id:        id,
		name:      name,
		layouts:   layouts,
		rankTime:  rankTime,
		rankBytes: rankBytes,
	}
	for i, l := range layouts {
		if l.Version != uint32(i+1) {
			panic(errors.AssertionFailedf("module %s: layout %d has version %d", name, errors.Safe(i), errors.Safe(l.Version)))
		}
		m.initLayout(l)
		if l.RecordSize() > MaxRecordSize {
			panic(errors.AssertionFailedf("module %s: version %d records exceed %d bytes",
				name, errors.Safe(l.Version), errors.Safe(MaxRecordSize)))
		}
	}
	m.maps = make([][]*fieldMap, len(layouts))
	for i := range layouts {
		m.maps[i] = make([]*fieldMap, len(layouts))
		for j := i + 1; j < len(layouts); j++ {
			m.maps[i][j] = makeFieldMap(layouts[i], layouts[j])
		}
	}
	return m
}

func (m *CounterModule) initLayout(l *Layout) {
	l.counterIdx = make(map[string]int, len(l.Counters))
	l.fcounterIdx = make(map[string]int, len(l.FCounters))
	for i := range l.derived {
		l.derived[i] = -1
	}
	for i, f := range l.Counters {
		l.counterIdx[f.Name] = i
		if f.Agg.derived() {
			l.derived[f.Agg] = i
		}
	}
	for i, f := range l.FCounters {
		l.fcounterIdx[f.Name] = i
		if f.Agg.derived() {
			l.derived[f.Agg] = i
		}
	}
	l.rankTime = l.rankTime[:0]
	for _, name := range m.rankTime {
		if i, ok := l.fcounterIdx[name]; ok {
			l.rankTime = append(l.rankTime, i)
		}
	}
	l.rankBytes = l.rankBytes[:0]
	for _, name := range m.rankBytes {
		if i, ok := l.counterIdx[name]; ok {
			l.rankBytes = append(l.rankBytes, i)
		}
	}
}

// ID implements Module.
func (m *CounterModule) ID() base.ModuleID { return m.id }

// Name implements Module.
func (m *CounterModule) Name() string { return m.name }

// CurrentVersion implements Module.
func (m *CounterModule) CurrentVersion() uint32 { return uint32(len(m.layouts)) }

// Layout returns the layout of the given version.
func (m *CounterModule) Layout(version uint32) (*Layout, error) {
	if version == 0 || version > uint32(len(m.layouts)) {
		return nil, errors.Newf("module %s: unsupported record version %d", m.name, errors.Safe(version))
	}
	return m.layouts[version-1], nil
}

func (m *CounterModule) layout(version uint32) *Layout {
	l, err := m.Layout(version)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "module %s", m.name))
	}
	return l
}

// RecordSize implements Module.
func (m *CounterModule) RecordSize(version uint32) (int, error) {
	l, err := m.Layout(version)
	if err != nil {
		return 0, err
	}
	return l.RecordSize(), nil
}

// GetRecord implements Module.
func (m *CounterModule) GetRecord(seg *logfile.SegmentReader, buf *Buffer) error {
	if seg.Module() != m.id {
		return errors.AssertionFailedf("module %s: reading segment of module %s", m.name, seg.Module())
	}
	size, err := m.RecordSize(seg.Version())
	if err != nil {
		return err
	}
	buf.reset(seg.Version(), size)
	if err := seg.ReadRecord(buf.data[:size]); err != nil {
		buf.n = 0
		return err
	}
	return nil
}

// PutRecord implements Module.
func (m *CounterModule) PutRecord(seg *logfile.SegmentWriter, buf *Buffer, target uint32) error {
	if seg.Module() != m.id {
		return base.ModuleWriteErrorf("module %s: writing segment of module %s", m.name, seg.Module())
	}
	if target != seg.Version() {
		return base.ModuleWriteErrorf("module %s: target version %d differs from segment version %d",
			m.name, errors.Safe(target), errors.Safe(seg.Version()))
	}
	if target == 0 || target > m.CurrentVersion() {
		return base.ModuleWriteErrorf("module %s: unsupported target version %d", m.name, errors.Safe(target))
	}
	if buf.Version > target {
		return base.ModuleWriteErrorf("module %s: cannot downgrade record from version %d to %d",
			m.name, errors.Safe(buf.Version), errors.Safe(target))
	}
	rec := buf
	if buf.Version < target {
		if buf.Version == 0 {
			return base.ModuleWriteErrorf("module %s: record has no version", m.name)
		}
		var tmp Buffer
		m.maps[buf.Version-1][target-1].apply(buf, &tmp)
		rec = &tmp
	}
	if err := seg.AppendRecord(rec.Bytes()); err != nil {
		return errors.Mark(errors.Wrapf(err, "module %s", m.name), base.ErrModuleWrite)
	}
	return nil
}

// Upgrade translates the record in buf to the given, newer version in
// place.
func (m *CounterModule) Upgrade(buf *Buffer, version uint32) {
	if buf.Version == version {
		return
	}
	if buf.Version > version {
		panic(errors.AssertionFailedf("module %s: cannot downgrade record from version %d to %d",
			m.name, errors.Safe(buf.Version), errors.Safe(version)))
	}
	var tmp Buffer
	m.maps[buf.Version-1][version-1].apply(buf, &tmp)
	*buf = tmp
}

// AggRecords implements Module.
func (m *CounterModule) AggRecords(rec, agg *Buffer, first bool) {
	if first {
		*agg = *rec
		agg.SetRank(base.AggregateRank)
		l := m.layout(agg.Version)
		time, bytes := l.rankTimeAndBytes(rec)
		m.seedDerived(l, agg, rec.Rank(), time, bytes)
		return
	}

	var tmp Buffer
	switch {
	case rec.Version < agg.Version:
		m.maps[rec.Version-1][agg.Version-1].apply(rec, &tmp)
		rec = &tmp
	case rec.Version > agg.Version:
		m.Upgrade(agg, rec.Version)
	}
	l := m.layout(agg.Version)

	for i, f := range l.Counters {
		if f.Agg.derived() {
			continue
		}
		a, r := l.counter(agg, i), l.counter(rec, i)
		switch f.Agg {
		case Sum:
			a += r
		case Max:
			a = max(a, r)
		case MinNonZero:
			if r > 0 && (a == 0 || r < a) {
				a = r
			}
		case FirstNonZero:
			if a == 0 {
				a = r
			}
		}
		l.setCounter(agg, i, a)
	}
	for i, f := range l.FCounters {
		if f.Agg.derived() {
			continue
		}
		a, r := l.fcounter(agg, i), l.fcounter(rec, i)
		switch f.Agg {
		case Sum:
			a += r
		case Max:
			a = max(a, r)
		case MinNonZero:
			if r > 0 && (a == 0 || r < a) {
				a = r
			}
		case FirstNonZero:
			if a == 0 {
				a = r
			}
		}
		l.setFCounter(agg, i, a)
	}

	time, bytes := l.rankTimeAndBytes(rec)
	if idx := l.derived[FastestRankTime]; idx >= 0 && time < l.fcounter(agg, idx) {
		m.setRank(l, agg, FastestRank, FastestRankBytes, FastestRankTime, rec.Rank(), time, bytes)
	}
	if idx := l.derived[SlowestRankTime]; idx >= 0 && time > l.fcounter(agg, idx) {
		m.setRank(l, agg, SlowestRank, SlowestRankBytes, SlowestRankTime, rec.Rank(), time, bytes)
	}
	agg.stats.add(time, bytes)
	m.setVariance(l, agg)
}

func (m *CounterModule) seedDerived(l *Layout, agg *Buffer, rank int64, time, bytes float64) {
	m.setRank(l, agg, FastestRank, FastestRankBytes, FastestRankTime, rank, time, bytes)
	m.setRank(l, agg, SlowestRank, SlowestRankBytes, SlowestRankTime, rank, time, bytes)
	agg.stats = rankStats{}
	agg.stats.add(time, bytes)
	m.setVariance(l, agg)
}

func (m *CounterModule) setRank(
	l *Layout, agg *Buffer, rankKind, bytesKind, timeKind AggKind, rank int64, time, bytes float64,
) {
	if i := l.derived[rankKind]; i >= 0 {
		l.setCounter(agg, i, rank)
	}
	if i := l.derived[bytesKind]; i >= 0 {
		l.setCounter(agg, i, int64(bytes))
	}
	if i := l.derived[timeKind]; i >= 0 {
		l.setFCounter(agg, i, time)
	}
}

func (m *CounterModule) setVariance(l *Layout, agg *Buffer) {
	time, bytes := agg.stats.variance()
	if i := l.derived[VarianceRankTime]; i >= 0 {
		l.setFCounter(agg, i, time)
	}
	if i := l.derived[VarianceRankBytes]; i >= 0 {
		l.setFCounter(agg, i, bytes)
	}
}

// InitRecord resets buf to a zeroed record of the given version describing
// id as seen by rank.
func (m *CounterModule) InitRecord(buf *Buffer, version uint32, id base.RecordID, rank int64) {
	l := m.layout(version)
	buf.reset(version, l.RecordSize())
	buf.setID(id)
	buf.SetRank(rank)
}

// Counter returns the named integer counter of the record in buf. Counters
// the record's version lacks read as zero.
func (m *CounterModule) Counter(buf *Buffer, name string) int64 {
	l := m.layout(buf.Version)
	if i, ok := l.counterIdx[name]; ok {
		return l.counter(buf, i)
	}
	return 0
}

// SetCounter sets the named integer counter of the record in buf.
func (m *CounterModule) SetCounter(buf *Buffer, name string, v int64) {
	l := m.layout(buf.Version)
	i, ok := l.counterIdx[name]
	if !ok {
		panic(errors.AssertionFailedf("module %s: version %d has no counter %s",
			m.name, errors.Safe(buf.Version), errors.Safe(name)))
	}
	l.setCounter(buf, i, v)
}

// FCounter returns the named floating point counter of the record in buf.
// Counters the record's version lacks read as zero.
func (m *CounterModule) FCounter(buf *Buffer, name string) float64 {
	l := m.layout(buf.Version)
	if i, ok := l.fcounterIdx[name]; ok {
		return l.fcounter(buf, i)
	}
	return 0
}

// SetFCounter sets the named floating point counter of the record in buf.
func (m *CounterModule) SetFCounter(buf *Buffer, name string, v float64) {
	l := m.layout(buf.Version)
	i, ok := l.fcounterIdx[name]
	if !ok {
		panic(errors.AssertionFailedf("module %s: version %d has no fcounter %s",
			m.name, errors.Safe(buf.Version), errors.Safe(name)))
	}
	l.setFCounter(buf, i, v)
}
