// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package modules

import (
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/logfile"
	"github.com/cockroachdb/iolog/vfs"
	"github.com/stretchr/testify/require"
)

func posixRecord(version uint32, id base.RecordID, rank int64, bytesRead int64, readTime float64) *Buffer {
	buf := &Buffer{}
	POSIX.InitRecord(buf, version, id, rank)
	POSIX.SetCounter(buf, "POSIX_OPENS", 1)
	POSIX.SetCounter(buf, "POSIX_BYTES_READ", bytesRead)
	POSIX.SetCounter(buf, "POSIX_MAX_BYTE_READ", bytesRead-1)
	POSIX.SetFCounter(buf, "POSIX_F_READ_TIME", readTime)
	return buf
}

func TestAggRecords(t *testing.T) {
	id := base.RecordID(0xABC)
	var agg Buffer
	for rank := int64(0); rank < 4; rank++ {
		rec := posixRecord(2, id, rank, 10*(rank+1), float64(rank+1))
		POSIX.SetFCounter(rec, "POSIX_F_READ_START_TIMESTAMP", float64(10-rank))
		if rank == 2 {
			POSIX.SetCounter(rec, "POSIX_MODE", 0644)
		}
		if rank == 3 {
			POSIX.SetCounter(rec, "POSIX_MODE", 0600)
		}
		POSIX.AggRecords(rec, &agg, rank == 0)
	}

	require.Equal(t, id, agg.ID())
	require.Equal(t, int64(base.AggregateRank), agg.Rank())
	require.Equal(t, uint32(2), agg.Version)
	require.Equal(t, int64(100), POSIX.Counter(&agg, "POSIX_BYTES_READ"))
	require.Equal(t, int64(4), POSIX.Counter(&agg, "POSIX_OPENS"))
	require.Equal(t, int64(39), POSIX.Counter(&agg, "POSIX_MAX_BYTE_READ"))
	require.Equal(t, int64(0644), POSIX.Counter(&agg, "POSIX_MODE"))
	require.Equal(t, 7.0, POSIX.FCounter(&agg, "POSIX_F_READ_START_TIMESTAMP"))
	require.Equal(t, 10.0, POSIX.FCounter(&agg, "POSIX_F_READ_TIME"))

	require.Equal(t, int64(0), POSIX.Counter(&agg, "POSIX_FASTEST_RANK"))
	require.Equal(t, int64(10), POSIX.Counter(&agg, "POSIX_FASTEST_RANK_BYTES"))
	require.Equal(t, 1.0, POSIX.FCounter(&agg, "POSIX_F_FASTEST_RANK_TIME"))
	require.Equal(t, int64(3), POSIX.Counter(&agg, "POSIX_SLOWEST_RANK"))
	require.Equal(t, int64(40), POSIX.Counter(&agg, "POSIX_SLOWEST_RANK_BYTES"))
	require.Equal(t, 4.0, POSIX.FCounter(&agg, "POSIX_F_SLOWEST_RANK_TIME"))
	require.InDelta(t, 1.25, POSIX.FCounter(&agg, "POSIX_F_VARIANCE_RANK_TIME"), 1e-9)
	require.InDelta(t, 125.0, POSIX.FCounter(&agg, "POSIX_F_VARIANCE_RANK_BYTES"), 1e-9)
}

func TestAggRecordsMinNonZero(t *testing.T) {
	var agg Buffer
	a := posixRecord(1, 1, 0, 1, 1)
	b := posixRecord(1, 1, 1, 1, 1)
	POSIX.SetFCounter(b, "POSIX_F_OPEN_START_TIMESTAMP", 5)
	POSIX.SetFCounter(b, "POSIX_F_OPEN_END_TIMESTAMP", 9)
	POSIX.AggRecords(a, &agg, true)
	POSIX.AggRecords(b, &agg, false)
	// A zero start timestamp means the operation never happened.
	require.Equal(t, 5.0, POSIX.FCounter(&agg, "POSIX_F_OPEN_START_TIMESTAMP"))
	require.Equal(t, 9.0, POSIX.FCounter(&agg, "POSIX_F_OPEN_END_TIMESTAMP"))
}

func TestAggRecordsMixedVersions(t *testing.T) {
	v1 := posixRecord(1, 7, 0, 10, 1)
	v2 := posixRecord(2, 7, 1, 20, 2)
	POSIX.SetCounter(v2, "POSIX_RENAME_SOURCES", 3)

	var agg Buffer
	POSIX.AggRecords(v1, &agg, true)
	POSIX.AggRecords(v2, &agg, false)
	require.Equal(t, uint32(2), agg.Version)
	require.Equal(t, int64(30), POSIX.Counter(&agg, "POSIX_BYTES_READ"))
	require.Equal(t, int64(3), POSIX.Counter(&agg, "POSIX_RENAME_SOURCES"))
	require.InDelta(t, 25.0, POSIX.FCounter(&agg, "POSIX_F_VARIANCE_RANK_BYTES"), 1e-9)

	// Folding an older record into a newer aggregate upgrades the record.
	POSIX.AggRecords(posixRecord(1, 7, 2, 30, 3), &agg, false)
	require.Equal(t, uint32(2), agg.Version)
	require.Equal(t, int64(60), POSIX.Counter(&agg, "POSIX_BYTES_READ"))
	require.Equal(t, int64(2), POSIX.Counter(&agg, "POSIX_SLOWEST_RANK"))
}

func TestUpgrade(t *testing.T) {
	rec := posixRecord(1, 42, 3, 1000, 0.5)
	POSIX.SetCounter(rec, "POSIX_FILE_ALIGNMENT", 4096)
	v1Size := rec.Len()
	POSIX.Upgrade(rec, 2)
	require.Equal(t, uint32(2), rec.Version)
	require.Equal(t, v1Size+16, rec.Len())
	require.Equal(t, base.RecordID(42), rec.ID())
	require.Equal(t, int64(3), rec.Rank())
	require.Equal(t, int64(1000), POSIX.Counter(rec, "POSIX_BYTES_READ"))
	require.Equal(t, int64(4096), POSIX.Counter(rec, "POSIX_FILE_ALIGNMENT"))
	require.Equal(t, int64(0), POSIX.Counter(rec, "POSIX_RENAME_TARGETS"))
	require.Equal(t, 0.5, POSIX.FCounter(rec, "POSIX_F_READ_TIME"))
}

func createSegment(
	t *testing.T, fs vfs.FS, path string, m Module, version uint32, recs ...*Buffer,
) {
	t.Helper()
	w, err := logfile.Create(fs, path, logfile.WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, w.WriteJob(&logfile.Job{NProcs: 1}))
	seg, err := w.BeginModule(m.ID(), version)
	require.NoError(t, err)
	for _, rec := range recs {
		require.NoError(t, m.PutRecord(seg, rec, version))
	}
	require.NoError(t, w.Close())
}

func readSegment(t *testing.T, fs vfs.FS, path string, m Module) []*Buffer {
	t.Helper()
	r, err := logfile.Open(fs, path)
	require.NoError(t, err)
	defer r.Close()
	seg, err := r.OpenSegment(m.ID())
	require.NoError(t, err)
	defer seg.Close()
	var recs []*Buffer
	for {
		buf := &Buffer{}
		err := m.GetRecord(seg, buf)
		if err == io.EOF {
			return recs
		}
		require.NoError(t, err)
		recs = append(recs, buf)
	}
}

func TestGetPutRecord(t *testing.T) {
	fs := vfs.NewMem()
	createSegment(t, fs, "v1", POSIX, 1,
		posixRecord(1, 1, 0, 10, 1), posixRecord(1, 2, 0, 20, 2))

	recs := readSegment(t, fs, "v1", POSIX)
	require.Len(t, recs, 2)
	require.Equal(t, uint32(1), recs[0].Version)
	require.Equal(t, int64(20), POSIX.Counter(recs[1], "POSIX_BYTES_READ"))

	// Write the version 1 records into a version 2 segment.
	createSegment(t, fs, "v2", POSIX, 2, recs...)
	upgraded := readSegment(t, fs, "v2", POSIX)
	require.Len(t, upgraded, 2)
	for i, rec := range upgraded {
		require.Equal(t, uint32(2), rec.Version)
		require.Equal(t, recs[i].ID(), rec.ID())
		require.Equal(t, POSIX.Counter(recs[i], "POSIX_BYTES_READ"), POSIX.Counter(rec, "POSIX_BYTES_READ"))
		require.Equal(t, POSIX.FCounter(recs[i], "POSIX_F_READ_TIME"), POSIX.FCounter(rec, "POSIX_F_READ_TIME"))
	}
}

func TestPutRecordErrors(t *testing.T) {
	fs := vfs.NewMem()
	w, err := logfile.Create(fs, "log", logfile.WriterOptions{})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.WriteJob(&logfile.Job{NProcs: 1}))
	seg, err := w.BeginModule(POSIXModuleID, 1)
	require.NoError(t, err)

	err = POSIX.PutRecord(seg, posixRecord(2, 1, 0, 1, 1), 1)
	require.True(t, errors.Is(err, base.ErrModuleWrite))
	require.Contains(t, err.Error(), "downgrade")

	err = POSIX.PutRecord(seg, posixRecord(1, 1, 0, 1, 1), 2)
	require.True(t, errors.Is(err, base.ErrModuleWrite))
	require.Contains(t, err.Error(), "differs from segment version")

	err = STDIO.PutRecord(seg, posixRecord(1, 1, 0, 1, 1), 1)
	require.True(t, errors.Is(err, base.ErrModuleWrite))

	require.NoError(t, POSIX.PutRecord(seg, posixRecord(1, 1, 0, 1, 1), 1))
	require.Equal(t, uint64(1), seg.Records())
}

func TestRecordSize(t *testing.T) {
	for _, m := range DefaultRegistry().Modules() {
		for v := uint32(1); v <= m.CurrentVersion(); v++ {
			size, err := m.RecordSize(v)
			require.NoError(t, err)
			require.LessOrEqual(t, size, MaxRecordSize)
			require.Zero(t, size%8)
		}
		_, err := m.RecordSize(m.CurrentVersion() + 1)
		require.Error(t, err)
		_, err = m.RecordSize(0)
		require.Error(t, err)
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	var ids []base.ModuleID
	for _, m := range r.Modules() {
		ids = append(ids, m.ID())
	}
	require.Equal(t, []base.ModuleID{POSIXModuleID, MPIIOModuleID, STDIOModuleID}, ids)
	require.Equal(t, uint32(2), POSIX.CurrentVersion())

	m, ok := r.Lookup(STDIOModuleID)
	require.True(t, ok)
	require.Equal(t, "STDIO", m.Name())
	_, ok = r.Lookup(5)
	require.False(t, ok)
	_, ok = r.Lookup(200)
	require.False(t, ok)

	require.Error(t, r.Register(POSIX))
	_, err := NewRegistry(MPIIO, MPIIO)
	require.Error(t, err)

	sub, err := r.Subset("stdio", "mpi-io")
	require.NoError(t, err)
	require.Len(t, sub.Modules(), 2)
	_, ok = sub.Lookup(POSIXModuleID)
	require.False(t, ok)
	_, err = r.Subset("HDF5")
	require.Error(t, err)
}
