// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package logfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/internal/compression"
	"github.com/cockroachdb/iolog/vfs"
	"github.com/stretchr/testify/require"
)

var testJob = Job{
	Version:   "3.41",
	UID:       1000,
	StartTime: 1700000000,
	EndTime:   1700000100,
	NProcs:    4,
	JobID:     4242,
	Metadata:  "lib_ver=3.4.1\nh=romio_no_indep_rw=true",
}

type testSegment struct {
	module  base.ModuleID
	version uint32
	records [][]byte
}

func testRecord(i, size int) []byte {
	rec := make([]byte, size)
	binary.LittleEndian.PutUint64(rec, uint64(i))
	for j := 8; j < size; j++ {
		rec[j] = byte(i + j)
	}
	return rec
}

func writeTestLog(
	t *testing.T, fs vfs.FS, path string, opts WriterOptions, segs ...testSegment,
) {
	t.Helper()
	w, err := Create(fs, path, opts)
	require.NoError(t, err)
	require.NoError(t, w.WriteJob(&testJob))
	require.NoError(t, w.WriteExe("/usr/bin/app --input data"))
	require.NoError(t, w.WriteMounts([]Mount{{"/", "rootfs"}, {"/lus", "lustre"}}))
	names := NameTable{}
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("/lus/scratch/file.%d", i)
		require.NoError(t, names.Add(base.MakeRecordID(name), name))
	}
	require.NoError(t, w.WriteNameTable(names))
	for _, s := range segs {
		sw, err := w.BeginModule(s.module, s.version)
		require.NoError(t, err)
		for _, rec := range s.records {
			require.NoError(t, sw.AppendRecord(rec))
		}
	}
	require.NoError(t, w.Close())
}

func readFile(t *testing.T, fs vfs.FS, path string) []byte {
	t.Helper()
	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return data
}

func writeFile(t *testing.T, fs vfs.FS, path string, data []byte) {
	t.Helper()
	f, err := fs.Create(path)
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestRoundtrip(t *testing.T) {
	for a := compression.NoCompression; a < compression.NumAlgorithms; a++ {
		for _, blockSize := range []int{64, DefaultBlockSize} {
			t.Run(fmt.Sprintf("%s/%d", a, blockSize), func(t *testing.T) {
				fs := vfs.NewMem()
				var posix, stdio testSegment
				posix = testSegment{module: 1, version: 2}
				for i := 0; i < 100; i++ {
					posix.records = append(posix.records, testRecord(i, 48))
				}
				stdio = testSegment{module: 8, version: 1}
				for i := 0; i < 7; i++ {
					stdio.records = append(stdio.records, testRecord(i, 24))
				}
				opts := WriterOptions{Compression: a, BlockSize: blockSize}
				writeTestLog(t, fs, "log", opts, posix, testSegment{module: 2, version: 1}, stdio)

				r, err := Open(fs, "log")
				require.NoError(t, err)
				defer func() { require.NoError(t, r.Close()) }()

				require.Equal(t, Header{Version: FormatVersion, Compression: a}, r.Header())
				job, err := r.ReadJob()
				require.NoError(t, err)
				require.Equal(t, testJob, job)
				exe, err := r.ReadExe()
				require.NoError(t, err)
				require.Equal(t, "/usr/bin/app --input data", exe)
				mounts, err := r.ReadMounts()
				require.NoError(t, err)
				require.Equal(t, []Mount{{"/", "rootfs"}, {"/lus", "lustre"}}, mounts)
				names, err := r.ReadNameTable()
				require.NoError(t, err)
				require.Len(t, names, 3)
				require.Equal(t, "/lus/scratch/file.1", names[base.MakeRecordID("/lus/scratch/file.1")])

				// The empty MPI-IO segment is omitted.
				mods := r.Modules()
				require.Len(t, mods, 2)
				require.Equal(t, base.ModuleID(1), mods[0].Module)
				require.Equal(t, uint32(2), mods[0].Version)
				require.Equal(t, uint64(100), mods[0].Records)
				require.Equal(t, base.ModuleID(8), mods[1].Module)

				// Segments may be read in any order.
				for _, s := range []testSegment{stdio, posix} {
					sr, err := r.OpenSegment(s.module)
					require.NoError(t, err)
					require.Equal(t, s.version, sr.Version())
					buf := make([]byte, len(s.records[0]))
					for _, rec := range s.records {
						require.NoError(t, sr.ReadRecord(buf))
						require.Equal(t, rec, buf)
					}
					require.Equal(t, io.EOF, sr.ReadRecord(buf))
					require.NoError(t, sr.Close())
				}

				_, err = r.OpenSegment(2)
				require.True(t, errors.Is(err, base.ErrNotFound))
			})
		}
	}
}

func TestCompressionShrinksFile(t *testing.T) {
	fs := vfs.NewMem()
	seg := testSegment{module: 1, version: 1}
	for i := 0; i < 1000; i++ {
		seg.records = append(seg.records, make([]byte, 64))
	}
	writeTestLog(t, fs, "none", WriterOptions{Compression: compression.NoCompression}, seg)
	writeTestLog(t, fs, "zstd", WriterOptions{}, seg)
	none, zstd := readFile(t, fs, "none"), readFile(t, fs, "zstd")
	require.Less(t, len(zstd), len(none)/4)

	r, err := Open(fs, "zstd")
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, compression.Zstd, r.Header().Compression)
}

func TestSkippedSectionsAreEmpty(t *testing.T) {
	fs := vfs.NewMem()
	w, err := Create(fs, "log", WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, w.WriteJob(&testJob))
	sw, err := w.BeginModule(1, 1)
	require.NoError(t, err)
	require.NoError(t, sw.AppendRecord(testRecord(1, 16)))
	require.NoError(t, w.Close())

	r, err := Open(fs, "log")
	require.NoError(t, err)
	defer r.Close()
	exe, err := r.ReadExe()
	require.NoError(t, err)
	require.Equal(t, "", exe)
	mounts, err := r.ReadMounts()
	require.NoError(t, err)
	require.Empty(t, mounts)
	names, err := r.ReadNameTable()
	require.NoError(t, err)
	require.Empty(t, names)
	require.Len(t, r.Modules(), 1)
}

// TestSkippedSectionsBeforeNameTable writes the job and the name table only,
// so the empty exe and mounts sections are filled in while the name table is
// pending.
func TestSkippedSectionsBeforeNameTable(t *testing.T) {
	fs := vfs.NewMem()
	w, err := Create(fs, "log", WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, w.WriteJob(&testJob))
	names := NameTable{}
	require.NoError(t, names.Add(0xabc, "/lus/file"))
	require.NoError(t, names.Add(0xdef, "/lus/other/file"))
	require.NoError(t, w.WriteNameTable(names))
	require.NoError(t, w.Close())

	r, err := Open(fs, "log")
	require.NoError(t, err)
	defer r.Close()
	exe, err := r.ReadExe()
	require.NoError(t, err)
	require.Equal(t, "", exe)
	mounts, err := r.ReadMounts()
	require.NoError(t, err)
	require.Empty(t, mounts)
	got, err := r.ReadNameTable()
	require.NoError(t, err)
	require.Equal(t, names, got)
}

func TestWriterSectionOrder(t *testing.T) {
	fs := vfs.NewMem()

	t.Run("exe-before-job", func(t *testing.T) {
		w, err := Create(fs, "a", WriterOptions{})
		require.NoError(t, err)
		err = w.WriteExe("exe")
		require.True(t, errors.IsAssertionFailure(err))
		require.Error(t, w.Close())
	})

	t.Run("job-after-names", func(t *testing.T) {
		w, err := Create(fs, "b", WriterOptions{})
		require.NoError(t, err)
		require.NoError(t, w.WriteJob(&testJob))
		require.NoError(t, w.WriteNameTable(NameTable{}))
		err = w.WriteExe("exe")
		require.True(t, errors.IsAssertionFailure(err))
		require.Contains(t, err.Error(), "exe section written after names section")
		require.NoError(t, w.Close())
	})

	t.Run("module-order", func(t *testing.T) {
		w, err := Create(fs, "c", WriterOptions{})
		require.NoError(t, err)
		require.NoError(t, w.WriteJob(&testJob))
		sw, err := w.BeginModule(2, 1)
		require.NoError(t, err)
		_, err = w.BeginModule(2, 1)
		require.True(t, errors.IsAssertionFailure(err))
		_, err = w.BeginModule(1, 1)
		require.True(t, errors.IsAssertionFailure(err))
		sw8, err := w.BeginModule(8, 1)
		require.NoError(t, err)
		// The earlier segment is finished.
		require.True(t, errors.IsAssertionFailure(sw.AppendRecord([]byte("x"))))
		require.NoError(t, sw8.AppendRecord([]byte("x")))
		require.NoError(t, w.Close())
		require.True(t, errors.IsAssertionFailure(w.Close()))
	})
}

func TestWriterLimits(t *testing.T) {
	fs := vfs.NewMem()
	w, err := Create(fs, "log", WriterOptions{})
	require.NoError(t, err)
	defer w.Close()

	j := testJob
	j.Metadata = strings.Repeat("x", MaxMetadataLen+1)
	require.Error(t, w.WriteJob(&j))
	j.Metadata = strings.Repeat("x", MaxMetadataLen)
	require.NoError(t, w.WriteJob(&j))
	require.Error(t, w.WriteExe(strings.Repeat("x", MaxExeLen+1)))

	_, err = Create(fs, "bad", WriterOptions{Compression: compression.NumAlgorithms})
	require.Error(t, err)
}

func TestOpenErrors(t *testing.T) {
	fs := vfs.NewMem()
	seg := testSegment{module: 1, version: 1}
	for i := 0; i < 10; i++ {
		seg.records = append(seg.records, testRecord(i, 32))
	}
	writeTestLog(t, fs, "log", WriterOptions{Compression: compression.NoCompression}, seg)
	data := readFile(t, fs, "log")

	_, err := Open(fs, "missing")
	require.True(t, oserror.IsNotExist(err))

	corrupt := func(name string, data []byte) {
		t.Run(name, func(t *testing.T) {
			writeFile(t, fs, name, data)
			_, err := Open(fs, name)
			require.Error(t, err)
			require.True(t, errors.Is(err, base.ErrCorruption), "%+v", err)
		})
	}
	corrupt("empty", nil)
	corrupt("truncated", data[:len(data)-1])

	badMagic := bytes.Clone(data)
	badMagic[0] = 'X'
	corrupt("bad-header-magic", badMagic)

	badFooter := bytes.Clone(data)
	badFooter[len(badFooter)-1] ^= 0xff
	corrupt("bad-footer-magic", badFooter)

	badIndex := bytes.Clone(data)
	// The last byte of the index block's checksum.
	badIndex[len(badIndex)-footerLen-1] ^= 0xff
	corrupt("bad-index-checksum", badIndex)
}

func TestCorruptBlock(t *testing.T) {
	fs := vfs.NewMem()
	seg := testSegment{module: 1, version: 1, records: [][]byte{testRecord(1, 32)}}
	writeTestLog(t, fs, "log", WriterOptions{Compression: compression.NoCompression}, seg)
	data := readFile(t, fs, "log")

	// Flip a byte in the payload of the job block.
	data[headerLen+blockPrefixLen+10] ^= 0xff
	writeFile(t, fs, "log", data)

	r, err := Open(fs, "log")
	require.NoError(t, err)
	defer r.Close()
	_, err = r.ReadJob()
	require.True(t, errors.Is(err, base.ErrCorruption))
	require.Contains(t, err.Error(), "checksum mismatch")
	// Other sections are unaffected.
	_, err = r.ReadExe()
	require.NoError(t, err)
}

func TestPartialRecord(t *testing.T) {
	fs := vfs.NewMem()
	seg := testSegment{module: 1, version: 1, records: [][]byte{testRecord(1, 10), testRecord(2, 10)}}
	writeTestLog(t, fs, "log", WriterOptions{}, seg)

	r, err := Open(fs, "log")
	require.NoError(t, err)
	defer r.Close()

	sr, err := r.OpenSegment(1)
	require.NoError(t, err)
	buf := make([]byte, 12)
	require.NoError(t, sr.ReadRecord(buf))
	err = sr.ReadRecord(buf)
	require.True(t, errors.Is(err, base.ErrCorruption))
	require.Contains(t, err.Error(), "partial record")
	require.NoError(t, sr.Close())

	sr, err = r.OpenSegment(1)
	require.NoError(t, err)
	buf = make([]byte, 5)
	require.NoError(t, sr.ReadRecord(buf))
	require.NoError(t, sr.ReadRecord(buf))
	err = sr.ReadRecord(buf)
	require.True(t, errors.Is(err, base.ErrCorruption))
	require.NoError(t, sr.Close())
}

func TestJobShutdownSentinel(t *testing.T) {
	j := testJob
	require.False(t, j.ShutdownRecorded())
	j.Metadata += "\n" + ShutdownSentinel
	require.True(t, j.ShutdownRecorded())

	buf, err := j.encode(nil)
	require.NoError(t, err)
	require.Len(t, buf, JobLen)
	var decoded Job
	require.NoError(t, decoded.decode(buf))
	require.True(t, decoded.ShutdownRecorded())

	require.Equal(t, "job 4242: uid=1000 nprocs=4 start=1700000000 end=1700000100", j.String())
}

func TestNameTableMerge(t *testing.T) {
	a := base.MakeRecordID("/a")
	b := base.MakeRecordID("/b")

	global := NameTable{}
	require.NoError(t, global.Merge(NameTable{a: "/a"}))
	// Equal names for the same identifier are tolerated.
	require.NoError(t, global.Merge(NameTable{a: "/a", b: "/b"}))
	require.Len(t, global, 2)

	err := global.Merge(NameTable{b: "/not-b"})
	require.True(t, errors.Is(err, base.ErrNameConflict))
	require.Contains(t, err.Error(), b.String())
	require.Equal(t, "/b", global[b])

	require.Equal(t, []base.RecordID{min(a, b), max(a, b)}, global.IDs())
}

func TestDecodeNameTableCorrupt(t *testing.T) {
	buf, err := NameTable{base.MakeRecordID("/a"): "/a"}.encode(nil)
	require.NoError(t, err)
	for i := 0; i < len(buf); i++ {
		_, err := decodeNameTable(buf[:i])
		require.True(t, errors.Is(err, base.ErrCorruption), "%d: %v", i, err)
	}
	_, err = decodeNameTable(append(buf, 0))
	require.True(t, errors.Is(err, base.ErrCorruption))
}

func TestWriterAbort(t *testing.T) {
	fs := vfs.NewMem()
	w, err := Create(fs, "log", WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, w.WriteJob(&testJob))
	w.Abort()
	w.Abort()
	require.True(t, errors.IsAssertionFailure(w.Close()))

	_, err = Open(fs, "log")
	require.True(t, errors.Is(err, base.ErrCorruption))
}
