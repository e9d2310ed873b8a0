// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package logfile

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/redact"
)

const (
	// JobLen is the encoded size of a Job.
	JobLen = 1024
	// MaxMetadataLen is the maximum length of Job.Metadata.
	MaxMetadataLen = JobLen - jobMetadataOff - 1
	// MaxExeLen is the maximum length of the executable string.
	MaxExeLen = 4096
	// MaxNameLen is the maximum length of a record name.
	MaxNameLen = 4096
	// MaxMountLen is the maximum length of a mount point or file system type.
	MaxMountLen = 4096

	jobVersionLen  = 8
	jobMetadataOff = 48

	// ShutdownSentinel is present in the job metadata of a log whose writer
	// entered its shutdown sequence. Such a log may be incomplete.
	ShutdownSentinel = "darshan_shutdown=yes"
)

// Job describes the job a log was collected from.
type Job struct {
	// Version is the version string of the instrumentation that wrote the
	// log.
	Version string
	UID     int64
	// StartTime and EndTime are in seconds since the Unix epoch.
	StartTime int64
	EndTime   int64
	NProcs    int64
	JobID     int64
	// Metadata holds free-form key=value pairs separated by newlines.
	Metadata string
}

// ShutdownRecorded returns true if the job metadata carries the shutdown
// sentinel.
func (j *Job) ShutdownRecorded() bool {
	return strings.Contains(j.Metadata, ShutdownSentinel)
}

// SafeFormat implements redact.SafeFormatter. The metadata is not printed.
func (j *Job) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("job %d: uid=%d nprocs=%d start=%d end=%d",
		redact.Safe(j.JobID), j.UID, redact.Safe(j.NProcs), redact.Safe(j.StartTime), redact.Safe(j.EndTime))
}

// String implements fmt.Stringer.
func (j *Job) String() string {
	return redact.StringWithoutMarkers(j)
}

func (j *Job) encode(buf []byte) ([]byte, error) {
	if len(j.Version) > jobVersionLen {
		return nil, errors.Newf("iolog: job version %q longer than %d bytes", j.Version, errors.Safe(jobVersionLen))
	}
	if len(j.Metadata) > MaxMetadataLen {
		return nil, errors.Newf("iolog: job metadata of %d bytes exceeds limit %d",
			errors.Safe(len(j.Metadata)), errors.Safe(MaxMetadataLen))
	}
	if strings.IndexByte(j.Metadata, 0) >= 0 {
		return nil, errors.New("iolog: job metadata contains a NUL byte")
	}
	buf = append(buf[:0], make([]byte, JobLen)...)
	copy(buf[0:8], j.Version)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(j.UID))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(j.StartTime))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(j.EndTime))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(j.NProcs))
	binary.LittleEndian.PutUint64(buf[40:48], uint64(j.JobID))
	copy(buf[jobMetadataOff:], j.Metadata)
	return buf, nil
}

func (j *Job) decode(buf []byte) error {
	if len(buf) != JobLen {
		return base.CorruptionErrorf("iolog: job section of %d bytes, expected %d",
			errors.Safe(len(buf)), errors.Safe(JobLen))
	}
	meta := buf[jobMetadataOff:]
	i := bytes.IndexByte(meta, 0)
	if i < 0 {
		return base.CorruptionErrorf("iolog: job metadata is not terminated")
	}
	*j = Job{
		Version:   string(bytes.TrimRight(buf[0:8], "\x00")),
		UID:       int64(binary.LittleEndian.Uint64(buf[8:16])),
		StartTime: int64(binary.LittleEndian.Uint64(buf[16:24])),
		EndTime:   int64(binary.LittleEndian.Uint64(buf[24:32])),
		NProcs:    int64(binary.LittleEndian.Uint64(buf[32:40])),
		JobID:     int64(binary.LittleEndian.Uint64(buf[40:48])),
		Metadata:  string(meta[:i]),
	}
	return nil
}

// Mount is an entry of the mount table.
type Mount struct {
	MountPoint string
	FSType     string
}

func encodeMounts(buf []byte, mounts []Mount) ([]byte, error) {
	buf = binary.AppendUvarint(buf[:0], uint64(len(mounts)))
	for _, m := range mounts {
		if len(m.MountPoint) > MaxMountLen || len(m.FSType) > MaxMountLen {
			return nil, errors.Newf("iolog: mount entry exceeds %d bytes", errors.Safe(MaxMountLen))
		}
		buf = appendString(buf, m.MountPoint)
		buf = appendString(buf, m.FSType)
	}
	return buf, nil
}

func decodeMounts(buf []byte) ([]Mount, error) {
	d := decoder{buf: buf}
	n := d.uvarint()
	if d.err != nil {
		return nil, d.err
	}
	// Every entry occupies at least two bytes.
	if n > uint64(len(d.buf))/2 {
		return nil, base.CorruptionErrorf("iolog: mount table claims %d entries", errors.Safe(n))
	}
	mounts := make([]Mount, 0, n)
	for i := uint64(0); i < n; i++ {
		var m Mount
		m.MountPoint = string(d.bytes(MaxMountLen))
		m.FSType = string(d.bytes(MaxMountLen))
		if d.err != nil {
			return nil, d.err
		}
		mounts = append(mounts, m)
	}
	if len(d.buf) != 0 {
		return nil, base.CorruptionErrorf("iolog: %d trailing bytes after mount table", errors.Safe(len(d.buf)))
	}
	return mounts, nil
}

func encodeExe(buf []byte, exe string) ([]byte, error) {
	if len(exe) > MaxExeLen {
		return nil, errors.Newf("iolog: exe string of %d bytes exceeds limit %d",
			errors.Safe(len(exe)), errors.Safe(MaxExeLen))
	}
	return appendString(buf[:0], exe), nil
}

func decodeExe(buf []byte) (string, error) {
	d := decoder{buf: buf}
	exe := d.bytes(MaxExeLen)
	if d.err != nil {
		return "", d.err
	}
	if len(d.buf) != 0 {
		return "", base.CorruptionErrorf("iolog: %d trailing bytes after exe", errors.Safe(len(d.buf)))
	}
	return string(exe), nil
}
