// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package logfile

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/vfs"
)

// Reader reads a log file. The sections of the file may be read in any
// order. A Reader is not safe for concurrent use.
type Reader struct {
	f      vfs.File
	path   string
	header Header
	index  index
}

// Open opens the named log file and reads its header and index. A missing
// file is reported with an error satisfying oserror.IsNotExist; a file that is
// not a well-formed log returns an error marked with base.ErrCorruption.
func Open(fs vfs.FS, path string) (*Reader, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{f: f, path: path}
	if err := r.init(); err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "%s", path)
	}
	return r, nil
}

func (r *Reader) init() error {
	stat, err := r.f.Stat()
	if err != nil {
		return errors.Wrap(err, "iolog: could not stat log file")
	}
	size := stat.Size()
	if size < headerLen+footerLen {
		return base.CorruptionErrorf("iolog: invalid log file (file size is too small)")
	}

	buf := make([]byte, footerLen)
	if _, err := r.f.ReadAt(buf[:headerLen], 0); err != nil {
		return readAtErr(err, "header")
	}
	if r.header, err = decodeHeader(buf[:headerLen]); err != nil {
		return err
	}
	if _, err := r.f.ReadAt(buf, size-footerLen); err != nil {
		return readAtErr(err, "footer")
	}
	indexBH, err := decodeFooter(buf)
	if err != nil {
		return err
	}
	if indexBH.Offset < headerLen || indexBH.Offset+indexBH.Length != uint64(size)-footerLen {
		return base.CorruptionErrorf("iolog: invalid log file (bad index handle)")
	}
	data, err := r.readRegion(indexBH)
	if err != nil {
		return err
	}
	return r.index.decode(data, uint64(size))
}

func readAtErr(err error, what string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return base.CorruptionErrorf("iolog: invalid log file (could not read %s)", errors.Safe(what))
	}
	return errors.Wrapf(err, "iolog: reading %s", errors.Safe(what))
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.f == nil {
		return errors.AssertionFailedf("iolog: reader closed twice")
	}
	err := r.f.Close()
	r.f = nil
	return err
}

// Path returns the name the Reader was opened with.
func (r *Reader) Path() string {
	return r.path
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

func (r *Reader) readRegion(h Handle) ([]byte, error) {
	var br blockReader
	br.init(r.f, h)
	defer br.close()
	return br.readAll()
}

// ReadJob reads the job section.
func (r *Reader) ReadJob() (Job, error) {
	var j Job
	data, err := r.readRegion(r.index.job)
	if err != nil {
		return j, err
	}
	err = j.decode(data)
	return j, err
}

// ReadExe reads the executable string.
func (r *Reader) ReadExe() (string, error) {
	data, err := r.readRegion(r.index.exe)
	if err != nil {
		return "", err
	}
	return decodeExe(data)
}

// ReadMounts reads the mount table.
func (r *Reader) ReadMounts() ([]Mount, error) {
	data, err := r.readRegion(r.index.mounts)
	if err != nil {
		return nil, err
	}
	return decodeMounts(data)
}

// ReadNameTable reads the record name table in its entirety.
func (r *Reader) ReadNameTable() (NameTable, error) {
	data, err := r.readRegion(r.index.names)
	if err != nil {
		return nil, err
	}
	return decodeNameTable(data)
}

// Modules returns the module segments stored in the file, in increasing
// module order. Modules without records are not included.
func (r *Reader) Modules() []SegmentInfo {
	return r.index.segments
}

// Segment returns the description of the given module's segment.
func (r *Reader) Segment(id base.ModuleID) (SegmentInfo, bool) {
	for _, s := range r.index.segments {
		if s.Module == id {
			return s, true
		}
	}
	return SegmentInfo{}, false
}

// OpenSegment returns a reader positioned at the first record of the given
// module's segment. It returns an error marked with base.ErrNotFound if the
// file holds no records of the module. The SegmentReader must be closed
// before the Reader.
func (r *Reader) OpenSegment(id base.ModuleID) (*SegmentReader, error) {
	info, ok := r.Segment(id)
	if !ok {
		return nil, errors.Mark(errors.Newf("iolog: no records of module %s", id), base.ErrNotFound)
	}
	s := &SegmentReader{info: info}
	s.br.init(r.f, info.Handle)
	return s, nil
}

// SegmentReader reads the records of one module segment.
type SegmentReader struct {
	info SegmentInfo
	br   blockReader
	read uint64
}

// Module returns the module the segment belongs to.
func (s *SegmentReader) Module() base.ModuleID {
	return s.info.Module
}

// Version returns the module format version the records are encoded with.
func (s *SegmentReader) Version() uint32 {
	return s.info.Version
}

// Records returns the number of records in the segment.
func (s *SegmentReader) Records() uint64 {
	return s.info.Records
}

// ReadRecord reads the next record into p. The size of a record is defined
// by the module and version, and p must be exactly that size. ReadRecord
// returns io.EOF once all records have been read. A segment that ends part
// way through a record, or holds a different number of records than the
// index claims, returns an error marked with base.ErrCorruption.
func (s *SegmentReader) ReadRecord(p []byte) error {
	if len(p) == 0 {
		return errors.AssertionFailedf("iolog: zero length record")
	}
	_, err := io.ReadFull(&s.br, p)
	switch {
	case err == nil:
	case err == io.EOF:
		if s.read != s.info.Records {
			return base.CorruptionErrorf("iolog: module %s segment ended after %d of %d records",
				s.info.Module, errors.Safe(s.read), errors.Safe(s.info.Records))
		}
		return io.EOF
	case err == io.ErrUnexpectedEOF:
		return base.CorruptionErrorf("iolog: module %s segment ends with a partial record", s.info.Module)
	default:
		return err
	}
	s.read++
	if s.read > s.info.Records {
		return base.CorruptionErrorf("iolog: module %s segment holds more than %d records",
			s.info.Module, errors.Safe(s.info.Records))
	}
	return nil
}

// Close releases the resources held by the SegmentReader.
func (s *SegmentReader) Close() error {
	s.br.close()
	return nil
}
