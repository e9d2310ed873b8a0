// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package logfile

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/internal/compression"
	"github.com/cockroachdb/iolog/vfs"
	"github.com/cockroachdb/redact"
)

// WriterOptions holds the parameters used to write a log file.
type WriterOptions struct {
	// Compression is the compression algorithm applied to blocks.
	//
	// The default value is compression.DefaultAlgorithm.
	Compression compression.Algorithm

	// BlockSize is the target uncompressed size in bytes of each block.
	//
	// The default value is DefaultBlockSize.
	BlockSize int

	// Version is the format version string written to the header.
	//
	// The default value is FormatVersion.
	Version string
}

// EnsureDefaults ensures that the default values for all of the options have
// been initialized. It is valid to call EnsureDefaults on a zero value.
func (o WriterOptions) EnsureDefaults() WriterOptions {
	o.Compression = o.Compression.Resolve()
	if o.BlockSize <= 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.Version == "" {
		o.Version = FormatVersion
	}
	return o
}

type section int8

const (
	sectionJob section = iota
	sectionExe
	sectionMounts
	sectionNames
	sectionModules
	sectionClosed
)

var sectionStrings = [...]string{
	sectionJob:     "job",
	sectionExe:     "exe",
	sectionMounts:  "mounts",
	sectionNames:   "names",
	sectionModules: "modules",
	sectionClosed:  "closed",
}

// SafeFormat implements redact.SafeFormatter.
func (s section) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(sectionStrings[s]))
}

// String implements fmt.Stringer.
func (s section) String() string {
	return sectionStrings[s]
}

// Writer writes a log file. The sections must be written in order: WriteJob,
// WriteExe, WriteMounts, WriteNameTable and then one BeginModule per module
// in increasing module order. Skipped exe, mounts and name table sections are
// written empty. Writing a section out of order is an error.
//
// A Writer does not remove its file on failure; that is left to the caller.
type Writer struct {
	f        vfs.File
	path     string
	opts     WriterOptions
	bw       blockWriter
	next     section
	index    index
	seg      *SegmentWriter
	lastMod  base.ModuleID
	anyMod   bool
	scratch  []byte
	fill     []byte
	err      error
	compress compression.Compressor
}

// Create creates the named log file, truncating it if it exists, and returns
// a Writer for it.
func Create(fs vfs.FS, path string, opts WriterOptions) (*Writer, error) {
	opts = opts.EnsureDefaults()
	if !opts.Compression.Valid() {
		return nil, errors.Newf("iolog: invalid compression algorithm %d", errors.Safe(opts.Compression))
	}
	if len(opts.Version) > headerVersionLen {
		return nil, errors.Newf("iolog: format version %q longer than %d bytes", opts.Version, errors.Safe(headerVersionLen))
	}
	f, err := fs.Create(path)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		f:        f,
		path:     path,
		opts:     opts,
		compress: compression.GetCompressor(opts.Compression),
	}
	hdr := Header{Version: opts.Version, Compression: opts.Compression}
	if _, err := f.Write(hdr.encode(make([]byte, headerLen))); err != nil {
		w.compress.Close()
		_ = f.Close()
		return nil, err
	}
	w.bw.init(f, headerLen, w.compress, opts.BlockSize)
	return w, nil
}

// Path returns the name the Writer was created with.
func (w *Writer) Path() string {
	return w.path
}

// WriteJob writes the job section.
func (w *Writer) WriteJob(j *Job) error {
	buf, err := j.encode(w.scratch)
	if err != nil {
		return err
	}
	w.scratch = buf
	return w.writeSection(sectionJob, buf)
}

// WriteExe writes the executable string.
func (w *Writer) WriteExe(exe string) error {
	buf, err := encodeExe(w.scratch, exe)
	if err != nil {
		return err
	}
	w.scratch = buf
	return w.writeSection(sectionExe, buf)
}

// WriteMounts writes the mount table.
func (w *Writer) WriteMounts(mounts []Mount) error {
	buf, err := encodeMounts(w.scratch, mounts)
	if err != nil {
		return err
	}
	w.scratch = buf
	return w.writeSection(sectionMounts, buf)
}

// WriteNameTable writes the record name table. Entries are written in
// increasing identifier order.
func (w *Writer) WriteNameTable(t NameTable) error {
	buf, err := t.encode(w.scratch)
	if err != nil {
		return err
	}
	w.scratch = buf
	return w.writeSection(sectionNames, buf)
}

// advance writes empty versions of the sections preceding s that have not
// been written. It must not touch w.scratch, which may hold the encoding of
// s itself.
func (w *Writer) advance(s section) error {
	if w.err != nil {
		return w.err
	}
	if s < w.next {
		return errors.AssertionFailedf("iolog: %s section written after %s section", s, w.next-1)
	}
	for w.next < s {
		var buf []byte
		switch w.next {
		case sectionJob:
			return errors.AssertionFailedf("iolog: %s section written before job section", s)
		case sectionExe:
			buf, _ = encodeExe(w.fill[:0], "")
		case sectionMounts:
			buf, _ = encodeMounts(w.fill[:0], nil)
		case sectionNames:
			buf, _ = NameTable(nil).encode(w.fill[:0])
		}
		w.fill = buf
		if err := w.emit(w.next, buf); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeSection(s section, data []byte) error {
	if err := w.advance(s); err != nil {
		return err
	}
	return w.emit(s, data)
}

func (w *Writer) emit(s section, data []byte) error {
	w.bw.startRegion()
	if _, err := w.bw.Write(data); err != nil {
		w.err = err
		return err
	}
	h, err := w.bw.finishRegion()
	if err != nil {
		w.err = err
		return err
	}
	switch s {
	case sectionJob:
		w.index.job = h
	case sectionExe:
		w.index.exe = h
	case sectionMounts:
		w.index.mounts = h
	case sectionNames:
		w.index.names = h
	}
	w.next = s + 1
	return nil
}

// BeginModule finishes the current module segment, if any, and starts the
// segment of the given module. Records appended to the returned
// SegmentWriter are encoded with the given module format version. Modules
// must be begun in strictly increasing order.
func (w *Writer) BeginModule(id base.ModuleID, version uint32) (*SegmentWriter, error) {
	if err := w.finishSegment(); err != nil {
		return nil, err
	}
	if w.next != sectionModules {
		if err := w.advance(sectionModules); err != nil {
			return nil, err
		}
		w.next = sectionModules
	}
	if w.anyMod && id <= w.lastMod {
		return nil, errors.AssertionFailedf("iolog: module %s begun after module %s", id, w.lastMod)
	}
	if id >= base.MaxModules {
		return nil, errors.AssertionFailedf("iolog: module %s out of range", id)
	}
	w.lastMod, w.anyMod = id, true
	w.bw.startRegion()
	w.seg = &SegmentWriter{w: w, module: id, version: version}
	return w.seg, nil
}

func (w *Writer) finishSegment() error {
	if w.err != nil {
		return w.err
	}
	if w.seg == nil {
		return nil
	}
	seg := w.seg
	w.seg = nil
	h, err := w.bw.finishRegion()
	if err != nil {
		w.err = err
		return err
	}
	if seg.records > 0 {
		w.index.segments = append(w.index.segments, SegmentInfo{
			Module:  seg.module,
			Version: seg.version,
			Records: seg.records,
			Handle:  h,
		})
	}
	return nil
}

// Close finishes the current module segment, writes the index and the
// footer, syncs the file and closes it. Close always closes the underlying
// file; the log is only complete if Close returns nil.
func (w *Writer) Close() (err error) {
	if w.next == sectionClosed {
		return errors.AssertionFailedf("iolog: writer closed twice")
	}
	defer func() {
		w.compress.Close()
		w.next = sectionClosed
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}()
	if err := w.finishSegment(); err != nil {
		return err
	}
	if w.next < sectionModules {
		if err := w.advance(sectionModules); err != nil {
			return err
		}
	}
	w.bw.startRegion()
	if _, err := w.bw.Write(w.index.encode(w.scratch[:0])); err != nil {
		return err
	}
	indexBH, err := w.bw.finishRegion()
	if err != nil {
		return err
	}
	if _, err := w.f.Write(encodeFooter(make([]byte, footerLen), indexBH)); err != nil {
		return err
	}
	return w.f.Sync()
}

// Abort closes the underlying file without completing the log. The caller
// is expected to remove the file. Abort is a no-op after Close or Abort.
func (w *Writer) Abort() {
	if w.next == sectionClosed {
		return
	}
	w.compress.Close()
	w.next = sectionClosed
	w.seg = nil
	_ = w.f.Close()
	w.f = nil
}

// SegmentWriter appends the records of one module to a log file. It is valid
// until the next call to BeginModule or Close.
type SegmentWriter struct {
	w       *Writer
	module  base.ModuleID
	version uint32
	records uint64
}

// Module returns the module the segment belongs to.
func (s *SegmentWriter) Module() base.ModuleID {
	return s.module
}

// Version returns the module format version the segment is written with.
func (s *SegmentWriter) Version() uint32 {
	return s.version
}

// Records returns the number of records appended so far.
func (s *SegmentWriter) Records() uint64 {
	return s.records
}

// AppendRecord appends an encoded record to the segment.
func (s *SegmentWriter) AppendRecord(p []byte) error {
	if s.w.seg != s {
		return errors.AssertionFailedf("iolog: append to finished segment of module %s", s.module)
	}
	if s.w.err != nil {
		return s.w.err
	}
	if _, err := s.w.bw.Write(p); err != nil {
		s.w.err = err
		return err
	}
	s.records++
	return nil
}
