// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package logfile implements the compressed container that holds an I/O
// characterization log.
//
// A log file is laid out as follows:
//
//	[header]
//	[job region]
//	[exe region]
//	[mounts region]
//	[names region]
//	[module region 1]
//	...
//	[module region N]
//	[index region]
//	[footer]
//
// The header is 24 bytes: an 8 byte magic number, the 8 byte NUL padded
// format version string, a single byte naming the compression algorithm the
// file was written with, and 7 bytes of zero padding.
//
// Every region is a sequence of blocks, each of which is encoded as:
//
//	[payload length uint32][payload][indicator byte][checksum uint32]
//
// The indicator names the compression algorithm the payload was written
// with. Blocks that do not compress well are stored uncompressed. The
// checksum covers the payload and the indicator.
//
// The index region records the location of the job, exe, mounts and names
// regions and, for every module segment, the module identifier, the
// module's record format version, the number of records and the segment's
// location. Segments that contain no records are omitted. The footer is 28
// bytes: the varint encoded handle of the index region, zero padded to 20
// bytes, followed by the magic number.
//
// Writers produce the sections in the fixed order shown above. Readers use
// the index and may read any section in any order.
package logfile // import "github.com/cockroachdb/iolog/logfile"

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/internal/compression"
)

const (
	magic = "IOLOG\x00\x03\x01"

	headerLen          = 24
	headerMagicLen     = len(magic)
	headerVersionLen   = 8
	headerVersionOff   = headerMagicLen
	headerCompressOff  = headerVersionOff + headerVersionLen
	footerLen          = 28
	footerHandleMaxLen = footerLen - len(magic)

	// FormatVersion is the format version string written to new files.
	FormatVersion = "3.41"

	blockPrefixLen  = 4
	blockTrailerLen = 5

	// DefaultBlockSize is the target uncompressed size of a block.
	DefaultBlockSize = 64 << 10
	// MaxBlockSize bounds the uncompressed size of a block a reader is
	// willing to decode.
	MaxBlockSize = 16 << 20
)

// Handle is the file offset and length of a region.
type Handle struct {
	// Offset identifies the offset of the region within the file.
	Offset uint64
	// Length is the length of the region, including block framing.
	Length uint64
}

// EncodeVarints encodes the handle into dst using a variable-width encoding
// and returns the number of bytes written.
func (h Handle) EncodeVarints(dst []byte) int {
	n := binary.PutUvarint(dst, h.Offset)
	m := binary.PutUvarint(dst[n:], h.Length)
	return n + m
}

// DecodeHandle returns the handle encoded in a variable-width encoding at the
// start of src, as well as the number of bytes it occupies. It returns zero if
// given invalid input.
func DecodeHandle(src []byte) (Handle, int) {
	offset, n := binary.Uvarint(src)
	if n <= 0 {
		return Handle{}, 0
	}
	length, m := binary.Uvarint(src[n:])
	if m <= 0 {
		return Handle{}, 0
	}
	return Handle{Offset: offset, Length: length}, n + m
}

// Header is the decoded fixed-size file header.
type Header struct {
	// Version is the format version string the file was written with.
	Version string
	// Compression is the compression algorithm the file was written with.
	// Individual blocks may still be stored uncompressed.
	Compression compression.Algorithm
}

func (h Header) encode(buf []byte) []byte {
	buf = buf[:headerLen]
	clear(buf)
	copy(buf, magic)
	copy(buf[headerVersionOff:headerVersionOff+headerVersionLen], h.Version)
	buf[headerCompressOff] = byte(h.Compression)
	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < headerLen {
		return Header{}, base.CorruptionErrorf("iolog: invalid log file (header too short): %d", errors.Safe(len(buf)))
	}
	if string(buf[:headerMagicLen]) != magic {
		return Header{}, base.CorruptionErrorf("iolog: invalid log file (bad magic number)")
	}
	v := buf[headerVersionOff : headerVersionOff+headerVersionLen]
	for i, c := range v {
		if c == 0 {
			v = v[:i]
			break
		}
	}
	if len(v) == 0 {
		return Header{}, base.CorruptionErrorf("iolog: invalid log file (missing version)")
	}
	h := Header{
		Version:     string(v),
		Compression: compression.Algorithm(buf[headerCompressOff]),
	}
	if !h.Compression.Valid() {
		return Header{}, base.CorruptionErrorf("iolog: invalid log file (unknown compression %d)",
			errors.Safe(buf[headerCompressOff]))
	}
	return h, nil
}

func encodeFooter(buf []byte, indexBH Handle) []byte {
	buf = buf[:footerLen]
	clear(buf)
	indexBH.EncodeVarints(buf)
	copy(buf[footerHandleMaxLen:], magic)
	return buf
}

func decodeFooter(buf []byte) (Handle, error) {
	if len(buf) != footerLen {
		return Handle{}, base.CorruptionErrorf("iolog: invalid log file (footer too short): %d", errors.Safe(len(buf)))
	}
	if string(buf[footerHandleMaxLen:]) != magic {
		return Handle{}, base.CorruptionErrorf("iolog: invalid log file (bad magic number)")
	}
	h, n := DecodeHandle(buf[:footerHandleMaxLen])
	if n == 0 {
		return Handle{}, base.CorruptionErrorf("iolog: invalid log file (bad index handle)")
	}
	return h, nil
}

// SegmentInfo describes a module segment stored in a log file.
type SegmentInfo struct {
	// Module identifies the module the segment belongs to.
	Module base.ModuleID
	// Version is the format version of the module's records.
	Version uint32
	// Records is the number of records in the segment.
	Records uint64
	Handle  Handle
}

// index is the decoded contents of the index region.
type index struct {
	job, exe, mounts, names Handle
	segments                []SegmentInfo
}

func (x *index) encode(buf []byte) []byte {
	var tmp [2 * binary.MaxVarintLen64]byte
	for _, h := range [...]Handle{x.job, x.exe, x.mounts, x.names} {
		n := h.EncodeVarints(tmp[:])
		buf = append(buf, tmp[:n]...)
	}
	buf = binary.AppendUvarint(buf, uint64(len(x.segments)))
	for _, s := range x.segments {
		buf = append(buf, byte(s.Module))
		buf = binary.AppendUvarint(buf, uint64(s.Version))
		buf = binary.AppendUvarint(buf, s.Records)
		n := s.Handle.EncodeVarints(tmp[:])
		buf = append(buf, tmp[:n]...)
	}
	return buf
}

func (x *index) decode(buf []byte, fileSize uint64) error {
	d := decoder{buf: buf}
	for _, h := range [...]*Handle{&x.job, &x.exe, &x.mounts, &x.names} {
		*h = d.handle()
	}
	n := d.uvarint()
	if d.err == nil && n > base.MaxModules {
		return base.CorruptionErrorf("iolog: invalid index (%d segments)", errors.Safe(n))
	}
	x.segments = make([]SegmentInfo, 0, n)
	for i := uint64(0); i < n && d.err == nil; i++ {
		var s SegmentInfo
		s.Module = base.ModuleID(d.u8())
		s.Version = uint32(d.uvarint())
		s.Records = d.uvarint()
		s.Handle = d.handle()
		if len(x.segments) > 0 && s.Module <= x.segments[len(x.segments)-1].Module {
			return base.CorruptionErrorf("iolog: invalid index (module %s out of order)", s.Module)
		}
		x.segments = append(x.segments, s)
	}
	if d.err != nil {
		return d.err
	}
	if len(d.buf) != 0 {
		return base.CorruptionErrorf("iolog: invalid index (%d trailing bytes)", errors.Safe(len(d.buf)))
	}
	check := func(h Handle) error {
		if h.Offset < headerLen || h.Offset+h.Length > fileSize-footerLen || h.Offset+h.Length < h.Offset {
			return base.CorruptionErrorf("iolog: invalid index (handle %d/%d out of bounds)",
				errors.Safe(h.Offset), errors.Safe(h.Length))
		}
		return nil
	}
	for _, h := range [...]Handle{x.job, x.exe, x.mounts, x.names} {
		if err := check(h); err != nil {
			return err
		}
	}
	for _, s := range x.segments {
		if err := check(s.Handle); err != nil {
			return err
		}
	}
	return nil
}

// decoder reads little endian and varint encoded values from a byte slice.
// The first failure is sticky and marked as corruption.
type decoder struct {
	buf []byte
	err error
}

func (d *decoder) fail() {
	if d.err == nil {
		d.err = base.CorruptionErrorf("iolog: unexpected end of section")
	}
	d.buf = nil
}

func (d *decoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.buf)
	if n <= 0 {
		d.fail()
		return 0
	}
	d.buf = d.buf[n:]
	return v
}

func (d *decoder) u8() byte {
	if d.err != nil || len(d.buf) < 1 {
		d.fail()
		return 0
	}
	b := d.buf[0]
	d.buf = d.buf[1:]
	return b
}

func (d *decoder) u64() uint64 {
	if d.err != nil || len(d.buf) < 8 {
		d.fail()
		return 0
	}
	v := binary.LittleEndian.Uint64(d.buf)
	d.buf = d.buf[8:]
	return v
}

// bytes reads a varint length prefixed byte string of at most max bytes.
func (d *decoder) bytes(max int) []byte {
	n := d.uvarint()
	if d.err != nil {
		return nil
	}
	if n > uint64(max) {
		d.err = base.CorruptionErrorf("iolog: string of %d bytes exceeds limit %d", errors.Safe(n), errors.Safe(max))
		d.buf = nil
		return nil
	}
	if uint64(len(d.buf)) < n {
		d.fail()
		return nil
	}
	b := d.buf[:n:n]
	d.buf = d.buf[n:]
	return b
}

func (d *decoder) handle() Handle {
	if d.err != nil {
		return Handle{}
	}
	h, n := DecodeHandle(d.buf)
	if n == 0 {
		d.fail()
		return Handle{}
	}
	d.buf = d.buf[n:]
	return h
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}
