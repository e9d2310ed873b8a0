// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package logfile

import (
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/internal/compression"
	"github.com/cockroachdb/iolog/vfs"
)

// checksum returns the checksum of a block payload and its compression
// indicator.
func checksum(h *xxhash.Digest, payload []byte, indicator byte) uint32 {
	h.Reset()
	_, _ = h.Write(payload)
	_, _ = h.Write([]byte{indicator})
	return uint32(h.Sum64())
}

// blockWriter accumulates the uncompressed contents of a region and writes
// them out as a sequence of checksummed, compressed blocks.
type blockWriter struct {
	w          io.Writer
	compressor compression.Compressor
	blockSize  int
	hasher     *xxhash.Digest

	// offset is the file offset of the next byte written.
	offset uint64
	// start is the file offset of the current region.
	start uint64
	buf   []byte
	cbuf  []byte
	err   error
}

func (w *blockWriter) init(
	f io.Writer, offset uint64, compressor compression.Compressor, blockSize int,
) {
	*w = blockWriter{
		w:          f,
		compressor: compressor,
		blockSize:  blockSize,
		hasher:     xxhash.New(),
		offset:     offset,
		start:      offset,
		buf:        make([]byte, 0, blockSize),
	}
}

// startRegion begins a new region at the current offset.
func (w *blockWriter) startRegion() {
	if n := len(w.buf); n != 0 {
		panic(errors.AssertionFailedf("iolog: region started with %d buffered bytes", errors.Safe(n)))
	}
	w.start = w.offset
}

// Write buffers p as part of the current region.
func (w *blockWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n := len(p)
	for len(p) > 0 {
		avail := w.blockSize - len(w.buf)
		if avail > len(p) {
			avail = len(p)
		}
		w.buf = append(w.buf, p[:avail]...)
		p = p[avail:]
		if len(w.buf) >= w.blockSize {
			if err := w.flushBlock(); err != nil {
				return 0, err
			}
		}
	}
	return n, nil
}

// finishRegion flushes any buffered data and returns the handle of the
// region.
func (w *blockWriter) finishRegion() (Handle, error) {
	if len(w.buf) > 0 {
		if err := w.flushBlock(); err != nil {
			return Handle{}, err
		}
	}
	if w.err != nil {
		return Handle{}, w.err
	}
	return Handle{Offset: w.start, Length: w.offset - w.start}, nil
}

func (w *blockWriter) flushBlock() error {
	raw := w.buf
	// Store the block uncompressed unless compression saves at least 12.5%.
	indicator := compression.NoCompression
	payload := raw
	if w.compressor.Algorithm() != compression.NoCompression {
		w.cbuf = w.compressor.Compress(w.cbuf[:0], raw)
		if len(w.cbuf) < len(raw)-len(raw)/8 {
			indicator = w.compressor.Algorithm()
			payload = w.cbuf
		}
	}

	var prefix [blockPrefixLen]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(payload)))
	var trailer [blockTrailerLen]byte
	trailer[0] = byte(indicator)
	binary.LittleEndian.PutUint32(trailer[1:], checksum(w.hasher, payload, byte(indicator)))

	for _, b := range [...][]byte{prefix[:], payload, trailer[:]} {
		if _, err := w.w.Write(b); err != nil {
			w.err = err
			return err
		}
		w.offset += uint64(len(b))
	}
	w.buf = w.buf[:0]
	return nil
}

// blockReader decodes the blocks of a single region. It implements
// io.Reader over the region's uncompressed contents.
type blockReader struct {
	f      vfs.File
	handle Handle
	hasher *xxhash.Digest

	// off is the file offset of the next block.
	off uint64
	// block holds the uncompressed contents of the current block; pos is the
	// read position within it.
	block []byte
	pos   int
	raw   []byte
	decs  [compression.NumAlgorithms]compression.Decompressor
}

func (r *blockReader) init(f vfs.File, h Handle) {
	*r = blockReader{
		f:      f,
		handle: h,
		hasher: xxhash.New(),
		off:    h.Offset,
	}
}

func (r *blockReader) close() {
	for i, d := range r.decs {
		if d != nil {
			d.Close()
			r.decs[i] = nil
		}
	}
}

// Read implements io.Reader. It returns io.EOF once the region is
// exhausted.
func (r *blockReader) Read(p []byte) (int, error) {
	for r.pos == len(r.block) {
		if err := r.readBlock(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.block[r.pos:])
	r.pos += n
	return n, nil
}

// readAll returns the remaining contents of the region. The result is not
// retained by the reader.
func (r *blockReader) readAll() ([]byte, error) {
	var out []byte
	for {
		out = append(out, r.block[r.pos:]...)
		r.pos = len(r.block)
		if err := r.readBlock(); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
	}
}

func (r *blockReader) readBlock() error {
	end := r.handle.Offset + r.handle.Length
	if r.off == end {
		return io.EOF
	}
	if end-r.off < blockPrefixLen+blockTrailerLen {
		return base.CorruptionErrorf("iolog: truncated block at offset %d", errors.Safe(r.off))
	}
	var prefix [blockPrefixLen]byte
	if _, err := r.f.ReadAt(prefix[:], int64(r.off)); err != nil {
		return r.readErr(err)
	}
	n := uint64(binary.LittleEndian.Uint32(prefix[:]))
	if n > end-r.off-blockPrefixLen-blockTrailerLen {
		return base.CorruptionErrorf("iolog: block at offset %d overruns its region", errors.Safe(r.off))
	}
	if uint64(cap(r.raw)) < n+blockTrailerLen {
		r.raw = make([]byte, n+blockTrailerLen)
	}
	r.raw = r.raw[:n+blockTrailerLen]
	if _, err := r.f.ReadAt(r.raw, int64(r.off+blockPrefixLen)); err != nil {
		return r.readErr(err)
	}
	payload, trailer := r.raw[:n], r.raw[n:]
	indicator := compression.Algorithm(trailer[0])
	expected := binary.LittleEndian.Uint32(trailer[1:])
	if computed := checksum(r.hasher, payload, trailer[0]); computed != expected {
		return base.CorruptionErrorf("iolog: block at offset %d checksum mismatch %08x != %08x",
			errors.Safe(r.off), errors.Safe(computed), errors.Safe(expected))
	}
	if !indicator.Valid() {
		return base.CorruptionErrorf("iolog: block at offset %d has unknown compression %d",
			errors.Safe(r.off), errors.Safe(trailer[0]))
	}
	if r.decs[indicator] == nil {
		r.decs[indicator] = compression.GetDecompressor(indicator)
	}
	block, err := r.decs[indicator].Decompress(r.block[:0], payload, MaxBlockSize)
	if err != nil {
		return errors.Wrapf(err, "iolog: block at offset %d", errors.Safe(r.off))
	}
	r.block = block
	r.pos = 0
	r.off += blockPrefixLen + n + blockTrailerLen
	return nil
}

func (r *blockReader) readErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return base.CorruptionErrorf("iolog: truncated block at offset %d", errors.Safe(r.off))
	}
	return errors.Wrapf(err, "iolog: reading block at offset %d", errors.Safe(r.off))
}
