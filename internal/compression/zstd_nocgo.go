// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build !cgo

package compression

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/klauspost/compress/zstd"
)

// Zstd blocks carry a uvarint prefix holding the decompressed length, so the
// reader can size its buffer before decoding. The format matches the cgo
// build.

type zstdCompressor struct {
	enc *zstd.Encoder
}

func getZstdCompressor(level int) *zstdCompressor {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		panic(errors.Wrap(err, "iolog: zstd encoder"))
	}
	return &zstdCompressor{enc: enc}
}

func (z *zstdCompressor) Algorithm() Algorithm { return Zstd }

func (z *zstdCompressor) Compress(dst, src []byte) []byte {
	dst = binary.AppendUvarint(dst[:0], uint64(len(src)))
	return z.enc.EncodeAll(src, dst)
}

func (z *zstdCompressor) Close() {
	if err := z.enc.Close(); err != nil {
		panic(errors.Wrap(err, "iolog: zstd encoder"))
	}
}

type zstdDecompressor struct {
	dec *zstd.Decoder
}

func getZstdDecompressor() *zstdDecompressor {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		panic(errors.Wrap(err, "iolog: zstd decoder"))
	}
	return &zstdDecompressor{dec: dec}
}

func (z *zstdDecompressor) Decompress(dst, src []byte, limit int) ([]byte, error) {
	n, prefix := binary.Uvarint(src)
	if prefix <= 0 || n > uint64(limit) {
		return nil, base.CorruptionErrorf("iolog: zstd block has invalid length prefix")
	}
	dst, err := sizeBuffer(Zstd, dst, int(n), limit)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return dst, nil
	}
	got, err := z.dec.DecodeAll(src[prefix:], dst[:0])
	if err != nil {
		return nil, base.MarkCorruptionError(err)
	}
	return dst, sameBuffer(Zstd, got, dst)
}

func (z *zstdDecompressor) Close() {
	z.dec.Close()
}
