// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build cgo

package compression

import (
	"encoding/binary"
	"sync"

	"github.com/DataDog/zstd"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
)

// Zstd blocks carry a uvarint prefix holding the decompressed length, so the
// reader can size its buffer before decoding.

type zstdCompressor struct {
	level int
	ctx   zstd.Ctx
}

var zstdCompressors = sync.Pool{
	New: func() any {
		return &zstdCompressor{ctx: zstd.NewCtx()}
	},
}

func getZstdCompressor(level int) *zstdCompressor {
	z := zstdCompressors.Get().(*zstdCompressor)
	z.level = level
	return z
}

func (z *zstdCompressor) Algorithm() Algorithm { return Zstd }

func (z *zstdCompressor) Compress(dst, src []byte) []byte {
	need := binary.MaxVarintLen64 + zstd.CompressBound(len(src))
	if cap(dst) < need {
		dst = make([]byte, need)
	}
	dst = dst[:need]
	n := binary.PutUvarint(dst, uint64(len(src)))
	out, err := z.ctx.CompressLevel(dst[n:], src, z.level)
	if err != nil {
		panic(errors.Wrap(err, "iolog: zstd compression"))
	}
	if len(out) > 0 && &out[0] != &dst[n] {
		panic(errors.AssertionFailedf("iolog: zstd reallocated a buffer of CompressBound size"))
	}
	return dst[:n+len(out)]
}

func (z *zstdCompressor) Close() {
	zstdCompressors.Put(z)
}

type zstdDecompressor struct {
	ctx zstd.Ctx
}

var zstdDecompressors = sync.Pool{
	New: func() any {
		return &zstdDecompressor{ctx: zstd.NewCtx()}
	},
}

func getZstdDecompressor() *zstdDecompressor {
	return zstdDecompressors.Get().(*zstdDecompressor)
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
	got, err := z.ctx.DecompressInto(dst, src[prefix:])
	if err != nil {
		return nil, base.MarkCorruptionError(err)
	}
	if got != len(dst) {
		return nil, base.CorruptionErrorf("iolog: zstd block decoded to %d bytes, expected %d",
			errors.Safe(got), errors.Safe(len(dst)))
	}
	return dst, nil
}

func (z *zstdDecompressor) Close() {
	zstdDecompressors.Put(z)
}
