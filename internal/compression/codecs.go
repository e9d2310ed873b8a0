// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package compression

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/golang/snappy"
	"github.com/minio/minlz"
)

type noopCompressor struct{}

func (noopCompressor) Algorithm() Algorithm { return NoCompression }

func (noopCompressor) Compress(dst, src []byte) []byte {
	return append(dst[:0], src...)
}

func (noopCompressor) Close() {}

type noopDecompressor struct{}

func (noopDecompressor) Decompress(dst, src []byte, limit int) ([]byte, error) {
	dst, err := sizeBuffer(NoCompression, dst, len(src), limit)
	if err != nil {
		return nil, err
	}
	copy(dst, src)
	return dst, nil
}

func (noopDecompressor) Close() {}

type snappyCompressor struct{}

func (snappyCompressor) Algorithm() Algorithm { return Snappy }

func (snappyCompressor) Compress(dst, src []byte) []byte {
	return snappy.Encode(dst[:cap(dst)], src)
}

func (snappyCompressor) Close() {}

type snappyDecompressor struct{}

func (snappyDecompressor) Decompress(dst, src []byte, limit int) ([]byte, error) {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return nil, base.MarkCorruptionError(err)
	}
	if dst, err = sizeBuffer(Snappy, dst, n, limit); err != nil {
		return nil, err
	}
	got, err := snappy.Decode(dst, src)
	if err != nil {
		return nil, base.MarkCorruptionError(err)
	}
	return dst, sameBuffer(Snappy, got, dst)
}

func (snappyDecompressor) Close() {}

type minlzCompressor struct {
	level int
}

func (c minlzCompressor) Algorithm() Algorithm { return MinLZ }

func (c minlzCompressor) Compress(dst, src []byte) []byte {
	// Blocks MinLZ cannot encode are written in the Snappy format, which
	// MinLZ decodes.
	if len(src) > minlz.MaxBlockSize {
		return snappyCompressor{}.Compress(dst, src)
	}
	out, err := minlz.Encode(dst[:cap(dst)], src, c.level)
	if err != nil {
		panic(errors.Wrap(err, "iolog: minlz compression"))
	}
	return out
}

func (c minlzCompressor) Close() {}

type minlzDecompressor struct{}

func (minlzDecompressor) Decompress(dst, src []byte, limit int) ([]byte, error) {
	n, err := minlz.DecodedLen(src)
	if err != nil {
		return nil, base.MarkCorruptionError(err)
	}
	if dst, err = sizeBuffer(MinLZ, dst, n, limit); err != nil {
		return nil, err
	}
	got, err := minlz.Decode(dst, src)
	if err != nil {
		return nil, base.MarkCorruptionError(err)
	}
	return dst, sameBuffer(MinLZ, got, dst)
}

func (minlzDecompressor) Close() {}
