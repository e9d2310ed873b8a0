// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package merge

import (
	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/internal/compression"
	"github.com/cockroachdb/iolog/logfile"
	"github.com/cockroachdb/iolog/modules"
	"github.com/cockroachdb/iolog/vfs"
)

// Logger defines an interface for writing log messages.
type Logger = base.Logger

// Options holds the parameters of a merge or conversion.
type Options struct {
	// FS provides the interface for persistent file storage.
	//
	// The default value uses the underlying operating system's file system.
	FS vfs.FS

	// Logger receives progress messages.
	//
	// The default value is base.DefaultLogger.
	Logger Logger

	// Modules holds the modules whose segments are carried into the output.
	// Segments of other modules are dropped.
	//
	// The default value is modules.DefaultRegistry().
	Modules *modules.Registry

	// SharedReduction enables the aggregation of records that every process
	// of the job holds for the same resource into a single record.
	SharedReduction bool

	// Compression is the compression algorithm used for the output.
	//
	// The default value is compression.DefaultAlgorithm.
	Compression compression.Algorithm

	// BlockSize is the target uncompressed block size of the output.
	//
	// The default value is logfile.DefaultBlockSize.
	BlockSize int

	// Metrics, if set, is updated as records are processed.
	Metrics *Metrics
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.FS == nil {
		o.FS = vfs.Default
	}
	if o.Logger == nil {
		o.Logger = base.DefaultLogger
	}
	if o.Modules == nil {
		o.Modules = modules.DefaultRegistry()
	}
	o.Compression = o.Compression.Resolve()
	if o.BlockSize <= 0 {
		o.BlockSize = logfile.DefaultBlockSize
	}
	return o
}

func (o *Options) writerOptions() logfile.WriterOptions {
	return logfile.WriterOptions{
		Compression: o.Compression,
		BlockSize:   o.BlockSize,
	}
}
