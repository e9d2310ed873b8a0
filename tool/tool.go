// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package tool implements the iolog command line tools.
package tool

import (
	"github.com/cockroachdb/iolog/modules"
	"github.com/cockroachdb/iolog/vfs"
	"github.com/spf13/cobra"
)

// T is the container for all of the log tools.
type T struct {
	Commands []*cobra.Command
	merge    *mergeT
	describe *describeT

	fs      vfs.FS
	modules *modules.Registry
}

// An Option configures the tools.
type Option func(*T)

// FS sets the file system the tools read and write logs through. The
// default is vfs.Default.
func FS(fs vfs.FS) Option {
	return func(t *T) {
		t.fs = fs
	}
}

// Modules sets the modules the tools understand. The default is
// modules.DefaultRegistry().
func Modules(r *modules.Registry) Option {
	return func(t *T) {
		t.modules = r
	}
}

// New creates a new set of log tools.
func New(opts ...Option) *T {
	t := &T{
		fs:      vfs.Default,
		modules: modules.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.merge = newMerge(t.fs, t.modules)
	t.describe = newDescribe(t.fs, t.modules)
	t.Commands = []*cobra.Command{
		t.merge.Merge,
		t.merge.Convert,
		t.describe.Describe,
	}
	return t
}
