// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"os"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
)

// ErrInjected is the cause of every error returned by an error-injecting FS.
var ErrInjected = errors.New("injected error")

// ErrorFSMode selects which operations an error-injecting FS counts.
type ErrorFSMode int

const (
	// ErrorFSRead counts Open, Stat and reads from files.
	ErrorFSRead ErrorFSMode = 1 << iota
	// ErrorFSWrite counts Create, writes and syncs.
	ErrorFSWrite
)

func (m ErrorFSMode) String() string {
	switch m {
	case ErrorFSRead:
		return "read"
	case ErrorFSWrite:
		return "write"
	case ErrorFSRead | ErrorFSWrite:
		return "read-write"
	}
	return "none"
}

// NewErrorFS wraps fs so that one operation fails with ErrInjected. Each
// operation selected by mode decrements index, and the operation that
// takes it from zero to -1 fails. Remove and Close never fail, so that
// cleanup paths can be exercised.
func NewErrorFS(index *atomic.Int32, mode ErrorFSMode, fs FS) FS {
	return &errorFS{fs: fs, index: index, mode: mode}
}

type errorFS struct {
	fs    FS
	index *atomic.Int32
	mode  ErrorFSMode
}

func (e *errorFS) inject(mode ErrorFSMode, op, name string) error {
	if e.mode&mode == 0 || e.index == nil {
		return nil
	}
	if e.index.Add(-1) != -1 {
		return nil
	}
	return errors.Wrapf(ErrInjected, "%s %s", errors.Safe(op), name)
}

func (e *errorFS) Create(name string) (File, error) {
	if err := e.inject(ErrorFSWrite, "create", name); err != nil {
		return nil, err
	}
	f, err := e.fs.Create(name)
	if err != nil {
		return nil, err
	}
	return &errorFile{File: f, fs: e, name: name}, nil
}

func (e *errorFS) Open(name string) (File, error) {
	if err := e.inject(ErrorFSRead, "open", name); err != nil {
		return nil, err
	}
	f, err := e.fs.Open(name)
	if err != nil {
		return nil, err
	}
	return &errorFile{File: f, fs: e, name: name}, nil
}

// Remove tolerates missing files.
func (e *errorFS) Remove(name string) error {
	if err := e.fs.Remove(name); err != nil && !oserror.IsNotExist(err) {
		return err
	}
	return nil
}

func (e *errorFS) Stat(name string) (os.FileInfo, error) {
	if err := e.inject(ErrorFSRead, "stat", name); err != nil {
		return nil, err
	}
	return e.fs.Stat(name)
}

// errorFile forwards Close unchanged.
type errorFile struct {
	File
	fs   *errorFS
	name string
}

func (f *errorFile) Read(p []byte) (int, error) {
	if err := f.fs.inject(ErrorFSRead, "read", f.name); err != nil {
		return 0, err
	}
	return f.File.Read(p)
}

func (f *errorFile) ReadAt(p []byte, off int64) (int, error) {
	if err := f.fs.inject(ErrorFSRead, "read", f.name); err != nil {
		return 0, err
	}
	return f.File.ReadAt(p, off)
}

func (f *errorFile) Write(p []byte) (int, error) {
	if err := f.fs.inject(ErrorFSWrite, "write", f.name); err != nil {
		return 0, err
	}
	return f.File.Write(p)
}

func (f *errorFile) Stat() (os.FileInfo, error) {
	if err := f.fs.inject(ErrorFSRead, "stat", f.name); err != nil {
		return nil, err
	}
	return f.File.Stat()
}

func (f *errorFile) Sync() error {
	if err := f.fs.inject(ErrorFSWrite, "sync", f.name); err != nil {
		return err
	}
	return f.File.Sync()
}
