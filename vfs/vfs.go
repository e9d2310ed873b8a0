// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package vfs abstracts the file system that log files are read from and
// written to, so that merges can run against memory in tests and against
// failure-injecting file systems.
package vfs // import "github.com/cockroachdb/iolog/vfs"

import (
	"io"
	"os"
	"syscall"
)

// File is an open log file. Files returned by Create are written
// sequentially; files returned by Open are read sequentially or at
// arbitrary offsets.
type File interface {
	io.Closer
	io.Reader
	io.ReaderAt
	io.Writer
	Stat() (os.FileInfo, error)
	Sync() error
}

// FS is a namespace for log files.
type FS interface {
	// Create creates the named file for writing, truncating it if it already
	// exists.
	Create(name string) (File, error)

	// Open opens the named file for reading. A missing file is reported with
	// an error satisfying oserror.IsNotExist.
	Open(name string) (File, error)

	// Remove removes the named file.
	Remove(name string) error

	// Stat describes the named file.
	Stat(name string) (os.FileInfo, error)
}

// Default is the file system of the operating system.
var Default FS = osFS{}

type osFS struct{}

func (osFS) Create(name string) (File, error) {
	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC|syscall.O_CLOEXEC, 0644)
}

func (osFS) Open(name string) (File, error) {
	return os.OpenFile(name, os.O_RDONLY|syscall.O_CLOEXEC, 0)
}

func (osFS) Remove(name string) error {
	return os.Remove(name)
}

func (osFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}
