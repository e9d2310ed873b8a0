// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
)

// MemFS is a memory-backed FS. It has no directories: names are cleaned with
// path.Clean and otherwise treated as opaque keys.
type MemFS struct {
	mu    sync.Mutex
	files map[string]*memNode
}

var _ FS = (*MemFS)(nil)

// NewMem returns a new, empty MemFS.
func NewMem() *MemFS {
	return &MemFS{files: make(map[string]*memNode)}
}

func (y *MemFS) lookup(op, name string) (*memNode, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	n, ok := y.files[path.Clean(name)]
	if !ok {
		return nil, &os.PathError{Op: op, Path: name, Err: oserror.ErrNotExist}
	}
	return n, nil
}

// Create implements FS.Create. Files already open on a replaced name keep
// reading the old contents.
func (y *MemFS) Create(name string) (File, error) {
	key := path.Clean(name)
	if key == "." || key == "/" {
		return nil, &os.PathError{Op: "create", Path: name, Err: errors.New("invalid file name")}
	}
	n := &memNode{name: path.Base(key), modTime: time.Now()}
	y.mu.Lock()
	y.files[key] = n
	y.mu.Unlock()
	return &memFile{n: n, write: true}, nil
}

// Open implements FS.Open.
func (y *MemFS) Open(name string) (File, error) {
	n, err := y.lookup("open", name)
	if err != nil {
		return nil, err
	}
	return &memFile{n: n}, nil
}

// Remove implements FS.Remove.
func (y *MemFS) Remove(name string) error {
	key := path.Clean(name)
	y.mu.Lock()
	defer y.mu.Unlock()
	if _, ok := y.files[key]; !ok {
		return &os.PathError{Op: "remove", Path: name, Err: oserror.ErrNotExist}
	}
	delete(y.files, key)
	return nil
}

// Stat implements FS.Stat.
func (y *MemFS) Stat(name string) (os.FileInfo, error) {
	n, err := y.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	return n.stat(), nil
}

// String lists the files of the MemFS in name order along with their sizes.
func (y *MemFS) String() string {
	y.mu.Lock()
	defer y.mu.Unlock()
	names := make([]string, 0, len(y.files))
	for name := range y.files {
		names = append(names, name)
	}
	slices.Sort(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%8d  %s\n", y.files[name].stat().Size(), name)
	}
	return b.String()
}

// memNode holds the contents of a file.
type memNode struct {
	name    string
	mu      sync.Mutex
	data    []byte
	modTime time.Time
}

func (n *memNode) stat() os.FileInfo {
	n.mu.Lock()
	defer n.mu.Unlock()
	return memFileInfo{name: n.name, size: int64(len(n.data)), modTime: n.modTime}
}

// memFile is an open handle on a memNode. Writes always append.
type memFile struct {
	n      *memNode
	pos    int
	write  bool
	closed bool
}

var _ File = (*memFile)(nil)

var errClosed = errors.New("iolog/vfs: file already closed")

func (f *memFile) Close() error {
	if f.closed {
		return errClosed
	}
	f.closed = true
	return nil
}

func (f *memFile) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, int64(f.pos))
	f.pos += n
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, errClosed
	}
	if f.write {
		return 0, errors.New("iolog/vfs: file was not opened for reading")
	}
	f.n.mu.Lock()
	defer f.n.mu.Unlock()
	if off < 0 {
		return 0, errors.New("iolog/vfs: negative offset")
	}
	if off >= int64(len(f.n.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.n.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, errClosed
	}
	if !f.write {
		return 0, errors.New("iolog/vfs: file was not created for writing")
	}
	f.n.mu.Lock()
	defer f.n.mu.Unlock()
	f.n.data = append(f.n.data, p...)
	f.n.modTime = time.Now()
	return len(p), nil
}

func (f *memFile) Stat() (os.FileInfo, error) {
	if f.closed {
		return nil, errClosed
	}
	return f.n.stat(), nil
}

func (f *memFile) Sync() error {
	if f.closed {
		return errClosed
	}
	return nil
}

// memFileInfo implements os.FileInfo.
type memFileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (i memFileInfo) Name() string       { return i.name }
func (i memFileInfo) Size() int64        { return i.size }
func (i memFileInfo) Mode() os.FileMode  { return 0644 }
func (i memFileInfo) ModTime() time.Time { return i.modTime }
func (i memFileInfo) IsDir() bool        { return false }
func (i memFileInfo) Sys() interface{}   { return nil }
