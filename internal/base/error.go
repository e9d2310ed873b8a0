// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "github.com/cockroachdb/errors"

// ErrNotFound means that a requested section or module segment is not
// present in a log file.
var ErrNotFound = errors.New("iolog: not found")

// ErrCorruption is a marker to indicate that data in a log file is malformed
// or truncated.
var ErrCorruption = errors.New("iolog: corruption")

// ErrCorruptInput marks a log file whose job metadata records that the
// writer's shutdown sequence was entered, which means its contents may be
// incomplete. Such logs cannot be used as merge inputs.
var ErrCorruptInput = errors.New("iolog: potentially corrupt input")

// ErrNameConflict marks a record identifier that maps to two different names.
// This is most likely a hash collision.
var ErrNameConflict = errors.New("iolog: record name conflict")

// ErrModuleWrite marks a failure to translate or serialize a module record.
var ErrModuleWrite = errors.New("iolog: module record write failed")

// MarkCorruptionError marks given error as a corruption error.
func MarkCorruptionError(err error) error {
	if errors.Is(err, ErrCorruption) {
		return err
	}
	return errors.Mark(err, ErrCorruption)
}

// CorruptionErrorf formats according to a format specifier and returns
// the string as an error value that is marked as a corruption error.
func CorruptionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrCorruption)
}

// ModuleWriteErrorf formats according to a format specifier and returns the
// string as an error value that is marked with ErrModuleWrite.
func ModuleWriteErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrModuleWrite)
}
