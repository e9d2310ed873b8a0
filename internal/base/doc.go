// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base defines fundamental types used across iolog: record and module
// identifiers, the error classes every layer marks its errors with, and the
// Logger interface.
//
// # Record identifiers
//
// A [RecordID] is a stable 64-bit hash of a resource name (typically a file
// path). The same name always hashes to the same identifier, so identifiers
// are shared by every module and every log file of a job. The name itself is
// stored once per log in the record name table.
//
// # Errors
//
// Errors are classified by marking them (see errors.Mark) with one of the
// sentinels declared in error.go. Callers test for a class with errors.Is,
// which sees through any amount of wrapping.
package base
