// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package merge

import "github.com/cockroachdb/iolog/internal/base"

// ErrCorruption is a marker to indicate that an input is not a well-formed
// log file.
var ErrCorruption = base.ErrCorruption

// ErrCorruptInput marks an input whose job metadata records that its writer
// entered the shutdown sequence.
var ErrCorruptInput = base.ErrCorruptInput

// ErrNameConflict marks two inputs that map the same record identifier to
// different names.
var ErrNameConflict = base.ErrNameConflict

// ErrModuleWrite marks a record that could not be translated or written.
var ErrModuleWrite = base.ErrModuleWrite
