// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

func TestMakeRecordID(t *testing.T) {
	a := MakeRecordID("/scratch/run1/out.h5")
	require.Equal(t, a, MakeRecordID("/scratch/run1/out.h5"))
	require.NotEqual(t, a, MakeRecordID("/scratch/run1/out.h6"))
}

func TestRecordIDFormat(t *testing.T) {
	id := RecordID(0xabc)
	require.Equal(t, "0000000000000abc", id.String())
	// Identifiers are safe and must survive redaction.
	require.Equal(t, "0000000000000abc", string(redact.Sprint(id).Redact()))
	require.Equal(t, "12", ModuleID(12).String())
}

func TestErrorMarks(t *testing.T) {
	err := errors.Wrap(CorruptionErrorf("bad block at %d", 12), "reading")
	require.True(t, errors.Is(err, ErrCorruption))
	require.False(t, errors.Is(err, ErrModuleWrite))

	err = ModuleWriteErrorf("cannot downgrade")
	require.True(t, errors.Is(err, ErrModuleWrite))

	plain := errors.New("disk on fire")
	require.True(t, errors.Is(MarkCorruptionError(plain), ErrCorruption))
	marked := MarkCorruptionError(plain)
	require.Equal(t, marked, MarkCorruptionError(marked))
}
