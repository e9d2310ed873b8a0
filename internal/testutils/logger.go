// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package testutils

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/iolog/internal/base"
)

// Logger is a logger that writes to a testing.TB.
type Logger struct {
	T testing.TB
}

var _ base.Logger = Logger{}

func (l Logger) Infof(format string, args ...interface{}) {
	l.T.Logf(format, args...)
}

func (l Logger) Errorf(format string, args ...interface{}) {
	l.T.Logf(format, args...)
}

func (l Logger) Fatalf(format string, args ...interface{}) {
	l.T.Helper()
	l.T.Fatalf(format, args...)
}

// CaptureLogger is a logger that records every message so tests can compare
// them against expected output. Fatalf panics.
type CaptureLogger struct {
	mu    sync.Mutex
	lines []string
}

var _ base.Logger = (*CaptureLogger)(nil)

func (l *CaptureLogger) add(prefix, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, prefix+strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *CaptureLogger) Infof(format string, args ...interface{}) {
	l.add("", format, args...)
}

func (l *CaptureLogger) Errorf(format string, args ...interface{}) {
	l.add("error: ", format, args...)
}

func (l *CaptureLogger) Fatalf(format string, args ...interface{}) {
	l.add("fatal: ", format, args...)
	panic(fmt.Sprintf(format, args...))
}

// String returns the recorded messages, one per line, and resets the logger.
func (l *CaptureLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var b strings.Builder
	for _, line := range l.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	l.lines = l.lines[:0]
	return b.String()
}
