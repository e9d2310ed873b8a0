// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/internal/compression"
	"github.com/cockroachdb/iolog/modules"
)

// compressionFlag is a pflag.Value holding a compression algorithm.
type compressionFlag struct {
	a compression.Algorithm
}

func (f *compressionFlag) String() string {
	return f.a.String()
}

func (f *compressionFlag) Type() string {
	return "compression"
}

func (f *compressionFlag) Set(v string) error {
	a, err := compression.ParseAlgorithm(v)
	if err != nil {
		return err
	}
	f.a = a
	return nil
}

func compressionNames() string {
	var names []string
	for a := compression.Default; a < compression.NumAlgorithms; a++ {
		names = append(names, a.String())
	}
	return strings.Join(names, ", ")
}

// logger writes messages to the command's error stream. Informational
// messages are only written in verbose mode.
type logger struct {
	w       io.Writer
	verbose bool
}

var _ base.Logger = logger{}

func (l logger) Infof(format string, args ...interface{}) {
	if l.verbose {
		fmt.Fprintf(l.w, format+"\n", args...)
	}
}

func (l logger) Errorf(format string, args ...interface{}) {
	fmt.Fprintf(l.w, format+"\n", args...)
}

func (l logger) Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(l.w, format+"\n", args...)
	os.Exit(1)
}

func moduleName(r *modules.Registry, id base.ModuleID) string {
	if m, ok := r.Lookup(id); ok {
		return m.Name()
	}
	return fmt.Sprintf("module %d", id)
}
