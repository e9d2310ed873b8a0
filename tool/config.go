// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/compression"
	"github.com/cockroachdb/iolog/vfs"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"
)

// mergeConfig is the file form of the merge and convert flags. A flag given
// on the command line overrides the corresponding setting of the file.
type mergeConfig struct {
	SharedRedux *bool    `yaml:"shared_redux"`
	Compression string   `yaml:"compression"`
	BlockSize   int      `yaml:"block_size"`
	MetricsFile string   `yaml:"metrics_file"`
	Verbose     *bool    `yaml:"verbose"`
	Modules     []string `yaml:"modules"`
}

func loadMergeConfig(fs vfs.FS, path string) (*mergeConfig, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	c := &mergeConfig{}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return c, nil
}

// apply copies the settings of the file that were not given as flags into
// m, which is a copy of the command's state for a single run.
func (c *mergeConfig) apply(cmd *cobra.Command, m *mergeT) error {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f == nil || f.Changed
	}
	if c.SharedRedux != nil && !changed("shared-redux") {
		m.shared = *c.SharedRedux
	}
	if c.Compression != "" && !changed("compression") {
		a, err := compression.ParseAlgorithm(c.Compression)
		if err != nil {
			return err
		}
		m.compression.a = a
	}
	if c.BlockSize != 0 && !changed("block-size") {
		m.blockSize = c.BlockSize
	}
	if c.MetricsFile != "" && !changed("metrics-file") {
		m.metricsFile = c.MetricsFile
	}
	if c.Verbose != nil && !changed("verbose") {
		m.verbose = *c.Verbose
	}
	if len(c.Modules) > 0 {
		r, err := m.modules.Subset(c.Modules...)
		if err != nil {
			return err
		}
		m.modules = r
	}
	return nil
}
