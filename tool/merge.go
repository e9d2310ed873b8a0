// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/logfile"
	"github.com/cockroachdb/iolog/merge"
	"github.com/cockroachdb/iolog/modules"
	"github.com/cockroachdb/iolog/vfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

// mergeT implements the merge and convert commands.
type mergeT struct {
	Merge   *cobra.Command
	Convert *cobra.Command

	fs      vfs.FS
	modules *modules.Registry

	output      string
	shared      bool
	compression compressionFlag
	blockSize   int
	metricsFile string
	configFile  string
	verbose     bool
}

func newMerge(fs vfs.FS, r *modules.Registry) *mergeT {
	m := &mergeT{
		fs:      fs,
		modules: r,
	}

	m.Merge = &cobra.Command{
		Use:   "merge -o <output> <inputs>",
		Short: "merge the logs of a job",
		Long: `
Merge the logs written by the processes of a job into a single log. The job
description, executable and mount table are taken from the first input and
the job's time range is widened to cover every input. Module records are
copied in input order.

With --shared-redux, the records that every process of the job holds for the
same resource are replaced by a single aggregate record with rank -1.

Nothing is written to the output unless the merge succeeds.
`,
		Args:          cobra.MinimumNArgs(1),
		RunE:          m.runMerge,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	m.Convert = &cobra.Command{
		Use:   "convert -o <output> <input>",
		Short: "rewrite a log with current module versions",
		Long: `
Rewrite a log, translating the records of every module to the newest format
version of the module and compressing the output with the given algorithm.
`,
		Args:          cobra.ExactArgs(1),
		RunE:          m.runConvert,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	for _, cmd := range []*cobra.Command{m.Merge, m.Convert} {
		cmd.Flags().StringVarP(
			&m.output, "output", "o", "", "path of the log to write")
		_ = cmd.MarkFlagRequired("output")
		cmd.Flags().Var(
			&m.compression, "compression",
			fmt.Sprintf("compression algorithm of the output (%s)", compressionNames()))
		cmd.Flags().IntVar(
			&m.blockSize, "block-size", logfile.DefaultBlockSize, "target uncompressed block size of the output")
		cmd.Flags().StringVar(
			&m.metricsFile, "metrics-file", "", "write merge metrics in the Prometheus text format to this file")
		cmd.Flags().StringVar(
			&m.configFile, "config", "", "read settings from this YAML file; flags take precedence")
		cmd.Flags().BoolVarP(
			&m.verbose, "verbose", "v", false, "log progress")
	}
	m.Merge.Flags().BoolVar(
		&m.shared, "shared-redux", false, "aggregate records shared by every process")
	return m
}

// options returns the merge options of a single run: the flags, with the
// settings of the config file filled in. The returned mergeT is a copy; the
// command's own state is not modified.
func (m *mergeT) options(cmd *cobra.Command) (*mergeT, *merge.Options, error) {
	run := *m
	if m.configFile != "" {
		c, err := loadMergeConfig(m.fs, m.configFile)
		if err != nil {
			return nil, nil, err
		}
		if err := c.apply(cmd, &run); err != nil {
			return nil, nil, errors.Wrapf(err, "%s", m.configFile)
		}
	}
	opts := &merge.Options{
		FS:              run.fs,
		Logger:          logger{w: cmd.OutOrStderr(), verbose: run.verbose},
		Modules:         run.modules,
		SharedReduction: run.shared,
		Compression:     run.compression.a,
		BlockSize:       run.blockSize,
	}
	if run.metricsFile != "" {
		opts.Metrics = merge.NewMetrics()
	}
	return &run, opts, nil
}

func (m *mergeT) finish(cmd *cobra.Command, s *merge.Summary, metrics *merge.Metrics) error {
	if metrics != nil {
		if err := m.writeMetrics(metrics); err != nil {
			return errors.Wrapf(err, "writing metrics to %s", m.metricsFile)
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), s.String())
	return nil
}

// writeMetrics writes the metrics of a run in the Prometheus text format to
// the metrics file, through the tool's file system.
func (m *mergeT) writeMetrics(metrics *merge.Metrics) error {
	reg := prometheus.NewRegistry()
	for _, c := range metrics.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	f, err := m.fs.Create(m.metricsFile)
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err = expfmt.MetricFamilyToText(f, mf); err != nil {
			break
		}
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = m.fs.Remove(m.metricsFile)
	}
	return err
}

func (m *mergeT) runMerge(cmd *cobra.Command, args []string) error {
	run, opts, err := m.options(cmd)
	if err != nil {
		return err
	}
	s, err := merge.Merge(run.output, args, opts)
	if err != nil {
		return err
	}
	return run.finish(cmd, s, opts.Metrics)
}

func (m *mergeT) runConvert(cmd *cobra.Command, args []string) error {
	run, opts, err := m.options(cmd)
	if err != nil {
		return err
	}
	s, err := merge.Convert(run.output, args[0], opts)
	if err != nil {
		return err
	}
	return run.finish(cmd, s, opts.Metrics)
}
