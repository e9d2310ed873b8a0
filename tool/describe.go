// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/logfile"
	"github.com/cockroachdb/iolog/modules"
	"github.com/cockroachdb/iolog/vfs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// describeT implements the describe command.
type describeT struct {
	Describe *cobra.Command

	fs      vfs.FS
	modules *modules.Registry
}

func newDescribe(fs vfs.FS, r *modules.Registry) *describeT {
	d := &describeT{
		fs:      fs,
		modules: r,
	}
	d.Describe = &cobra.Command{
		Use:   "describe <logs>",
		Short: "print the structure of logs",
		Long: `
Print the format version, compression, job description, executable, mount
and name counts and the module segments of each log.
`,
		Args:          cobra.MinimumNArgs(1),
		RunE:          d.runDescribe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	return d
}

func (d *describeT) runDescribe(cmd *cobra.Command, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.OutOrStderr()
	var failed int
	for _, arg := range args {
		if err := d.describe(stdout, arg); err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			failed++
		}
	}
	if failed > 0 {
		return errors.Newf("describe: %d of %d logs could not be read", errors.Safe(failed), errors.Safe(len(args)))
	}
	return nil
}

func (d *describeT) describe(w io.Writer, path string) error {
	r, err := logfile.Open(d.fs, path)
	if err != nil {
		return err
	}
	defer r.Close()

	job, err := r.ReadJob()
	if err != nil {
		return errors.Wrap(err, path)
	}
	exe, err := r.ReadExe()
	if err != nil {
		return errors.Wrap(err, path)
	}
	mounts, err := r.ReadMounts()
	if err != nil {
		return errors.Wrap(err, path)
	}
	names, err := r.ReadNameTable()
	if err != nil {
		return errors.Wrap(err, path)
	}

	h := r.Header()
	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "  format %s, compression %s\n", h.Version, h.Compression)
	fmt.Fprintf(w, "  %s\n", &job)
	fmt.Fprintf(w, "  exe %s\n", exe)
	fmt.Fprintf(w, "  %d mounts, %d names\n", len(mounts), len(names))

	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Module", "Version", "Records"})
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, s := range r.Modules() {
		tw.Append([]string{
			moduleName(d.modules, s.Module),
			fmt.Sprint(s.Version),
			fmt.Sprint(s.Records),
		})
	}
	tw.Render()
	return nil
}
