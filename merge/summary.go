// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package merge

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/iolog/internal/base"
	"github.com/cockroachdb/iolog/logfile"
	"github.com/olekukonko/tablewriter"
)

// ModuleSummary describes the output segment of one module.
type ModuleSummary struct {
	Module base.ModuleID
	Name   string
	// Version is the format version of the output segment.
	Version uint32
	// RecordsRead is the number of records read from the inputs.
	RecordsRead uint64
	// SharedRecords is the number of aggregate records written.
	SharedRecords uint64
	// RecordsSkipped is the number of input records represented by an
	// aggregate.
	RecordsSkipped uint64
	// RecordsWritten is the number of records in the output segment.
	RecordsWritten uint64
}

// Summary describes a completed merge or conversion.
type Summary struct {
	Output  string
	Inputs  int
	Job     logfile.Job
	Names   int
	Modules []ModuleSummary
}

// String formats the summary as a table.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d inputs, %d names, start=%d end=%d\n",
		s.Output, s.Inputs, s.Names, s.Job.StartTime, s.Job.EndTime)
	tw := tablewriter.NewWriter(&b)
	tw.SetHeader([]string{"Module", "Version", "Read", "Shared", "Skipped", "Written"})
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, m := range s.Modules {
		tw.Append([]string{
			m.Name,
			fmt.Sprint(m.Version),
			fmt.Sprint(m.RecordsRead),
			fmt.Sprint(m.SharedRecords),
			fmt.Sprint(m.RecordsSkipped),
			fmt.Sprint(m.RecordsWritten),
		})
	}
	tw.Render()
	return b.String()
}
