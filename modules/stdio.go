// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package modules

// STDIOModuleID identifies the STDIO module.
const STDIOModuleID = 8

var stdioV1 = &Layout{
	Version: 1,
	Counters: []Field{
		{"STDIO_OPENS", Sum},
		{"STDIO_FDOPENS", Sum},
		{"STDIO_READS", Sum},
		{"STDIO_WRITES", Sum},
		{"STDIO_SEEKS", Sum},
		{"STDIO_FLUSHES", Sum},
		{"STDIO_BYTES_WRITTEN", Sum},
		{"STDIO_BYTES_READ", Sum},
		{"STDIO_MAX_BYTE_READ", Max},
		{"STDIO_MAX_BYTE_WRITTEN", Max},
		{"STDIO_FASTEST_RANK", FastestRank},
		{"STDIO_FASTEST_RANK_BYTES", FastestRankBytes},
		{"STDIO_SLOWEST_RANK", SlowestRank},
		{"STDIO_SLOWEST_RANK_BYTES", SlowestRankBytes},
	},
	FCounters: []Field{
		{"STDIO_F_META_TIME", Sum},
		{"STDIO_F_WRITE_TIME", Sum},
		{"STDIO_F_READ_TIME", Sum},
		{"STDIO_F_OPEN_START_TIMESTAMP", MinNonZero},
		{"STDIO_F_CLOSE_START_TIMESTAMP", MinNonZero},
		{"STDIO_F_WRITE_START_TIMESTAMP", MinNonZero},
		{"STDIO_F_READ_START_TIMESTAMP", MinNonZero},
		{"STDIO_F_OPEN_END_TIMESTAMP", Max},
		{"STDIO_F_CLOSE_END_TIMESTAMP", Max},
		{"STDIO_F_WRITE_END_TIMESTAMP", Max},
		{"STDIO_F_READ_END_TIMESTAMP", Max},
		{"STDIO_F_FASTEST_RANK_TIME", FastestRankTime},
		{"STDIO_F_SLOWEST_RANK_TIME", SlowestRankTime},
		{"STDIO_F_VARIANCE_RANK_TIME", VarianceRankTime},
		{"STDIO_F_VARIANCE_RANK_BYTES", VarianceRankBytes},
	},
}

// STDIO is the module describing streams accessed through the C standard
// I/O library.
var STDIO = NewCounterModule(
	STDIOModuleID, "STDIO",
	[]string{"STDIO_F_META_TIME", "STDIO_F_WRITE_TIME", "STDIO_F_READ_TIME"},
	[]string{"STDIO_BYTES_READ", "STDIO_BYTES_WRITTEN"},
	stdioV1,
)
