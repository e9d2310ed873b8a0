// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package modules

// POSIXModuleID identifies the POSIX module.
const POSIXModuleID = 1

var posixV1 = &Layout{
	Version: 1,
	Counters: []Field{
		{"POSIX_OPENS", Sum},
		{"POSIX_READS", Sum},
		{"POSIX_WRITES", Sum},
		{"POSIX_SEEKS", Sum},
		{"POSIX_STATS", Sum},
		{"POSIX_BYTES_READ", Sum},
		{"POSIX_BYTES_WRITTEN", Sum},
		{"POSIX_MAX_BYTE_READ", Max},
		{"POSIX_MAX_BYTE_WRITTEN", Max},
		{"POSIX_MODE", FirstNonZero},
		{"POSIX_MEM_ALIGNMENT", FirstNonZero},
		{"POSIX_FILE_ALIGNMENT", FirstNonZero},
		{"POSIX_FASTEST_RANK", FastestRank},
		{"POSIX_FASTEST_RANK_BYTES", FastestRankBytes},
		{"POSIX_SLOWEST_RANK", SlowestRank},
		{"POSIX_SLOWEST_RANK_BYTES", SlowestRankBytes},
	},
	FCounters: posixFCounters,
}

// Version 2 counts renames. The new counters sit between the existing ones,
// which is why records are translated by name.
var posixV2 = &Layout{
	Version: 2,
	Counters: []Field{
		{"POSIX_OPENS", Sum},
		{"POSIX_READS", Sum},
		{"POSIX_WRITES", Sum},
		{"POSIX_SEEKS", Sum},
		{"POSIX_STATS", Sum},
		{"POSIX_RENAME_SOURCES", Sum},
		{"POSIX_RENAME_TARGETS", Sum},
		{"POSIX_BYTES_READ", Sum},
		{"POSIX_BYTES_WRITTEN", Sum},
		{"POSIX_MAX_BYTE_READ", Max},
		{"POSIX_MAX_BYTE_WRITTEN", Max},
		{"POSIX_MODE", FirstNonZero},
		{"POSIX_MEM_ALIGNMENT", FirstNonZero},
		{"POSIX_FILE_ALIGNMENT", FirstNonZero},
		{"POSIX_FASTEST_RANK", FastestRank},
		{"POSIX_FASTEST_RANK_BYTES", FastestRankBytes},
		{"POSIX_SLOWEST_RANK", SlowestRank},
		{"POSIX_SLOWEST_RANK_BYTES", SlowestRankBytes},
	},
	FCounters: posixFCounters,
}

var posixFCounters = []Field{
	{"POSIX_F_OPEN_START_TIMESTAMP", MinNonZero},
	{"POSIX_F_READ_START_TIMESTAMP", MinNonZero},
	{"POSIX_F_WRITE_START_TIMESTAMP", MinNonZero},
	{"POSIX_F_OPEN_END_TIMESTAMP", Max},
	{"POSIX_F_READ_END_TIMESTAMP", Max},
	{"POSIX_F_WRITE_END_TIMESTAMP", Max},
	{"POSIX_F_READ_TIME", Sum},
	{"POSIX_F_WRITE_TIME", Sum},
	{"POSIX_F_META_TIME", Sum},
	{"POSIX_F_FASTEST_RANK_TIME", FastestRankTime},
	{"POSIX_F_SLOWEST_RANK_TIME", SlowestRankTime},
	{"POSIX_F_VARIANCE_RANK_TIME", VarianceRankTime},
	{"POSIX_F_VARIANCE_RANK_BYTES", VarianceRankBytes},
}

// POSIX is the module describing files accessed through the POSIX I/O
// interface.
var POSIX = NewCounterModule(
	POSIXModuleID, "POSIX",
	[]string{"POSIX_F_READ_TIME", "POSIX_F_WRITE_TIME", "POSIX_F_META_TIME"},
	[]string{"POSIX_BYTES_READ", "POSIX_BYTES_WRITTEN"},
	posixV1, posixV2,
)
