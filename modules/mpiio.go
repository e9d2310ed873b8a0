// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package modules

// MPIIOModuleID identifies the MPI-IO module.
const MPIIOModuleID = 2

var mpiioV1 = &Layout{
	Version: 1,
	Counters: []Field{
		{"MPIIO_INDEP_OPENS", Sum},
		{"MPIIO_COLL_OPENS", Sum},
		{"MPIIO_INDEP_READS", Sum},
		{"MPIIO_INDEP_WRITES", Sum},
		{"MPIIO_COLL_READS", Sum},
		{"MPIIO_COLL_WRITES", Sum},
		{"MPIIO_SPLIT_READS", Sum},
		{"MPIIO_SPLIT_WRITES", Sum},
		{"MPIIO_NB_READS", Sum},
		{"MPIIO_NB_WRITES", Sum},
		{"MPIIO_SYNCS", Sum},
		{"MPIIO_HINTS", Sum},
		{"MPIIO_VIEWS", Sum},
		{"MPIIO_MODE", FirstNonZero},
		{"MPIIO_BYTES_READ", Sum},
		{"MPIIO_BYTES_WRITTEN", Sum},
		{"MPIIO_RW_SWITCHES", Sum},
		{"MPIIO_FASTEST_RANK", FastestRank},
		{"MPIIO_FASTEST_RANK_BYTES", FastestRankBytes},
		{"MPIIO_SLOWEST_RANK", SlowestRank},
		{"MPIIO_SLOWEST_RANK_BYTES", SlowestRankBytes},
	},
	FCounters: []Field{
		{"MPIIO_F_OPEN_START_TIMESTAMP", MinNonZero},
		{"MPIIO_F_READ_START_TIMESTAMP", MinNonZero},
		{"MPIIO_F_WRITE_START_TIMESTAMP", MinNonZero},
		{"MPIIO_F_CLOSE_END_TIMESTAMP", Max},
		{"MPIIO_F_READ_END_TIMESTAMP", Max},
		{"MPIIO_F_WRITE_END_TIMESTAMP", Max},
		{"MPIIO_F_READ_TIME", Sum},
		{"MPIIO_F_WRITE_TIME", Sum},
		{"MPIIO_F_META_TIME", Sum},
		{"MPIIO_F_FASTEST_RANK_TIME", FastestRankTime},
		{"MPIIO_F_SLOWEST_RANK_TIME", SlowestRankTime},
		{"MPIIO_F_VARIANCE_RANK_TIME", VarianceRankTime},
		{"MPIIO_F_VARIANCE_RANK_BYTES", VarianceRankBytes},
	},
}

// MPIIO is the module describing files accessed through MPI-IO.
var MPIIO = NewCounterModule(
	MPIIOModuleID, "MPI-IO",
	[]string{"MPIIO_F_READ_TIME", "MPIIO_F_WRITE_TIME", "MPIIO_F_META_TIME"},
	[]string{"MPIIO_BYTES_READ", "MPIIO_BYTES_WRITTEN"},
	mpiioV1,
)
