// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"log"

	"github.com/cockroachdb/iolog/tool"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "iolog [command] (flags)",
	Short: "I/O characterization log tool",
	Long:  ``,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(tool.New().Commands...)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
