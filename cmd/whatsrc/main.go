// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "whatsrc [subcommand]",
	Short: "A provenance index for upstream source tarballs and VCS snapshots",
}

func main() {
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(ingestTarCmd)
	rootCmd.AddCommand(ingestGitCmd)
	rootCmd.AddCommand(ingestSbomCmd)
	rootCmd.AddCommand(syncAptCmd)
	rootCmd.AddCommand(syncNPMCmd)
	rootCmd.AddCommand(syncCargoCmd)
	rootCmd.AddCommand(syncPacmanCmd)
	rootCmd.AddCommand(syncAPKCmd)
	rootCmd.AddCommand(syncVoidCmd)
	rootCmd.AddCommand(syncStageXCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
