// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/whatsrc/whatsrc/internal/db"
	"github.com/whatsrc/whatsrc/internal/taskqueue"
	"github.com/whatsrc/whatsrc/pkg/bridge/pacman"
)

var (
	syncPacmanDBDSN string
	syncPacmanName  string
	syncPacmanVer   string
	syncPacmanTag   string
)

var syncPacmanCmd = &cobra.Command{
	Use:   "sync-pacman",
	Short: "Enqueue a snapshot of an Arch packaging repo tag for .SRCINFO discovery",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		d, err := db.Connect(ctx, syncPacmanDBDSN)
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer d.Close()

		task := pacman.NewSnapshotTask("archlinux", syncPacmanName, syncPacmanVer, syncPacmanTag)
		q := taskqueue.New(d.Pool())
		if err := q.Insert(ctx, task); err != nil {
			log.Fatalf("enqueuing task: %v", err)
		}
		if err := d.BumpNamedRefs(ctx, "archlinux", syncPacmanName, syncPacmanVer); err != nil {
			log.Fatalf("recording package: %v", err)
		}
		log.Printf("enqueued pacman snapshot for %s@%s (tag %s)", syncPacmanName, syncPacmanVer, syncPacmanTag)
	},
}

func init() {
	syncPacmanCmd.Flags().StringVar(&syncPacmanDBDSN, "db-dsn", os.Getenv("WHATSRC_DB_DSN"), "PostgreSQL connection string")
	syncPacmanCmd.Flags().StringVar(&syncPacmanName, "name", "", "package name")
	syncPacmanCmd.Flags().StringVar(&syncPacmanVer, "version", "", "package version")
	syncPacmanCmd.Flags().StringVar(&syncPacmanTag, "tag", "", "packaging repo tag naming this version")
	syncPacmanCmd.MarkFlagRequired("name")
	syncPacmanCmd.MarkFlagRequired("version")
	syncPacmanCmd.MarkFlagRequired("tag")
}
