// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/whatsrc/whatsrc/internal/db"
	"github.com/whatsrc/whatsrc/internal/taskqueue"
	"github.com/whatsrc/whatsrc/pkg/bridge/voidlinux"
)

var (
	syncVoidDBDSN  string
	syncVoidName   string
	syncVoidVer    string
	syncVoidCommit string
)

var syncVoidCmd = &cobra.Command{
	Use:   "sync-voidlinux",
	Short: "Enqueue a void-packages commit snapshot for template discovery",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		d, err := db.Connect(ctx, syncVoidDBDSN)
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer d.Close()

		task := voidlinux.NewSnapshotTask("voidlinux", syncVoidName, syncVoidCommit, syncVoidName, syncVoidVer)
		q := taskqueue.New(d.Pool())
		if err := q.Insert(ctx, task); err != nil {
			log.Fatalf("enqueuing task: %v", err)
		}
		if err := d.BumpNamedRefs(ctx, "voidlinux", syncVoidName, syncVoidVer); err != nil {
			log.Fatalf("recording package: %v", err)
		}
		log.Printf("enqueued void-linux snapshot for %s@%s (commit %s)", syncVoidName, syncVoidVer, syncVoidCommit)
	},
}

func init() {
	syncVoidCmd.Flags().StringVar(&syncVoidDBDSN, "db-dsn", os.Getenv("WHATSRC_DB_DSN"), "PostgreSQL connection string")
	syncVoidCmd.Flags().StringVar(&syncVoidName, "name", "", "srcpkg name")
	syncVoidCmd.Flags().StringVar(&syncVoidVer, "version", "", "package version")
	syncVoidCmd.Flags().StringVar(&syncVoidCommit, "commit", "", "void-packages commit this version was observed at")
	syncVoidCmd.MarkFlagRequired("name")
	syncVoidCmd.MarkFlagRequired("version")
	syncVoidCmd.MarkFlagRequired("commit")
}
