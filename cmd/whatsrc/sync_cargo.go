// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/whatsrc/whatsrc/internal/db"
	"github.com/whatsrc/whatsrc/internal/taskqueue"
	"github.com/whatsrc/whatsrc/pkg/provenance"
	"github.com/whatsrc/whatsrc/pkg/registry/cratesio"
)

var (
	syncCargoDBDSN string
	syncCargoName  string
	syncCargoVer   string
)

var syncCargoCmd = &cobra.Command{
	Use:   "sync-cargo",
	Short: "Resolve a crates.io crate version against the registry and enqueue a FetchTar task for its tarball",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		d, err := db.Connect(ctx, syncCargoDBDSN)
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer d.Close()

		reg := cratesio.HTTPRegistry{Client: http.DefaultClient}
		v, err := reg.Version(syncCargoName, syncCargoVer)
		if err != nil {
			log.Fatalf("fetching version metadata: %v", err)
		}
		if v.DownloadURL == "" {
			log.Fatalf("%s@%s has no download URL", syncCargoName, syncCargoVer)
		}
		// The crates.io API does not return a checksum alongside version
		// metadata (unlike a Cargo.lock, which records one); this task is
		// enqueued without a SuccessRef and relies on FetchTar's own ingest
		// digests rather than a pre-registered alias.
		task := provenance.Task{
			Key: provenance.FetchTarKey(v.DownloadURL),
			Data: provenance.TaskData{
				Kind:     provenance.TaskFetchTar,
				FetchTar: &provenance.FetchTarData{URL: v.DownloadURL},
			},
		}
		q := taskqueue.New(d.Pool())
		if err := q.Insert(ctx, task); err != nil {
			log.Fatalf("enqueuing task: %v", err)
		}
		if err := d.BumpNamedRefs(ctx, "crates.io", syncCargoName, syncCargoVer); err != nil {
			log.Fatalf("recording package: %v", err)
		}
		log.Printf("enqueued fetch for %s@%s (%s)", syncCargoName, syncCargoVer, v.DownloadURL)
	},
}

func init() {
	syncCargoCmd.Flags().StringVar(&syncCargoDBDSN, "db-dsn", os.Getenv("WHATSRC_DB_DSN"), "PostgreSQL connection string")
	syncCargoCmd.Flags().StringVar(&syncCargoName, "name", "", "crate name")
	syncCargoCmd.Flags().StringVar(&syncCargoVer, "version", "", "crate version")
	syncCargoCmd.MarkFlagRequired("name")
	syncCargoCmd.MarkFlagRequired("version")
}
