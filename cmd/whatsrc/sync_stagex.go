// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/whatsrc/whatsrc/internal/db"
	"github.com/whatsrc/whatsrc/internal/taskqueue"
	"github.com/whatsrc/whatsrc/pkg/bridge/stagex"
)

var (
	syncStageXDBDSN string
	syncStageXPkg   string
)

// rawManifestURL is StageX's raw-file endpoint for a package's manifest on
// its current main branch head.
const rawManifestURL = "https://raw.githubusercontent.com/stagex/stagex/main/packages/%s/manifest.toml"

var syncStageXCmd = &cobra.Command{
	Use:   "sync-stagex",
	Short: "Fetch a StageX package manifest and enqueue FetchTar tasks for its mirrors",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		d, err := db.Connect(ctx, syncStageXDBDSN)
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer d.Close()

		url := fmt.Sprintf(rawManifestURL, syncStageXPkg)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			log.Fatalf("building request: %v", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Fatalf("fetching %s: %v", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			log.Fatalf("fetching %s: %s", url, resp.Status)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Fatalf("reading manifest: %v", err)
		}

		refs, tasks, err := stagex.Parse(body, "stagex", syncStageXPkg)
		if err != nil {
			log.Fatalf("parsing manifest: %v", err)
		}
		if len(tasks) == 0 {
			log.Printf("%s: manifest names no version or mirrors, nothing to enqueue", syncStageXPkg)
			return
		}

		q := taskqueue.New(d.Pool())
		for _, ref := range refs {
			if err := d.InsertRef(ctx, ref); err != nil {
				log.Fatalf("inserting ref %s: %v", ref.Filename, err)
			}
		}
		for _, task := range tasks {
			if err := q.Insert(ctx, task); err != nil {
				log.Fatalf("enqueuing task %s: %v", task.Key, err)
			}
		}
		if err := d.BumpNamedRefs(ctx, "stagex", syncStageXPkg, refs[0].Version); err != nil {
			log.Fatalf("recording package: %v", err)
		}
		log.Printf("enqueued %d task(s) for %s", len(tasks), syncStageXPkg)
	},
}

func init() {
	syncStageXCmd.Flags().StringVar(&syncStageXDBDSN, "db-dsn", os.Getenv("WHATSRC_DB_DSN"), "PostgreSQL connection string")
	syncStageXCmd.Flags().StringVar(&syncStageXPkg, "name", "", "StageX package name")
	syncStageXCmd.MarkFlagRequired("name")
}
