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
	"github.com/whatsrc/whatsrc/pkg/bridge/apt"
	"github.com/whatsrc/whatsrc/pkg/registry/debian"
)

var (
	syncAptDBDSN     string
	syncAptComponent string
	syncAptName      string
	syncAptVersion   string
)

var syncAptCmd = &cobra.Command{
	Use:   "sync-apt",
	Short: "Fetch a Debian source package's .dsc and enqueue FetchTar tasks for its upstream tarballs",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		d, err := db.Connect(ctx, syncAptDBDSN)
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer d.Close()

		reg := debian.HTTPRegistry{Client: http.DefaultClient}
		_, dsc, err := reg.DSC(ctx, syncAptComponent, syncAptName, syncAptVersion)
		if err != nil {
			log.Fatalf("fetching .dsc: %v", err)
		}
		refs, tasks, err := apt.Parse(dsc, syncAptComponent, syncAptName, syncAptVersion)
		if err != nil {
			log.Fatalf("parsing .dsc: %v", err)
		}

		q := taskqueue.New(d.Pool())
		for _, ref := range refs {
			if err := d.InsertRef(ctx, ref); err != nil {
				log.Fatalf("inserting ref %s: %v", ref.Chksum, err)
			}
		}
		for _, task := range tasks {
			if err := q.Insert(ctx, task); err != nil {
				log.Fatalf("enqueuing task %s: %v", task.Key, err)
			}
		}
		if err := d.BumpNamedRefs(ctx, "debian", syncAptName, syncAptVersion); err != nil {
			log.Fatalf("recording package: %v", err)
		}
		log.Printf("enqueued %d task(s) for %s/%s %s", len(tasks), syncAptComponent, syncAptName, syncAptVersion)
	},
}

func init() {
	syncAptCmd.Flags().StringVar(&syncAptDBDSN, "db-dsn", os.Getenv("WHATSRC_DB_DSN"), "PostgreSQL connection string")
	syncAptCmd.Flags().StringVar(&syncAptComponent, "component", "main", "Debian pool component (main, contrib, non-free)")
	syncAptCmd.Flags().StringVar(&syncAptName, "name", "", "source package name")
	syncAptCmd.Flags().StringVar(&syncAptVersion, "version", "", "source package version")
	syncAptCmd.MarkFlagRequired("name")
	syncAptCmd.MarkFlagRequired("version")
}
