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
	"github.com/whatsrc/whatsrc/pkg/bridge/apk"
)

var (
	syncAPKDBDSN string
	syncAPKRepo  string
	syncAPKName  string
)

// rawAPKBUILDURL is GitLab's raw-file endpoint for an aports APKBUILD on
// its current main branch head.
const rawAPKBUILDURL = "https://gitlab.alpinelinux.org/%s/%s/-/raw/master/main/%s/APKBUILD"

var syncAPKCmd = &cobra.Command{
	Use:   "sync-apk",
	Short: "Fetch an aports APKBUILD header and enqueue an ApkbuildGit snapshot task for it",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		d, err := db.Connect(ctx, syncAPKDBDSN)
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer d.Close()

		url := fmt.Sprintf(rawAPKBUILDURL, "alpine", syncAPKRepo, syncAPKName)
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
			log.Fatalf("reading APKBUILD: %v", err)
		}

		task, err := apk.Parse(string(body), "alpine", syncAPKRepo)
		if err != nil {
			log.Fatalf("parsing APKBUILD: %v", err)
		}

		q := taskqueue.New(d.Pool())
		if err := q.Insert(ctx, task); err != nil {
			log.Fatalf("enqueuing task: %v", err)
		}
		if err := d.BumpNamedRefs(ctx, "alpine", syncAPKName, task.Data.ApkbuildGit.Version); err != nil {
			log.Fatalf("recording package: %v", err)
		}
		log.Printf("enqueued apk snapshot for %s/%s", syncAPKRepo, syncAPKName)
	},
}

func init() {
	syncAPKCmd.Flags().StringVar(&syncAPKDBDSN, "db-dsn", os.Getenv("WHATSRC_DB_DSN"), "PostgreSQL connection string")
	syncAPKCmd.Flags().StringVar(&syncAPKRepo, "repo", "aports", "aports checkout name")
	syncAPKCmd.Flags().StringVar(&syncAPKName, "name", "", "package name")
	syncAPKCmd.MarkFlagRequired("name")
}
