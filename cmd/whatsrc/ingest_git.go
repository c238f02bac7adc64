// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/whatsrc/whatsrc/internal/db"
	"github.com/whatsrc/whatsrc/internal/gitx"
	"github.com/whatsrc/whatsrc/internal/uri"
)

var (
	ingestGitDBDSN  string
	ingestGitTmp    string
	ingestGitRef    string
)

var ingestGitCmd = &cobra.Command{
	Use:   "ingest-git <git+url#tag=T|#commit=C>",
	Short: "Snapshot a single git reference and ingest it as an artifact",
	Args:  cobra.MaximumArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw := ingestGitRef
		if len(args) == 1 {
			raw = args[0]
		}
		ref, err := uri.ParseGitRef(raw)
		if err != nil {
			log.Fatalf("parsing git reference %q: %v", raw, err)
		}

		ctx := cmd.Context()
		d, err := db.Connect(ctx, ingestGitDBDSN)
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer d.Close()

		result, err := gitx.Snapshot(ctx, ingestGitTmp, ref)
		if err != nil {
			if err == gitx.Skipped {
				log.Printf("skipping blocklisted repository %s", ref.URL)
				return
			}
			log.Fatalf("snapshotting %s: %v", raw, err)
		}
		if err := d.InsertArtifact(ctx, result.Ingest.Inner.SHA256, result.Ingest.Files); err != nil {
			log.Fatalf("inserting artifact: %v", err)
		}
		if err := d.InsertAlias(ctx, result.AliasTo.AliasFrom, result.AliasTo.AliasTo, result.AliasTo.Reason); err != nil {
			log.Fatalf("inserting alias: %v", err)
		}
		log.Printf("ingested %s at commit %s (%s)", ref.URL, result.Commit, result.Ingest.Inner.SHA256)
	},
}

func init() {
	ingestGitCmd.Flags().StringVar(&ingestGitDBDSN, "db-dsn", os.Getenv("WHATSRC_DB_DSN"), "PostgreSQL connection string")
	ingestGitCmd.Flags().StringVar(&ingestGitTmp, "git-tmp", os.Getenv("WHATSRC_GIT_TMP"), "scratch directory for the snapshot")
	ingestGitCmd.Flags().StringVar(&ingestGitRef, "ref", "", "git+ reference, alternative to the positional argument")
}
