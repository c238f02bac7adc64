// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/whatsrc/whatsrc/internal/db"
	"github.com/whatsrc/whatsrc/internal/objectstore"
	"github.com/whatsrc/whatsrc/pkg/ingest"
)

var (
	ingestTarDBDSN string
	ingestTarBucket string
	ingestTarFetch  bool
)

var ingestTarCmd = &cobra.Command{
	Use:   "ingest-tar <path-or-url>",
	Short: "Ingest a single tarball from a local file or, with --fetch, a URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		d, err := db.Connect(ctx, ingestTarDBDSN)
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer d.Close()

		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("loading AWS config: %v", err)
		}
		store := objectstore.New(s3.NewFromConfig(awsCfg), ingestTarBucket)

		var body io.ReadCloser
		if ingestTarFetch {
			resp, err := http.Get(args[0])
			if err != nil {
				log.Fatalf("fetching %s: %v", args[0], err)
			}
			if resp.StatusCode/100 != 2 {
				log.Fatalf("fetching %s: unexpected status %s", args[0], resp.Status)
			}
			body = resp.Body
		} else {
			f, err := os.Open(args[0])
			if err != nil {
				log.Fatalf("opening %s: %v", args[0], err)
			}
			body = f
		}
		defer body.Close()

		if err := ingest.IngestTarball(ctx, d, store, body, nil); err != nil {
			log.Fatalf("ingesting %s: %v", args[0], err)
		}
	},
}

func init() {
	ingestTarCmd.Flags().StringVar(&ingestTarDBDSN, "db-dsn", os.Getenv("WHATSRC_DB_DSN"), "PostgreSQL connection string")
	ingestTarCmd.Flags().StringVar(&ingestTarBucket, "bucket", os.Getenv("WHATSRC_S3_BUCKET"), "content store bucket name")
	ingestTarCmd.Flags().BoolVar(&ingestTarFetch, "fetch", false, "treat the argument as a URL to download rather than a local path")
}
