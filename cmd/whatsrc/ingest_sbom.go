// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/whatsrc/whatsrc/internal/db"
	"github.com/whatsrc/whatsrc/internal/hashext"
	"github.com/whatsrc/whatsrc/internal/taskqueue"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

var (
	ingestSbomDBDSN  string
	ingestSbomStrain string
)

var sbomStrains = map[string]provenance.SbomStrain{
	"cargo-lock":        provenance.StrainCargoLock,
	"package-lock-json": provenance.StrainPackageLockJSON,
	"yarn-lock":         provenance.StrainYarnLock,
	"composer-lock":     provenance.StrainComposerLock,
	"bun-lock":          provenance.StrainBunLock,
	"uv-lock":           provenance.StrainUvLock,
}

var ingestSbomCmd = &cobra.Command{
	Use:   "ingest-sbom <path>",
	Short: "Store a lockfile blob and enqueue an IndexSbom task for it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		strain, ok := sbomStrains[ingestSbomStrain]
		if !ok {
			log.Fatalf("unknown --strain %q", ingestSbomStrain)
		}

		d, err := db.Connect(ctx, ingestSbomDBDSN)
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer d.Close()

		f, err := os.Open(args[0])
		if err != nil {
			log.Fatalf("opening %s: %v", args[0], err)
		}
		defer f.Close()
		body, err := io.ReadAll(f)
		if err != nil {
			log.Fatalf("reading %s: %v", args[0], err)
		}

		dr := hashext.NewDigestReader(bytes.NewReader(body))
		if _, err := io.Copy(io.Discard, dr); err != nil {
			log.Fatalf("digesting %s: %v", args[0], err)
		}
		_, digests := dr.Finalize()
		chksum := digests.SHA256

		sbom := provenance.Sbom{Chksum: chksum, Strain: strain, Data: string(body)}
		if err := d.InsertSbom(ctx, sbom); err != nil {
			log.Fatalf("inserting sbom: %v", err)
		}

		q := taskqueue.New(d.Pool())
		task := provenance.Task{
			Key: "index-sbom:" + chksum,
			Data: provenance.TaskData{
				Kind:      provenance.TaskIndexSbom,
				IndexSbom: &provenance.IndexSbomData{Strain: strain, Chksum: chksum},
			},
		}
		if err := q.Insert(ctx, task); err != nil {
			log.Fatalf("enqueuing task: %v", err)
		}
		log.Printf("stored %s sbom %s, enqueued IndexSbom task", strain, chksum)
	},
}

func init() {
	ingestSbomCmd.Flags().StringVar(&ingestSbomDBDSN, "db-dsn", os.Getenv("WHATSRC_DB_DSN"), "PostgreSQL connection string")
	ingestSbomCmd.Flags().StringVar(&ingestSbomStrain, "strain", "", "lockfile strain (cargo-lock, package-lock-json, yarn-lock, composer-lock, bun-lock, uv-lock)")
	ingestSbomCmd.MarkFlagRequired("strain")
}
