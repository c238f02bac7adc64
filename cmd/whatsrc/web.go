// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/whatsrc/whatsrc/internal/db"
	"github.com/whatsrc/whatsrc/internal/webapi"
)

var (
	webBindAddr string
	webDBDSN    string
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Run the HTTP artifact-lookup and metrics façade",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		d, err := db.Connect(ctx, webDBDSN)
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer d.Close()

		reg := prometheus.NewRegistry()
		srv := webapi.New(d, reg)

		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				if err := srv.RefreshStats(ctx); err != nil {
					log.Printf("refreshing stats: %v", err)
				}
			}
		}()

		log.Printf("listening on %s", webBindAddr)
		if err := http.ListenAndServe(webBindAddr, srv.Handler(reg)); err != nil {
			log.Fatalf("serving: %v", err)
		}
	},
}

func init() {
	webCmd.Flags().StringVar(&webBindAddr, "bind-addr", ":8080", "address to listen on")
	webCmd.Flags().StringVar(&webDBDSN, "db-dsn", os.Getenv("WHATSRC_DB_DSN"), "PostgreSQL connection string")
}
