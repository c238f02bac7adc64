// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package webapi is the HTTP façade: an artifact lookup page and a
// Prometheus metrics endpoint backed by the database's stats_* aggregates.
package webapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/whatsrc/whatsrc/internal/db"
)

// Server wires the database layer to the HTTP surface.
type Server struct {
	db      *db.DB
	metrics *metrics
}

type metrics struct {
	artifacts prometheus.Gauge
	aliases   prometheus.Gauge
	refs      prometheus.Gauge
	tasks     prometheus.Gauge
	sboms     prometheus.Gauge
}

// New constructs a Server and registers its gauges against reg.
func New(d *db.DB, reg *prometheus.Registry) *Server {
	m := &metrics{
		artifacts: prometheus.NewGauge(prometheus.GaugeOpts{Name: "whatsrc_artifacts_total", Help: "Number of indexed artifacts."}),
		aliases:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "whatsrc_aliases_total", Help: "Number of digest aliases."}),
		refs:      prometheus.NewGauge(prometheus.GaugeOpts{Name: "whatsrc_refs_total", Help: "Number of distribution refs."}),
		tasks:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "whatsrc_tasks_pending", Help: "Number of pending tasks."}),
		sboms:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "whatsrc_sboms_total", Help: "Number of stored lockfile blobs."}),
	}
	reg.MustRegister(m.artifacts, m.aliases, m.refs, m.tasks, m.sboms)
	return &Server{db: d, metrics: m}
}

// Handler returns the top-level mux: an artifact lookup page under
// /artifact/ and a Prometheus exposition under /metrics.
func (s *Server) Handler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/artifact/", s.handleArtifact)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	digest := strings.TrimPrefix(r.URL.Path, "/artifact/")
	if digest == "" {
		http.Error(w, "missing digest", http.StatusBadRequest)
		return
	}
	artifact, err := s.db.ResolveArtifact(r.Context(), digest)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if artifact == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(artifact)
}

// RefreshStats fans out one goroutine per gauge family to the database's
// aggregate counts and updates the registered gauges. Called on a timer or
// before each /metrics scrape, per the caller's preference.
func (s *Server) RefreshStats(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	families := []struct {
		gauge prometheus.Gauge
		count func(context.Context) (int64, error)
	}{
		{s.metrics.artifacts, s.db.CountArtifacts},
		{s.metrics.aliases, s.db.CountAliases},
		{s.metrics.refs, s.db.CountRefs},
		{s.metrics.tasks, s.db.CountTasks},
		{s.metrics.sboms, s.db.CountSboms},
	}
	for _, f := range families {
		f := f
		g.Go(func() error {
			n, err := f.count(ctx)
			if err != nil {
				return err
			}
			f.gauge.Set(float64(n))
			return nil
		})
	}
	return g.Wait()
}
