// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package db is the Postgres-backed persistence layer for artifacts,
// aliases, refs, packages and sboms. Every operation is idempotent on its
// natural key: re-ingesting the same source tree or re-registering the same
// ref is always safe.
package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

// DBVersion is the current schema generation for Artifact.files. Bumping it
// causes GetArtifact callers that check it to treat stored rows as stale and
// reimport, without touching the wire format of the files column itself.
const DBVersion = 1

// DB wraps a connection pool and exposes the operation table used by the
// rest of the core.
type DB struct {
	pool *pgxpool.Pool
}

// New wraps an already-configured pool.
func New(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// Connect parses dsn and opens a pool.
func Connect(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening connection pool")
	}
	return New(pool), nil
}

// Close releases the underlying pool.
func (d *DB) Close() {
	d.pool.Close()
}

// Pool exposes the underlying connection pool for packages (taskqueue) that
// need to run their own transactions against the same database.
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}

// InsertArtifact upserts by chksum, replacing files and bumping db_version.
func (d *DB) InsertArtifact(ctx context.Context, chksum string, files []provenance.Entry) error {
	raw, err := json.Marshal(files)
	if err != nil {
		return errors.Wrap(err, "marshalling files")
	}
	_, err = d.pool.Exec(ctx, `
		INSERT INTO artifacts (chksum, db_version, files, last_imported)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (chksum) DO UPDATE SET
			db_version = EXCLUDED.db_version,
			files = EXCLUDED.files,
			last_imported = EXCLUDED.last_imported`,
		chksum, DBVersion, raw)
	return errors.Wrap(err, "inserting artifact")
}

// GetArtifact returns the exact-match artifact for chksum, or (nil, nil) if
// absent.
func (d *DB) GetArtifact(ctx context.Context, chksum string) (*provenance.Artifact, error) {
	var a provenance.Artifact
	var raw []byte
	var lastImported time.Time
	err := d.pool.QueryRow(ctx,
		`SELECT chksum, db_version, files, last_imported FROM artifacts WHERE chksum = $1`,
		chksum,
	).Scan(&a.Chksum, &a.DBVersion, &raw, &lastImported)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetching artifact")
	}
	if err := json.Unmarshal(raw, &a.Files); err != nil {
		return nil, errors.Wrap(err, "unmarshalling files")
	}
	a.LastImported = lastImported
	return &a, nil
}

// GetAliasedArtifact follows one alias hop from chksum (if chksum itself
// does not name an artifact) and fetches the artifact at the far end.
func (d *DB) GetAliasedArtifact(ctx context.Context, chksum string) (*provenance.Artifact, error) {
	if a, err := d.GetArtifact(ctx, chksum); err != nil || a != nil {
		return a, err
	}
	var to string
	err := d.pool.QueryRow(ctx, `SELECT alias_to FROM aliases WHERE alias_from = $1`, chksum).Scan(&to)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "resolving alias")
	}
	return d.GetArtifact(ctx, to)
}

// ResolveArtifact is an alias for GetAliasedArtifact, named to match the
// "direct or one-hop alias" contract used by dedup callers.
func (d *DB) ResolveArtifact(ctx context.Context, chksum string) (*provenance.Artifact, error) {
	return d.GetAliasedArtifact(ctx, chksum)
}

// InsertAlias idempotently records an equivalence edge.
func (d *DB) InsertAlias(ctx context.Context, from, to, reason string) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO aliases (alias_from, alias_to, reason) VALUES ($1, $2, $3)
		 ON CONFLICT (alias_from) DO NOTHING`,
		from, to, reason)
	return errors.Wrap(err, "inserting alias")
}

// RegisterChksumAliases inserts from each digest in sums to canonical, for
// every digest that differs from canonical. Used to fold the outer/inner
// SHA-256/SHA-512 quartet of a single ingest onto one canonical chksum.
func (d *DB) RegisterChksumAliases(ctx context.Context, sums []string, canonical string) error {
	for _, s := range sums {
		if s == "" || s == canonical {
			continue
		}
		if err := d.InsertAlias(ctx, s, canonical, "compressed-outer-of"); err != nil {
			return err
		}
	}
	return nil
}

// InsertRef idempotently records a distribution's assertion.
func (d *DB) InsertRef(ctx context.Context, r provenance.Ref) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO refs (chksum, vendor, package, version, filename, protocol, host, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (vendor, package, version, chksum) DO NOTHING`,
		r.Chksum, r.Vendor, r.Package, r.Version, r.Filename, r.Protocol, r.Host)
	return errors.Wrap(err, "inserting ref")
}

// BumpNamedRefs touches last_seen for every ref matching the natural key.
func (d *DB) BumpNamedRefs(ctx context.Context, vendor, pkg, version string) error {
	_, err := d.pool.Exec(ctx,
		`UPDATE refs SET last_seen = now() WHERE vendor = $1 AND package = $2 AND version = $3`,
		vendor, pkg, version)
	return errors.Wrap(err, "bumping refs")
}

// GetPackage reports whether (vendor, pkg, version) is already known via any
// ref.
func (d *DB) GetPackage(ctx context.Context, vendor, pkg, version string) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM refs WHERE vendor = $1 AND package = $2 AND version = $3)`,
		vendor, pkg, version,
	).Scan(&exists)
	return exists, errors.Wrap(err, "checking package presence")
}

// InsertSbom upserts a stored lockfile blob by (strain, chksum).
func (d *DB) InsertSbom(ctx context.Context, s provenance.Sbom) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO sboms (chksum, strain, data) VALUES ($1, $2, $3)
		ON CONFLICT (strain, chksum) DO UPDATE SET data = EXCLUDED.data`,
		s.Chksum, s.Strain, s.Data)
	return errors.Wrap(err, "inserting sbom")
}

// GetSbom fetches a previously stored lockfile blob by content digest, for
// an IndexSbom task to re-parse.
func (d *DB) GetSbom(ctx context.Context, chksum string) (*provenance.Sbom, error) {
	var s provenance.Sbom
	err := d.pool.QueryRow(ctx,
		`SELECT chksum, strain, data FROM sboms WHERE chksum = $1`,
		chksum,
	).Scan(&s.Chksum, &s.Strain, &s.Data)
	if err == pgx.ErrNoRows {
		return nil, errors.Errorf("no sbom stored for chksum %s", chksum)
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetching sbom")
	}
	return &s, nil
}

func (d *DB) count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := d.pool.QueryRow(ctx, `SELECT count(*) FROM `+table).Scan(&n)
	return n, errors.Wrapf(err, "counting %s", table)
}

// CountArtifacts returns the artifacts gauge family's value.
func (d *DB) CountArtifacts(ctx context.Context) (int64, error) { return d.count(ctx, "artifacts") }

// CountAliases returns the aliases gauge family's value.
func (d *DB) CountAliases(ctx context.Context) (int64, error) { return d.count(ctx, "aliases") }

// CountRefs returns the refs gauge family's value.
func (d *DB) CountRefs(ctx context.Context) (int64, error) { return d.count(ctx, "refs") }

// CountTasks returns the pending-tasks gauge family's value.
func (d *DB) CountTasks(ctx context.Context) (int64, error) { return d.count(ctx, "tasks") }

// CountSboms returns the sboms gauge family's value.
func (d *DB) CountSboms(ctx context.Context) (int64, error) { return d.count(ctx, "sboms") }
