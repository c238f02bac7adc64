// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package taskqueue is a durable, Postgres-backed work queue. A row is held
// only for the lifetime of the transaction a Draw opens: Succeed deletes the
// row and commits, Fail rolls back and leaves the row pending for a future
// random draw. There is no separate "executing" column — a crashed worker
// simply never commits, so its row reverts to pending once the connection
// drops.
package taskqueue

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

// Queue wraps a connection pool to the tasks table.
type Queue struct {
	pool *pgxpool.Pool
}

// New constructs a Queue backed by pool.
func New(pool *pgxpool.Pool) *Queue {
	return &Queue{pool: pool}
}

// Insert adds t if no row with the same key already exists; the insert is a
// no-op otherwise, making enqueue safe to call repeatedly for the same
// logical unit of work.
func (q *Queue) Insert(ctx context.Context, t provenance.Task) error {
	if err := t.Data.Validate(); err != nil {
		return errors.Wrap(err, "validating task")
	}
	data, err := json.Marshal(t.Data)
	if err != nil {
		return errors.Wrap(err, "marshalling task data")
	}
	_, err = q.pool.Exec(ctx,
		`INSERT INTO tasks (key, data) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
		t.Key, data)
	return errors.Wrap(err, "inserting task")
}

// Drawn is a task row held exclusively for the lifetime of an open
// transaction. Callers must call exactly one of Succeed or Fail.
type Drawn struct {
	tx   pgx.Tx
	Task provenance.Task
}

// Draw opens a transaction and selects one pending task at random, skipping
// rows locked by concurrent workers. It returns (nil, nil) when the queue is
// empty. Random draw, rather than FIFO, keeps one persistently-failing task
// from starving progress on the rest of the queue.
func (q *Queue) Draw(ctx context.Context) (*Drawn, error) {
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "beginning draw transaction")
	}
	var key string
	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT key, data FROM tasks ORDER BY random() LIMIT 1 FOR UPDATE SKIP LOCKED`,
	).Scan(&key, &raw)
	if err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "drawing task")
	}
	var data provenance.TaskData
	if err := json.Unmarshal(raw, &data); err != nil {
		_ = tx.Rollback(ctx)
		return nil, errors.Wrap(err, "unmarshalling task data")
	}
	return &Drawn{tx: tx, Task: provenance.Task{Key: key, Data: data}}, nil
}

// Succeed deletes the drawn row and commits, permanently releasing it.
func (d *Drawn) Succeed(ctx context.Context) error {
	if _, err := d.tx.Exec(ctx, `DELETE FROM tasks WHERE key = $1`, d.Task.Key); err != nil {
		_ = d.tx.Rollback(ctx)
		return errors.Wrap(err, "deleting completed task")
	}
	return errors.Wrap(d.tx.Commit(ctx), "committing task completion")
}

// Fail rolls back the draw transaction, leaving the row pending for a
// future random draw.
func (d *Drawn) Fail(ctx context.Context) error {
	return errors.Wrap(d.tx.Rollback(ctx), "releasing failed task")
}
