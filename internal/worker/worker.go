// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package worker runs the single-goroutine task execution loop: draw one
// task at random, execute it, sleep briefly, repeat. There is no
// "executing" state in the database — a worker holds its drawn row only for
// the lifetime of the open transaction backing it.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/whatsrc/whatsrc/internal/taskqueue"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

// IdleSleep is how long the loop waits after finding no pending task.
const IdleSleep = 60 * time.Second

// YieldSleep is the per-iteration pause after executing (or skipping) a
// task, regardless of outcome.
const YieldSleep = 50 * time.Millisecond

// Handler executes one task's payload. Handlers are looked up by Kind via a
// Registry; a Handler returning an error leaves the task row pending.
type Handler func(ctx context.Context, data provenance.TaskData) error

// Registry maps each TaskKind to the Handler responsible for it.
type Registry map[provenance.TaskKind]Handler

// Loop runs draw/execute/sleep iterations until ctx is cancelled.
func Loop(ctx context.Context, q *taskqueue.Queue, reg Registry) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := step(ctx, q, reg); err != nil {
			return err
		}
	}
}

// step runs a single draw/execute cycle; split out from Loop so it can be
// driven directly by tests without an infinite loop.
func step(ctx context.Context, q *taskqueue.Queue, reg Registry) error {
	drawn, err := q.Draw(ctx)
	if err != nil {
		return err
	}
	if drawn == nil {
		sleep(ctx, IdleSleep)
		return nil
	}
	handler, ok := reg[drawn.Task.Data.Kind]
	if !ok {
		log.Printf("worker: no handler registered for task kind %q (key %s)", drawn.Task.Data.Kind, drawn.Task.Key)
		if err := drawn.Fail(ctx); err != nil {
			return err
		}
		sleep(ctx, YieldSleep)
		return nil
	}
	if err := handler(ctx, drawn.Task.Data); err != nil {
		log.Printf("worker: task %s failed: %v", drawn.Task.Key, err)
		if err := drawn.Fail(ctx); err != nil {
			return err
		}
	} else if err := drawn.Succeed(ctx); err != nil {
		return err
	}
	sleep(ctx, YieldSleep)
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
