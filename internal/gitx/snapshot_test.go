// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package gitx

import (
	"context"
	"errors"
	"testing"

	"github.com/whatsrc/whatsrc/internal/uri"
)

func TestSnapshotBlocklisted(t *testing.T) {
	ref := uri.GitRef{URL: "https://chromium.googlesource.com/chromium/src", Tag: "main"}
	_, err := Snapshot(context.Background(), t.TempDir(), ref)
	if !errors.Is(err, Skipped) {
		t.Fatalf("err = %v, want Skipped", err)
	}
}

func TestShowFileBlocklisted(t *testing.T) {
	ref := uri.GitRef{URL: "https://chromium.googlesource.com/chromium/src", Tag: "main"}
	_, _, err := ShowFile(context.Background(), t.TempDir(), ref, ".SRCINFO")
	if !errors.Is(err, Skipped) {
		t.Fatalf("err = %v, want Skipped", err)
	}
}

func TestScopedExclusiveDirLockRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lock, err := ScopedExclusiveDirLock(dir)
	if err != nil {
		t.Fatalf("ScopedExclusiveDirLock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	// A second lock/unlock cycle on the same directory must succeed now that
	// the first has released it.
	lock2, err := ScopedExclusiveDirLock(dir)
	if err != nil {
		t.Fatalf("second ScopedExclusiveDirLock: %v", err)
	}
	if err := lock2.Unlock(); err != nil {
		t.Fatalf("second Unlock: %v", err)
	}
}
