// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package gitx

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
)

// DirLock holds an advisory exclusive lock on a scratch directory, backed by
// flock(2) on a sentinel file within it.
type DirLock struct {
	f *os.File
}

// ScopedExclusiveDirLock blocks until it obtains an exclusive advisory lock
// on dir (created if absent), keyed on a `.lock` sentinel file inside it.
// The lock is released by calling Unlock.
func ScopedExclusiveDirLock(dir string) (*DirLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating scratch directory")
	}
	f, err := os.OpenFile(filepath.Join(dir, ".lock"), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "opening lock file")
	}
	// LOCK_EX without LOCK_NB blocks until the lock is obtained, which
	// satisfies the "retried until obtained" requirement without a manual
	// retry loop.
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "flock")
	}
	return &DirLock{f: f}, nil
}

// Unlock releases the lock and closes the sentinel file.
func (l *DirLock) Unlock() error {
	if l.f == nil {
		return nil
	}
	err := syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	cerr := l.f.Close()
	l.f = nil
	if err != nil {
		return errors.Wrap(err, "unflock")
	}
	return errors.Wrap(cerr, "closing lock file")
}
