// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package ioadapt

import "io"

// BestEffortWriter wraps a writer such that once the inner writer returns an
// error, that error is captured and every subsequent Write pretends to
// succeed (reporting len(p) bytes written). This lets a side-channel upload
// (e.g. to object storage) fail without aborting the primary read it rides
// along with; the caller can inspect HasFailed/Err afterwards and retry the
// upload independently.
type BestEffortWriter struct {
	w   io.Writer
	err error
}

// NewBestEffortWriter constructs a BestEffortWriter wrapping w.
func NewBestEffortWriter(w io.Writer) *BestEffortWriter {
	return &BestEffortWriter{w: w}
}

// Write implements io.Writer. Once a prior Write has failed, Write no longer
// touches the inner writer and reports success unconditionally.
func (b *BestEffortWriter) Write(p []byte) (int, error) {
	if b.err != nil {
		return len(p), nil
	}
	n, err := b.w.Write(p)
	if err != nil {
		b.err = err
		return len(p), nil
	}
	return n, nil
}

// HasFailed reports whether the inner writer has ever returned an error.
func (b *BestEffortWriter) HasFailed() bool {
	return b.err != nil
}

// Err returns the first error encountered by the inner writer, or nil.
func (b *BestEffortWriter) Err() error {
	return b.err
}

var _ io.Writer = (*BestEffortWriter)(nil)
