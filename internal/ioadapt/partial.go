// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package ioadapt

import "io"

// PartialReader wraps a reader and returns at most N bytes per call,
// regardless of how much the caller's buffer or the underlying reader could
// otherwise supply. It is a test double used to exercise pipelines (Tee,
// hashing readers) under adversarial chunk boundaries.
type PartialReader struct {
	r io.Reader
	n int
}

// NewPartialReader constructs a PartialReader that reads at most n bytes per call.
func NewPartialReader(r io.Reader, n int) *PartialReader {
	if n < 1 {
		n = 1
	}
	return &PartialReader{r: r, n: n}
}

// Read implements io.Reader.
func (p *PartialReader) Read(b []byte) (int, error) {
	if len(b) > p.n {
		b = b[:p.n]
	}
	return p.r.Read(b)
}

var _ io.Reader = (*PartialReader)(nil)

// PartialWriter wraps a writer and accepts at most N bytes per call.
type PartialWriter struct {
	w io.Writer
	n int
}

// NewPartialWriter constructs a PartialWriter that accepts at most n bytes per call.
func NewPartialWriter(w io.Writer, n int) *PartialWriter {
	if n < 1 {
		n = 1
	}
	return &PartialWriter{w: w, n: n}
}

// Write implements io.Writer, accepting at most n bytes and reporting that
// shorter count without error so the caller loops to supply the rest.
func (p *PartialWriter) Write(b []byte) (int, error) {
	if len(b) > p.n {
		b = b[:p.n]
	}
	return p.w.Write(b)
}

var _ io.Writer = (*PartialWriter)(nil)
