// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package ioadapt provides composable io.Reader/io.Writer adapters used to
// build the ingestion pipeline: a read-ahead peeker for magic-byte sniffing,
// a tee that mirrors a read stream to a side writer, a best-effort writer
// that swallows errors from an unreliable sink, an optional writer that can
// discard while still tracking a virtual offset, and partial-I/O throttles
// for exercising adversarial chunk boundaries in tests.
package ioadapt

import "io"

// PeekSize is the number of leading bytes buffered for magic-byte sniffing.
const PeekSize = 16

// Peeker wraps a reader with a small read-ahead buffer so that a caller can
// inspect the first PeekSize bytes of a stream without consuming them.
// Peeker is not safe for concurrent use.
type Peeker struct {
	r    io.Reader
	buf  [PeekSize]byte
	n    int  // number of valid bytes in buf
	off  int  // read offset into buf
	eof  bool // underlying reader has returned EOF
	done bool // Peek has already drained as much as it will
}

// NewPeeker constructs a Peeker over r.
func NewPeeker(r io.Reader) *Peeker {
	return &Peeker{r: r}
}

// Peek drains the underlying reader into the internal buffer until either
// the buffer is full or the underlying reader is exhausted, and returns the
// buffered bytes. It is idempotent: subsequent calls return the same slice
// without issuing further reads. A short read from the underlying reader
// does not end the peek early; only a zero-byte read with io.EOF does.
func (p *Peeker) Peek() ([]byte, error) {
	if p.done {
		return p.buf[:p.n], nil
	}
	for p.n < len(p.buf) && !p.eof {
		m, err := p.r.Read(p.buf[p.n:])
		p.n += m
		if err != nil {
			if err == io.EOF {
				p.eof = true
				break
			}
			return p.buf[:p.n], err
		}
	}
	p.done = true
	return p.buf[:p.n], nil
}

// Read implements io.Reader, first draining any buffered (peeked) bytes and
// then resuming reads from the underlying reader.
func (p *Peeker) Read(b []byte) (int, error) {
	if p.off < p.n {
		m := copy(b, p.buf[p.off:p.n])
		p.off += m
		return m, nil
	}
	return p.r.Read(b)
}

var _ io.Reader = (*Peeker)(nil)
