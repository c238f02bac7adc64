// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package ioadapt

import "io"

// teeChunk is the size of the internal buffer used to stage bytes between
// the source reader and the side writer.
const teeChunk = 32 * 1024

// Tee wraps a reader and a writer so that every byte delivered to the
// caller is first fully flushed to the side writer. Unlike io.TeeReader,
// which writes only as much as the caller's buffer accepts per call and
// tolerates a writer lagging behind the reader, Tee never releases bytes to
// the caller until the side writer has durably accepted them: a read is
// staged into an internal buffer, written to the side writer in full (looping
// over short writes), and only then copied out to the caller. A side writer
// returning (0, nil) is treated as a fatal io.ErrShortWrite condition.
type Tee struct {
	r   io.Reader
	w   io.Writer
	buf []byte // staged bytes not yet delivered to the caller
	off int    // read offset into buf
}

// NewTee constructs a Tee that mirrors reads from r into w.
func NewTee(r io.Reader, w io.Writer) *Tee {
	return &Tee{r: r, w: w}
}

// Read implements io.Reader.
func (t *Tee) Read(p []byte) (int, error) {
	if t.off < len(t.buf) {
		n := copy(p, t.buf[t.off:])
		t.off += n
		if t.off == len(t.buf) {
			t.buf = nil
			t.off = 0
		}
		return n, nil
	}
	size := len(p)
	if size > teeChunk {
		size = teeChunk
	}
	if size == 0 {
		size = teeChunk
	}
	staged := make([]byte, size)
	n, err := t.r.Read(staged)
	if n > 0 {
		staged = staged[:n]
		if werr := writeFull(t.w, staged); werr != nil {
			return 0, werr
		}
		m := copy(p, staged)
		if m < len(staged) {
			t.buf = staged
			t.off = m
		}
		return m, err
	}
	return 0, err
}

// writeFull writes all of p to w, looping over short writes and treating a
// zero-byte write as io.ErrShortWrite (the teacher's adapters would call
// this a fatal WriteZero).
func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

var _ io.Reader = (*Tee)(nil)
