// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package ioadapt

import (
	"io"

	"github.com/pkg/errors"
)

// OptionalWriter is a sink that either wraps a real writer or silently
// discards, while still tracking a virtual offset so that io.Seeker-based
// callers (e.g. checking how many bytes would have been written) keep
// working in discard mode. Only SeekFrom(io.SeekStart) is supported in
// discard mode; other whences are rejected since there is no way to know the
// final size without a real sink.
type OptionalWriter struct {
	w   io.Writer
	pos int64
}

// NewOptionalWriter constructs an OptionalWriter. If w is nil, the writer
// discards all writes but still tracks position.
func NewOptionalWriter(w io.Writer) *OptionalWriter {
	return &OptionalWriter{w: w}
}

// Write implements io.Writer.
func (o *OptionalWriter) Write(p []byte) (int, error) {
	if o.w == nil {
		o.pos += int64(len(p))
		return len(p), nil
	}
	n, err := o.w.Write(p)
	o.pos += int64(n)
	return n, err
}

// Seek implements io.Seeker for the discard case; if a real writer is
// present and itself implements io.Seeker, the call is delegated.
func (o *OptionalWriter) Seek(offset int64, whence int) (int64, error) {
	if s, ok := o.w.(io.Seeker); ok {
		pos, err := s.Seek(offset, whence)
		if err == nil {
			o.pos = pos
		}
		return pos, err
	}
	if whence != io.SeekStart {
		return 0, errors.New("discard writer only supports SeekStart")
	}
	o.pos = offset
	return o.pos, nil
}

// Discarding reports whether this writer is in discard mode.
func (o *OptionalWriter) Discarding() bool {
	return o.w == nil
}

var (
	_ io.Writer = (*OptionalWriter)(nil)
	_ io.Seeker = (*OptionalWriter)(nil)
)
