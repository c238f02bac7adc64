// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package ioadapt

import (
	"bytes"
	"io"
	"testing"
)

func TestPeekerPreservesBytes(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "short", data: []byte("abc")},
		{name: "exact", data: bytes.Repeat([]byte("x"), PeekSize)},
		{name: "long", data: bytes.Repeat([]byte("y"), PeekSize*4+3)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPeeker(bytes.NewReader(tc.data))
			peeked, err := p.Peek()
			if err != nil {
				t.Fatalf("Peek: %v", err)
			}
			wantPeek := tc.data
			if len(wantPeek) > PeekSize {
				wantPeek = wantPeek[:PeekSize]
			}
			if !bytes.Equal(peeked, wantPeek) {
				t.Fatalf("Peek() = %q, want %q", peeked, wantPeek)
			}
			// Idempotent.
			peeked2, err := p.Peek()
			if err != nil {
				t.Fatalf("second Peek: %v", err)
			}
			if !bytes.Equal(peeked2, wantPeek) {
				t.Fatalf("second Peek() = %q, want %q", peeked2, wantPeek)
			}
			got, err := io.ReadAll(p)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(got, tc.data) {
				t.Fatalf("drained = %q, want %q", got, tc.data)
			}
		})
	}
}

// shortReader returns at most n bytes per call without signalling EOF early,
// to verify a short underlying read never terminates Peek prematurely.
type shortReader struct {
	data []byte
	n    int
}

func (r *shortReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	m := r.n
	if m > len(p) {
		m = len(p)
	}
	if m > len(r.data) {
		m = len(r.data)
	}
	copy(p, r.data[:m])
	r.data = r.data[m:]
	return m, nil
}

func TestPeekerShortReadsDoNotTruncate(t *testing.T) {
	data := bytes.Repeat([]byte("z"), PeekSize)
	p := NewPeeker(&shortReader{data: data, n: 3})
	peeked, err := p.Peek()
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if !bytes.Equal(peeked, data) {
		t.Fatalf("Peek() = %q, want %q (short reads should still fill the buffer)", peeked, data)
	}
}
