// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package hashext

import (
	"crypto"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
)

// Digests holds the canonical "<algo>:<lowercase-hex>" digest strings for a
// byte stream, per the digest string format shared by artifacts, aliases and
// refs.
type Digests struct {
	SHA256 string
	SHA512 string
}

// DigestReader transparently wraps a reader, feeding every successfully read
// window of bytes into a SHA-256 and a SHA-512 digest simultaneously. The
// running digests may not be inspected mid-stream; callers must fully drain
// the reader (to io.EOF or a terminal error) before calling Finalize.
type DigestReader struct {
	r      io.Reader
	mh     MultiHash
	closed bool
}

// NewDigestReader constructs a DigestReader wrapping r.
func NewDigestReader(r io.Reader) *DigestReader {
	return &DigestReader{r: r, mh: NewMultiHash(crypto.SHA256, crypto.SHA512)}
}

// Read implements io.Reader, feeding successfully read bytes into the
// running digests before returning them to the caller.
func (d *DigestReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if n > 0 {
		d.mh.Write(p[:n])
	}
	return n, err
}

// Finalize consumes the DigestReader and returns the underlying reader along
// with the digests accumulated over everything read so far. It is a
// programmer error (and panics) to call Finalize twice.
func (d *DigestReader) Finalize() (io.Reader, Digests) {
	if d.closed {
		panic(errors.New("hashext: Finalize called twice on DigestReader"))
	}
	d.closed = true
	var digests Digests
	for _, th := range d.mh {
		switch th.Algorithm {
		case crypto.SHA256:
			digests.SHA256 = "sha256:" + hex.EncodeToString(th.Sum(nil))
		case crypto.SHA512:
			digests.SHA512 = "sha512:" + hex.EncodeToString(th.Sum(nil))
		}
	}
	return d.r, digests
}

var _ io.Reader = (*DigestReader)(nil)

// DigestAll drains r to completion through a fresh SHA-256 digest and
// returns the resulting "sha256:<hex>" digest string. Used for hashing a
// single tar member's body.
func DigestAll(r io.Reader) (string, error) {
	th := NewTypedHash(crypto.SHA256)
	if _, err := io.Copy(th, r); err != nil {
		return "", errors.Wrap(err, "hashing content")
	}
	return "sha256:" + hex.EncodeToString(th.Sum(nil)), nil
}
