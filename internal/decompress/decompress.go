// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package decompress provides magic-byte auto-detecting decompression for
// the codecs distro source tarballs are commonly packaged with: gzip, xz and
// (multi-member) bzip2, with a plain passthrough fallback.
package decompress

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"

	"github.com/whatsrc/whatsrc/internal/ioadapt"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// Codec identifies the detected compression format of a stream.
type Codec int

const (
	Plain Codec = iota
	Gz
	Xz
	Bz2
)

func (c Codec) String() string {
	switch c {
	case Gz:
		return "gzip"
	case Xz:
		return "xz"
	case Bz2:
		return "bzip2"
	default:
		return "plain"
	}
}

var (
	gzMagic  = []byte{0x1F, 0x8B}
	xzMagic  = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A}
	bz2Magic = []byte{0x42, 0x5A, 0x68}
)

// Detect inspects the first bytes of peeked (as produced by an
// ioadapt.Peeker) and returns the codec it matches, without consuming the
// underlying stream.
func Detect(peeked []byte) Codec {
	switch {
	case bytes.HasPrefix(peeked, xzMagic):
		return Xz
	case bytes.HasPrefix(peeked, gzMagic):
		return Gz
	case bytes.HasPrefix(peeked, bz2Magic):
		return Bz2
	default:
		return Plain
	}
}

// Auto wraps r in an ioadapt.Peeker, inspects its magic bytes, and returns a
// reader that transparently decodes the detected codec (or passes the bytes
// through unmodified if none match), along with the codec identified.
// bzip2 streams are drained as a single reader: the standard library's
// bzip2.Reader already consumes concatenated ("multi-member") streams in a
// single sequential Read loop, satisfying the spec's multi-member
// requirement without an explicit flag.
func Auto(r io.Reader) (io.Reader, Codec, error) {
	peeker := ioadapt.NewPeeker(r)
	peeked, err := peeker.Peek()
	if err != nil {
		return nil, Plain, errors.Wrap(err, "peeking stream header")
	}
	codec := Detect(peeked)
	switch codec {
	case Gz:
		gzr, err := gzip.NewReader(peeker)
		if err != nil {
			return nil, codec, errors.Wrap(err, "initializing gzip reader")
		}
		return gzr, codec, nil
	case Xz:
		xzr, err := xz.NewReader(peeker)
		if err != nil {
			return nil, codec, errors.Wrap(err, "initializing xz reader")
		}
		return xzr, codec, nil
	case Bz2:
		return bzip2.NewReader(peeker), codec, nil
	default:
		return peeker, codec, nil
	}
}
