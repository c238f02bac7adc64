// Copyright 2024 The OSS Rebuild Authors
// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package archive enumerates tar archive members into the provenance data
// model, computing a content digest for every regular file encountered.
package archive

import (
	"archive/tar"
	"io"

	"github.com/whatsrc/whatsrc/internal/hashext"
	"github.com/whatsrc/whatsrc/pkg/provenance"
	"github.com/pkg/errors"
)

// IngestResult is the outcome of ingesting one uncompressed tar stream: the
// digests computed over the decompressed ("inner") bytes, the digests
// computed over whatever compressed ("outer") bytes produced them, and the
// ordered file list.
type IngestResult struct {
	Inner hashext.Digests
	Outer hashext.Digests
	Files []provenance.Entry
}

// IngestTar reads r (an uncompressed tar stream) and enumerates every
// archive member into an ordered Entry list with per-file digests. PAX
// global headers are skipped; non-regular entries carry no digest. Trailing
// bytes beyond the last tar member (e.g. block padding) are drained so a
// digest wrapping r covers the entirety of the stream.
//
// IngestTar is the single-reader convenience form used when only one digest
// pair matters (an uncompressed tar with no separate outer-compressed
// stream). gitx.Snapshot reads such a tar but wraps its own
// hashext.DigestReader and calls EnumerateTar directly. Callers that need distinct outer and inner
// digest pairs (the FetchTar task) compose their own hashext.DigestReader
// wrappers around the outer and decompressed streams respectively and call
// EnumerateTar directly; see pkg/ingest.
func IngestTar(r io.Reader) (IngestResult, error) {
	dr := hashext.NewDigestReader(r)
	files, err := EnumerateTar(dr)
	if err != nil {
		return IngestResult{}, err
	}
	_, digests := dr.Finalize()
	return IngestResult{Inner: digests, Outer: digests, Files: files}, nil
}

// EnumerateTar walks every member of the tar stream read from r, returning
// the ordered Entry list. It does not finalize any hasher; callers wrap r
// themselves to capture digests, and must fully drain the returned error
// before inspecting those digests (EnumerateTar always drains r to EOF on
// success).
func EnumerateTar(r io.Reader) ([]provenance.Entry, error) {
	tr := tar.NewReader(r)
	var entries []provenance.Entry
	for {
		header, err := tr.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "reading tar header")
		}
		if header.Typeflag == tar.TypeXGlobalHeader {
			continue
		}
		ent := provenance.Entry{Path: header.Name}
		switch header.Typeflag {
		case tar.TypeReg, tar.TypeRegA:
			digest, err := hashext.DigestAll(tr)
			if err != nil {
				return nil, errors.Wrapf(err, "hashing tar entry %s", header.Name)
			}
			ent.Digest = digest
		case tar.TypeSymlink:
			ent.LinksTo = &provenance.Link{Kind: provenance.LinkSymbolic, Target: header.Linkname}
		case tar.TypeLink:
			ent.LinksTo = &provenance.Link{Kind: provenance.LinkHard, Target: header.Linkname}
		default:
			// Directories, device nodes, fifos, etc: recorded with no digest
			// and no link target.
		}
		entries = append(entries, ent)
	}
	// Drain any trailing bytes (e.g. end-of-archive padding) so that an
	// outer digest wrapping r covers the whole input.
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, errors.Wrap(err, "draining trailing bytes")
	}
	return entries, nil
}
