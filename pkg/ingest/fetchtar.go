// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package ingest wires the decompress/hashext/archive pipeline together into
// the FetchTar task: download a tarball, decompress and enumerate it, upload
// the compressed bytes to the content store, and persist the result.
package ingest

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/whatsrc/whatsrc/internal/decompress"
	"github.com/whatsrc/whatsrc/internal/hashext"
	"github.com/whatsrc/whatsrc/pkg/archive"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

// Store is the subset of the database operations FetchTar needs, narrowed so
// callers can pass *db.DB without this package importing it back.
type Store interface {
	InsertArtifact(ctx context.Context, chksum string, files []provenance.Entry) error
	RegisterChksumAliases(ctx context.Context, sums []string, canonical string) error
	InsertRef(ctx context.Context, r provenance.Ref) error
}

// Uploader is the subset of objectstore.Store that FetchTar needs.
type Uploader interface {
	Put(ctx context.Context, digest string, body io.Reader) error
}

// FetchTar downloads url, decompresses and enumerates the tar it contains,
// uploads the outer compressed bytes to the content store under their own
// digest, and persists the resulting artifact, its chksum aliases, and the
// optional success ref.
//
// The outer bytes are buffered in full before upload: the content-store key
// is the outer digest itself, which is only known once the whole response has
// been read, so there is no way to stream the PUT against a presigned URL
// chosen in advance.
func FetchTar(ctx context.Context, store Store, uploader Uploader, client *http.Client, data provenance.FetchTarData) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, data.URL, nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "fetching tarball")
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.Errorf("fetching %s: unexpected status %s", data.URL, resp.Status)
	}
	return IngestTarball(ctx, store, uploader, resp.Body, data.SuccessRef)
}

// IngestTarball runs the decompress-hash-enumerate-upload pipeline against
// the outer bytes read from r, independent of how those bytes were obtained
// (a network fetch, a local file, a `git archive` stream). It is the shared
// core that both FetchTar and the `ingest-tar` plumbing subcommand drive.
func IngestTarball(ctx context.Context, store Store, uploader Uploader, r io.Reader, successRef *provenance.Ref) error {
	outer, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}
	outerDR := hashext.NewDigestReader(bytes.NewReader(outer))
	decoded, _, err := decompress.Auto(outerDR)
	if err != nil {
		return errors.Wrap(err, "detecting compression")
	}
	innerDR := hashext.NewDigestReader(decoded)
	files, err := archive.EnumerateTar(innerDR)
	if err != nil {
		return errors.Wrap(err, "enumerating tar")
	}
	_, innerDigests := innerDR.Finalize()
	_, outerDigests := outerDR.Finalize()

	if err := uploader.Put(ctx, outerDigests.SHA256, bytes.NewReader(outer)); err != nil {
		return errors.Wrap(err, "uploading outer bytes")
	}
	if err := store.InsertArtifact(ctx, innerDigests.SHA256, files); err != nil {
		return errors.Wrap(err, "inserting artifact")
	}
	if err := store.RegisterChksumAliases(ctx, []string{innerDigests.SHA256, innerDigests.SHA512, outerDigests.SHA256, outerDigests.SHA512}, innerDigests.SHA256); err != nil {
		return errors.Wrap(err, "registering aliases")
	}
	if successRef != nil {
		if err := store.InsertRef(ctx, *successRef); err != nil {
			return errors.Wrap(err, "inserting ref")
		}
	}
	return nil
}
