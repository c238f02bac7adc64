// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sassoftware/go-rpmutils"

	"github.com/whatsrc/whatsrc/pkg/provenance"
)

// isNestedTarball reports whether an RPM payload entry's name looks like an
// upstream source tarball worth ingesting, as opposed to a patch, spec file
// or packaging metadata also carried by the same .src.rpm.
func isNestedTarball(name string) bool {
	for _, suffix := range []string{".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tar.xz", ".tar.zst", ".crate"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// IngestSourceRpm reads a .src.rpm stream, enumerates its cpio payload, and
// runs the ordinary tarball pipeline (IngestTarball) against every member
// that looks like an upstream source archive. Spec files, patches and other
// packaging metadata carried alongside the tarball in the same payload are
// skipped; RPM itself is never double-counted as a tarball format, since the
// tar parser only ever sees the inner members extracted from the cpio
// payload, not the outer RPM framing.
func IngestSourceRpm(ctx context.Context, store Store, uploader Uploader, r io.Reader, data provenance.SourceRpmData) error {
	rpm, err := rpmutils.ReadRpm(r)
	if err != nil {
		return errors.Wrap(err, "reading .src.rpm")
	}
	payload, err := rpm.PayloadReaderExtended()
	if err != nil {
		return errors.Wrap(err, "opening .src.rpm payload")
	}
	ref := provenance.Ref{
		Vendor:   data.Vendor,
		Package:  data.Package,
		Version:  data.Version,
		Protocol: "https",
	}
	var ingested int
	for {
		entry, err := payload.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading .src.rpm payload entry")
		}
		if entry.IsDir() || !isNestedTarball(entry.Name()) {
			continue
		}
		body, err := io.ReadAll(payload)
		if err != nil {
			return errors.Wrapf(err, "reading payload member %s", entry.Name())
		}
		memberRef := ref
		memberRef.Filename = entry.Name()
		if err := IngestTarball(ctx, store, uploader, bytes.NewReader(body), &memberRef); err != nil {
			return errors.Wrapf(err, "ingesting payload member %s", entry.Name())
		}
		ingested++
	}
	if ingested == 0 {
		return errors.Errorf("no upstream tarball found in %s %s src.rpm payload", data.Package, data.Version)
	}
	return nil
}
