// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package npm bridges a package-lock.json (lockfile v2/v3 "packages" map)
// into the core provenance model: one FetchTar Task per resolved registry
// dependency, plus a Ref for each one whose integrity string parses.
package npm

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

type lockfile struct {
	Packages map[string]lockPackage `json:"packages"`
}

type lockPackage struct {
	Version   string `json:"version"`
	Resolved  string `json:"resolved"`
	Integrity string `json:"integrity"`
}

// Parse reads a package-lock.json's raw bytes and emits one FetchTar Task
// per dependency whose "resolved" field names an npm tarball, plus one Ref
// (the task's SuccessRef) for each of those whose integrity string parses.
// The root package (keyed by the empty string) and workspace-local entries
// (no "resolved" field) are skipped.
func Parse(content []byte) ([]provenance.Ref, []provenance.Task, error) {
	var lf lockfile
	if err := json.Unmarshal(content, &lf); err != nil {
		return nil, nil, errors.Wrap(err, "parsing package-lock.json")
	}
	var refs []provenance.Ref
	var tasks []provenance.Task
	for key, pkg := range lf.Packages {
		if key == "" || pkg.Resolved == "" || !strings.HasSuffix(pkg.Resolved, ".tgz") {
			continue
		}
		chksum, err := IntegrityToChksum(pkg.Integrity)
		if err != nil {
			// Entries without a parseable integrity are still enqueued; the
			// FetchTar task's own ingest digests are authoritative, this
			// just means there's no pre-registered alias to dedup against.
			chksum = ""
		}
		name := key
		if i := strings.LastIndex(key, "node_modules/"); i >= 0 {
			name = key[i+len("node_modules/"):]
		}
		ref := provenance.Ref{
			Chksum:   chksum,
			Vendor:   "npm",
			Package:  name,
			Version:  pkg.Version,
			Filename: path.Base(pkg.Resolved),
			Protocol: "https",
			Host:     "registry.npmjs.org",
		}
		var successRef *provenance.Ref
		if chksum != "" {
			refs = append(refs, ref)
			successRef = &refs[len(refs)-1]
		}
		tasks = append(tasks, provenance.Task{
			Key: provenance.FetchTarKey(pkg.Resolved),
			Data: provenance.TaskData{
				Kind:     provenance.TaskFetchTar,
				FetchTar: &provenance.FetchTarData{URL: pkg.Resolved, SuccessRef: successRef},
			},
		})
	}
	return refs, tasks, nil
}

// IntegrityToChksum converts an SRI integrity string ("sha512-<base64>") into
// the canonical "sha512:<hex>" digest form used throughout the provenance
// model. Exported for callers (e.g. a registry-driven sync command) that
// resolve integrity metadata directly from the npm registry API rather than
// a checked-in lockfile.
func IntegrityToChksum(integrity string) (string, error) {
	algo, b64, ok := strings.Cut(integrity, "-")
	if !ok {
		return "", errors.Errorf("malformed integrity string %q", integrity)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", errors.Wrapf(err, "decoding integrity %q", integrity)
	}
	return algo + ":" + hex.EncodeToString(raw), nil
}
