// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package cargo bridges a Cargo.lock lockfile into the core provenance
// model: one Ref and one FetchTar Task per registry dependency that carries
// a checksum. Path and git dependencies (no "checksum" line) are skipped,
// since their source is not a downloadable crate archive.
package cargo

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/whatsrc/whatsrc/pkg/provenance"
	"github.com/whatsrc/whatsrc/pkg/registry/cratesio"
	"github.com/whatsrc/whatsrc/pkg/registry/cratesio/cargolock"
)

const registryIndex = "registry+https://github.com/rust-lang/crates.io-index"

// DownloadURL returns the crates.io download URL for a (name, version) pair.
func DownloadURL(name, version string) string {
	return fmt.Sprintf("https://static.crates.io/crates/%[1]s/%[1]s-%[2]s.crate", name, version)
}

// Parse reads a Cargo.lock's raw content and emits one Ref and one FetchTar
// Task per crates.io-registry dependency.
func Parse(content string) ([]provenance.Ref, []provenance.Task, error) {
	packages, err := cargolock.Parse(content)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parsing Cargo.lock")
	}
	var refs []provenance.Ref
	var tasks []provenance.Task
	for _, pkg := range packages {
		if pkg.Source != registryIndex || pkg.Checksum == "" {
			continue
		}
		url := DownloadURL(pkg.Name, pkg.Version)
		chksum := "sha256:" + pkg.Checksum
		refs = append(refs, provenance.Ref{
			Chksum:   chksum,
			Vendor:   "crates.io",
			Package:  pkg.Name,
			Version:  pkg.Version,
			Filename: fmt.Sprintf("%s-%s.crate", pkg.Name, pkg.Version),
			Protocol: "https",
			Host:     "static.crates.io",
		})
		tasks = append(tasks, provenance.Task{
			Key: provenance.FetchTarKey(url),
			Data: provenance.TaskData{
				Kind:     provenance.TaskFetchTar,
				FetchTar: &provenance.FetchTarData{URL: url, SuccessRef: &refs[len(refs)-1]},
			},
		})
	}
	return refs, tasks, nil
}

// ResolveWorkspaceVersion reads a crate's Cargo.toml and, if its [package]
// section reports `version.workspace = true` rather than a literal version,
// returns workspaceVersion in its place. Cargo.lock always records the
// resolved literal version, so this only matters for callers cross-checking
// a checked-out Cargo.toml directly (e.g. an IndexSbom task walking a
// monorepo workspace rather than a published lockfile).
func ResolveWorkspaceVersion(cargoTOML []byte, workspaceVersion string) (string, error) {
	manifest, err := cratesio.ParseCargoTOML(cargoTOML)
	if err != nil {
		return "", err
	}
	if v := manifest.Version(); v == cratesio.WorkspaceVersion {
		return workspaceVersion, nil
	} else if v != "" {
		return v, nil
	}
	return "", errors.New("Cargo.toml [package] section has no resolvable version")
}
