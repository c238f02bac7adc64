// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cargo

import (
	"testing"

	"github.com/whatsrc/whatsrc/pkg/provenance"
)

const fixture = `[[package]]
name = "autocfg"
version = "1.1.0"
source = "registry+https://github.com/rust-lang/crates.io-index"
checksum = "d468802bab17cbc0cc575e9b053f41e72aa36bfa6b7f55e3529ffa43161b97"

[[package]]
name = "local-crate"
version = "0.1.0"
`

func TestParse(t *testing.T) {
	refs, tasks, err := Parse(fixture)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(refs) != 1 || len(tasks) != 1 {
		t.Fatalf("got %d refs, %d tasks; want 1, 1 (local-crate has no checksum)", len(refs), len(tasks))
	}
	want := provenance.Ref{
		Chksum:   "sha256:d468802bab17cbc0cc575e9b053f41e72aa36bfa6b7f55e3529ffa43161b97",
		Vendor:   "crates.io",
		Package:  "autocfg",
		Version:  "1.1.0",
		Filename: "autocfg-1.1.0.crate",
		Protocol: "https",
		Host:     "static.crates.io",
	}
	if refs[0] != want {
		t.Fatalf("refs[0] = %+v, want %+v", refs[0], want)
	}
	if err := tasks[0].Data.Validate(); err != nil {
		t.Fatalf("tasks[0].Data.Validate: %v", err)
	}
}

func TestResolveWorkspaceVersion(t *testing.T) {
	const doc = `
[package]
name = "member-crate"
version.workspace = true
`
	got, err := ResolveWorkspaceVersion([]byte(doc), "2.3.4")
	if err != nil {
		t.Fatalf("ResolveWorkspaceVersion: %v", err)
	}
	if got != "2.3.4" {
		t.Errorf("got %q, want 2.3.4", got)
	}
}

func TestResolveWorkspaceVersionLiteral(t *testing.T) {
	const doc = `
[package]
name = "standalone-crate"
version = "0.9.0"
`
	got, err := ResolveWorkspaceVersion([]byte(doc), "unused")
	if err != nil {
		t.Fatalf("ResolveWorkspaceVersion: %v", err)
	}
	if got != "0.9.0" {
		t.Errorf("got %q, want 0.9.0", got)
	}
}
