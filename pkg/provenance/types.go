// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package provenance defines the core data model shared by the ingestion
// pipeline, the database layer and the task queue: Artifact, Alias, Ref,
// Task, Sbom and Package, following the wire-type conventions the teacher
// uses for its own request/response schema types (exported structs with
// json tags, no hidden state).
package provenance

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// LinkKind distinguishes the two non-regular link types a tar entry may
// carry.
type LinkKind string

const (
	LinkHard     LinkKind = "hard"
	LinkSymbolic LinkKind = "symbolic"
)

// Link describes a hard or symbolic link target for a non-regular Entry. It
// marshals as the single-key tagged union `{"hard":path}` or
// `{"symbolic":path}` rather than as a struct with a discriminator field, to
// match the persisted Artifact.files wire shape exactly.
type Link struct {
	Kind   LinkKind
	Target string
}

func (l Link) MarshalJSON() ([]byte, error) {
	switch l.Kind {
	case LinkHard, LinkSymbolic:
		return json.Marshal(map[string]string{string(l.Kind): l.Target})
	default:
		return nil, errors.Errorf("links_to: unknown kind %q", l.Kind)
	}
}

func (l *Link) UnmarshalJSON(b []byte) error {
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return errors.Wrap(err, "links_to")
	}
	if len(m) != 1 {
		return errors.Errorf("links_to: want exactly one key, got %d", len(m))
	}
	for k, v := range m {
		switch LinkKind(k) {
		case LinkHard, LinkSymbolic:
			l.Kind, l.Target = LinkKind(k), v
		default:
			return errors.Errorf("links_to: unknown kind %q", k)
		}
	}
	return nil
}

// Entry is one member of an Artifact's file list, in the tar's own member
// order. Digest is set only for regular files; LinksTo is set only for
// hard/symbolic links; neither is set for other entry types (device nodes,
// directories, fifos).
type Entry struct {
	Path    string `json:"path"`
	Digest  string `json:"digest,omitempty"`
	LinksTo *Link  `json:"links_to,omitempty"`
}

// Artifact is the canonical record of one decompressed source tree,
// identified by the SHA-256 of its uncompressed tar stream.
type Artifact struct {
	DBVersion    int       `json:"db_version"`
	Chksum       string    `json:"chksum"`
	Files        []Entry   `json:"files"`
	LastImported time.Time `json:"last_imported"`
}

// Alias is an equivalence edge between two digest strings; AliasTo must name
// a known Artifact.Chksum. Reason is an optional free-form label such as
// "git-archive" or "compressed-outer-of".
type Alias struct {
	AliasFrom string `json:"alias_from"`
	AliasTo   string `json:"alias_to"`
	Reason    string `json:"reason,omitempty"`
}

// Ref is a distribution's assertion that vendor/package/version ships the
// source identified by Chksum.
type Ref struct {
	Chksum   string    `json:"chksum"`
	Vendor   string    `json:"vendor"`
	Package  string    `json:"package"`
	Version  string    `json:"version"`
	Filename string    `json:"filename,omitempty"`
	Protocol string    `json:"protocol,omitempty"`
	Host     string    `json:"host,omitempty"`
	LastSeen time.Time `json:"last_seen"`
}

// Package is a (vendor, package, version) tuple known to have already been
// fully ingested, used only to skip reimport.
type Package struct {
	Vendor  string `json:"vendor"`
	Package string `json:"package"`
	Version string `json:"version"`
}

// SbomStrain identifies the kind of lockfile a Sbom blob holds.
type SbomStrain string

const (
	StrainCargoLock       SbomStrain = "cargo-lock"
	StrainPackageLockJSON SbomStrain = "package-lock-json"
	StrainYarnLock        SbomStrain = "yarn-lock"
	StrainComposerLock    SbomStrain = "composer-lock"
	StrainBunLock         SbomStrain = "bun-lock"
	StrainUvLock          SbomStrain = "uv-lock"
)

// Sbom is a stored lockfile blob identified by strain and content digest.
type Sbom struct {
	Chksum string     `json:"chksum"`
	Strain SbomStrain `json:"strain"`
	Data   string     `json:"data"`
}

// SbomPackage is one dependency resolved out of a Sbom.
type SbomPackage struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	URL             string `json:"url,omitempty"`
	Checksum        string `json:"checksum,omitempty"`
	OfficialRegistry bool  `json:"official_registry"`
}
