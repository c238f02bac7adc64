// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package provenance

import "github.com/pkg/errors"

// TaskKind discriminates the TaskData tagged union.
type TaskKind string

const (
	TaskFetchTar         TaskKind = "fetch_tar"
	TaskGitSnapshot      TaskKind = "git_snapshot"
	TaskPacmanGitSnapshot TaskKind = "pacman_git_snapshot"
	TaskApkbuildGit      TaskKind = "apkbuild_git"
	TaskVoidLinuxGit     TaskKind = "void_linux_git"
	TaskSourceRpm        TaskKind = "source_rpm"
	TaskIndexSbom        TaskKind = "index_sbom"
)

// FetchTarData downloads url, ingests it through the decompressor/hasher/tar
// pipeline, registers all observed digests as aliases of the canonical inner
// SHA-256, uploads the outer bytes to the content store, and optionally
// inserts SuccessRef once ingestion completes.
type FetchTarData struct {
	URL        string `json:"url"`
	SuccessRef *Ref   `json:"success_ref,omitempty"`
}

// GitSnapshotData clones URL (a `git+...` reference, see uri.ParseGitRef)
// and ingests a `git archive` snapshot of the resolved commit.
type GitSnapshotData struct {
	URL string `json:"url"`
}

// PacmanGitSnapshotData fetches the Arch packaging repo tarball for Tag,
// parses .SRCINFO/PKGBUILD for source URLs and checksums, and enqueues one
// FetchTar task per URL found.
type PacmanGitSnapshotData struct {
	Vendor  string `json:"vendor"`
	Package string `json:"package"`
	Version string `json:"version"`
	Tag     string `json:"tag"`
}

// ApkbuildGitData is the Alpine analogue of PacmanGitSnapshotData.
type ApkbuildGitData struct {
	Vendor  string `json:"vendor"`
	Repo    string `json:"repo"`
	Origin  string `json:"origin"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// VoidLinuxGitData is the Void analogue of PacmanGitSnapshotData.
type VoidLinuxGitData struct {
	Vendor  string `json:"vendor"`
	Srcpkg  string `json:"srcpkg"`
	Commit  string `json:"commit"`
	Package string `json:"package"`
	Version string `json:"version"`
}

// SourceRpmData downloads a .src.rpm and enumerates its inner tarballs.
type SourceRpmData struct {
	Vendor  string `json:"vendor"`
	Package string `json:"package"`
	Version string `json:"version"`
	URL     string `json:"url"`
}

// IndexSbomData parses a stored Sbom lockfile into a stream of packages and
// inserts refs (and possibly further FetchTar tasks).
type IndexSbomData struct {
	Strain SbomStrain `json:"strain,omitempty"`
	Chksum string     `json:"chksum"`
}

// TaskData is the tagged union of deferred work a Task may carry. Exactly
// one of the pointer fields matching Kind is populated; this mirrors the
// teacher's own discriminated wire-message shapes (e.g. schema.*Request)
// without requiring a custom json.Marshaler, since every variant is simply
// an optional field.
type TaskData struct {
	Kind TaskKind `json:"kind"`

	FetchTar         *FetchTarData         `json:"fetch_tar,omitempty"`
	GitSnapshot      *GitSnapshotData      `json:"git_snapshot,omitempty"`
	PacmanGitSnapshot *PacmanGitSnapshotData `json:"pacman_git_snapshot,omitempty"`
	ApkbuildGit      *ApkbuildGitData      `json:"apkbuild_git,omitempty"`
	VoidLinuxGit     *VoidLinuxGitData     `json:"void_linux_git,omitempty"`
	SourceRpm        *SourceRpmData        `json:"source_rpm,omitempty"`
	IndexSbom        *IndexSbomData        `json:"index_sbom,omitempty"`
}

// Validate checks that exactly one variant matching Kind is populated.
func (d TaskData) Validate() error {
	set := 0
	for _, ok := range []bool{
		d.FetchTar != nil, d.GitSnapshot != nil, d.PacmanGitSnapshot != nil,
		d.ApkbuildGit != nil, d.VoidLinuxGit != nil, d.SourceRpm != nil, d.IndexSbom != nil,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return errors.Errorf("TaskData must have exactly one variant set, got %d", set)
	}
	switch d.Kind {
	case TaskFetchTar:
		if d.FetchTar == nil {
			return errors.New("kind fetch_tar requires FetchTar")
		}
	case TaskGitSnapshot:
		if d.GitSnapshot == nil {
			return errors.New("kind git_snapshot requires GitSnapshot")
		}
	case TaskPacmanGitSnapshot:
		if d.PacmanGitSnapshot == nil {
			return errors.New("kind pacman_git_snapshot requires PacmanGitSnapshot")
		}
	case TaskApkbuildGit:
		if d.ApkbuildGit == nil {
			return errors.New("kind apkbuild_git requires ApkbuildGit")
		}
	case TaskVoidLinuxGit:
		if d.VoidLinuxGit == nil {
			return errors.New("kind void_linux_git requires VoidLinuxGit")
		}
	case TaskSourceRpm:
		if d.SourceRpm == nil {
			return errors.New("kind source_rpm requires SourceRpm")
		}
	case TaskIndexSbom:
		if d.IndexSbom == nil {
			return errors.New("kind index_sbom requires IndexSbom")
		}
	default:
		return errors.Errorf("unknown task kind %q", d.Kind)
	}
	return nil
}

// Task is a durable unit of deferred work, keyed by a human-readable unique
// string. Inserting a Task whose Key already exists is a no-op.
type Task struct {
	Key  string   `json:"key"`
	Data TaskData `json:"data"`
}

// FetchTarKey builds the conventional task key for a FetchTar task.
func FetchTarKey(url string) string { return "fetch:" + url }

// GitCloneKey builds the conventional task key for a GitSnapshot task.
func GitCloneKey(url string) string { return "git-clone:" + url }

// IndexSbomKey builds the conventional task key for an IndexSbom task.
func IndexSbomKey(chksum string) string { return "sbom:" + chksum }
