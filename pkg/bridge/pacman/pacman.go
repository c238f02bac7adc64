// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package pacman bridges an Arch Linux .SRCINFO file into the core
// provenance model: one Ref and one FetchTar Task per http(s) source entry
// that carries a matching sha256sums checksum.
package pacman

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/whatsrc/whatsrc/internal/uri"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

// PackagingRepoURL is the GitLab namespace Arch's per-package packaging
// repositories live under.
const PackagingRepoURL = "https://gitlab.archlinux.org/archlinux/packaging/packages/%s.git"

// RepoRef builds the git+ reference for pkgName's packaging repository at
// tag, for a worker handling a PacmanGitSnapshot task to resolve before
// reading .SRCINFO out of it.
func RepoRef(pkgName, tag string) uri.GitRef {
	return uri.GitRef{URL: fmt.Sprintf(PackagingRepoURL, pkgName), Tag: tag}
}

// SRCINFOPath is where .SRCINFO lives inside a packaging checkout.
const SRCINFOPath = ".SRCINFO"

// NewSnapshotTask builds a PacmanGitSnapshot task naming the packaging repo
// tag a sync command resolved for pkgName@version, deferring the actual
// .SRCINFO read (and Parse) to the worker.
func NewSnapshotTask(vendor, pkgName, version, tag string) provenance.Task {
	return provenance.Task{
		Key: "pacman-git-snapshot:" + vendor + "/" + pkgName + "/" + version,
		Data: provenance.TaskData{
			Kind: provenance.TaskPacmanGitSnapshot,
			PacmanGitSnapshot: &provenance.PacmanGitSnapshotData{
				Vendor:  vendor,
				Package: pkgName,
				Version: version,
				Tag:     tag,
			},
		},
	}
}

// Parse reads a .SRCINFO file's raw content and emits one Ref and one
// FetchTar Task per positionally-matched (source, sha256sums) pair whose
// source is an http(s) URL naming what looks like a source bundle.
func Parse(content, vendor, pkgName, version string) ([]provenance.Ref, []provenance.Task, error) {
	var sources, sums []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch {
		case key == "source" || strings.HasPrefix(key, "source_"):
			sources = append(sources, value)
		case key == "sha256sums" || strings.HasPrefix(key, "sha256sums_"):
			sums = append(sums, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "scanning .SRCINFO")
	}
	var refs []provenance.Ref
	var tasks []provenance.Task
	for i, src := range sources {
		// Entries of the form "name::url" rename the downloaded file.
		if idx := strings.Index(src, "::"); idx >= 0 {
			src = src[idx+2:]
		}
		if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
			continue
		}
		if !looksLikeBundle(src) {
			continue
		}
		var sum string
		if i < len(sums) {
			sum = sums[i]
		}
		if sum == "" || sum == "SKIP" {
			continue
		}
		chksum := "sha256:" + sum
		ref := provenance.Ref{
			Chksum:   chksum,
			Vendor:   vendor,
			Package:  pkgName,
			Version:  version,
			Filename: src[strings.LastIndex(src, "/")+1:],
			Protocol: "https",
		}
		refs = append(refs, ref)
		tasks = append(tasks, provenance.Task{
			Key: provenance.FetchTarKey(src),
			Data: provenance.TaskData{
				Kind:     provenance.TaskFetchTar,
				FetchTar: &provenance.FetchTarData{URL: src, SuccessRef: &refs[len(refs)-1]},
			},
		})
	}
	return refs, tasks, nil
}

func looksLikeBundle(url string) bool {
	return strings.Contains(url, ".tar") || strings.HasSuffix(url, ".tgz") || strings.HasSuffix(url, ".crate")
}
