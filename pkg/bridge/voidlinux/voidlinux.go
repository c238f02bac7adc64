// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package voidlinux bridges a Void Linux package template (a shell script
// under srcpkgs/<name>/template in the void-packages tree) into the core
// provenance model. Like Alpine's APKBUILD, this is a best-effort scrape of
// the `distfiles`/`checksum` shell-variable assignments rather than a full
// shell interpreter; unusual quoting or computed distfiles are missed
// silently.
package voidlinux

import (
	"regexp"
	"strings"

	"github.com/whatsrc/whatsrc/internal/uri"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

var (
	distfilesRe = regexp.MustCompile(`(?m)^distfiles=(.+)$`)
	checksumRe  = regexp.MustCompile(`(?m)^checksum=(.+)$`)
)

// PackagesRepoURL is where the void-packages srcpkgs tree is hosted.
const PackagesRepoURL = "https://github.com/void-linux/void-packages.git"

// RepoRef builds the git+ reference for the void-packages repo at commit,
// for a worker to resolve before reading a template file out of it.
func RepoRef(commit string) uri.GitRef {
	return uri.GitRef{URL: PackagesRepoURL, Commit: commit}
}

// TemplatePath returns the path srcpkg's template lives at within a
// void-packages checkout.
func TemplatePath(srcpkg string) string {
	return "srcpkgs/" + srcpkg + "/template"
}

// NewSnapshotTask builds a VoidLinuxGit task naming the void-packages
// commit a sync command resolved for pkg@version, deferring the actual
// template read (and ParseSources) to the worker.
func NewSnapshotTask(vendor, srcpkg, commit, pkg, version string) provenance.Task {
	return provenance.Task{
		Key: "void-linux-git:" + vendor + "/" + srcpkg + "/" + version,
		Data: provenance.TaskData{
			Kind: provenance.TaskVoidLinuxGit,
			VoidLinuxGit: &provenance.VoidLinuxGitData{
				Vendor:  vendor,
				Srcpkg:  srcpkg,
				Commit:  commit,
				Package: pkg,
				Version: version,
			},
		},
	}
}

// ParseSources scrapes `distfiles` and `checksum` out of an already-fetched
// template file and emits one Ref and one FetchTar Task per http(s) entry,
// pairing distfiles to checksums positionally (the convention the template
// format itself uses for per-arch and multi-file packages).
func ParseSources(content, vendor, pkg, version string) ([]provenance.Ref, []provenance.Task, error) {
	distfiles := strings.Fields(strings.Trim(firstSubmatch(distfilesRe, content), `"`))
	checksums := strings.Fields(strings.Trim(firstSubmatch(checksumRe, content), `"`))
	var refs []provenance.Ref
	var tasks []provenance.Task
	for i, url := range distfiles {
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			continue
		}
		if i >= len(checksums) {
			continue
		}
		ref := provenance.Ref{
			Chksum:   "sha256:" + checksums[i],
			Vendor:   vendor,
			Package:  pkg,
			Version:  version,
			Filename: url[strings.LastIndex(url, "/")+1:],
			Protocol: "https",
		}
		refs = append(refs, ref)
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

func firstSubmatch(re *regexp.Regexp, content string) string {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
