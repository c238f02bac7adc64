// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package apk bridges an Alpine APKBUILD file into the core provenance
// model. APKBUILD is a shell script, not a declarative format; rather than
// embed a shell interpreter this scrapes the handful of assignments the
// provenance graph actually needs with regular expressions, accepting that
// unusual quoting or computed values will be missed. Grammar quirks here are
// uninteresting to the rest of the system: a missed package is simply never
// enqueued.
package apk

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/whatsrc/whatsrc/internal/uri"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

var (
	pkgnameRe = regexp.MustCompile(`(?m)^pkgname=(\S+)`)
	pkgverRe  = regexp.MustCompile(`(?m)^pkgver=(\S+)`)
	commitRe  = regexp.MustCompile(`(?m)^_commit=(\S+)`)
	sourceRe  = regexp.MustCompile(`(?ms)^source="(.*?)"`)
	sha512Re  = regexp.MustCompile(`(?ms)^sha512sums="(.*?)"`)
)

// AportsRepoURL is where Alpine's aports tree is hosted, keyed by vendor so
// forks under a different GitLab namespace still resolve.
const AportsRepoURL = "https://gitlab.alpinelinux.org/%s/%s.git"

// RepoRef builds the git+ reference for the aports repo an ApkbuildGit task
// names, for a worker to resolve before reading the APKBUILD at commit out
// of it.
func RepoRef(vendor, repo, commit string) uri.GitRef {
	return uri.GitRef{URL: fmt.Sprintf(AportsRepoURL, vendor, repo), Commit: commit}
}

// APKBUILDPath returns the path an origin package's APKBUILD lives at
// within an aports checkout. Packages outside the "main" repo class (e.g.
// "community") are not addressable by origin alone; ApkbuildGitData does
// not carry the repo class, so this assumes "main", the common case for
// ingestion targets surfaced this way.
func APKBUILDPath(origin string) string {
	return "main/" + origin + "/APKBUILD"
}

// Parse scrapes pkgname, pkgver and (if present) an `_commit` assignment
// naming the aports commit a package recipe was built from, and emits a
// single ApkbuildGit Task snapshotting repo at that commit. vendor and repo
// locate the aports checkout the APKBUILD file came from (e.g.
// "alpine"/"aports").
func Parse(content, vendor, repo string) (provenance.Task, error) {
	name := firstSubmatch(pkgnameRe, content)
	version := firstSubmatch(pkgverRe, content)
	if name == "" || version == "" {
		return provenance.Task{}, errors.New("APKBUILD missing pkgname or pkgver")
	}
	commit := firstSubmatch(commitRe, content)
	data := &provenance.ApkbuildGitData{
		Vendor:  vendor,
		Repo:    repo,
		Origin:  name,
		Version: version,
		Commit:  commit,
	}
	return provenance.Task{
		Key: "apkbuild-git:" + vendor + "/" + repo + "/" + name + "/" + version,
		Data: provenance.TaskData{
			Kind:        provenance.TaskApkbuildGit,
			ApkbuildGit: data,
		},
	}, nil
}

// ParseSources scrapes an already-fetched APKBUILD's `source=` and
// `sha512sums=` shell-variable blocks (as opposed to Parse, which only reads
// the pkgname/pkgver/_commit header used to locate and queue this snapshot
// in the first place) and emits one Ref and one FetchTar Task per http(s)
// entry with a positionally matching checksum. Entries renamed with the
// pacman-style "name::url" syntax are supported; bare URLs use their own
// basename as the sum-table key. $pkgname and $pkgver (bare or braced) in
// each entry are expanded from pkg and version; no other variable is.
func ParseSources(content, vendor, pkg, version string) ([]provenance.Ref, []provenance.Task, error) {
	sourceBlock := firstSubmatch(sourceRe, content)
	if sourceBlock == "" {
		return nil, nil, nil
	}
	sums := make(map[string]string)
	sumTokens := strings.Fields(firstSubmatch(sha512Re, content))
	for i := 0; i+1 < len(sumTokens); i += 2 {
		sums[sumTokens[i+1]] = sumTokens[i]
	}
	var refs []provenance.Ref
	var tasks []provenance.Task
	expand := strings.NewReplacer("${pkgname}", pkg, "$pkgname", pkg, "${pkgver}", version, "$pkgver", version)
	for _, tok := range strings.Fields(sourceBlock) {
		tok = expand.Replace(tok)
		name, url := tok, tok
		if idx := strings.Index(tok, "::"); idx >= 0 {
			name, url = tok[:idx], tok[idx+2:]
		} else {
			name = url[strings.LastIndex(url, "/")+1:]
		}
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			continue
		}
		sum, ok := sums[name]
		if !ok {
			continue
		}
		ref := provenance.Ref{
			Chksum:   "sha512:" + sum,
			Vendor:   vendor,
			Package:  pkg,
			Version:  version,
			Filename: name,
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
	return strings.Trim(m[1], `"'`)
}
