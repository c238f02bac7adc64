// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package stagex bridges a StageX package manifest (a small TOML file
// naming a version and one or more mirror URL templates) into the core
// provenance model. StageX's own tooling resolves `{version_dash}` and
// `{version_under}` placeholders in mirror URLs at build time rather than
// storing the literal URL; this bridge performs that same interpolation so
// the core never has to see or re-expand vendor-specific variables.
package stagex

import (
	"path"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

type manifest struct {
	Version string   `toml:"version"`
	Mirrors []string `toml:"mirrors"`
}

// Parse reads a StageX manifest's raw TOML content and emits one Ref and one
// FetchTar Task per mirror URL, with `{version_dash}`/`{version_under}`
// (and the literal `{version}`) interpolated from the manifest's version
// string. A manifest naming no mirrors is a quiet skip: nothing is enqueued.
func Parse(content []byte, vendor, pkg string) ([]provenance.Ref, []provenance.Task, error) {
	var m manifest
	if err := toml.Unmarshal(content, &m); err != nil {
		return nil, nil, errors.Wrap(err, "parsing StageX manifest")
	}
	if m.Version == "" || len(m.Mirrors) == 0 {
		return nil, nil, nil
	}
	replacer := strings.NewReplacer(
		"{version_dash}", strings.ReplaceAll(m.Version, ".", "-"),
		"{version_under}", strings.ReplaceAll(m.Version, ".", "_"),
		"{version}", m.Version,
	)
	var refs []provenance.Ref
	var tasks []provenance.Task
	for _, mirror := range m.Mirrors {
		url := replacer.Replace(mirror)
		refs = append(refs, provenance.Ref{
			Vendor:   vendor,
			Package:  pkg,
			Version:  m.Version,
			Filename: path.Base(url),
			Protocol: "https",
		})
		tasks = append(tasks, provenance.Task{
			Key: provenance.FetchTarKey(url),
			Data: provenance.TaskData{
				Kind:     provenance.TaskFetchTar,
				FetchTar: &provenance.FetchTarData{URL: url},
			},
		})
	}
	return refs, tasks, nil
}
