// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package apt bridges a Debian source package's .dsc control file into the
// core provenance model: one Ref per upstream tarball named in its
// Checksums-Sha256 field, and one FetchTar task per distinct download URL.
package apt

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/whatsrc/whatsrc/pkg/provenance"
	"github.com/whatsrc/whatsrc/pkg/registry/debian"
	"github.com/whatsrc/whatsrc/pkg/registry/debian/control"
)

// isUpstreamTarball matches the upstream source tarball naming convention
// (`<name>_<version>.orig.tar.<ext>`), excluding the Debian-specific
// `.debian.tar.*` and detached `.asc` entries that also appear in
// Checksums-Sha256.
func isUpstreamTarball(filename string) bool {
	return strings.Contains(filename, ".orig.tar") && !strings.HasSuffix(filename, ".asc")
}

// Parse reads a parsed .dsc control file and emits one Ref and one FetchTar
// Task per upstream tarball entry in its Checksums-Sha256 field. component
// and name locate the tarball within the Debian pool layout.
func Parse(dsc *control.ControlFile, component, name, version string) ([]provenance.Ref, []provenance.Task, error) {
	if len(dsc.Stanzas) == 0 {
		return nil, nil, errors.New("empty .dsc file")
	}
	source := dsc.Stanzas[0]
	lines, ok := source.Fields["Checksums-Sha256"]
	if !ok {
		return nil, nil, errors.New(".dsc file has no Checksums-Sha256 field")
	}
	var refs []provenance.Ref
	var tasks []provenance.Task
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 3 {
			continue
		}
		sha256sum, filename := fields[0], fields[2]
		if !isUpstreamTarball(filename) {
			continue
		}
		url := debian.PoolURL(component, name, filename)
		chksum := "sha256:" + sha256sum
		refs = append(refs, provenance.Ref{
			Chksum:   chksum,
			Vendor:   "debian",
			Package:  name,
			Version:  version,
			Filename: filename,
			Protocol: "https",
			Host:     "deb.debian.org",
		})
		tasks = append(tasks, provenance.Task{
			Key: provenance.FetchTarKey(url),
			Data: provenance.TaskData{
				Kind:     provenance.TaskFetchTar,
				FetchTar: &provenance.FetchTarData{URL: url, SuccessRef: &refs[len(refs)-1]},
			},
		})
	}
	if len(refs) == 0 {
		return nil, nil, errors.New("no upstream tarball entries found in Checksums-Sha256")
	}
	return refs, tasks, nil
}
