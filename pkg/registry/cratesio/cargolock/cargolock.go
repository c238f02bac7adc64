// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package cargolock parses Cargo.lock's TOML fields without going through a
// full TOML decoder, since the lockfile's [[package]] stanzas only ever use
// the flat string-valued subset of the format.
package cargolock

import (
	"bufio"
	"strings"

	"github.com/pkg/errors"
)

// Package represents one resolved dependency in a Cargo.lock file.
type Package struct {
	Name     string
	Version  string
	Source   string
	Checksum string
}

// Parse extracts every [[package]] stanza from a Cargo.lock file. Checksum
// is empty for path/git dependencies, which carry no "checksum" line.
func Parse(content string) ([]Package, error) {
	var packages []Package
	var cur *Package
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "[[package]]":
			if cur != nil {
				packages = append(packages, *cur)
			}
			cur = &Package{}
		case cur == nil:
			// Outside any [[package]] stanza (e.g. the [[metadata]] header
			// some older lockfile versions carry); nothing to record.
			continue
		case strings.HasPrefix(line, "name = "):
			cur.Name = unquote(strings.TrimPrefix(line, "name = "))
		case strings.HasPrefix(line, "version = "):
			cur.Version = unquote(strings.TrimPrefix(line, "version = "))
		case strings.HasPrefix(line, "source = "):
			cur.Source = unquote(strings.TrimPrefix(line, "source = "))
		case strings.HasPrefix(line, "checksum = "):
			cur.Checksum = unquote(strings.TrimPrefix(line, "checksum = "))
		}
	}
	if cur != nil {
		packages = append(packages, *cur)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning lockfile")
	}
	return packages, nil
}

func unquote(s string) string {
	return strings.Trim(s, "\"")
}
