// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package uri

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownGitRef is returned when a `git+` reference carries a fragment
// this package does not recognize (neither tag= nor commit=).
var ErrUnknownGitRef = errors.New("unknown git ref fragment")

// ErrInvalidGitRef is returned when a `git+` reference's fragment is absent
// or names neither a tag nor a commit.
var ErrInvalidGitRef = errors.New("git ref names neither tag nor commit")

// GitRef is a parsed `git+<url>[#tag=T | #commit=C][?signed]` reference.
type GitRef struct {
	URL    string
	Tag    string
	Commit string
	Signed bool
}

// Ref returns the tag if set, otherwise the commit; this is the value passed
// to `git fetch origin <ref>`.
func (g GitRef) Ref() string {
	if g.Tag != "" {
		return g.Tag
	}
	return g.Commit
}

// ParseGitRef parses a `git+<url>[#tag=T|#commit=C][?signed]` reference. The
// `?signed` query marker, if present, is stripped from the URL and recorded
// in Signed. Exactly one of #tag= or #commit= must be present.
func ParseGitRef(s string) (GitRef, error) {
	rest, ok := strings.CutPrefix(s, "git+")
	if !ok {
		return GitRef{}, errors.Errorf("not a git+ reference: %q", s)
	}
	var ref GitRef
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		frag := rest[i+1:]
		rest = rest[:i]
		frag, signed := strings.CutSuffix(frag, "?signed")
		ref.Signed = signed
		switch {
		case strings.HasPrefix(frag, "tag="):
			ref.Tag = strings.TrimPrefix(frag, "tag=")
		case strings.HasPrefix(frag, "commit="):
			ref.Commit = strings.TrimPrefix(frag, "commit=")
		default:
			return GitRef{}, errors.Wrapf(ErrUnknownGitRef, "%q", frag)
		}
	} else {
		rest, ref.Signed = strings.CutSuffix(rest, "?signed")
	}
	if ref.Tag == "" && ref.Commit == "" {
		return GitRef{}, ErrInvalidGitRef
	}
	ref.URL = rest
	return ref, nil
}
