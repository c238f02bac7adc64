// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package gitx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/whatsrc/whatsrc/internal/bufiox"
	"github.com/whatsrc/whatsrc/internal/hashext"
	"github.com/whatsrc/whatsrc/internal/uri"
	"github.com/whatsrc/whatsrc/pkg/archive"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

// ErrNativeGitUnavailable is returned when no `git` binary is on PATH. The
// snapshot pipeline shells out to git directly (for `git archive`, which
// go-git cannot produce byte-for-byte) and has no pure-Go fallback.
var ErrNativeGitUnavailable = errors.New("native git binary not available")

// NativeGitAvailable reports whether a `git` binary is on PATH.
func NativeGitAvailable() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// FetchTimeout bounds a single `git fetch`; the operation is aborted and
// treated as a failure past this wall-clock limit.
const FetchTimeout = 20 * time.Minute

// Blocklist names repositories too large to be worth snapshotting. Keyed by
// canonicalized URL, matched exactly.
var Blocklist = map[string]bool{
	"https://chromium.googlesource.com/chromium/src": true,
}

// Skipped is returned by Snapshot when url is blocklisted; the caller should
// treat this as success with no artifact produced.
var Skipped = errors.New("repository is blocklisted")

// Result is the outcome of a successful snapshot.
type Result struct {
	Commit  string
	Ingest  archive.IngestResult
	AliasTo provenance.Alias
}

// fetchLocked acquires the scratch directory's exclusive lock, fetches ref
// from origin, and resolves FETCH_HEAD to a commit. The caller must Unlock
// the returned lock once done with scratchDir. Shared by Snapshot (which
// archives the resolved commit) and ShowFile (which reads a single blob out
// of it).
func fetchLocked(ctx context.Context, scratchDir string, ref uri.GitRef) (lock *DirLock, commit string, err error) {
	if Blocklist[ref.URL] {
		return nil, "", Skipped
	}
	if !NativeGitAvailable() {
		return nil, "", ErrNativeGitUnavailable
	}
	lock, err = ScopedExclusiveDirLock(scratchDir)
	if err != nil {
		return nil, "", errors.Wrap(err, "acquiring scratch lock")
	}
	defer func() {
		if err != nil {
			lock.Unlock()
		}
	}()

	if err = initRepo(ctx, scratchDir, ref.URL); err != nil {
		return nil, "", err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()
	if err = runGit(fetchCtx, scratchDir, "fetch", "origin", ref.Ref()); err != nil {
		return nil, "", errors.Wrap(err, "git fetch")
	}

	out, err := gitOutput(ctx, scratchDir, "rev-list", "-n1", "FETCH_HEAD")
	if err != nil {
		return nil, "", errors.Wrap(err, "resolving FETCH_HEAD")
	}
	return lock, strings.TrimSpace(out), nil
}

// ShowFile resolves ref, then reads a single path out of the resolved
// commit via `git show <commit>:<path>`, without archiving the whole tree.
// Used by recipe-discovery task handlers that only need one file (e.g.
// .SRCINFO, an APKBUILD) out of a packaging repository rather than a full
// content-addressed snapshot.
func ShowFile(ctx context.Context, scratchDir string, ref uri.GitRef, path string) (content []byte, commit string, err error) {
	lock, commit, err := fetchLocked(ctx, scratchDir, ref)
	if err != nil {
		return nil, "", err
	}
	defer lock.Unlock()

	out, err := gitOutput(ctx, scratchDir, "show", commit+":"+path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "reading %s at %s", path, commit)
	}
	return []byte(out), commit, nil
}

// Snapshot resolves ref against an exclusively-locked scratch directory,
// archives the resolved commit with `git archive`, and ingests the resulting
// tar stream through the archive package. The scratch directory is reused
// (and relocked) across calls for the same logical ref family, matching the
// teacher's own preference for native git invocations over go-git when the
// git binary is present.
func Snapshot(ctx context.Context, scratchDir string, ref uri.GitRef) (Result, error) {
	lock, commit, err := fetchLocked(ctx, scratchDir, ref)
	if err != nil {
		return Result{}, err
	}
	defer lock.Unlock()

	cmd := exec.CommandContext(ctx, "git", "-c", "core.abbrev=no", "archive", "--format=tar", commit)
	cmd.Dir = scratchDir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, errors.Wrap(err, "opening archive stdout")
	}
	// Bounded instead of a strings.Builder: a misbehaving remote or a
	// corrupt .gitattributes can make `git archive` chatty on stderr, and
	// this is only ever used for an error message tail.
	stderrBuf := bufiox.NewLineBuffer(16 * 1024)
	cmd.Stderr = stderrBuf
	if err := cmd.Start(); err != nil {
		return Result{}, errors.Wrap(err, "starting git archive")
	}
	dr := hashext.NewDigestReader(stdout)
	files, enumErr := archive.EnumerateTar(dr)
	waitErr := cmd.Wait()
	if waitErr != nil {
		tail := make([]byte, stderrBuf.Len())
		stderrBuf.Read(tail)
		return Result{}, errors.Wrapf(waitErr, "git archive: %s", tail)
	}
	if enumErr != nil {
		return Result{}, errors.Wrap(enumErr, "enumerating archive stream")
	}
	_, digests := dr.Finalize()

	return Result{
		Commit: commit,
		Ingest: archive.IngestResult{Inner: digests, Outer: digests, Files: files},
		AliasTo: provenance.Alias{
			AliasFrom: "git:" + commit,
			AliasTo:   digests.SHA256,
			Reason:    "git-archive",
		},
	}, nil
}

// initRepo creates a fresh bare-ish working repo in dir, pointed at origin,
// with export-subst/export-ignore neutralized so `.gitattributes` in the
// fetched tree cannot alter what `git archive` emits.
func initRepo(ctx context.Context, dir, url string) error {
	if err := runGit(ctx, dir, "init", "-qb", "main"); err != nil {
		return errors.Wrap(err, "git init")
	}
	if err := runGit(ctx, dir, "remote", "add", "origin", url); err != nil {
		// A prior attempt against this scratch dir may have already added
		// the remote; that is not fatal as long as the URL matches.
		if out, oerr := gitOutput(ctx, dir, "remote", "get-url", "origin"); oerr != nil || strings.TrimSpace(out) != url {
			return errors.Wrap(err, "git remote add origin")
		}
	}
	attrs := filepath.Join(dir, ".git", "info", "attributes")
	if err := os.WriteFile(attrs, []byte("* -export-subst -export-ignore\n"), 0o644); err != nil {
		return errors.Wrap(err, "writing .git/info/attributes")
	}
	return nil
}

func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "git %s: %s", strings.Join(args, " "), string(out))
	}
	return nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return "", errors.Wrapf(err, "git %s: %s", strings.Join(args, " "), string(ee.Stderr))
		}
		return "", errors.Wrapf(err, "git %s", strings.Join(args, " "))
	}
	return string(out), nil
}
