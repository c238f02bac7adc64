// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/net/proxy"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/whatsrc/whatsrc/internal/db"
	"github.com/whatsrc/whatsrc/internal/gitx"
	"github.com/whatsrc/whatsrc/internal/objectstore"
	"github.com/whatsrc/whatsrc/internal/taskqueue"
	"github.com/whatsrc/whatsrc/internal/uri"
	"github.com/whatsrc/whatsrc/internal/worker"
	"github.com/whatsrc/whatsrc/pkg/bridge/apk"
	"github.com/whatsrc/whatsrc/pkg/bridge/cargo"
	"github.com/whatsrc/whatsrc/pkg/bridge/npm"
	"github.com/whatsrc/whatsrc/pkg/bridge/pacman"
	"github.com/whatsrc/whatsrc/pkg/bridge/voidlinux"
	"github.com/whatsrc/whatsrc/pkg/ingest"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

var (
	workerDBDSN  string
	workerGitTmp string
	workerSocks5 string
	workerBucket string
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the task execution loop",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		d, err := db.Connect(ctx, workerDBDSN)
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer d.Close()

		client, err := httpClient(workerSocks5)
		if err != nil {
			log.Fatalf("constructing HTTP client: %v", err)
		}

		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("loading AWS config: %v", err)
		}
		store := objectstore.New(s3.NewFromConfig(awsCfg), workerBucket)

		q := taskqueue.New(d.Pool())
		reg := worker.Registry{
			provenance.TaskFetchTar: func(ctx context.Context, data provenance.TaskData) error {
				return ingest.FetchTar(ctx, d, store, client, *data.FetchTar)
			},
			provenance.TaskGitSnapshot: func(ctx context.Context, data provenance.TaskData) error {
				ref, err := uri.ParseGitRef(data.GitSnapshot.URL)
				if err != nil {
					return err
				}
				result, err := gitx.Snapshot(ctx, workerGitTmp, ref)
				if err != nil {
					if err == gitx.Skipped {
						return nil
					}
					return err
				}
				if err := d.InsertArtifact(ctx, result.Ingest.Inner.SHA256, result.Ingest.Files); err != nil {
					return err
				}
				return d.InsertAlias(ctx, result.AliasTo.AliasFrom, result.AliasTo.AliasTo, result.AliasTo.Reason)
			},
			provenance.TaskPacmanGitSnapshot: func(ctx context.Context, data provenance.TaskData) error {
				snap := data.PacmanGitSnapshot
				content, _, err := gitx.ShowFile(ctx, workerGitTmp, pacman.RepoRef(snap.Package, snap.Tag), pacman.SRCINFOPath)
				if err != nil {
					if err == gitx.Skipped {
						return nil
					}
					return err
				}
				refs, tasks, err := pacman.Parse(string(content), snap.Vendor, snap.Package, snap.Version)
				if err != nil {
					return err
				}
				return insertRefsAndTasks(ctx, d, q, refs, tasks)
			},
			provenance.TaskApkbuildGit: func(ctx context.Context, data provenance.TaskData) error {
				ab := data.ApkbuildGit
				content, _, err := gitx.ShowFile(ctx, workerGitTmp, apk.RepoRef(ab.Vendor, ab.Repo, ab.Commit), apk.APKBUILDPath(ab.Origin))
				if err != nil {
					if err == gitx.Skipped {
						return nil
					}
					return err
				}
				refs, tasks, err := apk.ParseSources(string(content), ab.Vendor, ab.Origin, ab.Version)
				if err != nil {
					return err
				}
				return insertRefsAndTasks(ctx, d, q, refs, tasks)
			},
			provenance.TaskVoidLinuxGit: func(ctx context.Context, data provenance.TaskData) error {
				vl := data.VoidLinuxGit
				content, _, err := gitx.ShowFile(ctx, workerGitTmp, voidlinux.RepoRef(vl.Commit), voidlinux.TemplatePath(vl.Srcpkg))
				if err != nil {
					if err == gitx.Skipped {
						return nil
					}
					return err
				}
				refs, tasks, err := voidlinux.ParseSources(string(content), vl.Vendor, vl.Package, vl.Version)
				if err != nil {
					return err
				}
				return insertRefsAndTasks(ctx, d, q, refs, tasks)
			},
			provenance.TaskIndexSbom: func(ctx context.Context, data provenance.TaskData) error {
				sbom, err := d.GetSbom(ctx, data.IndexSbom.Chksum)
				if err != nil {
					return err
				}
				var refs []provenance.Ref
				var tasks []provenance.Task
				switch sbom.Strain {
				case provenance.StrainCargoLock:
					refs, tasks, err = cargo.Parse(sbom.Data)
				case provenance.StrainPackageLockJSON:
					refs, tasks, err = npm.Parse([]byte(sbom.Data))
				default:
					return errors.Errorf("no bridge registered for sbom strain %q", sbom.Strain)
				}
				if err != nil {
					return err
				}
				return insertRefsAndTasks(ctx, d, q, refs, tasks)
			},
			provenance.TaskSourceRpm: func(ctx context.Context, data provenance.TaskData) error {
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, data.SourceRpm.URL, nil)
				if err != nil {
					return err
				}
				resp, err := client.Do(req)
				if err != nil {
					return err
				}
				defer resp.Body.Close()
				if resp.StatusCode/100 != 2 {
					return errors.Errorf("fetching %s: %s", data.SourceRpm.URL, resp.Status)
				}
				return ingest.IngestSourceRpm(ctx, d, store, resp.Body, *data.SourceRpm)
			},
		}
		log.Printf("worker loop starting (git scratch dir: %s)", workerGitTmp)
		if err := worker.Loop(ctx, q, reg); err != nil {
			log.Printf("worker loop exited: %v", err)
		}
	},
}

func init() {
	workerCmd.Flags().StringVar(&workerDBDSN, "db-dsn", os.Getenv("WHATSRC_DB_DSN"), "PostgreSQL connection string")
	workerCmd.Flags().StringVar(&workerGitTmp, "git-tmp", os.Getenv("WHATSRC_GIT_TMP"), "scratch directory for git snapshots")
	workerCmd.Flags().StringVar(&workerSocks5, "socks5", os.Getenv("WHATSRC_SOCKS5"), "optional SOCKS5 proxy URL for outbound fetches")
	workerCmd.Flags().StringVar(&workerBucket, "bucket", os.Getenv("WHATSRC_S3_BUCKET"), "content store bucket name")
}

// httpClient builds an http.Client, optionally dialing through a SOCKS5
// proxy (e.g. for egress from a restricted network).
func httpClient(socks5Addr string) (*http.Client, error) {
	if socks5Addr == "" {
		return http.DefaultClient, nil
	}
	dialer, err := proxy.SOCKS5("tcp", socks5Addr, nil, proxy.Direct)
	if err != nil {
		return nil, err
	}
	contextDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, errNoContextDialer
	}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return contextDialer.DialContext(ctx, network, addr)
		},
	}
	return &http.Client{Transport: transport}, nil
}

// insertRefsAndTasks records every ref a recipe/lockfile bridge resolved and
// enqueues the tasks it derived from them, in the order the bridge returned
// them (refs before the tasks that name them as a SuccessRef).
func insertRefsAndTasks(ctx context.Context, d *db.DB, q *taskqueue.Queue, refs []provenance.Ref, tasks []provenance.Task) error {
	for _, ref := range refs {
		if err := d.InsertRef(ctx, ref); err != nil {
			return err
		}
	}
	for _, task := range tasks {
		if err := q.Insert(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

type noContextDialerError struct{}

func (noContextDialerError) Error() string { return "socks5 dialer does not support contexts" }

var errNoContextDialer = noContextDialerError{}
