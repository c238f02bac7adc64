// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package objectstore uploads outer-compressed artifact bytes to an
// S3-compatible content store, presigned via AWS SigV4.
package objectstore

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// PresignExpiry is how long a presigned PUT URL remains valid.
const PresignExpiry = 15 * time.Minute

// Store presigns and performs PUT uploads of artifact bytes into a single
// S3-compatible bucket, keyed by digest.
type Store struct {
	bucket   string
	presign  *s3.PresignClient
	http     *http.Client
}

// New constructs a Store backed by client, uploading into bucket.
func New(client *s3.Client, bucket string) *Store {
	return &Store{bucket: bucket, presign: s3.NewPresignClient(client), http: http.DefaultClient}
}

// Key returns the conventional object key for a digest string (e.g.
// "sha256:<hex>"), namespaced under an "artifacts/" prefix.
func Key(digest string) string {
	return "artifacts/" + digest
}

// PresignPut returns a PUT URL valid for PresignExpiry. Neither the body's
// length nor its checksum is part of the signature; Put sends the body as an
// unsigned payload.
func (s *Store) PresignPut(ctx context.Context, digest string) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(Key(digest)),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", errors.Wrap(err, "presigning PUT")
	}
	return req.URL, nil
}

// Put sends body to the presigned URL for digest via a single HTTP PUT.
// pkg/ingest calls it with outer bytes it has already buffered and digested
// in full, since digest names the key.
func (s *Store) Put(ctx context.Context, digest string, body io.Reader) error {
	url, err := s.PresignPut(ctx, digest)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return errors.Wrap(err, "building PUT request")
	}
	req.Header.Set("x-amz-content-sha256", "UNSIGNED-PAYLOAD")
	resp, err := s.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "performing PUT")
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.Errorf("PUT %s: unexpected status %s", Key(digest), resp.Status)
	}
	return nil
}
