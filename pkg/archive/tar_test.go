// Copyright 2024 The OSS Rebuild Authors
// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/whatsrc/whatsrc/pkg/provenance"
)

// buildTar constructs the S1 scenario tar: a (content "x"), b (symlink to
// a), c (content "yy"), in that order.
func buildTar(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(tw.WriteHeader(&tar.Header{Name: "a", Typeflag: tar.TypeReg, Size: 1, Mode: 0644}))
	_, err := tw.Write([]byte("x"))
	must(err)
	must(tw.WriteHeader(&tar.Header{Name: "b", Typeflag: tar.TypeSymlink, Linkname: "a"}))
	must(tw.WriteHeader(&tar.Header{Name: "c", Typeflag: tar.TypeReg, Size: 2, Mode: 0644}))
	_, err = tw.Write([]byte("yy"))
	must(err)
	must(tw.Close())
	return buf.Bytes()
}

func sha256Hex(b []byte) string {
	s := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(s[:])
}

func TestIngestTarPlain(t *testing.T) {
	raw := buildTar(t)
	result, err := IngestTar(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("IngestTar: %v", err)
	}
	want := []provenance.Entry{
		{Path: "a", Digest: sha256Hex([]byte("x"))},
		{Path: "b", LinksTo: &provenance.Link{Kind: provenance.LinkSymbolic, Target: "a"}},
		{Path: "c", Digest: sha256Hex([]byte("yy"))},
	}
	if diff := cmp.Diff(want, result.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
	wantDigest := sha256Hex(raw)
	if result.Inner.SHA256 != wantDigest {
		t.Errorf("Inner.SHA256 = %s, want %s", result.Inner.SHA256, wantDigest)
	}
	if result.Outer.SHA256 != result.Inner.SHA256 {
		t.Errorf("Outer should equal Inner for an uncompressed stream: %s != %s", result.Outer.SHA256, result.Inner.SHA256)
	}
}

func TestIngestTarIdempotent(t *testing.T) {
	raw := buildTar(t)
	first, err := IngestTar(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("first IngestTar: %v", err)
	}
	second, err := IngestTar(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("second IngestTar: %v", err)
	}
	if diff := cmp.Diff(first.Files, second.Files); diff != "" {
		t.Errorf("Files differ between ingests (-first +second):\n%s", diff)
	}
	if first.Inner.SHA256 != second.Inner.SHA256 {
		t.Errorf("Inner digest differs between ingests: %s != %s", first.Inner.SHA256, second.Inner.SHA256)
	}
}

func TestIngestTarSkipsGlobalHeader(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{Name: "pax_global_header", Typeflag: tar.TypeXGlobalHeader, PAXRecords: map[string]string{"comment": "x"}}); err != nil {
		t.Fatal(err)
	}
	if err := tw.WriteHeader(&tar.Header{Name: "a", Typeflag: tar.TypeReg, Size: 1, Mode: 0644}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	result, err := IngestTar(&buf)
	if err != nil {
		t.Fatalf("IngestTar: %v", err)
	}
	want := []provenance.Entry{{Path: "a", Digest: sha256Hex([]byte("x"))}}
	if diff := cmp.Diff(want, result.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
}
