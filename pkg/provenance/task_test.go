// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package provenance

import "testing"

func TestTaskDataValidate(t *testing.T) {
	testCases := []struct {
		name    string
		data    TaskData
		wantErr bool
	}{
		{
			name: "valid fetch_tar",
			data: TaskData{Kind: TaskFetchTar, FetchTar: &FetchTarData{URL: "https://example.com/x.tar.gz"}},
		},
		{
			name:    "no variant set",
			data:    TaskData{Kind: TaskFetchTar},
			wantErr: true,
		},
		{
			name: "mismatched kind",
			data: TaskData{Kind: TaskGitSnapshot, FetchTar: &FetchTarData{URL: "https://example.com/x.tar.gz"}},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			data:    TaskData{Kind: "bogus"},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.data.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err=%v, wantErr=%v", err, tc.wantErr)
			}
		})
	}
}

func TestTaskKeyHelpers(t *testing.T) {
	if got, want := FetchTarKey("https://x/y.tar.gz"), "fetch:https://x/y.tar.gz"; got != want {
		t.Errorf("FetchTarKey() = %q, want %q", got, want)
	}
	if got, want := GitCloneKey("https://x/y.git"), "git-clone:https://x/y.git"; got != want {
		t.Errorf("GitCloneKey() = %q, want %q", got, want)
	}
	if got, want := IndexSbomKey("sha256:abc"), "sbom:sha256:abc"; got != want {
		t.Errorf("IndexSbomKey() = %q, want %q", got, want)
	}
}
