// Copyright 2025 The gitpulse Authors
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

package github

import (
	"context"
	"errors"
	"testing"
	"time"

	gperrors "github.com/gitpulse/gitpulse/internal/errors"
)

func TestMockClientDefaults(t *testing.T) {
	mock := NewMockClient()
	ctx := context.Background()
	since := time.Now().Add(-time.Hour)

	issues, stats, err := mock.FetchIssues(ctx, "golang", "go", since)
	if err != nil {
		t.Fatalf("FetchIssues failed: %v", err)
	}
	if len(issues) == 0 {
		t.Error("default mock returned no issues")
	}
	if stats.Records != len(issues) {
		t.Errorf("stats.Records = %d, want %d", stats.Records, len(issues))
	}
	if mock.CallCount != 1 || mock.LastOwner != "golang" || mock.LastName != "go" {
		t.Errorf("call tracking = (%d, %q, %q), want (1, golang, go)",
			mock.CallCount, mock.LastOwner, mock.LastName)
	}
	if !mock.LastSince.Equal(since) {
		t.Errorf("LastSince = %v, want %v", mock.LastSince, since)
	}

	info, err := mock.GetRepositoryInfo(ctx, "golang", "go")
	if err != nil {
		t.Fatalf("GetRepositoryInfo failed: %v", err)
	}
	if info.TotalIssues != len(issues) {
		t.Errorf("TotalIssues = %d, want %d", info.TotalIssues, len(issues))
	}
}

func TestMockClientBehaviorFlags(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    *MockClient
		wantErr error
	}{
		{
			name:    "auth failure",
			mock:    NewMockClientWithOptions(WithAuthFailure()),
			wantErr: gperrors.ErrInvalidToken,
		},
		{
			name:    "injected error",
			mock:    NewMockClientWithOptions(WithError(gperrors.ErrRateLimit)),
			wantErr: gperrors.ErrRateLimit,
		},
		{
			name:    "nonexistent repo convention",
			mock:    NewMockClient(),
			wantErr: gperrors.ErrRepoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, name := "golang", "go"
			if errors.Is(tt.wantErr, gperrors.ErrRepoNotFound) {
				owner, name = "nonexistent", "repo"
			}
			_, _, err := tt.mock.FetchOpenPullRequests(ctx, owner, name)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMockClientRespectsCancellation(t *testing.T) {
	mock := NewMockClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := mock.FetchIssues(ctx, "golang", "go", time.Now().Add(-time.Hour))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestMockClientWithCustomData(t *testing.T) {
	custom := []PullRequestRecord{{Title: "only one", Number: 7}}
	mock := NewMockClientWithOptions(WithPullRequests(custom))

	records, _, err := mock.FetchOpenPullRequests(context.Background(), "golang", "go")
	if err != nil {
		t.Fatalf("FetchOpenPullRequests failed: %v", err)
	}
	if len(records) != 1 || records[0].Number != 7 {
		t.Errorf("records = %+v, want the injected record", records)
	}
}
