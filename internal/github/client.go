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
	"time"
)

// Client defines the interface for fetching records from GitHub.
// This interface allows for easy mocking in tests.
type Client interface {
	// FetchIssues retrieves issues updated since the given time, ordered by
	// updatedAt descending. Stats report attempts and pages even on error.
	FetchIssues(ctx context.Context, owner, name string, since time.Time) ([]IssueRecord, *FetchStats, error)

	// FetchOpenPullRequests retrieves open pull requests in server order.
	FetchOpenPullRequests(ctx context.Context, owner, name string) ([]PullRequestRecord, *FetchStats, error)

	// GetRepositoryInfo retrieves basic repository metadata for progress
	// output.
	GetRepositoryInfo(ctx context.Context, owner, name string) (*RepositoryInfo, error)
}

// FetchService implements Client.
var _ Client = (*FetchService)(nil)
