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

// Package github provides types and a client for fetching issue and pull
// request records from the GitHub GraphQL API.
package github

import "time"

// Actor identifies the account behind an issue, discriminated by kind.
// Kind carries the server's __typename tag (User, Bot, Organization, ...);
// unknown future tags are preserved as-is rather than rejected.
type Actor struct {
	Kind  string `json:"kind"`
	Login string `json:"login"`
}

// IssueRecord is one issue returned by the RecentIssues query. Records are
// constructed once per decoded node and immutable thereafter.
type IssueRecord struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`

	// Author is nil when the account has been deleted.
	Author *Actor `json:"author,omitempty"`

	// Assignees and Labels preserve server order; the query caps both at 10.
	Assignees []string `json:"assignees"`
	Labels    []string `json:"labels"`
}

// ReviewRequest is a single requested reviewer on a pull request. Login is
// nil when the reviewer is not a user (for example a team); the entry is
// still kept so review-request counts stay accurate.
type ReviewRequest struct {
	ReviewerKind string  `json:"reviewer_kind"`
	Login        *string `json:"login,omitempty"`
}

// PullRequestRecord is one pull request returned by the OpenPullRequests
// query. Number is unique among the records of a single fetch result.
type PullRequestRecord struct {
	Title          string          `json:"title"`
	Number         int             `json:"number"`
	ReviewRequests []ReviewRequest `json:"review_requests"`
	Assignees      []string        `json:"assignees"`
}

// PageInfo carries the pagination indicators of one response page, when the
// document selects them. The shipped documents do not wire a cursor
// variable, so HasNextPage stays false for them.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// FetchStats reports how a fetch call behaved: how many transport attempts
// it took (including retries), how many pages were fetched, how many records
// came back, and how long the whole call ran. Returned alongside results so
// retry behavior is observable without verbose logging.
type FetchStats struct {
	Attempts int
	Pages    int
	Records  int
	Duration time.Duration
}

// RepositoryInfo contains basic repository metadata from the typed preflight
// query. Used for progress output before a fetch.
type RepositoryInfo struct {
	TotalIssues      int
	OpenPullRequests int
}
