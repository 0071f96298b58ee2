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
	"fmt"
	"time"

	gperrors "github.com/gitpulse/gitpulse/internal/errors"
)

// MockClient is a mock implementation of the Client interface for testing.
type MockClient struct {
	// Issues and PullRequests to return
	Issues       []IssueRecord
	PullRequests []PullRequestRecord

	// Error to return
	Error error

	// Behavior flags
	ShouldFailAuth     bool
	ShouldFailNetwork  bool
	ShouldFailNotFound bool

	// Track calls for verification
	CallCount int
	LastOwner string
	LastName  string
	LastSince time.Time
}

// NewMockClient creates a new mock client with default test data.
func NewMockClient() *MockClient {
	return &MockClient{
		Issues:       generateTestIssues(),
		PullRequests: generateTestPullRequests(),
	}
}

// FetchIssues implements the Client interface.
func (m *MockClient) FetchIssues(ctx context.Context, owner, name string, since time.Time) ([]IssueRecord, *FetchStats, error) {
	m.CallCount++
	m.LastOwner = owner
	m.LastName = name
	m.LastSince = since

	stats := &FetchStats{Attempts: 1, Pages: 1, Records: len(m.Issues)}
	if err := m.failure(ctx, owner, name); err != nil {
		return nil, stats, err
	}
	return m.Issues, stats, nil
}

// FetchOpenPullRequests implements the Client interface.
func (m *MockClient) FetchOpenPullRequests(ctx context.Context, owner, name string) ([]PullRequestRecord, *FetchStats, error) {
	m.CallCount++
	m.LastOwner = owner
	m.LastName = name

	stats := &FetchStats{Attempts: 1, Pages: 1, Records: len(m.PullRequests)}
	if err := m.failure(ctx, owner, name); err != nil {
		return nil, stats, err
	}
	return m.PullRequests, stats, nil
}

// GetRepositoryInfo implements the Client interface.
func (m *MockClient) GetRepositoryInfo(ctx context.Context, owner, name string) (*RepositoryInfo, error) {
	m.CallCount++
	m.LastOwner = owner
	m.LastName = name

	if err := m.failure(ctx, owner, name); err != nil {
		return nil, err
	}
	return &RepositoryInfo{
		TotalIssues:      len(m.Issues),
		OpenPullRequests: len(m.PullRequests),
	}, nil
}

func (m *MockClient) failure(ctx context.Context, owner, name string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if m.ShouldFailAuth {
		return fmt.Errorf("authentication failed: %w", gperrors.ErrInvalidToken)
	}
	if m.ShouldFailNetwork {
		return fmt.Errorf("network timeout: %w", gperrors.ErrNetworkFailure)
	}
	if m.ShouldFailNotFound || (owner == "nonexistent" && name == "repo") {
		return fmt.Errorf("repository not found: %w", gperrors.ErrRepoNotFound)
	}
	return m.Error
}

// generateTestIssues creates sample issue data for testing, newest first.
func generateTestIssues() []IssueRecord {
	now := time.Now().UTC()
	yesterday := now.Add(-24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	return []IssueRecord{
		{
			CreatedAt: lastWeek,
			UpdatedAt: now,
			Author:    &Actor{Kind: "User", Login: "alice"},
			Assignees: []string{"bob"},
			Labels:    []string{"bug"},
		},
		{
			CreatedAt: lastWeek,
			UpdatedAt: yesterday,
			ClosedAt:  &yesterday,
			Author:    &Actor{Kind: "User", Login: "bob"},
			Assignees: []string{},
			Labels:    []string{"enhancement"},
		},
		{
			CreatedAt: yesterday,
			UpdatedAt: yesterday,
			Author:    nil, // deleted account
			Assignees: []string{},
			Labels:    []string{},
		},
	}
}

// generateTestPullRequests creates sample pull request data for testing.
func generateTestPullRequests() []PullRequestRecord {
	reviewer := "charlie"
	return []PullRequestRecord{
		{
			Title:  "Add new feature for data processing",
			Number: 1234,
			ReviewRequests: []ReviewRequest{
				{ReviewerKind: "User", Login: &reviewer},
			},
			Assignees: []string{"alice"},
		},
		{
			Title:  "Fix memory leak in parser",
			Number: 1233,
			ReviewRequests: []ReviewRequest{
				{ReviewerKind: "Team", Login: nil},
			},
			Assignees: []string{},
		},
	}
}

// MockClientOption allows configuring the mock client.
type MockClientOption func(*MockClient)

// WithIssues sets specific issues to return.
func WithIssues(issues []IssueRecord) MockClientOption {
	return func(m *MockClient) {
		m.Issues = issues
	}
}

// WithPullRequests sets specific pull requests to return.
func WithPullRequests(prs []PullRequestRecord) MockClientOption {
	return func(m *MockClient) {
		m.PullRequests = prs
	}
}

// WithError makes the client return a specific error.
func WithError(err error) MockClientOption {
	return func(m *MockClient) {
		m.Error = err
	}
}

// WithAuthFailure makes the client simulate authentication failure.
func WithAuthFailure() MockClientOption {
	return func(m *MockClient) {
		m.ShouldFailAuth = true
	}
}

// NewMockClientWithOptions creates a mock client with options.
func NewMockClientWithOptions(opts ...MockClientOption) *MockClient {
	mock := NewMockClient()
	for _, opt := range opts {
		opt(mock)
	}
	return mock
}
