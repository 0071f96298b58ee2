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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gperrors "github.com/gitpulse/gitpulse/internal/errors"
)

const issuesBody = `{"data":{"repository":{"issues":{"nodes":[
	{"createdAt":"2026-08-20T10:00:00Z","updatedAt":"2026-08-30T12:00:00Z","closedAt":null,
	 "author":{"__typename":"User","login":"alice"},
	 "assignees":{"nodes":[]},"labels":{"nodes":[]}},
	{"createdAt":"2026-08-10T10:00:00Z","updatedAt":"2026-08-28T12:00:00Z","closedAt":"2026-08-28T12:00:00Z",
	 "author":null,
	 "assignees":{"nodes":[{"login":"bob"}]},"labels":{"nodes":[{"name":"bug"}]}}
]}}}}`

const pullsBody = `{"data":{"repository":{"pullRequests":{"nodes":[
	{"title":"First","number":7,"reviewRequests":{"nodes":[]},"assignees":{"nodes":[]}},
	{"title":"Second","number":9,"reviewRequests":{"nodes":[{"requestedReviewer":{"__typename":"Team"}}]},"assignees":{"nodes":[]}}
]}}}}`

// fastRetry keeps test backoff negligible.
func fastRetry(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:        maxRetries,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func newTestService(t *testing.T, handler http.HandlerFunc, retry *RetryConfig) (*FetchService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	transport := NewTransport(server.URL, "test-token", 5*time.Second)
	return NewFetchService(transport, retry, 1, nil), server
}

func TestFetchIssuesSuccess(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(issuesBody))
	}, fastRetry(3))

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records, stats, err := svc.FetchIssues(context.Background(), "octocat", "hello-world", since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if stats.Attempts != 1 || stats.Pages != 1 || stats.Records != 2 {
		t.Errorf("stats = %+v, want 1 attempt, 1 page, 2 records", stats)
	}

	// Server ordering (updatedAt descending) passes through unchanged.
	if records[0].UpdatedAt.Before(records[1].UpdatedAt) {
		t.Error("records are not ordered by updatedAt descending")
	}
	// closedAt, when present, is not before createdAt.
	for i, r := range records {
		if r.ClosedAt != nil && r.ClosedAt.Before(r.CreatedAt) {
			t.Errorf("record %d: closedAt precedes createdAt", i)
		}
	}
	if records[1].Author != nil {
		t.Error("deleted author should decode to nil")
	}
}

func TestFetchIssuesRetriesThenSucceeds(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(issuesBody))
	}, fastRetry(3))

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records, stats, err := svc.FetchIssues(context.Background(), "octocat", "hello-world", since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
	if stats.Attempts != 3 {
		t.Errorf("attempts = %d, want exactly 3 (two failures plus the success)", stats.Attempts)
	}
}

func TestFetchIssuesRetriesExhausted(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, fastRetry(2))

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, stats, err := svc.FetchIssues(context.Background(), "octocat", "hello-world", since)
	if !errors.Is(err, gperrors.ErrNetworkFailure) {
		t.Fatalf("expected ErrNetworkFailure, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d calls, want 3 (initial + 2 retries)", got)
	}
	if stats.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", stats.Attempts)
	}
}

func TestFetchIssuesAuthFailureNotRetried(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}, fastRetry(3))

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, stats, err := svc.FetchIssues(context.Background(), "octocat", "hello-world", since)
	if !errors.Is(err, gperrors.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if stats.Attempts != 1 {
		t.Errorf("attempts = %d, want exactly 1 (no retry on auth failure)", stats.Attempts)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

func TestFetchIssuesInvalidArguments(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("validation failures must not reach the network")
	}, fastRetry(0))

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		owner string
		repo  string
		since time.Time
	}{
		{"empty owner", "", "hello-world", since},
		{"empty name", "octocat", "", since},
		{"zero since", "octocat", "hello-world", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.FetchIssues(context.Background(), tt.owner, tt.repo, tt.since)
			if !errors.Is(err, gperrors.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestFetchOpenPullRequests(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pullsBody))
	}, fastRetry(3))

	records, stats, err := svc.FetchOpenPullRequests(context.Background(), "octocat", "hello-world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if stats.Attempts != 1 || stats.Records != 2 {
		t.Errorf("stats = %+v", stats)
	}

	seen := make(map[int]bool)
	for _, r := range records {
		if seen[r.Number] {
			t.Errorf("duplicate number %d in fetch result", r.Number)
		}
		seen[r.Number] = true
	}

	// Non-user review request kept with nil login.
	if len(records[1].ReviewRequests) != 1 {
		t.Fatalf("review requests = %d, want 1", len(records[1].ReviewRequests))
	}
	if records[1].ReviewRequests[0].ReviewerKind != "Team" || records[1].ReviewRequests[0].Login != nil {
		t.Errorf("unexpected review request: %+v", records[1].ReviewRequests[0])
	}
}

func TestFetchOpenPullRequestsGraphQLErrorNotRetried(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"Field 'reviewRequests' doesn't accept argument 'last'"}]}`))
	}, fastRetry(3))

	_, _, err := svc.FetchOpenPullRequests(context.Background(), "octocat", "hello-world")
	if !errors.Is(err, gperrors.ErrGraphQL) {
		t.Fatalf("expected ErrGraphQL, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d calls, want 1 (execution errors are not retried)", got)
	}
}

func TestFetchMalformedResponseNotRetried(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"repository":null}}`))
	}, fastRetry(3))

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := svc.FetchIssues(context.Background(), "octocat", "hello-world", since)
	if !errors.Is(err, gperrors.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

func TestFetchCancellationStopsRetries(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, &RetryConfig{
		MaxRetries:        5,
		InitialBackoff:    200 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := svc.FetchIssues(ctx, "octocat", "hello-world", since)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// The first attempt fails fast, the cancellation lands during backoff.
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

func TestCalculateBackoffGrowth(t *testing.T) {
	svc := NewFetchService(nil, &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}, 1, nil)

	prev := time.Duration(0)
	for attempt := 0; attempt < 4; attempt++ {
		b := svc.calculateBackoff(attempt)
		// Jitter is ±10%, so each step still clearly exceeds the previous one.
		if b <= prev {
			t.Errorf("backoff for attempt %d (%v) did not grow past %v", attempt, b, prev)
		}
		if b > 33*time.Second {
			t.Errorf("backoff %v exceeds cap with jitter", b)
		}
		prev = b
	}
}

func TestFetchStatsReportPagesOnFailure(t *testing.T) {
	// Page one succeeds, every later request fails until retries run out.
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":{"page":1}}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	transport := NewTransport(server.URL, "test-token", 5*time.Second)
	svc := NewFetchService(transport, fastRetry(1), 3, nil)

	// The cursor variable rides in the base set so page one sends an empty
	// cursor and page two sends the one observed.
	base := map[string]any{"owner": "octocat", "name": "hello-world", "after": ""}
	stats := &FetchStats{}
	err := svc.paginate(context.Background(), cursorDoc, base, stats, func(json.RawMessage) (PageInfo, error) {
		return PageInfo{HasNextPage: true, EndCursor: "c1"}, nil
	})
	if err == nil {
		t.Fatal("expected the second page to fail")
	}
	if !errors.Is(err, gperrors.ErrNetworkFailure) {
		t.Fatalf("error = %v, want ErrNetworkFailure", err)
	}

	if stats.Pages != 1 {
		t.Errorf("Pages = %d, want the fetched page counted on failure", stats.Pages)
	}
	if stats.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3 (page one plus two tries at page two)", stats.Attempts)
	}
	if stats.Duration == 0 {
		t.Error("Duration not set on failure")
	}
}
