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
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	gperrors "github.com/gitpulse/gitpulse/internal/errors"
	"github.com/gitpulse/gitpulse/internal/gherror"
	"github.com/gitpulse/gitpulse/internal/query"
)

// RetryConfig configures the retry behavior for transient transport
// failures.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialBackoff is the backoff before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps the backoff growth.
	MaxBackoff time.Duration
	// BackoffMultiplier is the exponential growth factor.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration: three retries
// starting at 500ms, doubling, capped at 30s.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// FetchService orchestrates a fetch call: it selects a document from the
// catalog, drives the paginator and transport, hands raw payloads to the
// decoder, and returns normalized records. Each call owns its own paginator
// and retry counters, so concurrent fetches share nothing but the pooled
// HTTP transport.
type FetchService struct {
	transport *Transport
	retry     *RetryConfig
	pageCap   int
	inspector gherror.Inspector
	log       *zap.Logger
}

// NewFetchService creates a FetchService over the given transport. A nil
// retry config uses DefaultRetryConfig; a nil logger uses zap.NewNop.
func NewFetchService(transport *Transport, retry *RetryConfig, pageCap int, log *zap.Logger) *FetchService {
	if retry == nil {
		retry = DefaultRetryConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if pageCap < 1 {
		pageCap = 1
	}
	return &FetchService{
		transport: transport,
		retry:     retry,
		pageCap:   pageCap,
		inspector: gherror.NewInspector(),
		log:       log,
	}
}

// FetchIssues fetches issues updated since the given time from owner/name,
// ordered by updatedAt descending per the query's ordering directive. The
// returned stats report attempts, pages, and record count even on failure.
func (s *FetchService) FetchIssues(ctx context.Context, owner, name string, since time.Time) ([]IssueRecord, *FetchStats, error) {
	stats := &FetchStats{}
	if err := validateRepoArgs(owner, name); err != nil {
		return nil, stats, err
	}
	if since.IsZero() {
		return nil, stats, fmt.Errorf("since timestamp must be set: %w", gperrors.ErrInvalidArgument)
	}

	doc, err := query.Get(query.RecentIssues)
	if err != nil {
		return nil, stats, err
	}

	base := map[string]any{
		"owner": owner,
		"name":  name,
		"since": since.UTC().Format(time.RFC3339),
	}

	var records []IssueRecord
	err = s.paginate(ctx, doc, base, stats, func(data json.RawMessage) (PageInfo, error) {
		page, info, decErr := DecodeIssues(data)
		if decErr != nil {
			return PageInfo{}, decErr
		}
		records = append(records, page...)
		return info, nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("fetching issues from %s/%s (attempt %d): %w", owner, name, stats.Attempts, err)
	}

	stats.Records = len(records)
	s.log.Info("fetched issues",
		zap.String("repo", owner+"/"+name),
		zap.Time("since", since),
		zap.Int("records", stats.Records),
		zap.Int("attempts", stats.Attempts),
		zap.Duration("duration", stats.Duration))
	return records, stats, nil
}

// FetchOpenPullRequests fetches the open pull requests of owner/name in
// server order (the document selects the last 20 open PRs with no secondary
// sort). Duplicate numbers across pages are dropped so the result keeps the
// per-fetch uniqueness invariant.
func (s *FetchService) FetchOpenPullRequests(ctx context.Context, owner, name string) ([]PullRequestRecord, *FetchStats, error) {
	stats := &FetchStats{}
	if err := validateRepoArgs(owner, name); err != nil {
		return nil, stats, err
	}

	doc, err := query.Get(query.OpenPullRequests)
	if err != nil {
		return nil, stats, err
	}

	base := map[string]any{
		"owner": owner,
		"name":  name,
	}

	var records []PullRequestRecord
	seen := make(map[int]bool)
	err = s.paginate(ctx, doc, base, stats, func(data json.RawMessage) (PageInfo, error) {
		page, info, decErr := DecodePullRequests(data)
		if decErr != nil {
			return PageInfo{}, decErr
		}
		for _, pr := range page {
			if seen[pr.Number] {
				continue
			}
			seen[pr.Number] = true
			records = append(records, pr)
		}
		return info, nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("fetching pull requests from %s/%s (attempt %d): %w", owner, name, stats.Attempts, err)
	}

	stats.Records = len(records)
	s.log.Info("fetched open pull requests",
		zap.String("repo", owner+"/"+name),
		zap.Int("records", stats.Records),
		zap.Int("attempts", stats.Attempts),
		zap.Duration("duration", stats.Duration))
	return records, stats, nil
}

// paginate drives the paginator over the transport, decoding each page with
// the supplied function. Partial results are the caller's closure state and
// are discarded by the callers on error (all-or-nothing per fetch).
func (s *FetchService) paginate(ctx context.Context, doc query.Document, base map[string]any, stats *FetchStats, decode func(json.RawMessage) (PageInfo, error)) error {
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	p := newPaginator(doc, s.pageCap)
	defer func() { stats.Pages = p.Pages() }()

	for p.Next() {
		data, err := s.sendWithRetry(ctx, doc, p.Variables(base), stats)
		if err != nil {
			p.Fail()
			return err
		}

		info, err := decode(data)
		if err != nil {
			p.Fail()
			return err
		}
		p.Observe(info)
	}
	return nil
}

// sendWithRetry performs one logical transport call with retries on
// transient failures. Every attempt counts toward stats.Attempts. Auth,
// not-found, schema, and GraphQL execution errors surface immediately;
// cancellation stops further retries.
func (s *FetchService) sendWithRetry(ctx context.Context, doc query.Document, variables map[string]any, stats *FetchStats) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		stats.Attempts++
		data, err := s.transport.Send(ctx, doc, variables)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !s.inspector.IsRetryable(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == s.retry.MaxRetries {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.log.Debug("transient failure, backing off",
			zap.String("query", doc.Name),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", s.retry.MaxRetries),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", s.retry.MaxRetries, lastErr)
}

// calculateBackoff computes the exponential backoff for the given attempt
// with ±10% jitter to avoid thundering herds.
func (s *FetchService) calculateBackoff(attempt int) time.Duration {
	backoff := float64(s.retry.InitialBackoff) * math.Pow(s.retry.BackoffMultiplier, float64(attempt))
	if backoff > float64(s.retry.MaxBackoff) {
		backoff = float64(s.retry.MaxBackoff)
	}

	jitter := backoff * 0.1 * (2*float64(time.Now().UnixNano()%100)/100 - 1)
	backoff += jitter

	return time.Duration(backoff)
}

// validateRepoArgs rejects empty owner or repository names before any
// network traffic.
func validateRepoArgs(owner, name string) error {
	if owner == "" {
		return fmt.Errorf("owner must not be empty: %w", gperrors.ErrInvalidArgument)
	}
	if name == "" {
		return fmt.Errorf("repository name must not be empty: %w", gperrors.ErrInvalidArgument)
	}
	return nil
}
