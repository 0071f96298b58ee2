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

	"github.com/shurcooL/graphql"

	gperrors "github.com/gitpulse/gitpulse/internal/errors"
)

// GetRepositoryInfo retrieves basic repository metadata: the total issue
// count and the number of open pull requests. The CLI uses it for progress
// output before a fetch. Unlike the catalog documents this query is internal
// and typed, so it goes through the struct-based client; it shares the
// transport's connection pool and auth headers.
func (s *FetchService) GetRepositoryInfo(ctx context.Context, owner, name string) (*RepositoryInfo, error) {
	if err := validateRepoArgs(owner, name); err != nil {
		return nil, err
	}

	var q struct {
		Repository struct {
			Issues struct {
				TotalCount graphql.Int
			} `graphql:"issues"`
			PullRequests struct {
				TotalCount graphql.Int
			} `graphql:"pullRequests(states: OPEN)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]any{
		"owner": graphql.String(owner),
		"name":  graphql.String(name),
	}

	client := graphql.NewClient(s.transport.endpoint, s.transport.HTTPClient())
	if err := client.Query(ctx, &q, variables); err != nil {
		return nil, s.mapInfoError(err, owner, name)
	}

	return &RepositoryInfo{
		TotalIssues:      int(q.Repository.Issues.TotalCount),
		OpenPullRequests: int(q.Repository.PullRequests.TotalCount),
	}, nil
}

// mapInfoError classifies errors from the typed client into the taxonomy.
func (s *FetchService) mapInfoError(err error, owner, name string) error {
	switch {
	case s.inspector.IsRateLimitError(err):
		return fmt.Errorf("repository info for %s/%s: %w", owner, name, gperrors.ErrRateLimit)
	case s.inspector.IsAuthError(err):
		return fmt.Errorf("repository info for %s/%s: authentication failed: %w", owner, name, gperrors.ErrInvalidToken)
	case s.inspector.IsNotFoundError(err):
		return fmt.Errorf("repository '%s/%s' not found: %w", owner, name, gperrors.ErrRepoNotFound)
	case s.inspector.IsNetworkError(err):
		return fmt.Errorf("repository info for %s/%s: %w", owner, name, gperrors.ErrNetworkFailure)
	default:
		return fmt.Errorf("repository info for %s/%s: %w", owner, name, err)
	}
}
