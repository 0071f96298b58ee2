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

// Package query holds the fixed GraphQL query documents sent to the GitHub
// API. The documents are sent verbatim; any change to their field selection
// is a breaking change to the response decoder and must be versioned
// together with it.
package query

import (
	"fmt"

	gperrors "github.com/gitpulse/gitpulse/internal/errors"
)

// Query names recognized by the catalog.
const (
	RecentIssues     = "RecentIssues"
	OpenPullRequests = "OpenPullRequests"
)

// Document is one fixed query document with its variable schema.
type Document struct {
	// Name is the catalog name of the document.
	Name string

	// Text is the literal GraphQL document sent to the server, unchanged
	// byte-for-byte across lookups.
	Text string

	// Variables lists the names of the variables the document declares.
	// The transport rejects variable maps that do not match this set exactly.
	Variables []string

	// CursorVariable names the pagination cursor variable, if the document
	// declares one. Both shipped documents use fixed page sizes with no
	// cursor wired through, so this is empty; a future document can set it
	// to enable multi-page fetches without redesign.
	CursorVariable string
}

const recentIssuesText = `query RecentIssues($owner: String!, $name: String!, $since: DateTime!) {
  repository(owner: $owner, name: $name) {
    issues(first: 100, filterBy: {since: $since}, orderBy: {field: UPDATED_AT, direction: DESC}) {
      nodes {
        createdAt
        updatedAt
        closedAt
        author {
          __typename
          login
        }
        assignees(first: 10) {
          nodes {
            login
          }
        }
        labels(first: 10) {
          nodes {
            name
          }
        }
      }
    }
  }
}`

const openPullRequestsText = `query OpenPullRequests($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    pullRequests(states: OPEN, last: 20) {
      nodes {
        title
        number
        reviewRequests(first: 10) {
          nodes {
            requestedReviewer {
              __typename
              ... on User {
                login
              }
            }
          }
        }
        assignees(first: 10) {
          nodes {
            login
          }
        }
      }
    }
  }
}`

var catalog = map[string]Document{
	RecentIssues: {
		Name:      RecentIssues,
		Text:      recentIssuesText,
		Variables: []string{"owner", "name", "since"},
	},
	OpenPullRequests: {
		Name:      OpenPullRequests,
		Text:      openPullRequestsText,
		Variables: []string{"owner", "name"},
	},
}

// Get returns the document registered under name. It fails with
// ErrUnknownQuery for any name outside the catalog. Lookups are pure and
// side-effect free; the catalog is immutable and safe for concurrent use.
func Get(name string) (Document, error) {
	doc, ok := catalog[name]
	if !ok {
		return Document{}, fmt.Errorf("no query document named %q: %w", name, gperrors.ErrUnknownQuery)
	}
	return doc, nil
}

// Names returns the catalog's query names. Useful for CLI help output.
func Names() []string {
	return []string{RecentIssues, OpenPullRequests}
}
