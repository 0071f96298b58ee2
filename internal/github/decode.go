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
	"encoding/json"
	"fmt"
	"time"

	gperrors "github.com/gitpulse/gitpulse/internal/errors"
)

// Response shapes mirror the field selection of the catalog documents.
// A change to a document's selection is a breaking change here too.

type loginNode struct {
	Login string `json:"login"`
}

type issueNode struct {
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ClosedAt  *time.Time `json:"closedAt"`
	Author    *struct {
		Typename string `json:"__typename"`
		Login    string `json:"login"`
	} `json:"author"`
	Assignees *struct {
		Nodes []loginNode `json:"nodes"`
	} `json:"assignees"`
	Labels *struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
}

type issuesPayload struct {
	Repository *struct {
		Issues *struct {
			PageInfo *PageInfo    `json:"pageInfo"`
			Nodes    *[]issueNode `json:"nodes"`
		} `json:"issues"`
	} `json:"repository"`
}

type pullRequestNode struct {
	Title          string `json:"title"`
	Number         int    `json:"number"`
	ReviewRequests *struct {
		Nodes []struct {
			RequestedReviewer *struct {
				Typename string  `json:"__typename"`
				Login    *string `json:"login"`
			} `json:"requestedReviewer"`
		} `json:"nodes"`
	} `json:"reviewRequests"`
	Assignees *struct {
		Nodes []loginNode `json:"nodes"`
	} `json:"assignees"`
}

type pullRequestsPayload struct {
	Repository *struct {
		PullRequests *struct {
			PageInfo *PageInfo          `json:"pageInfo"`
			Nodes    *[]pullRequestNode `json:"nodes"`
		} `json:"pullRequests"`
	} `json:"repository"`
}

// DecodeIssues parses the raw data payload of a RecentIssues response into
// IssueRecords, preserving server order. A missing repository or nodes
// wrapper indicates a schema mismatch and fails with ErrMalformedResponse;
// a null author on an individual node is data, not an error.
func DecodeIssues(data json.RawMessage) ([]IssueRecord, PageInfo, error) {
	var payload issuesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, PageInfo{}, fmt.Errorf("decoding issues payload: %v: %w", err, gperrors.ErrMalformedResponse)
	}
	if payload.Repository == nil || payload.Repository.Issues == nil || payload.Repository.Issues.Nodes == nil {
		return nil, PageInfo{}, fmt.Errorf("issues payload missing repository/issues/nodes wrapper: %w", gperrors.ErrMalformedResponse)
	}

	nodes := *payload.Repository.Issues.Nodes
	records := make([]IssueRecord, 0, len(nodes))
	for _, n := range nodes {
		rec := IssueRecord{
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
			ClosedAt:  n.ClosedAt,
			Assignees: []string{},
			Labels:    []string{},
		}
		if n.Author != nil {
			rec.Author = &Actor{Kind: n.Author.Typename, Login: n.Author.Login}
		}
		if n.Assignees != nil {
			for _, a := range n.Assignees.Nodes {
				rec.Assignees = append(rec.Assignees, a.Login)
			}
		}
		if n.Labels != nil {
			for _, l := range n.Labels.Nodes {
				rec.Labels = append(rec.Labels, l.Name)
			}
		}
		records = append(records, rec)
	}

	var info PageInfo
	if payload.Repository.Issues.PageInfo != nil {
		info = *payload.Repository.Issues.PageInfo
	}
	return records, info, nil
}

// DecodePullRequests parses the raw data payload of an OpenPullRequests
// response into PullRequestRecords, preserving server order. Review-request
// entries whose reviewer is not a user keep their __typename tag with a nil
// login; none are dropped, so counts stay accurate.
func DecodePullRequests(data json.RawMessage) ([]PullRequestRecord, PageInfo, error) {
	var payload pullRequestsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, PageInfo{}, fmt.Errorf("decoding pull requests payload: %v: %w", err, gperrors.ErrMalformedResponse)
	}
	if payload.Repository == nil || payload.Repository.PullRequests == nil || payload.Repository.PullRequests.Nodes == nil {
		return nil, PageInfo{}, fmt.Errorf("pull requests payload missing repository/pullRequests/nodes wrapper: %w", gperrors.ErrMalformedResponse)
	}

	nodes := *payload.Repository.PullRequests.Nodes
	records := make([]PullRequestRecord, 0, len(nodes))
	for _, n := range nodes {
		rec := PullRequestRecord{
			Title:          n.Title,
			Number:         n.Number,
			ReviewRequests: []ReviewRequest{},
			Assignees:      []string{},
		}
		if n.ReviewRequests != nil {
			for _, rr := range n.ReviewRequests.Nodes {
				req := ReviewRequest{}
				if rr.RequestedReviewer != nil {
					req.ReviewerKind = rr.RequestedReviewer.Typename
					if rr.RequestedReviewer.Typename == "User" {
						req.Login = rr.RequestedReviewer.Login
					}
				}
				rec.ReviewRequests = append(rec.ReviewRequests, req)
			}
		}
		if n.Assignees != nil {
			for _, a := range n.Assignees.Nodes {
				rec.Assignees = append(rec.Assignees, a.Login)
			}
		}
		records = append(records, rec)
	}

	var info PageInfo
	if payload.Repository.PullRequests.PageInfo != nil {
		info = *payload.Repository.PullRequests.PageInfo
	}
	return records, info, nil
}
