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

package metadata

import (
	"time"
)

// PollMetadata is the complete metadata record for a single poll run.
// It captures which query ran, against which repository, with what
// parameters, and what came back. Records are persisted beside the
// state files so poll history can be inspected after the fact.
type PollMetadata struct {
	ToolVersion string      `json:"tool_version"`
	QueryName   string      `json:"query_name"`
	PollID      string      `json:"poll_id"`
	Parameters  PollParams  `json:"parameters"`
	Results     PollResults `json:"results"`
}

// PollParams captures the input parameters of a poll run. The since
// window only applies to issue polls and is omitted otherwise.
type PollParams struct {
	Owner      string     `json:"owner"`
	Repository string     `json:"repository"`
	Since      *time.Time `json:"since,omitempty"`
}

// PollResults holds the outcome statistics of a completed poll:
// record and page counts, transport attempts, and timing.
type PollResults struct {
	Records     int       `json:"records"`
	Pages       int       `json:"pages"`
	Attempts    int       `json:"attempts"`
	Duration    string    `json:"duration"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
