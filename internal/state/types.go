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

package state

import (
	"time"
)

// CurrentVersion is the current state schema version.
// Increment this when making breaking changes to the PollState structure.
const CurrentVersion = 1

// PollState is the persistent watermark for a repository's issue polling.
// After a successful issue fetch the newest updatedAt timestamp seen is
// saved here and becomes the default "since" for the next run. The state
// carries a version for forward compatibility and a checksum to detect
// corruption.
type PollState struct {
	// Version indicates the schema version of this state file.
	Version int `json:"version"`

	// Checksum is the SHA256 hash of the state content (excluding this field).
	Checksum string `json:"checksum"`

	// Repository is the full repository name in "owner/repo" format.
	Repository string `json:"repository"`

	// LastUpdatedAt is the newest issue updatedAt seen in the last fetch.
	// It is the watermark for incremental polling.
	LastUpdatedAt time.Time `json:"last_updated_at"`

	// LastFetchTime records when the last fetch completed successfully.
	LastFetchTime time.Time `json:"last_fetch_time"`

	// TotalFetched is the number of records returned by the last fetch.
	TotalFetched int `json:"total_fetched"`
}
