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

// Package state provides atomic persistence of per-repository poll
// watermarks.
//
// After a successful issue fetch the newest updatedAt timestamp seen is
// saved as the watermark for the next incremental poll. State files are
// JSON for human readability, carry a SHA256 checksum for integrity
// validation, and are written with a write-to-temp-and-rename pattern so
// a crash mid-write never leaves a corrupt file behind.
//
// Example usage:
//
//	st := &PollState{
//	    Repository:    "golang/go",
//	    LastUpdatedAt: newest,
//	}
//	err := Save(st, StateFilePath(stateDir, "golang/go"))
package state
