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

// Package main implements the gitpulse command-line interface.
// The tool polls GitHub repositories with a fixed catalog of GraphQL
// queries and outputs normalized records in NDJSON format.
//
// The CLI supports:
//   - Fetching recently updated issues with an incremental watermark
//   - Fetching the most recently opened pull requests
//   - Customizable output destinations (stdout or file)
//   - GitHub token authentication via flag or environment variable
//   - Graceful error handling with appropriate exit codes
//
// Usage:
//
//	gitpulse fetch issues <owner>/<repo> [flags]
//	gitpulse fetch pulls <owner>/<repo> [flags]
//	gitpulse queries
//
// Example:
//
//	export GITHUB_TOKEN=your_token
//	gitpulse fetch issues golang/go --output issues.ndjson
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Authentication, authorization, or usage error
//   - 3: Network error
package main
