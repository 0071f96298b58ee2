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

// Package github implements the GraphQL fetch pipeline: a Transport that
// posts the fixed catalog documents, decoders that normalize response
// payloads into records, a Paginator that tracks cursor state, and a
// FetchService that orchestrates them with retry on transient failures.
//
// The package is organized around the Client interface so tests and callers
// can substitute MockClient for the real FetchService.
package github
