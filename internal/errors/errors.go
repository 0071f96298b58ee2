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

// Package errors defines sentinel errors for consistent error handling across
// the application. These errors map to specific exit codes in the CLI for
// proper scripting support.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrInvalidArgument indicates bad caller input such as an empty owner
	// or repository name, or a malformed since timestamp.
	// Maps to exit code 2.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownQuery indicates a query name not present in the catalog.
	// This is a programming error, never retried.
	ErrUnknownQuery = errors.New("unknown query")

	// ErrVariableMismatch indicates the variables supplied to the transport
	// do not exactly match the query document's declared variable set.
	// Detected before any network call.
	ErrVariableMismatch = errors.New("variable mismatch")

	// ErrInvalidToken indicates GitHub authentication failed.
	// Surfaced immediately, never retried. Maps to exit code 2.
	ErrInvalidToken = errors.New("invalid github token")

	// ErrRepoNotFound indicates the specified repository does not exist or
	// is not accessible. Maps to exit code 2.
	ErrRepoNotFound = errors.New("repository not found")

	// ErrNetworkFailure indicates a transient network or timeout problem.
	// Retried with exponential backoff before being surfaced.
	// Maps to exit code 3.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrRateLimit indicates the GitHub API rate limit has been exceeded.
	// Treated as transient by the retry loop. Maps to exit code 2.
	ErrRateLimit = errors.New("github rate limit exceeded")

	// ErrMalformedResponse indicates the response shape does not match the
	// expected schema, meaning the query or the API changed. Never retried.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrGraphQL indicates the remote server executed the query but returned
	// an errors array. Use errors.As with *GraphQLError for details.
	ErrGraphQL = errors.New("graphql execution error")
)

// GraphQLError carries the server-provided error messages from a GraphQL
// response, together with any partial data the server returned alongside
// them. The caller decides whether the partial data is usable.
type GraphQLError struct {
	// Query is the catalog name of the query that failed.
	Query string

	// Messages holds the message of each entry in the errors array,
	// in server order.
	Messages []string

	// Partial is the raw data payload returned alongside the errors,
	// or nil if the server returned none.
	Partial json.RawMessage
}

// Error implements the error interface.
func (e *GraphQLError) Error() string {
	return fmt.Sprintf("graphql execution error in %s: %s", e.Query, strings.Join(e.Messages, "; "))
}

// Unwrap makes errors.Is(err, ErrGraphQL) work on wrapped GraphQLErrors.
func (e *GraphQLError) Unwrap() error {
	return ErrGraphQL
}

// HasPartialData reports whether the server returned a usable data payload
// alongside the errors array.
func (e *GraphQLError) HasPartialData() bool {
	return len(e.Partial) > 0 && string(e.Partial) != "null"
}
