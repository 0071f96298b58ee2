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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	gperrors "github.com/gitpulse/gitpulse/internal/errors"
	"github.com/gitpulse/gitpulse/internal/gherror"
	"github.com/gitpulse/gitpulse/internal/query"
)

// maxResponseBytes caps the decoded response body to prevent excessive
// memory usage on a misbehaving endpoint.
const maxResponseBytes = 10 * 1024 * 1024

// userAgent identifies this client to the API.
var userAgent = "gitpulse/" + Version

// Version is the client version embedded in the User-Agent header.
// Overridden at build time via -ldflags.
var Version = "dev"

// Transport sends fixed query documents with their variables to a GraphQL
// endpoint over HTTPS POST and returns the raw data payload. It performs one
// network request per Send call; retries belong to the caller.
type Transport struct {
	endpoint   string
	httpClient *http.Client
	inspector  gherror.Inspector
}

// NewTransport creates a transport for the given endpoint. The client is
// configured with bearer-token authentication, a User-Agent header, pooled
// HTTP/2 connections, a response size limit, and a per-request timeout.
func NewTransport(endpoint, token string, timeout time.Duration) *Transport {
	pool := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Transport{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &authTransport{
				token: token,
				base:  pool,
			},
		},
		inspector: gherror.NewInspector(),
	}
}

// HTTPClient exposes the underlying client so the typed preflight query can
// share the same connection pool and auth transport.
func (t *Transport) HTTPClient() *http.Client {
	return t.httpClient
}

// graphqlRequest is the standard GraphQL-over-HTTP request body.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the standard GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"errors"`
}

// Send posts the document with its variables and returns the raw data
// payload. The variable map must match the document's declared variable set
// exactly; extra or missing variables fail with ErrVariableMismatch before
// any network call.
func (t *Transport) Send(ctx context.Context, doc query.Document, variables map[string]any) (json.RawMessage, error) {
	if err := checkVariables(doc, variables); err != nil {
		return nil, err
	}

	body, err := json.Marshal(graphqlRequest{Query: doc.Text, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", doc.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", doc.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("sending %s: %v: %w", doc.Name, err, gperrors.ErrNetworkFailure)
	}
	defer resp.Body.Close()

	if err := t.checkStatus(doc.Name, resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(&limitedReader{ReadCloser: resp.Body, limit: maxResponseBytes})
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %v: %w", doc.Name, err, gperrors.ErrNetworkFailure)
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parsing %s response: %v: %w", doc.Name, err, gperrors.ErrMalformedResponse)
	}

	if len(envelope.Errors) > 0 {
		return nil, t.mapGraphQLErrors(doc.Name, envelope)
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, fmt.Errorf("%s response has no data payload: %w", doc.Name, gperrors.ErrMalformedResponse)
	}

	return envelope.Data, nil
}

// checkVariables validates the variable map against the document's declared
// set. Both missing required variables and extras are programming errors.
func checkVariables(doc query.Document, variables map[string]any) error {
	declared := make(map[string]bool, len(doc.Variables))
	for _, name := range doc.Variables {
		declared[name] = true
		if _, ok := variables[name]; !ok {
			return fmt.Errorf("query %s: missing required variable %q: %w",
				doc.Name, name, gperrors.ErrVariableMismatch)
		}
	}

	var extras []string
	for name := range variables {
		if !declared[name] {
			extras = append(extras, name)
		}
	}
	if len(extras) > 0 {
		sort.Strings(extras)
		return fmt.Errorf("query %s: unexpected variables %s: %w",
			doc.Name, strings.Join(extras, ", "), gperrors.ErrVariableMismatch)
	}
	return nil
}

// checkStatus maps non-200 HTTP statuses into the error taxonomy.
func (t *Transport) checkStatus(queryName string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("query %s: authentication failed (status %d). Provide a valid token via --token or the configured token environment variable: %w",
			queryName, resp.StatusCode, gperrors.ErrInvalidToken)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("query %s: %w", queryName, gperrors.ErrRateLimit)
	case resp.StatusCode >= 500:
		return fmt.Errorf("query %s: server returned status %d: %w",
			queryName, resp.StatusCode, gperrors.ErrNetworkFailure)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &gperrors.GraphQLError{
			Query:    queryName,
			Messages: []string{fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))},
		}
	}
}

// mapGraphQLErrors converts the errors array of an executed query into the
// error taxonomy. Rate limit and not-found conditions signaled in the array
// map to their sentinels; everything else surfaces as a GraphQLError with
// any partial data the server returned.
func (t *Transport) mapGraphQLErrors(queryName string, envelope graphqlResponse) error {
	messages := make([]string, 0, len(envelope.Errors))
	for _, e := range envelope.Errors {
		messages = append(messages, e.Message)
	}
	joined := fmt.Errorf("query %s: %s", queryName, strings.Join(messages, "; "))

	if t.inspector.IsRateLimitError(joined) {
		return fmt.Errorf("query %s: GitHub API rate limit exceeded: %w", queryName, gperrors.ErrRateLimit)
	}
	if t.inspector.IsNotFoundError(joined) {
		return fmt.Errorf("query %s: %s: %w", queryName, strings.Join(messages, "; "), gperrors.ErrRepoNotFound)
	}

	return &gperrors.GraphQLError{
		Query:    queryName,
		Messages: messages,
		Partial:  envelope.Data,
	}
}

// limitedReader wraps a ReadCloser with a size limit to prevent excessive
// memory usage.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read implements io.Reader with size limit enforcement.
func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
	}

	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)

	return n, err
}

// authTransport adds the authentication and User-Agent headers to every
// request.
type authTransport struct {
	token string
	base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("User-Agent", userAgent)
	return t.base.RoundTrip(req)
}
