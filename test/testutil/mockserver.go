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

// Package testutil provides common test helpers for gitpulse.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// MockServer wraps an httptest server playing the role of the GitHub
// GraphQL endpoint.
type MockServer struct {
	*httptest.Server
	requestCount int32
}

// RequestCount returns how many requests the server has received.
func (m *MockServer) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// NewMockServer creates a mock server that counts requests and delegates
// to the given handler.
func NewMockServer(t *testing.T, handler http.HandlerFunc) *MockServer {
	t.Helper()
	m := &MockServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.requestCount, 1)
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// NewErrorServer creates a mock server that always returns the given
// HTTP status.
func NewErrorServer(t *testing.T, statusCode int) *MockServer {
	t.Helper()
	return NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(http.StatusText(statusCode)))
	})
}

// NewTransientErrorServer creates a mock server that fails with errorCode
// for the first failCount requests and then serves the given GraphQL
// response body.
func NewTransientErrorServer(t *testing.T, failCount, errorCode int, body string) *MockServer {
	t.Helper()
	var seen int32
	return NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&seen, 1) <= int32(failCount) {
			w.WriteHeader(errorCode)
			_, _ = w.Write([]byte(http.StatusText(errorCode)))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

// IssuesResponse builds a GraphQL response body with count issues, newest
// first, matching the shape of the recent-issues query.
func IssuesResponse(count int) string {
	nodes := make([]map[string]any, 0, count)
	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		created := now.AddDate(0, 0, -(i + 1))
		nodes = append(nodes, map[string]any{
			"createdAt": created.Format(time.RFC3339),
			"updatedAt": now.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
			"closedAt":  nil,
			"author": map[string]any{
				"__typename": "User",
				"login":      fmt.Sprintf("user%d", i+1),
			},
			"assignees": map[string]any{"nodes": []any{}},
			"labels":    map[string]any{"nodes": []any{}},
		})
	}
	return envelope(map[string]any{
		"repository": map[string]any{
			"issues": map[string]any{"nodes": nodes},
		},
	})
}

// PullRequestsResponse builds a GraphQL response body with count open
// pull requests matching the shape of the open-pull-requests query.
func PullRequestsResponse(count int) string {
	nodes := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		nodes = append(nodes, map[string]any{
			"title":          fmt.Sprintf("PR %d", i+1),
			"number":         i + 1,
			"reviewRequests": map[string]any{"nodes": []any{}},
			"assignees":      map[string]any{"nodes": []any{}},
		})
	}
	return envelope(map[string]any{
		"repository": map[string]any{
			"pullRequests": map[string]any{"nodes": nodes},
		},
	})
}

func envelope(data map[string]any) string {
	body, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		panic(err)
	}
	return string(body)
}
