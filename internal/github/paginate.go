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

import "github.com/gitpulse/gitpulse/internal/query"

// PageState is the paginator's position in its fetch lifecycle.
type PageState int

// Paginator states. A fetch moves NotStarted→Fetching on the first call,
// Fetching→HasMore when a page reports more data under the cap,
// HasMore→Fetching when the next page is requested, Fetching→Exhausted when
// no more pages remain or the cap is reached, and any state→Failed on an
// unrecoverable error.
const (
	PageNotStarted PageState = iota
	PageFetching
	PageHasMore
	PageExhausted
	PageFailed
)

// String returns the state name for logs and errors.
func (s PageState) String() string {
	switch s {
	case PageNotStarted:
		return "not-started"
	case PageFetching:
		return "fetching"
	case PageHasMore:
		return "has-more"
	case PageExhausted:
		return "exhausted"
	case PageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Paginator tracks cursor state across the repeated transport calls of one
// fetch call. It is owned by a single fetch for its duration and discarded
// on completion or error; it is never shared between concurrent fetches.
//
// The shipped documents declare no cursor variable, so the paginator
// performs exactly one fetch for them regardless of the page cap. A document
// that sets CursorVariable gets cursor-driven multi-page fetches up to the
// cap with no further changes.
type Paginator struct {
	doc     query.Document
	pageCap int

	state  PageState
	cursor string
	pages  int
}

// newPaginator creates a paginator for one fetch call. A pageCap below 1 is
// treated as 1.
func newPaginator(doc query.Document, pageCap int) *Paginator {
	if pageCap < 1 {
		pageCap = 1
	}
	return &Paginator{doc: doc, pageCap: pageCap, state: PageNotStarted}
}

// Next reports whether another page should be fetched and, if so, moves the
// paginator into the Fetching state.
func (p *Paginator) Next() bool {
	switch p.state {
	case PageNotStarted, PageHasMore:
		p.state = PageFetching
		return true
	default:
		return false
	}
}

// Variables returns the variable map for the current page: the base
// variables plus the cursor variable once a cursor is held.
func (p *Paginator) Variables(base map[string]any) map[string]any {
	vars := make(map[string]any, len(base)+1)
	for k, v := range base {
		vars[k] = v
	}
	if p.doc.CursorVariable != "" && p.cursor != "" {
		vars[p.doc.CursorVariable] = p.cursor
	}
	return vars
}

// Observe records the outcome of a successfully fetched page and decides
// whether the fetch continues. It must be called once per page while in the
// Fetching state.
func (p *Paginator) Observe(info PageInfo) {
	if p.state != PageFetching {
		return
	}
	p.pages++

	// Without a cursor variable the document cannot request a second page,
	// whatever the server's hasNextPage says.
	if p.doc.CursorVariable == "" || !info.HasNextPage || p.pages >= p.pageCap {
		p.state = PageExhausted
		return
	}

	p.cursor = info.EndCursor
	p.state = PageHasMore
}

// Fail moves the paginator into the terminal Failed state after an
// unrecoverable decode or transport error.
func (p *Paginator) Fail() {
	p.state = PageFailed
}

// State returns the current state.
func (p *Paginator) State() PageState {
	return p.state
}

// Pages returns the number of pages fetched so far.
func (p *Paginator) Pages() int {
	return p.pages
}
