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
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gitpulse/gitpulse/internal/github"
	"github.com/gitpulse/gitpulse/internal/query"
)

func TestTrackerFinish(t *testing.T) {
	tracker := New(query.RecentIssues)

	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	stats := github.FetchStats{
		Attempts: 3,
		Pages:    1,
		Records:  57,
		Duration: 2 * time.Second,
	}

	md := tracker.Finish("1.2.3", PollParams{
		Owner:      "golang",
		Repository: "go",
		Since:      &since,
	}, stats)

	if md.ToolVersion != "1.2.3" {
		t.Errorf("ToolVersion = %q, want 1.2.3", md.ToolVersion)
	}
	if md.QueryName != query.RecentIssues {
		t.Errorf("QueryName = %q, want %q", md.QueryName, query.RecentIssues)
	}
	if !strings.HasPrefix(md.PollID, query.RecentIssues+"-") {
		t.Errorf("PollID = %q, want %q prefix", md.PollID, query.RecentIssues+"-")
	}
	if md.Results.Records != 57 {
		t.Errorf("Records = %d, want 57", md.Results.Records)
	}
	if md.Results.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", md.Results.Attempts)
	}
	if md.Results.Duration != "2s" {
		t.Errorf("Duration = %q, want 2s", md.Results.Duration)
	}
	if md.Results.CompletedAt.Before(md.Results.StartedAt) {
		t.Error("CompletedAt is before StartedAt")
	}
}

func TestSaveAndLoadLatest(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), "state")

	tracker := New(query.OpenPullRequests)
	md := tracker.Finish("dev", PollParams{
		Owner:      "golang",
		Repository: "go",
	}, github.FetchStats{Attempts: 1, Pages: 1, Records: 20})

	if err := Save(md, stateDir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadLatest(stateDir, "golang/go")
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadLatest returned nil for existing metadata")
	}
	if loaded.PollID != md.PollID {
		t.Errorf("PollID = %q, want %q", loaded.PollID, md.PollID)
	}
	if loaded.Results.Records != 20 {
		t.Errorf("Records = %d, want 20", loaded.Results.Records)
	}
}

func TestLoadLatestNoMetadata(t *testing.T) {
	loaded, err := LoadLatest(t.TempDir(), "golang/go")
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if loaded != nil {
		t.Errorf("LoadLatest = %+v, want nil for empty directory", loaded)
	}
}

func TestLoadLatestDifferentRepo(t *testing.T) {
	stateDir := t.TempDir()

	tracker := New(query.RecentIssues)
	md := tracker.Finish("dev", PollParams{
		Owner:      "golang",
		Repository: "go",
	}, github.FetchStats{Records: 5})

	if err := Save(md, stateDir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadLatest(stateDir, "kubernetes/kubernetes")
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if loaded != nil {
		t.Error("LoadLatest returned metadata for a different repository")
	}
}

func TestWriteTo(t *testing.T) {
	tracker := New(query.RecentIssues)
	md := tracker.Finish("dev", PollParams{
		Owner:      "golang",
		Repository: "go",
	}, github.FetchStats{Records: 5})

	var buf bytes.Buffer
	if err := WriteTo(md, &buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}

	var decoded PollMetadata
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.QueryName != query.RecentIssues {
		t.Errorf("QueryName = %q, want %q", decoded.QueryName, query.RecentIssues)
	}
	// Indented output spans multiple lines.
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("output is not indented")
	}
}
