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

package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gperrors "github.com/gitpulse/gitpulse/internal/errors"
	"github.com/gitpulse/gitpulse/internal/github"
	"github.com/gitpulse/gitpulse/internal/metadata"
	"github.com/gitpulse/gitpulse/internal/query"
	"github.com/gitpulse/gitpulse/internal/state"
)

// writeStatusConfig pins the state directory for a status test run.
func writeStatusConfig(t *testing.T, stateDir string) string {
	t.Helper()
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	contents := fmt.Sprintf("defaults:\n  state_dir: %s\n", stateDir)
	if err := os.WriteFile(cfgFile, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return cfgFile
}

func TestRunStatusShowsWatermarkAndLastRun(t *testing.T) {
	stateDir := t.TempDir()
	cfgFile := writeStatusConfig(t, stateDir)

	watermark := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	if err := state.Save(&state.PollState{
		Repository:    "golang/go",
		LastUpdatedAt: watermark,
		LastFetchTime: watermark.Add(time.Minute),
		TotalFetched:  12,
	}, state.StateFilePath(stateDir, "golang/go")); err != nil {
		t.Fatalf("seeding state: %v", err)
	}

	tracker := metadata.New(query.RecentIssues)
	md := tracker.Finish("dev", metadata.PollParams{
		Owner:      "golang",
		Repository: "go",
	}, github.FetchStats{Attempts: 1, Pages: 1, Records: 12})
	if err := metadata.Save(md, stateDir); err != nil {
		t.Fatalf("seeding metadata: %v", err)
	}

	var out bytes.Buffer
	if err := runStatus(&out, "golang/go", cfgFile, false); err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, watermark.Format(time.RFC3339)) {
		t.Errorf("output missing watermark %s:\n%s", watermark.Format(time.RFC3339), got)
	}
	if !strings.Contains(got, "12 records") {
		t.Errorf("output missing record count:\n%s", got)
	}
	if !strings.Contains(got, query.RecentIssues) {
		t.Errorf("output missing last run metadata:\n%s", got)
	}
}

func TestRunStatusNoState(t *testing.T) {
	cfgFile := writeStatusConfig(t, t.TempDir())

	var out bytes.Buffer
	if err := runStatus(&out, "golang/go", cfgFile, false); err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	if !strings.Contains(out.String(), "no poll state") {
		t.Errorf("output = %q, want no-state message", out.String())
	}
}

func TestRunStatusReset(t *testing.T) {
	stateDir := t.TempDir()
	cfgFile := writeStatusConfig(t, stateDir)

	stateFile := state.StateFilePath(stateDir, "golang/go")
	if err := state.Save(&state.PollState{Repository: "golang/go"}, stateFile); err != nil {
		t.Fatalf("seeding state: %v", err)
	}

	var out bytes.Buffer
	if err := runStatus(&out, "golang/go", cfgFile, true); err != nil {
		t.Fatalf("runStatus --reset failed: %v", err)
	}
	if _, err := os.Stat(stateFile); !os.IsNotExist(err) {
		t.Error("state file still exists after reset")
	}
	if !strings.Contains(out.String(), "cleared") {
		t.Errorf("output = %q, want cleared message", out.String())
	}

	// Resetting again is not an error.
	if err := runStatus(&out, "golang/go", cfgFile, true); err != nil {
		t.Errorf("second reset returned error: %v", err)
	}
}

func TestRunStatusInvalidRepository(t *testing.T) {
	var out bytes.Buffer
	err := runStatus(&out, "not-a-repo", "", false)
	if !errors.Is(err, gperrors.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}
