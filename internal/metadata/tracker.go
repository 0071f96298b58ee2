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

// Package metadata records what each poll run did: the query executed,
// its parameters, and the resulting record, page, and attempt counts.
// Records are written as JSON files beside the poll state so external
// tooling can analyze poll history.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gitpulse/gitpulse/internal/github"
)

// Tracker captures the lifetime of one poll run. Create one at the
// start of a run and call Finish with the fetch stats at the end.
type Tracker struct {
	startTime time.Time
	queryName string
}

// New creates a tracker for a run of the named query.
func New(queryName string) *Tracker {
	return &Tracker{
		startTime: time.Now(),
		queryName: queryName,
	}
}

// Finish builds the metadata record for a completed poll run.
func (t *Tracker) Finish(toolVersion string, params PollParams, stats github.FetchStats) *PollMetadata {
	completedAt := time.Now()

	return &PollMetadata{
		ToolVersion: toolVersion,
		QueryName:   t.queryName,
		PollID:      fmt.Sprintf("%s-%d", t.queryName, t.startTime.Unix()),
		Parameters:  params,
		Results: PollResults{
			Records:     stats.Records,
			Pages:       stats.Pages,
			Attempts:    stats.Attempts,
			Duration:    stats.Duration.String(),
			StartedAt:   t.startTime,
			CompletedAt: completedAt,
		},
	}
}

// Save persists a metadata record as an indented JSON file in stateDir.
// The write goes through a temp file and rename so a crash never leaves
// a partial record. Files are named poll-metadata-{timestamp}.json.
func Save(md *PollMetadata, stateDir string) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	filename := fmt.Sprintf("poll-metadata-%d.json", md.Results.StartedAt.Unix())
	path := filepath.Join(stateDir, filename)

	tmpFile := path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(md); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to close metadata file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		return fmt.Errorf("failed to save metadata file: %w", err)
	}

	return nil
}

// LoadLatest finds and loads the most recent metadata record for the
// given "owner/repo" from stateDir. Returns nil without error when no
// matching record exists.
func LoadLatest(stateDir, repo string) (*PollMetadata, error) {
	pattern := filepath.Join(stateDir, "poll-metadata-*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}

	if len(files) == 0 {
		return nil, nil
	}

	var latestFile string
	var latestTime time.Time
	for _, file := range files {
		info, statErr := os.Stat(file)
		if statErr != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = file
		}
	}

	if latestFile == "" {
		return nil, nil
	}

	file, err := os.Open(latestFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer file.Close()

	var md PollMetadata
	if err := json.NewDecoder(file).Decode(&md); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	fullRepo := fmt.Sprintf("%s/%s", md.Parameters.Owner, md.Parameters.Repository)
	if fullRepo != repo {
		return nil, nil
	}

	return &md, nil
}

// WriteTo serializes a metadata record as indented JSON to w. Useful
// for printing a run summary to stdout.
func WriteTo(md *PollMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(md)
}
