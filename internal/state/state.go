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

package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StateFilePath returns the path for a repository's state file inside
// stateDir. Repository should be in "owner/repo" format; slashes are
// replaced with dashes for filesystem compatibility.
func StateFilePath(stateDir, repository string) string {
	safeName := strings.ReplaceAll(repository, "/", "-")
	return filepath.Join(stateDir, safeName+".state")
}

// Save atomically writes the poll state to disk. It uses a
// write-to-temp-and-rename pattern and stores a checksum so corruption
// can be detected on load.
func Save(st *PollState, stateFile string) error {
	st.Version = CurrentVersion

	checksum, err := calculateChecksum(st)
	if err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}
	st.Checksum = checksum

	stateDir := filepath.Dir(stateFile)
	if mkdirErr := os.MkdirAll(stateDir, 0o755); mkdirErr != nil {
		return fmt.Errorf("failed to create state directory: %w", mkdirErr)
	}

	tempFile := stateFile + ".tmp"

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if writeErr := os.WriteFile(tempFile, data, 0o600); writeErr != nil {
		return fmt.Errorf("failed to write temporary state file: %w", writeErr)
	}

	// Sync to ensure data is flushed to disk before the rename.
	file, err := os.Open(tempFile)
	if err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to open temp file for sync: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempFile, stateFile); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Load reads and validates the poll state from disk. It verifies the
// checksum and version. A missing file returns os.ErrNotExist wrapped,
// which callers treat as "no previous poll".
func Load(stateFile string) (*PollState, error) {
	data, err := os.ReadFile(stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no previous poll state at %s: %w", stateFile, err)
		}
		return nil, fmt.Errorf("failed to read state file %s: %w", stateFile, err)
	}

	var st PollState
	if unmarshalErr := json.Unmarshal(data, &st); unmarshalErr != nil {
		return nil, fmt.Errorf("state file is corrupted (invalid JSON): %w", unmarshalErr)
	}

	if st.Version != CurrentVersion {
		return nil, fmt.Errorf("state file version (%d) is incompatible with current version (%d)",
			st.Version, CurrentVersion)
	}

	savedChecksum := st.Checksum
	st.Checksum = ""

	calculatedChecksum, err := calculateChecksum(&st)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum for validation: %w", err)
	}

	if savedChecksum != calculatedChecksum {
		return nil, fmt.Errorf("state file is corrupted (checksum mismatch)")
	}

	st.Checksum = savedChecksum

	return &st, nil
}

// Delete removes the state file for a repository. Missing files are not
// an error.
func Delete(stateFile string) error {
	err := os.Remove(stateFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// calculateChecksum computes the SHA256 hash of the state content with
// the checksum field cleared.
func calculateChecksum(st *PollState) (string, error) {
	stateCopy := *st
	stateCopy.Checksum = ""

	data, err := json.Marshal(stateCopy)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
