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
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitpulse/gitpulse/internal/config"
	"github.com/gitpulse/gitpulse/internal/metadata"
	"github.com/gitpulse/gitpulse/internal/state"
)

func newStatusCommand() *cobra.Command {
	var (
		configFile string
		reset      bool
	)

	cmd := &cobra.Command{
		Use:   "status <owner>/<repo>",
		Short: "Show the saved poll watermark and last run for a repository",
		Long: `Show the saved poll state for a repository: the issue watermark the next
poll will resume from, when the last poll ran, and the metadata record of
the most recent run.

With --reset the saved watermark is deleted, so the next poll starts from
the default lookback window instead of resuming.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout(), args[0], configFile, reset)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Config file path (default: .gitpulse.yaml, then ~/.gitpulse/config.yaml)")
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete the saved watermark so the next poll starts fresh")

	return cmd
}

func runStatus(out io.Writer, repoArg, configFile string, reset bool) error {
	if _, _, err := parseRepository(repoArg); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	stateFile := state.StateFilePath(cfg.Defaults.StateDir, repoArg)

	if reset {
		if err := state.Delete(stateFile); err != nil {
			return err
		}
		fmt.Fprintf(out, "Poll state for %s cleared\n", repoArg)
		return nil
	}

	st, err := state.Load(stateFile)
	switch {
	case err == nil:
		fmt.Fprintf(out, "%s: watermark %s, last poll %s, %d records\n",
			repoArg,
			st.LastUpdatedAt.Format(time.RFC3339),
			st.LastFetchTime.Format(time.RFC3339),
			st.TotalFetched)
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(out, "%s: no poll state (next poll uses the default window)\n", repoArg)
	default:
		return err
	}

	md, err := metadata.LoadLatest(cfg.Defaults.StateDir, repoArg)
	if err != nil {
		return err
	}
	if md == nil {
		return nil
	}
	return metadata.WriteTo(md, out)
}
