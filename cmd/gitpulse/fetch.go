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
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gitpulse/gitpulse/internal/config"
	gperrors "github.com/gitpulse/gitpulse/internal/errors"
	"github.com/gitpulse/gitpulse/internal/github"
	"github.com/gitpulse/gitpulse/internal/logging"
	"github.com/gitpulse/gitpulse/internal/metadata"
	"github.com/gitpulse/gitpulse/internal/output"
	"github.com/gitpulse/gitpulse/internal/query"
	"github.com/gitpulse/gitpulse/internal/state"
)

// initialLookback is the default issue window when no previous poll
// state exists and --since is not given.
const initialLookback = 7 * 24 * time.Hour

// fetchFlags are the options shared by the fetch subcommands.
type fetchFlags struct {
	token      string
	outputFile string
	configFile string
	verbose    bool
}

func newFetchCommand() *cobra.Command {
	flags := &fetchFlags{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run a catalog query against a repository",
		Long: `Fetch recent activity from a GitHub repository and output NDJSON.

The repository must be specified in the format: <owner>/<repo>
For example: golang/go, kubernetes/kubernetes

Authentication is required via GitHub token:
  - Use --token flag to provide a token directly
  - Or set the token environment variable (GITHUB_TOKEN by default)`,
	}

	cmd.PersistentFlags().StringVar(&flags.token, "token", "", "GitHub personal access token (overrides the token environment variable)")
	cmd.PersistentFlags().StringVar(&flags.outputFile, "output", "", "Output file path (default: stdout)")
	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Config file path (default: .gitpulse.yaml, then ~/.gitpulse/config.yaml)")
	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newFetchIssuesCommand(flags))
	cmd.AddCommand(newFetchPullsCommand(flags))

	return cmd
}

func newFetchIssuesCommand(flags *fetchFlags) *cobra.Command {
	var sinceFlag string

	cmd := &cobra.Command{
		Use:   "issues <owner>/<repo>",
		Short: "Fetch issues updated since the last poll",
		Long: `Fetch issues updated since a point in time, newest first.

Without --since, the window starts at the watermark saved by the previous
successful poll of the same repository, or 7 days ago if none exists.
After a successful fetch the newest updatedAt seen becomes the new
watermark.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newFetchEnv(flags)
			if err != nil {
				return err
			}
			defer env.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), env.cfg.RequestTimeout()*time.Duration(env.cfg.Fetch.MaxRetries+1)+time.Minute)
			defer cancel()

			return runFetchIssues(ctx, env, args[0], sinceFlag)
		},
	}

	cmd.Flags().StringVar(&sinceFlag, "since", "", "Fetch issues updated after this RFC3339 time (default: last poll watermark)")

	return cmd
}

func newFetchPullsCommand(flags *fetchFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "pulls <owner>/<repo>",
		Short: "Fetch the most recently opened pull requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newFetchEnv(flags)
			if err != nil {
				return err
			}
			defer env.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), env.cfg.RequestTimeout()*time.Duration(env.cfg.Fetch.MaxRetries+1)+time.Minute)
			defer cancel()

			return runFetchPulls(ctx, env, args[0])
		},
	}
}

// newQueriesCommand lists the catalog. Useful for discovering what the
// tool can fetch without reading documentation.
func newQueriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "List the available query documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range query.Names() {
				doc, err := query.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (variables: %s)\n", doc.Name, strings.Join(doc.Variables, ", "))
			}
			return nil
		},
	}
}

// fetchEnv bundles the wiring every fetch subcommand needs: config,
// logger, client, and output writer. The client is the interface so
// tests can substitute a mock for the real FetchService.
type fetchEnv struct {
	cfg    *config.Config
	log    *zap.Logger
	client github.Client
	writer output.RecordWriter
}

func newFetchEnv(flags *fetchFlags) (*fetchEnv, error) {
	cfg, err := config.LoadConfig(flags.configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.NewLogger(flags.verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	token := getToken(flags.token, cfg.GitHub.TokenEnv)
	if token == "" {
		return nil, fmt.Errorf("GitHub token not found: set %s or use --token flag: %w",
			cfg.GitHub.TokenEnv, gperrors.ErrInvalidToken)
	}

	transport := github.NewTransport(cfg.GitHub.GraphQLEndpoint, token, cfg.RequestTimeout())
	retry := &github.RetryConfig{
		MaxRetries:        cfg.Fetch.MaxRetries,
		InitialBackoff:    cfg.RetryBackoffBase(),
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
	service := github.NewFetchService(transport, retry, cfg.Fetch.PageCap, log)

	var writer output.RecordWriter
	if flags.outputFile == "" {
		writer = output.NewWriter(os.Stdout)
	} else {
		fileWriter, fErr := output.NewFileWriter(flags.outputFile)
		if fErr != nil {
			return nil, fmt.Errorf("failed to create output file: %w", fErr)
		}
		writer = fileWriter
	}

	return &fetchEnv{cfg: cfg, log: log, client: service, writer: writer}, nil
}

func (e *fetchEnv) close() {
	if err := e.writer.Close(); err != nil {
		e.log.Warn("failed to close output writer", zap.Error(err))
	}
	_ = e.log.Sync()
}

func runFetchIssues(ctx context.Context, env *fetchEnv, repoArg, sinceFlag string) error {
	owner, repo, err := parseRepository(repoArg)
	if err != nil {
		return err
	}

	stateFile := state.StateFilePath(env.cfg.Defaults.StateDir, repoArg)
	since, err := resolveSince(sinceFlag, stateFile, env.log)
	if err != nil {
		return err
	}

	// Preflight: cheap typed query that validates token and repository
	// before the main fetch burns retry budget.
	info, err := env.client.GetRepositoryInfo(ctx, owner, repo)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s/%s: %d issues total, fetching updates since %s...\n",
		owner, repo, info.TotalIssues, since.Format(time.RFC3339))

	tracker := metadata.New(query.RecentIssues)

	records, stats, err := env.client.FetchIssues(ctx, owner, repo, since)
	if err != nil {
		return err
	}

	newest := since
	for _, rec := range records {
		if writeErr := env.writer.Write(rec); writeErr != nil {
			return fmt.Errorf("failed to write issue record: %w", writeErr)
		}
		if rec.UpdatedAt.After(newest) {
			newest = rec.UpdatedAt
		}
	}

	if err := state.Save(&state.PollState{
		Repository:    repoArg,
		LastUpdatedAt: newest,
		LastFetchTime: time.Now().UTC(),
		TotalFetched:  len(records),
	}, stateFile); err != nil {
		env.log.Warn("failed to save poll state", zap.Error(err))
	}

	md := tracker.Finish(version, metadata.PollParams{
		Owner:      owner,
		Repository: repo,
		Since:      &since,
	}, *stats)
	if err := metadata.Save(md, env.cfg.Defaults.StateDir); err != nil {
		env.log.Warn("failed to save poll metadata", zap.Error(err))
	}

	fmt.Fprintf(os.Stderr, "Fetched %d issues in %s (%d attempts)\n",
		env.writer.Count(), stats.Duration.Round(time.Millisecond), stats.Attempts)
	return nil
}

func runFetchPulls(ctx context.Context, env *fetchEnv, repoArg string) error {
	owner, repo, err := parseRepository(repoArg)
	if err != nil {
		return err
	}

	info, err := env.client.GetRepositoryInfo(ctx, owner, repo)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s/%s: %d open pull requests, fetching most recent...\n",
		owner, repo, info.OpenPullRequests)

	tracker := metadata.New(query.OpenPullRequests)

	records, stats, err := env.client.FetchOpenPullRequests(ctx, owner, repo)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if writeErr := env.writer.Write(rec); writeErr != nil {
			return fmt.Errorf("failed to write pull request record: %w", writeErr)
		}
	}

	md := tracker.Finish(version, metadata.PollParams{
		Owner:      owner,
		Repository: repo,
	}, *stats)
	if err := metadata.Save(md, env.cfg.Defaults.StateDir); err != nil {
		env.log.Warn("failed to save poll metadata", zap.Error(err))
	}

	fmt.Fprintf(os.Stderr, "Fetched %d pull requests in %s (%d attempts)\n",
		env.writer.Count(), stats.Duration.Round(time.Millisecond), stats.Attempts)
	return nil
}

// resolveSince picks the issue window start: the --since flag if given,
// otherwise the saved watermark, otherwise a fixed lookback.
func resolveSince(sinceFlag, stateFile string, log *zap.Logger) (time.Time, error) {
	if sinceFlag != "" {
		since, err := time.Parse(time.RFC3339, sinceFlag)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --since value %q (want RFC3339, e.g. 2026-01-02T15:04:05Z): %w",
				sinceFlag, gperrors.ErrInvalidArgument)
		}
		return since, nil
	}

	st, err := state.Load(stateFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("ignoring unreadable poll state", zap.Error(err))
		}
		return time.Now().UTC().Add(-initialLookback), nil
	}
	return st.LastUpdatedAt, nil
}

// parseRepository parses an owner/repo string into its components.
func parseRepository(repoArg string) (owner, repo string, err error) {
	parts := strings.Split(repoArg, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid repository format, expected <owner>/<repo>, got %q: %w",
			repoArg, gperrors.ErrInvalidArgument)
	}

	owner = strings.TrimSpace(parts[0])
	repo = strings.TrimSpace(parts[1])

	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository format, expected <owner>/<repo>, got %q: %w",
			repoArg, gperrors.ErrInvalidArgument)
	}

	return owner, repo, nil
}

// getToken returns the GitHub token from the flag or the configured
// environment variable.
func getToken(flagToken, tokenEnv string) string {
	if flagToken != "" {
		return flagToken
	}
	return os.Getenv(tokenEnv)
}

// mapErrorToExitCode maps internal errors to exit codes.
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, gperrors.ErrInvalidToken) ||
		errors.Is(err, gperrors.ErrRepoNotFound) ||
		errors.Is(err, gperrors.ErrRateLimit) ||
		errors.Is(err, gperrors.ErrInvalidArgument) {
		return 2 // Authentication, authorization, and usage errors
	}

	if errors.Is(err, gperrors.ErrNetworkFailure) {
		return 3 // Network errors
	}

	return 1 // General error
}
