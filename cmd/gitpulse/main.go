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
	"fmt"
	"os"

	"github.com/gitpulse/gitpulse/internal/github"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	github.Version = version

	rootCmd := &cobra.Command{
		Use:   "gitpulse",
		Short: "Poll GitHub repositories for recent issue and pull request activity",
		Long: `gitpulse is a thin polling client for the GitHub GraphQL API. It runs a
small catalog of fixed queries against a repository and emits normalized
records in NDJSON format, suitable for piping into downstream tooling.`,
		Version:       version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
	}

	rootCmd.AddCommand(newFetchCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newQueriesCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}
