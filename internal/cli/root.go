// Copyright 2025 The sorodbg Authors
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

// Package cli assembles the root sorodbg command.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/Tijesunimi004/soroban-debugger/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for sorodbg
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sorodbg",
		Short: "sorodbg - replayable smart contract debugger",
		Long: `sorodbg replays contract invocations against a ledger snapshot,
entirely offline. Every run starts from the same snapshot, so bugs
reproduce deterministically: step through execution, set breakpoints
and storage watches, inspect pending state, and replay whole
transaction batches with per-job commit/rollback.

Run 'sorodbg invoke' to execute a single function.
Run 'sorodbg debug' for the interactive stepping shell.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	// Get flag pointers from shared package
	verbose, quiet, json, logFormat := shared.RegisterFlagPointers()

	// Add global flags
	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(logFormat, "log-format", "", "Log output format (json, text)")

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
