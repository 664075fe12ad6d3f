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

package main

import (
	"github.com/Tijesunimi004/soroban-debugger/internal/cli"
	"github.com/Tijesunimi004/soroban-debugger/internal/commands/debug"
	historycmd "github.com/Tijesunimi004/soroban-debugger/internal/commands/history"
	"github.com/Tijesunimi004/soroban-debugger/internal/commands/inspect"
	"github.com/Tijesunimi004/soroban-debugger/internal/commands/invoke"
	versioncmd "github.com/Tijesunimi004/soroban-debugger/internal/commands/version"
	"github.com/Tijesunimi004/soroban-debugger/internal/commands/watch"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Set version information from build-time ldflags
	cli.SetVersion(version, commit, buildDate)

	// Create root command and add subcommands
	rootCmd := cli.NewRootCommand()

	// Execution commands
	rootCmd.AddCommand(invoke.NewCommand())
	rootCmd.AddCommand(watch.NewCommand())
	rootCmd.AddCommand(debug.NewDebugCommand())

	// Inspection commands
	rootCmd.AddCommand(inspect.NewCommand())
	rootCmd.AddCommand(historycmd.NewCommand())

	// Version and help commands
	rootCmd.AddCommand(versioncmd.NewVersionCommand())
	rootCmd.SetHelpCommand(cli.NewHelpCommand(rootCmd))

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		cli.HandleExitError(err)
	}
}
