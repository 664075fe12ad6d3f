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

// Package debug implements the interactive stepping shell command.
package debug

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Tijesunimi004/soroban-debugger/internal/commands/shared"
	debugshell "github.com/Tijesunimi004/soroban-debugger/internal/debug"
	"github.com/Tijesunimi004/soroban-debugger/pkg/engine"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// NewDebugCommand creates the debug command
func NewDebugCommand() *cobra.Command {
	var (
		modulePath   string
		snapshotPath string
		contractID   string
		fn           string
		argSpecs     []string
		ledgerTime   uint64
		breaks       []string
		watchKeys    []string
		maxDepth     int
		maxSteps     int
	)

	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Step through an invocation interactively",
		Long: `Debug starts an invocation suspended and hands control to an
interactive shell: step instruction by instruction, run to the next
breakpoint, watch storage keys, and inspect the pending state at any
point. Aborting the session discards all pending writes.

Breakpoints may be set up front and from inside the shell:
  sorodbg debug -m token.json -s ledger.json --id C1 --fn transfer \
    --arg addr:GALICE --arg addr:GBOB --arg i128:250 \
    --break 'transfer+4 if arg(2) > 100' --watch balance_GBOB`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var lt *uint64
			if cmd.Flags().Changed("ledger-time") {
				lt = &ledgerTime
			}
			return run(cmd, modulePath, snapshotPath, contractID, fn,
				argSpecs, lt, breaks, watchKeys, maxDepth, maxSteps)
		},
	}

	cmd.Flags().StringVarP(&modulePath, "module", "m", "", "Lowered contract module file (required)")
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Ledger snapshot file (required)")
	cmd.Flags().StringVar(&contractID, "id", "", "Contract to invoke (required)")
	cmd.Flags().StringVarP(&fn, "fn", "f", "", "Function to invoke (required)")
	cmd.Flags().StringArrayVar(&argSpecs, "arg", nil, "Function argument as type:value (repeatable)")
	cmd.Flags().Uint64Var(&ledgerTime, "ledger-time", 0, "Override the snapshot's ledger time")
	cmd.Flags().StringArrayVar(&breaks, "break", nil, "Breakpoint location, optionally 'loc if <expr>' (repeatable)")
	cmd.Flags().StringArrayVar(&watchKeys, "watch", nil, "Storage key or prefix to watch (repeatable)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", engine.DefaultConfig().MaxCallDepth, "Maximum cross-contract call depth")
	cmd.Flags().IntVar(&maxSteps, "max-steps", engine.DefaultConfig().MaxInstructions, "Maximum instructions per invocation")

	_ = cmd.MarkFlagRequired("module")
	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("fn")

	return cmd
}

func run(cmd *cobra.Command, modulePath, snapshotPath, contractID, fn string,
	argSpecs []string, ledgerTime *uint64, breaks, watchKeys []string, maxDepth, maxSteps int) error {

	logger := shared.NewLogger()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Warn("stdin is not a terminal; reading debug commands from pipe")
	}

	module, err := engine.LoadModule(modulePath)
	if err != nil {
		return err
	}
	snap, err := ledger.Load(snapshotPath)
	if err != nil {
		return err
	}
	fnArgs, err := shared.ParseArgs(argSpecs)
	if err != nil {
		return err
	}

	cfg := engine.Config{MaxCallDepth: maxDepth, MaxInstructions: maxSteps}
	session := debugshell.NewSession(module, snap, contractID, cfg, logger)

	for _, spec := range breaks {
		if err := addBreak(cmd, session, spec); err != nil {
			return err
		}
	}
	for _, spec := range watchKeys {
		tier, watchContract, key, err := debugshell.ParseWatchTarget(spec)
		if err != nil {
			return err
		}
		if _, err := session.Manager.AddWatch(tier, watchContract, key); err != nil {
			return err
		}
	}

	lt := snap.LedgerTime()
	if ledgerTime != nil {
		lt = *ledgerTime
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shell := debugshell.NewShell(session)
	return shell.Run(ctx, fn, fnArgs, lt)
}

// addBreak registers one --break flag value. The condition, if any,
// follows an "if" separator inside the flag value.
func addBreak(cmd *cobra.Command, session *debugshell.Session, spec string) error {
	locSpec := spec
	var cond string
	if i := strings.Index(spec, " if "); i >= 0 {
		locSpec = strings.TrimSpace(spec[:i])
		cond = strings.TrimSpace(spec[i+4:])
	}
	loc, err := debugshell.ParseLocation(locSpec)
	if err != nil {
		return err
	}
	bp, notice, err := session.Manager.AddBreakpoint(loc, cond)
	if err != nil {
		return err
	}
	if notice != nil {
		cmd.PrintErrf("Warning: %s\n", notice.Message)
	}
	cmd.Printf("Breakpoint %d set at %s\n", bp.ID, bp.Location.String())
	return nil
}
