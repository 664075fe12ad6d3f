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

// Package invoke implements the single-shot invocation command.
package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Tijesunimi004/soroban-debugger/internal/commands/shared"
	"github.com/Tijesunimi004/soroban-debugger/internal/format"
	"github.com/Tijesunimi004/soroban-debugger/internal/history"
	"github.com/Tijesunimi004/soroban-debugger/pkg/engine"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// NewCommand creates the invoke command
func NewCommand() *cobra.Command {
	var (
		modulePath   string
		snapshotPath string
		contractID   string
		fn           string
		argSpecs     []string
		ledgerTime   uint64
		showDiff     bool
		historyPath  string
		maxDepth     int
		maxSteps     int
	)

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Execute one contract function against a snapshot",
		Long: `Invoke runs a single contract function to completion against a
ledger snapshot and prints the return value, emitted events, and
(optionally) the storage diff.

The snapshot is never modified: a successful invocation reports the
changes it would commit, and a trapped invocation discards all writes.

Arguments are passed as type:value pairs:
  sorodbg invoke -m token.json -s ledger.json --id C1 --fn transfer \
    --arg addr:GALICE --arg addr:GBOB --arg i128:250`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &request{
				modulePath:   modulePath,
				snapshotPath: snapshotPath,
				contractID:   contractID,
				fn:           fn,
				argSpecs:     argSpecs,
				showDiff:     showDiff,
				historyPath:  historyPath,
				maxDepth:     maxDepth,
				maxSteps:     maxSteps,
			}
			if cmd.Flags().Changed("ledger-time") {
				req.ledgerTime = &ledgerTime
			}
			return run(cmd, req)
		},
	}

	cmd.Flags().StringVarP(&modulePath, "module", "m", "", "Lowered contract module file (required)")
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Ledger snapshot file (required)")
	cmd.Flags().StringVar(&contractID, "id", "", "Contract to invoke (required)")
	cmd.Flags().StringVarP(&fn, "fn", "f", "", "Function to invoke (required)")
	cmd.Flags().StringArrayVar(&argSpecs, "arg", nil, "Function argument as type:value (repeatable)")
	cmd.Flags().Uint64Var(&ledgerTime, "ledger-time", 0, "Override the snapshot's ledger time")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show the storage diff after completion")
	cmd.Flags().StringVar(&historyPath, "history", "", "Record the invocation in a history database")
	cmd.Flags().IntVar(&maxDepth, "max-depth", engine.DefaultConfig().MaxCallDepth, "Maximum cross-contract call depth")
	cmd.Flags().IntVar(&maxSteps, "max-steps", engine.DefaultConfig().MaxInstructions, "Maximum instructions per invocation")

	_ = cmd.MarkFlagRequired("module")
	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("fn")

	return cmd
}

type request struct {
	modulePath   string
	snapshotPath string
	contractID   string
	fn           string
	argSpecs     []string
	ledgerTime   *uint64
	showDiff     bool
	historyPath  string
	maxDepth     int
	maxSteps     int
}

// result is the JSON output shape for --json mode.
type result struct {
	Status     string               `json:"status"`
	Result     *ledger.Value        `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
	Diff       []ledger.DiffEntry   `json:"diff,omitempty"`
	Events     []engine.EventRecord `json:"events,omitempty"`
	Steps      int                  `json:"steps"`
	DurationMS int64                `json:"duration_ms"`
}

func run(cmd *cobra.Command, req *request) error {
	logger := shared.NewLogger()

	module, err := engine.LoadModule(req.modulePath)
	if err != nil {
		return err
	}
	snap, err := ledger.Load(req.snapshotPath)
	if err != nil {
		return err
	}
	fnArgs, err := shared.ParseArgs(req.argSpecs)
	if err != nil {
		return err
	}

	overlay := ledger.Begin(snap)
	mgr := engine.NewManager(module, logger)
	events := engine.NewEventLog()
	cfg := engine.Config{MaxCallDepth: req.maxDepth, MaxInstructions: req.maxSteps}
	host := engine.NewHost(module, overlay, mgr, events, cfg, logger)

	ledgerTime := snap.LedgerTime()
	if req.ledgerTime != nil {
		ledgerTime = *req.ledgerTime
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	ret, invokeErr := host.Invoke(ctx, req.contractID, req.fn, fnArgs, ledgerTime)
	elapsed := time.Since(started)

	res := result{
		Steps:      host.Steps(),
		DurationMS: elapsed.Milliseconds(),
		Events:     events.All(),
	}
	if invokeErr == nil {
		res.Status = "success"
		res.Result = &ret
		res.Diff = overlay.Diff()
		overlay.Commit()
	} else {
		res.Status = "trapped"
		res.Error = invokeErr.Error()
		overlay.Discard()
	}

	if req.historyPath != "" {
		if err := record(cmd.Context(), req, &res); err != nil {
			logger.Warn("failed to record invocation history", "error", err.Error())
		}
	}

	if shared.GetJSON() {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return invokeErr
	}

	if invokeErr != nil {
		return invokeErr
	}

	cmd.Printf("Result: %s\n", ret.String())
	cmd.Printf("Steps:  %d\n", res.Steps)
	for _, e := range res.Events {
		cmd.Println(format.Event(e))
	}
	if req.showDiff {
		cmd.Println(format.Diff(res.Diff))
	}
	return nil
}

// record appends the invocation outcome to the history database.
func record(ctx context.Context, req *request, res *result) error {
	store, err := history.Open(req.historyPath)
	if err != nil {
		return err
	}
	defer store.Close()

	rec := &history.Record{
		ID:         uuid.New().String(),
		SessionID:  uuid.New().String(),
		ContractID: req.contractID,
		Fn:         req.fn,
		Status:     res.Status,
		Error:      res.Error,
		Diff:       res.Diff,
		Events:     res.Events,
		DurationMS: res.DurationMS,
	}
	if res.Result != nil {
		rec.Result = res.Result.String()
	}
	return store.Append(ctx, rec)
}
