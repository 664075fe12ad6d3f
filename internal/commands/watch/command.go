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

// Package watch implements batch replay with storage watches.
package watch

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Tijesunimi004/soroban-debugger/internal/commands/shared"
	"github.com/Tijesunimi004/soroban-debugger/internal/debug"
	"github.com/Tijesunimi004/soroban-debugger/internal/format"
	"github.com/Tijesunimi004/soroban-debugger/internal/history"
	"github.com/Tijesunimi004/soroban-debugger/pkg/engine"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// NewCommand creates the watch command
func NewCommand() *cobra.Command {
	var (
		modulePath   string
		snapshotPath string
		contractID   string
		batchPath    string
		keys         []string
		showDiff     bool
		historyPath  string
		maxDepth     int
		maxSteps     int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Replay a transaction batch with storage watches",
		Long: `Watch replays an ordered batch of invocations against one snapshot,
reporting every transition of the watched storage keys.

Each job's writes are committed on success, so later jobs observe
earlier jobs' state, or rolled back when the job traps. A trapped job
is reported but does not stop the batch.

Watch targets take the form key, tier/key, or tier/contract/key; a
trailing * matches a key prefix:
  sorodbg watch -m token.json -s ledger.json --id C1 \
    --batch day.yaml --key persistent/C1/balance_*`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, modulePath, snapshotPath, contractID, batchPath,
				keys, showDiff, historyPath, maxDepth, maxSteps)
		},
	}

	cmd.Flags().StringVarP(&modulePath, "module", "m", "", "Lowered contract module file (required)")
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Ledger snapshot file (required)")
	cmd.Flags().StringVar(&contractID, "id", "", "Contract to invoke (required)")
	cmd.Flags().StringVarP(&batchPath, "batch", "b", "", "Batch job file (required)")
	cmd.Flags().StringArrayVarP(&keys, "key", "k", nil, "Storage key or prefix to watch (repeatable)")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show each job's storage diff")
	cmd.Flags().StringVar(&historyPath, "history", "", "Record each job in a history database")
	cmd.Flags().IntVar(&maxDepth, "max-depth", engine.DefaultConfig().MaxCallDepth, "Maximum cross-contract call depth")
	cmd.Flags().IntVar(&maxSteps, "max-steps", engine.DefaultConfig().MaxInstructions, "Maximum instructions per invocation")

	_ = cmd.MarkFlagRequired("module")
	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("batch")

	return cmd
}

// jobOutput is the JSON output shape for one job in --json mode.
type jobOutput struct {
	Index       int                  `json:"index"`
	Fn          string               `json:"fn"`
	Status      engine.JobStatus     `json:"status"`
	Result      *ledger.Value        `json:"result,omitempty"`
	Error       string               `json:"error,omitempty"`
	Diff        []ledger.DiffEntry   `json:"diff,omitempty"`
	Events      []engine.EventRecord `json:"events,omitempty"`
	WatchEvents []engine.WatchEvent  `json:"watch_events,omitempty"`
	DurationMS  int64                `json:"duration_ms"`
}

func run(cmd *cobra.Command, modulePath, snapshotPath, contractID, batchPath string,
	keys []string, showDiff bool, historyPath string, maxDepth, maxSteps int) error {

	logger := shared.NewLogger()

	module, err := engine.LoadModule(modulePath)
	if err != nil {
		return err
	}
	snap, err := ledger.Load(snapshotPath)
	if err != nil {
		return err
	}
	jobs, err := engine.LoadJobs(batchPath)
	if err != nil {
		return err
	}

	overlay := ledger.Begin(snap)
	mgr := engine.NewManager(module, logger)
	events := engine.NewEventLog()
	cfg := engine.Config{MaxCallDepth: maxDepth, MaxInstructions: maxSteps}
	host := engine.NewHost(module, overlay, mgr, events, cfg, logger)

	for _, spec := range keys {
		tier, watchContract, key, err := debug.ParseWatchTarget(spec)
		if err != nil {
			return err
		}
		if _, err := mgr.AddWatch(tier, watchContract, key); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver := engine.NewDriver(host, overlay, mgr, events, contractID, logger)
	results, runErr := driver.Run(ctx, jobs)

	if historyPath != "" {
		if err := record(cmd, historyPath, contractID, results); err != nil {
			logger.Warn("failed to record batch history", "error", err.Error())
		}
	}

	if shared.GetJSON() {
		out := make([]jobOutput, 0, len(results))
		for _, r := range results {
			jo := jobOutput{
				Index:       r.Index,
				Fn:          r.Fn,
				Status:      r.Status,
				Diff:        r.Diff,
				Events:      r.Events,
				WatchEvents: r.WatchEvents,
				DurationMS:  r.Duration.Milliseconds(),
			}
			if r.Status == engine.JobSuccess {
				ret := r.Result
				jo.Result = &ret
			} else if r.Err != nil {
				jo.Error = r.Err.Error()
			}
			out = append(out, jo)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return runErr
	}

	for _, r := range results {
		switch r.Status {
		case engine.JobSuccess:
			cmd.Printf("[%d] %s: %s\n", r.Index, r.Fn, r.Result.String())
		default:
			cmd.Printf("[%d] %s: trapped: %v\n", r.Index, r.Fn, r.Err)
		}
		for _, ev := range r.WatchEvents {
			cmd.Println("  " + format.WatchEvent(ev))
		}
		for _, e := range r.Events {
			cmd.Println("  " + format.Event(e))
		}
		if showDiff && len(r.Diff) > 0 {
			cmd.Println(format.Diff(r.Diff))
		}
	}
	return runErr
}

// record appends each job outcome to the history database under one
// shared session id.
func record(cmd *cobra.Command, path, contractID string, results []engine.JobResult) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	sessionID := uuid.New().String()
	for _, r := range results {
		rec := &history.Record{
			ID:         uuid.New().String(),
			SessionID:  sessionID,
			ContractID: contractID,
			Fn:         r.Fn,
			Status:     string(r.Status),
			Diff:       r.Diff,
			Events:     r.Events,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Status == engine.JobSuccess {
			rec.Result = r.Result.String()
		} else if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		if err := store.Append(cmd.Context(), rec); err != nil {
			return err
		}
	}
	return nil
}
