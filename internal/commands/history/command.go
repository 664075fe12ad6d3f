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

// Package history implements the invocation history listing command.
package history

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tijesunimi004/soroban-debugger/internal/commands/shared"
	"github.com/Tijesunimi004/soroban-debugger/internal/history"
)

// NewCommand creates the history command
func NewCommand() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded invocations",
		Long: `History lists invocations previously recorded with the --history
flag of invoke and watch, newest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, dbPath, limit)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "History database file (required)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show")

	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func run(cmd *cobra.Command, dbPath string, limit int) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if shared.GetJSON() {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal records: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		cmd.Println("No recorded invocations.")
		return nil
	}
	for _, r := range records {
		line := fmt.Sprintf("%s  %s.%s  %s", r.CreatedAt.Format("2006-01-02 15:04:05"), r.ContractID, r.Fn, r.Status)
		if r.Status == "success" {
			line += fmt.Sprintf("  %s", r.Result)
		} else if r.Error != "" {
			line += fmt.Sprintf("  %s", r.Error)
		}
		line += fmt.Sprintf("  (%d changes, %d events, %dms)", len(r.Diff), len(r.Events), r.DurationMS)
		cmd.Println(line)
	}
	return nil
}
