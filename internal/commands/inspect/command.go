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

// Package inspect implements offline snapshot inspection.
package inspect

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/Tijesunimi004/soroban-debugger/internal/format"
	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// NewCommand creates the inspect command
func NewCommand() *cobra.Command {
	var (
		snapshotPath string
		tier         string
		contractID   string
		query        string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect a ledger snapshot without executing anything",
		Long: `Inspect prints the entries of a ledger snapshot, optionally
filtered by tier and contract, or selected with a jq expression over
the entry list:

  sorodbg inspect -s ledger.json --tier persistent --id C1
  sorodbg inspect -s ledger.json --query '.[] | select(.key | startswith("balance_"))'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, snapshotPath, tier, contractID, query)
		},
	}

	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Ledger snapshot file (required)")
	cmd.Flags().StringVar(&tier, "tier", "", "Only show entries in this storage tier")
	cmd.Flags().StringVar(&contractID, "id", "", "Only show entries owned by this contract")
	cmd.Flags().StringVar(&query, "query", "", "jq expression applied to the entry list")

	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

func run(cmd *cobra.Command, snapshotPath, tier, contractID, query string) error {
	snap, err := ledger.Load(snapshotPath)
	if err != nil {
		return err
	}
	if tier != "" && !ledger.ValidTier(ledger.Tier(tier)) {
		return &errors.InputError{
			Kind:    errors.InputArgs,
			Message: fmt.Sprintf("unknown storage tier %q", tier),
		}
	}

	entries := make([]ledger.Entry, 0, snap.Len())
	for _, e := range snap.Entries() {
		if tier != "" && string(e.Tier) != tier {
			continue
		}
		if contractID != "" && e.ContractID != contractID {
			continue
		}
		entries = append(entries, e)
	}

	if query == "" {
		cmd.Printf("ledger time: %d\n", snap.LedgerTime())
		cmd.Println(format.Storage(entries))
		return nil
	}
	return runQuery(cmd, entries, query)
}

// runQuery applies a jq expression to the JSON form of the entry list
// and prints each produced value.
func runQuery(cmd *cobra.Command, entries []ledger.Entry, query string) error {
	q, err := gojq.Parse(query)
	if err != nil {
		return &errors.InputError{
			Kind:    errors.InputArgs,
			Message: fmt.Sprintf("invalid query %q", query),
			Cause:   err,
		}
	}

	// Round-trip through JSON so the query sees the wire form.
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to decode entries: %w", err)
	}

	iter := q.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if qErr, isErr := v.(error); isErr {
			return &errors.InputError{
				Kind:    errors.InputArgs,
				Message: "query failed",
				Cause:   qErr,
			}
		}
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode query result: %w", err)
		}
		cmd.Println(string(out))
	}
	return nil
}
