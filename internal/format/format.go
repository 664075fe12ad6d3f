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

// Package format renders engine data structures for terminal output.
package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Tijesunimi004/soroban-debugger/pkg/engine"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// CLI style colors using lipgloss
var (
	// Added styles keys introduced by the invocation
	Added = lipgloss.NewStyle().Foreground(lipgloss.Color("42")) // green

	// Removed styles logically deleted keys
	Removed = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red

	// Modified styles changed keys
	Modified = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange

	// Muted styles secondary/less important text
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray

	// Bold styles emphasized text
	Bold = lipgloss.NewStyle().Bold(true)
)

// Symbols for change kinds
const (
	SymbolAdded    = "+"
	SymbolRemoved  = "-"
	SymbolModified = "~"
)

const absent = "<absent>"

// Value renders a single value, or "<absent>" for nil.
func Value(v *ledger.Value) string {
	if v == nil {
		return absent
	}
	return v.String()
}

// changeStyle maps a change kind to its symbol and style.
func changeStyle(kind ledger.ChangeKind) (string, lipgloss.Style) {
	switch kind {
	case ledger.ChangeAdded:
		return SymbolAdded, Added
	case ledger.ChangeRemoved:
		return SymbolRemoved, Removed
	default:
		return SymbolModified, Modified
	}
}

// Diff renders a storage diff as fixed-width before/after blocks, one
// per changed key, in the diff's (already deterministic) order.
func Diff(entries []ledger.DiffEntry) string {
	if len(entries) == 0 {
		return Muted.Render("no storage changes")
	}

	keyWidth, valWidth := 0, len(absent)
	for _, e := range entries {
		if w := len(e.Key.String()); w > keyWidth {
			keyWidth = w
		}
		if w := len(Value(e.Before)); w > valWidth {
			valWidth = w
		}
		if w := len(Value(e.After)); w > valWidth {
			valWidth = w
		}
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		symbol, style := changeStyle(e.Change)
		b.WriteString(fmt.Sprintf("%s %-*s  %-*s -> %-*s",
			style.Render(symbol),
			keyWidth, e.Key.String(),
			valWidth, Value(e.Before),
			valWidth, Value(e.After)))
	}
	return b.String()
}

// Storage renders overlay entries as an aligned table.
func Storage(entries []ledger.Entry) string {
	if len(entries) == 0 {
		return Muted.Render("storage is empty")
	}

	keyWidth := 0
	for _, e := range entries {
		if w := len(e.StorageKey().String()); w > keyWidth {
			keyWidth = w
		}
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%-*s  %s", keyWidth, e.StorageKey().String(), e.Value.String()))
	}
	return b.String()
}

// Backtrace renders a call stack snapshot root-first.
func Backtrace(frames []engine.FrameInfo) string {
	if len(frames) == 0 {
		return Muted.Render("no live frames")
	}
	var b strings.Builder
	for i, f := range frames {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("#%d %s.%s pc=%d [%s]", f.Depth, f.ContractID, f.Fn, f.PC, f.Status))
	}
	return b.String()
}

// Event renders one event record.
func Event(e engine.EventRecord) string {
	return fmt.Sprintf("[%d] %s %s %s %s",
		e.Sequence, e.ContractID, Bold.Render(e.Topic), e.Data.String(),
		Muted.Render(fmt.Sprintf("(frame %d)", e.FrameID)))
}

// WatchEvent renders one watch notification.
func WatchEvent(ev engine.WatchEvent) string {
	return fmt.Sprintf("watch #%d %s: %s -> %s %s",
		ev.WatchID, ev.Key.String(), Value(ev.Before), ev.After.String(),
		Muted.Render(fmt.Sprintf("(frame %d)", ev.FrameID)))
}
