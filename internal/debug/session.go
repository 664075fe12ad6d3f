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

package debug

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Tijesunimi004/soroban-debugger/pkg/engine"
	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// Session owns the execution state of one interactive debugging run: the
// loaded module, the session overlay, the breakpoint/watch manager, the
// event log and the host driving them. The shell drives the session
// synchronously; nothing here is safe for concurrent use.
type Session struct {
	ID         string
	ContractID string

	Module  *engine.Module
	Overlay *ledger.Overlay
	Manager *engine.Manager
	Events  *engine.EventLog
	Host    *engine.Host

	logger *slog.Logger

	// watchEvents buffers watch notifications since the last drain.
	watchEvents []engine.WatchEvent
}

// NewSession assembles a debugging session over the given module and
// snapshot.
func NewSession(module *engine.Module, snap *ledger.Snapshot, contractID string, cfg engine.Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	overlay := ledger.Begin(snap)
	mgr := engine.NewManager(module, logger)
	events := engine.NewEventLog()
	host := engine.NewHost(module, overlay, mgr, events, cfg, logger)

	s := &Session{
		ID:         uuid.New().String(),
		ContractID: contractID,
		Module:     module,
		Overlay:    overlay,
		Manager:    mgr,
		Events:     events,
		Host:       host,
		logger:     logger,
	}
	mgr.SetNotify(func(ev engine.WatchEvent) {
		s.watchEvents = append(s.watchEvents, ev)
	})
	return s
}

// Begin starts an invocation against the session contract.
func (s *Session) Begin(fn string, args []ledger.Value, ledgerTime uint64) error {
	return s.Host.Begin(s.ContractID, fn, args, ledgerTime)
}

// Step executes one instruction.
func (s *Session) Step() (engine.Outcome, error) {
	return s.Host.Step()
}

// Continue runs until the next breakpoint, completion, or trap.
func (s *Session) Continue(ctx context.Context) (engine.Outcome, error) {
	return s.Host.Continue(ctx)
}

// Finish settles the overlay after an invocation ends: commit on
// completion, discard on trap. It reports the diff of a committed
// invocation.
func (s *Session) Finish() []ledger.DiffEntry {
	switch s.Host.State() {
	case engine.StateCompleted:
		diff := s.Overlay.Diff()
		s.Overlay.Commit()
		return diff
	case engine.StateTrapped:
		s.Overlay.Discard()
	}
	return nil
}

// DrainWatchEvents returns buffered watch notifications and clears the
// buffer.
func (s *Session) DrainWatchEvents() []engine.WatchEvent {
	evs := s.watchEvents
	s.watchEvents = nil
	return evs
}

// ParseLocation parses a breakpoint location string of the form
// "fn", "contract.fn", or either with a "+offset" suffix.
func ParseLocation(spec string) (engine.Location, error) {
	loc := engine.Location{Kind: engine.LocFunctionEntry}

	if i := strings.LastIndex(spec, "+"); i >= 0 {
		off, err := strconv.Atoi(spec[i+1:])
		if err != nil || off < 0 {
			return loc, &errors.InputError{
				Kind:    errors.InputArgs,
				Message: fmt.Sprintf("invalid instruction offset in %q", spec),
			}
		}
		loc.Kind = engine.LocInstructionOffset
		loc.Offset = off
		spec = spec[:i]
	}

	if i := strings.LastIndex(spec, "."); i >= 0 {
		loc.ContractID = spec[:i]
		loc.Fn = spec[i+1:]
	} else {
		loc.Fn = spec
	}
	if loc.Fn == "" {
		return loc, &errors.InputError{Kind: errors.InputArgs, Message: "breakpoint location requires a function name"}
	}
	return loc, nil
}

// ParseWatchTarget parses a watch target of the form "key",
// "tier/key", or "tier/contract/key". A "*" segment (or trailing "*"
// on the key) widens the match.
func ParseWatchTarget(spec string) (tier ledger.Tier, contractID, keyOrPrefix string, err error) {
	parts := strings.SplitN(spec, "/", 3)
	switch len(parts) {
	case 1:
		keyOrPrefix = parts[0]
	case 2:
		tier = ledger.Tier(parts[0])
		keyOrPrefix = parts[1]
	default:
		tier = ledger.Tier(parts[0])
		contractID = parts[1]
		keyOrPrefix = parts[2]
	}
	if tier == "*" {
		tier = ""
	}
	if contractID == "*" {
		contractID = ""
	}
	if tier != "" && !ledger.ValidTier(tier) {
		return "", "", "", &errors.InputError{
			Kind:    errors.InputArgs,
			Message: fmt.Sprintf("unknown storage tier %q", tier),
		}
	}
	return tier, contractID, keyOrPrefix, nil
}
