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

// Package debug provides the interactive debugging shell. The shell
// drives the execution host one step at a time, pausing at breakpoints
// and exposing storage, backtrace and event inspection commands.
package debug

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Tijesunimi004/soroban-debugger/internal/format"
	"github.com/Tijesunimi004/soroban-debugger/pkg/engine"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// Shell provides an interactive debugging interface over a session.
type Shell struct {
	session *Session
	input   io.Reader
	output  io.Writer
}

// NewShell creates a debug shell over the given session, reading from
// stdin and writing to stdout.
func NewShell(session *Session) *Shell {
	return &Shell{
		session: session,
		input:   os.Stdin,
		output:  os.Stdout,
	}
}

// Run starts the invocation and enters the interactive command loop.
// It returns when the invocation completes, traps, or the user quits;
// the returned error is the trap that ended execution, if any.
func (s *Shell) Run(ctx context.Context, fn string, args []ledger.Value, ledgerTime uint64) error {
	if err := s.session.Begin(fn, args, ledgerTime); err != nil {
		return err
	}

	fmt.Fprintf(s.output, "Debugging %s.%s (ledger time %d)\n", s.session.ContractID, fn, ledgerTime)
	fmt.Fprintln(s.output, "Type 'help' for commands.")

	scanner := bufio.NewScanner(s.input)
	for {
		s.flushWatchEvents()
		fmt.Fprint(s.output, "debug> ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			// EOF quits the session; pending writes are discarded.
			s.session.Overlay.Discard()
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		done, err := s.dispatch(ctx, line)
		if err != nil {
			fmt.Fprintf(s.output, "Error: %v\n", err)
		}
		if done {
			return s.session.Host.Err()
		}
	}
}

// dispatch executes one shell command. It reports done=true when the
// session is over (completion, trap, or quit).
func (s *Shell) dispatch(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "n", "next", "step":
		return s.step()

	case "c", "continue":
		return s.resume(ctx)

	case "bt", "backtrace":
		fmt.Fprintln(s.output, format.Backtrace(s.session.Host.Backtrace()))

	case "st", "storage":
		fmt.Fprintln(s.output, format.Storage(s.session.Overlay.Dump()))

	case "diff":
		fmt.Fprintln(s.output, format.Diff(s.session.Overlay.Diff()))

	case "b", "break":
		return false, s.addBreakpoint(args)

	case "w", "watch":
		return false, s.addWatch(args)

	case "info":
		s.showInfo()

	case "enable", "disable", "delete":
		return false, s.toggle(cmd, args)

	case "events":
		s.showEvents()

	case "q", "quit", "abort":
		s.session.Overlay.Discard()
		fmt.Fprintln(s.output, "Aborted; pending writes discarded.")
		return true, nil

	case "h", "help", "?":
		s.showHelp()

	default:
		return false, fmt.Errorf("unknown command: %s (type 'help' for commands)", cmd)
	}
	return false, nil
}

// step executes one instruction and reports where execution landed.
func (s *Shell) step() (bool, error) {
	outcome, err := s.session.Step()
	return s.report(outcome, err)
}

// resume runs until the next breakpoint, completion, or trap.
func (s *Shell) resume(ctx context.Context) (bool, error) {
	outcome, err := s.session.Continue(ctx)
	return s.report(outcome, err)
}

func (s *Shell) report(outcome engine.Outcome, err error) (bool, error) {
	s.flushWatchEvents()
	switch outcome {
	case engine.OutcomePaused:
		if bp := s.session.Host.LastBreakpoint(); bp != nil {
			fmt.Fprintf(s.output, "Breakpoint %d hit at %s (hit count %d)\n",
				bp.ID, bp.Location.String(), bp.HitCount)
		}
		s.showFrame()

	case engine.OutcomeCompleted:
		diff := s.session.Finish()
		fmt.Fprintf(s.output, "Completed: %s\n", s.session.Host.Result().String())
		fmt.Fprintln(s.output, format.Diff(diff))
		return true, nil

	case engine.OutcomeTrapped:
		s.session.Finish()
		fmt.Fprintf(s.output, "Trapped: %v\n", err)
		fmt.Fprintln(s.output, "All storage writes discarded.")
		return true, nil

	default:
		s.showFrame()
	}
	return false, nil
}

// showFrame prints the active frame's position.
func (s *Shell) showFrame() {
	f := s.session.Host.CurrentFrame()
	if f == nil {
		return
	}
	fmt.Fprintf(s.output, "at %s.%s pc=%d depth=%d\n", f.ContractID, f.Fn, f.PC, f.Depth)
}

func (s *Shell) addBreakpoint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("break requires a location (fn, contract.fn, or fn+offset)")
	}
	loc, err := ParseLocation(args[0])
	if err != nil {
		return err
	}
	// Everything after an "if" keyword is the condition expression.
	var cond string
	if len(args) > 2 && args[1] == "if" {
		cond = strings.Join(args[2:], " ")
	}
	bp, notice, err := s.session.Manager.AddBreakpoint(loc, cond)
	if err != nil {
		return err
	}
	if notice != nil {
		fmt.Fprintf(s.output, "Warning: %s\n", notice.Message)
	}
	fmt.Fprintf(s.output, "Breakpoint %d set at %s\n", bp.ID, bp.Location.String())
	return nil
}

func (s *Shell) addWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("watch requires a target (key, tier/key, or tier/contract/key)")
	}
	tier, contractID, key, err := ParseWatchTarget(args[0])
	if err != nil {
		return err
	}
	w, err := s.session.Manager.AddWatch(tier, contractID, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.output, "Watch %d set on %s\n", w.ID, w.String())
	return nil
}

func (s *Shell) toggle(cmd string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%s requires an id", cmd)
	}
	var id int
	if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}
	switch cmd {
	case "enable":
		return s.session.Manager.Enable(id)
	case "disable":
		return s.session.Manager.Disable(id)
	default:
		return s.session.Manager.Remove(id)
	}
}

// showInfo lists registered breakpoints and watches.
func (s *Shell) showInfo() {
	bps := s.session.Manager.Breakpoints()
	watches := s.session.Manager.Watches()
	if len(bps) == 0 && len(watches) == 0 {
		fmt.Fprintln(s.output, "No breakpoints or watches set.")
		return
	}
	for _, bp := range bps {
		state := "enabled"
		if !bp.Enabled {
			state = "disabled"
		}
		line := fmt.Sprintf("breakpoint %d: %s [%s] hits=%d", bp.ID, bp.Location.String(), state, bp.HitCount)
		if bp.Condition != "" {
			line += fmt.Sprintf(" if %s", bp.Condition)
		}
		fmt.Fprintln(s.output, line)
	}
	for _, w := range watches {
		state := "enabled"
		if !w.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(s.output, "watch %d: %s [%s]\n", w.ID, w.String(), state)
	}
}

// showEvents prints the session's event log.
func (s *Shell) showEvents() {
	events := s.session.Events.All()
	if len(events) == 0 {
		fmt.Fprintln(s.output, "No events emitted.")
		return
	}
	for _, e := range events {
		fmt.Fprintln(s.output, format.Event(e))
	}
}

// flushWatchEvents prints any watch notifications buffered since the
// last command.
func (s *Shell) flushWatchEvents() {
	for _, ev := range s.session.DrainWatchEvents() {
		fmt.Fprintln(s.output, format.WatchEvent(ev))
	}
}

// showHelp displays available commands.
func (s *Shell) showHelp() {
	help := `
Debug Commands:
  next, n              Execute one instruction
  continue, c          Run until the next breakpoint, completion, or trap
  backtrace, bt        Show the call stack, root frame first
  storage, st          Dump visible storage (snapshot + pending writes)
  diff                 Show pending storage changes
  break, b <loc>       Set a breakpoint (fn, contract.fn, or fn+offset);
                       append 'if <expr>' for a conditional breakpoint
  watch, w <target>    Watch a storage key (key, tier/key, tier/contract/key;
                       trailing * matches a prefix)
  info                 List breakpoints and watches
  enable <id>          Re-enable a breakpoint or watch
  disable <id>         Disable a breakpoint or watch
  delete <id>          Remove a breakpoint or watch
  events               Show emitted events in global order
  quit, q, abort       Abort; pending writes are discarded
  help, h, ?           Show this help message
`
	fmt.Fprintln(s.output, help)
}
