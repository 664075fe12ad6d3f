package engine

import (
	"fmt"
	"log/slog"

	"github.com/Tijesunimi004/soroban-debugger/pkg/engine/condition"
	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// LocationKind distinguishes breakpoint location types.
type LocationKind string

const (
	// LocFunctionEntry breaks on entry to a contract function.
	LocFunctionEntry LocationKind = "function_entry"
	// LocInstructionOffset breaks at a specific instruction offset within
	// a contract function.
	LocInstructionOffset LocationKind = "instruction_offset"
)

// Location identifies where a breakpoint applies. An empty ContractID
// matches the function name in any contract.
type Location struct {
	Kind       LocationKind
	ContractID string
	Fn         string
	Offset     int
}

// String renders the location for display.
func (l Location) String() string {
	name := l.Fn
	if l.ContractID != "" {
		name = l.ContractID + "." + l.Fn
	}
	if l.Kind == LocInstructionOffset {
		return fmt.Sprintf("%s+%d", name, l.Offset)
	}
	return name
}

// Breakpoint is a registered suspension trigger.
type Breakpoint struct {
	ID       int
	Location Location
	// Condition is an optional expr condition; the breakpoint only fires
	// when it evaluates to true against the frame context.
	Condition string
	Enabled   bool
	HitCount  int
}

// Manager registers breakpoints and storage watches and matches them
// during execution. It implements ledger.WatchSink so the overlay can
// report reads and writes directly. One manager serves one session;
// registrations persist until removed or the session ends.
type Manager struct {
	module *Module
	logger *slog.Logger
	eval   *condition.Evaluator

	nextID      int
	breakpoints map[int]*Breakpoint
	watches     map[int]*Watch

	// currentFrame attributes watch events to the executing frame.
	currentFrame int

	// storage resolves reads for condition evaluation; installed by the host.
	storage func(tier ledger.Tier, contract, key string) (ledger.Value, bool)

	// notify receives watch events; installed by the driver.
	notify func(WatchEvent)

	// reads counts reads of watched keys (prefix bookkeeping; watches
	// trigger on write, never on read).
	reads map[ledger.Key]int
}

// NewManager creates a breakpoint/watch manager for the given module.
func NewManager(module *Module, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		module:      module,
		logger:      logger,
		eval:        condition.New(),
		breakpoints: make(map[int]*Breakpoint),
		watches:     make(map[int]*Watch),
		reads:       make(map[ledger.Key]int),
	}
}

// SetStorageReader installs the storage resolver used by breakpoint
// conditions. The host points this at the session overlay.
func (m *Manager) SetStorageReader(read func(tier ledger.Tier, contract, key string) (ledger.Value, bool)) {
	m.storage = read
}

// SetNotify installs the watch event consumer.
func (m *Manager) SetNotify(fn func(WatchEvent)) {
	m.notify = fn
}

// SetCurrentFrame records the frame id attributed to subsequent storage
// activity. The host updates this on every frame switch.
func (m *Manager) SetCurrentFrame(id int) {
	m.currentFrame = id
}

// AddBreakpoint registers a breakpoint. When an instruction-level
// location cannot be resolved against the loaded module, the breakpoint
// falls back to the nearest function entry and a non-fatal WarningNotice
// is returned alongside the registration.
func (m *Manager) AddBreakpoint(loc Location, cond string) (*Breakpoint, *errors.WarningNotice, error) {
	if loc.Fn == "" {
		return nil, nil, &errors.InputError{Kind: errors.InputArgs, Message: "breakpoint requires a function name"}
	}
	if err := m.eval.Validate(cond); err != nil {
		return nil, nil, err
	}

	var notice *errors.WarningNotice
	if loc.Kind == LocInstructionOffset {
		if fn, ok := m.resolveFunction(loc); !ok || loc.Offset < 0 || loc.Offset >= len(fn.Code) {
			notice = &errors.WarningNotice{
				Message: fmt.Sprintf("cannot resolve instruction offset %s; breaking at function entry instead", loc),
			}
			loc.Kind = LocFunctionEntry
			loc.Offset = 0
		}
	} else if _, ok := m.resolveFunction(loc); !ok {
		notice = &errors.WarningNotice{
			Message: fmt.Sprintf("function %s not found in loaded module; breakpoint may never hit", loc),
		}
	}

	m.nextID++
	bp := &Breakpoint{
		ID:        m.nextID,
		Location:  loc,
		Condition: cond,
		Enabled:   true,
	}
	m.breakpoints[bp.ID] = bp
	m.logger.Debug("breakpoint added",
		slog.Int("id", bp.ID), slog.String("location", loc.String()))
	return bp, notice, nil
}

// resolveFunction finds the function a location refers to. With an empty
// contract id, any contract exporting the function name matches.
func (m *Manager) resolveFunction(loc Location) (*Function, bool) {
	if loc.ContractID != "" {
		return m.module.Function(loc.ContractID, loc.Fn)
	}
	for _, c := range m.module.Contracts {
		if f, ok := c.Functions[loc.Fn]; ok {
			return f, true
		}
	}
	return nil, false
}

// CheckBreakpoints is consulted by the host before executing each
// instruction. Candidates are tried in id order, so when several enabled
// breakpoints match the same location the lowest id always fires;
// only that breakpoint's hit count increments. A match is returned to
// the host, which suspends the frame without consuming the instruction.
func (m *Manager) CheckBreakpoints(f *Frame) *Breakpoint {
	for id := 1; id <= m.nextID; id++ {
		bp, ok := m.breakpoints[id]
		if !ok || !bp.Enabled || !m.matchesLocation(bp.Location, f) {
			continue
		}
		if bp.Condition != "" {
			ok, err := m.eval.Evaluate(bp.Condition, m.conditionEnv(f))
			if err != nil {
				m.logger.Warn("breakpoint condition failed; treating as no match",
					slog.Int("id", bp.ID), slog.String("error", err.Error()))
				continue
			}
			if !ok {
				continue
			}
		}
		bp.HitCount++
		return bp
	}
	return nil
}

func (m *Manager) matchesLocation(loc Location, f *Frame) bool {
	if loc.Fn != f.Fn {
		return false
	}
	if loc.ContractID != "" && loc.ContractID != f.ContractID {
		return false
	}
	switch loc.Kind {
	case LocFunctionEntry:
		return f.pc == 0
	case LocInstructionOffset:
		return f.pc == loc.Offset
	}
	return false
}

// conditionEnv builds the expression environment for a frame.
func (m *Manager) conditionEnv(f *Frame) map[string]interface{} {
	return map[string]interface{}{
		"fn":       f.Fn,
		"contract": f.ContractID,
		"arg": func(i int) interface{} {
			if i < 0 || i >= len(f.Args) {
				return nil
			}
			return f.Args[i].Native()
		},
		"storage": func(key string) interface{} {
			if m.storage == nil {
				return nil
			}
			for _, tier := range []ledger.Tier{ledger.TierInstance, ledger.TierPersistent, ledger.TierTemporary} {
				if v, ok := m.storage(tier, f.ContractID, key); ok {
					return v.Native()
				}
			}
			return nil
		},
	}
}

// find returns the breakpoint or watch registered under id. The kind on
// a miss names a specific namespace only when the session holds just
// that one; with both (or neither) registered the intended target is
// unknowable, so the miss is reported neutrally.
func (m *Manager) find(id int) (*Breakpoint, *Watch, error) {
	if bp, ok := m.breakpoints[id]; ok {
		return bp, nil, nil
	}
	if w, ok := m.watches[id]; ok {
		return nil, w, nil
	}
	kind := errors.IDAny
	switch {
	case len(m.breakpoints) > 0 && len(m.watches) == 0:
		kind = errors.IDBreakpoint
	case len(m.watches) > 0 && len(m.breakpoints) == 0:
		kind = errors.IDWatch
	}
	return nil, nil, &errors.UnknownIDError{Kind: kind, ID: id}
}

// Enable re-enables the breakpoint or watch with the given id. An
// unknown id is reported and the operation is a no-op.
func (m *Manager) Enable(id int) error {
	return m.setEnabled(id, true)
}

// Disable disables the breakpoint or watch with the given id.
func (m *Manager) Disable(id int) error {
	return m.setEnabled(id, false)
}

func (m *Manager) setEnabled(id int, enabled bool) error {
	bp, w, err := m.find(id)
	if err != nil {
		return err
	}
	if bp != nil {
		bp.Enabled = enabled
	} else {
		w.Enabled = enabled
	}
	return nil
}

// Remove deletes the breakpoint or watch with the given id.
func (m *Manager) Remove(id int) error {
	if _, _, err := m.find(id); err != nil {
		return err
	}
	delete(m.breakpoints, id)
	delete(m.watches, id)
	return nil
}

// Breakpoints returns all registered breakpoints ordered by id.
func (m *Manager) Breakpoints() []*Breakpoint {
	out := make([]*Breakpoint, 0, len(m.breakpoints))
	for id := 1; id <= m.nextID; id++ {
		if bp, ok := m.breakpoints[id]; ok {
			out = append(out, bp)
		}
	}
	return out
}
