package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// Watch is a registered storage key (or key prefix) whose value
// transitions produce notification events.
type Watch struct {
	ID          int
	Tier        ledger.Tier
	ContractID  string
	KeyOrPrefix string
	// Prefix marks KeyOrPrefix as a prefix match rather than exact.
	Prefix  bool
	Enabled bool
}

// Matches reports whether the watch covers the given slot. An empty
// contract id covers every contract; an empty tier covers every tier.
func (w *Watch) Matches(k ledger.Key) bool {
	if w.Tier != "" && w.Tier != k.Tier {
		return false
	}
	if w.ContractID != "" && w.ContractID != k.Contract {
		return false
	}
	if w.Prefix {
		return strings.HasPrefix(k.Key, w.KeyOrPrefix)
	}
	return k.Key == w.KeyOrPrefix
}

// String renders the watch target for display.
func (w *Watch) String() string {
	key := w.KeyOrPrefix
	if w.Prefix {
		key += "*"
	}
	scope := "*"
	if w.ContractID != "" {
		scope = w.ContractID
	}
	tier := "*"
	if w.Tier != "" {
		tier = string(w.Tier)
	}
	return fmt.Sprintf("%s/%s/%s", tier, scope, key)
}

// WatchEvent notifies the driver of one watched value transition.
type WatchEvent struct {
	WatchID int           `json:"watch_id"`
	Key     ledger.Key    `json:"key"`
	Before  *ledger.Value `json:"before,omitempty"`
	After   ledger.Value  `json:"after"`
	FrameID int           `json:"frame_id"`
}

// AddWatch registers a storage watch. A trailing '*' on keyOrPrefix
// makes it a prefix match. Tier and contract may be empty to match all.
func (m *Manager) AddWatch(tier ledger.Tier, contractID, keyOrPrefix string) (*Watch, error) {
	if tier != "" && !ledger.ValidTier(tier) {
		return nil, &errors.InputError{
			Kind:    errors.InputArgs,
			Message: fmt.Sprintf("unknown storage tier %q", tier),
		}
	}
	prefix := strings.HasSuffix(keyOrPrefix, "*")
	if prefix {
		keyOrPrefix = strings.TrimSuffix(keyOrPrefix, "*")
	}
	if keyOrPrefix == "" && !prefix {
		return nil, &errors.InputError{Kind: errors.InputArgs, Message: "watch requires a key or prefix"}
	}

	m.nextID++
	w := &Watch{
		ID:          m.nextID,
		Tier:        tier,
		ContractID:  contractID,
		KeyOrPrefix: keyOrPrefix,
		Prefix:      prefix,
		Enabled:     true,
	}
	m.watches[w.ID] = w
	m.logger.Debug("watch added", slog.Int("id", w.ID), slog.String("target", w.String()))
	return w, nil
}

// Watches returns all registered watches ordered by id.
func (m *Manager) Watches() []*Watch {
	out := make([]*Watch, 0, len(m.watches))
	for id := 1; id <= m.nextID; id++ {
		if w, ok := m.watches[id]; ok {
			out = append(out, w)
		}
	}
	return out
}

// OnRead implements ledger.WatchSink. Reads of watched keys are counted
// for bookkeeping; they never fire watch events.
func (m *Manager) OnRead(k ledger.Key) {
	for _, w := range m.watches {
		if w.Enabled && w.Matches(k) {
			m.reads[k]++
			return
		}
	}
}

// ReadCount returns how many reads were observed for a watched key.
func (m *Manager) ReadCount(k ledger.Key) int {
	return m.reads[k]
}

// OnWrite implements ledger.WatchSink. A watch fires at most once per
// distinct value transition: a write that leaves the value unchanged
// produces no event.
func (m *Manager) OnWrite(k ledger.Key, before *ledger.Value, after ledger.Value) {
	if !m.transitioned(before, after) {
		return
	}
	for _, w := range m.watches {
		if !w.Enabled || !w.Matches(k) {
			continue
		}
		ev := WatchEvent{
			WatchID: w.ID,
			Key:     k,
			Before:  before,
			After:   after.Clone(),
			FrameID: m.currentFrame,
		}
		m.logger.Debug("watch fired",
			slog.Int("id", w.ID),
			slog.String("key", k.String()),
			slog.String("after", after.String()))
		if m.notify != nil {
			m.notify(ev)
		}
	}
}

// transitioned reports whether the write changed the visible value.
func (m *Manager) transitioned(before *ledger.Value, after ledger.Value) bool {
	if before == nil {
		return !after.IsVoid()
	}
	return !before.Equal(after)
}
