package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
)

// Snapshot is an immutable point-in-time capture of storage entries,
// tagged with the logical ledger time at which it was taken. A snapshot
// is loaded once per command invocation and never mutated afterwards.
type Snapshot struct {
	ledgerTime uint64
	entries    map[Key]Entry
}

// snapshotFile is the on-disk snapshot format.
type snapshotFile struct {
	LedgerTime uint64  `json:"ledger_time"`
	Entries    []Entry `json:"entries"`
}

// Load reads a snapshot file. An unreadable path yields an InputError
// wrapping the filesystem error; malformed content yields an InputError
// describing the first offending entry.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.InputError{
			Kind:    errors.InputSnapshot,
			Path:    path,
			Message: "cannot read snapshot",
			Cause:   err,
		}
	}
	return Parse(data, path)
}

// Parse decodes snapshot content. The path is used for error reporting only.
func Parse(data []byte, path string) (*Snapshot, error) {
	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &errors.InputError{
			Kind:    errors.InputSnapshot,
			Path:    path,
			Message: "malformed snapshot",
			Cause:   err,
		}
	}

	snap := &Snapshot{
		ledgerTime: file.LedgerTime,
		entries:    make(map[Key]Entry, len(file.Entries)),
	}
	for i, e := range file.Entries {
		if !ValidTier(e.Tier) {
			return nil, &errors.InputError{
				Kind:    errors.InputSnapshot,
				Path:    path,
				Message: fmt.Sprintf("entry %d: unknown tier %q", i, e.Tier),
			}
		}
		if e.ContractID == "" || e.Key == "" {
			return nil, &errors.InputError{
				Kind:    errors.InputSnapshot,
				Path:    path,
				Message: fmt.Sprintf("entry %d: contract_id and key are required", i),
			}
		}
		k := e.StorageKey()
		if _, dup := snap.entries[k]; dup {
			return nil, &errors.InputError{
				Kind:    errors.InputSnapshot,
				Path:    path,
				Message: fmt.Sprintf("entry %d: duplicate key %s", i, k),
			}
		}
		snap.entries[k] = e
	}
	return snap, nil
}

// LedgerTime returns the snapshot's logical capture time.
func (s *Snapshot) LedgerTime() uint64 {
	return s.ledgerTime
}

// Get returns the value stored at (tier, contract, key). The second
// return is false when the key is absent.
func (s *Snapshot) Get(tier Tier, contract, key string) (Value, bool) {
	e, ok := s.entries[Key{Tier: tier, Contract: contract, Key: key}]
	if !ok {
		return Void(), false
	}
	return e.Value.Clone(), true
}

// Len returns the number of entries in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Entries returns all entries sorted by (tier, contract, key).
func (s *Snapshot) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StorageKey().Compare(out[j].StorageKey()) < 0
	})
	return out
}
