package ledger

import (
	"fmt"
	"strings"
)

// Tier classifies a storage entry's retention semantics.
type Tier string

const (
	// TierInstance is contract-instance storage.
	TierInstance Tier = "instance"
	// TierPersistent is durable per-key storage.
	TierPersistent Tier = "persistent"
	// TierTemporary is storage that expires with the ledger entry.
	TierTemporary Tier = "temporary"
)

// ValidTier reports whether t is one of the three storage tiers.
func ValidTier(t Tier) bool {
	switch t {
	case TierInstance, TierPersistent, TierTemporary:
		return true
	}
	return false
}

// Key addresses one storage slot: (tier, contract, key).
type Key struct {
	Tier     Tier
	Contract string
	Key      string
}

// String renders the key as tier/contract/key.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Tier, k.Contract, k.Key)
}

// Compare orders keys by (tier, contract, key). Diffs are sorted with
// this ordering so output is deterministic across runs.
func (k Key) Compare(o Key) int {
	if c := strings.Compare(string(k.Tier), string(o.Tier)); c != 0 {
		return c
	}
	if c := strings.Compare(k.Contract, o.Contract); c != 0 {
		return c
	}
	return strings.Compare(k.Key, o.Key)
}

// Entry is one storage record in a snapshot.
type Entry struct {
	Tier         Tier   `json:"tier"`
	ContractID   string `json:"contract_id"`
	Key          string `json:"key"`
	Value        Value  `json:"value"`
	LastModified uint64 `json:"last_modified_time"`
}

// StorageKey returns the entry's slot address.
func (e Entry) StorageKey() Key {
	return Key{Tier: e.Tier, Contract: e.ContractID, Key: e.Key}
}

// ChangeKind classifies one diff entry.
type ChangeKind string

const (
	// ChangeAdded means the key did not exist before the overlay's writes.
	ChangeAdded ChangeKind = "added"
	// ChangeModified means the key existed and its value changed.
	ChangeModified ChangeKind = "modified"
	// ChangeRemoved means the key was logically deleted.
	ChangeRemoved ChangeKind = "removed"
)

// DiffEntry is one before/after record in a storage diff. Before and
// After are nil when the key was absent on that side.
type DiffEntry struct {
	Key    Key        `json:"key"`
	Before *Value     `json:"before,omitempty"`
	After  *Value     `json:"after,omitempty"`
	Change ChangeKind `json:"change"`
}
