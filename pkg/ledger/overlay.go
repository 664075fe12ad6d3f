package ledger

import (
	"sort"
)

// WatchSink receives storage access notifications from an overlay. The
// execution host installs the breakpoint/watch manager here; watches
// trigger on writes, reads are reported for bookkeeping only.
type WatchSink interface {
	// OnRead is called for every storage read routed through the overlay.
	OnRead(key Key)

	// OnWrite is called after every write. before is nil when the key was
	// absent; after is the value just written (Void for deletion).
	OnWrite(key Key, before *Value, after Value)
}

// slot is the copy-on-write record for one touched key. original is the
// value that was visible when the key was first written within this
// overlay's lifetime (nil if the key was absent); it never moves
// afterwards, so diffs are always relative to a fixed baseline.
type slot struct {
	original *Value
	current  Value
}

// Overlay is a mutable copy-on-write view over a snapshot. All frames of
// a call tree share one overlay, so commit, discard and diff each cover
// the whole call tree at once.
//
// An overlay is not safe for concurrent use; execution is single-threaded
// by design so no locking is applied.
type Overlay struct {
	snap *Snapshot

	// base holds writes committed by earlier invocations in this session
	// (batch mode), layered over the snapshot. A Void value records a
	// committed deletion.
	base map[Key]Value

	// slots is the dirty set of the current invocation.
	slots map[Key]*slot

	sink WatchSink
}

// Begin creates an overlay over the given snapshot with an empty dirty set.
func Begin(snap *Snapshot) *Overlay {
	return &Overlay{
		snap:  snap,
		base:  make(map[Key]Value),
		slots: make(map[Key]*slot),
	}
}

// SetSink installs the watch sink consulted on every read and write.
func (o *Overlay) SetSink(sink WatchSink) {
	o.sink = sink
}

// LedgerTime returns the backing snapshot's logical capture time.
func (o *Overlay) LedgerTime() uint64 {
	return o.snap.LedgerTime()
}

// Read returns the value visible at key, checking the dirty set first,
// then committed overlay state, then the snapshot. The second return is
// false when the key is absent or logically deleted.
func (o *Overlay) Read(tier Tier, contract, key string) (Value, bool) {
	k := Key{Tier: tier, Contract: contract, Key: key}
	if o.sink != nil {
		o.sink.OnRead(k)
	}
	v, ok := o.visible(k)
	if v == nil || !ok {
		return Void(), false
	}
	return v.Clone(), true
}

// Peek is Read without sink reporting. Condition evaluation and state
// dumps use it so inspection never perturbs watch bookkeeping.
func (o *Overlay) Peek(tier Tier, contract, key string) (Value, bool) {
	v, ok := o.visible(Key{Tier: tier, Contract: contract, Key: key})
	if v == nil || !ok {
		return Void(), false
	}
	return v.Clone(), true
}

// visible resolves the value currently visible at k without touching the
// sink. nil/false means absent.
func (o *Overlay) visible(k Key) (*Value, bool) {
	if s, ok := o.slots[k]; ok {
		if s.current.IsVoid() {
			return nil, false
		}
		v := s.current
		return &v, true
	}
	return o.committed(k)
}

// committed resolves k against base and snapshot only, ignoring the
// dirty set. This is the baseline captured as a slot's original.
func (o *Overlay) committed(k Key) (*Value, bool) {
	if v, ok := o.base[k]; ok {
		if v.IsVoid() {
			return nil, false
		}
		return &v, true
	}
	if v, ok := o.snap.Get(k.Tier, k.Contract, k.Key); ok {
		return &v, true
	}
	return nil, false
}

// Write sets key to value. On the first touch of a key the currently
// visible value is captured as the slot's original; subsequent writes
// update current only. The watch sink is invoked with the value visible
// immediately before this write and the new value.
func (o *Overlay) Write(tier Tier, contract, key string, value Value) {
	k := Key{Tier: tier, Contract: contract, Key: key}

	var before *Value
	s, ok := o.slots[k]
	if ok {
		if !s.current.IsVoid() {
			v := s.current.Clone()
			before = &v
		}
	} else {
		orig, present := o.committed(k)
		if present {
			v := orig.Clone()
			before = &v
			s = &slot{original: &v}
		} else {
			s = &slot{}
		}
		o.slots[k] = s
	}
	s.current = value.Clone()

	if o.sink != nil {
		o.sink.OnWrite(k, before, value)
	}
}

// Delete logically removes key. It is recorded as a write of Void so the
// deletion participates in diffing and watch matching.
func (o *Overlay) Delete(tier Tier, contract, key string) {
	o.Write(tier, contract, key, Void())
}

// Diff returns the changes in the dirty set relative to each slot's
// captured original, sorted by (tier, contract, key). Keys whose current
// value equals their original are omitted.
func (o *Overlay) Diff() []DiffEntry {
	out := make([]DiffEntry, 0, len(o.slots))
	for k, s := range o.slots {
		entry, changed := diffSlot(k, s)
		if changed {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.Compare(out[j].Key) < 0
	})
	return out
}

func diffSlot(k Key, s *slot) (DiffEntry, bool) {
	origAbsent := s.original == nil
	curAbsent := s.current.IsVoid()

	switch {
	case origAbsent && curAbsent:
		return DiffEntry{}, false
	case origAbsent:
		after := s.current.Clone()
		return DiffEntry{Key: k, After: &after, Change: ChangeAdded}, true
	case curAbsent:
		before := s.original.Clone()
		return DiffEntry{Key: k, Before: &before, Change: ChangeRemoved}, true
	case s.original.Equal(s.current):
		return DiffEntry{}, false
	default:
		before := s.original.Clone()
		after := s.current.Clone()
		return DiffEntry{Key: k, Before: &before, After: &after, Change: ChangeModified}, true
	}
}

// Commit atomically folds the dirty set into the overlay's committed
// state: the staged state is built completely before it replaces base,
// so no partial application is ever visible. The dirty set is cleared.
func (o *Overlay) Commit() {
	staged := make(map[Key]Value, len(o.base)+len(o.slots))
	for k, v := range o.base {
		staged[k] = v
	}
	for k, s := range o.slots {
		staged[k] = s.current.Clone()
	}
	o.base = staged
	o.slots = make(map[Key]*slot)
}

// Discard drops the dirty set with no observable effect on committed state.
func (o *Overlay) Discard() {
	o.slots = make(map[Key]*slot)
}

// DirtyLen returns the number of touched keys in the current dirty set.
func (o *Overlay) DirtyLen() int {
	return len(o.slots)
}

// Dump returns every visible (key, value) pair, merging snapshot state
// with committed and dirty writes, sorted by key. Used by the debugger's
// storage inspection command.
func (o *Overlay) Dump() []Entry {
	merged := make(map[Key]Value)
	for _, e := range o.snap.Entries() {
		merged[e.StorageKey()] = e.Value
	}
	for k, v := range o.base {
		if v.IsVoid() {
			delete(merged, k)
		} else {
			merged[k] = v
		}
	}
	for k, s := range o.slots {
		if s.current.IsVoid() {
			delete(merged, k)
		} else {
			merged[k] = s.current
		}
	}

	out := make([]Entry, 0, len(merged))
	for k, v := range merged {
		out = append(out, Entry{
			Tier:       k.Tier,
			ContractID: k.Contract,
			Key:        k.Key,
			Value:      v.Clone(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StorageKey().Compare(out[j].StorageKey()) < 0
	})
	return out
}
