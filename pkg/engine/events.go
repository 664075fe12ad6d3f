package engine

import (
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// EventRecord is one emitted contract event. Sequence numbers are
// session-global and strictly increasing in execution (depth-first
// call-tree) order, independent of which contract emits.
type EventRecord struct {
	ContractID string       `json:"contract_id"`
	Topic      string       `json:"topic"`
	Data       ledger.Value `json:"data"`
	Sequence   uint64       `json:"global_sequence"`
	FrameID    int          `json:"frame_id"`
}

// EventLog records emitted events in global order for one session.
type EventLog struct {
	seq    uint64
	events []EventRecord
}

// NewEventLog creates an empty event log. Sequence numbers start at 1.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append records an event and assigns it the next global sequence number.
func (l *EventLog) Append(contractID, topic string, data ledger.Value, frameID int) EventRecord {
	l.seq++
	rec := EventRecord{
		ContractID: contractID,
		Topic:      topic,
		Data:       data.Clone(),
		Sequence:   l.seq,
		FrameID:    frameID,
	}
	l.events = append(l.events, rec)
	return rec
}

// All returns the full ordered event sequence. The returned slice is a
// copy; repeated calls within a session are idempotent.
func (l *EventLog) All() []EventRecord {
	out := make([]EventRecord, len(l.events))
	copy(out, l.events)
	return out
}

// Since returns events with sequence numbers greater than seq, in order.
// Batch mode uses this to attribute events to individual jobs.
func (l *EventLog) Since(seq uint64) []EventRecord {
	var out []EventRecord
	for _, e := range l.events {
		if e.Sequence > seq {
			out = append(out, e)
		}
	}
	return out
}

// LastSequence returns the most recently assigned sequence number.
func (l *EventLog) LastSequence() uint64 {
	return l.seq
}
