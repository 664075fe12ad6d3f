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

package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tijesunimi004/soroban-debugger/pkg/engine"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// Styles may or may not emit ANSI escapes depending on the terminal, so
// these tests assert on content rather than exact bytes.

func TestValue(t *testing.T) {
	assert.Equal(t, "<absent>", Value(nil))
	v := ledger.Int64Val(42)
	assert.Equal(t, "42", Value(&v))
}

func TestDiffEmpty(t *testing.T) {
	assert.Contains(t, Diff(nil), "no storage changes")
}

func TestDiffRendersEachChange(t *testing.T) {
	before := ledger.Int64Val(1000)
	after := ledger.Int64Val(750)
	gone := ledger.AddrVal("GADMIN")
	fresh := ledger.Int64Val(250)

	out := Diff([]ledger.DiffEntry{
		{
			Key:    ledger.Key{Tier: ledger.TierInstance, Contract: "C1", Key: "admin"},
			Before: &gone,
			Change: ledger.ChangeRemoved,
		},
		{
			Key:    ledger.Key{Tier: ledger.TierPersistent, Contract: "C1", Key: "balance_GALICE"},
			Before: &before,
			After:  &after,
			Change: ledger.ChangeModified,
		},
		{
			Key:    ledger.Key{Tier: ledger.TierPersistent, Contract: "C1", Key: "balance_GBOB"},
			After:  &fresh,
			Change: ledger.ChangeAdded,
		},
	})

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "instance/C1/admin")
	assert.Contains(t, lines[0], "GADMIN")
	assert.Contains(t, lines[0], "<absent>")
	assert.Contains(t, lines[1], "persistent/C1/balance_GALICE")
	assert.Contains(t, lines[1], "1000")
	assert.Contains(t, lines[1], "750")
	assert.Contains(t, lines[2], "persistent/C1/balance_GBOB")
	assert.Contains(t, lines[2], "250")
}

func TestStorage(t *testing.T) {
	assert.Contains(t, Storage(nil), "storage is empty")

	out := Storage([]ledger.Entry{
		{Tier: ledger.TierInstance, ContractID: "C1", Key: "admin", Value: ledger.AddrVal("GADMIN")},
		{Tier: ledger.TierPersistent, ContractID: "C1", Key: "balance", Value: ledger.Int64Val(1000)},
	})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "instance/C1/admin")
	assert.Contains(t, lines[0], "GADMIN")
	assert.Contains(t, lines[1], "persistent/C1/balance")
	assert.Contains(t, lines[1], "1000")
}

func TestBacktrace(t *testing.T) {
	assert.Contains(t, Backtrace(nil), "no live frames")

	out := Backtrace([]engine.FrameInfo{
		{ID: 1, ContractID: "C1", Fn: "wrapper", Depth: 1, Status: engine.FrameRunning, PC: 3},
		{ID: 2, ContractID: "C2", Fn: "write", Depth: 2, Status: engine.FrameRunning, PC: 0},
	})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "#1 C1.wrapper pc=3")
	assert.Contains(t, lines[1], "#2 C2.write pc=0")
}

func TestEvent(t *testing.T) {
	out := Event(engine.EventRecord{
		ContractID: "C1",
		Topic:      "transfer",
		Data:       ledger.Int64Val(250),
		Sequence:   3,
		FrameID:    2,
	})
	assert.Contains(t, out, "[3]")
	assert.Contains(t, out, "C1")
	assert.Contains(t, out, "transfer")
	assert.Contains(t, out, "250")
	assert.Contains(t, out, "frame 2")
}

func TestWatchEvent(t *testing.T) {
	before := ledger.Int64Val(1000)
	out := WatchEvent(engine.WatchEvent{
		WatchID: 4,
		Key:     ledger.Key{Tier: ledger.TierPersistent, Contract: "C1", Key: "balance"},
		Before:  &before,
		After:   ledger.Int64Val(750),
		FrameID: 1,
	})
	assert.Contains(t, out, "watch #4")
	assert.Contains(t, out, "persistent/C1/balance")
	assert.Contains(t, out, "1000 -> 750")
}
