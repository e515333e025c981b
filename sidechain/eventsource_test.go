package sidechain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/onemoney-protocol/relayer/bridgeevents"
	"github.com/onemoney-protocol/relayer/contracts/ominterop"
)

// TestLiveLogDedupBoundary exercises isDuplicateOrStale, the boundary check
// Stream applies to live logs arriving after the historical page: anything
// at or before the last emitted (block, log_index) position must be
// dropped, and anything strictly after must pass.
func TestLiveLogDedupBoundary(t *testing.T) {
	lastBlock, lastIndex := uint64(100), uint(2)

	cases := []struct {
		name        string
		block       uint64
		index       uint
		wantDropped bool
	}{
		{"earlier block", 99, 5, true},
		{"same block earlier index", 100, 1, true},
		{"same block same index", 100, 2, true},
		{"same block later index", 100, 3, false},
		{"later block", 101, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lg := types.Log{BlockNumber: tc.block, Index: tc.index}
			dropped := isDuplicateOrStale(lastBlock, lastIndex, lg)
			if dropped != tc.wantDropped {
				t.Errorf("block=%d index=%d: dropped = %v, want %v", tc.block, tc.index, dropped, tc.wantDropped)
			}
		})
	}
}

// TestEventSourceHoldsTable checks that the Table passed to NewEventSource
// is the one EventSource actually decodes against, by round-tripping a real
// log through src.table rather than asserting a composite literal's address
// is non-nil.
func TestEventSourceHoldsTable(t *testing.T) {
	src := NewEventSource(&Client{}, common.Address{}, ominterop.EventTable)

	sig := ominterop.ParsedABI().Events["OperatorUpdated"].ID
	lg := types.Log{
		Topics:      []common.Hash{sig, common.HexToHash("0x01")},
		TxHash:      common.HexToHash("0xaa"),
		BlockNumber: 1,
	}

	ev, err := bridgeevents.Decode(src.table, lg)
	if err != nil {
		t.Fatalf("Decode against src.table: %v", err)
	}
	if ev.Kind != bridgeevents.KindOperatorUpdated {
		t.Errorf("got kind %v, want KindOperatorUpdated", ev.Kind)
	}
}
