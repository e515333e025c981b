// Package bridgeevents decodes OMInterop contract logs into the tagged union
// spec.md §3 describes: Received and Sent drive outbound work, the rest are
// administrative and only logged.
package bridgeevents

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Kind identifies which OMInterop event a decoded Event carries.
type Kind int

const (
	KindReceived Kind = iota
	KindSent
	KindOperatorUpdated
	KindRelayerUpdated
	KindOwnershipTransferred
	KindRateLimitsChanged
	KindPriceOracleUpdated
	KindInitialized
	KindUpgraded
)

func (k Kind) String() string {
	switch k {
	case KindReceived:
		return "Received"
	case KindSent:
		return "Sent"
	case KindOperatorUpdated:
		return "OperatorUpdated"
	case KindRelayerUpdated:
		return "RelayerUpdated"
	case KindOwnershipTransferred:
		return "OwnershipTransferred"
	case KindRateLimitsChanged:
		return "RateLimitsChanged"
	case KindPriceOracleUpdated:
		return "PriceOracleUpdated"
	case KindInitialized:
		return "Initialized"
	case KindUpgraded:
		return "Upgraded"
	default:
		return "Unknown"
	}
}

// Received mirrors the OMInterop `Received` log: an inbound deposit waiting
// to be minted on L1.
type Received struct {
	Nonce      uint64
	To         common.Address
	Amount     *big.Int
	OMToken    common.Address
	SrcChainID uint64
}

// Sent mirrors the OMInterop `Sent` log: a burn-and-bridge withdrawal whose
// escrowed amount may carry a refund.
type Sent struct {
	Nonce        uint64
	From         common.Address
	RefundAmount *big.Int
	OMToken      common.Address
	DstChainID   uint64
	SourceHash   common.Hash
}

// Event wraps a decoded OMInterop log together with the positional data
// spec.md §3 requires of every event: block number, log index and
// transaction hash, plus the reorg-withdrawn flag.
type Event struct {
	Kind        Kind
	BlockNumber uint64
	LogIndex    uint
	TxHash      common.Hash
	Removed     bool

	Received Received
	Sent     Sent
}

// Position returns the (block, log index) pair events are ordered and
// deduplicated by (spec.md §4.C1).
func (e Event) Position() (uint64, uint) {
	return e.BlockNumber, e.LogIndex
}

// Less reports whether e sorts strictly before other under the
// (block_number, log_index) order C1 guarantees.
func (e Event) Less(other Event) bool {
	if e.BlockNumber != other.BlockNumber {
		return e.BlockNumber < other.BlockNumber
	}
	return e.LogIndex < other.LogIndex
}

// MissingFieldError reports a log that is missing one of the required
// positional fields; spec.md §3 treats this as fatal to the stream consumer.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("bridge log missing required field %q", e.Field)
}

// Decode turns a raw EVM log into an Event using topic0 to pick the OMInterop
// event signature, the way an abigen-generated filterer's `ParseXxx` methods
// would if they were collapsed into a single dispatcher. Unknown topics are
// returned as an error so the caller (sidechain.EventSource) can warn and
// keep streaming.
func Decode(abiTable Table, log types.Log) (Event, error) {
	if log.TxHash == (common.Hash{}) {
		return Event{}, &MissingFieldError{Field: "tx_hash"}
	}

	ev := Event{
		BlockNumber: log.BlockNumber,
		LogIndex:    log.Index,
		TxHash:      log.TxHash,
		Removed:     log.Removed,
	}

	if len(log.Topics) == 0 {
		return Event{}, &MissingFieldError{Field: "topics"}
	}

	sig := log.Topics[0]
	decodeFn, ok := abiTable.bySignature[sig]
	if !ok {
		return Event{}, fmt.Errorf("bridgeevents: unrecognized event signature %s", sig)
	}

	ev.Kind = decodeFn.kind
	if err := decodeFn.decode(&ev, log); err != nil {
		return Event{}, err
	}

	return ev, nil
}

// IsActionable reports whether an event drives outbound relayer work.
// Everything else is logged at warn level and dropped (spec.md §3).
func (e Event) IsActionable() bool {
	return e.Kind == KindReceived || e.Kind == KindSent
}
