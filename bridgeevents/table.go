package bridgeevents

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type decodeFunc struct {
	kind   Kind
	decode func(ev *Event, log types.Log) error
}

// Table is a topic0 -> decoder dispatch table built once from the OMInterop
// contract's parsed ABI, the same shape an abigen-generated filterer's
// unexported `xxxTopic` constants index into, but collapsed into a single
// lookup usable by bridgeevents.Decode.
type Table struct {
	bySignature map[common.Hash]decodeFunc
}

// NewTable builds the dispatch table from the OMInterop contract ABI.
func NewTable(contractABI abi.ABI) Table {
	t := Table{bySignature: make(map[common.Hash]decodeFunc)}

	register := func(name string, kind Kind, decode func(nonIndexed abi.Arguments, ev *Event, log types.Log) error) {
		event, ok := contractABI.Events[name]
		if !ok {
			return
		}
		nonIndexed := indexedArguments(event.Inputs, false)
		t.bySignature[event.ID] = decodeFunc{
			kind: kind,
			decode: func(ev *Event, log types.Log) error {
				return decode(nonIndexed, ev, log)
			},
		}
	}

	register("Received", KindReceived, func(nonIndexed abi.Arguments, ev *Event, log types.Log) error {
		if len(log.Topics) < 3 {
			return &MissingFieldError{Field: "nonce"}
		}
		var out struct {
			Amount     *big.Int
			OMToken    common.Address
			SrcChainID uint64
		}
		// Amount/OMToken/SrcChainID are non-indexed; Nonce and To are
		// indexed and therefore live in Topics[1] and Topics[2].
		if err := nonIndexed.UnpackIntoInterface(&out, log.Data); err != nil {
			return err
		}
		ev.Received = Received{
			Nonce:      log.Topics[1].Big().Uint64(),
			To:         common.BytesToAddress(log.Topics[2].Bytes()),
			Amount:     out.Amount,
			OMToken:    out.OMToken,
			SrcChainID: out.SrcChainID,
		}
		return nil
	})

	register("Sent", KindSent, func(nonIndexed abi.Arguments, ev *Event, log types.Log) error {
		if len(log.Topics) < 4 {
			return &MissingFieldError{Field: "nonce"}
		}
		var out struct {
			RefundAmount *big.Int
			OMToken      common.Address
			DstChainID   uint64
		}
		if err := nonIndexed.UnpackIntoInterface(&out, log.Data); err != nil {
			return err
		}
		ev.Sent = Sent{
			Nonce:        log.Topics[1].Big().Uint64(),
			From:         common.BytesToAddress(log.Topics[2].Bytes()),
			SourceHash:   log.Topics[3],
			RefundAmount: out.RefundAmount,
			OMToken:      out.OMToken,
			DstChainID:   out.DstChainID,
		}
		return nil
	})

	register("OperatorUpdated", KindOperatorUpdated, noopDecode)
	register("RelayerUpdated", KindRelayerUpdated, noopDecode)
	register("OwnershipTransferred", KindOwnershipTransferred, noopDecode)
	register("RateLimitsChanged", KindRateLimitsChanged, noopDecode)
	register("PriceOracleUpdated", KindPriceOracleUpdated, noopDecode)
	register("Initialized", KindInitialized, noopDecode)
	register("Upgraded", KindUpgraded, noopDecode)

	return t
}

func noopDecode(_ abi.Arguments, ev *Event, log types.Log) error {
	return nil
}

// indexedArguments filters an event's inputs down to those that are (or
// aren't) indexed, matching abigen's own generated filterer code.
func indexedArguments(inputs abi.Arguments, indexed bool) abi.Arguments {
	var out abi.Arguments
	for _, arg := range inputs {
		if arg.Indexed == indexed {
			out = append(out, arg)
		}
	}
	return out
}
