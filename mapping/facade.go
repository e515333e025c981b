// Package mapping is the hash-mapping protocol façade (spec.md §4.C11): the
// single place that enforces register -> submit -> link, classifies
// contract reverts, rolls back the nonce allocator on synchronous failure,
// and only warns on asynchronous (post-submit) failure.
package mapping

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"math/big"

	"github.com/btcsuite/btclog"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/onemoney-protocol/relayer/contracts/ominterop"
	"github.com/onemoney-protocol/relayer/contracts/txhashmapping"
	"github.com/onemoney-protocol/relayer/contracts/validatormanager"
	"github.com/onemoney-protocol/relayer/sidechain"
)

var mapfLog = btclog.Disabled

// UseLogger sets the package-wide logger used by mapping.
func UseLogger(logger btclog.Logger) {
	mapfLog = logger
}

// RevertKind distinguishes a decoded contract revert from a generic
// transport failure, mirroring spec.md §7's taxonomy.
type RevertKind int

const (
	// RevertUnknown means the call failed but the revert data did not
	// decode against any declared custom error; treat as a transport error.
	RevertUnknown RevertKind = iota
	// RevertKnownBenign is a revert variant treated as "already done":
	// AlreadyRegistered, AlreadyLinked. Reduces to warn + continue.
	RevertKnownBenign
	// RevertKnownFatal is a revert variant that must propagate.
	RevertKnownFatal
)

// ClassifiedError wraps a contract write failure with its classification.
type ClassifiedError struct {
	Kind    RevertKind
	Variant string
	Err     error
}

func (e *ClassifiedError) Error() string {
	if e.Variant != "" {
		return fmt.Sprintf("mapping: reverted with %s: %v", e.Variant, e.Err)
	}
	return fmt.Sprintf("mapping: %v", e.Err)
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// dataError is the interface go-ethereum's rpc package's json-rpc errors
// satisfy, exposing the `data` member of the error response — where a
// reverted call's ABI-encoded revert reason lives.
type dataError interface {
	ErrorData() interface{}
}

// revertTable is the pair of (ABI-error-lookup, classify-by-name) a
// contract binding exposes for C11 to decode its reverts against.
type revertTable struct {
	errors    map[string]abi.Error
	classify  func(name string) (error, bool)
	isBenign  func(error) bool
}

var txHashMappingReverts = revertTable{
	errors:   txhashmapping.ParsedABI().Errors,
	classify: txhashmapping.ClassifyRevert,
	isBenign: func(err error) bool {
		return errors.Is(err, txhashmapping.ErrAlreadyRegistered) || errors.Is(err, txhashmapping.ErrAlreadyLinked)
	},
}

var omInteropReverts = revertTable{
	errors:   ominterop.ParsedABI().Errors,
	classify: ominterop.ClassifyRevert,
	isBenign: func(err error) bool {
		return errors.Is(err, ominterop.ErrAlreadyProcessed)
	},
}

// classifyWith inspects a contract call error for ABI-decodable revert
// data, matching it against the given contract's declared custom errors by
// 4-byte selector. Anything that doesn't decode is a generic transport
// error.
func classifyWith(table revertTable, err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var de dataError
	if errors.As(err, &de) {
		if raw, ok := de.ErrorData().(string); ok {
			if name, ok := matchSelector(table.errors, raw); ok {
				if sentinel, known := table.classify(name); known {
					kind := RevertKnownFatal
					if table.isBenign(sentinel) {
						kind = RevertKnownBenign
					}
					return &ClassifiedError{Kind: kind, Variant: name, Err: sentinel}
				}
			}
		}
	}

	return &ClassifiedError{Kind: RevertUnknown, Err: err}
}

// matchSelector decodes a 0x-prefixed revert payload's 4-byte selector
// against a contract's declared custom errors.
func matchSelector(declared map[string]abi.Error, hexData string) (string, bool) {
	if len(hexData) >= 2 && hexData[0] == '0' && (hexData[1] == 'x' || hexData[1] == 'X') {
		hexData = hexData[2:]
	}
	data, err := hex.DecodeString(hexData)
	if err != nil || len(data) < 4 {
		return "", false
	}
	selector := data[:4]

	for name, e := range declared {
		if bytesEqual(e.ID[:4], selector) {
			return name, true
		}
	}
	return "", false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Facade bundles the TxHashMapping and OMInterop contracts and the
// sidechain client's nonce allocator so every write goes through the same
// send -> classify -> receipt -> rollback/warn sequence.
type Facade struct {
	sc       *sidechain.Client
	mappingC *txhashmapping.TxHashMapping
	interopC *ominterop.OMInterop
	vmC      *validatormanager.ValidatorManager
}

// New builds a Facade over the given sidechain client.
func New(sc *sidechain.Client) *Facade {
	return &Facade{
		sc:       sc,
		mappingC: sc.TxHashMapping,
		interopC: sc.OMInterop,
		vmC:      sc.ValidatorManager,
	}
}

// submit is the shared body of every façade operation: acquire a nonce,
// call send, classify a synchronous failure against the given contract's
// revert table and roll back the nonce on sync-fail, and on success await
// the receipt in the background, only logging if that wait fails (spec.md
// §4.C5 step 3 / §7).
func (f *Facade) submit(ctx context.Context, table revertTable, label string, send func(opts *bind.TransactOpts) (*types.Transaction, error)) (common.Hash, error) {
	opts, nonce, err := f.sc.TransactOpts(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("mapping: %s: build transact opts: %w", label, err)
	}

	tx, err := send(opts)
	if err != nil {
		ce := classifyWith(table, err)
		f.sc.Nonces().Rollback(nonce)
		if ce.Kind == RevertKnownBenign {
			mapfLog.Warnf("%s: %v (treated as already done)", label, ce)
			return common.Hash{}, nil
		}
		return common.Hash{}, ce
	}

	go func() {
		receiptCtx := context.Background()
		if _, err := f.sc.WaitMined(receiptCtx, tx); err != nil {
			mapfLog.Warnf("%s: receipt wait failed for tx %s: %v", label, tx.Hash().Hex(), err)
		}
	}()

	return tx.Hash(), nil
}

// RegisterDeposit reserves bridgeFrom before any submission is attempted
// (spec.md §4.C5 step 3).
func (f *Facade) RegisterDeposit(ctx context.Context, bridgeFrom common.Hash) (common.Hash, error) {
	return f.submit(ctx, txHashMappingReverts, "registerDeposit", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return f.mappingC.RegisterDeposit(opts, bridgeFrom)
	})
}

// LinkDepositHashes closes out a registered deposit (spec.md §4.C5 step 5).
func (f *Facade) LinkDepositHashes(ctx context.Context, bridgeFrom, bridgeTo common.Hash) (common.Hash, error) {
	return f.submit(ctx, txHashMappingReverts, "linkDepositHashes", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return f.mappingC.LinkDepositHashes(opts, bridgeFrom, bridgeTo)
	})
}

// RegisterWithdrawal reserves sourceHash before any submission is attempted
// (spec.md §4.C6 step 1).
func (f *Facade) RegisterWithdrawal(ctx context.Context, sourceHash common.Hash) (common.Hash, error) {
	return f.submit(ctx, txHashMappingReverts, "registerWithdrawal", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return f.mappingC.RegisterWithdrawal(opts, sourceHash)
	})
}

// LinkWithdrawalHashes closes out a registered withdrawal (spec.md §4.C6 step 5).
func (f *Facade) LinkWithdrawalHashes(ctx context.Context, sourceHash, bridgeTo common.Hash) (common.Hash, error) {
	return f.submit(ctx, txHashMappingReverts, "linkWithdrawalHashes", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return f.mappingC.LinkWithdrawalHashes(opts, sourceHash, bridgeTo)
	})
}

// LinkRefundHashes closes out a registered withdrawal via refund (spec.md §4.C7).
func (f *Facade) LinkRefundHashes(ctx context.Context, sourceHash, refundTo common.Hash) (common.Hash, error) {
	return f.submit(ctx, txHashMappingReverts, "linkRefundHashes", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return f.mappingC.LinkRefundHashes(opts, sourceHash, refundTo)
	})
}

// BridgeTo submits the withdrawal mint on the sidechain (spec.md §4.C6 step 4).
func (f *Facade) BridgeTo(ctx context.Context, from common.Address, bbnonce uint64, dst common.Address,
	value *big.Int, dstChainID uint64, escrowFee *big.Int, token common.Address,
	checkpointNumber uint64, bridgeData []byte, sourceHash common.Hash) (common.Hash, error) {

	return f.submit(ctx, omInteropReverts, "bridgeTo", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return f.interopC.BridgeTo(opts, from, bbnonce, dst, value, dstChainID, escrowFee, token, checkpointNumber, bridgeData, sourceHash)
	})
}

// UpdateCheckpointInfo records a checkpoint tally (spec.md §4.C6b).
func (f *Facade) UpdateCheckpointInfo(ctx context.Context, checkpointNumber uint64, txHashes []common.Hash) (common.Hash, error) {
	return f.submit(ctx, omInteropReverts, "updateCheckpointInfo", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return f.interopC.UpdateCheckpointInfo(opts, checkpointNumber, txHashes)
	})
}

var validatorManagerReverts = revertTable{
	errors:   map[string]abi.Error{},
	classify: func(string) (error, bool) { return nil, false },
	isBenign: func(error) bool { return false },
}

// AddAndRemove applies a PoA validator-set diff (spec.md §4.C8 step 5). The
// ValidatorManager contract declares no custom errors of its own in the
// pack's ABI, so reverts are always classified as generic transport errors.
//
// Unlike every other façade operation, this one does not return until the
// transaction is mined: spec.md §4.C8 step 5 requires the caller to "await
// receipt" before logging the new set, rather than the usual fire-and-
// forget background wait submit() gives every other write.
func (f *Facade) AddAndRemove(ctx context.Context, add []validatormanager.ValidatorInfo, remove []validatormanager.Secp256k1Key) (common.Hash, error) {
	opts, nonce, err := f.sc.TransactOpts(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("mapping: addAndRemove: build transact opts: %w", err)
	}

	tx, err := f.vmC.AddAndRemove(opts, add, remove)
	if err != nil {
		ce := classifyWith(validatorManagerReverts, err)
		if ce.Kind != RevertKnownBenign {
			f.sc.Nonces().Rollback(nonce)
		}
		if ce.Kind == RevertKnownBenign {
			mapfLog.Warnf("addAndRemove: %v (treated as already done)", ce)
			return common.Hash{}, nil
		}
		return common.Hash{}, ce
	}

	if _, err := f.sc.WaitMined(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("mapping: addAndRemove: await receipt for tx %s: %w", tx.Hash().Hex(), err)
	}

	return tx.Hash(), nil
}
