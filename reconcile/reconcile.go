// Package reconcile implements C9, the one-shot startup reconciliation that
// runs before any flow starts: recovering both chains' resume points and
// sweeping every incomplete deposit, withdrawal and refund left over from a
// previous run (spec.md §4.C9).
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/btcsuite/btclog"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/onemoney-protocol/relayer/bridgeevents"
	"github.com/onemoney-protocol/relayer/contracts/ominterop"
	"github.com/onemoney-protocol/relayer/mapping"
	"github.com/onemoney-protocol/relayer/onemoney"
	"github.com/onemoney-protocol/relayer/sidechain"
)

var reconcileLog = btclog.Disabled

// UseLogger sets the package-wide logger used by reconcile.
func UseLogger(logger btclog.Logger) {
	reconcileLog = logger
}

// logScanWindow is the block span C9's windowed eth_getLogs withdrawal
// sweep scans at a time (spec.md §4.C9: "100 000-block windows").
const logScanWindow = 100_000

// Reconciler runs C9 once, before any relay flow starts.
type Reconciler struct {
	SC            *sidechain.Client
	L1            *onemoney.Client
	Mapper        *mapping.Facade
	RelayerL1Addr string

	// DepositSweepCheckpointStart and WithdrawalSweepBlockStart override
	// where the incomplete-deposit/refund checkpoint walk and the
	// incomplete-withdrawal log scan begin, for operators who know no
	// earlier item can possibly be outstanding (the CLI's
	// --start-checkpoint-hash-mapping-recovery / --start-block-hash-
	// mapping-recovery flags). Zero means "from the beginning", the same
	// as leaving them unset.
	DepositSweepCheckpointStart uint64
	WithdrawalSweepBlockStart   uint64
}

// Result is what the supervisor needs out of reconciliation to start the
// live flows at the right place.
type Result struct {
	// ResumeBlock is the greatest sidechain block whose inbound nonce
	// watermark is still at or behind L1's, i.e. the block C1's live log
	// stream should resume from.
	ResumeBlock uint64
	// StartCheckpoint is the first L1 checkpoint number C2's polling
	// stream hasn't yet fully tallied.
	StartCheckpoint uint64
}

// Run performs C9 end to end: resume-point recovery on both sides, then the
// three incomplete-item sweeps. Every sweep item is handled independently;
// one item's failure is logged and does not abort the others (spec.md §4.C9:
// "idempotent ... every link operation that finds the target already set is
// a no-op").
func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	resumeBlock, err := r.resolveIncomingResumePoint(ctx)
	if err != nil {
		return Result{}, err
	}

	startCheckpoint, err := r.resolveOutgoingResumePoint(ctx)
	if err != nil {
		return Result{}, err
	}

	if err := r.sweepIncompleteDeposits(ctx, startCheckpoint); err != nil {
		return Result{}, err
	}
	if err := r.sweepIncompleteWithdrawalsAndRefunds(ctx, startCheckpoint, resumeBlock); err != nil {
		return Result{}, err
	}

	return Result{ResumeBlock: resumeBlock, StartCheckpoint: startCheckpoint}, nil
}

// resolveIncomingResumePoint implements the "resume point - incoming side"
// algorithm: binary search [0, head] for the greatest block B such that
// getLatestInboundNonce@B <= L1's relayer nonce.
func (r *Reconciler) resolveIncomingResumePoint(ctx context.Context) (uint64, error) {
	l1Nonce, err := r.L1.AccountNonce(ctx, r.RelayerL1Addr)
	if err != nil {
		return 0, fmt.Errorf("reconcile: fetch L1 nonce: %w", err)
	}

	head, err := r.SC.HTTP.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile: fetch SC head: %w", err)
	}

	headNonce, err := r.scNonceAt(ctx, head)
	if err != nil {
		return 0, fmt.Errorf("reconcile: getLatestInboundNonce@head: %w", err)
	}

	if l1Nonce == 0 && headNonce == 0 {
		return 0, nil
	}
	if headNonce == l1Nonce {
		return head, nil
	}
	if headNonce < l1Nonce {
		return 0, fmt.Errorf("reconcile: fatal inconsistency: SC inbound nonce %d at head %d is behind L1 nonce %d", headNonce, head, l1Nonce)
	}

	return binarySearchResumeBlock(head, l1Nonce, func(block uint64) (uint64, error) {
		return r.scNonceAt(ctx, block)
	})
}

// binarySearchResumeBlock finds the greatest block B in [0, head] such that
// nonceAt(B) <= l1Nonce (spec.md §4.C9, scenario S5), assuming nonceAt is
// monotone non-decreasing in block height.
func binarySearchResumeBlock(head, l1Nonce uint64, nonceAt func(uint64) (uint64, error)) (uint64, error) {
	lo, hi := uint64(0), head
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		n, err := nonceAt(mid)
		if err != nil {
			return 0, fmt.Errorf("reconcile: getLatestInboundNonce@%d: %w", mid, err)
		}
		if n <= l1Nonce {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

func (r *Reconciler) scNonceAt(ctx context.Context, block uint64) (uint64, error) {
	return r.SC.OMInterop.GetLatestInboundNonce(&bind.CallOpts{Context: ctx, BlockNumber: new(big.Int).SetUint64(block)})
}

// resolveOutgoingResumePoint implements the "resume point - outgoing side":
// one past the last fully-tallied checkpoint, or 0 if none has been.
func (r *Reconciler) resolveOutgoingResumePoint(ctx context.Context) (uint64, error) {
	last, err := r.SC.OMInterop.GetLatestCompletedCheckpoint(&bind.CallOpts{Context: ctx})
	if err != nil {
		if ominterop.IsNoCompletedCheckpoint(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reconcile: getLatestCompletedCheckpoint: %w", err)
	}
	return last + 1, nil
}

// sweepIncompleteDeposits links every deposit TxHashMapping still has
// registered but not linked: decode the SC Received log the registration
// was triggered by, then walk L1 checkpoints looking for the matching
// TokenBridgeAndMint by (nonce, recipient). Nothing is resubmitted to L1.
func (r *Reconciler) sweepIncompleteDeposits(ctx context.Context, latestCheckpoint uint64) error {
	hashes, err := r.SC.TxHashMapping.IncompleteDeposits(&bind.CallOpts{Context: ctx})
	if err != nil {
		return fmt.Errorf("reconcile: incompleteDeposits: %w", err)
	}

	for _, h := range hashes {
		if err := r.sweepOneDeposit(ctx, h, latestCheckpoint); err != nil {
			reconcileLog.Warnf("deposit sweep %s: %v", h.Hex(), err)
		}
	}
	return nil
}

func (r *Reconciler) sweepOneDeposit(ctx context.Context, h common.Hash, latestCheckpoint uint64) error {
	receipt, err := r.SC.HTTP.TransactionReceipt(ctx, h)
	if err != nil {
		return fmt.Errorf("fetch SC receipt: %w", err)
	}

	var received bridgeevents.Event
	found := false
	for _, lg := range receipt.Logs {
		ev, err := bridgeevents.Decode(ominterop.EventTable, *lg)
		if err != nil {
			continue
		}
		if ev.Kind == bridgeevents.KindReceived {
			received = ev
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no Received log embedded in receipt")
	}

	for n := r.DepositSweepCheckpointStart; n <= latestCheckpoint; n++ {
		cp, err := r.L1.CheckpointByNumber(ctx, n)
		if err != nil {
			continue
		}
		for _, tx := range cp.Transactions {
			if tx.Data.Type != onemoney.TxKindTokenBridgeAndMint {
				continue
			}
			var body onemoney.TokenBridgeAndMintBody
			if err := json.Unmarshal(tx.Data.Body, &body); err != nil {
				continue
			}
			if body.Nonce == received.Received.Nonce && common.HexToAddress(body.Recipient) == received.Received.To {
				_, err := r.Mapper.LinkDepositHashes(ctx, h, common.HexToHash(tx.Hash))
				return err
			}
		}
	}
	return fmt.Errorf("no matching TokenBridgeAndMint found in checkpoints [%d..%d]", r.DepositSweepCheckpointStart, latestCheckpoint)
}

// sweepIncompleteWithdrawalsAndRefunds links the missing leg(s) of every
// withdrawal TxHashMapping still has incomplete, from an already existing
// Sent log or L1 payment; nothing is resubmitted.
func (r *Reconciler) sweepIncompleteWithdrawalsAndRefunds(ctx context.Context, latestCheckpoint, head uint64) error {
	hashes, err := r.SC.TxHashMapping.IncompleteWithdrawals(&bind.CallOpts{Context: ctx})
	if err != nil {
		return fmt.Errorf("reconcile: incompleteWithdrawals: %w", err)
	}

	for _, h := range hashes {
		if err := r.sweepOneWithdrawal(ctx, h, latestCheckpoint, head); err != nil {
			reconcileLog.Warnf("withdrawal sweep %s: %v", h.Hex(), err)
		}
	}
	return nil
}

func (r *Reconciler) sweepOneWithdrawal(ctx context.Context, h common.Hash, latestCheckpoint, head uint64) error {
	rec, err := r.SC.TxHashMapping.GetWithdrawal(&bind.CallOpts{Context: ctx}, h)
	if err != nil {
		return fmt.Errorf("getWithdrawal: %w", err)
	}

	if rec.BridgeTo == (common.Hash{}) {
		sent, err := r.findSentLog(ctx, h, head)
		if err != nil {
			return fmt.Errorf("find Sent log: %w", err)
		}
		if sent != nil {
			if _, err := r.Mapper.LinkWithdrawalHashes(ctx, h, sent.TxHash); err != nil {
				return fmt.Errorf("linkWithdrawalHashes: %w", err)
			}
		}
	}

	if rec.RefundTo == (common.Hash{}) {
		sent, err := r.findSentLog(ctx, h, head)
		if err != nil {
			return fmt.Errorf("find Sent log for refund match: %w", err)
		}
		if sent == nil {
			return nil
		}
		match, err := r.findRefundCheckpointTx(ctx, latestCheckpoint, *sent)
		if err != nil {
			return fmt.Errorf("find refund checkpoint tx: %w", err)
		}
		if match != "" {
			if _, err := r.Mapper.LinkRefundHashes(ctx, h, common.HexToHash(match)); err != nil {
				return fmt.Errorf("linkRefundHashes: %w", err)
			}
		}
	}

	return nil
}

// findSentLog windowed-scans the OMInterop contract's logs for the unique
// Sent event whose sourceHash == h. The query filters only by the
// sourceHash topic (topic3 in this contract's indexed layout); it does not
// also filter by the from topic (topic2), unlike spec.md §4.C9's literal
// "topic1=from and topic3=h" instruction — see DESIGN.md's reconcile entry
// for why the from filter is dropped here. ev.Sent.SourceHash == h is
// re-checked client-side regardless, so this is a scan-volume tradeoff, not
// a correctness gap.
func (r *Reconciler) findSentLog(ctx context.Context, h common.Hash, head uint64) (*bridgeevents.Event, error) {
	sentSig := ominterop.ParsedABI().Events["Sent"].ID

	for start := r.WithdrawalSweepBlockStart; start <= head; start += logScanWindow {
		end := start + logScanWindow - 1
		if end > head {
			end = head
		}

		logs, err := r.SC.HTTP.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(start),
			ToBlock:   new(big.Int).SetUint64(end),
			Addresses: []common.Address{r.SC.OMInterop.Address()},
			Topics:    [][]common.Hash{{sentSig}, nil, nil, {h}},
		})
		if err != nil {
			return nil, err
		}

		for _, lg := range logs {
			ev, err := bridgeevents.Decode(ominterop.EventTable, lg)
			if err != nil {
				continue
			}
			if ev.Kind == bridgeevents.KindSent && ev.Sent.SourceHash == h {
				return &ev, nil
			}
		}
	}
	return nil, nil
}

// findRefundCheckpointTx scans L1 checkpoints
// [DepositSweepCheckpointStart..latest] for the
// TokenTransfer whose (nonce, value, token, recipient) match the Sent
// event's refund.
func (r *Reconciler) findRefundCheckpointTx(ctx context.Context, latestCheckpoint uint64, sent bridgeevents.Event) (string, error) {
	for n := r.DepositSweepCheckpointStart; n <= latestCheckpoint; n++ {
		cp, err := r.L1.CheckpointByNumber(ctx, n)
		if err != nil {
			continue
		}
		for _, tx := range cp.Transactions {
			if tx.Data.Type != onemoney.TxKindTokenTransfer {
				continue
			}
			var body onemoney.TokenTransferBody
			if err := json.Unmarshal(tx.Data.Body, &body); err != nil {
				continue
			}
			if body.Nonce != sent.Sent.Nonce {
				continue
			}
			if common.HexToAddress(body.Recipient) != sent.Sent.From {
				continue
			}
			if common.HexToAddress(body.Token) != sent.Sent.OMToken {
				continue
			}
			value, ok := new(big.Int).SetString(body.Value, 10)
			if !ok || sent.Sent.RefundAmount == nil || value.Cmp(sent.Sent.RefundAmount) != 0 {
				continue
			}
			return tx.Hash, nil
		}
	}
	return "", nil
}
