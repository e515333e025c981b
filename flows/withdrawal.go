package flows

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/onemoney-protocol/relayer/mapping"
	"github.com/onemoney-protocol/relayer/onemoney"
	"github.com/onemoney-protocol/relayer/sidechain"
)

// WithdrawalFlow implements C6 (L1->SC withdrawal via bridgeTo) and C6b (the
// checkpoint tally write that precedes it). Two ingest paths feed the same
// processBurnAndBridge action: the real-time C3 WS stream and the C2
// checkpoint-poll stream, which is also the only source of C6b (spec.md
// §4.C6).
type WithdrawalFlow struct {
	Certified  chan onemoney.CertifiedBurnAndBridge
	Checkpoint chan onemoney.CheckpointTxs

	SC     *sidechain.Client
	L1     *onemoney.Client
	Mapper *mapping.Facade
}

// Run consumes both ingest channels until ctx is cancelled or both close.
func (f *WithdrawalFlow) Run(ctx context.Context) error {
	certified := f.Certified
	checkpoints := f.Checkpoint

	for certified != nil || checkpoints != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cb, ok := <-certified:
			if !ok {
				certified = nil
				continue
			}
			sourceHash := common.HexToHash(cb.TxHash)
			if err := f.processBurnAndBridge(ctx, cb.Payload, sourceHash, 0); err != nil {
				return err
			}

		case cp, ok := <-checkpoints:
			if !ok {
				checkpoints = nil
				continue
			}
			if err := f.handleCheckpoint(ctx, cp); err != nil {
				return err
			}
		}
	}
	return nil
}

// handleCheckpoint is C6b: the checkpoint tally write happens before any of
// the checkpoint's burn-and-bridge transactions are individually processed,
// and happens even when the checkpoint carried none (spec.md §4.C6b).
func (f *WithdrawalFlow) handleCheckpoint(ctx context.Context, cp onemoney.CheckpointTxs) error {
	hashes := make([]common.Hash, len(cp.Filtered))
	for i, tx := range cp.Filtered {
		hashes[i] = common.HexToHash(tx.Hash)
	}

	if _, err := f.Mapper.UpdateCheckpointInfo(ctx, cp.Number, hashes); err != nil {
		return fmt.Errorf("flows: checkpoint %d tally: %w", cp.Number, err)
	}

	for _, tx := range cp.Filtered {
		var body onemoney.TokenBurnAndBridgeBody
		if err := json.Unmarshal(tx.Data.Body, &body); err != nil {
			flowLog.Warnf("checkpoint %d tx %s: malformed TokenBurnAndBridge body, skipping: %v", cp.Number, tx.Hash, err)
			continue
		}
		sourceHash := common.HexToHash(tx.Hash)
		if err := f.processBurnAndBridge(ctx, body, sourceHash, cp.Number); err != nil {
			return err
		}
	}
	return nil
}

// processBurnAndBridge is the action both ingest paths converge on (spec.md
// §4.C6 steps 1-5).
func (f *WithdrawalFlow) processBurnAndBridge(ctx context.Context, payload onemoney.TokenBurnAndBridgeBody, sourceHash common.Hash, checkpointNumber uint64) error {
	if _, err := f.Mapper.RegisterWithdrawal(ctx, sourceHash); err != nil {
		flowLog.Warnf("registerWithdrawal failed for source hash %s, continuing anyway: %v", sourceHash.Hex(), err)
	}

	receipt, err := f.L1.TransactionReceiptByHash(ctx, sourceHash.Hex())
	if err != nil {
		return fmt.Errorf("flows: withdrawal %s: fetch L1 receipt: %w", sourceHash.Hex(), err)
	}
	if receipt.SuccessInfo.BridgeInfo.BBNonce == 0 {
		return fmt.Errorf("flows: withdrawal %s: receipt carries no bbnonce", sourceHash.Hex())
	}
	// the receipt stores the next nonce to be assigned; the one this burn
	// actually consumed is one less.
	bbnonce := receipt.SuccessInfo.BridgeInfo.BBNonce - 1

	sender := common.HexToAddress(payload.Sender)

	latest, err := f.SC.OMInterop.GetLatestProcessedNonce(&bind.CallOpts{Context: ctx}, sender)
	if err != nil {
		return fmt.Errorf("flows: withdrawal %s: getLatestProcessedNonce: %w", sourceHash.Hex(), err)
	}
	if latest > bbnonce {
		flowLog.Debugf("withdrawal %s bbnonce %d already processed (latest %d), skipping", sourceHash.Hex(), bbnonce, latest)
		return nil
	}

	value, ok := new(big.Int).SetString(payload.Value, 10)
	if !ok {
		return fmt.Errorf("flows: withdrawal %s: malformed value %q", sourceHash.Hex(), payload.Value)
	}
	escrowFee, ok := new(big.Int).SetString(payload.EscrowFee, 10)
	if !ok {
		return fmt.Errorf("flows: withdrawal %s: malformed escrow_fee %q", sourceHash.Hex(), payload.EscrowFee)
	}

	dst := common.HexToAddress(payload.DstAddress)
	token := common.HexToAddress(payload.Token)

	// bridge_data is always empty today; see DESIGN.md's note on the open
	// "bridge_data" question.
	mintHash, err := f.Mapper.BridgeTo(ctx, sender, bbnonce, dst, value, payload.DstChainID, escrowFee, token, checkpointNumber, nil, sourceHash)
	if err != nil {
		return err
	}
	if mintHash == (common.Hash{}) {
		// bridgeTo reverted with a benign, already-processed classification;
		// the facade already warn-logged it, nothing left to link.
		return nil
	}

	_, err = f.Mapper.LinkWithdrawalHashes(ctx, sourceHash, mintHash)
	return err
}
