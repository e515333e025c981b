package flows

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"math/big"
	"time"

	"github.com/onemoney-protocol/relayer/bridgeevents"
	"github.com/onemoney-protocol/relayer/mapping"
	"github.com/onemoney-protocol/relayer/onemoney"
)

// DepositFlow implements C5 (SC->L1 mint) and C7 (SC->L1 refund payment):
// both are driven off the same C1 event stream and share the nonce
// admission guard, so they are a single router rather than two flows
// (spec.md §4.C7: "Driven from C5's event router").
type DepositFlow struct {
	Events chan bridgeevents.Event

	L1     *onemoney.Client
	Mapper *mapping.Facade

	RelayerKey     *ecdsa.PrivateKey
	RelayerL1Addr  string
	L1ChainID      uint64

	NonceWaitCeiling time.Duration
}

// Run consumes events until ctx is cancelled or the channel closes, routing
// Received to the mint path and Sent to the refund path; every other kind
// is logged and dropped (spec.md §3).
func (f *DepositFlow) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-f.Events:
			if !ok {
				return nil
			}
			if ev.Removed {
				continue
			}

			var err error
			switch ev.Kind {
			case bridgeevents.KindReceived:
				err = f.handleReceived(ctx, ev)
			case bridgeevents.KindSent:
				err = f.handleSent(ctx, ev)
			default:
				flowLog.Warnf("ignoring non-actionable event kind=%s tx=%s", ev.Kind, ev.TxHash.Hex())
				continue
			}
			if err != nil {
				return err
			}
		}
	}
}

func (f *DepositFlow) queryL1Nonce(ctx context.Context) (uint64, error) {
	return f.L1.AccountNonce(ctx, f.RelayerL1Addr)
}

func (f *DepositFlow) handleReceived(ctx context.Context, ev bridgeevents.Event) error {
	skip, err := nonceAdmission(ctx, ev.Received.Nonce, f.queryL1Nonce, f.NonceWaitCeiling)
	if err != nil {
		return err
	}
	if skip {
		flowLog.Debugf("deposit nonce %d already processed on L1, skipping", ev.Received.Nonce)
		return nil
	}

	sourceHash := ev.TxHash
	if _, err := f.Mapper.RegisterDeposit(ctx, sourceHash); err != nil {
		flowLog.Warnf("registerDeposit failed for tx %s, continuing to mint anyway: %v", sourceHash.Hex(), err)
	}

	payload := onemoney.BridgeAndMintPayload{
		ChainID:       f.L1ChainID,
		Nonce:         ev.Received.Nonce,
		Recipient:     ev.Received.To.Hex(),
		Value:         ev.Received.Amount,
		Token:         ev.Received.OMToken.Hex(),
		SourceChainID: ev.Received.SrcChainID,
		SourceTxHash:  "0x" + hex.EncodeToString(sourceHash.Bytes()),
	}

	signed, err := onemoney.SignBridgeAndMint(f.RelayerKey, payload)
	if err != nil {
		return err
	}

	mintHash, err := f.L1.SubmitBridgeAndMint(ctx, signed)
	if err != nil {
		if errors.Is(err, onemoney.ErrTransactionAlreadyExists) {
			flowLog.Warnf("bridge_and_mint for tx %s already submitted, skipping link", sourceHash.Hex())
			return nil
		}
		return err
	}

	_, err = f.Mapper.LinkDepositHashes(ctx, sourceHash, hashFromL1(mintHash))
	return err
}

func (f *DepositFlow) handleSent(ctx context.Context, ev bridgeevents.Event) error {
	skip, err := nonceAdmission(ctx, ev.Sent.Nonce, f.queryL1Nonce, f.NonceWaitCeiling)
	if err != nil {
		return err
	}
	if skip {
		flowLog.Debugf("refund nonce %d already processed on L1, skipping", ev.Sent.Nonce)
		return nil
	}

	if ev.Sent.RefundAmount == nil || ev.Sent.RefundAmount.Sign() == 0 {
		flowLog.Warnf("zero-refund Sent event tx=%s still consumes nonce %d", ev.TxHash.Hex(), ev.Sent.Nonce)
	}

	value := ev.Sent.RefundAmount
	if value == nil {
		value = big.NewInt(0)
	}

	payload := onemoney.PaymentPayload{
		ChainID:   f.L1ChainID,
		Nonce:     ev.Sent.Nonce,
		Recipient: ev.Sent.From.Hex(),
		Value:     value,
		Token:     ev.Sent.OMToken.Hex(),
	}

	signed, err := onemoney.SignPayment(f.RelayerKey, payload)
	if err != nil {
		return err
	}

	paymentHash, err := f.L1.SubmitPayment(ctx, signed)
	if err != nil {
		if errors.Is(err, onemoney.ErrTransactionAlreadyExists) {
			flowLog.Warnf("payment for refund tx %s already submitted, skipping link", ev.TxHash.Hex())
			return nil
		}
		return err
	}

	_, err = f.Mapper.LinkRefundHashes(ctx, ev.Sent.SourceHash, hashFromL1(paymentHash))
	return err
}
