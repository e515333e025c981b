package onemoney

import (
	"context"
	"errors"
	"time"
)

// CheckpointTxs is one emission of the checkpoint poller: the checkpoint
// number tallied and the subset of its transactions matching the filter
// (always TokenBurnAndBridge; spec.md §4.C2). Emitted even when Filtered is
// empty, since C6b's tally write must still advance for every checkpoint.
type CheckpointTxs struct {
	Number   uint64
	Filtered []Transaction
}

// CheckpointPoller walks L1 checkpoints sequentially starting at a given
// number, retrying the same number on 404 ("not yet produced").
type CheckpointPoller struct {
	client       *Client
	pollInterval time.Duration
}

// NewCheckpointPoller builds a poller ticking every interval.
func NewCheckpointPoller(client *Client, interval time.Duration) *CheckpointPoller {
	return &CheckpointPoller{client: client, pollInterval: interval}
}

// Stream starts at `start` and emits one CheckpointTxs per tick once the
// checkpoint numbered N has been produced, then advances to N+1. A
// checkpoint that returns hash-only transactions, or any other transport
// error, aborts the stream (spec.md §4.C2: "hash-only results error").
func (p *CheckpointPoller) Stream(ctx context.Context, start uint64, out chan<- CheckpointTxs) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	n := start

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cp, err := p.client.CheckpointByNumber(ctx, n)
			if errors.Is(err, ErrCheckpointNotProduced) {
				oneyLog.Debugf("checkpoint %d not yet produced, retrying", n)
				continue
			}
			if err != nil {
				oneyLog.Errorf("checkpoint %d poll failed: %v", n, err)
				return err
			}

			filtered := filterBurnAndBridge(cp.Transactions)

			select {
			case out <- CheckpointTxs{Number: n, Filtered: filtered}:
			case <-ctx.Done():
				return ctx.Err()
			}

			n++
		}
	}
}

func filterBurnAndBridge(txs []Transaction) []Transaction {
	var out []Transaction
	for _, tx := range txs {
		if tx.Data.Type == TxKindTokenBurnAndBridge {
			out = append(out, tx)
		}
	}
	return out
}
