package sidechain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/onemoney-protocol/relayer/bridgeevents"
)

// historicalCatchUpMargin is how far past the head height (read after the
// live subscription is already open) the historical page continues reading;
// logs in that overlap also arrive on the live feed and are dropped there by
// isDuplicateOrStale (spec.md §4.C1).
const historicalCatchUpMargin = 5

// historicalPageWindow bounds every eth_getLogs call to a 100,000-block
// range (spec.md §4.C1 step 4), matching the windowing reconcile.go's
// sweeps use and the window real RPC providers cap eth_getLogs at.
const historicalPageWindow = 100_000

// EventSource streams OMInterop bridge events in (block_number, log_index)
// order: a historical page read via eth_getLogs followed by a live feed
// read off an already-open WS log subscription, with the join point
// deduplicated so no event is delivered twice. This mirrors the
// ChainNotifier historical-then-live pattern the teacher composes on top of
// (chainntfs/chainntfs.go), generalized from block confirmations to
// arbitrary contract log topics.
type EventSource struct {
	client  *Client
	table   bridgeevents.Table
	address common.Address
}

// NewEventSource builds a source over the given contract's logs.
func NewEventSource(client *Client, address common.Address, table bridgeevents.Table) *EventSource {
	return &EventSource{client: client, table: table, address: address}
}

// Stream opens the live WS subscription, reads the historical page up to
// the subscription's own start height plus a margin, then forwards live
// logs, dropping anything at or before the last position emitted
// historically. It closes out when ctx is cancelled or the WS subscription
// errors.
func (s *EventSource) Stream(ctx context.Context, fromBlock uint64, out chan<- bridgeevents.Event) error {
	logsCh := make(chan types.Log, 256)
	query := ethereum.FilterQuery{Addresses: []common.Address{s.address}}

	sub, err := s.client.WS.SubscribeFilterLogs(ctx, query, logsCh)
	if err != nil {
		return fmt.Errorf("sidechain: subscribe filter logs: %w", err)
	}
	defer sub.Unsubscribe()

	head, err := s.client.HTTP.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("sidechain: read head height: %w", err)
	}

	liveStart := head + historicalCatchUpMargin
	var lastBlock uint64
	var lastIndex uint

	for start := fromBlock; start <= liveStart; start += historicalPageWindow {
		end := start + historicalPageWindow - 1
		if end > liveStart {
			end = liveStart
		}

		page, err := s.client.HTTP.FilterLogs(ctx, ethereum.FilterQuery{
			Addresses: []common.Address{s.address},
			FromBlock: new(big.Int).SetUint64(start),
			ToBlock:   new(big.Int).SetUint64(end),
		})
		if err != nil {
			return fmt.Errorf("sidechain: filter historical logs [%d,%d]: %w", start, end, err)
		}

		sort.Slice(page, func(i, j int) bool {
			if page[i].BlockNumber != page[j].BlockNumber {
				return page[i].BlockNumber < page[j].BlockNumber
			}
			return page[i].Index < page[j].Index
		})

		for _, lg := range page {
			ev, err := bridgeevents.Decode(s.table, lg)
			var missing *bridgeevents.MissingFieldError
			if errors.As(err, &missing) {
				return fmt.Errorf("sidechain: historical log tx=%s: %w", lg.TxHash.Hex(), err)
			}
			if err != nil {
				sidcLog.Warnf("skipping undecodable historical log tx=%s: %v", lg.TxHash.Hex(), err)
				continue
			}
			if !ev.IsActionable() {
				sidcLog.Warnf("ignoring non-actionable historical log tx=%s kind=%v", lg.TxHash.Hex(), ev.Kind)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
			lastBlock, lastIndex = ev.BlockNumber, ev.LogIndex
		}

		if end == liveStart {
			break
		}
	}

	sidcLog.Infof("historical catch-up done through block %d, switching to live subscription", liveStart)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("sidechain: log subscription: %w", err)
		case lg := <-logsCh:
			if isDuplicateOrStale(lastBlock, lastIndex, lg) {
				continue
			}
			ev, err := bridgeevents.Decode(s.table, lg)
			var missing *bridgeevents.MissingFieldError
			if errors.As(err, &missing) {
				return fmt.Errorf("sidechain: live log tx=%s: %w", lg.TxHash.Hex(), err)
			}
			if err != nil {
				sidcLog.Warnf("skipping undecodable live log tx=%s: %v", lg.TxHash.Hex(), err)
				continue
			}
			if !ev.IsActionable() {
				sidcLog.Warnf("ignoring non-actionable live log tx=%s kind=%v", lg.TxHash.Hex(), ev.Kind)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
			lastBlock, lastIndex = ev.BlockNumber, ev.LogIndex
		}
	}
}

// isDuplicateOrStale reports whether lg sits at or before the last
// (block_number, log_index) position already emitted historically,
// meaning the live subscription has handed back something the historical
// page already covered.
func isDuplicateOrStale(lastBlock uint64, lastIndex uint, lg types.Log) bool {
	return lg.BlockNumber < lastBlock || (lg.BlockNumber == lastBlock && lg.Index <= lastIndex)
}
