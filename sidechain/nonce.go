package sidechain

import (
	"sync"

	"github.com/btcsuite/btclog"
)

// sidcLog is this package's tagged subsystem logger, wired up via UseLogger
// the same way every lnd subsystem package registers itself with the root
// backend (see log.go).
var sidcLog = btclog.Disabled

// UseLogger sets the package-wide logger used by sidechain.
func UseLogger(logger btclog.Logger) {
	sidcLog = logger
}

// NonceAllocator hands out strictly increasing sidechain transaction nonces
// to every flow that submits a transaction through the shared relayer
// account (spec.md §4.C4). A single allocator instance is shared across all
// concurrently running flows so two goroutines never race for the same
// nonce.
type NonceAllocator struct {
	mu   sync.Mutex
	next uint64
}

// NewNonceAllocator seeds the allocator with the account's current pending
// nonce, typically read once at startup via PendingNonceAt.
func NewNonceAllocator(startAt uint64) *NonceAllocator {
	return &NonceAllocator{next: startAt}
}

// Allocate reserves and returns the next nonce. A nonce whose transaction
// is broadcast needs no further call; if the transaction was never sent
// (e.g. the send call failed synchronously before the node accepted it),
// the caller hands it back with Rollback.
func (n *NonceAllocator) Allocate() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	v := n.next
	n.next++
	return v
}

// Rollback returns a nonce to the pool after a failed submission so the next
// Allocate call reuses it instead of leaving a permanent gap (spec.md §7,
// C11's "rollback nonce on sync-fail" rule). It is a no-op if another
// goroutine has already allocated a higher nonce in the meantime, since
// rewinding past that point would hand out a nonce already in flight.
func (n *NonceAllocator) Rollback(nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.next == nonce+1 {
		n.next = nonce
		sidcLog.Debugf("rolled back nonce %d", nonce)
		return
	}
	sidcLog.Warnf("skipped rollback of nonce %d: allocator has moved on to %d", nonce, n.next)
}

// Peek returns the next nonce that would be allocated, without reserving it.
func (n *NonceAllocator) Peek() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.next
}
