package onemoney

import (
	"context"
	"time"
)

// EpochPoller is a single-threaded timer-driven poller of L1's current
// epoch (spec.md §4.C2). It emits only when epoch_id differs from the last
// seen value; a re-fetch of the same epoch is a silent no-op.
type EpochPoller struct {
	client       *Client
	pollInterval time.Duration
}

// NewEpochPoller builds a poller ticking every interval.
func NewEpochPoller(client *Client, interval time.Duration) *EpochPoller {
	return &EpochPoller{client: client, pollInterval: interval}
}

// Stream ticks at the configured interval, fetching the current epoch and
// emitting it on out whenever epoch_id has changed. A transport or decode
// error aborts the stream.
func (p *EpochPoller) Stream(ctx context.Context, out chan<- Epoch) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	var lastSeen uint64
	haveSeen := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			epoch, err := p.client.Epoch(ctx)
			if err != nil {
				oneyLog.Errorf("epoch poll failed: %v", err)
				return err
			}

			if haveSeen && epoch.EpochID == lastSeen {
				continue
			}

			lastSeen = epoch.EpochID
			haveSeen = true

			select {
			case out <- epoch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
