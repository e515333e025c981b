package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/onemoney-protocol/relayer/bridgeevents"
	"github.com/onemoney-protocol/relayer/contracts/ominterop"
	"github.com/onemoney-protocol/relayer/flows"
	"github.com/onemoney-protocol/relayer/mapping"
	"github.com/onemoney-protocol/relayer/onemoney"
	"github.com/onemoney-protocol/relayer/reconcile"
	"github.com/onemoney-protocol/relayer/sidechain"
	"github.com/onemoney-protocol/relayer/supervisor"

	"github.com/onemoney-protocol/relayer/config"
)

// deployment bundles every connection and the reconciliation result a
// subcommand needs to build its subset of flows.
type deployment struct {
	cfg    *config.Config
	sc     *sidechain.Client
	l1     *onemoney.Client
	mapper *mapping.Facade
	result reconcile.Result
}

// dial connects both chains, builds the hash-mapping façade, and runs C9
// reconciliation once before any flow starts (spec.md §4.C9: "Runs before
// flows start").
func dial(ctx context.Context, cfg *config.Config, depositSweepStart, withdrawalSweepStart uint64) (*deployment, error) {
	sc, err := sidechain.Dial(ctx, cfg.SideChainHTTPURL, cfg.SideChainWSURL,
		cfg.InteropContractAddress, cfg.TxMappingContractAddress, cfg.RelayerPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("dial sidechain: %w", err)
	}

	l1 := onemoney.NewClient(cfg.OneMoneyNodeURL)
	mapper := mapping.New(sc)

	reconciler := &reconcile.Reconciler{
		SC:                          sc,
		L1:                          l1,
		Mapper:                      mapper,
		RelayerL1Addr:               cfg.RelayerAddress.Hex(),
		DepositSweepCheckpointStart: depositSweepStart,
		WithdrawalSweepBlockStart:   withdrawalSweepStart,
	}
	result, err := reconciler.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	return &deployment{cfg: cfg, sc: sc, l1: l1, mapper: mapper, result: result}, nil
}

// depositTask builds the C5+C7 task: C1's SC event stream feeding
// DepositFlow's router.
func (d *deployment) depositTask(fromBlock uint64) supervisor.Task {
	events := make(chan bridgeevents.Event, 64)
	source := sidechain.NewEventSource(d.sc, d.sc.OMInterop.Address(), ominterop.EventTable)
	flow := &flows.DepositFlow{
		Events:           events,
		L1:               d.l1,
		Mapper:           d.mapper,
		RelayerKey:       d.cfg.RelayerPrivateKey,
		RelayerL1Addr:    d.cfg.RelayerAddress.Hex(),
		L1ChainID:        d.cfg.OneMoneyChainID,
		NonceWaitCeiling: d.cfg.L1NonceWaitCeiling,
	}

	return supervisor.Task{
		Name: "deposit",
		Run: func(ctx context.Context) error {
			errCh := make(chan error, 1)
			go func() { errCh <- source.Stream(ctx, fromBlock, events) }()

			flowErrCh := make(chan error, 1)
			go func() { flowErrCh <- flow.Run(ctx) }()

			select {
			case err := <-errCh:
				return err
			case err := <-flowErrCh:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

// withdrawalTask builds the C6+C6b task. live selects whether the C3
// certified-tx WS stream feeds it (the "real-time" path); poll is always
// attached since it alone drives the C6b tally write.
func (d *deployment) withdrawalTask(live bool, checkpointStart uint64, pollInterval time.Duration) supervisor.Task {
	certified := make(chan onemoney.CertifiedBurnAndBridge, 64)
	checkpoints := make(chan onemoney.CheckpointTxs, 8)

	flow := &flows.WithdrawalFlow{
		Certified:  certified,
		Checkpoint: checkpoints,
		SC:         d.sc,
		L1:         d.l1,
		Mapper:     d.mapper,
	}

	poller := onemoney.NewCheckpointPoller(d.l1, pollInterval)

	return supervisor.Task{
		Name: "withdrawal",
		Run: func(ctx context.Context) error {
			errCh := make(chan error, 3)

			if live {
				sub := onemoney.NewCertifiedTxSubscriber(d.cfg.OneMoneyWSURL)
				go func() { errCh <- sub.Stream(ctx, certified) }()
			} else {
				close(certified)
			}

			go func() { errCh <- poller.Stream(ctx, checkpointStart, checkpoints) }()
			go func() { errCh <- flow.Run(ctx) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

// poaTask builds the C8 task: 1Money's epoch stream mirrored onto the
// sidechain ValidatorManager.
func (d *deployment) poaTask(pollInterval time.Duration) supervisor.Task {
	epochs := make(chan onemoney.Epoch, 4)
	poller := onemoney.NewEpochPoller(d.l1, pollInterval)
	flow := &flows.PoaFlow{Epochs: epochs, SC: d.sc, Mapper: d.mapper}

	return supervisor.Task{
		Name: "poa",
		Run: func(ctx context.Context) error {
			errCh := make(chan error, 2)
			go func() { errCh <- poller.Stream(ctx, epochs) }()
			go func() { errCh <- flow.Run(ctx) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

// optionalUint64 reads a flag the CLI table marks "N?" (optional): present
// means the operator wants to pin the value; absent falls back to whatever
// C9 reconciliation already resolved.
func optionalUint64(ctx *cli.Context, name string, fallback uint64) uint64 {
	if ctx.IsSet(name) {
		return ctx.Uint64(name)
	}
	return fallback
}

func newConfig(ctx *cli.Context) *config.Config {
	cfg, err := config.FromCLI(ctx)
	if err != nil {
		fatal(err)
	}
	return cfg
}
