package main

import (
	"context"
	"time"

	"github.com/urfave/cli"

	"github.com/onemoney-protocol/relayer/supervisor"
)

var sidechainCommand = cli.Command{
	Name:  "sidechain",
	Usage: "relay sidechain-originated deposits and refunds to 1Money, and keep the checkpoint tally current (C5, C6-poll, C7)",
	Flags: []cli.Flag{
		cli.Uint64Flag{Name: "from-block", Usage: "SC block to resume the event stream from (default: C9-reconciled resume point)"},
		cli.Uint64Flag{Name: "start-checkpoint-hash-mapping-recovery", Usage: "L1 checkpoint to start the incomplete-deposit sweep's checkpoint walk from (default: 0)"},
		cli.DurationFlag{Name: "clearing-poll-interval", Value: 10 * time.Second, Usage: "checkpoint-poll cadence backing the C6b tally write while this process has no SC-event-driven reason to poll it faster"},
	},
	Action: func(cctx *cli.Context) error {
		cfg := newConfig(cctx)
		runCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		installInterruptHandler(cancel)

		depositSweepStart := optionalUint64(cctx, "start-checkpoint-hash-mapping-recovery", 0)
		dep, err := dial(runCtx, cfg, depositSweepStart, 0)
		if err != nil {
			return err
		}

		fromBlock := optionalUint64(cctx, "from-block", dep.result.ResumeBlock)
		checkpointStart := dep.result.StartCheckpoint

		sv := supervisor.New(
			dep.depositTask(fromBlock),
			dep.withdrawalTask(false, checkpointStart, cctx.Duration("clearing-poll-interval")),
		)
		return sv.Run(runCtx)
	},
}
