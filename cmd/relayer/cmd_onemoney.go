package main

import (
	"context"
	"time"

	"github.com/urfave/cli"

	"github.com/onemoney-protocol/relayer/supervisor"
)

var onemoneyCommand = cli.Command{
	Name:  "onemoney",
	Usage: "relay 1Money-originated burn-and-bridge withdrawals to the sidechain (C6 real-time and poll)",
	Flags: []cli.Flag{
		cli.Uint64Flag{Name: "start-checkpoint", Usage: "L1 checkpoint to resume the polling/tally path from (default: C9-reconciled resume point)"},
		cli.DurationFlag{Name: "clearing-poll-interval", Value: time.Second, Usage: "checkpoint-poll cadence, the primary source for C6b's tally write in this mode"},
		cli.Uint64Flag{Name: "start-checkpoint-hash-mapping-recovery", Usage: "L1 checkpoint to start the incomplete-deposit sweep's checkpoint walk from (default: 0)"},
		cli.Uint64Flag{Name: "start-block-hash-mapping-recovery", Usage: "SC block to start the incomplete-withdrawal log scan from (default: 0)"},
	},
	Action: func(cctx *cli.Context) error {
		cfg := newConfig(cctx)
		runCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		installInterruptHandler(cancel)

		depositSweepStart := optionalUint64(cctx, "start-checkpoint-hash-mapping-recovery", 0)
		withdrawalSweepStart := optionalUint64(cctx, "start-block-hash-mapping-recovery", 0)
		dep, err := dial(runCtx, cfg, depositSweepStart, withdrawalSweepStart)
		if err != nil {
			return err
		}

		checkpointStart := optionalUint64(cctx, "start-checkpoint", dep.result.StartCheckpoint)

		sv := supervisor.New(
			dep.withdrawalTask(true, checkpointStart, cctx.Duration("clearing-poll-interval")),
		)
		return sv.Run(runCtx)
	},
}
