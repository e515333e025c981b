package main

import (
	"context"
	"time"

	"github.com/urfave/cli"

	"github.com/onemoney-protocol/relayer/supervisor"
)

// allCommand runs every flow under one supervisor so a single relayer
// account can serve the whole bridge (spec.md §6's "all" mode: the union
// of proof-of-authority, sidechain and onemoney).
var allCommand = cli.Command{
	Name:  "all",
	Usage: "run every flow (C5, C6 real-time and poll, C7, C8) under one supervisor",
	Flags: []cli.Flag{
		cli.DurationFlag{Name: "poa-poll-interval", Value: time.Second, Usage: "how often to poll 1Money's current epoch"},
		cli.Uint64Flag{Name: "from-block", Usage: "SC block to resume the deposit event stream from (default: C9-reconciled resume point)"},
		cli.Uint64Flag{Name: "start-checkpoint", Usage: "L1 checkpoint to resume the withdrawal polling/tally path from (default: C9-reconciled resume point)"},
		cli.DurationFlag{Name: "sidechain-clearing-poll-interval", Value: 10 * time.Second, Usage: "accepted for parity with the sidechain subcommand; unused in all mode, which polls at --one-money-clearing-poll-interval instead"},
		cli.DurationFlag{Name: "one-money-clearing-poll-interval", Value: time.Second, Usage: "checkpoint-poll cadence driving the C6b tally write"},
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

		fromBlock := optionalUint64(cctx, "from-block", dep.result.ResumeBlock)
		checkpointStart := optionalUint64(cctx, "start-checkpoint", dep.result.StartCheckpoint)

		sv := supervisor.New(
			dep.depositTask(fromBlock),
			dep.withdrawalTask(true, checkpointStart, cctx.Duration("one-money-clearing-poll-interval")),
			dep.poaTask(cctx.Duration("poa-poll-interval")),
		)
		return sv.Run(runCtx)
	},
}
