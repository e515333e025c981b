package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/onemoney-protocol/relayer/supervisor"
)

var proofOfAuthorityCommand = cli.Command{
	Name:  "proof-of-authority",
	Usage: "mirror 1Money's validator set onto the sidechain ValidatorManager",
	Flags: []cli.Flag{
		cli.DurationFlag{Name: "poll-interval", Value: 10 * time.Second, Usage: "how often to poll 1Money's current epoch"},
	},
	Action: func(ctx *cli.Context) error {
		cfg := newConfig(ctx)
		runCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		installInterruptHandler(cancel)

		dep, err := dial(runCtx, cfg, 0, 0)
		if err != nil {
			return err
		}

		sv := supervisor.New(dep.poaTask(ctx.Duration("poll-interval")))
		return sv.Run(runCtx)
	},
}

// installInterruptHandler cancels ctx on SIGINT/SIGTERM, mirroring the
// teacher's addInterruptHandler.
func installInterruptHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()
}
