// Command relayer runs the 1Money <-> sidechain bridge relayer described by
// spec.md: one process, one of four modes (proof-of-authority, sidechain,
// onemoney, all), composing the relay flows under a single supervisor.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	relayer "github.com/onemoney-protocol/relayer"
	"github.com/onemoney-protocol/relayer/config"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[relayer] %v\n", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "relayer"
	app.Usage = "relay bridge traffic between 1Money and the sidechain (single relayer account only; concurrent instances sharing one account will race on nonce allocation)"
	app.Flags = append([]cli.Flag{
		cli.StringFlag{
			Name:  "debuglevel",
			Value: "info",
			Usage: "logging level for all subsystems, or per-subsystem levels like SIDC=debug,ONEY=trace",
		},
	}, config.SharedFlags...)
	app.Before = func(ctx *cli.Context) error {
		return relayer.SetLogLevels(ctx.GlobalString("debuglevel"))
	}
	app.Commands = []cli.Command{
		proofOfAuthorityCommand,
		sidechainCommand,
		onemoneyCommand,
		allCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
