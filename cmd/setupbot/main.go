package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/jibbril/setupbot/tools/log"
)

func main() {
	app := &cli.App{
		Name:     "setupbot",
		HelpName: "setupbot",
		Usage:    "Find, backtest and watch trade setups",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "debug, info, warn or error (overrides the config file)",
			},
		},
		Commands: []*cli.Command{
			downloadCommand(),
			backtestCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
