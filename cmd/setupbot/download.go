package main

import (
	"errors"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/jibbril/setupbot/download"
	"github.com/jibbril/setupbot/exchange"
	"github.com/jibbril/setupbot/storage"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:     "download",
		HelpName: "download",
		Usage:    "Download historical data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "pair",
				Aliases:  []string{"p"},
				Usage:    "eg. BTCUSDT",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "days",
				Aliases: []string{"d"},
				Usage:   "eg. 100 (default 30 days)",
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "eg. 2021-12-01",
				Layout:  "2006-01-02",
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "eg. 2020-12-31",
				Layout:  "2006-01-02",
			},
			&cli.StringFlag{
				Name:     "timeframe",
				Aliases:  []string{"t"},
				Usage:    "eg. 1h",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "eg. ./btc.csv",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "also store candles in this buntdb file, eg. ./setupbot.db",
			},
		},
		Action: func(c *cli.Context) error {
			if c.String("output") == "" && c.String("db") == "" {
				return errors.New("OUTPUT or DB must be informed")
			}

			var options []download.Option
			if days := c.Int("days"); days > 0 {
				options = append(options, download.WithDays(days))
			}

			start := c.Timestamp("start")
			end := c.Timestamp("end")
			if start != nil && end != nil && !start.IsZero() && !end.IsZero() {
				options = append(options, download.WithInterval(*start, *end))
			} else if start != nil || end != nil {
				return errors.New("START and END must be informed together")
			}

			feeder, err := exchange.NewBinance(c.Context)
			if err != nil {
				return err
			}

			downloaderOptions := []download.DownloaderOption{download.WithProgress(os.Stderr)}
			if path := c.String("db"); path != "" {
				db, err := storage.FromFile(path)
				if err != nil {
					return err
				}
				defer db.Close()
				downloaderOptions = append(downloaderOptions, download.WithStorage(db))
			}

			_, err = download.NewDownloader(feeder, downloaderOptions...).Download(c.Context, c.String("pair"),
				c.String("timeframe"), c.String("output"), options...)
			return err
		},
	}
}
