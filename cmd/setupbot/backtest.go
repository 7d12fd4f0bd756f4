package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/jibbril/setupbot/backtest"
	"github.com/jibbril/setupbot/config"
	"github.com/jibbril/setupbot/exchange"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/tools/log"
)

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:     "backtest",
		HelpName: "backtest",
		Usage:    "Simulate the configured strategies over historical candles",
		Flags: []cli.Flag{
			configFlag,
			&cli.StringSliceFlag{
				Name:  "csv",
				Usage: "candles of a ticker, eg. BTCUSDT=./btc-1h.csv (default: configured storage)",
			},
			&cli.StringFlag{
				Name:  "csv-timeframe",
				Usage: "timeframe of the CSV files when it differs from the config, eg. 1h",
			},
			&cli.BoolFlag{
				Name:  "heikin-ashi",
				Usage: "convert CSV candles to Heikin-Ashi",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			strategies, err := cfg.BuildStrategies()
			if err != nil {
				return err
			}

			series, err := loadSeries(c, cfg)
			if err != nil {
				return err
			}

			options := append(cfg.Backtest.Options(), backtest.WithProgress(os.Stderr))
			simulator := backtest.NewSimulator(options...)

			var results []backtest.Result
			for _, ts := range series {
				log.Infof("[SETUP] backtesting %d strategies on %s %s (%d candles)",
					len(strategies), ts.Ticker, ts.Interval, ts.Len())
				tickerResults, err := simulator.RunAll(c.Context, ts, strategies...)
				if err != nil {
					return err
				}
				results = append(results, tickerResults...)
			}

			backtest.Summary(os.Stdout, results...)
			return saveReturns(cfg.Backtest.ReturnsDir, results)
		},
	}
}

func loadSeries(c *cli.Context, cfg *config.Config) ([]*model.TimeSeries, error) {
	if files := c.StringSlice("csv"); len(files) > 0 {
		return csvSeries(files, c.String("csv-timeframe"), cfg.Timeframe, c.Bool("heikin-ashi"))
	}

	st, closeStorage, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}
	defer closeStorage()
	if st == nil {
		return nil, errors.New("no CSV informed and no storage configured")
	}

	series := make([]*model.TimeSeries, 0, len(cfg.Tickers))
	for _, ticker := range cfg.Tickers {
		candles, err := st.Candles(ticker, cfg.Timeframe)
		if err != nil {
			return nil, err
		}
		if len(candles) == 0 {
			return nil, fmt.Errorf("%w: no stored %s candles for %s", exchange.ErrInsufficientData, cfg.Timeframe, ticker)
		}
		ts, err := model.NewTimeSeries(ticker, cfg.Timeframe, candles...)
		if err != nil {
			return nil, err
		}
		series = append(series, ts)
	}
	return series, nil
}

func csvSeries(files []string, sourceTimeframe, targetTimeframe string, heikinAshi bool) ([]*model.TimeSeries, error) {
	if sourceTimeframe == "" {
		sourceTimeframe = targetTimeframe
	}

	feeds := make([]exchange.PairFeed, 0, len(files))
	for _, file := range files {
		pair, path, ok := strings.Cut(file, "=")
		if !ok || pair == "" || path == "" {
			return nil, fmt.Errorf("invalid CSV %q, expected TICKER=FILE", file)
		}
		feeds = append(feeds, exchange.PairFeed{
			Pair:       strings.ToUpper(pair),
			File:       path,
			Timeframe:  sourceTimeframe,
			HeikinAshi: heikinAshi,
		})
	}

	feed, err := exchange.NewCSVFeed(targetTimeframe, feeds...)
	if err != nil {
		return nil, err
	}

	series := make([]*model.TimeSeries, 0, len(feeds))
	for _, pairFeed := range feeds {
		ts, err := feed.TimeSeries(pairFeed.Pair, targetTimeframe)
		if err != nil {
			return nil, err
		}
		series = append(series, ts)
	}
	return series, nil
}

func saveReturns(dir string, results []backtest.Result) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, result := range results {
		name := strings.NewReplacer("(", "-", ")", "", ",", "-").Replace(result.Strategy)
		file := filepath.Join(dir, fmt.Sprintf("%s-%s-%s.txt", result.Ticker, result.Interval, name))
		if err := result.SaveReturns(file); err != nil {
			return err
		}
		log.Infof("returns of %s on %s saved to %s", result.Strategy, result.Ticker, file)
	}
	return nil
}
