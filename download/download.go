// Package download fetches historical candles from a feeder into CSV files and storage.
package download

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/xhit/go-str2duration/v2"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/service"
	"github.com/jibbril/setupbot/storage"
	"github.com/jibbril/setupbot/tools/log"
)

const (
	batchSize        = 500
	defaultPrecision = 8
)

type Downloader struct {
	feeder    service.Feeder
	storage   storage.Storage
	precision int
	progress  io.Writer
	now       func() time.Time
}

type DownloaderOption func(*Downloader)

// WithStorage also saves every downloaded batch into st.
func WithStorage(st storage.Storage) DownloaderOption {
	return func(d *Downloader) {
		d.storage = st
	}
}

// WithPrecision sets the decimals written for prices and volume.
func WithPrecision(precision int) DownloaderOption {
	return func(d *Downloader) {
		d.precision = precision
	}
}

// WithProgress renders a progress bar on w. Nil disables it.
func WithProgress(w io.Writer) DownloaderOption {
	return func(d *Downloader) {
		d.progress = w
	}
}

func NewDownloader(feeder service.Feeder, options ...DownloaderOption) Downloader {
	d := Downloader{
		feeder:    feeder,
		precision: defaultPrecision,
		progress:  os.Stderr,
		now:       time.Now,
	}
	for _, option := range options {
		option(&d)
	}
	return d
}

type Parameters struct {
	Start time.Time
	End   time.Time
}

type Option func(*Parameters)

func WithInterval(start, end time.Time) Option {
	return func(parameters *Parameters) {
		parameters.Start = start
		parameters.End = end
	}
}

func WithDays(days int) Option {
	return func(parameters *Parameters) {
		parameters.Start = time.Now().AddDate(0, 0, -days)
		parameters.End = time.Now()
	}
}

func candlesCount(start, end time.Time, timeframe string) (int, time.Duration, error) {
	totalDuration := end.Sub(start)
	interval, err := str2duration.ParseDuration(timeframe)
	if err != nil {
		return 0, 0, err
	}
	if interval <= 0 {
		return 0, 0, fmt.Errorf("invalid timeframe %q", timeframe)
	}
	return int(totalDuration / interval), interval, nil
}

func (d Downloader) parameters(options []Option) Parameters {
	now := d.now()
	parameters := Parameters{
		Start: now.AddDate(0, -1, 0),
		End:   now,
	}

	for _, option := range options {
		option(&parameters)
	}

	parameters.Start = time.Date(parameters.Start.Year(), parameters.Start.Month(), parameters.Start.Day(),
		0, 0, 0, 0, time.UTC)

	if now.Sub(parameters.End) > 0 {
		parameters.End = time.Date(parameters.End.Year(), parameters.End.Month(), parameters.End.Day(),
			0, 0, 0, 0, time.UTC)
	} else {
		parameters.End = now
	}
	return parameters
}

// Download fetches the candles of pair between the configured dates in batches. Candles are
// written as CSV to output unless it is empty, and saved to the storage when one is set.
// It returns the number of candles missing from complete batches.
func (d Downloader) Download(ctx context.Context, pair, timeframe string, output string, options ...Option) (int, error) {
	if output == "" && d.storage == nil {
		return 0, fmt.Errorf("download %s: no output file or storage", pair)
	}

	parameters := d.parameters(options)
	count, interval, err := candlesCount(parameters.Start, parameters.End, timeframe)
	if err != nil {
		return 0, err
	}
	count++
	log.Infof("Downloading %d candles of %s for %s", count, timeframe, pair)

	var writer *csv.Writer
	if output != "" {
		recordFile, err := os.Create(output)
		if err != nil {
			return 0, err
		}
		defer recordFile.Close()

		writer = csv.NewWriter(recordFile)
		err = writer.Write([]string{
			"time", "open", "close", "low", "high", "volume",
		})
		if err != nil {
			return 0, err
		}
	}

	var progressBar *progressbar.ProgressBar
	if d.progress != nil {
		progressBar = progressbar.NewOptions(count,
			progressbar.OptionSetWriter(d.progress),
			progressbar.OptionSetDescription(pair+" "+timeframe),
		)
	}

	lostData := 0
	isLastLoop := false
	for begin := parameters.Start; begin.Before(parameters.End); begin = begin.Add(interval * batchSize) {
		if err := ctx.Err(); err != nil {
			return lostData, err
		}

		end := begin.Add(interval * batchSize)
		if end.Before(parameters.End) {
			end = end.Add(-1 * time.Second)
		} else {
			end = parameters.End
			isLastLoop = true
		}

		candles, err := d.feeder.CandlesByPeriod(ctx, pair, timeframe, begin, end)
		if err != nil {
			return lostData, err
		}

		if err := d.write(writer, timeframe, candles); err != nil {
			return lostData, err
		}

		countCandles := len(candles)
		if !isLastLoop && countCandles < batchSize {
			lostData += batchSize - countCandles
		}
		if progressBar != nil {
			if err = progressBar.Add(countCandles); err != nil {
				log.Warnf("update progresbar fail: %s", err.Error())
			}
		}
	}

	if progressBar != nil {
		if err = progressBar.Close(); err != nil {
			log.Warnf("close progresbar fail: %s", err.Error())
		}
	}

	if lostData > 0 {
		log.Warnf("%d missing candles", lostData)
	}

	if writer != nil {
		writer.Flush()
		if err := writer.Error(); err != nil {
			return lostData, err
		}
	}
	log.Info("Done!")
	return lostData, nil
}

func (d Downloader) write(writer *csv.Writer, timeframe string, candles []model.Candle) error {
	if writer != nil {
		for _, candle := range candles {
			if err := writer.Write(candle.ToSlice(d.precision)); err != nil {
				return err
			}
		}
	}
	if d.storage != nil && len(candles) > 0 {
		return d.storage.SaveCandles(timeframe, candles...)
	}
	return nil
}
