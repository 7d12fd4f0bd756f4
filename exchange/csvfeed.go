package exchange

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/xhit/go-str2duration/v2"

	"github.com/jibbril/setupbot/model"
)

var ErrInsufficientData = errors.New("insufficient data")

// PairFeed describes one CSV file of candles.
type PairFeed struct {
	Pair       string
	File       string
	Timeframe  string
	HeikinAshi bool
}

// CSVFeed serves candles loaded from CSV files, resampled to a target timeframe.
type CSVFeed struct {
	Feeds               map[string]PairFeed
	CandlePairTimeFrame map[string][]model.Candle
}

// parseHeaders maps the known columns to their position. ok is false when the file has
// no header row, in which case the default column order applies.
func parseHeaders(headers []string) (index map[string]int, ok bool) {
	headerMap := map[string]int{
		"time": 0, "open": 1, "close": 2, "low": 3, "high": 4, "volume": 5,
	}

	if _, err := strconv.Atoi(headers[0]); err == nil {
		return headerMap, false
	}

	for index, h := range headers {
		headerMap[h] = index
	}
	return headerMap, true
}

// NewCSVFeed loads every feed and resamples it to targetTimeframe.
func NewCSVFeed(targetTimeframe string, feeds ...PairFeed) (*CSVFeed, error) {
	csvFeed := &CSVFeed{
		Feeds:               make(map[string]PairFeed),
		CandlePairTimeFrame: make(map[string][]model.Candle),
	}

	for _, feed := range feeds {
		csvFeed.Feeds[feed.Pair] = feed

		candles, err := readCandles(feed)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", feed.File, err)
		}
		csvFeed.CandlePairTimeFrame[csvFeed.feedTimeframeKey(feed.Pair, feed.Timeframe)] = candles

		if err := csvFeed.resample(feed.Pair, feed.Timeframe, targetTimeframe); err != nil {
			return nil, err
		}
	}

	return csvFeed, nil
}

func readCandles(feed PairFeed) ([]model.Candle, error) {
	csvFile, err := os.Open(feed.File)
	if err != nil {
		return nil, err
	}
	defer csvFile.Close()

	csvLines, err := csv.NewReader(csvFile).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(csvLines) == 0 {
		return nil, ErrInsufficientData
	}

	headerMap, hasHeaders := parseHeaders(csvLines[0])
	if hasHeaders {
		csvLines = csvLines[1:]
	}

	var (
		candles []model.Candle
		ha      = model.NewHeikinAshi()
	)
	for line, record := range csvLines {
		timestamp, err := strconv.Atoi(record[headerMap["time"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}

		candle := model.Candle{
			Time:      time.Unix(int64(timestamp), 0).UTC(),
			UpdatedAt: time.Unix(int64(timestamp), 0).UTC(),
			Pair:      feed.Pair,
			Complete:  true,
		}

		for field, target := range map[string]*float64{
			"open":   &candle.Open,
			"close":  &candle.Close,
			"low":    &candle.Low,
			"high":   &candle.High,
			"volume": &candle.Volume,
		} {
			*target, err = strconv.ParseFloat(record[headerMap[field]], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d %s: %w", line+1, field, err)
			}
		}

		if feed.HeikinAshi {
			candle = candle.ToHeikinAshi(ha)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func (c CSVFeed) feedTimeframeKey(pair, timeframe string) string {
	return fmt.Sprintf("%s--%s", pair, timeframe)
}

// Limit keeps only the candles of the last duration for every feed.
func (c *CSVFeed) Limit(duration time.Duration) *CSVFeed {
	for pair, candles := range c.CandlePairTimeFrame {
		if len(candles) == 0 {
			continue
		}
		start := candles[len(candles)-1].Time.Add(-duration)
		c.CandlePairTimeFrame[pair] = lo.Filter(candles, func(candle model.Candle, _ int) bool {
			return candle.Time.After(start)
		})
	}
	return c
}

// TimeSeries builds a series from the loaded candles of pair.
func (c CSVFeed) TimeSeries(pair, timeframe string) (*model.TimeSeries, error) {
	candles := c.CandlePairTimeFrame[c.feedTimeframeKey(pair, timeframe)]
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrInsufficientData, pair, timeframe)
	}
	return model.NewTimeSeries(pair, timeframe, candles...)
}

func isFistCandlePeriod(t time.Time, fromTimeframe, targetTimeframe string) (bool, error) {
	fromDuration, err := str2duration.ParseDuration(fromTimeframe)
	if err != nil {
		return false, err
	}

	prev := t.Add(-fromDuration).UTC()
	return isLastCandlePeriod(prev, fromTimeframe, targetTimeframe)
}

// isLastCandlePeriod reports whether the source candle at t closes a target period.
func isLastCandlePeriod(t time.Time, fromTimeframe, targetTimeframe string) (bool, error) {
	if fromTimeframe == targetTimeframe {
		return true, nil
	}

	fromDuration, err := str2duration.ParseDuration(fromTimeframe)
	if err != nil {
		return false, err
	}
	next := t.Add(fromDuration).UTC()

	if targetTimeframe == "1w" {
		return next.Truncate(24*time.Hour).Equal(next) && next.Weekday() == time.Sunday, nil
	}

	targetDuration, err := str2duration.ParseDuration(targetTimeframe)
	if err != nil {
		return false, fmt.Errorf("invalid timeframe: %s", targetTimeframe)
	}
	if targetDuration < fromDuration {
		return false, fmt.Errorf("cannot resample %s candles to %s", fromTimeframe, targetTimeframe)
	}
	return next.Truncate(targetDuration).Equal(next), nil
}

// resample merges the source candles into target periods. Leading candles that do not
// start a period and a trailing incomplete period are discarded.
func (c *CSVFeed) resample(pair, sourceTimeframe, targetTimeframe string) error {
	sourceKey := c.feedTimeframeKey(pair, sourceTimeframe)
	targetKey := c.feedTimeframeKey(pair, targetTimeframe)
	source := c.CandlePairTimeFrame[sourceKey]

	var i int
	for ; i < len(source); i++ {
		if ok, err := isFistCandlePeriod(source[i].Time, sourceTimeframe, targetTimeframe); err != nil {
			return err
		} else if ok {
			break
		}
	}

	candles := make([]model.Candle, 0)
	for ; i < len(source); i++ {
		candle := source[i]
		last, err := isLastCandlePeriod(candle.Time, sourceTimeframe, targetTimeframe)
		if err != nil {
			return err
		}
		candle.Complete = last

		lastIndex := len(candles) - 1
		if lastIndex >= 0 && !candles[lastIndex].Complete {
			candle.Time = candles[lastIndex].Time
			candle.Open = candles[lastIndex].Open
			candle.High = math.Max(candles[lastIndex].High, candle.High)
			candle.Low = math.Min(candles[lastIndex].Low, candle.Low)
			candle.Volume += candles[lastIndex].Volume
			candles[lastIndex] = candle
			continue
		}
		candles = append(candles, candle)
	}

	if len(candles) > 0 && !candles[len(candles)-1].Complete {
		candles = candles[:len(candles)-1]
	}

	c.CandlePairTimeFrame[targetKey] = candles
	return nil
}

func (c CSVFeed) CandlesByPeriod(_ context.Context, pair, timeframe string,
	start, end time.Time) ([]model.Candle, error) {
	key := c.feedTimeframeKey(pair, timeframe)
	candles := make([]model.Candle, 0)
	for _, candle := range c.CandlePairTimeFrame[key] {
		if candle.Time.Before(start) || candle.Time.After(end) {
			continue
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// CandlesByLimit hands out the oldest limit candles and removes them from the feed, so a
// later subscription continues where the preload stopped.
func (c *CSVFeed) CandlesByLimit(_ context.Context, pair, timeframe string, limit int) ([]model.Candle, error) {
	var result []model.Candle
	key := c.feedTimeframeKey(pair, timeframe)
	if len(c.CandlePairTimeFrame[key]) < limit {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientData, pair)
	}
	result, c.CandlePairTimeFrame[key] = c.CandlePairTimeFrame[key][:limit], c.CandlePairTimeFrame[key][limit:]
	return result, nil
}

// CandlesSubscription replays the loaded candles and closes both channels at the end.
func (c CSVFeed) CandlesSubscription(ctx context.Context, pair, timeframe string) (chan model.Candle, chan error) {
	ccandle := make(chan model.Candle)
	cerr := make(chan error)

	key := c.feedTimeframeKey(pair, timeframe)
	candles := c.CandlePairTimeFrame[key]

	go func() {
		defer close(ccandle)
		defer close(cerr)
		for _, candle := range candles {
			select {
			case ccandle <- candle:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ccandle, cerr
}
