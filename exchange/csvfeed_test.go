package exchange

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// writeCSV writes hourly candles with a close of 10+i starting at start.
func writeCSV(t *testing.T, header bool, start time.Time, n int) string {
	t.Helper()
	var builder strings.Builder
	if header {
		builder.WriteString("time,open,close,low,high,volume,trades\n")
	}
	for i := 0; i < n; i++ {
		price := float64(10 + i)
		fmt.Fprintf(&builder, "%d,%g,%g,%g,%g,%d,%d\n",
			start.Add(time.Duration(i)*time.Hour).Unix(), price, price, price-1, price+1, 2, 7)
	}

	filename := filepath.Join(t.TempDir(), "BTCUSDT-1h.csv")
	require.NoError(t, os.WriteFile(filename, []byte(builder.String()), 0o600))
	return filename
}

func TestNewCSVFeed(t *testing.T) {
	for _, header := range []bool{true, false} {
		t.Run(fmt.Sprintf("header=%v", header), func(t *testing.T) {
			file := writeCSV(t, header, base, 5)
			feed, err := NewCSVFeed("1h", PairFeed{Pair: "BTCUSDT", File: file, Timeframe: "1h"})
			require.NoError(t, err)

			candles := feed.CandlePairTimeFrame["BTCUSDT--1h"]
			require.Len(t, candles, 5)
			assert.Equal(t, base, candles[0].Time)
			assert.Equal(t, 10.0, candles[0].Close)
			assert.Equal(t, 9.0, candles[0].Low)
			assert.Equal(t, 11.0, candles[0].High)
			assert.Equal(t, 2.0, candles[0].Volume)
			assert.True(t, candles[4].Complete)
		})
	}
}

func TestCSVFeed_Resample(t *testing.T) {
	// starts at 01:00 so the first 4h period is incomplete and skipped
	file := writeCSV(t, true, base.Add(time.Hour), 12)
	feed, err := NewCSVFeed("4h", PairFeed{Pair: "BTCUSDT", File: file, Timeframe: "1h"})
	require.NoError(t, err)

	candles := feed.CandlePairTimeFrame["BTCUSDT--4h"]
	require.Len(t, candles, 2)

	assert.Equal(t, base.Add(4*time.Hour), candles[0].Time)
	assert.Equal(t, 13.0, candles[0].Open)
	assert.Equal(t, 16.0, candles[0].Close)
	assert.Equal(t, 12.0, candles[0].Low)
	assert.Equal(t, 17.0, candles[0].High)
	assert.Equal(t, 8.0, candles[0].Volume)
	assert.True(t, candles[0].Complete)

	assert.Equal(t, base.Add(8*time.Hour), candles[1].Time)

	ts, err := feed.TimeSeries("BTCUSDT", "4h")
	require.NoError(t, err)
	assert.Equal(t, 2, ts.Len())
}

func TestCSVFeed_InvalidTimeframe(t *testing.T) {
	file := writeCSV(t, true, base, 3)
	_, err := NewCSVFeed("30m", PairFeed{Pair: "BTCUSDT", File: file, Timeframe: "1h"})
	require.Error(t, err)
}

func TestCSVFeed_HeikinAshi(t *testing.T) {
	file := writeCSV(t, true, base, 3)
	feed, err := NewCSVFeed("1h", PairFeed{Pair: "BTCUSDT", File: file, Timeframe: "1h", HeikinAshi: true})
	require.NoError(t, err)

	candles := feed.CandlePairTimeFrame["BTCUSDT--1h"]
	require.Len(t, candles, 3)
	assert.Equal(t, 10.0, candles[0].Open)
	assert.Equal(t, 10.0, candles[0].Close)
	assert.Equal(t, 10.0, candles[1].Open)
}

func TestCSVFeed_Candles(t *testing.T) {
	file := writeCSV(t, true, base, 6)
	feed, err := NewCSVFeed("1h", PairFeed{Pair: "BTCUSDT", File: file, Timeframe: "1h"})
	require.NoError(t, err)
	ctx := context.Background()

	period, err := feed.CandlesByPeriod(ctx, "BTCUSDT", "1h", base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Len(t, period, 3)

	preload, err := feed.CandlesByLimit(ctx, "BTCUSDT", "1h", 4)
	require.NoError(t, err)
	assert.Len(t, preload, 4)

	_, err = feed.CandlesByLimit(ctx, "BTCUSDT", "1h", 4)
	require.ErrorIs(t, err, ErrInsufficientData)

	ccandle, _ := feed.CandlesSubscription(ctx, "BTCUSDT", "1h")
	var closes []float64
	for candle := range ccandle {
		closes = append(closes, candle.Close)
	}
	assert.Equal(t, []float64{14, 15}, closes)

	feed.Limit(30 * time.Minute)
	assert.Len(t, feed.CandlePairTimeFrame["BTCUSDT--1h"], 1)
}
