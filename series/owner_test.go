package series

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/tools/metrics"
)

var start = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func candles(from int, closes ...float64) []model.Candle {
	result := make([]model.Candle, len(closes))
	for i, c := range closes {
		result[i] = model.Candle{
			Pair:     "BTCUSDT",
			Time:     start.Add(time.Duration(from+i) * time.Hour),
			Open:     c,
			High:     c + 1,
			Low:      c - 1,
			Close:    c,
			Volume:   10,
			Complete: true,
		}
	}
	return result
}

func startOwner(t *testing.T, options ...Option) (*Owner, context.CancelFunc) {
	t.Helper()
	ts, err := model.NewTimeSeries("BTCUSDT", "1h", candles(0, 10, 11, 12, 13, 14)...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	owner := NewOwner(ts, options...)
	require.NoError(t, owner.Start(ctx))
	return owner, cancel
}

func TestOwner_AppendUpdatesTrackedIndicators(t *testing.T) {
	collector := metrics.NewCollector()
	owner, cancel := startOwner(t, WithIndicators(indicator.SMA(3)), WithMetrics(collector))
	defer cancel()

	ctx := context.Background()
	require.NoError(t, owner.Track(ctx, indicator.PMAR(3, model.MovingAverageExponential)))
	require.NoError(t, owner.Append(ctx, candles(5, 15, 16)...))

	snapshot, err := owner.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, snapshot.Len())

	smaType, err := indicator.SMA(3).Type()
	require.NoError(t, err)
	emaType, err := indicator.EMA(3).Type()
	require.NoError(t, err)
	pmarType, err := indicator.PMAR(3, model.MovingAverageExponential).Type()
	require.NoError(t, err)

	last, ok := snapshot.Last()
	require.True(t, ok)
	value, ok := model.ValueAs[model.SMA](last, smaType)
	require.True(t, ok)
	assert.InDelta(t, 15.0, value.Value, 1e-9)
	assert.True(t, last.Indicators[emaType].Ready(), "dependencies are tracked too")
	assert.True(t, last.Indicators[pmarType].Ready())

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.CandlesTotal.WithLabelValues("BTCUSDT", "1h")))
	assert.Equal(t, 7.0, testutil.ToFloat64(collector.SeriesLength.WithLabelValues("BTCUSDT", "1h")))
}

func TestOwner_RejectsLateBatch(t *testing.T) {
	collector := metrics.NewCollector()
	owner, cancel := startOwner(t, WithMetrics(collector))
	defer cancel()

	ctx := context.Background()
	batch := append(candles(5, 15), candles(4, 14)...)
	err := owner.Append(ctx, batch...)
	require.ErrorIs(t, err, model.ErrOutOfOrderCandle)

	snapshot, err := owner.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, snapshot.Len(), "a rejected batch leaves the series untouched")
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.LateCandles.WithLabelValues("BTCUSDT", "1h")))
}

func TestOwner_FailedBatchLeavesSeries(t *testing.T) {
	owner, cancel := startOwner(t, WithIndicators(indicator.SMA(3)))
	defer cancel()

	// EMA(3) is never populated, so the first candle of the batch fails to update
	owner.tracked = append(owner.tracked, indicator.PMAR(3, model.MovingAverageExponential))

	ctx := context.Background()
	err := owner.Append(ctx, candles(5, 15, 16)...)
	require.ErrorIs(t, err, indicator.ErrMissingDependency)

	snapshot, err := owner.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, snapshot.Len())
	last, ok := snapshot.Last()
	require.True(t, ok)
	assert.Equal(t, 14.0, last.Close)
}

func TestOwner_LastReturnsCopies(t *testing.T) {
	owner, cancel := startOwner(t, WithIndicators(indicator.SMA(2)))
	defer cancel()

	ctx := context.Background()
	last, err := owner.Last(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 2, last.Len())
	assert.Equal(t, 14.0, last.Candles[1].Close)

	smaType, err := indicator.SMA(2).Type()
	require.NoError(t, err)
	last.Candles[1].Indicators[smaType] = model.Indicator{Type: smaType}

	again, err := owner.Last(ctx, 1)
	require.NoError(t, err)
	assert.True(t, again.Candles[0].Indicators[smaType].Ready())
}

func TestOwner_ConcurrentReaders(t *testing.T) {
	owner, cancel := startOwner(t, WithIndicators(indicator.RSI(3), indicator.SMA(3)))
	defer cancel()

	rsiType, err := indicator.RSI(3).Type()
	require.NoError(t, err)
	smaType, err := indicator.SMA(3).Type()
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, owner.Append(ctx, candles(5+i, float64(20+i%7))...))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			last, err := owner.Last(ctx, 1)
			if !assert.NoError(t, err) {
				return
			}
			candle := last.Candles[0]
			_, hasRSI := candle.Indicator(rsiType)
			_, hasSMA := candle.Indicator(smaType)
			assert.Equal(t, hasRSI, hasSMA, "indicators are updated together")
		}
	}()
	wg.Wait()
}

func TestOwner_Stopped(t *testing.T) {
	owner, cancel := startOwner(t)
	cancel()
	<-owner.Done()

	err := owner.Append(context.Background(), candles(5, 15)...)
	require.ErrorIs(t, err, ErrOwnerStopped)

	ctx, cancelRequest := context.WithCancel(context.Background())
	cancelRequest()
	_, err = owner.Last(ctx, 1)
	require.Error(t, err)
}

func TestOwner_TrackMissingArgs(t *testing.T) {
	owner, cancel := startOwner(t)
	defer cancel()

	err := owner.Track(context.Background(), indicator.Config{Kind: model.KindRSI, Args: indicator.BollingerArgs{Length: 3}})
	require.ErrorIs(t, err, indicator.ErrArgsMismatch)
}
