package indicator

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jibbril/setupbot/model"
)

var testStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// randomCandles is a deterministic random walk.
func randomCandles(n int, seed int64) []model.Candle {
	rng := rand.New(rand.NewSource(seed))
	candles := make([]model.Candle, n)
	price := 100.0
	for i := range candles {
		open := price
		price = math.Max(1, price+rng.NormFloat64()*2)
		candles[i] = model.Candle{
			Pair:     "BTCUSDT",
			Time:     testStart.Add(time.Duration(i) * time.Hour),
			Open:     open,
			Close:    price,
			High:     math.Max(open, price) + rng.Float64(),
			Low:      math.Min(open, price) - rng.Float64(),
			Volume:   1 + rng.Float64()*100,
			Complete: true,
		}
	}
	return candles
}

// flatCandles builds candles whose open, high, low and close are all the given value.
func flatCandles(values ...float64) []model.Candle {
	candles := make([]model.Candle, len(values))
	for i, value := range values {
		candles[i] = model.Candle{
			Pair:     "BTCUSDT",
			Time:     testStart.Add(time.Duration(i) * time.Hour),
			Open:     value,
			High:     value,
			Low:      value,
			Close:    value,
			Volume:   1,
			Complete: true,
		}
	}
	return candles
}

func newSeries(t *testing.T, candles []model.Candle) *model.TimeSeries {
	t.Helper()
	ts, err := model.NewTimeSeries("BTCUSDT", "1h", candles...)
	require.NoError(t, err)
	return ts
}

func typeOf(t *testing.T, c Config) model.IndicatorType {
	t.Helper()
	indicatorType, err := c.Type()
	require.NoError(t, err)
	return indicatorType
}

func field(ts *model.TimeSeries, f func(model.Candle) float64) []float64 {
	values := make([]float64, ts.Len())
	for i, candle := range ts.Candles {
		values[i] = f(candle)
	}
	return values
}
