package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/resolution"
	"github.com/jibbril/setupbot/setup"
	"github.com/jibbril/setupbot/strategy"
)

var start = time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

func newSeries(t *testing.T, closes ...float64) *model.TimeSeries {
	t.Helper()
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			Pair:     "SOLUSDT",
			Time:     start.Add(time.Duration(i) * 15 * time.Minute),
			Open:     c,
			High:     c + 0.5,
			Low:      c - 0.5,
			Close:    c,
			Volume:   100,
			Complete: true,
		}
	}
	ts, err := model.NewTimeSeries("SOLUSDT", "15m", candles...)
	require.NoError(t, err)
	return ts
}

func run(t *testing.T, ts *model.TimeSeries, s strategy.Strategy) []setup.Setup {
	t.Helper()
	configs, err := strategy.Requirements(s)
	require.NoError(t, err)
	require.NoError(t, indicator.Populate(ts, configs...))

	setups, err := strategy.FindSetups(ts, s)
	require.NoError(t, err)
	return setups
}

func TestRSIBasic(t *testing.T) {
	s := &RSIBasic{Length: 3, Oversold: 30, Overbought: 70, Rule: resolution.NewPercentageDrawdown(1, 2)}
	ts := newSeries(t, 10, 9, 8, 7, 6, 7, 8, 9, 10, 11, 12, 13, 9)

	setups := run(t, ts, s)
	require.Len(t, setups, 2)

	assert.Equal(t, 5, setups[0].Index)
	assert.Equal(t, model.OrientationLong, setups[0].Orientation)
	assert.Equal(t, 12, setups[1].Index)
	assert.Equal(t, model.OrientationShort, setups[1].Orientation)
}

func TestRSIBasic_Defaults(t *testing.T) {
	s := NewRSIBasic(nil)
	assert.Equal(t, "rsi-basic(14,30,70)", s.Name())
	assert.Equal(t, 16, s.MinLength())

	configs, err := strategy.Requirements(s)
	require.NoError(t, err)
	assert.Equal(t, []indicator.Config{indicator.RSI(14), indicator.ATR(14)}, configs)
}

func TestSilverCross(t *testing.T) {
	s := &SilverCross{Fast: 2, Slow: 4, Rule: resolution.NewPercentageDrawdown(5, 5)}
	ts := newSeries(t, 10, 10, 10, 10, 10, 10, 20, 20, 1, 1)

	setups := run(t, ts, s)
	require.Len(t, setups, 2)

	assert.Equal(t, 6, setups[0].Index)
	assert.Equal(t, model.OrientationLong, setups[0].Orientation)
	assert.Equal(t, 8, setups[1].Index)
	assert.Equal(t, model.OrientationShort, setups[1].Orientation)
}

func TestSilverCross_ShortHistory(t *testing.T) {
	s := NewSilverCross(nil)
	ts := newSeries(t, 1, 2, 3, 4, 5, 6, 7, 8)

	setups := run(t, ts, s)
	assert.Empty(t, setups)
}

func withPercentile(t *testing.T, config indicator.Config, values ...float64) *model.TimeSeries {
	t.Helper()
	key, err := config.Type()
	require.NoError(t, err)

	closes := make([]float64, len(values))
	for i := range closes {
		closes[i] = 50
	}
	ts := newSeries(t, closes...)
	for i, value := range values {
		ts.Candles[i].Indicators = map[model.IndicatorType]model.Indicator{
			key: {Type: key, Value: model.PMARP{Value: value}},
		}
	}
	return ts
}

func TestPercentileReversal(t *testing.T) {
	config := indicator.PMARP(5, 10, model.MovingAverageSimple)
	s := &PercentileReversal{Indicator: config, Low: 0.05, High: 0.95, Rule: resolution.NewPercentageDrawdown(1, 1)}
	ts := withPercentile(t, config, 0.5, 0.03, 0.05, 0.2, 0.96, 0.99, 0.7, 0.5)

	for i, expected := range []struct {
		fires       bool
		orientation model.Orientation
	}{
		{}, {}, {}, {true, model.OrientationLong}, {}, {}, {true, model.OrientationShort}, {},
	} {
		orientation, ok, err := s.Signal(ts, i)
		require.NoError(t, err)
		assert.Equal(t, expected.fires, ok, "candle %d", i)
		if expected.fires {
			assert.Equal(t, expected.orientation, orientation, "candle %d", i)
		}
	}
}

func TestPercentileReversal_Requirements(t *testing.T) {
	config := indicator.PMARP(20, 100, model.MovingAverageExponential)
	s := NewPercentileReversal(config, nil)
	assert.Equal(t, 121, s.MinLength())

	configs, err := strategy.Requirements(s)
	require.NoError(t, err)
	assert.Equal(t, []indicator.Config{
		indicator.EMA(20),
		indicator.PMAR(20, model.MovingAverageExponential),
		config,
	}, configs)
}

func TestPercentileReversal_RejectsOtherIndicators(t *testing.T) {
	s := NewPercentileReversal(indicator.RSI(14), nil)
	ts := newSeries(t, 1, 2, 3)

	_, _, err := s.Signal(ts, 2)
	require.Error(t, err)
}

func TestClone(t *testing.T) {
	for _, s := range []strategy.Strategy{
		NewRSIBasic(resolution.NewFixed(1, 2)),
		NewSilverCross(nil),
		NewPercentileReversal(indicator.BBWP(13, 252, 5), nil),
	} {
		clone := s.Clone()
		assert.Equal(t, s.Name(), clone.Name())
		assert.NotSame(t, s.Resolution(), clone.Resolution(), s.Name())
	}
}
