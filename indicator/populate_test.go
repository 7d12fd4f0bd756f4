package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jibbril/setupbot/model"
)

var allConfigs = []Config{
	SMA(7),
	EMA(9),
	RSI(14),
	ATR(14),
	BollingerBands(20, 2),
	BBW(20, 2),
	BBWP(13, 50, 5),
	PMAR(20, model.MovingAverageSimple),
	PMAR(20, model.MovingAverageVolumeWeighted),
	PMAR(21, model.MovingAverageExponential),
	PMARP(20, 40, model.MovingAverageSimple),
	PMARP(21, 40, model.MovingAverageExponential),
	DynamicPivot(3),
	Stochastic(14, 3, 3),
}

// Populating a whole series at once and growing it one candle at a time must produce
// the same entries on every candle.
func TestPopulate_BatchIncrementalEquivalence(t *testing.T) {
	candles := randomCandles(400, 42)
	configs, err := Expand(allConfigs...)
	require.NoError(t, err)

	batch := newSeries(t, candles)
	require.NoError(t, Populate(batch, configs...))

	for _, warmup := range []int{0, 1, 60, 250} {
		incremental := newSeries(t, candles[:warmup])
		require.NoError(t, Populate(incremental, configs...))
		for _, candle := range candles[warmup:] {
			require.NoError(t, incremental.AddCandles(candle))
			require.NoError(t, PopulateLatest(incremental, configs...))
		}

		require.Equal(t, batch.Len(), incremental.Len())
		for _, c := range configs {
			indicatorType := typeOf(t, c)
			for i := range candles {
				expected, ok := batch.Candles[i].Indicator(indicatorType)
				require.True(t, ok)
				actual, ok := incremental.Candles[i].Indicator(indicatorType)
				require.True(t, ok, "%s missing at %d (warmup %d)", indicatorType, i, warmup)
				assert.Equal(t, expected, actual, "%s at %d (warmup %d)", indicatorType, i, warmup)
			}
		}
	}
}

// Rolling updates must stay within floating point noise of a fresh computation over
// the same window.
func TestRolling_MatchesCalculate(t *testing.T) {
	ts := newSeries(t, randomCandles(300, 13))
	configs := []Config{SMA(10), BollingerBands(20, 2), PMAR(20, model.MovingAverageSimple), PMAR(20, model.MovingAverageVolumeWeighted)}
	require.NoError(t, Populate(ts, configs...))

	for _, c := range configs {
		def, err := New(c.Kind, c.Args)
		require.NoError(t, err)
		for end := def.Window() - 1; end < ts.Len(); end++ {
			expected, err := def.Calculate(ts.Window(end, def.Window()))
			require.NoError(t, err)
			actual := ts.Candles[end].Indicators[def.Type()].Value
			require.NotNil(t, actual)
			assert.InDelta(t, expected.Scalar(), actual.Scalar(), 1e-9, "%s at %d", def.Type(), end)
		}
	}
}

func TestPopulateLast_ColdStart(t *testing.T) {
	ts := newSeries(t, randomCandles(30, 2))
	require.NoError(t, PopulateLast(ts, newSMA(5)))

	smaType := typeOf(t, SMA(5))
	_, attempted := ts.Candles[28].Indicator(smaType)
	assert.False(t, attempted)

	value, ok := model.ValueAs[model.SMA](ts.Candles[29], smaType)
	require.True(t, ok)
	assert.InDelta(t, mean(ts.Closes().LastValues(5)), value.Value, 1e-12)
	assert.Equal(t, 0, ts.Candles[29].Indicators[smaType].Rolls)
}

func TestPopulate_MaxLength(t *testing.T) {
	candles := randomCandles(60, 4)
	ts := newSeries(t, candles[:20])
	ts.MaxLength = 25
	require.NoError(t, Populate(ts, SMA(5), RSI(5)))

	for _, candle := range candles[20:] {
		require.NoError(t, ts.AddCandles(candle))
		require.NoError(t, PopulateLatest(ts, SMA(5), RSI(5)))
	}

	require.Equal(t, 25, ts.Len())
	reference := newSeries(t, candles)
	require.NoError(t, Populate(reference, SMA(5), RSI(5)))

	for i, candle := range ts.Candles {
		expected := reference.Candles[35+i]
		require.Equal(t, expected.Time, candle.Time)
		assert.Equal(t, expected.Indicators, candle.Indicators)
	}
}
