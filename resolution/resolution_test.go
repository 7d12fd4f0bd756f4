package resolution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
)

func candle(close float64) model.Candle {
	return model.Candle{Time: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Open: close, High: close, Low: close, Close: close}
}

func window(closes ...float64) []model.Candle {
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = candle(c)
	}
	return candles
}

func TestFixed(t *testing.T) {
	t.Run("long", func(t *testing.T) {
		rule := NewFixed(90, 120)
		require.NoError(t, rule.Initialize(candle(100), model.OrientationLong))
		assert.Equal(t, Levels{StopLoss: 90, TakeProfit: 120, HasStopLoss: true, HasTakeProfit: true}, rule.Levels())

		hit, err := rule.StopLossReached(model.OrientationLong, window(95))
		require.NoError(t, err)
		assert.False(t, hit)

		hit, err = rule.StopLossReached(model.OrientationLong, window(90))
		require.NoError(t, err)
		assert.True(t, hit)

		hit, err = rule.TakeProfitReached(model.OrientationLong, window(121))
		require.NoError(t, err)
		assert.True(t, hit)
	})

	t.Run("short", func(t *testing.T) {
		rule := NewFixed(110, 80)
		require.NoError(t, rule.Initialize(candle(100), model.OrientationShort))

		hit, err := rule.StopLossReached(model.OrientationShort, window(111))
		require.NoError(t, err)
		assert.True(t, hit)

		hit, err = rule.TakeProfitReached(model.OrientationShort, window(85))
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("levels on the wrong side", func(t *testing.T) {
		err := NewFixed(110, 120).Initialize(candle(100), model.OrientationLong)
		require.ErrorIs(t, err, ErrInvalidRule)
	})
}

func TestInitializeOnce(t *testing.T) {
	rules := []Strategy{
		NewFixed(90, 120),
		NewPercentageDrawdown(5, 10),
		NewPercentileThreshold(indicator.PMARP(20, 100, model.MovingAverageSimple), 0.1, 0.9),
		NewComposite(NewPercentageDrawdown(5, 10), NewFixed(90, 120)),
	}

	for _, rule := range rules {
		t.Run(rule.String(), func(t *testing.T) {
			_, err := rule.StopLossReached(model.OrientationLong, window(100, 100))
			require.ErrorIs(t, err, ErrNotInitialized)
			_, err = rule.TakeProfitReached(model.OrientationLong, window(100, 100))
			require.ErrorIs(t, err, ErrNotInitialized)

			require.NoError(t, rule.Initialize(candle(100), model.OrientationLong))
			require.ErrorIs(t, rule.Initialize(candle(100), model.OrientationLong), ErrAlreadyInitialized)
		})
	}
}

func TestPercentageDrawdown(t *testing.T) {
	rule := NewPercentageDrawdown(5, 10)
	require.NoError(t, rule.Initialize(candle(200), model.OrientationShort))

	levels := rule.Levels()
	assert.InDelta(t, 210.0, levels.StopLoss, 1e-9)
	assert.InDelta(t, 180.0, levels.TakeProfit, 1e-9)

	hit, err := rule.TakeProfitReached(model.OrientationShort, window(179))
	require.NoError(t, err)
	assert.True(t, hit)

	require.ErrorIs(t, NewPercentageDrawdown(0, 10).Initialize(candle(1), model.OrientationLong), ErrInvalidRule)
}

func TestATRMultiple(t *testing.T) {
	atrType, err := indicator.ATR(14).Type()
	require.NoError(t, err)

	entry := candle(100)
	entry.Indicators = map[model.IndicatorType]model.Indicator{
		atrType: {Type: atrType, Value: model.ATR{Value: 2}},
	}

	rule := NewATRMultiple(14, 1.5, 3)
	require.NoError(t, rule.Initialize(entry, model.OrientationLong))
	assert.Equal(t, Levels{StopLoss: 97, TakeProfit: 106, HasStopLoss: true, HasTakeProfit: true}, rule.Levels())
	assert.Equal(t, []indicator.Config{indicator.ATR(14)}, rule.Dependencies())

	hit, err := rule.StopLossReached(model.OrientationLong, window(96.5))
	require.NoError(t, err)
	assert.True(t, hit)

	notReady := candle(100)
	notReady.Indicators = map[model.IndicatorType]model.Indicator{atrType: {Type: atrType}}
	require.ErrorIs(t, NewATRMultiple(14, 1, 1).Initialize(notReady, model.OrientationLong), ErrIndicatorNotReady)
}

func TestPercentileThreshold(t *testing.T) {
	config := indicator.BBWP(13, 252, 5)
	key, err := config.Type()
	require.NoError(t, err)

	withValues := func(values ...float64) []model.Candle {
		candles := window(make([]float64, len(values))...)
		for i, value := range values {
			candles[i].Indicators = map[model.IndicatorType]model.Indicator{
				key: {Type: key, Value: model.BBWP{Value: value}},
			}
		}
		return candles
	}

	rule := NewPercentileThreshold(config, 0.2, 0.8)
	require.NoError(t, rule.Initialize(candle(100), model.OrientationLong))
	assert.Equal(t, Levels{}, rule.Levels())

	hit, err := rule.TakeProfitReached(model.OrientationLong, withValues(0.7, 0.85))
	require.NoError(t, err)
	assert.True(t, hit)

	hit, err = rule.TakeProfitReached(model.OrientationLong, withValues(0.85, 0.9))
	require.NoError(t, err)
	assert.False(t, hit, "already above the threshold is not a crossing")

	hit, err = rule.StopLossReached(model.OrientationLong, withValues(0.3, 0.2))
	require.NoError(t, err)
	assert.True(t, hit)

	hit, err = rule.StopLossReached(model.OrientationShort, withValues(0.7, 0.85))
	require.NoError(t, err)
	assert.True(t, hit)

	notReady := withValues(0.7, 0.85)
	notReady[0].Indicators[key] = model.Indicator{Type: key}
	hit, err = rule.TakeProfitReached(model.OrientationLong, notReady)
	require.NoError(t, err)
	assert.False(t, hit)

	_, err = rule.TakeProfitReached(model.OrientationLong, window(1, 2))
	require.ErrorIs(t, err, indicator.ErrMissingDependency)

	_, err = rule.TakeProfitReached(model.OrientationLong, withValues(0.5))
	require.ErrorIs(t, err, ErrShortWindow)

	invalid := NewPercentileThreshold(indicator.RSI(14), 0.2, 0.8)
	require.ErrorIs(t, invalid.Initialize(candle(100), model.OrientationLong), ErrInvalidRule)
}

func TestComposite(t *testing.T) {
	rule := NewComposite(NewPercentageDrawdown(10, 10), NewFixed(95, 130))
	require.NoError(t, rule.Initialize(candle(100), model.OrientationLong))
	assert.Equal(t, 1, rule.StopLossCandles())

	hit, err := rule.StopLossReached(model.OrientationLong, window(94))
	require.NoError(t, err)
	assert.True(t, hit, "second rule fires first")

	hit, err = rule.TakeProfitReached(model.OrientationLong, window(111))
	require.NoError(t, err)
	assert.True(t, hit, "first rule fires first")

	levels := rule.Levels()
	assert.InDelta(t, 90.0, levels.StopLoss, 1e-9)
}

func TestClone(t *testing.T) {
	template := NewComposite(NewPercentageDrawdown(10, 10), NewATRMultiple(14, 1, 2))
	clone := template.Clone()

	require.NoError(t, clone.(*Composite).First.Initialize(candle(100), model.OrientationLong))
	_, err := template.First.StopLossReached(model.OrientationLong, window(100))
	require.ErrorIs(t, err, ErrNotInitialized, "the template must stay untouched")
	assert.Len(t, clone.Dependencies(), 1)
}

func TestReturn(t *testing.T) {
	assert.InDelta(t, 10.0, Return(model.OrientationLong, 100, 110), 1e-9)
	assert.InDelta(t, -10.0, Return(model.OrientationShort, 100, 110), 1e-9)
	assert.Equal(t, 0.0, Return(model.OrientationLong, 0, 110))
}
