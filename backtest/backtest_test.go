package backtest

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/resolution"
	"github.com/jibbril/setupbot/strategies"
	"github.com/jibbril/setupbot/strategy"
)

var start = time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)

// scripted fires at fixed candle indices.
type scripted struct {
	fire map[int]model.Orientation
	rule resolution.Strategy
}

func (s *scripted) Name() string                    { return "scripted" }
func (s *scripted) MinLength() int                  { return 1 }
func (s *scripted) Indicators() []indicator.Config  { return nil }
func (s *scripted) Resolution() resolution.Strategy { return s.rule }

func (s *scripted) Signal(_ *model.TimeSeries, index int) (model.Orientation, bool, error) {
	o, ok := s.fire[index]
	return o, ok, nil
}

func (s *scripted) Clone() strategy.Strategy {
	return &scripted{fire: s.fire, rule: s.rule.Clone()}
}

func newSeries(t *testing.T, closes ...float64) *model.TimeSeries {
	t.Helper()
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			Pair:     "BTCUSDT",
			Time:     start.Add(time.Duration(i) * time.Hour),
			Open:     c,
			High:     c * 1.01,
			Low:      c * 0.99,
			Close:    c,
			Volume:   1 + float64(i%5),
			Complete: true,
		}
	}
	ts, err := model.NewTimeSeries("BTCUSDT", "1h", candles...)
	require.NoError(t, err)
	return ts
}

func randomWalk(t *testing.T, n int, seed int64) *model.TimeSeries {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	closes := make([]float64, n)
	price := 100.0
	for i := range closes {
		price *= 1 + (r.Float64()-0.5)*0.04
		closes[i] = price
	}
	return newSeries(t, closes...)
}

func TestSimulator_Run(t *testing.T) {
	ts := newSeries(t, 100, 100, 100, 105, 111, 100, 95, 89, 100, 100)
	s := &scripted{
		fire: map[int]model.Orientation{
			2: model.OrientationLong,  // take profit at index 4
			3: model.OrientationLong,  // suppressed, still open
			5: model.OrientationShort, // take profit at index 7
			8: model.OrientationLong,  // never resolves
		},
		rule: resolution.NewPercentageDrawdown(10, 10),
	}

	result, err := NewSimulator(WithBalance(1000, 0.5)).Run(ts, s)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Found)
	assert.Equal(t, 1, result.Suppressed)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, 2, result.Setups)
	assert.Equal(t, 2, result.Wins)
	assert.Equal(t, 0, result.Losses)
	assert.Equal(t, 1.0, result.Accuracy)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, 2, result.Outcomes[0].Bars)
	assert.Equal(t, 4, result.Outcomes[0].ExitIndex)
	assert.InDelta(t, 11, result.Outcomes[0].Return, 1e-9)
	assert.Equal(t, 2, result.Outcomes[1].Bars)
	assert.InDelta(t, 11, result.Outcomes[1].Return, 1e-9)

	assert.InDelta(t, 11, result.AverageWin, 1e-9)
	assert.InDelta(t, 2, result.AverageWinBars, 1e-9)
	assert.InDelta(t, 0, result.WinStdDev, 1e-9)
	assert.InDelta(t, 1000*1.055*1.055, result.Balance, 1e-9)
	assert.Len(t, result.Curve, 2)
}

func TestSimulator_FixedRuleOutsideBand(t *testing.T) {
	ts := newSeries(t, 100, 100, 100, 105, 111, 100, 95, 89, 100, 100)
	s := &scripted{
		fire: map[int]model.Orientation{
			0: model.OrientationLong, // take profit at index 4
			4: model.OrientationLong, // entry above the band, but suppressed first
			7: model.OrientationLong, // entry below the band
		},
		rule: resolution.NewFixed(90, 110),
	}

	result, err := NewSimulator().Run(ts, s)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Found)
	assert.Equal(t, 1, result.Suppressed)
	assert.Equal(t, 1, result.Dropped)
	require.Equal(t, 1, result.Setups)
	assert.Equal(t, 1, result.Wins)
	assert.Equal(t, 4, result.Outcomes[0].ExitIndex)
	assert.InDelta(t, 11, result.Outcomes[0].Return, 1e-9)
}

func TestSimulator_StopLossFirst(t *testing.T) {
	config := indicator.PMARP(3, 5, model.MovingAverageSimple)
	key, err := config.Type()
	require.NoError(t, err)

	// the percentile crosses the take level on the same bar price falls through the stop
	ts := newSeries(t, 100, 100, 97)
	for i, value := range []float64{0.2, 0.5, 0.95} {
		ts.Candles[i].Indicators[key] = model.Indicator{Type: key, Value: model.PMARP{Value: value}}
	}
	rule := resolution.NewComposite(
		resolution.NewPercentileThreshold(config, 0.1, 0.9),
		resolution.NewPercentageDrawdown(2, 50),
	)
	s := &scripted{fire: map[int]model.Orientation{1: model.OrientationLong}, rule: rule}

	result, err := NewSimulator().run(context.Background(), ts, s, false)
	require.NoError(t, err)
	require.Equal(t, 1, result.Setups)
	assert.Equal(t, 1, result.Losses)
	assert.False(t, result.Outcomes[0].Win)
	assert.InDelta(t, -3, result.Outcomes[0].Return, 1e-9)
}

func TestSimulator_MaxBars(t *testing.T) {
	ts := newSeries(t, 100, 100, 100, 100, 100, 120)
	s := &scripted{fire: map[int]model.Orientation{0: model.OrientationLong}, rule: resolution.NewPercentageDrawdown(5, 5)}

	result, err := NewSimulator(WithMaxBars(4)).Run(ts, s)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, 0, result.Setups)

	result, err = NewSimulator(WithMaxBars(5)).Run(ts, s)
	require.NoError(t, err)
	require.Equal(t, 1, result.Setups)
	assert.Equal(t, 5, result.Outcomes[0].Bars)
}

func TestSimulator_Accounting(t *testing.T) {
	ts := randomWalk(t, 1500, 7)
	simulator := NewSimulator(WithMaxBars(50))

	for _, s := range []strategy.Strategy{
		strategies.NewRSIBasic(resolution.NewPercentageDrawdown(1, 1.5)),
		strategies.NewSilverCross(nil),
		strategies.NewPercentileReversal(indicator.PMARP(20, 100, model.MovingAverageExponential), nil),
	} {
		result, err := simulator.Run(ts, s)
		require.NoError(t, err, s.Name())

		assert.Equal(t, result.Setups, result.Wins+result.Losses, s.Name())
		assert.Equal(t, result.Found, result.Setups+result.Dropped+result.Suppressed, s.Name())
		assert.Len(t, result.Curve, result.Setups)

		previousExit := -1
		for _, outcome := range result.Outcomes {
			assert.GreaterOrEqual(t, outcome.Bars, 1)
			assert.LessOrEqual(t, outcome.Bars, 50)
			assert.Greater(t, outcome.Setup.Index, previousExit, "overlapping setups are suppressed")
			assert.Equal(t, outcome.Setup.Index+outcome.Bars, outcome.ExitIndex)
			previousExit = outcome.ExitIndex
		}
	}
}

func TestSimulator_RunAll(t *testing.T) {
	ts := randomWalk(t, 800, 11)
	list := []strategy.Strategy{
		strategies.NewRSIBasic(nil),
		strategies.NewSilverCross(nil),
	}

	var progress bytes.Buffer
	results, err := NewSimulator(WithProgress(&progress)).RunAll(context.Background(), ts, list...)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, s := range list {
		expected, err := NewSimulator().Run(ts.Clone(), s)
		require.NoError(t, err)
		assert.Equal(t, s.Name(), results[i].Strategy)
		assert.Equal(t, expected.Setups, results[i].Setups)
		assert.Equal(t, expected.Returns(), results[i].Returns())
	}
}

func TestSimulator_RunAllCancelled(t *testing.T) {
	ts := randomWalk(t, 800, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimulator().RunAll(ctx, ts, strategies.NewRSIBasic(resolution.NewPercentageDrawdown(0.5, 0.5)))
	require.ErrorIs(t, err, context.Canceled)
}

func TestAccumulator(t *testing.T) {
	accumulator := NewAccumulator("s", "ETHUSDT", "4h", 100, 1)
	accumulator.Add(Outcome{Win: true, Return: 10, Bars: 2})
	accumulator.Add(Outcome{Win: true, Return: 20, Bars: 4})
	accumulator.Add(Outcome{Win: false, Return: -5, Bars: 1})
	accumulator.Drop()

	result := accumulator.Result()
	assert.Equal(t, 3, result.Setups)
	assert.Equal(t, 1, result.Dropped)
	assert.InDelta(t, 2.0/3, result.Accuracy, 1e-9)
	assert.InDelta(t, 15, result.AverageWin, 1e-9)
	assert.InDelta(t, math.Sqrt(50), result.WinStdDev, 1e-9)
	assert.InDelta(t, -5, result.AverageLoss, 1e-9)
	assert.InDelta(t, 3, result.AverageWinBars, 1e-9)
	assert.InDelta(t, 100*1.1*1.2*0.95, result.Balance, 1e-9)
	assert.InDelta(t, 25.4, result.Profit(), 1e-9)
	assert.Equal(t, []float64{10, 20, -5}, result.Returns())
}

func TestSummary(t *testing.T) {
	accumulator := NewAccumulator("rsi", "BTCUSDT", "1h", 1000, 1)
	for i, value := range []float64{2, -1, 3, -1.5, 2.5} {
		accumulator.Add(Outcome{Win: value > 0, Return: value, Bars: i + 1})
	}
	result := accumulator.Result()

	var buffer bytes.Buffer
	Summary(&buffer, result, NewAccumulator("empty", "BTCUSDT", "1h", 1000, 1).Result())
	output := buffer.String()
	assert.True(t, strings.Contains(output, "RETURN"))
	assert.True(t, strings.Contains(output, "CONFIDENCE INTERVAL"))
	assert.True(t, strings.Contains(output, "rsi"))
	assert.True(t, strings.Contains(result.String(), "Setups"))

	filename := filepath.Join(t.TempDir(), "returns.csv")
	require.NoError(t, result.SaveReturns(filename))
	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "2.0000\n-1.0000\n3.0000\n-1.5000\n2.5000\n", string(content))
}
