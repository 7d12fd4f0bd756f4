package indicator

import (
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/tools/log"
)

// ReseedInterval is the number of rolling steps after which window-exact indicators are
// recomputed from their full window to shed accumulated floating point drift.
const ReseedInterval = 1000

// PopulateAll computes def for every candle of ts. A type already populated on the
// series is left untouched.
func PopulateAll(ts *model.TimeSeries, def Definition) error {
	if ts.IsPopulated(def.Type()) {
		return nil
	}

	for i := range ts.Candles {
		if err := populateAt(ts, def, i); err != nil {
			return err
		}
	}

	ts.MarkPopulated(def.Type())
	log.WithFields(log.Fields{
		"ticker":    ts.Ticker,
		"interval":  ts.Interval,
		"indicator": def.Type().String(),
		"candles":   ts.Len(),
	}).Debug("indicator populated")
	return nil
}

// PopulateLast updates def for the newest candle of ts from the result cached on the
// candle before it. Lagged definitions also settle the candles that the newest one
// confirms.
func PopulateLast(ts *model.TimeSeries, def Definition) error {
	n := ts.Len()
	if n == 0 {
		return nil
	}

	start := n - 1 - lag(def)
	if start < 0 {
		start = 0
	}
	for i := start; i < n; i++ {
		if err := populateAt(ts, def, i); err != nil {
			return err
		}
	}
	return nil
}

func lag(def Definition) int {
	if lagged, ok := def.(Lagged); ok {
		return lagged.Lag()
	}
	return 0
}

// populateAt writes the entry of def for the candle at target.
func populateAt(ts *model.TimeSeries, def Definition, target int) error {
	t := def.Type()
	end := target + lag(def)
	window := def.Window()

	candle := &ts.Candles[target]
	if candle.Indicators == nil {
		candle.Indicators = make(map[model.IndicatorType]model.Indicator)
	}

	if end >= ts.Len() || end+1 < window {
		candle.Indicators[t] = model.Indicator{Type: t}
		return nil
	}

	var (
		prev    model.Indicator
		hasPrev bool
	)
	if target > 0 {
		prev, hasPrev = ts.Candles[target-1].Indicators[t]
		hasPrev = hasPrev && prev.Ready()
	}

	rollingStart := end - def.RollingWindow() + 1
	_, exact := def.(windowExact)
	reseed := exact && prev.Rolls+1 >= ReseedInterval

	var (
		value model.IndicatorValue
		rolls int
		err   error
	)
	if hasPrev && rollingStart >= 0 && !reseed {
		value, err = def.CalculateRolling(prev, ts.Candles[rollingStart:end+1])
		rolls = prev.Rolls + 1
	} else {
		value, err = def.Calculate(ts.Candles[end-window+1 : end+1])
	}
	if err != nil {
		return &PopulateError{Type: t, Index: target, Err: err}
	}

	candle.Indicators[t] = model.Indicator{Type: t, Value: value, Rolls: rolls}
	return nil
}
