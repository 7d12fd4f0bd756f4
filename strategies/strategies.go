// Package strategies holds the setup detectors shipped with the bot.
package strategies

import (
	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/resolution"
)

// defaultResolution is used by strategies built without a rule.
func defaultResolution() resolution.Strategy {
	return resolution.NewATRMultiple(14, 1.5, 3)
}

// lastValues reads the scalar of config on the n candles ending at index, oldest first.
// ok is false while any of them is not computable.
func lastValues(ts *model.TimeSeries, config indicator.Config, index, n int) (model.Series[float64], bool, error) {
	key, err := config.Type()
	if err != nil {
		return nil, false, err
	}

	window := ts.Window(index, n)
	if window == nil {
		return nil, false, nil
	}

	values := make(model.Series[float64], n)
	for i, candle := range window {
		value, ok := candle.Indicators[key].Scalar()
		if !ok {
			return nil, false, nil
		}
		values[i] = value
	}
	return values, true, nil
}

func cloneRule(rule resolution.Strategy) resolution.Strategy {
	if rule == nil {
		return nil
	}
	return rule.Clone()
}
