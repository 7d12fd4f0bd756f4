package strategies

import (
	"fmt"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/resolution"
	"github.com/jibbril/setupbot/strategy"
)

// RSIBasic goes long when the RSI climbs back above the oversold level and short when it
// falls back below the overbought level.
type RSIBasic struct {
	Length     int
	Oversold   float64
	Overbought float64
	Rule       resolution.Strategy
}

func NewRSIBasic(rule resolution.Strategy) *RSIBasic {
	if rule == nil {
		rule = defaultResolution()
	}
	return &RSIBasic{Length: 14, Oversold: 30, Overbought: 70, Rule: rule}
}

func (r *RSIBasic) Name() string {
	return fmt.Sprintf("rsi-basic(%d,%g,%g)", r.Length, r.Oversold, r.Overbought)
}

func (r *RSIBasic) MinLength() int {
	return r.Length + 2
}

func (r *RSIBasic) Indicators() []indicator.Config {
	return []indicator.Config{indicator.RSI(r.Length)}
}

func (r *RSIBasic) Resolution() resolution.Strategy {
	return r.Rule
}

func (r *RSIBasic) Signal(ts *model.TimeSeries, index int) (model.Orientation, bool, error) {
	rsi, ok, err := lastValues(ts, indicator.RSI(r.Length), index, 2)
	if err != nil || !ok {
		return "", false, err
	}

	switch {
	case rsi.CrossoverValue(r.Oversold):
		return model.OrientationLong, true, nil
	case rsi.CrossunderValue(r.Overbought):
		return model.OrientationShort, true, nil
	}
	return "", false, nil
}

func (r *RSIBasic) Clone() strategy.Strategy {
	clone := *r
	clone.Rule = cloneRule(r.Rule)
	return &clone
}
