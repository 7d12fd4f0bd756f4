package strategies

import (
	"fmt"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/resolution"
	"github.com/jibbril/setupbot/strategy"
)

// SilverCross trades the cross of a fast and a slow exponential moving average.
type SilverCross struct {
	Fast int
	Slow int
	Rule resolution.Strategy
}

func NewSilverCross(rule resolution.Strategy) *SilverCross {
	if rule == nil {
		rule = defaultResolution()
	}
	return &SilverCross{Fast: 21, Slow: 55, Rule: rule}
}

func (s *SilverCross) Name() string {
	return fmt.Sprintf("silver-cross(%d,%d)", s.Fast, s.Slow)
}

func (s *SilverCross) MinLength() int {
	return max(s.Fast, s.Slow) + 1
}

func (s *SilverCross) Indicators() []indicator.Config {
	return []indicator.Config{indicator.EMA(s.Fast), indicator.EMA(s.Slow)}
}

func (s *SilverCross) Resolution() resolution.Strategy {
	return s.Rule
}

func (s *SilverCross) Signal(ts *model.TimeSeries, index int) (model.Orientation, bool, error) {
	fast, ok, err := lastValues(ts, indicator.EMA(s.Fast), index, 2)
	if err != nil || !ok {
		return "", false, err
	}
	slow, ok, err := lastValues(ts, indicator.EMA(s.Slow), index, 2)
	if err != nil || !ok {
		return "", false, err
	}

	switch {
	case fast.Crossover(slow):
		return model.OrientationLong, true, nil
	case fast.Crossunder(slow):
		return model.OrientationShort, true, nil
	}
	return "", false, nil
}

func (s *SilverCross) Clone() strategy.Strategy {
	clone := *s
	clone.Rule = cloneRule(s.Rule)
	return &clone
}
