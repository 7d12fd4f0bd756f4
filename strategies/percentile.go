package strategies

import (
	"fmt"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/resolution"
	"github.com/jibbril/setupbot/strategy"
)

// PercentileReversal fires when a percentile indicator leaves one of its extremes: long
// when it rises out of the lower zone and short when it drops out of the upper zone.
type PercentileReversal struct {
	Indicator indicator.Config
	Low       float64
	High      float64
	Rule      resolution.Strategy
}

func NewPercentileReversal(config indicator.Config, rule resolution.Strategy) *PercentileReversal {
	if rule == nil {
		rule = resolution.NewPercentileThreshold(config, 0.1, 0.9)
	}
	return &PercentileReversal{Indicator: config, Low: 0.05, High: 0.95, Rule: rule}
}

func (p *PercentileReversal) Name() string {
	return fmt.Sprintf("percentile-reversal(%s,%g,%g)", p.Indicator, p.Low, p.High)
}

func (p *PercentileReversal) MinLength() int {
	switch args := p.Indicator.Args.(type) {
	case indicator.PercentileArgs:
		return args.Length + args.Lookback + 1
	case indicator.RatioPercentileArgs:
		return args.Length + args.Lookback + 1
	}
	return 2
}

func (p *PercentileReversal) Indicators() []indicator.Config {
	return []indicator.Config{p.Indicator}
}

func (p *PercentileReversal) Resolution() resolution.Strategy {
	return p.Rule
}

func (p *PercentileReversal) Signal(ts *model.TimeSeries, index int) (model.Orientation, bool, error) {
	if p.Indicator.Kind != model.KindPMARP && p.Indicator.Kind != model.KindBBWP {
		return "", false, fmt.Errorf("%s is not a percentile indicator", p.Indicator)
	}

	values, ok, err := lastValues(ts, p.Indicator, index, 2)
	if err != nil || !ok {
		return "", false, err
	}

	switch {
	case values.Last(1) <= p.Low && values.Last(0) > p.Low:
		return model.OrientationLong, true, nil
	case values.Last(1) >= p.High && values.Last(0) < p.High:
		return model.OrientationShort, true, nil
	}
	return "", false, nil
}

func (p *PercentileReversal) Clone() strategy.Strategy {
	clone := *p
	clone.Rule = cloneRule(p.Rule)
	return &clone
}
