package resolution

import (
	"fmt"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
)

// PercentileThreshold resolves when a percentile indicator (PMARP or BBWP) crosses one
// of two thresholds. A long setup takes profit when the percentile rises through Upper
// and stops out when it falls through Lower; short setups mirror this.
type PercentileThreshold struct {
	Indicator indicator.Config
	Lower     float64
	Upper     float64

	state entryState
	key   model.IndicatorType
}

func NewPercentileThreshold(config indicator.Config, lower, upper float64) *PercentileThreshold {
	return &PercentileThreshold{Indicator: config, Lower: lower, Upper: upper}
}

func (p *PercentileThreshold) Initialize(entry model.Candle, o model.Orientation) error {
	if err := p.state.begin(entry, o); err != nil {
		return err
	}
	if p.Indicator.Kind != model.KindPMARP && p.Indicator.Kind != model.KindBBWP {
		return fmt.Errorf("%w: %s is not a percentile indicator", ErrInvalidRule, p.Indicator.Kind)
	}
	if !(0 <= p.Lower && p.Lower < p.Upper && p.Upper <= 1) {
		return fmt.Errorf("%w: thresholds %g/%g", ErrInvalidRule, p.Lower, p.Upper)
	}

	key, err := p.Indicator.Type()
	if err != nil {
		return err
	}
	p.key = key
	p.state.settle(Levels{})
	return nil
}

func (p *PercentileThreshold) StopLossCandles() int   { return 2 }
func (p *PercentileThreshold) TakeProfitCandles() int { return 2 }

func (p *PercentileThreshold) StopLossReached(o model.Orientation, window []model.Candle) (bool, error) {
	if o == model.OrientationShort {
		return p.crossedAbove(window, p.Upper)
	}
	return p.crossedBelow(window, p.Lower)
}

func (p *PercentileThreshold) TakeProfitReached(o model.Orientation, window []model.Candle) (bool, error) {
	if o == model.OrientationShort {
		return p.crossedBelow(window, p.Lower)
	}
	return p.crossedAbove(window, p.Upper)
}

// values reads the percentile on the last two candles of window. ok is false while
// either is not computable.
func (p *PercentileThreshold) values(window []model.Candle) (before, after float64, ok bool, err error) {
	if err := p.state.ready(window, 2); err != nil {
		return 0, 0, false, err
	}

	prev, cur := window[len(window)-2], window[len(window)-1]
	for _, candle := range []model.Candle{prev, cur} {
		if _, found := candle.Indicator(p.key); !found {
			return 0, 0, false, fmt.Errorf("%w: %s at %s", indicator.ErrMissingDependency, p.key, candle.Time)
		}
	}

	before, okBefore := prev.Indicators[p.key].Scalar()
	after, okAfter := cur.Indicators[p.key].Scalar()
	return before, after, okBefore && okAfter, nil
}

func (p *PercentileThreshold) crossedAbove(window []model.Candle, level float64) (bool, error) {
	before, after, ok, err := p.values(window)
	if err != nil || !ok {
		return false, err
	}
	return before < level && after >= level, nil
}

func (p *PercentileThreshold) crossedBelow(window []model.Candle, level float64) (bool, error) {
	before, after, ok, err := p.values(window)
	if err != nil || !ok {
		return false, err
	}
	return before > level && after <= level, nil
}

func (p *PercentileThreshold) Levels() Levels { return p.state.levels }

func (p *PercentileThreshold) Dependencies() []indicator.Config {
	return []indicator.Config{p.Indicator}
}

func (p *PercentileThreshold) Clone() Strategy {
	clone := *p
	return &clone
}

func (p *PercentileThreshold) String() string {
	return fmt.Sprintf("percentile(%s,%g,%g)", p.Indicator, p.Lower, p.Upper)
}

func (p *PercentileThreshold) resolution() {}
