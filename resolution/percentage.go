package resolution

import (
	"fmt"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
)

// PercentageDrawdown resolves once price moved StopPercent against or TakePercent in
// favour of the setup, both relative to the entry close.
type PercentageDrawdown struct {
	StopPercent float64
	TakePercent float64

	state entryState
}

func NewPercentageDrawdown(stopPercent, takePercent float64) *PercentageDrawdown {
	return &PercentageDrawdown{StopPercent: stopPercent, TakePercent: takePercent}
}

func (p *PercentageDrawdown) Initialize(entry model.Candle, o model.Orientation) error {
	if err := p.state.begin(entry, o); err != nil {
		return err
	}
	if p.StopPercent <= 0 || p.TakePercent <= 0 {
		return fmt.Errorf("%w: percentages must be positive", ErrInvalidRule)
	}

	price := entry.Close
	p.state.settle(band(price, o, price*p.StopPercent/100, price*p.TakePercent/100))
	return nil
}

func (p *PercentageDrawdown) StopLossCandles() int   { return 1 }
func (p *PercentageDrawdown) TakeProfitCandles() int { return 1 }

func (p *PercentageDrawdown) StopLossReached(o model.Orientation, window []model.Candle) (bool, error) {
	return p.state.stopHit(o, window)
}

func (p *PercentageDrawdown) TakeProfitReached(o model.Orientation, window []model.Candle) (bool, error) {
	return p.state.takeHit(o, window)
}

func (p *PercentageDrawdown) Levels() Levels                   { return p.state.levels }
func (p *PercentageDrawdown) Dependencies() []indicator.Config { return nil }

func (p *PercentageDrawdown) Clone() Strategy {
	clone := *p
	return &clone
}

func (p *PercentageDrawdown) String() string {
	return fmt.Sprintf("percentage(%g%%,%g%%)", p.StopPercent, p.TakePercent)
}

func (p *PercentageDrawdown) resolution() {}
