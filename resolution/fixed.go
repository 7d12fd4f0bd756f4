package resolution

import (
	"fmt"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
)

// Fixed resolves at absolute price levels.
type Fixed struct {
	StopLoss   float64
	TakeProfit float64

	state entryState
}

func NewFixed(stopLoss, takeProfit float64) *Fixed {
	return &Fixed{StopLoss: stopLoss, TakeProfit: takeProfit}
}

func (f *Fixed) Initialize(entry model.Candle, o model.Orientation) error {
	if err := f.state.begin(entry, o); err != nil {
		return err
	}

	price := entry.Close
	if o == model.OrientationLong && !(f.StopLoss < price && price < f.TakeProfit) ||
		o == model.OrientationShort && !(f.TakeProfit < price && price < f.StopLoss) {
		return fmt.Errorf("%w: %s levels %f/%f around entry %f", ErrInvalidRule, o, f.StopLoss, f.TakeProfit, price)
	}

	f.state.settle(Levels{StopLoss: f.StopLoss, TakeProfit: f.TakeProfit, HasStopLoss: true, HasTakeProfit: true})
	return nil
}

func (f *Fixed) StopLossCandles() int   { return 1 }
func (f *Fixed) TakeProfitCandles() int { return 1 }

func (f *Fixed) StopLossReached(o model.Orientation, window []model.Candle) (bool, error) {
	return f.state.stopHit(o, window)
}

func (f *Fixed) TakeProfitReached(o model.Orientation, window []model.Candle) (bool, error) {
	return f.state.takeHit(o, window)
}

func (f *Fixed) Levels() Levels                   { return f.state.levels }
func (f *Fixed) Dependencies() []indicator.Config { return nil }

func (f *Fixed) Clone() Strategy {
	clone := *f
	return &clone
}

func (f *Fixed) String() string {
	return fmt.Sprintf("fixed(%g,%g)", f.StopLoss, f.TakeProfit)
}

func (f *Fixed) resolution() {}
