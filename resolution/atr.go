package resolution

import (
	"fmt"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
)

// ATRMultiple places the levels a multiple of the entry candle's ATR away from the entry close.
type ATRMultiple struct {
	Length       int
	StopMultiple float64
	TakeMultiple float64

	state entryState
}

func NewATRMultiple(length int, stopMultiple, takeMultiple float64) *ATRMultiple {
	return &ATRMultiple{Length: length, StopMultiple: stopMultiple, TakeMultiple: takeMultiple}
}

func (a *ATRMultiple) Initialize(entry model.Candle, o model.Orientation) error {
	if err := a.state.begin(entry, o); err != nil {
		return err
	}
	if a.StopMultiple <= 0 || a.TakeMultiple <= 0 {
		return fmt.Errorf("%w: multiples must be positive", ErrInvalidRule)
	}

	atrType, err := indicator.ATR(a.Length).Type()
	if err != nil {
		return err
	}
	value, ok := model.ValueAs[model.ATR](entry, atrType)
	if !ok {
		return fmt.Errorf("%w: %s at %s", ErrIndicatorNotReady, atrType, entry.Time)
	}

	a.state.settle(band(entry.Close, o, value.Value*a.StopMultiple, value.Value*a.TakeMultiple))
	return nil
}

func (a *ATRMultiple) StopLossCandles() int   { return 1 }
func (a *ATRMultiple) TakeProfitCandles() int { return 1 }

func (a *ATRMultiple) StopLossReached(o model.Orientation, window []model.Candle) (bool, error) {
	return a.state.stopHit(o, window)
}

func (a *ATRMultiple) TakeProfitReached(o model.Orientation, window []model.Candle) (bool, error) {
	return a.state.takeHit(o, window)
}

func (a *ATRMultiple) Levels() Levels { return a.state.levels }

func (a *ATRMultiple) Dependencies() []indicator.Config {
	return []indicator.Config{indicator.ATR(a.Length)}
}

func (a *ATRMultiple) Clone() Strategy {
	clone := *a
	return &clone
}

func (a *ATRMultiple) String() string {
	return fmt.Sprintf("atr(%d,%gx,%gx)", a.Length, a.StopMultiple, a.TakeMultiple)
}

func (a *ATRMultiple) resolution() {}
