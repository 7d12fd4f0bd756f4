package indicator

import (
	"github.com/jibbril/setupbot/model"
)

// ema is seeded with the simple average of the first window.
type ema struct {
	length int
}

func newEMA(length int) *ema {
	return &ema{length: length}
}

func (e *ema) Type() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindEMA, Length: e.length}
}

func (e *ema) Dependencies() []model.IndicatorType { return nil }
func (e *ema) Window() int                         { return e.length }
func (e *ema) RollingWindow() int                  { return 1 }

func (e *ema) multiplier() float64 {
	return 2 / float64(e.length+1)
}

func (e *ema) Calculate(segment []model.Candle) (model.IndicatorValue, error) {
	return model.EMA{Value: mean(closes(segment))}, nil
}

func (e *ema) CalculateRolling(prev model.Indicator, segment []model.Candle) (model.IndicatorValue, error) {
	last, err := previous[model.EMA](prev)
	if err != nil {
		return nil, err
	}
	price := segment[len(segment)-1].Close
	return model.EMA{Value: last.Value + (price-last.Value)*e.multiplier()}, nil
}
