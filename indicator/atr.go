package indicator

import (
	"math"

	"github.com/jibbril/setupbot/model"
)

type atr struct {
	length int
}

func newATR(length int) *atr {
	return &atr{length: length}
}

func (a *atr) Type() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindATR, Length: a.length}
}

func (a *atr) Dependencies() []model.IndicatorType { return nil }
func (a *atr) Window() int                         { return a.length + 1 }
func (a *atr) RollingWindow() int                  { return 2 }

// Calculate averages the true ranges of the last length candles. The first candle of
// the segment only provides the previous close.
func (a *atr) Calculate(segment []model.Candle) (model.IndicatorValue, error) {
	var sum float64
	for i := 1; i < len(segment); i++ {
		sum += trueRange(segment[i], segment[i-1].Close)
	}
	return model.ATR{Value: sum / float64(a.length)}, nil
}

func (a *atr) CalculateRolling(prev model.Indicator, segment []model.Candle) (model.IndicatorValue, error) {
	last, err := previous[model.ATR](prev)
	if err != nil {
		return nil, err
	}
	length := float64(a.length)
	tr := trueRange(segment[1], segment[0].Close)
	return model.ATR{Value: (last.Value*(length-1) + tr) / length}, nil
}

func trueRange(candle model.Candle, prevClose float64) float64 {
	return math.Max(candle.High-candle.Low, math.Max(math.Abs(candle.High-prevClose), math.Abs(candle.Low-prevClose)))
}
