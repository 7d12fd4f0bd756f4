package indicator

import (
	"github.com/jibbril/setupbot/model"
)

// dynamicPivot confirms a pivot once length candles on both sides of it are known.
// The result of candle i is written when candle i+length arrives; until then the
// candle holds an empty entry.
type dynamicPivot struct {
	length int
}

func newDynamicPivot(length int) *dynamicPivot {
	return &dynamicPivot{length: length}
}

func (d *dynamicPivot) Type() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindDynamicPivot, Length: d.length}
}

func (d *dynamicPivot) Dependencies() []model.IndicatorType { return nil }
func (d *dynamicPivot) Window() int                         { return 2*d.length + 1 }
func (d *dynamicPivot) RollingWindow() int                  { return 2*d.length + 1 }
func (d *dynamicPivot) Lag() int                            { return d.length }

func (d *dynamicPivot) Calculate(segment []model.Candle) (model.IndicatorValue, error) {
	return d.confirm(model.DynamicPivot{}, segment), nil
}

// CalculateRolling carries the previous levels forward unless the center of segment
// confirms a new one.
func (d *dynamicPivot) CalculateRolling(prev model.Indicator, segment []model.Candle) (model.IndicatorValue, error) {
	last, err := previous[model.DynamicPivot](prev)
	if err != nil {
		return nil, err
	}
	return d.confirm(last, segment), nil
}

func (d *dynamicPivot) confirm(levels model.DynamicPivot, segment []model.Candle) model.DynamicPivot {
	center := segment[d.length]
	isHigh, isLow := true, true
	for i, candle := range segment {
		if i == d.length {
			continue
		}
		if candle.High > center.High {
			isHigh = false
		}
		if candle.Low < center.Low {
			isLow = false
		}
	}

	if isHigh {
		levels.High, levels.HasHigh = center.High, true
	}
	if isLow {
		levels.Low, levels.HasLow = center.Low, true
	}
	return levels
}
