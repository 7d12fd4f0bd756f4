package indicator

import (
	"math"

	"github.com/jibbril/setupbot/model"
)

// DefaultStdDevs is the band width used when none is configured.
const DefaultStdDevs = 2.0

// bollingerBands works on the typical price with the population variance.
type bollingerBands struct {
	length  int
	stdDevs float64
}

func newBollingerBands(length int, stdDevs float64) *bollingerBands {
	return &bollingerBands{length: length, stdDevs: stdDevs}
}

func (b *bollingerBands) Type() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindBollingerBands, Length: b.length, StdDevs: b.stdDevs}
}

func (b *bollingerBands) Dependencies() []model.IndicatorType { return nil }
func (b *bollingerBands) Window() int                         { return b.length }
func (b *bollingerBands) RollingWindow() int                  { return b.length + 1 }
func (b *bollingerBands) windowExact()                        {}

func (b *bollingerBands) Calculate(segment []model.Candle) (model.IndicatorValue, error) {
	prices := make([]float64, len(segment))
	for i, candle := range segment {
		prices[i] = candle.TypicalPrice()
	}

	avg := mean(prices)
	var variance float64
	for _, price := range prices {
		variance += (price - avg) * (price - avg)
	}
	variance /= float64(len(prices))

	return b.bands(avg, variance), nil
}

// CalculateRolling updates mean and variance with the price entering and the price
// leaving the window.
func (b *bollingerBands) CalculateRolling(prev model.Indicator, segment []model.Candle) (model.IndicatorValue, error) {
	last, err := previous[model.BollingerBands](prev)
	if err != nil {
		return nil, err
	}

	in := segment[len(segment)-1].TypicalPrice()
	out := segment[0].TypicalPrice()
	length := float64(b.length)

	avg := last.Mean + (in-out)/length
	variance := last.Variance + (in-out)*(in-avg+out-last.Mean)/length
	if variance < 0 {
		variance = 0
	}
	return b.bands(avg, variance), nil
}

func (b *bollingerBands) bands(avg, variance float64) model.BollingerBands {
	stdDev := math.Sqrt(variance)
	return model.BollingerBands{
		Upper:    avg + b.stdDevs*stdDev,
		Lower:    avg - b.stdDevs*stdDev,
		Mean:     avg,
		Variance: variance,
		StdDev:   stdDev,
	}
}

// bbw is the band width relative to the middle band.
type bbw struct {
	length  int
	stdDevs float64
}

func newBBW(length int, stdDevs float64) *bbw {
	return &bbw{length: length, stdDevs: stdDevs}
}

func (b *bbw) Type() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindBBW, Length: b.length, StdDevs: b.stdDevs}
}

func (b *bbw) bands() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindBollingerBands, Length: b.length, StdDevs: b.stdDevs}
}

func (b *bbw) Dependencies() []model.IndicatorType { return []model.IndicatorType{b.bands()} }
func (b *bbw) Window() int                         { return 1 }
func (b *bbw) RollingWindow() int                  { return 1 }

func (b *bbw) Calculate(segment []model.Candle) (model.IndicatorValue, error) {
	bands, ok, err := dependency[model.BollingerBands](segment[len(segment)-1], b.Type(), b.bands())
	if err != nil || !ok {
		return nil, err
	}
	if bands.Mean == 0 {
		return nil, nil
	}
	return model.BBW{Value: (bands.Upper - bands.Lower) / bands.Mean}, nil
}

func (b *bbw) CalculateRolling(_ model.Indicator, segment []model.Candle) (model.IndicatorValue, error) {
	return b.Calculate(segment)
}
