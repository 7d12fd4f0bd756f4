package indicator

import (
	"github.com/jibbril/setupbot/model"
)

// pmar is the close divided by a moving average of the closes.
type pmar struct {
	length int
	ma     model.MovingAverageKind
}

func newPMAR(length int, ma model.MovingAverageKind) Definition {
	p := &pmar{length: length, ma: ma}
	if ma == model.MovingAverageExponential {
		return &pmarEMA{pmar: p}
	}
	return p
}

func (p *pmar) Type() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindPMAR, Length: p.length, MovingAverage: p.ma}
}

func (p *pmar) Dependencies() []model.IndicatorType { return nil }
func (p *pmar) Window() int                         { return p.length }
func (p *pmar) RollingWindow() int                  { return p.length + 1 }
func (p *pmar) windowExact()                        {}

func (p *pmar) Calculate(segment []model.Candle) (model.IndicatorValue, error) {
	var priceVolume, volume, sum float64
	for _, candle := range segment {
		sum += candle.Close
		priceVolume += candle.Close * candle.Volume
		volume += candle.Volume
	}
	return p.value(segment[len(segment)-1].Close, sum/float64(p.length), priceVolume, volume), nil
}

func (p *pmar) CalculateRolling(prev model.Indicator, segment []model.Candle) (model.IndicatorValue, error) {
	last, err := previous[model.PMAR](prev)
	if err != nil {
		return nil, err
	}

	in := segment[len(segment)-1]
	out := segment[0]
	average := last.MovingAverage + (in.Close-out.Close)/float64(p.length)
	priceVolume := last.PriceVolume + in.Close*in.Volume - out.Close*out.Volume
	volume := last.Volume + in.Volume - out.Volume
	return p.value(in.Close, average, priceVolume, volume), nil
}

// value returns nil when the average cannot divide the close.
func (p *pmar) value(price, average, priceVolume, volume float64) model.IndicatorValue {
	if p.ma == model.MovingAverageVolumeWeighted {
		if volume <= 0 {
			return nil
		}
		average = priceVolume / volume
	}
	if average == 0 {
		return nil
	}
	return model.PMAR{Value: price / average, MovingAverage: average, PriceVolume: priceVolume, Volume: volume}
}

// pmarEMA reads the exponential average populated on the same candle.
type pmarEMA struct {
	*pmar
}

func (p *pmarEMA) average() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindEMA, Length: p.length}
}

func (p *pmarEMA) Dependencies() []model.IndicatorType { return []model.IndicatorType{p.average()} }
func (p *pmarEMA) Window() int                         { return 1 }
func (p *pmarEMA) RollingWindow() int                  { return 1 }

func (p *pmarEMA) Calculate(segment []model.Candle) (model.IndicatorValue, error) {
	candle := segment[len(segment)-1]
	average, ok, err := dependency[model.EMA](candle, p.Type(), p.average())
	if err != nil || !ok {
		return nil, err
	}
	if average.Value == 0 {
		return nil, nil
	}
	return model.PMAR{Value: candle.Close / average.Value, MovingAverage: average.Value}, nil
}

func (p *pmarEMA) CalculateRolling(_ model.Indicator, segment []model.Candle) (model.IndicatorValue, error) {
	return p.Calculate(segment)
}
