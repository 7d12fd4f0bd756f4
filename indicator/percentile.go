package indicator

import (
	"github.com/jibbril/setupbot/model"
)

// bbwp ranks the current band width against the preceding lookback widths and smooths
// the rank with a simple average.
type bbwp struct {
	length    int
	lookback  int
	smoothing int
}

func newBBWP(length, lookback, smoothing int) *bbwp {
	return &bbwp{length: length, lookback: lookback, smoothing: smoothing}
}

func (b *bbwp) Type() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindBBWP, Length: b.length, Lookback: b.lookback, Signal: b.smoothing}
}

func (b *bbwp) width() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindBBW, Length: b.length, StdDevs: DefaultStdDevs}
}

func (b *bbwp) Dependencies() []model.IndicatorType { return []model.IndicatorType{b.width()} }

func (b *bbwp) Window() int { return b.lookback + 1 }

// RollingWindow also reaches back over the percentile values the signal averages.
func (b *bbwp) RollingWindow() int { return max(b.smoothing, b.lookback+1) }

func (b *bbwp) Calculate(segment []model.Candle) (model.IndicatorValue, error) {
	widths, ok, err := scalars[model.BBW](segment[len(segment)-b.lookback-1:], b.Type(), b.width())
	if err != nil || !ok {
		return nil, err
	}

	value := percentRank(widths[:b.lookback], widths[b.lookback])
	signal, signalReady := smoothed(segment, b.Type(), value, b.smoothing)
	return model.BBWP{Value: value, Signal: signal, SignalReady: signalReady}, nil
}

// CalculateRolling has no cheaper form: a rank needs the whole lookback.
func (b *bbwp) CalculateRolling(_ model.Indicator, segment []model.Candle) (model.IndicatorValue, error) {
	return b.Calculate(segment)
}

// pmarp ranks the current price to moving average ratio against the preceding lookback ratios.
type pmarp struct {
	length   int
	lookback int
	ma       model.MovingAverageKind
}

func newPMARP(length, lookback int, ma model.MovingAverageKind) *pmarp {
	return &pmarp{length: length, lookback: lookback, ma: ma}
}

func (p *pmarp) Type() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindPMARP, Length: p.length, Lookback: p.lookback, MovingAverage: p.ma}
}

func (p *pmarp) ratio() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindPMAR, Length: p.length, MovingAverage: p.ma}
}

func (p *pmarp) Dependencies() []model.IndicatorType { return []model.IndicatorType{p.ratio()} }
func (p *pmarp) Window() int                         { return p.lookback + 1 }
func (p *pmarp) RollingWindow() int                  { return p.lookback + 1 }

func (p *pmarp) Calculate(segment []model.Candle) (model.IndicatorValue, error) {
	ratios, ok, err := scalars[model.PMAR](segment, p.Type(), p.ratio())
	if err != nil || !ok {
		return nil, err
	}
	return model.PMARP{Value: percentRank(ratios[:p.lookback], ratios[p.lookback])}, nil
}

func (p *pmarp) CalculateRolling(_ model.Indicator, segment []model.Candle) (model.IndicatorValue, error) {
	return p.Calculate(segment)
}

// scalars collects the dependency t over segment. ok is false if any candle lacks a value.
func scalars[T model.IndicatorValue](segment []model.Candle, owner, t model.IndicatorType) ([]float64, bool, error) {
	values := make([]float64, len(segment))
	for i, candle := range segment {
		value, ok, err := dependency[T](candle, owner, t)
		if err != nil || !ok {
			return nil, false, err
		}
		values[i] = value.Scalar()
	}
	return values, true, nil
}

// smoothed averages current with the scalar values of t already cached on the
// preceding candles of segment.
func smoothed(segment []model.Candle, t model.IndicatorType, current float64, length int) (float64, bool) {
	if length > len(segment) {
		return 0, false
	}

	sum := current
	for i := len(segment) - length; i < len(segment)-1; i++ {
		value, ok := segment[i].Indicators[t].Scalar()
		if !ok {
			return 0, false
		}
		sum += value
	}
	return sum / float64(length), true
}
