package indicator

import (
	"math"

	"github.com/jibbril/setupbot/model"
)

// stochastic is the slow stochastic oscillator on a 0 to 1 scale.
type stochastic struct {
	kLength    int
	kSmoothing int
	dSmoothing int
}

func newStochastic(kLength, kSmoothing, dSmoothing int) *stochastic {
	return &stochastic{kLength: kLength, kSmoothing: kSmoothing, dSmoothing: dSmoothing}
}

func (s *stochastic) Type() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindStochastic, Length: s.kLength, Smoothing: s.kSmoothing, Signal: s.dSmoothing}
}

func (s *stochastic) Dependencies() []model.IndicatorType { return nil }

func (s *stochastic) Window() int {
	return s.kLength + s.kSmoothing + s.dSmoothing - 2
}

func (s *stochastic) RollingWindow() int { return s.Window() }

func (s *stochastic) Calculate(segment []model.Candle) (model.IndicatorValue, error) {
	raw := make([]float64, 0, s.kSmoothing+s.dSmoothing-1)
	for end := s.kLength - 1; end < len(segment); end++ {
		raw = append(raw, rawK(segment[end-s.kLength+1:end+1]))
	}

	k := make([]float64, 0, s.dSmoothing)
	for end := s.kSmoothing - 1; end < len(raw); end++ {
		k = append(k, mean(raw[end-s.kSmoothing+1:end+1]))
	}

	return model.Stochastic{
		K:    k[len(k)-1],
		D:    mean(k),
		RawK: raw[len(raw)-1],
	}, nil
}

// CalculateRolling recomputes the bounded window, it holds every input of the result.
func (s *stochastic) CalculateRolling(_ model.Indicator, segment []model.Candle) (model.IndicatorValue, error) {
	return s.Calculate(segment)
}

func rawK(window []model.Candle) float64 {
	highest, lowest := math.Inf(-1), math.Inf(1)
	for _, candle := range window {
		highest = math.Max(highest, candle.High)
		lowest = math.Min(lowest, candle.Low)
	}
	if highest == lowest {
		return 0.5
	}
	return (window[len(window)-1].Close - lowest) / (highest - lowest)
}
