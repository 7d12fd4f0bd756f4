package indicator

import (
	"github.com/jibbril/setupbot/model"
)

type sma struct {
	length int
}

func newSMA(length int) *sma {
	return &sma{length: length}
}

func (s *sma) Type() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindSMA, Length: s.length}
}

func (s *sma) Dependencies() []model.IndicatorType { return nil }
func (s *sma) Window() int                         { return s.length }
func (s *sma) RollingWindow() int                  { return s.length + 1 }
func (s *sma) windowExact()                        {}

func (s *sma) Calculate(segment []model.Candle) (model.IndicatorValue, error) {
	return model.SMA{Value: mean(closes(segment))}, nil
}

// CalculateRolling adds the new close and drops the one leaving the window.
func (s *sma) CalculateRolling(prev model.Indicator, segment []model.Candle) (model.IndicatorValue, error) {
	last, err := previous[model.SMA](prev)
	if err != nil {
		return nil, err
	}
	in := segment[len(segment)-1].Close
	out := segment[0].Close
	return model.SMA{Value: last.Value + (in-out)/float64(s.length)}, nil
}
