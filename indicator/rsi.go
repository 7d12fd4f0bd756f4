package indicator

import (
	"math"

	"github.com/jibbril/setupbot/model"
)

// rsi is Wilder's relative strength index.
type rsi struct {
	length int
}

func newRSI(length int) *rsi {
	return &rsi{length: length}
}

func (r *rsi) Type() model.IndicatorType {
	return model.IndicatorType{Kind: model.KindRSI, Length: r.length}
}

func (r *rsi) Dependencies() []model.IndicatorType { return nil }
func (r *rsi) Window() int                         { return r.length + 1 }
func (r *rsi) RollingWindow() int                  { return 2 }

func (r *rsi) Calculate(segment []model.Candle) (model.IndicatorValue, error) {
	var gains, losses float64
	for i := 1; i < len(segment); i++ {
		delta := segment[i].Close - segment[i-1].Close
		gains += math.Max(delta, 0)
		losses += math.Max(-delta, 0)
	}
	length := float64(r.length)
	return rsiValue(gains/length, losses/length), nil
}

func (r *rsi) CalculateRolling(prev model.Indicator, segment []model.Candle) (model.IndicatorValue, error) {
	last, err := previous[model.RSI](prev)
	if err != nil {
		return nil, err
	}
	delta := segment[1].Close - segment[0].Close
	length := float64(r.length)
	gains := (last.AvgGain*(length-1) + math.Max(delta, 0)) / length
	losses := (last.AvgLoss*(length-1) + math.Max(-delta, 0)) / length
	return rsiValue(gains, losses), nil
}

// rsiValue is 100 when there are no losses, which covers a flat window too.
func rsiValue(avgGain, avgLoss float64) model.RSI {
	value := 100.0
	if avgLoss > 0 {
		rs := avgGain / avgLoss
		value = 100 - 100/(1+rs)
	}
	return model.RSI{Value: value, AvgGain: avgGain, AvgLoss: avgLoss}
}
