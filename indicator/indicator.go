// Package indicator computes technical indicators over a model.TimeSeries and caches
// the results on each candle. Every kind is seeded from a full window and then rolled
// forward one bar at a time.
package indicator

import (
	"fmt"

	"github.com/jibbril/setupbot/model"
)

// Definition is the computation of one indicator configuration.
type Definition interface {
	Type() model.IndicatorType
	// Dependencies lists the indicator types read from the same candles.
	Dependencies() []model.IndicatorType
	// Window is the number of candles Calculate needs.
	Window() int
	// RollingWindow is the number of candles, ending at the current one, CalculateRolling needs.
	RollingWindow() int
	// Calculate computes the value of the last candle of segment from scratch.
	// A nil value means the segment does not allow a result.
	Calculate(segment []model.Candle) (model.IndicatorValue, error)
	// CalculateRolling derives the value of the last candle of segment from the
	// result cached on the previous candle.
	CalculateRolling(prev model.Indicator, segment []model.Candle) (model.IndicatorValue, error)
}

// Lagged is implemented by definitions whose result trails the scan cursor.
type Lagged interface {
	Lag() int
}

// windowExact marks definitions whose rolling value only depends on the current window,
// so reseeding them from Calculate does not change the result.
type windowExact interface {
	windowExact()
}

// New validates args against kind and builds its definition.
func New(kind model.IndicatorKind, args Args) (Definition, error) {
	if args == nil {
		return nil, fmt.Errorf("%s: %w: no arguments", kind, ErrArgsMismatch)
	}

	switch kind {
	case model.KindSMA, model.KindEMA, model.KindRSI, model.KindATR, model.KindDynamicPivot:
		a, err := AsLength(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		if err := positive(kind, "length", a.Length); err != nil {
			return nil, err
		}
		switch kind {
		case model.KindSMA:
			return newSMA(a.Length), nil
		case model.KindEMA:
			return newEMA(a.Length), nil
		case model.KindRSI:
			return newRSI(a.Length), nil
		case model.KindATR:
			return newATR(a.Length), nil
		default:
			return newDynamicPivot(a.Length), nil
		}
	case model.KindBollingerBands, model.KindBBW:
		a, err := AsBollinger(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		if err := positive(kind, "length", a.Length); err != nil {
			return nil, err
		}
		if a.StdDevs < 0 {
			return nil, fmt.Errorf("%s: %w: negative standard deviations", kind, ErrInvalidArgs)
		}
		if a.StdDevs == 0 {
			a.StdDevs = DefaultStdDevs
		}
		if kind == model.KindBBW {
			return newBBW(a.Length, a.StdDevs), nil
		}
		return newBollingerBands(a.Length, a.StdDevs), nil
	case model.KindBBWP:
		a, err := AsPercentile(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		for name, value := range map[string]int{"length": a.Length, "lookback": a.Lookback, "smoothing": a.Smoothing} {
			if err := positive(kind, name, value); err != nil {
				return nil, err
			}
		}
		return newBBWP(a.Length, a.Lookback, a.Smoothing), nil
	case model.KindPMAR:
		a, err := AsMovingAverage(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		if err := positive(kind, "length", a.Length); err != nil {
			return nil, err
		}
		if err := validMovingAverage(kind, a.MovingAverage); err != nil {
			return nil, err
		}
		return newPMAR(a.Length, a.MovingAverage), nil
	case model.KindPMARP:
		a, err := AsRatioPercentile(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		if err := positive(kind, "length", a.Length); err != nil {
			return nil, err
		}
		if err := positive(kind, "lookback", a.Lookback); err != nil {
			return nil, err
		}
		if err := validMovingAverage(kind, a.MovingAverage); err != nil {
			return nil, err
		}
		return newPMARP(a.Length, a.Lookback, a.MovingAverage), nil
	case model.KindStochastic:
		a, err := AsStochastic(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		for name, value := range map[string]int{"k length": a.KLength, "k smoothing": a.KSmoothing, "d smoothing": a.DSmoothing} {
			if err := positive(kind, name, value); err != nil {
				return nil, err
			}
		}
		return newStochastic(a.KLength, a.KSmoothing, a.DSmoothing), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func positive(kind model.IndicatorKind, name string, value int) error {
	if value <= 0 {
		return fmt.Errorf("%s: %w: %s must be positive, got %d", kind, ErrInvalidArgs, name, value)
	}
	return nil
}

func validMovingAverage(kind model.IndicatorKind, ma model.MovingAverageKind) error {
	switch ma {
	case model.MovingAverageSimple, model.MovingAverageExponential, model.MovingAverageVolumeWeighted:
		return nil
	default:
		return fmt.Errorf("%s: %w: unknown moving average %q", kind, ErrInvalidArgs, ma)
	}
}

// previous asserts the variant cached on the previous candle.
func previous[T model.IndicatorValue](prev model.Indicator) (T, error) {
	value, ok := prev.Value.(T)
	if !ok {
		return value, fmt.Errorf("%w: %s holds %T", ErrUnexpectedValue, prev.Type, prev.Value)
	}
	return value, nil
}

// dependency reads the value of t cached on candle. ok is false when the dependency
// exists but is not computable there.
func dependency[T model.IndicatorValue](candle model.Candle, owner, t model.IndicatorType) (value T, ok bool, err error) {
	ind, found := candle.Indicators[t]
	if !found {
		return value, false, &MissingDependencyError{Indicator: owner, Dependency: t}
	}
	if ind.Value == nil {
		return value, false, nil
	}
	value, ok = ind.Value.(T)
	if !ok {
		return value, false, fmt.Errorf("%w: %s holds %T", ErrUnexpectedValue, t, ind.Value)
	}
	return value, true, nil
}

func closes(segment []model.Candle) []float64 {
	values := make([]float64, len(segment))
	for i, candle := range segment {
		values[i] = candle.Close
	}
	return values
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values))
}

// percentRank is the share of history values strictly below current.
func percentRank(history []float64, current float64) float64 {
	if len(history) == 0 {
		return 0
	}
	var below int
	for _, value := range history {
		if value < current {
			below++
		}
	}
	return float64(below) / float64(len(history))
}
