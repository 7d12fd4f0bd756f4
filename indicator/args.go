package indicator

import (
	"fmt"

	"github.com/jibbril/setupbot/model"
)

// Args is the parameter bag of one indicator configuration. The six shapes below
// are the only implementations.
type Args interface {
	args()
}

type LengthArgs struct {
	Length int
}

type BollingerArgs struct {
	Length  int
	StdDevs float64
}

type PercentileArgs struct {
	Length    int
	Lookback  int
	Smoothing int
}

type MovingAverageArgs struct {
	Length        int
	MovingAverage model.MovingAverageKind
}

type RatioPercentileArgs struct {
	Length        int
	Lookback      int
	MovingAverage model.MovingAverageKind
}

type StochasticArgs struct {
	KLength    int
	KSmoothing int
	DSmoothing int
}

func (LengthArgs) args()          {}
func (BollingerArgs) args()       {}
func (PercentileArgs) args()      {}
func (MovingAverageArgs) args()   {}
func (RatioPercentileArgs) args() {}
func (StochasticArgs) args()      {}

func mismatch(expected string, args Args) error {
	return fmt.Errorf("%w: expected %s, got %T", ErrArgsMismatch, expected, args)
}

func AsLength(args Args) (LengthArgs, error) {
	value, ok := args.(LengthArgs)
	if !ok {
		return LengthArgs{}, mismatch("LengthArgs", args)
	}
	return value, nil
}

func AsBollinger(args Args) (BollingerArgs, error) {
	value, ok := args.(BollingerArgs)
	if !ok {
		return BollingerArgs{}, mismatch("BollingerArgs", args)
	}
	return value, nil
}

func AsPercentile(args Args) (PercentileArgs, error) {
	value, ok := args.(PercentileArgs)
	if !ok {
		return PercentileArgs{}, mismatch("PercentileArgs", args)
	}
	return value, nil
}

func AsMovingAverage(args Args) (MovingAverageArgs, error) {
	value, ok := args.(MovingAverageArgs)
	if !ok {
		return MovingAverageArgs{}, mismatch("MovingAverageArgs", args)
	}
	return value, nil
}

func AsRatioPercentile(args Args) (RatioPercentileArgs, error) {
	value, ok := args.(RatioPercentileArgs)
	if !ok {
		return RatioPercentileArgs{}, mismatch("RatioPercentileArgs", args)
	}
	return value, nil
}

func AsStochastic(args Args) (StochasticArgs, error) {
	value, ok := args.(StochasticArgs)
	if !ok {
		return StochasticArgs{}, mismatch("StochasticArgs", args)
	}
	return value, nil
}

// Config pairs an indicator kind with its arguments. It is the unit strategies and
// resolution rules use to request indicators.
type Config struct {
	Kind model.IndicatorKind
	Args Args
}

func (c Config) String() string {
	t, err := c.Type()
	if err != nil {
		return fmt.Sprintf("%s(invalid)", c.Kind)
	}
	return t.String()
}

// Type resolves the cache key of the configuration, validating the arguments.
func (c Config) Type() (model.IndicatorType, error) {
	def, err := New(c.Kind, c.Args)
	if err != nil {
		return model.IndicatorType{}, err
	}
	return def.Type(), nil
}

func SMA(length int) Config {
	return Config{Kind: model.KindSMA, Args: LengthArgs{Length: length}}
}

func EMA(length int) Config {
	return Config{Kind: model.KindEMA, Args: LengthArgs{Length: length}}
}

func RSI(length int) Config {
	return Config{Kind: model.KindRSI, Args: LengthArgs{Length: length}}
}

func ATR(length int) Config {
	return Config{Kind: model.KindATR, Args: LengthArgs{Length: length}}
}

func BollingerBands(length int, stdDevs float64) Config {
	return Config{Kind: model.KindBollingerBands, Args: BollingerArgs{Length: length, StdDevs: stdDevs}}
}

func BBW(length int, stdDevs float64) Config {
	return Config{Kind: model.KindBBW, Args: BollingerArgs{Length: length, StdDevs: stdDevs}}
}

func BBWP(length, lookback, smoothing int) Config {
	return Config{Kind: model.KindBBWP, Args: PercentileArgs{Length: length, Lookback: lookback, Smoothing: smoothing}}
}

func PMAR(length int, ma model.MovingAverageKind) Config {
	return Config{Kind: model.KindPMAR, Args: MovingAverageArgs{Length: length, MovingAverage: ma}}
}

func PMARP(length, lookback int, ma model.MovingAverageKind) Config {
	return Config{Kind: model.KindPMARP, Args: RatioPercentileArgs{Length: length, Lookback: lookback, MovingAverage: ma}}
}

func DynamicPivot(length int) Config {
	return Config{Kind: model.KindDynamicPivot, Args: LengthArgs{Length: length}}
}

func Stochastic(kLength, kSmoothing, dSmoothing int) Config {
	return Config{Kind: model.KindStochastic, Args: StochasticArgs{KLength: kLength, KSmoothing: kSmoothing, DSmoothing: dSmoothing}}
}

// FromType rebuilds the configuration that produces t.
func FromType(t model.IndicatorType) Config {
	switch t.Kind {
	case model.KindBollingerBands, model.KindBBW:
		return Config{Kind: t.Kind, Args: BollingerArgs{Length: t.Length, StdDevs: t.StdDevs}}
	case model.KindBBWP:
		return BBWP(t.Length, t.Lookback, t.Signal)
	case model.KindPMAR:
		return PMAR(t.Length, t.MovingAverage)
	case model.KindPMARP:
		return PMARP(t.Length, t.Lookback, t.MovingAverage)
	case model.KindStochastic:
		return Stochastic(t.Length, t.Smoothing, t.Signal)
	default:
		return Config{Kind: t.Kind, Args: LengthArgs{Length: t.Length}}
	}
}

// Expand returns configs preceded by every transitive dependency they declare, each
// configuration listed once.
func Expand(configs ...Config) ([]Config, error) {
	var (
		result []Config
		seen   = make(map[model.IndicatorType]bool)
		visit  func(c Config) error
	)

	visit = func(c Config) error {
		def, err := New(c.Kind, c.Args)
		if err != nil {
			return err
		}
		if seen[def.Type()] {
			return nil
		}
		seen[def.Type()] = true
		for _, dep := range def.Dependencies() {
			if err := visit(FromType(dep)); err != nil {
				return err
			}
		}
		result = append(result, c)
		return nil
	}

	for _, c := range configs {
		if err := visit(c); err != nil {
			return nil, err
		}
	}
	return result, nil
}
