package config

import (
	"fmt"
	"strings"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/resolution"
	"github.com/jibbril/setupbot/strategies"
	"github.com/jibbril/setupbot/strategy"
)

// StrategyConfig selects one of the bundled strategies. Params override the strategy
// defaults by name; unknown names are rejected.
type StrategyConfig struct {
	Name       string             `yaml:"name"`
	Params     map[string]float64 `yaml:"params"`
	Indicator  *IndicatorConfig   `yaml:"indicator"`
	Resolution *ResolutionConfig  `yaml:"resolution"`
}

// IndicatorConfig names an indicator by kind (SMA, EMA, RSI, ATR, BB, BBW, BBWP, PMAR,
// PMARP, PIVOT, STOCH) and its parameters.
type IndicatorConfig struct {
	Kind          string  `yaml:"kind"`
	Length        int     `yaml:"length"`
	Lookback      int     `yaml:"lookback"`
	Smoothing     int     `yaml:"smoothing"`
	Signal        int     `yaml:"signal"`
	StdDevs       float64 `yaml:"std_devs"`
	MovingAverage string  `yaml:"moving_average"`
}

// ResolutionConfig describes a resolution rule. Type is one of fixed, percentage, atr,
// percentile or composite; composite takes exactly two Rules.
type ResolutionConfig struct {
	Type       string             `yaml:"type"`
	StopLoss   float64            `yaml:"stop_loss"`
	TakeProfit float64            `yaml:"take_profit"`
	Length     int                `yaml:"length"`
	Lower      float64            `yaml:"lower"`
	Upper      float64            `yaml:"upper"`
	Indicator  *IndicatorConfig   `yaml:"indicator"`
	Rules      []ResolutionConfig `yaml:"rules"`
}

func (s StrategyConfig) Build() (strategy.Strategy, error) {
	var rule resolution.Strategy
	if s.Resolution != nil {
		built, err := s.Resolution.Build()
		if err != nil {
			return nil, err
		}
		rule = built
	}

	switch s.Name {
	case "rsi-basic":
		built := strategies.NewRSIBasic(rule)
		err := s.params(map[string]func(float64){
			"length":     func(v float64) { built.Length = int(v) },
			"oversold":   func(v float64) { built.Oversold = v },
			"overbought": func(v float64) { built.Overbought = v },
		})
		if err != nil {
			return nil, err
		}
		return built, nil
	case "silver-cross":
		built := strategies.NewSilverCross(rule)
		err := s.params(map[string]func(float64){
			"fast": func(v float64) { built.Fast = int(v) },
			"slow": func(v float64) { built.Slow = int(v) },
		})
		if err != nil {
			return nil, err
		}
		return built, nil
	case "percentile-reversal":
		if s.Indicator == nil {
			return nil, fmt.Errorf("%w: percentile-reversal needs an indicator", ErrInvalidConfig)
		}
		config, err := s.Indicator.Build()
		if err != nil {
			return nil, err
		}
		if config.Kind != model.KindPMARP && config.Kind != model.KindBBWP {
			return nil, fmt.Errorf("%w: %s is not a percentile indicator", ErrInvalidConfig, config)
		}
		built := strategies.NewPercentileReversal(config, rule)
		err = s.params(map[string]func(float64){
			"low":  func(v float64) { built.Low = v },
			"high": func(v float64) { built.High = v },
		})
		if err != nil {
			return nil, err
		}
		return built, nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, s.Name)
	}
}

func (s StrategyConfig) params(setters map[string]func(float64)) error {
	for name, value := range s.Params {
		set, ok := setters[name]
		if !ok {
			return fmt.Errorf("%w: %s has no parameter %q", ErrInvalidConfig, s.Name, name)
		}
		set(value)
	}
	return nil
}

func (i IndicatorConfig) Build() (indicator.Config, error) {
	ma := model.MovingAverageKind(strings.ToUpper(i.MovingAverage))
	if ma == "" {
		ma = model.MovingAverageSimple
	}

	t := model.IndicatorType{
		Kind:          model.IndicatorKind(strings.ToUpper(i.Kind)),
		Length:        i.Length,
		Lookback:      i.Lookback,
		Smoothing:     i.Smoothing,
		Signal:        i.Signal,
		StdDevs:       i.StdDevs,
		MovingAverage: ma,
	}
	// BBWP keeps its smoothing length in Signal.
	if t.Kind == model.KindBBWP && t.Signal == 0 {
		t.Signal = i.Smoothing
	}
	config := indicator.FromType(t)
	if _, err := config.Type(); err != nil {
		return indicator.Config{}, fmt.Errorf("%w: indicator %s: %s", ErrInvalidConfig, i.Kind, err)
	}
	return config, nil
}

func (r ResolutionConfig) Build() (resolution.Strategy, error) {
	switch r.Type {
	case "fixed":
		return resolution.NewFixed(r.StopLoss, r.TakeProfit), nil
	case "percentage":
		if r.StopLoss <= 0 || r.TakeProfit <= 0 {
			return nil, fmt.Errorf("%w: percentage needs positive stop_loss and take_profit", ErrInvalidConfig)
		}
		return resolution.NewPercentageDrawdown(r.StopLoss, r.TakeProfit), nil
	case "atr":
		length := r.Length
		if length == 0 {
			length = 14
		}
		if r.StopLoss <= 0 || r.TakeProfit <= 0 {
			return nil, fmt.Errorf("%w: atr needs positive stop_loss and take_profit multiples", ErrInvalidConfig)
		}
		return resolution.NewATRMultiple(length, r.StopLoss, r.TakeProfit), nil
	case "percentile":
		if r.Indicator == nil {
			return nil, fmt.Errorf("%w: percentile resolution needs an indicator", ErrInvalidConfig)
		}
		config, err := r.Indicator.Build()
		if err != nil {
			return nil, err
		}
		if r.Lower >= r.Upper {
			return nil, fmt.Errorf("%w: percentile lower %g must be below upper %g", ErrInvalidConfig, r.Lower, r.Upper)
		}
		return resolution.NewPercentileThreshold(config, r.Lower, r.Upper), nil
	case "composite":
		if len(r.Rules) != 2 {
			return nil, fmt.Errorf("%w: composite needs two rules, got %d", ErrInvalidConfig, len(r.Rules))
		}
		first, err := r.Rules[0].Build()
		if err != nil {
			return nil, err
		}
		second, err := r.Rules[1].Build()
		if err != nil {
			return nil, err
		}
		return resolution.NewComposite(first, second), nil
	default:
		return nil, fmt.Errorf("%w: unknown resolution %q", ErrInvalidConfig, r.Type)
	}
}
