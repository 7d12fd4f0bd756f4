// Package strategy defines the detectors that turn populated candles into setups and
// the controller that runs them on a live series.
package strategy

import (
	"errors"
	"fmt"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/resolution"
	"github.com/jibbril/setupbot/setup"
	"github.com/jibbril/setupbot/tools/log"
)

// Strategy detects setups on a populated series. Implementations only read the series.
type Strategy interface {
	Name() string
	// MinLength is the number of candles needed before the first signal can fire.
	MinLength() int
	// Indicators lists what Signal reads. Dependencies may be left out.
	Indicators() []indicator.Config
	// Resolution is the rule template attached, cloned, to every setup.
	Resolution() resolution.Strategy
	// Signal reports whether the candle at index triggers a setup and its orientation.
	Signal(ts *model.TimeSeries, index int) (model.Orientation, bool, error)
	Clone() Strategy
}

// Requirements returns every indicator s and its resolution rule need, dependencies first.
func Requirements(s Strategy) ([]indicator.Config, error) {
	configs := append([]indicator.Config{}, s.Indicators()...)
	if rule := s.Resolution(); rule != nil {
		configs = append(configs, rule.Dependencies()...)
	}
	return indicator.Expand(configs...)
}

// Trigger is a candle on which a strategy fired, before any setup is built on it.
type Trigger struct {
	Index       int
	Orientation model.Orientation
}

// Triggers scans every candle of ts in order and collects where s fires.
func Triggers(ts *model.TimeSeries, s Strategy) ([]Trigger, error) {
	var triggers []Trigger
	for i := max(s.MinLength()-1, 0); i < ts.Len(); i++ {
		orientation, ok, err := s.Signal(ts, i)
		if err != nil {
			return nil, fmt.Errorf("%s at candle %d: %w", s.Name(), i, err)
		}
		if ok {
			triggers = append(triggers, Trigger{Index: i, Orientation: orientation})
		}
	}
	return triggers, nil
}

// FindSetups collects the setups s emits on ts.
func FindSetups(ts *model.TimeSeries, s Strategy) ([]setup.Setup, error) {
	triggers, err := Triggers(ts, s)
	if err != nil {
		return nil, err
	}

	var setups []setup.Setup
	for _, trigger := range triggers {
		found, ok, err := NewSetup(ts, s, trigger)
		if err != nil {
			return nil, err
		}
		if ok {
			setups = append(setups, found)
		}
	}
	return setups, nil
}

// CheckLast evaluates only the newest candle of ts.
func CheckLast(ts *model.TimeSeries, s Strategy) (setup.Setup, bool, error) {
	if ts.Len() < s.MinLength() || ts.Len() == 0 {
		return setup.Setup{}, false, nil
	}

	index := ts.Len() - 1
	orientation, ok, err := s.Signal(ts, index)
	if err != nil {
		return setup.Setup{}, false, fmt.Errorf("%s at candle %d: %w", s.Name(), index, err)
	}
	if !ok {
		return setup.Setup{}, false, nil
	}
	return NewSetup(ts, s, Trigger{Index: index, Orientation: orientation})
}

// NewSetup attaches the resolution rule of s to trigger. ok is false when the rule cannot
// be placed at that candle, either because its indicators are not computable yet or
// because the entry price falls outside its levels.
func NewSetup(ts *model.TimeSeries, s Strategy, trigger Trigger) (setup.Setup, bool, error) {
	found, err := setup.New(ts, trigger.Index, trigger.Orientation, s.Resolution())
	if errors.Is(err, resolution.ErrIndicatorNotReady) || errors.Is(err, resolution.ErrInvalidRule) {
		log.WithFields(log.Fields{
			"strategy": s.Name(),
			"ticker":   ts.Ticker,
			"index":    trigger.Index,
		}).WithError(err).Debug("setup skipped")
		return setup.Setup{}, false, nil
	}
	if err != nil {
		return setup.Setup{}, false, err
	}
	return found, true, nil
}
