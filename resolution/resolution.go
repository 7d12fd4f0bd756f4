// Package resolution holds the rules that decide when a trade setup has hit its
// stop-loss or its take-profit.
package resolution

import (
	"errors"
	"fmt"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
)

var (
	ErrNotInitialized     = errors.New("resolution strategy not initialized")
	ErrAlreadyInitialized = errors.New("resolution strategy already initialized")
	ErrIndicatorNotReady  = errors.New("indicator not computable at entry")
	ErrInvalidRule        = errors.New("invalid resolution rule")
	ErrShortWindow        = errors.New("window shorter than required")
)

// Levels are the price levels a rule settled on at entry. Rules that do not work with
// prices leave the Has flags unset.
type Levels struct {
	StopLoss      float64
	TakeProfit    float64
	HasStopLoss   bool
	HasTakeProfit bool
}

// Strategy decides when a setup resolves. Initialize captures the entry state and must
// run exactly once before the checks. The checks receive the trailing candles ending at
// the bar under evaluation, at least StopLossCandles or TakeProfitCandles of them.
type Strategy interface {
	StopLossCandles() int
	TakeProfitCandles() int
	StopLossReached(o model.Orientation, window []model.Candle) (bool, error)
	TakeProfitReached(o model.Orientation, window []model.Candle) (bool, error)
	Initialize(entry model.Candle, o model.Orientation) error
	Levels() Levels
	// Dependencies lists the indicators that must be populated on the series.
	Dependencies() []indicator.Config
	Clone() Strategy
	String() string

	resolution()
}

// entryState is the shared bookkeeping of the price based rules.
type entryState struct {
	initialized bool
	entry       model.Candle
	orientation model.Orientation
	levels      Levels
}

func (s *entryState) begin(entry model.Candle, o model.Orientation) error {
	if s.initialized {
		return ErrAlreadyInitialized
	}
	if o != model.OrientationLong && o != model.OrientationShort {
		return fmt.Errorf("%w: unknown orientation %q", ErrInvalidRule, o)
	}
	s.entry = entry
	s.orientation = o
	return nil
}

func (s *entryState) settle(levels Levels) {
	s.levels = levels
	s.initialized = true
}

func (s *entryState) ready(window []model.Candle, size int) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if len(window) < size {
		return fmt.Errorf("%w: got %d candles, need %d", ErrShortWindow, len(window), size)
	}
	return nil
}

// stopHit compares the last close of window with the stop level.
func (s *entryState) stopHit(o model.Orientation, window []model.Candle) (bool, error) {
	if err := s.ready(window, 1); err != nil {
		return false, err
	}
	price := window[len(window)-1].Close
	if o == model.OrientationShort {
		return price >= s.levels.StopLoss, nil
	}
	return price <= s.levels.StopLoss, nil
}

func (s *entryState) takeHit(o model.Orientation, window []model.Candle) (bool, error) {
	if err := s.ready(window, 1); err != nil {
		return false, err
	}
	price := window[len(window)-1].Close
	if o == model.OrientationShort {
		return price <= s.levels.TakeProfit, nil
	}
	return price >= s.levels.TakeProfit, nil
}

// band places the stop distance below and the take distance above entry for long setups,
// mirrored for short ones.
func band(entry float64, o model.Orientation, stopDistance, takeDistance float64) Levels {
	sign := o.Sign()
	return Levels{
		StopLoss:      entry - sign*stopDistance,
		TakeProfit:    entry + sign*takeDistance,
		HasStopLoss:   true,
		HasTakeProfit: true,
	}
}

// Return is the signed percentage move from entry to exit in the direction of o.
func Return(o model.Orientation, entry, exit float64) float64 {
	if entry == 0 {
		return 0
	}
	return o.Sign() * (exit - entry) / entry * 100
}
