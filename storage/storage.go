// Package storage persists candles and emitted setups for the command line tools.
package storage

import (
	"time"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/setup"
)

type CandleFilter func(model.Candle) bool

type SetupFilter func(setup.Event) bool

type Storage interface {
	// SaveCandles stores candles of one timeframe, replacing candles at the same time.
	SaveCandles(timeframe string, candles ...model.Candle) error
	// Candles returns the stored candles of pair ordered by time.
	Candles(pair, timeframe string, filters ...CandleFilter) ([]model.Candle, error)
	SaveSetup(event setup.Event) error
	// Setups returns the stored setups ordered by candle time.
	Setups(filters ...SetupFilter) ([]setup.Event, error)
}

// WithPeriod keeps candles opened between start and end, both inclusive.
func WithPeriod(start, end time.Time) CandleFilter {
	return func(candle model.Candle) bool {
		return !candle.Time.Before(start) && !candle.Time.After(end)
	}
}

func WithTimeBeforeOrEqual(t time.Time) CandleFilter {
	return func(candle model.Candle) bool {
		return !candle.Time.After(t)
	}
}

func WithTicker(ticker string) SetupFilter {
	return func(event setup.Event) bool {
		return event.Ticker == ticker
	}
}

func WithOrientation(orientations ...model.Orientation) SetupFilter {
	return func(event setup.Event) bool {
		for _, o := range orientations {
			if string(o) == event.Orientation {
				return true
			}
		}
		return false
	}
}

func matchCandle(candle model.Candle, filters []CandleFilter) bool {
	for _, filter := range filters {
		if !filter(candle) {
			return false
		}
	}
	return true
}

func matchSetup(event setup.Event, filters []SetupFilter) bool {
	for _, filter := range filters {
		if !filter(event) {
			return false
		}
	}
	return true
}
