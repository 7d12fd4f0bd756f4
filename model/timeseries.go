package model

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateCandle  = errors.New("duplicate candle")
	ErrOutOfOrderCandle = errors.New("out of order candle")
)

// TimeSeries is the ordered candle history of one ticker and interval together with
// the indicator results cached on each candle.
type TimeSeries struct {
	Ticker   string
	Interval string
	Candles  []Candle

	// MaxLength caps the retained history for streaming use. Zero keeps everything.
	MaxLength int

	populated map[IndicatorType]struct{}
	order     []IndicatorType
}

func NewTimeSeries(ticker, interval string, candles ...Candle) (*TimeSeries, error) {
	ts := &TimeSeries{
		Ticker:    ticker,
		Interval:  interval,
		populated: make(map[IndicatorType]struct{}),
	}
	if err := ts.AddCandles(candles...); err != nil {
		return nil, err
	}
	return ts, nil
}

// AddCandles appends an ordered batch. The whole batch is validated before the series
// is touched, so a rejected batch leaves the series unchanged.
func (ts *TimeSeries) AddCandles(candles ...Candle) error {
	if err := ts.Validate(candles...); err != nil {
		return err
	}

	for _, candle := range candles {
		ts.Candles = append(ts.Candles, candle.Clone())
	}

	if ts.MaxLength > 0 && len(ts.Candles) > ts.MaxLength {
		ts.Candles = ts.Candles[len(ts.Candles)-ts.MaxLength:]
	}
	return nil
}

// Validate checks that candles are strictly increasing in time and newer than the
// last candle of the series.
func (ts *TimeSeries) Validate(candles ...Candle) error {
	last, hasLast := ts.Last()
	for i, candle := range candles {
		if hasLast {
			if candle.Time.Equal(last.Time) {
				return fmt.Errorf("%s-%s candle %d at %s: %w", ts.Ticker, ts.Interval, i, candle.Time, ErrDuplicateCandle)
			}
			if candle.Time.Before(last.Time) {
				return fmt.Errorf("%s-%s candle %d at %s: %w", ts.Ticker, ts.Interval, i, candle.Time, ErrOutOfOrderCandle)
			}
		}
		last, hasLast = candle, true
	}
	return nil
}

func (ts *TimeSeries) Len() int {
	return len(ts.Candles)
}

func (ts *TimeSeries) Last() (Candle, bool) {
	if len(ts.Candles) == 0 {
		return Candle{}, false
	}
	return ts.Candles[len(ts.Candles)-1], true
}

// LastN returns up to n of the most recent candles. The slice shares storage with the series.
func (ts *TimeSeries) LastN(n int) []Candle {
	if n >= len(ts.Candles) {
		return ts.Candles
	}
	return ts.Candles[len(ts.Candles)-n:]
}

// Window returns the size candles ending at index end (inclusive), or nil when the
// window does not fit inside the series.
func (ts *TimeSeries) Window(end, size int) []Candle {
	start := end - size + 1
	if size <= 0 || start < 0 || end >= len(ts.Candles) {
		return nil
	}
	return ts.Candles[start : end+1]
}

func (ts *TimeSeries) IsPopulated(t IndicatorType) bool {
	_, ok := ts.populated[t]
	return ok
}

func (ts *TimeSeries) MarkPopulated(t IndicatorType) {
	if ts.populated == nil {
		ts.populated = make(map[IndicatorType]struct{})
	}
	if _, ok := ts.populated[t]; ok {
		return
	}
	ts.populated[t] = struct{}{}
	ts.order = append(ts.order, t)
}

// Populated lists the populated indicator types in the order they were populated.
func (ts *TimeSeries) Populated() []IndicatorType {
	return append([]IndicatorType(nil), ts.order...)
}

func (ts *TimeSeries) Closes() Series[float64] {
	closes := make(Series[float64], len(ts.Candles))
	for i, candle := range ts.Candles {
		closes[i] = candle.Close
	}
	return closes
}

// Clone deep-copies the series, including every candle's indicator cache.
func (ts *TimeSeries) Clone() *TimeSeries {
	return ts.CloneLast(len(ts.Candles))
}

// CloneLast deep-copies the newest n candles together with the populated set.
func (ts *TimeSeries) CloneLast(n int) *TimeSeries {
	candles := ts.LastN(n)
	clone := &TimeSeries{
		Ticker:    ts.Ticker,
		Interval:  ts.Interval,
		MaxLength: ts.MaxLength,
		Candles:   make([]Candle, len(candles)),
		populated: make(map[IndicatorType]struct{}, len(ts.populated)),
		order:     append([]IndicatorType(nil), ts.order...),
	}
	for i, candle := range candles {
		clone.Candles[i] = candle.Clone()
	}
	for key := range ts.populated {
		clone.populated[key] = struct{}{}
	}
	return clone
}
