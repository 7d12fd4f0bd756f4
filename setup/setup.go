// Package setup defines the trade signal a strategy emits.
package setup

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/resolution"
)

var ErrNoResolution = errors.New("setup without resolution strategy")

// Setup is a trade signal bound to one candle. It is not modified after creation.
type Setup struct {
	ID          uuid.UUID
	Candle      model.Candle
	Index       int
	Ticker      string
	Interval    string
	Orientation model.Orientation
	Resolution  resolution.Strategy
}

// New snapshots the candle at index of ts and attaches an initialized copy of rule.
func New(ts *model.TimeSeries, index int, o model.Orientation, rule resolution.Strategy) (Setup, error) {
	if rule == nil {
		return Setup{}, ErrNoResolution
	}
	if index < 0 || index >= ts.Len() {
		return Setup{}, fmt.Errorf("setup index %d out of range [0,%d)", index, ts.Len())
	}

	candle := ts.Candles[index].Clone()
	attached := rule.Clone()
	if err := attached.Initialize(candle, o); err != nil {
		return Setup{}, fmt.Errorf("%s %s setup at %s: %w", ts.Ticker, o, candle.Time, err)
	}

	return Setup{
		ID:          uuid.New(),
		Candle:      candle,
		Index:       index,
		Ticker:      ts.Ticker,
		Interval:    ts.Interval,
		Orientation: o,
		Resolution:  attached,
	}, nil
}

func (s Setup) String() string {
	levels := s.Resolution.Levels()
	text := fmt.Sprintf("%s %s %s at %s | entry %f", s.Ticker, s.Interval, s.Orientation,
		s.Candle.Time.Format("2006-01-02 15:04"), s.Candle.Close)
	if levels.HasStopLoss {
		text += fmt.Sprintf(" | stop %f", levels.StopLoss)
	}
	if levels.HasTakeProfit {
		text += fmt.Sprintf(" | take %f", levels.TakeProfit)
	}
	return text + " | " + s.Resolution.String()
}

// Event is the serializable form of a setup used by notifiers.
type Event struct {
	ID          string  `json:"id"`
	Ticker      string  `json:"ticker"`
	Interval    string  `json:"interval"`
	Orientation string  `json:"orientation"`
	Time        int64   `json:"time"`
	Price       float64 `json:"price"`
	StopLoss    float64 `json:"stop_loss,omitempty"`
	TakeProfit  float64 `json:"take_profit,omitempty"`
	Resolution  string  `json:"resolution"`
}

func (s Setup) Event() Event {
	levels := s.Resolution.Levels()
	event := Event{
		ID:          s.ID.String(),
		Ticker:      s.Ticker,
		Interval:    s.Interval,
		Orientation: string(s.Orientation),
		Time:        s.Candle.Time.Unix(),
		Price:       s.Candle.Close,
		Resolution:  s.Resolution.String(),
	}
	if levels.HasStopLoss {
		event.StopLoss = levels.StopLoss
	}
	if levels.HasTakeProfit {
		event.TakeProfit = levels.TakeProfit
	}
	return event
}
