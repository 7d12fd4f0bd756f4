// Package series runs the single goroutine that owns a live TimeSeries. Every read and
// write goes through it as a message, so a reader never observes a candle whose
// indicators are only partly updated.
package series

import (
	"context"
	"errors"
	"time"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/tools/log"
	"github.com/jibbril/setupbot/tools/metrics"
)

var ErrOwnerStopped = errors.New("series owner stopped")

type appendRequest struct {
	candles []model.Candle
	reply   chan error
}

type lastRequest struct {
	n     int
	reply chan *model.TimeSeries
}

type trackRequest struct {
	configs []indicator.Config
	reply   chan error
}

type Option func(*Owner)

// WithMetrics reports appends and population timings to collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *Owner) {
		o.metrics = collector
	}
}

// WithIndicators tracks configs from the start.
func WithIndicators(configs ...indicator.Config) Option {
	return func(o *Owner) {
		o.pending = append(o.pending, configs...)
	}
}

type Owner struct {
	ts      *model.TimeSeries
	tracked []indicator.Config
	pending []indicator.Config
	metrics *metrics.Collector

	appends chan appendRequest
	lasts   chan lastRequest
	tracks  chan trackRequest
	done    chan struct{}
}

// NewOwner takes exclusive ownership of ts. The caller must not touch ts afterwards.
func NewOwner(ts *model.TimeSeries, options ...Option) *Owner {
	owner := &Owner{
		ts:      ts,
		appends: make(chan appendRequest),
		lasts:   make(chan lastRequest),
		tracks:  make(chan trackRequest),
		done:    make(chan struct{}),
	}
	for _, option := range options {
		option(owner)
	}
	return owner
}

// Start populates the initial indicators and launches the worker. The worker stops when
// ctx is cancelled.
func (o *Owner) Start(ctx context.Context) error {
	if err := o.track(o.pending); err != nil {
		return err
	}
	o.pending = nil
	go o.run(ctx)
	return nil
}

// Done is closed once the worker stopped.
func (o *Owner) Done() <-chan struct{} {
	return o.done
}

func (o *Owner) run(ctx context.Context) {
	defer close(o.done)
	for {
		select {
		case <-ctx.Done():
			return
		case request := <-o.appends:
			request.reply <- o.append(request.candles)
		case request := <-o.lasts:
			request.reply <- o.last(request.n)
		case request := <-o.tracks:
			request.reply <- o.track(request.configs)
		}
	}
}

func (o *Owner) append(candles []model.Candle) error {
	if err := o.ts.Validate(candles...); err != nil {
		if o.metrics != nil {
			o.metrics.LateCandles.WithLabelValues(o.ts.Ticker, o.ts.Interval).Inc()
		}
		return err
	}

	// the batch is built on a copy so a failure leaves the owned series as it was
	next := o.ts.Clone()
	durations := make([]time.Duration, 0, len(candles))
	for _, candle := range candles {
		if err := next.AddCandles(candle); err != nil {
			return err
		}

		start := time.Now()
		if err := indicator.PopulateLatest(next, o.tracked...); err != nil {
			return err
		}
		durations = append(durations, time.Since(start))
	}
	o.ts = next

	if o.metrics != nil {
		for _, duration := range durations {
			o.metrics.PopulateDuration.Observe(duration.Seconds())
			o.metrics.CandlesTotal.WithLabelValues(o.ts.Ticker, o.ts.Interval).Inc()
		}
		o.metrics.SeriesLength.WithLabelValues(o.ts.Ticker, o.ts.Interval).Set(float64(o.ts.Len()))
	}
	return nil
}

// last copies the newest n candles, or every candle when n is not positive.
func (o *Owner) last(n int) *model.TimeSeries {
	if n <= 0 {
		return o.ts.Clone()
	}
	return o.ts.CloneLast(n)
}

func (o *Owner) track(configs []indicator.Config) error {
	expanded, err := indicator.Expand(configs...)
	if err != nil {
		return err
	}
	if err := indicator.Populate(o.ts, expanded...); err != nil {
		return err
	}

	known := make(map[string]bool, len(o.tracked))
	for _, config := range o.tracked {
		known[config.String()] = true
	}
	for _, config := range expanded {
		if !known[config.String()] {
			o.tracked = append(o.tracked, config)
			known[config.String()] = true
		}
	}

	log.WithFields(log.Fields{
		"ticker":     o.ts.Ticker,
		"interval":   o.ts.Interval,
		"indicators": len(o.tracked),
	}).Debug("tracking indicators")
	return nil
}

// Append adds an ordered batch of candles and updates every tracked indicator for each
// of them before returning. A batch that is not strictly newer than the series is
// rejected as a whole.
func (o *Owner) Append(ctx context.Context, candles ...model.Candle) error {
	reply := make(chan error, 1)
	if err := send(ctx, o, o.appends, appendRequest{candles: candles, reply: reply}); err != nil {
		return err
	}
	return receive(ctx, reply)
}

// Last returns a deep copy of the newest n candles as a series of their own.
func (o *Owner) Last(ctx context.Context, n int) (*model.TimeSeries, error) {
	reply := make(chan *model.TimeSeries, 1)
	if err := send(ctx, o, o.lasts, lastRequest{n: n, reply: reply}); err != nil {
		return nil, err
	}
	return receiveValue(ctx, reply)
}

// Snapshot returns a deep copy of the whole series.
func (o *Owner) Snapshot(ctx context.Context) (*model.TimeSeries, error) {
	return o.Last(ctx, 0)
}

// Track populates configs, and their dependencies, over the held history and keeps
// them updated on every append.
func (o *Owner) Track(ctx context.Context, configs ...indicator.Config) error {
	reply := make(chan error, 1)
	if err := send(ctx, o, o.tracks, trackRequest{configs: configs, reply: reply}); err != nil {
		return err
	}
	return receive(ctx, reply)
}

func send[T any](ctx context.Context, o *Owner, ch chan<- T, request T) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-o.done:
		return ErrOwnerStopped
	case ch <- request:
		return nil
	}
}

func receive(ctx context.Context, reply <-chan error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-reply:
		return err
	}
}

func receiveValue[T any](ctx context.Context, reply <-chan T) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case value := <-reply:
		return value, nil
	}
}
