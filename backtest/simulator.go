// Package backtest replays the setups of a strategy over a historical series and
// aggregates their outcomes.
package backtest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/resolution"
	"github.com/jibbril/setupbot/setup"
	"github.com/jibbril/setupbot/strategy"
	"github.com/jibbril/setupbot/tools/log"
)

const (
	DefaultMaxBars        = 500
	DefaultInitialBalance = 1000
	DefaultPositionSize   = 1
)

type Simulator struct {
	// MaxBars caps how many bars a setup is followed before it is dropped.
	MaxBars        int
	InitialBalance float64
	// PositionSize is the fraction of the balance committed to each setup.
	PositionSize float64
	// Progress receives a progress bar when set.
	Progress io.Writer
}

type Option func(*Simulator)

func WithMaxBars(bars int) Option {
	return func(s *Simulator) {
		s.MaxBars = bars
	}
}

func WithBalance(initialBalance, positionSize float64) Option {
	return func(s *Simulator) {
		s.InitialBalance = initialBalance
		s.PositionSize = positionSize
	}
}

func WithProgress(w io.Writer) Option {
	return func(s *Simulator) {
		s.Progress = w
	}
}

func NewSimulator(options ...Option) *Simulator {
	simulator := &Simulator{
		MaxBars:        DefaultMaxBars,
		InitialBalance: DefaultInitialBalance,
		PositionSize:   DefaultPositionSize,
	}
	for _, option := range options {
		option(simulator)
	}
	return simulator
}

// Run populates what s needs on ts, then simulates every setup s finds. Setups that
// start before the previous outcome resolved are suppressed.
func (sim *Simulator) Run(ts *model.TimeSeries, s strategy.Strategy) (Result, error) {
	configs, err := strategy.Requirements(s)
	if err != nil {
		return Result{}, err
	}
	if err := indicator.Populate(ts, configs...); err != nil {
		return Result{}, err
	}
	return sim.run(context.Background(), ts, s, true)
}

// RunAll populates every strategy's indicators on ts, then runs the strategies
// concurrently. Results keep the order of strategies.
func (sim *Simulator) RunAll(ctx context.Context, ts *model.TimeSeries, strategies ...strategy.Strategy) ([]Result, error) {
	var configs []indicator.Config
	for _, s := range strategies {
		required, err := strategy.Requirements(s)
		if err != nil {
			return nil, err
		}
		configs = append(configs, required...)
	}
	if err := indicator.Populate(ts, configs...); err != nil {
		return nil, err
	}

	var (
		wg      sync.WaitGroup
		results = make([]Result, len(strategies))
		errs    = make([]error, len(strategies))
		bar     = sim.progress("backtest", len(strategies))
	)

	for i, s := range strategies {
		wg.Add(1)
		go func(i int, s strategy.Strategy) {
			defer wg.Done()
			results[i], errs[i] = sim.run(ctx, ts, s, false)
			if bar != nil {
				if err := bar.Add(1); err != nil {
					log.Warnf("update progressbar fail: %v", err)
				}
			}
		}(i, s.Clone())
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strategies[i].Name(), err)
		}
	}
	return results, nil
}

func (sim *Simulator) progress(description string, total int) *progressbar.ProgressBar {
	if sim.Progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(sim.Progress),
		progressbar.OptionSetDescription(description),
	)
}

// run only reads ts, which is already populated.
func (sim *Simulator) run(ctx context.Context, ts *model.TimeSeries, s strategy.Strategy, showProgress bool) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	triggers, err := strategy.Triggers(ts, s)
	if err != nil {
		return Result{}, err
	}

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = sim.progress(s.Name(), len(triggers))
	}

	accumulator := NewAccumulator(s.Name(), ts.Ticker, ts.Interval, sim.InitialBalance, sim.PositionSize)
	resolvedAt := -1
	for _, trigger := range triggers {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if bar != nil {
			if err := bar.Add(1); err != nil {
				log.Warnf("update progressbar fail: %v", err)
			}
		}

		accumulator.Found()
		if trigger.Index <= resolvedAt {
			accumulator.Suppress()
			continue
		}

		found, ok, err := strategy.NewSetup(ts, s, trigger)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			accumulator.Drop()
			continue
		}

		outcome, ok, err := sim.resolve(ts, found)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			log.WithFields(log.Fields{
				"strategy": s.Name(),
				"ticker":   ts.Ticker,
				"index":    found.Index,
			}).Debug("setup dropped, unresolved")
			accumulator.Drop()
			continue
		}

		accumulator.Add(outcome)
		resolvedAt = outcome.ExitIndex
	}
	return accumulator.Result(), nil
}

// resolve follows found bar by bar. The stop-loss is checked before the take-profit on
// every bar. ok is false when neither fires within MaxBars or before the series ends.
func (sim *Simulator) resolve(ts *model.TimeSeries, found setup.Setup) (Outcome, bool, error) {
	rule := found.Resolution
	entry := found.Candle.Close

	for bars := 1; bars <= sim.MaxBars; bars++ {
		index := found.Index + bars
		if index >= ts.Len() {
			break
		}

		stop, err := reached(ts, index, rule.StopLossCandles(), func(window []model.Candle) (bool, error) {
			return rule.StopLossReached(found.Orientation, window)
		})
		if err != nil {
			return Outcome{}, false, err
		}
		take := false
		if !stop {
			take, err = reached(ts, index, rule.TakeProfitCandles(), func(window []model.Candle) (bool, error) {
				return rule.TakeProfitReached(found.Orientation, window)
			})
			if err != nil {
				return Outcome{}, false, err
			}
		}
		if !stop && !take {
			continue
		}

		exit := ts.Candles[index]
		return Outcome{
			Setup:     found,
			Win:       take,
			Return:    resolution.Return(found.Orientation, entry, exit.Close),
			Bars:      bars,
			ExitIndex: index,
			Exit:      exit,
		}, true, nil
	}
	return Outcome{}, false, nil
}

// reached evaluates check on the size candles ending at index. A window reaching before
// the start of the series never fires.
func reached(ts *model.TimeSeries, index, size int, check func([]model.Candle) (bool, error)) (bool, error) {
	window := ts.Window(index, max(size, 1))
	if window == nil {
		return false, nil
	}
	hit, err := check(window)
	if err != nil {
		return false, fmt.Errorf("candle %d: %w", index, err)
	}
	return hit, nil
}
