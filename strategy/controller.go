package strategy

import (
	"context"
	"errors"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/series"
	"github.com/jibbril/setupbot/service"
	"github.com/jibbril/setupbot/setup"
	"github.com/jibbril/setupbot/tools/log"
	"github.com/jibbril/setupbot/tools/metrics"
)

// Controller feeds closed candles of one ticker into its series owner and checks the
// strategy on every new candle.
type Controller struct {
	strategy Strategy
	owner    *series.Owner
	notifier service.Notifier
	metrics  *metrics.Collector
	started  bool
}

func NewStrategyController(owner *series.Owner, strategy Strategy, notifier service.Notifier) *Controller {
	return &Controller{
		strategy: strategy,
		owner:    owner,
		notifier: notifier,
	}
}

func (c *Controller) WithMetrics(collector *metrics.Collector) *Controller {
	c.metrics = collector
	return c
}

// Start asks the owner to track the strategy's indicators. Candles received before
// Start only extend the history.
func (c *Controller) Start(ctx context.Context) error {
	configs, err := Requirements(c.strategy)
	if err != nil {
		return err
	}
	if err := c.owner.Track(ctx, configs...); err != nil {
		return err
	}
	c.started = true
	return nil
}

func (c *Controller) Strategy() Strategy {
	return c.strategy
}

// OnCandle appends a closed candle and notifies a setup when the strategy fires on it.
func (c *Controller) OnCandle(ctx context.Context, candle model.Candle) {
	if !candle.Complete {
		return
	}

	err := c.owner.Append(ctx, candle)
	if errors.Is(err, model.ErrDuplicateCandle) || errors.Is(err, model.ErrOutOfOrderCandle) {
		log.Errorf("late candle received: %s", candle)
		return
	}
	if err != nil {
		c.onError(err)
		return
	}

	if !c.started {
		return
	}

	found, ok, err := c.check(ctx)
	if err != nil {
		c.onError(err)
		return
	}
	if !ok {
		return
	}

	log.WithFields(log.Fields{
		"strategy":    c.strategy.Name(),
		"ticker":      found.Ticker,
		"orientation": found.Orientation,
		"price":       found.Candle.Close,
	}).Info("setup found")

	if c.metrics != nil {
		c.metrics.SetupsTotal.WithLabelValues(found.Ticker, c.strategy.Name(), string(found.Orientation)).Inc()
	}
	if c.notifier != nil {
		c.notifier.OnSetup(found)
	}
}

func (c *Controller) check(ctx context.Context) (setup.Setup, bool, error) {
	view, err := c.owner.Last(ctx, c.strategy.MinLength())
	if err != nil {
		return setup.Setup{}, false, err
	}
	return CheckLast(view, c.strategy)
}

func (c *Controller) onError(err error) {
	log.WithError(err).WithField("strategy", c.strategy.Name()).Error("strategy controller")
	if c.notifier != nil {
		c.notifier.OnError(err)
	}
}
