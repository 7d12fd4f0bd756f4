package resolution

import (
	"fmt"

	"github.com/jibbril/setupbot/indicator"
	"github.com/jibbril/setupbot/model"
)

// Composite resolves as soon as either of its rules does.
type Composite struct {
	First  Strategy
	Second Strategy

	initialized bool
}

func NewComposite(first, second Strategy) *Composite {
	return &Composite{First: first, Second: second}
}

func (c *Composite) Initialize(entry model.Candle, o model.Orientation) error {
	if c.initialized {
		return ErrAlreadyInitialized
	}
	if c.First == nil || c.Second == nil {
		return fmt.Errorf("%w: composite needs two rules", ErrInvalidRule)
	}
	if err := c.First.Initialize(entry, o); err != nil {
		return fmt.Errorf("first rule %s: %w", c.First, err)
	}
	if err := c.Second.Initialize(entry, o); err != nil {
		return fmt.Errorf("second rule %s: %w", c.Second, err)
	}
	c.initialized = true
	return nil
}

func (c *Composite) StopLossCandles() int {
	return max(c.First.StopLossCandles(), c.Second.StopLossCandles())
}

func (c *Composite) TakeProfitCandles() int {
	return max(c.First.TakeProfitCandles(), c.Second.TakeProfitCandles())
}

func (c *Composite) StopLossReached(o model.Orientation, window []model.Candle) (bool, error) {
	if !c.initialized {
		return false, ErrNotInitialized
	}
	for _, rule := range []Strategy{c.First, c.Second} {
		hit, err := rule.StopLossReached(o, tail(window, rule.StopLossCandles()))
		if err != nil || hit {
			return hit, err
		}
	}
	return false, nil
}

func (c *Composite) TakeProfitReached(o model.Orientation, window []model.Candle) (bool, error) {
	if !c.initialized {
		return false, ErrNotInitialized
	}
	for _, rule := range []Strategy{c.First, c.Second} {
		hit, err := rule.TakeProfitReached(o, tail(window, rule.TakeProfitCandles()))
		if err != nil || hit {
			return hit, err
		}
	}
	return false, nil
}

// Levels prefers the levels of the first rule and fills the gaps from the second.
func (c *Composite) Levels() Levels {
	levels := c.First.Levels()
	second := c.Second.Levels()
	if !levels.HasStopLoss && second.HasStopLoss {
		levels.StopLoss, levels.HasStopLoss = second.StopLoss, true
	}
	if !levels.HasTakeProfit && second.HasTakeProfit {
		levels.TakeProfit, levels.HasTakeProfit = second.TakeProfit, true
	}
	return levels
}

func (c *Composite) Dependencies() []indicator.Config {
	return append(c.First.Dependencies(), c.Second.Dependencies()...)
}

func (c *Composite) Clone() Strategy {
	return &Composite{First: c.First.Clone(), Second: c.Second.Clone(), initialized: c.initialized}
}

func (c *Composite) String() string {
	return fmt.Sprintf("composite(%s,%s)", c.First, c.Second)
}

func (c *Composite) resolution() {}

func tail(window []model.Candle, size int) []model.Candle {
	if len(window) <= size {
		return window
	}
	return window[len(window)-size:]
}
