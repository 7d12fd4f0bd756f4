package service

import (
	"context"
	"time"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/setup"
)

//go:generate mockery --name "(Feeder|Notifier)" --output=mocks --outpkg=mocks

// Feeder is a source of candles.
type Feeder interface {
	CandlesByPeriod(ctx context.Context, pair, period string, start, end time.Time) ([]model.Candle, error)
	CandlesByLimit(ctx context.Context, pair, period string, limit int) ([]model.Candle, error)
	CandlesSubscription(ctx context.Context, pair, timeframe string) (chan model.Candle, chan error)
}

type Notifier interface {
	Notify(string)
	OnSetup(s setup.Setup)
	OnError(err error)
}

type Telegram interface {
	Notifier
	Start()
}
