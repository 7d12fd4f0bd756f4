package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/tools/log"
	"github.com/jibbril/setupbot/tools/metrics"
)

// Binance is a candle Feeder backed by the Binance spot REST and websocket APIs.
type Binance struct {
	client     *binance.Client
	HeikinAshi bool
	Testnet    bool

	APIKey    string
	APISecret string

	metrics *metrics.Collector
}

type BinanceOption func(*Binance)

func WithBinanceCredentials(key, secret string) BinanceOption {
	return func(b *Binance) {
		b.APIKey = key
		b.APISecret = secret
	}
}

func WithBinanceHeikinAshiCandle() BinanceOption {
	return func(b *Binance) {
		b.HeikinAshi = true
	}
}

func WithTestNet() BinanceOption {
	return func(b *Binance) {
		b.Testnet = true
		binance.UseTestnet = true
	}
}

// WithBinanceMetrics counts websocket reconnections on collector.
func WithBinanceMetrics(collector *metrics.Collector) BinanceOption {
	return func(b *Binance) {
		b.metrics = collector
	}
}

func NewBinance(ctx context.Context, options ...BinanceOption) (*Binance, error) {
	binance.WebsocketKeepalive = true
	exchange := &Binance{}
	for _, option := range options {
		option(exchange)
	}

	exchange.client = binance.NewClient(exchange.APIKey, exchange.APISecret)
	if err := exchange.client.NewPingService().Do(ctx); err != nil {
		return nil, fmt.Errorf("binance ping fail: %w", err)
	}

	log.Info("[SETUP] Using Binance exchange")
	return exchange, nil
}

// CandlesSubscription streams klines of pair, reconnecting with backoff until ctx is done.
func (b *Binance) CandlesSubscription(ctx context.Context, pair, period string) (chan model.Candle, chan error) {
	ccandle := make(chan model.Candle)
	cerr := make(chan error)
	ha := model.NewHeikinAshi()

	go func() {
		defer close(ccandle)
		defer close(cerr)

		ba := &backoff.Backoff{
			Min: 100 * time.Millisecond,
			Max: 1 * time.Second,
		}

		for {
			done, stop, err := binance.WsKlineServe(pair, period, func(event *binance.WsKlineEvent) {
				ba.Reset()
				candle := CandleFromWsKline(pair, event.Kline)
				if candle.Complete && b.HeikinAshi {
					candle = candle.ToHeikinAshi(ha)
				}

				select {
				case ccandle <- candle:
				case <-ctx.Done():
				}
			}, func(err error) {
				select {
				case cerr <- err:
				case <-ctx.Done():
				}
			})
			if err != nil {
				select {
				case cerr <- err:
				case <-ctx.Done():
				}
				return
			}

			select {
			case <-ctx.Done():
				close(stop)
				return
			case <-done:
				wait := ba.Duration()
				log.WithField("pair", pair).Warnf("websocket closed, reconnecting in %s", wait)
				if b.metrics != nil {
					b.metrics.FeedReconnects.Inc()
				}
				time.Sleep(wait)
			}
		}
	}()

	return ccandle, cerr
}

// CandlesByLimit returns the last limit closed candles of pair.
func (b *Binance) CandlesByLimit(ctx context.Context, pair, period string, limit int) ([]model.Candle, error) {
	candles := make([]model.Candle, 0)
	ha := model.NewHeikinAshi()

	// one more kline since the newest one is still open
	data, err := b.client.NewKlinesService().
		Symbol(pair).
		Interval(period).
		Limit(limit + 1).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	for _, d := range data {
		candle := CandleFromKline(pair, *d)
		if b.HeikinAshi {
			candle = candle.ToHeikinAshi(ha)
		}
		candles = append(candles, candle)
	}
	if len(candles) == 0 {
		return candles, nil
	}
	return candles[:len(candles)-1], nil
}

func (b *Binance) CandlesByPeriod(ctx context.Context, pair, period string,
	start, end time.Time) ([]model.Candle, error) {
	candles := make([]model.Candle, 0)
	ha := model.NewHeikinAshi()

	data, err := b.client.NewKlinesService().
		Symbol(pair).
		Interval(period).
		StartTime(start.UnixNano() / int64(time.Millisecond)).
		EndTime(end.UnixNano() / int64(time.Millisecond)).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	for _, d := range data {
		candle := CandleFromKline(pair, *d)
		if b.HeikinAshi {
			candle = candle.ToHeikinAshi(ha)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func CandleFromKline(pair string, k binance.Kline) model.Candle {
	t := time.Unix(0, k.OpenTime*int64(time.Millisecond)).UTC()
	candle := model.Candle{Pair: pair, Time: t, UpdatedAt: t}
	candle.Open, _ = strconv.ParseFloat(k.Open, 64)
	candle.Close, _ = strconv.ParseFloat(k.Close, 64)
	candle.High, _ = strconv.ParseFloat(k.High, 64)
	candle.Low, _ = strconv.ParseFloat(k.Low, 64)
	candle.Volume, _ = strconv.ParseFloat(k.Volume, 64)
	candle.Complete = true
	return candle
}

func CandleFromWsKline(pair string, k binance.WsKline) model.Candle {
	t := time.Unix(0, k.StartTime*int64(time.Millisecond)).UTC()
	candle := model.Candle{Pair: pair, Time: t, UpdatedAt: time.Unix(0, k.EndTime*int64(time.Millisecond)).UTC()}
	candle.Open, _ = strconv.ParseFloat(k.Open, 64)
	candle.Close, _ = strconv.ParseFloat(k.Close, 64)
	candle.High, _ = strconv.ParseFloat(k.High, 64)
	candle.Low, _ = strconv.ParseFloat(k.Low, 64)
	candle.Volume, _ = strconv.ParseFloat(k.Volume, 64)
	candle.Complete = k.IsFinal
	return candle
}
