// Package exchange holds the candle sources of the bot and the fan-out of their feeds.
package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/StudioSol/set"
	"github.com/xhit/go-str2duration/v2"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/service"
	"github.com/jibbril/setupbot/tools/log"
)

type DataFeed struct {
	Data chan model.Candle
	Err  chan error
}

// DataFeedSubscription fans the candle streams of a Feeder out to their consumers. Feeds
// are connected in subscription order.
type DataFeedSubscription struct {
	feeder                  service.Feeder
	Feeds                   *set.LinkedHashSetString
	DataFeeds               map[string]*DataFeed
	SubscriptionsByDataFeed map[string][]Subscription
}

type Subscription struct {
	onCandleClose bool
	consumer      DataFeedConsumer
}

type DataFeedConsumer func(model.Candle)

func NewDataFeed(feeder service.Feeder) *DataFeedSubscription {
	return &DataFeedSubscription{
		feeder:                  feeder,
		Feeds:                   set.NewLinkedHashSetString(),
		DataFeeds:               make(map[string]*DataFeed),
		SubscriptionsByDataFeed: make(map[string][]Subscription),
	}
}

func (d *DataFeedSubscription) feedKey(pair, timeframe string) string {
	return fmt.Sprintf("%s--%s", pair, timeframe)
}

func (d *DataFeedSubscription) pairTimeframeFromKey(key string) (pair, timeframe string) {
	parts := strings.Split(key, "--")
	return parts[0], parts[1]
}

// Subscribe registers consumer for the candles of pair. With onCandleClose set the
// consumer only receives closed candles.
func (d *DataFeedSubscription) Subscribe(pair, timeframe string, consumer DataFeedConsumer, onCandleClose bool) {
	key := d.feedKey(pair, timeframe)
	d.Feeds.Add(key)
	d.SubscriptionsByDataFeed[key] = append(d.SubscriptionsByDataFeed[key], Subscription{
		onCandleClose: onCandleClose,
		consumer:      consumer,
	})
}

// Preload hands historical closed candles to every consumer of the feed.
func (d *DataFeedSubscription) Preload(pair, timeframe string, candles []model.Candle) {
	log.Infof("[SETUP] preloading %d candles for %s-%s", len(candles), pair, timeframe)
	key := d.feedKey(pair, timeframe)
	for _, candle := range candles {
		if !candle.Complete {
			continue
		}
		for _, subscription := range d.SubscriptionsByDataFeed[key] {
			subscription.consumer(candle)
		}
	}
}

func (d *DataFeedSubscription) Connect(ctx context.Context) {
	log.Infof("Connecting to the exchange.")
	for feed := range d.Feeds.Iter() {
		pair, timeframe := d.pairTimeframeFromKey(feed)
		ccandle, cerr := d.feeder.CandlesSubscription(ctx, pair, timeframe)
		d.DataFeeds[feed] = &DataFeed{
			Data: ccandle,
			Err:  cerr,
		}
	}
}

// Start connects every feed and dispatches candles until the feeds close. With loadSync
// set it blocks until then.
func (d *DataFeedSubscription) Start(ctx context.Context, loadSync bool) {
	d.Connect(ctx)
	wg := new(sync.WaitGroup)
	for key, feed := range d.DataFeeds {
		wg.Add(1)
		go func(key string, feed *DataFeed) {
			defer wg.Done()
			_, timeframe := d.pairTimeframeFromKey(key)
			gaps := newGapDetector(key, timeframe)

			for {
				select {
				case candle, ok := <-feed.Data:
					if !ok {
						return
					}
					if candle.Complete {
						gaps.check(candle)
					}
					for _, subscription := range d.SubscriptionsByDataFeed[key] {
						if subscription.onCandleClose && !candle.Complete {
							continue
						}
						subscription.consumer(candle)
					}
				case err, ok := <-feed.Err:
					if !ok {
						feed.Err = nil
						continue
					}
					if err != nil {
						log.Error("dataFeedSubscription/start: ", err)
					}
				}
			}
		}(key, feed)
	}

	log.Infof("Data feed connected.")
	if loadSync {
		wg.Wait()
	}
}

// gapDetector warns when consecutive closed candles are further apart than the timeframe.
type gapDetector struct {
	key      string
	period   time.Duration
	previous time.Time
}

func newGapDetector(key, timeframe string) *gapDetector {
	period, err := str2duration.ParseDuration(timeframe)
	if err != nil {
		log.Warnf("%s: unknown timeframe %q, gap detection disabled", key, timeframe)
	}
	return &gapDetector{key: key, period: period}
}

func (g *gapDetector) check(candle model.Candle) {
	if g.period > 0 && !g.previous.IsZero() && candle.Time.Sub(g.previous) > g.period {
		missing := int(candle.Time.Sub(g.previous)/g.period) - 1
		log.WithField("feed", g.key).Warnf("%d missing candles before %s", missing, candle.Time)
	}
	g.previous = candle.Time
}
