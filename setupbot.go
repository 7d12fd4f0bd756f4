// Package setupbot wires feeds, live series, strategies and notifiers into a bot that
// watches tickers and reports trade setups.
package setupbot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jibbril/setupbot/exchange"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/notification"
	"github.com/jibbril/setupbot/series"
	"github.com/jibbril/setupbot/service"
	"github.com/jibbril/setupbot/setup"
	"github.com/jibbril/setupbot/storage"
	"github.com/jibbril/setupbot/strategy"
	"github.com/jibbril/setupbot/tools/log"
	"github.com/jibbril/setupbot/tools/metrics"
)

const (
	defaultWarmup = 500
	maxRecent     = 50
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04",
	})
}

// Bot runs every strategy on every configured ticker. Each (ticker, strategy) pair owns
// a series of its own, fed by one ordered candle stream.
type Bot struct {
	settings   model.Settings
	feeder     service.Feeder
	strategies []strategy.Strategy

	storage  storage.Storage
	notifier service.Notifier
	telegram service.Telegram
	metrics  *metrics.Collector

	warmup    int
	maxLength int

	dataFeed    *exchange.DataFeedSubscription
	controllers map[string][]*strategy.Controller
	queue       *model.PriorityQueue[model.Candle]
	wake        chan struct{}

	mu         sync.Mutex
	startedAt  time.Time
	lastCandle map[string]time.Time
	processed  int
	found      int
	recent     []setup.Setup
}

type Option func(*Bot)

func NewBot(settings model.Settings, feeder service.Feeder, strategies []strategy.Strategy,
	options ...Option) (*Bot, error) {
	if len(settings.Pairs) == 0 {
		return nil, fmt.Errorf("no pairs configured")
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("no strategies configured")
	}

	bot := &Bot{
		settings:    settings,
		feeder:      feeder,
		strategies:  strategies,
		warmup:      defaultWarmup,
		dataFeed:    exchange.NewDataFeed(feeder),
		controllers: make(map[string][]*strategy.Controller),
		queue:       model.NewPriorityQueue[model.Candle](nil),
		wake:        make(chan struct{}, 1),
		lastCandle:  make(map[string]time.Time),
	}

	for _, option := range options {
		option(bot)
	}

	if settings.Telegram.Enabled {
		telegram, err := notification.NewTelegram(bot, settings)
		if err != nil {
			return nil, err
		}
		bot.telegram = telegram
		WithNotifier(telegram)(bot)
	}

	return bot, nil
}

// WithStorage persists closed candles and every setup found.
func WithStorage(storage storage.Storage) Option {
	return func(bot *Bot) {
		bot.storage = storage
	}
}

func WithLogLevel(level log.Level) Option {
	return func(bot *Bot) {
		log.SetLevel(level)
	}
}

// WithNotifier adds a notifier. Several notifiers are called in the order added.
func WithNotifier(notifier service.Notifier) Option {
	return func(bot *Bot) {
		switch current := bot.notifier.(type) {
		case nil:
			bot.notifier = notifier
		case notification.Multi:
			bot.notifier = append(current, notifier)
		default:
			bot.notifier = notification.Multi{current, notifier}
		}
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(bot *Bot) {
		bot.metrics = collector
	}
}

// WithWarmup sets how many closed candles are preloaded per ticker before going live.
func WithWarmup(candles int) Option {
	return func(bot *Bot) {
		bot.warmup = candles
	}
}

// WithMaxLength caps the candles kept per live series. Zero keeps everything.
func WithMaxLength(candles int) Option {
	return func(bot *Bot) {
		bot.maxLength = candles
	}
}

// Run preloads the warmup history, starts the controllers and processes live candles
// until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.startedAt = time.Now()
	b.mu.Unlock()

	for _, pair := range b.settings.Pairs {
		if err := b.newControllers(ctx, pair); err != nil {
			return err
		}
		b.dataFeed.Subscribe(pair, b.settings.Timeframe, b.onCandle, true)
	}

	for _, pair := range b.settings.Pairs {
		if err := b.preload(ctx, pair); err != nil {
			return err
		}
	}
	b.drain(ctx)

	for _, pair := range b.settings.Pairs {
		for _, controller := range b.controllers[pair] {
			if err := controller.Start(ctx); err != nil {
				return fmt.Errorf("start %s on %s: %w", controller.Strategy().Name(), pair, err)
			}
		}
	}

	if b.telegram != nil {
		b.telegram.Start()
	}

	b.dataFeed.Start(ctx, false)
	b.processCandles(ctx)
	return nil
}

func (b *Bot) newControllers(ctx context.Context, pair string) error {
	for _, s := range b.strategies {
		ts, err := model.NewTimeSeries(pair, b.settings.Timeframe)
		if err != nil {
			return err
		}
		ts.MaxLength = b.maxLength

		var options []series.Option
		if b.metrics != nil {
			options = append(options, series.WithMetrics(b.metrics))
		}
		owner := series.NewOwner(ts, options...)
		if err := owner.Start(ctx); err != nil {
			return err
		}

		controller := strategy.NewStrategyController(owner, s.Clone(), b)
		if b.metrics != nil {
			controller.WithMetrics(b.metrics)
		}
		b.controllers[pair] = append(b.controllers[pair], controller)
	}
	return nil
}

func (b *Bot) preload(ctx context.Context, pair string) error {
	if b.warmup <= 0 {
		return nil
	}

	candles, err := b.feeder.CandlesByLimit(ctx, pair, b.settings.Timeframe, b.warmup)
	if err != nil {
		return fmt.Errorf("preload %s: %w", pair, err)
	}
	b.dataFeed.Preload(pair, b.settings.Timeframe, candles)
	return nil
}

func (b *Bot) onCandle(candle model.Candle) {
	b.queue.Push(candle)
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// drain processes every queued candle in time order.
func (b *Bot) drain(ctx context.Context) {
	for {
		candle, ok := b.queue.Pop()
		if !ok {
			return
		}
		b.processCandle(ctx, candle)
	}
}

func (b *Bot) processCandles(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.wake:
			b.drain(ctx)
		}
	}
}

func (b *Bot) processCandle(ctx context.Context, candle model.Candle) {
	if b.storage != nil {
		if err := b.storage.SaveCandles(b.settings.Timeframe, candle); err != nil {
			log.WithError(err).Warn("save candle")
		}
	}

	for _, controller := range b.controllers[candle.Pair] {
		controller.OnCandle(ctx, candle)
	}

	b.mu.Lock()
	b.processed++
	if candle.Time.After(b.lastCandle[candle.Pair]) {
		b.lastCandle[candle.Pair] = candle.Time
	}
	b.mu.Unlock()
}

func (b *Bot) Notify(text string) {
	if b.notifier != nil {
		b.notifier.Notify(text)
	}
}

// OnSetup records s, persists it when a storage is set and forwards it to the notifiers.
func (b *Bot) OnSetup(s setup.Setup) {
	b.mu.Lock()
	b.found++
	b.recent = append(b.recent, s)
	if len(b.recent) > maxRecent {
		b.recent = b.recent[len(b.recent)-maxRecent:]
	}
	b.mu.Unlock()

	if b.storage != nil {
		if err := b.storage.SaveSetup(s.Event()); err != nil {
			log.WithError(err).Error("save setup")
		}
	}
	if b.notifier != nil {
		b.notifier.OnSetup(s)
	}
}

func (b *Bot) OnError(err error) {
	if b.notifier != nil {
		b.notifier.OnError(err)
	}
}

// RecentSetups returns up to n of the latest setups, newest first.
func (b *Bot) RecentSetups(n int) []setup.Setup {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 {
		return nil
	}
	if n > len(b.recent) {
		n = len(b.recent)
	}
	result := make([]setup.Setup, 0, n)
	for i := len(b.recent) - 1; i >= len(b.recent)-n; i-- {
		result = append(result, b.recent[i])
	}
	return result
}

func (b *Bot) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var lines []string
	if !b.startedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("Uptime: `%s`", time.Since(b.startedAt).Truncate(time.Second)))
	}
	lines = append(lines, fmt.Sprintf("Candles: `%d` | Setups: `%d`", b.processed, b.found))

	pairs := append([]string(nil), b.settings.Pairs...)
	sort.Strings(pairs)
	for _, pair := range pairs {
		last := "waiting"
		if t, ok := b.lastCandle[pair]; ok {
			last = t.UTC().Format("2006-01-02 15:04")
		}
		lines = append(lines, fmt.Sprintf("%s %s: `%s`", pair, b.settings.Timeframe, last))
	}

	names := make([]string, 0, len(b.strategies))
	for _, s := range b.strategies {
		names = append(names, s.Name())
	}
	lines = append(lines, "Strategies: "+strings.Join(names, ", "))
	return strings.Join(lines, "\n")
}
