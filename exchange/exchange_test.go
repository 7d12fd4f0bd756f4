package exchange

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/service/mocks"
)

func TestDataFeedSubscription(t *testing.T) {
	feeder := mocks.NewFeeder(t)

	stream := make(chan model.Candle, 3)
	errs := make(chan error)
	stream <- model.Candle{Pair: "BTCUSDT", Time: base, Close: 1, Complete: false}
	stream <- model.Candle{Pair: "BTCUSDT", Time: base, Close: 2, Complete: true}
	stream <- model.Candle{Pair: "BTCUSDT", Time: base.Add(3 * time.Hour), Close: 3, Complete: true}
	close(stream)
	close(errs)

	feeder.On("CandlesSubscription", mock.Anything, "BTCUSDT", "1h").Return(stream, errs).Once()

	var (
		mu     sync.Mutex
		closed []float64
		all    []float64
	)
	feed := NewDataFeed(feeder)
	feed.Subscribe("BTCUSDT", "1h", func(candle model.Candle) {
		mu.Lock()
		defer mu.Unlock()
		closed = append(closed, candle.Close)
	}, true)
	feed.Subscribe("BTCUSDT", "1h", func(candle model.Candle) {
		mu.Lock()
		defer mu.Unlock()
		all = append(all, candle.Close)
	}, false)

	feed.Preload("BTCUSDT", "1h", []model.Candle{
		{Close: 0.5, Complete: true},
		{Close: 0.7, Complete: false},
	})
	feed.Start(context.Background(), true)

	require.Equal(t, 1, feed.Feeds.Length())
	assert.Equal(t, []float64{0.5, 2, 3}, closed)
	assert.Equal(t, []float64{0.5, 1, 2, 3}, all)
}
