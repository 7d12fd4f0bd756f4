package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/setup"
)

var start = time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)

func candles(pair string, from int, closes ...float64) []model.Candle {
	result := make([]model.Candle, len(closes))
	for i, c := range closes {
		result[i] = model.Candle{
			Pair:     pair,
			Time:     start.Add(time.Duration(from+i) * time.Hour),
			Open:     c - 1,
			High:     c + 2,
			Low:      c - 2,
			Close:    c,
			Volume:   3,
			Complete: true,
		}
	}
	return result
}

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	bunt, err := FromMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunt.Close() })

	sql, err := FromSQL(sqlite.Open(filepath.Join(t.TempDir(), "setupbot.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return map[string]Storage{"buntdb": bunt, "sql": sql}
}

func TestStorage_Candles(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.SaveCandles("1h", candles("BTCUSDT", 2, 12, 13)...))
			require.NoError(t, store.SaveCandles("1h", candles("BTCUSDT", 0, 10, 11, 99)...))
			require.NoError(t, store.SaveCandles("1h", candles("ETHUSDT", 0, 1)...))
			require.NoError(t, store.SaveCandles("4h", candles("BTCUSDT", 0, 50)...))

			stored, err := store.Candles("BTCUSDT", "1h")
			require.NoError(t, err)
			require.Len(t, stored, 4)
			assert.Equal(t, []float64{10, 11, 99, 13}, []float64{stored[0].Close, stored[1].Close, stored[2].Close, stored[3].Close})
			assert.Equal(t, start, stored[0].Time)
			assert.Equal(t, 101.0, stored[2].High, "a candle at the same time is replaced")
			assert.True(t, stored[0].Complete)

			filtered, err := store.Candles("BTCUSDT", "1h", WithPeriod(start.Add(time.Hour), start.Add(2*time.Hour)))
			require.NoError(t, err)
			assert.Len(t, filtered, 2)

			filtered, err = store.Candles("BTCUSDT", "1h", WithTimeBeforeOrEqual(start))
			require.NoError(t, err)
			assert.Len(t, filtered, 1)

			ts, err := model.NewTimeSeries("BTCUSDT", "1h", stored...)
			require.NoError(t, err)
			assert.Equal(t, 4, ts.Len())
		})
	}
}

func TestStorage_Setups(t *testing.T) {
	events := []setup.Event{
		{ID: "b", Ticker: "BTCUSDT", Interval: "1h", Orientation: "short", Time: 200, Price: 10, Resolution: "fixed(11,9)"},
		{ID: "a", Ticker: "BTCUSDT", Interval: "1h", Orientation: "long", Time: 100, Price: 9, StopLoss: 8, TakeProfit: 12},
		{ID: "c", Ticker: "ETHUSDT", Interval: "1h", Orientation: "long", Time: 150, Price: 2},
	}

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, event := range events {
				require.NoError(t, store.SaveSetup(event))
			}

			stored, err := store.Setups()
			require.NoError(t, err)
			require.Len(t, stored, 3)
			assert.Equal(t, events[1], stored[0])
			assert.Equal(t, "c", stored[1].ID)
			assert.Equal(t, events[0], stored[2])

			filtered, err := store.Setups(WithTicker("BTCUSDT"), WithOrientation(model.OrientationLong))
			require.NoError(t, err)
			require.Len(t, filtered, 1)
			assert.Equal(t, "a", filtered[0].ID)
		})
	}
}
