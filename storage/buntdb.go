package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/setup"
	"github.com/jibbril/setupbot/tools/log"
)

// Bunt stores JSON documents in a buntdb file or in memory.
type Bunt struct {
	db *buntdb.DB
}

// storedCandle is the persisted part of a candle, without the indicator cache.
type storedCandle struct {
	Pair   string  `json:"pair"`
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Volume float64 `json:"volume"`
}

func FromMemory() (*Bunt, error) {
	return newBunt(":memory:")
}

func FromFile(file string) (*Bunt, error) {
	return newBunt(file)
}

func newBunt(sourceFile string) (*Bunt, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, err
	}

	err = db.CreateIndex("setup_time", "setup:*", buntdb.IndexJSON("time"))
	if err != nil {
		return nil, err
	}
	return &Bunt{db: db}, nil
}

func (b *Bunt) Close() error {
	return b.db.Close()
}

// candleKey sorts lexically in time order within one pair and timeframe.
func candleKey(pair, timeframe string, t time.Time) string {
	return fmt.Sprintf("candle:%s:%s:%020d", pair, timeframe, t.Unix())
}

func (b *Bunt) SaveCandles(timeframe string, candles ...model.Candle) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		for _, candle := range candles {
			content, err := json.Marshal(storedCandle{
				Pair:   candle.Pair,
				Time:   candle.Time.Unix(),
				Open:   candle.Open,
				Close:  candle.Close,
				Low:    candle.Low,
				High:   candle.High,
				Volume: candle.Volume,
			})
			if err != nil {
				return err
			}
			if _, _, err = tx.Set(candleKey(candle.Pair, timeframe, candle.Time), string(content), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Bunt) Candles(pair, timeframe string, filters ...CandleFilter) ([]model.Candle, error) {
	candles := make([]model.Candle, 0)
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(fmt.Sprintf("candle:%s:%s:*", pair, timeframe), func(key, value string) bool {
			var stored storedCandle
			if err := json.Unmarshal([]byte(value), &stored); err != nil {
				log.WithField("key", key).Warn(err)
				return true
			}

			t := time.Unix(stored.Time, 0).UTC()
			candle := model.Candle{
				Pair:      stored.Pair,
				Time:      t,
				UpdatedAt: t,
				Open:      stored.Open,
				Close:     stored.Close,
				Low:       stored.Low,
				High:      stored.High,
				Volume:    stored.Volume,
				Complete:  true,
			}
			if matchCandle(candle, filters) {
				candles = append(candles, candle)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return candles, nil
}

func (b *Bunt) SaveSetup(event setup.Event) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		content, err := json.Marshal(event)
		if err != nil {
			return err
		}
		_, _, err = tx.Set("setup:"+event.ID, string(content), nil)
		return err
	})
}

func (b *Bunt) Setups(filters ...SetupFilter) ([]setup.Event, error) {
	events := make([]setup.Event, 0)
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("setup_time", func(key, value string) bool {
			var event setup.Event
			if err := json.Unmarshal([]byte(value), &event); err != nil {
				log.WithField("key", key).Warn(err)
				return true
			}
			if matchSetup(event, filters) {
				events = append(events, event)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
