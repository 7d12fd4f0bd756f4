package storage

import (
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/setup"
)

type SQL struct {
	db *gorm.DB
}

type candleRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Pair      string    `gorm:"uniqueIndex:idx_candle"`
	Timeframe string    `gorm:"uniqueIndex:idx_candle"`
	Time      time.Time `gorm:"uniqueIndex:idx_candle"`
	Open      float64
	Close     float64
	Low       float64
	High      float64
	Volume    float64
}

func (candleRecord) TableName() string { return "candles" }

type setupRecord struct {
	ID          string `gorm:"primaryKey"`
	Ticker      string `gorm:"index"`
	Interval    string
	Orientation string
	Time        int64 `gorm:"index"`
	Price       float64
	StopLoss    float64
	TakeProfit  float64
	Resolution  string
}

func (setupRecord) TableName() string { return "setups" }

func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (*SQL, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&candleRecord{}, &setupRecord{}); err != nil {
		return nil, err
	}
	return &SQL{db: db}, nil
}

func (s *SQL) SaveCandles(timeframe string, candles ...model.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	records := lo.Map(candles, func(candle model.Candle, _ int) candleRecord {
		return candleRecord{
			Pair:      candle.Pair,
			Timeframe: timeframe,
			Time:      candle.Time.UTC(),
			Open:      candle.Open,
			Close:     candle.Close,
			Low:       candle.Low,
			High:      candle.High,
			Volume:    candle.Volume,
		}
	})

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pair"}, {Name: "timeframe"}, {Name: "time"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "close", "low", "high", "volume"}),
	}).CreateInBatches(records, 500).Error
}

func (s *SQL) Candles(pair, timeframe string, filters ...CandleFilter) ([]model.Candle, error) {
	var records []candleRecord
	result := s.db.Where("pair = ? AND timeframe = ?", pair, timeframe).Order("time").Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}

	candles := lo.Map(records, func(record candleRecord, _ int) model.Candle {
		t := record.Time.UTC()
		return model.Candle{
			Pair:      record.Pair,
			Time:      t,
			UpdatedAt: t,
			Open:      record.Open,
			Close:     record.Close,
			Low:       record.Low,
			High:      record.High,
			Volume:    record.Volume,
			Complete:  true,
		}
	})
	return lo.Filter(candles, func(candle model.Candle, _ int) bool {
		return matchCandle(candle, filters)
	}), nil
}

func (s *SQL) SaveSetup(event setup.Event) error {
	return s.db.Save(&setupRecord{
		ID:          event.ID,
		Ticker:      event.Ticker,
		Interval:    event.Interval,
		Orientation: event.Orientation,
		Time:        event.Time,
		Price:       event.Price,
		StopLoss:    event.StopLoss,
		TakeProfit:  event.TakeProfit,
		Resolution:  event.Resolution,
	}).Error
}

func (s *SQL) Setups(filters ...SetupFilter) ([]setup.Event, error) {
	var records []setupRecord
	if err := s.db.Order("time").Find(&records).Error; err != nil {
		return nil, err
	}

	events := lo.Map(records, func(record setupRecord, _ int) setup.Event {
		return setup.Event(record)
	})
	return lo.Filter(events, func(event setup.Event, _ int) bool {
		return matchSetup(event, filters)
	}), nil
}
