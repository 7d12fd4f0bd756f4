package model

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

type TelegramSettings struct {
	Enabled bool
	Token   string
	Users   []int
}

type Settings struct {
	Pairs     []string
	Timeframe string
	Telegram  TelegramSettings
}

// Orientation is the direction of a trade setup.
type Orientation string

const (
	OrientationLong  Orientation = "long"
	OrientationShort Orientation = "short"
)

// Sign is +1 for long and -1 for short setups, handy to turn price moves into returns.
func (o Orientation) Sign() float64 {
	if o == OrientationShort {
		return -1
	}
	return 1
}

type Candle struct {
	Pair      string
	Time      time.Time
	UpdatedAt time.Time
	Open      float64
	Close     float64
	Low       float64
	High      float64
	Volume    float64
	Complete  bool

	// Indicators caches the results computed for this candle, one entry per type.
	Indicators map[IndicatorType]Indicator
}

func (c Candle) Empty() bool {
	return c.Pair == "" && c.Close == 0 && c.Open == 0 && c.Volume == 0
}

// TypicalPrice is (high + low + close) / 3.
func (c Candle) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3
}

// Indicator returns the cached entry for t. The second value is false when the
// indicator was never attempted on this candle.
func (c Candle) Indicator(t IndicatorType) (Indicator, bool) {
	ind, ok := c.Indicators[t]
	return ind, ok
}

// Clone returns a copy that does not share the indicator cache.
func (c Candle) Clone() Candle {
	clone := c
	clone.Indicators = make(map[IndicatorType]Indicator, len(c.Indicators))
	for key, value := range c.Indicators {
		clone.Indicators[key] = value
	}
	return clone
}

func (c Candle) String() string {
	return fmt.Sprintf("[%s] %s | O: %f H: %f L: %f C: %f V: %f",
		c.Time.Format("2006-01-02 15:04"), c.Pair, c.Open, c.High, c.Low, c.Close, c.Volume)
}

// ToSlice renders the candle as a CSV record in the feed column order.
func (c Candle) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}

func (c Candle) ToHeikinAshi(ha *HeikinAshi) Candle {
	haCandle := ha.CalculateHeikinAshi(c)

	return Candle{
		Pair:      c.Pair,
		Open:      haCandle.Open,
		High:      haCandle.High,
		Low:       haCandle.Low,
		Close:     haCandle.Close,
		Volume:    c.Volume,
		Complete:  c.Complete,
		Time:      c.Time,
		UpdatedAt: c.UpdatedAt,
	}
}

// Less orders candles by time, then update time, then pair.
func (c Candle) Less(other Candle) bool {
	if !c.Time.Equal(other.Time) {
		return c.Time.Before(other.Time)
	}
	if !c.UpdatedAt.Equal(other.UpdatedAt) {
		return c.UpdatedAt.Before(other.UpdatedAt)
	}
	return c.Pair < other.Pair
}

type HeikinAshi struct {
	PreviousHACandle Candle
}

func NewHeikinAshi() *HeikinAshi {
	return &HeikinAshi{}
}

func (ha *HeikinAshi) CalculateHeikinAshi(c Candle) Candle {
	var hkCandle Candle

	openValue := ha.PreviousHACandle.Open
	closeValue := ha.PreviousHACandle.Close

	// first HA candle starts from the raw candle
	if ha.PreviousHACandle.Empty() {
		openValue = c.Open
		closeValue = c.Close
	}

	hkCandle.Open = (openValue + closeValue) / 2
	hkCandle.Close = (c.Open + c.High + c.Low + c.Close) / 4
	hkCandle.High = math.Max(c.High, math.Max(hkCandle.Open, hkCandle.Close))
	hkCandle.Low = math.Min(c.Low, math.Min(hkCandle.Open, hkCandle.Close))
	ha.PreviousHACandle = hkCandle

	return hkCandle
}
