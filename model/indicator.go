package model

import (
	"fmt"
	"math"
)

// IndicatorKind names an indicator family.
type IndicatorKind string

const (
	KindSMA            IndicatorKind = "SMA"
	KindEMA            IndicatorKind = "EMA"
	KindRSI            IndicatorKind = "RSI"
	KindATR            IndicatorKind = "ATR"
	KindBollingerBands IndicatorKind = "BB"
	KindBBW            IndicatorKind = "BBW"
	KindBBWP           IndicatorKind = "BBWP"
	KindPMAR           IndicatorKind = "PMAR"
	KindPMARP          IndicatorKind = "PMARP"
	KindDynamicPivot   IndicatorKind = "PIVOT"
	KindStochastic     IndicatorKind = "STOCH"
)

// MovingAverageKind selects the average PMAR divides the close by.
type MovingAverageKind string

const (
	MovingAverageSimple         MovingAverageKind = "SMA"
	MovingAverageExponential    MovingAverageKind = "EMA"
	MovingAverageVolumeWeighted MovingAverageKind = "VWMA"
)

// IndicatorType identifies one indicator configuration. It is comparable and used
// both as the per-candle cache key and as the populated marker of a TimeSeries.
// Fields that do not apply to a kind are left zero.
type IndicatorType struct {
	Kind          IndicatorKind
	Length        int
	Lookback      int
	Smoothing     int
	Signal        int
	StdDevs       float64
	MovingAverage MovingAverageKind
}

func (t IndicatorType) String() string {
	switch t.Kind {
	case KindBollingerBands, KindBBW:
		return fmt.Sprintf("%s(%d,%g)", t.Kind, t.Length, t.StdDevs)
	case KindBBWP:
		return fmt.Sprintf("%s(%d,%d,%d)", t.Kind, t.Length, t.Lookback, t.Signal)
	case KindPMAR:
		return fmt.Sprintf("%s(%d,%s)", t.Kind, t.Length, t.MovingAverage)
	case KindPMARP:
		return fmt.Sprintf("%s(%d,%d,%s)", t.Kind, t.Length, t.Lookback, t.MovingAverage)
	case KindStochastic:
		return fmt.Sprintf("%s(%d,%d,%d)", t.Kind, t.Length, t.Smoothing, t.Signal)
	default:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Length)
	}
}

// IndicatorValue is the computed payload of one indicator kind. The set of
// implementations is closed to this package.
type IndicatorValue interface {
	// Scalar is the headline number of the value, e.g. the RSI or the percentile.
	Scalar() float64
	indicatorValue()
}

// Indicator is the cached result of one IndicatorType on one candle.
// A nil Value means the computation was attempted but history was too short.
type Indicator struct {
	Type  IndicatorType
	Value IndicatorValue

	// Rolls counts rolling updates since the value was last seeded from a full window.
	Rolls int
}

func (i Indicator) Ready() bool {
	return i.Value != nil
}

// Scalar reports false when the value is not computable or has no headline number,
// like a pivot with only one side confirmed.
func (i Indicator) Scalar() (float64, bool) {
	if i.Value == nil {
		return 0, false
	}
	value := i.Value.Scalar()
	if math.IsNaN(value) {
		return 0, false
	}
	return value, true
}

// ValueAs returns the typed payload cached on the candle for t. It reports false when the
// type was never attempted, is not computable yet, or holds another variant.
func ValueAs[T IndicatorValue](c Candle, t IndicatorType) (T, bool) {
	var zero T
	ind, ok := c.Indicators[t]
	if !ok || ind.Value == nil {
		return zero, false
	}
	value, ok := ind.Value.(T)
	return value, ok
}

type SMA struct {
	Value float64
}

type EMA struct {
	Value float64
}

// RSI keeps Wilder's running averages so the next bar can be derived in O(1).
type RSI struct {
	Value   float64
	AvgGain float64
	AvgLoss float64
}

type ATR struct {
	Value float64
}

type BollingerBands struct {
	Upper    float64
	Lower    float64
	Mean     float64
	Variance float64
	StdDev   float64
}

type BBW struct {
	Value float64
}

// BBWP is the percentile rank of the band width. Signal is the SMA of the last
// percentile values and is only meaningful when SignalReady is set.
type BBWP struct {
	Value       float64
	Signal      float64
	SignalReady bool
}

// PMAR is the price to moving average ratio. PriceVolume and Volume hold the window
// sums of the volume weighted variant.
type PMAR struct {
	Value         float64
	MovingAverage float64
	PriceVolume   float64
	Volume        float64
}

type PMARP struct {
	Value float64
}

// DynamicPivot holds the last confirmed pivot levels. HasHigh and HasLow stay false
// until a first pivot of that side is confirmed.
type DynamicPivot struct {
	High    float64
	Low     float64
	HasHigh bool
	HasLow  bool
}

type Stochastic struct {
	K    float64
	D    float64
	RawK float64
}

func (v SMA) Scalar() float64            { return v.Value }
func (v EMA) Scalar() float64            { return v.Value }
func (v RSI) Scalar() float64            { return v.Value }
func (v ATR) Scalar() float64            { return v.Value }
func (v BollingerBands) Scalar() float64 { return v.Mean }
func (v BBW) Scalar() float64            { return v.Value }
func (v BBWP) Scalar() float64           { return v.Value }
func (v PMAR) Scalar() float64           { return v.Value }
func (v PMARP) Scalar() float64          { return v.Value }
func (v Stochastic) Scalar() float64     { return v.K }

func (v DynamicPivot) Scalar() float64 {
	if v.HasHigh && v.HasLow {
		return (v.High + v.Low) / 2
	}
	return math.NaN()
}

func (SMA) indicatorValue()            {}
func (EMA) indicatorValue()            {}
func (RSI) indicatorValue()            {}
func (ATR) indicatorValue()            {}
func (BollingerBands) indicatorValue() {}
func (BBW) indicatorValue()            {}
func (BBWP) indicatorValue()           {}
func (PMAR) indicatorValue()           {}
func (PMARP) indicatorValue()          {}
func (DynamicPivot) indicatorValue()   {}
func (Stochastic) indicatorValue()     {}
