package metrics

import (
	"math"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

type BootstrapInterval struct {
	Lower  float64
	Upper  float64
	StdDev float64
	Mean   float64
}

// Bootstrap resamples values with replacement sampleSize times and returns the confidence
// interval of measure over the resamples.
func Bootstrap(values []float64, measure func([]float64) float64, sampleSize int,
	confidence float64) BootstrapInterval {
	if len(values) == 0 || sampleSize <= 0 {
		return BootstrapInterval{}
	}

	data := make([]float64, 0, sampleSize)
	for i := 0; i < sampleSize; i++ {
		samples := make([]float64, len(values))
		for j := range samples {
			samples[j] = lo.Sample(values)
		}
		data = append(data, measure(samples))
	}

	tail := 1 - confidence
	sort.Float64s(data)
	mean, stdDev := stat.MeanStdDev(data, nil)
	upper := stat.Quantile(1-tail/2, stat.LinInterp, data, nil)
	lower := stat.Quantile(tail/2, stat.LinInterp, data, nil)

	return BootstrapInterval{
		Lower:  lower,
		Upper:  upper,
		StdDev: stdDev,
		Mean:   mean,
	}
}

// Mean is the average of returns, zero for no returns.
func Mean(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return stat.Mean(returns, nil)
}

// Payoff is the average win divided by the average loss magnitude.
func Payoff(returns []float64) float64 {
	wins := lo.Filter(returns, func(value float64, _ int) bool { return value > 0 })
	losses := lo.Filter(returns, func(value float64, _ int) bool { return value < 0 })
	if len(wins) == 0 || len(losses) == 0 {
		return 0
	}
	return Mean(wins) / math.Abs(Mean(losses))
}

// ProfitFactor is the sum of wins divided by the sum of loss magnitudes.
func ProfitFactor(returns []float64) float64 {
	var gains, losses float64
	for _, value := range returns {
		if value > 0 {
			gains += value
		} else {
			losses -= value
		}
	}
	if losses == 0 {
		return 0
	}
	return gains / losses
}
