package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus instruments of the live pipeline.
type Collector struct {
	registry *prometheus.Registry

	CandlesTotal     *prometheus.CounterVec
	LateCandles      *prometheus.CounterVec
	SetupsTotal      *prometheus.CounterVec
	PopulateDuration prometheus.Histogram
	SeriesLength     *prometheus.GaugeVec
	FeedReconnects   prometheus.Counter
}

// NewCollector builds the instruments on a registry of their own.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		CandlesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "setupbot_candles_total",
			Help: "Candles appended to a live series",
		}, []string{"ticker", "interval"}),
		LateCandles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "setupbot_late_candles_total",
			Help: "Candles rejected because they were not newer than the series",
		}, []string{"ticker", "interval"}),
		SetupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "setupbot_setups_total",
			Help: "Setups emitted by live strategies",
		}, []string{"ticker", "strategy", "orientation"}),
		PopulateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "setupbot_populate_duration_seconds",
			Help:    "Time to update every tracked indicator for one appended candle",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		SeriesLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "setupbot_series_length",
			Help: "Candles held by a live series",
		}, []string{"ticker", "interval"}),
		FeedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "setupbot_feed_reconnects_total",
			Help: "Websocket reconnection attempts",
		}),
	}

	c.registry.MustRegister(
		c.CandlesTotal,
		c.LateCandles,
		c.SetupsTotal,
		c.PopulateDuration,
		c.SeriesLength,
		c.FeedReconnects,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
