// Package metrics exposes Prometheus instrumentation for the trading
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	ticksTotal       prometheus.Counter
	tickDuration     prometheus.Histogram
	signalsGenerated *prometheus.CounterVec
	ordersTotal      *prometheus.CounterVec
	exitsTotal       *prometheus.CounterVec
	openPositions    prometheus.Gauge
	providerErrors   *prometheus.CounterVec
	symbolsTracked   prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		ticksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "helix_ticks_total",
				Help: "Total number of reconciliation ticks completed",
			},
		),

		tickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "helix_tick_duration_seconds",
				Help:    "Reconciliation tick duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		signalsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helix_signals_generated_total",
				Help: "Total number of actionable signals generated",
			},
			[]string{"symbol", "action"},
		),

		ordersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helix_orders_total",
				Help: "Total number of order placements by leg and outcome",
			},
			[]string{"leg", "status"},
		),

		exitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helix_exits_total",
				Help: "Total number of position exits",
			},
			[]string{"kind"},
		),

		openPositions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "helix_open_positions",
				Help: "Number of currently open positions",
			},
		),

		providerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helix_provider_errors_total",
				Help: "Total number of market data provider errors",
			},
			[]string{"op"},
		),

		symbolsTracked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "helix_symbols_tracked",
				Help: "Number of symbols in the trade settings",
			},
		),
	}

	reg.MustRegister(r.ticksTotal)
	reg.MustRegister(r.tickDuration)
	reg.MustRegister(r.signalsGenerated)
	reg.MustRegister(r.ordersTotal)
	reg.MustRegister(r.exitsTotal)
	reg.MustRegister(r.openPositions)
	reg.MustRegister(r.providerErrors)
	reg.MustRegister(r.symbolsTracked)

	return r
}

// RecordTick records a completed reconciliation tick.
func (r *Registry) RecordTick(duration float64) {
	r.ticksTotal.Inc()
	r.tickDuration.Observe(duration)
}

// RecordSignal records an actionable signal.
func (r *Registry) RecordSignal(symbol, action string) {
	r.signalsGenerated.WithLabelValues(symbol, action).Inc()
}

// RecordOrder records an order placement attempt. Leg is one of
// entry, stop_loss or target; status is placed or failed.
func (r *Registry) RecordOrder(leg, status string) {
	r.ordersTotal.WithLabelValues(leg, status).Inc()
}

// RecordExit records a position exit by kind (stop_loss or target).
func (r *Registry) RecordExit(kind string) {
	r.exitsTotal.WithLabelValues(kind).Inc()
}

// SetOpenPositions sets the open position gauge.
func (r *Registry) SetOpenPositions(count int) {
	r.openPositions.Set(float64(count))
}

// RecordProviderError records a failed market data call by operation.
func (r *Registry) RecordProviderError(op string) {
	r.providerErrors.WithLabelValues(op).Inc()
}

// SetSymbolsTracked sets the tracked symbol gauge.
func (r *Registry) SetSymbolsTracked(count int) {
	r.symbolsTracked.Set(float64(count))
}
