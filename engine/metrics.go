package engine

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	modeApply    = "apply"
	modeExecute  = "execute"
	modeSimulate = "simulate"
)

// Metrics holds the Prometheus collectors of an Engine.
type Metrics struct {
	swapsTotal      *prometheus.CounterVec
	zeroInputHops   *prometheus.CounterVec
	pathErrorsTotal *prometheus.CounterVec
	pathDuration    *prometheus.HistogramVec
}

// NewMetrics creates the engine collectors and registers them with reg.
// Collectors already registered by another Engine are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		swapsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swapengine",
			Name:      "swaps_total",
			Help:      "Number of pool pricing calls, by mode.",
		}, []string{"mode"}),
		zeroInputHops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swapengine",
			Name:      "zero_input_hops_total",
			Help:      "Number of hops short-circuited because the flowing amount was zero.",
		}, []string{"mode"}),
		pathErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swapengine",
			Name:      "path_errors_total",
			Help:      "Number of aborted calls, by reason.",
		}, []string{"reason"}),
		pathDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "swapengine",
			Name:      "path_duration_seconds",
			Help:      "Time spent evaluating a route.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"mode"}),
	}

	m.swapsTotal = register(reg, m.swapsTotal)
	m.zeroInputHops = register(reg, m.zeroInputHops)
	m.pathErrorsTotal = register(reg, m.pathErrorsTotal)
	m.pathDuration = register(reg, m.pathDuration)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
