package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "model_router"

// 라우팅 결과 라벨
const (
	OutcomeSuccess       = "success"
	OutcomeNoProvider    = "no_provider"
	OutcomeAllFailed     = "all_failed"
	OutcomeContextCancel = "canceled"
)

var (
	ProviderCallTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Total number of provider generation calls",
		},
		[]string{"provider", "model", "status"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Provider call duration in seconds",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	TokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "tokens_used_total",
			Help:      "Total tokens reported by providers",
		},
		[]string{"provider", "model"},
	)

	CostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "cost_usd_total",
			Help:      "Accumulated provider cost in USD",
		},
		[]string{"provider"},
	)

	RouteTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "routes_total",
			Help:      "Total number of routed prompts by outcome",
		},
		[]string{"outcome"},
	)

	RouteAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "attempts",
			Help:      "Provider attempts per routed prompt",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8},
		},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "alerts_total",
			Help:      "Total number of usage alerts created",
		},
		[]string{"type", "severity"},
	)
)
