package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPortfolioMetrics() {
	r.PortfolioLoadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolioviz_portfolio_loads_total",
			Help: "Total number of portfolio loads by result",
		},
		[]string{"result"}, // ok, load_failure, parse_failure, malformed_portfolio
	)

	r.PortfolioLoadDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portfolioviz_portfolio_load_duration_seconds",
			Help:    "Time to fetch, decode and build a portfolio",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	r.PortfoliosLoaded = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolioviz_portfolios_loaded",
			Help: "Number of portfolios currently served with a graph",
		},
	)

	r.PortfolioNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portfolioviz_portfolio_nodes",
			Help: "Node count per served portfolio",
		},
		[]string{"slug"},
	)

	r.PortfolioEdges = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portfolioviz_portfolio_edges",
			Help: "Edge count per served portfolio",
		},
		[]string{"slug"},
	)
}

func (r *Registry) initSearchMetrics() {
	r.SearchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolioviz_searches_total",
			Help: "Total number of search submissions by outcome",
		},
		[]string{"outcome"}, // reset, no_match, single, multiple
	)

	r.SearchMatches = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portfolioviz_search_matches",
			Help:    "Number of nodes matched per non-blank search",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	r.SearchRateLimited = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "portfolioviz_search_rate_limited_total",
			Help: "Search submissions rejected by the rate limiter",
		},
	)

	r.SessionsActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolioviz_sessions_active",
			Help: "Number of live search sessions",
		},
	)

	r.SSEClients = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolioviz_sse_clients",
			Help: "Number of connected camera event streams",
		},
	)
}
