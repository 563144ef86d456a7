package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordPortfolioLoad records one load attempt. result is "ok" or the
// lower-cased failure code.
func (r *Registry) RecordPortfolioLoad(result string, duration time.Duration) {
	r.PortfolioLoadsTotal.WithLabelValues(result).Inc()
	r.PortfolioLoadDuration.Observe(duration.Seconds())
}

// SetPortfolioSize publishes the size of a served portfolio.
func (r *Registry) SetPortfolioSize(slug string, nodes, edges int) {
	r.PortfolioNodes.WithLabelValues(slug).Set(float64(nodes))
	r.PortfolioEdges.WithLabelValues(slug).Set(float64(edges))
}

// RecordSearch records a search submission. Blank queries (reset) do not
// contribute to the match histogram.
func (r *Registry) RecordSearch(outcome string, matches int) {
	r.SearchesTotal.WithLabelValues(outcome).Inc()
	if outcome != "reset" {
		r.SearchMatches.Observe(float64(matches))
	}
}

// RecordRateLimited counts a rejected search.
func (r *Registry) RecordRateLimited() {
	r.SearchRateLimited.Inc()
}

// SetSessions publishes the live session count.
func (r *Registry) SetSessions(n int) {
	r.SessionsActive.Set(float64(n))
}

// SetSSEClients publishes the connected event-stream count.
func (r *Registry) SetSSEClients(n int) {
	r.SSEClients.Set(float64(n))
}
