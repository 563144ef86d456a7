package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.NotNil(t, r.HTTPRequestsTotal)
	assert.NotNil(t, r.PortfolioLoadsTotal)
	assert.NotNil(t, r.SearchesTotal)
	assert.NotNil(t, r.GetPrometheusRegistry())
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("GET", "/api/portfolios", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/portfolios", "200", 20*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/portfolios", "404", 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("GET", "/api/portfolios", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("GET", "/api/portfolios", "404")))
}

func TestRecordPortfolioLoad(t *testing.T) {
	r := NewRegistry()
	r.RecordPortfolioLoad("ok", time.Millisecond)
	r.RecordPortfolioLoad("load_failure", time.Millisecond)
	r.RecordPortfolioLoad("ok", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.PortfolioLoadsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PortfolioLoadsTotal.WithLabelValues("load_failure")))

	r.SetPortfolioSize("jane", 2, 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.PortfolioNodes.WithLabelValues("jane")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PortfolioEdges.WithLabelValues("jane")))
}

func TestRecordSearch(t *testing.T) {
	r := NewRegistry()
	r.RecordSearch("single", 1)
	r.RecordSearch("multiple", 3)
	r.RecordSearch("reset", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.SearchesTotal.WithLabelValues("single")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SearchesTotal.WithLabelValues("reset")))
	assert.Equal(t, 3, testutil.CollectAndCount(r.SearchesTotal))

	r.RecordRateLimited()
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SearchRateLimited))
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.SetSessions(3)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "portfolioviz_sessions_active 3"))
}
