package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CatalogRequest("remote", "ok")
		m.CatalogBreakerOpen(true)
		m.PaymentPoll("pending")
		m.CheckoutSubmission("placed")
		m.CartItems(3)
	})
}

func TestCollectorsAndHandler(t *testing.T) {
	m := New()
	m.CatalogRequest("fallback", "failure")
	m.CatalogRequest("fallback", "failure")
	m.CatalogBreakerOpen(true)
	m.CartItems(5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.catalogRequests.WithLabelValues("fallback", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogBreakerOpen))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.cartItems))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "farmgate_catalog_breaker_open 1")
}
