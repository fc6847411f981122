package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.OrderCreated()
	m.OrderCreated()
	m.Transition("PENDING", "PAID")
	m.Ignored("illegal_transition")
	m.Published(true)
	m.Published(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OrdersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SagaTransitions.WithLabelValues("PENDING", "PAID")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SagaIgnored.WithLabelValues("illegal_transition")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPublished.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPublished.WithLabelValues("error")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.OrderCreated()
		m.Transition("PAID", "APPROVED")
		m.Ignored("unknown_saga")
		m.Published(true)
		m.Observe("/x", "200", time.Millisecond)
	})

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}

func TestMetrics_Handler(t *testing.T) {
	m := New(nil)
	m.OrderCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "food_ordering_orders_created_total 1"))
}

func TestMetrics_Observe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Observe("/foodordering.v1.OrderService/CreateOrder", "OK", 3*time.Millisecond)
	m.Observe("/foodordering.v1.OrderService/CreateOrder", "OK", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.Requests.WithLabelValues("/foodordering.v1.OrderService/CreateOrder", "OK"),
	))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LatencyMS))
}
