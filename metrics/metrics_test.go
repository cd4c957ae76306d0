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
		m.DocumentPublished()
		m.RemotePushFailed()
		m.FeedReconnect("redis")
		m.InboundApplied("feed")
		m.ViewerConnected()
		m.AdminMutation("phase")
	})
	assert.Nil(t, m.Registry())
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.DocumentPublished()
	m.DocumentPublished()
	m.InboundApplied("broadcast")
	m.ViewerConnected()
	m.ViewerConnected()
	m.ViewerDisconnected()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.published))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inbound.WithLabelValues("broadcast")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.viewers))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quipcup_documents_published_total 2")
}
