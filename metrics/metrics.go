package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quipcup"

// Metrics groups the collectors of one process. A nil *Metrics records
// nothing, so tests and tools can skip it.
type Metrics struct {
	registry *prometheus.Registry

	published      prometheus.Counter
	pushFailures   prometheus.Counter
	cacheFailures  prometheus.Counter
	reconnects     *prometheus.CounterVec
	inbound        *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	viewers        prometheus.Gauge
	feedState      *prometheus.GaugeVec
	adminMutations *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "documents_published_total",
			Help: "Documents written through the admin write path.",
		}),
		pushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "remote_push_failures_total",
			Help: "Remote store writes that failed and were dropped.",
		}),
		cacheFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_write_failures_total",
			Help: "Local cache writes that failed.",
		}),
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "feed_reconnects_total",
			Help: "Change feed reconnect attempts by transport.",
		}, []string{"transport"}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "inbound_updates_total",
			Help: "Documents applied by a viewer, by upstream.",
		}, []string{"source"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "inbound_dropped_total",
			Help: "Inbound payloads ignored by a viewer, by reason.",
		}, []string{"reason"}),
		viewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "websocket_viewers",
			Help: "Connected websocket viewers.",
		}),
		feedState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "feed_state",
			Help: "Change feed connection state (0 disconnected, 1 connecting, 2 open).",
		}, []string{"transport"}),
		adminMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "admin_mutations_total",
			Help: "Admin mutations by operation.",
		}, []string{"op"}),
	}
	reg.MustRegister(
		m.published, m.pushFailures, m.cacheFailures, m.reconnects, m.inbound,
		m.dropped, m.viewers, m.feedState, m.adminMutations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) DocumentPublished() {
	if m != nil {
		m.published.Inc()
	}
}

func (m *Metrics) RemotePushFailed() {
	if m != nil {
		m.pushFailures.Inc()
	}
}

func (m *Metrics) CacheWriteFailed() {
	if m != nil {
		m.cacheFailures.Inc()
	}
}

func (m *Metrics) FeedReconnect(transport string) {
	if m != nil {
		m.reconnects.WithLabelValues(transport).Inc()
	}
}

func (m *Metrics) FeedState(transport string, state int) {
	if m != nil {
		m.feedState.WithLabelValues(transport).Set(float64(state))
	}
}

func (m *Metrics) InboundApplied(source string) {
	if m != nil {
		m.inbound.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) InboundDropped(reason string) {
	if m != nil {
		m.dropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) ViewerConnected() {
	if m != nil {
		m.viewers.Inc()
	}
}

func (m *Metrics) ViewerDisconnected() {
	if m != nil {
		m.viewers.Dec()
	}
}

func (m *Metrics) AdminMutation(op string) {
	if m != nil {
		m.adminMutations.WithLabelValues(op).Inc()
	}
}
