// Package metrics держит счётчики чата. Nil *Chat: валидный no-op,
// чтобы сервисы и тесты могли работать без реестра.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kcd"

// Пути приёма сообщений
const (
	PathREST = "rest"
	PathWS   = "ws"
)

type Chat struct {
	Connections      prometheus.Gauge
	Broadcasts       prometheus.Counter
	Deliveries       prometheus.Counter
	DeliveryFailures prometheus.Counter
	Ingested         *prometheus.CounterVec
	FramesDropped    *prometheus.CounterVec
	SessionsClosed   *prometheus.CounterVec
}

func NewChat(reg prometheus.Registerer) *Chat {
	f := promauto.With(reg)
	return &Chat{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "live_connections",
			Help:      "Registered real-time connections.",
		}),
		Broadcasts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "broadcasts_total",
			Help:      "Messages fanned out to the registry.",
		}),
		Deliveries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "deliveries_total",
			Help:      "Messages queued to a single connection.",
		}),
		DeliveryFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "delivery_failures_total",
			Help:      "Connections evicted after a failed send.",
		}),
		Ingested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "ingested_total",
			Help:      "Messages persisted, by ingestion path.",
		}, []string{"path"}),
		FramesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "frames_dropped_total",
			Help:      "Inbound frames ignored, by reason.",
		}, []string{"reason"}),
		SessionsClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "sessions_closed_total",
			Help:      "Real-time sessions closed, by reason.",
		}, []string{"reason"}),
	}
}

func (m *Chat) ConnOpened() {
	if m != nil {
		m.Connections.Inc()
	}
}

func (m *Chat) ConnClosed() {
	if m != nil {
		m.Connections.Dec()
	}
}

func (m *Chat) Broadcast(delivered, failed int) {
	if m == nil {
		return
	}
	m.Broadcasts.Inc()
	m.Deliveries.Add(float64(delivered))
	m.DeliveryFailures.Add(float64(failed))
}

func (m *Chat) MessageIngested(path string) {
	if m != nil {
		m.Ingested.WithLabelValues(path).Inc()
	}
}

func (m *Chat) FrameDropped(reason string) {
	if m != nil {
		m.FramesDropped.WithLabelValues(reason).Inc()
	}
}

func (m *Chat) SessionClosed(reason string) {
	if m != nil {
		m.SessionsClosed.WithLabelValues(reason).Inc()
	}
}
