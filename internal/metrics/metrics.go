// Package metrics defines the Prometheus collectors exported by lifesync.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lifesync"

// Notification kinds used as the "kind" label.
const (
	KindFullState = "full_state"
	KindCellDelta = "cell_delta"
)

var (
	// GenerationsTotal counts generations computed across all sessions.
	GenerationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generations_total",
		Help:      "Total number of generations computed.",
	})

	// StepDuration observes the time spent computing one generation.
	StepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "step_duration_seconds",
		Help:      "Time spent computing the next generation.",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
	})

	// NotificationsTotal counts notifications delivered to subscribers.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notifications delivered to subscribers by kind.",
	}, []string{"kind"})

	// HandlerPanicsTotal counts subscriber handlers that panicked.
	HandlerPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_panics_total",
		Help:      "Subscriber handlers that panicked during delivery.",
	})

	// ActiveSessions tracks open simulation sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of open simulation sessions.",
	})

	// AutoplayRunning tracks sessions with a live autoplay loop.
	AutoplayRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "autoplay_running",
		Help:      "Number of sessions currently autoplaying.",
	})

	// WebSocketClients tracks connected live-sync clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_clients",
		Help:      "Number of connected WebSocket clients.",
	})

	// WebSocketDroppedTotal counts frames dropped, and clients evicted, because
	// a client was slow.
	WebSocketDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "websocket_dropped_frames_total",
		Help:      "Frames dropped because a client's send buffer was full.",
	})

	// MQTTPublishedTotal counts MQTT publishes by outcome.
	MQTTPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mqtt_published_total",
		Help:      "MQTT publishes by result.",
	}, []string{"result"})
)
