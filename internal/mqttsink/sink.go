// Package mqttsink mirrors session notifications to an MQTT broker.
//
// Full-state snapshots are published retained on <prefix>/<session>/state so
// late subscribers see the latest grid; cell deltas go to
// <prefix>/<session>/cell. Publishing happens on a worker goroutine, never
// inside the engine's notification path.
package mqttsink

import (
	"context"
	"encoding/json"

	"lifesync/internal/config"
	"lifesync/internal/engine"
	"lifesync/internal/logging"
	"lifesync/internal/metrics"
)

// Publisher sends one MQTT message. *Client implements it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

type message struct {
	topic    string
	payload  []byte
	retained bool
}

// Sink queues notifications and publishes them from Run.
type Sink struct {
	pub    Publisher
	prefix string
	qos    byte
	queue  chan message
	logger *logging.Logger
}

// NewSink creates a sink publishing through pub.
func NewSink(pub Publisher, cfg config.MQTTConfig, logger *logging.Logger) *Sink {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1024
	}
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = "lifesync"
	}
	return &Sink{
		pub:    pub,
		prefix: prefix,
		qos:    byte(cfg.QoS),
		queue:  make(chan message, size),
		logger: logging.OrDiscard(logger).With("component", "mqttsink"),
	}
}

// StateTopic returns the retained snapshot topic for a session.
func (s *Sink) StateTopic(sessionID string) string {
	return s.prefix + "/" + sessionID + "/state"
}

// CellTopic returns the cell-delta topic for a session.
func (s *Sink) CellTopic(sessionID string) string {
	return s.prefix + "/" + sessionID + "/cell"
}

// Attach mirrors eng's notifications, starting with its current snapshot.
// The returned func detaches and clears the retained state topic.
func (s *Sink) Attach(sessionID string, eng *engine.Engine) (detach func()) {
	sub := eng.Watch(
		func(snap engine.Snapshot) { s.enqueueJSON(s.StateTopic(sessionID), snap, true) },
		func(d engine.CellDelta) { s.enqueueJSON(s.CellTopic(sessionID), d, false) },
	)
	return func() {
		sub.Cancel()
		s.enqueue(message{topic: s.StateTopic(sessionID), retained: true})
	}
}

func (s *Sink) enqueueJSON(topic string, v any, retained bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to marshal mqtt payload", "topic", topic, "error", err)
		return
	}
	s.enqueue(message{topic: topic, payload: payload, retained: retained})
}

func (s *Sink) enqueue(m message) {
	select {
	case s.queue <- m:
	default:
		metrics.MQTTPublishedTotal.WithLabelValues("dropped").Inc()
	}
}

// Run publishes queued messages until ctx is cancelled. Messages still
// queued at that point are flushed first.
func (s *Sink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return
		case m := <-s.queue:
			s.publish(m)
		}
	}
}

func (s *Sink) flush() {
	for {
		select {
		case m := <-s.queue:
			s.publish(m)
		default:
			return
		}
	}
}

func (s *Sink) publish(m message) {
	if err := s.pub.Publish(m.topic, m.payload, s.qos, m.retained); err != nil {
		metrics.MQTTPublishedTotal.WithLabelValues("error").Inc()
		s.logger.Warn("mqtt publish failed", "topic", m.topic, "error", err)
		return
	}
	metrics.MQTTPublishedTotal.WithLabelValues("ok").Inc()
}
