package mqttsink

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifesync/internal/config"
	"lifesync/internal/engine"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	fail bool
}

func (f *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrNotConnected
	}
	f.msgs = append(f.msgs, published{topic: topic, payload: payload, qos: qos, retained: retained})
	return nil
}

func (f *fakePublisher) snapshot() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.msgs...)
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.Width, opts.Height, opts.Seed = 4, 3, 1
	e := engine.New(opts)
	t.Cleanup(e.Close)
	return e
}

func runSink(t *testing.T, s *Sink) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestAttachPublishesStateAndDeltas(t *testing.T) {
	pub := &fakePublisher{}
	cfg := config.Default().MQTT
	cfg.QoS = 1
	sink := NewSink(pub, cfg, nil)
	runSink(t, sink)

	eng := newEngine(t)
	detach := sink.Attach("abc", eng)
	_, err := eng.SetCell(1, 1, true)
	require.NoError(t, err)
	eng.Step()
	detach()

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 4 }, time.Second, 5*time.Millisecond)
	msgs := pub.snapshot()

	assert.Equal(t, "lifesync/abc/state", msgs[0].topic)
	assert.True(t, msgs[0].retained)
	assert.Equal(t, byte(1), msgs[0].qos)

	assert.Equal(t, "lifesync/abc/cell", msgs[1].topic)
	assert.False(t, msgs[1].retained)
	assert.JSONEq(t, `{"x":1,"y":1,"alive":true}`, string(msgs[1].payload))

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(msgs[2].payload, &snap))
	assert.Equal(t, 1, snap.Generation)

	assert.Equal(t, "lifesync/abc/state", msgs[3].topic)
	assert.Empty(t, msgs[3].payload, "detach clears the retained state")
}

func TestDetachStopsMirroring(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewSink(pub, config.Default().MQTT, nil)
	runSink(t, sink)

	eng := newEngine(t)
	detach := sink.Attach("s", eng)
	detach()
	eng.Step()
	eng.Clear()

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, pub.snapshot(), 2)
}

func TestPublishErrorsAreSwallowed(t *testing.T) {
	pub := &fakePublisher{fail: true}
	sink := NewSink(pub, config.Default().MQTT, nil)
	sink.enqueue(message{topic: "t", payload: []byte("x")})
	sink.flush()
	assert.Empty(t, pub.snapshot())
}

func TestFullQueueDrops(t *testing.T) {
	pub := &fakePublisher{}
	cfg := config.Default().MQTT
	cfg.QueueSize = 2
	sink := NewSink(pub, cfg, nil)
	for range 5 {
		sink.enqueue(message{topic: "t"})
	}
	sink.flush()
	assert.Len(t, pub.snapshot(), 2)
}

func TestRunFlushesOnCancel(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewSink(pub, config.Default().MQTT, nil)
	for range 3 {
		sink.enqueue(message{topic: "t"})
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink.Run(ctx)
	assert.Len(t, pub.snapshot(), 3)
}

func TestClientValidation(t *testing.T) {
	c := &Client{}
	assert.ErrorIs(t, c.Publish("", nil, 0, false), ErrInvalidTopic)
	assert.ErrorIs(t, c.Publish("t", nil, 3, false), ErrInvalidQoS)
	assert.ErrorIs(t, c.Publish("t", make([]byte, maxPayloadSize+1), 0, false), ErrPublishFailed)
	assert.True(t, errors.Is(c.Publish("t", nil, 0, false), ErrNotConnected))
	assert.NoError(t, c.Close())
}
