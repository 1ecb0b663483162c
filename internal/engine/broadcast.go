package engine

import (
	"maps"
	"slices"
	"sync"

	"lifesync/internal/logging"
	"lifesync/internal/metrics"
)

// FullStateHandler receives a snapshot after step, clear, randomize and
// autoplay start/stop.
type FullStateHandler func(Snapshot)

// CellDeltaHandler receives a single changed cell after toggle or set.
type CellDeltaHandler func(CellDelta)

// Broadcaster fans notifications out to subscribed handlers.
//
// Handlers run synchronously on the goroutine that emitted the notification,
// in subscription order. A handler must not call back into the State that
// emitted it.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID uint64
	full   map[uint64]FullStateHandler
	delta  map[uint64]CellDeltaHandler
	logger *logging.Logger
}

// NewBroadcaster returns a Broadcaster with no subscribers.
func NewBroadcaster(logger *logging.Logger) *Broadcaster {
	return &Broadcaster{
		full:   make(map[uint64]FullStateHandler),
		delta:  make(map[uint64]CellDeltaHandler),
		logger: logging.OrDiscard(logger),
	}
}

// Subscription is returned by OnFullState and OnCellDelta.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel unsubscribes. Safe to call more than once and on a nil Subscription.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// OnFullState registers h for full-state notifications.
func (b *Broadcaster) OnFullState(h FullStateHandler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.full[id] = h
	return &Subscription{cancel: func() {
		b.mu.Lock()
		delete(b.full, id)
		b.mu.Unlock()
	}}
}

// OnCellDelta registers h for cell-delta notifications.
func (b *Broadcaster) OnCellDelta(h CellDeltaHandler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.delta[id] = h
	return &Subscription{cancel: func() {
		b.mu.Lock()
		delete(b.delta, id)
		b.mu.Unlock()
	}}
}

// Subscribers returns the number of registered full-state and cell-delta
// handlers.
func (b *Broadcaster) Subscribers() (full, delta int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.full), len(b.delta)
}

// Close drops every handler. Later notifications reach nobody.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.full)
	clear(b.delta)
}

func (b *Broadcaster) publishFull(s Snapshot) {
	for _, h := range b.fullHandlers() {
		b.deliver(metrics.KindFullState, func() { h(s) })
	}
}

func (b *Broadcaster) publishDelta(d CellDelta) {
	for _, h := range b.deltaHandlers() {
		b.deliver(metrics.KindCellDelta, func() { h(d) })
	}
}

// deliver runs one handler, isolating the others from its panic.
func (b *Broadcaster) deliver(kind string, call func()) {
	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerPanicsTotal.Inc()
			b.logger.Error("notification handler panicked", "kind", kind, "panic", r)
		}
	}()
	call()
	metrics.NotificationsTotal.WithLabelValues(kind).Inc()
}

// fullHandlers copies the handler set under the read lock so handlers may
// unsubscribe while being invoked.
func (b *Broadcaster) fullHandlers() []FullStateHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]FullStateHandler, 0, len(b.full))
	for _, id := range slices.Sorted(maps.Keys(b.full)) {
		out = append(out, b.full[id])
	}
	return out
}

func (b *Broadcaster) deltaHandlers() []CellDeltaHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]CellDeltaHandler, 0, len(b.delta))
	for _, id := range slices.Sorted(maps.Keys(b.delta)) {
		out = append(out, b.delta[id])
	}
	return out
}
