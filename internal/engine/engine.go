// Package engine implements a Game of Life session: the serialized
// simulation state, its autoplay scheduler and the change notifications
// delivered to observers.
package engine

import (
	"sync"
	"time"

	"lifesync/internal/logging"
	"lifesync/pkg/sims/life"
)

// Options configures a new Engine.
type Options struct {
	Width       int
	Height      int
	Boundary    life.Boundary
	Seed        int64 // 0 picks a time-based seed
	MinInterval time.Duration
	Logger      *logging.Logger
}

// DefaultOptions returns a 40×30 bounded grid with the default minimum
// autoplay interval.
func DefaultOptions() Options {
	return Options{
		Width:       40,
		Height:      30,
		Boundary:    life.Bounded,
		MinInterval: DefaultMinInterval,
	}
}

// Engine bundles one State with its Autoplay and Broadcaster.
type Engine struct {
	*State
	autoplay  *Autoplay
	events    *Broadcaster
	closeOnce sync.Once
}

// New creates an engine with an all-dead grid.
func New(opts Options) *Engine {
	logger := logging.OrDiscard(opts.Logger).With("component", "engine")
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	events := NewBroadcaster(logger)
	state := NewState(opts.Width, opts.Height, opts.Boundary, seed, events, logger)
	return &Engine{
		State:    state,
		autoplay: NewAutoplay(state, opts.MinInterval),
		events:   events,
	}
}

// StartAutoplay arms the tick loop and returns without waiting for a tick.
func (e *Engine) StartAutoplay(interval time.Duration) error {
	return e.autoplay.Start(interval)
}

// StopAutoplay stops the tick loop and returns the resulting snapshot.
func (e *Engine) StopAutoplay() Snapshot {
	return e.autoplay.Stop()
}

// Autoplaying reports whether the tick loop is armed.
func (e *Engine) Autoplaying() bool { return e.autoplay.Running() }

// AutoplayInterval returns the interval of the armed loop, or zero.
func (e *Engine) AutoplayInterval() time.Duration { return e.autoplay.Interval() }

// OnFullState subscribes h to full-state notifications.
func (e *Engine) OnFullState(h FullStateHandler) *Subscription {
	return e.events.OnFullState(h)
}

// OnCellDelta subscribes h to cell-delta notifications.
func (e *Engine) OnCellDelta(h CellDeltaHandler) *Subscription {
	return e.events.OnCellDelta(h)
}

// Watch hands the current snapshot to full and subscribes both handlers
// without letting a mutation slip in between. Either handler may be nil.
// Cancelling the returned Subscription removes both.
func (e *Engine) Watch(full FullStateHandler, delta CellDeltaHandler) *Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	var subs []*Subscription
	if full != nil {
		full(e.snapshotLocked())
		subs = append(subs, e.events.OnFullState(full))
	}
	if delta != nil {
		subs = append(subs, e.events.OnCellDelta(delta))
	}
	return &Subscription{cancel: func() {
		for _, s := range subs {
			s.Cancel()
		}
	}}
}

// Close stops autoplay, waiting for any in-flight tick, then drops every
// subscriber. Later StartAutoplay calls fail with ErrClosed.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.autoplay.close()
		e.events.Close()
	})
}
