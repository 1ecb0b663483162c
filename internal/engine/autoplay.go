package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lifesync/internal/metrics"
)

// DefaultMinInterval is the shortest autoplay interval accepted.
const DefaultMinInterval = 50 * time.Millisecond

// Autoplay steps a State on a fixed cadence.
//
// Start and Stop are serialized, so concurrent callers resolve to the last
// call's intent. Stop waits for the tick goroutine to exit: once it returns
// no further tick can touch the state.
type Autoplay struct {
	mu          sync.Mutex
	state       *State
	minInterval time.Duration
	interval    time.Duration
	cancel      context.CancelFunc
	done        chan struct{}
	closed      bool
}

// NewAutoplay binds a scheduler to state. Intervals shorter than
// minInterval are raised to it.
func NewAutoplay(state *State, minInterval time.Duration) *Autoplay {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Autoplay{state: state, minInterval: minInterval}
}

// Start arms the tick loop and marks the state as playing. Calling Start
// while running with the same interval does nothing; with a different
// interval the current loop is joined and replaced.
func (a *Autoplay) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: interval %v must be positive", ErrSchedulerMisuse, interval)
	}
	interval = max(interval, a.minInterval)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.done != nil {
		if interval == a.interval {
			return nil
		}
		a.haltLocked()
	} else {
		a.state.setPlaying(true)
		metrics.AutoplayRunning.Inc()
	}
	a.interval = interval

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.run(ctx, interval, a.done)
	return nil
}

// Stop cancels the loop, waits for it to exit and clears the playing flag.
// Stopping a stopped scheduler returns the current snapshot.
func (a *Autoplay) Stop() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopLocked()
}

// Running reports whether a tick loop is armed.
func (a *Autoplay) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done != nil
}

// Interval returns the interval of the armed loop, or zero when stopped.
func (a *Autoplay) Interval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done == nil {
		return 0
	}
	return a.interval
}

// close stops the loop and rejects later Start calls.
func (a *Autoplay) close() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return a.stopLocked()
}

func (a *Autoplay) stopLocked() Snapshot {
	if a.done == nil {
		return a.state.Snapshot()
	}
	a.haltLocked()
	metrics.AutoplayRunning.Dec()
	return a.state.setPlaying(false)
}

// haltLocked cancels the loop and joins its goroutine.
func (a *Autoplay) haltLocked() {
	a.cancel()
	<-a.done
	a.cancel = nil
	a.done = nil
	a.interval = 0
}

func (a *Autoplay) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.state.tick(ctx)
		}
	}
}
