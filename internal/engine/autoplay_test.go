package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lifesync/internal/logging"
)

func TestStartStopBoundsTicks(t *testing.T) {
	e := newTestEngine(t, 10, 10)
	var ticks atomic.Int64
	e.OnFullState(func(s Snapshot) {
		if s.Playing && s.Generation > 0 {
			ticks.Add(1)
		}
	})

	const interval = 100 * time.Millisecond
	begin := time.Now()
	if err := e.StartAutoplay(interval); err != nil {
		t.Fatalf("start: %v", err)
	}
	s := e.StopAutoplay()
	elapsed := time.Since(begin)

	if s.Playing {
		t.Fatal("snapshot after stop still playing")
	}
	limit := int64(elapsed/interval) + 1
	if got := ticks.Load(); got > limit {
		t.Fatalf("%d ticks in %v, at most %d possible", got, elapsed, limit)
	}
	if int64(s.Generation) != ticks.Load() {
		t.Fatalf("generation %d does not match %d ticks", s.Generation, ticks.Load())
	}
}

func TestNoTickAfterStopReturns(t *testing.T) {
	e := newTestEngine(t, 10, 10)
	var notes atomic.Int64
	e.OnFullState(func(Snapshot) { notes.Add(1) })

	if err := e.StartAutoplay(50 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(180 * time.Millisecond)
	stopped := e.StopAutoplay()
	if stopped.Generation == 0 {
		t.Fatal("expected at least one tick while running")
	}
	seen := notes.Load()

	time.Sleep(200 * time.Millisecond)
	if got := notes.Load(); got != seen {
		t.Fatalf("%d notifications arrived after stop", got-seen)
	}
	if g := e.Snapshot().Generation; g != stopped.Generation {
		t.Fatalf("generation moved from %d to %d after stop", stopped.Generation, g)
	}
}

func TestStartWhileRunningIsIdempotent(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	var playingChanges atomic.Int64
	e.OnFullState(func(s Snapshot) {
		if s.Generation == 0 {
			playingChanges.Add(1)
		}
	})

	for range 3 {
		if err := e.StartAutoplay(time.Second); err != nil {
			t.Fatal(err)
		}
	}
	if !e.Autoplaying() || !e.Snapshot().Playing {
		t.Fatal("not running after start")
	}
	if got := playingChanges.Load(); got != 1 {
		t.Fatalf("start emitted %d full-state notifications, want 1", got)
	}
	e.StopAutoplay()
	e.StopAutoplay()
	if e.Autoplaying() || e.Snapshot().Playing {
		t.Fatal("still running after stop")
	}
}

func TestRestartWithNewInterval(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	if err := e.StartAutoplay(time.Second); err != nil {
		t.Fatal(err)
	}
	if err := e.StartAutoplay(60 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if got := e.AutoplayInterval(); got != 60*time.Millisecond {
		t.Fatalf("interval = %v", got)
	}
	if !e.Snapshot().Playing {
		t.Fatal("restart dropped the playing flag")
	}
	time.Sleep(200 * time.Millisecond)
	if e.StopAutoplay().Generation == 0 {
		t.Fatal("new interval never ticked")
	}
}

func TestIntervalClampedToMinimum(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	if err := e.StartAutoplay(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	defer e.StopAutoplay()
	if got := e.AutoplayInterval(); got != DefaultMinInterval {
		t.Fatalf("interval = %v, want %v", got, DefaultMinInterval)
	}
}

func TestNonPositiveIntervalIsMisuse(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	for _, d := range []time.Duration{0, -time.Second} {
		if err := e.StartAutoplay(d); !errors.Is(err, ErrSchedulerMisuse) {
			t.Fatalf("StartAutoplay(%v): err = %v", d, err)
		}
	}
	if e.Autoplaying() || e.Snapshot().Playing {
		t.Fatal("misuse armed the scheduler")
	}
}

func TestConcurrentStartStop(t *testing.T) {
	e := newTestEngine(t, 8, 8)
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_ = e.StartAutoplay(50 * time.Millisecond)
			} else {
				e.StopAutoplay()
			}
		}()
	}
	wg.Wait()

	// Playing must agree with the scheduler whichever call landed last.
	if e.Autoplaying() != e.Snapshot().Playing {
		t.Fatal("playing flag disagrees with scheduler state")
	}

	if err := e.StartAutoplay(50 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if !e.Snapshot().Playing {
		t.Fatal("last call was start but not playing")
	}
	if e.StopAutoplay().Playing {
		t.Fatal("last call was stop but still playing")
	}
}

func TestTickAfterCancelIsDropped(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.tick(ctx)
	if g := e.Snapshot().Generation; g != 0 {
		t.Fatalf("cancelled tick advanced generation to %d", g)
	}
}

func TestCancelledTickLogsBelowInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := &logging.Logger{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))}
	opts := DefaultOptions()
	opts.Width, opts.Height, opts.Seed, opts.Logger = 4, 4, 3, logger
	e := New(opts)
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.tick(ctx)
	if buf.Len() != 0 {
		t.Fatalf("a tick racing Stop should not log at info or above, got %q", buf.String())
	}
}

func TestCloseStopsAutoplay(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 9
	e := New(opts)
	if err := e.StartAutoplay(50 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	e.Close()
	gen := e.Snapshot().Generation
	if e.Autoplaying() || e.Snapshot().Playing {
		t.Fatal("autoplay survived Close")
	}
	time.Sleep(120 * time.Millisecond)
	if e.Snapshot().Generation != gen {
		t.Fatal("tick fired after Close")
	}
	if err := e.StartAutoplay(50 * time.Millisecond); !errors.Is(err, ErrClosed) {
		t.Fatalf("start after close: err = %v", err)
	}
}
