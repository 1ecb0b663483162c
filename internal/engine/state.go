package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"lifesync/internal/logging"
	"lifesync/internal/metrics"
	"lifesync/pkg/core"
	"lifesync/pkg/sims/life"
)

// randomDensity is the probability that Randomize makes a cell alive.
const randomDensity = 0.5

// State owns the live grid, the generation counter and the playing flag.
// Every method is serialized on a single mutex, and notifications are
// emitted while that mutex is held so observers see them in completion order.
type State struct {
	mu         sync.Mutex
	grid       *core.Grid
	generation int
	playing    bool
	boundary   life.Boundary
	rng        *core.RNG
	events     *Broadcaster
	logger     *logging.Logger
}

// NewState creates an all-dead w×h state publishing to events.
func NewState(w, h int, boundary life.Boundary, seed int64, events *Broadcaster, logger *logging.Logger) *State {
	if events == nil {
		events = NewBroadcaster(logger)
	}
	return &State{
		grid:     core.NewGrid(w, h),
		boundary: boundary,
		rng:      core.NewRNG(seed),
		events:   events,
		logger:   logging.OrDiscard(logger),
	}
}

// Boundary returns the neighbour policy used by Step.
func (s *State) Boundary() life.Boundary { return s.boundary }

// Snapshot returns the current state without mutating it.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Cell reports whether the cell at (x, y) is alive.
func (s *State) Cell(x, y int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkBounds(x, y); err != nil {
		return false, fmt.Errorf("read cell: %w", err)
	}
	return s.grid.Get(x, y), nil
}

// ToggleCell flips the cell at (x, y) and emits a cell delta.
func (s *State) ToggleCell(x, y int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEditable(x, y); err != nil {
		return Snapshot{}, fmt.Errorf("toggle cell: %w", err)
	}
	alive := !s.grid.Get(x, y)
	s.grid.Set(x, y, alive)
	s.events.publishDelta(CellDelta{X: x, Y: y, Alive: alive})
	return s.snapshotLocked(), nil
}

// SetCell writes alive to the cell at (x, y). Writing the value the cell
// already holds changes nothing and emits nothing.
func (s *State) SetCell(x, y int, alive bool) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEditable(x, y); err != nil {
		return Snapshot{}, fmt.Errorf("set cell: %w", err)
	}
	if s.grid.Get(x, y) != alive {
		s.grid.Set(x, y, alive)
		s.events.publishDelta(CellDelta{X: x, Y: y, Alive: alive})
	}
	return s.snapshotLocked(), nil
}

// Step advances one generation.
func (s *State) Step() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepLocked()
}

// Clear kills every cell and resets the generation. The playing flag is left
// alone; a running autoplay continues from the empty grid.
func (s *State) Clear() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid.Fill(false)
	s.generation = 0
	return s.publishLocked()
}

// Randomize makes each cell alive with probability one half and resets the
// generation.
func (s *State) Randomize() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.FillGrid(s.grid, randomDensity)
	s.generation = 0
	return s.publishLocked()
}

// setPlaying is reserved for Autoplay. A full-state notification is emitted
// only when the flag changes.
func (s *State) setPlaying(playing bool) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing == playing {
		return s.snapshotLocked()
	}
	s.playing = playing
	return s.publishLocked()
}

// tick is one scheduled step. A tick that raced Stop and finds its loop
// already cancelled is dropped.
func (s *State) tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		s.logger.Debug("dropping autoplay tick", "error", fmt.Errorf("%w: tick after cancel", ErrSchedulerMisuse))
		return
	}
	s.stepLocked()
}

func (s *State) stepLocked() Snapshot {
	timer := prometheus.NewTimer(metrics.StepDuration)
	s.grid = life.NextGeneration(s.grid, s.boundary)
	timer.ObserveDuration()
	s.generation++
	metrics.GenerationsTotal.Inc()
	return s.publishLocked()
}

func (s *State) publishLocked() Snapshot {
	snap := s.snapshotLocked()
	s.events.publishFull(snap)
	return snap
}

func (s *State) snapshotLocked() Snapshot {
	return newSnapshot(s.grid, s.generation, s.playing)
}

func (s *State) checkBounds(x, y int) error {
	if !s.grid.InBounds(x, y) {
		w, h := s.grid.Dimensions()
		return &core.OutOfBoundsError{X: x, Y: y, W: w, H: h}
	}
	return nil
}

// checkEditable validates a manual edit. Bounds are checked first so a bad
// address is reported even during autoplay.
func (s *State) checkEditable(x, y int) error {
	if err := s.checkBounds(x, y); err != nil {
		return err
	}
	if s.playing {
		return ErrInvalidWhilePlaying
	}
	return nil
}
