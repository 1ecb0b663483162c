package engine

import (
	"errors"
	"slices"
	"testing"

	"lifesync/pkg/core"
	"lifesync/pkg/sims/life"
)

func newTestEngine(t *testing.T, w, h int) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.Width, opts.Height = w, h
	opts.Seed = 42
	e := New(opts)
	t.Cleanup(e.Close)
	return e
}

func mustSet(t *testing.T, e *Engine, x, y int) {
	t.Helper()
	if _, err := e.SetCell(x, y, true); err != nil {
		t.Fatalf("SetCell(%d,%d): %v", x, y, err)
	}
}

func TestStepTwiceAdvancesGenerationByTwo(t *testing.T) {
	e := newTestEngine(t, 8, 8)
	mustSet(t, e, 3, 3)
	mustSet(t, e, 4, 3)
	mustSet(t, e, 5, 3)
	mustSet(t, e, 4, 4)
	before := e.Snapshot()
	want := life.NextGeneration(before.Grid(), life.Bounded)

	var got []Snapshot
	sub := e.OnFullState(func(s Snapshot) { got = append(got, s) })
	defer sub.Cancel()

	e.Step()
	after := e.Step()

	if after.Generation != before.Generation+2 {
		t.Fatalf("generation = %d, want %d", after.Generation, before.Generation+2)
	}
	if len(got) != 2 {
		t.Fatalf("got %d full-state notifications, want 2", len(got))
	}
	if !got[0].Grid().Equal(want) {
		t.Fatalf("first notification differs from NextGeneration:\n%v\nwant\n%v", got[0].Rows(), want.Rows())
	}
	if got[0].Generation != 1 || got[1].Generation != 2 {
		t.Fatalf("notification generations = %d,%d", got[0].Generation, got[1].Generation)
	}
}

func TestBlinkerThroughState(t *testing.T) {
	e := newTestEngine(t, 5, 5)
	mustSet(t, e, 1, 2)
	mustSet(t, e, 2, 2)
	mustSet(t, e, 3, 2)

	s := e.Step()
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			want := x == 2 && y >= 1 && y <= 3
			if s.Alive(x, y) != want {
				t.Fatalf("after one step cell (%d,%d) = %v, want %v", x, y, s.Alive(x, y), want)
			}
		}
	}
	s = e.Step()
	if !s.Alive(1, 2) || !s.Alive(2, 2) || !s.Alive(3, 2) || s.Population() != 3 {
		t.Fatalf("blinker did not return to horizontal: %v", s.Rows())
	}
}

func TestSetCellSameValueEmitsOnce(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	var deltas []CellDelta
	sub := e.OnCellDelta(func(d CellDelta) { deltas = append(deltas, d) })
	defer sub.Cancel()

	mustSet(t, e, 1, 2)
	mustSet(t, e, 1, 2)

	want := []CellDelta{{X: 1, Y: 2, Alive: true}}
	if !slices.Equal(deltas, want) {
		t.Fatalf("deltas = %v, want %v", deltas, want)
	}
}

func TestToggleEmitsDelta(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	var deltas []CellDelta
	e.OnCellDelta(func(d CellDelta) { deltas = append(deltas, d) })

	if _, err := e.ToggleCell(0, 0); err != nil {
		t.Fatal(err)
	}
	s, err := e.ToggleCell(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []CellDelta{{X: 0, Y: 0, Alive: true}, {X: 0, Y: 0, Alive: false}}
	if !slices.Equal(deltas, want) {
		t.Fatalf("deltas = %v, want %v", deltas, want)
	}
	if s.Alive(0, 0) {
		t.Fatal("cell should be dead after two toggles")
	}
}

func TestEditsRejectedWhilePlaying(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	mustSet(t, e, 1, 1)
	e.setPlaying(true)
	before := e.Snapshot()

	var deltas int
	e.OnCellDelta(func(CellDelta) { deltas++ })

	if _, err := e.ToggleCell(1, 1); !errors.Is(err, ErrInvalidWhilePlaying) {
		t.Fatalf("ToggleCell while playing: err = %v", err)
	}
	if _, err := e.SetCell(2, 2, true); !errors.Is(err, ErrInvalidWhilePlaying) {
		t.Fatalf("SetCell while playing: err = %v", err)
	}
	if !e.Snapshot().Grid().Equal(before.Grid()) {
		t.Fatal("grid changed by a rejected edit")
	}
	if deltas != 0 {
		t.Fatalf("rejected edits emitted %d deltas", deltas)
	}
}

func TestOutOfBoundsForEveryCellOperation(t *testing.T) {
	e := newTestEngine(t, 6, 3)
	for _, pt := range [][2]int{{-1, 0}, {6, 0}, {0, -1}, {0, 3}} {
		x, y := pt[0], pt[1]
		if _, err := e.Cell(x, y); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Cell(%d,%d): err = %v", x, y, err)
		}
		if _, err := e.ToggleCell(x, y); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("ToggleCell(%d,%d): err = %v", x, y, err)
		}
		if _, err := e.SetCell(x, y, true); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("SetCell(%d,%d): err = %v", x, y, err)
		}
		var oob *core.OutOfBoundsError
		if _, err := e.ToggleCell(x, y); !errors.As(err, &oob) || oob.X != x || oob.Y != y {
			t.Errorf("ToggleCell(%d,%d): missing coordinates in %v", x, y, err)
		}
	}
	if e.Snapshot().Population() != 0 {
		t.Fatal("out of bounds edit mutated the grid")
	}
}

func TestOutOfBoundsReportedBeforePlaying(t *testing.T) {
	e := newTestEngine(t, 3, 3)
	e.setPlaying(true)
	if _, err := e.SetCell(3, 0, true); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("err = %v, want out of bounds", err)
	}
}

func TestRandomizeResetsGenerationAndHalfAlive(t *testing.T) {
	e := newTestEngine(t, 40, 30)
	const trials = 20
	n := 40 * 30
	total := 0
	for i := 0; i < trials; i++ {
		e.Step()
		s := e.Randomize()
		if s.Generation != 0 {
			t.Fatalf("generation after randomize = %d", s.Generation)
		}
		total += s.Population()
	}
	mean := float64(total) / trials
	if mean < 0.45*float64(n) || mean > 0.55*float64(n) {
		t.Fatalf("mean population %.1f far from %d", mean, n/2)
	}
}

func TestClearWhilePlayingKeepsPlaying(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	mustSet(t, e, 0, 0)
	e.Step()
	e.setPlaying(true)

	s := e.Clear()
	if !s.Playing || s.Generation != 0 || s.Population() != 0 {
		t.Fatalf("clear while playing = gen %d playing %v pop %d", s.Generation, s.Playing, s.Population())
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	e := newTestEngine(t, 3, 3)
	before := e.Snapshot()
	rows := before.Rows()
	rows[0][0] = true

	mustSet(t, e, 1, 1)
	e.Step()

	if before.Alive(1, 1) || before.Alive(0, 0) || before.Generation != 0 {
		t.Fatal("earlier snapshot observed a later mutation")
	}
}

func TestSetPlayingEmitsOnlyOnChange(t *testing.T) {
	e := newTestEngine(t, 2, 2)
	var n int
	e.OnFullState(func(Snapshot) { n++ })
	e.setPlaying(true)
	e.setPlaying(true)
	e.setPlaying(false)
	if n != 2 {
		t.Fatalf("got %d notifications, want 2", n)
	}
}

func TestToroidalEngine(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Height, opts.Boundary, opts.Seed = 5, 5, life.Toroidal, 1
	e := New(opts)
	defer e.Close()
	for _, x := range []int{4, 0, 1} {
		mustSet(t, e, x, 0)
	}
	s := e.Step()
	if !s.Alive(0, 4) || !s.Alive(0, 0) || !s.Alive(0, 1) {
		t.Fatalf("blinker did not wrap: %v", s.Rows())
	}
}
