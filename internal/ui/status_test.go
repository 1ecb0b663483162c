package ui

import (
	"testing"
	"time"

	"lifesync/internal/engine"
)

func TestStatusLines(t *testing.T) {
	opts := engine.DefaultOptions()
	opts.Width, opts.Height, opts.Seed = 4, 3, 1
	e := engine.New(opts)
	defer e.Close()

	if _, err := e.SetCell(0, 0, true); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	lines := StatusLines(e.Snapshot(), 0)
	want := []string{"generation  0", "population  1", "grid        4x3", "paused"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}

	if err := e.StartAutoplay(time.Second); err != nil {
		t.Fatalf("StartAutoplay: %v", err)
	}
	lines = StatusLines(e.Snapshot(), e.AutoplayInterval())
	if got := lines[3]; got != "playing @ 1s" {
		t.Fatalf("mode line = %q", got)
	}
	if got := lines[len(lines)-1]; got != "editing locked" {
		t.Fatalf("last line = %q", got)
	}
}
