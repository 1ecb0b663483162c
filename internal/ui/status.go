package ui

import (
	"fmt"
	"time"

	"lifesync/internal/engine"
)

// KeyHelp lists the viewer's keyboard bindings.
var KeyHelp = []string{
	"space  play/pause",
	"n      step",
	"c      clear",
	"r      randomize",
	"q/esc  quit",
}

// StatusLines describes s for the status panel.
func StatusLines(s engine.Snapshot, interval time.Duration) []string {
	mode := "paused"
	if s.Playing {
		mode = fmt.Sprintf("playing @ %v", interval)
	}
	lines := []string{
		fmt.Sprintf("generation  %d", s.Generation),
		fmt.Sprintf("population  %d", s.Population()),
		fmt.Sprintf("grid        %dx%d", s.Width(), s.Height()),
		mode,
	}
	if s.Playing {
		lines = append(lines, "editing locked")
	}
	return lines
}
