package api

import (
	"fmt"
	"time"

	"lifesync/internal/engine"
)

// Command operations accepted over HTTP and WebSocket.
const (
	OpToggle    = "toggle"
	OpSet       = "set"
	OpStep      = "step"
	OpClear     = "clear"
	OpRandomize = "randomize"
	OpPlay      = "play"
	OpPause     = "pause"
)

// command is one engine operation with its arguments.
type command struct {
	Op         string `json:"op"`
	X          *int   `json:"x,omitempty"`
	Y          *int   `json:"y,omitempty"`
	Alive      *bool  `json:"alive,omitempty"`
	IntervalMS int    `json:"interval_ms,omitempty"`
}

// playResult is returned by a play command.
type playResult struct {
	Playing    bool  `json:"playing"`
	IntervalMS int64 `json:"interval_ms"`
}

// execute applies cmd to eng and returns the result payload.
func (s *Server) execute(eng *engine.Engine, cmd command) (any, error) {
	switch cmd.Op {
	case OpToggle:
		x, y, err := cmd.coords()
		if err != nil {
			return nil, err
		}
		return eng.ToggleCell(x, y)
	case OpSet:
		x, y, err := cmd.coords()
		if err != nil {
			return nil, err
		}
		if cmd.Alive == nil {
			return nil, fmt.Errorf("%w: alive is required", errBadCommand)
		}
		return eng.SetCell(x, y, *cmd.Alive)
	case OpStep:
		return eng.Step(), nil
	case OpClear:
		return eng.Clear(), nil
	case OpRandomize:
		return eng.Randomize(), nil
	case OpPlay:
		interval := s.sessions.DefaultInterval()
		if cmd.IntervalMS < 0 {
			return nil, fmt.Errorf("%w: interval_ms must not be negative", errBadCommand)
		}
		if cmd.IntervalMS > 0 {
			interval = time.Duration(cmd.IntervalMS) * time.Millisecond
		}
		if err := eng.StartAutoplay(interval); err != nil {
			return nil, err
		}
		return playResult{Playing: true, IntervalMS: eng.AutoplayInterval().Milliseconds()}, nil
	case OpPause:
		return eng.StopAutoplay(), nil
	default:
		return nil, fmt.Errorf("%w: unknown op %q", errBadCommand, cmd.Op)
	}
}

func (c command) coords() (int, int, error) {
	if c.X == nil || c.Y == nil {
		return 0, 0, fmt.Errorf("%w: x and y are required", errBadCommand)
	}
	return *c.X, *c.Y, nil
}
