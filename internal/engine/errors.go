package engine

import (
	"errors"

	"lifesync/pkg/core"
)

var (
	// ErrOutOfBounds reports a coordinate outside the grid extents.
	ErrOutOfBounds = core.ErrOutOfBounds

	// ErrInvalidWhilePlaying reports a manual edit attempted during autoplay.
	ErrInvalidWhilePlaying = errors.New("grid is read-only while autoplay is running")

	// ErrSchedulerMisuse reports an autoplay request the scheduler cannot honour,
	// such as a non-positive interval or a tick arriving after cancellation.
	ErrSchedulerMisuse = errors.New("autoplay scheduler misuse")

	// ErrClosed reports use of an engine after Close.
	ErrClosed = errors.New("engine closed")
)
