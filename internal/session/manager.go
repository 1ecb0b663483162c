// Package session keeps the set of live simulation sessions. Each session
// owns one engine; nothing is shared between sessions.
package session

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"lifesync/internal/engine"
	"lifesync/internal/logging"
	"lifesync/internal/metrics"
	"lifesync/pkg/sims/life"
)

var (
	// ErrSessionNotFound reports an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionLimit reports that max_sessions sessions are already open.
	ErrSessionLimit = errors.New("session limit reached")
	// ErrInvalidSpec reports unusable session parameters.
	ErrInvalidSpec = errors.New("invalid session parameters")
)

// maxCells caps the grid size a client may request.
const maxCells = 1 << 20

// Spec describes a session to create. Zero fields take the manager defaults.
type Spec struct {
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Boundary string `json:"boundary,omitempty"`
	Seed     int64  `json:"seed,omitempty"`
}

// Defaults are applied to Spec fields left at zero.
type Defaults struct {
	Width       int
	Height      int
	Boundary    life.Boundary
	MinInterval time.Duration
	Interval    time.Duration
}

// Session is one engine plus its identity.
type Session struct {
	ID      string
	Created time.Time
	Engine  *engine.Engine

	mu      sync.Mutex
	nextID  uint64
	closers map[uint64]func()
	closed  bool
}

// Defer registers fn to run when the session closes. Callbacks run in
// reverse registration order, after the engine has stopped. The returned
// func unregisters fn; on an already closed session fn runs immediately.
func (s *Session) Defer(fn func()) (cancel func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return func() {}
	}
	if s.closers == nil {
		s.closers = make(map[uint64]func())
	}
	s.nextID++
	id := s.nextID
	s.closers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.closers, id)
		s.mu.Unlock()
	}
}

func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	s.Engine.Close()
	ids := slices.Sorted(maps.Keys(closers))
	slices.Reverse(ids)
	for _, id := range ids {
		closers[id]()
	}
}

// Manager creates, finds and closes sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	defaults Defaults
	limit    int
	hooks    []func(*Session)
	logger   *logging.Logger
}

// NewManager returns an empty manager. A limit of zero means unlimited.
func NewManager(defaults Defaults, limit int, logger *logging.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		defaults: defaults,
		limit:    limit,
		logger:   logging.OrDiscard(logger).With("component", "session"),
	}
}

// DefaultInterval is the autoplay interval used when a client gives none.
func (m *Manager) DefaultInterval() time.Duration { return m.defaults.Interval }

// OnCreate registers fn to run for every new session, before Create returns.
func (m *Manager) OnCreate(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Create opens a new session.
func (m *Manager) Create(spec Spec) (*Session, error) {
	opts, err := m.options(spec)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.limit > 0 && len(m.sessions) >= m.limit {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w (%d)", ErrSessionLimit, m.limit)
	}
	id := uuid.NewString()
	opts.Logger = m.logger.With("session", id)
	s := &Session{ID: id, Created: time.Now().UTC(), Engine: engine.New(opts)}
	m.sessions[id] = s
	hooks := append([]func(*Session){}, m.hooks...)
	m.mu.Unlock()

	metrics.ActiveSessions.Inc()
	for _, h := range hooks {
		h(s)
	}
	m.logger.Info("session created", "session", id, "width", opts.Width, "height", opts.Height,
		"boundary", opts.Boundary.String())
	return s, nil
}

func (m *Manager) options(spec Spec) (engine.Options, error) {
	opts := engine.Options{
		Width:       m.defaults.Width,
		Height:      m.defaults.Height,
		Boundary:    m.defaults.Boundary,
		Seed:        spec.Seed,
		MinInterval: m.defaults.MinInterval,
	}
	if spec.Width != 0 {
		opts.Width = spec.Width
	}
	if spec.Height != 0 {
		opts.Height = spec.Height
	}
	if !fitsCells(opts.Width, opts.Height) {
		return opts, fmt.Errorf("%w: grid %dx%d", ErrInvalidSpec, opts.Width, opts.Height)
	}
	if spec.Boundary != "" {
		b, err := life.ParseBoundary(spec.Boundary)
		if err != nil {
			return opts, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
		opts.Boundary = b
	}
	return opts, nil
}

// fitsCells reports whether a w×h grid is non-negative and holds at most
// maxCells cells. Each side is bounded before multiplying.
func fitsCells(w, h int) bool {
	if w < 0 || h < 0 || w > maxCells || h > maxCells {
		return false
	}
	return h == 0 || w <= maxCells/h
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns the open sessions ordered by creation time.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Session) int { return a.Created.Compare(b.Created) })
	return out
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops and removes the session with the given id.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.close()
	metrics.ActiveSessions.Dec()
	m.logger.Info("session closed", "session", id)
	return nil
}

// CloseAll closes every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.close()
		metrics.ActiveSessions.Dec()
	}
	if len(all) > 0 {
		m.logger.Info("closed all sessions", "count", len(all))
	}
}
