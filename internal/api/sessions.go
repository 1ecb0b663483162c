package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"lifesync/internal/engine"
	"lifesync/internal/session"
)

// sessionCreated is the body returned by POST /api/v1/sessions.
type sessionCreated struct {
	ID    string          `json:"id"`
	State engine.Snapshot `json:"state"`
}

// sessionSummary is one entry of GET /api/v1/sessions.
type sessionSummary struct {
	ID         string    `json:"id"`
	Created    time.Time `json:"created"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Generation int       `json:"generation"`
	Playing    bool      `json:"playing"`
}

// cellState is returned by GET .../cells/{x}/{y}.
type cellState struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Alive bool `json:"alive"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	all := s.sessions.List()
	out := make([]sessionSummary, 0, len(all))
	for _, sess := range all {
		snap := sess.Engine.Snapshot()
		out = append(out, sessionSummary{
			ID:         sess.ID,
			Created:    sess.Created,
			Width:      snap.Width(),
			Height:     snap.Height(),
			Generation: snap.Generation,
			Playing:    snap.Playing,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var spec session.Spec
	if err := decodeOptional(r, &spec); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	sess, err := s.sessions.Create(spec)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionCreated{ID: sess.ID, State: sess.Engine.Snapshot()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Engine.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCell(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	y, errY := strconv.Atoi(chi.URLParam(r, "y"))
	if errX != nil || errY != nil {
		writeBadRequest(w, "x and y must be integers")
		return
	}
	alive, err := sess.Engine.Cell(x, y)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cellState{X: x, Y: y, Alive: alive})
}

// handleCommand runs op against the session engine. The request body, if
// any, supplies the command arguments.
func (s *Server) handleCommand(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.lookup(w, r)
		if !ok {
			return
		}
		var cmd command
		if err := decodeOptional(r, &cmd); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		cmd.Op = op

		result, err := s.execute(sess.Engine, cmd)
		if err != nil {
			writeFailure(w, err)
			return
		}
		status := http.StatusOK
		if op == OpPlay {
			status = http.StatusAccepted
		}
		writeJSON(w, status, result)
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return nil, false
	}
	return sess, true
}

// decodeOptional decodes a JSON body into v. An empty body leaves v alone.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
