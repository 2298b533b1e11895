package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
	"github.com/matzehuels/graphreveal/pkg/graph"
	"github.com/matzehuels/graphreveal/pkg/interaction"
	"github.com/matzehuels/graphreveal/pkg/session"
)

type pointerRequest struct {
	Node string `json:"node"`
	interaction.Modifiers
}

type toggleRequest struct {
	Node string `json:"node"`
	Mode string `json:"mode"`
}

type selectionRequest struct {
	IDs   []string `json:"ids"`
	Widen bool     `json:"widen"`
}

type appliedResponse struct {
	Applied graph.Applied `json:"applied"`
	Version uint64        `json:"version"`
}

// =============================================================================
// Readout
// =============================================================================

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Frame())
}

func (s *Server) handleDelta(w http.ResponseWriter, r *http.Request) {
	node := r.URL.Query().Get("node")
	if err := rerrors.ValidateNodeID(node); err != nil {
		writeError(w, err)
		return
	}
	mode, err := graph.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Compute(r.Context(), node, mode))
}

// =============================================================================
// Pointer events
// =============================================================================

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if !decode(w, r, &req) {
		return
	}
	if err := rerrors.ValidateNodeID(req.Node); err != nil {
		writeError(w, err)
		return
	}
	state := s.engine.Hover(r.Context(), req.Node, req.Modifiers)
	writeJSON(w, http.StatusOK, state)
	s.publish()
}

func (s *Server) handleHoverEnd(w http.ResponseWriter, r *http.Request) {
	s.engine.HoverEnd(r.Context())
	w.WriteHeader(http.StatusNoContent)
	s.publish()
}

func (s *Server) handleModifiers(w http.ResponseWriter, r *http.Request) {
	var mods interaction.Modifiers
	if !decode(w, r, &mods) {
		return
	}
	state := s.engine.ModifiersChanged(r.Context(), mods)
	writeJSON(w, http.StatusOK, state)
	s.publish()
}

func (s *Server) handleDoubleClick(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if !decode(w, r, &req) {
		return
	}
	applied, err := s.engine.DoubleClick(r.Context(), req.Node, req.Modifiers)
	s.respondApplied(w, applied, err)
}

func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	s.engine.DragStart(r.Context())
	w.WriteHeader(http.StatusNoContent)
	s.publish()
}

// =============================================================================
// Direct operations
// =============================================================================

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if !decode(w, r, &req) {
		return
	}
	if err := rerrors.ValidateNodeID(req.Node); err != nil {
		writeError(w, err)
		return
	}
	mode, err := graph.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	applied, err := s.engine.Toggle(r.Context(), req.Node, mode)
	s.respondApplied(w, applied, err)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !decode(w, r, &req) {
		return
	}
	applied, err := s.engine.Select(r.Context(), req.IDs, req.Widen)
	s.respondApplied(w, applied, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	applied, err := s.engine.Reset(r.Context())
	s.respondApplied(w, applied, err)
}

func (s *Server) respondApplied(w http.ResponseWriter, applied graph.Applied, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appliedResponse{Applied: applied, Version: s.engine.Version()})
	s.publish()
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	sess := session.New(s.opts.DatasetPath, s.opts.DatasetHash, s.engine.Snapshot(), session.DefaultTTL)
	if err := s.opts.Store.Set(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleRestoreSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := rerrors.ValidateSessionID(id); err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.opts.Store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.opts.DatasetHash != "" && sess.DatasetHash != s.opts.DatasetHash {
		writeError(w, rerrors.New(rerrors.ErrCodeInvalidInput,
			"session %s belongs to another dataset", sess.ID))
		return
	}
	applied, err := s.engine.Restore(r.Context(), sess.Snapshot)
	s.respondApplied(w, applied, err)
}

// =============================================================================
// Encoding
// =============================================================================

const maxBodyBytes = 1 << 20

// decode reads a JSON body. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, rerrors.Wrap(rerrors.ErrCodeInvalidInput, err, "invalid request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code  rerrors.Code `json:"code"`
	Error string       `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	code := rerrors.GetCode(err)
	if code == "" {
		code = rerrors.ErrCodeInternal
	}
	writeJSON(w, rerrors.HTTPStatus(err), errorResponse{Code: code, Error: rerrors.UserMessage(err)})
}
