package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/skyrace/internal/api/request"
	"github.com/mcoot/skyrace/internal/api/response"
	"github.com/mcoot/skyrace/internal/model"
	"github.com/mcoot/skyrace/internal/services/session"
)

// SessionHandler handles player and lobby endpoints
type SessionHandler struct {
	coordinator *session.Coordinator
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(coordinator *session.Coordinator) *SessionHandler {
	return &SessionHandler{
		coordinator: coordinator,
	}
}

// Join handles POST /api/v1/players
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	result, err := h.coordinator.Join(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.JoinResponseFromResult(result))
}

// GetPlayer handles GET /api/v1/players/{id}
func (h *SessionHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := h.coordinator.GetPlayer(r.Context(), playerID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(&p))
}

// SubmitUpdate handles POST /api/v1/players/{id}/updates
func (h *SessionHandler) SubmitUpdate(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, fmt.Errorf("%w: invalid request body", model.ErrMalformedUpdate))
		return
	}

	u, err := req.ToUpdate()
	if err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.coordinator.SubmitUpdate(r.Context(), playerID(r), u)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UpdateResponseFromResult(result))
}

// ReportFinish handles POST /api/v1/players/{id}/finish
func (h *SessionHandler) ReportFinish(w http.ResponseWriter, r *http.Request) {
	var req request.FinishRequest
	// An empty body is a plain claim
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	result, err := h.coordinator.ReportFinish(r.Context(), playerID(r), req.Claimed())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.FinishResponseFromResult(result))
}

// Lobby handles GET /api/v1/lobby
func (h *SessionHandler) Lobby(w http.ResponseWriter, r *http.Request) {
	snap, err := h.coordinator.QueryState(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LobbyFromSnapshot(snap))
}

// Health handles GET /api/v1/health
func (h *SessionHandler) Health(w http.ResponseWriter, r *http.Request) {
	snap, err := h.coordinator.QueryState(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Health{Status: "ok", Players: len(snap.Players)})
}

func playerID(r *http.Request) model.PlayerID {
	return model.PlayerID(mux.Vars(r)["id"])
}
