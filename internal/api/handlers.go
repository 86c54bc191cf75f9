package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/LoveLoop/internal/models"
)

// sessionPayload is the session view returned to clients. The raw panel
// text and internal generation counter stay server-side.
type sessionPayload struct {
	SessionID  string               `json:"session_id"`
	Player     models.Character     `json:"player"`
	Partner    models.Partner       `json:"partner"`
	Affinity   int                  `json:"affinity"`
	StageLabel string               `json:"stage_label"`
	Status     models.SessionStatus `json:"status"`
}

func toSessionPayload(sess *models.Session) sessionPayload {
	return sessionPayload{
		SessionID:  sess.ID,
		Player:     sess.Player,
		Partner:    sess.Partner,
		Affinity:   sess.Affinity,
		StageLabel: sess.StageLabel,
		Status:     sess.Status,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.SessionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("api.handleCreateSession: invalid JSON body", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Debug("api.handleCreateSession: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	sess, opening, err := s.orch.Bootstrap(r.Context(), req)
	if err != nil {
		slog.Error("api.handleCreateSession: bootstrap failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to create session"))
		return
	}

	slog.Info("api.handleCreateSession: session created", "sessionID", sess.ID, "player", sess.Player.Name, "partner", sess.Partner.Name)
	writeJSONResponse(w, http.StatusCreated, models.Success(map[string]interface{}{
		"session": toSessionPayload(sess),
		"opening": opening,
	}))
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("api.handleTurn: invalid JSON body", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Debug("api.handleTurn: validation failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	result, err := s.orch.AdvanceTurn(r.Context(), sessionID, req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrSessionNotFound):
			writeJSONResponse(w, http.StatusNotFound, models.Error("session not found"))
		case errors.Is(err, models.ErrTurnInProgress):
			writeJSONResponse(w, http.StatusConflict, models.Error("a turn is already in progress"))
		case errors.Is(err, models.ErrTurnDiscarded):
			writeJSONResponse(w, http.StatusConflict, models.Error("turn discarded by restart"))
		default:
			slog.Error("api.handleTurn: turn failed", "error", err, "sessionID", sessionID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to process turn"))
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	status, err := s.orch.Status(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("session not found"))
			return
		}
		slog.Error("api.handleSessionStatus: lookup failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to load session"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(status))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	history, err := s.orch.History(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("session not found"))
			return
		}
		slog.Error("api.handleHistory: lookup failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to load history"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"session_id": sessionID,
		"messages":   history,
	}))
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	sess, err := s.orch.Restart(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("session not found"))
			return
		}
		slog.Error("api.handleRestart: restart failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to restart session"))
		return
	}

	slog.Info("api.handleRestart: session restarted", "sessionID", sessionID, "generation", sess.Generation)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("session restarted", toSessionPayload(sess)))
}
