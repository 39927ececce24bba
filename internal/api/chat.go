package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ledgerchat/ledgerchat/internal/chat"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

func handleChat(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Orchestrator == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "CHAT_NOT_CONFIGURED", "chat orchestrator is not configured", false, nil)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body", false, nil)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "message is required", false, nil)
		return
	}

	reply, err := deps.Orchestrator.Handle(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CHAT_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func handleListSessions(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return
	}
	infos, err := deps.Sessions.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_LIST_FAILED", err.Error(), true, nil)
		return
	}
	if infos == nil {
		infos = []chat.SessionInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": infos, "count": len(infos)})
}

func handleGetSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return
	}
	sessionID := r.PathValue("session")
	messages, err := deps.Sessions.Messages(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_READ_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   messages,
		"count":      len(messages),
	})
}
