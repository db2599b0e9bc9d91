package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/solhome/sol-core/internal/dispatch"
)

// chatRequest is the body for POST /api/v1/chat.
type chatRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"sessionId,omitempty"`
}

// handleChat runs one conversational turn through the assistant.
//
// The reply always echoes the model text; when a directive was
// extracted the parsed command, resolved parameters, and delivery
// outcome ride along. Upstream model failures map to 502 so callers can
// distinguish them from our own errors.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUpstream, "chat service not configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Prompt == "" {
		writeBadRequest(w, "prompt is required")
		return
	}

	reply, err := s.chat.HandleChat(r.Context(), req.SessionID, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrDeviceResolution):
			writeNotFound(w, "no matching device")
		case errors.Is(err, dispatch.ErrValidation):
			writeBadRequest(w, "invalid command")
		default:
			writeError(w, http.StatusBadGateway, ErrCodeUpstream, "assistant unavailable")
		}
		return
	}

	writeJSON(w, http.StatusOK, reply)
}
