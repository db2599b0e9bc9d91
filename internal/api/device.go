package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/solhome/sol-core/internal/registry"
)

// deviceControlRequest is the body for POST /api/v1/device. This is the
// direct control path used by UIs, bypassing the assistant.
type deviceControlRequest struct {
	ClientID string `json:"clientId"`
	DeviceID string `json:"deviceId"`
	Type     string `json:"type"`
	Command  struct {
		State string `json:"state"`
	} `json:"command"`
}

// deviceUpdateRequest is the body for PUT /api/v1/device: an
// authenticated heartbeat, optionally reporting one device's status.
type deviceUpdateRequest struct {
	ClientID string  `json:"clientId"`
	AuthKey  string  `json:"authKey"`
	DeviceID *string `json:"deviceId,omitempty"`
	Status   *bool   `json:"status,omitempty"`
}

// handleDeviceControl flips a device on or off by explicit identity.
//
// Only the terminal ON/OFF states are accepted here; timed and blink
// behaviour goes through the assistant so parameters are resolved.
func (s *Server) handleDeviceControl(w http.ResponseWriter, r *http.Request) {
	var req deviceControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.ClientID == "" || req.DeviceID == "" || req.Type == "" || req.Command.State == "" {
		writeBadRequest(w, "missing required parameters")
		return
	}
	if req.Command.State != "ON" && req.Command.State != "OFF" {
		writeBadRequest(w, "invalid command state")
		return
	}

	status := req.Command.State == "ON"
	if err := s.registry.SetDeviceState(req.ClientID, req.DeviceID, status); err != nil {
		switch {
		case errors.Is(err, registry.ErrClientNotFound):
			writeNotFound(w, "client not found")
		case errors.Is(err, registry.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		default:
			writeInternalError(w, "updating device state")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"command":     req.Command,
		"deviceState": status,
	})
}

// handleDeviceUpdate processes an authenticated heartbeat from a
// controller, optionally carrying a device status report.
//
// The shared key may arrive in the body or as a bearer token; both are
// compared exact-match against the provisioned secret. On auth failure
// the registry is left untouched.
func (s *Server) handleDeviceUpdate(w http.ResponseWriter, r *http.Request) {
	var req deviceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	authKey := req.AuthKey
	if authKey == "" {
		authKey = bearerToken(r)
	}
	if req.ClientID == "" || authKey == "" {
		writeBadRequest(w, "missing authentication parameters")
		return
	}

	if _, err := s.registry.Authenticate(req.ClientID, authKey); err != nil {
		writeUnauthorized(w, "authentication failed")
		return
	}

	if req.DeviceID != nil && req.Status != nil {
		if err := s.registry.SetDeviceState(req.ClientID, *req.DeviceID, *req.Status); err != nil {
			writeNotFound(w, "device not found")
			return
		}
	} else {
		if err := s.registry.Heartbeat(req.ClientID); err != nil {
			writeNotFound(w, "client not found")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleDeviceStatus returns one client or the full list, secrets
// redacted either way.
//
// Polling a specific client counts as liveness: its LastSeen is
// refreshed. A bearer token, when supplied, must match that client.
func (s *Server) handleDeviceStatus(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")

	if clientID == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"clients": s.registry.Snapshot(false),
		})
		return
	}

	if token := bearerToken(r); token != "" {
		if _, err := s.registry.Authenticate(clientID, token); err != nil {
			writeUnauthorized(w, "authentication failed")
			return
		}
	}

	if err := s.registry.Heartbeat(clientID); err != nil {
		writeNotFound(w, "client not found")
		return
	}

	client, err := s.registry.FindClient(clientID)
	if err != nil {
		writeNotFound(w, "client not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"client": client})
}

// bearerToken extracts the token from an Authorization: Bearer header,
// or returns empty.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}
