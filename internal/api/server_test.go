package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/solhome/sol-core/internal/assistant"
	"github.com/solhome/sol-core/internal/dispatch"
	"github.com/solhome/sol-core/internal/infrastructure/config"
	"github.com/solhome/sol-core/internal/infrastructure/logging"
	"github.com/solhome/sol-core/internal/registry"
)

// mockChat returns a canned reply or error.
type mockChat struct {
	reply *assistant.Reply
	err   error
}

func (m *mockChat) HandleChat(_ context.Context, sessionID, _ string) (*assistant.Reply, error) {
	if m.err != nil {
		return nil, m.err
	}
	r := *m.reply
	if r.SessionID == "" {
		r.SessionID = sessionID
	}
	return &r, nil
}

func testRegistryConfig() config.RegistryConfig {
	return config.RegistryConfig{
		Clients: []config.ClientConfig{
			{
				ID:       "esp32_livingroom",
				Name:     "Living Room Controller",
				Location: "Living Room",
				AuthKey:  "living-room-secret",
				Devices: []config.DeviceConfig{
					{ID: "light1", Name: "Main Light", Type: "light"},
					{ID: "light2", Name: "Reading Light", Type: "light"},
				},
			},
		},
	}
}

// newTestServer builds a server around a fresh registry and the given
// chat service, returning both for assertions.
func newTestServer(t *testing.T, chat ChatService) (*Server, *registry.Registry) {
	t.Helper()
	reg := registry.New(testRegistryConfig())
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
	srv, err := New(Deps{
		Config:   config.APIConfig{},
		Logger:   logger,
		Registry: reg,
		Chat:     chat,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, reg
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.buildRouter(), http.MethodGet, "/api/v1/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["clients"] != float64(1) {
		t.Errorf("clients = %v, want 1", body["clients"])
	}
}

func TestDeviceControl(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "turn on",
			body:       `{"clientId":"esp32_livingroom","deviceId":"light1","type":"light","command":{"state":"ON"}}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing deviceId",
			body:       `{"clientId":"esp32_livingroom","type":"light","command":{"state":"ON"}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing command state",
			body:       `{"clientId":"esp32_livingroom","deviceId":"light1","type":"light","command":{}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "timed states rejected on direct path",
			body:       `{"clientId":"esp32_livingroom","deviceId":"light1","type":"light","command":{"state":"BLINK"}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown client",
			body:       `{"clientId":"nope","deviceId":"light1","type":"light","command":{"state":"ON"}}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown device on known client",
			body:       `{"clientId":"esp32_livingroom","deviceId":"nope","type":"light","command":{"state":"ON"}}`,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, nil)
			rec := doJSON(t, srv.buildRouter(), http.MethodPost, "/api/v1/device", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestDeviceControl_UpdatesRegistry(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	router := srv.buildRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/device",
		`{"clientId":"esp32_livingroom","deviceId":"light1","type":"light","command":{"state":"ON"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["deviceState"] != true {
		t.Errorf("deviceState = %v, want true", body["deviceState"])
	}

	client, _ := reg.FindClient("esp32_livingroom")
	if !client.Devices[0].Status || !client.IsOnline {
		t.Error("registry not updated by control request")
	}
}

func TestDeviceUpdate_Heartbeat(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	router := srv.buildRouter()

	rec := doJSON(t, router, http.MethodPut, "/api/v1/device",
		`{"clientId":"esp32_livingroom","authKey":"living-room-secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	client, _ := reg.FindClient("esp32_livingroom")
	if !client.IsOnline {
		t.Error("heartbeat should mark the client online")
	}
}

func TestDeviceUpdate_StatusReport(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	router := srv.buildRouter()

	rec := doJSON(t, router, http.MethodPut, "/api/v1/device",
		`{"clientId":"esp32_livingroom","authKey":"living-room-secret","deviceId":"light2","status":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	client, _ := reg.FindClient("esp32_livingroom")
	if !client.Devices[1].Status {
		t.Error("reported device status not stored")
	}
}

func TestDeviceUpdate_AuthFailureLeavesRegistryUntouched(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	router := srv.buildRouter()

	rec := doJSON(t, router, http.MethodPut, "/api/v1/device",
		`{"clientId":"esp32_livingroom","authKey":"wrong","deviceId":"light1","status":true}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	client, _ := reg.FindClient("esp32_livingroom")
	if client.IsOnline || client.Devices[0].Status || !client.LastSeen.IsZero() {
		t.Error("failed auth must not mutate the registry")
	}
}

func TestDeviceUpdate_MissingAuth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.buildRouter(), http.MethodPut, "/api/v1/device",
		`{"clientId":"esp32_livingroom"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDeviceUpdate_UnknownNamedDevice(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.buildRouter(), http.MethodPut, "/api/v1/device",
		`{"clientId":"esp32_livingroom","authKey":"living-room-secret","deviceId":"nope","status":true}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeviceUpdate_BearerTokenAccepted(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/device",
		strings.NewReader(`{"clientId":"esp32_livingroom"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer living-room-secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (bearer and body key are interchangeable)", rec.Code)
	}
}

func TestDeviceStatus_List(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.buildRouter(), http.MethodGet, "/api/v1/device", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "living-room-secret") {
		t.Error("status list leaked an auth key")
	}

	body := decodeBody(t, rec)
	clients, ok := body["clients"].([]any)
	if !ok || len(clients) != 1 {
		t.Errorf("clients = %v, want one entry", body["clients"])
	}
}

func TestDeviceStatus_SingleClientRefreshesLastSeen(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	rec := doJSON(t, srv.buildRouter(), http.MethodGet, "/api/v1/device?clientId=esp32_livingroom", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "living-room-secret") {
		t.Error("client status leaked the auth key")
	}

	client, _ := reg.FindClient("esp32_livingroom")
	if !client.IsOnline || client.LastSeen.IsZero() {
		t.Error("polling a client should refresh its liveness")
	}
}

func TestDeviceStatus_UnknownClient(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.buildRouter(), http.MethodGet, "/api/v1/device?clientId=nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeviceStatus_BadBearerRejected(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/device?clientId=esp32_livingroom", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestChat_PlainReply(t *testing.T) {
	chat := &mockChat{reply: &assistant.Reply{
		SessionID: "s1",
		Message:   "Hello! I'm Sol.",
		Delivered: true,
	}}
	srv, _ := newTestServer(t, chat)

	rec := doJSON(t, srv.buildRouter(), http.MethodPost, "/api/v1/chat", `{"prompt":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["message"] != "Hello! I'm Sol." {
		t.Errorf("message = %v", body["message"])
	}
	if body["delivered"] != true {
		t.Error("delivered should be true")
	}
}

func TestChat_MissingPrompt(t *testing.T) {
	srv, _ := newTestServer(t, &mockChat{reply: &assistant.Reply{}})
	rec := doJSON(t, srv.buildRouter(), http.MethodPost, "/api/v1/chat", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChat_GeneratorFailure(t *testing.T) {
	srv, _ := newTestServer(t, &mockChat{err: fmt.Errorf("model down")})
	rec := doJSON(t, srv.buildRouter(), http.MethodPost, "/api/v1/chat", `{"prompt":"hi"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestChat_ResolutionFailure(t *testing.T) {
	srv, _ := newTestServer(t, &mockChat{
		err: fmt.Errorf("%w: no match", dispatch.ErrDeviceResolution),
	})
	rec := doJSON(t, srv.buildRouter(), http.MethodPost, "/api/v1/chat", `{"prompt":"garage light on"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestChat_UndeliveredCommandStillOK(t *testing.T) {
	chat := &mockChat{reply: &assistant.Reply{
		SessionID: "s1",
		Message:   "Blinking! ```action:control,device:led,state:BLINK```",
		Delivered: false,
	}}
	srv, _ := newTestServer(t, chat)

	rec := doJSON(t, srv.buildRouter(), http.MethodPost, "/api/v1/chat", `{"prompt":"blink"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (sink failures are delivery-uncertain, not errors)", rec.Code)
	}
	if body := decodeBody(t, rec); body["delivered"] != false {
		t.Error("delivered should be false when the sink failed")
	}
}
