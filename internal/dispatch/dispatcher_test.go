package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/solhome/sol-core/internal/directive"
	"github.com/solhome/sol-core/internal/infrastructure/config"
	"github.com/solhome/sol-core/internal/registry"
)

// mockSink records published messages and can simulate failures.
type mockSink struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (m *mockSink) PublishCommand(topic string, payload []byte) error {
	if m.err != nil {
		return m.err
	}
	m.topics = append(m.topics, topic)
	m.payloads = append(m.payloads, payload)
	return nil
}

func (m *mockSink) lastPayload(t *testing.T) commandPayload {
	t.Helper()
	if len(m.payloads) == 0 {
		t.Fatal("nothing published")
	}
	var p commandPayload
	if err := json.Unmarshal(m.payloads[len(m.payloads)-1], &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return p
}

func newTestRegistry() *registry.Registry {
	return registry.New(config.RegistryConfig{
		Clients: []config.ClientConfig{
			{
				ID:       "esp32_livingroom",
				Name:     "Living Room Controller",
				Location: "Living Room",
				AuthKey:  "secret",
				Devices: []config.DeviceConfig{
					{ID: "light1", Name: "Main Light", Type: "light"},
					{ID: "light2", Name: "Reading Light", Type: "light"},
				},
			},
		},
	})
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestDispatch_SingleDeviceModeBypassesResolution(t *testing.T) {
	reg := newTestRegistry()
	sink := &mockSink{}
	d := New(reg, sink)

	res, err := d.Dispatch(context.Background(), directive.Command{
		Action: directive.ActionControl,
		Device: directive.DeviceLED,
		State:  directive.StateOn,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if res.Topic != "solhome/device/led" {
		t.Errorf("Topic = %q, want solhome/device/led", res.Topic)
	}
	if res.ClientID != "" || res.DeviceID != "" {
		t.Errorf("resolution should be bypassed, got client=%q device=%q", res.ClientID, res.DeviceID)
	}
	if p := sink.lastPayload(t); p.State != directive.StateOn {
		t.Errorf("published state = %q, want ON", p.State)
	}
}

func TestDispatch_ResolvesAndMutatesRegistry(t *testing.T) {
	reg := newTestRegistry()
	sink := &mockSink{}
	d := New(reg, sink)

	res, err := d.Dispatch(context.Background(), directive.Command{
		Action:   directive.ActionControl,
		Device:   directive.DeviceLight,
		Location: "Living Room",
		Name:     "Reading Light",
		State:    directive.StateOn,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if res.ClientID != "esp32_livingroom" || res.DeviceID != "light2" {
		t.Errorf("resolved (%q, %q), want (esp32_livingroom, light2)", res.ClientID, res.DeviceID)
	}

	client, _ := reg.FindClient("esp32_livingroom")
	if !client.Devices[1].Status {
		t.Error("device status not flipped on")
	}
	if !client.IsOnline {
		t.Error("client not marked online after dispatch")
	}
}

func TestDispatch_ResolutionFailureDoesNotPublish(t *testing.T) {
	reg := newTestRegistry()
	sink := &mockSink{}
	d := New(reg, sink)

	_, err := d.Dispatch(context.Background(), directive.Command{
		Action:   directive.ActionControl,
		Device:   directive.DeviceLight,
		Location: "Garage",
		State:    directive.StateOn,
	})

	if !errors.Is(err, ErrDeviceResolution) {
		t.Fatalf("error = %v, want ErrDeviceResolution", err)
	}
	if len(sink.topics) != 0 {
		t.Error("nothing must be published when resolution fails")
	}
}

func TestDispatch_BlinkResolvesParams(t *testing.T) {
	reg := newTestRegistry()
	sink := &mockSink{}
	d := New(reg, sink)

	res, err := d.Dispatch(context.Background(), directive.Command{
		Action: directive.ActionControl,
		Device: directive.DeviceLED,
		State:  directive.StateBlink,
		Params: directive.Params{
			Times:    intPtr(10),
			Duration: floatPtr(10),
		},
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	want := map[string]float64{"delay": 0.5, "times": 10, "duration": 10}
	for k, v := range want {
		if res.Params[k] != v {
			t.Errorf("Params[%q] = %v, want %v", k, res.Params[k], v)
		}
	}

	p := sink.lastPayload(t)
	if p.Params["delay"] != 0.5 {
		t.Errorf("published delay = %v, want 0.5", p.Params["delay"])
	}
}

func TestDispatch_BlinkLeavesStatusUntouched(t *testing.T) {
	reg := newTestRegistry()
	sink := &mockSink{}
	d := New(reg, sink)

	_, err := d.Dispatch(context.Background(), directive.Command{
		Action:   directive.ActionControl,
		Device:   directive.DeviceLight,
		Location: "Living Room",
		Name:     "Main Light",
		State:    directive.StateBlink,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	client, _ := reg.FindClient("esp32_livingroom")
	if client.Devices[0].Status {
		t.Error("blink must not flip the stored boolean status")
	}
}

func TestDispatch_OnDurationPassesThroughUnclamped(t *testing.T) {
	reg := newTestRegistry()
	sink := &mockSink{}
	d := New(reg, sink)

	res, err := d.Dispatch(context.Background(), directive.Command{
		Action: directive.ActionControl,
		Device: directive.DeviceLED,
		State:  directive.StateOn,
		Params: directive.Params{Duration: floatPtr(30)},
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(res.Params) != 1 || res.Params["duration"] != 30 {
		t.Errorf("Params = %v, want exactly {duration: 30}", res.Params)
	}
}

func TestDispatch_InvalidState(t *testing.T) {
	d := New(newTestRegistry(), &mockSink{})

	_, err := d.Dispatch(context.Background(), directive.Command{
		Action: directive.ActionControl,
		Device: directive.DeviceLED,
		State:  directive.State("SPARKLE"),
	})

	if !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestDispatch_SinkError(t *testing.T) {
	reg := newTestRegistry()
	sink := &mockSink{err: errors.New("broker unreachable")}
	d := New(reg, sink)

	_, err := d.Dispatch(context.Background(), directive.Command{
		Action: directive.ActionControl,
		Device: directive.DeviceLED,
		State:  directive.StateOff,
	})

	if !errors.Is(err, ErrSink) {
		t.Errorf("error = %v, want ErrSink", err)
	}
}

func TestDispatch_DelayedOffFlipsTerminalState(t *testing.T) {
	reg := newTestRegistry()
	if err := reg.SetDeviceState("esp32_livingroom", "light1", true); err != nil {
		t.Fatal(err)
	}
	sink := &mockSink{}
	d := New(reg, sink)

	_, err := d.Dispatch(context.Background(), directive.Command{
		Action:   directive.ActionControl,
		Device:   directive.DeviceLight,
		Location: "Living Room",
		Name:     "Main Light",
		State:    directive.StateDelayedOff,
		Params:   directive.Params{Delay: floatPtr(5)},
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	// The dispatcher records the terminal expected state for the UI;
	// the controller owns the actual timing.
	client, _ := reg.FindClient("esp32_livingroom")
	if client.Devices[0].Status {
		t.Error("DELAYED_OFF should record the terminal off state")
	}

	if p := sink.lastPayload(t); p.Params["delay"] != 5 {
		t.Errorf("published delay = %v, want 5", p.Params["delay"])
	}
}
