package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/solhome/sol-core/internal/directive"
	"github.com/solhome/sol-core/internal/infrastructure/mqtt"
	"github.com/solhome/sol-core/internal/registry"
)

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Sink is the external publish channel for resolved commands.
// *mqtt.Client satisfies this interface.
type Sink interface {
	PublishCommand(topic string, payload []byte) error
}

// Result describes a successfully dispatched command.
type Result struct {
	// Topic the command was published to.
	Topic string `json:"topic"`
	// Params are the fully resolved numeric parameters that were sent.
	Params map[string]float64 `json:"params"`
	// ClientID/DeviceID identify the resolved target; empty in
	// single-device mode where resolution is bypassed.
	ClientID string `json:"clientId,omitempty"`
	DeviceID string `json:"deviceId,omitempty"`
}

// commandPayload is the wire format published to controllers.
type commandPayload struct {
	State  directive.State    `json:"state"`
	Params map[string]float64 `json:"params"`
}

// Dispatcher routes validated commands to the registry and the sink.
type Dispatcher struct {
	registry *registry.Registry
	sink     Sink
	topics   mqtt.Topics
	logger   Logger
}

// New creates a dispatcher over the given registry and sink.
func New(reg *registry.Registry, sink Sink) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		sink:     sink,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Dispatch validates, resolves, applies, and publishes a command.
//
// Steps:
//  1. Validate the state and, for BLINK, that parameters resolve fully.
//  2. Resolve the device identity when the command names a location or
//     device; a bare category bypasses resolution (single-device mode).
//  3. Mutate the registry's boolean status toward the terminal expected
//     state; BLINK leaves the status untouched (the cycle returns the
//     device to its prior state).
//  4. Publish {state, params} to the category's command topic.
//
// The error is one of ErrValidation, ErrDeviceResolution, or ErrSink.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd directive.Command) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrSink, ctx.Err())
	default:
	}

	if cmd.Device == "" {
		return nil, fmt.Errorf("%w: missing device category", ErrValidation)
	}
	if !cmd.State.Valid() {
		return nil, fmt.Errorf("%w: unrecognised state %q", ErrValidation, cmd.State)
	}

	params := directive.BuildParams(cmd)
	if cmd.State == directive.StateBlink {
		// BuildParams is total, so this cannot trip; guarded anyway so a
		// regression there cannot reach the controllers.
		for _, key := range []string{"delay", "times", "duration"} {
			if _, ok := params[key]; !ok {
				return nil, fmt.Errorf("%w: blink missing %s", ErrValidation, key)
			}
		}
	}

	result := &Result{
		Topic:  d.topics.DeviceCommand(string(cmd.Device)),
		Params: params,
	}

	// Multi-device mode: the command names a concrete target.
	if cmd.Location != "" || cmd.Name != "" {
		clientID, deviceID, err := d.registry.FindDeviceByIdentity(
			cmd.Location, registry.DeviceType(cmd.Device), cmd.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: no %s named %q in %q",
				ErrDeviceResolution, cmd.Device, cmd.Name, cmd.Location)
		}
		result.ClientID = clientID
		result.DeviceID = deviceID

		if status, mutate := terminalStatus(cmd.State); mutate {
			// Lock is acquired and released inside SetDeviceState; it is
			// never held across the publish below.
			if err := d.registry.SetDeviceState(clientID, deviceID, status); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDeviceResolution, err)
			}
		}
	}

	payload, err := json.Marshal(commandPayload{State: cmd.State, Params: params})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding payload: %w", ErrSink, err)
	}

	if err := d.sink.PublishCommand(result.Topic, payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSink, err)
	}

	d.logger.Info("command dispatched",
		"topic", result.Topic,
		"state", cmd.State,
		"client_id", result.ClientID,
		"device_id", result.DeviceID,
	)

	return result, nil
}

// terminalStatus maps a state to the boolean status the device is
// expected to end up in. BLINK reports no mutation: the external
// controller owns the cycle and the device returns to its prior state.
func terminalStatus(state directive.State) (status, mutate bool) {
	switch state {
	case directive.StateOn, directive.StateDelayedOn:
		return true, true
	case directive.StateOff, directive.StateDelayedOff:
		return false, true
	default:
		return false, false
	}
}
