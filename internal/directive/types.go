package directive

// Action is the verb of a parsed directive. Only device control is
// recognised; anything else falls back to plain chat.
type Action string

// ActionControl is the only recognised directive action.
const ActionControl Action = "control"

// DeviceType is the device category a command targets.
type DeviceType string

// Device categories.
const (
	DeviceLight    DeviceType = "light"
	DeviceFan      DeviceType = "fan"
	DeviceSecurity DeviceType = "security"
	DeviceLED      DeviceType = "led"
)

// State is the target state encoded in a directive.
type State string

// Recognised states.
const (
	StateOn         State = "ON"
	StateOff        State = "OFF"
	StateDelayedOn  State = "DELAYED_ON"
	StateDelayedOff State = "DELAYED_OFF"
	StateBlink      State = "BLINK"
)

// Valid reports whether s is a recognised state value.
func (s State) Valid() bool {
	switch s {
	case StateOn, StateOff, StateDelayedOn, StateDelayedOff, StateBlink:
		return true
	}
	return false
}

// Params carries the optional numeric parameters exactly as supplied by
// the source text. Nil means the key was absent (or unparsable, which is
// treated the same). Resolution into mandatory values is BuildParams' job.
type Params struct {
	Delay    *float64 `json:"delay,omitempty"`
	Times    *int     `json:"times,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// Command is the canonical output of parsing a directive.
type Command struct {
	Action Action     `json:"action"`
	Device DeviceType `json:"device"`
	// Location is the room/zone name; empty for whole-house actions
	// (security) and single-device deployments.
	Location string `json:"location,omitempty"`
	// Name is the specific device name within a location; empty implies
	// the default/primary device of the type.
	Name   string `json:"name,omitempty"`
	State  State  `json:"state"`
	Params Params `json:"params"`
}
