package registry

import "time"

// DeviceType represents the category of a controllable device.
type DeviceType string //nolint:revive // registry.DeviceType is clearer than registry.Type in calling code

// Device type constants.
const (
	DeviceTypeLight       DeviceType = "light"
	DeviceTypeFan         DeviceType = "fan"
	DeviceTypeSecurity    DeviceType = "security"
	DeviceTypeTemperature DeviceType = "temperature"
	DeviceTypeLED         DeviceType = "led"
)

// Features lists the capability flags a device declares.
type Features struct {
	Dimmable     bool `json:"dimmable,omitempty"`
	SpeedControl bool `json:"speedControl,omitempty"`
	HasTimer     bool `json:"hasTimer,omitempty"`
	HasSchedule  bool `json:"hasSchedule,omitempty"`
}

// Device represents an individually addressable controllable unit owned
// by exactly one client.
type Device struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Type   DeviceType `json:"type"`
	Status bool       `json:"status"`
	// Value is a 0-255 intensity, present only when the device declares
	// the matching capability (dimmable or speedControl).
	Value    *int     `json:"value,omitempty"`
	Features Features `json:"features"`
}

// Client represents a registered physical controller at one location.
// It is the unit of authentication and connectivity.
type Client struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	// AuthKey is the shared secret; excluded from JSON so it can never
	// leak through a serialized response.
	AuthKey  string    `json:"-"`
	Firmware string    `json:"firmware,omitempty"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
	Devices  []Device  `json:"devices"`
}

// DeepCopy creates a complete independent copy of the Client, so
// modifications to the copy do not affect registry state.
func (c *Client) DeepCopy() *Client {
	if c == nil {
		return nil
	}

	cpy := *c

	if c.Devices != nil {
		cpy.Devices = make([]Device, len(c.Devices))
		for i, d := range c.Devices {
			cpy.Devices[i] = d
			if d.Value != nil {
				v := *d.Value
				cpy.Devices[i].Value = &v
			}
		}
	}

	return &cpy
}
