package mqtt

import "fmt"

// Topic prefixes for the Sol Core MQTT namespace.
//
// Device command topics use the flat scheme: solhome/device/{category}.
// Each device category has exactly one well-known command channel that
// its controllers subscribe to.
const (
	// TopicPrefixDevice is the base for all device command topics.
	TopicPrefixDevice = "solhome/device"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "solhome/system"
)

// Topics provides builders for Sol Core MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	ledTopic := topics.DeviceCommand("led")
//	// Returns: "solhome/device/led"
type Topics struct{}

// DeviceCommand returns the command topic for a device category.
//
// Example: solhome/device/led
func (Topics) DeviceCommand(category string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixDevice, category)
}

// SystemStatus returns the system status topic.
//
// Example: solhome/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
