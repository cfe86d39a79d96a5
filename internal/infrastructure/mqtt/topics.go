package mqtt

import "fmt"

// Topic prefixes for the Machina MQTT hierarchy.
//
// The state mirror publishes device state after every successful write so
// external consumers (dashboards, recorders) can follow the machine without
// holding a WebSocket connection.
const (
	// TopicPrefix is the base for all Machina topics.
	TopicPrefix = "machina"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "machina/system"
)

// Topics provides builders for Machina MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// DeviceState returns the topic for mirrored device state.
//
// Example: machina/state/motor_01
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, deviceID)
}

// SystemStatus returns the topic for the core's online/offline status.
//
// Example: machina/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
