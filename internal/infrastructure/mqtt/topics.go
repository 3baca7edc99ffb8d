package mqtt

import "fmt"

// Topic prefixes for the FieldPoint MQTT hierarchy.
//
// Device topics use the flat scheme: fieldpoint/{category}/device/{id}
// which matches every runtime subscriber.
const (
	// TopicPrefix is the base for all FieldPoint topics.
	TopicPrefix = "fieldpoint"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "fieldpoint/system"
)

// Topics provides builders for FieldPoint MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("relay-1")
//	// Returns: "fieldpoint/state/device/relay-1"
type Topics struct{}

// DeviceState returns the topic for polled device snapshots.
//
// Example: fieldpoint/state/device/relay-1
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/state/device/%s", TopicPrefix, deviceID)
}

// DeviceCommand returns the topic for inbound register commands to a
// device.
//
// Example: fieldpoint/command/device/relay-1
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/command/device/%s", TopicPrefix, deviceID)
}

// DeviceStatus returns the topic for connection status changes.
//
// Example: fieldpoint/status/device/relay-1
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/status/device/%s", TopicPrefix, deviceID)
}

// ScanResult returns the topic for completed scan jobs.
//
// Example: fieldpoint/scan/3f2a...-result
func (Topics) ScanResult(jobID string) string {
	return fmt.Sprintf("%s/scan/%s", TopicPrefix, jobID)
}

// SystemStatus returns the system status topic, also used as the LWT
// topic.
//
// Example: fieldpoint/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceStates returns a pattern matching all device snapshots.
//
// Pattern: fieldpoint/state/device/+
func (Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/state/device/+", TopicPrefix)
}

// AllDeviceCommands returns a pattern matching all device commands.
//
// Pattern: fieldpoint/command/device/+
func (Topics) AllDeviceCommands() string {
	return fmt.Sprintf("%s/command/device/+", TopicPrefix)
}
