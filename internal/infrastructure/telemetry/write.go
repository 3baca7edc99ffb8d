package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteRegisterSample writes a single polled register value to InfluxDB.
//
// This is the primary method for recording register telemetry. The
// register name is the flat key or schema name used for the read.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Unique identifier for the device (e.g., "relay-1")
//   - register: The register name (e.g., "holding_100", "output_0")
//   - value: The numeric value read from the register
//
// Example:
//
//	client.WriteRegisterSample("relay-1", "holding_100", 230.0)
//	client.WriteRegisterSample("io-unit", "output_0", 1.0)
func (c *Client) WriteRegisterSample(deviceID string, register string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"register_samples",
		map[string]string{
			"device_id": deviceID,
			"register":  register,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDeviceStatus records a device connection state transition.
//
// Used for tracking link availability over time.
//
// Parameters:
//   - deviceID: Device identifier
//   - connected: Current connection state of the transport
func (c *Client) WriteDeviceStatus(deviceID string, connected bool) {
	if !c.IsConnected() {
		return
	}

	up := 0.0
	if connected {
		up = 1.0
	}

	point := write.NewPoint(
		"device_status",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"connected": up,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteScanResult records the outcome of a bus scan job.
//
// Parameters:
//   - deviceID: Device whose transport was scanned
//   - detected: Whether a responding unit was found
//   - unitID: The detected unit ID (0 if none)
//   - baudrate: The detected baudrate (0 if none)
func (c *Client) WriteScanResult(deviceID string, detected bool, unitID int, baudrate int) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"detected": detected,
	}
	if detected {
		fields["unit_id"] = unitID
		fields["baudrate"] = baudrate
	}

	point := write.NewPoint(
		"scan_results",
		map[string]string{
			"device_id": deviceID,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
