// Package telemetry provides InfluxDB connectivity for FieldPoint Core.
//
// It wraps the official influxdb-client-go v2 library with FieldPoint-specific
// patterns for connection management, sample writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Register samples collected by the background poller
//   - Device connection status transitions
//   - Scan job outcomes
//
// # Usage
//
//	cfg := config.TelemetryConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "fieldpoint",
//	    Bucket: "registers",
//	}
//
//	client, err := telemetry.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record a polled register value
//	client.WriteRegisterSample("relay-1", "holding_100", 230.0)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency polling.
package telemetry
