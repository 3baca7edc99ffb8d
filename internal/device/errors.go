package device

import "errors"

// Sentinel errors for device construction and operation. Dispatch
// failures (malformed keys, access violations, range and type errors)
// surface the register package's sentinels unchanged so callers have
// one taxonomy.
var (
	// ErrInvalidConfig indicates a device configuration that cannot
	// produce a usable device.
	ErrInvalidConfig = errors.New("device: invalid configuration")

	// ErrNotConnected indicates an operation on a device with no live
	// protocol connection.
	ErrNotConnected = errors.New("device: not connected")

	// ErrShutdown indicates an operation on a device after Shutdown.
	ErrShutdown = errors.New("device: shut down")

	// ErrTransport indicates the protocol absorbed a transport fault
	// and the operation did not complete.
	ErrTransport = errors.New("device: transport failure")
)
