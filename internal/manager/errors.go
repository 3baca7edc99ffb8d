package manager

import "errors"

// Sentinel errors for device-table and job operations.
var (
	// ErrDeviceNotFound indicates a lookup for an unknown device ID.
	ErrDeviceNotFound = errors.New("manager: device not found")

	// ErrDeviceExists indicates an add with an already-registered ID.
	ErrDeviceExists = errors.New("manager: device already exists")

	// ErrJobNotFound indicates a lookup for an unknown scan job ID.
	ErrJobNotFound = errors.New("manager: scan job not found")

	// ErrShuttingDown indicates an operation after Shutdown began.
	ErrShuttingDown = errors.New("manager: shutting down")

	// ErrInvalidAction indicates a batch entry whose action is neither
	// read nor write.
	ErrInvalidAction = errors.New("manager: invalid batch action")
)
