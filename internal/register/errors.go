package register

import "errors"

// Sentinel errors returned by key parsing, schema lookup, and value
// coercion. Callers match with errors.Is.
var (
	// ErrMalformedKey indicates a flat key that does not have the exact
	// "<space>_<offset>" shape.
	ErrMalformedKey = errors.New("register: malformed register key")

	// ErrUnknownRegister indicates a structured-register lookup by name
	// found no matching schema entry.
	ErrUnknownRegister = errors.New("register: unknown register")

	// ErrAccessViolation indicates a write to a read-only register or
	// address space.
	ErrAccessViolation = errors.New("register: access violation")

	// ErrValueOutOfRange indicates a value outside the register's
	// declared bounds or the 16-bit register domain.
	ErrValueOutOfRange = errors.New("register: value out of range")

	// ErrTypeMismatch indicates a value that cannot be coerced to the
	// register's native type.
	ErrTypeMismatch = errors.New("register: value type mismatch")
)
