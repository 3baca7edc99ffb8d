// Package protocol defines the capability contract every field-bus
// transport must satisfy, plus the two shipped variants: a
// deterministic in-memory simulator and a live Modbus RTU adapter.
//
// # Contract
//
// Every variant exposes connect/disconnect, per-address-space reads and
// writes parameterized by unit ID, a state snapshot, and auto-detect.
// The contract is fail-soft: a read against an unreachable transport
// returns a nil slice and a write returns false; transport faults are
// absorbed at this boundary and never propagate as panics or errors to
// the dispatcher or runtime above. Callers distinguish "empty because
// nothing asked" from "empty because of failure" only through
// IsConnected.
//
// # Variants
//
// Simulator holds four in-memory register tables seeded from a fixed
// pseudo-random source so tests are reproducible without hardware.
// RTU delegates to a serial Modbus client and implements auto-detect
// as an ordered brute-force sweep over candidate baudrates and unit
// IDs.
package protocol
