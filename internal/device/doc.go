// Package device models one addressable field device: its identity,
// its register schema, and the single protocol instance it owns.
//
// # Architecture
//
//	┌────────────────────────────────────────────┐
//	│                  Device                    │
//	│                                            │
//	│  ReadRegister / WriteRegister (by name)    │
//	│          │                                 │
//	│          ▼                                 │
//	│  schema lookup ──► flat-key parse          │
//	│          │                                 │
//	│          ▼                                 │
//	│  access + range checks                     │
//	│          │                                 │
//	│          ▼   (per-device mutex)            │
//	│  protocol.Protocol (simulator or RTU)      │
//	└────────────────────────────────────────────┘
//
// A device resolves a register name through its structured schema
// first, then falls back to the flat "<space>_<offset>" scheme. All
// access-control and range failures are rejected before any protocol
// call. The protocol instance is shared-nothing: it belongs to exactly
// one device, and the device's mutex guarantees a single in-flight bus
// operation at a time.
package device
