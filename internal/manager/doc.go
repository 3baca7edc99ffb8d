// Package manager owns the live device table and the concurrent
// runtime around it: foreground lookups and mutations, ordered batch
// execution, background auto-detect scans, the polling loop, and route
// de-duplication for the transport layer.
//
// # Concurrency
//
// The device table is read-mostly and guarded by a sync.RWMutex:
// concurrent lookups never block each other, while add/remove excludes
// all readers for the duration of one short critical section. Device
// I/O itself is serialized per device by the device's own mutex, so
// two devices always proceed in parallel and one slow device never
// holds the table lock.
//
// Scans run as background jobs with their own context and timeout;
// they are looked up by job ID and cancelled collectively on shutdown.
// The poller is a ticker loop that snapshots the table each tick and
// isolates per-device failures, so a dead transport degrades one
// device's snapshot and nothing else.
package manager
