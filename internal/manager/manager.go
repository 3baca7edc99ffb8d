package manager

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fieldpoint/fieldpoint-core/internal/device"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Manager.
type Options struct {
	// Logger receives runtime diagnostics. Defaults to a no-op logger.
	Logger Logger

	// OnScanComplete is invoked with a copy of every scan job as it
	// leaves the running state, whatever the outcome. Optional; runs
	// on the job's own goroutine.
	OnScanComplete func(ScanJob)
}

// Manager is the single source of truth for live devices.
type Manager struct {
	mu      sync.RWMutex
	devices map[string]*device.Device
	closed  bool

	jobsMu sync.Mutex
	jobs   map[string]*ScanJob

	// baseCtx parents every scan job so Shutdown cancels them all.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger         Logger
	onScanComplete func(ScanJob)
}

// New builds an empty manager.
func New(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		devices:        make(map[string]*device.Device),
		jobs:           make(map[string]*ScanJob),
		baseCtx:        ctx,
		cancel:         cancel,
		logger:         opts.Logger,
		onScanComplete: opts.OnScanComplete,
	}
}

// AddDevice registers an initialized device under its ID. Duplicate
// IDs are rejected; the caller keeps ownership of the device until the
// add succeeds.
func (m *Manager) AddDevice(d *device.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrShuttingDown
	}
	if _, exists := m.devices[d.ID()]; exists {
		return fmt.Errorf("%w: %q", ErrDeviceExists, d.ID())
	}
	m.devices[d.ID()] = d
	m.logger.Info("device added", "device_id", d.ID(), "type", d.Type())
	return nil
}

// RemoveDevice shuts the device down and drops it from the table.
func (m *Manager) RemoveDevice(id string) error {
	m.mu.Lock()
	d, ok := m.devices[id]
	if ok {
		delete(m.devices, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrDeviceNotFound, id)
	}
	// Shutdown happens outside the table lock: it touches the device's
	// protocol and must not block readers.
	d.Shutdown()
	m.logger.Info("device removed", "device_id", id)
	return nil
}

// GetDevice looks a device up by ID.
func (m *Manager) GetDevice(id string) (*device.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, id)
	}
	return d, nil
}

// ListDevices returns the registered devices sorted by ID.
func (m *Manager) ListDevices() []*device.Device {
	m.mu.RLock()
	out := make([]*device.Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// snapshotDevices copies the table under the read lock so iteration
// (polling, batch) proceeds without holding it.
func (m *Manager) snapshotDevices() []*device.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*device.Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d)
	}
	return out
}

// Shutdown cancels every scan job, waits for them, and shuts every
// device down. The manager accepts no new work afterwards.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	devices := make([]*device.Device, 0, len(m.devices))
	for _, d := range m.devices {
		devices = append(devices, d)
	}
	m.devices = make(map[string]*device.Device)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()

	for _, d := range devices {
		d.Shutdown()
	}
	m.logger.Info("manager shut down", "devices", len(devices))
}
