package manager

import (
	"encoding/json"
	"sync"
	"time"
)

// defaultPollInterval is the period between polling passes.
const defaultPollInterval = 1 * time.Second

// Publisher is the outbound message channel for device snapshots.
// Satisfied by the infrastructure MQTT client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Telemetry receives numeric register samples and connection state
// transitions from polling passes. Satisfied by the infrastructure
// telemetry client.
type Telemetry interface {
	WriteRegisterSample(deviceID, register string, value float64)
	WriteDeviceStatus(deviceID string, connected bool)
}

// DeviceSnapshot is one device's polled state, as published and
// broadcast.
type DeviceSnapshot struct {
	DeviceID  string         `json:"device_id"`
	Timestamp time.Time      `json:"timestamp"`
	Values    map[string]any `json:"values"`
}

// PollerOptions configures the background polling loop. Publisher,
// Telemetry, and Broadcast are all optional; a nil channel is simply
// skipped.
type PollerOptions struct {
	// Interval between polling passes. Defaults to 1s.
	Interval time.Duration

	// Publisher receives one JSON snapshot per device per pass.
	Publisher Publisher

	// StateTopic builds the publish topic for a device ID. Required
	// when Publisher is set.
	StateTopic func(deviceID string) string

	// StatusTopic builds the publish topic for connection status
	// transitions. Optional; transitions are skipped without it.
	StatusTopic func(deviceID string) string

	// Telemetry receives numeric samples from each snapshot.
	Telemetry Telemetry

	// Broadcast pushes each snapshot to connected observers
	// (the WebSocket hub).
	Broadcast func(DeviceSnapshot)

	// Logger receives poll diagnostics. Defaults to a no-op logger.
	Logger Logger
}

// Poller iterates the device table on a fixed tick and republishes
// each device's snapshot. One failing device is logged and skipped;
// the loop itself runs until Stop.
type Poller struct {
	manager *Manager
	opts    PollerOptions

	// lastConnected is only touched from the loop goroutine.
	lastConnected map[string]bool

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPoller builds a poller over the manager's device table.
func NewPoller(m *Manager, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = defaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &Poller{
		manager:       m,
		opts:          opts,
		lastConnected: make(map[string]bool),
		done:          make(chan struct{}),
	}
}

// Start launches the polling loop.
func (p *Poller) Start() {
	p.wg.Add(1)
	go p.loop()
	p.opts.Logger.Info("poller started", "interval", p.opts.Interval)
}

// Stop terminates the loop and waits for the in-flight pass.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *Poller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

// pollOnce iterates a copy of the device table so the pass never holds
// the table lock across device I/O.
func (p *Poller) pollOnce() {
	for _, d := range p.manager.snapshotDevices() {
		connected := d.Connected()
		if prev, seen := p.lastConnected[d.ID()]; !seen || prev != connected {
			p.lastConnected[d.ID()] = connected
			p.announceStatus(d.ID(), connected)
		}

		values, err := d.Snapshot()
		if err != nil {
			// One bad device never stops the pass.
			p.opts.Logger.Warn("poll failed", "device_id", d.ID(), "error", err)
			continue
		}
		p.dispatch(DeviceSnapshot{
			DeviceID:  d.ID(),
			Timestamp: time.Now().UTC(),
			Values:    values,
		})
	}
}

func (p *Poller) dispatch(snap DeviceSnapshot) {
	if p.opts.Broadcast != nil {
		p.opts.Broadcast(snap)
	}

	if p.opts.Telemetry != nil {
		for name, v := range snap.Values {
			if f, ok := numeric(v); ok {
				p.opts.Telemetry.WriteRegisterSample(snap.DeviceID, name, f)
			}
		}
	}

	if p.opts.Publisher != nil && p.opts.StateTopic != nil {
		payload, err := json.Marshal(snap)
		if err != nil {
			p.opts.Logger.Error("snapshot marshal failed", "device_id", snap.DeviceID, "error", err)
			return
		}
		topic := p.opts.StateTopic(snap.DeviceID)
		if err := p.opts.Publisher.Publish(topic, payload, 0, true); err != nil {
			p.opts.Logger.Warn("snapshot publish failed", "device_id", snap.DeviceID, "error", err)
		}
	}
}

// announceStatus fans a connection state transition out to the status
// topic and the telemetry store.
func (p *Poller) announceStatus(deviceID string, connected bool) {
	p.opts.Logger.Info("device status changed", "device_id", deviceID, "connected", connected)

	if p.opts.Telemetry != nil {
		p.opts.Telemetry.WriteDeviceStatus(deviceID, connected)
	}

	if p.opts.Publisher != nil && p.opts.StatusTopic != nil {
		state := "offline"
		if connected {
			state = "online"
		}
		topic := p.opts.StatusTopic(deviceID)
		if err := p.opts.Publisher.Publish(topic, []byte(state), 1, true); err != nil {
			p.opts.Logger.Warn("status publish failed", "device_id", deviceID, "error", err)
		}
	}
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case uint16:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
