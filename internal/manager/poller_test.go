package manager

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	bodies [][]byte
}

func (p *recordingPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.bodies = append(p.bodies, payload)
	return nil
}

type recordingTelemetry struct {
	mu       sync.Mutex
	samples  map[string]float64
	statuses []bool
}

func (r *recordingTelemetry) WriteRegisterSample(deviceID, reg string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.samples == nil {
		r.samples = make(map[string]float64)
	}
	r.samples[deviceID+"/"+reg] = value
}

func (r *recordingTelemetry) WriteDeviceStatus(deviceID string, connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, connected)
}

func TestPollerDispatch(t *testing.T) {
	m := New(Options{})
	defer m.Shutdown()
	if err := m.AddDevice(newSimDevice(t, "io-1")); err != nil {
		t.Fatalf("AddDevice = %v", err)
	}

	pub := &recordingPublisher{}
	tel := &recordingTelemetry{}

	var mu sync.Mutex
	var broadcasts []DeviceSnapshot

	p := NewPoller(m, PollerOptions{
		Publisher:  pub,
		StateTopic: func(id string) string { return "fieldpoint/state/device/" + id },
		Telemetry:  tel,
		Broadcast: func(s DeviceSnapshot) {
			mu.Lock()
			broadcasts = append(broadcasts, s)
			mu.Unlock()
		},
	})

	p.pollOnce()

	mu.Lock()
	if len(broadcasts) != 1 || broadcasts[0].DeviceID != "io-1" {
		t.Fatalf("broadcasts = %+v, want one snapshot for io-1", broadcasts)
	}
	if len(broadcasts[0].Values) == 0 {
		t.Error("snapshot carries no values")
	}
	mu.Unlock()

	pub.mu.Lock()
	if len(pub.topics) != 1 || pub.topics[0] != "fieldpoint/state/device/io-1" {
		t.Errorf("published topics = %v", pub.topics)
	}
	var snap DeviceSnapshot
	if err := json.Unmarshal(pub.bodies[0], &snap); err != nil {
		t.Errorf("published payload is not a snapshot: %v", err)
	}
	pub.mu.Unlock()

	tel.mu.Lock()
	if len(tel.samples) == 0 {
		t.Error("no telemetry samples recorded")
	}
	tel.mu.Unlock()
}

func TestPollerIsolatesFailingDevices(t *testing.T) {
	m := New(Options{})
	defer m.Shutdown()

	if err := m.AddDevice(newSimDevice(t, "alive")); err != nil {
		t.Fatalf("AddDevice = %v", err)
	}
	dead := newSimDevice(t, "dead")
	if err := m.AddDevice(dead); err != nil {
		t.Fatalf("AddDevice = %v", err)
	}
	// Kill the device behind the table's back; the poller must skip it
	// and still snapshot the healthy one.
	dead.Shutdown()

	var mu sync.Mutex
	seen := make(map[string]int)

	p := NewPoller(m, PollerOptions{
		Broadcast: func(s DeviceSnapshot) {
			mu.Lock()
			seen[s.DeviceID]++
			mu.Unlock()
		},
	})

	p.pollOnce()
	p.pollOnce()

	mu.Lock()
	defer mu.Unlock()
	if seen["alive"] != 2 {
		t.Errorf("alive polled %d times, want 2", seen["alive"])
	}
	if seen["dead"] != 0 {
		t.Errorf("dead device produced %d snapshots, want 0", seen["dead"])
	}
}

func TestPollerAnnouncesStatusTransitions(t *testing.T) {
	m := New(Options{})
	defer m.Shutdown()

	d := newSimDevice(t, "io-1")
	if err := m.AddDevice(d); err != nil {
		t.Fatalf("AddDevice = %v", err)
	}

	pub := &recordingPublisher{}
	tel := &recordingTelemetry{}

	p := NewPoller(m, PollerOptions{
		Publisher:   pub,
		StateTopic:  func(id string) string { return "fieldpoint/state/device/" + id },
		StatusTopic: func(id string) string { return "fieldpoint/status/device/" + id },
		Telemetry:   tel,
	})

	// First observation announces the initial state, repeats stay
	// silent, and a lost connection announces once more.
	p.pollOnce()
	p.pollOnce()
	d.Shutdown()
	p.pollOnce()

	pub.mu.Lock()
	var statusBodies []string
	for i, topic := range pub.topics {
		if topic == "fieldpoint/status/device/io-1" {
			statusBodies = append(statusBodies, string(pub.bodies[i]))
		}
	}
	pub.mu.Unlock()

	want := []string{"online", "offline"}
	if len(statusBodies) != len(want) {
		t.Fatalf("status publishes = %v, want %v", statusBodies, want)
	}
	for i, s := range statusBodies {
		if s != want[i] {
			t.Errorf("status publish %d = %q, want %q", i, s, want[i])
		}
	}

	tel.mu.Lock()
	defer tel.mu.Unlock()
	if len(tel.statuses) != 2 || !tel.statuses[0] || tel.statuses[1] {
		t.Errorf("telemetry statuses = %v, want [true false]", tel.statuses)
	}
}

func TestPollerStartStop(t *testing.T) {
	m := New(Options{})
	defer m.Shutdown()
	if err := m.AddDevice(newSimDevice(t, "io-1")); err != nil {
		t.Fatalf("AddDevice = %v", err)
	}

	var mu sync.Mutex
	count := 0

	p := NewPoller(m, PollerOptions{
		Interval: 5 * time.Millisecond,
		Broadcast: func(DeviceSnapshot) {
			mu.Lock()
			count++
			mu.Unlock()
		},
	})

	p.Start()
	time.Sleep(30 * time.Millisecond)
	p.Stop()

	mu.Lock()
	polled := count
	mu.Unlock()
	if polled == 0 {
		t.Fatal("poller never ticked")
	}

	// No ticks after Stop.
	time.Sleep(15 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != polled {
		t.Errorf("poller ticked after Stop: %d -> %d", polled, count)
	}

	// Stop is idempotent.
	p.Stop()
}
