package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/fieldpoint/fieldpoint-core/internal/device"
)

// newSimDevice builds an initialized simulator-backed device.
func newSimDevice(t *testing.T, id string) *device.Device {
	t.Helper()
	d, err := device.New(device.Config{ID: id, Mock: true})
	if err != nil {
		t.Fatalf("device.New(%q) returned error: %v", id, err)
	}
	if err := d.Initialize(); err != nil {
		t.Fatalf("Initialize(%q) returned error: %v", id, err)
	}
	return d
}

func TestDeviceTable(t *testing.T) {
	t.Run("add, get, list, remove", func(t *testing.T) {
		m := New(Options{})
		defer m.Shutdown()

		if err := m.AddDevice(newSimDevice(t, "b")); err != nil {
			t.Fatalf("AddDevice = %v", err)
		}
		if err := m.AddDevice(newSimDevice(t, "a")); err != nil {
			t.Fatalf("AddDevice = %v", err)
		}

		d, err := m.GetDevice("a")
		if err != nil || d.ID() != "a" {
			t.Fatalf("GetDevice(a) = %v, %v", d, err)
		}

		list := m.ListDevices()
		if len(list) != 2 || list[0].ID() != "a" || list[1].ID() != "b" {
			t.Errorf("ListDevices order = %v, want [a b]", list)
		}

		if err := m.RemoveDevice("a"); err != nil {
			t.Fatalf("RemoveDevice = %v", err)
		}
		if _, err := m.GetDevice("a"); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("GetDevice after remove = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("duplicate IDs are rejected", func(t *testing.T) {
		m := New(Options{})
		defer m.Shutdown()

		if err := m.AddDevice(newSimDevice(t, "dup")); err != nil {
			t.Fatalf("AddDevice = %v", err)
		}
		if err := m.AddDevice(newSimDevice(t, "dup")); !errors.Is(err, ErrDeviceExists) {
			t.Errorf("AddDevice duplicate = %v, want ErrDeviceExists", err)
		}
	})

	t.Run("remove of unknown device fails", func(t *testing.T) {
		m := New(Options{})
		defer m.Shutdown()

		if err := m.RemoveDevice("ghost"); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("RemoveDevice = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("remove shuts the device down", func(t *testing.T) {
		m := New(Options{})
		defer m.Shutdown()

		d := newSimDevice(t, "x")
		if err := m.AddDevice(d); err != nil {
			t.Fatalf("AddDevice = %v", err)
		}
		if err := m.RemoveDevice("x"); err != nil {
			t.Fatalf("RemoveDevice = %v", err)
		}
		if d.Connected() {
			t.Error("removed device still connected")
		}
	})

	t.Run("shutdown rejects further adds", func(t *testing.T) {
		m := New(Options{})
		m.Shutdown()
		if err := m.AddDevice(newSimDevice(t, "late")); !errors.Is(err, ErrShuttingDown) {
			t.Errorf("AddDevice after Shutdown = %v, want ErrShuttingDown", err)
		}
	})
}

func TestConcurrentTableAccess(t *testing.T) {
	m := New(Options{})
	defer m.Shutdown()

	// Stable devices the readers hammer while churn happens elsewhere.
	for i := 0; i < 4; i++ {
		if err := m.AddDevice(newSimDevice(t, fmt.Sprintf("stable-%d", i))); err != nil {
			t.Fatalf("AddDevice = %v", err)
		}
	}

	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("stable-%d", n%4)
			for j := 0; j < 20; j++ {
				d, err := m.GetDevice(id)
				if err != nil {
					t.Errorf("GetDevice(%s) = %v", id, err)
					return
				}
				if _, err := d.ReadRegister("holding_0"); err != nil {
					t.Errorf("ReadRegister on %s = %v", id, err)
					return
				}
			}
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 20; j++ {
			id := fmt.Sprintf("churn-%d", j)
			d, err := device.New(device.Config{ID: id, Mock: true})
			if err != nil {
				t.Errorf("device.New = %v", err)
				return
			}
			if err := d.Initialize(); err != nil {
				t.Errorf("Initialize = %v", err)
				return
			}
			if err := m.AddDevice(d); err != nil {
				t.Errorf("AddDevice(%s) = %v", id, err)
				return
			}
			if err := m.RemoveDevice(id); err != nil {
				t.Errorf("RemoveDevice(%s) = %v", id, err)
				return
			}
		}
	}()

	wg.Wait()

	if got := len(m.ListDevices()); got != 4 {
		t.Errorf("table has %d devices after churn, want 4", got)
	}
}

func TestBatch(t *testing.T) {
	m := New(Options{})
	defer m.Shutdown()
	if err := m.AddDevice(newSimDevice(t, "io-1")); err != nil {
		t.Fatalf("AddDevice = %v", err)
	}

	t.Run("applies entries in order", func(t *testing.T) {
		results := m.Batch(context.Background(), []BatchEntry{
			{DeviceID: "io-1", Action: BatchWrite, Params: BatchParams{Register: "holding_5", Value: 12345}},
			{DeviceID: "io-1", Action: BatchRead, Params: BatchParams{Register: "holding_5"}},
		})
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}
		if !results[0].Success {
			t.Errorf("write entry failed: %s", results[0].Error)
		}
		if !results[1].Success || results[1].Result != uint16(12345) {
			t.Errorf("read entry = %+v, want 12345", results[1])
		}
	})

	t.Run("continues past failing entries", func(t *testing.T) {
		results := m.Batch(context.Background(), []BatchEntry{
			{DeviceID: "ghost", Action: BatchRead, Params: BatchParams{Register: "coil_0"}},
			{DeviceID: "io-1", Action: BatchWrite, Params: BatchParams{Register: "input_0", Value: 1}},
			{DeviceID: "io-1", Action: BatchAction("toggle"), Params: BatchParams{Register: "coil_0"}},
			{DeviceID: "io-1", Action: BatchRead, Params: BatchParams{Register: "coil_0"}},
		})
		if len(results) != 4 {
			t.Fatalf("got %d results, want 4", len(results))
		}
		for i := 0; i < 3; i++ {
			if results[i].Success {
				t.Errorf("entry %d succeeded, want failure", i)
			}
			if results[i].Error == "" {
				t.Errorf("entry %d has no error detail", i)
			}
		}
		if !results[3].Success {
			t.Errorf("final entry failed after earlier failures: %s", results[3].Error)
		}
	})

	t.Run("cancellation marks remaining entries failed", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results := m.Batch(ctx, []BatchEntry{
			{DeviceID: "io-1", Action: BatchRead, Params: BatchParams{Register: "coil_0"}},
		})
		if len(results) != 1 || results[0].Success {
			t.Errorf("cancelled batch = %+v, want one failed result", results)
		}
	})
}

func TestScan(t *testing.T) {
	m := New(Options{})
	defer m.Shutdown()
	if err := m.AddDevice(newSimDevice(t, "io-1")); err != nil {
		t.Fatalf("AddDevice = %v", err)
	}

	t.Run("unknown device fails immediately", func(t *testing.T) {
		if _, err := m.Scan(ScanRequest{DeviceID: "ghost"}); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("Scan = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("job completes with the detection result", func(t *testing.T) {
		jobID, err := m.Scan(ScanRequest{DeviceID: "io-1"})
		if err != nil {
			t.Fatalf("Scan = %v", err)
		}

		// The simulator detects instantly; wait for the goroutine.
		m.wg.Wait()

		job, err := m.Job(jobID)
		if err != nil {
			t.Fatalf("Job = %v", err)
		}
		if job.Status != ScanCompleted {
			t.Fatalf("job status = %s, want completed", job.Status)
		}
		if job.Result == nil || !job.Result.Detected || job.Result.UnitID != 1 {
			t.Errorf("job result = %+v, want canned detection", job.Result)
		}
		if job.FinishedAt == nil {
			t.Error("job has no finish time")
		}
	})

	t.Run("unknown job ID fails", func(t *testing.T) {
		if _, err := m.Job("nope"); !errors.Is(err, ErrJobNotFound) {
			t.Errorf("Job = %v, want ErrJobNotFound", err)
		}
	})
}

func TestScanCompletionCallback(t *testing.T) {
	var mu sync.Mutex
	var done []ScanJob

	m := New(Options{
		OnScanComplete: func(job ScanJob) {
			mu.Lock()
			done = append(done, job)
			mu.Unlock()
		},
	})
	defer m.Shutdown()
	if err := m.AddDevice(newSimDevice(t, "io-1")); err != nil {
		t.Fatalf("AddDevice = %v", err)
	}

	jobID, err := m.Scan(ScanRequest{DeviceID: "io-1"})
	if err != nil {
		t.Fatalf("Scan = %v", err)
	}
	m.wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(done) != 1 {
		t.Fatalf("callback fired %d times, want 1", len(done))
	}
	job := done[0]
	if job.ID != jobID || job.DeviceID != "io-1" {
		t.Errorf("callback job = %+v, want job %s for io-1", job, jobID)
	}
	if job.Status != ScanCompleted {
		t.Errorf("callback job status = %s, want completed", job.Status)
	}
	if job.Result == nil || !job.Result.Detected {
		t.Errorf("callback job result = %+v, want detection", job.Result)
	}
}

func TestRouteRegistry(t *testing.T) {
	t.Run("claim is first-come-first-served", func(t *testing.T) {
		r := NewRouteRegistry()
		if !r.Claim("/devices") {
			t.Fatal("first Claim = false")
		}
		if r.Claim("/devices") {
			t.Error("second Claim = true, want false")
		}
		if !r.Claimed("/devices") {
			t.Error("Claimed = false for bound route")
		}
	})

	t.Run("exactly one concurrent claimer wins", func(t *testing.T) {
		r := NewRouteRegistry()
		const claimers = 50

		var wg sync.WaitGroup
		wins := make(chan struct{}, claimers)
		for i := 0; i < claimers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if r.Claim("/scan") {
					wins <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(wins)

		count := 0
		for range wins {
			count++
		}
		if count != 1 {
			t.Errorf("%d claimers won, want exactly 1", count)
		}
		if r.Len() != 1 {
			t.Errorf("registry has %d routes, want 1", r.Len())
		}
	})
}
