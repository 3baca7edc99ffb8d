package manager

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldpoint/fieldpoint-core/internal/protocol"
)

// defaultScanTimeout bounds one auto-detect sweep so a hung transport
// cannot pin a job forever.
const defaultScanTimeout = 2 * time.Minute

// Scan job states.
const (
	ScanRunning   = "running"
	ScanCompleted = "completed"
	ScanCancelled = "cancelled"
	ScanFailed    = "failed"
)

// ScanRequest describes an auto-detect sweep against one device's
// transport. Empty candidate slices fall back to the protocol
// defaults.
type ScanRequest struct {
	DeviceID  string  `json:"device_id"`
	Baudrates []int   `json:"baudrates,omitempty"`
	UnitIDs   []uint8 `json:"unit_ids,omitempty"`

	// Timeout bounds the sweep. Defaults to 2 minutes.
	Timeout time.Duration `json:"-"`
}

// ScanJob is the observable state of one background sweep.
type ScanJob struct {
	ID         string                    `json:"id"`
	DeviceID   string                    `json:"device_id"`
	Status     string                    `json:"status"`
	Result     *protocol.DetectionResult `json:"result,omitempty"`
	Error      string                    `json:"error,omitempty"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt *time.Time                `json:"finished_at,omitempty"`
}

// Scan dispatches an auto-detect sweep as a background job and returns
// its ID immediately. Sweeps are long-running (multiple
// connect/disconnect cycles across baudrates) and must never block the
// request path; callers poll Job for the result.
func (m *Manager) Scan(req ScanRequest) (string, error) {
	d, err := m.GetDevice(req.DeviceID)
	if err != nil {
		return "", err
	}
	if req.Timeout <= 0 {
		req.Timeout = defaultScanTimeout
	}

	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return "", ErrShuttingDown
	}

	job := &ScanJob{
		ID:        uuid.New().String(),
		DeviceID:  req.DeviceID,
		Status:    ScanRunning,
		StartedAt: time.Now(),
	}
	m.jobsMu.Lock()
	m.jobs[job.ID] = job
	m.jobsMu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(m.baseCtx, req.Timeout)
		defer cancel()

		var result protocol.DetectionResult
		d.WithProtocol(func(p protocol.Protocol) {
			result = p.AutoDetect(ctx, req.Baudrates, req.UnitIDs)
		})

		now := time.Now()
		m.jobsMu.Lock()
		job.FinishedAt = &now
		switch {
		case ctx.Err() != nil && !result.Detected:
			job.Status = ScanCancelled
			job.Error = ctx.Err().Error()
		default:
			job.Status = ScanCompleted
			job.Result = &result
		}
		done := *job
		m.jobsMu.Unlock()

		m.logger.Info("scan finished",
			"job_id", done.ID, "device_id", done.DeviceID,
			"status", done.Status, "detected", result.Detected)
		if m.onScanComplete != nil {
			m.onScanComplete(done)
		}
	}()

	m.logger.Info("scan started", "job_id", job.ID, "device_id", req.DeviceID)
	return job.ID, nil
}

// Job returns a copy of the scan job's current state.
func (m *Manager) Job(id string) (ScanJob, error) {
	m.jobsMu.Lock()
	defer m.jobsMu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return ScanJob{}, ErrJobNotFound
	}
	return *job, nil
}
