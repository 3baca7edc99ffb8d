package manager

import (
	"context"
	"fmt"
)

// BatchAction selects what a batch entry does.
type BatchAction string

const (
	BatchRead  BatchAction = "read"
	BatchWrite BatchAction = "write"
)

// BatchParams carries the register name and, for writes, the value.
type BatchParams struct {
	Register string `json:"register"`
	Value    any    `json:"value,omitempty"`
}

// BatchEntry is one ordered operation in a batch request.
type BatchEntry struct {
	DeviceID string      `json:"device_id"`
	Action   BatchAction `json:"action"`
	Params   BatchParams `json:"params"`
}

// BatchResult is the outcome of one entry. Result holds the read value
// for successful reads; Error holds the failure reason otherwise.
type BatchResult struct {
	DeviceID string      `json:"device_id"`
	Action   BatchAction `json:"action"`
	Result   any         `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
	Success  bool        `json:"success"`
}

// Batch applies entries in order and returns one result per entry.
// A failing entry is recorded and execution continues; a batch never
// aborts early. Context cancellation is the one exception: remaining
// entries are marked failed without touching any device.
func (m *Manager) Batch(ctx context.Context, entries []BatchEntry) []BatchResult {
	results := make([]BatchResult, 0, len(entries))

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			for _, rest := range entries[i:] {
				results = append(results, failedResult(rest, err))
			}
			break
		}
		results = append(results, m.applyEntry(entry))
	}

	return results
}

func (m *Manager) applyEntry(entry BatchEntry) BatchResult {
	d, err := m.GetDevice(entry.DeviceID)
	if err != nil {
		return failedResult(entry, err)
	}

	switch entry.Action {
	case BatchRead:
		value, err := d.ReadRegister(entry.Params.Register)
		if err != nil {
			return failedResult(entry, err)
		}
		return BatchResult{
			DeviceID: entry.DeviceID,
			Action:   entry.Action,
			Result:   value,
			Success:  true,
		}
	case BatchWrite:
		if err := d.WriteRegister(entry.Params.Register, entry.Params.Value); err != nil {
			return failedResult(entry, err)
		}
		return BatchResult{
			DeviceID: entry.DeviceID,
			Action:   entry.Action,
			Success:  true,
		}
	default:
		return failedResult(entry, fmt.Errorf("%w: %q", ErrInvalidAction, entry.Action))
	}
}

func failedResult(entry BatchEntry, err error) BatchResult {
	return BatchResult{
		DeviceID: entry.DeviceID,
		Action:   entry.Action,
		Error:    err.Error(),
		Success:  false,
	}
}
