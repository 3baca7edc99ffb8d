package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldpoint/fieldpoint-core/internal/device"
	"github.com/fieldpoint/fieldpoint-core/internal/manager"
)

// deviceSummary is the list-view representation of a device.
type deviceSummary struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
}

// deviceDetail is the full representation of a device.
type deviceDetail struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Identity  device.Identity `json:"identity"`
	Connected bool            `json:"connected"`
	Registers any             `json:"registers"`
}

// createDeviceRequest is the body for POST /devices.
type createDeviceRequest struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	UnitID   uint8  `json:"unit_id"`
	Port     string `json:"port"`
	Baudrate int    `json:"baudrate"`
	Mock     bool   `json:"mock"`
}

// handleListDevices returns all devices sorted by ID.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.manager.ListDevices()

	summaries := make([]deviceSummary, 0, len(devices))
	for _, d := range devices {
		summaries = append(summaries, deviceSummary{
			ID:        d.ID(),
			Type:      d.Type(),
			Connected: d.Connected(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": summaries, "count": len(summaries)})
}

// handleCreateDevice constructs a device from the request body, connects
// it, and adds it to the table.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := device.New(device.Config{
		ID:       req.ID,
		UnitID:   req.UnitID,
		Port:     req.Port,
		Baudrate: req.Baudrate,
		Mock:     req.Mock,
		Profile:  device.ProfileForType(req.Type),
		Logger:   s.logger,
	})
	if err != nil {
		writeRegisterError(w, err)
		return
	}

	if err := s.manager.AddDevice(d); err != nil {
		writeRegisterError(w, err)
		return
	}

	// Connection failures are reported but do not remove the device;
	// the transport may come up later and status reflects reality.
	if err := d.Initialize(); err != nil {
		s.logger.Warn("device connect failed", "device_id", d.ID(), "error", err)
	}

	writeJSON(w, http.StatusCreated, deviceSummary{
		ID:        d.ID(),
		Type:      d.Type(),
		Connected: d.Connected(),
	})
}

// handleGetDevice returns a single device with its register schema.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.manager.GetDevice(chi.URLParam(r, "id"))
	if err != nil {
		writeRegisterError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deviceDetail{
		ID:        d.ID(),
		Type:      d.Type(),
		Identity:  d.Identity(),
		Connected: d.Connected(),
		Registers: d.Registers(),
	})
}

// handleDeleteDevice removes a device and shuts down its transport.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.RemoveDevice(chi.URLParam(r, "id")); err != nil {
		writeRegisterError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeviceStatus returns connection state and transport counters.
func (s *Server) handleDeviceStatus(w http.ResponseWriter, r *http.Request) {
	d, err := s.manager.GetDevice(chi.URLParam(r, "id"))
	if err != nil {
		writeRegisterError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Status())
}

// handleDeviceSnapshot returns the current value of every register.
func (s *Server) handleDeviceSnapshot(w http.ResponseWriter, r *http.Request) {
	d, err := s.manager.GetDevice(chi.URLParam(r, "id"))
	if err != nil {
		writeRegisterError(w, err)
		return
	}

	values, err := d.Snapshot()
	if err != nil {
		writeRegisterError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": d.ID(),
		"values":    values,
	})
}

// handleReadRegister reads one register by schema name or flat key.
func (s *Server) handleReadRegister(w http.ResponseWriter, r *http.Request) {
	d, err := s.manager.GetDevice(chi.URLParam(r, "id"))
	if err != nil {
		writeRegisterError(w, err)
		return
	}

	name := chi.URLParam(r, "name")
	value, err := d.ReadRegister(name)
	if err != nil {
		writeRegisterError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": d.ID(),
		"register":  name,
		"value":     value,
	})
}

// writeRegisterRequest is the body for PUT /devices/{id}/registers/{name}.
// Exactly one of value or values must be set.
type writeRegisterRequest struct {
	Value  any   `json:"value"`
	Values []any `json:"values"`
}

// handleWriteRegister writes one register, or a contiguous block when
// the body carries a values array.
func (s *Server) handleWriteRegister(w http.ResponseWriter, r *http.Request) {
	d, err := s.manager.GetDevice(chi.URLParam(r, "id"))
	if err != nil {
		writeRegisterError(w, err)
		return
	}

	var req writeRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	name := chi.URLParam(r, "name")
	if len(req.Values) > 0 {
		err = d.WriteMultiple(name, req.Values)
	} else {
		err = d.WriteRegister(name, req.Value)
	}
	if err != nil {
		writeRegisterError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": d.ID(),
		"register":  name,
		"written":   true,
	})
}

// handleBatch dispatches a mixed list of reads and writes. Entries are
// applied in order and failures never abort the remainder.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entries []manager.BatchEntry `json:"entries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Entries) == 0 {
		writeBadRequest(w, "entries list is empty")
		return
	}

	results := s.manager.Batch(r.Context(), req.Entries)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleStartScan launches a background auto-detect sweep and returns
// the job ID without waiting for the sweep to finish.
func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	var req manager.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	jobID, err := s.manager.Scan(req)
	if err != nil {
		writeRegisterError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": manager.ScanRunning,
	})
}

// handleGetScan returns the state of a scan job.
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	job, err := s.manager.Job(chi.URLParam(r, "jobID"))
	if err != nil {
		if errors.Is(err, manager.ErrJobNotFound) {
			writeNotFound(w, "scan job not found")
			return
		}
		writeRegisterError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
