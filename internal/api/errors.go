package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldpoint/fieldpoint-core/internal/device"
	"github.com/fieldpoint/fieldpoint-core/internal/manager"
	"github.com/fieldpoint/fieldpoint-core/internal/register"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeForbidden      = "forbidden"
	ErrCodeConflict       = "conflict"
	ErrCodeBadGateway     = "bad_gateway"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeRegisterError maps register, device, and manager errors to HTTP
// status codes:
//
//	malformed key, bad value, bad action -> 400
//	unknown device or register          -> 404
//	read-only register                  -> 403
//	disconnected or shut-down device    -> 409
//	transport failure                   -> 502
//
// Anything unrecognised becomes a 500.
func writeRegisterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, register.ErrMalformedKey),
		errors.Is(err, register.ErrTypeMismatch),
		errors.Is(err, register.ErrValueOutOfRange),
		errors.Is(err, manager.ErrInvalidAction),
		errors.Is(err, device.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, register.ErrUnknownRegister),
		errors.Is(err, manager.ErrDeviceNotFound),
		errors.Is(err, manager.ErrJobNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, register.ErrAccessViolation):
		writeError(w, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, device.ErrNotConnected),
		errors.Is(err, device.ErrShutdown),
		errors.Is(err, manager.ErrDeviceExists),
		errors.Is(err, manager.ErrShuttingDown):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, device.ErrTransport):
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
