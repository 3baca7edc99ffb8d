package protocol

import (
	"context"
	"time"

	"github.com/fieldpoint/fieldpoint-core/internal/register"
)

// Default candidate sets for the auto-detect brute-force sweep. Order
// matters: detection iterates these exactly as listed so results are
// reproducible.
var (
	DefaultBaudrates = []int{9600, 19200, 38400, 57600, 115200}
	DefaultUnitIDs   = []uint8{1, 2, 3, 10, 255}
)

// Protocol is the capability set every transport variant implements.
//
// All read methods are fail-soft: on a disconnected or failing
// transport they return nil rather than an error, and writes return
// false. Implementations are not safe for unsynchronized concurrent
// use; the owning device serializes access.
type Protocol interface {
	// IsConnected reports the transport's own connection state. Owners
	// must re-query rather than cache it.
	IsConnected() bool

	// Connect establishes the transport link, reporting success.
	Connect() bool

	// Disconnect releases the transport link, reporting success.
	Disconnect() bool

	// ReadCoils reads count coil bits starting at address.
	ReadCoils(unitID uint8, address uint16, count uint16) []bool

	// ReadDiscreteInputs reads count discrete-input bits starting at
	// address.
	ReadDiscreteInputs(unitID uint8, address uint16, count uint16) []bool

	// ReadHoldingRegisters reads count holding words starting at
	// address.
	ReadHoldingRegisters(unitID uint8, address uint16, count uint16) []uint16

	// ReadInputRegisters reads count input words starting at address.
	ReadInputRegisters(unitID uint8, address uint16, count uint16) []uint16

	// WriteSingleCoil writes one coil bit.
	WriteSingleCoil(unitID uint8, address uint16, value bool) bool

	// WriteSingleRegister writes one holding word.
	WriteSingleRegister(unitID uint8, address uint16, value uint16) bool

	// WriteMultipleCoils writes a contiguous run of coil bits.
	WriteMultipleCoils(unitID uint8, address uint16, values []bool) bool

	// WriteMultipleRegisters writes a contiguous run of holding words.
	WriteMultipleRegisters(unitID uint8, address uint16, values []uint16) bool

	// DeviceState returns a structured snapshot of the transport's
	// view of the unit: table sizes where known and the most recent
	// read/write operations.
	DeviceState(unitID uint8) DeviceState

	// AutoDetect probes for a responding unit. Nil or empty candidate
	// slices fall back to DefaultBaudrates/DefaultUnitIDs. The sweep
	// honours ctx cancellation between probes.
	AutoDetect(ctx context.Context, baudrates []int, unitIDs []uint8) DetectionResult
}

// OpRecord describes one completed read or write, kept as last-touched
// metadata in DeviceState.
type OpRecord struct {
	Space   register.Space `json:"space"`
	Address uint16         `json:"address"`
	Count   int            `json:"count"`
	At      time.Time      `json:"at"`
}

// DeviceState is the structured snapshot returned by DeviceState.
// Table sizes are zero when the transport has no visibility into them
// (the live adapter cannot know a remote unit's table capacity).
type DeviceState struct {
	Coils            int       `json:"coils"`
	DiscreteInputs   int       `json:"discrete_inputs"`
	HoldingRegisters int       `json:"holding_registers"`
	InputRegisters   int       `json:"input_registers"`
	LastRead         *OpRecord `json:"last_read,omitempty"`
	LastWrite        *OpRecord `json:"last_write,omitempty"`
}

// DetectionResult reports the outcome of an auto-detect sweep.
// UnitID, Baudrate, and FunctionCode are only meaningful when Detected
// is true.
type DetectionResult struct {
	Detected     bool `json:"detected"`
	UnitID       int  `json:"unit_id,omitempty"`
	Baudrate     int  `json:"baudrate,omitempty"`
	FunctionCode int  `json:"function_code,omitempty"`
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
