package protocol

import (
	"context"
	"fmt"
	"time"

	"github.com/simonvetter/modbus"

	"github.com/fieldpoint/fieldpoint-core/internal/register"
)

// Serial defaults for RTU links. 8N1 at 9600 baud is the common
// factory configuration for the I/O modules this system targets.
const (
	defaultBaudrate = 9600
	defaultDataBits = 8
	defaultStopBits = 1
	defaultTimeout  = 1 * time.Second
)

// RTUOptions configures a live serial Modbus connection.
type RTUOptions struct {
	// Port is the serial device path, e.g. "/dev/ttyUSB0".
	Port string

	// Baudrate defaults to 9600.
	Baudrate int

	// DataBits defaults to 8.
	DataBits int

	// Parity is "none", "even" or "odd". Defaults to "none".
	Parity string

	// StopBits defaults to 1.
	StopBits int

	// Timeout bounds each bus transaction. Defaults to 1s.
	Timeout time.Duration

	// Logger receives transport diagnostics. Defaults to a no-op
	// logger.
	Logger Logger
}

// RTU adapts a serial Modbus client to the Protocol contract.
//
// Every transport error is absorbed here: reads degrade to nil, writes
// to false, and the error is logged. The client's own error taxonomy
// never crosses this boundary.
type RTU struct {
	opts   RTUOptions
	client *modbus.ModbusClient
	logger Logger

	connected bool
	lastRead  *OpRecord
	lastWrite *OpRecord
}

var _ Protocol = (*RTU)(nil)

// NewRTU builds a live adapter for the given serial options. The
// connection is not opened until Connect.
func NewRTU(opts RTUOptions) (*RTU, error) {
	if opts.Port == "" {
		return nil, fmt.Errorf("%w: port is required", ErrInvalidOptions)
	}
	if opts.Baudrate <= 0 {
		opts.Baudrate = defaultBaudrate
	}
	if opts.DataBits <= 0 {
		opts.DataBits = defaultDataBits
	}
	if opts.StopBits <= 0 {
		opts.StopBits = defaultStopBits
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	r := &RTU{opts: opts, logger: opts.Logger}

	client, err := r.newClient(opts.Baudrate)
	if err != nil {
		return nil, err
	}
	r.client = client

	return r, nil
}

func (r *RTU) newClient(baudrate int) (*modbus.ModbusClient, error) {
	parity := modbus.PARITY_NONE
	switch r.opts.Parity {
	case "", "none":
	case "even":
		parity = modbus.PARITY_EVEN
	case "odd":
		parity = modbus.PARITY_ODD
	default:
		return nil, fmt.Errorf("%w: unknown parity %q", ErrInvalidOptions, r.opts.Parity)
	}

	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:      "rtu://" + r.opts.Port,
		Speed:    uint(baudrate),
		DataBits: uint(r.opts.DataBits),
		Parity:   parity,
		StopBits: uint(r.opts.StopBits),
		Timeout:  r.opts.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return client, nil
}

// IsConnected reports whether the serial port is open.
func (r *RTU) IsConnected() bool {
	return r.connected
}

// Connect opens the serial port, reporting success.
func (r *RTU) Connect() bool {
	if r.connected {
		return true
	}
	if err := r.client.Open(); err != nil {
		r.logger.Error("serial open failed", "port", r.opts.Port, "error", err)
		return false
	}
	r.connected = true
	return true
}

// Disconnect closes the serial port, reporting success.
func (r *RTU) Disconnect() bool {
	if !r.connected {
		return true
	}
	if err := r.client.Close(); err != nil {
		r.logger.Warn("serial close failed", "port", r.opts.Port, "error", err)
	}
	r.connected = false
	return true
}

// ReadCoils reads count coil bits, returning nil on any transport
// fault.
func (r *RTU) ReadCoils(unitID uint8, address uint16, count uint16) []bool {
	if !r.ready(unitID) {
		return nil
	}
	out, err := r.client.ReadCoils(address, count)
	if err != nil {
		r.fault("read coils", address, err)
		return nil
	}
	r.recordRead(register.SpaceCoil, address, int(count))
	return out
}

// ReadDiscreteInputs reads count discrete-input bits, returning nil on
// any transport fault.
func (r *RTU) ReadDiscreteInputs(unitID uint8, address uint16, count uint16) []bool {
	if !r.ready(unitID) {
		return nil
	}
	out, err := r.client.ReadDiscreteInputs(address, count)
	if err != nil {
		r.fault("read discrete inputs", address, err)
		return nil
	}
	r.recordRead(register.SpaceDiscrete, address, int(count))
	return out
}

// ReadHoldingRegisters reads count holding words, returning nil on any
// transport fault.
func (r *RTU) ReadHoldingRegisters(unitID uint8, address uint16, count uint16) []uint16 {
	if !r.ready(unitID) {
		return nil
	}
	out, err := r.client.ReadRegisters(address, count, modbus.HOLDING_REGISTER)
	if err != nil {
		r.fault("read holding registers", address, err)
		return nil
	}
	r.recordRead(register.SpaceHolding, address, int(count))
	return out
}

// ReadInputRegisters reads count input words, returning nil on any
// transport fault.
func (r *RTU) ReadInputRegisters(unitID uint8, address uint16, count uint16) []uint16 {
	if !r.ready(unitID) {
		return nil
	}
	out, err := r.client.ReadRegisters(address, count, modbus.INPUT_REGISTER)
	if err != nil {
		r.fault("read input registers", address, err)
		return nil
	}
	r.recordRead(register.SpaceInput, address, int(count))
	return out
}

// WriteSingleCoil writes one coil bit, reporting success.
func (r *RTU) WriteSingleCoil(unitID uint8, address uint16, value bool) bool {
	if !r.ready(unitID) {
		return false
	}
	if err := r.client.WriteCoil(address, value); err != nil {
		r.fault("write coil", address, err)
		return false
	}
	r.recordWrite(register.SpaceCoil, address, 1)
	return true
}

// WriteSingleRegister writes one holding word, reporting success.
func (r *RTU) WriteSingleRegister(unitID uint8, address uint16, value uint16) bool {
	if !r.ready(unitID) {
		return false
	}
	if err := r.client.WriteRegister(address, value); err != nil {
		r.fault("write register", address, err)
		return false
	}
	r.recordWrite(register.SpaceHolding, address, 1)
	return true
}

// WriteMultipleCoils writes a contiguous run of coil bits, reporting
// success.
func (r *RTU) WriteMultipleCoils(unitID uint8, address uint16, values []bool) bool {
	if !r.ready(unitID) {
		return false
	}
	if err := r.client.WriteCoils(address, values); err != nil {
		r.fault("write coils", address, err)
		return false
	}
	r.recordWrite(register.SpaceCoil, address, len(values))
	return true
}

// WriteMultipleRegisters writes a contiguous run of holding words,
// reporting success.
func (r *RTU) WriteMultipleRegisters(unitID uint8, address uint16, values []uint16) bool {
	if !r.ready(unitID) {
		return false
	}
	if err := r.client.WriteRegisters(address, values); err != nil {
		r.fault("write registers", address, err)
		return false
	}
	r.recordWrite(register.SpaceHolding, address, len(values))
	return true
}

// DeviceState reports last-touched metadata. Table sizes stay zero:
// the adapter has no visibility into a remote unit's capacity.
func (r *RTU) DeviceState(unitID uint8) DeviceState {
	return DeviceState{
		LastRead:  r.lastRead,
		LastWrite: r.lastWrite,
	}
}

// AutoDetect sweeps candidate baudrates and unit IDs for a responding
// unit. The search order is deterministic: baudrates outer with a
// reconnect at each, unit IDs inner, probing one holding register
// (function code 3) then one coil (function code 1). The first success
// short-circuits. The sweep checks ctx between probes so a hung bus
// can be abandoned; the configured baudrate is restored afterwards.
func (r *RTU) AutoDetect(ctx context.Context, baudrates []int, unitIDs []uint8) DetectionResult {
	if len(baudrates) == 0 {
		baudrates = DefaultBaudrates
	}
	if len(unitIDs) == 0 {
		unitIDs = DefaultUnitIDs
	}

	defer r.restore()

	for _, baud := range baudrates {
		if ctx.Err() != nil {
			return DetectionResult{}
		}
		if !r.reopenAt(baud) {
			r.logger.Debug("auto-detect: baudrate unreachable", "baudrate", baud)
			continue
		}

		for _, unit := range unitIDs {
			if ctx.Err() != nil {
				return DetectionResult{}
			}
			if err := r.client.SetUnitId(unit); err != nil {
				continue
			}
			if _, err := r.client.ReadRegisters(0, 1, modbus.HOLDING_REGISTER); err == nil {
				return DetectionResult{Detected: true, UnitID: int(unit), Baudrate: baud, FunctionCode: 3}
			}
			if _, err := r.client.ReadCoils(0, 1); err == nil {
				return DetectionResult{Detected: true, UnitID: int(unit), Baudrate: baud, FunctionCode: 1}
			}
		}
	}

	return DetectionResult{}
}

// reopenAt tears the connection down and brings it back up at the
// given baudrate.
func (r *RTU) reopenAt(baudrate int) bool {
	if r.connected {
		_ = r.client.Close()
		r.connected = false
	}
	client, err := r.newClient(baudrate)
	if err != nil {
		return false
	}
	if err := client.Open(); err != nil {
		return false
	}
	r.client = client
	r.connected = true
	return true
}

// restore re-establishes the configured baudrate after a sweep.
func (r *RTU) restore() {
	if !r.reopenAt(r.opts.Baudrate) {
		r.logger.Warn("auto-detect: could not restore configured baudrate",
			"port", r.opts.Port, "baudrate", r.opts.Baudrate)
	}
}

// ready selects the unit for the next transaction. It never opens the
// port itself; a closed port is the caller's signal via IsConnected.
func (r *RTU) ready(unitID uint8) bool {
	if !r.connected {
		return false
	}
	if err := r.client.SetUnitId(unitID); err != nil {
		r.fault("set unit id", 0, err)
		return false
	}
	return true
}

func (r *RTU) fault(op string, address uint16, err error) {
	r.logger.Error("transport fault", "op", op, "address", address, "port", r.opts.Port, "error", err)
}

func (r *RTU) recordRead(space register.Space, address uint16, count int) {
	r.lastRead = &OpRecord{Space: space, Address: address, Count: count, At: time.Now()}
}

func (r *RTU) recordWrite(space register.Space, address uint16, count int) {
	r.lastWrite = &OpRecord{Space: space, Address: address, Count: count, At: time.Now()}
}
