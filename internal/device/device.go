package device

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fieldpoint/fieldpoint-core/internal/protocol"
	"github.com/fieldpoint/fieldpoint-core/internal/register"
)

// Identity carries descriptive, non-behavioral metadata about the
// physical device.
type Identity struct {
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	Firmware     string `json:"firmware,omitempty"`
}

// Status is the externally-visible snapshot of one device.
type Status struct {
	DeviceID    string                `json:"device_id"`
	DeviceType  string                `json:"device_type"`
	Connected   bool                  `json:"connected"`
	UnitID      int                   `json:"unit_id"`
	Port        string                `json:"port,omitempty"`
	Baudrate    int                   `json:"baudrate,omitempty"`
	MockMode    bool                  `json:"mock_mode"`
	DeviceState *protocol.DeviceState `json:"device_state,omitempty"`
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config describes a device to construct.
type Config struct {
	// ID is the caller-supplied, immutable device identifier.
	ID string

	// UnitID is the Modbus slave address. Defaults to 1.
	UnitID uint8

	// Port is the serial device path for live devices.
	Port string

	// Baudrate for live devices. Defaults to 9600.
	Baudrate int

	// DataBits, Parity, and StopBits tune the serial framing for
	// live devices. Zero values fall back to 8N1.
	DataBits int
	Parity   string
	StopBits int

	// Timeout bounds each bus transaction on live devices.
	// Defaults to 1s.
	Timeout time.Duration

	// Mock selects the deterministic simulator instead of a live
	// serial connection.
	Mock bool

	// Profile supplies the device type, identity, and register schema.
	// The zero value yields a generic flat-key-only device.
	Profile Profile

	// Protocol overrides the transport built from Mock/Port/Baudrate.
	// Mainly for tests.
	Protocol protocol.Protocol

	// Logger receives device diagnostics. Defaults to a no-op logger.
	Logger Logger
}

// Device owns a register schema and exactly one protocol instance.
// All methods are safe for concurrent use; a mutex serializes every
// protocol operation because the bus behind a live transport is
// inherently serial.
type Device struct {
	id          string
	deviceType  string
	identity    Identity
	schema      map[string]register.Register
	schemaByKey map[register.Key]register.Register
	unitID      uint8
	port        string
	baudrate    int
	mock        bool
	logger      Logger

	mu    sync.Mutex
	proto protocol.Protocol
	down  bool
}

// New constructs a device from cfg. The protocol connection is not
// established until Initialize.
func New(cfg Config) (*Device, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: device ID is required", ErrInvalidConfig)
	}
	if cfg.UnitID == 0 {
		cfg.UnitID = 1
	}
	if cfg.Baudrate <= 0 {
		cfg.Baudrate = 9600
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	deviceType := cfg.Profile.Type
	if deviceType == "" {
		deviceType = TypeGenericRTU
	}

	schema := make(map[string]register.Register, len(cfg.Profile.Registers))
	schemaByKey := make(map[register.Key]register.Register, len(cfg.Profile.Registers))
	for _, r := range cfg.Profile.Registers {
		if _, dup := schema[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate register %q", ErrInvalidConfig, r.Name)
		}
		schema[r.Name] = r
		schemaByKey[r.Key()] = r
	}

	proto := cfg.Protocol
	if proto == nil {
		if cfg.Mock {
			proto = protocol.NewSimulator(protocol.SimulatorOptions{})
		} else {
			var err error
			proto, err = protocol.NewRTU(protocol.RTUOptions{
				Port:     cfg.Port,
				Baudrate: cfg.Baudrate,
				DataBits: cfg.DataBits,
				Parity:   cfg.Parity,
				StopBits: cfg.StopBits,
				Timeout:  cfg.Timeout,
				Logger:   cfg.Logger,
			})
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
		}
	}

	return &Device{
		id:          cfg.ID,
		deviceType:  deviceType,
		identity:    cfg.Profile.Identity,
		schema:      schema,
		schemaByKey: schemaByKey,
		unitID:      cfg.UnitID,
		port:        cfg.Port,
		baudrate:    cfg.Baudrate,
		mock:        cfg.Mock,
		logger:      cfg.Logger,
		proto:       proto,
	}, nil
}

// ID returns the immutable device identifier.
func (d *Device) ID() string { return d.id }

// Type returns the device type string.
func (d *Device) Type() string { return d.deviceType }

// Identity returns the descriptive metadata.
func (d *Device) Identity() Identity { return d.identity }

// Registers returns the structured schema entries, if any.
func (d *Device) Registers() []register.Register {
	out := make([]register.Register, 0, len(d.schema))
	for _, r := range d.schema {
		out = append(out, r)
	}
	return out
}

// Initialize establishes the protocol connection.
func (d *Device) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.down {
		return ErrShutdown
	}
	if !d.proto.Connect() {
		return fmt.Errorf("%w: connect failed for %q", ErrNotConnected, d.id)
	}
	return nil
}

// Shutdown releases the protocol connection. The device is unusable
// afterwards: every operation fails.
func (d *Device) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.down {
		return
	}
	d.down = true
	d.proto.Disconnect()
}

// Connected re-queries the protocol's own connection state.
func (d *Device) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.down && d.proto.IsConnected()
}

// ReadRegister resolves name and reads the single addressed value.
// The returned value is a bool for bit spaces and a uint16 for word
// spaces. The connection state is checked before the name is even
// parsed; a parse failure is reported, never defaulted.
func (d *Device) ReadRegister(name string) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return nil, err
	}

	key, _, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	return d.readKey(key)
}

// WriteRegister resolves name, coerces value to the space's native
// type, enforces access control and range bounds, and writes the
// single addressed value. Read-only spaces and registers reject the
// write before any protocol call.
func (d *Device) WriteRegister(name string, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}

	key, reg, err := d.resolve(name)
	if err != nil {
		return err
	}
	if !key.Space.Writable() {
		return fmt.Errorf("%w: %s is read-only", register.ErrAccessViolation, key.Space)
	}
	if reg != nil && reg.Access == register.ReadOnly {
		return fmt.Errorf("%w: register %q is read-only", register.ErrAccessViolation, name)
	}

	if key.Space.Bit() {
		b, err := register.CoerceBool(value)
		if err != nil {
			return err
		}
		if !d.proto.WriteSingleCoil(d.unitID, key.Offset, b) {
			return fmt.Errorf("%w: write %s", ErrTransport, key)
		}
		return nil
	}

	word, err := register.CoerceWord(value)
	if err != nil {
		return err
	}
	if reg != nil {
		if err := reg.CheckRange(word); err != nil {
			return err
		}
	}
	if !d.proto.WriteSingleRegister(d.unitID, key.Offset, word) {
		return fmt.Errorf("%w: write %s", ErrTransport, key)
	}
	return nil
}

// WriteMultiple writes a contiguous run of words or bits starting at
// the resolved address of name. Every covered address that maps to a
// schema register is held to that register's declared range, not just
// the named one.
func (d *Device) WriteMultiple(name string, values []any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}

	key, reg, err := d.resolve(name)
	if err != nil {
		return err
	}
	if !key.Space.Writable() {
		return fmt.Errorf("%w: %s is read-only", register.ErrAccessViolation, key.Space)
	}
	if reg != nil && reg.Access == register.ReadOnly {
		return fmt.Errorf("%w: register %q is read-only", register.ErrAccessViolation, name)
	}

	if key.Space.Bit() {
		bits := make([]bool, len(values))
		for i, v := range values {
			b, err := register.CoerceBool(v)
			if err != nil {
				return err
			}
			bits[i] = b
		}
		if !d.proto.WriteMultipleCoils(d.unitID, key.Offset, bits) {
			return fmt.Errorf("%w: write %s x%d", ErrTransport, key, len(bits))
		}
		return nil
	}

	words := make([]uint16, len(values))
	for i, v := range values {
		w, err := register.CoerceWord(v)
		if err != nil {
			return err
		}
		at := register.Key{Space: key.Space, Offset: key.Offset + uint16(i)}
		if sr, ok := d.schemaByKey[at]; ok {
			if err := sr.CheckRange(w); err != nil {
				return err
			}
		}
		words[i] = w
	}
	if !d.proto.WriteMultipleRegisters(d.unitID, key.Offset, words) {
		return fmt.Errorf("%w: write %s x%d", ErrTransport, key, len(words))
	}
	return nil
}

// Snapshot reads the device's current state for polling and push
// channels. Devices with a structured schema report every schema
// register by name; flat devices report the first blockSize entries of
// the coil and discrete spaces.
func (d *Device) Snapshot() (map[string]any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return nil, err
	}

	out := make(map[string]any)

	if len(d.schema) > 0 {
		for name, reg := range d.schema {
			v, err := d.readKey(reg.Key())
			if err != nil {
				return nil, err
			}
			out[name] = v
		}
		return out, nil
	}

	const blockSize = 8
	coils := d.proto.ReadCoils(d.unitID, 0, blockSize)
	if coils == nil {
		return nil, fmt.Errorf("%w: bulk coil read", ErrTransport)
	}
	discrete := d.proto.ReadDiscreteInputs(d.unitID, 0, blockSize)
	if discrete == nil {
		return nil, fmt.Errorf("%w: bulk discrete read", ErrTransport)
	}
	for i, v := range coils {
		out[register.Key{Space: register.SpaceCoil, Offset: uint16(i)}.String()] = v
	}
	for i, v := range discrete {
		out[register.Key{Space: register.SpaceDiscrete, Offset: uint16(i)}.String()] = v
	}
	return out, nil
}

// Status returns the externally-visible device snapshot. DeviceState
// is only populated while connected.
func (d *Device) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Status{
		DeviceID:   d.id,
		DeviceType: d.deviceType,
		Connected:  !d.down && d.proto.IsConnected(),
		UnitID:     int(d.unitID),
		Port:       d.port,
		Baudrate:   d.baudrate,
		MockMode:   d.mock,
	}
	if s.Connected {
		state := d.proto.DeviceState(d.unitID)
		s.DeviceState = &state
	}
	return s
}

// Protocol exposes the owned protocol instance for scan dispatch. The
// caller must route all access through the device to preserve the
// one-in-flight-operation guarantee; WithProtocol does that.
func (d *Device) WithProtocol(fn func(p protocol.Protocol)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.proto)
}

// resolve maps a register name to its typed address: structured schema
// first, flat "<space>_<offset>" key second. A plain name missing from
// the schema is an unknown register; anything resembling a flat key is
// held to the strict parse.
func (d *Device) resolve(name string) (register.Key, *register.Register, error) {
	if reg, ok := d.schema[name]; ok {
		return reg.Key(), &reg, nil
	}
	key, err := register.ParseKey(name)
	if err != nil {
		if !strings.Contains(name, "_") {
			return register.Key{}, nil, fmt.Errorf("%w: %q", register.ErrUnknownRegister, name)
		}
		return register.Key{}, nil, err
	}
	return key, nil, nil
}

// ready is called with d.mu held.
func (d *Device) ready() error {
	if d.down {
		return ErrShutdown
	}
	if !d.proto.IsConnected() {
		return fmt.Errorf("%w: %q", ErrNotConnected, d.id)
	}
	return nil
}

// readKey is called with d.mu held.
func (d *Device) readKey(key register.Key) (any, error) {
	switch key.Space {
	case register.SpaceCoil:
		out := d.proto.ReadCoils(d.unitID, key.Offset, 1)
		if len(out) != 1 {
			return nil, fmt.Errorf("%w: read %s", ErrTransport, key)
		}
		return out[0], nil
	case register.SpaceDiscrete:
		out := d.proto.ReadDiscreteInputs(d.unitID, key.Offset, 1)
		if len(out) != 1 {
			return nil, fmt.Errorf("%w: read %s", ErrTransport, key)
		}
		return out[0], nil
	case register.SpaceHolding:
		out := d.proto.ReadHoldingRegisters(d.unitID, key.Offset, 1)
		if len(out) != 1 {
			return nil, fmt.Errorf("%w: read %s", ErrTransport, key)
		}
		return out[0], nil
	case register.SpaceInput:
		out := d.proto.ReadInputRegisters(d.unitID, key.Offset, 1)
		if len(out) != 1 {
			return nil, fmt.Errorf("%w: read %s", ErrTransport, key)
		}
		return out[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", register.ErrMalformedKey, key.Space)
	}
}
