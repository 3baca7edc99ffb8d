package protocol

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/fieldpoint/fieldpoint-core/internal/register"
)

// Simulator defaults. The seed is fixed so two simulators constructed
// with the same options hold identical tables.
const (
	defaultTableSize = 100
	defaultSeed      = 42
)

// Canned detection reported by the simulator so higher layers can
// exercise the scan path without hardware.
const (
	simDetectUnitID       = 1
	simDetectBaudrate     = 9600
	simDetectFunctionCode = 3
)

// SimulatorOptions configures a Simulator. Zero values select the
// defaults above.
type SimulatorOptions struct {
	// TableSize is the number of entries pseudo-randomly seeded into
	// each address-space table.
	TableSize int

	// Seed feeds the pseudo-random source used for the initial values.
	Seed int64

	// Logger receives debug output. Defaults to a no-op logger.
	Logger Logger
}

// Simulator is the deterministic in-memory Protocol variant.
//
// Each of the four address spaces is a sparse table: a seeded prefix
// of pseudo-random values plus whatever writes have stored since.
// Reads beyond the seeded range return zero values, matching the
// conceptually-infinite table model. Writes always succeed; the
// simulator exists for deterministic testability, not fault injection.
type Simulator struct {
	mu        sync.Mutex
	connected bool

	coils    map[uint16]bool
	discrete map[uint16]bool
	holding  map[uint16]uint16
	input    map[uint16]uint16

	seeded    int
	lastRead  *OpRecord
	lastWrite *OpRecord

	logger Logger
}

// assert interface compliance at compile time.
var _ Protocol = (*Simulator)(nil)

// NewSimulator builds a simulator with all four tables seeded. The
// simulator starts connected, mirroring a bench device that is always
// reachable.
func NewSimulator(opts SimulatorOptions) *Simulator {
	if opts.TableSize <= 0 {
		opts.TableSize = defaultTableSize
	}
	if opts.Seed == 0 {
		opts.Seed = defaultSeed
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	s := &Simulator{
		connected: true,
		coils:     make(map[uint16]bool, opts.TableSize),
		discrete:  make(map[uint16]bool, opts.TableSize),
		holding:   make(map[uint16]uint16, opts.TableSize),
		input:     make(map[uint16]uint16, opts.TableSize),
		seeded:    opts.TableSize,
		logger:    opts.Logger,
	}

	for i := 0; i < opts.TableSize; i++ {
		addr := uint16(i)
		s.coils[addr] = rng.Intn(2) == 1
		s.discrete[addr] = rng.Intn(2) == 1
		s.holding[addr] = uint16(rng.Intn(1 << 16))
		s.input[addr] = uint16(rng.Intn(1 << 16))
	}

	return s
}

// IsConnected reports the simulated connection state.
func (s *Simulator) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Connect always succeeds.
func (s *Simulator) Connect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return true
}

// Disconnect always succeeds.
func (s *Simulator) Disconnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return true
}

// ReadCoils returns count coil bits starting at address, or nil when
// disconnected.
func (s *Simulator) ReadCoils(unitID uint8, address uint16, count uint16) []bool {
	return s.readBits(s.coils, register.SpaceCoil, address, count)
}

// ReadDiscreteInputs returns count discrete-input bits starting at
// address, or nil when disconnected.
func (s *Simulator) ReadDiscreteInputs(unitID uint8, address uint16, count uint16) []bool {
	return s.readBits(s.discrete, register.SpaceDiscrete, address, count)
}

// ReadHoldingRegisters returns count holding words starting at
// address, or nil when disconnected.
func (s *Simulator) ReadHoldingRegisters(unitID uint8, address uint16, count uint16) []uint16 {
	return s.readWords(s.holding, register.SpaceHolding, address, count)
}

// ReadInputRegisters returns count input words starting at address, or
// nil when disconnected.
func (s *Simulator) ReadInputRegisters(unitID uint8, address uint16, count uint16) []uint16 {
	return s.readWords(s.input, register.SpaceInput, address, count)
}

// WriteSingleCoil stores one coil bit. Fails only when disconnected.
func (s *Simulator) WriteSingleCoil(unitID uint8, address uint16, value bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return false
	}
	s.coils[address] = value
	s.recordWrite(register.SpaceCoil, address, 1)
	return true
}

// WriteSingleRegister stores one holding word. Fails only when
// disconnected.
func (s *Simulator) WriteSingleRegister(unitID uint8, address uint16, value uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return false
	}
	s.holding[address] = value
	s.recordWrite(register.SpaceHolding, address, 1)
	return true
}

// WriteMultipleCoils stores a contiguous run of coil bits.
func (s *Simulator) WriteMultipleCoils(unitID uint8, address uint16, values []bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return false
	}
	for i, v := range values {
		s.coils[address+uint16(i)] = v
	}
	s.recordWrite(register.SpaceCoil, address, len(values))
	return true
}

// WriteMultipleRegisters stores a contiguous run of holding words.
func (s *Simulator) WriteMultipleRegisters(unitID uint8, address uint16, values []uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return false
	}
	for i, v := range values {
		s.holding[address+uint16(i)] = v
	}
	s.recordWrite(register.SpaceHolding, address, len(values))
	return true
}

// DeviceState reports current table sizes and last-touched metadata.
func (s *Simulator) DeviceState(unitID uint8) DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DeviceState{
		Coils:            len(s.coils),
		DiscreteInputs:   len(s.discrete),
		HoldingRegisters: len(s.holding),
		InputRegisters:   len(s.input),
		LastRead:         s.lastRead,
		LastWrite:        s.lastWrite,
	}
}

// AutoDetect reports the canned successful detection. The simulator
// never fails detection; the point is letting scan plumbing run end to
// end without a bus.
func (s *Simulator) AutoDetect(ctx context.Context, baudrates []int, unitIDs []uint8) DetectionResult {
	return DetectionResult{
		Detected:     true,
		UnitID:       simDetectUnitID,
		Baudrate:     simDetectBaudrate,
		FunctionCode: simDetectFunctionCode,
	}
}

func (s *Simulator) readBits(table map[uint16]bool, space register.Space, address uint16, count uint16) []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	out := make([]bool, count)
	for i := range out {
		out[i] = table[address+uint16(i)]
	}
	s.recordRead(space, address, int(count))
	return out
}

func (s *Simulator) readWords(table map[uint16]uint16, space register.Space, address uint16, count uint16) []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	out := make([]uint16, count)
	for i := range out {
		out[i] = table[address+uint16(i)]
	}
	s.recordRead(space, address, int(count))
	return out
}

func (s *Simulator) recordRead(space register.Space, address uint16, count int) {
	s.lastRead = &OpRecord{Space: space, Address: address, Count: count, At: time.Now()}
}

func (s *Simulator) recordWrite(space register.Space, address uint16, count int) {
	s.lastWrite = &OpRecord{Space: space, Address: address, Count: count, At: time.Now()}
}
