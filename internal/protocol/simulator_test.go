package protocol

import (
	"context"
	"testing"
)

func TestSimulatorReadWrite(t *testing.T) {
	t.Run("single write round-trips", func(t *testing.T) {
		s := NewSimulator(SimulatorOptions{})

		if !s.WriteSingleRegister(1, 5, 12345) {
			t.Fatal("WriteSingleRegister failed")
		}
		got := s.ReadHoldingRegisters(1, 5, 1)
		if len(got) != 1 || got[0] != 12345 {
			t.Errorf("ReadHoldingRegisters(5, 1) = %v, want [12345]", got)
		}

		if !s.WriteSingleCoil(1, 7, true) {
			t.Fatal("WriteSingleCoil failed")
		}
		bits := s.ReadCoils(1, 7, 1)
		if len(bits) != 1 || !bits[0] {
			t.Errorf("ReadCoils(7, 1) = %v, want [true]", bits)
		}
	})

	t.Run("multiple write round-trips", func(t *testing.T) {
		s := NewSimulator(SimulatorOptions{})

		if !s.WriteMultipleRegisters(1, 10, []uint16{100, 200, 300}) {
			t.Fatal("WriteMultipleRegisters failed")
		}
		got := s.ReadHoldingRegisters(1, 10, 3)
		want := []uint16{100, 200, 300}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("holding[%d] = %d, want %d", 10+i, got[i], want[i])
			}
		}

		if !s.WriteMultipleCoils(1, 20, []bool{true, false, true}) {
			t.Fatal("WriteMultipleCoils failed")
		}
		bits := s.ReadCoils(1, 20, 3)
		wantBits := []bool{true, false, true}
		for i := range wantBits {
			if bits[i] != wantBits[i] {
				t.Errorf("coil[%d] = %v, want %v", 20+i, bits[i], wantBits[i])
			}
		}
	})

	t.Run("reads beyond the seeded range return zero values", func(t *testing.T) {
		s := NewSimulator(SimulatorOptions{TableSize: 10})

		got := s.ReadHoldingRegisters(1, 65535, 1)
		if len(got) != 1 || got[0] != 0 {
			t.Errorf("ReadHoldingRegisters(65535, 1) = %v, want [0]", got)
		}
		bits := s.ReadDiscreteInputs(1, 5000, 2)
		if len(bits) != 2 || bits[0] || bits[1] {
			t.Errorf("ReadDiscreteInputs(5000, 2) = %v, want [false false]", bits)
		}
	})

	t.Run("writes beyond the seeded range round-trip", func(t *testing.T) {
		s := NewSimulator(SimulatorOptions{TableSize: 10})

		if !s.WriteSingleRegister(1, 65535, 42) {
			t.Fatal("WriteSingleRegister(65535) failed")
		}
		got := s.ReadHoldingRegisters(1, 65535, 1)
		if len(got) != 1 || got[0] != 42 {
			t.Errorf("ReadHoldingRegisters(65535, 1) = %v, want [42]", got)
		}
	})

	t.Run("same seed produces identical tables", func(t *testing.T) {
		a := NewSimulator(SimulatorOptions{Seed: 7})
		b := NewSimulator(SimulatorOptions{Seed: 7})

		av := a.ReadHoldingRegisters(1, 0, 100)
		bv := b.ReadHoldingRegisters(1, 0, 100)
		for i := range av {
			if av[i] != bv[i] {
				t.Fatalf("holding[%d] differs between identical seeds: %d vs %d", i, av[i], bv[i])
			}
		}
	})
}

func TestSimulatorDisconnected(t *testing.T) {
	s := NewSimulator(SimulatorOptions{})
	if !s.Disconnect() {
		t.Fatal("Disconnect failed")
	}
	if s.IsConnected() {
		t.Fatal("IsConnected = true after Disconnect")
	}

	if got := s.ReadCoils(1, 0, 5); got != nil {
		t.Errorf("ReadCoils while disconnected = %v, want nil", got)
	}
	if got := s.ReadHoldingRegisters(1, 0, 5); got != nil {
		t.Errorf("ReadHoldingRegisters while disconnected = %v, want nil", got)
	}
	if s.WriteSingleCoil(1, 0, true) {
		t.Error("WriteSingleCoil while disconnected = true, want false")
	}
	if s.WriteMultipleRegisters(1, 0, []uint16{1}) {
		t.Error("WriteMultipleRegisters while disconnected = true, want false")
	}

	if !s.Connect() {
		t.Fatal("Connect failed")
	}
	if got := s.ReadCoils(1, 0, 5); len(got) != 5 {
		t.Errorf("ReadCoils after reconnect returned %d bits, want 5", len(got))
	}
}

func TestSimulatorDeviceState(t *testing.T) {
	s := NewSimulator(SimulatorOptions{TableSize: 100})

	state := s.DeviceState(1)
	if state.Coils != 100 || state.HoldingRegisters != 100 {
		t.Errorf("table sizes = %d/%d, want 100/100", state.Coils, state.HoldingRegisters)
	}
	if state.LastRead != nil || state.LastWrite != nil {
		t.Error("fresh simulator reports operation metadata")
	}

	s.WriteSingleRegister(1, 3, 9)
	s.ReadHoldingRegisters(1, 3, 1)

	state = s.DeviceState(1)
	if state.LastWrite == nil || state.LastWrite.Address != 3 {
		t.Errorf("LastWrite = %+v, want address 3", state.LastWrite)
	}
	if state.LastRead == nil || state.LastRead.Count != 1 {
		t.Errorf("LastRead = %+v, want count 1", state.LastRead)
	}
}

func TestSimulatorAutoDetect(t *testing.T) {
	s := NewSimulator(SimulatorOptions{})

	got := s.AutoDetect(context.Background(), nil, nil)
	want := DetectionResult{Detected: true, UnitID: 1, Baudrate: 9600, FunctionCode: 3}
	if got != want {
		t.Errorf("AutoDetect = %+v, want %+v", got, want)
	}
}
