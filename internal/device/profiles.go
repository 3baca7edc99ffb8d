package device

import (
	"fmt"

	"github.com/fieldpoint/fieldpoint-core/internal/register"
)

// Known device types.
const (
	// TypeGenericRTU is a schema-less device addressed purely through
	// flat keys.
	TypeGenericRTU = "modbus_rtu"

	// TypeIO8CH is an 8-channel relay/digital-input module.
	TypeIO8CH = "io_8ch"
)

// Profile bundles a device type with its identity and static register
// schema. Profiles are templates: the schema is copied into each
// device at construction.
type Profile struct {
	Type      string
	Identity  Identity
	Registers []register.Register
}

// io8chChannels is the channel count of the 8-channel I/O module.
const io8chChannels = 8

// io8chModeBase is the holding-register base address of the per-channel
// output mode block.
const io8chModeBase = 0x1000

// IO8CHProfile describes an 8-channel relay module with 8 opto-isolated
// digital inputs. Each channel exposes:
//
//	output_<n>       coil, read/write     relay state
//	input_<n>        discrete, read-only  input state
//	output_mode_<n>  holding, read/write  control mode 0-3
func IO8CHProfile() Profile {
	regs := make([]register.Register, 0, 3*io8chChannels)
	for i := 0; i < io8chChannels; i++ {
		regs = append(regs,
			register.NewRegister(fmt.Sprintf("output_%d", i), register.SpaceCoil, uint16(i), register.ReadWrite),
			register.NewRegister(fmt.Sprintf("input_%d", i), register.SpaceDiscrete, uint16(i), register.ReadOnly),
			register.NewRegister(fmt.Sprintf("output_mode_%d", i), register.SpaceHolding, uint16(io8chModeBase+i), register.ReadWrite).WithRange(0, 3),
		)
	}
	return Profile{
		Type: TypeIO8CH,
		Identity: Identity{
			Manufacturer: "Waveshare",
			Model:        "Modbus RTU Relay 8CH",
		},
		Registers: regs,
	}
}

// ProfileForType returns the profile registered for a device type
// string, defaulting to the schema-less generic profile.
func ProfileForType(deviceType string) Profile {
	switch deviceType {
	case TypeIO8CH:
		return IO8CHProfile()
	default:
		return Profile{Type: TypeGenericRTU}
	}
}
