package register

import "fmt"

// DataType describes how a register's value is encoded on the wire.
type DataType string

// Supported wire encodings. Bool registers live in bit spaces, the
// rest in word spaces.
const (
	TypeBool   DataType = "bool"
	TypeUint16 DataType = "uint16"
)

// Access describes whether a register accepts writes.
type Access string

const (
	ReadOnly  Access = "ro"
	ReadWrite Access = "rw"
)

// Register is one named, typed, addressed, access-controlled value
// slot in a device's schema. Entries are created once at device
// construction and never mutated afterwards.
type Register struct {
	Name    string   `json:"name"`
	Address uint16   `json:"address"`
	Space   Space    `json:"space"`
	Type    DataType `json:"type"`
	Access  Access   `json:"access"`

	// Min and Max bound writable word values, inclusive. Ignored for
	// bit registers.
	Min uint16 `json:"min"`
	Max uint16 `json:"max"`
}

// NewRegister builds a schema entry, deriving the data type from the
// space and forcing read-only access on spaces that are read-only by
// definition (discrete inputs and input registers).
func NewRegister(name string, space Space, address uint16, access Access) Register {
	r := Register{
		Name:    name,
		Address: address,
		Space:   space,
		Type:    TypeUint16,
		Access:  access,
		Min:     0,
		Max:     65535,
	}
	if space.Bit() {
		r.Type = TypeBool
	}
	if !space.Writable() {
		r.Access = ReadOnly
	}
	return r
}

// WithRange returns a copy of the register bounded to [min, max].
func (r Register) WithRange(min, max uint16) Register {
	r.Min = min
	r.Max = max
	return r
}

// Key returns the register's resolved address.
func (r Register) Key() Key {
	return Key{Space: r.Space, Offset: r.Address}
}

// CheckRange validates a word value against the register's declared
// bounds.
func (r Register) CheckRange(value uint16) error {
	if value < r.Min || value > r.Max {
		return fmt.Errorf("%w: %d outside [%d, %d] for %q",
			ErrValueOutOfRange, value, r.Min, r.Max, r.Name)
	}
	return nil
}
