package register

import (
	"fmt"
	"strconv"
	"strings"
)

// Space identifies one of the four independently-addressed register
// tables. Addresses are only unique within a space.
type Space string

// The four Modbus address spaces. Tokens double as the flat-key space
// prefix.
const (
	SpaceCoil     Space = "coil"
	SpaceDiscrete Space = "discrete"
	SpaceHolding  Space = "holding"
	SpaceInput    Space = "input"
)

// AllSpaces returns every valid address space.
func AllSpaces() []Space {
	return []Space{SpaceCoil, SpaceDiscrete, SpaceHolding, SpaceInput}
}

// validSpaces is pre-computed for O(1) parse-time lookups.
var validSpaces = map[Space]bool{
	SpaceCoil:     true,
	SpaceDiscrete: true,
	SpaceHolding:  true,
	SpaceInput:    true,
}

// IsValid reports whether s is one of the four known spaces.
func (s Space) IsValid() bool {
	return validSpaces[s]
}

// Bit reports whether the space holds single-bit values (coils and
// discrete inputs) rather than 16-bit words.
func (s Space) Bit() bool {
	return s == SpaceCoil || s == SpaceDiscrete
}

// Writable reports whether the space accepts writes at all. Discrete
// inputs and input registers are read-only by definition.
func (s Space) Writable() bool {
	return s == SpaceCoil || s == SpaceHolding
}

// Key is a flat register key resolved into a typed address: the space
// it lives in and the offset within that space. Resolution happens
// once, at parse time; everything downstream works with the typed pair.
type Key struct {
	Space  Space
	Offset uint16
}

// String renders the key back into its canonical flat form.
func (k Key) String() string {
	return fmt.Sprintf("%s_%d", k.Space, k.Offset)
}

// ParseKey parses a flat key of the exact shape "<space>_<offset>".
//
// Parsing is strict: exactly one underscore separator, a known space
// token, and a base-10 offset in [0, 65535]. Any deviation returns
// ErrMalformedKey wrapped with the offending detail. A leading sign,
// whitespace, or extra separator all fail; no silent defaulting.
func ParseKey(key string) (Key, error) {
	space, offset, found := strings.Cut(key, "_")
	if !found {
		return Key{}, fmt.Errorf("%w: %q has no space separator", ErrMalformedKey, key)
	}
	if strings.Contains(offset, "_") {
		return Key{}, fmt.Errorf("%w: %q has multiple separators", ErrMalformedKey, key)
	}

	sp := Space(space)
	if !sp.IsValid() {
		return Key{}, fmt.Errorf("%w: unknown address space %q", ErrMalformedKey, space)
	}

	// ParseUint rejects signs, whitespace, and empty strings outright,
	// which covers "coil_-1" and "coil_" without extra checks.
	off, err := strconv.ParseUint(offset, 10, 16)
	if err != nil {
		return Key{}, fmt.Errorf("%w: offset %q is not a 16-bit unsigned integer", ErrMalformedKey, offset)
	}

	return Key{Space: sp, Offset: uint16(off)}, nil
}
