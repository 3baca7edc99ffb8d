package register

import (
	"fmt"
	"math"
	"strconv"
)

// CoerceBool converts an arbitrary caller-supplied value into a coil
// state. Booleans pass through, numeric values are truthy when
// non-zero, and strings are parsed ("true", "1", "0", numeric text).
// Anything else fails with ErrTypeMismatch.
func CoerceBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int8, int16, int32, int64:
		return toInt64(v) != 0, nil
	case uint, uint8, uint16, uint32, uint64:
		return toUint64(v) != 0, nil
	case float32:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f != 0, nil
		}
		return false, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, v)
	default:
		return false, fmt.Errorf("%w: %T is not a boolean", ErrTypeMismatch, value)
	}
}

// CoerceWord converts an arbitrary caller-supplied value into a 16-bit
// register word. Integer kinds convert directly, floats truncate
// toward zero, and numeric strings are parsed. Values outside
// [0, 65535] fail with ErrValueOutOfRange rather than truncating or
// wrapping; non-numeric values fail with ErrTypeMismatch.
func CoerceWord(value any) (uint16, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case int, int8, int16, int32, int64:
		return wordFromInt64(toInt64(v))
	case uint, uint8, uint16, uint32, uint64:
		u := toUint64(v)
		if u > math.MaxUint16 {
			return 0, fmt.Errorf("%w: %d exceeds 16-bit register domain", ErrValueOutOfRange, u)
		}
		return uint16(u), nil
	case float32:
		return wordFromFloat(float64(v))
	case float64:
		return wordFromFloat(v)
	case string:
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return wordFromInt64(i)
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return wordFromFloat(f)
		}
		return 0, fmt.Errorf("%w: %q is not numeric", ErrTypeMismatch, v)
	default:
		return 0, fmt.Errorf("%w: %T is not numeric", ErrTypeMismatch, value)
	}
}

func wordFromInt64(i int64) (uint16, error) {
	if i < 0 || i > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d exceeds 16-bit register domain", ErrValueOutOfRange, i)
	}
	return uint16(i), nil
}

func wordFromFloat(f float64) (uint16, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not a finite number", ErrTypeMismatch, f)
	}
	return wordFromInt64(int64(math.Trunc(f)))
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case uint:
		return uint64(n)
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case uint64:
		return n
	}
	return 0
}
