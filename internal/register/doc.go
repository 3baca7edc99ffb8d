// Package register defines the uniform register model shared by every
// field device: the four Modbus address spaces, the strict flat-key
// addressing scheme, immutable register schema entries, and the value
// coercion rules applied at the write boundary.
//
// # Address Spaces
//
// Addresses are only unique within a space, never across spaces:
//
//	coil      read/write single bits
//	discrete  read-only single bits
//	holding   read/write 16-bit words
//	input     read-only 16-bit words
//
// # Flat Keys
//
// A flat key has the exact shape "<space>_<offset>" where <space> is
// one of the four tokens above and <offset> is a base-10 integer in
// [0, 65535]. Parsing is strict: a missing or extra separator, an
// unknown space token, a non-numeric or out-of-range offset all fail
// with ErrMalformedKey. A parse failure is always reported to the
// caller; no default address is ever substituted.
package register
