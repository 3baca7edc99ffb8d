package protocol

import "errors"

// ErrInvalidOptions indicates transport options that cannot produce a
// usable client. Runtime transport failures never surface as errors;
// the fail-soft adapters degrade to nil reads and false writes.
var ErrInvalidOptions = errors.New("protocol: invalid options")
