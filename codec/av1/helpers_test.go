package av1

import "errors"

// errBadBitString is returned by bitsToBytes when given a character other
// than '0' or '1'.
var errBadBitString = errors.New("av1: bit string must contain only '0' and '1'")
