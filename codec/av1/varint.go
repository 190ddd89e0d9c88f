/*
DESCRIPTION
  varint.go implements the AV1 variable-length integer codecs: LEB128,
  UVLC, and the trailing-bits conformance check.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package av1

import "github.com/pkg/errors"

// ReadLEB128 reads a little-endian base-128 variable-length unsigned
// integer: up to 8 bytes, 7 data bits per byte, continuation signalled by
// the top bit. It returns the decoded value and the number of bytes
// consumed. The encoded value must fit in 32 bits; if the continuation bit
// is still set after 8 bytes, or the assembled value overflows 32 bits,
// ReadLEB128 fails with InvalidLeb128.
func (r *BitReader) ReadLEB128() (uint64, int, error) {
	if !r.ByteAligned() {
		return 0, 0, newErr(BitstreamError, "leb128 read requires byte alignment")
	}
	var value uint64
	var n int
	for i := 0; i < 8; i++ {
		b, err := r.ReadBits(8)
		if err != nil {
			return 0, 0, errors.Wrap(err, "could not read leb128 byte")
		}
		n++
		value |= uint64(b&0x7f) << uint(7*i)
		if b&0x80 == 0 {
			if value > 1<<32-1 {
				return 0, 0, newErr(InvalidLeb128, "leb128 value exceeds 32 bits")
			}
			return value, n, nil
		}
	}
	return 0, 0, newErr(InvalidLeb128, "leb128 did not terminate within 8 bytes")
}

// ReadUVLC reads an AV1 Exp-Golomb-style unsigned variable length code:
// count leading zero bits until a 1 bit, then read that many bits and
// combine. 32 or more leading zero bits is reported as BitstreamError (the
// AV1 spec's "invalid marker" case).
func (r *BitReader) ReadUVLC() (uint64, error) {
	var leadingZeros int
	for {
		b, err := r.ReadBit()
		if err != nil {
			return 0, errors.Wrap(err, "could not read uvlc leading bit")
		}
		if b == 1 {
			break
		}
		leadingZeros++
		if leadingZeros >= 32 {
			return 0, newErr(BitstreamError, "uvlc leading zero run of 32 or more bits")
		}
	}
	if leadingZeros == 0 {
		return 0, nil
	}
	bits, err := r.ReadBits(leadingZeros)
	if err != nil {
		return 0, errors.Wrap(err, "could not read uvlc value bits")
	}
	return uint64(bits) + 1<<uint(leadingZeros) - 1, nil
}

// ReadDeltaQ reads the delta_q syntax of quantization_params(): a
// delta_coded flag and, when it is set, a 6-bit magnitude and sign bit
// read with ReadSigned. It returns 0 when delta_coded is 0.
func (r *BitReader) ReadDeltaQ() (int32, error) {
	coded, err := r.ReadFlag()
	if err != nil {
		return 0, errors.Wrap(err, "could not read delta_coded flag")
	}
	if !coded {
		return 0, nil
	}
	v, err := r.ReadSigned(6)
	if err != nil {
		return 0, errors.Wrap(err, "could not read delta_q value")
	}
	return v, nil
}

// CheckTrailingBits consumes the standard AV1 trailing-bits pattern: a
// single 1 bit (trailing_one_bit) followed by zero or more 0 bits up to
// byte alignment (trailing_zero_bit). Any 1 bit in the padding is reported
// as BadTrailingBits. Required at the end of Sequence Header and Metadata
// OBUs.
func (r *BitReader) CheckTrailingBits() error {
	b, err := r.ReadBit()
	if err != nil {
		return errors.Wrap(err, "could not read trailing_one_bit")
	}
	if b != 1 {
		return newErr(BadTrailingBits, "trailing_one_bit was not set")
	}
	for !r.ByteAligned() {
		b, err := r.ReadBit()
		if err != nil {
			return errors.Wrap(err, "could not read trailing_zero_bit")
		}
		if b != 0 {
			return newErr(BadTrailingBits, "non-zero bit found in trailing padding")
		}
	}
	return nil
}
