/*
DESCRIPTION
  bitreader.go provides a bit reader implementation backed by a byte buffer,
  with an explicit bit cursor so that callers can skip, peek remaining bit
  counts, and align to byte boundaries exactly as AV1 OBU parsing requires.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package av1 provides a parser for AV1 Open Bitstream Units (OBUs):
// sequence headers, frame headers, metadata, tile lists, and tile groups.
package av1

// BitReader reads bits MSB-first from a byte buffer. Unlike a
// stream-backed reader, BitReader holds the whole payload and a bit
// cursor p in [0, 8*len(b)], so that bits_remaining, skip, and
// align_to_byte are all exact O(1) operations, as AV1 framing requires
// (consumed_bits + bits_remaining == 8*payload_len, always).
type BitReader struct {
	b []byte
	p int // bit cursor
}

// NewBitReader returns a BitReader over b. The buffer is not copied; the
// caller must keep it alive for the lifetime of the reader.
func NewBitReader(b []byte) *BitReader {
	return &BitReader{b: b}
}

// ReadBit reads a single bit and advances the cursor by one.
func (r *BitReader) ReadBit() (uint8, error) {
	if r.p >= len(r.b)*8 {
		return 0, newErr(BufferExhausted, "read past end of payload")
	}
	byt := r.b[r.p/8]
	bit := (byt >> uint(7-r.p%8)) & 1
	r.p++
	return bit, nil
}

// ReadBits reads n (1..=32) bits, MSB-first, and returns them as the
// low-order bits of a uint32.
func (r *BitReader) ReadBits(n int) (uint32, error) {
	if n < 0 || n > 32 {
		return 0, newErr(BitstreamError, "read width out of range")
	}
	if r.p+n > len(r.b)*8 {
		return 0, newErr(BufferExhausted, "read past end of payload")
	}
	var v uint32
	for i := 0; i < n; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | uint32(bit)
	}
	return v, nil
}

// ReadFlag reads a single bit as a bool.
func (r *BitReader) ReadFlag() (bool, error) {
	b, err := r.ReadBit()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadSigned reads n magnitude bits followed by a sign bit, AV1's su(n)
// syntax descriptor: value = (sign ? -1 : 1) * magnitude.
func (r *BitReader) ReadSigned(n int) (int32, error) {
	mag, err := r.ReadBits(n)
	if err != nil {
		return 0, err
	}
	sign, err := r.ReadFlag()
	if err != nil {
		return 0, err
	}
	if sign {
		return -int32(mag), nil
	}
	return int32(mag), nil
}

// Skip advances the cursor by n bits.
func (r *BitReader) Skip(n int) error {
	if r.p+n > len(r.b)*8 || n < 0 {
		return newErr(BufferExhausted, "skip past end of payload")
	}
	r.p += n
	return nil
}

// AlignToByte advances the cursor to the next multiple of 8.
func (r *BitReader) AlignToByte() {
	if r.p%8 != 0 {
		r.p += 8 - r.p%8
	}
}

// ByteAligned reports whether the cursor sits at a byte boundary.
func (r *BitReader) ByteAligned() bool {
	return r.p%8 == 0
}

// BitsRemaining returns the number of unread bits in the buffer.
func (r *BitReader) BitsRemaining() int {
	return len(r.b)*8 - r.p
}

// BitPosition returns the current bit cursor, for consumed_bits
// accounting.
func (r *BitReader) BitPosition() int {
	return r.p
}

// BytePosition returns the number of whole bytes consumed so far,
// rounding down.
func (r *BitReader) BytePosition() int {
	return r.p / 8
}

// Remainder returns the unread tail of the buffer, starting at the
// current byte-aligned position. Callers must align first; Remainder
// panics if the cursor isn't byte aligned since its only legitimate use
// is skipping raw payload bytes (tile data, metadata bodies) after all
// bit-level fields have been consumed.
func (r *BitReader) Remainder() []byte {
	if !r.ByteAligned() {
		panic("av1: Remainder called on a non-byte-aligned reader")
	}
	return r.b[r.p/8:]
}
