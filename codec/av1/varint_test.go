/*
DESCRIPTION
  varint_test.go provides testing for functionality provided in
  varint.go.

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

import "testing"

func TestReadLEB128(t *testing.T) {
	tests := []struct {
		buf         []byte
		wantValue   uint64
		wantConsumed int
	}{
		{buf: []byte{0x00}, wantValue: 0, wantConsumed: 1},
		{buf: []byte{0x01}, wantValue: 1, wantConsumed: 1},
		{buf: []byte{0x7f}, wantValue: 0x7f, wantConsumed: 1},
		{buf: []byte{0x80, 0x01}, wantValue: 128, wantConsumed: 2},
		{buf: []byte{0xff, 0x01}, wantValue: 255, wantConsumed: 2},
		{buf: []byte{0xa6, 0x01}, wantValue: 166, wantConsumed: 2}, // spec.md §8 scenario 3 obu size.
		{buf: []byte{0x9f, 0x01}, wantValue: 0x9f & 0x7f | 1<<7, wantConsumed: 2},
	}
	for i, test := range tests {
		r := NewBitReader(test.buf)
		got, n, err := r.ReadLEB128()
		if err != nil {
			t.Fatalf("test %d: unexpected error: %v", i, err)
		}
		if got != test.wantValue {
			t.Errorf("test %d: value = %d, want %d", i, got, test.wantValue)
		}
		if n != test.wantConsumed {
			t.Errorf("test %d: consumed = %d, want %d", i, n, test.wantConsumed)
		}
	}
}

// TestReadLEB128NineContinuationBytes checks the boundary behaviour from
// spec.md §8: a LEB128 with 8 continuation bytes (no terminator) fails
// InvalidLeb128.
func TestReadLEB128NineContinuationBytes(t *testing.T) {
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	r := NewBitReader(buf)
	_, _, err := r.ReadLEB128()
	if err == nil {
		t.Fatal("expected InvalidLeb128 error")
	}
	kind, ok := KindOf(err)
	if !ok || kind != InvalidLeb128 {
		t.Errorf("got kind %v, ok %v, want InvalidLeb128", kind, ok)
	}
}

func TestReadLEB128ValueOverflows32Bits(t *testing.T) {
	// 4 continuation bytes of all-1 data bits, terminated by a fifth byte
	// (0x7f) with the continuation bit clear: 35 one bits, a value > 2^32-1.
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0x7f}
	r := NewBitReader(buf)
	_, _, err := r.ReadLEB128()
	if err == nil {
		t.Fatal("expected InvalidLeb128 error for overflow")
	}
	kind, ok := KindOf(err)
	if !ok || kind != InvalidLeb128 {
		t.Errorf("got kind %v, ok %v, want InvalidLeb128", kind, ok)
	}
}

func TestReadLEB128RequiresByteAlignment(t *testing.T) {
	r := NewBitReader([]byte{0xff, 0x00})
	if _, err := r.ReadBit(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.ReadLEB128(); err == nil {
		t.Fatal("expected error reading leb128 from an unaligned position")
	}
}

func TestReadUVLC(t *testing.T) {
	tests := []struct {
		buf  []byte
		want uint64
	}{
		{buf: []byte{0b10000000}, want: 0},          // 0 leading zeros.
		{buf: []byte{0b01000000}, want: 1},          // 1 leading zero, value bit 0 -> 0 + 2 - 1 = 1
		{buf: []byte{0b01100000}, want: 2},          // 1 leading zero, value bit 1 -> 1 + 1 = 2
		{buf: []byte{0b00100000}, want: 3},          // leadingZeros=2, bits=00 -> 0 + 3 = 3
	}
	for i, test := range tests {
		r := NewBitReader(test.buf)
		got, err := r.ReadUVLC()
		if err != nil {
			t.Fatalf("test %d: unexpected error: %v", i, err)
		}
		if got != test.want {
			t.Errorf("test %d: got %d, want %d", i, got, test.want)
		}
	}
}

// TestReadUVLC32LeadingZeros checks the boundary behaviour from spec.md
// §8: UVLC with 32 leading zeros fails BitstreamError.
func TestReadUVLC32LeadingZeros(t *testing.T) {
	buf := make([]byte, 5) // 40 zero bits, plenty to hit the 32 threshold.
	r := NewBitReader(buf)
	_, err := r.ReadUVLC()
	if err == nil {
		t.Fatal("expected BitstreamError")
	}
	kind, ok := KindOf(err)
	if !ok || kind != BitstreamError {
		t.Errorf("got kind %v, ok %v, want BitstreamError", kind, ok)
	}
}

func TestCheckTrailingBits(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		skip    int
		wantErr bool
	}{
		{name: "valid single bit", buf: []byte{0b10000000}, skip: 0, wantErr: false},
		{name: "valid with padding", buf: []byte{0b00010000}, skip: 3, wantErr: false},
		{name: "missing trailing one bit", buf: []byte{0b00000000}, skip: 0, wantErr: true},
		{name: "non-zero padding", buf: []byte{0b00011000}, skip: 3, wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := NewBitReader(test.buf)
			if test.skip > 0 {
				if err := r.Skip(test.skip); err != nil {
					t.Fatal(err)
				}
			}
			err := r.CheckTrailingBits()
			if (err != nil) != test.wantErr {
				t.Errorf("CheckTrailingBits() error = %v, wantErr %v", err, test.wantErr)
			}
			if err != nil {
				if kind, ok := KindOf(err); !ok || kind != BadTrailingBits {
					t.Errorf("got kind %v, ok %v, want BadTrailingBits", kind, ok)
				}
			}
		})
	}
}
