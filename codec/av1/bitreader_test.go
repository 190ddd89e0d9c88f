/*
DESCRIPTION
  bitreader_test.go provides testing for functionality provided in
  bitreader.go.

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

func TestReadBits(t *testing.T) {
	tests := []struct {
		buf  []byte
		n    int
		want uint32
	}{
		{buf: []byte{0b10110000}, n: 1, want: 1},
		{buf: []byte{0b10110000}, n: 4, want: 0b1011},
		{buf: []byte{0xff, 0x00}, n: 16, want: 0xff00},
		{buf: []byte{0x12, 0x34}, n: 8, want: 0x12},
	}
	for i, test := range tests {
		r := NewBitReader(test.buf)
		got, err := r.ReadBits(test.n)
		if err != nil {
			t.Fatalf("test %d: unexpected error: %v", i, err)
		}
		if got != test.want {
			t.Errorf("test %d: got %#x, want %#x", i, got, test.want)
		}
	}
}

func TestReadBitsSequential(t *testing.T) {
	r := NewBitReader([]byte{0b11010010})
	want := []uint8{1, 1, 0, 1, 0, 0, 1, 0}
	for i, w := range want {
		got, err := r.ReadBit()
		if err != nil {
			t.Fatalf("bit %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("bit %d: got %d, want %d", i, got, w)
		}
	}
}

func TestReadBitsExhausted(t *testing.T) {
	r := NewBitReader([]byte{0xff})
	if _, err := r.ReadBits(9); err == nil {
		t.Fatal("expected error reading past end of buffer")
	}
	kind, ok := KindOf(func() error { _, err := r.ReadBits(9); return err }())
	if !ok || kind != BufferExhausted {
		t.Errorf("got kind %v, ok %v, want BufferExhausted", kind, ok)
	}
}

func TestAlignToByte(t *testing.T) {
	r := NewBitReader([]byte{0xff, 0xff})
	if _, err := r.ReadBits(3); err != nil {
		t.Fatal(err)
	}
	r.AlignToByte()
	if r.BitPosition() != 8 {
		t.Errorf("BitPosition = %d, want 8", r.BitPosition())
	}
	if !r.ByteAligned() {
		t.Error("expected ByteAligned true")
	}
	r.AlignToByte()
	if r.BitPosition() != 8 {
		t.Errorf("aligning an already-aligned reader should be a no-op, got %d", r.BitPosition())
	}
}

func TestBitsRemaining(t *testing.T) {
	r := NewBitReader([]byte{0x00, 0x00})
	if got := r.BitsRemaining(); got != 16 {
		t.Fatalf("BitsRemaining = %d, want 16", got)
	}
	if _, err := r.ReadBits(5); err != nil {
		t.Fatal(err)
	}
	if got := r.BitsRemaining(); got != 11 {
		t.Errorf("BitsRemaining = %d, want 11", got)
	}
}

func TestSkip(t *testing.T) {
	r := NewBitReader([]byte{0xff, 0x0f})
	if err := r.Skip(12); err != nil {
		t.Fatal(err)
	}
	got, err := r.ReadBits(4)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xf {
		t.Errorf("got %#x, want 0xf", got)
	}
	if err := r.Skip(1); err == nil {
		t.Error("expected error skipping past end of buffer")
	}
}

func TestReadSigned(t *testing.T) {
	tests := []struct {
		buf  []byte
		n    int
		want int32
	}{
		{buf: []byte{0b01000000}, n: 3, want: 2},  // magnitude 010, sign 0
		{buf: []byte{0b01011000}, n: 3, want: -2}, // magnitude 010, sign 1
	}
	for i, test := range tests {
		r := NewBitReader(test.buf)
		got, err := r.ReadSigned(test.n)
		if err != nil {
			t.Fatalf("test %d: unexpected error: %v", i, err)
		}
		if got != test.want {
			t.Errorf("test %d: got %d, want %d", i, got, test.want)
		}
	}
}

func TestRemainderPanicsWhenUnaligned(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling Remainder on an unaligned reader")
		}
	}()
	r := NewBitReader([]byte{0xff})
	r.Skip(1)
	r.Remainder()
}

func TestRemainder(t *testing.T) {
	r := NewBitReader([]byte{0x01, 0x02, 0x03})
	r.Skip(8)
	got := r.Remainder()
	want := []byte{0x02, 0x03}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Remainder() = %v, want %v", got, want)
	}
}

func TestConsumedPlusRemainingEqualsTotal(t *testing.T) {
	buf := []byte{0x12, 0x34, 0x56, 0x78}
	r := NewBitReader(buf)
	for i := 0; i < 17; i++ {
		if _, err := r.ReadBit(); err != nil {
			t.Fatal(err)
		}
	}
	if r.BitPosition()+r.BitsRemaining() != 8*len(buf) {
		t.Errorf("consumed_bits + bits_remaining = %d, want %d", r.BitPosition()+r.BitsRemaining(), 8*len(buf))
	}
}
