/*
DESCRIPTION
  obu_test.go provides testing for functionality provided in obu.go,
  including the literal end-to-end scenarios from spec.md §8.

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

// TestParseOBUHeaderTemporalDelimiter is spec.md §8 scenario 1.
func TestParseOBUHeaderTemporalDelimiter(t *testing.T) {
	buf := []byte{0x12, 0x00}
	h, n, err := ParseOBUHeader(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Type != OBUTemporalDelimiter {
		t.Errorf("Type = %v, want OBUTemporalDelimiter", h.Type)
	}
	if !h.HasSizeField {
		t.Error("HasSizeField = false, want true")
	}
	if h.SizeBytes != 0 {
		t.Errorf("SizeBytes = %d, want 0", h.SizeBytes)
	}
	if n != 2 {
		t.Errorf("consumed = %d, want 2", n)
	}
}

// TestParseOBUHeaderFrame is spec.md §8 scenario 3's header bytes.
func TestParseOBUHeaderFrame(t *testing.T) {
	buf := []byte{0x32, 0xa6, 0x01, 0x10}
	h, n, err := ParseOBUHeader(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Type != OBUFrame {
		t.Errorf("Type = %v, want OBUFrame", h.Type)
	}
	if h.SizeBytes != 166 {
		t.Errorf("SizeBytes = %d, want 166", h.SizeBytes)
	}
	if n != 3 {
		t.Errorf("consumed = %d, want 3", n)
	}
}

// TestParseOBUHeaderForbiddenBit is spec.md §8's forbidden-bit boundary
// behaviour and scenario 6.
func TestParseOBUHeaderForbiddenBit(t *testing.T) {
	_, _, err := ParseOBUHeader([]byte{0x80})
	if err == nil {
		t.Fatal("expected Forbidden error")
	}
	kind, ok := KindOf(err)
	if !ok || kind != Forbidden {
		t.Errorf("got kind %v, ok %v, want Forbidden", kind, ok)
	}
}

func TestParseOBUHeaderExtension(t *testing.T) {
	// type=SEQUENCE_HEADER(1), extension=1, has_size=1, reserved=0,
	// extension byte: temporal_id=3, spatial_id=2, reserved=0.
	header := byte(1<<3 | 1<<2 | 1<<1)
	ext := byte(3<<5 | 2<<3)
	buf := []byte{header, ext, 0x00}
	h, n, err := ParseOBUHeader(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.ExtensionPresent {
		t.Error("ExtensionPresent = false, want true")
	}
	if h.TemporalID != 3 {
		t.Errorf("TemporalID = %d, want 3", h.TemporalID)
	}
	if h.SpatialID != 2 {
		t.Errorf("SpatialID = %d, want 2", h.SpatialID)
	}
	if n != 3 {
		t.Errorf("consumed = %d, want 3", n)
	}
}

func TestOBUTypeString(t *testing.T) {
	if got := OBUSequenceHeader.String(); got != "OBU_SEQUENCE_HEADER" {
		t.Errorf("got %q", got)
	}
	if got := OBUType(9).String(); got != "OBU_RESERVED" {
		t.Errorf("got %q, want OBU_RESERVED for an unnamed type", got)
	}
}
