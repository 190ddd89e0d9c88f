/*
DESCRIPTION
  metadata_test.go provides testing for functionality provided in
  metadata.go.

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

func TestParseMetadataOBUHdrCll(t *testing.T) {
	var payload []byte
	payload = append(payload, 0x02) // metadata_type = HDR_CLL (LEB128, single byte).
	payload = append(payload, 0x03, 0xe8)   // max_cll = 1000
	payload = append(payload, 0x01, 0xf4)   // max_fall = 500
	payload = append(payload, 0x80)         // trailing_one_bit + pad.

	m, err := ParseMetadataOBU(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Type != MetadataTypeHdrCll {
		t.Fatalf("Type = %v, want MetadataTypeHdrCll", m.Type)
	}
	if m.HdrCll == nil {
		t.Fatal("HdrCll is nil")
	}
	if m.HdrCll.MaxCLL != 1000 {
		t.Errorf("MaxCLL = %d, want 1000", m.HdrCll.MaxCLL)
	}
	if m.HdrCll.MaxFALL != 500 {
		t.Errorf("MaxFALL = %d, want 500", m.HdrCll.MaxFALL)
	}
}

func TestParseMetadataOBUUnknownType(t *testing.T) {
	var payload []byte
	payload = append(payload, 0x7f)       // metadata_type = 127 (unknown/reserved).
	payload = append(payload, 0x01, 0x02, 0x03)
	payload = append(payload, 0x80) // trailing bits.

	m, err := ParseMetadataOBU(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Type != MetadataType(127) {
		t.Errorf("Type = %v, want 127", m.Type)
	}
	want := []byte{0x01, 0x02, 0x03}
	if len(m.Unknown) != len(want) {
		t.Fatalf("Unknown = %v, want %v", m.Unknown, want)
	}
	for i := range want {
		if m.Unknown[i] != want[i] {
			t.Errorf("Unknown[%d] = %#x, want %#x", i, m.Unknown[i], want[i])
		}
	}
}

func TestParseMetadataOBUBadTrailingBits(t *testing.T) {
	var payload []byte
	payload = append(payload, 0x02)       // HDR_CLL
	payload = append(payload, 0x00, 0x00) // max_cll
	payload = append(payload, 0x00, 0x00) // max_fall
	payload = append(payload, 0x00)       // missing trailing_one_bit.

	_, err := ParseMetadataOBU(payload)
	if err == nil {
		t.Fatal("expected BadTrailingBits error")
	}
	kind, ok := KindOf(err)
	if !ok || kind != BadTrailingBits {
		t.Errorf("got kind %v, ok %v, want BadTrailingBits", kind, ok)
	}
}
