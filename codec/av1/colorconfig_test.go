/*
DESCRIPTION
  colorconfig_test.go provides testing for functionality provided in
  colorconfig.go.

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

func TestParseColorConfigMonoChrome(t *testing.T) {
	// high_bitdepth=0, mono_chrome=1, color_description_present=0,
	// color_range=1, separate_uv_delta_q (read after return... actually
	// mono_chrome path returns before separate_uv_delta_q).
	bits := "0" + "1" + "0" + "1"
	payload, err := bitsToBytes(bits)
	if err != nil {
		t.Fatal(err)
	}
	r := NewBitReader(payload)
	cc, err := parseColorConfig(r, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cc.BitDepth != 8 {
		t.Errorf("BitDepth = %d, want 8", cc.BitDepth)
	}
	if !cc.MonoChrome {
		t.Fatal("MonoChrome = false, want true")
	}
	if cc.NumPlanes != 1 {
		t.Errorf("NumPlanes = %d, want 1", cc.NumPlanes)
	}
	if !cc.SubsamplingX || !cc.SubsamplingY {
		t.Error("expected SubsamplingX/Y = true for mono_chrome")
	}
	if cc.SeparateUVDeltaQ {
		t.Error("SeparateUVDeltaQ should default false for mono_chrome")
	}
}

func TestParseColorConfigIdentityMatrixRequires444(t *testing.T) {
	// high_bitdepth=0, mono_chrome=0, color_description_present=1,
	// color_primaries=BT_709(1), transfer_characteristics=13(SRGB),
	// matrix_coefficients=IDENTITY(0). This combination forces
	// color_range=1, subsampling=0,0 unconditionally (no bits read for
	// color_range/subsampling), then separate_uv_delta_q=0.
	bits := "0" + "0" + "1" +
		"00000001" + // color_primaries = 1 (BT_709)
		"00001101" + // transfer_characteristics = 13 (SRGB)
		"00000000" + // matrix_coefficients = 0 (IDENTITY)
		"0" // separate_uv_delta_q
	payload, err := bitsToBytes(bits)
	if err != nil {
		t.Fatal(err)
	}
	r := NewBitReader(payload)
	cc, err := parseColorConfig(r, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cc.ColorRange {
		t.Error("ColorRange = false, want true for the BT709/SRGB/IDENTITY shortcut")
	}
	if cc.SubsamplingX || cc.SubsamplingY {
		t.Error("expected 4:4:4 subsampling for the BT709/SRGB/IDENTITY shortcut")
	}
}

func TestParseColorConfigProfile0Subsampling(t *testing.T) {
	// high_bitdepth=0, mono_chrome=0, color_description_present=0,
	// color_range=0, (profile 0 forces subsampling 1,1 with no bits
	// read), chroma_sample_position(2 bits)=1, separate_uv_delta_q=0.
	bits := "0" + "0" + "0" + "0" + "01" + "0"
	payload, err := bitsToBytes(bits)
	if err != nil {
		t.Fatal(err)
	}
	r := NewBitReader(payload)
	cc, err := parseColorConfig(r, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cc.SubsamplingX || !cc.SubsamplingY {
		t.Error("expected profile 0 to force 4:2:0 subsampling")
	}
	if cc.ChromaSamplePosition != 1 {
		t.Errorf("ChromaSamplePosition = %d, want 1", cc.ChromaSamplePosition)
	}
}
