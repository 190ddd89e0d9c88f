/*
DESCRIPTION
  sequenceheader_test.go provides testing for functionality provided in
  sequenceheader.go, including spec.md §8 scenario 2's literal AOM
  sample bytes.

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

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestParseSequenceHeaderOBUAOMSample is spec.md §8 scenario 2: a 16x16
// profile 0 sequence header OBU, with the full OBU header + LEB128 size
// prefix.
func TestParseSequenceHeaderOBUAOMSample(t *testing.T) {
	buf := []byte{0x0a, 0x0a, 0x00, 0x00, 0x00, 0x01, 0x9f, 0xfb, 0xff, 0xf3, 0x00, 0x80}

	p := NewParser()
	obu, consumed, err := p.ParseOBU(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if consumed != len(buf) {
		t.Errorf("consumed = %d, want %d", consumed, len(buf))
	}
	if obu.Header.Type != OBUSequenceHeader {
		t.Fatalf("Type = %v, want OBUSequenceHeader", obu.Header.Type)
	}
	sh := obu.SequenceHeader
	if sh == nil {
		t.Fatal("SequenceHeader is nil")
	}

	if sh.SeqProfile != 0 {
		t.Errorf("SeqProfile = %d, want 0", sh.SeqProfile)
	}
	if sh.StillPicture {
		t.Error("StillPicture = true, want false")
	}
	if sh.ReducedStillPictureHeader {
		t.Error("ReducedStillPictureHeader = true, want false")
	}
	if len(sh.OperatingPoints) != 1 {
		t.Fatalf("len(OperatingPoints) = %d, want 1", len(sh.OperatingPoints))
	}
	wantOP := OperatingPoint{IDC: 0, SeqLevelIdx: 0}
	if !cmp.Equal(sh.OperatingPoints[0], wantOP) {
		t.Errorf("OperatingPoints[0] mismatch (-got +want):\n%s", cmp.Diff(sh.OperatingPoints[0], wantOP))
	}
	if sh.FrameWidthBits != 4 {
		t.Errorf("FrameWidthBits = %d, want 4 (frame_width_bits_minus_1=3)", sh.FrameWidthBits)
	}
	if sh.FrameHeightBits != 4 {
		t.Errorf("FrameHeightBits = %d, want 4 (frame_height_bits_minus_1=3)", sh.FrameHeightBits)
	}
	if sh.MaxFrameWidthMinus1 != 15 {
		t.Errorf("MaxFrameWidthMinus1 = %d, want 15", sh.MaxFrameWidthMinus1)
	}
	if sh.MaxFrameHeightMinus1 != 15 {
		t.Errorf("MaxFrameHeightMinus1 = %d, want 15", sh.MaxFrameHeightMinus1)
	}
	if sh.FrameIDNumbersPresent {
		t.Error("FrameIDNumbersPresent = true, want false")
	}
	if !sh.Use128x128Superblock {
		t.Error("Use128x128Superblock = false, want true")
	}
	if !sh.EnableFilterIntra {
		t.Error("EnableFilterIntra = false, want true")
	}
	if !sh.EnableIntraEdgeFilter {
		t.Error("EnableIntraEdgeFilter = false, want true")
	}

	// The parser's state must now hold this sequence header.
	if p.State().SequenceHeader == nil {
		t.Fatal("ParserState.SequenceHeader not set after parsing")
	}
}

// TestSequenceHeaderReducedStillPicture checks spec.md §8's quantified
// invariant: reduced_still_picture_header forces the nine inter-feature
// flags to 0, a single operating point, and no timing info.
func TestSequenceHeaderReducedStillPicture(t *testing.T) {
	// seq_profile=0(000), still_picture=1, reduced_still_picture_header=1,
	// seq_level_idx[0]=0(00000), frame_width_bits_minus_1=0(0000),
	// frame_height_bits_minus_1=0(0000), max_frame_width_minus_1=0(0),
	// max_frame_height_minus_1=0(0), use_128x128_superblock=0,
	// enable_filter_intra=0, enable_intra_edge_filter=0,
	// enable_superres=0, enable_cdef=0, enable_restoration=0,
	// high_bitdepth=0, mono_chrome=0, color_description_present=0,
	// color_range=0, chroma_sample_position=0(00), separate_uv_delta_q=0,
	// film_grain_params_present=0, trailing_one_bit=1.
	r := NewBitReader(nil)
	_ = r

	bits := "000" + "1" + "1" + // seq_profile, still_picture, reduced
		"00000" + // seq_level_idx[0]
		"0000" + "0000" + // frame_width/height_bits_minus_1
		"0" + "0" + // max_frame_width/height_minus_1 (1 bit each since bits_minus_1=0 => width=1)
		"0" + "0" + "0" + // use_128x128_superblock, enable_filter_intra, enable_intra_edge_filter
		"0" + "0" + "0" + // enable_superres, enable_cdef, enable_restoration
		"0" + // high_bitdepth
		"0" + // mono_chrome
		"0" + // color_description_present
		"0" + // color_range
		"00" + // chroma_sample_position (profile 0 forces 4:2:0)
		"0" + // separate_uv_delta_q
		"0" + // film_grain_params_present
		"1" // trailing_one_bit

	payload, err := bitsToBytes(bits)
	if err != nil {
		t.Fatal(err)
	}

	sh, err := ParseSequenceHeaderOBU(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sh.ReducedStillPictureHeader {
		t.Fatal("ReducedStillPictureHeader = false, want true")
	}
	if len(sh.OperatingPoints) != 1 {
		t.Errorf("len(OperatingPoints) = %d, want 1", len(sh.OperatingPoints))
	}
	if sh.TimingInfo != nil {
		t.Error("TimingInfo != nil, want nil")
	}
	if sh.EnableInterintraCompound || sh.EnableMaskedCompound || sh.EnableWarpedMotion ||
		sh.EnableDualFilter || sh.EnableOrderHint || sh.EnableJntComp || sh.EnableRefFrameMVs {
		t.Error("expected all nine inter-coding feature flags to be 0")
	}
	if sh.ForceScreenContentTools != selectScreenContentTools {
		t.Errorf("ForceScreenContentTools = %d, want %d (SELECT)", sh.ForceScreenContentTools, selectScreenContentTools)
	}
	if sh.ForceIntegerMV != selectIntegerMv {
		t.Errorf("ForceIntegerMV = %d, want %d (SELECT)", sh.ForceIntegerMV, selectIntegerMv)
	}
}

// bitsToBytes packs a string of '0'/'1' characters MSB-first into bytes,
// padding the final byte with zero bits.
func bitsToBytes(bits string) ([]byte, error) {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, c := range bits {
		if c != '0' && c != '1' {
			return nil, errBadBitString
		}
		if c == '1' {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out, nil
}
