/*
DESCRIPTION
  tilegroup_test.go provides testing for functionality provided in
  tilegroup.go.

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

func TestParseTileGroupOBUSingleTile(t *testing.T) {
	fh := &FrameHeader{}
	fh.TileInfo.TileCols = 1
	fh.TileInfo.TileRows = 1

	payload := []byte{0xde, 0xad, 0xbe, 0xef}

	tg, err := ParseTileGroupOBU(payload, fh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tg.NumTiles != 1 {
		t.Errorf("NumTiles = %d, want 1", tg.NumTiles)
	}
	if tg.TileStart != 0 || tg.TileEnd != 0 {
		t.Errorf("TileStart/TileEnd = %d/%d, want 0/0", tg.TileStart, tg.TileEnd)
	}
	if tg.TilesConsumed != len(payload) {
		t.Errorf("TilesConsumed = %d, want %d", tg.TilesConsumed, len(payload))
	}
}

func TestParseTileGroupOBUMultiTileWithStartEnd(t *testing.T) {
	fh := &FrameHeader{}
	fh.TileInfo.TileCols = 2
	fh.TileInfo.TileRows = 2 // NumTiles = 4, tileLog2(1,4) = 2 bits.

	// tile_start_and_end_present_flag=1, tg_start=00, tg_end=11 (covers
	// tiles 0..3, i.e. the whole frame in one group), padded to byte
	// align. Tiles 0..2 each carry an explicit LEB128 tile_size_minus_1=0
	// (one byte of tile data); the last tile (tile 3) has no size field
	// and consumes the remainder.
	bits := "1" + "00" + "11" + "000" // align to byte (8 bits total).
	header, err := bitsToBytes(bits)
	if err != nil {
		t.Fatal(err)
	}

	payload := append(header,
		0x00, 0xaa, // tile 0: size_minus_1=0 -> 1 byte of data.
		0x00, 0xbb, // tile 1
		0x00, 0xcc, // tile 2
		0xdd, 0xee, // tile 3 (last): remainder, 2 bytes.
	)

	tg, err := ParseTileGroupOBU(payload, fh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tg.TileStart != 0 || tg.TileEnd != 3 {
		t.Errorf("TileStart/TileEnd = %d/%d, want 0/3", tg.TileStart, tg.TileEnd)
	}
	wantConsumed := 1 + 1 + 1 + 2 // three 1-byte tiles plus the 2-byte last tile.
	if tg.TilesConsumed != wantConsumed {
		t.Errorf("TilesConsumed = %d, want %d", tg.TilesConsumed, wantConsumed)
	}
}
