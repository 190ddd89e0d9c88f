/*
DESCRIPTION
  tilelist.go parses OBU_TILE_LIST payloads, per spec.md §4.6 and
  original_source/gstav1parser.c's gst_av1_parse_tile_list_obu, which
  matches spec.md field-for-field.

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

const maxTileListEntries = 511

// TileListEntry is one entry of a Tile List OBU.
type TileListEntry struct {
	AnchorFrameIdx uint8
	AnchorTileRow  uint8
	AnchorTileCol  uint8
	TileDataSize   uint32 // tile_data_size_minus_1 + 1
}

// TileList is the decoded tile_list_obu().
type TileList struct {
	OutputFrameWidthInTiles  int
	OutputFrameHeightInTiles int
	Tiles                    []TileListEntry
}

// ParseTileListOBU implements spec.md §4.6 Tile List.
func ParseTileListOBU(payload []byte) (TileList, error) {
	r := NewBitReader(payload)
	var tl TileList

	w, err := r.ReadBits(8)
	if err != nil {
		return tl, errors.Wrap(err, "could not read output_frame_width_in_tiles_minus_1")
	}
	tl.OutputFrameWidthInTiles = int(w) + 1

	h, err := r.ReadBits(8)
	if err != nil {
		return tl, errors.Wrap(err, "could not read output_frame_height_in_tiles_minus_1")
	}
	tl.OutputFrameHeightInTiles = int(h) + 1

	cnt, err := r.ReadBits(16)
	if err != nil {
		return tl, errors.Wrap(err, "could not read tile_count_minus_1")
	}
	if int(cnt) > maxTileListEntries {
		return tl, newErr(BitstreamError, "tile_count_minus_1 exceeds 511")
	}

	tl.Tiles = make([]TileListEntry, cnt+1)
	for i := range tl.Tiles {
		e := &tl.Tiles[i]

		afi, err := r.ReadBits(8)
		if err != nil {
			return tl, errors.Wrap(err, "could not read anchor_frame_idx")
		}
		e.AnchorFrameIdx = uint8(afi)

		atr, err := r.ReadBits(8)
		if err != nil {
			return tl, errors.Wrap(err, "could not read anchor_tile_row")
		}
		e.AnchorTileRow = uint8(atr)

		atc, err := r.ReadBits(8)
		if err != nil {
			return tl, errors.Wrap(err, "could not read anchor_tile_col")
		}
		e.AnchorTileCol = uint8(atc)

		sz, err := r.ReadBits(16)
		if err != nil {
			return tl, errors.Wrap(err, "could not read tile_data_size_minus_1")
		}
		e.TileDataSize = sz + 1

		if err := r.Skip(int(e.TileDataSize) * 8); err != nil {
			return tl, errors.Wrap(err, "could not skip tile_data")
		}
	}

	return tl, nil
}
