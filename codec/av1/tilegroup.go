/*
DESCRIPTION
  tilegroup.go parses OBU_TILE_GROUP payloads, per spec.md §4.6. No
  original_source/ implementation exists for this OBU type; it is written
  directly from spec.md and the AV1 specification's tile_group_obu()
  syntax.

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

// TileGroup is the decoded tile_group_obu() framing; coded tile payload
// bytes are skipped, not decoded, per spec.md §1 Out-of-scope.
type TileGroup struct {
	NumTiles       int
	TileStart      int
	TileEnd        int
	TilesConsumed  int // bytes of tile payload skipped
}

// ParseTileGroupOBU implements spec.md §4.6 Tile Group. payload is the
// Framer's bounded slice; the last tile's size is whatever remains of it.
func ParseTileGroupOBU(payload []byte, fh *FrameHeader) (TileGroup, error) {
	r := NewBitReader(payload)
	var tg TileGroup

	tg.NumTiles = fh.TileInfo.TileCols * fh.TileInfo.TileRows
	tg.TileStart = 0
	tg.TileEnd = tg.NumTiles - 1

	if tg.NumTiles > 1 {
		present, err := r.ReadFlag()
		if err != nil {
			return tg, errors.Wrap(err, "could not read tile_start_and_end_present_flag")
		}
		if present {
			bits := tileLog2(1, tg.NumTiles)
			start, err := r.ReadBits(bits)
			if err != nil {
				return tg, errors.Wrap(err, "could not read tg_start")
			}
			end, err := r.ReadBits(bits)
			if err != nil {
				return tg, errors.Wrap(err, "could not read tg_end")
			}
			tg.TileStart = int(start)
			tg.TileEnd = int(end)
		}
	}
	r.AlignToByte()

	numTilesInGroup := tg.TileEnd - tg.TileStart + 1
	for i := 0; i < numTilesInGroup; i++ {
		last := i == numTilesInGroup-1
		var tileSize int
		if last {
			tileSize = r.BitsRemaining() / 8
		} else {
			sz, _, err := r.ReadLEB128()
			if err != nil {
				return tg, errors.Wrap(err, "could not read tile_size_minus_1")
			}
			tileSize = int(sz) + 1
		}
		if err := r.Skip(tileSize * 8); err != nil {
			return tg, errors.Wrap(err, "could not skip tile data")
		}
		tg.TilesConsumed += tileSize
	}

	return tg, nil
}
