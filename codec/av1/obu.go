/*
DESCRIPTION
  obu.go decodes the OBU header and extension header, and frames an OBU's
  payload into a bounded BitReader for dispatch to a per-type parser.

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

// OBUType identifies the kind of Open Bitstream Unit, per the AV1
// specification's obu_type enumeration.
type OBUType uint8

const (
	OBUReserved0            OBUType = 0
	OBUSequenceHeader       OBUType = 1
	OBUTemporalDelimiter    OBUType = 2
	OBUFrameHeader          OBUType = 3
	OBUTileGroup            OBUType = 4
	OBUMetadata             OBUType = 5
	OBUFrame                OBUType = 6
	OBURedundantFrameHeader OBUType = 7
	OBUTileList             OBUType = 8
	OBUPadding              OBUType = 15
)

func (t OBUType) String() string {
	switch t {
	case OBUSequenceHeader:
		return "OBU_SEQUENCE_HEADER"
	case OBUTemporalDelimiter:
		return "OBU_TEMPORAL_DELIMITER"
	case OBUFrameHeader:
		return "OBU_FRAME_HEADER"
	case OBUTileGroup:
		return "OBU_TILE_GROUP"
	case OBUMetadata:
		return "OBU_METADATA"
	case OBUFrame:
		return "OBU_FRAME"
	case OBURedundantFrameHeader:
		return "OBU_REDUNDANT_FRAME_HEADER"
	case OBUTileList:
		return "OBU_TILE_LIST"
	case OBUPadding:
		return "OBU_PADDING"
	default:
		return "OBU_RESERVED"
	}
}

// OBUHeader is the decoded first one or two bytes of an OBU.
//
// size_bytes refers to payload bytes after the header (and extension
// header, if present) but before trailing byte alignment; it is zero, and
// HasSizeField false, when the caller supplies framing externally (Annex B).
type OBUHeader struct {
	Type             OBUType
	ExtensionPresent bool
	HasSizeField     bool
	TemporalID       uint8 // 0..7
	SpatialID        uint8 // 0..3
	SizeBytes        uint32
}

// ParseOBUHeader reads the OBU header byte, optional extension header
// byte, and optional LEB128 size field from the start of buf. It returns
// the decoded header and the number of bytes consumed by the header
// itself (not the payload).
//
// This corresponds to the public surface's parse_obu_header.
func ParseOBUHeader(buf []byte) (OBUHeader, int, error) {
	r := NewBitReader(buf)

	forbidden, err := r.ReadBit()
	if err != nil {
		return OBUHeader{}, 0, errors.Wrap(err, "could not read obu_forbidden_bit")
	}
	if forbidden != 0 {
		return OBUHeader{}, 0, newErr(Forbidden, "obu_forbidden_bit set")
	}

	typ, err := r.ReadBits(4)
	if err != nil {
		return OBUHeader{}, 0, errors.Wrap(err, "could not read obu_type")
	}

	ext, err := r.ReadFlag()
	if err != nil {
		return OBUHeader{}, 0, errors.Wrap(err, "could not read obu_extension_flag")
	}

	hasSize, err := r.ReadFlag()
	if err != nil {
		return OBUHeader{}, 0, errors.Wrap(err, "could not read obu_has_size_field")
	}

	// obu_reserved_1bit: ignored on read.
	if _, err := r.ReadBit(); err != nil {
		return OBUHeader{}, 0, errors.Wrap(err, "could not read obu_reserved_1bit")
	}

	h := OBUHeader{Type: OBUType(typ), ExtensionPresent: ext, HasSizeField: hasSize}

	if ext {
		tid, err := r.ReadBits(3)
		if err != nil {
			return OBUHeader{}, 0, errors.Wrap(err, "could not read temporal_id")
		}
		sid, err := r.ReadBits(2)
		if err != nil {
			return OBUHeader{}, 0, errors.Wrap(err, "could not read spatial_id")
		}
		if _, err := r.ReadBits(3); err != nil { // extension_header_reserved_3bits
			return OBUHeader{}, 0, errors.Wrap(err, "could not read extension_header_reserved_3bits")
		}
		h.TemporalID = uint8(tid)
		h.SpatialID = uint8(sid)
	}

	if hasSize {
		size, _, err := r.ReadLEB128()
		if err != nil {
			return OBUHeader{}, 0, errors.Wrap(err, "could not read obu_size")
		}
		h.SizeBytes = uint32(size)
	}

	return h, r.BytePosition(), nil
}

// requiresTrailingBits reports whether the OBU type ends with the standard
// trailing-bits tail per spec.md §4.3/§4.6.
func requiresTrailingBits(t OBUType) bool {
	switch t {
	case OBUSequenceHeader, OBUMetadata:
		return true
	default:
		return false
	}
}
