/*
DESCRIPTION
  parser.go is the public surface of the av1 package: Parser, the OBU
  Framer that dispatches payloads to per-type parsers, and the state
  machine of spec.md §4.5 that rejects out-of-order OBUs.

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

// Parser holds the ParserState for one logical AV1 bitstream. Per
// spec.md §5, a Parser is single-threaded cooperative: all calls on one
// instance must be serialized by the caller, but independent Parser
// instances share no mutable state and may run concurrently.
type Parser struct {
	state ParserState

	// lastFrameHeader remembers the most recently parsed frame header so a
	// following bare OBU_TILE_GROUP (legal per the state machine when the
	// frame header arrived as a separate OBU_FRAME_HEADER) knows the tile
	// grid shape to decode against.
	lastFrameHeader *FrameHeader
}

// NewParser returns a Parser with empty ParserState, corresponding to
// spec.md §6's new_parser.
func NewParser() *Parser {
	return &Parser{}
}

// FreeParser has no effect; Go's garbage collector reclaims a Parser once
// it is no longer referenced. It exists only to mirror spec.md §6's
// free_parser in the public surface for callers porting code from the
// reference API.
func FreeParser(p *Parser) {}

// State returns the Parser's current ParserState for inspection by a
// surrounding decoder (e.g. to read ReferenceFrames before deciding how
// to call MarkReferenceFrame).
func (p *Parser) State() *ParserState { return &p.state }

// MarkReferenceFrame replaces reference slot `slot` with info. It is the
// only way a slot gains content; frame header parsing itself only clears
// slots' Valid flags (on a shown key frame, in mark_ref_frames, and on a
// ref_order_hint mismatch).
func (p *Parser) MarkReferenceFrame(slot int, info ReferenceFrameInfo) error {
	if slot < 0 || slot >= numRefFrames {
		return newErr(BitstreamError, "reference frame slot out of range")
	}
	p.state.ReferenceFrames[slot] = info
	return nil
}

// ParsedOBU is the tagged union of every parseable OBU payload, one arm
// per OBU type, per spec.md §9 Design Notes.
type ParsedOBU struct {
	Header             OBUHeader
	SequenceHeader     *SequenceHeader
	Metadata           *Metadata
	TileList           *TileList
	TileGroup          *TileGroup
	FrameHeader        *FrameHeader
	Frame              *Frame
}

// Frame is the OBU_FRAME combined record: a Frame Header immediately
// followed by a Tile Group payload with no intervening OBU header,
// per spec.md §4.5.
type Frame struct {
	Header    FrameHeader
	TileGroup TileGroup
}

// ParseOBU implements the OBU Framer of spec.md §4.3: it reads the OBU
// header, bounds a sub-reader to the OBU's payload, dispatches to the
// appropriate per-type parser, mutates ParserState accordingly, and
// checks trailing bits where required. It returns the parsed OBU and the
// total number of bytes consumed from buf (header + payload).
func (p *Parser) ParseOBU(buf []byte) (ParsedOBU, int, error) {
	header, headerLen, err := ParseOBUHeader(buf)
	if err != nil {
		return ParsedOBU{}, 0, err
	}

	var payloadLen int
	if header.HasSizeField {
		payloadLen = int(header.SizeBytes)
	} else {
		payloadLen = len(buf) - headerLen
	}
	if headerLen+payloadLen > len(buf) {
		return ParsedOBU{}, 0, newErr(BufferExhausted, "obu payload extends past supplied buffer")
	}
	payload := buf[headerLen : headerLen+payloadLen]

	out := ParsedOBU{Header: header}
	switch header.Type {
	case OBUSequenceHeader:
		sh, err := p.ParseSequenceHeaderOBU(payload)
		if err != nil {
			return ParsedOBU{}, 0, err
		}
		out.SequenceHeader = &sh

	case OBUTemporalDelimiter:
		if err := p.ParseTemporalDelimiterOBU(payload); err != nil {
			return ParsedOBU{}, 0, err
		}

	case OBUMetadata:
		m, err := p.ParseMetadataOBU(payload)
		if err != nil {
			return ParsedOBU{}, 0, err
		}
		out.Metadata = &m

	case OBUTileList:
		if p.state.SequenceHeader == nil {
			return ParsedOBU{}, 0, newErr(MissingSequenceHeader, "tile list parsed without a stored sequence header")
		}
		tl, err := ParseTileListOBU(payload)
		if err != nil {
			return ParsedOBU{}, 0, err
		}
		out.TileList = &tl

	case OBUFrameHeader, OBURedundantFrameHeader:
		fh, err := p.ParseFrameHeaderOBU(payload, header.Type == OBURedundantFrameHeader)
		if err != nil {
			return ParsedOBU{}, 0, err
		}
		out.FrameHeader = &fh

	case OBUTileGroup:
		if !p.state.SeenFrameHeader {
			return ParsedOBU{}, 0, newErr(MissingSequenceHeader, "tile group parsed without a preceding frame header")
		}
		tg, err := ParseTileGroupOBU(payload, p.lastFrameHeader)
		if err != nil {
			return ParsedOBU{}, 0, err
		}
		if tg.TileEnd == tg.NumTiles-1 {
			p.state.SeenFrameHeader = false
		}
		out.TileGroup = &tg

	case OBUFrame:
		f, err := p.ParseFrameOBU(payload)
		if err != nil {
			return ParsedOBU{}, 0, err
		}
		out.Frame = &f

	case OBUPadding:
		// no-op beyond the header itself.

	default:
		// Reserved types are parsed only through the header.
	}

	return out, headerLen + payloadLen, nil
}

// ParseSequenceHeaderOBU parses payload as a Sequence Header OBU and, on
// success, transactionally replaces the stored SequenceHeader (spec.md
// §7: "sequence_header replacement is transactional"). On failure,
// ParserState is left unchanged.
func (p *Parser) ParseSequenceHeaderOBU(payload []byte) (SequenceHeader, error) {
	sh, err := ParseSequenceHeaderOBU(payload)
	if err != nil {
		return SequenceHeader{}, err
	}
	p.state.SequenceHeader = &sh
	return sh, nil
}

// ParseTemporalDelimiterOBU validates that the Temporal Delimiter's
// payload is empty and clears SeenFrameHeader, per the spec.md §4.5 state
// machine.
func (p *Parser) ParseTemporalDelimiterOBU(payload []byte) error {
	if len(payload) != 0 {
		return newErr(BitstreamError, "temporal delimiter payload must be empty")
	}
	p.state.SeenFrameHeader = false
	return nil
}

// ParseMetadataOBU requires a stored SequenceHeader per the state machine
// table ("permitted" under [seq_ready]; spec.md is silent on whether
// metadata is legal under [idle], but since every metadata type's
// meaning is defined relative to a coded video sequence, this
// implementation requires [seq_ready] consistent with Tile List/Tile
// Group).
func (p *Parser) ParseMetadataOBU(payload []byte) (Metadata, error) {
	if p.state.SequenceHeader == nil {
		return Metadata{}, newErr(MissingSequenceHeader, "metadata obu parsed without a stored sequence header")
	}
	return ParseMetadataOBU(payload)
}

// ParseFrameHeaderOBU parses payload as a Frame Header OBU (or Redundant
// Frame Header, when redundant is true), enforcing the state machine's
// DuplicateFrameHeader rule.
func (p *Parser) ParseFrameHeaderOBU(payload []byte, redundant bool) (FrameHeader, error) {
	if p.state.SequenceHeader == nil {
		return FrameHeader{}, newErr(MissingSequenceHeader, "frame header parsed without a stored sequence header")
	}
	saved := p.state.ReferenceFrames
	if redundant {
		if !p.state.SeenFrameHeader {
			return FrameHeader{}, newErr(MissingSequenceHeader, "redundant frame header without a preceding frame header")
		}
		r := NewBitReader(payload)
		fh, err := p.parseUncompressedFrameHeader(r)
		if err != nil {
			p.state.ReferenceFrames = saved
			return FrameHeader{}, err
		}
		return fh, nil
	}
	if p.state.SeenFrameHeader {
		return FrameHeader{}, newErr(DuplicateFrameHeader, "frame header parsed twice without an intervening clearing event")
	}
	r := NewBitReader(payload)
	fh, err := p.parseUncompressedFrameHeader(r)
	if err != nil {
		p.state.ReferenceFrames = saved
		return FrameHeader{}, err
	}
	p.state.SeenFrameHeader = !fh.ShowExistingFrame
	p.lastFrameHeader = &fh
	return fh, nil
}

// ParseFrameOBU parses payload as a combined OBU_FRAME: an uncompressed
// frame header immediately followed (after byte alignment) by a tile
// group payload, with no intervening OBU header, per spec.md §4.5.
func (p *Parser) ParseFrameOBU(payload []byte) (Frame, error) {
	if p.state.SequenceHeader == nil {
		return Frame{}, newErr(MissingSequenceHeader, "frame obu parsed without a stored sequence header")
	}
	if p.state.SeenFrameHeader {
		return Frame{}, newErr(DuplicateFrameHeader, "frame obu parsed while a frame header was already pending")
	}

	saved := p.state.ReferenceFrames
	r := NewBitReader(payload)
	fh, err := p.parseUncompressedFrameHeader(r)
	if err != nil {
		p.state.ReferenceFrames = saved
		return Frame{}, err
	}
	r.AlignToByte()
	p.lastFrameHeader = &fh

	tg, err := ParseTileGroupOBU(r.Remainder(), &fh)
	if err != nil {
		p.state.ReferenceFrames = saved
		return Frame{}, errors.Wrap(err, "could not parse tile group payload of combined frame obu")
	}
	if tg.TileEnd != tg.NumTiles-1 {
		p.state.SeenFrameHeader = true
	}

	return Frame{Header: fh, TileGroup: tg}, nil
}

// ParseAnnexBUnitSize reads a LEB128-encoded size from the start of buf,
// for Annex B length-delimited framing (spec.md §6). It returns the
// decoded size and the number of bytes the LEB128 encoding consumed.
func ParseAnnexBUnitSize(buf []byte) (uint64, int, error) {
	r := NewBitReader(buf)
	return r.ReadLEB128()
}
