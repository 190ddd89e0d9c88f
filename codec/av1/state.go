/*
DESCRIPTION
  state.go defines ReferenceFrameInfo and ParserState, the persistent
  state carried across OBU parse calls on a single Parser instance.

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

// ReferenceFrameInfo describes one of the 8 reference frame slots. Frame
// header parsing reads a slot's Valid, FrameID, FrameType, OrderHint,
// sizes and GlobalMotionParams, and writes only Valid, clearing it when
// the slot is invalidated; the surrounding decoder fills slots via
// Parser.MarkReferenceFrame after it has actually decoded a frame.
type ReferenceFrameInfo struct {
	Valid          bool
	FrameID        uint32
	FrameType      FrameType
	UpscaledWidth  int
	FrameWidth     int
	FrameHeight    int
	RenderWidth    int
	RenderHeight   int
	MiCols         int
	MiRows         int
	BitDepth       int
	SubsamplingX   bool
	SubsamplingY   bool
	OrderHint      uint32

	// GlobalMotionParams is the complete global motion parameter set this
	// reference's frame header decoded (spec's SavedGmParams), supplied by
	// the surrounding decoder via MarkReferenceFrame once it has finished
	// decoding that frame. A later frame whose primary_ref_frame points at
	// this slot seeds its PrevGmParams from here.
	GlobalMotionParams GlobalMotionParams
}

// ParserState is the state threaded through every OBU parse call on a
// Parser: the current Sequence Header, the reference frame table, and the
// flags the §4.5 state machine needs to reject out-of-order OBUs.
type ParserState struct {
	SequenceHeader    *SequenceHeader
	ReferenceFrames   [numRefFrames]ReferenceFrameInfo
	SeenFrameHeader   bool
	PreviousFrameID   uint32
}
