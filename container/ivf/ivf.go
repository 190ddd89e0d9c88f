/*
NAME
  ivf.go

DESCRIPTION
  ivf.go provides an IVF container reader: the 32-byte file header and
  the per-frame 12-byte header, wrapping a sequence of low-overhead
  bitstream OBUs (spec.md §6).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// See https://wiki.multimedia.cx/index.php/IVF for format specification.

// Package ivf provides a reader for the IVF container format, commonly
// used to wrap AV1 test vectors.
package ivf

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// IVF is little-endian on disk.
var order = binary.LittleEndian

const (
	sizeofFileHeader  = 32
	sizeofFrameHeader = 12

	signature = "DKIF"
)

// FileHeader is the fixed 32-byte IVF file header.
type FileHeader struct {
	Version    uint16
	FourCC     [4]byte
	Width      uint16
	Height     uint16
	FrameRate  uint32
	TimeScale  uint32
	NumFrames  uint32
}

// FrameHeader precedes each frame's payload: its size in bytes and a
// presentation timestamp.
type FrameHeader struct {
	FrameSize uint32
	Timestamp uint64
}

// Reader reads successive frames from an IVF stream. It does not
// interpret the frame payload; callers pass it to an av1.Parser.
type Reader struct {
	r      io.Reader
	Header FileHeader
}

// NewReader reads and validates the file header from r and returns a
// Reader positioned at the first frame.
func NewReader(r io.Reader) (*Reader, error) {
	var raw [sizeofFileHeader]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, errors.Wrap(err, "ivf: could not read file header")
	}
	if string(raw[0:4]) != signature {
		return nil, errors.Errorf("ivf: bad signature %q, want %q", raw[0:4], signature)
	}

	var h FileHeader
	h.Version = order.Uint16(raw[4:6])
	length := order.Uint16(raw[6:8])
	if length != sizeofFileHeader {
		return nil, errors.Errorf("ivf: bad header length %d, want %d", length, sizeofFileHeader)
	}
	copy(h.FourCC[:], raw[8:12])
	h.Width = order.Uint16(raw[12:14])
	h.Height = order.Uint16(raw[14:16])
	h.FrameRate = order.Uint32(raw[16:20])
	h.TimeScale = order.Uint32(raw[20:24])
	h.NumFrames = order.Uint32(raw[24:28])
	// raw[28:32] is reserved.

	return &Reader{r: r, Header: h}, nil
}

// IsAV1 reports whether the file header's fourcc identifies AV1 content
// ("AV01"), as opposed to some other IVF-wrapped codec.
func (h FileHeader) IsAV1() bool {
	return string(h.FourCC[:]) == "AV01"
}

// ReadFrame reads the next frame header and returns its payload: one or
// more concatenated low-overhead-bitstream OBUs. It returns io.EOF when
// no frame remains.
func (r *Reader) ReadFrame() (FrameHeader, []byte, error) {
	var raw [sizeofFrameHeader]byte
	if _, err := io.ReadFull(r.r, raw[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return FrameHeader{}, nil, errors.Wrap(err, "ivf: truncated frame header")
		}
		return FrameHeader{}, nil, err
	}

	fh := FrameHeader{
		FrameSize: order.Uint32(raw[0:4]),
		Timestamp: order.Uint64(raw[4:12]),
	}

	payload := make([]byte, fh.FrameSize)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return FrameHeader{}, nil, errors.Wrap(err, "ivf: truncated frame payload")
	}

	return fh, payload, nil
}
