/*
DESCRIPTION
  metadata.go parses OBU_METADATA payloads: a LEB128 metadata_type followed
  by a type-specific block. Unknown types are skipped without
  interpretation, per spec.md §4.6.

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

// MetadataType identifies which metadata_type a Metadata OBU carries.
type MetadataType uint64

const (
	MetadataTypeItuT35       MetadataType = 1
	MetadataTypeHdrCll       MetadataType = 2
	MetadataTypeHdrMdcv      MetadataType = 3
	MetadataTypeScalability  MetadataType = 4
	MetadataTypeTimecode     MetadataType = 5
)

// ItuT35 is metadata_itut_t35().
type ItuT35 struct {
	CountryCode       uint8
	CountryCodeExtension uint8
	Payload           []byte
}

// HdrCll is metadata_hdr_cll().
type HdrCll struct {
	MaxCLL, MaxFALL uint16
}

// HdrMdcv is metadata_hdr_mdcv().
type HdrMdcv struct {
	PrimaryChromaticityX, PrimaryChromaticityY [3]uint16
	WhitePointX, WhitePointY                   uint16
	MaxDisplayMasteringLuminance                uint32
	MinDisplayMasteringLuminance                uint32
}

// Scalability is metadata_scalability() — the parser records only the
// structure type; the full scalability structure syntax is
// decoder-internal per spec.md's Out-of-scope clause on actual decoding.
type Scalability struct {
	ScalabilityStructureType uint8
	Raw                      []byte
}

// Timecode is metadata_timecode().
type Timecode struct {
	CountingType      uint8
	FullTimestampFlag bool
	Hours, Minutes, Seconds, FrameCount uint8
}

// Metadata is the tagged union of all OBU_METADATA payload shapes.
type Metadata struct {
	Type        MetadataType
	ItuT35      *ItuT35
	HdrCll      *HdrCll
	HdrMdcv     *HdrMdcv
	Scalability *Scalability
	Timecode    *Timecode
	// Unknown carries the raw payload for unrecognised metadata_type
	// values.
	Unknown []byte
}

// ParseMetadataOBU implements spec.md §4.6 Metadata and checks the
// trailing-bits tail required of this OBU type.
func ParseMetadataOBU(payload []byte) (Metadata, error) {
	r := NewBitReader(payload)
	var m Metadata

	typ, _, err := r.ReadLEB128()
	if err != nil {
		return m, errors.Wrap(err, "could not read metadata_type")
	}
	m.Type = MetadataType(typ)

	switch m.Type {
	case MetadataTypeItuT35:
		cc, err := r.ReadBits(8)
		if err != nil {
			return m, errors.Wrap(err, "could not read itu_t_t35_country_code")
		}
		it := &ItuT35{CountryCode: uint8(cc)}
		if cc == 0xff {
			ext, err := r.ReadBits(8)
			if err != nil {
				return m, errors.Wrap(err, "could not read itu_t_t35_country_code_extension_byte")
			}
			it.CountryCodeExtension = uint8(ext)
		}
		r.AlignToByte()
		it.Payload = skipToTrailingBits(r)
		m.ItuT35 = it

	case MetadataTypeHdrCll:
		maxCLL, err := r.ReadBits(16)
		if err != nil {
			return m, errors.Wrap(err, "could not read max_cll")
		}
		maxFALL, err := r.ReadBits(16)
		if err != nil {
			return m, errors.Wrap(err, "could not read max_fall")
		}
		m.HdrCll = &HdrCll{MaxCLL: uint16(maxCLL), MaxFALL: uint16(maxFALL)}

	case MetadataTypeHdrMdcv:
		var h HdrMdcv
		for i := 0; i < 3; i++ {
			x, err := r.ReadBits(16)
			if err != nil {
				return m, errors.Wrap(err, "could not read primary_chromaticity_x")
			}
			y, err := r.ReadBits(16)
			if err != nil {
				return m, errors.Wrap(err, "could not read primary_chromaticity_y")
			}
			h.PrimaryChromaticityX[i] = uint16(x)
			h.PrimaryChromaticityY[i] = uint16(y)
		}
		wx, err := r.ReadBits(16)
		if err != nil {
			return m, errors.Wrap(err, "could not read white_point_x")
		}
		wy, err := r.ReadBits(16)
		if err != nil {
			return m, errors.Wrap(err, "could not read white_point_y")
		}
		h.WhitePointX, h.WhitePointY = uint16(wx), uint16(wy)
		maxL, err := r.ReadBits(32)
		if err != nil {
			return m, errors.Wrap(err, "could not read max_display_mastering_luminance")
		}
		minL, err := r.ReadBits(32)
		if err != nil {
			return m, errors.Wrap(err, "could not read min_display_mastering_luminance")
		}
		h.MaxDisplayMasteringLuminance = maxL
		h.MinDisplayMasteringLuminance = minL
		m.HdrMdcv = &h

	case MetadataTypeScalability:
		st, err := r.ReadBits(8)
		if err != nil {
			return m, errors.Wrap(err, "could not read scalability_structure_type")
		}
		r.AlignToByte()
		m.Scalability = &Scalability{ScalabilityStructureType: uint8(st), Raw: skipToTrailingBits(r)}

	case MetadataTypeTimecode:
		var tc Timecode
		ct, err := r.ReadBits(5)
		if err != nil {
			return m, errors.Wrap(err, "could not read counting_type")
		}
		tc.CountingType = uint8(ct)
		ftf, err := r.ReadFlag()
		if err != nil {
			return m, errors.Wrap(err, "could not read full_timestamp_flag")
		}
		tc.FullTimestampFlag = ftf
		if ftf {
			h, err := r.ReadBits(5)
			if err != nil {
				return m, errors.Wrap(err, "could not read hours")
			}
			mi, err := r.ReadBits(6)
			if err != nil {
				return m, errors.Wrap(err, "could not read minutes")
			}
			s, err := r.ReadBits(6)
			if err != nil {
				return m, errors.Wrap(err, "could not read seconds")
			}
			tc.Hours, tc.Minutes, tc.Seconds = uint8(h), uint8(mi), uint8(s)
		} else {
			present, err := r.ReadFlag()
			if err != nil {
				return m, errors.Wrap(err, "could not read seconds_flag")
			}
			if present {
				s, err := r.ReadBits(6)
				if err != nil {
					return m, errors.Wrap(err, "could not read seconds")
				}
				tc.Seconds = uint8(s)
				mpresent, err := r.ReadFlag()
				if err != nil {
					return m, errors.Wrap(err, "could not read minutes_flag")
				}
				if mpresent {
					mi, err := r.ReadBits(6)
					if err != nil {
						return m, errors.Wrap(err, "could not read minutes")
					}
					tc.Minutes = uint8(mi)
					hpresent, err := r.ReadFlag()
					if err != nil {
						return m, errors.Wrap(err, "could not read hours_flag")
					}
					if hpresent {
						h, err := r.ReadBits(5)
						if err != nil {
							return m, errors.Wrap(err, "could not read hours")
						}
						tc.Hours = uint8(h)
					}
				}
			}
		}
		fc, err := r.ReadBits(9)
		if err != nil {
			return m, errors.Wrap(err, "could not read frame_count")
		}
		tc.FrameCount = uint8(fc)
		m.Timecode = &tc

	default:
		r.AlignToByte()
		m.Unknown = skipToTrailingBits(r)
	}

	if err := r.CheckTrailingBits(); err != nil {
		return m, err
	}
	return m, nil
}

// skipToTrailingBits returns the byte-aligned remainder of r up to (but
// not including) the final trailing-bits byte, leaving r positioned so a
// subsequent CheckTrailingBits call validates the tail.
func skipToTrailingBits(r *BitReader) []byte {
	rest := r.Remainder()
	if len(rest) == 0 {
		return nil
	}
	body := rest[:len(rest)-1]
	if err := r.Skip(len(body) * 8); err != nil {
		return nil
	}
	return body
}
