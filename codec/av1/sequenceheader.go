/*
DESCRIPTION
  sequenceheader.go parses the AV1 Sequence Header OBU, producing the
  SequenceHeader value that every later Frame Header depends on.

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

// selectScreenContentTools/selectIntegerMv are the AV1 spec's SELECT_*
// sentinel values: "decide per frame" rather than a fixed force.
const (
	selectScreenContentTools = 2
	selectIntegerMv          = 2
)

// TimingInfo is timing_info(), present when timing_info_present_flag is
// set.
type TimingInfo struct {
	NumUnitsInDisplayTick   uint32
	TimeScale               uint32
	EqualPictureInterval    bool
	NumTicksPerPictureMinus1 uint64
}

// DecoderModelInfo is decoder_model_info(), present when
// decoder_model_info_present_flag is set. spec.md defines this as a
// 4-field structure; the original_source/ C parser reads two extra
// fields (bitrate_scale, buffer_size_scale) that belong to an unrelated,
// older codec model and are not part of this structure — see DESIGN.md.
type DecoderModelInfo struct {
	BufferDelayLengthMinus1       uint8
	NumUnitsInDecodingTick        uint32
	BufferRemovalTimeLengthMinus1 uint8
	FramePresentationTimeLengthMinus1 uint8
}

// OperatingParameters is operating_parameters_info(), read per operating
// point when decoder_model_present_for_this_op is set.
type OperatingParameters struct {
	BitrateMinus1      uint64
	BufferSizeMinus1   uint64
	CBRFlag            bool
	DecoderBufferDelay uint32
	EncoderBufferDelay uint32
	LowDelayModeFlag   bool
}

// OperatingPoint is one entry of the sequence header's operating point
// table.
type OperatingPoint struct {
	IDC                                 uint16 // 12 bits
	SeqLevelIdx                         uint8  // 0..31
	SeqTier                             uint8  // 0..1
	DecoderModelPresentForThisOp        bool
	OperatingParameters                 OperatingParameters
	InitialDisplayDelayPresentForThisOp bool
	InitialDisplayDelayMinus1           uint8
}

// SequenceHeader is the decoded sequence_header_obu().
type SequenceHeader struct {
	SeqProfile                 uint8 // 0..7
	StillPicture               bool
	ReducedStillPictureHeader  bool
	OperatingPoints            []OperatingPoint
	FrameWidthBits              int // 1..16
	FrameHeightBits             int // 1..16
	MaxFrameWidthMinus1          uint32
	MaxFrameHeightMinus1         uint32
	FrameIDNumbersPresent       bool
	DeltaFrameIDLen              int // 2..17
	AdditionalFrameIDLen         int // 1..8
	Use128x128Superblock        bool
	EnableFilterIntra           bool
	EnableIntraEdgeFilter       bool
	EnableInterintraCompound    bool
	EnableMaskedCompound        bool
	EnableWarpedMotion          bool
	EnableDualFilter            bool
	EnableOrderHint             bool
	EnableJntComp               bool
	EnableRefFrameMVs           bool
	ForceScreenContentTools     uint8 // 0,1 or SELECT (2)
	ForceIntegerMV              uint8 // 0,1 or SELECT (2)
	OrderHintBits               int   // 0..8
	EnableSuperres              bool
	EnableCdef                  bool
	EnableRestoration           bool
	TimingInfoPresent           bool
	TimingInfo                  *TimingInfo
	DecoderModelInfoPresent     bool
	DecoderModelInfo            *DecoderModelInfo
	InitialDisplayDelayPresent  bool
	FilmGrainParamsPresent      bool
	ColorConfig                 ColorConfig
}

func parseTimingInfo(r *BitReader) (TimingInfo, error) {
	var ti TimingInfo
	v, err := r.ReadBits(32)
	if err != nil {
		return ti, errors.Wrap(err, "could not read num_units_in_display_tick")
	}
	ti.NumUnitsInDisplayTick = v
	if v == 0 {
		return ti, newErr(BitstreamError, "num_units_in_display_tick must be > 0")
	}
	v, err = r.ReadBits(32)
	if err != nil {
		return ti, errors.Wrap(err, "could not read time_scale")
	}
	ti.TimeScale = v
	if v == 0 {
		return ti, newErr(BitstreamError, "time_scale must be > 0")
	}
	eq, err := r.ReadFlag()
	if err != nil {
		return ti, errors.Wrap(err, "could not read equal_picture_interval")
	}
	ti.EqualPictureInterval = eq
	if eq {
		n, err := r.ReadUVLC()
		if err != nil {
			return ti, errors.Wrap(err, "could not read num_ticks_per_picture_minus_1")
		}
		if n > 1<<32-2 {
			return ti, newErr(BitstreamError, "num_ticks_per_picture_minus_1 out of range")
		}
		ti.NumTicksPerPictureMinus1 = n
	}
	return ti, nil
}

func parseDecoderModelInfo(r *BitReader) (DecoderModelInfo, error) {
	var dm DecoderModelInfo
	v, err := r.ReadBits(5)
	if err != nil {
		return dm, errors.Wrap(err, "could not read buffer_delay_length_minus_1")
	}
	dm.BufferDelayLengthMinus1 = uint8(v)
	v, err = r.ReadBits(32)
	if err != nil {
		return dm, errors.Wrap(err, "could not read num_units_in_decoding_tick")
	}
	dm.NumUnitsInDecodingTick = v
	v, err = r.ReadBits(5)
	if err != nil {
		return dm, errors.Wrap(err, "could not read buffer_removal_time_length_minus_1")
	}
	dm.BufferRemovalTimeLengthMinus1 = uint8(v)
	v, err = r.ReadBits(5)
	if err != nil {
		return dm, errors.Wrap(err, "could not read frame_presentation_time_length_minus_1")
	}
	dm.FramePresentationTimeLengthMinus1 = uint8(v)
	return dm, nil
}

func parseOperatingParameters(r *BitReader, bufferDelayLength int) (OperatingParameters, error) {
	var op OperatingParameters
	v, err := r.ReadUVLC()
	if err != nil {
		return op, errors.Wrap(err, "could not read bitrate_minus_1")
	}
	op.BitrateMinus1 = v
	v, err = r.ReadUVLC()
	if err != nil {
		return op, errors.Wrap(err, "could not read buffer_size_minus_1")
	}
	op.BufferSizeMinus1 = v
	cbr, err := r.ReadFlag()
	if err != nil {
		return op, errors.Wrap(err, "could not read cbr_flag")
	}
	op.CBRFlag = cbr
	dbd, err := r.ReadBits(bufferDelayLength)
	if err != nil {
		return op, errors.Wrap(err, "could not read decoder_buffer_delay")
	}
	op.DecoderBufferDelay = dbd
	ebd, err := r.ReadBits(bufferDelayLength)
	if err != nil {
		return op, errors.Wrap(err, "could not read encoder_buffer_delay")
	}
	op.EncoderBufferDelay = ebd
	ld, err := r.ReadFlag()
	if err != nil {
		return op, errors.Wrap(err, "could not read low_delay_mode_flag")
	}
	op.LowDelayModeFlag = ld
	return op, nil
}

// ParseSequenceHeaderOBU parses a Sequence Header OBU payload per
// spec.md §4.4, and checks the trailing-bits tail required of this OBU
// type. It does not mutate ParserState; callers that want the
// transactional commit described in spec.md §7 should call this via
// Parser.ParseSequenceHeaderOBU instead of calling it directly.
func ParseSequenceHeaderOBU(payload []byte) (SequenceHeader, error) {
	r := NewBitReader(payload)
	var sh SequenceHeader

	v, err := r.ReadBits(3)
	if err != nil {
		return sh, errors.Wrap(err, "could not read seq_profile")
	}
	sh.SeqProfile = uint8(v)

	still, err := r.ReadFlag()
	if err != nil {
		return sh, errors.Wrap(err, "could not read still_picture")
	}
	sh.StillPicture = still

	reduced, err := r.ReadFlag()
	if err != nil {
		return sh, errors.Wrap(err, "could not read reduced_still_picture_header")
	}
	sh.ReducedStillPictureHeader = reduced

	if reduced {
		lvl, err := r.ReadBits(5)
		if err != nil {
			return sh, errors.Wrap(err, "could not read seq_level_idx[0]")
		}
		sh.OperatingPoints = []OperatingPoint{{IDC: 0, SeqLevelIdx: uint8(lvl), SeqTier: 0}}
	} else {
		timingPresent, err := r.ReadFlag()
		if err != nil {
			return sh, errors.Wrap(err, "could not read timing_info_present_flag")
		}
		sh.TimingInfoPresent = timingPresent
		if timingPresent {
			ti, err := parseTimingInfo(r)
			if err != nil {
				return sh, err
			}
			sh.TimingInfo = &ti

			dmPresent, err := r.ReadFlag()
			if err != nil {
				return sh, errors.Wrap(err, "could not read decoder_model_info_present_flag")
			}
			sh.DecoderModelInfoPresent = dmPresent
			if dmPresent {
				dm, err := parseDecoderModelInfo(r)
				if err != nil {
					return sh, err
				}
				sh.DecoderModelInfo = &dm
			}
		}

		initialDelayPresent, err := r.ReadFlag()
		if err != nil {
			return sh, errors.Wrap(err, "could not read initial_display_delay_present_flag")
		}
		sh.InitialDisplayDelayPresent = initialDelayPresent

		opCnt, err := r.ReadBits(5)
		if err != nil {
			return sh, errors.Wrap(err, "could not read operating_points_cnt_minus_1")
		}
		sh.OperatingPoints = make([]OperatingPoint, opCnt+1)
		for i := range sh.OperatingPoints {
			op := &sh.OperatingPoints[i]

			idc, err := r.ReadBits(12)
			if err != nil {
				return sh, errors.Wrap(err, "could not read operating_point_idc")
			}
			op.IDC = uint16(idc)

			lvl, err := r.ReadBits(5)
			if err != nil {
				return sh, errors.Wrap(err, "could not read seq_level_idx")
			}
			op.SeqLevelIdx = uint8(lvl)

			if lvl > 7 {
				tier, err := r.ReadFlag()
				if err != nil {
					return sh, errors.Wrap(err, "could not read seq_tier")
				}
				if tier {
					op.SeqTier = 1
				}
			}

			if sh.DecoderModelInfoPresent {
				present, err := r.ReadFlag()
				if err != nil {
					return sh, errors.Wrap(err, "could not read decoder_model_present_for_this_op")
				}
				op.DecoderModelPresentForThisOp = present
				if present {
					params, err := parseOperatingParameters(r, int(sh.DecoderModelInfo.BufferDelayLengthMinus1)+1)
					if err != nil {
						return sh, err
					}
					op.OperatingParameters = params
				}
			}

			if sh.InitialDisplayDelayPresent {
				present, err := r.ReadFlag()
				if err != nil {
					return sh, errors.Wrap(err, "could not read initial_display_delay_present_for_this_op")
				}
				op.InitialDisplayDelayPresentForThisOp = present
				if present {
					d, err := r.ReadBits(4)
					if err != nil {
						return sh, errors.Wrap(err, "could not read initial_display_delay_minus_1")
					}
					op.InitialDisplayDelayMinus1 = uint8(d)
				}
			}
		}
	}

	wBits, err := r.ReadBits(4)
	if err != nil {
		return sh, errors.Wrap(err, "could not read frame_width_bits_minus_1")
	}
	sh.FrameWidthBits = int(wBits) + 1
	hBits, err := r.ReadBits(4)
	if err != nil {
		return sh, errors.Wrap(err, "could not read frame_height_bits_minus_1")
	}
	sh.FrameHeightBits = int(hBits) + 1

	maxW, err := r.ReadBits(sh.FrameWidthBits)
	if err != nil {
		return sh, errors.Wrap(err, "could not read max_frame_width_minus_1")
	}
	sh.MaxFrameWidthMinus1 = maxW
	maxH, err := r.ReadBits(sh.FrameHeightBits)
	if err != nil {
		return sh, errors.Wrap(err, "could not read max_frame_height_minus_1")
	}
	sh.MaxFrameHeightMinus1 = maxH

	if reduced {
		sh.FrameIDNumbersPresent = false
	} else {
		present, err := r.ReadFlag()
		if err != nil {
			return sh, errors.Wrap(err, "could not read frame_id_numbers_present_flag")
		}
		sh.FrameIDNumbersPresent = present
	}
	if sh.FrameIDNumbersPresent {
		d, err := r.ReadBits(4)
		if err != nil {
			return sh, errors.Wrap(err, "could not read delta_frame_id_length_minus_2")
		}
		a, err := r.ReadBits(3)
		if err != nil {
			return sh, errors.Wrap(err, "could not read additional_frame_id_length_minus_1")
		}
		sh.DeltaFrameIDLen = int(d) + 2
		sh.AdditionalFrameIDLen = int(a) + 1
		if sh.AdditionalFrameIDLen+sh.DeltaFrameIDLen+3 > 16 {
			return sh, newErr(BitstreamError, "additional_frame_id_length + delta_frame_id_length + 3 exceeds 16")
		}
	}

	use128, err := r.ReadFlag()
	if err != nil {
		return sh, errors.Wrap(err, "could not read use_128x128_superblock")
	}
	sh.Use128x128Superblock = use128
	fi, err := r.ReadFlag()
	if err != nil {
		return sh, errors.Wrap(err, "could not read enable_filter_intra")
	}
	sh.EnableFilterIntra = fi
	ief, err := r.ReadFlag()
	if err != nil {
		return sh, errors.Wrap(err, "could not read enable_intra_edge_filter")
	}
	sh.EnableIntraEdgeFilter = ief

	if reduced {
		sh.ForceScreenContentTools = selectScreenContentTools
		sh.ForceIntegerMV = selectIntegerMv
	} else {
		if sh.EnableInterintraCompound, err = r.ReadFlag(); err != nil {
			return sh, errors.Wrap(err, "could not read enable_interintra_compound")
		}
		if sh.EnableMaskedCompound, err = r.ReadFlag(); err != nil {
			return sh, errors.Wrap(err, "could not read enable_masked_compound")
		}
		if sh.EnableWarpedMotion, err = r.ReadFlag(); err != nil {
			return sh, errors.Wrap(err, "could not read enable_warped_motion")
		}
		if sh.EnableDualFilter, err = r.ReadFlag(); err != nil {
			return sh, errors.Wrap(err, "could not read enable_dual_filter")
		}
		if sh.EnableOrderHint, err = r.ReadFlag(); err != nil {
			return sh, errors.Wrap(err, "could not read enable_order_hint")
		}
		if sh.EnableOrderHint {
			if sh.EnableJntComp, err = r.ReadFlag(); err != nil {
				return sh, errors.Wrap(err, "could not read enable_jnt_comp")
			}
			if sh.EnableRefFrameMVs, err = r.ReadFlag(); err != nil {
				return sh, errors.Wrap(err, "could not read enable_ref_frame_mvs")
			}
		}

		chooseSCT, err := r.ReadFlag()
		if err != nil {
			return sh, errors.Wrap(err, "could not read seq_choose_screen_content_tools")
		}
		if chooseSCT {
			sh.ForceScreenContentTools = selectScreenContentTools
		} else {
			v, err := r.ReadBits(1)
			if err != nil {
				return sh, errors.Wrap(err, "could not read seq_force_screen_content_tools")
			}
			sh.ForceScreenContentTools = uint8(v)
		}

		if sh.ForceScreenContentTools > 0 {
			chooseIMV, err := r.ReadFlag()
			if err != nil {
				return sh, errors.Wrap(err, "could not read seq_choose_integer_mv")
			}
			if chooseIMV {
				sh.ForceIntegerMV = selectIntegerMv
			} else {
				v, err := r.ReadBits(1)
				if err != nil {
					return sh, errors.Wrap(err, "could not read seq_force_integer_mv")
				}
				sh.ForceIntegerMV = uint8(v)
			}
		} else {
			sh.ForceIntegerMV = selectIntegerMv
		}

		if sh.EnableOrderHint {
			bits, err := r.ReadBits(3)
			if err != nil {
				return sh, errors.Wrap(err, "could not read order_hint_bits_minus_1")
			}
			sh.OrderHintBits = int(bits) + 1
		}
	}

	if sh.EnableSuperres, err = r.ReadFlag(); err != nil {
		return sh, errors.Wrap(err, "could not read enable_superres")
	}
	if sh.EnableCdef, err = r.ReadFlag(); err != nil {
		return sh, errors.Wrap(err, "could not read enable_cdef")
	}
	if sh.EnableRestoration, err = r.ReadFlag(); err != nil {
		return sh, errors.Wrap(err, "could not read enable_restoration")
	}

	cc, err := parseColorConfig(r, sh.SeqProfile)
	if err != nil {
		return sh, err
	}
	sh.ColorConfig = cc

	if sh.FilmGrainParamsPresent, err = r.ReadFlag(); err != nil {
		return sh, errors.Wrap(err, "could not read film_grain_params_present")
	}

	if err := r.CheckTrailingBits(); err != nil {
		return sh, err
	}

	return sh, nil
}
