/*
DESCRIPTION
  colorconfig.go parses the AV1 Sequence Header's color_config() syntax.

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

// Color description constants used when color_description_present_flag is
// 0, per the AV1 specification's CP_UNSPECIFIED / TC_UNSPECIFIED /
// MC_UNSPECIFIED.
const (
	colorPrimariesUnspecified         = 2
	transferCharacteristicsUnspecified = 2
	matrixCoefficientsUnspecified     = 2
	matrixCoefficientsIdentity        = 0
	colorPrimariesBT709               = 1
	transferCharacteristicsSRGB        = 13
	chromaSamplePositionUnknown       = 0
)

// ColorConfig is the decoded color_config() syntax structure.
type ColorConfig struct {
	BitDepth                int // 8, 10, or 12
	MonoChrome              bool
	NumPlanes                int // 1 or 3
	ColorPrimaries           uint8
	TransferCharacteristics  uint8
	MatrixCoefficients       uint8
	ColorRange               bool
	SubsamplingX             bool
	SubsamplingY             bool
	ChromaSamplePosition     uint8
	SeparateUVDeltaQ         bool
}

// parseColorConfig implements spec.md §4.4 step 8.
func parseColorConfig(r *BitReader, seqProfile uint8) (ColorConfig, error) {
	var cc ColorConfig

	highBitdepth, err := r.ReadFlag()
	if err != nil {
		return cc, errors.Wrap(err, "could not read high_bitdepth")
	}

	if seqProfile == 2 && highBitdepth {
		twelveBit, err := r.ReadFlag()
		if err != nil {
			return cc, errors.Wrap(err, "could not read twelve_bit")
		}
		if twelveBit {
			cc.BitDepth = 12
		} else {
			cc.BitDepth = 10
		}
	} else if highBitdepth {
		cc.BitDepth = 10
	} else {
		cc.BitDepth = 8
	}

	if seqProfile == 1 {
		cc.MonoChrome = false
	} else {
		mono, err := r.ReadFlag()
		if err != nil {
			return cc, errors.Wrap(err, "could not read mono_chrome")
		}
		cc.MonoChrome = mono
	}
	if cc.MonoChrome {
		cc.NumPlanes = 1
	} else {
		cc.NumPlanes = 3
	}

	present, err := r.ReadFlag()
	if err != nil {
		return cc, errors.Wrap(err, "could not read color_description_present_flag")
	}
	if present {
		cp, err := r.ReadBits(8)
		if err != nil {
			return cc, errors.Wrap(err, "could not read color_primaries")
		}
		tc, err := r.ReadBits(8)
		if err != nil {
			return cc, errors.Wrap(err, "could not read transfer_characteristics")
		}
		mc, err := r.ReadBits(8)
		if err != nil {
			return cc, errors.Wrap(err, "could not read matrix_coefficients")
		}
		cc.ColorPrimaries = uint8(cp)
		cc.TransferCharacteristics = uint8(tc)
		cc.MatrixCoefficients = uint8(mc)
	} else {
		cc.ColorPrimaries = colorPrimariesUnspecified
		cc.TransferCharacteristics = transferCharacteristicsUnspecified
		cc.MatrixCoefficients = matrixCoefficientsUnspecified
	}

	if cc.MonoChrome {
		cr, err := r.ReadFlag()
		if err != nil {
			return cc, errors.Wrap(err, "could not read color_range")
		}
		cc.ColorRange = cr
		cc.SubsamplingX = true
		cc.SubsamplingY = true
		cc.ChromaSamplePosition = chromaSamplePositionUnknown
		cc.SeparateUVDeltaQ = false
		return cc, nil
	}

	if cc.ColorPrimaries == colorPrimariesBT709 &&
		cc.TransferCharacteristics == transferCharacteristicsSRGB &&
		cc.MatrixCoefficients == matrixCoefficientsIdentity {
		cc.ColorRange = true
		cc.SubsamplingX = false
		cc.SubsamplingY = false
	} else {
		cr, err := r.ReadFlag()
		if err != nil {
			return cc, errors.Wrap(err, "could not read color_range")
		}
		cc.ColorRange = cr

		switch seqProfile {
		case 0:
			cc.SubsamplingX, cc.SubsamplingY = true, true
		case 1:
			cc.SubsamplingX, cc.SubsamplingY = false, false
		default:
			if cc.BitDepth == 12 {
				sx, err := r.ReadFlag()
				if err != nil {
					return cc, errors.Wrap(err, "could not read subsampling_x")
				}
				cc.SubsamplingX = sx
				if sx {
					sy, err := r.ReadFlag()
					if err != nil {
						return cc, errors.Wrap(err, "could not read subsampling_y")
					}
					cc.SubsamplingY = sy
				} else {
					cc.SubsamplingY = false
				}
			} else {
				cc.SubsamplingX, cc.SubsamplingY = true, false
			}
		}
		if cc.SubsamplingX && cc.SubsamplingY {
			csp, err := r.ReadBits(2)
			if err != nil {
				return cc, errors.Wrap(err, "could not read chroma_sample_position")
			}
			cc.ChromaSamplePosition = uint8(csp)
		}
	}

	uv, err := r.ReadFlag()
	if err != nil {
		return cc, errors.Wrap(err, "could not read separate_uv_delta_q")
	}
	cc.SeparateUVDeltaQ = uv

	if cc.MatrixCoefficients == matrixCoefficientsIdentity &&
		(cc.SubsamplingX || cc.SubsamplingY) {
		return cc, newErr(BitstreamError, "identity matrix_coefficients requires 4:4:4 subsampling")
	}

	return cc, nil
}
