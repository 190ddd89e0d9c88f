/*
DESCRIPTION
  errors.go defines the typed error kinds surfaced by the av1 package.

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

// Kind identifies the class of conformance failure a parse operation hit.
// The parser never attempts silent repair; a single error aborts the
// current OBU and leaves ParserState unchanged for that OBU's effects.
type Kind int

const (
	// BufferExhausted indicates a read past the end of the payload.
	BufferExhausted Kind = iota
	// Forbidden indicates the OBU header forbidden bit was set.
	Forbidden
	// InvalidLeb128 indicates a LEB128 value did not terminate within 8
	// bytes, or decoded to a value greater than 2^32-1.
	InvalidLeb128
	// BitstreamError indicates a UVLC code with 32 or more leading zero
	// bits, or a numeric field outside its conformance range.
	BitstreamError
	// BadTrailingBits indicates non-standard trailing padding in an OBU
	// that requires the standard trailing-bits pattern.
	BadTrailingBits
	// MissingSequenceHeader indicates a frame, metadata, or tile OBU was
	// parsed before any sequence header was stored in ParserState.
	MissingSequenceHeader
	// DuplicateFrameHeader indicates two frame headers arrived without an
	// intervening temporal delimiter or completed tile group.
	DuplicateFrameHeader
	// StaleReference indicates show_existing_frame referenced an invalid
	// slot, or a frame id mismatch against the referenced slot.
	StaleReference
	// UnsupportedFeature indicates a reserved OBU type was asked to parse
	// deeper than its header.
	UnsupportedFeature
)

func (k Kind) String() string {
	switch k {
	case BufferExhausted:
		return "BufferExhausted"
	case Forbidden:
		return "Forbidden"
	case InvalidLeb128:
		return "InvalidLeb128"
	case BitstreamError:
		return "BitstreamError"
	case BadTrailingBits:
		return "BadTrailingBits"
	case MissingSequenceHeader:
		return "MissingSequenceHeader"
	case DuplicateFrameHeader:
		return "DuplicateFrameHeader"
	case StaleReference:
		return "StaleReference"
	case UnsupportedFeature:
		return "UnsupportedFeature"
	default:
		return "Unknown"
	}
}

// ParseError is the error type returned by every parse operation in this
// package. Callers compare against a Kind with errors.As, not string
// matching.
type ParseError struct {
	Kind Kind
	Msg  string
}

func (e *ParseError) Error() string { return e.Kind.String() + ": " + e.Msg }

// newErr builds a *ParseError, wrapped with context via pkg/errors so that
// callers retaining the chain can still recover the original cause.
func newErr(kind Kind, msg string) error {
	return errors.WithStack(&ParseError{Kind: kind, Msg: msg})
}

// Is allows errors.Is(err, SomeKind) style comparisons against a bare Kind
// by way of a sentinel ParseError with a matching Kind and empty message.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf unwraps err looking for a *ParseError and reports its Kind. The ok
// return is false if err does not carry a *ParseError anywhere in its
// chain.
func KindOf(err error) (Kind, bool) {
	type causer interface{ Cause() error }
	for err != nil {
		if pe, ok := err.(*ParseError); ok {
			return pe.Kind, true
		}
		c, ok := err.(causer)
		if !ok {
			return 0, false
		}
		err = c.Cause()
	}
	return 0, false
}
