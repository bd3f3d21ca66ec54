package codec

import (
	"errors"
	"fmt"
)

// CodecError represents an error detected while encoding or decoding.
//
// Decode errors surface only from plain-structure roots; group dispatch
// converts them into the fail-soft Unrecognized value instead. Encode errors
// are always fatal per call: encoding expresses programmer intent that must
// be exact.
type CodecError struct {
	// Code identifies the error category.
	Code CodecErrorCode

	// Message is a human-readable description.
	Message string

	// Definition identifies the affected definition.
	Definition string

	// Member identifies the affected member, when one applies.
	Member string
}

// CodecErrorCode categorizes codec errors.
type CodecErrorCode string

const (
	// ErrCodeShortBuffer indicates the input ended before the layout did.
	ErrCodeShortBuffer CodecErrorCode = "SHORT_BUFFER"

	// ErrCodeUnknownTag indicates a group tag with no registered variant.
	ErrCodeUnknownTag CodecErrorCode = "UNKNOWN_TAG"

	// ErrCodeMissingMember indicates an encode value missing a required member.
	ErrCodeMissingMember CodecErrorCode = "MISSING_MEMBER"

	// ErrCodeValueRange indicates an integer outside its declared width.
	ErrCodeValueRange CodecErrorCode = "VALUE_RANGE"

	// ErrCodeBadValue indicates a value of the wrong shape for its member.
	ErrCodeBadValue CodecErrorCode = "BAD_VALUE"

	// ErrCodeUnknownRoot indicates a decode/encode root name not in the schema.
	ErrCodeUnknownRoot CodecErrorCode = "UNKNOWN_ROOT"
)

// Error implements the error interface.
func (e *CodecError) Error() string {
	switch {
	case e.Definition != "" && e.Member != "":
		return fmt.Sprintf("%s: %s (definition=%s, member=%s)", e.Code, e.Message, e.Definition, e.Member)
	case e.Definition != "":
		return fmt.Sprintf("%s: %s (definition=%s)", e.Code, e.Message, e.Definition)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsShortBuffer returns true if the error is a short-buffer error.
// Uses errors.As to handle wrapped errors.
func IsShortBuffer(err error) bool { return hasCode(err, ErrCodeShortBuffer) }

// IsUnknownTag returns true if the error is an unknown-tag error.
func IsUnknownTag(err error) bool { return hasCode(err, ErrCodeUnknownTag) }

// IsMissingMember returns true if the error is a missing-member error.
func IsMissingMember(err error) bool { return hasCode(err, ErrCodeMissingMember) }

// IsValueRange returns true if the error is a value-range error.
func IsValueRange(err error) bool { return hasCode(err, ErrCodeValueRange) }

func hasCode(err error, code CodecErrorCode) bool {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func shortBufferError(definition string, need, got int) *CodecError {
	return &CodecError{
		Code:       ErrCodeShortBuffer,
		Message:    fmt.Sprintf("need %d byte(s), have %d", need, got),
		Definition: definition,
	}
}

func unknownTagError(group string, tag int64) *CodecError {
	return &CodecError{
		Code:       ErrCodeUnknownTag,
		Message:    fmt.Sprintf("tag %d has no variant", tag),
		Definition: group,
	}
}

func missingMemberError(definition, member string) *CodecError {
	return &CodecError{
		Code:       ErrCodeMissingMember,
		Message:    "no value for required member",
		Definition: definition,
		Member:     member,
	}
}

func valueRangeError(definition, member string, value, lo, hi int64) *CodecError {
	return &CodecError{
		Code:       ErrCodeValueRange,
		Message:    fmt.Sprintf("value %d outside range %d..%d", value, lo, hi),
		Definition: definition,
		Member:     member,
	}
}

func badValueError(definition, member, message string) *CodecError {
	return &CodecError{
		Code:       ErrCodeBadValue,
		Message:    message,
		Definition: definition,
		Member:     member,
	}
}
