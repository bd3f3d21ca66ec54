package compiler

import (
	"fmt"
	"strings"
)

// Build error codes (E200-E299). Build-time errors are fatal to the whole
// compilation: they indicate an author mistake in the definition set.
const (
	ErrCodeBadDefinition = "E200" // malformed definition entry
	ErrCodeSizeMismatch  = "E201" // declared size disagrees with members
	ErrCodeUnresolved    = "E202" // cyclic or missing reference
	ErrCodeDuplicateTag  = "E203" // two structures claim one tag value
	ErrCodeDuplicateName = "E204" // definition name used twice
	ErrCodeBadEnumValue  = "E205" // enum value outside declared width
	ErrCodeBitOverlap    = "E206" // bit-field member ranges overlap
)

// DefinitionError reports a malformed definition entry: a missing required
// key, a bad kind string, an invalid member, and similar author mistakes.
type DefinitionError struct {
	Definition string `json:"definition"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
	Code       string `json:"code"`
}

func (e *DefinitionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s.%s: %s", e.Code, e.Definition, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Definition, e.Message)
}

// StructuralError reports a size-consistency failure: a structure whose
// declared size disagrees with the sum of its members, or a bit-field whose
// span cannot hold its widest member.
type StructuralError struct {
	Definition string `json:"definition"`
	Expected   int    `json:"expected"`
	Actual     int    `json:"actual"`
	Unit       string `json:"unit"` // "bytes" or "bits"
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("[%s] %s: declared size %d %s but members total %d %s (off by %d)",
		ErrCodeSizeMismatch, e.Definition, e.Expected, e.Unit, e.Actual, e.Unit, e.Actual-e.Expected)
}

// UnresolvedReferenceError reports definitions that never became resolvable:
// either a reference to a name missing from the definition set, or a
// reference cycle. Cycle holds the cycle path when one was found.
type UnresolvedReferenceError struct {
	Definition string   `json:"definition"`
	Missing    []string `json:"missing,omitempty"`
	Cycle      []string `json:"cycle,omitempty"`
}

func (e *UnresolvedReferenceError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("[%s] %s: reference cycle %s", ErrCodeUnresolved,
			e.Definition, strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("[%s] %s: unresolved reference(s): %s", ErrCodeUnresolved,
		e.Definition, strings.Join(e.Missing, ", "))
}

// DuplicateTagError reports two structures claiming the same tag value under
// one group.
type DuplicateTagError struct {
	Group  string `json:"group"`
	Tag    int64  `json:"tag"`
	First  string `json:"first"`
	Second string `json:"second"`
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("[%s] group %s: tag %d claimed by both %s and %s",
		ErrCodeDuplicateTag, e.Group, e.Tag, e.First, e.Second)
}
