// Package codec converts byte buffers to and from structured values against a
// resolved schema.
//
// Decoding is layout-driven: the schema fixes every offset and width, so a
// decode is a single pass over the buffer with no backtracking. Group members
// dispatch on their tag byte(s) and degrade to an Unrecognized value when the
// tag or the variant payload cannot be matched, so one garbled frame never
// aborts the decode of its container. Encoding is the strict inverse: every
// member must be present and every value must fit its declared width.
//
// Byte order is a property of the Codec, not the schema. Big-endian is the
// default.
package codec
