package codec

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/structcc/structcc/internal/ir"
)

// reservedMarker is the decoded face of a reserved member. It carries no
// semantic content and is ignored on encode.
const reservedMarker = ir.Text("reserved")

// Codec converts byte buffers to and from structured values against a
// resolved schema. Every call is stateless; the schema is shared read-only,
// so one Codec may be used from any number of goroutines.
type Codec struct {
	Schema *ir.Schema
	Order  ByteOrder
}

// New returns a codec over a resolved schema using big-endian byte order.
func New(schema *ir.Schema) *Codec {
	return &Codec{Schema: schema, Order: BigEndian}
}

// NewWithOrder returns a codec using an explicit byte order.
func NewWithOrder(schema *ir.Schema, order ByteOrder) *Codec {
	return &Codec{Schema: schema, Order: order}
}

// Decode converts a byte buffer into a structured value rooted at a defined
// name. Plain-structure roots fail hard on short buffers; group roots fail
// hard only when the buffer cannot hold the tag, and otherwise degrade to an
// ir.Unrecognized value on unknown tags or downstream failures so garbled
// captures stay inspectable.
func (c *Codec) Decode(root string, data []byte) (ir.Value, error) {
	kind, ok := c.Schema.KindOf(root)
	if !ok {
		return nil, &CodecError{Code: ErrCodeUnknownRoot, Definition: root,
			Message: "name is not defined in the schema"}
	}
	switch kind {
	case ir.KindEnum:
		return c.decodeEnum(c.Schema.Enums[root], data)
	case ir.KindBitField:
		return c.DecodeBitField(c.Schema.BitFields[root], data)
	case ir.KindStructure:
		return c.decodeStructure(c.Schema.Structures[root], data)
	case ir.KindGroup:
		g := c.Schema.Groups[root]
		if len(data) < g.TagOffset+g.ByteSize {
			return nil, shortBufferError(g.Name, g.TagOffset+g.ByteSize, len(data))
		}
		return c.decodeGroup(g, data), nil
	}
	return nil, &CodecError{Code: ErrCodeUnknownRoot, Definition: root,
		Message: fmt.Sprintf("cannot decode kind %q", kind)}
}

// Encode converts a structured value rooted at a defined name into bytes.
// Encode is strict: missing members and out-of-range values are errors.
func (c *Codec) Encode(root string, v ir.Value) ([]byte, error) {
	kind, ok := c.Schema.KindOf(root)
	if !ok {
		return nil, &CodecError{Code: ErrCodeUnknownRoot, Definition: root,
			Message: "name is not defined in the schema"}
	}
	switch kind {
	case ir.KindEnum:
		return c.encodeEnum(c.Schema.Enums[root], "", v)
	case ir.KindBitField:
		m, ok := v.(ir.Mapping)
		if !ok {
			return nil, badValueError(root, "", fmt.Sprintf("bit-field value must be a mapping, got %T", v))
		}
		return c.EncodeBitField(c.Schema.BitFields[root], m)
	case ir.KindStructure:
		m, ok := v.(ir.Mapping)
		if !ok {
			return nil, badValueError(root, "", fmt.Sprintf("structure value must be a mapping, got %T", v))
		}
		return c.encodeStructure(c.Schema.Structures[root], m)
	case ir.KindGroup:
		return c.encodeGroup(c.Schema.Groups[root], v)
	}
	return nil, &CodecError{Code: ErrCodeUnknownRoot, Definition: root,
		Message: fmt.Sprintf("cannot encode kind %q", kind)}
}

func (c *Codec) decodeStructure(st *ir.StructureDef, data []byte) (ir.Mapping, error) {
	if len(data) < st.ByteSize {
		return nil, shortBufferError(st.Name, st.ByteSize, len(data))
	}
	out := make(ir.Mapping, 0, len(st.Members))
	offset := 0
	for _, m := range st.Members {
		span := data[offset : offset+m.ByteSize]
		offset += m.ByteSize
		v, err := c.decodeMember(st, m, span)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.Field{Name: m.Name, Value: v})
	}
	return out, nil
}

func (c *Codec) decodeMember(st *ir.StructureDef, m ir.StructMember, span []byte) (ir.Value, error) {
	switch m.Type {
	case ir.TypeInt, ir.TypeUint:
		return c.decodeInteger(st.Name, m.Name, span, m.Type == ir.TypeInt)
	case ir.TypeBool:
		return ir.Bool(span[0] != 0), nil
	case ir.TypeBytes:
		return ir.Bytes(bytes.Clone(span)), nil
	case ir.TypeStr:
		return ir.Text(bytes.TrimRight(span, "\x00")), nil
	case ir.TypeReserved:
		return reservedMarker, nil
	}

	switch {
	case c.Schema.Enums[m.Type] != nil:
		return c.decodeEnum(c.Schema.Enums[m.Type], span)
	case c.Schema.BitFields[m.Type] != nil:
		return c.DecodeBitField(c.Schema.BitFields[m.Type], span)
	case c.Schema.Structures[m.Type] != nil:
		return c.decodeStructure(c.Schema.Structures[m.Type], span)
	case c.Schema.Groups[m.Type] != nil:
		return c.decodeGroup(c.Schema.Groups[m.Type], span), nil
	}
	return nil, badValueError(st.Name, m.Name, fmt.Sprintf("unresolvable member type %q", m.Type))
}

// decodeInteger widens a span to int64. An 8-byte unsigned value above
// MaxInt64 has no representation in the value model and is rejected.
func (c *Codec) decodeInteger(def, member string, span []byte, signed bool) (ir.Value, error) {
	if !signed && len(span) == 8 && c.Order.readUint(span) > 1<<63-1 {
		return nil, badValueError(def, member, "unsigned value exceeds int64 range")
	}
	return ir.Int(c.Order.readInt(span, signed)), nil
}

// decodeEnum looks up the label for the span's numeric value and fails open
// to the raw number when no label matches. Never an error beyond a short
// buffer.
func (c *Codec) decodeEnum(e *ir.EnumDef, data []byte) (ir.Value, error) {
	if len(data) < e.ByteSize {
		return nil, shortBufferError(e.Name, e.ByteSize, len(data))
	}
	n := c.Order.readInt(data[:e.ByteSize], e.Signed)
	if label, ok := e.LabelFor(n); ok {
		return ir.Text(label), nil
	}
	return ir.Int(n), nil
}

// decodeGroup resolves the tag and decodes the matching variant. Any failure
// past the tag-width check degrades to the fail-soft marker.
func (c *Codec) decodeGroup(g *ir.GroupDef, data []byte) ir.Value {
	v, err := c.tryDecodeGroup(g, data)
	if err != nil {
		return &ir.Unrecognized{Raw: bytes.Clone(data), Reason: err.Error()}
	}
	return v
}

func (c *Codec) tryDecodeGroup(g *ir.GroupDef, data []byte) (ir.Value, error) {
	if len(data) < g.TagOffset+g.ByteSize {
		return nil, shortBufferError(g.Name, g.TagOffset+g.ByteSize, len(data))
	}
	tag := c.Order.readInt(data[g.TagOffset:g.TagOffset+g.ByteSize], false)
	variant, ok := g.VariantForTag(tag)
	if !ok {
		return nil, unknownTagError(g.Name, tag)
	}
	st := c.Schema.Structures[variant.Structure]

	// The tag is the dispatch key, not part of the variant's payload: excise
	// it before handing the remainder to the structure decode.
	payload := make([]byte, 0, len(data)-g.ByteSize)
	payload = append(payload, data[:g.TagOffset]...)
	payload = append(payload, data[g.TagOffset+g.ByteSize:]...)

	inner, err := c.decodeStructure(st, payload)
	if err != nil {
		return nil, err
	}
	return ir.Mapping{{Name: variant.Structure, Value: inner}}, nil
}

func (c *Codec) encodeStructure(st *ir.StructureDef, values ir.Mapping) ([]byte, error) {
	known := make(map[string]bool, len(st.Members))
	for _, m := range st.Members {
		known[m.Name] = true
	}
	for _, f := range values {
		if !known[f.Name] {
			return nil, badValueError(st.Name, f.Name, "no such structure member")
		}
	}

	out := make([]byte, 0, st.ByteSize)
	for _, m := range st.Members {
		v, present := values.Get(m.Name)
		if m.Type == ir.TypeReserved {
			// Reserved spans encode as zeros regardless of input.
			out = append(out, make([]byte, m.ByteSize)...)
			continue
		}
		if !present {
			return nil, missingMemberError(st.Name, m.Name)
		}
		b, err := c.encodeMember(st, m, v)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func (c *Codec) encodeMember(st *ir.StructureDef, m ir.StructMember, v ir.Value) ([]byte, error) {
	switch m.Type {
	case ir.TypeInt, ir.TypeUint:
		n, ok := v.(ir.Int)
		if !ok {
			return nil, badValueError(st.Name, m.Name, fmt.Sprintf("integer member needs a number, got %T", v))
		}
		return c.encodeInteger(st.Name, m.Name, int64(n), m.ByteSize, m.Type == ir.TypeInt)
	case ir.TypeBool:
		b, ok := v.(ir.Bool)
		if !ok {
			return nil, badValueError(st.Name, m.Name, fmt.Sprintf("bool member needs a boolean, got %T", v))
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case ir.TypeBytes:
		return c.encodeBytes(st.Name, m, v)
	case ir.TypeStr:
		t, ok := v.(ir.Text)
		if !ok {
			return nil, badValueError(st.Name, m.Name, fmt.Sprintf("str member needs a string, got %T", v))
		}
		// NUL-pad short strings; silently truncate long ones.
		out := make([]byte, m.ByteSize)
		copy(out, t)
		return out, nil
	}

	switch {
	case c.Schema.Enums[m.Type] != nil:
		return c.encodeEnum(c.Schema.Enums[m.Type], m.Name, v)
	case c.Schema.BitFields[m.Type] != nil:
		bm, ok := v.(ir.Mapping)
		if !ok {
			return nil, badValueError(st.Name, m.Name, fmt.Sprintf("bit-field member needs a mapping, got %T", v))
		}
		return c.EncodeBitField(c.Schema.BitFields[m.Type], bm)
	case c.Schema.Structures[m.Type] != nil:
		sm, ok := v.(ir.Mapping)
		if !ok {
			return nil, badValueError(st.Name, m.Name, fmt.Sprintf("structure member needs a mapping, got %T", v))
		}
		return c.encodeStructure(c.Schema.Structures[m.Type], sm)
	case c.Schema.Groups[m.Type] != nil:
		b, err := c.encodeGroup(c.Schema.Groups[m.Type], v)
		if err != nil {
			return nil, err
		}
		// The member span is sized for the widest variant; narrower variants
		// zero-pad so the enclosing structure keeps its declared width.
		if len(b) < m.ByteSize {
			b = append(b, make([]byte, m.ByteSize-len(b))...)
		}
		return b, nil
	}
	return nil, badValueError(st.Name, m.Name, fmt.Sprintf("unresolvable member type %q", m.Type))
}

// encodeBytes accepts raw bytes or their hex-string JSON face. The value must
// match the member width exactly.
func (c *Codec) encodeBytes(def string, m ir.StructMember, v ir.Value) ([]byte, error) {
	var raw []byte
	switch val := v.(type) {
	case ir.Bytes:
		raw = val
	case ir.Text:
		decoded, err := hex.DecodeString(string(val))
		if err != nil {
			return nil, badValueError(def, m.Name, fmt.Sprintf("bytes member needs hex text: %v", err))
		}
		raw = decoded
	default:
		return nil, badValueError(def, m.Name, fmt.Sprintf("bytes member needs bytes or hex text, got %T", v))
	}
	if len(raw) != m.ByteSize {
		return nil, valueRangeError(def, m.Name, int64(len(raw)), int64(m.ByteSize), int64(m.ByteSize))
	}
	return bytes.Clone(raw), nil
}

// encodeEnum accepts a label or a raw number. Raw numbers are range-checked
// against the enum width only, so values decoded fail-open round-trip.
func (c *Codec) encodeEnum(e *ir.EnumDef, member string, v ir.Value) ([]byte, error) {
	var n int64
	switch val := v.(type) {
	case ir.Text:
		value, ok := e.ValueFor(string(val))
		if !ok {
			return nil, badValueError(e.Name, member, fmt.Sprintf("enum has no label %q", val))
		}
		n = value
	case ir.Int:
		n = int64(val)
	default:
		return nil, badValueError(e.Name, member, fmt.Sprintf("enum needs a label or number, got %T", v))
	}
	return c.encodeInteger(e.Name, member, n, e.ByteSize, e.Signed)
}

// encodeGroup expects a single-field mapping naming the variant structure
// (or its short variant name) and re-inserts the tag at the group's offset.
func (c *Codec) encodeGroup(g *ir.GroupDef, v ir.Value) ([]byte, error) {
	m, ok := v.(ir.Mapping)
	if !ok || len(m) != 1 {
		return nil, badValueError(g.Name, "", "group value must be a mapping with exactly one variant")
	}
	name := m[0].Name
	variant, ok := g.VariantForStructure(name)
	if !ok {
		// Accept the short variant name as an alias.
		for _, cand := range g.Variants {
			if cand.Name == name {
				variant, ok = cand, true
				break
			}
		}
	}
	if !ok {
		return nil, badValueError(g.Name, name, "structure is not a member of this group")
	}

	inner, ok := m[0].Value.(ir.Mapping)
	if !ok {
		return nil, badValueError(g.Name, name, fmt.Sprintf("variant value must be a mapping, got %T", m[0].Value))
	}
	payload, err := c.encodeStructure(c.Schema.Structures[variant.Structure], inner)
	if err != nil {
		return nil, err
	}
	if g.TagOffset > len(payload) {
		return nil, badValueError(g.Name, name,
			fmt.Sprintf("tag offset %d beyond variant payload of %d byte(s)", g.TagOffset, len(payload)))
	}

	tag := make([]byte, g.ByteSize)
	c.Order.putUint(tag, uint64(variant.Tag))

	out := make([]byte, 0, len(payload)+g.ByteSize)
	out = append(out, payload[:g.TagOffset]...)
	out = append(out, tag...)
	out = append(out, payload[g.TagOffset:]...)
	return out, nil
}

// encodeInteger writes an int64 into size bytes after range-checking it.
func (c *Codec) encodeInteger(def, member string, n int64, size int, signed bool) ([]byte, error) {
	lo, hi := integerRange(size, signed)
	if n < lo || n > hi {
		return nil, valueRangeError(def, member, n, lo, hi)
	}
	out := make([]byte, size)
	c.Order.putUint(out, uint64(n))
	return out, nil
}

// integerRange returns the representable range of an n-byte integer. The
// unsigned 8-byte ceiling is MaxInt64: the value model is int64.
func integerRange(byteSize int, signed bool) (int64, int64) {
	bits := byteSize * 8
	if bits >= 64 {
		if signed {
			return -1 << 63, 1<<63 - 1
		}
		return 0, 1<<63 - 1
	}
	if signed {
		return -1 << (bits - 1), 1<<(bits-1) - 1
	}
	return 0, 1<<bits - 1
}
