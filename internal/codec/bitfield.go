package codec

import (
	"fmt"

	"github.com/structcc/structcc/internal/ir"
)

// EncodeBitField packs named sub-values into the bit-field's byte span.
//
// Signed values are truncated to their declared width with two's-complement
// masking before shifting, so a negative value round-trips losslessly within
// its width and overflow truncates silently - hardware bit-field semantics,
// not an error. Missing members default to 0.
func (c *Codec) EncodeBitField(bf *ir.BitFieldDef, values ir.Mapping) ([]byte, error) {
	known := make(map[string]bool, len(bf.Members))
	for _, m := range bf.Members {
		known[m.Name] = true
	}
	for _, f := range values {
		if !known[f.Name] {
			return nil, badValueError(bf.Name, f.Name, "no such bit-field member")
		}
	}

	var acc uint64
	for _, m := range bf.Members {
		v, present := values.Get(m.Name)
		if !present {
			continue
		}
		n, err := c.bitFieldMemberInt(bf, m, v)
		if err != nil {
			return nil, err
		}
		mask := uint64(1)<<uint(m.Bits) - 1
		acc |= (uint64(n) & mask) << uint(m.Start)
	}

	out := make([]byte, bf.ByteSize)
	c.Order.putUint(out, acc)
	return out, nil
}

// bitFieldMemberInt converts a member's value to its wire integer: booleans
// to 0/1, enum labels to their numeric value, integers as-is.
func (c *Codec) bitFieldMemberInt(bf *ir.BitFieldDef, m ir.BitFieldMember, v ir.Value) (int64, error) {
	switch val := v.(type) {
	case ir.Bool:
		if m.Type != ir.TypeBool && m.Type != ir.TypeUint {
			return 0, badValueError(bf.Name, m.Name, fmt.Sprintf("boolean value for %s member", m.Type))
		}
		if val {
			return 1, nil
		}
		return 0, nil
	case ir.Int:
		return int64(val), nil
	case ir.Text:
		e, ok := c.Schema.Enums[m.Type]
		if !ok {
			return 0, badValueError(bf.Name, m.Name, fmt.Sprintf("text value for %s member", m.Type))
		}
		n, ok := e.ValueFor(string(val))
		if !ok {
			return 0, badValueError(bf.Name, m.Name, fmt.Sprintf("enum %s has no label %q", e.Name, val))
		}
		return n, nil
	default:
		return 0, badValueError(bf.Name, m.Name, fmt.Sprintf("unsupported value type %T", v))
	}
}

// DecodeBitField unpacks a byte span into named sub-values in member order.
// Signed members sign-extend from their declared width; booleans decode from
// nonzero; enum-typed members fail open to the raw integer when the extracted
// value has no label.
func (c *Codec) DecodeBitField(bf *ir.BitFieldDef, data []byte) (ir.Mapping, error) {
	if len(data) < bf.ByteSize {
		return nil, shortBufferError(bf.Name, bf.ByteSize, len(data))
	}
	acc := c.Order.readUint(data[:bf.ByteSize])

	out := make(ir.Mapping, 0, len(bf.Members))
	for _, m := range bf.Members {
		mask := uint64(1)<<uint(m.Bits) - 1
		raw := (acc >> uint(m.Start)) & mask
		n := int64(raw)
		if m.Signed && m.Bits < 64 && raw&(1<<uint(m.Bits-1)) != 0 {
			n = int64(raw) - 1<<uint(m.Bits)
		}

		var v ir.Value
		switch m.Type {
		case ir.TypeBool:
			v = ir.Bool(n != 0)
		case ir.TypeInt, ir.TypeUint:
			v = ir.Int(n)
		default:
			if e, ok := c.Schema.Enums[m.Type]; ok {
				if label, found := e.LabelFor(n); found {
					v = ir.Text(label)
				} else {
					v = ir.Int(n) // fail open
				}
			} else {
				v = ir.Int(n)
			}
		}
		out = append(out, ir.Field{Name: m.Name, Value: v})
	}
	return out, nil
}
