package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structcc/structcc/internal/compiler"
	"github.com/structcc/structcc/internal/ir"
)

func flagsSchema(t *testing.T) *ir.Schema {
	t.Helper()
	raw := map[string]any{
		"flags": map[string]any{"type": "bit_field", "size": 2, "members": []any{
			map[string]any{"name": "enabled", "type": "bool"},
			map[string]any{"name": "level", "type": "int", "bits": 4},
			map[string]any{"name": "count", "type": "uint", "bits": 6},
		}},
	}
	schema, errs := compiler.Build(raw)
	require.Empty(t, errs)
	return schema
}

func TestBitFieldRoundTrip(t *testing.T) {
	schema := flagsSchema(t)
	c := New(schema)
	bf := schema.BitFields["flags"]

	in := ir.Mapping{
		{Name: "enabled", Value: ir.Bool(true)},
		{Name: "level", Value: ir.Int(-3)},
		{Name: "count", Value: ir.Int(33)},
	}
	packed, err := c.EncodeBitField(bf, in)
	require.NoError(t, err)
	require.Len(t, packed, 2)

	out, err := c.DecodeBitField(bf, packed)
	require.NoError(t, err)

	enabled, _ := out.Get("enabled")
	level, _ := out.Get("level")
	count, _ := out.Get("count")
	assert.Equal(t, ir.Bool(true), enabled)
	assert.Equal(t, ir.Int(-3), level)
	assert.Equal(t, ir.Int(33), count)
}

func TestBitFieldMissingMembersDefaultToZero(t *testing.T) {
	schema := flagsSchema(t)
	c := New(schema)

	packed, err := c.EncodeBitField(schema.BitFields["flags"], ir.Mapping{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, packed)
}

func TestBitFieldUnknownMemberRejected(t *testing.T) {
	schema := flagsSchema(t)
	c := New(schema)

	_, err := c.EncodeBitField(schema.BitFields["flags"], ir.Mapping{
		{Name: "nope", Value: ir.Int(1)},
	})
	require.Error(t, err)
}

func TestBitFieldOverflowTruncatesSilently(t *testing.T) {
	raw := map[string]any{
		"tiny": map[string]any{"type": "bit_field", "size": 1, "members": []any{
			map[string]any{"name": "bit", "type": "uint", "bits": 1},
		}},
	}
	schema, errs := compiler.Build(raw)
	require.Empty(t, errs)
	c := New(schema)
	bf := schema.BitFields["tiny"]

	// 2 does not fit one bit; only the low bit survives.
	packed, err := c.EncodeBitField(bf, ir.Mapping{{Name: "bit", Value: ir.Int(2)}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, packed)
}

func TestBitFieldOneBitSigned(t *testing.T) {
	raw := map[string]any{
		"sign": map[string]any{"type": "bit_field", "size": 1, "members": []any{
			map[string]any{"name": "s", "type": "int", "bits": 1},
		}},
	}
	schema, errs := compiler.Build(raw)
	require.Empty(t, errs)
	c := New(schema)
	bf := schema.BitFields["sign"]

	// A 1-bit signed field holds 0 and -1 only.
	packed, err := c.EncodeBitField(bf, ir.Mapping{{Name: "s", Value: ir.Int(-1)}})
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, packed)

	out, err := c.DecodeBitField(bf, packed)
	require.NoError(t, err)
	s, _ := out.Get("s")
	assert.Equal(t, ir.Int(-1), s)
}

func TestBitFieldEnumMember(t *testing.T) {
	raw := map[string]any{
		"gear": map[string]any{"type": "enum", "size": 1, "values": []any{
			map[string]any{"label": "park"},
			map[string]any{"label": "drive"},
			map[string]any{"label": "reverse"},
		}},
		"state": map[string]any{"type": "bit_field", "size": 1, "members": []any{
			map[string]any{"name": "gear", "type": "gear"},
		}},
	}
	schema, errs := compiler.Build(raw)
	require.Empty(t, errs)
	c := New(schema)
	bf := schema.BitFields["state"]

	packed, err := c.EncodeBitField(bf, ir.Mapping{{Name: "gear", Value: ir.Text("reverse")}})
	require.NoError(t, err)

	out, err := c.DecodeBitField(bf, packed)
	require.NoError(t, err)
	gear, _ := out.Get("gear")
	assert.Equal(t, ir.Text("reverse"), gear)

	// Unlabeled extracted values fail open to the raw integer.
	out, err = c.DecodeBitField(bf, []byte{0x03})
	require.NoError(t, err)
	gear, _ = out.Get("gear")
	assert.Equal(t, ir.Int(3), gear)
}

func TestBitFieldShortBuffer(t *testing.T) {
	schema := flagsSchema(t)
	c := New(schema)

	_, err := c.DecodeBitField(schema.BitFields["flags"], []byte{0x01})
	require.Error(t, err)
	assert.True(t, IsShortBuffer(err))
}
