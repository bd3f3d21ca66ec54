package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchema() *Schema {
	return &Schema{
		Enums: map[string]*EnumDef{
			"mode": {Name: "mode", ByteSize: 1, Values: []EnumValue{
				{Label: "off", Value: 0},
				{Label: "heat", Value: 1},
			}},
		},
		BitFields: map[string]*BitFieldDef{
			"status": {Name: "status", ByteSize: 1},
		},
		Structures: map[string]*StructureDef{
			"small": {Name: "small", ByteSize: 2},
			"large": {Name: "large", ByteSize: 6},
		},
		Groups: map[string]*GroupDef{
			"cmds": {Name: "cmds", ByteSize: 1, Variants: []GroupVariant{
				{Tag: 1, Structure: "small", Name: "small"},
				{Tag: 2, Structure: "large", Name: "large"},
			}},
		},
		Order: []string{"cmds", "mode", "status", "small", "large"},
	}
}

func TestKindOf(t *testing.T) {
	s := sampleSchema()

	cases := map[string]TypeKind{
		"mode":   KindEnum,
		"status": KindBitField,
		"small":  KindStructure,
		"cmds":   KindGroup,
	}
	for name, want := range cases {
		kind, ok := s.KindOf(name)
		require.True(t, ok, name)
		assert.Equal(t, want, kind, name)
	}

	_, ok := s.KindOf("ghost")
	assert.False(t, ok)
}

func TestSizeOfGroupIsTagPlusWidestVariant(t *testing.T) {
	s := sampleSchema()

	size, ok := s.SizeOf("cmds")
	require.True(t, ok)
	assert.Equal(t, 7, size) // 1 tag byte + 6 byte widest variant

	size, ok = s.SizeOf("small")
	require.True(t, ok)
	assert.Equal(t, 2, size)

	_, ok = s.SizeOf("ghost")
	assert.False(t, ok)
}

func TestEnumLookups(t *testing.T) {
	e := sampleSchema().Enums["mode"]

	label, ok := e.LabelFor(1)
	require.True(t, ok)
	assert.Equal(t, "heat", label)

	_, ok = e.LabelFor(9)
	assert.False(t, ok)

	value, ok := e.ValueFor("off")
	require.True(t, ok)
	assert.Equal(t, int64(0), value)

	_, ok = e.ValueFor("defrost")
	assert.False(t, ok)
}

func TestGroupVariantLookups(t *testing.T) {
	g := sampleSchema().Groups["cmds"]

	v, ok := g.VariantForTag(2)
	require.True(t, ok)
	assert.Equal(t, "large", v.Structure)

	_, ok = g.VariantForTag(9)
	assert.False(t, ok)

	v, ok = g.VariantForStructure("small")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Tag)

	_, ok = g.VariantForStructure("ghost")
	assert.False(t, ok)
}
