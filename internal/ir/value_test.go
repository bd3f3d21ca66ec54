package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalMappingPreservesOrder(t *testing.T) {
	m := Mapping{
		{Name: "zulu", Value: Int(1)},
		{Name: "alpha", Value: Int(2)},
		{Name: "mike", Value: Int(3)},
	}
	out, err := MarshalValue(m)
	require.NoError(t, err)
	assert.Equal(t, `{"zulu":1,"alpha":2,"mike":3}`, string(out))
}

func TestUnmarshalMappingPreservesOrder(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"zulu":1,"alpha":{"nested":true},"mike":[1,2]}`))
	require.NoError(t, err)

	m, ok := v.(Mapping)
	require.True(t, ok)
	require.Len(t, m, 3)
	assert.Equal(t, "zulu", m[0].Name)
	assert.Equal(t, "alpha", m[1].Name)
	assert.Equal(t, "mike", m[2].Name)

	nested, ok := m[1].Value.(Mapping)
	require.True(t, ok)
	b, _ := nested.Get("nested")
	assert.Equal(t, Bool(true), b)

	seq, ok := m[2].Value.(Sequence)
	require.True(t, ok)
	assert.Equal(t, Sequence{Int(1), Int(2)}, seq)
}

func TestValueJSONRoundTrip(t *testing.T) {
	src := `{"temperature":240,"label":"heat","on":true,"history":[1,-2,3]}`
	v, err := UnmarshalValue([]byte(src))
	require.NoError(t, err)

	out, err := MarshalValue(v)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestBytesMarshalAsHex(t *testing.T) {
	out, err := MarshalValue(Bytes{0xCA, 0xFE})
	require.NoError(t, err)
	assert.Equal(t, `"cafe"`, string(out))
}

func TestUnrecognizedMarshalShape(t *testing.T) {
	u := &Unrecognized{Raw: []byte{0x5A}, Reason: "tag 90 has no variant"}
	out, err := MarshalValue(u)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"unrecognized"`)
	assert.Contains(t, string(out), `"raw":"5a"`)
	assert.Contains(t, string(out), `"length":1`)
	assert.True(t, IsUnrecognized(u))
	assert.False(t, IsUnrecognized(Int(0)))
}

func TestUnmarshalRejectsFloats(t *testing.T) {
	_, err := UnmarshalValue([]byte(`{"x":1.5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float")

	_, err = UnmarshalValue([]byte(`{"x":1e3}`))
	require.Error(t, err)
}

func TestUnmarshalRejectsNull(t *testing.T) {
	_, err := UnmarshalValue([]byte(`{"x":null}`))
	require.Error(t, err)
}

func TestUnmarshalIntegralBoundaries(t *testing.T) {
	v, err := UnmarshalValue([]byte(`9223372036854775807`))
	require.NoError(t, err)
	assert.Equal(t, Int(1<<63-1), v)

	_, err = UnmarshalValue([]byte(`9223372036854775808`))
	require.Error(t, err)
}

func TestMappingSetReplacesInPlace(t *testing.T) {
	m := Mapping{{Name: "a", Value: Int(1)}}
	m = m.Set("a", Int(2))
	m = m.Set("b", Int(3))
	require.Len(t, m, 2)

	a, _ := m.Get("a")
	assert.Equal(t, Int(2), a)
	_, ok := m.Get("missing")
	assert.False(t, ok)
}

func TestEmptyContainersRoundTrip(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"m":{},"s":[]}`))
	require.NoError(t, err)

	out, err := MarshalValue(v)
	require.NoError(t, err)
	assert.Equal(t, `{"m":{},"s":[]}`, string(out))
}
