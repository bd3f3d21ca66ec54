package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterministic(t *testing.T) {
	a, err := sampleSchema().Fingerprint()
	require.NoError(t, err)
	b, err := sampleSchema().Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex SHA-256
}

func TestFingerprintSeesContentChanges(t *testing.T) {
	base, err := sampleSchema().Fingerprint()
	require.NoError(t, err)

	changed := sampleSchema()
	changed.Structures["small"].ByteSize = 3
	other, err := changed.Fingerprint()
	require.NoError(t, err)

	assert.NotEqual(t, base, other)
}

func TestFingerprintIgnoresOrder(t *testing.T) {
	// Declaration order is presentation, not identity: the digest covers the
	// resolved definitions only.
	base, err := sampleSchema().Fingerprint()
	require.NoError(t, err)

	reordered := sampleSchema()
	reordered.Order = []string{"large", "small", "status", "mode", "cmds"}
	other, err := reordered.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, base, other)
}

func TestFingerprintNormalizesNames(t *testing.T) {
	// A composed é and its decomposed form (e + combining acute) are the
	// same name; the digest must not depend on which encoding the loader
	// happened to produce.
	composed := sampleSchema()
	composed.Enums["caf\u00e9"] = &EnumDef{Name: "accent", ByteSize: 1}
	a, err := composed.Fingerprint()
	require.NoError(t, err)

	decomposed := sampleSchema()
	decomposed.Enums["cafe\u0301"] = &EnumDef{Name: "accent", ByteSize: 1}
	b, err := decomposed.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
