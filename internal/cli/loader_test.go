package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structcc/structcc/internal/compiler"
)

func TestLoadDefinitionsTOML(t *testing.T) {
	raw, err := LoadDefinitions("testdata/thermostat.toml")
	require.NoError(t, err)
	assert.Contains(t, raw, "set_point")
	assert.Contains(t, raw, "file")

	_, errs := compiler.Build(raw)
	assert.Empty(t, errs)
}

// The same definitions must build identically no matter which loader
// produced the raw mapping.
func TestLoadDefinitionsYAMLAndJSONAgree(t *testing.T) {
	fromYAML, err := LoadDefinitions("testdata/ack.yaml")
	require.NoError(t, err)
	fromJSON, err := LoadDefinitions("testdata/ack.json")
	require.NoError(t, err)

	sy, errs := compiler.Build(fromYAML)
	require.Empty(t, errs)
	sj, errs := compiler.Build(fromJSON)
	require.Empty(t, errs)

	fy, err := sy.Fingerprint()
	require.NoError(t, err)
	fj, err := sj.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fy, fj)
}

func TestLoadDefinitionsUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.ini")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := LoadDefinitions(path)
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Message, "unsupported extension")
}

func TestLoadDefinitionsMissingFile(t *testing.T) {
	_, err := LoadDefinitions("testdata/missing.toml")
	require.Error(t, err)
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestLoadDefinitionsBadSyntax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[unclosed\n"), 0644))

	_, err := LoadDefinitions(path)
	require.Error(t, err)
}

func TestSourceStem(t *testing.T) {
	assert.Equal(t, "thermostat", SourceStem("testdata/thermostat.toml"))
	assert.Equal(t, "defs", SourceStem("/a/b/defs.yaml"))
}
