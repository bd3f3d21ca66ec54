package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args and returns stdout, stderr, and the error.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCompileText(t *testing.T) {
	out, _, err := execute(t, "", "compile", "testdata/thermostat.toml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 5 definition(s)")
	assert.Contains(t, out, "Fingerprint: ")
	assert.Contains(t, out, "set_point")
}

func TestCompileJSON(t *testing.T) {
	out, _, err := execute(t, "", "compile", "testdata/thermostat.toml", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.TraceID)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["fingerprint"])
}

func TestCompileWritesSchema(t *testing.T) {
	target := filepath.Join(t.TempDir(), "schema.json")
	_, _, err := execute(t, "", "compile", "testdata/thermostat.toml", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"structures"`)
	assert.Contains(t, string(data), `"set_point"`)
}

func TestCompileBuildErrorsExitOne(t *testing.T) {
	out, _, err := execute(t, "", "compile", "testdata/bad_size.toml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "off by")
}

func TestCompileMissingFileExitTwo(t *testing.T) {
	_, _, err := execute(t, "", "compile", "testdata/nope.toml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	value := `{"set_point":{"temperature":240,"status":{"fan":true,"trim":-1,"mode":"heat"}}}`

	out, _, err := execute(t, value, "encode", "testdata/thermostat.toml", "commands")
	require.NoError(t, err)
	assert.Equal(t, "0200f01f", strings.TrimSpace(out))

	out, _, err = execute(t, "", "decode", "testdata/thermostat.toml", "commands", "0200f01f")
	require.NoError(t, err)
	assert.Contains(t, out, `"temperature":240`)
	assert.Contains(t, out, `"mode":"heat"`)
	assert.Contains(t, out, `"set_point"`)
}

func TestEncodeStrictFailure(t *testing.T) {
	value := `{"temperature":240}` // status member missing

	out, _, err := execute(t, value, "encode", "testdata/thermostat.toml", "set_point")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "MISSING_MEMBER")
}

func TestEncodeLittleEndian(t *testing.T) {
	value := `{"temperature":240,"status":{}}`

	out, _, err := execute(t, value, "encode", "testdata/thermostat.toml", "set_point", "--endian", "little")
	require.NoError(t, err)
	assert.Equal(t, "f00000", strings.TrimSpace(out))
}

func TestEncodeWritesBinaryFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "frame.bin")
	value := `{"temperature":240,"status":{}}`

	_, _, err := execute(t, value, "encode", "testdata/thermostat.toml", "set_point", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xF0, 0x00}, data)
}

func TestDecodeUnknownTagFailsSoft(t *testing.T) {
	out, _, err := execute(t, "", "decode", "testdata/thermostat.toml", "commands", "09aabb")
	require.NoError(t, err)
	assert.Contains(t, out, `"unrecognized"`)
	assert.Contains(t, out, `"raw":"09aabb"`)
}

func TestDecodeStrictFailsOnUnknownTag(t *testing.T) {
	_, _, err := execute(t, "", "decode", "testdata/thermostat.toml", "commands", "09aabb", "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestDecodeHexFromStdin(t *testing.T) {
	out, _, err := execute(t, "02 00 f0 1f\n", "decode", "testdata/thermostat.toml", "commands", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"temperature":240`)
}

func TestDecodeBadHex(t *testing.T) {
	_, _, err := execute(t, "", "decode", "testdata/thermostat.toml", "commands", "zz")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDecodeJSONEnvelope(t *testing.T) {
	out, _, err := execute(t, "", "decode", "testdata/thermostat.toml", "commands", "09aabb", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["unrecognized"])
}

func TestGenerateC(t *testing.T) {
	dir := t.TempDir()
	out, _, err := execute(t, "", "generate", "testdata/thermostat.toml", "--lang", "c", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Generated")

	data, err := os.ReadFile(filepath.Join(dir, "thermostat.h"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "typedef union commands_u {")
	assert.Contains(t, string(data), "/* Thermostat wire formats */")
}

func TestGenerateRust(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "", "generate", "testdata/thermostat.toml", "--lang", "rust", "--out", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "thermostat.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "pub enum Commands {")
}

func TestGenerateUnknownLanguage(t *testing.T) {
	_, _, err := execute(t, "", "generate", "testdata/thermostat.toml", "--lang", "cobol")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGenerateWithTemplateOverride(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(override, []byte(
		"name = \"c\"\n\n[templates]\nfooter = \"\"\"\n#endif /* custom guard */\n\"\"\"\n"), 0644))

	_, _, err := execute(t, "", "generate", "testdata/thermostat.toml", "--lang", "c", "--out", dir, "--templates", override)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "thermostat.h"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "#endif /* custom guard */")
}
