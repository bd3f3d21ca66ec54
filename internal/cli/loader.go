package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LoadError describes a definition file that could not be loaded.
type LoadError struct {
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadDefinitions reads a definition file into the raw mapping the compiler
// consumes. The format is chosen by extension: .toml, .yaml/.yml, or .json.
func LoadDefinitions(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}

	raw := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Path: path, Message: fmt.Sprintf("parsing TOML: %v", err)}
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Path: path, Message: fmt.Sprintf("parsing YAML: %v", err)}
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber() // keep integers integral; the compiler rejects floats
		if err := dec.Decode(&raw); err != nil {
			return nil, &LoadError{Path: path, Message: fmt.Sprintf("parsing JSON: %v", err)}
		}
	default:
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("unsupported extension %q (want .toml, .yaml, or .json)", filepath.Ext(path))}
	}
	return raw, nil
}

// SourceStem returns the definition file name without directory or extension,
// used to name generated output.
func SourceStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
