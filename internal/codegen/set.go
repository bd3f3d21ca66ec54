package codegen

import (
	"embed"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

//go:embed templates/*.toml
var builtinFS embed.FS

// Set is a template set: one target language's templates plus its primitive
// type table, loaded from TOML. Template bodies are text/template sources
// keyed by definition kind ("enum", "bit_field", "structure", "group") plus
// the optional "header" and "footer".
type Set struct {
	Name      string            `toml:"name"`
	Extension string            `toml:"extension"`
	Types     map[string]string `toml:"types"`
	Templates map[string]string `toml:"templates"`
}

// BuiltinLanguages lists the embedded template sets.
func BuiltinLanguages() []string {
	entries, err := builtinFS.ReadDir("templates")
	if err != nil {
		return nil
	}
	var langs []string
	for _, e := range entries {
		langs = append(langs, e.Name()[:len(e.Name())-len(".toml")])
	}
	sort.Strings(langs)
	return langs
}

// BuiltinSet returns the embedded template set for a language.
func BuiltinSet(lang string) (*Set, error) {
	data, err := builtinFS.ReadFile("templates/" + lang + ".toml")
	if err != nil {
		return nil, fmt.Errorf("no builtin template set %q (have %v)", lang, BuiltinLanguages())
	}
	return parseSet(data)
}

// LoadSetFile reads a template set from a TOML file on disk.
func LoadSetFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template set: %w", err)
	}
	return parseSet(data)
}

func parseSet(data []byte) (*Set, error) {
	var s Set
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing template set: %w", err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("template set has no name")
	}
	return &s, nil
}

// MergeOver layers an override set on top of a base: any template or type
// entry the override defines wins, everything else comes from the base. This
// lets a user set replace one template leaf without restating the whole set.
func MergeOver(base, override *Set) *Set {
	merged := &Set{
		Name:      base.Name,
		Extension: base.Extension,
		Types:     make(map[string]string, len(base.Types)),
		Templates: make(map[string]string, len(base.Templates)),
	}
	for k, v := range base.Types {
		merged.Types[k] = v
	}
	for k, v := range base.Templates {
		merged.Templates[k] = v
	}
	if override == nil {
		return merged
	}
	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.Extension != "" {
		merged.Extension = override.Extension
	}
	for k, v := range override.Types {
		merged.Types[k] = v
	}
	for k, v := range override.Templates {
		merged.Templates[k] = v
	}
	return merged
}
