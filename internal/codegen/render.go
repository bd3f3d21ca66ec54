package codegen

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/structcc/structcc/internal/ir"
)

// kindTemplates maps each definition kind to its template name. Header and
// footer are optional; the four kind templates are required.
var kindTemplates = map[ir.TypeKind]string{
	ir.KindEnum:      "enum",
	ir.KindBitField:  "bit_field",
	ir.KindStructure: "structure",
	ir.KindGroup:     "group",
}

// Generator renders a flattened model with one template set.
type Generator struct {
	set  *Set
	tmpl *template.Template
}

// NewGenerator parses every template in the set. Parse errors surface here,
// before any schema is touched.
func NewGenerator(set *Set) (*Generator, error) {
	g := &Generator{set: set}

	root := template.New(set.Name).Funcs(template.FuncMap{
		"mul":      func(a, b int) int { return a * b },
		"upper":    strings.ToUpper,
		"hex":      func(v uint64) string { return fmt.Sprintf("%#x", v) },
		"pascal":   pascalCase,
		"typename": g.typename,
	})
	for name, body := range set.Templates {
		if _, err := root.New(name).Parse(body); err != nil {
			return nil, fmt.Errorf("template %q: %w", name, err)
		}
	}
	for _, name := range kindTemplates {
		if root.Lookup(name) == nil {
			return nil, fmt.Errorf("template set %q has no %q template", set.Name, name)
		}
	}
	g.tmpl = root
	return g, nil
}

// FileName returns the output file name for a source stem.
func (g *Generator) FileName(source string) string {
	return source + g.set.Extension
}

// Render produces the full generated file for a model: header, every
// definition through its kind's template, then the footer. Blocks are joined
// with a blank line.
func (g *Generator) Render(m *Model) ([]byte, error) {
	var blocks []string

	if g.tmpl.Lookup("header") != nil {
		block, err := g.execute("header", m)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	for _, def := range m.Definitions {
		name := kindTemplates[def.Kind]
		var data any
		switch def.Kind {
		case ir.KindEnum:
			data = def.Enum
		case ir.KindBitField:
			data = def.BitField
		case ir.KindStructure:
			data = def.Structure
		case ir.KindGroup:
			data = def.Group
		}
		block, err := g.execute(name, data)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	if g.tmpl.Lookup("footer") != nil {
		block, err := g.execute("footer", m)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return []byte(strings.Join(blocks, "\n")), nil
}

func (g *Generator) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %q: %w", name, err)
	}
	return buf.String(), nil
}

// typename maps a primitive member type to the target language's type via the
// set's type table. Integer types key by width: a 2-byte uint looks up
// "uint16". Unknown keys are template-set defects and fail the render.
func (g *Generator) typename(typ string, byteSize int) (string, error) {
	key := typ
	switch typ {
	case ir.TypeInt, ir.TypeUint:
		key = fmt.Sprintf("%s%d", typ, byteSize*8)
	}
	name, ok := g.set.Types[key]
	if !ok {
		return "", fmt.Errorf("template set %q has no type mapping for %q", g.set.Name, key)
	}
	return name, nil
}

// pascalCase converts a snake_case identifier to PascalCase.
func pascalCase(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		parts[i] = titleCaser.String(p)
	}
	return strings.Join(parts, "")
}
