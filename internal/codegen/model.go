package codegen

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/structcc/structcc/internal/ir"
)

// Model is the flattened, render-ready view of a schema. Flatten resolves
// everything a template might need up front so template bodies stay pure
// formatting: masks are precomputed, display names are always filled, and
// group tag enums and unions are synthesized as first-class definitions.
type Model struct {
	Source      string // definition file stem, used for guards and banners
	Version     string
	File        ir.FileInfo
	Definitions []Definition
}

// Definition is one renderable item. Exactly one of the pointers is set,
// matching Kind.
type Definition struct {
	Kind      ir.TypeKind
	Enum      *EnumModel
	BitField  *BitFieldModel
	Structure *StructureModel
	Group     *GroupModel
}

type EnumModel struct {
	Name        string
	Display     string
	Description string
	ByteSize    int
	Signed      bool
	Values      []EnumValueModel
}

type EnumValueModel struct {
	Label       string
	Value       int64
	Display     string
	Description string
}

type BitFieldModel struct {
	Name        string
	Display     string
	Description string
	ByteSize    int
	Members     []BitFieldMemberModel
}

type BitFieldMemberModel struct {
	Name        string
	Start       int
	Bits        int
	Mask        uint64 // ((1<<Bits)-1) << Start
	Type        string
	Signed      bool
	Description string
}

type StructureModel struct {
	Name        string
	Display     string
	Description string
	ByteSize    int
	Members     []StructMemberModel
}

type StructMemberModel struct {
	Name        string
	Type        string
	ByteSize    int
	IsComposite bool // type is another definition in this schema
	IsArray     bool // bytes, str, reserved
	Description string
}

type GroupModel struct {
	Name        string
	Display     string
	Description string
	TagSize     int
	Variants    []GroupVariantModel
}

type GroupVariantModel struct {
	Tag       int64
	Structure string
	Name      string
}

var titleCaser = cases.Title(language.Und)

// displayName returns the explicit display name, or a title-cased fallback
// derived from the snake_case identifier.
func displayName(explicit, name string) string {
	if explicit != "" {
		return explicit
	}
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// Flatten converts a resolved schema into a render model. Definitions keep
// declaration order except that groups move to the end: a generated union
// names its variant structures, which must already be defined in languages
// with definition-before-use rules.
func Flatten(schema *ir.Schema, source string) *Model {
	m := &Model{
		Source:  source,
		Version: ir.CompilerVersion,
		File:    schema.File,
	}

	var groups []Definition
	for _, name := range schema.Order {
		switch {
		case schema.Enums[name] != nil:
			m.Definitions = append(m.Definitions, Definition{Kind: ir.KindEnum, Enum: flattenEnum(schema.Enums[name])})
		case schema.BitFields[name] != nil:
			m.Definitions = append(m.Definitions, Definition{Kind: ir.KindBitField, BitField: flattenBitField(schema.BitFields[name])})
		case schema.Structures[name] != nil:
			m.Definitions = append(m.Definitions, Definition{Kind: ir.KindStructure, Structure: flattenStructure(schema, schema.Structures[name])})
		case schema.Groups[name] != nil:
			groups = append(groups, Definition{Kind: ir.KindGroup, Group: flattenGroup(schema.Groups[name])})
		}
	}
	m.Definitions = append(m.Definitions, groups...)
	return m
}

func flattenEnum(e *ir.EnumDef) *EnumModel {
	em := &EnumModel{
		Name:        e.Name,
		Display:     displayName(e.DisplayName, e.Name),
		Description: e.Description,
		ByteSize:    e.ByteSize,
		Signed:      e.Signed,
	}
	for _, v := range e.Values {
		em.Values = append(em.Values, EnumValueModel{
			Label:       v.Label,
			Value:       v.Value,
			Display:     displayName(v.DisplayName, v.Label),
			Description: v.Description,
		})
	}
	return em
}

func flattenBitField(bf *ir.BitFieldDef) *BitFieldModel {
	bm := &BitFieldModel{
		Name:        bf.Name,
		Display:     displayName(bf.DisplayName, bf.Name),
		Description: bf.Description,
		ByteSize:    bf.ByteSize,
	}
	for _, member := range bf.Members {
		bm.Members = append(bm.Members, BitFieldMemberModel{
			Name:        member.Name,
			Start:       member.Start,
			Bits:        member.Bits,
			Mask:        (uint64(1)<<uint(member.Bits) - 1) << uint(member.Start),
			Type:        member.Type,
			Signed:      member.Signed,
			Description: member.Description,
		})
	}
	return bm
}

func flattenStructure(schema *ir.Schema, st *ir.StructureDef) *StructureModel {
	sm := &StructureModel{
		Name:        st.Name,
		Display:     displayName(st.DisplayName, st.Name),
		Description: st.Description,
		ByteSize:    st.ByteSize,
	}
	for _, member := range st.Members {
		_, composite := schema.KindOf(member.Type)
		array := member.Type == ir.TypeBytes || member.Type == ir.TypeStr || member.Type == ir.TypeReserved
		sm.Members = append(sm.Members, StructMemberModel{
			Name:        member.Name,
			Type:        member.Type,
			ByteSize:    member.ByteSize,
			IsComposite: composite,
			IsArray:     array,
			Description: member.Description,
		})
	}
	return sm
}

func flattenGroup(g *ir.GroupDef) *GroupModel {
	gm := &GroupModel{
		Name:        g.Name,
		Display:     displayName(g.DisplayName, g.Name),
		Description: g.Description,
		TagSize:     g.ByteSize,
	}
	for _, v := range g.Variants {
		gm.Variants = append(gm.Variants, GroupVariantModel{Tag: v.Tag, Structure: v.Structure, Name: v.Name})
	}
	return gm
}
