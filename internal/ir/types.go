package ir

// TypeKind categorizes every resolvable type name. The set is closed:
// consumers switch over all five kinds.
type TypeKind string

const (
	KindPrimitive TypeKind = "primitive"
	KindEnum      TypeKind = "enum"
	KindBitField  TypeKind = "bit_field"
	KindStructure TypeKind = "structure"
	KindGroup     TypeKind = "group"
)

// TypeDescriptor identifies a primitive or named type. Immutable once
// constructed; owned by the Registry for the build's lifetime.
type TypeDescriptor struct {
	Name     string   `json:"name"`
	Kind     TypeKind `json:"kind"`
	ByteSize int      `json:"byte_size"` // 0 permitted for zero-length markers
	Signed   bool     `json:"signed"`    // integer types only
}

// EnumValue is a single labeled value of an enum. Value is always explicit
// here; the compiler resolves omitted values (previous + 1, starting at 0).
type EnumValue struct {
	Label       string `json:"label"`
	Value       int64  `json:"value"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// EnumDef is a named enumeration with a fixed wire width.
// Invariant: all values fit within ByteSize bytes, two's-complement when
// Signed.
type EnumDef struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name,omitempty"`
	Description string      `json:"description,omitempty"`
	ByteSize    int         `json:"byte_size"`
	Signed      bool        `json:"signed"`
	Values      []EnumValue `json:"values"`
}

// LabelFor returns the label for a numeric value, or false when the value has
// no label. Decoding fails open on false.
func (e *EnumDef) LabelFor(value int64) (string, bool) {
	for _, v := range e.Values {
		if v.Value == value {
			return v.Label, true
		}
	}
	return "", false
}

// ValueFor returns the numeric value for a label.
func (e *EnumDef) ValueFor(label string) (int64, bool) {
	for _, v := range e.Values {
		if v.Label == label {
			return v.Value, true
		}
	}
	return 0, false
}

// BitFieldMember is one named sub-field of a bit-field span. Start is the bit
// offset from the LSB of the span, 0-based. Invariant: member ranges
// [Start, Start+Bits) never overlap; gaps are implicitly reserved.
type BitFieldMember struct {
	Name        string `json:"name"`
	Start       int    `json:"start"`
	Bits        int    `json:"bits"` // >= 1
	Type        string `json:"type"` // "int", "uint", "bool", or an enum name
	Signed      bool   `json:"signed"`
	Description string `json:"description,omitempty"`
}

// BitFieldDef is a byte span subdivided into named sub-values.
// Invariant: ByteSize*8 >= max(Start+Bits) over all members, and ByteSize <= 8
// (the codec accumulates the span in a 64-bit word).
type BitFieldDef struct {
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name,omitempty"`
	Description string           `json:"description,omitempty"`
	ByteSize    int              `json:"byte_size"`
	Members     []BitFieldMember `json:"members"`
}

// StructMember is one member of a structure. ByteSize is resolved from the
// member's type unless the definition carries an explicit size; for composite
// members it always equals the referenced definition's size.
type StructMember struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	ByteSize    int    `json:"byte_size"`
	Description string `json:"description,omitempty"`
}

// GroupTag records a structure's membership in a group: the tag value that
// selects it and the short variant name it is known by within the group.
type GroupTag struct {
	Group string `json:"group"`
	Value int64  `json:"value"`
	Name  string `json:"name"`
}

// StructureDef is an ordered sequence of members with a declared total size.
// Invariant: ByteSize == sum of member ByteSize (validated at build time).
type StructureDef struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name,omitempty"`
	Description string         `json:"description,omitempty"`
	ByteSize    int            `json:"byte_size"`
	Members     []StructMember `json:"members"`
	Groups      []GroupTag     `json:"groups,omitempty"`
}

// GroupVariant is one (tag value -> structure) association of a group.
type GroupVariant struct {
	Tag       int64  `json:"tag"`
	Structure string `json:"structure"` // StructureDef name
	Name      string `json:"name"`      // variant name within the group
}

// GroupDef is a tagged union: a set of structures sharing a leading tag field
// of fixed width. TagOffset is the byte offset of the tag within the encoded
// buffer; almost always 0 (tag at the stream head).
// Invariant: tag values are unique within a group.
type GroupDef struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name,omitempty"`
	Description string         `json:"description,omitempty"`
	ByteSize    int            `json:"byte_size"` // width of the tag field
	TagOffset   int            `json:"tag_offset,omitempty"`
	Variants    []GroupVariant `json:"variants"`
}

// VariantForTag returns the variant selected by a tag value.
func (g *GroupDef) VariantForTag(tag int64) (GroupVariant, bool) {
	for _, v := range g.Variants {
		if v.Tag == tag {
			return v, true
		}
	}
	return GroupVariant{}, false
}

// VariantForStructure returns the variant that names the given structure.
func (g *GroupDef) VariantForStructure(name string) (GroupVariant, bool) {
	for _, v := range g.Variants {
		if v.Structure == name {
			return v, true
		}
	}
	return GroupVariant{}, false
}

// FileInfo is the optional top-level "file" entry of a definition set,
// rendered into generated file banners.
type FileInfo struct {
	Brief       string `json:"brief,omitempty"`
	Description string `json:"description,omitempty"`
}

// Schema is the fully resolved definition collection. Names are unique across
// all categories. Built once by the compiler, then immutable; safe for
// concurrent read-only use.
type Schema struct {
	File       FileInfo                 `json:"file"`
	Enums      map[string]*EnumDef      `json:"enums"`
	BitFields  map[string]*BitFieldDef  `json:"bit_fields"`
	Structures map[string]*StructureDef `json:"structures"`
	Groups     map[string]*GroupDef     `json:"groups"`
	Order      []string                 `json:"order"` // declaration order of all definitions
	Registry   *Registry                `json:"-"`
}

// KindOf reports the kind of a defined name, or false if the name is not
// defined in this schema.
func (s *Schema) KindOf(name string) (TypeKind, bool) {
	switch {
	case s.Enums[name] != nil:
		return KindEnum, true
	case s.BitFields[name] != nil:
		return KindBitField, true
	case s.Structures[name] != nil:
		return KindStructure, true
	case s.Groups[name] != nil:
		return KindGroup, true
	}
	return "", false
}

// SizeOf returns the wire size in bytes of a defined name.
func (s *Schema) SizeOf(name string) (int, bool) {
	switch {
	case s.Enums[name] != nil:
		return s.Enums[name].ByteSize, true
	case s.BitFields[name] != nil:
		return s.BitFields[name].ByteSize, true
	case s.Structures[name] != nil:
		return s.Structures[name].ByteSize, true
	case s.Groups[name] != nil:
		g := s.Groups[name]
		max := 0
		for _, v := range g.Variants {
			if st := s.Structures[v.Structure]; st != nil && st.ByteSize > max {
				max = st.ByteSize
			}
		}
		return g.ByteSize + max, true
	}
	return 0, false
}
