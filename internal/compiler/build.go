package compiler

import (
	"fmt"
	"sort"

	"github.com/structcc/structcc/internal/ir"
)

// reservedFileKey is the optional top-level entry carrying file-banner
// metadata rather than a type definition.
const reservedFileKey = "file"

// Build compiles a raw definition mapping into a resolved, validated schema.
//
// Definitions may reference names defined anywhere in the same set: a
// definition whose references are not yet available is deferred and retried
// once they are. A fixed point with no progress means the remaining
// definitions are cyclic or reference missing names; both are reported as
// UnresolvedReferenceError rather than looping.
//
// All errors found are returned (no fail-fast); the schema is nil when any
// error occurred. On success the schema and its registry are frozen.
func Build(raw map[string]any) (*ir.Schema, []error) {
	b := &builder{
		schema: &ir.Schema{
			Enums:      make(map[string]*ir.EnumDef),
			BitFields:  make(map[string]*ir.BitFieldDef),
			Structures: make(map[string]*ir.StructureDef),
			Groups:     make(map[string]*ir.GroupDef),
			Registry:   ir.NewRegistry(),
		},
		defined: make(map[string]bool),
	}

	b.stage(raw)
	b.resolveGroups()
	b.resolveDeferred()
	b.finalize()

	if len(b.errs) > 0 {
		return nil, b.errs
	}
	b.schema.Registry.Freeze()
	return b.schema, nil
}

type staged struct {
	name string
	kind ir.TypeKind
	m    rawMap
}

type builder struct {
	schema  *ir.Schema
	pending []staged
	defined map[string]bool // every definition name in the set, resolved or not
	errs    []error
}

func (b *builder) errorf(err error) { b.errs = append(b.errs, err) }

// stage sorts raw entries into staged definitions. Names are sorted so every
// diagnostic and every pass is deterministic regardless of map iteration.
func (b *builder) stage(raw map[string]any) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == reservedFileKey {
			b.stageFile(raw[name])
			continue
		}
		m, ok := asMap(raw[name])
		if !ok {
			b.errorf(&DefinitionError{Definition: name, Code: ErrCodeBadDefinition,
				Message: "definition must be a mapping"})
			continue
		}
		kind, ok := definitionKind(optString(m, "type"))
		if !ok {
			b.errorf(&DefinitionError{Definition: name, Field: "type", Code: ErrCodeBadDefinition,
				Message: fmt.Sprintf("unknown definition type %q", optString(m, "type"))})
			continue
		}
		b.defined[name] = true
		b.pending = append(b.pending, staged{name: name, kind: kind, m: m})
	}
}

func (b *builder) stageFile(v any) {
	m, ok := asMap(v)
	if !ok {
		b.errorf(&DefinitionError{Definition: reservedFileKey, Code: ErrCodeBadDefinition,
			Message: "file entry must be a mapping"})
		return
	}
	b.schema.File = ir.FileInfo{
		Brief:       optString(m, "brief"),
		Description: optString(m, "description"),
	}
}

func definitionKind(s string) (ir.TypeKind, bool) {
	switch s {
	case "enum":
		return ir.KindEnum, true
	case "bit_field":
		return ir.KindBitField, true
	case "structure", "struct":
		return ir.KindStructure, true
	case "group":
		return ir.KindGroup, true
	}
	return "", false
}

// resolveGroups registers every group before anything else: structures join
// groups by name, so the group must exist when its members resolve.
func (b *builder) resolveGroups() {
	rest := b.pending[:0]
	for _, s := range b.pending {
		if s.kind != ir.KindGroup {
			rest = append(rest, s)
			continue
		}
		b.buildGroup(s)
	}
	b.pending = rest
}

// resolveDeferred runs the fixed-point pass over enums, bit-fields, and
// structures. Anything left when no pass makes progress is unresolvable.
func (b *builder) resolveDeferred() {
	for len(b.pending) > 0 {
		progress := false
		rest := b.pending[:0]
		for _, s := range b.pending {
			if b.referencesSatisfied(s) {
				b.buildDefinition(s)
				progress = true
				continue
			}
			rest = append(rest, s)
		}
		b.pending = rest
		if !progress {
			b.reportUnresolved()
			return
		}
	}
}

func (b *builder) referencesSatisfied(s staged) bool {
	for _, ref := range b.references(s) {
		if !b.schema.Registry.Has(ref) {
			return false
		}
	}
	return true
}

// references lists the user-defined type names a staged definition needs
// before it can resolve. Built-in primitives never appear.
func (b *builder) references(s staged) []string {
	var refs []string
	members, _ := asList(s.m["members"])
	for _, raw := range members {
		m, ok := asMap(raw)
		if !ok {
			continue
		}
		t := optString(m, "type")
		switch t {
		case "", ir.TypeBool, ir.TypeInt, ir.TypeUint, ir.TypeBytes, ir.TypeStr, ir.TypeReserved:
			continue
		}
		refs = append(refs, t)
	}
	return refs
}

func (b *builder) buildDefinition(s staged) {
	switch s.kind {
	case ir.KindEnum:
		b.buildEnum(s)
	case ir.KindBitField:
		b.buildBitField(s)
	case ir.KindStructure:
		b.buildStructure(s)
	}
	b.schema.Order = append(b.schema.Order, s.name)
}

func (b *builder) register(d ir.TypeDescriptor) {
	if err := b.schema.Registry.Register(d); err != nil {
		b.errorf(&DefinitionError{Definition: d.Name, Code: ErrCodeDuplicateName, Message: err.Error()})
	}
}

func (b *builder) buildGroup(s staged) {
	size, ok := requireSize(s.m)
	if !ok || size < 1 {
		b.errorf(&DefinitionError{Definition: s.name, Field: "size", Code: ErrCodeBadDefinition,
			Message: "group requires a positive tag width in bytes"})
		return
	}
	offset, ok := optInt(s.m, "offset", 0)
	if !ok || offset < 0 {
		b.errorf(&DefinitionError{Definition: s.name, Field: "offset", Code: ErrCodeBadDefinition,
			Message: "offset must be a non-negative integer"})
		return
	}
	g := &ir.GroupDef{
		Name:        s.name,
		DisplayName: optString(s.m, "display_name"),
		Description: optString(s.m, "description"),
		ByteSize:    size,
		TagOffset:   int(offset),
	}
	b.schema.Groups[s.name] = g
	b.schema.Order = append(b.schema.Order, s.name)
	b.register(ir.TypeDescriptor{Name: s.name, Kind: ir.KindGroup, ByteSize: size})
}

func (b *builder) buildEnum(s staged) {
	size, ok := requireSize(s.m)
	if !ok || size < 1 || size > 8 {
		b.errorf(&DefinitionError{Definition: s.name, Field: "size", Code: ErrCodeBadDefinition,
			Message: "enum requires a size between 1 and 8 bytes"})
		return
	}
	rawValues, ok := asList(s.m["values"])
	if !ok || len(rawValues) == 0 {
		b.errorf(&DefinitionError{Definition: s.name, Field: "values", Code: ErrCodeBadDefinition,
			Message: "enum requires a non-empty values list"})
		return
	}

	signed, _ := asBool(s.m["signed"])
	e := &ir.EnumDef{
		Name:        s.name,
		DisplayName: optString(s.m, "display_name"),
		Description: optString(s.m, "description"),
		ByteSize:    size,
	}

	// Omitted values continue from the previous one, starting at 0.
	var counter int64
	labels := make(map[string]bool)
	for i, rv := range rawValues {
		vm, ok := asMap(rv)
		if !ok {
			b.errorf(&DefinitionError{Definition: s.name, Field: fmt.Sprintf("values[%d]", i),
				Code: ErrCodeBadDefinition, Message: "enum value must be a mapping"})
			return
		}
		label := optString(vm, "label")
		if label == "" {
			b.errorf(&DefinitionError{Definition: s.name, Field: fmt.Sprintf("values[%d].label", i),
				Code: ErrCodeBadDefinition, Message: "enum value requires a label"})
			return
		}
		if labels[label] {
			b.errorf(&DefinitionError{Definition: s.name, Field: fmt.Sprintf("values[%d].label", i),
				Code: ErrCodeDuplicateName, Message: fmt.Sprintf("duplicate label %q", label)})
			return
		}
		labels[label] = true
		if explicit, present := vm["value"]; present {
			n, ok := asInt(explicit)
			if !ok {
				b.errorf(&DefinitionError{Definition: s.name, Field: fmt.Sprintf("values[%d].value", i),
					Code: ErrCodeBadDefinition, Message: "enum value must be an integer"})
				return
			}
			counter = n
		}
		if counter < 0 {
			signed = true
		}
		e.Values = append(e.Values, ir.EnumValue{
			Label:       label,
			Value:       counter,
			DisplayName: optString(vm, "display_name"),
			Description: optString(vm, "description"),
		})
		counter++
	}
	e.Signed = signed

	lo, hi := integerRange(size, signed)
	for _, v := range e.Values {
		if v.Value < lo || v.Value > hi {
			b.errorf(&DefinitionError{Definition: s.name, Field: v.Label, Code: ErrCodeBadEnumValue,
				Message: fmt.Sprintf("value %d does not fit in %d byte(s) (range %d..%d)", v.Value, size, lo, hi)})
			return
		}
	}

	b.schema.Enums[s.name] = e
	b.register(ir.TypeDescriptor{Name: s.name, Kind: ir.KindEnum, ByteSize: size, Signed: signed})
}

func (b *builder) buildBitField(s staged) {
	size, ok := requireSize(s.m)
	if !ok || size < 1 || size > 8 {
		b.errorf(&DefinitionError{Definition: s.name, Field: "size", Code: ErrCodeBadDefinition,
			Message: "bit_field requires a size between 1 and 8 bytes"})
		return
	}
	rawMembers, ok := asList(s.m["members"])
	if !ok || len(rawMembers) == 0 {
		b.errorf(&DefinitionError{Definition: s.name, Field: "members", Code: ErrCodeBadDefinition,
			Message: "bit_field requires a non-empty members list"})
		return
	}

	bf := &ir.BitFieldDef{
		Name:        s.name,
		DisplayName: optString(s.m, "display_name"),
		Description: optString(s.m, "description"),
		ByteSize:    size,
	}

	nextStart := 0
	maxEnd := 0
	for i, rm := range rawMembers {
		mm, ok := asMap(rm)
		if !ok {
			b.errorf(&DefinitionError{Definition: s.name, Field: fmt.Sprintf("members[%d]", i),
				Code: ErrCodeBadDefinition, Message: "bit_field member must be a mapping"})
			return
		}
		member, ok := b.buildBitFieldMember(s.name, i, mm, nextStart)
		if !ok {
			return
		}
		nextStart = member.Start + member.Bits
		if nextStart > maxEnd {
			maxEnd = nextStart
		}
		bf.Members = append(bf.Members, member)
	}

	// Gaps between members are implicitly reserved; overlap is an author
	// mistake that would silently corrupt packed values.
	for i, a := range bf.Members {
		for _, c := range bf.Members[i+1:] {
			if a.Start < c.Start+c.Bits && c.Start < a.Start+a.Bits {
				b.errorf(&DefinitionError{Definition: s.name, Field: a.Name, Code: ErrCodeBitOverlap,
					Message: fmt.Sprintf("bit range [%d,%d) overlaps member %q [%d,%d)",
						a.Start, a.Start+a.Bits, c.Name, c.Start, c.Start+c.Bits)})
				return
			}
		}
	}

	if maxEnd > size*8 {
		b.errorf(&StructuralError{Definition: s.name, Expected: size * 8, Actual: maxEnd, Unit: "bits"})
		return
	}

	b.schema.BitFields[s.name] = bf
	b.register(ir.TypeDescriptor{Name: s.name, Kind: ir.KindBitField, ByteSize: size})
}

func (b *builder) buildBitFieldMember(def string, i int, mm rawMap, nextStart int) (ir.BitFieldMember, bool) {
	name := optString(mm, "name")
	if name == "" {
		b.errorf(&DefinitionError{Definition: def, Field: fmt.Sprintf("members[%d].name", i),
			Code: ErrCodeBadDefinition, Message: "bit_field member requires a name"})
		return ir.BitFieldMember{}, false
	}

	typeName := optString(mm, "type")
	if typeName == "" {
		typeName = ir.TypeUint
	}
	signed := false
	defaultBits := 1
	switch typeName {
	case ir.TypeInt:
		signed = true
	case ir.TypeUint, ir.TypeBool:
	default:
		e, ok := b.schema.Enums[typeName]
		if !ok {
			b.errorf(&DefinitionError{Definition: def, Field: fmt.Sprintf("members[%d].type", i),
				Code: ErrCodeBadDefinition,
				Message: fmt.Sprintf("bit_field member type must be int, uint, bool, or an enum; got %q", typeName)})
			return ir.BitFieldMember{}, false
		}
		signed = e.Signed
		defaultBits = enumBitsNeeded(e)
	}

	start, ok := optInt(mm, "start", int64(nextStart))
	if !ok || start < 0 {
		b.errorf(&DefinitionError{Definition: def, Field: fmt.Sprintf("members[%d].start", i),
			Code: ErrCodeBadDefinition, Message: "start must be a non-negative integer"})
		return ir.BitFieldMember{}, false
	}
	bits, ok := optInt(mm, "bits", int64(defaultBits))
	if !ok || bits < 1 || bits > 64 {
		b.errorf(&DefinitionError{Definition: def, Field: fmt.Sprintf("members[%d].bits", i),
			Code: ErrCodeBadDefinition, Message: "bits must be between 1 and 64"})
		return ir.BitFieldMember{}, false
	}

	return ir.BitFieldMember{
		Name:        name,
		Start:       int(start),
		Bits:        int(bits),
		Type:        typeName,
		Signed:      signed,
		Description: optString(mm, "description"),
	}, true
}

// enumBitsNeeded returns the narrowest bit width that represents every value
// of an enum, used as the default width for enum-typed bit-field members.
func enumBitsNeeded(e *ir.EnumDef) int {
	var lo, hi int64
	for _, v := range e.Values {
		if v.Value < lo {
			lo = v.Value
		}
		if v.Value > hi {
			hi = v.Value
		}
	}
	bits := 1
	for ; bits < 64; bits++ {
		min, max := bitRange(bits, e.Signed)
		if lo >= min && hi <= max {
			break
		}
	}
	return bits
}

func (b *builder) buildStructure(s staged) {
	size, ok := requireSize(s.m)
	if !ok || size < 0 {
		b.errorf(&DefinitionError{Definition: s.name, Field: "size", Code: ErrCodeBadDefinition,
			Message: "structure requires a non-negative size in bytes"})
		return
	}

	st := &ir.StructureDef{
		Name:        s.name,
		DisplayName: optString(s.m, "display_name"),
		Description: optString(s.m, "description"),
		ByteSize:    size,
	}

	rawMembers, _ := asList(s.m["members"])
	sum := 0
	for i, rm := range rawMembers {
		mm, ok := asMap(rm)
		if !ok {
			b.errorf(&DefinitionError{Definition: s.name, Field: fmt.Sprintf("members[%d]", i),
				Code: ErrCodeBadDefinition, Message: "structure member must be a mapping"})
			return
		}
		member, ok := b.buildStructMember(s.name, i, mm)
		if !ok {
			return
		}
		sum += member.ByteSize
		st.Members = append(st.Members, member)
	}

	if sum != size {
		b.errorf(&StructuralError{Definition: s.name, Expected: size, Actual: sum, Unit: "bytes"})
		return
	}

	if !b.joinGroups(st, s.m) {
		return
	}

	b.schema.Structures[s.name] = st
	b.register(ir.TypeDescriptor{Name: s.name, Kind: ir.KindStructure, ByteSize: size})
}

func (b *builder) buildStructMember(def string, i int, mm rawMap) (ir.StructMember, bool) {
	name := optString(mm, "name")
	if name == "" {
		b.errorf(&DefinitionError{Definition: def, Field: fmt.Sprintf("members[%d].name", i),
			Code: ErrCodeBadDefinition, Message: "structure member requires a name"})
		return ir.StructMember{}, false
	}
	typeName := optString(mm, "type")
	if typeName == "" {
		b.errorf(&DefinitionError{Definition: def, Field: fmt.Sprintf("members[%d].type", i),
			Code: ErrCodeBadDefinition, Message: "structure member requires a type"})
		return ir.StructMember{}, false
	}

	explicit, hasExplicit := int64(0), false
	if v, present := mm["size"]; present {
		n, ok := asInt(v)
		if !ok || n < 0 {
			b.errorf(&DefinitionError{Definition: def, Field: fmt.Sprintf("members[%d].size", i),
				Code: ErrCodeBadDefinition, Message: "member size must be a non-negative integer"})
			return ir.StructMember{}, false
		}
		explicit, hasExplicit = n, true
	}

	member := ir.StructMember{
		Name:        name,
		Type:        typeName,
		Description: optString(mm, "description"),
	}

	switch typeName {
	case ir.TypeInt, ir.TypeUint:
		if !hasExplicit || explicit < 1 || explicit > 8 {
			b.errorf(&DefinitionError{Definition: def, Field: name, Code: ErrCodeBadDefinition,
				Message: fmt.Sprintf("%s member requires an explicit size between 1 and 8 bytes", typeName)})
			return ir.StructMember{}, false
		}
		member.ByteSize = int(explicit)
	case ir.TypeBool:
		member.ByteSize = 1
		if hasExplicit && explicit != 1 {
			b.errorf(&DefinitionError{Definition: def, Field: name, Code: ErrCodeBadDefinition,
				Message: "bool members are 1 byte"})
			return ir.StructMember{}, false
		}
	case ir.TypeBytes, ir.TypeStr, ir.TypeReserved:
		if !hasExplicit {
			b.errorf(&DefinitionError{Definition: def, Field: name, Code: ErrCodeBadDefinition,
				Message: fmt.Sprintf("%s member requires an explicit size", typeName)})
			return ir.StructMember{}, false
		}
		member.ByteSize = int(explicit)
	default:
		if g, isGroup := b.schema.Groups[typeName]; isGroup {
			// A group's wire width depends on its widest variant, which may
			// not have resolved yet. The author declares the width here; the
			// finalize pass checks it against the computed size.
			if !hasExplicit {
				b.errorf(&DefinitionError{Definition: def, Field: name, Code: ErrCodeBadDefinition,
					Message: fmt.Sprintf("member of group type %q requires an explicit size", g.Name)})
				return ir.StructMember{}, false
			}
			member.ByteSize = int(explicit)
			break
		}
		d, err := b.schema.Registry.Resolve(typeName)
		if err != nil {
			b.errorf(&DefinitionError{Definition: def, Field: name, Code: ErrCodeBadDefinition,
				Message: err.Error()})
			return ir.StructMember{}, false
		}
		if hasExplicit && int(explicit) != d.ByteSize {
			b.errorf(&DefinitionError{Definition: def, Field: name, Code: ErrCodeSizeMismatch,
				Message: fmt.Sprintf("declared size %d but type %q is %d byte(s)", explicit, typeName, d.ByteSize)})
			return ir.StructMember{}, false
		}
		member.ByteSize = d.ByteSize
	}

	return member, true
}

// joinGroups records this structure's tag under each group it declares.
func (b *builder) joinGroups(st *ir.StructureDef, m rawMap) bool {
	rawGroups, present := m["groups"]
	if !present {
		return true
	}
	gm, ok := asMap(rawGroups)
	if !ok {
		b.errorf(&DefinitionError{Definition: st.Name, Field: "groups", Code: ErrCodeBadDefinition,
			Message: "groups must be a mapping of group name to tag association"})
		return false
	}

	groupNames := make([]string, 0, len(gm))
	for name := range gm {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	for _, groupName := range groupNames {
		g, exists := b.schema.Groups[groupName]
		if !exists {
			b.errorf(&DefinitionError{Definition: st.Name, Field: "groups." + groupName,
				Code: ErrCodeBadDefinition, Message: fmt.Sprintf("group %q is not defined", groupName)})
			return false
		}
		assoc, ok := asMap(gm[groupName])
		if !ok {
			b.errorf(&DefinitionError{Definition: st.Name, Field: "groups." + groupName,
				Code: ErrCodeBadDefinition, Message: "tag association must be a mapping"})
			return false
		}
		tag, ok := asInt(assoc["value"])
		if !ok {
			b.errorf(&DefinitionError{Definition: st.Name, Field: "groups." + groupName + ".value",
				Code: ErrCodeBadDefinition, Message: "tag association requires an integer value"})
			return false
		}
		lo, hi := integerRange(g.ByteSize, false)
		if tag < lo || tag > hi {
			b.errorf(&DefinitionError{Definition: st.Name, Field: "groups." + groupName + ".value",
				Code: ErrCodeBadEnumValue,
				Message: fmt.Sprintf("tag %d does not fit the group's %d byte tag field", tag, g.ByteSize)})
			return false
		}
		if existing, taken := g.VariantForTag(tag); taken {
			b.errorf(&DuplicateTagError{Group: groupName, Tag: tag, First: existing.Structure, Second: st.Name})
			return false
		}
		variantName := optString(assoc, "name")
		if variantName == "" {
			variantName = st.Name
		}
		g.Variants = append(g.Variants, ir.GroupVariant{Tag: tag, Structure: st.Name, Name: variantName})
		st.Groups = append(st.Groups, ir.GroupTag{Group: groupName, Value: tag, Name: variantName})
	}
	return true
}

// finalize sorts group variants by tag and checks declared group-member
// widths now that every variant is known.
func (b *builder) finalize() {
	if len(b.errs) > 0 {
		return
	}
	for _, g := range b.schema.Groups {
		sort.Slice(g.Variants, func(i, j int) bool { return g.Variants[i].Tag < g.Variants[j].Tag })
	}
	for _, name := range b.schema.Order {
		st, ok := b.schema.Structures[name]
		if !ok {
			continue
		}
		for _, m := range st.Members {
			if _, isGroup := b.schema.Groups[m.Type]; !isGroup {
				continue
			}
			want, _ := b.schema.SizeOf(m.Type)
			if m.ByteSize != want {
				b.errorf(&DefinitionError{Definition: name, Field: m.Name, Code: ErrCodeSizeMismatch,
					Message: fmt.Sprintf("declared size %d but group %q occupies %d byte(s)", m.ByteSize, m.Type, want)})
			}
		}
	}
}

func requireSize(m rawMap) (int, bool) {
	v, present := m["size"]
	if !present {
		return 0, false
	}
	n, ok := asInt(v)
	if !ok {
		return 0, false
	}
	return int(n), true
}

// integerRange returns the representable range of an n-byte integer.
func integerRange(byteSize int, signed bool) (int64, int64) {
	return bitRange(byteSize*8, signed)
}

// bitRange returns the representable range of a b-bit integer.
func bitRange(bits int, signed bool) (int64, int64) {
	if bits >= 64 {
		if signed {
			return -1 << 63, 1<<63 - 1
		}
		// Unsigned 64-bit values above MaxInt64 are not representable in the
		// int64 value model; the codec rejects them at encode time.
		return 0, 1<<63 - 1
	}
	if signed {
		return -1 << (bits - 1), 1<<(bits-1) - 1
	}
	return 0, 1<<bits - 1
}
