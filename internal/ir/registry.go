package ir

import "fmt"

// Built-in primitive type names. Integer widths are never implied by the type
// name: every int/uint member carries its own size in bytes.
const (
	TypeBool     = "bool"
	TypeInt      = "int"
	TypeUint     = "uint"
	TypeBytes    = "bytes"
	TypeStr      = "str"
	TypeReserved = "reserved"
)

// UnknownTypeError reports a type name that is neither a built-in primitive
// nor a user definition in the schema being built.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type: %q", e.Name)
}

// Registry maps type names to descriptors. It is scoped to a single build
// invocation: the compiler registers user-defined types while resolving
// definitions, then freezes the registry before handing out the schema.
// A frozen registry is a pure lookup table with no side effects.
type Registry struct {
	types  map[string]TypeDescriptor
	frozen bool
}

// NewRegistry returns a registry holding only the built-in primitives.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]TypeDescriptor)}
	r.types[TypeBool] = TypeDescriptor{Name: TypeBool, Kind: KindPrimitive, ByteSize: 1}
	// int and uint carry no inherent width; members supply their own size.
	r.types[TypeInt] = TypeDescriptor{Name: TypeInt, Kind: KindPrimitive, Signed: true}
	r.types[TypeUint] = TypeDescriptor{Name: TypeUint, Kind: KindPrimitive}
	r.types[TypeBytes] = TypeDescriptor{Name: TypeBytes, Kind: KindPrimitive}
	r.types[TypeStr] = TypeDescriptor{Name: TypeStr, Kind: KindPrimitive}
	r.types[TypeReserved] = TypeDescriptor{Name: TypeReserved, Kind: KindPrimitive}
	return r
}

// Register adds a user-defined type. Panics if the registry is frozen; the
// compiler is the only writer and freezes before publishing the schema.
func (r *Registry) Register(d TypeDescriptor) error {
	if r.frozen {
		panic("ir: Register on frozen registry")
	}
	if _, exists := r.types[d.Name]; exists {
		return fmt.Errorf("type %q already registered", d.Name)
	}
	r.types[d.Name] = d
	return nil
}

// Freeze makes the registry immutable. Safe for concurrent reads afterwards.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Resolve looks up a type name. For int and uint the returned descriptor has
// ByteSize 0; the member's declared size supplies the width.
func (r *Registry) Resolve(name string) (TypeDescriptor, error) {
	d, ok := r.types[name]
	if !ok {
		return TypeDescriptor{}, &UnknownTypeError{Name: name}
	}
	return d, nil
}

// Has reports whether a name resolves without allocating an error.
func (r *Registry) Has(name string) bool {
	_, ok := r.types[name]
	return ok
}
