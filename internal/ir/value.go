package ir

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Value is a sealed interface over every shape a decoded buffer can take.
// Only Int, Bool, Bytes, Text, Sequence, Mapping, and Unrecognized implement
// it. Every consumer type-switches over exactly this set.
type Value interface {
	value() // sealed
}

// Int is an integer value. Always int64, never a float.
type Int int64

func (Int) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// Bytes is a raw byte value. Its JSON face is a lowercase hex string.
type Bytes []byte

func (Bytes) value() {}

// Text is a string value.
type Text string

func (Text) value() {}

// Sequence is an ordered list of values.
type Sequence []Value

func (Sequence) value() {}

// Field is one named entry of a Mapping.
type Field struct {
	Name  string
	Value Value
}

// Mapping is an order-preserving map of names to values. Decode emits fields
// in member declaration order, and JSON round-trips keep that order.
type Mapping []Field

func (Mapping) value() {}

// Unrecognized is the fail-soft decode marker: the raw bytes that could not
// be matched to a known layout, plus the reason. Its JSON shape is
// distinguishable from every successful decode.
type Unrecognized struct {
	Raw    []byte
	Reason string
}

func (*Unrecognized) value() {}

// IsUnrecognized reports whether a decode degraded to the fail-soft marker.
// Callers that need strict decode failure check this explicitly.
func IsUnrecognized(v Value) bool {
	_, ok := v.(*Unrecognized)
	return ok
}

// Get returns the value for a field name.
func (m Mapping) Get(name string) (Value, bool) {
	for _, f := range m {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces an existing field or appends a new one, preserving order.
func (m Mapping) Set(name string, v Value) Mapping {
	for i, f := range m {
		if f.Name == name {
			m[i].Value = v
			return m
		}
	}
	return append(m, Field{Name: name, Value: v})
}

// MarshalValue serializes a Value to JSON. Mappings keep field order.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Int:
		return json.Marshal(int64(val))
	case Bool:
		return json.Marshal(bool(val))
	case Bytes:
		return json.Marshal(hex.EncodeToString(val))
	case Text:
		return json.Marshal(string(val))
	case Sequence:
		return marshalSequence(val)
	case Mapping:
		return marshalMapping(val)
	case *Unrecognized:
		return json.Marshal(map[string]any{
			"unrecognized": map[string]any{
				"raw":    hex.EncodeToString(val.Raw),
				"length": len(val.Raw),
				"reason": val.Reason,
			},
		})
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

func marshalSequence(s Sequence) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("sequence[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalMapping(m Mapping) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := MarshalValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler so Mappings embedded in larger
// payloads (CLI envelopes) keep their field order.
func (m Mapping) MarshalJSON() ([]byte, error) { return marshalMapping(m) }

// MarshalJSON implements json.Marshaler for sequences of Values.
func (s Sequence) MarshalJSON() ([]byte, error) { return marshalSequence(s) }

// MarshalJSON implements json.Marshaler for the fail-soft marker.
func (u *Unrecognized) MarshalJSON() ([]byte, error) { return MarshalValue(u) }

// UnmarshalValue parses JSON into a Value, preserving object field order.
// Floats and nulls are rejected: the wire model has no representation for
// either, and silently coercing them would corrupt round-trips.
func UnmarshalValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeMapping(dec)
		case '[':
			return decodeSequence(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return Text(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		s := t.String()
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are not representable: %s", s)
		}
		n, err := t.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return Int(n), nil
	case nil:
		return nil, fmt.Errorf("null is not representable: only int, bool, string, array, object allowed")
	default:
		return nil, fmt.Errorf("unsupported JSON token %T", tok)
	}
}

func decodeMapping(dec *json.Decoder) (Value, error) {
	var m Mapping
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("object key %q: %w", key, err)
		}
		m = append(m, Field{Name: key, Value: v})
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return nil, err
	}
	if m == nil {
		m = Mapping{}
	}
	return m, nil
}

func decodeSequence(dec *json.Decoder) (Value, error) {
	var s Sequence
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", len(s), err)
		}
		s = append(s, v)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return nil, err
	}
	if s == nil {
		s = Sequence{}
	}
	return s, nil
}
