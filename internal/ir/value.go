package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind enumerates the attribute value types an MHEG variable can hold.
type Kind int

const (
	KindBool Kind = iota + 1
	KindInt
	KindOctetString
	KindObjectRef
	KindContentRef
)

var kindNames = map[Kind]string{
	KindBool:        "boolean",
	KindInt:         "integer",
	KindOctetString: "octet_string",
	KindObjectRef:   "object_ref",
	KindContentRef:  "content_ref",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a sealed interface over MHEG attribute values.
// Only Bool, Int, OctetString, ObjectRef and ContentRef implement it.
type Value interface {
	Kind() Kind
	value() // Sealed
}

// Bool is a boolean attribute value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) value()     {}

// Int is an integer attribute value.
type Int int64

func (Int) Kind() Kind { return KindInt }
func (Int) value()     {}

// OctetString is a byte string attribute value. Equality is bytewise.
type OctetString string

func (OctetString) Kind() Kind { return KindOctetString }
func (OctetString) value()     {}

// ObjectRef is an object reference attribute value.
type ObjectRef ObjectReference

func (ObjectRef) Kind() Kind { return KindObjectRef }
func (ObjectRef) value()     {}

// ContentRef names a content file.
type ContentRef string

func (ContentRef) Kind() Kind { return KindContentRef }
func (ContentRef) value()     {}

// Equal reports whether a and b are the same variant with the same value.
// Object references compare field by field; callers that need resolution
// of relative group ids must canonicalize first.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return a == b
}

// Zero returns the zero value for k.
func Zero(k Kind) Value {
	switch k {
	case KindBool:
		return Bool(false)
	case KindInt:
		return Int(0)
	case KindOctetString:
		return OctetString("")
	case KindObjectRef:
		return ObjectRef{}
	case KindContentRef:
		return ContentRef("")
	default:
		return nil
	}
}

// FormatValue renders v for logs and traces.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case nil:
		return "<none>"
	case Bool:
		return fmt.Sprintf("%t", bool(val))
	case Int:
		return fmt.Sprintf("%d", int64(val))
	case OctetString:
		return fmt.Sprintf("%q", string(val))
	case ObjectRef:
		return ObjectReference(val).String()
	case ContentRef:
		return fmt.Sprintf("content:%s", string(val))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToAny converts v into the plain form used by traces and canonical JSON.
// Scalars map to bool, int64 and string; references map to objects.
func ToAny(v Value) any {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case OctetString:
		return string(val)
	case ObjectRef:
		return map[string]any{"group": string(val.Group), "number": int64(val.Number)}
	case ContentRef:
		return map[string]any{"content": string(val)}
	default:
		return nil
	}
}

// taggedValue is the lossless JSON form of a Value: exactly one field is set.
type taggedValue struct {
	Bool    *bool            `json:"bool,omitempty"`
	Int     *int64           `json:"int,omitempty"`
	Octets  *string          `json:"octets,omitempty"`
	Ref     *ObjectReference `json:"ref,omitempty"`
	Content *string          `json:"content,omitempty"`
}

// MarshalValues serializes a value list in tagged JSON form.
// Used for persistent records, where the variant must survive a round trip.
func MarshalValues(vals []Value) ([]byte, error) {
	out := make([]taggedValue, len(vals))
	for i, v := range vals {
		switch val := v.(type) {
		case Bool:
			b := bool(val)
			out[i].Bool = &b
		case Int:
			n := int64(val)
			out[i].Int = &n
		case OctetString:
			s := string(val)
			out[i].Octets = &s
		case ObjectRef:
			r := ObjectReference(val)
			out[i].Ref = &r
		case ContentRef:
			s := string(val)
			out[i].Content = &s
		default:
			return nil, fmt.Errorf("value[%d]: unsupported type %T", i, v)
		}
	}
	return json.Marshal(out)
}

// UnmarshalValues parses the output of MarshalValues.
func UnmarshalValues(data []byte) ([]Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var raw []taggedValue
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	vals := make([]Value, len(raw))
	for i, tv := range raw {
		switch {
		case tv.Bool != nil:
			vals[i] = Bool(*tv.Bool)
		case tv.Int != nil:
			vals[i] = Int(*tv.Int)
		case tv.Octets != nil:
			vals[i] = OctetString(*tv.Octets)
		case tv.Ref != nil:
			vals[i] = ObjectRef(*tv.Ref)
		case tv.Content != nil:
			vals[i] = ContentRef(*tv.Content)
		default:
			return nil, fmt.Errorf("value[%d]: no variant set", i)
		}
	}
	return vals, nil
}
