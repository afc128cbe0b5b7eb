package abiscope

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Value is a decoded, normalized value mirroring the shape of its Type.
// This is a sealed interface - only *Scalar, *Array and *Tuple implement it.
type Value interface {
	// isValue is unexported to seal the interface.
	isValue()

	// Kind returns the shape of the value.
	Kind() Kind

	// Interface returns a plain Go rendition: decimal strings for integers,
	// lower-case hex for addresses and bytes, []any for arrays and
	// map[string]any for tuples.
	Interface() any

	json.Marshaler
}

// ScalarKind identifies the normalized form held by a Scalar.
type ScalarKind uint8

const (
	IntegerScalar ScalarKind = iota
	AddressScalar
	BytesScalar
	StringScalar
	BoolScalar
)

// Scalar is a decoded elementary value.
type Scalar struct {
	typ  string
	kind ScalarKind
	num  *big.Int
	text string
	flag bool
}

func (*Scalar) isValue() {}

// Kind returns ElementaryKind.
func (*Scalar) Kind() Kind {
	return ElementaryKind
}

// Type returns the elementary type name the value was decoded as.
func (s *Scalar) Type() string {
	return s.typ
}

// ScalarKind returns the normalized form of the value.
func (s *Scalar) ScalarKind() ScalarKind {
	return s.kind
}

// BigInt returns a copy of an integer value, or nil.
func (s *Scalar) BigInt() *big.Int {
	if s.kind != IntegerScalar {
		return nil
	}
	return new(big.Int).Set(s.num)
}

// Bool returns the value of a boolean scalar.
func (s *Scalar) Bool() bool {
	return s.flag
}

// String renders the value: decimal for integers, hex for addresses and
// bytes, the text itself for strings.
func (s *Scalar) String() string {
	switch s.kind {
	case IntegerScalar:
		return s.num.String()
	case BoolScalar:
		return strconv.FormatBool(s.flag)
	default:
		return s.text
	}
}

// Interface returns the value as a string, or a bool for booleans.
func (s *Scalar) Interface() any {
	if s.kind == BoolScalar {
		return s.flag
	}
	return s.String()
}

// MarshalJSON encodes integers as decimal strings so no precision is lost.
func (s *Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Interface())
}

func newIntScalar(typ string, n *big.Int) *Scalar {
	return &Scalar{typ: typ, kind: IntegerScalar, num: new(big.Int).Set(n)}
}

func newAddressScalar(addr common.Address) *Scalar {
	return &Scalar{typ: "address", kind: AddressScalar, text: strings.ToLower(addr.Hex())}
}

func newBytesScalar(typ string, b []byte) *Scalar {
	return &Scalar{typ: typ, kind: BytesScalar, text: hexutil.Encode(b)}
}

func newStringScalar(s string) *Scalar {
	return &Scalar{typ: "string", kind: StringScalar, text: s}
}

func newBoolScalar(b bool) *Scalar {
	return &Scalar{typ: "bool", kind: BoolScalar, flag: b}
}

// Array is a decoded fixed or dynamic array.
type Array struct {
	Elems []Value
}

func (*Array) isValue() {}

// Kind returns ArrayKind.
func (*Array) Kind() Kind {
	return ArrayKind
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.Elems)
}

// Interface returns the elements as []any.
func (a *Array) Interface() any {
	out := make([]any, len(a.Elems))
	for i, e := range a.Elems {
		out[i] = e.Interface()
	}
	return out
}

// MarshalJSON encodes the array as a JSON array.
func (a *Array) MarshalJSON() ([]byte, error) {
	if a.Elems == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.Elems)
}

// NamedValue is one field of a decoded tuple, call or log.
type NamedValue struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value Value  `json:"value"`
}

// Tuple is a decoded tuple, or the argument list of a call.
type Tuple struct {
	Fields []NamedValue
}

func (*Tuple) isValue() {}

// Kind returns TupleKind.
func (*Tuple) Kind() Kind {
	return TupleKind
}

// Get returns the first field with the given name.
func (t *Tuple) Get(name string) (Value, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// At returns the field at position i.
func (t *Tuple) At(i int) Value {
	if i < 0 || i >= len(t.Fields) {
		return nil
	}
	return t.Fields[i].Value
}

// Values returns the field values in declaration order.
func (t *Tuple) Values() []Value {
	out := make([]Value, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.Value
	}
	return out
}

// Interface returns the fields as a map keyed by fieldKey.
func (t *Tuple) Interface() any {
	out := make(map[string]any, len(t.Fields))
	for i, f := range t.Fields {
		out[fieldKey(f.Name, i)] = f.Value.Interface()
	}
	return out
}

// MarshalJSON encodes the tuple as an object whose keys keep declaration order.
func (t *Tuple) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range t.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fieldKey(f.Name, i))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// fieldKey names a tuple field, falling back to its position when unnamed.
func fieldKey(name string, i int) string {
	if name == "" {
		return strconv.Itoa(i)
	}
	return name
}
