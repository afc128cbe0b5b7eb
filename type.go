package abiscope

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Kind discriminates the shapes a Type can take.
type Kind uint8

const (
	// ElementaryKind is a leaf type such as uint256, address or string.
	ElementaryKind Kind = iota

	// ArrayKind is a fixed or dynamic array of one element type.
	ArrayKind

	// TupleKind is an ordered list of named component types.
	TupleKind
)

func (k Kind) String() string {
	switch k {
	case ElementaryKind:
		return "elementary"
	case ArrayKind:
		return "array"
	case TupleKind:
		return "tuple"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Field is a named component of a tuple type.
type Field struct {
	Name string
	Type Type
}

// Type describes the shape of one ABI parameter.
// Type is immutable - constructors copy their inputs.
type Type struct {
	kind   Kind
	name   string // elementary name
	elem   *Type  // array element
	length int    // array length, -1 for dynamic arrays
	fields []Field
}

// ElementaryType creates a leaf type. The name is kept verbatim.
func ElementaryType(name string) Type {
	return Type{kind: ElementaryKind, name: name, length: -1}
}

// SliceOf creates a dynamic array type (T[]).
func SliceOf(elem Type) Type {
	e := elem
	return Type{kind: ArrayKind, elem: &e, length: -1}
}

// ArrayOf creates a fixed-length array type (T[n]).
func ArrayOf(elem Type, n int) Type {
	e := elem
	if n < 0 {
		n = 0
	}
	return Type{kind: ArrayKind, elem: &e, length: n}
}

// TupleOf creates a tuple type from its components.
func TupleOf(fields ...Field) Type {
	fs := make([]Field, len(fields))
	copy(fs, fields)
	return Type{kind: TupleKind, fields: fs, length: -1}
}

// Kind returns the shape of the type.
func (t Type) Kind() Kind {
	return t.kind
}

// Name returns the elementary type name, or "" for arrays and tuples.
func (t Type) Name() string {
	return t.name
}

// Elem returns the element type of an array.
func (t Type) Elem() (Type, bool) {
	if t.kind != ArrayKind || t.elem == nil {
		return Type{}, false
	}
	return *t.elem, true
}

// Length returns the fixed length of an array. The second result is false
// for dynamic arrays and non-array types.
func (t Type) Length() (int, bool) {
	if t.kind != ArrayKind || t.length < 0 {
		return 0, false
	}
	return t.length, true
}

// Fields returns a copy of the tuple components.
func (t Type) Fields() []Field {
	fs := make([]Field, len(t.fields))
	copy(fs, t.fields)
	return fs
}

// NumFields returns the number of tuple components.
func (t Type) NumFields() int {
	return len(t.fields)
}

// IntegerBits returns the bit width and signedness of a uintN/intN type.
func (t Type) IntegerBits() (bits int, signed bool, ok bool) {
	if t.kind != ElementaryKind {
		return 0, false, false
	}
	var digits string
	switch {
	case strings.HasPrefix(t.name, "uint"):
		digits = t.name[len("uint"):]
	case strings.HasPrefix(t.name, "int"):
		digits, signed = t.name[len("int"):], true
	default:
		return 0, false, false
	}
	if digits == "" {
		return 256, signed, true
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 || n > 256 || n%8 != 0 {
		return 0, false, false
	}
	return n, signed, true
}

// checkInteger rejects uintN/intN names whose width is not a multiple of 8
// in 8..256. go-ethereum accepts some of them.
func (t Type) checkInteger() error {
	if !strings.HasPrefix(t.name, "uint") && !strings.HasPrefix(t.name, "int") {
		return nil
	}
	if _, _, ok := t.IntegerBits(); !ok {
		return &TypeError{Type: t.name, Err: fmt.Errorf("%w: invalid integer width", ErrMalformedType)}
	}
	return nil
}

// Canonical renders the type's canonical signature, e.g. "(uint256,address[])[2]".
func (t Type) Canonical() (string, error) {
	var b strings.Builder
	if err := t.writeCanonical(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// String returns the canonical signature, or a placeholder for malformed types.
func (t Type) String() string {
	s, err := t.Canonical()
	if err != nil {
		return "<malformed>"
	}
	return s
}

func (t Type) writeCanonical(b *strings.Builder) error {
	switch t.kind {
	case ElementaryKind:
		if t.name == "" {
			return &TypeError{Err: fmt.Errorf("%w: elementary type without a name", ErrMalformedType)}
		}
		if err := t.checkInteger(); err != nil {
			return err
		}
		b.WriteString(t.name)
	case ArrayKind:
		if t.elem == nil {
			return &TypeError{Err: fmt.Errorf("%w: array without element type", ErrMalformedType)}
		}
		if err := t.elem.writeCanonical(b); err != nil {
			return err
		}
		b.WriteByte('[')
		if t.length >= 0 {
			b.WriteString(strconv.Itoa(t.length))
		}
		b.WriteByte(']')
	case TupleKind:
		if len(t.fields) == 0 {
			return &TypeError{Type: "tuple", Err: fmt.Errorf("%w: tuple without components", ErrMalformedType)}
		}
		b.WriteByte('(')
		for i, f := range t.fields {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := f.Type.writeCanonical(b); err != nil {
				return err
			}
		}
		b.WriteByte(')')
	default:
		return &TypeError{Err: fmt.Errorf("%w: unknown kind %s", ErrMalformedType, t.kind)}
	}
	return nil
}

// ParseType parses a canonical signature back into a Type.
// Tuple components parsed this way are unnamed.
func ParseType(s string) (Type, error) {
	p := &typeParser{src: strings.TrimSpace(s)}
	t, err := p.parse()
	if err != nil {
		return Type{}, &TypeError{Type: s, Err: err}
	}
	if p.pos != len(p.src) {
		return Type{}, &TypeError{Type: s, Err: fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformedType, p.src[p.pos:], p.pos)}
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) parse() (Type, error) {
	var base Type
	if p.peek() == '(' {
		p.pos++
		var fields []Field
		for {
			ft, err := p.parse()
			if err != nil {
				return Type{}, err
			}
			fields = append(fields, Field{Type: ft})
			c := p.peek()
			p.pos++
			if c == ')' {
				break
			}
			if c != ',' {
				return Type{}, fmt.Errorf("%w: expected ',' or ')' at offset %d", ErrMalformedType, p.pos-1)
			}
		}
		base = TupleOf(fields...)
	} else {
		start := p.pos
		for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
			p.pos++
		}
		if start == p.pos {
			return Type{}, fmt.Errorf("%w: expected type name at offset %d", ErrMalformedType, start)
		}
		base = ElementaryType(normalizeElementary(p.src[start:p.pos]))
	}
	return p.parseSuffixes(base)
}

func (p *typeParser) parseSuffixes(base Type) (Type, error) {
	for p.peek() == '[' {
		p.pos++
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		if p.peek() != ']' {
			return Type{}, fmt.Errorf("%w: unterminated array suffix at offset %d", ErrMalformedType, start-1)
		}
		digits := p.src[start:p.pos]
		p.pos++
		if digits == "" {
			base = SliceOf(base)
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return Type{}, fmt.Errorf("%w: array length %q", ErrMalformedType, digits)
		}
		base = ArrayOf(base, n)
	}
	return base, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// normalizeElementary expands the integer aliases so they hash the same as
// their explicit forms.
func normalizeElementary(name string) string {
	switch name {
	case "uint":
		return "uint256"
	case "int":
		return "int256"
	default:
		return name
	}
}

// FromMarshaling converts the JSON interface form of a parameter into a Type.
func FromMarshaling(m abi.ArgumentMarshaling) (Type, error) {
	base, suffix := m.Type, ""
	if i := strings.IndexByte(m.Type, '['); i >= 0 {
		base, suffix = m.Type[:i], m.Type[i:]
	}

	var t Type
	switch {
	case base == "tuple":
		if len(m.Components) == 0 {
			return Type{}, &TypeError{Type: m.Type, Err: fmt.Errorf("%w: tuple without components", ErrMalformedType)}
		}
		fields := make([]Field, len(m.Components))
		for i, c := range m.Components {
			ft, err := FromMarshaling(c)
			if err != nil {
				return Type{}, err
			}
			fields[i] = Field{Name: c.Name, Type: ft}
		}
		t = TupleOf(fields...)
	case base == "":
		return Type{}, &TypeError{Type: m.Type, Err: fmt.Errorf("%w: missing type name", ErrMalformedType)}
	default:
		t = ElementaryType(normalizeElementary(base))
	}

	p := &typeParser{src: suffix}
	t, err := p.parseSuffixes(t)
	if err != nil {
		return Type{}, &TypeError{Type: m.Type, Err: err}
	}
	if p.pos != len(suffix) {
		return Type{}, &TypeError{Type: m.Type, Err: fmt.Errorf("%w: bad array suffix %q", ErrMalformedType, suffix)}
	}
	return t, nil
}

// ABIType maps the descriptor onto go-ethereum's abi.Type.
func (t Type) ABIType() (abi.Type, error) {
	typ, components, err := t.marshaling()
	if err != nil {
		return abi.Type{}, err
	}
	at, err := abi.NewType(typ, "", components)
	if err != nil {
		return abi.Type{}, &TypeError{Type: t.String(), Err: err}
	}
	return at, nil
}

func (t Type) marshaling() (string, []abi.ArgumentMarshaling, error) {
	switch t.kind {
	case ElementaryKind:
		if t.name == "" {
			return "", nil, &TypeError{Err: fmt.Errorf("%w: elementary type without a name", ErrMalformedType)}
		}
		if err := t.checkInteger(); err != nil {
			return "", nil, err
		}
		return t.name, nil, nil
	case ArrayKind:
		if t.elem == nil {
			return "", nil, &TypeError{Err: fmt.Errorf("%w: array without element type", ErrMalformedType)}
		}
		typ, components, err := t.elem.marshaling()
		if err != nil {
			return "", nil, err
		}
		if t.length >= 0 {
			return typ + "[" + strconv.Itoa(t.length) + "]", components, nil
		}
		return typ + "[]", components, nil
	case TupleKind:
		if len(t.fields) == 0 {
			return "", nil, &TypeError{Type: "tuple", Err: fmt.Errorf("%w: tuple without components", ErrMalformedType)}
		}
		components := make([]abi.ArgumentMarshaling, len(t.fields))
		used := make(map[string]bool, len(t.fields))
		for i, f := range t.fields {
			typ, sub, err := f.Type.marshaling()
			if err != nil {
				return "", nil, err
			}
			components[i] = abi.ArgumentMarshaling{
				Name:       componentName(f.Name, i, used),
				Type:       typ,
				Components: sub,
			}
		}
		return "tuple", components, nil
	default:
		return "", nil, &TypeError{Err: fmt.Errorf("%w: unknown kind %s", ErrMalformedType, t.kind)}
	}
}

// componentName returns a name go-ethereum can turn into a distinct
// exported struct field. Decoding is positional, so replacing a name never
// changes results.
func componentName(name string, index int, used map[string]bool) string {
	if !validComponent(name) || used[abi.ToCamelCase(name)] {
		for n := index; ; n++ {
			name = fmt.Sprintf("field%d", n)
			if !used[abi.ToCamelCase(name)] {
				break
			}
		}
	}
	used[abi.ToCamelCase(name)] = true
	return name
}

func validComponent(name string) bool {
	camel := abi.ToCamelCase(name)
	if camel == "" {
		return false
	}
	for i, c := range camel {
		if i == 0 && !unicode.IsLetter(c) {
			return false
		}
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			return false
		}
	}
	return true
}
