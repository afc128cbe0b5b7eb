package abiscope

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// EntryKind identifies what an interface entry describes.
type EntryKind uint8

const (
	// Function entries are callable and keyed by a 4-byte selector.
	Function EntryKind = iota

	// Event entries describe logs and are keyed by a 32-byte topic.
	Event

	// CustomError entries describe custom revert errors (4-byte selector).
	CustomError

	// Constructor entries have no selector.
	Constructor

	// Fallback entries have no selector.
	Fallback

	// Receive entries have no selector.
	Receive
)

var entryKindNames = map[EntryKind]string{
	Function:    "function",
	Event:       "event",
	CustomError: "error",
	Constructor: "constructor",
	Fallback:    "fallback",
	Receive:     "receive",
}

func (k EntryKind) String() string {
	if s, ok := entryKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Mutability is the declared state mutability of a function.
type Mutability uint8

const (
	Nonpayable Mutability = iota
	Payable
	View
	Pure
)

func (m Mutability) String() string {
	switch m {
	case Payable:
		return "payable"
	case View:
		return "view"
	case Pure:
		return "pure"
	default:
		return "nonpayable"
	}
}

// Param is one input or output of an interface entry.
// Indexed is only meaningful for event inputs.
type Param struct {
	Name    string
	Type    Type
	Indexed bool
}

// Entry is one element of an interface descriptor.
type Entry struct {
	Name       string
	Kind       EntryKind
	Inputs     []Param
	Outputs    []Param
	Mutability Mutability
	Anonymous  bool
}

// Signature renders "name(type1,type2,...)" from the canonical input types.
func (e Entry) Signature() (string, error) {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte('(')
	for i, in := range e.Inputs {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := in.Type.writeCanonical(&b); err != nil {
			return "", err
		}
	}
	b.WriteByte(')')
	return b.String(), nil
}

// IsConstant reports whether calling the entry cannot modify state.
func (e Entry) IsConstant() bool {
	return e.Mutability == View || e.Mutability == Pure
}

// IsPayable reports whether the entry accepts value.
func (e Entry) IsPayable() bool {
	return e.Mutability == Payable
}

// clone deep-copies the parameter lists. Types are immutable and shared.
func (e Entry) clone() Entry {
	c := e
	c.Inputs = append([]Param(nil), e.Inputs...)
	c.Outputs = append([]Param(nil), e.Outputs...)
	return c
}

// indexedInputs splits the inputs into the topic-encoded and the
// data-encoded subsequences, both in declaration order.
func (e Entry) indexedInputs() (indexed, nonIndexed []int) {
	for i, in := range e.Inputs {
		if in.Indexed {
			indexed = append(indexed, i)
		} else {
			nonIndexed = append(nonIndexed, i)
		}
	}
	return indexed, nonIndexed
}

// jsonEntry is the wire form of one interface entry.
type jsonEntry struct {
	Type            string                   `json:"type"`
	Name            string                   `json:"name"`
	Inputs          []abi.ArgumentMarshaling `json:"inputs"`
	Outputs         []abi.ArgumentMarshaling `json:"outputs"`
	StateMutability string                   `json:"stateMutability"`
	Constant        bool                     `json:"constant"`
	Payable         bool                     `json:"payable"`
	Anonymous       bool                     `json:"anonymous"`
}

// ParseInterface decodes a JSON interface descriptor.
func ParseInterface(data []byte) ([]Entry, error) {
	var raw []jsonEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterface, err)
	}

	entries := make([]Entry, 0, len(raw))
	for i, r := range raw {
		e, err := r.entry()
		if err != nil {
			name := r.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, &InterfaceError{Entry: name, Err: err}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ParseInterfaceReader is like ParseInterface but reads from r.
func ParseInterfaceReader(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseInterface(data)
}

// MustParseInterface is like ParseInterface but panics on error.
func MustParseInterface(abiJSON string) []Entry {
	entries, err := ParseInterface([]byte(abiJSON))
	if err != nil {
		panic(err)
	}
	return entries
}

func (r jsonEntry) entry() (Entry, error) {
	e := Entry{Name: r.Name, Anonymous: r.Anonymous}

	switch r.Type {
	case "", "function":
		e.Kind = Function
	case "event":
		e.Kind = Event
	case "error":
		e.Kind = CustomError
	case "constructor":
		e.Kind = Constructor
	case "fallback":
		e.Kind = Fallback
	case "receive":
		e.Kind = Receive
	default:
		return Entry{}, fmt.Errorf("%w: unknown entry type %q", ErrInvalidInterface, r.Type)
	}

	switch r.StateMutability {
	case "pure":
		e.Mutability = Pure
	case "view":
		e.Mutability = View
	case "payable":
		e.Mutability = Payable
	case "nonpayable":
		e.Mutability = Nonpayable
	case "":
		// Pre-0.4.16 descriptors only carry the legacy flags.
		switch {
		case r.Constant:
			e.Mutability = View
		case r.Payable:
			e.Mutability = Payable
		}
	default:
		return Entry{}, fmt.Errorf("%w: unknown state mutability %q", ErrInvalidInterface, r.StateMutability)
	}
	if e.Kind == Receive {
		e.Mutability = Payable
	}

	var err error
	if e.Inputs, err = toParams(r.Inputs); err != nil {
		return Entry{}, err
	}
	if e.Outputs, err = toParams(r.Outputs); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func toParams(ms []abi.ArgumentMarshaling) ([]Param, error) {
	params := make([]Param, len(ms))
	for i, m := range ms {
		t, err := FromMarshaling(m)
		if err != nil {
			return nil, err
		}
		params[i] = Param{Name: m.Name, Type: t, Indexed: m.Indexed}
	}
	return params, nil
}

// arguments compiles params into go-ethereum arguments. Indexed flags are
// only carried for event inputs; go-ethereum skips indexed arguments when
// unpacking.
func arguments(params []Param, withIndexed bool) (abi.Arguments, error) {
	args := make(abi.Arguments, len(params))
	for i, p := range params {
		t, err := p.Type.ABIType()
		if err != nil {
			return nil, err
		}
		args[i] = abi.Argument{Name: p.Name, Type: t, Indexed: withIndexed && p.Indexed}
	}
	return args, nil
}
