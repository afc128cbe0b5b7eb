package abiscope

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// DecodedCall is calldata resolved to the function it invokes.
type DecodedCall struct {
	Entry Entry
	Args  *Tuple
}

// MarshalJSON encodes the call as {"name": ..., "args": {...}}.
func (c *DecodedCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name string `json:"name"`
		Args *Tuple `json:"args"`
	}{c.Entry.Name, c.Args})
}

// DecodedLog is a log entry resolved to the event that emitted it.
// Fields follow the event's declaration order, indexed or not.
type DecodedLog struct {
	Entry   Entry
	Address common.Address
	Fields  []NamedValue
}

// Get returns the first field with the given name.
func (l *DecodedLog) Get(name string) (Value, bool) {
	return (&Tuple{Fields: l.Fields}).Get(name)
}

// MarshalJSON encodes the log with its name, emitting address and fields.
func (l *DecodedLog) MarshalJSON() ([]byte, error) {
	out := struct {
		Name    string       `json:"name"`
		Address string       `json:"address,omitempty"`
		Fields  []NamedValue `json:"fields"`
	}{Name: l.Entry.Name, Fields: l.Fields}
	if l.Address != (common.Address{}) {
		out.Address = strings.ToLower(l.Address.Hex())
	}
	if out.Fields == nil {
		out.Fields = []NamedValue{}
	}
	return json.Marshal(out)
}

// DecodeCall resolves calldata to a function entry and decodes its arguments.
//
// Input shorter than a selector yields ErrTooShort and an unregistered
// selector yields ErrUnknownSelector; neither is a malformed-input failure
// (see IsUnresolved). Layouts inconsistent with the entry's types yield a
// *DecodeError.
func (t *SelectorTable) DecodeCall(data []byte) (*DecodedCall, error) {
	if len(data) < FunctionSelectorSize {
		return nil, ErrTooShort
	}

	te, ok := t.byID[string(data[:FunctionSelectorSize])]
	if !ok {
		return nil, ErrUnknownSelector
	}

	args, err := decodeTuple(te.signature, te.entry.Inputs, te.inputs, data[FunctionSelectorSize:])
	if err != nil {
		return nil, err
	}
	return &DecodedCall{Entry: te.entry.clone(), Args: args}, nil
}

// DecodeCallHex is like DecodeCall but takes 0x-prefixed hex.
func (t *SelectorTable) DecodeCallHex(calldata string) (*DecodedCall, error) {
	data, err := decodeHex(calldata)
	if err != nil {
		return nil, &InputError{Type: "calldata", Reason: err.Error()}
	}
	return t.DecodeCall(data)
}

// DecodeOutput decodes the return data of the named function.
func (t *SelectorTable) DecodeOutput(method string, data []byte) (*Tuple, error) {
	te := t.method(method)
	if te == nil {
		return nil, ErrUnknownSelector
	}
	return decodeTuple(te.signature, te.entry.Outputs, te.outputs, data)
}

// DecodeLog resolves a log to an event entry and decodes its fields.
//
// topics[0] selects the event; the remaining topics fill the indexed inputs
// in order and data holds the non-indexed inputs. A topic count that does
// not match the event's indexed inputs is a *DecodeError wrapping
// ErrArityMismatch.
func (t *SelectorTable) DecodeLog(topics []common.Hash, data []byte) (*DecodedLog, error) {
	if len(topics) == 0 {
		return nil, ErrAnonymousLog
	}

	te, ok := t.byID[string(topics[0][:])]
	if !ok {
		return nil, ErrUnknownSelector
	}

	indexed, nonIndexed := te.entry.indexedInputs()
	if len(topics)-1 != len(indexed) {
		return nil, &DecodeError{
			Entry:  te.signature,
			Reason: fmt.Sprintf("%d topics for %d indexed inputs", len(topics)-1, len(indexed)),
			Err:    ErrArityMismatch,
		}
	}

	// te.inputs carries the indexed flags, so go-ethereum only unpacks the
	// data-encoded subsequence.
	values, err := te.inputs.UnpackValues(data)
	if err != nil {
		return nil, &DecodeError{Entry: te.signature, Reason: "inconsistent data layout", Err: err}
	}
	if len(values) != len(nonIndexed) {
		return nil, &DecodeError{
			Entry:  te.signature,
			Reason: fmt.Sprintf("decoded %d values for %d non-indexed inputs", len(values), len(nonIndexed)),
		}
	}

	fields := make([]NamedValue, len(te.entry.Inputs))
	for j, idx := range nonIndexed {
		p := te.entry.Inputs[idx]
		v, err := normalize(p.Type, reflect.ValueOf(values[j]))
		if err != nil {
			return nil, &DecodeError{Entry: te.signature, Reason: "field " + fieldKey(p.Name, idx), Err: err}
		}
		fields[idx] = NamedValue{Name: p.Name, Type: p.Type.String(), Value: v}
	}
	for j, idx := range indexed {
		p := te.entry.Inputs[idx]
		fields[idx] = NamedValue{Name: p.Name, Type: p.Type.String(), Value: decodeTopic(p.Type, topics[j+1])}
	}

	return &DecodedLog{Entry: te.entry.clone(), Fields: fields}, nil
}

// DecodeLogs decodes receipt logs. Logs the table cannot resolve are
// skipped; decode failures are joined into the returned error without
// discarding the logs that did decode.
func (t *SelectorTable) DecodeLogs(logs []*types.Log) ([]*DecodedLog, error) {
	var (
		out  = make([]*DecodedLog, 0, len(logs))
		errs []error
	)
	for _, lg := range logs {
		if lg == nil {
			continue
		}
		decoded, err := t.DecodeLog(lg.Topics, lg.Data)
		if IsUnresolved(err) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		decoded.Address = lg.Address
		out = append(out, decoded)
	}
	return out, errors.Join(errs...)
}

// decodeTuple unpacks data as the tuple of params and normalizes each field.
func decodeTuple(signature string, params []Param, args abi.Arguments, data []byte) (*Tuple, error) {
	values, err := args.UnpackValues(data)
	if err != nil {
		return nil, &DecodeError{Entry: signature, Reason: "inconsistent data layout", Err: err}
	}
	if len(values) != len(params) {
		return nil, &DecodeError{
			Entry:  signature,
			Reason: fmt.Sprintf("decoded %d values for %d inputs", len(values), len(params)),
		}
	}

	tuple := &Tuple{Fields: make([]NamedValue, len(params))}
	for i, p := range params {
		v, err := normalize(p.Type, reflect.ValueOf(values[i]))
		if err != nil {
			return nil, &DecodeError{Entry: signature, Reason: "field " + fieldKey(p.Name, i), Err: err}
		}
		tuple.Fields[i] = NamedValue{Name: p.Name, Type: p.Type.String(), Value: v}
	}
	return tuple, nil
}

// normalize walks a value produced by go-ethereum alongside its Type.
func normalize(t Type, v reflect.Value) (Value, error) {
	switch t.Kind() {
	case ElementaryKind:
		return normalizeScalar(t, v)

	case ArrayKind:
		elem, _ := t.Elem()
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return nil, fmt.Errorf("expected array for %s, got %s", t, v.Kind())
		}
		arr := &Array{Elems: make([]Value, v.Len())}
		for i := 0; i < v.Len(); i++ {
			e, err := normalize(elem, v.Index(i))
			if err != nil {
				return nil, err
			}
			arr.Elems[i] = e
		}
		return arr, nil

	case TupleKind:
		if v.Kind() != reflect.Struct || v.NumField() != t.NumFields() {
			return nil, fmt.Errorf("expected %d-field struct for %s, got %s", t.NumFields(), t, v.Type())
		}
		tuple := &Tuple{Fields: make([]NamedValue, t.NumFields())}
		for i, f := range t.fields {
			fv, err := normalize(f.Type, v.Field(i))
			if err != nil {
				return nil, err
			}
			tuple.Fields[i] = NamedValue{Name: f.Name, Type: f.Type.String(), Value: fv}
		}
		return tuple, nil

	default:
		return nil, fmt.Errorf("%w: unknown kind %s", ErrMalformedType, t.Kind())
	}
}

func normalizeScalar(t Type, v reflect.Value) (Value, error) {
	if _, _, ok := t.IntegerBits(); ok {
		n, err := reflectBigInt(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.name, err)
		}
		return newIntScalar(t.name, n), nil
	}

	switch t.name {
	case "address":
		addr, ok := v.Interface().(common.Address)
		if !ok {
			return nil, fmt.Errorf("address: unexpected %s", v.Type())
		}
		return newAddressScalar(addr), nil
	case "bool":
		if v.Kind() != reflect.Bool {
			return nil, fmt.Errorf("bool: unexpected %s", v.Type())
		}
		return newBoolScalar(v.Bool()), nil
	case "string":
		if v.Kind() != reflect.String {
			return nil, fmt.Errorf("string: unexpected %s", v.Type())
		}
		return newStringScalar(v.String()), nil
	}

	// bytes, bytesN and function are all byte sequences.
	switch {
	case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
		return newBytesScalar(t.name, v.Bytes()), nil
	case v.Kind() == reflect.Array && v.Type().Elem().Kind() == reflect.Uint8:
		b := make([]byte, v.Len())
		reflect.Copy(reflect.ValueOf(b), v)
		return newBytesScalar(t.name, b), nil
	default:
		return nil, fmt.Errorf("unsupported elementary type %q", t.name)
	}
}

func reflectBigInt(v reflect.Value) (*big.Int, error) {
	switch v.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(v.Int()), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(v.Uint()), nil
	case reflect.Ptr:
		if n, ok := v.Interface().(*big.Int); ok && n != nil {
			return n, nil
		}
	}
	return nil, fmt.Errorf("unexpected integer representation %s", v.Type())
}

// tt256 is 2^256, the modulus of a topic word.
var tt256 = new(big.Int).Lsh(big.NewInt(1), 256)

// decodeTopic renders an indexed input. Addresses and integers are stored
// in the topic word directly; anything else is passed through as the raw
// 32-byte word (reference types are stored as their hash).
func decodeTopic(t Type, topic common.Hash) Value {
	if _, signed, ok := t.IntegerBits(); ok {
		n := new(big.Int).SetBytes(topic[:])
		if signed && n.Bit(255) == 1 {
			n.Sub(n, tt256)
		}
		return newIntScalar(t.name, n)
	}
	if t.Kind() == ElementaryKind && t.name == "address" {
		return newAddressScalar(common.BytesToAddress(topic[common.HashLength-common.AddressLength:]))
	}
	return newBytesScalar(t.String(), topic[:])
}

// decodeHex decodes hex input with or without a 0x prefix.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}
