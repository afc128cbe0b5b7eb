package abiscope

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// EncodeCall packs args for the named function (or full signature) and
// prefixes the selector. args is positional, as returned by
// InputTree.Flatten: tuples and arrays are []any, leaves are the values
// ParseLeaf returns.
func (t *SelectorTable) EncodeCall(method string, args []any) ([]byte, error) {
	te := t.method(method)
	if te == nil {
		return nil, &EncodingError{Method: method, Index: -1, Err: ErrUnknownSelector}
	}
	return te.encode(args)
}

// EncodeArgs packs args for the named function without a selector.
func (t *SelectorTable) EncodeArgs(method string, args []any) ([]byte, error) {
	te := t.method(method)
	if te == nil {
		return nil, &EncodingError{Method: method, Index: -1, Err: ErrUnknownSelector}
	}
	return te.pack(args)
}

func (te *tableEntry) encode(args []any) ([]byte, error) {
	packed, err := te.pack(args)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, len(te.selector)+len(packed))
	data = append(data, te.selector...)
	return append(data, packed...), nil
}

func (te *tableEntry) pack(args []any) ([]byte, error) {
	if len(args) != len(te.inputs) {
		return nil, &EncodingError{
			Method: te.signature,
			Index:  -1,
			Err:    fmt.Errorf("%w: got %d arguments, want %d", ErrArityMismatch, len(args), len(te.inputs)),
		}
	}

	values := make([]any, len(args))
	for i, arg := range args {
		v, err := packable(te.inputs[i].Type, arg)
		if err != nil {
			return nil, &EncodingError{Method: te.signature, Index: i, Err: err}
		}
		values[i] = v
	}

	packed, err := te.inputs.Pack(values...)
	if err != nil {
		return nil, &EncodingError{Method: te.signature, Index: -1, Err: err}
	}
	return packed, nil
}

// packable converts a flattened value into the Go representation
// go-ethereum expects for typ. Fixed arrays, fixed bytes and tuples have no
// static Go type, so they are built through reflection.
func packable(typ abi.Type, value any) (any, error) {
	if value == nil {
		return nil, ErrMissingValue
	}

	switch typ.T {
	case abi.UintTy, abi.IntTy:
		n, ok := value.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("%s: expected *big.Int, got %T", typ, value)
		}
		return sizedInt(typ, n), nil

	case abi.AddressTy:
		addr, ok := value.(common.Address)
		if !ok {
			return nil, fmt.Errorf("%s: expected address, got %T", typ, value)
		}
		return addr, nil

	case abi.BoolTy:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%s: expected bool, got %T", typ, value)
		}
		return b, nil

	case abi.StringTy:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected string, got %T", typ, value)
		}
		return s, nil

	case abi.BytesTy:
		b, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("%s: expected []byte, got %T", typ, value)
		}
		return b, nil

	case abi.FixedBytesTy, abi.FunctionTy:
		b, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("%s: expected []byte, got %T", typ, value)
		}
		fixed := reflect.New(typ.GetType()).Elem()
		if len(b) != fixed.Len() {
			return nil, fmt.Errorf("%s: got %d bytes, want %d", typ, len(b), fixed.Len())
		}
		reflect.Copy(fixed, reflect.ValueOf(b))
		return fixed.Interface(), nil

	case abi.ArrayTy, abi.SliceTy:
		elems, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected list, got %T", typ, value)
		}
		var out reflect.Value
		if typ.T == abi.ArrayTy {
			if len(elems) != typ.Size {
				return nil, fmt.Errorf("%s: got %d elements, want %d", typ, len(elems), typ.Size)
			}
			out = reflect.New(typ.GetType()).Elem()
		} else {
			out = reflect.MakeSlice(typ.GetType(), len(elems), len(elems))
		}
		for i, e := range elems {
			v, err := packable(*typ.Elem, e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(v))
		}
		return out.Interface(), nil

	case abi.TupleTy:
		fields, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected list, got %T", typ, value)
		}
		if len(fields) != len(typ.TupleElems) {
			return nil, fmt.Errorf("%s: got %d fields, want %d", typ, len(fields), len(typ.TupleElems))
		}
		st := reflect.New(typ.TupleType).Elem()
		for i, elem := range typ.TupleElems {
			v, err := packable(*elem, fields[i])
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", fieldKey(typ.TupleRawNames[i], i), err)
			}
			st.Field(i).Set(reflect.ValueOf(v))
		}
		return st.Interface(), nil

	default:
		return nil, fmt.Errorf("unsupported type %s", typ)
	}
}

// sizedInt narrows n to the native Go integer go-ethereum uses for 8, 16,
// 32 and 64-bit types. Range was checked when the value was parsed.
func sizedInt(typ abi.Type, n *big.Int) any {
	if typ.T == abi.UintTy {
		switch typ.Size {
		case 8:
			return uint8(n.Uint64())
		case 16:
			return uint16(n.Uint64())
		case 32:
			return uint32(n.Uint64())
		case 64:
			return n.Uint64()
		}
		return new(big.Int).Set(n)
	}
	switch typ.Size {
	case 8:
		return int8(n.Int64())
	case 16:
		return int16(n.Int64())
	case 32:
		return int32(n.Int64())
	case 64:
		return n.Int64()
	}
	return new(big.Int).Set(n)
}
