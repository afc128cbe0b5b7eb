package abiscope

import (
	"encoding/json"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestScalar(t *testing.T) {
	huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)

	tests := []struct {
		name     string
		value    *Scalar
		kind     ScalarKind
		typ      string
		str      string
		jsonForm string
	}{
		{"max uint256", newIntScalar("uint256", huge), IntegerScalar, "uint256", huge.String(), `"` + huge.String() + `"`},
		{"negative", newIntScalar("int8", big.NewInt(-7)), IntegerScalar, "int8", "-7", `"-7"`},
		{"address", newAddressScalar(deadAddr), AddressScalar, "address", "0x000000000000000000000000000000000000dead", `"0x000000000000000000000000000000000000dead"`},
		{"bytes", newBytesScalar("bytes2", []byte{0xAB, 0xCD}), BytesScalar, "bytes2", "0xabcd", `"0xabcd"`},
		{"empty bytes", newBytesScalar("bytes", nil), BytesScalar, "bytes", "0x", `"0x"`},
		{"string", newStringScalar("gm \"fren\""), StringScalar, "string", `gm "fren"`, `"gm \"fren\""`},
		{"bool", newBoolScalar(true), BoolScalar, "bool", "true", `true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value.ScalarKind() != tt.kind {
				t.Errorf("Expected kind %d, got %d", tt.kind, tt.value.ScalarKind())
			}
			if tt.value.Kind() != ElementaryKind {
				t.Errorf("Expected ElementaryKind, got %s", tt.value.Kind())
			}
			if tt.value.Type() != tt.typ {
				t.Errorf("Expected type %s, got %s", tt.typ, tt.value.Type())
			}
			if tt.value.String() != tt.str {
				t.Errorf("Expected %q, got %q", tt.str, tt.value.String())
			}
			got, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(got) != tt.jsonForm {
				t.Errorf("Expected JSON %s, got %s", tt.jsonForm, got)
			}
		})
	}
}

func TestScalarBigIntCopy(t *testing.T) {
	n := big.NewInt(5)
	s := newIntScalar("uint256", n)
	n.SetInt64(6)

	got := s.BigInt()
	if got.Int64() != 5 {
		t.Errorf("Expected scalar to copy its input, got %s", got)
	}
	got.SetInt64(7)
	if s.BigInt().Int64() != 5 {
		t.Error("Expected BigInt to return a copy")
	}

	if newBoolScalar(true).BigInt() != nil {
		t.Error("Expected nil BigInt for non-integers")
	}
}

func TestArray(t *testing.T) {
	t.Run("empty array encodes as []", func(t *testing.T) {
		got, err := json.Marshal(&Array{})
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(got) != "[]" {
			t.Errorf("Expected [], got %s", got)
		}
	})

	t.Run("interface", func(t *testing.T) {
		arr := &Array{Elems: []Value{newIntScalar("uint8", big.NewInt(1)), newBoolScalar(false)}}
		if arr.Len() != 2 || arr.Kind() != ArrayKind {
			t.Fatalf("Expected 2-element array, got %d", arr.Len())
		}
		want := []any{"1", false}
		if !reflect.DeepEqual(arr.Interface(), want) {
			t.Errorf("Expected %v, got %v", want, arr.Interface())
		}
	})
}

func TestTuple(t *testing.T) {
	tuple := &Tuple{Fields: []NamedValue{
		{Name: "b", Type: "address", Value: newAddressScalar(common.Address{})},
		{Name: "", Type: "uint256", Value: newIntScalar("uint256", big.NewInt(3))},
		{Name: "a", Type: "uint8[]", Value: &Array{}},
	}}

	t.Run("json keeps declaration order", func(t *testing.T) {
		got, err := json.Marshal(tuple)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		want := `{"b":"0x0000000000000000000000000000000000000000","1":"3","a":[]}`
		if string(got) != want {
			t.Errorf("Expected %s, got %s", want, got)
		}
	})

	t.Run("lookups", func(t *testing.T) {
		if _, ok := tuple.Get("a"); !ok {
			t.Error("Expected field a")
		}
		if _, ok := tuple.Get("missing"); ok {
			t.Error("Expected missing field to be absent")
		}
		if tuple.At(1).Interface() != "3" {
			t.Errorf("Expected 3 at position 1, got %v", tuple.At(1).Interface())
		}
		if tuple.At(3) != nil || tuple.At(-1) != nil {
			t.Error("Expected nil outside the tuple")
		}
		if len(tuple.Values()) != 3 {
			t.Errorf("Expected 3 values, got %d", len(tuple.Values()))
		}
	})

	t.Run("interface", func(t *testing.T) {
		want := map[string]any{
			"b": "0x0000000000000000000000000000000000000000",
			"1": "3",
			"a": []any{},
		}
		if !reflect.DeepEqual(tuple.Interface(), want) {
			t.Errorf("Expected %v, got %v", want, tuple.Interface())
		}
	})

	t.Run("empty tuple", func(t *testing.T) {
		got, _ := json.Marshal(&Tuple{})
		if string(got) != "{}" {
			t.Errorf("Expected {}, got %s", got)
		}
	})
}

func TestNamedValueJSON(t *testing.T) {
	nv := NamedValue{Name: "x", Type: "bool", Value: newBoolScalar(false)}
	got, err := json.Marshal(nv)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"name":"x","type":"bool","value":false}`
	if string(got) != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}
