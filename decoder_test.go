package abiscope

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	deadAddr  = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	makerAddr = common.HexToAddress("0x1234567890123456789012345678901234567890")
)

// word left-pads b to 32 bytes.
func word(b []byte) []byte {
	return common.LeftPadBytes(b, 32)
}

func transferCalldata() []byte {
	data := []byte{0xa9, 0x05, 0x9c, 0xbb}
	data = append(data, word(deadAddr.Bytes())...)
	return append(data, word(big.NewInt(100).Bytes())...)
}

func TestDecodeCall(t *testing.T) {
	table := testTable(t)

	t.Run("transfer", func(t *testing.T) {
		call, err := table.DecodeCall(transferCalldata())
		if err != nil {
			t.Fatalf("DecodeCall failed: %v", err)
		}
		if call.Entry.Name != "transfer" {
			t.Errorf("Expected transfer, got %s", call.Entry.Name)
		}

		to, ok := call.Args.Get("to")
		if !ok {
			t.Fatal("Expected argument to")
		}
		if to.Interface() != "0x000000000000000000000000000000000000dead" {
			t.Errorf("Expected lower-case dead address, got %v", to.Interface())
		}

		amount, _ := call.Args.Get("amount")
		if amount.Interface() != "100" {
			t.Errorf("Expected amount 100, got %v", amount.Interface())
		}
	})

	t.Run("json shape", func(t *testing.T) {
		call, err := table.DecodeCall(transferCalldata())
		if err != nil {
			t.Fatalf("DecodeCall failed: %v", err)
		}
		got, err := json.Marshal(call)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		want := `{"name":"transfer","args":{"to":"0x000000000000000000000000000000000000dead","amount":"100"}}`
		if string(got) != want {
			t.Errorf("Expected %s, got %s", want, got)
		}
	})

	t.Run("hex input", func(t *testing.T) {
		call, err := table.DecodeCallHex(hexutil.Encode(transferCalldata()))
		if err != nil {
			t.Fatalf("DecodeCallHex failed: %v", err)
		}
		if call.Entry.Name != "transfer" {
			t.Errorf("Expected transfer, got %s", call.Entry.Name)
		}
	})

	t.Run("bad hex", func(t *testing.T) {
		_, err := table.DecodeCallHex("0xzz")
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestDecodeCallUnresolved(t *testing.T) {
	table := testTable(t)

	t.Run("shorter than selector", func(t *testing.T) {
		for _, data := range [][]byte{nil, {}, {0xa9, 0x05, 0x9c}} {
			_, err := table.DecodeCall(data)
			if !errors.Is(err, ErrTooShort) {
				t.Errorf("Expected ErrTooShort for %x, got %v", data, err)
			}
			if errors.Is(err, ErrUnknownSelector) {
				t.Error("Short input must not be reported as an unknown selector")
			}
		}
	})

	t.Run("unknown selector", func(t *testing.T) {
		_, err := table.DecodeCall([]byte{0xde, 0xad, 0xbe, 0xef})
		if !errors.Is(err, ErrUnknownSelector) {
			t.Errorf("Expected ErrUnknownSelector, got %v", err)
		}
		if errors.Is(err, ErrTooShort) {
			t.Error("Unknown selector must not be reported as short input")
		}
		if !IsUnresolved(err) {
			t.Error("Expected unknown selector to be unresolved")
		}
	})

	t.Run("event topic prefix is not a function", func(t *testing.T) {
		topic := common.HexToHash(transferTopic)
		_, err := table.DecodeCall(topic[:4])
		if !errors.Is(err, ErrUnknownSelector) {
			t.Errorf("Expected ErrUnknownSelector, got %v", err)
		}
	})

	t.Run("truncated arguments", func(t *testing.T) {
		data := transferCalldata()
		_, err := table.DecodeCall(data[:40])
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("Expected *DecodeError, got %v", err)
		}
		if IsUnresolved(err) {
			t.Error("Expected layout failure not to be unresolved")
		}
	})
}

func TestDecodeCallRoundTrip(t *testing.T) {
	table := testTable(t)
	entry, _ := table.Method("fill")

	args, err := arguments(entry.Inputs, false)
	if err != nil {
		t.Fatalf("arguments failed: %v", err)
	}

	// Reference encoding built directly with go-ethereum.
	orders := reflect.MakeSlice(args[0].Type.GetType(), 2, 2)
	for i, amount := range []uint64{7, 1 << 40} {
		var salt [32]byte
		salt[31] = byte(i + 1)
		o := orders.Index(i)
		o.Field(0).Set(reflect.ValueOf(makerAddr))
		o.Field(1).SetUint(amount)
		o.Field(2).Set(reflect.ValueOf(salt))
	}
	packed, err := args.Pack(orders.Interface(), [2]int16{-3, 300}, "gm")
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	sel, _ := table.SelectorOf("fill((address,uint64,bytes32)[],int16[2],string)")
	data := append(append([]byte(nil), sel...), packed...)

	call, err := table.DecodeCall(data)
	if err != nil {
		t.Fatalf("DecodeCall failed: %v", err)
	}

	got, err := json.Marshal(call.Args)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"orders":[` +
		`{"maker":"0x1234567890123456789012345678901234567890","amount":"7","salt":"0x` + strings.Repeat("00", 31) + `01"},` +
		`{"maker":"0x1234567890123456789012345678901234567890","amount":"1099511627776","salt":"0x` + strings.Repeat("00", 31) + `02"}],` +
		`"limits":["-3","300"],"memo":"gm"}`
	if string(got) != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	t.Run("re-encode matches", func(t *testing.T) {
		flat := []any{
			[]any{
				[]any{makerAddr, big.NewInt(7), append(make([]byte, 31), 1)},
				[]any{makerAddr, big.NewInt(1 << 40), append(make([]byte, 31), 2)},
			},
			[]any{big.NewInt(-3), big.NewInt(300)},
			"gm",
		}
		encoded, err := table.EncodeCall("fill", flat)
		if err != nil {
			t.Fatalf("EncodeCall failed: %v", err)
		}
		if !bytes.Equal(encoded, data) {
			t.Errorf("Expected %x, got %x", data, encoded)
		}
	})
}

func TestDecodeOutput(t *testing.T) {
	table := testTable(t)

	out, err := table.DecodeOutput("balanceOf", word(big.NewInt(42).Bytes()))
	if err != nil {
		t.Fatalf("DecodeOutput failed: %v", err)
	}
	balance, ok := out.Get("balance")
	if !ok || balance.Interface() != "42" {
		t.Errorf("Expected balance 42, got %v", balance)
	}

	if _, err := table.DecodeOutput("nope", nil); !errors.Is(err, ErrUnknownSelector) {
		t.Errorf("Expected ErrUnknownSelector, got %v", err)
	}
}

func TestDecodeLog(t *testing.T) {
	table := testTable(t)
	topic0 := common.HexToHash(transferTopic)
	from := common.BytesToHash(makerAddr.Bytes())
	to := common.BytesToHash(deadAddr.Bytes())
	value := word(big.NewInt(1000).Bytes())

	t.Run("transfer", func(t *testing.T) {
		lg, err := table.DecodeLog([]common.Hash{topic0, from, to}, value)
		if err != nil {
			t.Fatalf("DecodeLog failed: %v", err)
		}
		if lg.Entry.Name != "Transfer" {
			t.Errorf("Expected Transfer, got %s", lg.Entry.Name)
		}
		if len(lg.Fields) != 3 {
			t.Fatalf("Expected 3 fields, got %d", len(lg.Fields))
		}

		names := []string{lg.Fields[0].Name, lg.Fields[1].Name, lg.Fields[2].Name}
		if strings.Join(names, ",") != "from,to,value" {
			t.Errorf("Expected declaration order, got %v", names)
		}
		if lg.Fields[0].Value.Interface() != "0x1234567890123456789012345678901234567890" {
			t.Errorf("Unexpected from %v", lg.Fields[0].Value.Interface())
		}
		if lg.Fields[1].Value.Interface() != "0x000000000000000000000000000000000000dead" {
			t.Errorf("Unexpected to %v", lg.Fields[1].Value.Interface())
		}
		if v, _ := lg.Get("value"); v.Interface() != "1000" {
			t.Errorf("Expected value 1000, got %v", v.Interface())
		}
	})

	t.Run("arity mismatch", func(t *testing.T) {
		lg, err := table.DecodeLog([]common.Hash{topic0, from}, value)
		if lg != nil {
			t.Error("Expected no partial result")
		}
		if !errors.Is(err, ErrArityMismatch) {
			t.Fatalf("Expected ErrArityMismatch, got %v", err)
		}
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Errorf("Expected *DecodeError, got %T", err)
		}
		if IsUnresolved(err) {
			t.Error("Expected arity mismatch not to be unresolved")
		}
	})

	t.Run("too many topics", func(t *testing.T) {
		_, err := table.DecodeLog([]common.Hash{topic0, from, to, to}, value)
		if !errors.Is(err, ErrArityMismatch) {
			t.Errorf("Expected ErrArityMismatch, got %v", err)
		}
	})

	t.Run("no topics", func(t *testing.T) {
		_, err := table.DecodeLog(nil, value)
		if !errors.Is(err, ErrAnonymousLog) {
			t.Errorf("Expected ErrAnonymousLog, got %v", err)
		}
	})

	t.Run("unknown topic", func(t *testing.T) {
		_, err := table.DecodeLog([]common.Hash{{0x01}}, nil)
		if !errors.Is(err, ErrUnknownSelector) {
			t.Errorf("Expected ErrUnknownSelector, got %v", err)
		}
	})

	t.Run("signed and hashed topics", func(t *testing.T) {
		sig := EventTopic("Delta(int256,string,bool)")
		change := common.BytesToHash(math.U256Bytes(big.NewInt(-5)))
		note := crypto.Keccak256Hash([]byte("hello"))
		data := word([]byte{1})

		lg, err := table.DecodeLog([]common.Hash{sig, change, note}, data)
		if err != nil {
			t.Fatalf("DecodeLog failed: %v", err)
		}
		if v, _ := lg.Get("change"); v.Interface() != "-5" {
			t.Errorf("Expected -5, got %v", v.Interface())
		}
		v, _ := lg.Get("note")
		if v.Interface() != note.Hex() {
			t.Errorf("Expected raw topic %s, got %v", note.Hex(), v.Interface())
		}
		if s, ok := v.(*Scalar); !ok || s.ScalarKind() != BytesScalar || s.Type() != "string" {
			t.Errorf("Expected bytes scalar typed string, got %#v", v)
		}
		if v, _ := lg.Get("ok"); v.Interface() != true {
			t.Errorf("Expected ok=true, got %v", v.Interface())
		}
	})
}

func TestDecodeTopicIntegers(t *testing.T) {
	maxWord := common.HexToHash("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	tests := []struct {
		typ      string
		topic    common.Hash
		expected string
	}{
		{"int8", maxWord, "-1"},
		{"int256", common.BytesToHash(math.U256Bytes(big.NewInt(-128))), "-128"},
		{"int64", common.BigToHash(big.NewInt(42)), "42"},
		{"uint256", maxWord, "115792089237316195423570985008687907853269984665640564039457584007913129639935"},
		{"uint8", common.BigToHash(big.NewInt(255)), "255"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got := decodeTopic(ElementaryType(tt.typ), tt.topic)
			if got.Interface() != tt.expected {
				t.Errorf("Expected %s, got %v", tt.expected, got.Interface())
			}
		})
	}
}

func TestDecodeLogs(t *testing.T) {
	table := testTable(t)
	topic0 := common.HexToHash(transferTopic)
	from := common.BytesToHash(makerAddr.Bytes())
	to := common.BytesToHash(deadAddr.Bytes())

	logs := []*types.Log{
		{Address: makerAddr, Topics: []common.Hash{topic0, from, to}, Data: word([]byte{9})},
		{Address: makerAddr, Topics: nil, Data: []byte{1}},
		{Address: makerAddr, Topics: []common.Hash{{0x02}}},
		nil,
		{Address: deadAddr, Topics: []common.Hash{topic0, from}, Data: word([]byte{9})},
	}

	decoded, err := table.DecodeLogs(logs)
	if len(decoded) != 1 {
		t.Fatalf("Expected 1 decoded log, got %d", len(decoded))
	}
	if decoded[0].Address != makerAddr {
		t.Errorf("Expected emitting address to be kept, got %s", decoded[0].Address.Hex())
	}
	if !errors.Is(err, ErrArityMismatch) {
		t.Errorf("Expected joined ErrArityMismatch, got %v", err)
	}

	out, err := json.Marshal(decoded[0])
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(out), `"address":"0x1234567890123456789012345678901234567890"`) {
		t.Errorf("Expected lower-case address in %s", out)
	}
}

func TestDecodeUnnamedFields(t *testing.T) {
	table := MustBuild(MustParseInterface(`[
		{"name":"pair","type":"function","inputs":[
			{"name":"","type":"uint8"},
			{"name":"","type":"tuple","components":[{"name":"","type":"bool"},{"name":"_x","type":"bytes"}]}
		],"outputs":[]}
	]`))

	entry, _ := table.Method("pair")
	args, err := arguments(entry.Inputs, false)
	if err != nil {
		t.Fatalf("arguments failed: %v", err)
	}
	tuple := reflect.New(args[1].Type.TupleType).Elem()
	tuple.Field(0).SetBool(true)
	tuple.Field(1).SetBytes([]byte{0xca, 0xfe})
	packed, err := args.Pack(uint8(3), tuple.Interface())
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	sel, _ := table.SelectorOf("pair(uint8,(bool,bytes))")

	call, err := table.DecodeCall(append(append([]byte(nil), sel...), packed...))
	if err != nil {
		t.Fatalf("DecodeCall failed: %v", err)
	}
	got, _ := json.Marshal(call.Args)
	want := `{"0":"3","1":{"0":true,"_x":"0xcafe"}}`
	if string(got) != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}
