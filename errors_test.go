package abiscope

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrMalformedType", ErrMalformedType, "abiscope: malformed type descriptor"},
		{"ErrInvalidInterface", ErrInvalidInterface, "abiscope: invalid interface descriptor"},
		{"ErrSelectorCollision", ErrSelectorCollision, "abiscope: invalid interface descriptor: selector collision"},
		{"ErrTooShort", ErrTooShort, "abiscope: calldata shorter than selector"},
		{"ErrUnknownSelector", ErrUnknownSelector, "abiscope: unknown selector"},
		{"ErrAnonymousLog", ErrAnonymousLog, "abiscope: log has no topics"},
		{"ErrArityMismatch", ErrArityMismatch, "abiscope: argument or topic count does not match the entry"},
		{"ErrReadOnlyTransport", ErrReadOnlyTransport, "abiscope: transport is read-only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("Expected error message %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}

	t.Run("collision wraps invalid interface", func(t *testing.T) {
		if !errors.Is(ErrSelectorCollision, ErrInvalidInterface) {
			t.Error("errors.Is should find ErrInvalidInterface in ErrSelectorCollision")
		}
	})
}

func TestIsUnresolved(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"too short", ErrTooShort, true},
		{"unknown selector", ErrUnknownSelector, true},
		{"anonymous log", ErrAnonymousLog, true},
		{"wrapped unknown", fmt.Errorf("decoding: %w", ErrUnknownSelector), true},
		{"arity mismatch", &DecodeError{Entry: "Transfer(address,address,uint256)", Reason: "x", Err: ErrArityMismatch}, false},
		{"invalid input", &InputError{Type: "uint8", Reason: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnresolved(tt.err); got != tt.want {
				t.Errorf("Expected IsUnresolved=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestMethodNotFoundError(t *testing.T) {
	addr := common.HexToAddress("0x1234567890123456789012345678901234567890")
	err := &MethodNotFoundError{
		Contract: addr,
		Method:   "transfer",
	}

	expected := `abiscope: method "transfer" not found in contract 0x1234567890123456789012345678901234567890`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestTypeError(t *testing.T) {
	t.Run("with type", func(t *testing.T) {
		err := &TypeError{Type: "uint7", Err: ErrMalformedType}
		expected := `abiscope: type "uint7": abiscope: malformed type descriptor`
		if err.Error() != expected {
			t.Errorf("Expected error message %q, got %q", expected, err.Error())
		}
		if !errors.Is(err, ErrMalformedType) {
			t.Error("errors.Is should find ErrMalformedType in chain")
		}
	})

	t.Run("without type", func(t *testing.T) {
		err := &TypeError{Err: ErrMalformedType}
		if err.Error() != ErrMalformedType.Error() {
			t.Errorf("Expected error message %q, got %q", ErrMalformedType.Error(), err.Error())
		}
	})
}

func TestInterfaceError(t *testing.T) {
	err := &InterfaceError{Entry: "foo()", Err: ErrSelectorCollision}

	expected := `abiscope: entry "foo()": abiscope: invalid interface descriptor: selector collision`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, ErrInvalidInterface) {
		t.Error("errors.Is should find ErrInvalidInterface in chain")
	}
}

func TestDecodeError(t *testing.T) {
	t.Run("with wrapped error", func(t *testing.T) {
		err := &DecodeError{Entry: "f(uint256)", Reason: "inconsistent data layout", Err: ErrArityMismatch}
		expected := "abiscope: decode f(uint256): inconsistent data layout: abiscope: argument or topic count does not match the entry"
		if err.Error() != expected {
			t.Errorf("Expected error message %q, got %q", expected, err.Error())
		}
		if !errors.Is(err, ErrArityMismatch) {
			t.Error("errors.Is should find ErrArityMismatch in chain")
		}
	})

	t.Run("without wrapped error", func(t *testing.T) {
		err := &DecodeError{Entry: "f()", Reason: "bad"}
		expected := "abiscope: decode f(): bad"
		if err.Error() != expected {
			t.Errorf("Expected error message %q, got %q", expected, err.Error())
		}
	})
}

func TestInputError(t *testing.T) {
	t.Run("without path", func(t *testing.T) {
		err := &InputError{Type: "uint8", Reason: "value exceeds 8 bits"}
		expected := "abiscope: invalid uint8 input: value exceeds 8 bits"
		if err.Error() != expected {
			t.Errorf("Expected error message %q, got %q", expected, err.Error())
		}
	})

	t.Run("with path", func(t *testing.T) {
		err := &InputError{Path: "orders.@1.amount", Type: "uint8", Reason: "value exceeds 8 bits"}
		expected := "abiscope: invalid uint8 input at orders.@1.amount: value exceeds 8 bits"
		if err.Error() != expected {
			t.Errorf("Expected error message %q, got %q", expected, err.Error())
		}
	})

	t.Run("unwraps to ErrInvalidInput", func(t *testing.T) {
		var err error = &InputError{Type: "bool", Reason: "x"}
		if !errors.Is(err, ErrInvalidInput) {
			t.Error("errors.Is should find ErrInvalidInput")
		}
	})
}

func TestEncodingError(t *testing.T) {
	t.Run("argument", func(t *testing.T) {
		err := &EncodingError{Method: "transfer(address,uint256)", Index: 1, Err: ErrMissingValue}
		expected := "abiscope: encoding argument 1 of transfer(address,uint256): abiscope: missing value"
		if err.Error() != expected {
			t.Errorf("Expected error message %q, got %q", expected, err.Error())
		}
		if !errors.Is(err, ErrMissingValue) {
			t.Error("errors.Is should find ErrMissingValue in chain")
		}
	})

	t.Run("whole call", func(t *testing.T) {
		err := &EncodingError{Method: "f()", Index: -1, Err: ErrUnknownSelector}
		expected := "abiscope: encoding f(): abiscope: unknown selector"
		if err.Error() != expected {
			t.Errorf("Expected error message %q, got %q", expected, err.Error())
		}
	})
}
