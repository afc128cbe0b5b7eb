package abiscope

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// Unit is a denomination an integer amount can be entered in.
type Unit struct {
	Name     string
	Decimals int
	// MinBits is the smallest integer width for which the unit is offered.
	MinBits int
}

// Denominations, smallest first.
var (
	Wei   = Unit{Name: "wei", Decimals: 0, MinBits: 0}
	Kwei  = Unit{Name: "kwei", Decimals: 3, MinBits: 16}
	Mwei  = Unit{Name: "mwei", Decimals: 6, MinBits: 24}
	Gwei  = Unit{Name: "gwei", Decimals: 9, MinBits: 32}
	Ether = Unit{Name: "ether", Decimals: 18, MinBits: 64}
)

var units = []Unit{Wei, Kwei, Mwei, Gwei, Ether}

// UnitsFor returns the denominations that make sense for an integer of the
// given bit width.
func UnitsFor(bits int) []Unit {
	out := make([]Unit, 0, len(units))
	for _, u := range units {
		if bits >= u.MinBits {
			out = append(out, u)
		}
	}
	return out
}

// ParseUnit looks up a denomination by name ("eth" is accepted for ether).
func ParseUnit(name string) (Unit, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "eth" {
		return Ether, nil
	}
	for _, u := range units {
		if u.Name == name {
			return u, nil
		}
	}
	return Unit{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidInput, name)
}

// ParseLeaf parses user text into the Go value go-ethereum packs for an
// elementary type: *big.Int for integers, common.Address, bool, string and
// []byte for bytes, bytesN and function.
func ParseLeaf(t Type, raw string) (any, error) {
	if t.Kind() != ElementaryKind {
		return nil, &InputError{Type: t.String(), Reason: "not an elementary type"}
	}

	if bits, signed, ok := t.IntegerBits(); ok {
		s := strings.TrimSpace(raw)
		if s == "" {
			return nil, &InputError{Type: t.name, Reason: "empty value"}
		}
		n, ok := math.ParseBig256(s)
		if !ok {
			return nil, &InputError{Type: t.name, Reason: fmt.Sprintf("%q is not an integer", raw)}
		}
		if err := checkRange(t.name, n, bits, signed); err != nil {
			return nil, err
		}
		return n, nil
	}

	switch name := t.name; {
	case name == "address":
		return parseAddress(raw)

	case name == "bool":
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, &InputError{Type: name, Reason: fmt.Sprintf("%q is not a boolean", raw)}
		}
		return b, nil

	case name == "string":
		return raw, nil

	case name == "bytes":
		b, err := decodeHex(raw)
		if err != nil {
			return nil, &InputError{Type: name, Reason: err.Error()}
		}
		return b, nil

	case name == "function":
		return parseFixedBytes(name, raw, 24)

	case strings.HasPrefix(name, "bytes"):
		size, err := strconv.Atoi(name[len("bytes"):])
		if err != nil || size < 1 || size > 32 {
			return nil, &InputError{Type: name, Reason: "unsupported type"}
		}
		return parseFixedBytes(name, raw, size)

	default:
		return nil, &InputError{Type: name, Reason: "unsupported type"}
	}
}

// ParseAmount parses a decimal amount such as "1.5" in unit and returns the
// integer number of base units, checked against the type's width.
func ParseAmount(t Type, raw string, unit Unit) (*big.Int, error) {
	bits, signed, ok := t.IntegerBits()
	if !ok {
		return nil, &InputError{Type: t.String(), Reason: "amounts need an integer type"}
	}
	if bits < unit.MinBits {
		return nil, &InputError{Type: t.name, Reason: fmt.Sprintf("unit %s needs at least %d bits", unit.Name, unit.MinBits)}
	}

	s := strings.TrimSpace(raw)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" || !isDigits(whole) || !isDigits(frac) {
		return nil, &InputError{Type: t.name, Reason: fmt.Sprintf("%q is not a decimal amount", raw)}
	}
	frac = strings.TrimRight(frac, "0")
	if len(frac) > unit.Decimals {
		return nil, &InputError{Type: t.name, Reason: fmt.Sprintf("%q has more than %d decimals", raw, unit.Decimals)}
	}

	digits := whole + frac + strings.Repeat("0", unit.Decimals-len(frac))
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, &InputError{Type: t.name, Reason: fmt.Sprintf("%q is not a decimal amount", raw)}
	}
	if neg {
		n.Neg(n)
	}
	if err := checkRange(t.name, n, bits, signed); err != nil {
		return nil, err
	}
	return n, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// checkRange rejects values that do not fit the declared width.
func checkRange(typ string, n *big.Int, bits int, signed bool) error {
	if !signed {
		if n.Sign() < 0 {
			return &InputError{Type: typ, Reason: "negative value for unsigned type"}
		}
		if n.BitLen() > bits {
			return &InputError{Type: typ, Reason: fmt.Sprintf("value exceeds %d bits", bits)}
		}
		return nil
	}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	minValue := new(big.Int).Neg(limit)
	if n.Cmp(minValue) < 0 || n.Cmp(limit) >= 0 {
		return &InputError{Type: typ, Reason: fmt.Sprintf("value out of range for %d-bit signed integer", bits)}
	}
	return nil
}

// parseAddress accepts 40 hex digits with or without 0x. Mixed-case input
// must carry a valid EIP-55 checksum.
func parseAddress(raw string) (common.Address, error) {
	s := strings.TrimSpace(raw)
	if !common.IsHexAddress(s) {
		return common.Address{}, &InputError{Type: "address", Reason: fmt.Sprintf("%q is not a 20-byte hex address", raw)}
	}
	addr := common.HexToAddress(s)
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if digits != strings.ToLower(digits) && digits != strings.ToUpper(digits) && "0x"+digits != addr.Hex() {
		return common.Address{}, &InputError{Type: "address", Reason: "bad EIP-55 checksum"}
	}
	return addr, nil
}

func parseFixedBytes(typ, raw string, size int) ([]byte, error) {
	b, err := decodeHex(raw)
	if err != nil {
		return nil, &InputError{Type: typ, Reason: err.Error()}
	}
	if len(b) != size {
		return nil, &InputError{Type: typ, Reason: fmt.Sprintf("got %d bytes, want %d", len(b), size)}
	}
	return b, nil
}
