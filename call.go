package abiscope

import (
	"math/big"
)

// Call represents a pending function call on a Contract.
// Call is immutable - modifier methods return new instances.
type Call struct {
	contract *Contract
	te       *tableEntry
	args     []any
	data     []byte
	value    *big.Int // value sent with a payable call
}

// newCall packs args for te and applies opts.
func newCall(contract *Contract, te *tableEntry, args []any, opts ...CallOption) (*Call, error) {
	data, err := te.encode(args)
	if err != nil {
		return nil, err
	}

	c := &Call{
		contract: contract,
		te:       te,
		args:     append([]any(nil), args...),
		data:     data,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Contract returns the target contract for this call.
func (c *Call) Contract() *Contract {
	return c.contract
}

// Entry returns the function being called.
func (c *Call) Entry() Entry {
	return c.te.entry.clone()
}

// Signature returns the canonical signature of the function.
func (c *Call) Signature() string {
	return c.te.signature
}

// Args returns a copy of the positional arguments.
func (c *Call) Args() []any {
	return append([]any(nil), c.args...)
}

// Data returns the calldata: selector followed by the packed arguments.
func (c *Call) Data() []byte {
	return append([]byte(nil), c.data...)
}

// Selector returns the 4-byte function selector.
func (c *Call) Selector() [4]byte {
	var sel [4]byte
	copy(sel[:], c.te.selector)
	return sel
}

// Value returns the value attached to the call (nil if none).
func (c *Call) Value() *big.Int {
	if c.value == nil {
		return nil
	}
	return new(big.Int).Set(c.value)
}

// IsConstant reports whether executing the call is a read-only call.
func (c *Call) IsConstant() bool {
	return c.te.entry.IsConstant()
}

// WithValue attaches value to the call.
// Only valid for payable functions; see Contract.Execute.
//
// Returns a new Call with the value set. A nil amount clears it.
func (c *Call) WithValue(amount *big.Int) *Call {
	clone := c.clone()
	clone.value = nil
	if amount != nil {
		clone.value = new(big.Int).Set(amount)
	}
	return clone
}

// clone creates a shallow copy of the Call.
func (c *Call) clone() *Call {
	clone := *c
	clone.args = append([]any(nil), c.args...)
	return &clone
}

// validate rejects value on functions that cannot receive it.
func (c *Call) validate() error {
	if c.value != nil && c.value.Sign() > 0 && !c.te.entry.IsPayable() {
		return &EncodingError{Method: c.te.signature, Index: -1, Err: ErrNotPayable}
	}
	return nil
}
