package abiscope

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract binds a deployed address to its selector table.
type Contract struct {
	address   common.Address
	table     *SelectorTable
	transport Transport
	from      common.Address
	registry  *Registry
}

// NewContract creates a Contract wrapper. Execute needs WithTransport.
func NewContract(address common.Address, table *SelectorTable, opts ...ContractOption) *Contract {
	c := &Contract{
		address: address,
		table:   table,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Address returns the contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// Table returns the contract's selector table.
func (c *Contract) Table() *SelectorTable {
	return c.table
}

// Invoke creates a Call for the named method (or full signature) with
// positional arguments in the form InputTree.Flatten returns.
func (c *Contract) Invoke(method string, args []any, opts ...CallOption) (*Call, error) {
	te := c.table.method(method)
	if te == nil {
		return nil, &MethodNotFoundError{Contract: c.address, Method: method}
	}
	return newCall(c, te, args, opts...)
}

// InvokeTree is like Invoke but takes the arguments from an input tree.
func (c *Contract) InvokeTree(method string, tree *InputTree, opts ...CallOption) (*Call, error) {
	return c.Invoke(method, tree.Flatten(), opts...)
}

// MustInvoke is like Invoke but panics on error.
func (c *Contract) MustInvoke(method string, args []any, opts ...CallOption) *Call {
	call, err := c.Invoke(method, args, opts...)
	if err != nil {
		panic(err)
	}
	return call
}

// HasMethod returns true if the contract has a function with the given name.
func (c *Contract) HasMethod(method string) bool {
	return c.table.method(method) != nil
}

// MethodNames returns the sorted, deduplicated function names.
func (c *Contract) MethodNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range c.table.Entries() {
		if e.Kind == Function && !seen[e.Name] {
			seen[e.Name] = true
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Result is the outcome of Contract.Execute. Constant calls fill Output;
// transactions fill Receipt and Logs.
type Result struct {
	Output  *Tuple
	Receipt *types.Receipt
	Logs    []*DecodedLog
}

// Execute performs call through the contract's transport. View and pure
// functions are executed as read-only calls and their return data decoded;
// everything else is sent as a transaction and the receipt logs decoded
// with the registry when one is set, otherwise with the contract's table.
func (c *Contract) Execute(ctx context.Context, call *Call) (*Result, error) {
	if c.transport == nil {
		return nil, ErrNoTransport
	}
	if call.contract != c {
		return nil, fmt.Errorf("abiscope: call %s targets another contract", call.Signature())
	}
	if err := call.validate(); err != nil {
		return nil, err
	}

	msg := ethereum.CallMsg{
		From:  c.from,
		To:    &c.address,
		Value: call.Value(),
		Data:  call.Data(),
	}

	if call.IsConstant() {
		ret, err := c.transport.Call(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("abiscope: call %s: %w", call.Signature(), err)
		}
		out, err := decodeTuple(call.te.signature, call.te.entry.Outputs, call.te.outputs, ret)
		if err != nil {
			return nil, err
		}
		return &Result{Output: out}, nil
	}

	receipt, err := c.transport.Send(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("abiscope: send %s: %w", call.Signature(), err)
	}
	if receipt == nil {
		return nil, fmt.Errorf("abiscope: send %s: transport returned no receipt", call.Signature())
	}

	var logs []*DecodedLog
	if c.registry != nil {
		logs, err = c.registry.DecodeLogs(receipt.Logs)
	} else {
		logs, err = c.table.DecodeLogs(receipt.Logs)
	}
	return &Result{Receipt: receipt, Logs: logs}, err
}
