package abiscope

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for common failure conditions.
var (
	// ErrMalformedType indicates a type descriptor is structurally invalid.
	ErrMalformedType = errors.New("abiscope: malformed type descriptor")

	// ErrInvalidInterface indicates a selector could not be derived for an entry.
	ErrInvalidInterface = errors.New("abiscope: invalid interface descriptor")

	// ErrSelectorCollision indicates two entries hash to the same selector in strict mode.
	ErrSelectorCollision = fmt.Errorf("%w: selector collision", ErrInvalidInterface)

	// ErrTooShort indicates calldata is shorter than a 4-byte selector.
	ErrTooShort = errors.New("abiscope: calldata shorter than selector")

	// ErrUnknownSelector indicates no entry in the table matches the selector.
	ErrUnknownSelector = errors.New("abiscope: unknown selector")

	// ErrAnonymousLog indicates a log without topics, which cannot be matched to an event.
	ErrAnonymousLog = errors.New("abiscope: log has no topics")

	// ErrArityMismatch indicates a call argument count or a log topic count that
	// disagrees with the entry's parameters.
	ErrArityMismatch = errors.New("abiscope: argument or topic count does not match the entry")

	// ErrInvalidInput indicates a user-supplied value cannot be parsed into its declared type.
	ErrInvalidInput = errors.New("abiscope: invalid input")

	// ErrInvalidPath indicates a key-path that does not match the input tree's shape.
	ErrInvalidPath = errors.New("abiscope: invalid input path")

	// ErrMissingValue indicates a positional argument was never filled in.
	ErrMissingValue = errors.New("abiscope: missing value")

	// ErrNotPayable indicates value was attached to a function that cannot receive it.
	ErrNotPayable = errors.New("abiscope: function is not payable")

	// ErrNoTransport indicates a contract was executed without a transport.
	ErrNoTransport = errors.New("abiscope: no transport configured")

	// ErrReadOnlyTransport indicates the transport cannot submit transactions.
	ErrReadOnlyTransport = errors.New("abiscope: transport is read-only")
)

// IsUnresolved reports whether err means the input could not be matched to
// an entry at all. Callers should render the raw bytes rather than fail.
func IsUnresolved(err error) bool {
	return errors.Is(err, ErrTooShort) ||
		errors.Is(err, ErrUnknownSelector) ||
		errors.Is(err, ErrAnonymousLog)
}

// TypeError indicates a type descriptor that cannot be canonicalized or mapped.
type TypeError struct {
	Type string
	Err  error
}

func (e *TypeError) Error() string {
	if e.Type == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("abiscope: type %q: %v", e.Type, e.Err)
}

func (e *TypeError) Unwrap() error {
	return e.Err
}

// InterfaceError indicates an interface entry that cannot be registered.
type InterfaceError struct {
	Entry string
	Err   error
}

func (e *InterfaceError) Error() string {
	return fmt.Sprintf("abiscope: entry %q: %v", e.Entry, e.Err)
}

func (e *InterfaceError) Unwrap() error {
	return e.Err
}

// DecodeError indicates bytes whose layout is inconsistent with the entry's types.
type DecodeError struct {
	Entry  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("abiscope: decode %s: %s: %v", e.Entry, e.Reason, e.Err)
	}
	return fmt.Sprintf("abiscope: decode %s: %s", e.Entry, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// InputError indicates a leaf value that cannot be parsed into its declared type.
type InputError struct {
	Path   string
	Type   string
	Reason string
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("abiscope: invalid %s input: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("abiscope: invalid %s input at %s: %s", e.Type, e.Path, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// EncodingError indicates a failure while packing arguments into calldata.
type EncodingError struct {
	Method string
	Index  int
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("abiscope: encoding %s: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("abiscope: encoding argument %d of %s: %v", e.Index, e.Method, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// MethodNotFoundError indicates the contract doesn't have the requested method.
type MethodNotFoundError struct {
	Contract common.Address
	Method   string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("abiscope: method %q not found in contract %s", e.Method, e.Contract.Hex())
}
