package abiscope

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Selector lengths.
const (
	// FunctionSelectorSize is the length of a function or error selector.
	FunctionSelectorSize = 4

	// EventSelectorSize is the length of an event selector (topic0).
	EventSelectorSize = common.HashLength
)

// Selector is the hash-derived identifier of an entry: 4 bytes for
// functions and errors, 32 bytes for events.
type Selector []byte

// Hex returns the 0x-prefixed hex form.
func (s Selector) Hex() string {
	return hexutil.Encode(s)
}

// FunctionSelector returns the first 4 bytes of keccak256(signature).
func FunctionSelector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature)))
	return sel
}

// EventTopic returns keccak256(signature).
func EventTopic(signature string) common.Hash {
	return crypto.Keccak256Hash([]byte(signature))
}

// tableEntry is an entry with its selector and compiled codec.
type tableEntry struct {
	entry     Entry
	signature string
	selector  Selector
	inputs    abi.Arguments
	outputs   abi.Arguments
}

// SelectorTable maps selectors to interface entries.
// A table is read-only after Build and safe for concurrent use.
type SelectorTable struct {
	byID  map[string]*tableEntry
	order []string
}

// Build derives a selector for every named function, event and error in
// entries. Later entries overwrite earlier ones of the same family that hash
// to the same selector unless WithStrictSelectors is given. Custom errors
// never replace functions.
func Build(entries []Entry, opts ...TableOption) (*SelectorTable, error) {
	cfg := defaultTableConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	t := &SelectorTable{
		byID:  make(map[string]*tableEntry, len(entries)),
		order: make([]string, 0, len(entries)),
	}

	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		switch e.Kind {
		case Function, Event, CustomError:
		default:
			continue
		}

		te, err := compileEntry(e)
		if err != nil {
			return nil, err
		}

		key := entryKey(e.Kind, te.selector)
		if prev, exists := t.byID[key]; exists {
			if cfg.strict {
				return nil, &InterfaceError{
					Entry: te.signature,
					Err:   fmt.Errorf("%w with %s", ErrSelectorCollision, prev.signature),
				}
			}
			cfg.logger.Warn("Selector overwritten",
				zap.String("selector", te.selector.Hex()),
				zap.Stringer("previousKind", prev.entry.Kind),
				zap.Stringer("kind", e.Kind),
				zap.String("previous", prev.signature),
				zap.String("signature", te.signature))
		} else {
			t.order = append(t.order, key)
		}
		t.byID[key] = te

		cfg.logger.Debug("Registered entry",
			zap.Stringer("kind", e.Kind),
			zap.String("selector", te.selector.Hex()),
			zap.String("signature", te.signature))
	}

	return t, nil
}

// MustBuild is like Build but panics on error.
func MustBuild(entries []Entry, opts ...TableOption) *SelectorTable {
	t, err := Build(entries, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// BuildJSON parses a JSON interface descriptor and builds its table.
func BuildJSON(abiJSON []byte, opts ...TableOption) (*SelectorTable, error) {
	entries, err := ParseInterface(abiJSON)
	if err != nil {
		return nil, err
	}
	return Build(entries, opts...)
}

func compileEntry(e Entry) (*tableEntry, error) {
	sig, err := e.Signature()
	if err != nil {
		return nil, &InterfaceError{Entry: e.Name, Err: fmt.Errorf("%w: %w", ErrInvalidInterface, err)}
	}

	te := &tableEntry{entry: e.clone(), signature: sig}
	if e.Kind == Event {
		h := EventTopic(sig)
		te.selector = Selector(h.Bytes())
	} else {
		sel := FunctionSelector(sig)
		te.selector = Selector(sel[:])
	}

	if te.inputs, err = arguments(e.Inputs, e.Kind == Event); err != nil {
		return nil, &InterfaceError{Entry: sig, Err: fmt.Errorf("%w: %w", ErrInvalidInterface, err)}
	}
	if te.outputs, err = arguments(e.Outputs, false); err != nil {
		return nil, &InterfaceError{Entry: sig, Err: fmt.Errorf("%w: %w", ErrInvalidInterface, err)}
	}
	return te, nil
}

// entryKey keeps custom errors apart from functions sharing a 4-byte
// selector, so calldata never resolves to an error.
func entryKey(kind EntryKind, sel []byte) string {
	if kind == CustomError {
		return "error:" + string(sel)
	}
	return string(sel)
}

// Len returns the number of registered selectors.
func (t *SelectorTable) Len() int {
	return len(t.order)
}

// Function returns the function entry for a 4-byte selector.
func (t *SelectorTable) Function(sel [4]byte) (Entry, bool) {
	te, ok := t.byID[entryKey(Function, sel[:])]
	if !ok {
		return Entry{}, false
	}
	return te.entry.clone(), true
}

// Error returns the custom error entry for a 4-byte selector.
func (t *SelectorTable) Error(sel [4]byte) (Entry, bool) {
	te, ok := t.byID[entryKey(CustomError, sel[:])]
	if !ok {
		return Entry{}, false
	}
	return te.entry.clone(), true
}

// Event returns the event entry for a topic0 value.
func (t *SelectorTable) Event(topic common.Hash) (Entry, bool) {
	te, ok := t.byID[string(topic[:])]
	if !ok {
		return Entry{}, false
	}
	return te.entry.clone(), true
}

// Method looks up a function by name, or by full signature when name
// contains a parenthesis. Overloaded names resolve to the first registered.
func (t *SelectorTable) Method(name string) (Entry, bool) {
	te := t.method(name)
	if te == nil {
		return Entry{}, false
	}
	return te.entry.clone(), true
}

func (t *SelectorTable) method(name string) *tableEntry {
	bySignature := strings.Contains(name, "(")
	for _, key := range t.order {
		te := t.byID[key]
		if te.entry.Kind != Function {
			continue
		}
		if bySignature && te.signature == name || !bySignature && te.entry.Name == name {
			return te
		}
	}
	return nil
}

// SelectorOf returns the selector registered for a signature.
func (t *SelectorTable) SelectorOf(signature string) (Selector, bool) {
	for _, key := range t.order {
		if te := t.byID[key]; te.signature == signature {
			return append(Selector(nil), te.selector...), true
		}
	}
	return nil, false
}

// TableRow describes one registered selector.
type TableRow struct {
	Selector  Selector
	Kind      EntryKind
	Signature string
}

// Rows lists the registered selectors in registration order.
func (t *SelectorTable) Rows() []TableRow {
	rows := make([]TableRow, 0, len(t.order))
	for _, key := range t.order {
		te := t.byID[key]
		rows = append(rows, TableRow{
			Selector:  append(Selector(nil), te.selector...),
			Kind:      te.entry.Kind,
			Signature: te.signature,
		})
	}
	return rows
}

// Entries returns copies of the registered entries in registration order.
func (t *SelectorTable) Entries() []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, key := range t.order {
		entries = append(entries, t.byID[key].entry.clone())
	}
	return entries
}
