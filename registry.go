package abiscope

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Registry maps contract addresses to their selector tables so a receipt
// touching several known contracts can be decoded in one pass.
// A Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tables map[common.Address]*SelectorTable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[common.Address]*SelectorTable)}
}

// Register associates table with addr, replacing any previous table.
func (r *Registry) Register(addr common.Address, table *SelectorTable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[addr] = table
}

// Unregister forgets addr.
func (r *Registry) Unregister(addr common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, addr)
}

// Lookup returns the table registered for addr.
func (r *Registry) Lookup(addr common.Address) (*SelectorTable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[addr]
	return t, ok
}

// Len returns the number of registered addresses.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables)
}

// DecodeLogs decodes each log with the table of its emitting address.
// Logs from unknown addresses, and logs their table cannot resolve, are
// skipped. Decode failures are joined into the returned error.
func (r *Registry) DecodeLogs(logs []*types.Log) ([]*DecodedLog, error) {
	var (
		out  = make([]*DecodedLog, 0, len(logs))
		errs []error
	)
	for _, lg := range logs {
		if lg == nil {
			continue
		}
		table, ok := r.Lookup(lg.Address)
		if !ok {
			continue
		}
		decoded, err := table.DecodeLog(lg.Topics, lg.Data)
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
