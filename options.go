package abiscope

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// TableOption configures Build.
type TableOption func(*tableConfig)

// tableConfig holds configuration for Build.
type tableConfig struct {
	strict bool
	logger *zap.Logger
}

// defaultTableConfig returns the default table configuration.
func defaultTableConfig() *tableConfig {
	return &tableConfig{
		strict: false,
		logger: zap.NewNop(),
	}
}

// WithStrictSelectors makes Build fail when two entries share a selector.
// By default the later entry silently replaces the earlier one.
func WithStrictSelectors() TableOption {
	return func(c *tableConfig) {
		c.strict = true
	}
}

// WithLogger sets the logger used to report overwritten selectors.
func WithLogger(logger *zap.Logger) TableOption {
	return func(c *tableConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// ContractOption configures a Contract.
type ContractOption func(*Contract)

// WithTransport sets the transport used by Contract.Execute.
func WithTransport(tr Transport) ContractOption {
	return func(c *Contract) {
		c.transport = tr
	}
}

// WithFrom sets the sender address used for calls and transactions.
func WithFrom(from common.Address) ContractOption {
	return func(c *Contract) {
		c.from = from
	}
}

// WithRegistry lets Contract.Execute decode receipt logs emitted by other
// known contracts.
func WithRegistry(r *Registry) ContractOption {
	return func(c *Contract) {
		c.registry = r
	}
}

// CallOption configures a Call.
type CallOption func(*Call)

// WithCallValue attaches value to a payable call.
func WithCallValue(amount *big.Int) CallOption {
	return func(c *Call) {
		if amount != nil {
			c.value = new(big.Int).Set(amount)
		}
	}
}
