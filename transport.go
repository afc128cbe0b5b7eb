package abiscope

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Transport carries calls to a chain. Implementations are supplied by the
// caller; the library never opens connections on its own.
type Transport interface {
	// Call executes a read-only call and returns the raw return data.
	Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)

	// Send submits a state-changing transaction and waits for its receipt.
	Send(ctx context.Context, msg ethereum.CallMsg) (*types.Receipt, error)
}

// RPCTransport performs read-only calls over JSON-RPC.
// Send always fails with ErrReadOnlyTransport: signing is left to the caller.
type RPCTransport struct {
	client *ethclient.Client
}

var _ Transport = (*RPCTransport)(nil)

// NewRPCTransport wraps an existing client.
func NewRPCTransport(client *ethclient.Client) *RPCTransport {
	return &RPCTransport{client: client}
}

// DialRPC connects to a JSON-RPC endpoint.
func DialRPC(ctx context.Context, url string) (*RPCTransport, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("abiscope: dial %s: %w", url, err)
	}
	return &RPCTransport{client: client}, nil
}

// Call executes msg against the latest block.
func (t *RPCTransport) Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return t.client.CallContract(ctx, msg, nil)
}

// Send returns ErrReadOnlyTransport.
func (t *RPCTransport) Send(context.Context, ethereum.CallMsg) (*types.Receipt, error) {
	return nil, ErrReadOnlyTransport
}

// Close releases the underlying connection.
func (t *RPCTransport) Close() {
	t.client.Close()
}
