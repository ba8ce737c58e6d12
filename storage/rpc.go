package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// DefaultAdminMethod is the storage override exposed by anvil. Hardhat offers
// the same call as hardhat_setStorageAt.
const DefaultAdminMethod = "anvil_setStorageAt"

// RPCOption customises an RPCBackend.
type RPCOption func(*RPCBackend)

// WithAdminMethod overrides the JSON-RPC method used for storage writes.
func WithAdminMethod(method string) RPCOption {
	return func(b *RPCBackend) {
		if method = strings.TrimSpace(method); method != "" {
			b.adminMethod = method
		}
	}
}

// WithRateLimit throttles every call through limiter. A nil limiter disables
// throttling.
func WithRateLimit(limiter *rate.Limiter) RPCOption {
	return func(b *RPCBackend) {
		b.limiter = limiter
	}
}

// RPCBackend adapts a dev node's JSON-RPC endpoint: eth_getStorageAt for
// reads and the admin override for writes.
type RPCBackend struct {
	client      *rpc.Client
	eth         *ethclient.Client
	adminMethod string
	limiter     *rate.Limiter
}

// NewRPCBackend wraps an established RPC client. The backend owns the client
// and closes it on Close.
func NewRPCBackend(client *rpc.Client, opts ...RPCOption) *RPCBackend {
	b := &RPCBackend{
		client:      client,
		eth:         ethclient.NewClient(client),
		adminMethod: DefaultAdminMethod,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *RPCBackend) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

func (b *RPCBackend) StorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	if b == nil || b.eth == nil {
		return common.Hash{}, fmt.Errorf("rpc backend not initialised")
	}
	if err := b.wait(ctx); err != nil {
		return common.Hash{}, err
	}
	raw, err := b.eth.StorageAt(ctx, addr, slot, nil)
	if err != nil {
		return common.Hash{}, err
	}
	if len(raw) > common.HashLength {
		return common.Hash{}, fmt.Errorf("eth_getStorageAt returned %d bytes", len(raw))
	}
	return common.BytesToHash(raw), nil
}

func (b *RPCBackend) SetStorageAt(ctx context.Context, addr common.Address, slot common.Hash, value common.Hash) error {
	if b == nil || b.client == nil {
		return fmt.Errorf("rpc backend not initialised")
	}
	if err := b.wait(ctx); err != nil {
		return err
	}
	return b.client.CallContext(ctx, nil, b.adminMethod, addr, slot, value)
}

// Eth exposes the typed client sharing this backend's connection.
func (b *RPCBackend) Eth() *ethclient.Client {
	return b.eth
}

// Close closes the underlying RPC connection.
func (b *RPCBackend) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	b.client.Close()
	return nil
}
