package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"gatelock/storage"
)

// SimOption customises Simulate.
type SimOption func(*simConfig)

type simConfig struct {
	backend storage.Backend
	address common.Address
	layout  Layout
}

// WithBackend provisions into backend instead of a fresh MemBackend.
func WithBackend(backend storage.Backend) SimOption {
	return func(c *simConfig) {
		if backend != nil {
			c.backend = backend
		}
	}
}

// WithAddress places the simulated contract at addr.
func WithAddress(addr common.Address) SimOption {
	return func(c *simConfig) {
		if (addr != common.Address{}) {
			c.address = addr
		}
	}
}

// WithLayout overrides the storage slots.
func WithLayout(layout Layout) SimOption {
	return func(c *simConfig) {
		c.layout = layout.withDefaults()
	}
}

// Simulate provisions puzzle into an in-process ledger and returns a
// deployment whose oracle verifies solutions against it.
func Simulate(ctx context.Context, puzzle Puzzle, opts ...SimOption) (Deployment, error) {
	cfg := simConfig{address: DefaultAddress, layout: DefaultLayout()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.backend == nil {
		cfg.backend = storage.NewMemBackend()
	}
	store := storage.NewWordStore(cfg.backend)
	if err := Provision(ctx, store, cfg.address, cfg.layout, puzzle); err != nil {
		return Deployment{}, fmt.Errorf("simulate: %w", err)
	}
	return Deployment{
		Address: cfg.address,
		Backend: cfg.backend,
		Oracle:  NewVerifier(store, cfg.address, cfg.layout, puzzle),
		Layout:  cfg.layout,
	}, nil
}
