package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gatelock/observability"
)

// ErrIO marks any failure to read or write a storage word. Writes that
// completed before the failure are not rolled back.
var ErrIO = errors.New("storage: io failure")

// WordStoreOption customises a WordStore.
type WordStoreOption func(*WordStore)

// WithLogger sets the logger used for per-word debug output.
func WithLogger(logger *slog.Logger) WordStoreOption {
	return func(s *WordStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records every backend operation in m.
func WithMetrics(m *observability.SolverMetrics) WordStoreOption {
	return func(s *WordStore) {
		s.metrics = m
	}
}

// WordStore reads and writes single 256-bit words against one ledger.
type WordStore struct {
	backend Backend
	logger  *slog.Logger
	metrics *observability.SolverMetrics
}

// NewWordStore constructs a store over backend.
func NewWordStore(backend Backend, opts ...WordStoreOption) *WordStore {
	s := &WordStore{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the word stored at (addr, slot).
func (s *WordStore) Read(ctx context.Context, addr common.Address, slot *uint256.Int) (*uint256.Int, error) {
	if s == nil || s.backend == nil {
		return nil, fmt.Errorf("%w: word store not initialised", ErrIO)
	}
	key := WordHash(slot)
	value, err := s.backend.StorageAt(ctx, addr, key)
	s.metrics.ObserveStorage("read", err)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s slot %s: %w", ErrIO, addr.Hex(), key.Hex(), err)
	}
	s.logger.Debug("storage read", "address", addr.Hex(), "slot", key.Hex(), "value", value.Hex())
	return HashWord(value), nil
}

// Write stores word at (addr, slot) through the backend's admin override.
func (s *WordStore) Write(ctx context.Context, addr common.Address, slot, word *uint256.Int) error {
	if s == nil || s.backend == nil {
		return fmt.Errorf("%w: word store not initialised", ErrIO)
	}
	key := WordHash(slot)
	value := WordHash(word)
	err := s.backend.SetStorageAt(ctx, addr, key, value)
	s.metrics.ObserveStorage("write", err)
	if err != nil {
		return fmt.Errorf("%w: write %s slot %s: %w", ErrIO, addr.Hex(), key.Hex(), err)
	}
	s.logger.Debug("storage write", "address", addr.Hex(), "slot", key.Hex(), "value", value.Hex())
	return nil
}

// Backend returns the backend the store writes through.
func (s *WordStore) Backend() Backend {
	return s.backend
}

// Close releases the backend.
func (s *WordStore) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
