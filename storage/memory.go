package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage: backend closed")

type slotKey struct {
	addr common.Address
	slot common.Hash
}

// --- In-memory ledger (tests and offline simulation) ---

// MemBackend keeps contract storage in a map. Unwritten slots read as zero,
// matching EVM semantics.
type MemBackend struct {
	mu     sync.RWMutex
	data   map[slotKey]common.Hash
	closed bool
}

func NewMemBackend() *MemBackend {
	return &MemBackend{
		data: make(map[slotKey]common.Hash),
	}
}

func (m *MemBackend) StorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return common.Hash{}, ErrClosed
	}
	return m.data[slotKey{addr: addr, slot: slot}], nil
}

func (m *MemBackend) SetStorageAt(ctx context.Context, addr common.Address, slot common.Hash, value common.Hash) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	key := slotKey{addr: addr, slot: slot}
	if value == (common.Hash{}) {
		delete(m.data, key)
		return nil
	}
	m.data[key] = value
	return nil
}

// Slots returns the number of non-zero slots held for addr.
func (m *MemBackend) Slots(addr common.Address) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for key := range m.data {
		if key.addr == addr {
			count++
		}
	}
	return count
}

// Close satisfies the Backend interface. Later calls fail with ErrClosed.
func (m *MemBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
