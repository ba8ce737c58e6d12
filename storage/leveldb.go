package storage

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"
)

// --- File-backed ledger (fixtures) ---

// LevelBackend is a simulated ledger persisted in LevelDB. Keys are the
// contract address followed by the slot, values the raw 32-byte word.
type LevelBackend struct {
	db *leveldb.DB
}

// NewLevelBackend creates or opens a LevelDB ledger at the specified path.
func NewLevelBackend(path string) (*LevelBackend, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelBackend{db: db}, nil
}

func levelKey(addr common.Address, slot common.Hash) []byte {
	key := make([]byte, 0, common.AddressLength+common.HashLength)
	key = append(key, addr.Bytes()...)
	return append(key, slot.Bytes()...)
}

// StorageAt reads a slot. Missing keys read as the zero word.
func (l *LevelBackend) StorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}
	value, err := l.db.Get(levelKey(addr, slot), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return common.Hash{}, nil
	}
	if errors.Is(err, leveldb.ErrClosed) {
		return common.Hash{}, ErrClosed
	}
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(value), nil
}

// SetStorageAt inserts or updates a slot. Writing zero deletes the key.
func (l *LevelBackend) SetStorageAt(ctx context.Context, addr common.Address, slot common.Hash, value common.Hash) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var err error
	if value == (common.Hash{}) {
		err = l.db.Delete(levelKey(addr, slot), nil)
	} else {
		err = l.db.Put(levelKey(addr, slot), value.Bytes(), nil)
	}
	if errors.Is(err, leveldb.ErrClosed) {
		return ErrClosed
	}
	return err
}

// Close closes the database.
func (l *LevelBackend) Close() error {
	return l.db.Close()
}
