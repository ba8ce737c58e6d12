package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

type failingBackend struct {
	Backend
	readErr  error
	writeErr error
}

func (f *failingBackend) StorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	if f.readErr != nil {
		return common.Hash{}, f.readErr
	}
	return f.Backend.StorageAt(ctx, addr, slot)
}

func (f *failingBackend) SetStorageAt(ctx context.Context, addr common.Address, slot common.Hash, value common.Hash) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.Backend.SetStorageAt(ctx, addr, slot, value)
}

func TestWordStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewWordStore(NewMemBackend())
	defer store.Close()

	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	slot := MappingSlot(uint256.NewInt(5), uint256.NewInt(2))
	word := uint256.MustFromHex("0x100000000000000000000000000000000000000000000000000000002")

	require.NoError(t, store.Write(ctx, addr, slot, word))
	got, err := store.Read(ctx, addr, slot)
	require.NoError(t, err)
	require.Equal(t, word, got)

	raw, err := store.Backend().StorageAt(ctx, addr, WordHash(slot))
	require.NoError(t, err)
	require.Equal(t, WordHash(word), raw)
}

func TestWordStoreWrapsBackendErrors(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")
	store := NewWordStore(&failingBackend{Backend: NewMemBackend(), readErr: cause, writeErr: cause})

	_, err := store.Read(ctx, common.Address{}, uint256.NewInt(4))
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, cause)
	require.ErrorContains(t, err, "read")

	err = store.Write(ctx, common.Address{}, uint256.NewInt(4), uint256.NewInt(1))
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, cause)
	require.ErrorContains(t, err, "write")
}

func TestWordStoreTimeoutIsIO(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewWordStore(NewMemBackend())
	_, err := store.Read(ctx, common.Address{}, uint256.NewInt(4))
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWordStoreNotInitialised(t *testing.T) {
	var store *WordStore
	_, err := store.Read(context.Background(), common.Address{}, uint256.NewInt(0))
	require.ErrorIs(t, err, ErrIO)
	require.NoError(t, store.Close())
}
