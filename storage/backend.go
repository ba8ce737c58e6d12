package storage

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Backend is the capability set a ledger must offer to the solver: raw reads
// of a contract storage slot and the administrative override that writes one.
// The override bypasses normal state transitions and is only available on
// simulated ledgers (anvil, hardhat, or the in-process backends below).
type Backend interface {
	StorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error)
	SetStorageAt(ctx context.Context, addr common.Address, slot common.Hash, value common.Hash) error
	Close() error
}
