package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gatelock/storage"
)

// Provision writes puzzle into the contract storage at addr: the chain length
// into the length slot and one packed record per distinct key.
func Provision(ctx context.Context, store *storage.WordStore, addr common.Address, layout Layout, puzzle Puzzle) error {
	layout = layout.withDefaults()
	length := new(uint256.Int).SetUint64(puzzle.Len())
	if err := store.Write(ctx, addr, layout.LengthSlot, length); err != nil {
		return fmt.Errorf("provision length: %w", err)
	}
	for _, key := range puzzle.Keys {
		word, ok := puzzle.Word(key)
		if !ok {
			return fmt.Errorf("provision: no record for key %s", key.Dec())
		}
		if err := store.Write(ctx, addr, layout.RecordSlot(key), word); err != nil {
			return fmt.Errorf("provision key %s: %w", key.Dec(), err)
		}
	}
	return nil
}
