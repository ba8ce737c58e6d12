package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gatelock/oracle"
	"gatelock/record"
	"gatelock/storage"
)

// Verifier reproduces GateLock.isSolved for a provisioned puzzle: the ids must
// match the chain exactly and every record on it must carry the unlocked flag.
type Verifier struct {
	store   *storage.WordStore
	address common.Address
	layout  Layout
	puzzle  Puzzle
}

var _ oracle.Oracle = (*Verifier)(nil)

// NewVerifier checks solutions for puzzle as stored at addr.
func NewVerifier(store *storage.WordStore, addr common.Address, layout Layout, puzzle Puzzle) *Verifier {
	return &Verifier{store: store, address: addr, layout: layout.withDefaults(), puzzle: puzzle}
}

// IsSolved implements oracle.Oracle.
func (v *Verifier) IsSolved(ctx context.Context, ids []*uint256.Int) (bool, error) {
	if v == nil || v.store == nil {
		return false, fmt.Errorf("%w: verifier not initialised", oracle.ErrCall)
	}
	if len(ids) != len(v.puzzle.Keys) {
		return false, nil
	}
	for i, id := range ids {
		if id == nil || !id.Eq(v.puzzle.Keys[i]) {
			return false, nil
		}
	}
	for _, key := range v.puzzle.Keys {
		word, err := v.store.Read(ctx, v.address, v.layout.RecordSlot(key))
		if err != nil {
			return false, fmt.Errorf("%w: %w", oracle.ErrCall, err)
		}
		if !record.IsUnlocked(word) {
			return false, nil
		}
	}
	return true, nil
}
