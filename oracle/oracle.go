package oracle

import (
	"context"
	"errors"

	"github.com/holiman/uint256"
)

// ErrCall marks a failed verification call: transport errors, reverts and
// undecodable return data. A false verdict is not an error.
var ErrCall = errors.New("oracle: verification call failed")

// Oracle decides whether an ordered identifier sequence solves the puzzle.
type Oracle interface {
	IsSolved(ctx context.Context, ids []*uint256.Int) (bool, error)
}

// Func adapts a plain function to the Oracle interface.
type Func func(ctx context.Context, ids []*uint256.Int) (bool, error)

// IsSolved calls f.
func (f Func) IsSolved(ctx context.Context, ids []*uint256.Int) (bool, error) {
	return f(ctx, ids)
}
