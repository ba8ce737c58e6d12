package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"gatelock/record"
)

func keys(values ...uint64) []*uint256.Int {
	out := make([]*uint256.Int, len(values))
	for i, v := range values {
		out[i] = uint256.NewInt(v)
	}
	return out
}

// walk follows the parity branch through the puzzle's own records.
func walk(t *testing.T, p Puzzle) []*uint256.Int {
	t.Helper()
	visited := make([]*uint256.Int, 0, p.Len())
	key := new(uint256.Int)
	for i := uint64(0); i < p.Len(); i++ {
		visited = append(visited, key)
		word, ok := p.Word(key)
		require.True(t, ok, "missing record for %s", key.Dec())
		rec := record.Decode(word)
		require.False(t, rec.Unlocked)
		key = rec.Next()
	}
	return visited
}

func TestPuzzleFromKeysOddBranch(t *testing.T) {
	p, err := PuzzleFromKeys(keys(0, 5, 9))
	require.NoError(t, err)
	require.Equal(t, uint64(3), p.Len())

	word, ok := p.Word(uint256.NewInt(0))
	require.True(t, ok)
	rec := record.Decode(word)
	require.Equal(t, uint64(1), rec.First)
	require.Equal(t, uint256.NewInt(5), rec.Second)

	require.Equal(t, keys(0, 5, 9), walk(t, p))
}

func TestPuzzleFromKeysEvenBranch(t *testing.T) {
	p, err := PuzzleFromKeys(keys(0, 2, 8, 7, 4))
	require.NoError(t, err)
	word, _ := p.Word(uint256.NewInt(2))
	require.Equal(t, uint64(8), record.Decode(word).First)
	require.Equal(t, keys(0, 2, 8, 7, 4), walk(t, p))
}

func TestPuzzleFromKeysCycle(t *testing.T) {
	p, err := PuzzleFromKeys(keys(0, 6, 0, 6))
	require.NoError(t, err)
	require.Equal(t, uint64(4), p.Len())
	require.Equal(t, keys(0, 6, 0, 6), walk(t, p))

	_, err = PuzzleFromKeys(keys(0, 6, 0, 8))
	require.ErrorContains(t, err, "two successors")
}

func TestPuzzleFromKeysValidation(t *testing.T) {
	_, err := PuzzleFromKeys(keys(1, 2))
	require.ErrorContains(t, err, "start at key 0")

	wide := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	_, err = PuzzleFromKeys([]*uint256.Int{uint256.NewInt(0), wide})
	require.ErrorContains(t, err, "wider than 160 bits")

	empty, err := PuzzleFromKeys(nil)
	require.NoError(t, err)
	require.Zero(t, empty.Len())
}

func TestNewPuzzleDeterministic(t *testing.T) {
	a := NewPuzzle(32, 7)
	b := NewPuzzle(32, 7)
	require.Equal(t, a.Keys, b.Keys)
	for _, key := range a.Keys {
		wa, _ := a.Word(key)
		wb, _ := b.Word(key)
		require.Equal(t, wa, wb)
	}
	require.NotEqual(t, a.Keys, NewPuzzle(32, 8).Keys)
}

func TestNewPuzzleWalksBothBranches(t *testing.T) {
	p := NewPuzzle(64, 42)
	require.Equal(t, uint64(64), p.Len())
	require.True(t, p.Keys[0].IsZero())
	require.Equal(t, p.Keys, walk(t, p))

	var even, odd int
	for _, key := range p.Keys[:len(p.Keys)-1] {
		word, _ := p.Word(key)
		if record.Decode(word).First%2 == 0 {
			even++
		} else {
			odd++
		}
	}
	require.Positive(t, even)
	require.Positive(t, odd)
}
