package ledger

import (
	"fmt"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gatelock/record"
	"gatelock/storage"
)

// Puzzle is a chain of record keys in visitation order together with the
// packed words that make the parity walk follow it. Keys[0] is always zero.
type Puzzle struct {
	Keys  []*uint256.Int
	words map[common.Hash]*uint256.Int
}

// Len returns the number of chain elements, the value stored in the length
// slot.
func (p Puzzle) Len() uint64 {
	return uint64(len(p.Keys))
}

// Word returns the packed record stored under key, if the puzzle has one.
func (p Puzzle) Word(key *uint256.Int) (*uint256.Int, bool) {
	word, ok := p.words[storage.WordHash(key)]
	if !ok {
		return nil, false
	}
	return word.Clone(), true
}

// PuzzleFromKeys builds the records for an explicit key sequence. A repeated
// key must be followed by the same successor each time, since one record can
// only point one way. Transitions to an even key below 2^64 use the first
// field; anything else goes through the second field and must fit 160 bits.
func PuzzleFromKeys(keys []*uint256.Int) (Puzzle, error) {
	return buildPuzzle(keys, func(int) (uint64, uint32) { return 1, 0 })
}

// NewPuzzle generates a random chain of length elements from seed. Both
// branch kinds are used and the reserved bits are filled with noise.
func NewPuzzle(length int, seed int64) Puzzle {
	if length < 0 {
		length = 0
	}
	rng := rand.New(rand.NewSource(seed))
	keys := make([]*uint256.Int, 0, length)
	seen := make(map[common.Hash]struct{}, length)
	for len(keys) < length {
		var key *uint256.Int
		switch {
		case len(keys) == 0:
			key = new(uint256.Int)
		case rng.Intn(2) == 0:
			key = new(uint256.Int).SetUint64(rng.Uint64() &^ 1)
		default:
			key = randomWord(rng, record.SecondBits)
		}
		h := storage.WordHash(key)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		keys = append(keys, key)
	}
	fillers := make([]uint64, length+1)
	reserved := make([]uint32, length+1)
	for i := range fillers {
		fillers[i] = rng.Uint64() | 1
		reserved[i] = rng.Uint32() >> 1
	}
	puzzle, err := buildPuzzle(keys, func(i int) (uint64, uint32) { return fillers[i], reserved[i] })
	if err != nil {
		// Generated keys are distinct and at most 160 bits wide.
		panic(fmt.Sprintf("ledger: generated puzzle invalid: %v", err))
	}
	return puzzle
}

func randomWord(rng *rand.Rand, bits uint) *uint256.Int {
	var raw [32]byte
	rng.Read(raw[:])
	word := new(uint256.Int).SetBytes32(raw[:])
	if bits < 256 {
		mask := new(uint256.Int).Lsh(uint256.NewInt(1), bits)
		mask.SubUint64(mask, 1)
		word.And(word, mask)
	}
	return word
}

func buildPuzzle(keys []*uint256.Int, noise func(i int) (filler uint64, reserved uint32)) (Puzzle, error) {
	p := Puzzle{
		Keys:  make([]*uint256.Int, len(keys)),
		words: make(map[common.Hash]*uint256.Int, len(keys)),
	}
	successors := make(map[common.Hash]common.Hash, len(keys))
	for i, key := range keys {
		if key == nil {
			return Puzzle{}, fmt.Errorf("key %d is nil", i)
		}
		if i == 0 && !key.IsZero() {
			return Puzzle{}, fmt.Errorf("chain must start at key 0, got %s", key.Dec())
		}
		p.Keys[i] = key.Clone()
		if i+1 == len(keys) {
			break
		}
		next := keys[i+1]
		if next == nil {
			return Puzzle{}, fmt.Errorf("key %d is nil", i+1)
		}
		h := storage.WordHash(key)
		if prev, ok := successors[h]; ok {
			if prev != storage.WordHash(next) {
				return Puzzle{}, fmt.Errorf("key %s has two successors", key.Dec())
			}
			continue
		}
		filler, reserved := noise(i)
		rec, err := link(next, filler, reserved)
		if err != nil {
			return Puzzle{}, fmt.Errorf("link %s -> %s: %w", key.Dec(), next.Dec(), err)
		}
		successors[h] = storage.WordHash(next)
		p.words[h] = record.Encode(rec)
	}
	if n := len(keys); n > 0 {
		last := storage.WordHash(keys[n-1])
		if _, ok := p.words[last]; !ok {
			filler, reserved := noise(n - 1)
			p.words[last] = record.Encode(record.Record{First: filler | 1, Second: new(uint256.Int), Reserved: reserved})
		}
	}
	return p, nil
}

// link returns a locked record whose parity branch selects next.
func link(next *uint256.Int, filler uint64, reserved uint32) (record.Record, error) {
	if next.IsUint64() && next.Uint64()%2 == 0 {
		return record.Record{
			First:    next.Uint64(),
			Second:   new(uint256.Int).SetUint64(filler),
			Reserved: reserved,
		}, nil
	}
	if next.BitLen() > record.SecondBits {
		return record.Record{}, fmt.Errorf("key wider than %d bits", record.SecondBits)
	}
	return record.Record{
		First:    filler | 1,
		Second:   next.Clone(),
		Reserved: reserved,
	}, nil
}
