package record

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

// Bit layout of a packed GateLock record. Fields are listed from the least
// significant bit upwards.
const (
	FirstBits    = 64
	SecondOffset = FirstBits
	SecondBits   = 160
	UnlockedBit  = SecondOffset + SecondBits
	ReservedBit  = UnlockedBit + 1
	ReservedBits = 256 - ReservedBit
)

var (
	firstMask    = new(uint256.Int).SetUint64(math.MaxUint64)
	secondMask   = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), SecondBits), uint256.NewInt(1))
	unlockedMask = new(uint256.Int).Lsh(uint256.NewInt(1), UnlockedBit)
	reservedMask = uint64(1)<<ReservedBits - 1
)

// Record is the decoded view of one packed storage word.
type Record struct {
	First    uint64
	Second   *uint256.Int
	Unlocked bool
	// Reserved holds bits [225,256) verbatim.
	Reserved uint32
}

// Decode splits a storage word into its record fields. Decoding cannot fail:
// every field is a fixed-width mask over the word.
func Decode(word *uint256.Int) Record {
	if word == nil {
		return Record{Second: new(uint256.Int)}
	}
	second := new(uint256.Int).Rsh(word, SecondOffset)
	second.And(second, secondMask)
	flag := new(uint256.Int).Rsh(word, UnlockedBit).Uint64() & 1
	reserved := new(uint256.Int).Rsh(word, ReservedBit).Uint64() & reservedMask
	return Record{
		First:    new(uint256.Int).And(word, firstMask).Uint64(),
		Second:   second,
		Unlocked: flag == 1,
		Reserved: uint32(reserved),
	}
}

// Encode packs the record back into a storage word. Encode(Decode(w)) == w
// holds for every word. Bits of Second above 160 are discarded.
func Encode(r Record) *uint256.Int {
	word := new(uint256.Int).SetUint64(r.First)
	if r.Second != nil {
		second := new(uint256.Int).And(r.Second, secondMask)
		word.Or(word, second.Lsh(second, SecondOffset))
	}
	if r.Unlocked {
		word.Or(word, unlockedMask)
	}
	reserved := new(uint256.Int).SetUint64(uint64(r.Reserved) & reservedMask)
	word.Or(word, reserved.Lsh(reserved, ReservedBit))
	return word
}

// SetUnlocked returns word with the unlocked flag set. Every other bit is
// carried over unchanged and the argument is not modified.
func SetUnlocked(word *uint256.Int) *uint256.Int {
	if word == nil {
		return unlockedMask.Clone()
	}
	return new(uint256.Int).Or(word, unlockedMask)
}

// IsUnlocked reports whether the unlocked flag is set in word.
func IsUnlocked(word *uint256.Int) bool {
	if word == nil {
		return false
	}
	return new(uint256.Int).And(word, unlockedMask).Eq(unlockedMask)
}

// Next returns the key of the following chain element. An even First (zero
// included) is itself the next key, an odd First defers to Second.
func (r Record) Next() *uint256.Int {
	if r.First%2 == 0 {
		return new(uint256.Int).SetUint64(r.First)
	}
	if r.Second == nil {
		return new(uint256.Int)
	}
	return r.Second.Clone()
}

func (r Record) String() string {
	second := "0"
	if r.Second != nil {
		second = r.Second.Dec()
	}
	return fmt.Sprintf("Record{first=%d second=%s unlocked=%t reserved=%#x}", r.First, second, r.Unlocked, r.Reserved)
}
