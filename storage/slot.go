package storage

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// MappingSlot derives the storage slot of mapping[key] for a mapping declared
// at base: keccak256(key ‖ base), both operands as 32-byte big-endian words.
func MappingSlot(key, base *uint256.Int) *uint256.Int {
	var buf [2 * common.HashLength]byte
	if key != nil {
		k := key.Bytes32()
		copy(buf[:common.HashLength], k[:])
	}
	if base != nil {
		b := base.Bytes32()
		copy(buf[common.HashLength:], b[:])
	}
	return new(uint256.Int).SetBytes32(crypto.Keccak256(buf[:]))
}

// WordHash renders a word in its canonical 32-byte big-endian form.
func WordHash(word *uint256.Int) common.Hash {
	if word == nil {
		return common.Hash{}
	}
	return common.Hash(word.Bytes32())
}

// HashWord is the inverse of WordHash.
func HashWord(h common.Hash) *uint256.Int {
	return new(uint256.Int).SetBytes32(h[:])
}
