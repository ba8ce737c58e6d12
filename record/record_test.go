package record

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestDecodeSmallWord(t *testing.T) {
	rec := Decode(uint256.NewInt(2))
	require.Equal(t, uint64(2), rec.First)
	require.True(t, rec.Second.IsZero())
	require.False(t, rec.Unlocked)
	require.Zero(t, rec.Reserved)

	unlocked := SetUnlocked(uint256.NewInt(2))
	require.Equal(t, uint256.MustFromHex("0x100000000000000000000000000000000000000000000000000000002"), unlocked)
	require.True(t, IsUnlocked(unlocked))
	require.True(t, Decode(unlocked).Unlocked)
	require.Equal(t, uint64(2), Decode(unlocked).First)
}

func TestDecodeAllFields(t *testing.T) {
	word := uint256.MustFromHex("0xb4b4b4b500000000000000000000000000000000deadbeef0000000000001234")
	rec := Decode(word)
	require.Equal(t, uint64(0x1234), rec.First)
	require.Equal(t, uint256.NewInt(0xdeadbeef), rec.Second)
	require.True(t, rec.Unlocked)
	require.Equal(t, uint32(0x5a5a5a5a), rec.Reserved)

	require.Equal(t, word, Encode(rec))
}

func TestDecodeMasksSecondToWidth(t *testing.T) {
	word := uint256.MustFromHex("0xffffffffffffffffffffffffffffffffffffffff0000000000000003")
	rec := Decode(word)
	require.Equal(t, uint64(3), rec.First)
	require.Equal(t, 160, rec.Second.BitLen())
	require.False(t, rec.Unlocked)
	require.Zero(t, rec.Reserved)
}

func TestEncodeDropsOverwideSecond(t *testing.T) {
	wide := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	wide.Or(wide, uint256.NewInt(7))
	word := Encode(Record{First: 1, Second: wide})
	require.Equal(t, uint256.NewInt(7), Decode(word).Second)
	require.False(t, Decode(word).Unlocked)
}

func TestSetUnlockedIdempotentAndIsolated(t *testing.T) {
	words := []*uint256.Int{
		new(uint256.Int),
		uint256.NewInt(2),
		uint256.MustFromHex("0xb4b4b4b500000000000000000000000000000000deadbeef0000000000001234"),
		new(uint256.Int).Not(new(uint256.Int)),
		new(uint256.Int).Lsh(uint256.NewInt(1), 225),
	}
	flag := new(uint256.Int).Lsh(uint256.NewInt(1), UnlockedBit)
	clear := new(uint256.Int).Not(flag)
	for _, w := range words {
		original := w.Clone()
		once := SetUnlocked(w)
		twice := SetUnlocked(once)
		require.Equal(t, once, twice)
		require.Equal(t, original, w, "argument must not be modified")
		require.Equal(t,
			new(uint256.Int).And(w, clear),
			new(uint256.Int).And(once, clear),
		)
		require.True(t, IsUnlocked(once))
	}
}

func TestNextBranch(t *testing.T) {
	tests := []struct {
		name   string
		first  uint64
		second uint64
		want   uint64
	}{
		{name: "even first", first: 2, second: 7, want: 2},
		{name: "odd first", first: 3, second: 7, want: 7},
		{name: "zero is even", first: 0, second: 7, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := Record{First: tc.first, Second: uint256.NewInt(tc.second)}
			require.Equal(t, uint256.NewInt(tc.want), rec.Next())
		})
	}
}

func TestNextCopiesSecond(t *testing.T) {
	second := uint256.NewInt(9)
	next := Record{First: 1, Second: second}.Next()
	next.AddUint64(next, 1)
	require.Equal(t, uint256.NewInt(9), second)
}

func TestDecodeNilWord(t *testing.T) {
	rec := Decode(nil)
	require.Zero(t, rec.First)
	require.True(t, rec.Second.IsZero())
	require.Equal(t, uint256.NewInt(0), rec.Next())
	require.Equal(t, new(uint256.Int).Lsh(uint256.NewInt(1), UnlockedBit), SetUnlocked(nil))
}
