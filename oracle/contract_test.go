package oracle

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var gateLockAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// gateLockStub answers isSolved by comparing the decoded ids with want.
type gateLockStub struct {
	t      *testing.T
	parsed abi.ABI
	want   []*big.Int
	output []byte
	err    error
	calls  int
}

func newGateLockStub(t *testing.T, want ...int64) *gateLockStub {
	t.Helper()
	parsed, err := ParseABI()
	require.NoError(t, err)
	ids := make([]*big.Int, len(want))
	for i, v := range want {
		ids[i] = big.NewInt(v)
	}
	return &gateLockStub{t: t, parsed: parsed, want: ids}
}

func (s *gateLockStub) CallContract(_ context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.output != nil {
		return s.output, nil
	}
	method := s.parsed.Methods[isSolvedMethod]
	require.NotNil(s.t, call.To)
	require.Equal(s.t, gateLockAddress, *call.To)
	require.Nil(s.t, blockNumber)
	require.True(s.t, bytes.Equal(method.ID, call.Data[:4]), "selector mismatch")

	args, err := method.Inputs.Unpack(call.Data[4:])
	require.NoError(s.t, err)
	got := args[0].([]*big.Int)
	solved := len(got) == len(s.want)
	for i := 0; solved && i < len(got); i++ {
		solved = got[i].Cmp(s.want[i]) == 0
	}
	return method.Outputs.Pack(solved)
}

func words(values ...uint64) []*uint256.Int {
	out := make([]*uint256.Int, len(values))
	for i, v := range values {
		out[i] = uint256.NewInt(v)
	}
	return out
}

func TestContractAcceptsMatchingSequence(t *testing.T) {
	stub := newGateLockStub(t, 0, 5, 9)
	contract, err := NewContract(gateLockAddress, stub)
	require.NoError(t, err)

	ok, err := contract.IsSolved(context.Background(), words(0, 5, 9))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, stub.calls)
}

func TestContractRejectionIsNotAnError(t *testing.T) {
	stub := newGateLockStub(t, 0, 5, 9)
	contract, err := NewContract(gateLockAddress, stub)
	require.NoError(t, err)

	ok, err := contract.IsSolved(context.Background(), words(0, 9, 5))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestContractEmptySequence(t *testing.T) {
	stub := newGateLockStub(t)
	contract, err := NewContract(gateLockAddress, stub)
	require.NoError(t, err)

	ok, err := contract.IsSolved(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestContractLargeIdentifiers(t *testing.T) {
	big160 := new(uint256.Int).Lsh(uint256.NewInt(1), 159)
	stub := newGateLockStub(t, 0)
	stub.want = append(stub.want, big160.ToBig())
	contract, err := NewContract(gateLockAddress, stub)
	require.NoError(t, err)

	ok, err := contract.IsSolved(context.Background(), []*uint256.Int{uint256.NewInt(0), big160})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestContractCallFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		output []byte
	}{
		{name: "transport", err: errors.New("connection reset")},
		{name: "empty return data", output: []byte{}},
		{name: "truncated return data", output: []byte{0x01}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := newGateLockStub(t)
			stub.err = tc.err
			stub.output = tc.output
			contract, err := NewContract(gateLockAddress, stub)
			require.NoError(t, err)

			_, err = contract.IsSolved(context.Background(), words(0))
			require.ErrorIs(t, err, ErrCall)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
			}
		})
	}
}

func TestNewContractValidation(t *testing.T) {
	_, err := NewContract(gateLockAddress, nil)
	require.ErrorContains(t, err, "caller required")
	_, err = NewContract(common.Address{}, newGateLockStub(t))
	require.ErrorContains(t, err, "address required")
}

func TestFuncAdapter(t *testing.T) {
	var seen []*uint256.Int
	var o Oracle = Func(func(_ context.Context, ids []*uint256.Int) (bool, error) {
		seen = ids
		return len(ids) == 2, nil
	})
	ok, err := o.IsSolved(context.Background(), words(0, 4))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, words(0, 4), seen)
}
