package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// GateLockABI is the subset of the GateLock interface used for verification.
const GateLockABI = `[
	{
		"type": "function",
		"name": "isSolved",
		"stateMutability": "view",
		"inputs": [{"name": "ids", "type": "uint256[]", "internalType": "uint256[]"}],
		"outputs": [{"name": "res", "type": "bool", "internalType": "bool"}]
	}
]`

const isSolvedMethod = "isSolved"

// Caller defines the subset of the Ethereum RPC used for read-only contract
// calls. *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Contract verifies solutions by calling GateLock.isSolved on a node.
type Contract struct {
	address common.Address
	caller  Caller
	abi     abi.ABI
}

// ParseABI returns the parsed GateLock verification ABI.
func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(GateLockABI))
}

// NewContract binds the verification call to the contract at address.
func NewContract(address common.Address, caller Caller) (*Contract, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller required")
	}
	if (address == common.Address{}) {
		return nil, fmt.Errorf("contract address required")
	}
	parsed, err := ParseABI()
	if err != nil {
		return nil, fmt.Errorf("parse gatelock abi: %w", err)
	}
	return &Contract{address: address, caller: caller, abi: parsed}, nil
}

// Address returns the bound contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// IsSolved submits ids in order and reports the contract's verdict.
func (c *Contract) IsSolved(ctx context.Context, ids []*uint256.Int) (bool, error) {
	if c == nil || c.caller == nil {
		return false, fmt.Errorf("%w: contract not initialised", ErrCall)
	}
	args := make([]*big.Int, len(ids))
	for i, id := range ids {
		if id == nil {
			args[i] = new(big.Int)
			continue
		}
		args[i] = id.ToBig()
	}
	input, err := c.abi.Pack(isSolvedMethod, args)
	if err != nil {
		return false, fmt.Errorf("%w: pack isSolved: %w", ErrCall, err)
	}
	to := c.address
	output, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return false, fmt.Errorf("%w: call isSolved on %s: %w", ErrCall, to.Hex(), err)
	}
	values, err := c.abi.Unpack(isSolvedMethod, output)
	if err != nil {
		return false, fmt.Errorf("%w: decode isSolved result: %w", ErrCall, err)
	}
	if len(values) != 1 {
		return false, fmt.Errorf("%w: isSolved returned %d values", ErrCall, len(values))
	}
	res, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("%w: isSolved returned %T", ErrCall, values[0])
	}
	return res, nil
}
