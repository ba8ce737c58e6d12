// Package ledgertest runs an in-process dev node speaking the subset of the
// Ethereum JSON-RPC that the solver uses: storage reads, the anvil storage
// override, code lookups and eth_call against emulated GateLock contracts.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"

	"gatelock/ledger"
	"gatelock/oracle"
	"gatelock/storage"
)

// placeholderCode stands in for deployed bytecode so code checks pass.
var placeholderCode = hexutil.MustDecode("0x6080604052")

// Node is a dev node bound to an httptest server.
type Node struct {
	store *storage.MemBackend
	abi   abi.ABI
	http  *httptest.Server

	mu         sync.Mutex
	contracts  map[common.Address]*ledger.Verifier
	writes     int
	failAfter  int
	adminCalls []common.Hash
}

// NewNode starts a node serving JSON-RPC over HTTP. It is stopped when the
// test ends.
func NewNode(t testing.TB) *Node {
	t.Helper()
	parsed, err := oracle.ParseABI()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	n := &Node{
		store:     storage.NewMemBackend(),
		abi:       parsed,
		contracts: make(map[common.Address]*ledger.Verifier),
		failAfter: -1,
	}
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &ethAPI{node: n}); err != nil {
		t.Fatalf("register eth: %v", err)
	}
	if err := srv.RegisterName("anvil", &anvilAPI{node: n}); err != nil {
		t.Fatalf("register anvil: %v", err)
	}
	n.http = httptest.NewServer(srv)
	t.Cleanup(func() {
		n.http.Close()
		srv.Stop()
	})
	return n
}

// URL returns the HTTP endpoint of the node.
func (n *Node) URL() string {
	return n.http.URL
}

// Store exposes the node's raw storage.
func (n *Node) Store() *storage.MemBackend {
	return n.store
}

// Deploy provisions puzzle at addr and emulates GateLock.isSolved there.
func (n *Node) Deploy(ctx context.Context, addr common.Address, layout ledger.Layout, puzzle ledger.Puzzle) error {
	store := storage.NewWordStore(n.store)
	if err := ledger.Provision(ctx, store, addr, layout, puzzle); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contracts[addr] = ledger.NewVerifier(store, addr, layout, puzzle)
	return nil
}

// FailWritesAfter makes every admin write after the first n fail. A negative
// n disables the failure.
func (n *Node) FailWritesAfter(count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failAfter = count
}

// Writes returns the number of successful admin writes.
func (n *Node) Writes() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.writes
}

// WrittenSlots returns the slots written through the admin API in order.
func (n *Node) WrittenSlots() []common.Hash {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]common.Hash(nil), n.adminCalls...)
}

type ethAPI struct{ node *Node }

func (api *ethAPI) GetStorageAt(ctx context.Context, addr common.Address, slot common.Hash, block string) (hexutil.Bytes, error) {
	value, err := api.node.store.StorageAt(ctx, addr, slot)
	if err != nil {
		return nil, err
	}
	return value.Bytes(), nil
}

func (api *ethAPI) GetCode(addr common.Address, block string) (hexutil.Bytes, error) {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()
	if _, ok := api.node.contracts[addr]; !ok {
		return hexutil.Bytes{}, nil
	}
	return placeholderCode, nil
}

// CallArgs accepts both the "input" and legacy "data" encodings of calldata.
type CallArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
	Data  hexutil.Bytes   `json:"data"`
}

func (api *ethAPI) Call(ctx context.Context, args CallArgs, block string) (hexutil.Bytes, error) {
	if args.To == nil {
		return nil, errors.New("contract creation not supported")
	}
	api.node.mu.Lock()
	verifier, ok := api.node.contracts[*args.To]
	api.node.mu.Unlock()
	if !ok {
		return hexutil.Bytes{}, nil
	}
	input := args.Input
	if len(input) == 0 {
		input = args.Data
	}
	method, err := api.node.abi.MethodById(input)
	if err != nil {
		return nil, fmt.Errorf("execution reverted: %w", err)
	}
	values, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("execution reverted: %w", err)
	}
	raw, ok := values[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("execution reverted: unexpected argument %T", values[0])
	}
	ids := make([]*uint256.Int, len(raw))
	for i, v := range raw {
		id, overflow := uint256.FromBig(v)
		if overflow {
			return nil, errors.New("execution reverted: id overflows uint256")
		}
		ids[i] = id
	}
	solved, err := verifier.IsSolved(ctx, ids)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(solved)
}

type anvilAPI struct{ node *Node }

func (api *anvilAPI) SetStorageAt(ctx context.Context, addr common.Address, slot common.Hash, value common.Hash) (bool, error) {
	n := api.node
	n.mu.Lock()
	if n.failAfter >= 0 && n.writes >= n.failAfter {
		n.mu.Unlock()
		return false, errors.New("storage override rejected")
	}
	n.mu.Unlock()
	if err := n.store.SetStorageAt(ctx, addr, slot, value); err != nil {
		return false, err
	}
	n.mu.Lock()
	n.writes++
	n.adminCalls = append(n.adminCalls, slot)
	n.mu.Unlock()
	return true, nil
}
