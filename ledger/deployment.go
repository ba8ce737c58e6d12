package ledger

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gatelock/oracle"
	"gatelock/storage"
)

// Storage slots of the GateLock contract.
const (
	DefaultLengthSlot   = 4
	DefaultValueMapSlot = 2
)

// DefaultAddress is where anvil places the first contract deployed by its
// default account; the simulation reuses it so fixtures look familiar.
var DefaultAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// Layout names the fixed storage slots the solver reads.
type Layout struct {
	LengthSlot   *uint256.Int
	ValueMapSlot *uint256.Int
}

// DefaultLayout returns the GateLock layout: the chain length at slot 4 and
// the record mapping rooted at slot 2.
func DefaultLayout() Layout {
	return Layout{
		LengthSlot:   uint256.NewInt(DefaultLengthSlot),
		ValueMapSlot: uint256.NewInt(DefaultValueMapSlot),
	}
}

func (l Layout) withDefaults() Layout {
	def := DefaultLayout()
	if l.LengthSlot == nil {
		l.LengthSlot = def.LengthSlot
	}
	if l.ValueMapSlot == nil {
		l.ValueMapSlot = def.ValueMapSlot
	}
	return l
}

// RecordSlot returns the storage slot holding the record for key.
func (l Layout) RecordSlot(key *uint256.Int) *uint256.Int {
	return storage.MappingSlot(key, l.withDefaults().ValueMapSlot)
}

// Deployment binds a GateLock instance to the backend holding its storage
// and the oracle that verifies solutions against it.
type Deployment struct {
	Address common.Address
	Backend storage.Backend
	Oracle  oracle.Oracle
	Layout  Layout
}

// Validate reports missing collaborators.
func (d Deployment) Validate() error {
	if (d.Address == common.Address{}) {
		return errors.New("deployment: contract address required")
	}
	if d.Backend == nil {
		return errors.New("deployment: storage backend required")
	}
	if d.Oracle == nil {
		return errors.New("deployment: oracle required")
	}
	return nil
}

// WithDefaults fills unset layout slots.
func (d Deployment) WithDefaults() Deployment {
	d.Layout = d.Layout.withDefaults()
	return d
}

// Close releases the storage backend.
func (d Deployment) Close() error {
	if d.Backend == nil {
		return nil
	}
	return d.Backend.Close()
}
