// Package vaultfake provides in-memory asset custody, value transfer and
// policy fakes for engine and usecase tests.
package vaultfake

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"nftloan-backend/internal/domain/loan"
)

var (
	ErrUnknownAsset      = errors.New("vaultfake: unknown asset")
	ErrNotHolder         = errors.New("vaultfake: sender does not hold asset")
	ErrRejected          = errors.New("vaultfake: recipient rejects funds")
	ErrInsufficientFunds = errors.New("vaultfake: insufficient funds")
)

// Custody tracks who holds each asset.
type Custody struct {
	mu      sync.Mutex
	holders map[string]common.Address

	// OwnerOfErr, when set, is returned by every OwnerOf call.
	OwnerOfErr error
	// BeforeTransfer runs outside the lock before each transfer; a non-nil
	// error aborts it.
	BeforeTransfer func(ref loan.CollateralRef, from, to common.Address) error
}

func NewCustody() *Custody {
	return &Custody{holders: make(map[string]common.Address)}
}

func (c *Custody) Mint(ref loan.CollateralRef, holder common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holders[ref.String()] = holder
}

// HolderOf returns the zero address for unknown assets.
func (c *Custody) HolderOf(ref loan.CollateralRef) common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holders[ref.String()]
}

func (c *Custody) OwnerOf(_ context.Context, ref loan.CollateralRef) (common.Address, error) {
	if c.OwnerOfErr != nil {
		return common.Address{}, c.OwnerOfErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.holders[ref.String()]
	if !ok {
		return common.Address{}, ErrUnknownAsset
	}
	return h, nil
}

func (c *Custody) Transfer(_ context.Context, ref loan.CollateralRef, from, to common.Address) error {
	if c.BeforeTransfer != nil {
		if err := c.BeforeTransfer(ref, from, to); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.holders[ref.String()]
	if !ok {
		return ErrUnknownAsset
	}
	if h != from {
		return ErrNotHolder
	}
	c.holders[ref.String()] = to
	return nil
}

// Bank keeps balances, with the protocol's own balance held under Vault.
type Bank struct {
	mu        sync.Mutex
	vault     common.Address
	balances  map[common.Address]*uint256.Int
	rejecting map[common.Address]bool

	// BeforePay runs outside the lock before each payment, standing in for
	// the recipient's code; a non-nil error aborts the payment.
	BeforePay func(to common.Address, amount *uint256.Int) error
}

func NewBank(vault common.Address) *Bank {
	return &Bank{
		vault:     vault,
		balances:  make(map[common.Address]*uint256.Int),
		rejecting: make(map[common.Address]bool),
	}
}

func (b *Bank) Credit(addr common.Address, amount *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.add(addr, amount)
}

// Reject makes Pay to addr fail until called again with false.
func (b *Bank) Reject(addr common.Address, reject bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejecting[addr] = reject
}

func (b *Bank) Balance(addr common.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(uint256.Int).Set(b.get(addr))
}

func (b *Bank) Pay(_ context.Context, to common.Address, amount *uint256.Int) error {
	if b.BeforePay != nil {
		if err := b.BeforePay(to, amount); err != nil {
			return err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rejecting[to] {
		return ErrRejected
	}
	return b.move(b.vault, to, amount)
}

func (b *Bank) Receive(_ context.Context, from common.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.move(from, b.vault, amount)
}

func (b *Bank) get(addr common.Address) *uint256.Int {
	if v, ok := b.balances[addr]; ok {
		return v
	}
	return new(uint256.Int)
}

func (b *Bank) add(addr common.Address, amount *uint256.Int) {
	b.balances[addr] = new(uint256.Int).Add(b.get(addr), amount)
}

func (b *Bank) move(from, to common.Address, amount *uint256.Int) error {
	cur := b.get(from)
	if cur.Lt(amount) {
		return ErrInsufficientFunds
	}
	b.balances[from] = new(uint256.Int).Sub(cur, amount)
	b.add(to, amount)
	return nil
}

// AllowList is a static allow-list.
type AllowList map[common.Address]bool

func (a AllowList) IsAllowed(c common.Address) bool { return a[c] }

// FeeRate is a fixed protocol fee rate in basis points.
type FeeRate uint64

func (f FeeRate) ProtocolFeeBps() uint64 { return uint64(f) }

// Recorder collects emitted events.
type Recorder struct {
	mu     sync.Mutex
	Events []loan.Event
}

func (r *Recorder) Emit(ev loan.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
}

func (r *Recorder) Names() []loan.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]loan.EventName, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.Name
	}
	return out
}
