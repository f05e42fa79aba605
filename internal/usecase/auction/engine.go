// Package auction implements the loan state machine: listing collateral,
// competing bids held in escrow, acceptance, repayment and default claims.
package auction

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"nftloan-backend/internal/domain/escrow"
	"nftloan-backend/internal/domain/loan"
	"nftloan-backend/pkg/id"
)

type Op string

const (
	OpList         Op = "list"
	OpPlaceBid     Op = "place_bid"
	OpCancelBid    Op = "cancel_bid"
	OpAccept       Op = "accept"
	OpRepay        Op = "repay"
	OpClaimDefault Op = "claim_default"
	OpDelist       Op = "delist"
	OpWithdrawFees Op = "withdraw_fees"
)

// Change describes one committed transition for the Store.
type Change struct {
	Op Op
	// Loan is the post-transition snapshot; nil for OpWithdrawFees.
	Loan *loan.Loan
	// PreviousLender is the lender whose escrow the transition released,
	// zero when none.
	PreviousLender common.Address
	ProtocolFees   *uint256.Int
}

// Store persists committed transitions. A Commit error unwinds the whole
// operation, including outbound transfers already made.
type Store interface {
	Commit(ctx context.Context, c Change) error
}

// Config holds the protocol identities the engine acts for.
type Config struct {
	// Vault holds listed collateral and escrowed funds.
	Vault common.Address
	// Owner may withdraw accumulated protocol fees.
	Owner common.Address
}

// Engine owns every loan record, the escrow ledger, the active index and the
// protocol fee balance. Mutating calls are rejected while another one is in
// flight; callers that need queuing must serialize before calling in.
type Engine struct {
	custody loan.AssetCustody
	bank    loan.ValueTransfer
	allow   loan.AllowList
	fees    loan.FeeSchedule
	cfg     Config

	store   Store
	emitter loan.Emitter
	nowFn   func() uint64
	logger  *zap.Logger

	busy atomic.Bool

	loans        map[uint64]*loan.Loan
	escrow       *escrow.Ledger
	active       *activeIndex
	protocolFees *uint256.Int
	nextID       uint64
}

// NewEngine wires the engine to its external capabilities. Store, emitter,
// clock and logger default to no-ops and the wall clock.
func NewEngine(custody loan.AssetCustody, bank loan.ValueTransfer, allow loan.AllowList, fees loan.FeeSchedule, cfg Config) *Engine {
	return &Engine{
		custody:      custody,
		bank:         bank,
		allow:        allow,
		fees:         fees,
		cfg:          cfg,
		emitter:      loan.NoopEmitter{},
		nowFn:        wallClock,
		logger:       zap.NewNop(),
		loans:        make(map[uint64]*loan.Loan),
		escrow:       escrow.NewLedger(),
		active:       newActiveIndex(),
		protocolFees: new(uint256.Int),
		nextID:       1,
	}
}

func wallClock() uint64 { return uint64(time.Now().Unix()) }

func (e *Engine) SetStore(s Store) { e.store = s }

// SetEmitter configures the event sink. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(em loan.Emitter) {
	if em == nil {
		e.emitter = loan.NoopEmitter{}
		return
	}
	e.emitter = em
}

// SetNowFunc overrides the unix-seconds clock, mainly for tests.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = wallClock
		return
	}
	e.nowFn = now
}

func (e *Engine) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	e.logger = l
}

func (e *Engine) now() uint64 { return e.nowFn() }

// exec runs fn as one atomic operation: on error every internal mutation is
// undone and every outbound effect compensated in reverse order. Events are
// emitted only after the Store accepted the change.
func (e *Engine) exec(ctx context.Context, op Op, fn func(tx *txn) error) error {
	if !e.busy.CompareAndSwap(false, true) {
		return loan.ErrReentrantCall
	}
	defer e.busy.Store(false)

	tx := &txn{e: e, ctx: ctx, op: op}
	if err := fn(tx); err != nil {
		return tx.rollback(err)
	}
	if tx.change == nil {
		return tx.rollback(fmt.Errorf("%s: no change recorded", op))
	}
	tx.change.ProtocolFees = new(uint256.Int).Set(e.protocolFees)
	if e.store != nil {
		if err := e.store.Commit(ctx, *tx.change); err != nil {
			return tx.rollback(fmt.Errorf("commit %s: %w", op, err))
		}
	}
	for _, ev := range tx.events {
		e.emitter.Emit(ev)
	}
	e.logger.Debug("operation committed", zap.String("op", string(op)), zap.Int("events", len(tx.events)))
	return nil
}

type compensation struct {
	name string
	fn   func(ctx context.Context) error
}

// txn journals one operation.
type txn struct {
	e   *Engine
	ctx context.Context
	op  Op

	undo       []func()
	compensate []compensation
	change     *Change
	events     []loan.Event
}

func (t *txn) onUndo(fn func()) { t.undo = append(t.undo, fn) }

func (t *txn) rollback(cause error) error {
	var failed []error
	for i := len(t.compensate) - 1; i >= 0; i-- {
		c := t.compensate[i]
		if err := c.fn(t.ctx); err != nil {
			t.e.logger.Error("compensation failed",
				zap.String("op", string(t.op)),
				zap.String("step", c.name),
				zap.Error(err))
			failed = append(failed, fmt.Errorf("compensate %s: %w", c.name, err))
		}
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	if len(failed) > 0 {
		return errors.Join(append([]error{cause}, failed...)...)
	}
	return cause
}

func (t *txn) receive(from common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	amt := new(uint256.Int).Set(amount)
	if err := t.e.bank.Receive(t.ctx, from, amt); err != nil {
		return loan.External("receive", err)
	}
	t.compensate = append(t.compensate, compensation{name: "refund receive", fn: func(ctx context.Context) error {
		return t.e.bank.Pay(ctx, from, amt)
	}})
	return nil
}

func (t *txn) pay(to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	amt := new(uint256.Int).Set(amount)
	if err := t.e.bank.Pay(t.ctx, to, amt); err != nil {
		return loan.External("pay", err)
	}
	t.compensate = append(t.compensate, compensation{name: "reclaim payment", fn: func(ctx context.Context) error {
		return t.e.bank.Receive(ctx, to, amt)
	}})
	return nil
}

func (t *txn) moveAsset(asset loan.CollateralRef, from, to common.Address) error {
	ref := asset.Clone()
	if err := t.e.custody.Transfer(t.ctx, ref, from, to); err != nil {
		return loan.External("transfer asset", err)
	}
	t.compensate = append(t.compensate, compensation{name: "return asset", fn: func(ctx context.Context) error {
		return t.e.custody.Transfer(ctx, ref, to, from)
	}})
	return nil
}

// record captures the loan for the Store and queues its event.
func (t *txn) record(l *loan.Loan, name loan.EventName, prevLender common.Address) {
	snap := l.Clone()
	t.change = &Change{Op: t.op, Loan: snap, PreviousLender: prevLender}
	t.events = append(t.events, loan.Event{
		ID:         id.New(),
		Name:       name,
		OccurredAt: time.Unix(int64(t.e.now()), 0).UTC(),
		Loan:       snap.Clone(),
	})
}

// setEscrow replaces the ledger entry and journals the previous value.
func (t *txn) setEscrow(loanID uint64, amount *uint256.Int) (*uint256.Int, error) {
	var old *uint256.Int
	if amount == nil || amount.IsZero() {
		old = t.e.escrow.Clear(loanID)
	} else {
		var err error
		if old, err = t.e.escrow.Replace(loanID, amount); err != nil {
			return nil, err
		}
	}
	prev := new(uint256.Int).Set(old)
	t.onUndo(func() {
		t.e.escrow.Clear(loanID)
		if !prev.IsZero() {
			_ = t.e.escrow.Deposit(loanID, prev)
		}
	})
	return old, nil
}

// saveLoan journals the full record so any field change can be reverted.
func (t *txn) saveLoan(l *loan.Loan) {
	before := l.Clone()
	t.onUndo(func() { *l = *before })
}

func (t *txn) addProtocolFees(amount *uint256.Int) error {
	sum, overflow := new(uint256.Int).AddOverflow(t.e.protocolFees, amount)
	if overflow {
		return loan.ErrMathOverflow
	}
	prev := t.e.protocolFees
	t.e.protocolFees = sum
	t.onUndo(func() { t.e.protocolFees = prev })
	return nil
}

func (t *txn) deactivate(loanID uint64) {
	if t.e.active.remove(loanID) {
		t.onUndo(func() { t.e.active.add(loanID) })
	}
}
