package approval

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gorm.io/gorm"

	domainApproval "nftloan-backend/internal/domain/approval"
	domainLoan "nftloan-backend/internal/domain/loan"
	"nftloan-backend/internal/domain/uow"
)

// Policy is the owner-gated protocol configuration: the collateral allow-list
// and the protocol fee rate. It answers the engine's AllowList and
// FeeSchedule lookups from memory and persists every change through the UoW.
type Policy struct {
	owner  common.Address
	uow    uow.UnitOfWork
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	allowed map[common.Address]bool
	feeBps  uint64
}

var (
	_ domainLoan.AllowList   = (*Policy)(nil)
	_ domainLoan.FeeSchedule = (*Policy)(nil)
)

// NewPolicy: defaultFeeBps applies until a persisted rate is loaded.
func NewPolicy(owner common.Address, tx uow.UnitOfWork, defaultFeeBps uint64, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		owner:   owner,
		uow:     tx,
		logger:  logger.Named("policy"),
		now:     func() time.Time { return time.Now().UTC() },
		allowed: make(map[common.Address]bool),
		feeBps:  defaultFeeBps,
	}
}

func (p *Policy) IsAllowed(contract common.Address) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.allowed[contract]
}

func (p *Policy) ProtocolFeeBps() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.feeBps
}

func (p *Policy) Owner() common.Address { return p.owner }

// Load replaces the in-memory view with the persisted approvals and fee rate.
// A missing treasury row is created with the default rate.
func (p *Policy) Load(ctx context.Context) error {
	if p.uow == nil {
		return errors.New("policy: nil unit of work")
	}
	allowed := make(map[common.Address]bool)
	fee := p.ProtocolFeeBps()
	err := p.uow.WithinTx(ctx, func(r uow.Repos) error {
		rows, err := r.Approvals.ListActive(ctx)
		if err != nil {
			return err
		}
		for _, a := range rows {
			allowed[common.HexToAddress(a.Contract)] = true
		}
		t, err := r.Treasury.Get(ctx)
		switch {
		case err == nil:
			fee = t.FeeRateBps
		case errors.Is(err, gorm.ErrRecordNotFound):
			// first boot: persist the default so later balance writes keep it
			return r.Treasury.SetFeeRate(ctx, fee)
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowed = allowed
	p.feeBps = fee
	p.logger.Info("policy loaded", zap.Int("allowed", len(allowed)), zap.Uint64("fee_bps", p.feeBps))
	return nil
}

// Seed approves contracts on behalf of the owner, skipping ones already
// approved. Used at boot for the configured allow-list.
func (p *Policy) Seed(ctx context.Context, contracts []common.Address) error {
	for _, c := range contracts {
		if p.IsAllowed(c) {
			continue
		}
		if _, err := p.Approve(ctx, p.owner, c); err != nil && !errors.Is(err, domainApproval.ErrAlreadyApproved) {
			return err
		}
	}
	return nil
}

func (p *Policy) authorize(caller common.Address) error {
	if p.uow == nil {
		return errors.New("policy: nil unit of work")
	}
	if caller != p.owner {
		return domainLoan.ErrNotProtocolOwner
	}
	return nil
}

func (p *Policy) Approve(ctx context.Context, caller, contract common.Address) (*ApprovalDTO, error) {
	if err := p.authorize(caller); err != nil {
		return nil, err
	}
	if contract == (common.Address{}) {
		return nil, domainLoan.ErrInvalidAccount
	}

	a := &domainApproval.Approval{
		Contract:   contract.Hex(),
		ApprovedBy: caller.Hex(),
		ApprovedAt: p.now(),
	}
	err := p.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Approvals.GetByContract(ctx, a.Contract); err == nil {
			return domainApproval.ErrAlreadyApproved
		} else if !errors.Is(err, domainApproval.ErrNotFound) && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return r.Approvals.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.allowed[contract] = true
	p.mu.Unlock()
	p.logger.Info("asset approved", zap.String("contract", a.Contract), zap.String("by", a.ApprovedBy))

	return &ApprovalDTO{Contract: a.Contract, ApprovedBy: a.ApprovedBy, ApprovedAt: a.ApprovedAt}, nil
}

// Revoke removes contract from the allow-list. Loans already listed against
// it are unaffected.
func (p *Policy) Revoke(ctx context.Context, caller, contract common.Address) error {
	if err := p.authorize(caller); err != nil {
		return err
	}
	err := p.uow.WithinTx(ctx, func(r uow.Repos) error {
		return r.Approvals.Revoke(ctx, contract.Hex(), caller.Hex())
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	delete(p.allowed, contract)
	p.mu.Unlock()
	p.logger.Info("asset revoked", zap.String("contract", contract.Hex()))
	return nil
}

// SetFeeRate changes the rate applied to every quote computed afterwards,
// including quotes for loans already active.
func (p *Policy) SetFeeRate(ctx context.Context, caller common.Address, bps uint64) error {
	if err := p.authorize(caller); err != nil {
		return err
	}
	if bps > domainLoan.MaxProtocolFeeBps {
		return domainLoan.ErrFeeRateOutOfRange
	}

	err := p.uow.WithinTx(ctx, func(r uow.Repos) error {
		return r.Treasury.SetFeeRate(ctx, bps)
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	old := p.feeBps
	p.feeBps = bps
	p.mu.Unlock()
	p.logger.Info("protocol fee rate changed", zap.Uint64("from", old), zap.Uint64("to", bps))
	return nil
}

// Settings returns the current configuration with allowed contracts sorted.
func (p *Policy) Settings() *SettingsDTO {
	p.mu.RLock()
	defer p.mu.RUnlock()
	addrs := make([]common.Address, 0, len(p.allowed))
	for a := range p.allowed {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })

	out := &SettingsDTO{
		Owner:          p.owner.Hex(),
		ProtocolFeeBps: p.feeBps,
		MaxFeeBps:      domainLoan.MaxProtocolFeeBps,
		Allowed:        make([]string, len(addrs)),
	}
	for i, a := range addrs {
		out.Allowed[i] = a.Hex()
	}
	return out
}
