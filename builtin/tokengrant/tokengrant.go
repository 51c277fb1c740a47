// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokengrant

import (
	"math"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/tokengrant/builtin/reverts"
	"github.com/vechain/tokengrant/builtin/solidity"
	"github.com/vechain/tokengrant/state"
	"github.com/vechain/tokengrant/thor"
)

var (
	ErrNotFound        = reverts.NewNotFound("grant not found")
	ErrUnauthorized    = reverts.NewUnauthorized("only grant manager can revoke")
	ErrNotRevocable    = reverts.New("grant must be revocable in the first place")
	ErrAlreadyRevoked  = reverts.New("grant must not be already revoked")
	ErrInvalidSchedule = reverts.New("invalid grant schedule")
	ErrTransferFailed  = reverts.New("token transfer failed")
	ErrStakeLocked     = reverts.New("grant tokens locked by staking exceed the vested balance")
)

// TokenLedger moves tokens in and out of grant escrow.
// Debit must fail without effect when the balance is insufficient.
type TokenLedger interface {
	Debit(addr thor.Address, amount *uint256.Int) error
	Credit(addr thor.Address, amount *uint256.Int) error
}

// StakingGateway reports the amount a staking collaborator holds locked on a grant.
type StakingGateway interface {
	LockedAmount(grantID uint64) (*uint256.Int, error)
}

// TokenGrant implements linear vesting grants.
// Granted tokens are held in escrow at the contract address until withdrawn or refunded.
type TokenGrant struct {
	addr     thor.Address
	registry *registry
	token    TokenLedger
	staking  StakingGateway
}

func New(addr thor.Address, state *state.State, token TokenLedger, staking StakingGateway) *TokenGrant {
	return &TokenGrant{
		addr:     addr,
		registry: newRegistry(solidity.NewContext(addr, state)),
		token:    token,
		staking:  staking,
	}
}

// Address returns the contract address, which is also the escrow account.
func (tg *TokenGrant) Address() thor.Address {
	return tg.addr
}

// transfer moves amount between accounts, reporting business rejections as ErrTransferFailed.
func (tg *TokenGrant) transfer(from, to thor.Address, amount *uint256.Int) error {
	if err := tg.token.Debit(from, amount); err != nil {
		if reverts.IsRevertErr(err) {
			return errors.WithMessagef(ErrTransferFailed, "debit %v: %v", from, err)
		}
		return errors.Wrap(err, "debit")
	}
	if err := tg.token.Credit(to, amount); err != nil {
		if reverts.IsRevertErr(err) {
			return errors.WithMessagef(ErrTransferFailed, "credit %v: %v", to, err)
		}
		return errors.Wrap(err, "credit")
	}
	return nil
}

// Create grants amount tokens of manager to grantee, vesting linearly over
// [start, start+duration] with nothing unlocked before start+cliffOffset.
// amount is moved from manager into escrow.
func (tg *TokenGrant) Create(
	manager, grantee thor.Address,
	amount *uint256.Int,
	start, duration, cliffOffset uint64,
	revocable bool,
) (uint64, error) {
	if amount == nil || amount.IsZero() {
		return 0, errors.WithMessage(ErrInvalidSchedule, "amount must be positive")
	}
	if cliffOffset > duration {
		return 0, errors.WithMessage(ErrInvalidSchedule, "cliff exceeds duration")
	}
	if start > math.MaxUint64-duration {
		return 0, errors.WithMessage(ErrInvalidSchedule, "vesting end overflows")
	}

	if err := tg.transfer(manager, tg.addr, amount); err != nil {
		return 0, err
	}

	return tg.registry.add(&Grant{
		GrantManager:  manager,
		Grantee:       grantee,
		Amount:        new(uint256.Int).Set(amount),
		Start:         start,
		Duration:      duration,
		Cliff:         start + cliffOffset,
		Revocable:     revocable,
		RevokedAmount: new(uint256.Int),
		Withdrawn:     new(uint256.Int),
	})
}

// Get returns the grant with the given id.
func (tg *TokenGrant) Get(id uint64) (*Grant, error) {
	return tg.registry.get(id)
}

// Count returns the number of grants created.
func (tg *TokenGrant) Count() (uint64, error) {
	return tg.registry.count()
}

// UnlockedAmount returns the vested amount of a grant at now.
func (tg *TokenGrant) UnlockedAmount(id uint64, now uint64) (*uint256.Int, error) {
	g, err := tg.registry.get(id)
	if err != nil {
		return nil, err
	}
	return UnlockedAmount(g, now), nil
}

// Revoke freezes vesting of a revocable grant at now and refunds the unvested part to the manager.
// It returns the refunded amount.
func (tg *TokenGrant) Revoke(id uint64, caller thor.Address, now uint64) (*uint256.Int, error) {
	g, err := tg.registry.get(id)
	if err != nil {
		return nil, err
	}
	if caller != g.GrantManager {
		return nil, ErrUnauthorized
	}
	if !g.Revocable {
		return nil, ErrNotRevocable
	}
	if g.IsRevoked() {
		return nil, ErrAlreadyRevoked
	}

	unlocked := UnlockedAmount(g, now)
	// a lock must stay covered by what remains in escrow once the unvested part is refunded
	locked, err := tg.staking.LockedAmount(g.ID)
	if err != nil {
		return nil, errors.Wrap(err, "locked amount")
	}
	if kept, underflow := new(uint256.Int).SubOverflow(unlocked, g.Withdrawn); underflow || locked.Gt(kept) {
		return nil, ErrStakeLocked
	}

	g.RevokedAt = &now
	g.RevokedAmount = new(uint256.Int).Sub(g.Amount, unlocked)
	if err := tg.registry.update(g); err != nil {
		return nil, err
	}

	if !g.RevokedAmount.IsZero() {
		if err := tg.transfer(tg.addr, g.GrantManager, g.RevokedAmount); err != nil {
			return nil, err
		}
	}
	return new(uint256.Int).Set(g.RevokedAmount), nil
}

func (tg *TokenGrant) withdrawable(g *Grant, now uint64) (*uint256.Int, error) {
	available := UnlockedAmount(g, now)
	if available.Lt(g.Withdrawn) {
		return available.Clear(), nil
	}
	available.Sub(available, g.Withdrawn)

	locked, err := tg.staking.LockedAmount(g.ID)
	if err != nil {
		return nil, errors.Wrap(err, "locked amount")
	}
	if available.Lt(locked) {
		return available.Clear(), nil
	}
	return available.Sub(available, locked), nil
}

// Withdrawable returns what Withdraw would pay at now.
func (tg *TokenGrant) Withdrawable(id uint64, now uint64) (*uint256.Int, error) {
	g, err := tg.registry.get(id)
	if err != nil {
		return nil, err
	}
	return tg.withdrawable(g, now)
}

// Withdraw pays the grantee everything unlocked, not yet withdrawn and not locked by staking.
// Nothing available is not an error, the returned amount is zero.
func (tg *TokenGrant) Withdraw(id uint64, now uint64) (*uint256.Int, error) {
	g, err := tg.registry.get(id)
	if err != nil {
		return nil, err
	}
	available, err := tg.withdrawable(g, now)
	if err != nil {
		return nil, err
	}
	if available.IsZero() {
		return available, nil
	}

	g.Withdrawn = new(uint256.Int).Add(g.Withdrawn, available)
	if err := tg.registry.update(g); err != nil {
		return nil, err
	}
	if err := tg.transfer(tg.addr, g.Grantee, available); err != nil {
		return nil, err
	}
	return available, nil
}

// BalanceOf returns the total a grantee still holds in escrow across its grants.
func (tg *TokenGrant) BalanceOf(grantee thor.Address) (*uint256.Int, error) {
	ids, err := tg.registry.ofGrantee(grantee)
	if err != nil {
		return nil, errors.Wrap(err, "grants of grantee")
	}
	sum := new(uint256.Int)
	for _, id := range ids {
		g, err := tg.registry.get(id)
		if err != nil {
			return nil, err
		}
		sum.Add(sum, g.Outstanding())
	}
	return sum, nil
}

// GrantsOf returns ids of grants held by grantee, in creation order.
func (tg *TokenGrant) GrantsOf(grantee thor.Address) ([]uint64, error) {
	return tg.registry.ofGrantee(grantee)
}

// GrantsByManager returns ids of grants created by manager, in creation order.
func (tg *TokenGrant) GrantsByManager(manager thor.Address) ([]uint64, error) {
	return tg.registry.ofManager(manager)
}
