// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"

	"github.com/vechain/tokengrant/builtin/reverts"
	"github.com/vechain/tokengrant/builtin/solidity"
	"github.com/vechain/tokengrant/state"
	"github.com/vechain/tokengrant/thor"
)

var (
	ErrUnauthorized      = reverts.NewUnauthorized("only staking admin can authorize collaborators")
	ErrNotCollaborator   = reverts.NewUnauthorized("caller is not an authorized staking collaborator")
	ErrNotLockOwner      = reverts.NewUnauthorized("lock is held by another collaborator")
	ErrNoLock            = reverts.NewNotFound("grant has no lock")
	ErrZeroLock          = reverts.New("lock amount must be positive")
	ErrInsufficientGrant = reverts.New("lock exceeds grant outstanding balance")

	adminSlot      = thor.BytesToBytes32([]byte("admin"))
	authorizedSlot = thor.BytesToBytes32([]byte("authorized"))
	locksSlot      = thor.BytesToBytes32([]byte("locks"))
)

// Lock is the stake a collaborator holds on a grant.
type Lock struct {
	Collaborator thor.Address
	Amount       *uint256.Int
}

// Staking gates which collaborators may lock grant tokens, and records the locks.
type Staking struct {
	addr       thor.Address
	admin      *solidity.Address
	authorized *solidity.Mapping[thor.Address, bool]
	locks      *solidity.Mapping[solidity.Uint64, *Lock]
}

func New(addr thor.Address, state *state.State) *Staking {
	ctx := solidity.NewContext(addr, state)
	return &Staking{
		addr:       addr,
		admin:      solidity.NewAddress(ctx, adminSlot),
		authorized: solidity.NewMapping[thor.Address, bool](ctx, authorizedSlot),
		locks:      solidity.NewMapping[solidity.Uint64, *Lock](ctx, locksSlot),
	}
}

// Admin returns the staking admin, zero if not set.
func (s *Staking) Admin() (thor.Address, error) {
	return s.admin.Get()
}

// SetAdmin sets the staking admin. It's called at genesis.
func (s *Staking) SetAdmin(admin thor.Address) {
	s.admin.Set(&admin)
}

func (s *Staking) checkAdmin(caller thor.Address) error {
	admin, err := s.admin.Get()
	if err != nil {
		return err
	}
	if admin.IsZero() || admin != caller {
		return ErrUnauthorized
	}
	return nil
}

// Authorize allows collaborator to place locks on grants.
func (s *Staking) Authorize(collaborator, caller thor.Address) error {
	if err := s.checkAdmin(caller); err != nil {
		return err
	}
	return s.authorized.Update(collaborator, true)
}

// Deauthorize revokes the collaborator's permission. Existing locks are kept.
func (s *Staking) Deauthorize(collaborator, caller thor.Address) error {
	if err := s.checkAdmin(caller); err != nil {
		return err
	}
	return s.authorized.Update(collaborator, false)
}

// IsAuthorized reports whether collaborator may lock grants.
func (s *Staking) IsAuthorized(collaborator thor.Address) (bool, error) {
	return s.authorized.Get(collaborator)
}

// LockOf returns the lock on a grant, nil if none.
func (s *Staking) LockOf(grantID uint64) (*Lock, error) {
	return s.locks.Get(solidity.Uint64(grantID))
}

// LockedAmount returns the amount locked on a grant, zero if none.
func (s *Staking) LockedAmount(grantID uint64) (*uint256.Int, error) {
	lock, err := s.LockOf(grantID)
	if err != nil {
		return nil, err
	}
	if lock == nil {
		return new(uint256.Int), nil
	}
	return lock.Amount, nil
}

// Lock adds amount to the collaborator's lock on a grant.
// outstanding is the grant balance still held in escrow; the total lock can't exceed it.
func (s *Staking) Lock(grantID uint64, collaborator thor.Address, amount, outstanding *uint256.Int) (*Lock, error) {
	ok, err := s.authorized.Get(collaborator)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotCollaborator
	}
	if amount.IsZero() {
		return nil, ErrZeroLock
	}

	lock, err := s.LockOf(grantID)
	if err != nil {
		return nil, err
	}
	if lock == nil {
		lock = &Lock{Collaborator: collaborator, Amount: new(uint256.Int)}
	} else if lock.Collaborator != collaborator {
		return nil, ErrNotLockOwner
	}

	total, overflow := new(uint256.Int).AddOverflow(lock.Amount, amount)
	if overflow || total.Gt(outstanding) {
		return nil, ErrInsufficientGrant
	}
	lock.Amount = total
	if err := s.locks.Update(solidity.Uint64(grantID), lock); err != nil {
		return nil, err
	}
	return lock, nil
}

// Release removes the collaborator's lock on a grant and returns the released amount.
// A collaborator keeps the right to release its own lock after deauthorization.
func (s *Staking) Release(grantID uint64, collaborator thor.Address) (*uint256.Int, error) {
	lock, err := s.LockOf(grantID)
	if err != nil {
		return nil, err
	}
	if lock == nil {
		return nil, ErrNoLock
	}
	if lock.Collaborator != collaborator {
		return nil, ErrNotLockOwner
	}
	if err := s.locks.Update(solidity.Uint64(grantID), nil); err != nil {
		return nil, err
	}
	return lock.Amount, nil
}
