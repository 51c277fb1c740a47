// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/tokengrant/builtin/reverts"
	"github.com/vechain/tokengrant/builtin/solidity"
	"github.com/vechain/tokengrant/state"
	"github.com/vechain/tokengrant/thor"
)

var (
	ErrInsufficientBalance = reverts.New("insufficient balance")
	ErrZeroAmount          = reverts.New("amount must be positive")

	balancesSlot    = thor.BytesToBytes32([]byte("balances"))
	totalSupplySlot = thor.BytesToBytes32([]byte("total-supply"))
)

// Token is the fungible token ledger granted tokens are paid in.
type Token struct {
	addr        thor.Address
	balances    *solidity.Mapping[thor.Address, *uint256.Int]
	totalSupply *solidity.Uint256
}

func New(addr thor.Address, state *state.State) *Token {
	ctx := solidity.NewContext(addr, state)
	return &Token{
		addr:        addr,
		balances:    solidity.NewMapping[thor.Address, *uint256.Int](ctx, balancesSlot),
		totalSupply: solidity.NewUint256(ctx, totalSupplySlot),
	}
}

// Address returns the contract address.
func (t *Token) Address() thor.Address {
	return t.addr
}

// BalanceOf returns the balance of addr.
func (t *Token) BalanceOf(addr thor.Address) (*uint256.Int, error) {
	bal, err := t.balances.Get(addr)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return new(uint256.Int), nil
	}
	return bal, nil
}

// TotalSupply returns the amount minted so far.
func (t *Token) TotalSupply() (*uint256.Int, error) {
	return t.totalSupply.Get()
}

func (t *Token) setBalance(addr thor.Address, bal *uint256.Int) error {
	if bal.IsZero() {
		return t.balances.Update(addr, nil)
	}
	return t.balances.Update(addr, bal)
}

// Mint creates amount tokens for addr.
func (t *Token) Mint(addr thor.Address, amount *uint256.Int) error {
	if err := t.totalSupply.Add(amount); err != nil {
		return errors.WithMessage(err, "mint")
	}
	return t.Credit(addr, amount)
}

// Debit removes amount from addr's balance.
// It fails with ErrInsufficientBalance without touching the balance.
func (t *Token) Debit(addr thor.Address, amount *uint256.Int) error {
	bal, err := t.BalanceOf(addr)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	return t.setBalance(addr, new(uint256.Int).Sub(bal, amount))
}

// Credit adds amount to addr's balance.
func (t *Token) Credit(addr thor.Address, amount *uint256.Int) error {
	bal, err := t.BalanceOf(addr)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return errors.New("balance overflow")
	}
	return t.setBalance(addr, sum)
}

// Transfer moves amount from one account to another.
func (t *Token) Transfer(from, to thor.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}
	if err := t.Debit(from, amount); err != nil {
		return err
	}
	return t.Credit(to, amount)
}
