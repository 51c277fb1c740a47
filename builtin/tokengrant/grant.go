// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokengrant

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/vechain/tokengrant/thor"
)

// Grant is a quantity of tokens committed to a grantee and unlocked linearly over time.
type Grant struct {
	ID           uint64
	GrantManager thor.Address
	Grantee      thor.Address
	Amount       *uint256.Int
	Start        uint64
	Duration     uint64
	Cliff        uint64 // absolute, start + cliff offset
	Revocable    bool
	// RevokedAt is nil until the grant is revoked.
	RevokedAt     *uint64
	RevokedAmount *uint256.Int
	Withdrawn     *uint256.Int
}

// grantBody is the storage form of Grant.
type grantBody struct {
	ID            uint64
	GrantManager  thor.Address
	Grantee       thor.Address
	Amount        *uint256.Int
	Start         uint64
	Duration      uint64
	Cliff         uint64
	Revocable     bool
	Revoked       bool
	RevokedAt     uint64
	RevokedAmount *uint256.Int
	Withdrawn     *uint256.Int
}

// EncodeRLP implements rlp.Encoder.
func (g *Grant) EncodeRLP(w io.Writer) error {
	body := grantBody{
		ID:            g.ID,
		GrantManager:  g.GrantManager,
		Grantee:       g.Grantee,
		Amount:        g.Amount,
		Start:         g.Start,
		Duration:      g.Duration,
		Cliff:         g.Cliff,
		Revocable:     g.Revocable,
		RevokedAmount: g.RevokedAmount,
		Withdrawn:     g.Withdrawn,
	}
	if g.RevokedAt != nil {
		body.Revoked = true
		body.RevokedAt = *g.RevokedAt
	}
	return rlp.Encode(w, &body)
}

// DecodeRLP implements rlp.Decoder.
func (g *Grant) DecodeRLP(s *rlp.Stream) error {
	var body grantBody
	if err := s.Decode(&body); err != nil {
		return err
	}
	*g = Grant{
		ID:            body.ID,
		GrantManager:  body.GrantManager,
		Grantee:       body.Grantee,
		Amount:        body.Amount,
		Start:         body.Start,
		Duration:      body.Duration,
		Cliff:         body.Cliff,
		Revocable:     body.Revocable,
		RevokedAmount: body.RevokedAmount,
		Withdrawn:     body.Withdrawn,
	}
	if body.Revoked {
		revokedAt := body.RevokedAt
		g.RevokedAt = &revokedAt
	}
	return nil
}

// IsRevoked reports whether the grant has been revoked.
func (g *Grant) IsRevoked() bool {
	return g.RevokedAt != nil
}

// Outstanding returns the part of the grant still held in escrow.
func (g *Grant) Outstanding() *uint256.Int {
	out := new(uint256.Int).Sub(g.Amount, g.RevokedAmount)
	if out.Lt(g.Withdrawn) {
		return out.Clear()
	}
	return out.Sub(out, g.Withdrawn)
}

// UnlockedAmount returns the amount of the grant vested at now.
// Vesting freezes at the revocation time, nothing unlocks before the cliff,
// and past the cliff the grant unlocks linearly, rounding down.
func UnlockedAmount(g *Grant, now uint64) *uint256.Int {
	if g.RevokedAt != nil && *g.RevokedAt < now {
		now = *g.RevokedAt
	}
	if now < g.Cliff {
		return new(uint256.Int)
	}
	// cliff >= start, so now >= start here
	elapsed := now - g.Start
	if g.Duration == 0 || elapsed >= g.Duration {
		return new(uint256.Int).Set(g.Amount)
	}
	// elapsed < duration keeps the quotient below amount
	unlocked, _ := new(uint256.Int).MulDivOverflow(g.Amount, uint256.NewInt(elapsed), uint256.NewInt(g.Duration))
	return unlocked
}
