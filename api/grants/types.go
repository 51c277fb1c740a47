// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package grants

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/tokengrant/api/utils"
	"github.com/vechain/tokengrant/builtin/tokengrant"
	"github.com/vechain/tokengrant/thor"
)

// Grant is the JSON form of a grant record.
type Grant struct {
	ID            uint64                `json:"id"`
	GrantManager  thor.Address          `json:"grantManager"`
	Grantee       thor.Address          `json:"grantee"`
	Amount        *math.HexOrDecimal256 `json:"amount"`
	Start         uint64                `json:"start"`
	Duration      uint64                `json:"duration"`
	Cliff         uint64                `json:"cliff"`
	Revocable     bool                  `json:"revocable"`
	RevokedAt     *uint64               `json:"revokedAt"`
	RevokedAmount *math.HexOrDecimal256 `json:"revokedAmount"`
	Withdrawn     *math.HexOrDecimal256 `json:"withdrawn"`
}

func convertGrant(g *tokengrant.Grant) *Grant {
	return &Grant{
		ID:            g.ID,
		GrantManager:  g.GrantManager,
		Grantee:       g.Grantee,
		Amount:        utils.Amount(g.Amount),
		Start:         g.Start,
		Duration:      g.Duration,
		Cliff:         g.Cliff,
		Revocable:     g.Revocable,
		RevokedAt:     g.RevokedAt,
		RevokedAmount: utils.Amount(g.RevokedAmount),
		Withdrawn:     utils.Amount(g.Withdrawn),
	}
}

// CreateGrant is the request body to create a grant.
// Cliff is an offset from Start.
type CreateGrant struct {
	Manager   thor.Address          `json:"manager"`
	Grantee   thor.Address          `json:"grantee"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
	Start     uint64                `json:"start"`
	Duration  uint64                `json:"duration"`
	Cliff     uint64                `json:"cliff"`
	Revocable bool                  `json:"revocable"`
}

// Revoke is the request body to revoke a grant.
type Revoke struct {
	Caller thor.Address `json:"caller"`
}

// CreateResult returns the id of a new grant.
type CreateResult struct {
	ID uint64 `json:"id"`
}

// Amount wraps a single quantity.
type Amount struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// Balance is a grantee's escrowed grant balance.
type Balance struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
}
