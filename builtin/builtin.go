// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/vechain/tokengrant/builtin/staking"
	"github.com/vechain/tokengrant/builtin/token"
	"github.com/vechain/tokengrant/builtin/tokengrant"
	"github.com/vechain/tokengrant/state"
)

// Builtin contracts binding.
var (
	Token      = &tokenContract{newContract("Token")}
	Staking    = &stakingContract{newContract("Staking")}
	TokenGrant = &tokenGrantContract{newContract("TokenGrant")}
)

type (
	tokenContract      struct{ *contract }
	stakingContract    struct{ *contract }
	tokenGrantContract struct{ *contract }
)

func (t *tokenContract) WithState(state *state.State) *token.Token {
	return token.New(t.Address, state)
}

func (s *stakingContract) WithState(state *state.State) *staking.Staking {
	return staking.New(s.Address, state)
}

// WithState binds the grant contract to the token and staking contracts on the same state.
func (g *tokenGrantContract) WithState(state *state.State) *tokengrant.TokenGrant {
	return tokengrant.New(g.Address, state, Token.WithState(state), Staking.WithState(state))
}
