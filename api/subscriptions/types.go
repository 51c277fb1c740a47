// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/tokengrant/api/utils"
	"github.com/vechain/tokengrant/ledger"
	"github.com/vechain/tokengrant/thor"
)

// GrantMessage is a committed ledger event pushed to subscribers.
type GrantMessage struct {
	Type      ledger.EventType      `json:"type"`
	GrantID   uint64                `json:"grantId"`
	Account   thor.Address          `json:"account"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
	Timestamp uint64                `json:"timestamp"`
}

func convertEvent(ev *ledger.Event) *GrantMessage {
	return &GrantMessage{
		Type:      ev.Type,
		GrantID:   ev.GrantID,
		Account:   ev.Account,
		Amount:    utils.Amount(ev.Amount),
		Timestamp: ev.Timestamp,
	}
}
