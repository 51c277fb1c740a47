// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"

	"github.com/vechain/tokengrant/thor"
)

// EventType names a committed ledger change.
type EventType string

const (
	GrantCreated                  EventType = "GrantCreated"
	GrantRevoked                  EventType = "GrantRevoked"
	GrantWithdrawn                EventType = "GrantWithdrawn"
	StakingCollaboratorAuthorized EventType = "StakingCollaboratorAuthorized"
	GrantLocked                   EventType = "GrantLocked"
	GrantReleased                 EventType = "GrantReleased"
)

// Event is published after the change it describes is committed.
//
// Account is the grantee for GrantCreated and GrantWithdrawn, the grant manager
// for GrantRevoked and the collaborator for the staking events.
// Amount is the granted, refunded, paid, locked or released quantity.
type Event struct {
	Type      EventType
	GrantID   uint64
	Account   thor.Address
	Amount    *uint256.Int
	Timestamp uint64
}
