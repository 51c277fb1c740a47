// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

import (
	"github.com/holiman/uint256"

	"github.com/vechain/tokengrant/ledger"
	"github.com/vechain/tokengrant/thor"
)

// Event is a ledger event as stored in the log.
type Event struct {
	Seq       uint64
	Type      ledger.EventType
	GrantID   uint64
	Account   thor.Address
	Amount    *uint256.Int // nil for events without a quantity
	Timestamp uint64
}

// Range bounds the event timestamp, both ends inclusive.
// A To lower than From leaves the range open ended.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// Criteria fields are ANDed, nil fields match anything.
type Criteria struct {
	GrantID *uint64
	Account *thor.Address
	Type    *ledger.EventType
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Filter selects events matching any of CriteriaSet within Range.
type Filter struct {
	CriteriaSet []*Criteria
	Range       *Range
	Options     *Options
	Order       Order
}
