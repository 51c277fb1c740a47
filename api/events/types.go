// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/tokengrant/api/utils"
	"github.com/vechain/tokengrant/eventlog"
	"github.com/vechain/tokengrant/ledger"
	"github.com/vechain/tokengrant/thor"
)

type Criteria struct {
	GrantID *uint64           `json:"grantId"`
	Account *thor.Address     `json:"account"`
	Type    *ledger.EventType `json:"type"`
}

type Range struct {
	From *uint64 `json:"from"`
	To   *uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	CriteriaSet []*Criteria    `json:"criteriaSet"`
	Range       *Range         `json:"range"`
	Options     *Options       `json:"options"`
	Order       eventlog.Order `json:"order"`
}

type FilteredEvent struct {
	Seq       uint64                `json:"seq"`
	Type      ledger.EventType      `json:"type"`
	GrantID   uint64                `json:"grantId"`
	Account   thor.Address          `json:"account"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
	Timestamp uint64                `json:"timestamp"`
}

func convertFilter(ef *EventFilter) *eventlog.Filter {
	f := &eventlog.Filter{
		Order: ef.Order,
	}
	if ef.Range != nil {
		r := &eventlog.Range{To: math.MaxInt64}
		if ef.Range.From != nil {
			r.From = *ef.Range.From
		}
		if ef.Range.To != nil {
			r.To = *ef.Range.To
		}
		f.Range = r
	}
	if ef.Options != nil {
		f.Options = &eventlog.Options{Offset: ef.Options.Offset, Limit: ef.Options.Limit}
	}
	for _, c := range ef.CriteriaSet {
		f.CriteriaSet = append(f.CriteriaSet, &eventlog.Criteria{
			GrantID: c.GrantID,
			Account: c.Account,
			Type:    c.Type,
		})
	}
	return f
}

func convertEvent(ev *eventlog.Event) *FilteredEvent {
	return &FilteredEvent{
		Seq:       ev.Seq,
		Type:      ev.Type,
		GrantID:   ev.GrantID,
		Account:   ev.Account,
		Amount:    utils.Amount(ev.Amount),
		Timestamp: ev.Timestamp,
	}
}
