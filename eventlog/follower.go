// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

import (
	"context"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/tokengrant/ledger"
	"github.com/vechain/tokengrant/log"
)

const (
	followerBacklog = 256
	maxBatchSize    = 1024
)

var logger = log.WithContext("pkg", "eventlog")

// Feed delivers committed ledger events.
type Feed interface {
	Subscribe(ch chan<- *ledger.Event) event.Subscription
}

// Follower copies the events of a feed into the log.
type Follower struct {
	db  *EventLog
	ch  chan *ledger.Event
	sub event.Subscription
}

// Follow subscribes to feed right away, events committed afterwards are not missed.
func (db *EventLog) Follow(feed Feed) *Follower {
	ch := make(chan *ledger.Event, followerBacklog)
	return &Follower{
		db:  db,
		ch:  ch,
		sub: feed.Subscribe(ch),
	}
}

// Run stores events until ctx is done or the feed ends.
// Events already received are flushed before it returns.
func (f *Follower) Run(ctx context.Context) error {
	defer f.sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return f.flush(nil)
		case err := <-f.sub.Err():
			if ferr := f.flush(nil); ferr != nil {
				return ferr
			}
			return err
		case ev := <-f.ch:
			if err := f.flush(ev); err != nil {
				logger.Error("failed to store events", "err", err)
				return err
			}
		}
	}
}

// flush stores first followed by whatever is pending on the channel.
func (f *Follower) flush(first *ledger.Event) error {
	batch := make([]*ledger.Event, 0, 16)
	if first != nil {
		batch = append(batch, first)
	}
	for len(batch) < maxBatchSize {
		select {
		case ev := <-f.ch:
			batch = append(batch, ev)
			continue
		default:
		}
		break
	}
	if len(batch) == 0 {
		return nil
	}
	logger.Trace("storing events", "count", len(batch))
	return f.db.Insert(batch...)
}
