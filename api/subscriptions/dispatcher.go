// Copyright (c) 2023 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/tokengrant/ledger"
)

const listenerBacklog = 256

// listener receives dispatched events until it is removed or falls behind.
type listener struct {
	ch       chan *ledger.Event
	lagged   chan struct{}
	lagOnce  sync.Once
	matchers []func(*ledger.Event) bool
}

func newListener(matchers ...func(*ledger.Event) bool) *listener {
	return &listener{
		ch:       make(chan *ledger.Event, listenerBacklog),
		lagged:   make(chan struct{}),
		matchers: matchers,
	}
}

func (l *listener) match(ev *ledger.Event) bool {
	for _, m := range l.matchers {
		if !m(ev) {
			return false
		}
	}
	return true
}

// dispatcher fans out ledger events to listeners.
type dispatcher struct {
	evCh      chan *ledger.Event
	sub       event.Subscription
	listeners map[*listener]struct{}
	mu        sync.RWMutex
}

func newDispatcher(ledger *ledger.Ledger) *dispatcher {
	evCh := make(chan *ledger.Event, listenerBacklog)
	return &dispatcher{
		evCh:      evCh,
		sub:       ledger.Subscribe(evCh),
		listeners: make(map[*listener]struct{}),
	}
}

func (d *dispatcher) Subscribe(l *listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners[l] = struct{}{}
}

func (d *dispatcher) Unsubscribe(l *listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.listeners, l)
}

func (d *dispatcher) DispatchLoop(done <-chan struct{}) {
	defer d.sub.Unsubscribe()

	for {
		select {
		case ev := <-d.evCh:
			d.mu.RLock()
			for l := range d.listeners {
				if !l.match(ev) {
					continue
				}
				select {
				case l.ch <- ev:
				default:
					// a full backlog means the listener missed an event
					l.lagOnce.Do(func() { close(l.lagged) })
				}
			}
			d.mu.RUnlock()
		case <-d.sub.Err():
			return
		case <-done:
			return
		}
	}
}
