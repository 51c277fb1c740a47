// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testledger

import (
	"sync/atomic"

	"github.com/vechain/tokengrant/genesis"
	"github.com/vechain/tokengrant/ledger"
	"github.com/vechain/tokengrant/lvldb"
)

// Ledger is a devnet ledger over an in-memory db with a settable clock.
type Ledger struct {
	*ledger.Ledger
	db  *lvldb.LevelDB
	now atomic.Uint64
}

// New creates a devnet ledger whose clock starts at the devnet launch time.
func New() (*Ledger, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	gen := genesis.NewDevnet()

	l := &Ledger{db: db}
	l.now.Store(gen.LaunchTime())
	inner, err := ledger.New(db, gen, ledger.Options{Clock: l.now.Load})
	if err != nil {
		db.Close()
		return nil, err
	}
	l.Ledger = inner
	return l, nil
}

// SetNow sets the ledger clock.
func (l *Ledger) SetNow(now uint64) {
	l.now.Store(now)
}

// Advance moves the ledger clock forward.
func (l *Ledger) Advance(seconds uint64) {
	l.now.Add(seconds)
}

// Admin returns the staking admin account.
func (l *Ledger) Admin() genesis.DevAccount {
	return genesis.DevAccounts()[0]
}

// Account returns the i-th funded dev account.
func (l *Ledger) Account(i int) genesis.DevAccount {
	return genesis.DevAccounts()[i]
}

// Close releases the ledger and its db.
func (l *Ledger) Close() {
	l.Ledger.Close()
	l.db.Close()
}
