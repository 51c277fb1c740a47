// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/tokengrant/builtin"
	"github.com/vechain/tokengrant/builtin/reverts"
	"github.com/vechain/tokengrant/builtin/staking"
	"github.com/vechain/tokengrant/builtin/tokengrant"
	"github.com/vechain/tokengrant/genesis"
	"github.com/vechain/tokengrant/kv"
	"github.com/vechain/tokengrant/log"
	"github.com/vechain/tokengrant/state"
	"github.com/vechain/tokengrant/thor"
)

var (
	logger = log.WithContext("pkg", "ledger")

	// metaAddress holds ledger bookkeeping in state, next to the contracts.
	metaAddress = thor.BytesToAddress([]byte("Ledger"))
	genesisKey  = thor.BytesToBytes32([]byte("genesis"))
)

// Clock returns the current unix time in seconds.
type Clock func() uint64

// SystemClock reads the wall clock.
func SystemClock() uint64 {
	return uint64(time.Now().Unix())
}

// Options for creating a ledger.
type Options struct {
	// CacheSize is the number of storage slots cached in memory.
	CacheSize int
	// Clock supplies "now" to every operation, SystemClock if nil.
	Clock Clock
}

// Ledger runs grant operations atomically over persistent state.
// Mutations are serialized, each commits as a single batch or leaves no trace.
// Reads run concurrently against committed state.
type Ledger struct {
	mu        sync.RWMutex
	state     *state.State
	clock     Clock
	genesisID thor.Bytes32

	feed  event.Feed
	scope event.SubscriptionScope
}

// New opens the ledger on db. An empty db is initialized from gen,
// otherwise db must have been initialized from the same genesis.
func New(db kv.Store, gen *genesis.Genesis, opts Options) (*Ledger, error) {
	st, err := state.New(db, opts.CacheSize)
	if err != nil {
		return nil, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	l := &Ledger{
		state:     st,
		clock:     clock,
		genesisID: gen.ID(),
	}

	stored, err := st.GetStorage(metaAddress, genesisKey)
	if err != nil {
		return nil, errors.Wrap(err, "load genesis id")
	}
	switch {
	case stored.IsZero():
		if err := l.initialize(gen); err != nil {
			return nil, errors.Wrap(err, "initialize genesis")
		}
		logger.Info("ledger initialized", "genesis", gen.ID(), "name", gen.Name())
	case stored != gen.ID():
		return nil, errors.Errorf("genesis mismatch: stored %v, given %v", stored, gen.ID())
	default:
		count, err := builtin.TokenGrant.WithState(st).Count()
		if err != nil {
			return nil, err
		}
		metricGrantCount().Set(int64(count))
		logger.Info("ledger opened", "genesis", gen.ID(), "grants", count)
	}
	return l, nil
}

func (l *Ledger) initialize(gen *genesis.Genesis) error {
	cp := l.state.NewCheckpoint()
	if err := gen.Build(l.state); err != nil {
		l.state.RevertTo(cp)
		return err
	}
	l.state.SetStorage(metaAddress, genesisKey, gen.ID())
	if err := l.state.Commit(); err != nil {
		l.state.RevertTo(cp)
		return err
	}
	return nil
}

// GenesisID returns the id of the genesis the ledger was built from.
func (l *Ledger) GenesisID() thor.Bytes32 {
	return l.genesisID
}

// Now returns the ledger clock reading.
func (l *Ledger) Now() uint64 {
	return l.clock()
}

// Close ends all subscriptions.
func (l *Ledger) Close() {
	l.scope.Close()
}

// Subscribe delivers committed events to ch.
// A subscriber must keep draining ch, mutations wait for delivery.
func (l *Ledger) Subscribe(ch chan<- *Event) event.Subscription {
	return l.scope.Track(l.feed.Subscribe(ch))
}

// execute runs fn under the write lock inside a checkpoint, then commits.
// On any failure the state is reverted and no event is sent.
func (l *Ledger) execute(op string, fn func(st *state.State, now uint64) ([]*Event, error)) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	defer func() {
		outcome := "ok"
		if err != nil {
			if reverts.IsRevertErr(err) {
				outcome = "revert"
			} else {
				outcome = "error"
				logger.Warn("operation failed", "op", op, "err", err)
			}
		}
		metricOperationCount().AddWithLabel(1, map[string]string{"op": op, "outcome": outcome})
	}()

	now := l.clock()
	cp := l.state.NewCheckpoint()
	events, err := fn(l.state, now)
	if err == nil {
		err = l.state.Commit()
	}
	if err != nil {
		l.state.RevertTo(cp)
		logger.Debug("operation reverted", "op", op, "err", err)
		return err
	}

	for _, ev := range events {
		ev.Timestamp = now
		l.feed.Send(ev)
	}
	return nil
}

// read runs fn under the read lock.
func (l *Ledger) read(fn func(st *state.State, now uint64) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(l.state, l.clock())
}

// CreateGrant moves amount from manager into escrow and grants it to grantee.
func (l *Ledger) CreateGrant(
	manager, grantee thor.Address,
	amount *uint256.Int,
	start, duration, cliffOffset uint64,
	revocable bool,
) (id uint64, err error) {
	err = l.execute("create", func(st *state.State, _ uint64) ([]*Event, error) {
		if id, err = builtin.TokenGrant.WithState(st).Create(manager, grantee, amount, start, duration, cliffOffset, revocable); err != nil {
			return nil, err
		}
		return []*Event{{Type: GrantCreated, GrantID: id, Account: grantee, Amount: new(uint256.Int).Set(amount)}}, nil
	})
	if err != nil {
		return 0, err
	}
	metricGrantCount().Set(int64(id))
	logger.Debug("grant created", "id", id, "manager", manager, "grantee", grantee, "amount", amount)
	return id, nil
}

// Revoke revokes the grant on behalf of caller and returns the refund paid to the grant manager.
func (l *Ledger) Revoke(id uint64, caller thor.Address) (refund *uint256.Int, err error) {
	err = l.execute("revoke", func(st *state.State, now uint64) ([]*Event, error) {
		if refund, err = builtin.TokenGrant.WithState(st).Revoke(id, caller, now); err != nil {
			return nil, err
		}
		return []*Event{{Type: GrantRevoked, GrantID: id, Account: caller, Amount: refund}}, nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("grant revoked", "id", id, "refund", refund)
	return refund, nil
}

// Withdraw pays out everything withdrawable from the grant now.
func (l *Ledger) Withdraw(id uint64) (paid *uint256.Int, err error) {
	err = l.execute("withdraw", func(st *state.State, now uint64) ([]*Event, error) {
		tg := builtin.TokenGrant.WithState(st)
		if paid, err = tg.Withdraw(id, now); err != nil {
			return nil, err
		}
		if paid.IsZero() {
			return nil, nil
		}
		g, err := tg.Get(id)
		if err != nil {
			return nil, err
		}
		return []*Event{{Type: GrantWithdrawn, GrantID: id, Account: g.Grantee, Amount: paid}}, nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// GetGrant returns the grant record.
func (l *Ledger) GetGrant(id uint64) (g *tokengrant.Grant, err error) {
	err = l.read(func(st *state.State, _ uint64) error {
		g, err = builtin.TokenGrant.WithState(st).Get(id)
		return err
	})
	return
}

// UnlockedAmount returns the vested amount of the grant now.
func (l *Ledger) UnlockedAmount(id uint64) (amount *uint256.Int, err error) {
	err = l.read(func(st *state.State, now uint64) error {
		amount, err = builtin.TokenGrant.WithState(st).UnlockedAmount(id, now)
		return err
	})
	return
}

// Withdrawable returns what Withdraw would pay now.
func (l *Ledger) Withdrawable(id uint64) (amount *uint256.Int, err error) {
	err = l.read(func(st *state.State, now uint64) error {
		amount, err = builtin.TokenGrant.WithState(st).Withdrawable(id, now)
		return err
	})
	return
}

// BalanceOf returns the grant balance of grantee still held in escrow.
func (l *Ledger) BalanceOf(grantee thor.Address) (balance *uint256.Int, err error) {
	err = l.read(func(st *state.State, _ uint64) error {
		balance, err = builtin.TokenGrant.WithState(st).BalanceOf(grantee)
		return err
	})
	return
}

// GrantsOf returns ids of the grants held by grantee.
func (l *Ledger) GrantsOf(grantee thor.Address) (ids []uint64, err error) {
	err = l.read(func(st *state.State, _ uint64) error {
		ids, err = builtin.TokenGrant.WithState(st).GrantsOf(grantee)
		return err
	})
	return
}

// GrantsByManager returns ids of the grants created by manager.
func (l *Ledger) GrantsByManager(manager thor.Address) (ids []uint64, err error) {
	err = l.read(func(st *state.State, _ uint64) error {
		ids, err = builtin.TokenGrant.WithState(st).GrantsByManager(manager)
		return err
	})
	return
}

// AuthorizeStakingCollaborator lets collaborator lock grants. caller must be the staking admin.
func (l *Ledger) AuthorizeStakingCollaborator(collaborator, caller thor.Address) error {
	return l.execute("authorize", func(st *state.State, _ uint64) ([]*Event, error) {
		if err := builtin.Staking.WithState(st).Authorize(collaborator, caller); err != nil {
			return nil, err
		}
		return []*Event{{Type: StakingCollaboratorAuthorized, Account: collaborator}}, nil
	})
}

// DeauthorizeStakingCollaborator withdraws the collaborator's permission. caller must be the staking admin.
func (l *Ledger) DeauthorizeStakingCollaborator(collaborator, caller thor.Address) error {
	return l.execute("deauthorize", func(st *state.State, _ uint64) ([]*Event, error) {
		return nil, builtin.Staking.WithState(st).Deauthorize(collaborator, caller)
	})
}

// IsStakingCollaborator reports whether collaborator is authorized.
func (l *Ledger) IsStakingCollaborator(collaborator thor.Address) (ok bool, err error) {
	err = l.read(func(st *state.State, _ uint64) error {
		ok, err = builtin.Staking.WithState(st).IsAuthorized(collaborator)
		return err
	})
	return
}

// LockGrant locks amount of the grant's escrowed balance for collaborator.
func (l *Ledger) LockGrant(id uint64, collaborator thor.Address, amount *uint256.Int) (lock *staking.Lock, err error) {
	err = l.execute("lock", func(st *state.State, _ uint64) ([]*Event, error) {
		g, err := builtin.TokenGrant.WithState(st).Get(id)
		if err != nil {
			return nil, err
		}
		if lock, err = builtin.Staking.WithState(st).Lock(id, collaborator, amount, g.Outstanding()); err != nil {
			return nil, err
		}
		return []*Event{{Type: GrantLocked, GrantID: id, Account: collaborator, Amount: new(uint256.Int).Set(amount)}}, nil
	})
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// ReleaseGrant drops the collaborator's lock on the grant and returns the released amount.
func (l *Ledger) ReleaseGrant(id uint64, collaborator thor.Address) (released *uint256.Int, err error) {
	err = l.execute("release", func(st *state.State, _ uint64) ([]*Event, error) {
		if released, err = builtin.Staking.WithState(st).Release(id, collaborator); err != nil {
			return nil, err
		}
		return []*Event{{Type: GrantReleased, GrantID: id, Account: collaborator, Amount: released}}, nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// LockOf returns the lock on the grant, nil if none.
func (l *Ledger) LockOf(id uint64) (lock *staking.Lock, err error) {
	err = l.read(func(st *state.State, _ uint64) error {
		if _, err := builtin.TokenGrant.WithState(st).Get(id); err != nil {
			return err
		}
		lock, err = builtin.Staking.WithState(st).LockOf(id)
		return err
	})
	return
}

// TokenBalance returns the token balance of addr.
func (l *Ledger) TokenBalance(addr thor.Address) (balance *uint256.Int, err error) {
	err = l.read(func(st *state.State, _ uint64) error {
		balance, err = builtin.Token.WithState(st).BalanceOf(addr)
		return err
	})
	return
}

// TransferTokens moves tokens between accounts.
func (l *Ledger) TransferTokens(from, to thor.Address, amount *uint256.Int) error {
	return l.execute("transfer", func(st *state.State, _ uint64) ([]*Event, error) {
		return nil, builtin.Token.WithState(st).Transfer(from, to, amount)
	})
}
