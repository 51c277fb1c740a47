// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokengrant

import (
	"github.com/pkg/errors"

	"github.com/vechain/tokengrant/builtin/solidity"
	"github.com/vechain/tokengrant/thor"
)

var (
	counterSlot   = thor.BytesToBytes32([]byte("grant-counter"))
	grantsSlot    = thor.BytesToBytes32([]byte("grants"))
	byGranteeSlot = thor.BytesToBytes32([]byte("grants-by-grantee"))
	byManagerSlot = thor.BytesToBytes32([]byte("grants-by-manager"))
)

// registry owns grant records, their ids and the per address indexes.
type registry struct {
	counter   *solidity.Counter
	grants    *solidity.Mapping[solidity.Uint64, *Grant]
	byGrantee *solidity.Mapping[thor.Address, []uint64]
	byManager *solidity.Mapping[thor.Address, []uint64]
}

func newRegistry(ctx *solidity.Context) *registry {
	return &registry{
		counter:   solidity.NewCounter(ctx, counterSlot),
		grants:    solidity.NewMapping[solidity.Uint64, *Grant](ctx, grantsSlot),
		byGrantee: solidity.NewMapping[thor.Address, []uint64](ctx, byGranteeSlot),
		byManager: solidity.NewMapping[thor.Address, []uint64](ctx, byManagerSlot),
	}
}

// add assigns the next id to g and stores it.
func (r *registry) add(g *Grant) (uint64, error) {
	id, err := r.counter.Next()
	if err != nil {
		return 0, errors.Wrap(err, "next grant id")
	}
	g.ID = id
	if err := r.grants.Insert(solidity.Uint64(id), g); err != nil {
		return 0, errors.Wrap(err, "insert grant")
	}
	if err := r.index(r.byGrantee, g.Grantee, id); err != nil {
		return 0, errors.Wrap(err, "index grantee")
	}
	if err := r.index(r.byManager, g.GrantManager, id); err != nil {
		return 0, errors.Wrap(err, "index manager")
	}
	return id, nil
}

func (r *registry) index(m *solidity.Mapping[thor.Address, []uint64], addr thor.Address, id uint64) error {
	ids, err := m.Get(addr)
	if err != nil {
		return err
	}
	return m.Update(addr, append(ids, id))
}

// get returns the grant, or ErrNotFound.
func (r *registry) get(id uint64) (*Grant, error) {
	g, err := r.grants.Get(solidity.Uint64(id))
	if err != nil {
		return nil, errors.Wrap(err, "get grant")
	}
	if g == nil {
		return nil, ErrNotFound
	}
	return g, nil
}

func (r *registry) update(g *Grant) error {
	return errors.Wrap(r.grants.Update(solidity.Uint64(g.ID), g), "update grant")
}

func (r *registry) count() (uint64, error) {
	return r.counter.Current()
}

func (r *registry) ofGrantee(addr thor.Address) ([]uint64, error) {
	return r.byGrantee.Get(addr)
}

func (r *registry) ofManager(addr thor.Address) ([]uint64, error) {
	return r.byManager.Get(addr)
}
