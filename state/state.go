// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/tokengrant/cache"
	"github.com/vechain/tokengrant/kv"
	"github.com/vechain/tokengrant/stackedmap"
	"github.com/vechain/tokengrant/thor"
)

// StoreName is the bucket holding contract storage in the main database.
const StoreName = "s"

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// State manages contract storage of builtin contracts.
// Changes are journaled in memory and become durable on Commit.
type State struct {
	store kv.Store
	cache *cache.LRU // committed values
	sm    *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

type storageKey struct {
	addr thor.Address
	key  thor.Bytes32
}

func (k storageKey) bytes() []byte {
	return append(append(make([]byte, 0, thor.AddressLength+32), k.addr[:]...), k.key[:]...)
}

// New create state object on top of the db.
// cacheSize is the number of committed storage values kept decoded in memory.
func New(db kv.Store, cacheSize int) (*State, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	c, err := cache.NewLRU(cacheSize)
	if err != nil {
		return nil, &Error{err}
	}
	s := &State{
		store: kv.Bucket(StoreName).NewStore(db),
		cache: c,
	}
	s.sm = s.newJournal()
	return s, nil
}

func (s *State) newJournal() *stackedmap.StackedMap[storageKey, rlp.RawValue] {
	return stackedmap.New(func(key storageKey) (rlp.RawValue, bool, error) {
		v, err := s.cache.GetOrLoad(key, func(any) (any, error) {
			return s.loadStorage(key)
		})
		if err != nil {
			return nil, false, err
		}
		return v.(rlp.RawValue), true, nil
	})
}

func (s *State) loadStorage(key storageKey) (rlp.RawValue, error) {
	data, err := s.store.Get(key.bytes())
	if err != nil {
		if s.store.IsNotFound(err) {
			return rlp.RawValue{}, nil
		}
		return nil, err
	}
	return data, nil
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw.
// An empty raw value deletes the slot on commit.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr thor.Address, key thor.Bytes32) (thor.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if len(raw) == 0 {
		return thor.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// customized storage value, return hash of raw data
		return thor.Blake2b(raw), nil
	}
	return thor.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr thor.Address, key, value thor.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Commit writes all journaled changes to the db in one batch.
// On failure the journal is kept, so the caller can still revert it.
func (s *State) Commit() error {
	changes := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(k storageKey, v rlp.RawValue) bool {
		changes[k] = v
		return true
	})
	if len(changes) == 0 {
		s.sm = s.newJournal()
		return nil
	}

	bulk := s.store.Bulk()
	for k, v := range changes {
		var err error
		if len(v) == 0 {
			err = bulk.Delete(k.bytes())
		} else {
			err = bulk.Put(k.bytes(), v)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{err}
	}

	for k, v := range changes {
		if v == nil {
			v = rlp.RawValue{}
		}
		s.cache.Add(k, v)
	}
	s.sm = s.newJournal()
	return nil
}

// CacheStats returns hit and miss counters of the committed value cache.
func (s *State) CacheStats() (hit, miss int64) {
	return s.cache.Stats()
}
