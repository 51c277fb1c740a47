// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tokengrant/kv"
	"github.com/vechain/tokengrant/lvldb"
	"github.com/vechain/tokengrant/thor"
)

func newState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st, err := New(db, 16)
	require.NoError(t, err)
	return st, db
}

func TestStateStorage(t *testing.T) {
	st, _ := newState(t)

	addr := thor.BytesToAddress([]byte("account"))
	key := thor.BytesToBytes32([]byte("key"))

	v, err := st.GetStorage(addr, key)
	assert.NoError(t, err)
	assert.True(t, v.IsZero())

	value := thor.BytesToBytes32([]byte("value"))
	st.SetStorage(addr, key, value)
	v, err = st.GetStorage(addr, key)
	assert.NoError(t, err)
	assert.Equal(t, value, v)

	st.SetStorage(addr, key, thor.Bytes32{})
	raw, err := st.GetRawStorage(addr, key)
	assert.NoError(t, err)
	assert.Empty(t, raw)
}

func TestStateListStorageHashed(t *testing.T) {
	st, _ := newState(t)

	addr := thor.BytesToAddress([]byte("account"))
	key := thor.BytesToBytes32([]byte("list"))

	raw, _ := rlp.EncodeToBytes([]uint64{1, 2, 3})
	st.SetRawStorage(addr, key, raw)

	v, err := st.GetStorage(addr, key)
	assert.NoError(t, err)
	assert.Equal(t, thor.Blake2b(raw), v)

	var decoded []uint64
	assert.NoError(t, st.DecodeStorage(addr, key, func(data []byte) error {
		return rlp.DecodeBytes(data, &decoded)
	}))
	assert.Equal(t, []uint64{1, 2, 3}, decoded)
}

func TestStateCheckpoint(t *testing.T) {
	st, _ := newState(t)

	addr := thor.BytesToAddress([]byte("account"))
	k1 := thor.BytesToBytes32([]byte("k1"))
	k2 := thor.BytesToBytes32([]byte("k2"))

	st.SetStorage(addr, k1, thor.BytesToBytes32([]byte("v1")))

	cp := st.NewCheckpoint()
	st.SetStorage(addr, k1, thor.BytesToBytes32([]byte("v1'")))
	st.SetStorage(addr, k2, thor.BytesToBytes32([]byte("v2")))
	st.RevertTo(cp)

	v, _ := st.GetStorage(addr, k1)
	assert.Equal(t, thor.BytesToBytes32([]byte("v1")), v)
	v, _ = st.GetStorage(addr, k2)
	assert.True(t, v.IsZero())
}

func TestStateCommit(t *testing.T) {
	st, db := newState(t)

	addr := thor.BytesToAddress([]byte("account"))
	k1 := thor.BytesToBytes32([]byte("k1"))
	k2 := thor.BytesToBytes32([]byte("k2"))

	st.SetStorage(addr, k1, thor.BytesToBytes32([]byte("v1")))
	st.SetStorage(addr, k2, thor.BytesToBytes32([]byte("v2")))
	require.NoError(t, st.Commit())

	// a fresh state over the same db sees committed values
	st2, err := New(db, 16)
	require.NoError(t, err)
	v, err := st2.GetStorage(addr, k1)
	assert.NoError(t, err)
	assert.Equal(t, thor.BytesToBytes32([]byte("v1")), v)

	// deletion is committed as well
	st.SetStorage(addr, k2, thor.Bytes32{})
	require.NoError(t, st.Commit())
	has, err := db.Has(append([]byte(StoreName), storageKey{addr, k2}.bytes()...))
	assert.NoError(t, err)
	assert.False(t, has)

	v, err = st.GetStorage(addr, k2)
	assert.NoError(t, err)
	assert.True(t, v.IsZero())

	// nothing to commit
	assert.NoError(t, st.Commit())

	hit, _ := st.CacheStats()
	assert.True(t, hit > 0)
	_, miss := st2.CacheStats()
	assert.True(t, miss > 0)
}

type failingStore struct {
	kv.Store
}

func (f *failingStore) Bulk() kv.Bulk {
	return &struct {
		kv.PutFunc
		kv.DeleteFunc
		kv.WriteFunc
	}{
		func([]byte, []byte) error { return nil },
		func([]byte) error { return nil },
		func() error { return errors.New("disk full") },
	}
}

func TestStateCommitFailureKeepsJournal(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	st, err := New(&failingStore{db}, 16)
	require.NoError(t, err)

	addr := thor.BytesToAddress([]byte("account"))
	key := thor.BytesToBytes32([]byte("k"))

	cp := st.NewCheckpoint()
	st.SetStorage(addr, key, thor.BytesToBytes32([]byte("v")))

	err = st.Commit()
	assert.Error(t, err)
	var stateErr *Error
	assert.True(t, errors.As(err, &stateErr))

	v, _ := st.GetStorage(addr, key)
	assert.Equal(t, thor.BytesToBytes32([]byte("v")), v)

	st.RevertTo(cp)
	v, _ = st.GetStorage(addr, key)
	assert.True(t, v.IsZero())
}
