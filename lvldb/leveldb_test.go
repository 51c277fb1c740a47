// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

func TestLevelDB(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("missing"))
	assert.True(t, db.IsNotFound(err))

	assert.NoError(t, db.Put([]byte("k"), []byte("v")))
	val, err := db.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	has, err := db.Has([]byte("k"))
	assert.NoError(t, err)
	assert.True(t, has)

	assert.NoError(t, db.Delete([]byte("k")))
	has, err = db.Has([]byte("k"))
	assert.NoError(t, err)
	assert.False(t, has)
}

func TestLevelDBBulk(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Put([]byte("old"), []byte("1")))

	bulk := db.Bulk()
	assert.NoError(t, bulk.Put([]byte("a"), []byte("1")))
	assert.NoError(t, bulk.Put([]byte("b"), []byte("2")))
	assert.NoError(t, bulk.Delete([]byte("old")))

	has, _ := db.Has([]byte("a"))
	assert.False(t, has, "bulk writes are deferred")

	assert.NoError(t, bulk.Write())

	val, err := db.Get([]byte("b"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("2"), val)
	has, _ = db.Has([]byte("old"))
	assert.False(t, has)

	// empty bulk is a no-op
	assert.NoError(t, db.Bulk().Write())
}

func TestLevelDBPersistent(t *testing.T) {
	dir := t.TempDir()

	db, err := New(dir, Options{})
	require.NoError(t, err)
	assert.NoError(t, db.Put([]byte("k"), []byte("v")))
	assert.NoError(t, db.Close())

	db, err = New(dir, Options{CacheSize: 32, OpenFilesCacheCapacity: 32})
	require.NoError(t, err)
	defer db.Close()

	val, err := db.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}

func TestOptionsMinimum(t *testing.T) {
	o := Options{}.leveldb()
	assert.Equal(t, 16, o.OpenFilesCacheCapacity)
	assert.Equal(t, 8*opt.MiB, o.BlockCacheCapacity)
	assert.Equal(t, 4*opt.MiB, o.WriteBuffer)

	o = Options{CacheSize: 256, OpenFilesCacheCapacity: 1000}.leveldb()
	assert.Equal(t, 1000, o.OpenFilesCacheCapacity)
	assert.Equal(t, 128*opt.MiB, o.BlockCacheCapacity)
}

func TestBulkReuse(t *testing.T) {
	path := t.TempDir()

	db, err := New(path, Options{})
	require.NoError(t, err)
	bulk := db.Bulk()
	require.NoError(t, bulk.Put([]byte("k"), []byte("v")))
	require.NoError(t, bulk.Write())
	// a written bulk starts over empty
	require.NoError(t, bulk.Put([]byte("k2"), []byte("v2")))
	require.NoError(t, bulk.Write())
	require.NoError(t, db.Close())

	db, err = New(path, Options{})
	require.NoError(t, err)
	defer db.Close()
	val, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
	val, err = db.Get([]byte("k2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), val)
}
