// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vechain/tokengrant/kv"
)

var _ kv.Store = (*LevelDB)(nil)

const minCacheMB = 16

// Options tunes a persistent database. Values below the minimum are raised to it.
type Options struct {
	CacheSize              int // MB, split between block cache and write buffer
	OpenFilesCacheCapacity int
}

func (o Options) leveldb() *opt.Options {
	cacheMB := max(o.CacheSize, minCacheMB)
	return &opt.Options{
		OpenFilesCacheCapacity: max(o.OpenFilesCacheCapacity, minCacheMB),
		BlockCacheCapacity:     cacheMB / 2 * opt.MiB,
		WriteBuffer:            cacheMB / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	}
}

// every write reaches the disk before it is acknowledged
var syncWrite = &opt.WriteOptions{Sync: true}

// LevelDB is the kv.Store the ledger state is committed to.
type LevelDB struct {
	db *leveldb.DB
}

// New opens the database at path, creating it when missing.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open storage")
	}
	return open(stg, opts)
}

// NewMem returns a database that lives in memory only.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	db, err := leveldb.Open(stg, opts.leveldb())
	if err != nil {
		stg.Close()
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelDB{db}, nil
}

// IsNotFound reports whether err is the missing key error of Get.
func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := ldb.db.Get(key, nil)
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, syncWrite)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, syncWrite)
}

// Bulk starts a batch. Nothing in it is visible before Write returns.
func (ldb *LevelDB) Bulk() kv.Bulk {
	return &bulk{db: ldb.db}
}

// Close releases the database. Later calls fail.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

type bulk struct {
	db    *leveldb.DB
	batch leveldb.Batch
}

func (b *bulk) Put(key, val []byte) error {
	b.batch.Put(key, val)
	return nil
}

func (b *bulk) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

// Write applies the batch atomically and empties it.
func (b *bulk) Write() error {
	if b.batch.Len() == 0 {
		return nil
	}
	if err := b.db.Write(&b.batch, syncWrite); err != nil {
		return err
	}
	b.batch.Reset()
	return nil
}
