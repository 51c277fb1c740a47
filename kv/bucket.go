// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides logical bucket for kv store. Every key is prefixed with the bucket name.
type Bucket string

func (b Bucket) key(k []byte) []byte {
	buf := make([]byte, 0, len(b)+len(k))
	return append(append(buf, b...), k...)
}

// NewGetter creates a bucket getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return &struct {
		GetFunc
		HasFunc
		IsNotFoundFunc
	}{
		func(key []byte) ([]byte, error) { return src.Get(b.key(key)) },
		func(key []byte) (bool, error) { return src.Has(b.key(key)) },
		src.IsNotFound,
	}
}

// NewPutter creates a bucket putter from the source putter.
func (b Bucket) NewPutter(src Putter) Putter {
	return &struct {
		PutFunc
		DeleteFunc
	}{
		func(key, val []byte) error { return src.Put(b.key(key), val) },
		func(key []byte) error { return src.Delete(b.key(key)) },
	}
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{
		Getter: b.NewGetter(src),
		Putter: b.NewPutter(src),
		bulk: func() Bulk {
			bulk := src.Bulk()
			return &struct {
				Putter
				WriteFunc
			}{
				b.NewPutter(bulk),
				bulk.Write,
			}
		},
	}
}

type bucketStore struct {
	Getter
	Putter
	bulk func() Bulk
}

func (s *bucketStore) Bulk() Bulk { return s.bulk() }
