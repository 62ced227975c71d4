// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vechain/docstate/kv"
)

var (
	writeOpt = opt.WriteOptions{}
	readOpt  = opt.ReadOptions{}
	scanOpt  = opt.ReadOptions{DontFillCache: true}
)

var _ kv.Store = (*levelEngine)(nil)

// levelEngine is the leveldb implementation of kv.Store.
type levelEngine struct {
	db        *leveldb.DB
	cache     *cache
	batchPool *sync.Pool
}

func newLevelEngine(db *leveldb.DB, cache *cache) *levelEngine {
	return &levelEngine{
		db,
		cache,
		&sync.Pool{
			New: func() any {
				return &leveldb.Batch{}
			},
		},
	}
}

func (ldb *levelEngine) Close() error {
	return ldb.db.Close()
}

func (ldb *levelEngine) IsNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}

func (ldb *levelEngine) Get(key []byte) ([]byte, error) {
	if val, ok := ldb.cache.Get(key); ok {
		return val, nil
	}
	val, err := ldb.db.Get(key, &readOpt)
	// val will be []byte{} if error occurs, which is not expected
	if err != nil {
		return nil, err
	}
	ldb.cache.Set(key, val)
	return val, nil
}

func (ldb *levelEngine) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, &readOpt)
}

func (ldb *levelEngine) Put(key, val []byte) error {
	ldb.cache.Del(key)
	return ldb.db.Put(key, val, &writeOpt)
}

func (ldb *levelEngine) Delete(key []byte) error {
	ldb.cache.Del(key)
	return ldb.db.Delete(key, &writeOpt)
}

func (ldb *levelEngine) Snapshot(fn func(kv.Getter) error) error {
	s, err := ldb.db.GetSnapshot()
	if err != nil {
		return err
	}
	defer s.Release()

	return fn(&struct {
		kv.GetFunc
		kv.HasFunc
		kv.IsNotFoundFunc
	}{
		func(key []byte) ([]byte, error) { return s.Get(key, &readOpt) },
		func(key []byte) (bool, error) { return s.Has(key, &readOpt) },
		ldb.IsNotFound,
	})
}

// Batch applies all writes of fn in a single leveldb write.
func (ldb *levelEngine) Batch(fn func(kv.Putter) error) error {
	batch := ldb.batchPool.Get().(*leveldb.Batch)
	batch.Reset()
	defer ldb.batchPool.Put(batch)

	var touched [][]byte
	if err := fn(&struct {
		kv.PutFunc
		kv.DeleteFunc
	}{
		func(key, val []byte) error {
			batch.Put(key, val)
			touched = append(touched, key)
			return nil
		},
		func(key []byte) error {
			batch.Delete(key)
			touched = append(touched, key)
			return nil
		},
	}); err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}
	for _, key := range touched {
		ldb.cache.Del(key)
	}
	return ldb.db.Write(batch, &writeOpt)
}

func (ldb *levelEngine) Iterate(rng kv.Range, fn func(kv.Pair) bool) error {
	it := ldb.db.NewIterator(&util.Range{Start: rng.Start, Limit: rng.Limit}, &scanOpt)
	defer it.Release()

	for it.Next() {
		if !fn(it) {
			break
		}
	}
	return it.Error()
}
