// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package muxdb implements the storage engine of the state layer.
// It multiplexes one leveldb instance into general purpose named kv-stores.
package muxdb

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vechain/docstate/kv"
	"github.com/vechain/docstate/log"
)

var logger = log.WithContext("pkg", "muxdb")

const (
	namedStoreSpace = byte(0) // the key space for named stores.

	propStoreName = "muxdb.props"
	configKey     = "config"

	// layoutVersion is bumped whenever key layouts of named stores change.
	layoutVersion = 1
)

// Options optional parameters for MuxDB.
type Options struct {
	// ReadCacheMB is the size of the committed point-read cache.
	ReadCacheMB int
	// OpenFilesCacheCapacity is the capacity of open files caching for underlying database.
	OpenFilesCacheCapacity int
	// BlockCacheMB is the size of block cache for underlying database.
	BlockCacheMB int
	// WriteBufferMB is the size of write buffer for underlying database.
	WriteBufferMB int
}

// MuxDB is the database to store platform state.
type MuxDB struct {
	engine *levelEngine
}

// Open opens or creates DB at the given path.
func Open(path string, options *Options) (*MuxDB, error) {
	ldbOpts := opt.Options{
		OpenFilesCacheCapacity: options.OpenFilesCacheCapacity,
		BlockCacheCapacity:     options.BlockCacheMB * opt.MiB,
		WriteBuffer:            options.WriteBufferMB * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
		BlockSize:              1024 * 32,
		CompactionTableSize:    4 * opt.MiB,
	}

	ldb, err := leveldb.OpenFile(path, &ldbOpts)
	if _, corrupted := err.(*dberrors.ErrCorrupted); corrupted {
		logger.Warn("database corrupted, recovering", "path", path)
		ldb, err = leveldb.RecoverFile(path, &ldbOpts)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open leveldb")
	}

	db := &MuxDB{engine: newLevelEngine(ldb, newCache(options.ReadCacheMB))}

	cfg := config{LayoutVersion: layoutVersion}
	if err := cfg.LoadOrSave(db.NewStore(propStoreName)); err != nil {
		ldb.Close()
		return nil, err
	}
	if cfg.LayoutVersion != layoutVersion {
		ldb.Close()
		return nil, errors.Errorf("incompatible layout version %d, want %d", cfg.LayoutVersion, layoutVersion)
	}
	return db, nil
}

// NewMem creates a memory-backed DB.
func NewMem() *MuxDB {
	ldb, _ := leveldb.Open(storage.NewMemStorage(), nil)
	return &MuxDB{engine: newLevelEngine(ldb, nil)}
}

// Close closes the DB.
func (db *MuxDB) Close() error {
	return db.engine.Close()
}

// NewStore creates named kv-store.
func (db *MuxDB) NewStore(name string) kv.Store {
	return kv.Bucket(string(namedStoreSpace) + name).NewStore(db.engine)
}

// IsNotFound returns if the error indicates key not found.
func (db *MuxDB) IsNotFound(err error) bool {
	return db.engine.IsNotFound(err)
}

type config struct {
	LayoutVersion int
}

func (c *config) LoadOrSave(store kv.Store) error {
	data, err := store.Get([]byte(configKey))
	if err == nil {
		return json.Unmarshal(data, c)
	}
	if !store.IsNotFound(err) {
		return err
	}
	data, err = json.Marshal(c)
	if err != nil {
		return err
	}
	return store.Put([]byte(configKey), data)
}
