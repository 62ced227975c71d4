// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the key-value store abstractions the state layer is built on.
package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Getter wraps methods for getting kvs.
type Getter interface {
	// Get value for given key.
	// An error returned if key not found. It can be checked via IsNotFound.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter wraps methods for writing kvs.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// Pair defines key-value pair.
type Pair interface {
	Key() []byte
	Value() []byte
}

// Range is the key range [Start, Limit).
type Range struct {
	Start []byte // start of key range (included)
	Limit []byte // limit of key range (excluded)
}

// PrefixRange returns the range covering all keys with the given prefix.
func PrefixRange(prefix []byte) Range {
	r := util.BytesPrefix(prefix)
	return Range{Start: r.Start, Limit: r.Limit}
}

// Store defines the full functional kv store.
type Store interface {
	Getter
	Putter

	// Snapshot provides a consistent read view for fn.
	Snapshot(fn func(Getter) error) error
	// Batch collects all writes of fn and applies them atomically.
	// Nothing is written if fn returns an error.
	Batch(fn func(Putter) error) error
	// Iterate iterates over pairs in range in ascending key order, until fn returns false.
	Iterate(rng Range, fn func(Pair) bool) error
}
