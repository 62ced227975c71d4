// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket uses a key prefix to simulate a bucket.
type Bucket string

// Key returns the full key of k in the bucket.
func (b Bucket) Key(k []byte) []byte {
	key := make([]byte, 0, len(b)+len(k))
	return append(append(key, b...), k...)
}

// NewGetter proxies src with keys prefixed.
func (b Bucket) NewGetter(src Getter) Getter {
	return &struct {
		GetFunc
		HasFunc
		IsNotFoundFunc
	}{
		func(key []byte) ([]byte, error) { return src.Get(b.Key(key)) },
		func(key []byte) (bool, error) { return src.Has(b.Key(key)) },
		src.IsNotFound,
	}
}

// NewPutter proxies src with keys prefixed.
func (b Bucket) NewPutter(src Putter) Putter {
	return &struct {
		PutFunc
		DeleteFunc
	}{
		func(key, val []byte) error { return src.Put(b.Key(key), val) },
		func(key []byte) error { return src.Delete(b.Key(key)) },
	}
}

// NewStore proxies src with keys prefixed.
func (b Bucket) NewStore(src Store) Store {
	return &struct {
		Getter
		Putter
		SnapshotFunc
		BatchFunc
		IterateFunc
	}{
		b.NewGetter(src),
		b.NewPutter(src),
		func(fn func(Getter) error) error {
			return src.Snapshot(func(getter Getter) error {
				return fn(b.NewGetter(getter))
			})
		},
		func(fn func(Putter) error) error {
			return src.Batch(func(putter Putter) error {
				return fn(b.NewPutter(putter))
			})
		},
		func(rng Range, fn func(Pair) bool) error {
			return src.Iterate(b.Range(rng), func(pair Pair) bool {
				return fn(&struct {
					KeyFunc
					ValueFunc
				}{
					// strip the bucket
					func() []byte { return pair.Key()[len(b):] },
					pair.Value,
				})
			})
		},
	}
}

// Range converts a range inside the bucket into the range of the underlying store.
func (b Bucket) Range(rng Range) Range {
	start := b.Key(rng.Start)
	var limit []byte
	if len(rng.Limit) == 0 {
		limit = PrefixRange([]byte(b)).Limit
	} else {
		limit = b.Key(rng.Limit)
	}
	return Range{Start: start, Limit: limit}
}
