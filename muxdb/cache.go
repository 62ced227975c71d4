// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/qianbin/directcache"

	cachepkg "github.com/vechain/docstate/cache"
)

// cache caches committed values of point reads.
// A nil cache is valid and caches nothing.
type cache struct {
	values      *directcache.Cache
	stats       cachepkg.Stats
	lastLogTime atomic.Int64
}

func newCache(sizeMB int) *cache {
	if sizeMB <= 0 {
		return nil
	}
	c := &cache{values: directcache.New(sizeMB * 1024 * 1024)}
	c.lastLogTime.Store(time.Now().UnixNano())
	return c
}

func (c *cache) Get(key []byte) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	var val []byte
	if c.values.AdvGet(key, func(v []byte) {
		val = slices.Clone(v)
	}, false) && len(val) > 0 {
		if c.stats.Hit()%2000 == 0 {
			c.log()
		}
		return val, true
	}
	c.stats.Miss()
	return nil, false
}

func (c *cache) Set(key, val []byte) {
	// empty values are indistinguishable from misses
	if c == nil || len(val) == 0 {
		return
	}
	_ = c.values.Set(key, val)
}

func (c *cache) Del(key []byte) {
	if c == nil {
		return
	}
	c.values.Del(key)
}

func (c *cache) log() {
	now := time.Now().UnixNano()
	last := c.lastLogTime.Swap(now)
	if now-last < int64(time.Second*20) {
		c.lastLogTime.CompareAndSwap(now, last)
		return
	}

	changed, hit, miss := c.stats.Stats()
	metricCacheHitMiss().SetWithLabel(hit, map[string]string{"event": "hit"})
	metricCacheHitMiss().SetWithLabel(miss, map[string]string{"event": "miss"})
	if !changed {
		return
	}
	lookups := hit + miss
	rate := "n/a"
	if lookups > 0 {
		rate = fmt.Sprintf("%.3f", float64(hit)/float64(lookups))
	}
	logger.Info("read cache stats", "lookups", lookups, "hitrate", rate)
}
