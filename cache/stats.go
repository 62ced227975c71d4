// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import "sync/atomic"

// Stats collects cache hits and misses.
type Stats struct {
	hit, miss atomic.Int64
	flag      atomic.Int32
}

// Hit records a hit and returns the total hits.
func (cs *Stats) Hit() int64 { return cs.hit.Add(1) }

// Miss records a miss and returns the total misses.
func (cs *Stats) Miss() int64 { return cs.miss.Add(1) }

// HitRate returns hits/lookups, 0 when nothing was looked up.
func (cs *Stats) HitRate() float64 {
	hit, miss := cs.hit.Load(), cs.miss.Load()
	if hit+miss == 0 {
		return 0
	}
	return float64(hit) / float64(hit+miss)
}

// Stats returns hits and misses, and whether the hit rate (in permille)
// changed since the previous call.
func (cs *Stats) Stats() (changed bool, hit int64, miss int64) {
	hit, miss = cs.hit.Load(), cs.miss.Load()
	flag := int32(cs.HitRate() * 1000)
	return cs.flag.Swap(flag) != flag, hit, miss
}
