// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stackedmap implements a journaled overlay map with save/restore levels.
package stackedmap

// SourceFunc loads the value of key from the underlying source.
type SourceFunc[K comparable, V any] func(key K) (value V, exist bool, err error)

// StackedMap maintains maps in a stack.
// Each map inherits key/value of map that is at lower level.
// It acts as a map with checkpoint/revert manner.
type StackedMap[K comparable, V any] struct {
	src    SourceFunc[K, V]
	levels []*level[K, V]
	// for each key, the stack of levels it was put at
	revisions map[K][]int
}

type level[K comparable, V any] struct {
	kvs     map[K]V
	journal []journalEntry[K, V]
}

type journalEntry[K comparable, V any] struct {
	key   K
	value V
}

// New create an instance of StackedMap.
// src acts as source of data.
func New[K comparable, V any](src SourceFunc[K, V]) *StackedMap[K, V] {
	sm := &StackedMap[K, V]{
		src:       src,
		revisions: make(map[K][]int),
	}
	sm.Push()
	return sm
}

// Depth returns depth of stack.
func (sm *StackedMap[K, V]) Depth() int {
	return len(sm.levels)
}

// Push pushes a new map on stack.
// It returns stack depth before push.
func (sm *StackedMap[K, V]) Push() int {
	sm.levels = append(sm.levels, &level[K, V]{kvs: make(map[K]V)})
	return len(sm.levels) - 1
}

// Pop pops the map at top of stack, reverting all puts since the last Push.
func (sm *StackedMap[K, V]) Pop() {
	top := sm.levels[len(sm.levels)-1]
	for key := range top.kvs {
		revs := sm.revisions[key]
		if len(revs) <= 1 {
			delete(sm.revisions, key)
		} else {
			sm.revisions[key] = revs[:len(revs)-1]
		}
	}
	sm.levels = sm.levels[:len(sm.levels)-1]
}

// PopTo pops maps until stack depth reaches depth.
func (sm *StackedMap[K, V]) PopTo(depth int) {
	for len(sm.levels) > depth {
		sm.Pop()
	}
}

// Get gets value for given key.
// The second return value indicates whether the given key is found.
func (sm *StackedMap[K, V]) Get(key K) (V, bool, error) {
	if v, ok := sm.GetOverlay(key); ok {
		return v, true, nil
	}
	return sm.src(key)
}

// GetOverlay returns the value put into the stack for key, without consulting the source.
func (sm *StackedMap[K, V]) GetOverlay(key K) (V, bool) {
	if revs, ok := sm.revisions[key]; ok {
		v, ok := sm.levels[revs[len(revs)-1]].kvs[key]
		return v, ok
	}
	var zero V
	return zero, false
}

// Put puts key value into map at stack top.
// It will panic if stack is empty.
func (sm *StackedMap[K, V]) Put(key K, value V) {
	rev := len(sm.levels) - 1
	top := sm.levels[rev]
	if _, ok := top.kvs[key]; !ok {
		sm.revisions[key] = append(sm.revisions[key], rev)
	}
	top.kvs[key] = value
	top.journal = append(top.journal, journalEntry[K, V]{key, value})
}

// Journal traverses the journal of all puts in order, until cb returns false.
func (sm *StackedMap[K, V]) Journal(cb func(key K, value V) bool) {
	for _, lvl := range sm.levels {
		for _, e := range lvl.journal {
			if !cb(e.key, e.value) {
				return
			}
		}
	}
}
