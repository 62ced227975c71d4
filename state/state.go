// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state provides the uncommitted block transaction over a kv store.
//
// All writes stay in a journaled overlay until Stage().Commit() applies them as
// one atomic batch. Reads see the overlay first, so later operations of a block
// observe the writes of earlier ones. Checkpoints allow reverting the writes of
// a single failed operation without affecting the rest.
package state

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/vechain/docstate/kv"
	"github.com/vechain/docstate/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the storage engine error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the storage engine error, for errors.Cause.
func (e *Error) Cause() error {
	return e.cause
}

// entry is an overlay value. present is false for deleted keys.
type entry struct {
	data    []byte
	present bool
}

// State is the read-your-writes view of a store.
type State struct {
	store kv.Store
	sm    *stackedmap.StackedMap[string, entry]
}

// New create state object.
func New(store kv.Store) *State {
	s := &State{store: store}
	s.sm = stackedmap.New(func(key string) (entry, bool, error) {
		return s.load([]byte(key))
	})
	return s
}

func (s *State) load(key []byte) (entry, bool, error) {
	val, err := s.store.Get(key)
	if err != nil {
		if s.store.IsNotFound(err) {
			return entry{}, false, nil
		}
		return entry{}, false, &Error{err}
	}
	return entry{val, true}, true, nil
}

// Get returns the value of key, nil if absent.
func (s *State) Get(key []byte) ([]byte, error) {
	e, _, err := s.sm.Get(string(key))
	if err != nil {
		return nil, err
	}
	if !e.present {
		return nil, nil
	}
	return e.data, nil
}

// Has returns whether key exists.
func (s *State) Has(key []byte) (bool, error) {
	e, _, err := s.sm.Get(string(key))
	if err != nil {
		return false, err
	}
	return e.present, nil
}

// Put sets the value of key. A nil value is stored as empty.
func (s *State) Put(key, val []byte) {
	if val == nil {
		val = []byte{}
	}
	s.sm.Put(string(key), entry{bytes.Clone(val), true})
}

// Delete removes key.
func (s *State) Delete(key []byte) {
	s.sm.Put(string(key), entry{})
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 0 || revision > s.sm.Depth() {
		panic("invalid checkpoint revision")
	}
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Iterate iterates over keys of rng in ascending order, overlay merged over the store,
// until fn returns false.
func (s *State) Iterate(rng kv.Range, fn func(key, val []byte) bool) error {
	overlay := s.overlayKeys(rng)
	stopped := false
	emit := func(key string) bool {
		e, _ := s.sm.GetOverlay(key)
		if !e.present {
			return true
		}
		return fn([]byte(key), e.data)
	}

	err := s.store.Iterate(rng, func(pair kv.Pair) bool {
		key := string(pair.Key())
		for len(overlay) > 0 && overlay[0] < key {
			if !emit(overlay[0]) {
				stopped = true
				return false
			}
			overlay = overlay[1:]
		}
		if len(overlay) > 0 && overlay[0] == key {
			overlay = overlay[1:]
			if !emit(key) {
				stopped = true
				return false
			}
			return true
		}
		if !fn(bytes.Clone(pair.Key()), bytes.Clone(pair.Value())) {
			stopped = true
			return false
		}
		return true
	})
	if err != nil {
		return &Error{err}
	}
	if stopped {
		return nil
	}
	for _, key := range overlay {
		if !emit(key) {
			break
		}
	}
	return nil
}

// overlayKeys returns the sorted distinct keys written within rng.
func (s *State) overlayKeys(rng kv.Range) []string {
	seen := make(map[string]struct{})
	var keys []string
	s.sm.Journal(func(key string, _ entry) bool {
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
		if key >= string(rng.Start) && (len(rng.Limit) == 0 || key < string(rng.Limit)) {
			keys = append(keys, key)
		}
		return true
	})
	slices.Sort(keys)
	return keys
}

// Stage makes a stage object to commit changes.
func (s *State) Stage() *Stage {
	changes := make(map[string]entry)
	s.sm.Journal(func(key string, e entry) bool {
		changes[key] = e
		return true
	})
	return &Stage{store: s.store, changes: changes}
}
