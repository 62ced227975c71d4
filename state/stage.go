// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"slices"

	"github.com/vechain/docstate/kv"
)

// Stage holds the final changes of a state, ready to be committed.
type Stage struct {
	store   kv.Store
	changes map[string]entry
}

// Len returns count of changed keys.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Commit writes all changes to the store in a single batch.
// Either all changes are written, or none on error.
func (s *Stage) Commit() error {
	keys := make([]string, 0, len(s.changes))
	for k := range s.changes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	if err := s.store.Batch(func(p kv.Putter) error {
		for _, k := range keys {
			e := s.changes[k]
			var err error
			if e.present {
				err = p.Put([]byte(k), e.data)
			} else {
				err = p.Delete([]byte(k))
			}
			if err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return &Error{err}
	}
	metricCommittedKeys().Add(int64(len(keys)))
	return nil
}
