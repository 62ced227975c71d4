// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nonce

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/vechain/docstate/log"
	"github.com/vechain/docstate/state"
	"github.com/vechain/docstate/thor"
)

var logger = log.WithContext("pkg", "nonce")

// Store keeps the nonce of every (identity, contract) pair in the block state.
type Store struct {
	st *state.State
}

// NewStore creates a nonce store over st.
func NewStore(st *state.State) *Store {
	return &Store{st}
}

func key(identity, contractID thor.Bytes32) []byte {
	k := make([]byte, 0, 1+2*32)
	k = append(k, thor.KeySpaceNonce)
	k = append(k, identity[:]...)
	return append(k, contractID[:]...)
}

// Get returns the stored value of the pair, exists is false if no nonce was merged yet.
func (s *Store) Get(identity, contractID thor.Bytes32) (stored uint64, exists bool, err error) {
	data, err := s.st.Get(key(identity, contractID))
	if err != nil {
		return 0, false, err
	}
	if data == nil {
		return 0, false, nil
	}
	if len(data) != 8 {
		return 0, false, errors.Errorf("nonce: malformed value of %d bytes", len(data))
	}
	return binary.BigEndian.Uint64(data), true, nil
}

// Merge merges nonce into the pair's stored value.
// inserted reports whether this was the first nonce of the pair.
func (s *Store) Merge(identity, contractID thor.Bytes32, nonce uint64) (inserted bool, err error) {
	stored, exists, err := s.Get(identity, contractID)
	if err != nil {
		return false, err
	}
	merged, err := Merge(stored, exists, nonce)
	if err != nil {
		if me, ok := err.(*MergeError); ok {
			metricMerges().AddWithLabel(1, map[string]string{"result": me.Reason.String()})
			logger.Trace("nonce rejected", "identity", identity, "contract", contractID, "nonce", nonce, "reason", me.Reason)
		}
		return false, err
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], merged)
	s.st.Put(key(identity, contractID), buf[:])

	result := "replaced"
	if !exists {
		result = "inserted"
	}
	metricMerges().AddWithLabel(1, map[string]string{"result": result})
	return !exists, nil
}
