// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/docstate/kv"
	"github.com/vechain/docstate/state"
	"github.com/vechain/docstate/thor"
)

// names of the global fee values
const (
	globalStoragePool    = "storage_pool"    // storage fees waiting for the next epoch change
	globalTotalCredits   = "total_credits"   // credits ever topped up minus withdrawn
	globalCurrentEpoch   = "current_epoch"   // last started epoch
	globalInitiatedUntil = "initiated_until" // highest created epoch
	globalUnpaidEpoch    = "unpaid_epoch"    // oldest epoch not paid out
)

func epochKey(index uint16) []byte {
	return binary.BigEndian.AppendUint16([]byte{thor.KeySpaceEpoch}, index)
}

func proposersPrefix(index uint16) []byte {
	return binary.BigEndian.AppendUint16([]byte{thor.KeySpaceProposer}, index)
}

func proposerKey(index uint16, proposer thor.Bytes32) []byte {
	return append(proposersPrefix(index), proposer[:]...)
}

func globalKey(name string) []byte {
	return append([]byte{thor.KeySpaceFeeGlobals}, name...)
}

func refundKey(paidEpoch uint16) []byte {
	return binary.BigEndian.AppendUint16([]byte{thor.KeySpacePendingRefunds}, paidEpoch)
}

func balanceKey(identity thor.Bytes32) []byte {
	return append([]byte{thor.KeySpaceBalance}, identity[:]...)
}

// storage reads and writes fee values in the block state.
type storage struct {
	st *state.State
}

func (s *storage) getUint64(key []byte) (uint64, bool, error) {
	data, err := s.st.Get(key)
	if err != nil || data == nil {
		return 0, false, err
	}
	if len(data) != 8 {
		return 0, false, errors.Errorf("fees: malformed value of %d bytes under %x", len(data), key)
	}
	return binary.BigEndian.Uint64(data), true, nil
}

func (s *storage) setUint64(key []byte, v uint64) {
	s.st.Put(key, binary.BigEndian.AppendUint64(nil, v))
}

func (s *storage) getUint16(key []byte) (uint16, bool, error) {
	data, err := s.st.Get(key)
	if err != nil || data == nil {
		return 0, false, err
	}
	if len(data) != 2 {
		return 0, false, errors.Errorf("fees: malformed value of %d bytes under %x", len(data), key)
	}
	return binary.BigEndian.Uint16(data), true, nil
}

func (s *storage) setUint16(key []byte, v uint16) {
	s.st.Put(key, binary.BigEndian.AppendUint16(nil, v))
}

// getEpoch returns nil if the epoch was never created.
func (s *storage) getEpoch(index uint16) (*Epoch, error) {
	data, err := s.st.Get(epochKey(index))
	if err != nil || data == nil {
		return nil, err
	}
	var e Epoch
	if err := rlp.DecodeBytes(data, &e); err != nil {
		return nil, errors.Wrapf(err, "decode epoch %d", index)
	}
	return &e, nil
}

// mustEpoch returns the epoch, failing if it was never created.
func (s *storage) mustEpoch(index uint16) (*Epoch, error) {
	e, err := s.getEpoch(index)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.Wrapf(ErrCorruptedEpochPool, "epoch %d not created", index)
	}
	return e, nil
}

func (s *storage) setEpoch(index uint16, e *Epoch) error {
	data, err := rlp.EncodeToBytes(e)
	if err != nil {
		return err
	}
	s.st.Put(epochKey(index), data)
	return nil
}

// ProposerBlocks is the count of blocks a proposer made in an epoch.
type ProposerBlocks struct {
	Proposer thor.Bytes32
	Blocks   uint64
}

// proposers returns up to limit proposers of the epoch ordered by id, all if limit is 0.
func (s *storage) proposers(index uint16, limit int) ([]ProposerBlocks, error) {
	prefix := proposersPrefix(index)
	var (
		list    []ProposerBlocks
		iterErr error
	)
	if err := s.st.Iterate(kv.PrefixRange(prefix), func(key, val []byte) bool {
		if len(key) != len(prefix)+32 || len(val) != 8 {
			iterErr = errors.Errorf("fees: malformed proposer entry %x", key)
			return false
		}
		list = append(list, ProposerBlocks{
			Proposer: thor.BytesToBytes32(key[len(prefix):]),
			Blocks:   binary.BigEndian.Uint64(val),
		})
		return limit == 0 || len(list) < limit
	}); err != nil {
		return nil, err
	}
	return list, iterErr
}

// pendingRefunds returns the refunds waiting for the next epoch change.
func (s *storage) pendingRefunds() (pendingRefunds, error) {
	pending := make(pendingRefunds)
	var iterErr error
	if err := s.st.Iterate(kv.PrefixRange([]byte{thor.KeySpacePendingRefunds}), func(key, val []byte) bool {
		if len(key) != 3 || len(val) != 16 {
			iterErr = errors.Errorf("fees: malformed refund entry %x", key)
			return false
		}
		pending[binary.BigEndian.Uint16(key[1:])] = pendingRefund{
			Freed:    binary.BigEndian.Uint64(val),
			Credited: binary.BigEndian.Uint64(val[8:]),
		}
		return true
	}); err != nil {
		return nil, err
	}
	return pending, iterErr
}

func (s *storage) setPendingRefunds(pending pendingRefunds) {
	for _, epoch := range pending.epochs() {
		r := pending[epoch]
		val := binary.BigEndian.AppendUint64(nil, r.Freed)
		s.st.Put(refundKey(epoch), binary.BigEndian.AppendUint64(val, r.Credited))
	}
}

func (s *storage) clearPendingRefunds(pending pendingRefunds) {
	for epoch := range pending {
		s.st.Delete(refundKey(epoch))
	}
}
