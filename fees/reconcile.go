// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/docstate/kv"
	"github.com/vechain/docstate/state"
	"github.com/vechain/docstate/thor"
)

// Credits is a breakdown of where the system credits are.
type Credits struct {
	Balances       *uint256.Int
	StoragePool    uint64
	Epochs         *uint256.Int // unpaid credits of all epochs
	PendingRefunds uint64       // refunded but not yet deducted from the epochs
	Total          uint64       // credits ever topped up minus withdrawn
}

// Held returns the credits held, which must equal Total.
func (c *Credits) Held() *uint256.Int {
	held := new(uint256.Int).Add(c.Balances, c.Epochs)
	held.Add(held, uint256.NewInt(c.StoragePool))
	return held.Sub(held, uint256.NewInt(c.PendingRefunds))
}

// Balanced reports whether the held credits match the total.
func (c *Credits) Balanced() bool {
	return c.Held().Eq(uint256.NewInt(c.Total))
}

// CountCredits sums the credits held in the block state.
func CountCredits(st *state.State) (*Credits, error) {
	s := &storage{st}
	c := &Credits{Balances: new(uint256.Int), Epochs: new(uint256.Int)}

	var iterErr error
	if err := st.Iterate(kv.PrefixRange([]byte{thor.KeySpaceBalance}), func(key, val []byte) bool {
		if len(val) != 8 {
			iterErr = errors.Errorf("fees: malformed balance %x", key)
			return false
		}
		c.Balances.Add(c.Balances, uint256.NewInt(binary.BigEndian.Uint64(val)))
		return true
	}); err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}

	if err := st.Iterate(kv.PrefixRange([]byte{thor.KeySpaceEpoch}), func(key, val []byte) bool {
		var e Epoch
		if err := rlp.DecodeBytes(val, &e); err != nil {
			iterErr = errors.Wrapf(err, "decode epoch %x", key)
			return false
		}
		unpaid, err := e.Unpaid()
		if err != nil {
			iterErr = errors.Wrapf(ErrCorruptedEpochPool, "epoch %x: %v", key, err)
			return false
		}
		c.Epochs.Add(c.Epochs, uint256.NewInt(unpaid))
		return true
	}); err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}

	var err error
	if c.StoragePool, _, err = s.getUint64(globalKey(globalStoragePool)); err != nil {
		return nil, err
	}
	if c.Total, _, err = s.getUint64(globalKey(globalTotalCredits)); err != nil {
		return nil, err
	}
	pending, err := s.pendingRefunds()
	if err != nil {
		return nil, err
	}
	c.PendingRefunds = pending.credited()
	return c, nil
}

// Reconcile verifies that the credits held in the block state add up to the total credits.
func Reconcile(st *state.State) error {
	c, err := CountCredits(st)
	if err != nil {
		return err
	}
	if !c.Balanced() {
		logger.Error("credits not balanced", "balances", c.Balances, "storagePool", c.StoragePool,
			"epochs", c.Epochs, "pendingRefunds", c.PendingRefunds, "total", c.Total)
		return errors.Wrapf(ErrCorruptedCreditsNotBalanced, "held %v, total %d", c.Held(), c.Total)
	}
	return nil
}
