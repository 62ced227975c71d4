// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"github.com/pkg/errors"

	"github.com/vechain/docstate/state"
	"github.com/vechain/docstate/thor"
)

// InitGenesis creates the epochs 0 to thor.PerpetualStorageEpochs and the fee globals.
func InitGenesis(st *state.State) error {
	s := &storage{st}
	if _, ok, err := s.getUint16(globalKey(globalInitiatedUntil)); err != nil {
		return err
	} else if ok {
		return errors.New("fees: genesis already initialized")
	}

	for i := uint16(0); i <= thor.PerpetualStorageEpochs; i++ {
		if err := s.setEpoch(i, &Epoch{}); err != nil {
			return err
		}
	}
	s.setUint16(globalKey(globalInitiatedUntil), thor.PerpetualStorageEpochs)
	s.setUint16(globalKey(globalUnpaidEpoch), 0)
	s.setUint64(globalKey(globalStoragePool), 0)
	s.setUint64(globalKey(globalTotalCredits), 0)
	return nil
}
