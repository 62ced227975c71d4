// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"math"

	"github.com/pkg/errors"
)

// Epoch is the fee accounting bucket of one epoch.
//
// Future epochs are created empty and only accumulate storage allocations,
// the start fields are set once blocks reach the epoch.
type Epoch struct {
	FeeMultiplierPermille uint64
	StartBlockHeight      uint64
	StartBlockCoreHeight  uint32
	StartTimeMs           uint64
	ProcessingFeePool     uint64
	StorageFeePool        uint64 // storage fees allocated to this epoch
	TotalBlocks           uint64 // blocks proposed in this epoch
	Paid                  uint64 // credits already paid out to proposers
}

// Unpaid returns the credits still held by the epoch.
func (e *Epoch) Unpaid() (uint64, error) {
	total, err := e.Total()
	if err != nil {
		return 0, err
	}
	if e.Paid > total {
		return 0, errors.Errorf("paid %d exceeds pools %d", e.Paid, total)
	}
	return total - e.Paid, nil
}

// Total returns the sum of both pools.
func (e *Epoch) Total() (uint64, error) {
	sum := e.ProcessingFeePool + e.StorageFeePool
	if sum < e.ProcessingFeePool {
		return 0, errors.New("epoch pools overflow")
	}
	return sum, nil
}

// EpochInfo locates a block in epochs.
type EpochInfo struct {
	Index         uint16
	PreviousIndex *uint16 // nil if the block is the first one
	IsChange      bool    // the block is the first of its epoch
}

// IsGenesis reports whether the block is the first block ever.
func (i EpochInfo) IsGenesis() bool {
	return i.PreviousIndex == nil
}

// NewEpochInfo derives the epoch info of a block from its time and the time of its parent.
func NewEpochInfo(genesisTimeMs, durationMs, blockTimeMs uint64, previousBlockTimeMs *uint64) (EpochInfo, error) {
	if durationMs == 0 {
		return EpochInfo{}, errors.New("zero epoch duration")
	}
	index, err := epochIndex(genesisTimeMs, durationMs, blockTimeMs)
	if err != nil {
		return EpochInfo{}, err
	}
	if previousBlockTimeMs == nil {
		return EpochInfo{Index: index, IsChange: true}, nil
	}

	if *previousBlockTimeMs > blockTimeMs {
		return EpochInfo{}, errors.Errorf("block time %d before parent time %d", blockTimeMs, *previousBlockTimeMs)
	}
	previous, err := epochIndex(genesisTimeMs, durationMs, *previousBlockTimeMs)
	if err != nil {
		return EpochInfo{}, err
	}
	return EpochInfo{
		Index:         index,
		PreviousIndex: &previous,
		IsChange:      index != previous,
	}, nil
}

func epochIndex(genesisTimeMs, durationMs, timeMs uint64) (uint16, error) {
	if timeMs < genesisTimeMs {
		return 0, errors.Errorf("time %d before genesis %d", timeMs, genesisTimeMs)
	}
	index := (timeMs - genesisTimeMs) / durationMs
	if index > math.MaxUint16 {
		return 0, errors.Errorf("epoch index %d out of range", index)
	}
	return uint16(index), nil
}
