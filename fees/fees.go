// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fees accounts identity credits and distributes block fees over epochs.
//
// Processing fees of a block go to the pool of its epoch. Storage fees are
// collected during an epoch, then spread at the next epoch change over the
// following thor.PerpetualStorageEpochs epochs with a decaying schedule. Once an
// epoch is over, its pools are paid out to its proposers in proportion to the
// blocks they made, a bounded batch of proposers per block.
//
// Credits are conserved: identity balances, the storage pool and the unpaid part
// of every epoch always add up to the credits ever topped up minus withdrawn,
// less the refunds not yet deducted from the epochs.
package fees

import (
	"maps"
	"slices"

	"github.com/vechain/docstate/log"
	"github.com/vechain/docstate/validation"
)

var logger = log.WithContext("pkg", "fees")

var (
	// ErrCorruptedCreditsNotBalanced is returned when the credit reconciliation fails.
	ErrCorruptedCreditsNotBalanced = &validation.CorruptedError{Reason: "credits not balanced"}
	// ErrCorruptedEpochPool is returned when an epoch pool can not cover its obligations.
	ErrCorruptedEpochPool = &validation.CorruptedError{Reason: "epoch pool"}
)

// CreditsPerEpoch maps an epoch index to credits.
type CreditsPerEpoch map[uint16]uint64

// Add adds amount to epoch.
func (c CreditsPerEpoch) Add(epoch uint16, amount uint64) {
	if amount > 0 {
		c[epoch] += amount
	}
}

// Merge adds all of other.
func (c CreditsPerEpoch) Merge(other CreditsPerEpoch) {
	for epoch, amount := range other {
		c.Add(epoch, amount)
	}
}

// Epochs returns the epochs in ascending order.
func (c CreditsPerEpoch) Epochs() []uint16 {
	epochs := make([]uint16, 0, len(c))
	for epoch := range c {
		epochs = append(epochs, epoch)
	}
	slices.Sort(epochs)
	return epochs
}

// Total returns the sum of all credits.
func (c CreditsPerEpoch) Total() uint64 {
	var sum uint64
	for _, amount := range c {
		sum += amount
	}
	return sum
}

func mergeCredits(dst *CreditsPerEpoch, src CreditsPerEpoch) {
	if len(src) == 0 {
		return
	}
	if *dst == nil {
		*dst = make(CreditsPerEpoch)
	}
	dst.Merge(src)
}

// BlockFees are the fees collected by a block.
type BlockFees struct {
	StorageFee    uint64
	ProcessingFee uint64
	Refunds       CreditsPerEpoch // credits refunded, by the epoch the storage was paid in
	FreedStorage  CreditsPerEpoch // storage fees of the refunded storage, by paid epoch
}

// Add accumulates the fees of a transition.
func (f *BlockFees) Add(r *FeeResult) {
	f.StorageFee += r.StorageFee
	f.ProcessingFee += r.ProcessingFee
	mergeCredits(&f.Refunds, r.FeeRefunds)
	mergeCredits(&f.FreedStorage, r.FreedStorage)
}

// pendingRefund is storage freed during the current epoch. Its allocations are
// taken out of the following epochs at the next epoch change.
type pendingRefund struct {
	Freed    uint64 // storage fees of the freed storage
	Credited uint64 // credits given back to identities
}

type pendingRefunds map[uint16]pendingRefund

func (p pendingRefunds) add(fees *BlockFees) {
	for epoch, amount := range fees.FreedStorage {
		r := p[epoch]
		r.Freed += amount
		p[epoch] = r
	}
	for epoch, amount := range fees.Refunds {
		r := p[epoch]
		r.Credited += amount
		p[epoch] = r
	}
}

func (p pendingRefunds) epochs() []uint16 {
	return slices.Sorted(maps.Keys(p))
}

func (p pendingRefunds) credited() uint64 {
	var sum uint64
	for _, r := range p {
		sum += r.Credited
	}
	return sum
}
