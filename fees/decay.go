// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"github.com/holiman/uint256"

	"github.com/vechain/docstate/thor"
)

const storageDecayDenominator = 100_000

// storageDecayShares is the part of a storage fee paid out in each era, in 1/100000.
// Every epoch of an era gets an equal cut of the era's share.
var storageDecayShares = [thor.PerpetualStorageEras]uint64{
	5000, 4800, 4650, 4475, 4300, 4125, 3975, 3825, 3675, 3525,
	3375, 3225, 3100, 2950, 2825, 2700, 2575, 2450, 2350, 2250,
	2150, 2050, 1950, 1850, 1750, 1650, 1550, 1475, 1400, 1325,
	1250, 1175, 1100, 1025, 950, 875, 800, 725, 675, 625,
	575, 525, 475, 425, 375, 325, 275, 225, 175, 125,
}

// mulDiv returns x*y/d, ok is false if the result does not fit 64 bits.
func mulDiv(x, y, d uint64) (uint64, bool) {
	r, overflow := new(uint256.Int).MulDivOverflow(uint256.NewInt(x), uint256.NewInt(y), uint256.NewInt(d))
	if overflow || !r.IsUint64() {
		return 0, false
	}
	return r.Uint64(), true
}

// Allocation splits a storage fee over the PerpetualStorageEpochs epochs following
// the epoch it was paid in.
type Allocation struct {
	PaidEpoch uint16
	Amount    uint64
	PerEpoch  [thor.PerpetualStorageEras]uint64 // credits of each epoch of an era
	Leftover  uint64                            // credits lost to rounding
}

// Allocate computes the allocation of amount paid in paidEpoch.
func Allocate(amount uint64, paidEpoch uint16) *Allocation {
	a := &Allocation{PaidEpoch: paidEpoch, Amount: amount}
	var distributed uint64
	for era, share := range storageDecayShares {
		// share <= denominator, never overflows
		perEpoch, _ := mulDiv(amount, share, storageDecayDenominator*uint64(thor.EpochsPerEra))
		a.PerEpoch[era] = perEpoch
		distributed += perEpoch * uint64(thor.EpochsPerEra)
	}
	a.Leftover = amount - distributed
	return a
}

// FirstEpoch returns the first epoch receiving credits.
func (a *Allocation) FirstEpoch() int {
	return int(a.PaidEpoch) + 1
}

// EndEpoch returns the epoch after the last one receiving credits.
func (a *Allocation) EndEpoch() int {
	return a.FirstEpoch() + int(thor.PerpetualStorageEpochs)
}

// Of returns the credits allocated to epoch.
func (a *Allocation) Of(epoch int) uint64 {
	offset := epoch - a.FirstEpoch()
	if offset < 0 || offset >= int(thor.PerpetualStorageEpochs) {
		return 0
	}
	return a.PerEpoch[offset/int(thor.EpochsPerEra)]
}

// Distributed returns the credits allocated to epochs.
func (a *Allocation) Distributed() uint64 {
	return a.Amount - a.Leftover
}

// RemainingAfter returns the credits allocated to the epochs after epoch.
func (a *Allocation) RemainingAfter(epoch uint16) uint64 {
	var sum uint64
	for e := max(int(epoch)+1, a.FirstEpoch()); e < a.EndEpoch(); e++ {
		sum += a.Of(e)
	}
	return sum
}

// EpochsTouched returns the count of epochs receiving credits.
func (a *Allocation) EpochsTouched() int {
	n := 0
	for _, v := range a.PerEpoch {
		if v > 0 {
			n += int(thor.EpochsPerEra)
		}
	}
	return n
}
