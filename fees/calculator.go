// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"github.com/holiman/uint256"

	"github.com/vechain/docstate/docstore"
	"github.com/vechain/docstate/validation"
)

// FeeResult is the fee of a state transition.
type FeeResult struct {
	StorageFee    uint64
	ProcessingFee uint64
	DesiredAmount uint64          // what the identity is charged
	FeeRefunds    CreditsPerEpoch // credits refunded, by the epoch the storage was paid in
	FreedStorage  CreditsPerEpoch // storage fees of the refunded storage, by paid epoch
}

// Calculator maps the storage work of a transition to its fee.
type Calculator interface {
	Calculate(usage docstore.Usage, multiplierPermille uint64) (*FeeResult, error)
}

// LinearCalculator prices storage by the byte and processing by the operation and byte.
type LinearCalculator struct {
	StoragePricePerByte    uint64
	ProcessingPricePerOp   uint64
	ProcessingPricePerByte uint64
}

var _ Calculator = (*LinearCalculator)(nil)

// Calculate computes the fee of usage. The processing fee is scaled by multiplierPermille.
func (c *LinearCalculator) Calculate(usage docstore.Usage, multiplierPermille uint64) (*FeeResult, error) {
	mul := func(a, b uint64) *uint256.Int {
		return new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	}

	storage := mul(usage.AddedBytes, c.StoragePricePerByte)

	processing := mul(usage.Reads+usage.Writes, c.ProcessingPricePerOp)
	processing.Add(processing, mul(usage.BytesRead+usage.BytesWritten, c.ProcessingPricePerByte))
	processing.Mul(processing, uint256.NewInt(multiplierPermille))
	processing.Div(processing, uint256.NewInt(1000))

	desired := new(uint256.Int).Add(storage, processing)
	if !desired.IsUint64() {
		return nil, validation.NewStateConflict("fee overflow")
	}
	return &FeeResult{
		StorageFee:    storage.Uint64(),
		ProcessingFee: processing.Uint64(),
		DesiredAmount: desired.Uint64(),
	}, nil
}

// AddRefunds adds the refunds of other to r.
func (r *FeeResult) AddRefunds(other *FeeResult) {
	mergeCredits(&r.FeeRefunds, other.FeeRefunds)
	mergeCredits(&r.FreedStorage, other.FreedStorage)
}
