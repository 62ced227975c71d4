// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"math"

	"github.com/pkg/errors"

	"github.com/vechain/docstate/document"
	"github.com/vechain/docstate/state"
	"github.com/vechain/docstate/thor"
)

// Params configures the distributor.
type Params struct {
	FeeMultiplierPermille   uint64
	ProposerPayoutsPerBlock int
	VerifySumTrees          bool // reconcile credits after every block
}

// DistributionResult is the outcome of spreading the storage pool over future epochs.
type DistributionResult struct {
	PaidEpoch     uint16
	Amount        uint64
	Leftover      uint64 // kept in the storage pool
	EpochsTouched int
}

// Payout is the credits paid to a proposer for an epoch.
type Payout struct {
	Epoch    uint16
	Proposer thor.Bytes32
	Amount   uint64
}

// Outcome is what processing the fees of a block did.
type Outcome struct {
	Epoch               uint16
	EpochChange         bool
	StorageDistribution *DistributionResult // nil unless a previous epoch was closed
	RefundsDeducted     uint64
	Payouts             []Payout
	PaidOutEpoch        *uint16 // the epoch whose payout this block completed
}

// Distributor rolls fee accounting forward block by block.
type Distributor struct {
	s      *storage
	ledger *Ledger
	params Params
}

// NewDistributor creates a distributor over the block state.
func NewDistributor(st *state.State, params Params) *Distributor {
	if params.ProposerPayoutsPerBlock < 1 {
		params.ProposerPayoutsPerBlock = 1
	}
	return &Distributor{
		s:      &storage{st},
		ledger: NewLedger(st),
		params: params,
	}
}

// Ledger returns the credit ledger sharing the distributor's state.
func (d *Distributor) Ledger() *Ledger {
	return d.ledger
}

// FeeMultiplier returns the fee multiplier in force for epoch.
func (d *Distributor) FeeMultiplier(epoch uint16) (uint64, error) {
	current, started, err := d.s.getUint16(globalKey(globalCurrentEpoch))
	if err != nil {
		return 0, err
	}
	if started && current == epoch {
		e, err := d.s.mustEpoch(epoch)
		if err != nil {
			return 0, err
		}
		return e.FeeMultiplierPermille, nil
	}
	return d.params.FeeMultiplierPermille, nil
}

// ProcessBlockFees accounts the fees of a block proposed by proposer.
// All writes go to the block state, nothing is written on error.
func (d *Distributor) ProcessBlockFees(info EpochInfo, block document.BlockInfo, proposer thor.Bytes32, fees *BlockFees) (*Outcome, error) {
	if fees == nil {
		fees = &BlockFees{}
	}
	out := &Outcome{Epoch: info.Index, EpochChange: info.IsChange}

	if info.IsChange {
		if err := d.startEpoch(info, block, fees, out); err != nil {
			return nil, err
		}
	} else {
		if _, started, err := d.s.getUint16(globalKey(globalCurrentEpoch)); err != nil {
			return nil, err
		} else if !started {
			return nil, errors.New("fees: first block must start an epoch")
		}
		pending, err := d.s.pendingRefunds()
		if err != nil {
			return nil, err
		}
		pending.add(fees)
		d.s.setPendingRefunds(pending)
	}

	if err := d.countBlock(info.Index, proposer); err != nil {
		return nil, err
	}
	if err := d.payout(info.Index, out); err != nil {
		return nil, err
	}
	if err := d.addBlockFees(info.Index, fees); err != nil {
		return nil, err
	}

	if d.params.VerifySumTrees {
		if err := Reconcile(d.s.st); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *Distributor) startEpoch(info EpochInfo, block document.BlockInfo, fees *BlockFees, out *Outcome) error {
	previous, started, err := d.s.getUint16(globalKey(globalCurrentEpoch))
	if err != nil {
		return err
	}
	if started && info.Index <= previous {
		return errors.Errorf("fees: epoch %d does not follow epoch %d", info.Index, previous)
	}
	if err := d.initiateEpochs(info.Index); err != nil {
		return err
	}

	epoch, err := d.s.mustEpoch(info.Index)
	if err != nil {
		return err
	}
	epoch.FeeMultiplierPermille = d.params.FeeMultiplierPermille
	epoch.StartBlockHeight = block.Height
	epoch.StartBlockCoreHeight = block.CoreHeight
	epoch.StartTimeMs = block.TimeMs
	if err := d.s.setEpoch(info.Index, epoch); err != nil {
		return err
	}
	d.s.setUint16(globalKey(globalCurrentEpoch), info.Index)

	// nothing to distribute before the first epoch is closed
	if started {
		result, err := d.distributeStoragePool(previous)
		if err != nil {
			return err
		}
		out.StorageDistribution = result

		if out.RefundsDeducted, err = d.deductRefunds(previous); err != nil {
			return err
		}
	}
	// refunds of this block are deducted at the next change
	pending := make(pendingRefunds)
	pending.add(fees)
	d.s.setPendingRefunds(pending)

	metricEpochChanges().Add(1)
	metricCurrentEpoch().Set(int64(info.Index))
	if started {
		logger.Info("epoch started", "epoch", info.Index, "previous", previous, "height", block.Height,
			"distributed", out.StorageDistribution.Amount-out.StorageDistribution.Leftover,
			"refunds", out.RefundsDeducted)
	} else {
		logger.Info("first epoch started", "epoch", info.Index, "height", block.Height)
	}
	return nil
}

// initiateEpochs creates the epochs up to the storage horizon of current.
func (d *Distributor) initiateEpochs(current uint16) error {
	initiated, ok, err := d.s.getUint16(globalKey(globalInitiatedUntil))
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("fees: genesis not initialized")
	}
	horizon := int(current) + int(thor.PerpetualStorageEpochs)
	if horizon > math.MaxUint16 {
		return errors.Errorf("fees: epoch %d beyond the last storage horizon", current)
	}
	if horizon <= int(initiated) {
		return nil
	}
	for i := int(initiated) + 1; i <= horizon; i++ {
		if err := d.s.setEpoch(uint16(i), &Epoch{}); err != nil {
			return err
		}
	}
	d.s.setUint16(globalKey(globalInitiatedUntil), uint16(horizon))
	return nil
}

// distributeStoragePool spreads the storage fees paid in paidEpoch over the following epochs.
func (d *Distributor) distributeStoragePool(paidEpoch uint16) (*DistributionResult, error) {
	amount, _, err := d.s.getUint64(globalKey(globalStoragePool))
	if err != nil {
		return nil, err
	}
	a := Allocate(amount, paidEpoch)
	for e := a.FirstEpoch(); e < a.EndEpoch(); e++ {
		v := a.Of(e)
		if v == 0 {
			continue
		}
		epoch, err := d.s.mustEpoch(uint16(e))
		if err != nil {
			return nil, err
		}
		if epoch.StorageFeePool, err = addCredits(epoch.StorageFeePool, v); err != nil {
			return nil, err
		}
		if err := d.s.setEpoch(uint16(e), epoch); err != nil {
			return nil, err
		}
	}
	d.s.setUint64(globalKey(globalStoragePool), a.Leftover)

	result := &DistributionResult{
		PaidEpoch:     paidEpoch,
		Amount:        amount,
		Leftover:      a.Leftover,
		EpochsTouched: a.EpochsTouched(),
	}
	logger.Debug("distributed storage pool", "paid", paidEpoch, "amount", amount, "leftover", a.Leftover, "epochs", result.EpochsTouched)
	return result, nil
}

// deductRefunds takes the allocations of the storage freed during previous out of
// the epochs after it. Rounding in favor of the system goes back to the storage pool.
func (d *Distributor) deductRefunds(previous uint16) (uint64, error) {
	pending, err := d.s.pendingRefunds()
	if err != nil {
		return 0, err
	}
	var deducted, credited uint64
	for _, paid := range pending.epochs() {
		r := pending[paid]
		amount, err := d.deductAllocation(Allocate(r.Freed, paid), previous)
		if err != nil {
			return 0, err
		}
		if amount < r.Credited {
			return 0, errors.Wrapf(ErrCorruptedEpochPool, "refunded %d for epoch %d, freed allocations %d", r.Credited, paid, amount)
		}
		deducted += amount
		credited += r.Credited
	}
	d.s.clearPendingRefunds(pending)

	if surplus := deducted - credited; surplus > 0 {
		pool, _, err := d.s.getUint64(globalKey(globalStoragePool))
		if err != nil {
			return 0, err
		}
		if pool, err = addCredits(pool, surplus); err != nil {
			return 0, err
		}
		d.s.setUint64(globalKey(globalStoragePool), pool)
	}
	return deducted, nil
}

// deductAllocation removes from the storage pools the part of a allocated after epoch.
func (d *Distributor) deductAllocation(a *Allocation, after uint16) (uint64, error) {
	var deducted uint64
	for e := max(int(after)+1, a.FirstEpoch()); e < a.EndEpoch(); e++ {
		v := a.Of(e)
		if v == 0 {
			continue
		}
		epoch, err := d.s.mustEpoch(uint16(e))
		if err != nil {
			return 0, err
		}
		if epoch.StorageFeePool < v {
			return 0, errors.Wrapf(ErrCorruptedEpochPool, "epoch %d holds %d, %d to deduct", e, epoch.StorageFeePool, v)
		}
		epoch.StorageFeePool -= v
		if err := d.s.setEpoch(uint16(e), epoch); err != nil {
			return 0, err
		}
		deducted += v
	}
	return deducted, nil
}

func (d *Distributor) countBlock(current uint16, proposer thor.Bytes32) error {
	key := proposerKey(current, proposer)
	blocks, _, err := d.s.getUint64(key)
	if err != nil {
		return err
	}
	d.s.setUint64(key, blocks+1)

	epoch, err := d.s.mustEpoch(current)
	if err != nil {
		return err
	}
	epoch.TotalBlocks++
	return d.s.setEpoch(current, epoch)
}

// payout pays a batch of proposers of the oldest unpaid epoch before current.
func (d *Distributor) payout(current uint16, out *Outcome) error {
	unpaid, _, err := d.s.getUint16(globalKey(globalUnpaidEpoch))
	if err != nil {
		return err
	}
	if unpaid >= current {
		return nil
	}
	epoch, err := d.s.mustEpoch(unpaid)
	if err != nil {
		return err
	}
	total, err := epoch.Total()
	if err != nil {
		return errors.Wrapf(ErrCorruptedEpochPool, "epoch %d: %v", unpaid, err)
	}

	batch := d.params.ProposerPayoutsPerBlock
	proposers, err := d.s.proposers(unpaid, batch+1)
	if err != nil {
		return err
	}
	paying := proposers[:min(len(proposers), batch)]
	for _, p := range paying {
		if epoch.TotalBlocks == 0 {
			return errors.Wrapf(ErrCorruptedEpochPool, "epoch %d has proposers but no blocks", unpaid)
		}
		amount, ok := mulDiv(total, p.Blocks, epoch.TotalBlocks)
		if !ok || epoch.Paid+amount > total {
			return errors.Wrapf(ErrCorruptedEpochPool, "epoch %d can not pay %v for %d blocks", unpaid, p.Proposer, p.Blocks)
		}
		if err := d.ledger.credit(p.Proposer, amount); err != nil {
			return err
		}
		epoch.Paid += amount
		d.s.st.Delete(proposerKey(unpaid, p.Proposer))
		out.Payouts = append(out.Payouts, Payout{unpaid, p.Proposer, amount})
	}

	if len(proposers) > len(paying) {
		logger.Debug("paid proposers", "epoch", unpaid, "count", len(paying))
		return d.s.setEpoch(unpaid, epoch)
	}

	// everyone is paid, rounding dust stays in circulation through the current epoch
	dust := total - epoch.Paid
	if dust > 0 {
		cur, err := d.s.mustEpoch(current)
		if err != nil {
			return err
		}
		if cur.ProcessingFeePool, err = addCredits(cur.ProcessingFeePool, dust); err != nil {
			return err
		}
		if err := d.s.setEpoch(current, cur); err != nil {
			return err
		}
	}
	epoch.ProcessingFeePool, epoch.StorageFeePool, epoch.Paid = 0, 0, 0
	if err := d.s.setEpoch(unpaid, epoch); err != nil {
		return err
	}
	d.s.setUint16(globalKey(globalUnpaidEpoch), unpaid+1)
	out.PaidOutEpoch = &unpaid

	logger.Debug("epoch paid out", "epoch", unpaid, "total", total, "proposers", len(paying), "dust", dust)
	return nil
}

func (d *Distributor) addBlockFees(current uint16, fees *BlockFees) error {
	pool, _, err := d.s.getUint64(globalKey(globalStoragePool))
	if err != nil {
		return err
	}
	if pool, err = addCredits(pool, fees.StorageFee); err != nil {
		return err
	}
	d.s.setUint64(globalKey(globalStoragePool), pool)

	epoch, err := d.s.mustEpoch(current)
	if err != nil {
		return err
	}
	if epoch.ProcessingFeePool, err = addCredits(epoch.ProcessingFeePool, fees.ProcessingFee); err != nil {
		return err
	}
	return d.s.setEpoch(current, epoch)
}

func addCredits(a, b uint64) (uint64, error) {
	if a+b < a {
		return 0, errors.Wrap(ErrCorruptedEpochPool, "credits overflow")
	}
	return a + b, nil
}
