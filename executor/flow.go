// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package executor

import (
	"fmt"
	"time"

	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/docstore"
	"github.com/vechain/docstate/fees"
	"github.com/vechain/docstate/nonce"
	"github.com/vechain/docstate/state"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/transition"
	"github.com/vechain/docstate/validation"
)

// Receipt is the outcome of one transition.
type Receipt struct {
	TransitionID thor.Bytes32
	Type         transition.Type
	Fee          *fees.FeeResult // nil when rejected
	Err          error           // why the transition was rejected
}

// Rejected returns whether the transition left no effect.
func (r *Receipt) Rejected() bool {
	return r.Err != nil
}

// Result is the outcome of a block.
type Result struct {
	Receipts  []*Receipt
	BlockFees fees.BlockFees
	Fees      *fees.Outcome
}

// Applied returns the count of applied transitions.
func (r *Result) Applied() int {
	n := 0
	for _, receipt := range r.Receipts {
		if !receipt.Rejected() {
			n++
		}
	}
	return n
}

// Flow is the execution context of one block.
type Flow struct {
	exec  *Executor
	block Block
	epoch fees.EpochInfo

	state  *state.State
	docs   *docstore.Store
	nonces *nonce.Store
	dist   *fees.Distributor
	ledger *fees.Ledger

	blockFees fees.BlockFees
	receipts  []*Receipt
	processed map[thor.Bytes32]struct{}
	startTime time.Time
	finalized bool
}

func newFlow(e *Executor, block Block, epoch fees.EpochInfo) *Flow {
	st := state.New(e.store)
	dist := fees.NewDistributor(st, e.opts.Fees)
	return &Flow{
		exec:      e,
		block:     block,
		epoch:     epoch,
		state:     st,
		docs:      docstore.New(st, e.contracts),
		nonces:    nonce.NewStore(st),
		dist:      dist,
		ledger:    dist.Ledger(),
		processed: make(map[thor.Bytes32]struct{}),
		startTime: time.Now(),
	}
}

// Epoch returns the epoch info of the block.
func (f *Flow) Epoch() fees.EpochInfo {
	return f.epoch
}

// Documents returns the document store reading the block state.
func (f *Flow) Documents() *docstore.Store {
	return f.docs
}

// Ledger returns the credit ledger of the block state.
func (f *Flow) Ledger() *fees.Ledger {
	return f.ledger
}

// Nonces returns the nonce store of the block state.
func (f *Flow) Nonces() *nonce.Store {
	return f.nonces
}

// Adopt applies a transition to the block state.
// A rejected transition leaves no effect, the reason is in the receipt. The error return
// is for failures that must stop the whole block.
func (f *Flow) Adopt(t transition.Transition) (*Receipt, error) {
	if f.finalized {
		return nil, errFinalized
	}
	receipt := &Receipt{TransitionID: t.ID(), Type: t.Type()}
	if _, ok := f.processed[receipt.TransitionID]; ok {
		return f.reject(receipt, validation.NewStateConflict("transition %v already in block", receipt.TransitionID)), nil
	}

	checkpoint := f.state.NewCheckpoint()
	f.docs.ResetUsage()
	fee, err := f.apply(t)
	if err != nil {
		f.state.RevertTo(checkpoint)
		if isFatal(err) {
			return nil, err
		}
		return f.reject(receipt, err), nil
	}

	f.processed[receipt.TransitionID] = struct{}{}
	f.blockFees.Add(fee)
	receipt.Fee = fee
	f.receipts = append(f.receipts, receipt)
	metricTransitions().AddWithLabel(1, map[string]string{"result": "applied"})
	return receipt, nil
}

func (f *Flow) reject(receipt *Receipt, err error) *Receipt {
	receipt.Err = err
	f.receipts = append(f.receipts, receipt)
	kind, _ := validation.KindOf(err)
	metricTransitions().AddWithLabel(1, map[string]string{"result": kind.String()})
	logger.Debug("transition rejected", "id", receipt.TransitionID, "type", receipt.Type, "kind", kind, "err", err)
	return receipt
}

// isFatal tells errors that must stop the block from rejections of a single transition.
func isFatal(err error) bool {
	kind, ok := validation.KindOf(err)
	return !ok || kind == validation.Corruption
}

func (f *Flow) apply(t transition.Transition) (*fees.FeeResult, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}
	var (
		refunded []*docstore.Record
		err      error
	)
	switch t := t.(type) {
	case *transition.DocumentsBatch:
		refunded, err = f.applyDocuments(t)
	case *transition.DataContractCreate:
		err = f.createContract(t)
	case *transition.IdentityTopUp:
		err = f.ledger.TopUp(t.IdentityID, t.Amount)
	case *transition.IdentityCreditWithdrawal:
		err = f.withdraw(t)
	default:
		err = &validation.InvalidTransitionError{Reason: fmt.Sprintf("unsupported transition type %v", t.Type())}
	}
	if err != nil {
		return nil, err
	}
	return f.charge(t.Identity(), refunded)
}

func (f *Flow) createContract(t *transition.DataContractCreate) error {
	c, err := contract.Parse(t.ContractID(), t.OwnerID, t.Definition)
	if err != nil {
		return err
	}
	return f.docs.PutContract(c)
}

func (f *Flow) withdraw(t *transition.IdentityCreditWithdrawal) error {
	if _, err := f.nonces.Merge(t.IdentityID, transition.IdentityNonceContract, t.Nonce); err != nil {
		return err
	}
	return f.ledger.Withdraw(t.IdentityID, t.Amount)
}

// charge takes the fee of the storage work done since the last usage reset, after
// refunding the storage of the refunded records.
func (f *Flow) charge(identity thor.Bytes32, refunded []*docstore.Record) (*fees.FeeResult, error) {
	multiplier, err := f.dist.FeeMultiplier(f.epoch.Index)
	if err != nil {
		return nil, err
	}
	fee, err := f.exec.opts.Calculator.Calculate(f.docs.ResetUsage(), multiplier)
	if err != nil {
		return nil, err
	}
	for _, r := range refunded {
		refund, err := f.ledger.Refund(identity, r.StorageFee, r.PaidEpoch, f.epoch.Index)
		if err != nil {
			return nil, err
		}
		fee.AddRefunds(refund)
	}
	if err := f.ledger.Charge(identity, fee.DesiredAmount); err != nil {
		return nil, err
	}
	return fee, nil
}

// Finalize processes the block fees and returns the stage holding all changes of the block.
// Nothing is written until the stage is committed, and the flow accepts no more transitions.
func (f *Flow) Finalize() (*Result, *state.Stage, error) {
	if f.finalized {
		return nil, nil, errFinalized
	}
	f.finalized = true

	outcome, err := f.dist.ProcessBlockFees(f.epoch, f.block.info(), f.block.Proposer, &f.blockFees)
	if err != nil {
		return nil, nil, err
	}
	metricBlockDuration().Observe(time.Since(f.startTime).Milliseconds())
	return &Result{
		Receipts:  f.receipts,
		BlockFees: f.blockFees,
		Fees:      outcome,
	}, f.state.Stage(), nil
}
