// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package executor applies the state transitions of a block.
//
// Each block gets its own Flow, the explicit execution context holding the uncommitted
// block state. Transitions are applied one after another, each isolated in a state
// checkpoint, and the flow is finalized into a single atomic stage.
package executor

import (
	"github.com/pkg/errors"

	"github.com/vechain/docstate/docstore"
	"github.com/vechain/docstate/document"
	"github.com/vechain/docstate/fees"
	"github.com/vechain/docstate/kv"
	"github.com/vechain/docstate/log"
	"github.com/vechain/docstate/state"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/transition"
)

var logger = log.WithContext("pkg", "executor")

// Options configures an executor.
type Options struct {
	StructureVersion  uint32 // document structure version
	ContractCacheSize int
	GenesisTimeMs     uint64
	EpochDurationMs   uint64
	Fees              fees.Params
	Calculator        fees.Calculator
}

// Block is the header information a block is executed with.
type Block struct {
	Height       uint64
	CoreHeight   uint32
	TimeMs       uint64
	ParentTimeMs *uint64 // nil for the first block
	Proposer     thor.Bytes32
}

func (b *Block) info() document.BlockInfo {
	return document.BlockInfo{TimeMs: b.TimeMs, Height: b.Height, CoreHeight: b.CoreHeight}
}

// Executor creates block flows over a store.
type Executor struct {
	store     kv.Store
	contracts *docstore.ContractCache
	factory   *document.Factory
	opts      Options
}

// New creates an executor.
func New(store kv.Store, opts Options) (*Executor, error) {
	factory, err := document.NewFactory(opts.StructureVersion)
	if err != nil {
		return nil, err
	}
	if opts.Calculator == nil {
		return nil, errors.New("executor: no fee calculator")
	}
	if opts.EpochDurationMs == 0 {
		opts.EpochDurationMs = thor.DefaultEpochDurationMs
	}
	if opts.Fees.FeeMultiplierPermille == 0 {
		opts.Fees.FeeMultiplierPermille = thor.DefaultFeeMultiplierPermille
	}
	var contracts *docstore.ContractCache
	if opts.ContractCacheSize > 0 {
		if contracts, err = docstore.NewContractCache(opts.ContractCacheSize); err != nil {
			return nil, err
		}
	}
	return &Executor{
		store:     store,
		contracts: contracts,
		factory:   factory,
		opts:      opts,
	}, nil
}

// InitGenesis creates the fee accounting of a new chain and commits it.
func (e *Executor) InitGenesis() error {
	st := state.New(e.store)
	if err := fees.InitGenesis(st); err != nil {
		return err
	}
	return st.Stage().Commit()
}

// Schedule creates the flow to execute block.
func (e *Executor) Schedule(block Block) (*Flow, error) {
	info, err := fees.NewEpochInfo(e.opts.GenesisTimeMs, e.opts.EpochDurationMs, block.TimeMs, block.ParentTimeMs)
	if err != nil {
		return nil, err
	}
	return newFlow(e, block, info), nil
}

// Execute applies transitions as one block and commits the result.
// Rejected transitions are reported in the receipts, they do not fail the block.
func (e *Executor) Execute(block Block, transitions []transition.Transition) (*Result, error) {
	flow, err := e.Schedule(block)
	if err != nil {
		return nil, err
	}
	for _, t := range transitions {
		if _, err := flow.Adopt(t); err != nil {
			return nil, err
		}
	}
	result, stage, err := flow.Finalize()
	if err != nil {
		return nil, err
	}
	if err := stage.Commit(); err != nil {
		return nil, err
	}
	logger.Info("block committed",
		"height", block.Height,
		"epoch", result.Fees.Epoch,
		"applied", result.Applied(),
		"rejected", len(result.Receipts)-result.Applied(),
		"keys", stage.Len(),
	)
	return result, nil
}
