// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package transition defines the state transitions a block applies.
//
// Transitions arrive authenticated and fee-validated. Check only verifies what can be
// decided without state; everything else is up to the executor.
package transition

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
)

// MaxDocumentTransitions is the limit of document transitions in a batch.
const MaxDocumentTransitions = 10

// IdentityNonceContract is the contract id the identity-wide nonce is kept under.
var IdentityNonceContract = thor.Bytes32{}

// Type is the type of a state transition.
type Type uint8

const (
	TypeDocumentsBatch = Type(iota + 1)
	TypeDataContractCreate
	TypeIdentityTopUp
	TypeIdentityCreditWithdrawal
)

func (t Type) String() string {
	switch t {
	case TypeDocumentsBatch:
		return "documents_batch"
	case TypeDataContractCreate:
		return "data_contract_create"
	case TypeIdentityTopUp:
		return "identity_top_up"
	case TypeIdentityCreditWithdrawal:
		return "identity_credit_withdrawal"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Transition is a state transition of an identity.
type Transition interface {
	Type() Type
	// Identity returns the identity the transition acts for.
	Identity() thor.Bytes32
	// ID returns the hash of the transition.
	ID() thor.Bytes32
	// Check verifies the transition without state access.
	Check() error
}

var (
	_ Transition = (*DocumentsBatch)(nil)
	_ Transition = (*DataContractCreate)(nil)
	_ Transition = (*IdentityTopUp)(nil)
	_ Transition = (*IdentityCreditWithdrawal)(nil)
)

func hash(t Type, body any) thor.Bytes32 {
	data, err := rlp.EncodeToBytes(body)
	if err != nil {
		panic(err)
	}
	return thor.Blake2b([]byte{byte(t)}, data)
}

func invalid(format string, args ...any) error {
	return &validation.InvalidTransitionError{Reason: fmt.Sprintf(format, args...)}
}

// DocumentsBatch changes documents of one owner. Its document transitions apply together or not at all.
type DocumentsBatch struct {
	OwnerID     thor.Bytes32
	Transitions []*DocumentTransition
}

func (b *DocumentsBatch) Type() Type             { return TypeDocumentsBatch }
func (b *DocumentsBatch) Identity() thor.Bytes32 { return b.OwnerID }

// ID returns the hash of the batch.
func (b *DocumentsBatch) ID() thor.Bytes32 {
	bodies := make([]*documentTransitionBody, 0, len(b.Transitions))
	for _, t := range b.Transitions {
		bodies = append(bodies, t.body())
	}
	return hash(b.Type(), []any{b.OwnerID, bodies})
}

// Check verifies every document transition and that no document is targeted twice.
func (b *DocumentsBatch) Check() error {
	if len(b.Transitions) == 0 {
		return invalid("empty documents batch")
	}
	if len(b.Transitions) > MaxDocumentTransitions {
		return invalid("documents batch of %d transitions exceeds %d", len(b.Transitions), MaxDocumentTransitions)
	}
	seen := make(map[thor.Bytes32]struct{}, len(b.Transitions))
	for i, t := range b.Transitions {
		if err := t.check(b.OwnerID); err != nil {
			return err
		}
		id := t.DocumentID(b.OwnerID)
		if _, ok := seen[id]; ok {
			return invalid("document %v targeted twice, at transition %d", id, i)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// DataContractCreate registers a new data contract.
type DataContractCreate struct {
	OwnerID    thor.Bytes32
	Entropy    thor.Bytes32
	Definition []byte // yaml or json
}

func (c *DataContractCreate) Type() Type             { return TypeDataContractCreate }
func (c *DataContractCreate) Identity() thor.Bytes32 { return c.OwnerID }

func (c *DataContractCreate) ID() thor.Bytes32 {
	return hash(c.Type(), []any{c.OwnerID, c.Entropy, c.Definition})
}

// ContractID returns the id of the created contract.
func (c *DataContractCreate) ContractID() thor.Bytes32 {
	return contract.NewID(c.OwnerID, c.Entropy)
}

func (c *DataContractCreate) Check() error {
	if len(c.Definition) == 0 {
		return invalid("empty data contract definition")
	}
	return nil
}

// IdentityTopUp adds credits to an identity.
// The funding proof is verified before the transition reaches the block.
type IdentityTopUp struct {
	IdentityID thor.Bytes32
	Amount     uint64
	Proof      thor.Bytes32 // id of the funding asset lock, makes the transition unique
}

func (t *IdentityTopUp) Type() Type             { return TypeIdentityTopUp }
func (t *IdentityTopUp) Identity() thor.Bytes32 { return t.IdentityID }

func (t *IdentityTopUp) ID() thor.Bytes32 {
	return hash(t.Type(), []any{t.IdentityID, t.Amount, t.Proof})
}

func (t *IdentityTopUp) Check() error {
	if t.Amount == 0 {
		return invalid("zero top-up amount")
	}
	return nil
}

// IdentityCreditWithdrawal removes credits of an identity from the platform.
// Its nonce is merged under IdentityNonceContract.
type IdentityCreditWithdrawal struct {
	IdentityID thor.Bytes32
	Amount     uint64
	Nonce      uint64
}

func (t *IdentityCreditWithdrawal) Type() Type             { return TypeIdentityCreditWithdrawal }
func (t *IdentityCreditWithdrawal) Identity() thor.Bytes32 { return t.IdentityID }

func (t *IdentityCreditWithdrawal) ID() thor.Bytes32 {
	return hash(t.Type(), []any{t.IdentityID, t.Amount, t.Nonce})
}

func (t *IdentityCreditWithdrawal) Check() error {
	if t.Amount == 0 {
		return invalid("zero withdrawal amount")
	}
	return nil
}
