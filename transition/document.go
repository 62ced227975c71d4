// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transition

import (
	"fmt"

	"github.com/vechain/docstate/document"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/value"
)

// Action is what a document transition does to its document.
type Action uint8

const (
	ActionCreate = Action(iota + 1)
	ActionReplace
	ActionDelete
	ActionTransfer
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionReplace:
		return "replace"
	case ActionDelete:
		return "delete"
	case ActionTransfer:
		return "transfer"
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// DocumentTransition is one document operation of a batch.
type DocumentTransition struct {
	Action       Action
	ContractID   thor.Bytes32
	DocumentType string
	Nonce        uint64 // identity contract nonce

	// ID is the target document. On create the id is derived from Entropy, ID may only
	// be zero or that derived id.
	ID      thor.Bytes32
	Entropy thor.Bytes32

	// Revision is the revision the document has after a replace or a transfer.
	Revision uint64

	Properties map[string]value.Value // create and replace
	Recipient  thor.Bytes32           // transfer
}

type documentTransitionBody struct {
	Action       Action
	ContractID   thor.Bytes32
	DocumentType string
	Nonce        uint64
	ID           thor.Bytes32
	Entropy      thor.Bytes32
	Revision     uint64
	Properties   value.Value
	Recipient    thor.Bytes32
}

func (t *DocumentTransition) body() *documentTransitionBody {
	return &documentTransitionBody{
		Action:       t.Action,
		ContractID:   t.ContractID,
		DocumentType: t.DocumentType,
		Nonce:        t.Nonce,
		ID:           t.ID,
		Entropy:      t.Entropy,
		Revision:     t.Revision,
		Properties:   value.Map(t.Properties),
		Recipient:    t.Recipient,
	}
}

// DocumentID returns the id of the target document.
func (t *DocumentTransition) DocumentID(owner thor.Bytes32) thor.Bytes32 {
	if t.Action == ActionCreate {
		return document.NewID(t.ContractID, owner, t.DocumentType, t.Entropy)
	}
	return t.ID
}

// Input returns the document factory input of a create or replace.
func (t *DocumentTransition) Input(owner thor.Bytes32) document.Input {
	in := document.Input{
		Entropy:    t.Entropy,
		OwnerID:    owner,
		Properties: t.Properties,
	}
	if id := t.DocumentID(owner); !id.IsZero() {
		in.ID = &id
	}
	if t.Action == ActionCreate {
		creator := owner
		in.CreatorID = &creator
	}
	return in
}

func (t *DocumentTransition) check(owner thor.Bytes32) error {
	if t.DocumentType == "" {
		return invalid("%v transition without document type", t.Action)
	}
	switch t.Action {
	case ActionCreate:
		if t.Revision != 0 {
			return invalid("create transition with revision %d", t.Revision)
		}
		if !t.ID.IsZero() && t.ID != t.DocumentID(owner) {
			return invalid("create transition with id %v not derived from entropy", t.ID)
		}
		return nil
	case ActionReplace, ActionTransfer:
		if t.Revision <= thor.InitialRevision {
			return invalid("%v transition with revision %d", t.Action, t.Revision)
		}
	case ActionDelete:
		if len(t.Properties) > 0 {
			return invalid("delete transition with properties")
		}
	default:
		return invalid("unknown document action %d", uint8(t.Action))
	}
	if t.ID.IsZero() {
		return invalid("%v transition without document id", t.Action)
	}
	if t.Action == ActionTransfer {
		if len(t.Properties) > 0 {
			return invalid("transfer transition with properties")
		}
		if t.Recipient.IsZero() || t.Recipient == owner {
			return invalid("transfer to invalid recipient %v", t.Recipient)
		}
	}
	return nil
}
