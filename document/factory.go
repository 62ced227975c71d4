// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package document

import (
	"strings"

	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
	"github.com/vechain/docstate/value"
)

var knownStructureVersions = []uint32{0}

// BlockInfo is the block context documents are stamped with.
type BlockInfo struct {
	TimeMs     uint64
	Height     uint64
	CoreHeight uint32
}

// Input is the raw material of a document, as carried by a transition.
type Input struct {
	ID         *thor.Bytes32 // on create, must be nil or the id derived from Entropy
	Entropy    thor.Bytes32
	OwnerID    thor.Bytes32
	CreatorID  *thor.Bytes32
	Properties map[string]value.Value // may carry '$' system fields
}

// Factory builds documents from transition input.
type Factory struct {
	structureVersion uint32
}

// NewFactory creates a factory for the document structure version.
func NewFactory(structureVersion uint32) (*Factory, error) {
	for _, v := range knownStructureVersions {
		if v == structureVersion {
			return &Factory{structureVersion}, nil
		}
	}
	return nil, &validation.UnknownVersionMismatchError{
		Method:   "document.NewFactory",
		Known:    knownStructureVersions,
		Received: structureVersion,
	}
}

// stamp is a block context field. Update fields are also set when a document is modified.
type stamp struct {
	field  string
	update bool
}

var stamps = []stamp{
	{contract.FieldCreatedAt, false},
	{contract.FieldUpdatedAt, true},
	{contract.FieldTransferredAt, false},
	{contract.FieldCreatedAtBlockHeight, false},
	{contract.FieldUpdatedAtBlockHeight, true},
	{contract.FieldTransferredAtBlockHeight, false},
	{contract.FieldCreatedAtCoreBlockHeight, false},
	{contract.FieldUpdatedAtCoreBlockHeight, true},
	{contract.FieldTransferredAtCoreBlockHeight, false},
}

// Build makes a document of type dt.
//
// Required block context fields absent from the input are filled from block: all of them
// on create, the $updated* ones otherwise. Values present in the input are kept.
// On create the id is always derived from the entropy, in.CreatorID wins over a
// $creatorId property, and a mutable document starts at the initial revision.
func (f *Factory) Build(dt contract.DocumentType, in Input, block BlockInfo, create bool) (*Document, error) {
	d := &Document{
		OwnerID:    in.OwnerID,
		CreatorID:  in.CreatorID,
		Properties: make(map[string]value.Value, len(in.Properties)),
	}
	hasID := in.ID != nil
	if hasID {
		d.ID = *in.ID
	}
	for name, v := range in.Properties {
		if !strings.HasPrefix(name, "$") {
			d.Properties[name] = v
			continue
		}
		switch name {
		case contract.FieldID:
			id, err := v.AsIdentifier()
			if err != nil || (hasID && id != d.ID) {
				return nil, &validation.FieldRequirementUnmetError{Field: name, Reason: "invalid document id"}
			}
			d.ID, hasID = id, true
		case contract.FieldCreatorID:
			if in.CreatorID == nil {
				if err := d.setSystemField(name, v); err != nil {
					return nil, err
				}
				continue
			}
			id, err := v.AsIdentifier()
			if err != nil || id != *in.CreatorID {
				return nil, &validation.FieldRequirementUnmetError{Field: name, Reason: "creator mismatch"}
			}
		case contract.FieldOwnerID:
			id, err := v.AsIdentifier()
			if err != nil || id != d.OwnerID {
				return nil, &validation.FieldRequirementUnmetError{Field: name, Reason: "owner mismatch"}
			}
		default:
			if err := d.setSystemField(name, v); err != nil {
				if nf, ok := err.(*validation.DocumentTypeFieldNotFoundError); ok {
					nf.DocumentType = dt.Name()
				}
				return nil, err
			}
		}
	}

	if create {
		derived := NewID(dt.DataContractID(), in.OwnerID, dt.Name(), in.Entropy)
		if hasID && d.ID != derived {
			return nil, &validation.FieldRequirementUnmetError{Field: contract.FieldID, Reason: "id not derived from entropy"}
		}
		d.ID, hasID = derived, true
	}
	if !hasID {
		return nil, &validation.MissingRequiredKeyError{Key: contract.FieldID}
	}

	now := block.TimeMs
	for _, s := range stamps {
		if (!create && !s.update) || !dt.IsRequired(s.field) {
			continue
		}
		if _, ok := d.Get(s.field); ok {
			continue
		}
		switch {
		case strings.HasSuffix(s.field, "CoreBlockHeight"):
			h := block.CoreHeight
			*d.uint32Field(s.field) = &h
		case strings.HasSuffix(s.field, "BlockHeight"):
			h := block.Height
			*d.uint64Field(s.field) = &h
		default:
			t := now
			*d.uint64Field(s.field) = &t
		}
	}

	switch {
	case !dt.RequiresRevision():
		d.Revision = nil
	case create:
		rev := thor.InitialRevision
		d.Revision = &rev
	}

	if err := d.Validate(dt); err != nil {
		return nil, err
	}
	return d, nil
}

// Create is Build for create transitions.
func (f *Factory) Create(dt contract.DocumentType, in Input, block BlockInfo) (*Document, error) {
	return f.Build(dt, in, block, true)
}

// StampTransfer sets the required $transferred* fields of d from block, and its new owner.
func StampTransfer(d *Document, dt contract.DocumentType, newOwner thor.Bytes32, block BlockInfo) {
	d.OwnerID = newOwner
	if dt.IsRequired(contract.FieldTransferredAt) {
		t := block.TimeMs
		d.TransferredAt = &t
	}
	if dt.IsRequired(contract.FieldTransferredAtBlockHeight) {
		h := block.Height
		d.TransferredAtBlockHeight = &h
	}
	if dt.IsRequired(contract.FieldTransferredAtCoreBlockHeight) {
		h := block.CoreHeight
		d.TransferredAtCoreBlockHeight = &h
	}
}

// StampUpdate overwrites the required $updated* fields of d from block.
func StampUpdate(d *Document, dt contract.DocumentType, block BlockInfo) {
	if dt.IsRequired(contract.FieldUpdatedAt) {
		t := block.TimeMs
		d.UpdatedAt = &t
	}
	if dt.IsRequired(contract.FieldUpdatedAtBlockHeight) {
		h := block.Height
		d.UpdatedAtBlockHeight = &h
	}
	if dt.IsRequired(contract.FieldUpdatedAtCoreBlockHeight) {
		h := block.CoreHeight
		d.UpdatedAtCoreBlockHeight = &h
	}
}
