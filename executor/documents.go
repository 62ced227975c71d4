// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package executor

import (
	"fmt"

	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/docstore"
	"github.com/vechain/docstate/document"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/transition"
	"github.com/vechain/docstate/uniqueness"
	"github.com/vechain/docstate/validation"
	"github.com/vechain/docstate/value"
)

// preservedFields keep their committed values when a document is replaced.
var preservedFields = []string{
	contract.FieldCreatorID,
	contract.FieldCreatedAt,
	contract.FieldCreatedAtBlockHeight,
	contract.FieldCreatedAtCoreBlockHeight,
	contract.FieldTransferredAt,
	contract.FieldTransferredAtBlockHeight,
	contract.FieldTransferredAtCoreBlockHeight,
}

type documentOp struct {
	action transition.Action
	dt     contract.DocumentType
	id     thor.Bytes32
	doc    *document.Document // the document after the transition, nil for delete
	old    *document.Document // the committed document, nil for create
}

func invalidAction(action transition.Action, dt contract.DocumentType) error {
	return &validation.InvalidTransitionError{
		Reason: fmt.Sprintf("%v not allowed for documents of %s", action, dt.Name()),
	}
}

// applyDocuments validates all document transitions of the batch, then writes them.
// It returns the records the batch replaced or deleted.
func (f *Flow) applyDocuments(b *transition.DocumentsBatch) ([]*docstore.Record, error) {
	pending := transition.NewPendingFilter()
	ops := make([]*documentOp, 0, len(b.Transitions))
	for _, t := range b.Transitions {
		if _, err := f.nonces.Merge(b.OwnerID, t.ContractID, t.Nonce); err != nil {
			return nil, err
		}
		op, err := f.prepare(b.OwnerID, t)
		if err != nil {
			return nil, err
		}
		if op.doc != nil {
			pending.Add(op.dt, op.doc)
		}
		ops = append(ops, op)
	}

	// siblings are not in storage yet, the pending filter stands in for them
	validator := uniqueness.New(f.docs, pending)
	results := make([]validation.Result, 0, len(ops))
	for _, op := range ops {
		if op.doc == nil {
			continue
		}
		update := uniqueness.NewDocument()
		if op.old != nil {
			update = uniqueness.ChangedDocument(changedFields(op.dt, op.old, op.doc)...)
		}
		r, err := validator.Validate(&uniqueness.Request{DocumentType: op.dt, Document: op.doc, Update: update})
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := validation.Merge(results...).Err(); err != nil {
		return nil, err
	}

	var refunded []*docstore.Record
	for _, op := range ops {
		old, err := f.write(op)
		if err != nil {
			return nil, err
		}
		if old != nil {
			refunded = append(refunded, old)
		}
	}
	return refunded, nil
}

// prepare builds the would-be document of a transition.
func (f *Flow) prepare(owner thor.Bytes32, t *transition.DocumentTransition) (*documentOp, error) {
	dt, err := f.docs.DocumentType(t.ContractID, t.DocumentType)
	if err != nil {
		return nil, err
	}
	op := &documentOp{action: t.Action, dt: dt, id: t.DocumentID(owner)}
	block := f.block.info()

	if t.Action == transition.ActionCreate {
		if op.doc, err = f.exec.factory.Create(dt, t.Input(owner), block); err != nil {
			return nil, err
		}
		return op, nil
	}

	rec, err := f.docs.Get(dt, op.id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, validation.NewStateConflict("document %v not found", op.id)
	}
	if rec.Document.OwnerID != owner {
		return nil, validation.NewStateConflict("document %v is not owned by %v", op.id, owner)
	}
	op.old = rec.Document

	switch t.Action {
	case transition.ActionReplace:
		if !dt.DocumentsMutable() {
			return nil, invalidAction(t.Action, dt)
		}
		if err := checkRevision(op.old, t.Revision); err != nil {
			return nil, err
		}
		doc, err := f.exec.factory.Build(dt, replaceInput(t, owner, op.old), block, false)
		if err != nil {
			return nil, err
		}
		document.StampUpdate(doc, dt, block)
		op.doc = doc
	case transition.ActionDelete:
		if !dt.DocumentsCanBeDeleted() {
			return nil, invalidAction(t.Action, dt)
		}
	case transition.ActionTransfer:
		if !dt.DocumentsTransferable() {
			return nil, invalidAction(t.Action, dt)
		}
		doc := op.old.Clone()
		if dt.RequiresRevision() {
			if err := checkRevision(op.old, t.Revision); err != nil {
				return nil, err
			}
			rev := t.Revision
			doc.Revision = &rev
		}
		document.StampTransfer(doc, dt, t.Recipient, block)
		document.StampUpdate(doc, dt, block)
		op.doc = doc
	}
	return op, nil
}

// checkRevision requires the revision to follow the committed one.
func checkRevision(old *document.Document, revision uint64) error {
	if old.Revision == nil {
		return &validation.MissingRequiredKeyError{Key: contract.FieldRevision}
	}
	if *old.Revision+1 != revision {
		return validation.NewStateConflict("document %v at revision %d can not move to revision %d",
			old.ID, *old.Revision, revision)
	}
	return nil
}

func replaceInput(t *transition.DocumentTransition, owner thor.Bytes32, old *document.Document) document.Input {
	in := t.Input(owner)
	props := make(map[string]value.Value, len(in.Properties)+len(preservedFields)+1)
	for name, v := range in.Properties {
		props[name] = v
	}
	for _, name := range preservedFields {
		if v, ok := old.Get(name); ok {
			props[name] = v
		} else {
			delete(props, name)
		}
	}
	props[contract.FieldRevision] = value.Int(int64(t.Revision))
	in.Properties = props
	return in
}

// changedFields returns the indexed fields whose values differ between old and doc.
func changedFields(dt contract.DocumentType, old, doc *document.Document) []string {
	var changed []string
	seen := make(map[string]struct{})
	for _, idx := range dt.Indexes() {
		for _, name := range idx.PropertyNames() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			a, okA := old.Get(name)
			b, okB := doc.Get(name)
			if okA != okB || (okA && !a.Equal(b)) {
				changed = append(changed, name)
			}
		}
	}
	return changed
}

// write stores the result of op. It returns the replaced or deleted record.
func (f *Flow) write(op *documentOp) (*docstore.Record, error) {
	if op.action == transition.ActionDelete {
		return f.docs.Delete(op.dt, op.id)
	}
	rec, err := f.newRecord(op.doc)
	if err != nil {
		return nil, err
	}
	if op.action == transition.ActionCreate {
		return nil, f.docs.Insert(op.dt, rec)
	}
	return f.docs.Replace(op.dt, rec)
}

// newRecord prices the storage of doc in the current epoch. Only the encoded document is priced.
func (f *Flow) newRecord(doc *document.Document) (*docstore.Record, error) {
	data, err := document.Encode(doc)
	if err != nil {
		return nil, err
	}
	fee, err := f.exec.opts.Calculator.Calculate(docstore.Usage{AddedBytes: uint64(len(data))}, thor.DefaultFeeMultiplierPermille)
	if err != nil {
		return nil, err
	}
	return &docstore.Record{
		Document:   doc,
		PaidEpoch:  f.epoch.Index,
		StorageFee: fee.StorageFee,
	}, nil
}
