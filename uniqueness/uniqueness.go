// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package uniqueness checks documents against the unique indexes of their type,
// in committed storage and among the pending transitions of the same block.
package uniqueness

import (
	"slices"

	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/docstore"
	"github.com/vechain/docstate/document"
	"github.com/vechain/docstate/log"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
)

var logger = log.WithContext("pkg", "uniqueness")

// UpdateType tells whether a request is about a new document or a changed one.
type UpdateType struct {
	changed  []string
	isChange bool
}

// NewDocument is the update type of created documents.
func NewDocument() UpdateType {
	return UpdateType{}
}

// ChangedDocument is the update type of modified documents. fields are the
// names whose values differ from the committed document.
func ChangedDocument(fields ...string) UpdateType {
	return UpdateType{changed: fields, isChange: true}
}

// IsChange returns whether the request is about a modified document.
func (u UpdateType) IsChange() bool {
	return u.isChange
}

// Changed returns whether field differs from the committed document.
func (u UpdateType) Changed(field string) bool {
	return slices.Contains(u.changed, field)
}

// Request describes the would-be index values of one document.
type Request struct {
	DocumentType contract.DocumentType
	Document     *document.Document
	Update       UpdateType
}

// BatchFilter matches the pending transitions of a block.
type BatchFilter interface {
	// MatchesPending reports whether a pending transition creating or replacing a document
	// other than exclude matches all clauses.
	MatchesPending(exclude thor.Bytes32, contractID thor.Bytes32, typeName string, clauses []docstore.Clause) (bool, error)
}

// Validator checks unique indexes.
type Validator struct {
	querier docstore.Querier
	batch   BatchFilter
}

// New creates a validator. batch may be nil when there are no pending transitions to consult.
func New(querier docstore.Querier, batch BatchFilter) *Validator {
	return &Validator{querier: querier, batch: batch}
}

// Validate checks every unique index of the document type. All violations are reported.
// The error return is for storage failures.
func (v *Validator) Validate(req *Request) (validation.Result, error) {
	var results []validation.Result
	for _, idx := range req.DocumentType.Indexes() {
		if !idx.Unique {
			continue
		}
		r, err := v.validateIndex(req, idx)
		if err != nil {
			return validation.Result{}, err
		}
		results = append(results, r)
	}
	return validation.Merge(results...), nil
}

func (v *Validator) validateIndex(req *Request, idx *contract.Index) (validation.Result, error) {
	doc := req.Document
	allowOriginal := true
	clauses := make([]docstore.Clause, 0, len(idx.Properties))
	for _, p := range idx.Properties {
		if req.Update.IsChange() && req.Update.Changed(p.Name) {
			allowOriginal = false
		}
		val, ok := doc.Get(p.Name)
		if !ok {
			// a null value cannot collide
			return validation.Result{}, nil
		}
		clauses = append(clauses, docstore.Clause{Field: p.Name, Operator: docstore.Equal, Value: val})
	}
	if len(clauses) < len(idx.Properties) {
		return validation.Result{}, nil
	}

	contractID := req.DocumentType.DataContractID()
	docs, err := v.querier.Query(&docstore.Query{
		ContractID:   contractID,
		DocumentType: req.DocumentType.Name(),
		Where:        clauses,
		Limit:        1,
	})
	if err != nil {
		return validation.Result{}, err
	}
	unique := len(docs) == 0 || (len(docs) == 1 && docs[0].ID == doc.ID && allowOriginal)
	if unique && v.batch != nil {
		pending, err := v.batch.MatchesPending(doc.ID, contractID, req.DocumentType.Name(), clauses)
		if err != nil {
			return validation.Result{}, err
		}
		unique = !pending
	}
	if unique {
		return validation.Result{}, nil
	}

	metricViolations().Add(1)
	logger.Debug("unique index violated", "type", req.DocumentType.Name(), "index", idx.Name, "id", doc.ID)
	return validation.NewResult(&validation.DuplicateUniqueIndexError{
		DocumentID:  doc.ID,
		IndexName:   idx.Name,
		Fields:      idx.PropertyNames(),
		Contestable: idx.IsContestable(textOf(doc)),
	}), nil
}

func textOf(d *document.Document) func(string) (string, bool) {
	return func(field string) (string, bool) {
		v, ok := d.Get(field)
		if !ok {
			return "", false
		}
		s, err := v.AsText()
		return s, err == nil
	}
}
