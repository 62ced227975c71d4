// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transition

import (
	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/docstore"
	"github.com/vechain/docstate/document"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/uniqueness"
)

type pendingDocument struct {
	dt  contract.DocumentType
	doc *document.Document
}

// PendingFilter holds the documents of create and replace transitions that are
// validated but not yet applied.
type PendingFilter struct {
	docs []pendingDocument
}

var _ uniqueness.BatchFilter = (*PendingFilter)(nil)

// NewPendingFilter creates an empty filter.
func NewPendingFilter() *PendingFilter {
	return &PendingFilter{}
}

// Add records the would-be document of a pending transition.
func (f *PendingFilter) Add(dt contract.DocumentType, doc *document.Document) {
	f.docs = append(f.docs, pendingDocument{dt, doc})
}

// Len returns the count of pending documents.
func (f *PendingFilter) Len() int {
	return len(f.docs)
}

// Reset drops all pending documents.
func (f *PendingFilter) Reset() {
	f.docs = f.docs[:0]
}

// MatchesPending reports whether a pending document other than exclude, of the given
// contract and type, matches all clauses.
func (f *PendingFilter) MatchesPending(exclude, contractID thor.Bytes32, typeName string, clauses []docstore.Clause) (bool, error) {
	for _, p := range f.docs {
		if p.doc.ID == exclude || p.dt.DataContractID() != contractID || p.dt.Name() != typeName {
			continue
		}
		if docstore.Matches(p.dt, clauses, p.doc) {
			return true, nil
		}
	}
	return false, nil
}
