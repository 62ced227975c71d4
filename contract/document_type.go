// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contract

import (
	"slices"

	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/value"
)

// DocumentType is the schema of one document type of a data contract.
// Implementations are selected by the contract format version when the contract is parsed.
type DocumentType interface {
	Name() string
	DataContractID() thor.Bytes32
	FormatVersion() uint32

	// Properties returns the top-level property definitions in declared order.
	Properties() []*Property
	// Property returns the definition of a property by dotted path.
	Property(path string) (*Property, bool)
	Indexes() []*Index
	Index(name string) (*Index, bool)
	// RequiredFields returns the sorted required field names, system fields included.
	RequiredFields() []string
	IsRequired(field string) bool

	DocumentsMutable() bool
	RequiresRevision() bool
	DocumentsTransferable() bool
	DocumentsCanBeDeleted() bool

	// SerializeValueForKey encodes the value of field into an index key component.
	SerializeValueForKey(field string, v value.Value) ([]byte, error)
	// DeserializeValueForKey is the inverse of SerializeValueForKey.
	DeserializeValueForKey(field string, b []byte) (value.Value, error)
	// IndexForTypes returns the declared index that best serves a query, and its penalty.
	IndexForTypes(fields []string, inField string, orderBy []string) (*Index, uint16, bool)
}

// base holds what all document type versions share.
type base struct {
	name       string
	contractID thor.Bytes32
	properties []*Property
	flattened  map[string]*Property
	indexes    []*Index
	required   map[string]struct{}
	mutable    bool
}

func (t *base) Name() string                 { return t.name }
func (t *base) DataContractID() thor.Bytes32 { return t.contractID }
func (t *base) Properties() []*Property      { return t.properties }
func (t *base) Indexes() []*Index            { return t.indexes }
func (t *base) DocumentsMutable() bool       { return t.mutable }
func (t *base) RequiresRevision() bool       { return t.mutable }

func (t *base) Property(path string) (*Property, bool) {
	p, ok := t.flattened[path]
	return p, ok
}

func (t *base) Index(name string) (*Index, bool) {
	for _, idx := range t.indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return nil, false
}

func (t *base) RequiredFields() []string {
	fields := make([]string, 0, len(t.required))
	for f := range t.required {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

func (t *base) IsRequired(field string) bool {
	_, ok := t.required[field]
	return ok
}

// IndexForTypes scans indexes in declared order. A zero penalty match wins immediately,
// otherwise the first match with the lowest penalty.
func (t *base) IndexForTypes(fields []string, inField string, orderBy []string) (*Index, uint16, bool) {
	var (
		best        *Index
		bestPenalty uint16
	)
	for _, idx := range t.indexes {
		penalty, ok := idx.Matches(fields, inField, orderBy)
		if !ok {
			continue
		}
		if penalty == 0 {
			return idx, 0, true
		}
		if best == nil || penalty < bestPenalty {
			best, bestPenalty = idx, penalty
		}
	}
	return best, bestPenalty, best != nil
}

func (t *base) init() {
	t.flattened = make(map[string]*Property)
	for _, p := range t.properties {
		p.flatten(func(p *Property) {
			t.flattened[p.Name] = p
			if p.Required {
				t.required[p.Name] = struct{}{}
			}
		})
	}
}

// DocumentTypeV0 is the document type of contract format version 0.
// Documents can always be deleted and never be transferred.
type DocumentTypeV0 struct {
	base
}

func (t *DocumentTypeV0) FormatVersion() uint32       { return 0 }
func (t *DocumentTypeV0) DocumentsTransferable() bool { return false }
func (t *DocumentTypeV0) DocumentsCanBeDeleted() bool { return true }

// DocumentTypeV1 is the document type of contract format version 1.
// It adds transfer and deletion settings.
type DocumentTypeV1 struct {
	base
	transferable bool
	canBeDeleted bool
}

func (t *DocumentTypeV1) FormatVersion() uint32       { return 1 }
func (t *DocumentTypeV1) DocumentsTransferable() bool { return t.transferable }
func (t *DocumentTypeV1) DocumentsCanBeDeleted() bool { return t.canBeDeleted }

var (
	_ DocumentType = (*DocumentTypeV0)(nil)
	_ DocumentType = (*DocumentTypeV1)(nil)
)
