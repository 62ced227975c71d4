// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package docstore

import (
	"bytes"
	"slices"
	"strings"

	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/document"
	"github.com/vechain/docstate/kv"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
	"github.com/vechain/docstate/value"
)

// Operator is the comparison of a where clause.
type Operator uint8

const (
	Equal = Operator(iota + 1)
	In
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	StartsWith
)

func (op Operator) isRange() bool {
	return op >= LessThan && op <= StartsWith
}

// Clause is a where clause. Equality with Null matches documents without the field.
// The Value of an In clause is the array of candidates.
type Clause struct {
	Field    string
	Operator Operator
	Value    value.Value
}

// OrderClause orders query results by a field.
type OrderClause struct {
	Field     string
	Ascending bool
}

// Query selects documents of one document type.
type Query struct {
	ContractID   thor.Bytes32
	DocumentType string
	Where        []Clause
	OrderBy      []OrderClause
	Limit        int // 0 means no limit
}

// Querier runs document queries.
type Querier interface {
	Query(q *Query) ([]*document.Document, error)
}

var _ Querier = (*Store)(nil)

// Query returns the documents matching all clauses of q, in the requested order, ties
// broken by id. Candidates come from the best matching index, or from a scan of the
// document type when no index serves the query.
func (s *Store) Query(q *Query) ([]*document.Document, error) {
	dt, err := s.DocumentType(q.ContractID, q.DocumentType)
	if err != nil {
		return nil, err
	}
	if err := checkQuery(dt, q); err != nil {
		return nil, err
	}

	prefixes, err := planIndexScan(dt, q)
	if err != nil {
		return nil, err
	}
	var docs []*document.Document
	if prefixes != nil {
		metricQueries().AddWithLabel(1, map[string]string{"plan": "index"})
		docs, err = s.indexScan(dt, prefixes)
	} else {
		metricQueries().AddWithLabel(1, map[string]string{"plan": "scan"})
		docs, err = s.fullScan(dt)
	}
	if err != nil {
		return nil, err
	}

	matched := docs[:0]
	for _, d := range docs {
		if Matches(dt, q.Where, d) {
			matched = append(matched, d)
		}
	}
	slices.SortStableFunc(matched, func(a, b *document.Document) int {
		for _, o := range q.OrderBy {
			if c := compareField(dt, o.Field, a, b); c != 0 {
				if !o.Ascending {
					return -c
				}
				return c
			}
		}
		return a.ID.Compare(b.ID)
	})
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func checkQuery(dt contract.DocumentType, q *Query) error {
	known := func(field string) error {
		if contract.IsSystemField(field) {
			return nil
		}
		if _, ok := dt.Property(field); !ok {
			return &validation.DocumentTypeFieldNotFoundError{DocumentType: dt.Name(), Field: field}
		}
		return nil
	}
	var in, rangeField string
	for _, c := range q.Where {
		if err := known(c.Field); err != nil {
			return err
		}
		switch {
		case c.Operator == Equal:
		case c.Operator == In:
			if in != "" {
				return &validation.FieldRequirementUnmetError{Field: c.Field, Reason: "only one in clause is allowed"}
			}
			if c.Value.Kind() != value.KindArray {
				return &validation.FieldRequirementUnmetError{Field: c.Field, Reason: "in clause needs an array"}
			}
			in = c.Field
		case c.Operator.isRange():
			if rangeField != "" && rangeField != c.Field {
				return &validation.FieldRequirementUnmetError{Field: c.Field, Reason: "range clauses must share one field"}
			}
			rangeField = c.Field
		default:
			return &validation.FieldRequirementUnmetError{Field: c.Field, Reason: "unknown operator"}
		}
	}
	for _, o := range q.OrderBy {
		if err := known(o.Field); err != nil {
			return err
		}
	}
	if q.Limit < 0 {
		return &validation.FieldRequirementUnmetError{Field: "limit", Reason: "negative limit"}
	}
	return nil
}

// planIndexScan returns the key prefixes to scan, nil for a full scan.
func planIndexScan(dt contract.DocumentType, q *Query) ([][]byte, error) {
	var (
		fields     []string
		inField    string
		inValues   []value.Value
		rangeField string
		equals     = make(map[string]value.Value)
	)
	for _, c := range q.Where {
		switch {
		case c.Operator == Equal:
			if _, dup := equals[c.Field]; !dup {
				equals[c.Field] = c.Value
				fields = append(fields, c.Field)
			}
		case c.Operator == In:
			inField = c.Field
			inValues, _ = c.Value.AsArray()
			fields = append(fields, c.Field)
		case c.Operator.isRange():
			rangeField = c.Field
		}
	}
	order := make([]string, 0, len(q.OrderBy)+1)
	for _, o := range q.OrderBy {
		order = append(order, o.Field)
	}
	if rangeField != "" && !slices.Contains(order, rangeField) {
		order = append(order, rangeField)
	}

	idx, _, ok := dt.IndexForTypes(fields, inField, order)
	if !ok {
		return nil, nil
	}
	prefixes := [][]byte{indexPrefix(typePrefix(dt.DataContractID(), dt.Name()), idx.Name)}
	for _, p := range idx.Properties {
		if v, ok := equals[p.Name]; ok {
			if v.IsNull() && idx.Unique {
				// null values are not indexed by unique indexes
				return nil, nil
			}
			seg, err := segment(dt, p, v, true)
			if err != nil {
				return nil, err
			}
			for i := range prefixes {
				prefixes[i] = append(prefixes[i], seg...)
			}
			continue
		}
		if p.Name != inField {
			break
		}
		var segs [][]byte
		for _, v := range inValues {
			if v.IsNull() && idx.Unique {
				return nil, nil
			}
			seg, err := segment(dt, p, v, true)
			if err != nil {
				return nil, err
			}
			if !slices.ContainsFunc(segs, func(b []byte) bool { return bytes.Equal(b, seg) }) {
				segs = append(segs, seg)
			}
		}
		expanded := make([][]byte, 0, len(prefixes)*len(segs))
		for _, prefix := range prefixes {
			for _, seg := range segs {
				expanded = append(expanded, append(bytes.Clone(prefix), seg...))
			}
		}
		prefixes = expanded
	}
	return prefixes, nil
}

func (s *Store) indexScan(dt contract.DocumentType, prefixes [][]byte) ([]*document.Document, error) {
	tp := typePrefix(dt.DataContractID(), dt.Name())
	seen := make(map[thor.Bytes32]bool)
	var docs []*document.Document
	for _, prefix := range prefixes {
		var ids []thor.Bytes32
		if err := s.st.Iterate(kv.PrefixRange(prefix), func(_, val []byte) bool {
			s.usage.Reads++
			ids = append(ids, thor.BytesToBytes32(val))
			return true
		}); err != nil {
			return nil, err
		}
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			data, err := s.get(documentKey(tp, id))
			if err != nil {
				return nil, err
			}
			if data == nil {
				return nil, &validation.CorruptedError{Reason: "index entry of missing document " + id.String()}
			}
			r, err := decodeRecord(data)
			if err != nil {
				return nil, err
			}
			docs = append(docs, r.Document)
		}
	}
	return docs, nil
}

func (s *Store) fullScan(dt contract.DocumentType) ([]*document.Document, error) {
	var (
		docs    []*document.Document
		scanErr error
	)
	prefix := documentsPrefix(typePrefix(dt.DataContractID(), dt.Name()))
	if err := s.st.Iterate(kv.PrefixRange(prefix), func(_, val []byte) bool {
		s.usage.Reads++
		s.usage.BytesRead += uint64(len(val))
		r, err := decodeRecord(val)
		if err != nil {
			scanErr = err
			return false
		}
		docs = append(docs, r.Document)
		return true
	}); err != nil {
		return nil, err
	}
	return docs, scanErr
}

// Matches reports whether d satisfies all clauses.
func Matches(dt contract.DocumentType, clauses []Clause, d *document.Document) bool {
	for _, c := range clauses {
		if !c.matches(dt, d) {
			return false
		}
	}
	return true
}

func (c *Clause) matches(dt contract.DocumentType, d *document.Document) bool {
	v, ok := d.Get(c.Field)
	switch c.Operator {
	case Equal:
		if c.Value.IsNull() {
			return !ok
		}
		return ok && compareValues(dt, c.Field, v, c.Value) == 0
	case In:
		items, _ := c.Value.AsArray()
		for _, item := range items {
			if item.IsNull() && !ok {
				return true
			}
			if ok && !item.IsNull() && compareValues(dt, c.Field, v, item) == 0 {
				return true
			}
		}
		return false
	}
	if !ok {
		return false
	}
	switch c.Operator {
	case LessThan:
		return compareValues(dt, c.Field, v, c.Value) < 0
	case LessThanOrEqual:
		return compareValues(dt, c.Field, v, c.Value) <= 0
	case GreaterThan:
		return compareValues(dt, c.Field, v, c.Value) > 0
	case GreaterThanOrEqual:
		return compareValues(dt, c.Field, v, c.Value) >= 0
	case StartsWith:
		text, err := v.AsText()
		prefix, perr := c.Value.AsText()
		return err == nil && perr == nil && strings.HasPrefix(text, prefix)
	}
	return false
}

// compareValues compares by index key encoding when both values have one, so values are
// compared the way the field's type defines. Otherwise the generic value order applies.
func compareValues(dt contract.DocumentType, field string, a, b value.Value) int {
	ka, errA := dt.SerializeValueForKey(field, a)
	kb, errB := dt.SerializeValueForKey(field, b)
	if errA == nil && errB == nil {
		return bytes.Compare(ka, kb)
	}
	return a.Compare(b)
}

// compareField orders absent values first.
func compareField(dt contract.DocumentType, field string, a, b *document.Document) int {
	va, okA := a.Get(field)
	vb, okB := b.Get(field)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return compareValues(dt, field, va, vb)
}
