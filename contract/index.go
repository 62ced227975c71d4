// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contract

import (
	"regexp"
	"slices"
)

// IndexProperty is one ordered component of an index.
type IndexProperty struct {
	Name      string
	Ascending bool
}

// ContestedFieldMatch makes documents whose field matches the pattern contestable.
type ContestedFieldMatch struct {
	Field   string
	Pattern *regexp.Regexp
}

// ContestedIndex describes when a unique index conflict goes to a vote instead of a rejection.
type ContestedIndex struct {
	FieldMatches []ContestedFieldMatch
	Resolution   uint8
	Description  string
}

// Index is a declared index of a document type.
type Index struct {
	Name       string
	Properties []IndexProperty
	Unique     bool
	Contested  *ContestedIndex
}

// PropertyNames returns the property names in index order.
func (idx *Index) PropertyNames() []string {
	names := make([]string, 0, len(idx.Properties))
	for _, p := range idx.Properties {
		names = append(names, p.Name)
	}
	return names
}

// Matches tells whether the index can serve a query.
//
// fields are the names constrained by the query, inField the one constrained by an
// "in" clause (empty if none), orderBy the names of the order clauses.
// The order by names must form the tail of the index, and the constrained fields must
// be a prefix of what remains, all of it when an order is requested. The returned penalty counts the index properties left
// unconstrained, 0 being a perfect match.
func (idx *Index) Matches(fields []string, inField string, orderBy []string) (uint16, bool) {
	remaining := idx.Properties
	if len(orderBy) > len(remaining) {
		return 0, false
	}
	for i := len(orderBy) - 1; i >= 0; i-- {
		last := remaining[len(remaining)-1]
		if last.Name != orderBy[i] {
			return 0, false
		}
		remaining = remaining[:len(remaining)-1]
	}

	// fields constrained by equality may also be ordered on
	var constrained []string
	for _, f := range fields {
		if !slices.Contains(orderBy, f) && !slices.Contains(constrained, f) {
			constrained = append(constrained, f)
		}
	}
	if len(constrained) > len(remaining) {
		return 0, false
	}
	// ordered properties must directly follow the constrained ones
	if len(orderBy) > 0 && len(constrained) != len(remaining) {
		return 0, false
	}
	prefix := remaining[:len(constrained)]
	for _, p := range prefix {
		if !slices.Contains(constrained, p.Name) {
			return 0, false
		}
	}

	if inField != "" && !slices.Contains(orderBy, inField) {
		pos := slices.IndexFunc(prefix, func(p IndexProperty) bool { return p.Name == inField })
		// the in field must be the last or before last constrained property
		if pos < 0 || pos < len(prefix)-2 {
			return 0, false
		}
	}
	return uint16(len(remaining) - len(constrained)), true
}

// IsContestable returns whether values of the document data make a conflict on the index contestable.
func (idx *Index) IsContestable(get func(field string) (string, bool)) bool {
	if idx.Contested == nil {
		return false
	}
	for _, m := range idx.Contested.FieldMatches {
		v, ok := get(m.Field)
		if !ok || !m.Pattern.MatchString(v) {
			return false
		}
	}
	return true
}
