// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package uniqueness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/docstore"
	"github.com/vechain/docstate/document"
	"github.com/vechain/docstate/muxdb"
	"github.com/vechain/docstate/state"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
	"github.com/vechain/docstate/value"
)

const testContract = `
formatVersion: 1
documents:
  profile:
    documentsMutable: true
    properties:
      name: {type: string, maxLength: 63}
      email: {type: string, maxLength: 63}
      age: {type: integer}
    indices:
      - name: byName
        properties: [{$ownerId: asc}, {name: asc}]
        unique: true
        contested:
          fieldMatches:
            - field: name
              regexPattern: "^[a-z]+$"
      - name: byEmail
        properties: [{email: asc}]
        unique: true
      - name: byAge
        properties: [{age: asc}]
`

var (
	alice = thor.Blake2b([]byte("alice"))
	bob   = thor.Blake2b([]byte("bob"))
)

type pendingFunc func(exclude, contractID thor.Bytes32, typeName string, clauses []docstore.Clause) (bool, error)

func (f pendingFunc) MatchesPending(exclude, contractID thor.Bytes32, typeName string, clauses []docstore.Clause) (bool, error) {
	return f(exclude, contractID, typeName, clauses)
}

func setup(t *testing.T) (*docstore.Store, contract.DocumentType) {
	db := muxdb.NewMem()
	t.Cleanup(func() { db.Close() })
	store := docstore.New(state.New(db.NewStore("state")), nil)
	c, err := contract.Parse(thor.Blake2b([]byte("contract")), alice, []byte(testContract))
	require.NoError(t, err)
	require.NoError(t, store.PutContract(c))
	dt, err := c.DocumentType("profile")
	require.NoError(t, err)
	return store, dt
}

func newDoc(owner thor.Bytes32, seed string, props map[string]any) *document.Document {
	rev := uint64(1)
	p, err := value.Properties(props)
	if err != nil {
		panic(err)
	}
	return &document.Document{ID: thor.Blake2b([]byte(seed)), OwnerID: owner, Properties: p, Revision: &rev}
}

func duplicates(t *testing.T, r validation.Result) []string {
	var names []string
	for _, err := range r.Errors() {
		dup, ok := err.(*validation.DuplicateUniqueIndexError)
		require.True(t, ok, "%v", err)
		names = append(names, dup.IndexName)
	}
	return names
}

func TestNewDocument(t *testing.T) {
	store, dt := setup(t)
	existing := newDoc(alice, "d1", map[string]any{"name": "alice", "email": "a@x.io", "age": 30})
	require.NoError(t, store.Insert(dt, &docstore.Record{Document: existing}))
	v := New(store, nil)

	tests := []struct {
		name  string
		doc   *document.Document
		wants []string
	}{
		{"no collision", newDoc(alice, "d2", map[string]any{"name": "bob", "email": "b@x.io", "age": 30}), nil},
		{"same name other owner", newDoc(bob, "d2", map[string]any{"name": "alice"}), nil},
		{"name collision", newDoc(alice, "d2", map[string]any{"name": "alice"}), []string{"byName"}},
		{"both collide", newDoc(alice, "d2", map[string]any{"name": "alice", "email": "a@x.io"}), []string{"byName", "byEmail"}},
		{"null email skipped", newDoc(alice, "d2", map[string]any{"name": "carl", "email": nil}), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := v.Validate(&Request{DocumentType: dt, Document: tt.doc, Update: NewDocument()})
			require.NoError(t, err)
			assert.Equal(t, tt.wants, duplicates(t, r))
			assert.Equal(t, tt.wants == nil, r.IsValid())
		})
	}
}

func TestContestable(t *testing.T) {
	store, dt := setup(t)
	require.NoError(t, store.Insert(dt, &docstore.Record{Document: newDoc(alice, "d1", map[string]any{"name": "alice"})}))
	require.NoError(t, store.Insert(dt, &docstore.Record{Document: newDoc(alice, "d2", map[string]any{"name": "Alice-1"})}))
	v := New(store, nil)

	r, err := v.Validate(&Request{DocumentType: dt, Document: newDoc(alice, "d3", map[string]any{"name": "alice"}), Update: NewDocument()})
	require.NoError(t, err)
	dup := r.First().(*validation.DuplicateUniqueIndexError)
	assert.True(t, dup.Contestable)

	r, err = v.Validate(&Request{DocumentType: dt, Document: newDoc(alice, "d4", map[string]any{"name": "Alice-1"}), Update: NewDocument()})
	require.NoError(t, err)
	dup = r.First().(*validation.DuplicateUniqueIndexError)
	assert.False(t, dup.Contestable)
	assert.Equal(t, validation.StateConflict, dup.Kind())
}

func TestChangedDocumentIdempotent(t *testing.T) {
	store, dt := setup(t)
	d := newDoc(alice, "d1", map[string]any{"name": "alice", "email": "a@x.io", "age": 30})
	require.NoError(t, store.Insert(dt, &docstore.Record{Document: d}))
	require.NoError(t, store.Insert(dt, &docstore.Record{Document: newDoc(alice, "d2", map[string]any{"name": "bob"})}))
	v := New(store, nil)

	// unchanged resubmission matches only itself
	for range 3 {
		r, err := v.Validate(&Request{DocumentType: dt, Document: d, Update: ChangedDocument()})
		require.NoError(t, err)
		assert.True(t, r.IsValid())
	}

	// a non indexed change
	changed := newDoc(alice, "d1", map[string]any{"name": "alice", "email": "a@x.io", "age": 31})
	r, err := v.Validate(&Request{DocumentType: dt, Document: changed, Update: ChangedDocument("age")})
	require.NoError(t, err)
	assert.True(t, r.IsValid())

	// renaming onto another document
	renamed := newDoc(alice, "d1", map[string]any{"name": "bob", "email": "a@x.io"})
	r, err = v.Validate(&Request{DocumentType: dt, Document: renamed, Update: ChangedDocument("name")})
	require.NoError(t, err)
	assert.Equal(t, []string{"byName"}, duplicates(t, r))

	// an indexed field marked changed no longer matches its own row
	r, err = v.Validate(&Request{DocumentType: dt, Document: d, Update: ChangedDocument("email")})
	require.NoError(t, err)
	assert.Equal(t, []string{"byEmail"}, duplicates(t, r))
}

func TestBatchFilter(t *testing.T) {
	store, dt := setup(t)
	var calls int
	batch := pendingFunc(func(exclude, contractID thor.Bytes32, typeName string, clauses []docstore.Clause) (bool, error) {
		calls++
		assert.Equal(t, dt.DataContractID(), contractID)
		assert.Equal(t, "profile", typeName)
		for _, c := range clauses {
			if c.Field == "email" && c.Value.Equal(value.Text("pending@x.io")) {
				return exclude != thor.Blake2b([]byte("p1")), nil
			}
		}
		return false, nil
	})
	v := New(store, batch)

	r, err := v.Validate(&Request{DocumentType: dt, Document: newDoc(alice, "d1", map[string]any{"email": "pending@x.io"}), Update: NewDocument()})
	require.NoError(t, err)
	assert.Equal(t, []string{"byEmail"}, duplicates(t, r))

	r, err = v.Validate(&Request{DocumentType: dt, Document: newDoc(alice, "p1", map[string]any{"email": "pending@x.io"}), Update: NewDocument()})
	require.NoError(t, err)
	assert.True(t, r.IsValid())
	assert.Equal(t, 2, calls, "byName skipped without a name")
}
