// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/document"
	"github.com/vechain/docstate/kv"
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
    properties:
      name: {type: string, maxLength: 63}
      age: {type: integer}
      city: {type: string, maxLength: 40}
    required: [name]
    indices:
      - name: ownerName
        properties: [{$ownerId: asc}, {name: asc}]
        unique: true
      - name: age
        properties: [{age: asc}]
      - name: cityAge
        properties: [{city: asc}, {age: desc}]
`

var (
	alice = thor.Blake2b([]byte("alice"))
	bob   = thor.Blake2b([]byte("bob"))
)

type fixture struct {
	db    *muxdb.MuxDB
	st    *state.State
	store *Store
	c     *contract.DataContract
	dt    contract.DocumentType
}

func newFixture(t *testing.T) *fixture {
	db := muxdb.NewMem()
	t.Cleanup(func() { db.Close() })
	st := state.New(db.NewStore("state"))
	contracts, err := NewContractCache(16)
	require.NoError(t, err)

	c, err := contract.Parse(contract.NewID(alice, thor.Blake2b([]byte("e"))), alice, []byte(testContract))
	require.NoError(t, err)
	s := New(st, contracts)
	require.NoError(t, s.PutContract(c))
	dt, err := s.DocumentType(c.ID, "profile")
	require.NoError(t, err)
	return &fixture{db, st, s, c, dt}
}

func newDoc(owner thor.Bytes32, seed string, props map[string]any) *document.Document {
	p, err := value.Properties(props)
	if err != nil {
		panic(err)
	}
	return &document.Document{ID: thor.Blake2b([]byte(seed)), OwnerID: owner, Properties: p}
}

func (f *fixture) insert(t *testing.T, d *document.Document) {
	require.NoError(t, f.store.Insert(f.dt, &Record{Document: d, PaidEpoch: 1, StorageFee: 100}))
}

func (f *fixture) indexKeys(t *testing.T, index string) int {
	n := 0
	prefix := indexPrefix(typePrefix(f.c.ID, "profile"), index)
	require.NoError(t, f.st.Iterate(kv.PrefixRange(prefix), func(_, _ []byte) bool {
		n++
		return true
	}))
	return n
}

func TestContractRegistry(t *testing.T) {
	f := newFixture(t)

	err := f.store.PutContract(f.c)
	kind, ok := validation.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, validation.StateConflict, kind)

	c, err := f.store.Contract(f.c.ID)
	require.NoError(t, err)
	assert.Equal(t, f.c.ID, c.ID)
	again, err := f.store.Contract(f.c.ID)
	require.NoError(t, err)
	assert.Same(t, c, again, "decoded once, then cached")

	missing, err := f.store.Contract(thor.Blake2b([]byte("nope")))
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = f.store.DocumentType(thor.Blake2b([]byte("nope")), "profile")
	assert.Error(t, err)
}

func TestContractCacheFollowsState(t *testing.T) {
	f := newFixture(t)
	id := contract.NewID(bob, thor.Blake2b([]byte("e")))

	first, err := contract.Parse(id, bob, []byte(testContract))
	require.NoError(t, err)
	checkpoint := f.st.NewCheckpoint()
	require.NoError(t, f.store.PutContract(first))
	_, err = f.store.DocumentType(id, "profile")
	require.NoError(t, err)
	f.st.RevertTo(checkpoint)

	missing, err := f.store.Contract(id)
	require.NoError(t, err)
	assert.Nil(t, missing)

	second, err := contract.Parse(id, bob, []byte(`
formatVersion: 1
documents:
  note:
    properties:
      text: {type: string, maxLength: 20}
`))
	require.NoError(t, err)
	require.NoError(t, f.store.PutContract(second))
	_, err = f.store.DocumentType(id, "note")
	assert.NoError(t, err)
	_, err = f.store.DocumentType(id, "profile")
	assert.Error(t, err)
}

func TestInsertGetDelete(t *testing.T) {
	f := newFixture(t)
	d := newDoc(alice, "d1", map[string]any{"name": "alice", "age": 30, "city": "Paris"})
	f.insert(t, d)

	r, err := f.store.Get(f.dt, d.ID)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, uint16(1), r.PaidEpoch)
	assert.Equal(t, uint64(100), r.StorageFee)
	assert.Equal(t, d.ID, r.Document.ID)
	assert.Equal(t, 1, f.indexKeys(t, "ownerName"))
	assert.Equal(t, 1, f.indexKeys(t, "age"))
	assert.Equal(t, 1, f.indexKeys(t, "cityAge"))

	err = f.store.Insert(f.dt, &Record{Document: d})
	assert.IsType(t, &validation.StateConflictError{}, err)

	usage := f.store.ResetUsage()
	assert.NotZero(t, usage.Reads)
	assert.Zero(t, f.store.Usage().Reads)

	old, err := f.store.Delete(f.dt, d.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), old.StorageFee)
	assert.NotZero(t, f.store.Usage().RemovedBytes)
	assert.Zero(t, f.indexKeys(t, "ownerName"))
	assert.Zero(t, f.indexKeys(t, "age"))

	r, err = f.store.Get(f.dt, d.ID)
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = f.store.Delete(f.dt, d.ID)
	assert.IsType(t, &validation.StateConflictError{}, err)
}

func TestUniqueIndexCollision(t *testing.T) {
	f := newFixture(t)
	f.insert(t, newDoc(alice, "d1", map[string]any{"name": "alice"}))

	err := f.store.Insert(f.dt, &Record{Document: newDoc(alice, "d2", map[string]any{"name": "alice"})})
	var dup *validation.DuplicateUniqueIndexError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "ownerName", dup.IndexName)

	// another owner may use the same name
	f.insert(t, newDoc(bob, "d3", map[string]any{"name": "alice"}))
}

func TestReplaceMovesIndexes(t *testing.T) {
	f := newFixture(t)
	d := newDoc(alice, "d1", map[string]any{"name": "alice", "age": 30})
	f.insert(t, d)

	updated := newDoc(alice, "d1", map[string]any{"name": "alicia", "age": 31})
	old, err := f.store.Replace(f.dt, &Record{Document: updated, PaidEpoch: 2, StorageFee: 50})
	require.NoError(t, err)
	assert.Equal(t, uint16(1), old.PaidEpoch)
	assert.Equal(t, 1, f.indexKeys(t, "ownerName"))
	assert.Equal(t, 1, f.indexKeys(t, "age"))

	docs, err := f.store.Query(&Query{
		ContractID:   f.c.ID,
		DocumentType: "profile",
		Where:        []Clause{{Field: "age", Operator: Equal, Value: value.Int(30)}},
	})
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = f.store.Replace(f.dt, &Record{Document: newDoc(alice, "missing", map[string]any{"name": "x"})})
	assert.IsType(t, &validation.StateConflictError{}, err)
}

func TestRevertDiscardsDocument(t *testing.T) {
	f := newFixture(t)
	cp := f.st.NewCheckpoint()
	d := newDoc(alice, "d1", map[string]any{"name": "alice"})
	f.insert(t, d)
	f.st.RevertTo(cp)

	r, err := f.store.Get(f.dt, d.ID)
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Zero(t, f.indexKeys(t, "ownerName"))
}

func TestCommitPersists(t *testing.T) {
	f := newFixture(t)
	d := newDoc(alice, "d1", map[string]any{"name": "alice"})
	f.insert(t, d)
	require.NoError(t, f.st.Stage().Commit())

	fresh := New(state.New(f.db.NewStore("state")), nil)
	dt, err := fresh.DocumentType(f.c.ID, "profile")
	require.NoError(t, err)
	r, err := fresh.Get(dt, d.ID)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, value.Text("alice").Equal(r.Document.Properties["name"]))
}
