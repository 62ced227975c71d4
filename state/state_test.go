// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/docstate/kv"
	"github.com/vechain/docstate/muxdb"
)

func newStore(t *testing.T) kv.Store {
	db := muxdb.NewMem()
	t.Cleanup(func() { db.Close() })
	return db.NewStore("state")
}

func TestReadYourWrites(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Put([]byte("a"), []byte("committed")))

	st := New(store)
	v, err := st.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("committed"), v)

	st.Put([]byte("a"), []byte("pending"))
	v, err = st.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pending"), v)

	st.Delete([]byte("a"))
	has, err := st.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has)

	v, err = st.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)

	// nothing reaches the store before commit
	v, err = store.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("committed"), v)
}

func TestCheckpoint(t *testing.T) {
	st := New(newStore(t))
	st.Put([]byte("a"), []byte("1"))

	cp := st.NewCheckpoint()
	st.Put([]byte("a"), []byte("2"))
	st.Put([]byte("b"), []byte("2"))
	st.RevertTo(cp)

	v, _ := st.Get([]byte("a"))
	assert.Equal(t, []byte("1"), v)
	has, _ := st.Has([]byte("b"))
	assert.False(t, has)

	st.RevertTo(0)
	has, _ = st.Has([]byte("a"))
	assert.False(t, has)
	// still writable after reverting everything
	st.Put([]byte("c"), []byte("3"))
	has, _ = st.Has([]byte("c"))
	assert.True(t, has)

	assert.Panics(t, func() { st.RevertTo(10) })
}

func TestIterateMergesOverlay(t *testing.T) {
	store := newStore(t)
	for _, k := range []string{"k1", "k3", "k5", "x"} {
		require.NoError(t, store.Put([]byte(k), []byte("s"+k)))
	}

	st := New(store)
	st.Put([]byte("k2"), []byte("o2"))
	st.Put([]byte("k3"), []byte("o3"))
	st.Delete([]byte("k5"))
	st.Put([]byte("k6"), []byte("o6"))
	st.Put([]byte("y"), []byte("out of range"))

	type kvp struct{ k, v string }
	var got []kvp
	require.NoError(t, st.Iterate(kv.PrefixRange([]byte("k")), func(k, v []byte) bool {
		got = append(got, kvp{string(k), string(v)})
		return true
	}))
	assert.Equal(t, []kvp{{"k1", "sk1"}, {"k2", "o2"}, {"k3", "o3"}, {"k6", "o6"}}, got)

	got = nil
	require.NoError(t, st.Iterate(kv.PrefixRange([]byte("k")), func(k, v []byte) bool {
		got = append(got, kvp{string(k), string(v)})
		return len(got) < 2
	}))
	assert.Len(t, got, 2)
}

func TestStageCommit(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Put([]byte("gone"), []byte("x")))

	st := New(store)
	st.Put([]byte("a"), []byte("1"))
	st.Put([]byte("a"), []byte("2"))
	st.Delete([]byte("gone"))

	stage := st.Stage()
	assert.Equal(t, 2, stage.Len())
	require.NoError(t, stage.Commit())

	v, err := store.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
	has, err := store.Has([]byte("gone"))
	require.NoError(t, err)
	assert.False(t, has)
}
