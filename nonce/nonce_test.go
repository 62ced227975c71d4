// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nonce

import (
	"math/rand"
	"slices"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/docstate/muxdb"
	"github.com/vechain/docstate/state"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
)

func reasonOf(err error) Reason {
	if me, ok := err.(*MergeError); ok {
		return me.Reason
	}
	return 0
}

func TestMergeSequence(t *testing.T) {
	steps := []struct {
		nonce   uint64
		reason  Reason
		tip     uint64
		missing []uint64
	}{
		{10, 0, 10, []uint64{9, 8, 7, 6, 5, 4, 3, 2, 1}},
		{9, 0, 10, []uint64{8, 7, 6, 5, 4, 3, 2, 1}},
		{8, 0, 10, []uint64{7, 6, 5, 4, 3, 2, 1}},
		{3, 0, 10, []uint64{7, 6, 5, 4, 2, 1}},
		{12, 0, 12, []uint64{11, 7, 6, 5, 4, 2, 1}},
		{11, 0, 12, []uint64{7, 6, 5, 4, 2, 1}},
		{11, AlreadyPresentInPast, 12, []uint64{7, 6, 5, 4, 2, 1}},
		{12, AlreadyPresentAtTip, 12, []uint64{7, 6, 5, 4, 2, 1}},
		{0, InvalidNonce, 12, []uint64{7, 6, 5, 4, 2, 1}},
		{37, TooFarInFuture, 12, []uint64{7, 6, 5, 4, 2, 1}},
		{36, 0, 36, []uint64{35, 34, 33, 32, 31, 30, 29, 28, 27, 26, 25, 24, 23, 22, 21, 20, 19, 18, 17, 16, 15, 14, 13}},
		{13, 0, 36, []uint64{35, 34, 33, 32, 31, 30, 29, 28, 27, 26, 25, 24, 23, 22, 21, 20, 19, 18, 17, 16, 15, 14}},
		{12, TooFarInPast, 36, nil},
		{8, TooFarInPast, 36, nil},
	}

	var (
		stored uint64
		exists bool
	)
	for i, step := range steps {
		before := stored
		merged, err := Merge(stored, exists, step.nonce)
		assert.Equal(t, step.reason, reasonOf(err), "step %d nonce %d", i, step.nonce)
		if err != nil {
			assert.Equal(t, before, merged, "step %d must not mutate", i)
			continue
		}
		stored, exists = merged, true
		assert.Equal(t, step.tip, Tip(stored), "step %d", i)
		assert.Equal(t, step.missing, Missing(stored), "step %d", i)
	}
}

func TestMergeError(t *testing.T) {
	_, err := Merge(0, false, 1<<thor.IdentityNonceValueBits|5)
	assert.Equal(t, InvalidNonce, reasonOf(err))
	kind, ok := validation.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, validation.Structural, kind)

	_, err = Merge(0, false, 24)
	assert.Equal(t, TooFarInFuture, reasonOf(err))
	kind, _ = validation.KindOf(err)
	assert.Equal(t, validation.StateConflict, kind)

	stored, err := Merge(0, false, 23)
	require.NoError(t, err)
	assert.Len(t, Missing(stored), 22)

	stored, err = Merge(0, false, 1)
	require.NoError(t, err)
	_, err = Merge(stored, true, 1)
	assert.Equal(t, AlreadyPresentAtTip, reasonOf(err))

	stored, err = Merge(stored, true, 3)
	require.NoError(t, err)
	_, err = Merge(stored, true, 1)
	assert.EqualError(t, err, "nonce 1 already present in past at position 2")
}

func TestMergeOrderIndependent(t *testing.T) {
	f := fuzz.New().NilChance(0)
	r := rand.New(rand.NewSource(1))

	for range 100 {
		var pick uint32
		f.Fuzz(&pick)
		var nonces []uint64
		for n := uint64(1); n < thor.MaxMissingIdentityRevisions; n++ {
			if pick&(1<<n) != 0 {
				nonces = append(nonces, n)
			}
		}
		if len(nonces) == 0 {
			continue
		}
		top := slices.Max(nonces)
		var want []uint64
		for n := top - 1; n > 0; n-- {
			if !slices.Contains(nonces, n) {
				want = append(want, n)
			}
		}

		var first uint64
		for j := range 5 {
			var (
				stored uint64
				exists bool
			)
			for _, i := range r.Perm(len(nonces)) {
				merged, err := Merge(stored, exists, nonces[i])
				require.NoError(t, err)
				stored, exists = merged, true
			}
			assert.Equal(t, top, Tip(stored))
			assert.Equal(t, want, Missing(stored))
			if j == 0 {
				first = stored
			} else {
				assert.Equal(t, first, stored)
			}

			// every consumed nonce is rejected from now on
			for _, n := range nonces {
				merged, err := Merge(stored, true, n)
				assert.Contains(t, []Reason{AlreadyPresentAtTip, AlreadyPresentInPast}, reasonOf(err))
				assert.Equal(t, stored, merged)
			}
		}
	}
}

func TestStore(t *testing.T) {
	db := muxdb.NewMem()
	t.Cleanup(func() { db.Close() })
	st := state.New(db.NewStore("state"))
	s := NewStore(st)

	identity, contractID := thor.Blake2b([]byte("identity")), thor.Blake2b([]byte("contract"))

	_, exists, err := s.Get(identity, contractID)
	require.NoError(t, err)
	assert.False(t, exists)

	inserted, err := s.Merge(identity, contractID, 5)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.Merge(identity, contractID, 3)
	require.NoError(t, err)
	assert.False(t, inserted)

	raw, err := st.Get(key(identity, contractID))
	require.NoError(t, err)
	assert.Len(t, raw, 8)

	_, err = s.Merge(identity, contractID, 3)
	assert.Equal(t, AlreadyPresentInPast, reasonOf(err))
	after, err := st.Get(key(identity, contractID))
	require.NoError(t, err)
	assert.Equal(t, raw, after)

	stored, _, err := s.Get(identity, contractID)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), Tip(stored))
	assert.Equal(t, []uint64{4, 2, 1}, Missing(stored))

	// pairs are independent
	_, exists, err = s.Get(identity, thor.Blake2b([]byte("other")))
	require.NoError(t, err)
	assert.False(t, exists)
}
