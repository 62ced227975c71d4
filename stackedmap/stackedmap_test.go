// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/docstate/stackedmap"
)

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := map[string]string{"foo": "bar"}

	sm := stackedmap.New(func(key string) (string, bool, error) {
		v, ok := src[key]
		return v, ok, nil
	})

	tests := []struct {
		f        func()
		depth    int
		putKey   string
		putValue string
		getKey   string
		want     string
		found    bool
	}{
		{func() {}, 1, "", "", "foo", "bar", true},
		{func() { sm.Push() }, 2, "foo", "baz", "foo", "baz", true},
		{func() {}, 2, "foo", "baz1", "foo", "baz1", true},
		{func() { sm.Push() }, 3, "foo", "qux", "foo", "qux", true},
		{func() { sm.Pop() }, 2, "", "", "foo", "baz1", true},
		{func() { sm.Pop() }, 1, "", "", "foo", "bar", true},
		{func() {}, 1, "", "", "none", "", false},
		{func() { sm.Push(); sm.Push() }, 3, "", "", "", "", false},
		{func() { sm.PopTo(0) }, 0, "", "", "", "", false},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			v, found, err := sm.Get(test.getKey)
			assert.NoError(err)
			assert.Equal(test.want, v)
			assert.Equal(test.found, found)
		}
	}
}

func TestStackedMapSourceError(t *testing.T) {
	errSrc := errors.New("source")
	sm := stackedmap.New(func(int) (int, bool, error) { return 0, false, errSrc })

	_, _, err := sm.Get(1)
	assert.Equal(t, errSrc, err)

	sm.Put(1, 10)
	v, found, err := sm.Get(1)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 10, v)
}

func TestStackedMapOverlay(t *testing.T) {
	sm := stackedmap.New(func(string) ([]byte, bool, error) { return []byte("src"), true, nil })

	_, ok := sm.GetOverlay("k")
	assert.False(t, ok)

	cp := sm.Push()
	sm.Put("k", nil)
	v, ok := sm.GetOverlay("k")
	assert.True(t, ok)
	assert.Nil(t, v)

	sm.PopTo(cp)
	_, ok = sm.GetOverlay("k")
	assert.False(t, ok)
}

func TestStackedMapJournal(t *testing.T) {
	sm := stackedmap.New(func(string) (string, bool, error) { return "", false, nil })

	kvs := []struct{ k, v string }{
		{"a", "b"},
		{"a", "b"},
		{"a1", "b1"},
		{"a2", "b2"},
		{"a3", "b3"},
	}
	for _, kv := range kvs {
		sm.Push()
		sm.Put(kv.k, kv.v)
	}

	i := 0
	sm.Journal(func(k, v string) bool {
		assert.Equal(t, kvs[i].k, k)
		assert.Equal(t, kvs[i].v, v)
		i++
		return true
	})
	assert.Equal(t, len(kvs), i)

	i = 0
	sm.Journal(func(string, string) bool {
		i++
		return false
	})
	assert.Equal(t, 1, i, "journal traverse should abort")

	sm.PopTo(3)
	i = 0
	sm.Journal(func(string, string) bool {
		i++
		return true
	})
	assert.Equal(t, 2, i)
}
