// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errNotFound = errors.New("not found")

type mem map[string]string

func (m mem) Get(k []byte) ([]byte, error) {
	if v, ok := m[string(k)]; ok {
		return []byte(v), nil
	}
	return nil, errNotFound
}

func (m mem) Has(k []byte) (bool, error) {
	_, ok := m[string(k)]
	return ok, nil
}

func (m mem) Put(k, v []byte) error {
	m[string(k)] = string(v)
	return nil
}

func (m mem) Delete(k []byte) error {
	delete(m, string(k))
	return nil
}

func (m mem) IsNotFound(err error) bool {
	return err == errNotFound
}

func TestBucketGetter(t *testing.T) {
	m := mem{"k1": "v1", "k2": "v2"}

	tests := []struct {
		b    Bucket
		key  string
		want string
		has  bool
	}{
		{Bucket(""), "k1", "v1", true},
		{Bucket(""), "k2", "v2", true},
		{Bucket("k"), "k1", "", false},
		{Bucket("k"), "1", "v1", true},
		{Bucket("k"), "2", "v2", true},
		{Bucket("k1"), "", "v1", true},
	}
	for _, tt := range tests {
		getter := tt.b.NewGetter(m)
		got, err := getter.Get([]byte(tt.key))
		if tt.has {
			assert.NoError(t, err)
		} else {
			assert.True(t, getter.IsNotFound(err))
		}
		assert.Equal(t, tt.want, string(got))

		has, _ := getter.Has([]byte(tt.key))
		assert.Equal(t, tt.has, has)
	}
}

func TestBucketPutter(t *testing.T) {
	m := mem{}
	putter := Bucket("p/").NewPutter(m)

	assert.NoError(t, putter.Put([]byte("a"), []byte("1")))
	assert.Equal(t, mem{"p/a": "1"}, m)

	assert.NoError(t, putter.Delete([]byte("a")))
	assert.Empty(t, m)
}

func TestBucketRange(t *testing.T) {
	b := Bucket("ab")

	r := b.Range(Range{Start: []byte("1")})
	assert.Equal(t, []byte("ab1"), r.Start)
	assert.Equal(t, []byte("ac"), r.Limit)

	r = b.Range(Range{Start: []byte("1"), Limit: []byte("5")})
	assert.Equal(t, []byte("ab5"), r.Limit)

	assert.Equal(t, Range{Start: []byte("x"), Limit: []byte("y")}, PrefixRange([]byte("x")))
}

func TestNewPair(t *testing.T) {
	p := NewPair([]byte("k"), []byte("v"))
	assert.Equal(t, []byte("k"), p.Key())
	assert.Equal(t, []byte("v"), p.Value())
}
