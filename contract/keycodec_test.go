// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contract

import (
	"bytes"
	"cmp"
	"math"
	"strings"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
	"github.com/vechain/docstate/value"
)

func profileType(t *testing.T) DocumentType {
	dt, err := mustParse(t, profileContract).DocumentType("profile")
	require.NoError(t, err)
	return dt
}

func TestKeyRoundTrip(t *testing.T) {
	dt := profileType(t)
	f := fuzz.New().NilChance(0)

	for range 200 {
		var (
			i     int64
			u     uint32
			fl    float64
			b     bool
			s     string
			raw   []byte
			id    thor.Bytes32
			stamp uint64
		)
		f.Fuzz(&i)
		f.Fuzz(&u)
		f.Fuzz(&fl)
		f.Fuzz(&b)
		f.Fuzz(&s)
		f.Fuzz(&raw)
		f.Fuzz(&id)
		f.Fuzz(&stamp)
		if len(s) > 63 {
			s = s[:63]
		}
		if len(raw) > 32 {
			raw = raw[:32]
		}
		stamp &= math.MaxInt64

		cases := []struct {
			field string
			v     value.Value
		}{
			{"age", value.Int(i)},
			{"score", value.Float(fl)},
			{"active", value.Bool(b)},
			{"name", value.Text(s)},
			{"avatar", value.Bytes(raw)},
			{"friend", value.Identifier(id)},
			{"birthday", value.Int(int64(stamp))},
			{"address.city", value.Text(s[:min(len(s), 40)])},
			{FieldID, value.Identifier(id)},
			{FieldRevision, value.Int(int64(stamp))},
			{FieldCreatedAt, value.Int(int64(stamp))},
			{FieldUpdatedAtBlockHeight, value.Int(int64(stamp))},
			{FieldTransferredAtCoreBlockHeight, value.Int(int64(u))},
		}
		for _, c := range cases {
			enc, err := dt.SerializeValueForKey(c.field, c.v)
			require.NoError(t, err, c.field)
			dec, err := dt.DeserializeValueForKey(c.field, enc)
			require.NoError(t, err, c.field)
			assert.True(t, c.v.Equal(dec), "%s: %v != %v", c.field, c.v, dec)
		}
	}
}

func TestKeyOrder(t *testing.T) {
	dt := profileType(t)
	f := fuzz.New().NilChance(0)

	sign := func(n int) int { return cmp.Compare(n, 0) }
	enc := func(field string, v value.Value) []byte {
		b, err := dt.SerializeValueForKey(field, v)
		require.NoError(t, err)
		return b
	}

	for range 500 {
		var a, b int64
		f.Fuzz(&a)
		f.Fuzz(&b)
		assert.Equal(t, cmp.Compare(a, b), sign(bytes.Compare(enc("age", value.Int(a)), enc("age", value.Int(b)))), "%d vs %d", a, b)

		var x, y uint32
		f.Fuzz(&x)
		f.Fuzz(&y)
		assert.Equal(t, cmp.Compare(x, y),
			sign(bytes.Compare(enc(FieldCreatedAtCoreBlockHeight, value.Int(int64(x))), enc(FieldCreatedAtCoreBlockHeight, value.Int(int64(y))))))
	}

	floats := []float64{math.Inf(-1), -1e300, -2.5, -1, -1e-300, 0, 1e-300, 0.5, 1, 3.75, 1e300, math.Inf(1)}
	for i := 1; i < len(floats); i++ {
		assert.Equal(t, -1, bytes.Compare(enc("score", value.Float(floats[i-1])), enc("score", value.Float(floats[i]))), "%v < %v", floats[i-1], floats[i])
	}

	assert.Equal(t, -1, bytes.Compare(enc("active", value.Bool(false)), enc("active", value.Bool(true))))
	assert.Equal(t, -1, bytes.Compare(enc("name", value.Text("")), enc("name", value.Text("a"))))
	assert.Equal(t, -1, bytes.Compare(enc("name", value.Text("ab")), enc("name", value.Text("b"))))
}

func TestKeyCodecErrors(t *testing.T) {
	dt := profileType(t)

	tests := []struct {
		name  string
		field string
		v     value.Value
	}{
		{"short system identifier", FieldOwnerID, value.Bytes([]byte{1, 2, 3})},
		{"long system identifier", FieldID, value.Bytes(make([]byte, 33))},
		{"negative timestamp", FieldCreatedAt, value.Int(-1)},
		{"core height overflow", FieldCreatedAtCoreBlockHeight, value.Int(math.MaxUint32 + 1)},
		{"string too long", "name", value.Text(strings.Repeat("x", 64))},
		{"bytes too long", "avatar", value.Bytes(make([]byte, 33))},
		{"wrong type", "age", value.Text("1")},
		{"bytes as string", "name", value.Bytes([]byte("x"))},
		{"object", "address", value.Map(nil)},
		{"array", "tags", value.Array()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dt.SerializeValueForKey(tt.field, tt.v)
			var unmetErr *validation.FieldRequirementUnmetError
			require.ErrorAs(t, err, &unmetErr)
			assert.Equal(t, tt.field, unmetErr.Field)
		})
	}

	_, err := dt.SerializeValueForKey("nickname", value.Text("x"))
	var notFound *validation.DocumentTypeFieldNotFoundError
	require.ErrorAs(t, err, &notFound)

	for _, field := range []string{"age", "score", "friend", FieldID, FieldCreatedAt, FieldCreatedAtCoreBlockHeight} {
		_, err := dt.DeserializeValueForKey(field, []byte{1, 2})
		var unmetErr *validation.FieldRequirementUnmetError
		require.ErrorAs(t, err, &unmetErr, field)
		assert.Contains(t, unmetErr.Reason, "invalid encoded length")
	}
}

func TestMaxIndexSize(t *testing.T) {
	maxLen := uint32(thor.MaxIndexSize + 10)
	b := base{
		name:       "blob",
		properties: []*Property{{Name: "data", Type: TypeByteArray, MaxLength: &maxLen}},
		required:   map[string]struct{}{},
	}
	b.init()

	_, err := b.SerializeValueForKey("data", value.Bytes(make([]byte, thor.MaxIndexSize)))
	assert.NoError(t, err)
	_, err = b.SerializeValueForKey("data", value.Bytes(make([]byte, thor.MaxIndexSize+1)))
	assert.ErrorContains(t, err, "max index size")
}
