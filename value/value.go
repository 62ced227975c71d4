// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package value implements typed document property values.
package value

import (
	"bytes"
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/vechain/docstate/thor"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindNull = Kind(iota)
	KindBool
	KindInteger
	KindFloat
	KindText
	KindBytes
	KindIdentifier
	KindArray
	KindMap
)

var kindNames = [...]string{"null", "bool", "integer", "float", "text", "bytes", "identifier", "array", "map"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is an immutable typed value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string // text, bytes and identifier payload
	arr  []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInteger, i: i} }

func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

func Text(s string) Value { return Value{kind: KindText, s: s} }

func Bytes(b []byte) Value { return Value{kind: KindBytes, s: string(b)} }

func Identifier(id thor.Bytes32) Value { return Value{kind: KindIdentifier, s: string(id[:])} }

func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: slices.Clone(items)}
}

func Map(m map[string]Value) Value {
	return Value{kind: KindMap, m: maps.Clone(m)}
}

// Kind returns the type tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull returns whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) errKind(want string) error {
	return errors.Errorf("value is %s, not %s", v.kind, want)
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.errKind("bool")
	}
	return v.b, nil
}

// AsInt returns the integer payload. Integral floats are accepted.
func (v Value) AsInt() (int64, error) {
	switch v.kind {
	case KindInteger:
		return v.i, nil
	case KindFloat:
		if v.f == math.Trunc(v.f) && v.f >= math.MinInt64 && v.f < math.MaxInt64 {
			return int64(v.f), nil
		}
	}
	return 0, v.errKind("integer")
}

// AsUint64 returns the non-negative integer payload.
func (v Value) AsUint64() (uint64, error) {
	i, err := v.AsInt()
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, errors.Errorf("value %d is negative", i)
	}
	return uint64(i), nil
}

// AsFloat returns the number payload. Integers are converted.
func (v Value) AsFloat() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInteger:
		return float64(v.i), nil
	}
	return 0, v.errKind("float")
}

// AsText returns the text payload.
func (v Value) AsText() (string, error) {
	if v.kind != KindText {
		return "", v.errKind("text")
	}
	return v.s, nil
}

// AsBytes returns the payload of bytes and identifier values.
func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes && v.kind != KindIdentifier {
		return nil, v.errKind("bytes")
	}
	return []byte(v.s), nil
}

// AsIdentifier returns the identifier payload. Bytes of length 32 are accepted.
func (v Value) AsIdentifier() (thor.Bytes32, error) {
	if (v.kind != KindIdentifier && v.kind != KindBytes) || len(v.s) != thor.DefaultHashSize {
		return thor.Bytes32{}, v.errKind("identifier")
	}
	var id thor.Bytes32
	copy(id[:], v.s)
	return id, nil
}

// AsArray returns a copy of the array items.
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, v.errKind("array")
	}
	return slices.Clone(v.arr), nil
}

// AsMap returns a copy of the map entries.
func (v Value) AsMap() (map[string]Value, error) {
	if v.kind != KindMap {
		return nil, v.errKind("map")
	}
	return maps.Clone(v.m), nil
}

// Keys returns the sorted keys of a map value.
func (v Value) Keys() []string {
	return slices.Sorted(maps.Keys(v.m))
}

// Path resolves a dotted path like "a.b" into nested maps.
func (v Value) Path(path string) (Value, bool) {
	cur := v
	for part := range strings.SplitSeq(path, ".") {
		if cur.kind != KindMap {
			return Value{}, false
		}
		next, ok := cur.m[part]
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Equal reports whether two values are deeply equal.
func (v Value) Equal(other Value) bool {
	return v.Compare(other) == 0
}

// Compare defines a total order: by kind first, then by payload.
// Integers and floats compare numerically with each other.
func (v Value) Compare(other Value) int {
	if v.isNumber() && other.isNumber() {
		if v.kind == KindInteger && other.kind == KindInteger {
			return cmp.Compare(v.i, other.i)
		}
		a, _ := v.AsFloat()
		b, _ := other.AsFloat()
		if c := cmp.Compare(a, b); c != 0 {
			return c
		}
		return cmp.Compare(v.kind, other.kind)
	}
	if c := cmp.Compare(v.rank(), other.rank()); c != 0 {
		return c
	}
	switch v.kind {
	case KindBool:
		return cmp.Compare(boolInt(v.b), boolInt(other.b))
	case KindText:
		return strings.Compare(v.s, other.s)
	case KindBytes, KindIdentifier:
		if c := cmp.Compare(v.kind, other.kind); c != 0 {
			return c
		}
		return bytes.Compare([]byte(v.s), []byte(other.s))
	case KindArray:
		return slices.CompareFunc(v.arr, other.arr, Value.Compare)
	case KindMap:
		ka, kb := v.Keys(), other.Keys()
		if c := slices.Compare(ka, kb); c != 0 {
			return c
		}
		for _, k := range ka {
			if c := v.m[k].Compare(other.m[k]); c != 0 {
				return c
			}
		}
	}
	return 0
}

func (v Value) isNumber() bool {
	return v.kind == KindInteger || v.kind == KindFloat
}

// rank orders kinds, numbers share a rank and so do byte kinds.
func (v Value) rank() int {
	switch v.kind {
	case KindFloat:
		return int(KindInteger)
	case KindIdentifier:
		return int(KindBytes)
	}
	return int(v.kind)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprint(v.b)
	case KindInteger:
		return fmt.Sprint(v.i)
	case KindFloat:
		return fmt.Sprint(v.f)
	case KindText:
		return fmt.Sprintf("%q", v.s)
	case KindBytes:
		return fmt.Sprintf("0x%x", v.s)
	case KindIdentifier:
		var id thor.Bytes32
		copy(id[:], v.s)
		return id.String()
	case KindArray:
		parts := make([]string, 0, len(v.arr))
		for _, item := range v.arr {
			parts = append(parts, item.String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		parts := make([]string, 0, len(v.m))
		for _, k := range v.Keys() {
			parts = append(parts, k+": "+v.m[k].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
}
