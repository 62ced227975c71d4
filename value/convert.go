// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package value

import (
	"math"

	"github.com/pkg/errors"

	"github.com/vechain/docstate/thor"
)

// FromAny converts decoded yaml/json data into a Value.
func FromAny(in any) (Value, error) {
	switch x := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, errors.Errorf("integer %d overflows", x)
		}
		return Int(int64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return Text(x), nil
	case []byte:
		return Bytes(x), nil
	case thor.Bytes32:
		return Identifier(x), nil
	case []any:
		items := make([]Value, 0, len(x))
		for i, item := range x {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, errors.WithMessagef(err, "[%d]", i)
			}
			items = append(items, v)
		}
		return Value{kind: KindArray, arr: items}, nil
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, item := range x {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, errors.WithMessagef(err, "%s", k)
			}
			m[k] = v
		}
		return Value{kind: KindMap, m: m}, nil
	}
	return Value{}, errors.Errorf("unsupported type %T", in)
}

// MustFromAny is like FromAny but panics on error.
func MustFromAny(in any) Value {
	v, err := FromAny(in)
	if err != nil {
		panic(err)
	}
	return v
}

// Properties converts a property map.
func Properties(in map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(in))
	for k, item := range in {
		v, err := FromAny(item)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s", k)
		}
		out[k] = v
	}
	return out, nil
}
