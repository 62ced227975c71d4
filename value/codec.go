// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package value

import (
	"encoding/binary"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/docstate/thor"
)

var (
	_ rlp.Encoder = Value{}
	_ rlp.Decoder = (*Value)(nil)
)

type mapEntry struct {
	Key   string
	Value Value
}

// EncodeRLP implements rlp.Encoder.
// A value is encoded as the list [kind, payload]. Map entries are sorted by key.
func (v Value) EncodeRLP(w io.Writer) error {
	var payload any
	switch v.kind {
	case KindNull:
		payload = []byte{}
	case KindBool:
		payload = v.b
	case KindInteger:
		payload = binary.BigEndian.AppendUint64(nil, uint64(v.i))
	case KindFloat:
		payload = binary.BigEndian.AppendUint64(nil, math.Float64bits(v.f))
	case KindText, KindBytes, KindIdentifier:
		payload = []byte(v.s)
	case KindArray:
		payload = v.arr
	case KindMap:
		entries := make([]mapEntry, 0, len(v.m))
		for _, k := range v.Keys() {
			entries = append(entries, mapEntry{k, v.m[k]})
		}
		payload = entries
	default:
		return errors.Errorf("invalid kind %d", v.kind)
	}
	return rlp.Encode(w, []any{uint8(v.kind), payload})
}

// DecodeRLP implements rlp.Decoder.
func (v *Value) DecodeRLP(s *rlp.Stream) error {
	if _, err := s.List(); err != nil {
		return err
	}
	k, err := s.Uint8()
	if err != nil {
		return err
	}
	var out Value
	switch Kind(k) {
	case KindNull:
		if _, err := s.Bytes(); err != nil {
			return err
		}
	case KindBool:
		b, err := s.Bool()
		if err != nil {
			return err
		}
		out = Bool(b)
	case KindInteger, KindFloat:
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		if len(b) != 8 {
			return errors.Errorf("invalid %s payload length %d", Kind(k), len(b))
		}
		n := binary.BigEndian.Uint64(b)
		if Kind(k) == KindInteger {
			out = Int(int64(n))
		} else {
			out = Float(math.Float64frombits(n))
		}
	case KindText, KindBytes, KindIdentifier:
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		if Kind(k) == KindIdentifier && len(b) != thor.DefaultHashSize {
			return errors.Errorf("invalid identifier length %d", len(b))
		}
		out = Value{kind: Kind(k), s: string(b)}
	case KindArray:
		var items []Value
		if err := s.Decode(&items); err != nil {
			return err
		}
		out = Value{kind: KindArray, arr: items}
	case KindMap:
		var entries []mapEntry
		if err := s.Decode(&entries); err != nil {
			return err
		}
		m := make(map[string]Value, len(entries))
		for _, e := range entries {
			m[e.Key] = e.Value
		}
		if len(m) != len(entries) || !slices.IsSortedFunc(entries, func(a, b mapEntry) int {
			return strings.Compare(a.Key, b.Key)
		}) {
			return errors.New("map entries not in canonical order")
		}
		out = Value{kind: KindMap, m: m}
	default:
		return errors.Errorf("invalid kind %d", k)
	}
	if err := s.ListEnd(); err != nil {
		return err
	}
	*v = out
	return nil
}
