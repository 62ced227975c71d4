// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package docstore

import (
	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/value"
)

// Index tuples concatenate one self-delimiting segment per index property:
//
//	tag (0x00 null, 0x01 value) ‖ escaped key bytes ‖ 0x00 0x01
//
// 0x00 bytes of the key are escaped as 0x00 0xff, so a segment sorts before any longer
// segment it prefixes. Segments of descending properties have all bytes inverted.
const (
	tagNull  = 0x00
	tagValue = 0x01
)

func appendSegment(dst []byte, key []byte, isNull, ascending bool) []byte {
	start := len(dst)
	if isNull {
		dst = append(dst, tagNull)
	} else {
		dst = append(dst, tagValue)
		for _, c := range key {
			if c == 0x00 {
				dst = append(dst, 0x00, 0xff)
			} else {
				dst = append(dst, c)
			}
		}
	}
	dst = append(dst, 0x00, 0x01)
	if !ascending {
		for i := start; i < len(dst); i++ {
			dst[i] = ^dst[i]
		}
	}
	return dst
}

// segment encodes one index property value.
func segment(dt contract.DocumentType, p contract.IndexProperty, v value.Value, present bool) ([]byte, error) {
	if !present || v.IsNull() {
		return appendSegment(nil, nil, true, p.Ascending), nil
	}
	key, err := dt.SerializeValueForKey(p.Name, v)
	if err != nil {
		return nil, err
	}
	return appendSegment(nil, key, false, p.Ascending), nil
}

// documentTuple encodes the index tuple of a document. complete is false when
// some property has no value.
func documentTuple(dt contract.DocumentType, idx *contract.Index, get func(string) (value.Value, bool)) (tuple []byte, complete bool, err error) {
	complete = true
	for _, p := range idx.Properties {
		v, ok := get(p.Name)
		if !ok || v.IsNull() {
			complete = false
		}
		seg, segErr := segment(dt, p, v, ok)
		if segErr != nil {
			return nil, false, segErr
		}
		tuple = append(tuple, seg...)
	}
	return tuple, complete, nil
}
