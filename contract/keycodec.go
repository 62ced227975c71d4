// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contract

import (
	"encoding/binary"
	"math"

	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
	"github.com/vechain/docstate/value"
)

// SerializeValueForKey encodes the value of field into an index key component.
//
// Identifier system fields are exactly 32 bytes. Timestamps, block heights and core block
// heights are fixed width big endian, with the sign bit flipped so they sort like signed numbers.
// Property values are encoded by type and must not exceed thor.MaxIndexSize bytes.
func (t *base) SerializeValueForKey(field string, v value.Value) ([]byte, error) {
	if kind, ok := systemFields[field]; ok {
		return serializeSystemField(field, kind, v)
	}
	p, ok := t.flattened[field]
	if !ok {
		return nil, &validation.DocumentTypeFieldNotFoundError{DocumentType: t.name, Field: field}
	}
	b, err := serializeProperty(p, v)
	if err != nil {
		return nil, err
	}
	if len(b) > thor.MaxIndexSize {
		return nil, unmet(field, "encoded value exceeds max index size")
	}
	return b, nil
}

// DeserializeValueForKey decodes an index key component.
func (t *base) DeserializeValueForKey(field string, b []byte) (value.Value, error) {
	if kind, ok := systemFields[field]; ok {
		return deserializeSystemField(field, kind, b)
	}
	p, ok := t.flattened[field]
	if !ok {
		return value.Value{}, &validation.DocumentTypeFieldNotFoundError{DocumentType: t.name, Field: field}
	}
	return deserializeProperty(p, b)
}

func unmet(field, reason string) error {
	return &validation.FieldRequirementUnmetError{Field: field, Reason: reason}
}

func errLength(field string) error {
	return unmet(field, "invalid encoded length")
}

func serializeSystemField(field string, kind systemFieldKind, v value.Value) ([]byte, error) {
	switch kind {
	case sysIdentifier:
		b, err := v.AsBytes()
		if err != nil || len(b) != thor.DefaultHashSize {
			return nil, unmet(field, "must be an identifier of 32 bytes")
		}
		return b, nil
	case sysCoreBlockHeight:
		n, err := v.AsUint64()
		if err != nil || n > math.MaxUint32 {
			return nil, unmet(field, "must be a 32-bit core block height")
		}
		return encodeUint32(uint32(n)), nil
	default:
		n, err := v.AsUint64()
		if err != nil {
			return nil, unmet(field, "must be a non-negative integer")
		}
		return encodeUint64(n), nil
	}
}

func deserializeSystemField(field string, kind systemFieldKind, b []byte) (value.Value, error) {
	switch kind {
	case sysIdentifier:
		if len(b) != thor.DefaultHashSize {
			return value.Value{}, errLength(field)
		}
		return value.Identifier(thor.Bytes32(b)), nil
	case sysCoreBlockHeight:
		if len(b) != 4 {
			return value.Value{}, errLength(field)
		}
		return value.Int(int64(decodeUint32(b))), nil
	default:
		if len(b) != 8 {
			return value.Value{}, errLength(field)
		}
		n := decodeUint64(b)
		if n > math.MaxInt64 {
			return value.Value{}, unmet(field, "value out of range")
		}
		return value.Int(int64(n)), nil
	}
}

func serializeProperty(p *Property, v value.Value) ([]byte, error) {
	switch p.Type {
	case TypeInteger:
		i, err := v.AsInt()
		if err != nil {
			return nil, unmet(p.Name, "must be an integer")
		}
		return encodeInt64(i), nil
	case TypeDate:
		n, err := v.AsUint64()
		if err != nil {
			return nil, unmet(p.Name, "must be a timestamp")
		}
		return encodeUint64(n), nil
	case TypeNumber:
		f, err := v.AsFloat()
		if err != nil {
			return nil, unmet(p.Name, "must be a number")
		}
		return encodeFloat(f), nil
	case TypeBoolean:
		b, err := v.AsBool()
		if err != nil {
			return nil, unmet(p.Name, "must be a boolean")
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case TypeString:
		s, err := v.AsText()
		if err != nil {
			return nil, unmet(p.Name, "must be a string")
		}
		return checkLength(p, []byte(s))
	case TypeByteArray:
		if v.Kind() != value.KindBytes {
			return nil, unmet(p.Name, "must be a byte array")
		}
		b, _ := v.AsBytes()
		return checkLength(p, b)
	case TypeIdentifier:
		id, err := v.AsIdentifier()
		if err != nil {
			return nil, unmet(p.Name, "must be an identifier of 32 bytes")
		}
		return id.Bytes(), nil
	}
	return nil, unmet(p.Name, "type "+p.Type.String()+" is not indexable")
}

func checkLength(p *Property, b []byte) ([]byte, error) {
	if p.MaxLength != nil && len(b) > int(*p.MaxLength) {
		return nil, unmet(p.Name, "longer than max length")
	}
	if p.MinLength != nil && len(b) < int(*p.MinLength) {
		return nil, unmet(p.Name, "shorter than min length")
	}
	return b, nil
}

func deserializeProperty(p *Property, b []byte) (value.Value, error) {
	switch p.Type {
	case TypeInteger:
		if len(b) != 8 {
			return value.Value{}, errLength(p.Name)
		}
		return value.Int(decodeInt64(b)), nil
	case TypeDate:
		if len(b) != 8 {
			return value.Value{}, errLength(p.Name)
		}
		n := decodeUint64(b)
		if n > math.MaxInt64 {
			return value.Value{}, unmet(p.Name, "value out of range")
		}
		return value.Int(int64(n)), nil
	case TypeNumber:
		if len(b) != 8 {
			return value.Value{}, errLength(p.Name)
		}
		return value.Float(decodeFloat(b)), nil
	case TypeBoolean:
		if len(b) != 1 || b[0] > 1 {
			return value.Value{}, errLength(p.Name)
		}
		return value.Bool(b[0] == 1), nil
	case TypeString:
		return value.Text(string(b)), nil
	case TypeByteArray:
		return value.Bytes(b), nil
	case TypeIdentifier:
		if len(b) != thor.DefaultHashSize {
			return value.Value{}, errLength(p.Name)
		}
		return value.Identifier(thor.Bytes32(b)), nil
	}
	return value.Value{}, unmet(p.Name, "type "+p.Type.String()+" is not indexable")
}

func encodeInt64(i int64) []byte {
	b := binary.BigEndian.AppendUint64(nil, uint64(i))
	b[0] ^= 0x80
	return b
}

func decodeInt64(b []byte) int64 {
	n := binary.BigEndian.Uint64(b)
	return int64(n ^ 1<<63)
}

func encodeUint64(n uint64) []byte {
	return encodeInt64(int64(n))
}

func decodeUint64(b []byte) uint64 {
	return uint64(decodeInt64(b))
}

func encodeUint32(n uint32) []byte {
	b := binary.BigEndian.AppendUint32(nil, n)
	b[0] ^= 0x80
	return b
}

func decodeUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b) ^ 1<<31
}

// encodeFloat maps floats to bytes sorting in numeric order:
// positives get the sign bit set, negatives get all bits inverted.
func encodeFloat(f float64) []byte {
	bits := math.Float64bits(f)
	if bits&(1<<63) == 0 {
		bits ^= 1 << 63
	} else {
		bits = ^bits
	}
	return binary.BigEndian.AppendUint64(nil, bits)
}

func decodeFloat(b []byte) float64 {
	bits := binary.BigEndian.Uint64(b)
	if bits&(1<<63) != 0 {
		bits ^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}
