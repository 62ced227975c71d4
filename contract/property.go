// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contract

import (
	"github.com/pkg/errors"
)

// PropertyType is the type of a document property.
type PropertyType uint8

const (
	TypeInteger = PropertyType(iota + 1)
	TypeNumber
	TypeString
	TypeBoolean
	TypeByteArray
	TypeIdentifier
	TypeDate
	TypeObject
	TypeArray
)

var propertyTypeNames = map[PropertyType]string{
	TypeInteger:    "integer",
	TypeNumber:     "number",
	TypeString:     "string",
	TypeBoolean:    "boolean",
	TypeByteArray:  "byteArray",
	TypeIdentifier: "identifier",
	TypeDate:       "date",
	TypeObject:     "object",
	TypeArray:      "array",
}

func (t PropertyType) String() string {
	if name, ok := propertyTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParsePropertyType parses type names like "string".
func ParsePropertyType(name string) (PropertyType, error) {
	for t, n := range propertyTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, errors.Errorf("unknown property type %q", name)
}

// Indexable returns whether values of the type can be part of an index.
func (t PropertyType) Indexable() bool {
	return t != TypeObject && t != TypeArray
}

// Property is the definition of a document property.
// Nested object properties are addressed by dotted paths.
type Property struct {
	Name      string // full dotted path
	Type      PropertyType
	Required  bool
	MinLength *uint32 // for strings and byte arrays, in bytes
	MaxLength *uint32 // for strings and byte arrays, in bytes

	Properties []*Property // children of object properties, in declared order
}

// flatten walks p and its descendants depth first.
func (p *Property) flatten(fn func(*Property)) {
	fn(p)
	for _, child := range p.Properties {
		child.flatten(fn)
	}
}
