// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contract

import (
	"regexp"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/docstate/thor"
)

// storage forms of contracts, properties are stored flattened in depth first order

type storedContract struct {
	ID            thor.Bytes32
	OwnerID       thor.Bytes32
	Version       uint32
	FormatVersion uint32
	Types         []storedType
}

type storedType struct {
	Name         string
	Mutable      bool
	Transferable bool
	CanBeDeleted bool
	Required     []string // system fields only, properties carry their own flag
	Properties   []storedProperty
	Indexes      []storedIndex
}

type storedProperty struct {
	Name     string
	Type     uint8
	Required bool
	Bounds   []uint32 // [minFlag, min, maxFlag, max]
	Children uint32   // count of direct children following in depth first order
}

type storedIndex struct {
	Name       string
	Properties []storedIndexProperty
	Unique     bool
	Contested  []storedContested // zero or one
}

type storedIndexProperty struct {
	Name      string
	Ascending bool
}

type storedContested struct {
	Fields      []string
	Patterns    []string
	Resolution  uint8
	Description string
}

// Encode encodes the contract into rlp bytes.
func Encode(c *DataContract) ([]byte, error) {
	sc := storedContract{
		ID:            c.ID,
		OwnerID:       c.OwnerID,
		Version:       c.Version,
		FormatVersion: c.FormatVersion,
	}
	for _, t := range c.types {
		st := storedType{
			Name:         t.Name(),
			Mutable:      t.DocumentsMutable(),
			Transferable: t.DocumentsTransferable(),
			CanBeDeleted: t.DocumentsCanBeDeleted(),
		}
		for _, f := range t.RequiredFields() {
			if IsSystemField(f) {
				st.Required = append(st.Required, f)
			}
		}
		for _, p := range t.Properties() {
			p.flatten(func(p *Property) {
				sp := storedProperty{
					Name:     p.Name,
					Type:     uint8(p.Type),
					Required: p.Required,
					Children: uint32(len(p.Properties)),
					Bounds:   make([]uint32, 4),
				}
				if p.MinLength != nil {
					sp.Bounds[0], sp.Bounds[1] = 1, *p.MinLength
				}
				if p.MaxLength != nil {
					sp.Bounds[2], sp.Bounds[3] = 1, *p.MaxLength
				}
				st.Properties = append(st.Properties, sp)
			})
		}
		for _, idx := range t.Indexes() {
			si := storedIndex{Name: idx.Name, Unique: idx.Unique}
			for _, p := range idx.Properties {
				si.Properties = append(si.Properties, storedIndexProperty(p))
			}
			if idx.Contested != nil {
				contested := storedContested{Resolution: idx.Contested.Resolution, Description: idx.Contested.Description}
				for _, m := range idx.Contested.FieldMatches {
					contested.Fields = append(contested.Fields, m.Field)
					contested.Patterns = append(contested.Patterns, m.Pattern.String())
				}
				si.Contested = []storedContested{contested}
			}
			st.Indexes = append(st.Indexes, si)
		}
		sc.Types = append(sc.Types, st)
	}
	return rlp.EncodeToBytes(&sc)
}

// Decode decodes a contract encoded by Encode.
func Decode(data []byte) (*DataContract, error) {
	var sc storedContract
	if err := rlp.DecodeBytes(data, &sc); err != nil {
		return nil, errors.Wrap(err, "decode contract")
	}
	c := &DataContract{
		ID:            sc.ID,
		OwnerID:       sc.OwnerID,
		Version:       sc.Version,
		FormatVersion: sc.FormatVersion,
	}
	for _, st := range sc.Types {
		props := st.Properties
		var roots []*Property
		for len(props) > 0 {
			var (
				p   *Property
				err error
			)
			if p, props, err = decodeProperty(props); err != nil {
				return nil, err
			}
			roots = append(roots, p)
		}
		b := base{
			name:       st.Name,
			contractID: c.ID,
			properties: roots,
			required:   make(map[string]struct{}),
			mutable:    st.Mutable,
		}
		for _, f := range st.Required {
			b.required[f] = struct{}{}
		}
		for _, si := range st.Indexes {
			idx := &Index{Name: si.Name, Unique: si.Unique}
			for _, p := range si.Properties {
				idx.Properties = append(idx.Properties, IndexProperty(p))
			}
			for _, stored := range si.Contested {
				if len(stored.Fields) != len(stored.Patterns) {
					return nil, errors.New("decode contract: contested fields mismatch")
				}
				contested := &ContestedIndex{Resolution: stored.Resolution, Description: stored.Description}
				for i, f := range stored.Fields {
					re, err := regexp.Compile(stored.Patterns[i])
					if err != nil {
						return nil, errors.Wrap(err, "decode contract")
					}
					contested.FieldMatches = append(contested.FieldMatches, ContestedFieldMatch{Field: f, Pattern: re})
				}
				idx.Contested = contested
			}
			b.indexes = append(b.indexes, idx)
		}

		var settings typeSettings
		if c.FormatVersion > 0 {
			settings = typeSettings{transferable: &st.Transferable, canBeDeleted: &st.CanBeDeleted}
		}
		t, err := newDocumentType(c.FormatVersion, b, settings)
		if err != nil {
			return nil, err
		}
		c.types = append(c.types, t)
	}
	return c, nil
}

func decodeProperty(props []storedProperty) (*Property, []storedProperty, error) {
	sp := props[0]
	if len(sp.Bounds) != 4 {
		return nil, nil, errors.New("decode contract: invalid property bounds")
	}
	p := &Property{Name: sp.Name, Type: PropertyType(sp.Type), Required: sp.Required}
	if sp.Bounds[0] == 1 {
		p.MinLength = &sp.Bounds[1]
	}
	if sp.Bounds[2] == 1 {
		p.MaxLength = &sp.Bounds[3]
	}
	rest := props[1:]
	for range sp.Children {
		if len(rest) == 0 {
			return nil, nil, errors.New("decode contract: truncated properties")
		}
		var (
			child *Property
			err   error
		)
		if child, rest, err = decodeProperty(rest); err != nil {
			return nil, nil, err
		}
		p.Properties = append(p.Properties, child)
	}
	return p, rest, nil
}
