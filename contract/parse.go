// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contract

import (
	"regexp"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
)

type contractDef struct {
	Version       uint32    `yaml:"version"`
	FormatVersion uint32    `yaml:"formatVersion"`
	Documents     yaml.Node `yaml:"documents"`
}

type documentTypeDef struct {
	Properties       yaml.Node  `yaml:"properties"`
	Required         []string   `yaml:"required"`
	Indices          []indexDef `yaml:"indices"`
	DocumentsMutable bool       `yaml:"documentsMutable"`
	Transferable     *bool      `yaml:"transferable"`
	CanBeDeleted     *bool      `yaml:"canBeDeleted"`
}

type propertyDef struct {
	Type       string    `yaml:"type"`
	MinLength  *uint32   `yaml:"minLength"`
	MaxLength  *uint32   `yaml:"maxLength"`
	Properties yaml.Node `yaml:"properties"`
	Required   []string  `yaml:"required"`
}

type indexDef struct {
	Name       string              `yaml:"name"`
	Properties []map[string]string `yaml:"properties"`
	Unique     bool                `yaml:"unique"`
	Contested  *contestedDef       `yaml:"contested"`
}

type contestedDef struct {
	FieldMatches []struct {
		Field        string `yaml:"field"`
		RegexPattern string `yaml:"regexPattern"`
	} `yaml:"fieldMatches"`
	Resolution  uint8  `yaml:"resolution"`
	Description string `yaml:"description"`
}

// Parse parses a contract definition in yaml (or json) form.
//
//	version: 1
//	formatVersion: 1
//	documents:
//	  note:
//	    documentsMutable: true
//	    properties:
//	      label: {type: string, maxLength: 63}
//	    required: [label, $createdAt]
//	    indices:
//	      - name: label
//	        properties: [{$ownerId: asc}, {label: asc}]
//	        unique: true
//
// Document types and properties keep their declared order.
func Parse(id, ownerID thor.Bytes32, src []byte) (*DataContract, error) {
	var def contractDef
	if err := yaml.Unmarshal(src, &def); err != nil {
		return nil, &validation.FieldRequirementUnmetError{Field: "contract", Reason: err.Error()}
	}
	if err := checkFormatVersion(def.FormatVersion); err != nil {
		return nil, err
	}
	if def.Documents.Kind != yaml.MappingNode || len(def.Documents.Content) == 0 {
		return nil, &validation.MissingRequiredKeyError{Key: "documents"}
	}

	c := &DataContract{
		ID:            id,
		OwnerID:       ownerID,
		Version:       def.Version,
		FormatVersion: def.FormatVersion,
	}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(def.Documents.Content); i += 2 {
		name := def.Documents.Content[i].Value
		if err := checkName(name); err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, unmet(name, "duplicate document type")
		}
		seen[name] = true

		var tdef documentTypeDef
		if err := def.Documents.Content[i+1].Decode(&tdef); err != nil {
			return nil, unmet(name, err.Error())
		}
		t, err := parseDocumentType(c, name, &tdef)
		if err != nil {
			return nil, err
		}
		c.types = append(c.types, t)
	}
	return c, nil
}

func checkName(name string) error {
	if name == "" || strings.Contains(name, ".") || isReservedName(name) {
		return unmet(name, "invalid name")
	}
	return nil
}

func parseDocumentType(c *DataContract, name string, def *documentTypeDef) (DocumentType, error) {
	props, err := parseProperties("", &def.Properties, def.Required)
	if err != nil {
		return nil, err
	}
	b := base{
		name:       name,
		contractID: c.ID,
		properties: props,
		required:   make(map[string]struct{}),
		mutable:    def.DocumentsMutable,
	}
	b.init()

	for _, f := range def.Required {
		if isReservedName(f) {
			if !IsSystemField(f) || f == FieldID || f == FieldOwnerID {
				return nil, &validation.DocumentTypeFieldNotFoundError{DocumentType: name, Field: f}
			}
			b.required[f] = struct{}{}
		}
	}

	for _, idef := range def.Indices {
		idx, err := parseIndex(&b, idef)
		if err != nil {
			return nil, err
		}
		if _, dup := b.Index(idx.Name); dup {
			return nil, unmet(idx.Name, "duplicate index name")
		}
		b.indexes = append(b.indexes, idx)
	}
	return newDocumentType(c.FormatVersion, b, typeSettings{def.Transferable, def.CanBeDeleted})
}

func parseProperties(prefix string, node *yaml.Node, required []string) ([]*Property, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, unmet(strings.TrimSuffix(prefix, "."), "properties must be a mapping")
	}
	var props []*Property
	names := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if err := checkName(name); err != nil {
			return nil, err
		}
		var def propertyDef
		if err := node.Content[i+1].Decode(&def); err != nil {
			return nil, unmet(prefix+name, err.Error())
		}
		typ, err := ParsePropertyType(def.Type)
		if err != nil {
			return nil, unmet(prefix+name, err.Error())
		}
		p := &Property{
			Name:      prefix + name,
			Type:      typ,
			MinLength: def.MinLength,
			MaxLength: def.MaxLength,
		}
		for _, r := range required {
			if r == name {
				p.Required = true
			}
		}
		if typ == TypeObject {
			if p.Properties, err = parseProperties(p.Name+".", &def.Properties, def.Required); err != nil {
				return nil, err
			}
			if len(p.Properties) == 0 {
				return nil, unmet(p.Name, "object without properties")
			}
		}
		names[name] = true
		props = append(props, p)
	}
	for _, r := range required {
		if !isReservedName(r) && !names[r] {
			return nil, &validation.DocumentTypeFieldNotFoundError{DocumentType: strings.TrimSuffix(prefix, "."), Field: prefix + r}
		}
	}
	return props, nil
}

func parseIndex(t *base, def indexDef) (*Index, error) {
	if def.Name == "" {
		return nil, &validation.MissingRequiredKeyError{Key: "indices.name"}
	}
	if len(def.Properties) == 0 {
		return nil, unmet(def.Name, "index without properties")
	}
	idx := &Index{Name: def.Name, Unique: def.Unique}
	for _, entry := range def.Properties {
		if len(entry) != 1 {
			return nil, unmet(def.Name, "index property must be a single {name: order} pair")
		}
		for field, order := range entry {
			if err := checkIndexable(t, field); err != nil {
				return nil, err
			}
			var asc bool
			switch order {
			case "asc":
				asc = true
			case "desc":
			default:
				return nil, unmet(def.Name, "order must be asc or desc")
			}
			for _, p := range idx.Properties {
				if p.Name == field {
					return nil, unmet(def.Name, "duplicate index property "+field)
				}
			}
			idx.Properties = append(idx.Properties, IndexProperty{Name: field, Ascending: asc})
		}
	}
	if def.Contested != nil {
		if !def.Unique {
			return nil, unmet(def.Name, "only unique indexes can be contested")
		}
		contested := &ContestedIndex{Resolution: def.Contested.Resolution, Description: def.Contested.Description}
		for _, m := range def.Contested.FieldMatches {
			if !slices.Contains(idx.PropertyNames(), m.Field) {
				return nil, &validation.DocumentTypeFieldNotFoundError{DocumentType: t.name, Field: m.Field}
			}
			re, err := regexp.Compile(m.RegexPattern)
			if err != nil {
				return nil, unmet(m.Field, errors.Wrap(err, "regex pattern").Error())
			}
			contested.FieldMatches = append(contested.FieldMatches, ContestedFieldMatch{Field: m.Field, Pattern: re})
		}
		idx.Contested = contested
	}
	return idx, nil
}

func checkIndexable(t *base, field string) error {
	if IsSystemField(field) {
		return nil
	}
	p, ok := t.flattened[field]
	if !ok {
		return &validation.DocumentTypeFieldNotFoundError{DocumentType: t.name, Field: field}
	}
	if !p.Type.Indexable() {
		return unmet(field, "type "+p.Type.String()+" is not indexable")
	}
	if (p.Type == TypeString || p.Type == TypeByteArray) && (p.MaxLength == nil || *p.MaxLength > thor.MaxIndexSize) {
		return unmet(field, "indexed property needs a max length within the max index size")
	}
	return nil
}
