// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package document implements the document model and the document factory.
package document

import (
	"maps"
	"slices"
	"strings"

	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
	"github.com/vechain/docstate/value"
)

// Document is an instance of a document type.
// System fields are nil when the document type does not require them.
type Document struct {
	ID         thor.Bytes32
	OwnerID    thor.Bytes32
	CreatorID  *thor.Bytes32
	Properties map[string]value.Value
	Revision   *uint64

	CreatedAt     *uint64
	UpdatedAt     *uint64
	TransferredAt *uint64

	CreatedAtBlockHeight     *uint64
	UpdatedAtBlockHeight     *uint64
	TransferredAtBlockHeight *uint64

	CreatedAtCoreBlockHeight     *uint32
	UpdatedAtCoreBlockHeight     *uint32
	TransferredAtCoreBlockHeight *uint32
}

// NewID derives the id of a created document.
func NewID(contractID, ownerID thor.Bytes32, typeName string, entropy thor.Bytes32) thor.Bytes32 {
	return thor.Blake2b(contractID[:], ownerID[:], []byte(typeName), entropy[:])
}

func (d *Document) uint64Field(name string) **uint64 {
	switch name {
	case contract.FieldRevision:
		return &d.Revision
	case contract.FieldCreatedAt:
		return &d.CreatedAt
	case contract.FieldUpdatedAt:
		return &d.UpdatedAt
	case contract.FieldTransferredAt:
		return &d.TransferredAt
	case contract.FieldCreatedAtBlockHeight:
		return &d.CreatedAtBlockHeight
	case contract.FieldUpdatedAtBlockHeight:
		return &d.UpdatedAtBlockHeight
	case contract.FieldTransferredAtBlockHeight:
		return &d.TransferredAtBlockHeight
	}
	return nil
}

func (d *Document) uint32Field(name string) **uint32 {
	switch name {
	case contract.FieldCreatedAtCoreBlockHeight:
		return &d.CreatedAtCoreBlockHeight
	case contract.FieldUpdatedAtCoreBlockHeight:
		return &d.UpdatedAtCoreBlockHeight
	case contract.FieldTransferredAtCoreBlockHeight:
		return &d.TransferredAtCoreBlockHeight
	}
	return nil
}

// Get returns the value of a system field or of a property by dotted path.
// Null properties are reported absent.
func (d *Document) Get(field string) (value.Value, bool) {
	switch field {
	case contract.FieldID:
		return value.Identifier(d.ID), true
	case contract.FieldOwnerID:
		return value.Identifier(d.OwnerID), true
	case contract.FieldCreatorID:
		if d.CreatorID == nil {
			return value.Value{}, false
		}
		return value.Identifier(*d.CreatorID), true
	}
	if p := d.uint64Field(field); p != nil {
		if *p == nil {
			return value.Value{}, false
		}
		return value.Int(int64(**p)), true
	}
	if p := d.uint32Field(field); p != nil {
		if *p == nil {
			return value.Value{}, false
		}
		return value.Int(int64(**p)), true
	}
	v, ok := value.Map(d.Properties).Path(field)
	if !ok || v.IsNull() {
		return value.Value{}, false
	}
	return v, true
}

// setSystemField sets a system field other than $id and $ownerId from a raw value.
func (d *Document) setSystemField(name string, v value.Value) error {
	if name == contract.FieldCreatorID {
		id, err := v.AsIdentifier()
		if err != nil {
			return &validation.FieldRequirementUnmetError{Field: name, Reason: err.Error()}
		}
		d.CreatorID = &id
		return nil
	}
	if p := d.uint64Field(name); p != nil {
		n, err := v.AsUint64()
		if err != nil {
			return &validation.FieldRequirementUnmetError{Field: name, Reason: err.Error()}
		}
		*p = &n
		return nil
	}
	if p := d.uint32Field(name); p != nil {
		n, err := v.AsUint64()
		if err != nil || n > 1<<32-1 {
			return &validation.FieldRequirementUnmetError{Field: name, Reason: "must be a 32-bit core block height"}
		}
		n32 := uint32(n)
		*p = &n32
		return nil
	}
	return &validation.DocumentTypeFieldNotFoundError{Field: name}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := *d
	c.Properties = maps.Clone(d.Properties)
	clone64 := func(p *uint64) *uint64 {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	clone32 := func(p *uint32) *uint32 {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	if d.CreatorID != nil {
		id := *d.CreatorID
		c.CreatorID = &id
	}
	c.Revision = clone64(d.Revision)
	c.CreatedAt = clone64(d.CreatedAt)
	c.UpdatedAt = clone64(d.UpdatedAt)
	c.TransferredAt = clone64(d.TransferredAt)
	c.CreatedAtBlockHeight = clone64(d.CreatedAtBlockHeight)
	c.UpdatedAtBlockHeight = clone64(d.UpdatedAtBlockHeight)
	c.TransferredAtBlockHeight = clone64(d.TransferredAtBlockHeight)
	c.CreatedAtCoreBlockHeight = clone32(d.CreatedAtCoreBlockHeight)
	c.UpdatedAtCoreBlockHeight = clone32(d.UpdatedAtCoreBlockHeight)
	c.TransferredAtCoreBlockHeight = clone32(d.TransferredAtCoreBlockHeight)
	return &c
}

// Validate checks the document against its document type.
func (d *Document) Validate(dt contract.DocumentType) error {
	if err := validateProperties(dt, "", d.Properties); err != nil {
		return err
	}
	for _, f := range dt.RequiredFields() {
		if _, ok := d.Get(f); ok {
			continue
		}
		// a required child of an absent object is not required
		if i := strings.LastIndexByte(f, '.'); i > 0 {
			if _, ok := d.Get(f[:i]); !ok {
				continue
			}
		}
		return &validation.MissingRequiredKeyError{Key: f}
	}
	switch {
	case dt.RequiresRevision() && d.Revision == nil:
		return &validation.MissingRequiredKeyError{Key: contract.FieldRevision}
	case !dt.RequiresRevision() && d.Revision != nil:
		return &validation.FieldRequirementUnmetError{Field: contract.FieldRevision, Reason: "documents of " + dt.Name() + " are immutable"}
	}
	return nil
}

func validateProperties(dt contract.DocumentType, prefix string, props map[string]value.Value) error {
	for _, name := range slices.Sorted(maps.Keys(props)) {
		path := prefix + name
		p, ok := dt.Property(path)
		if !ok {
			return &validation.DocumentTypeFieldNotFoundError{DocumentType: dt.Name(), Field: path}
		}
		v := props[name]
		if v.IsNull() {
			continue
		}
		if err := checkType(p, v); err != nil {
			return err
		}
		if p.Type == contract.TypeObject {
			children, _ := v.AsMap()
			if err := validateProperties(dt, path+".", children); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkType(p *contract.Property, v value.Value) error {
	unmet := func(reason string) error {
		return &validation.FieldRequirementUnmetError{Field: p.Name, Reason: reason}
	}
	var size int
	switch p.Type {
	case contract.TypeInteger:
		if v.Kind() != value.KindInteger {
			return unmet("must be an integer")
		}
	case contract.TypeNumber:
		if _, err := v.AsFloat(); err != nil {
			return unmet("must be a number")
		}
	case contract.TypeBoolean:
		if v.Kind() != value.KindBool {
			return unmet("must be a boolean")
		}
	case contract.TypeDate:
		if _, err := v.AsUint64(); err != nil || v.Kind() != value.KindInteger {
			return unmet("must be a timestamp in milliseconds")
		}
	case contract.TypeIdentifier:
		if _, err := v.AsIdentifier(); err != nil {
			return unmet("must be an identifier of 32 bytes")
		}
	case contract.TypeString:
		s, err := v.AsText()
		if err != nil {
			return unmet("must be a string")
		}
		size = len(s)
	case contract.TypeByteArray:
		if v.Kind() != value.KindBytes {
			return unmet("must be a byte array")
		}
		b, _ := v.AsBytes()
		size = len(b)
	case contract.TypeObject:
		if v.Kind() != value.KindMap {
			return unmet("must be an object")
		}
	case contract.TypeArray:
		if v.Kind() != value.KindArray {
			return unmet("must be an array")
		}
	}
	if p.Type != contract.TypeString && p.Type != contract.TypeByteArray {
		return nil
	}
	if p.MaxLength != nil && size > int(*p.MaxLength) {
		return unmet("longer than max length")
	}
	if p.MinLength != nil && size < int(*p.MinLength) {
		return unmet("shorter than min length")
	}
	return nil
}
