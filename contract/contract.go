// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package contract implements data contracts: versioned document type schemas with
// their indexes, the index key codec and the index matcher.
package contract

import (
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
)

// Known contract format versions.
var knownFormatVersions = []uint32{0, 1}

// DataContract is a versioned set of document types owned by an identity.
type DataContract struct {
	ID            thor.Bytes32
	OwnerID       thor.Bytes32
	Version       uint32
	FormatVersion uint32

	types []DocumentType // declared order
}

// NewID derives the id of a contract from its owner and the creation entropy.
func NewID(ownerID thor.Bytes32, entropy thor.Bytes32) thor.Bytes32 {
	return thor.Blake2b(ownerID[:], entropy[:])
}

// DocumentTypes returns the document types in declared order.
func (c *DataContract) DocumentTypes() []DocumentType {
	return c.types
}

// DocumentType returns the document type of the given name.
func (c *DataContract) DocumentType(name string) (DocumentType, error) {
	for _, t := range c.types {
		if t.Name() == name {
			return t, nil
		}
	}
	return nil, validation.NewStateConflict("data contract %s has no document type %s", c.ID, name)
}

func checkFormatVersion(v uint32) error {
	for _, known := range knownFormatVersions {
		if v == known {
			return nil
		}
	}
	return &validation.UnknownVersionMismatchError{
		Method:   "contract.DocumentType",
		Known:    knownFormatVersions,
		Received: v,
	}
}

// typeSettings are the per version document type settings.
type typeSettings struct {
	transferable *bool
	canBeDeleted *bool
}

// newDocumentType builds the variant of the format version.
func newDocumentType(formatVersion uint32, b base, settings typeSettings) (DocumentType, error) {
	if b.required == nil {
		b.required = make(map[string]struct{})
	}
	b.init()
	switch formatVersion {
	case 0:
		if settings.transferable != nil || settings.canBeDeleted != nil {
			return nil, unmet(b.name, "transfer and deletion settings need format version 1")
		}
		return &DocumentTypeV0{base: b}, nil
	case 1:
		t := &DocumentTypeV1{base: b, canBeDeleted: true}
		if settings.transferable != nil {
			t.transferable = *settings.transferable
		}
		if settings.canBeDeleted != nil {
			t.canBeDeleted = *settings.canBeDeleted
		}
		return t, nil
	}
	return nil, checkFormatVersion(formatVersion)
}
