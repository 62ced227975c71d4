// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package document

import (
	"maps"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/value"
)

// systemCodes numbers the optional system fields in storage, code = position + 1.
var systemCodes = []string{
	contract.FieldRevision,
	contract.FieldCreatedAt,
	contract.FieldUpdatedAt,
	contract.FieldTransferredAt,
	contract.FieldCreatedAtBlockHeight,
	contract.FieldUpdatedAtBlockHeight,
	contract.FieldTransferredAtBlockHeight,
	contract.FieldCreatedAtCoreBlockHeight,
	contract.FieldUpdatedAtCoreBlockHeight,
	contract.FieldTransferredAtCoreBlockHeight,
}

type storedDocument struct {
	ID         thor.Bytes32
	OwnerID    thor.Bytes32
	CreatorID  *thor.Bytes32       `rlp:"nil"`
	Properties []storedProperty    // sorted by name
	System     []storedSystemField // ascending codes
}

type storedProperty struct {
	Name  string
	Value value.Value
}

type storedSystemField struct {
	Code  uint8
	Value uint64
}

// Encode encodes the document into rlp bytes. The encoding is canonical.
func Encode(d *Document) ([]byte, error) {
	sd := storedDocument{ID: d.ID, OwnerID: d.OwnerID, CreatorID: d.CreatorID}
	for _, name := range slices.Sorted(maps.Keys(d.Properties)) {
		sd.Properties = append(sd.Properties, storedProperty{name, d.Properties[name]})
	}
	for i, name := range systemCodes {
		if p := d.uint64Field(name); p != nil && *p != nil {
			sd.System = append(sd.System, storedSystemField{uint8(i + 1), **p})
		} else if p := d.uint32Field(name); p != nil && *p != nil {
			sd.System = append(sd.System, storedSystemField{uint8(i + 1), uint64(**p)})
		}
	}
	return rlp.EncodeToBytes(&sd)
}

// Decode decodes a document encoded by Encode.
func Decode(data []byte) (*Document, error) {
	var sd storedDocument
	if err := rlp.DecodeBytes(data, &sd); err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	d := &Document{
		ID:         sd.ID,
		OwnerID:    sd.OwnerID,
		CreatorID:  sd.CreatorID,
		Properties: make(map[string]value.Value, len(sd.Properties)),
	}
	for i, p := range sd.Properties {
		if i > 0 && sd.Properties[i-1].Name >= p.Name {
			return nil, errors.New("decode document: properties not sorted")
		}
		d.Properties[p.Name] = p.Value
	}
	for i, f := range sd.System {
		if f.Code == 0 || int(f.Code) > len(systemCodes) || (i > 0 && sd.System[i-1].Code >= f.Code) {
			return nil, errors.Errorf("decode document: invalid system field code %d", f.Code)
		}
		if err := d.setSystemField(systemCodes[f.Code-1], value.Int(int64(f.Value))); err != nil {
			return nil, errors.Wrap(err, "decode document")
		}
	}
	return d, nil
}
