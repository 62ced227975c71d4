// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
	"github.com/vechain/docstate/value"
)

const testContract = `
formatVersion: 1
documents:
  profile:
    documentsMutable: true
    transferable: true
    properties:
      name: {type: string, minLength: 1, maxLength: 16}
      age: {type: integer}
      score: {type: number}
      avatar: {type: byteArray, maxLength: 4}
      friend: {type: identifier}
      address:
        type: object
        properties:
          city: {type: string, maxLength: 40}
        required: [city]
    required: [name, $createdAt, $updatedAt, $transferredAt, $createdAtBlockHeight, $updatedAtCoreBlockHeight]
  note:
    properties:
      text: {type: string}
    required: [$createdAt]
`

var (
	owner = thor.Blake2b([]byte("owner"))
	other = thor.Blake2b([]byte("other"))
)

func docTypes(t *testing.T) (profile, note contract.DocumentType) {
	c, err := contract.Parse(thor.Blake2b([]byte("contract")), owner, []byte(testContract))
	require.NoError(t, err)
	profile, err = c.DocumentType("profile")
	require.NoError(t, err)
	note, err = c.DocumentType("note")
	require.NoError(t, err)
	return
}

func TestGet(t *testing.T) {
	rev := uint64(3)
	core := uint32(9)
	d := &Document{
		ID:      thor.Blake2b([]byte("doc")),
		OwnerID: owner,
		Properties: map[string]value.Value{
			"name":    value.Text("alice"),
			"age":     value.Null(),
			"address": value.Map(map[string]value.Value{"city": value.Text("Paris")}),
		},
		Revision:                 &rev,
		UpdatedAtCoreBlockHeight: &core,
	}

	tests := []struct {
		field string
		want  value.Value
		ok    bool
	}{
		{contract.FieldID, value.Identifier(d.ID), true},
		{contract.FieldOwnerID, value.Identifier(owner), true},
		{contract.FieldCreatorID, value.Value{}, false},
		{contract.FieldRevision, value.Int(3), true},
		{contract.FieldCreatedAt, value.Value{}, false},
		{contract.FieldUpdatedAtCoreBlockHeight, value.Int(9), true},
		{"name", value.Text("alice"), true},
		{"age", value.Value{}, false},
		{"address.city", value.Text("Paris"), true},
		{"address.zip", value.Value{}, false},
		{"missing", value.Value{}, false},
	}
	for _, tt := range tests {
		got, ok := d.Get(tt.field)
		assert.Equal(t, tt.ok, ok, tt.field)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), "%s: %v", tt.field, got)
		}
	}
}

func TestValidate(t *testing.T) {
	profile, _ := docTypes(t)
	now, rev, core := uint64(1000), uint64(1), uint32(1)
	valid := func() *Document {
		return &Document{
			ID:                       thor.Blake2b([]byte("doc")),
			OwnerID:                  owner,
			Properties:               map[string]value.Value{"name": value.Text("alice")},
			Revision:                 &rev,
			CreatedAt:                &now,
			UpdatedAt:                &now,
			TransferredAt:            &now,
			CreatedAtBlockHeight:     &now,
			UpdatedAtCoreBlockHeight: &core,
		}
	}
	require.NoError(t, valid().Validate(profile))

	tests := []struct {
		name   string
		mutate func(d *Document)
		err    any
	}{
		{"unknown property", func(d *Document) { d.Properties["nick"] = value.Text("x") }, &validation.DocumentTypeFieldNotFoundError{}},
		{"unknown nested property", func(d *Document) {
			d.Properties["address"] = value.Map(map[string]value.Value{"city": value.Text("x"), "zip": value.Int(1)})
		}, &validation.DocumentTypeFieldNotFoundError{}},
		{"missing required property", func(d *Document) { delete(d.Properties, "name") }, &validation.MissingRequiredKeyError{}},
		{"missing nested required", func(d *Document) { d.Properties["address"] = value.Map(map[string]value.Value{}) }, &validation.MissingRequiredKeyError{}},
		{"missing system field", func(d *Document) { d.UpdatedAtCoreBlockHeight = nil }, &validation.MissingRequiredKeyError{}},
		{"missing revision", func(d *Document) { d.Revision = nil }, &validation.MissingRequiredKeyError{}},
		{"too long", func(d *Document) { d.Properties["name"] = value.Text("abcdefghijklmnopq") }, &validation.FieldRequirementUnmetError{}},
		{"too short", func(d *Document) { d.Properties["name"] = value.Text("") }, &validation.FieldRequirementUnmetError{}},
		{"integer as float", func(d *Document) { d.Properties["age"] = value.Float(1.5) }, &validation.FieldRequirementUnmetError{}},
		{"bytes too long", func(d *Document) { d.Properties["avatar"] = value.Bytes([]byte{1, 2, 3, 4, 5}) }, &validation.FieldRequirementUnmetError{}},
		{"short identifier", func(d *Document) { d.Properties["friend"] = value.Bytes([]byte{1}) }, &validation.FieldRequirementUnmetError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			err := d.Validate(profile)
			require.Error(t, err)
			assert.IsType(t, tt.err, err)
		})
	}

	d := valid()
	d.Properties["score"] = value.Int(3)
	d.Properties["friend"] = value.Bytes(other[:])
	d.Properties["age"] = value.Null()
	assert.NoError(t, d.Validate(profile))
}

func TestCodec(t *testing.T) {
	now, rev, core := uint64(1700000000000), uint64(2), uint32(77)
	creator := other
	d := &Document{
		ID:        thor.Blake2b([]byte("doc")),
		OwnerID:   owner,
		CreatorID: &creator,
		Properties: map[string]value.Value{
			"name":    value.Text("alice"),
			"score":   value.Float(2.5),
			"address": value.Map(map[string]value.Value{"city": value.Text("Paris")}),
			"tags":    value.Array(value.Text("a"), value.Int(1)),
		},
		Revision:                     &rev,
		CreatedAt:                    &now,
		TransferredAtCoreBlockHeight: &core,
	}
	data, err := Encode(d)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, d.ID, decoded.ID)
	assert.Equal(t, d.OwnerID, decoded.OwnerID)
	assert.Equal(t, d.CreatorID, decoded.CreatorID)
	assert.Equal(t, d.Revision, decoded.Revision)
	assert.Equal(t, d.CreatedAt, decoded.CreatedAt)
	assert.Nil(t, decoded.UpdatedAt)
	assert.Equal(t, d.TransferredAtCoreBlockHeight, decoded.TransferredAtCoreBlockHeight)
	require.Len(t, decoded.Properties, len(d.Properties))
	for k, v := range d.Properties {
		assert.True(t, v.Equal(decoded.Properties[k]), k)
	}

	again, err := Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, data, again)

	plain := &Document{ID: d.ID, OwnerID: owner}
	data, err = Encode(plain)
	require.NoError(t, err)
	decoded, err = Decode(data)
	require.NoError(t, err)
	assert.Nil(t, decoded.CreatorID)
	assert.Nil(t, decoded.Revision)
	assert.Empty(t, decoded.Properties)

	_, err = Decode([]byte{0xc0})
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	rev := uint64(1)
	d := &Document{Properties: map[string]value.Value{"name": value.Text("a")}, Revision: &rev}
	c := d.Clone()
	*c.Revision = 2
	c.Properties["name"] = value.Text("b")
	assert.Equal(t, uint64(1), *d.Revision)
	assert.True(t, value.Text("a").Equal(d.Properties["name"]))
}
