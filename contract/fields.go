// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contract

import "strings"

// System field names. They are prefixed with '$' to never clash with user properties.
const (
	FieldID        = "$id"
	FieldOwnerID   = "$ownerId"
	FieldCreatorID = "$creatorId"
	FieldRevision  = "$revision"

	FieldCreatedAt     = "$createdAt"
	FieldUpdatedAt     = "$updatedAt"
	FieldTransferredAt = "$transferredAt"

	FieldCreatedAtBlockHeight     = "$createdAtBlockHeight"
	FieldUpdatedAtBlockHeight     = "$updatedAtBlockHeight"
	FieldTransferredAtBlockHeight = "$transferredAtBlockHeight"

	FieldCreatedAtCoreBlockHeight     = "$createdAtCoreBlockHeight"
	FieldUpdatedAtCoreBlockHeight     = "$updatedAtCoreBlockHeight"
	FieldTransferredAtCoreBlockHeight = "$transferredAtCoreBlockHeight"
)

// systemFieldKind tells how a system field is encoded.
type systemFieldKind uint8

const (
	sysIdentifier = systemFieldKind(iota + 1)
	sysTimestamp
	sysBlockHeight
	sysCoreBlockHeight
	sysRevision
)

var systemFields = map[string]systemFieldKind{
	FieldID:        sysIdentifier,
	FieldOwnerID:   sysIdentifier,
	FieldCreatorID: sysIdentifier,
	FieldRevision:  sysRevision,

	FieldCreatedAt:     sysTimestamp,
	FieldUpdatedAt:     sysTimestamp,
	FieldTransferredAt: sysTimestamp,

	FieldCreatedAtBlockHeight:     sysBlockHeight,
	FieldUpdatedAtBlockHeight:     sysBlockHeight,
	FieldTransferredAtBlockHeight: sysBlockHeight,

	FieldCreatedAtCoreBlockHeight:     sysCoreBlockHeight,
	FieldUpdatedAtCoreBlockHeight:     sysCoreBlockHeight,
	FieldTransferredAtCoreBlockHeight: sysCoreBlockHeight,
}

// IsSystemField returns whether name is one of the '$' fields.
func IsSystemField(name string) bool {
	_, ok := systemFields[name]
	return ok
}

func isReservedName(name string) bool {
	return strings.HasPrefix(name, "$")
}
