// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package docstore

import (
	"github.com/vechain/docstate/thor"
)

func contractKey(id thor.Bytes32) []byte {
	return append([]byte{thor.KeySpaceContract}, id[:]...)
}

// nameSlot maps a schema name to a fixed width key component.
func nameSlot(name string) thor.Bytes32 {
	return thor.Keccak256([]byte(name))
}

// typePrefix is contractID ‖ keccak(type name).
func typePrefix(contractID thor.Bytes32, typeName string) []byte {
	slot := nameSlot(typeName)
	b := make([]byte, 0, 2*thor.DefaultHashSize)
	b = append(b, contractID[:]...)
	return append(b, slot[:]...)
}

func documentsPrefix(tp []byte) []byte {
	return append([]byte{thor.KeySpaceDocument}, tp...)
}

func documentKey(tp []byte, id thor.Bytes32) []byte {
	return append(documentsPrefix(tp), id[:]...)
}

// indexPrefix is i ‖ typePrefix ‖ keccak(index name).
func indexPrefix(tp []byte, indexName string) []byte {
	slot := nameSlot(indexName)
	b := append([]byte{thor.KeySpaceIndex}, tp...)
	return append(b, slot[:]...)
}
