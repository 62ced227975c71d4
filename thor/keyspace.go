// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

// Key space prefixes of the platform state store. Every persisted key starts with one of them.
const (
	KeySpaceContract       = byte('c') // c ‖ contractID → rlp contract
	KeySpaceDocument       = byte('d') // d ‖ typePrefix ‖ docID → rlp document
	KeySpaceIndex          = byte('i') // i ‖ typePrefix ‖ keccak(index name) ‖ tuple → docID
	KeySpaceNonce          = byte('n') // n ‖ identityID ‖ contractID → BE64 bitpacked nonce
	KeySpaceEpoch          = byte('e') // e ‖ BE16 index → rlp epoch record
	KeySpaceProposer       = byte('p') // p ‖ BE16 index ‖ proposerID → BE64 block count
	KeySpaceFeeGlobals     = byte('f') // f ‖ name → BE64 or BE16 global
	KeySpacePendingRefunds = byte('r') // r ‖ BE16 paid epoch → BE64 freed fees ‖ BE64 credited
	KeySpaceBalance        = byte('b') // b ‖ identityID → BE64 credits
)
