// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

// Constants of the platform state layer. Changing any of them forks consensus.
const (
	// MaxIndexSize is the max byte length of a single encoded index value.
	MaxIndexSize = 256
	// DefaultHashSize is the length of identifiers and hashes.
	DefaultHashSize = 32

	// InitialRevision is the revision of a freshly created mutable document.
	InitialRevision uint64 = 1

	// PerpetualStorageEpochs is the horizon over which storage fees are paid out.
	PerpetualStorageEpochs uint16 = 1000
	// PerpetualStorageEras is the count of eras in the storage fee decay table.
	PerpetualStorageEras uint16 = 50
	// EpochsPerEra is the count of epochs sharing one decay table entry.
	EpochsPerEra = PerpetualStorageEpochs / PerpetualStorageEras

	// DefaultFeeMultiplierPermille is the fee multiplier applied to processing fees (1000 = x1).
	DefaultFeeMultiplierPermille uint64 = 1000

	// DefaultEpochDurationMs is the length of an epoch, 9.125 days.
	DefaultEpochDurationMs uint64 = 788_400_000
)

// Identity nonce bit layout.
//
//	 63             40 39                      0
//	+-----------------+-------------------------+
//	| missing window  |        nonce value      |
//	+-----------------+-------------------------+
const (
	// IdentityNonceValueBits is the count of low bits holding the nonce value.
	IdentityNonceValueBits = 40
	// IdentityNonceValueFilter masks the nonce value.
	IdentityNonceValueFilter uint64 = 1<<IdentityNonceValueBits - 1
	// MaxMissingIdentityRevisions is the width of the tolerance window.
	MaxMissingIdentityRevisions uint64 = 24
	// MissingIdentityRevisionsMaxBytes bounds how far ahead of the tip a nonce may be.
	MissingIdentityRevisionsMaxBytes = MaxMissingIdentityRevisions
	// MissingIdentityRevisionsFilter masks the missing-revisions window.
	MissingIdentityRevisionsFilter uint64 = ^IdentityNonceValueFilter
)
