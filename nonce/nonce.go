// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package nonce implements the identity contract nonce: a sliding window that accepts
// each nonce once, tolerating limited out of order arrival.
//
// The stored value packs the tip nonce in its low thor.IdentityNonceValueBits bits and a
// missing mask above them. Bit k-1 of the mask is set while nonce tip-k has not been seen.
package nonce

import (
	"fmt"

	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
)

// maskFilter covers the positions 1..window-1 below the tip.
const maskFilter = uint64(1)<<(thor.MaxMissingIdentityRevisions-1) - 1

// Reason tells why a nonce was rejected.
type Reason uint8

const (
	InvalidNonce = Reason(iota + 1)
	TooFarInFuture
	TooFarInPast
	AlreadyPresentAtTip
	AlreadyPresentInPast
)

func (r Reason) String() string {
	switch r {
	case InvalidNonce:
		return "invalid"
	case TooFarInFuture:
		return "too_far_in_future"
	case TooFarInPast:
		return "too_far_in_past"
	case AlreadyPresentAtTip:
		return "already_present_at_tip"
	case AlreadyPresentInPast:
		return "already_present_in_past"
	}
	return fmt.Sprintf("reason(%d)", uint8(r))
}

// MergeError is a rejected nonce.
type MergeError struct {
	Reason   Reason
	Nonce    uint64
	Position uint64 // distance below the tip, for AlreadyPresentInPast
}

func (e *MergeError) Error() string {
	if e.Reason == AlreadyPresentInPast {
		return fmt.Sprintf("nonce %d already present in past at position %d", e.Nonce, e.Position)
	}
	return fmt.Sprintf("nonce %d rejected: %s", e.Nonce, e.Reason)
}

// Kind implements validation.ConsensusError.
func (e *MergeError) Kind() validation.Kind {
	if e.Reason == InvalidNonce {
		return validation.Structural
	}
	return validation.StateConflict
}

// Tip returns the highest nonce of a stored value.
func Tip(stored uint64) uint64 {
	return stored & thor.IdentityNonceValueFilter
}

// Missing returns the nonces below the tip not seen yet, descending.
func Missing(stored uint64) []uint64 {
	tip, mask := Tip(stored), window(stored)
	var missing []uint64
	for k := uint64(1); k < thor.MaxMissingIdentityRevisions && k < tip; k++ {
		if mask&(1<<(k-1)) != 0 {
			missing = append(missing, tip-k)
		}
	}
	return missing
}

func window(stored uint64) uint64 {
	return (stored & thor.MissingIdentityRevisionsFilter) >> thor.IdentityNonceValueBits
}

func pack(tip, mask uint64) uint64 {
	return tip | (mask&maskFilter)<<thor.IdentityNonceValueBits
}

// Merge merges nonce into the stored value. exists is false when nothing is stored yet.
// A rejection leaves the stored value as it is.
func Merge(stored uint64, exists bool, nonce uint64) (uint64, error) {
	if nonce == 0 || nonce&^thor.IdentityNonceValueFilter != 0 {
		return stored, &MergeError{Reason: InvalidNonce, Nonce: nonce}
	}
	if !exists {
		if nonce >= thor.MaxMissingIdentityRevisions {
			return stored, &MergeError{Reason: TooFarInFuture, Nonce: nonce}
		}
		// every nonce below the first one is still available
		return pack(nonce, 1<<(nonce-1)-1), nil
	}

	tip, mask := Tip(stored), window(stored)
	switch {
	case nonce == tip:
		return stored, &MergeError{Reason: AlreadyPresentAtTip, Nonce: nonce}
	case nonce > tip:
		gap := nonce - tip
		if gap > thor.MissingIdentityRevisionsMaxBytes {
			return stored, &MergeError{Reason: TooFarInFuture, Nonce: nonce}
		}
		// the old tip is seen, the nonces skipped over are missing
		return pack(nonce, mask<<gap|(1<<(gap-1)-1)), nil
	default:
		pos := tip - nonce
		if pos >= thor.MaxMissingIdentityRevisions {
			return stored, &MergeError{Reason: TooFarInPast, Nonce: nonce}
		}
		bit := uint64(1) << (pos - 1)
		if mask&bit == 0 {
			return stored, &MergeError{Reason: AlreadyPresentInPast, Nonce: nonce, Position: pos}
		}
		return pack(tip, mask&^bit), nil
	}
}
