// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validation

import (
	"fmt"
	"strings"

	"github.com/vechain/docstate/thor"
)

// Kind classifies consensus errors.
type Kind uint8

const (
	// Structural errors are malformed input relative to the schema.
	Structural = Kind(iota)
	// Protocol errors are unknown structure versions.
	Protocol
	// StateConflict errors conflict with current state, resubmission may succeed.
	StateConflict
	// Corruption errors are broken invariants and must halt processing.
	Corruption
)

func (k Kind) String() string {
	switch k {
	case Structural:
		return "structural"
	case Protocol:
		return "protocol"
	case StateConflict:
		return "state-conflict"
	case Corruption:
		return "corruption"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ConsensusError is an error every node must agree on.
type ConsensusError interface {
	error
	Kind() Kind
}

// FieldRequirementUnmetError is returned when a field value does not satisfy its definition.
type FieldRequirementUnmetError struct {
	Field  string
	Reason string
}

func (e *FieldRequirementUnmetError) Error() string {
	return fmt.Sprintf("field requirement unmet for %s: %s", e.Field, e.Reason)
}

func (e *FieldRequirementUnmetError) Kind() Kind { return Structural }

// DocumentTypeFieldNotFoundError is returned for fields a document type does not define.
type DocumentTypeFieldNotFoundError struct {
	DocumentType string
	Field        string
}

func (e *DocumentTypeFieldNotFoundError) Error() string {
	return fmt.Sprintf("document type %s has no field %s", e.DocumentType, e.Field)
}

func (e *DocumentTypeFieldNotFoundError) Kind() Kind { return Structural }

// MissingRequiredKeyError is returned when a required key is absent.
type MissingRequiredKeyError struct {
	Key string
}

func (e *MissingRequiredKeyError) Error() string {
	return fmt.Sprintf("missing required key %s", e.Key)
}

func (e *MissingRequiredKeyError) Kind() Kind { return Structural }

// UnknownVersionMismatchError is returned for structure versions this node does not know.
type UnknownVersionMismatchError struct {
	Method   string
	Known    []uint32
	Received uint32
}

func (e *UnknownVersionMismatchError) Error() string {
	return fmt.Sprintf("%s: unknown version %d, known versions %v", e.Method, e.Received, e.Known)
}

func (e *UnknownVersionMismatchError) Kind() Kind { return Protocol }

// DuplicateUniqueIndexError is returned when a document would collide on a unique index.
type DuplicateUniqueIndexError struct {
	DocumentID  thor.Bytes32
	IndexName   string
	Fields      []string
	Contestable bool // the index allows contesting the conflicting values
}

func (e *DuplicateUniqueIndexError) Error() string {
	return fmt.Sprintf("document %s has duplicate unique properties [%s] with other documents (index %s)",
		e.DocumentID, strings.Join(e.Fields, ", "), e.IndexName)
}

func (e *DuplicateUniqueIndexError) Kind() Kind { return StateConflict }

// StateConflictError is a generic conflict with current state.
type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string { return e.Reason }

func (e *StateConflictError) Kind() Kind { return StateConflict }

// NewStateConflict creates a StateConflictError.
func NewStateConflict(format string, args ...any) *StateConflictError {
	return &StateConflictError{fmt.Sprintf(format, args...)}
}

// CorruptedError reports a broken state invariant.
type CorruptedError struct {
	Reason string
}

func (e *CorruptedError) Error() string { return "corrupted state: " + e.Reason }

func (e *CorruptedError) Kind() Kind { return Corruption }

// InvalidTransitionError is returned for state transitions that are malformed regardless of state.
type InvalidTransitionError struct {
	Reason string
}

func (e *InvalidTransitionError) Error() string { return "invalid transition: " + e.Reason }

func (e *InvalidTransitionError) Kind() Kind { return Structural }
