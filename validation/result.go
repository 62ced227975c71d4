// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package validation defines consensus errors and the accumulation of validation results.
package validation

import (
	"strings"

	"github.com/pkg/errors"
)

// Result collects the errors of one or more checks.
// The zero Result is valid.
type Result struct {
	errs []ConsensusError
}

// NewResult creates a result holding errs.
func NewResult(errs ...ConsensusError) Result {
	var r Result
	for _, err := range errs {
		r.Add(err)
	}
	return r
}

// Add appends an error. nil is ignored.
func (r *Result) Add(err ConsensusError) {
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

// IsValid returns whether no error was collected.
func (r Result) IsValid() bool {
	return len(r.errs) == 0
}

// Errors returns the collected errors in order.
func (r Result) Errors() []ConsensusError {
	return r.errs
}

// First returns the first error, nil if valid.
func (r Result) First() ConsensusError {
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[0]
}

// Err summarizes the result as a single error, nil if valid.
func (r Result) Err() error {
	switch len(r.errs) {
	case 0:
		return nil
	case 1:
		return r.errs[0]
	}
	return &Errors{r.errs}
}

// Merge folds results into one, keeping every error in order.
func Merge(results ...Result) Result {
	var merged Result
	for _, r := range results {
		merged.errs = append(merged.errs, r.errs...)
	}
	return merged
}

// Errors is the summary of several consensus errors.
type Errors struct {
	Errs []ConsensusError
}

func (e *Errors) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *Errors) Unwrap() []error {
	errs := make([]error, 0, len(e.Errs))
	for _, err := range e.Errs {
		errs = append(errs, err)
	}
	return errs
}

// Kind returns the most severe kind among the errors.
func (e *Errors) Kind() Kind {
	var k Kind
	for _, err := range e.Errs {
		if err.Kind() == Corruption {
			return Corruption
		}
		if err.Kind() == Protocol || (err.Kind() == StateConflict && k == Structural) {
			k = err.Kind()
		}
	}
	return k
}

// KindOf returns the kind of a consensus error in err's chain.
func KindOf(err error) (Kind, bool) {
	var ce ConsensusError
	if errors.As(err, &ce) {
		return ce.Kind(), true
	}
	return 0, false
}
