// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"github.com/vechain/docstate/state"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
)

// Ledger keeps identity balances and the total of system credits.
type Ledger struct {
	s *storage
}

// NewLedger creates a ledger over the block state.
func NewLedger(st *state.State) *Ledger {
	return &Ledger{&storage{st}}
}

// Balance returns the credits of identity.
func (l *Ledger) Balance(identity thor.Bytes32) (uint64, error) {
	v, _, err := l.s.getUint64(balanceKey(identity))
	return v, err
}

// TotalCredits returns the credits ever topped up minus withdrawn.
func (l *Ledger) TotalCredits() (uint64, error) {
	v, _, err := l.s.getUint64(globalKey(globalTotalCredits))
	return v, err
}

func (l *Ledger) credit(identity thor.Bytes32, amount uint64) error {
	balance, err := l.Balance(identity)
	if err != nil {
		return err
	}
	if balance+amount < balance {
		return validation.NewStateConflict("balance of %v overflows", identity)
	}
	l.s.setUint64(balanceKey(identity), balance+amount)
	return nil
}

func (l *Ledger) debit(identity thor.Bytes32, amount uint64) error {
	balance, err := l.Balance(identity)
	if err != nil {
		return err
	}
	if balance < amount {
		return validation.NewStateConflict("identity %v has insufficient balance %d, requires %d", identity, balance, amount)
	}
	l.s.setUint64(balanceKey(identity), balance-amount)
	return nil
}

// TopUp adds new credits to identity.
func (l *Ledger) TopUp(identity thor.Bytes32, amount uint64) error {
	total, err := l.TotalCredits()
	if err != nil {
		return err
	}
	if total+amount < total {
		return validation.NewStateConflict("total credits overflow")
	}
	if err := l.credit(identity, amount); err != nil {
		return err
	}
	l.s.setUint64(globalKey(globalTotalCredits), total+amount)
	return nil
}

// Withdraw removes credits of identity from the system.
func (l *Ledger) Withdraw(identity thor.Bytes32, amount uint64) error {
	total, err := l.TotalCredits()
	if err != nil {
		return err
	}
	if err := l.debit(identity, amount); err != nil {
		return err
	}
	if total < amount {
		return ErrCorruptedCreditsNotBalanced
	}
	l.s.setUint64(globalKey(globalTotalCredits), total-amount)
	return nil
}

// Charge takes a fee from identity. The caller passes the fee on to the block fees.
func (l *Ledger) Charge(identity thor.Bytes32, amount uint64) error {
	return l.debit(identity, amount)
}

// Refund gives back to identity the part of a storage fee paid in paidEpoch that is
// allocated to the epochs after currentEpoch. The result goes to the block fees.
func (l *Ledger) Refund(identity thor.Bytes32, storageFee uint64, paidEpoch, currentEpoch uint16) (*FeeResult, error) {
	result := &FeeResult{
		FeeRefunds:   CreditsPerEpoch{},
		FreedStorage: CreditsPerEpoch{},
	}
	amount := Allocate(storageFee, paidEpoch).RemainingAfter(currentEpoch)
	if amount == 0 {
		return result, nil
	}
	if err := l.credit(identity, amount); err != nil {
		return nil, err
	}
	result.FeeRefunds.Add(paidEpoch, amount)
	result.FreedStorage.Add(paidEpoch, storageFee)
	return result, nil
}
