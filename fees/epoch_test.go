// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEpochInfo(t *testing.T) {
	ptr := func(v uint64) *uint64 { return &v }
	idx := func(v uint16) *uint16 { return &v }

	tests := []struct {
		name     string
		block    uint64
		previous *uint64
		want     EpochInfo
		wantErr  bool
	}{
		{"genesis", 1000, nil, EpochInfo{Index: 0, IsChange: true}, false},
		{"first block later", 1350, nil, EpochInfo{Index: 3, IsChange: true}, false},
		{"change", 1250, ptr(1150), EpochInfo{Index: 2, PreviousIndex: idx(1), IsChange: true}, false},
		{"same epoch", 1290, ptr(1250), EpochInfo{Index: 2, PreviousIndex: idx(2)}, false},
		{"skipped epochs", 1900, ptr(1250), EpochInfo{Index: 9, PreviousIndex: idx(2), IsChange: true}, false},
		{"before genesis", 999, nil, EpochInfo{}, true},
		{"parent after block", 1200, ptr(1300), EpochInfo{}, true},
		{"out of range", 1000 + 100*65536, nil, EpochInfo{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEpochInfo(1000, 100, tt.block, tt.previous)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NewEpochInfo(1000, 0, 1000, nil)
	assert.Error(t, err)
}

func TestEpochUnpaid(t *testing.T) {
	e := &Epoch{ProcessingFeePool: 70, StorageFeePool: 30, Paid: 40}
	unpaid, err := e.Unpaid()
	assert.NoError(t, err)
	assert.Equal(t, uint64(60), unpaid)

	e.Paid = 101
	_, err = e.Unpaid()
	assert.Error(t, err)
}
