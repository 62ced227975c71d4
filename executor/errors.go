// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package executor

import "errors"

var errFinalized = errors.New("executor: flow already finalized")

// IsFinalized returns whether err is caused by using a finalized flow.
func IsFinalized(err error) bool {
	return errors.Is(err, errFinalized)
}
