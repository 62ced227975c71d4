// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package executor

import "github.com/vechain/docstate/metrics"

var (
	metricTransitions   = metrics.LazyLoadCounterVec("executor_transitions_total", []string{"result"})
	metricBlockDuration = metrics.LazyLoadHistogram("executor_block_duration_ms", []int64{10, 50, 100, 250, 500, 1000, 2500})
)
