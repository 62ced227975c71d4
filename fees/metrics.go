// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import "github.com/vechain/docstate/metrics"

var (
	metricEpochChanges = metrics.LazyLoadCounter("fees_epoch_changes_total")
	metricCurrentEpoch = metrics.LazyLoadGauge("fees_current_epoch")
)
