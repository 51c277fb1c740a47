// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/vechain/tokengrant/metrics"
)

var (
	metricOperationCount = metrics.LazyLoadCounterVec("ledger_operations_count", []string{"op", "outcome"})
	metricGrantCount     = metrics.LazyLoadGauge("ledger_grants_total")
)
