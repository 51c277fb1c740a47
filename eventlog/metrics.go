// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

import (
	"strings"

	"github.com/vechain/tokengrant/metrics"
)

var (
	metricCriteriaLengthBucket = metrics.LazyLoadHistogramVec("eventlog_criteria_length_bucket", []string{"type"}, []int64{0, 2, 5, 10, 25, 100, 1000})
	metricQueryParameters      = metrics.LazyLoadCounterVec("eventlog_query_parameters", []string{"parameters"})
	metricQueryOrderCounter    = metrics.LazyLoadCounterVec("eventlog_query_order", []string{"order"})
	metricOffsetBucket         = metrics.LazyLoadHistogramVec("eventlog_query_offset_bucket", []string{"type"}, []int64{
		0, 1_000, 5_000, 10_000, 25_000, 50_000, 100_000, 250_000, 500_000, 1_000_000,
	})
	metricLimitBucket = metrics.LazyLoadHistogramVec("eventlog_query_limit_bucket", []string{"type"}, []int64{
		0, 5, 10, 25, 50, 100, 250, 500, 1000,
	})
	metricInsertedCount = metrics.LazyLoadCounter("eventlog_inserted_count")
)

func metricsHandleFilter(filter *Filter) {
	if metrics.NoOp() {
		return
	}

	metricCriteriaLengthBucket().ObserveWithLabels(int64(len(filter.CriteriaSet)), map[string]string{"type": "event"})

	if filter.Order == DESC {
		metricQueryOrderCounter().AddWithLabel(1, map[string]string{"order": "desc"})
	} else {
		metricQueryOrderCounter().AddWithLabel(1, map[string]string{"order": "asc"})
	}

	if filter.Options != nil {
		offset := min(filter.Options.Offset, 1_000_001)
		metricOffsetBucket().ObserveWithLabels(int64(offset), map[string]string{"type": "event"})

		limit := min(filter.Options.Limit, 1001)
		metricLimitBucket().ObserveWithLabels(int64(limit), map[string]string{"type": "event"})
	}

	for _, c := range filter.CriteriaSet {
		paramsUsed := make([]string, 0, 3)
		if c.GrantID != nil {
			paramsUsed = append(paramsUsed, "grantId")
		}
		if c.Account != nil {
			paramsUsed = append(paramsUsed, "account")
		}
		if c.Type != nil {
			paramsUsed = append(paramsUsed, "type")
		}
		metricQueryParameters().AddWithLabel(1, map[string]string{"parameters": strings.Join(paramsUsed, ",")})
	}
}
