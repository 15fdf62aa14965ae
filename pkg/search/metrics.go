// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSearch holds Prometheus metrics for sessions and cursors.
type metricsSearch struct {
	once sync.Once

	sessionsOpened  prometheus.Counter
	queries         *prometheus.CounterVec
	rowsRead        prometheus.Counter
	placeholders    prometheus.Counter
	releaseFailures prometheus.Counter

	firstRowDuration prometheus.Histogram
	queryDuration    prometheus.Histogram
}

var searchMetrics metricsSearch

func (m *metricsSearch) init() {
	m.once.Do(func() {
		m.sessionsOpened = prometheus.NewCounter(prometheus.CounterOpts{Name: "scopeq_sessions_opened_total", Help: "Index connections opened"})
		m.queries = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "scopeq_queries_total", Help: "Statements submitted, by outcome"}, []string{"outcome"})
		m.rowsRead = prometheus.NewCounter(prometheus.CounterOpts{Name: "scopeq_rows_read_total", Help: "Result rows decoded"})
		m.placeholders = prometheus.NewCounter(prometheus.CounterOpts{Name: "scopeq_cells_undecodable_total", Help: "Cells replaced by a placeholder after a decode failure"})
		m.releaseFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "scopeq_release_failures_total", Help: "Native releases that failed and were logged"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
		m.firstRowDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "scopeq_first_row_seconds", Help: "Time from submission to the first row", Buckets: buckets})
		m.queryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "scopeq_query_seconds", Help: "Time from submission to cursor close", Buckets: buckets})

		prometheus.MustRegister(
			m.sessionsOpened, m.queries, m.rowsRead, m.placeholders, m.releaseFailures,
			m.firstRowDuration, m.queryDuration,
		)
	})
}

func recordSessionOpened() { searchMetrics.init(); searchMetrics.sessionsOpened.Inc() }
func recordQuery(outcome string) {
	searchMetrics.init()
	searchMetrics.queries.WithLabelValues(outcome).Inc()
}
func recordRow()            { searchMetrics.init(); searchMetrics.rowsRead.Inc() }
func recordPlaceholder()    { searchMetrics.init(); searchMetrics.placeholders.Inc() }
func recordReleaseFailure() { searchMetrics.init(); searchMetrics.releaseFailures.Inc() }

func recordTimings(s Stats) {
	searchMetrics.init()
	searchMetrics.firstRowDuration.Observe(s.FirstRow.Seconds())
	searchMetrics.queryDuration.Observe(s.Elapsed.Seconds())
}
