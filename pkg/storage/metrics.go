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

package storage

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsCrawl holds Prometheus metrics for directory crawls.
type metricsCrawl struct {
	once sync.Once

	files    prometheus.Counter
	skipped  *prometheus.CounterVec
	duration prometheus.Histogram
}

var crawlMetrics metricsCrawl

func (m *metricsCrawl) init() {
	m.once.Do(func() {
		m.files = prometheus.NewCounter(prometheus.CounterOpts{Name: "scopeq_crawl_files_total", Help: "Files upserted by crawls"})
		m.skipped = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "scopeq_crawl_skipped_total", Help: "Entries skipped by crawls, by reason"}, []string{"reason"})

		buckets := []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300}
		m.duration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "scopeq_crawl_seconds", Help: "Duration of a full crawl", Buckets: buckets})

		prometheus.MustRegister(m.files, m.skipped, m.duration)
	})
}

func recordCrawlFile() { crawlMetrics.init(); crawlMetrics.files.Inc() }
func recordCrawlSkip(reason string) {
	crawlMetrics.init()
	crawlMetrics.skipped.WithLabelValues(reason).Inc()
}
func recordCrawlDuration(d time.Duration) {
	crawlMetrics.init()
	crawlMetrics.duration.Observe(d.Seconds())
}
