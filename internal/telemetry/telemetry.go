// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry provides opt-in, low-overhead logging and metrics for
// the query engine. Safe to call from hot paths: when disabled, logging is
// a no-op and metric updates are cheap atomic Prometheus operations that
// simply accumulate unread.
package telemetry

import (
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config controls whether structured logging is active. Metrics are always
// registered but cost nothing material to update when nobody scrapes them.
type Config struct {
	Enabled bool
}

var (
	logEnabled atomic.Bool
	logger     = log.New(os.Stderr, "dp-query-engine: ", log.LstdFlags|log.Lmicroseconds)

	bytesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dpqe_bytes_processed_total",
		Help: "Total estimated bytes of bucket data accepted by correlators",
	})
	correlatedBlocksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dpqe_correlated_blocks",
		Help: "Number of correlated blocks in the most recently completed correlation",
	})
	subRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dpqe_sub_requests_total",
		Help: "Total sub-requests dispatched by the orchestrator",
	})
	streamFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dpqe_stream_failures_total",
		Help: "Total ingester failures across all streams",
	})
	queryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dpqe_query_duration_seconds",
		Help:    "Duration of completed query_data-family calls",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		bytesProcessedTotal,
		correlatedBlocksGauge,
		subRequestsTotal,
		streamFailuresTotal,
		queryDuration,
	)
}

// Enable configures logging activity. Safe to call multiple times.
func Enable(cfg Config) {
	logEnabled.Store(cfg.Enabled)
}

// Active reports whether logging is currently enabled.
func Active() bool { return logEnabled.Load() }

// Logf logs a formatted message when logging is active; otherwise a no-op.
func Logf(format string, args ...any) {
	if !logEnabled.Load() {
		return
	}
	logger.Printf(format, args...)
}

// ObserveBytesProcessed adds n to the cumulative bytes-processed counter.
func ObserveBytesProcessed(n int64) {
	if n <= 0 {
		return
	}
	bytesProcessedTotal.Add(float64(n))
}

// ObserveCorrelatedBlocks sets the correlated-block gauge to n.
func ObserveCorrelatedBlocks(n int) {
	correlatedBlocksGauge.Set(float64(n))
}

// ObserveSubRequests adds n to the sub-requests-dispatched counter.
func ObserveSubRequests(n int) {
	if n <= 0 {
		return
	}
	subRequestsTotal.Add(float64(n))
}

// ObserveStreamFailure increments the stream-failure counter.
func ObserveStreamFailure() {
	streamFailuresTotal.Inc()
}

// ObserveQueryDuration records d as a completed query's duration.
func ObserveQueryDuration(d time.Duration) {
	queryDuration.Observe(d.Seconds())
}
