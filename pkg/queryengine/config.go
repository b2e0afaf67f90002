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

// Package queryengine is the service façade (§4.7): it owns the correlator
// and the transport, decomposes and dispatches requests, and exposes
// query_meta, query_data_unary, query_data, query_data_multi and
// query_data_stream as a library surface.
package queryengine

import "time"

// Config collects the named tuning keys of §6 as plain fields, following
// the teacher's convention of a flat configuration struct rather than a
// builder (PipelineOptions, WorkerOptions).
type Config struct {
	// TimeoutLimit/TimeoutUnit bound each correlator pool task
	// (timeout.limit, timeout.unit).
	TimeoutLimit int
	TimeoutUnit  time.Duration

	// ConcurrencyActive/ConcurrencyThreadCount/ConcurrencyPivotSize tune the
	// correlator's serial/parallel insertion switch (concurrency.active,
	// concurrency.thread_count, concurrency.pivot_size).
	ConcurrencyActive      bool
	ConcurrencyThreadCount int
	ConcurrencyPivotSize   int

	// MultistreamMaxStreams/DecompMaxPVs/DecompMaxRange bound the
	// decomposer and orchestrator (multistream.max_streams, decomp.max_pvs,
	// decomp.max_range, nanoseconds).
	MultistreamMaxStreams int
	DecompMaxPVs          int
	DecompMaxRange        int64

	// TableStaticDefault/TableStaticMax/TableDynamicEnabled select the
	// assembler's materialization policy (table.static_default,
	// table.static_max, table.dynamic_enabled).
	TableStaticDefault  bool
	TableStaticMax      int64
	TableDynamicEnabled bool

	// LoggingActive emits structured events (logging.active).
	LoggingActive bool
}

// taskTimeout derives the correlator pool task deadline from TimeoutLimit
// and TimeoutUnit. A non-positive TimeoutUnit defaults to seconds.
func (c Config) taskTimeout() time.Duration {
	unit := c.TimeoutUnit
	if unit <= 0 {
		unit = time.Second
	}
	return time.Duration(c.TimeoutLimit) * unit
}
