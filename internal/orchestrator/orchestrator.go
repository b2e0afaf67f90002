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

// Package orchestrator fans a decomposed request out across concurrently
// running ingesters, bounding concurrency to max_streams, and joins their
// completion per §4.4. It follows storj's convention of pairing
// errgroup.Group (join + first-error propagation) with a semaphore.Weighted
// (bounding fan-out), since the teacher repo itself drives its worker pool
// with a plain channel and WaitGroup rather than errgroup.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/osprey-dcs/dp-query-engine/internal/ingest"
	"github.com/osprey-dcs/dp-query-engine/internal/transport"
	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

// Config bounds the orchestrator's concurrency and failure policy.
type Config struct {
	// MaxStreams caps how many ingesters run concurrently. Values <= 0 are
	// treated as 1.
	MaxStreams int
	// FailFast, when true, cancels all running ingesters as soon as one
	// sub-request fails and returns the first error. When false, all
	// sub-requests run to completion (or their own cancellation) and every
	// error is collected.
	FailFast bool
}

// Result is the orchestrator's outcome: the completed ingestion and an
// aggregate error (nil on full success).
type Result struct {
	Completed int
	Errs      []error
}

// Run decomposes nothing itself — it takes already-split sub-requests and
// drives one ingester per sub-request, delivering every bucket to sink.
// Concurrency is bounded to min(len(subs), cfg.MaxStreams) (§4.4).
func Run(ctx context.Context, t transport.Transport, subs []model.Request, sink ingest.Sink, cfg Config) Result {
	maxStreams := cfg.MaxStreams
	if maxStreams <= 0 {
		maxStreams = 1
	}
	if maxStreams > len(subs) {
		maxStreams = len(subs)
	}
	if maxStreams < 1 {
		return Result{}
	}

	sem := semaphore.NewWeighted(int64(maxStreams))
	grp, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var errs []error
	var completed int
	registry := &ingesterRegistry{}

	for i, sub := range subs {
		sub := sub
		idx := i
		grp.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return xerr.Wrap(xerr.Cancelled, "orchestrator: acquire slot", err)
			}
			defer sem.Release(1)

			g := ingest.New(t, sub, sink)
			registry.add(g)

			runErr := g.Run(gctx)

			mu.Lock()
			if runErr != nil {
				errs = append(errs, fmt.Errorf("sub-request %d: %w", idx, runErr))
			} else {
				completed++
			}
			mu.Unlock()

			if runErr != nil && cfg.FailFast {
				registry.cancelAll()
				return runErr
			}
			return nil
		})
	}

	_ = grp.Wait()

	return Result{Completed: completed, Errs: errs}
}

// ingesterRegistry tracks every ingester spawned so far, guarded by its own
// lock, so fail_fast cancellation never reads the slice header concurrently
// with an append from another goroutine.
type ingesterRegistry struct {
	mu        sync.Mutex
	ingesters []*ingest.Ingester
}

func (r *ingesterRegistry) add(g *ingest.Ingester) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingesters = append(r.ingesters, g)
}

func (r *ingesterRegistry) cancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.ingesters {
		g.Cancel()
	}
}
