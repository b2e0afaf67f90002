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

// Package correlate is the heart of the engine: it groups incoming buckets
// into correlated blocks sharing an identical timestamp basis (§4.5).
package correlate

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-rendezvous"
	"golang.org/x/sync/errgroup"

	"github.com/osprey-dcs/dp-query-engine/internal/ingest"
	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

// Config tunes the pivot-based serial/parallel insertion strategy.
type Config struct {
	// Pivot is the |S| threshold at or above which insert_frame switches to
	// the parallel match phase, when concurrency is enabled.
	Pivot int
	// ThreadCount is the number of shards the parallel match phase fans out
	// across.
	ThreadCount int
	// Timeout bounds each shard's match task. Zero means no timeout.
	Timeout time.Duration
}

// Correlator holds the sorted set S and the counters described in §4.5. The
// zero value is not usable; construct with New. A *Correlator satisfies
// ingest.Sink via InsertBucket, so it can be handed directly to an
// orchestrator run.
type Correlator struct {
	mu            sync.Mutex
	cfg           Config
	set           *model.Set
	bytesTotal    int64
	concurrencyOn bool
}

var _ ingest.Sink = (*Correlator)(nil)

// New returns an empty correlator with concurrency disabled.
func New(cfg Config) *Correlator {
	return &Correlator{cfg: cfg, set: model.NewSet()}
}

// SetConcurrency atomically toggles the parallel insertion path. The change
// applies to the next insert, not any in flight.
func (c *Correlator) SetConcurrency(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.concurrencyOn = enabled
}

// InsertBucket locates the block whose basis equals b.Basis and adds
// b.Column to it, or creates a new block seeded with b if none matches.
func (c *Correlator) InsertBucket(b model.Bucket) error {
	if err := b.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertBucketLocked(b)
}

func (c *Correlator) insertBucketLocked(b model.Bucket) error {
	if blk := c.set.Find(b.Basis); blk != nil {
		if err := blk.AddColumn(b.Column); err != nil {
			return err
		}
	} else {
		c.set.Insert(model.NewBlock(b))
	}
	c.bytesTotal += estimateBucketBytes(b)
	return nil
}

// InsertFrame bulk-inserts every bucket in the frame. Below the pivot, or
// with concurrency disabled, insertion is serial (§4.5). At or above the
// pivot with concurrency enabled, buckets are sharded across ThreadCount
// workers for a read-only match pass against the current S, then applied in
// a single serial merge pass that preserves the disjoint-domain invariant.
func (c *Correlator) InsertFrame(buckets []model.Bucket) error {
	for _, b := range buckets {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(buckets) == 0 {
		return nil
	}
	if !c.concurrencyOn || c.set.Len() < c.cfg.Pivot {
		for _, b := range buckets {
			if err := c.insertBucketLocked(b); err != nil {
				return err
			}
		}
		return nil
	}
	return c.insertFrameParallel(buckets)
}

type matchResult struct {
	bucket model.Bucket
	block  *model.Block
}

func (c *Correlator) insertFrameParallel(buckets []model.Bucket) error {
	shards := c.cfg.ThreadCount
	if shards < 1 {
		shards = 1
	}
	if shards > len(buckets) {
		shards = len(buckets)
	}

	nodes := make([]string, shards)
	for i := range nodes {
		nodes[i] = strconv.Itoa(i)
	}
	rv := rendezvous.New(nodes, xxhash.Sum64String)

	byShard := make([][]model.Bucket, shards)
	for _, b := range buckets {
		node := rv.Lookup(shardKey(b))
		idx, err := strconv.Atoi(node)
		if err != nil || idx < 0 || idx >= shards {
			idx = 0
		}
		byShard[idx] = append(byShard[idx], b)
	}

	results := make([][]matchResult, shards)
	grp, gctx := errgroup.WithContext(context.Background())
	for i := 0; i < shards; i++ {
		i := i
		grp.Go(func() error {
			taskCtx := gctx
			if c.cfg.Timeout > 0 {
				var cancel context.CancelFunc
				taskCtx, cancel = context.WithTimeout(gctx, c.cfg.Timeout)
				defer cancel()
			}
			out := make([]matchResult, 0, len(byShard[i]))
			for _, b := range byShard[i] {
				select {
				case <-taskCtx.Done():
					return xerr.Wrap(xerr.CompletionFailure, "correlator: shard match task timed out", taskCtx.Err())
				default:
				}
				out = append(out, matchResult{bucket: b, block: c.set.Find(b.Basis)})
			}
			results[i] = out
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	for _, shardResults := range results {
		for _, r := range shardResults {
			if r.block != nil {
				if err := r.block.AddColumn(r.bucket.Column); err != nil {
					return err
				}
				c.bytesTotal += estimateBucketBytes(r.bucket)
				continue
			}
			if err := c.insertBucketLocked(r.bucket); err != nil {
				return err
			}
		}
	}
	return nil
}

// CorrelatedSet returns a borrow of S; the caller must not mutate it and
// must consume it before the next Reset.
func (c *Correlator) CorrelatedSet() *model.Set {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set
}

// Reset clears S and the bytes-processed counter atomically.
func (c *Correlator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set.Reset()
	c.bytesTotal = 0
}

// BytesProcessed returns the monotonically increasing total of bucket bytes
// accepted so far.
func (c *Correlator) BytesProcessed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytesTotal
}

func shardKey(b model.Bucket) string {
	return fmt.Sprintf("%s@%s", b.Column.PVName, model.StartOf(b.Basis).String())
}

func estimateBucketBytes(b model.Bucket) int64 {
	n := model.SampleCount(b.Basis)
	const perValue = 8
	return int64(n) * perValue
}
