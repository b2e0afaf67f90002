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

// Package decompose splits one logical request into transport-level
// sub-requests for concurrency (§4.2).
package decompose

import (
	"fmt"

	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

// Strategy selects how a request's domain is partitioned.
type Strategy int

const (
	// Horizontal partitions PVs evenly across sub-requests, same time range.
	Horizontal Strategy = iota
	// Vertical partitions the time range into equal contiguous sub-intervals,
	// same PV set.
	Vertical
	// Grid is the cross-product of Horizontal and Vertical.
	Grid
)

// Caps bounds the decomposition's output. A cap violation triggers further
// over-splitting (§4.2) rather than a hard failure.
type Caps struct {
	// MaxStreams is not applied by Decompose: the number of sub-requests is
	// set by targetCount and by over-splitting for the other two caps.
	MaxStreams     int
	MaxPVsPerSub   int
	MaxRangePerSub int64 // nanoseconds; 0 means unbounded
}

// Decompose splits req into sub-requests per strategy/targetCount, covering
// the original domain exactly once, then over-splits any sub-request that
// still violates caps. Stream preference and ID are preserved on every
// sub-request.
func Decompose(req model.Request, strategy Strategy, targetCount int, caps Caps) ([]model.Request, error) {
	if targetCount < 1 {
		targetCount = 1
	}
	var subs []model.Request
	switch strategy {
	case Horizontal:
		subs = splitHorizontal(req, targetCount)
	case Vertical:
		subs = splitVertical(req, targetCount)
	case Grid:
		rows, cols, err := factor(targetCount)
		if err != nil {
			return nil, err
		}
		subs = splitGrid(req, rows, cols)
	default:
		return nil, xerr.New(xerr.Malformed, fmt.Sprintf("decompose: unknown strategy %d", strategy))
	}
	return enforceCaps(subs, caps), nil
}

// factor finds a rows*cols=target factoring with rows>1 and cols>1, required
// to be >= 4 and factorable per §4.2 ("target count must be >= 4 and
// factorable; callers must supply the factoring"). We pick the factor pair
// closest to square, smaller factor first.
func factor(target int) (rows, cols int, err error) {
	if target < 4 {
		return 0, 0, xerr.New(xerr.Malformed, "grid decomposition requires a target count >= 4")
	}
	best := -1
	for f := 2; f*f <= target; f++ {
		if target%f == 0 {
			best = f
		}
	}
	if best == -1 {
		return 0, 0, xerr.New(xerr.Malformed, fmt.Sprintf("grid decomposition target %d is not factorable into rows>1, cols>1", target))
	}
	return best, target / best, nil
}

func splitHorizontal(req model.Request, n int) []model.Request {
	if n > len(req.PVs) {
		n = len(req.PVs)
	}
	if n < 1 {
		n = 1
	}
	quotient := len(req.PVs) / n
	out := make([]model.Request, 0, n)
	idx := 0
	for i := 0; i < n; i++ {
		size := quotient
		if i == n-1 {
			size = len(req.PVs) - idx // last absorbs remainder
		}
		pvs := make([]string, size)
		copy(pvs, req.PVs[idx:idx+size])
		idx += size
		out = append(out, model.Request{
			PVs:        pvs,
			Range:      req.Range,
			StreamPref: req.StreamPref,
			ID:         req.ID,
		})
	}
	return out
}

func splitVertical(req model.Request, n int) []model.Request {
	if n < 1 {
		n = 1
	}
	total := req.Range.DurationNanos()
	step := total / int64(n)
	out := make([]model.Request, 0, n)
	cur := req.Range.Begin
	for i := 0; i < n; i++ {
		var end model.Instant
		if i == n-1 {
			end = req.Range.End // last absorbs remainder
		} else {
			end = cur.AddNanos(step)
		}
		out = append(out, model.Request{
			PVs:        append([]string(nil), req.PVs...),
			Range:      model.Interval{Begin: cur, End: end},
			StreamPref: req.StreamPref,
			ID:         req.ID,
		})
		cur = end
	}
	return out
}

func splitGrid(req model.Request, rows, cols int) []model.Request {
	horiz := splitHorizontal(req, rows)
	out := make([]model.Request, 0, rows*cols)
	for _, h := range horiz {
		out = append(out, splitVertical(h, cols)...)
	}
	return out
}

// enforceCaps recursively over-splits any sub-request that still violates
// MaxPVsPerSub or MaxRangePerSub, per §4.2: "the decomposer may over-split
// (split further horizontally then vertically) to respect caps while
// preserving coverage and disjointness."
func enforceCaps(subs []model.Request, caps Caps) []model.Request {
	out := make([]model.Request, 0, len(subs))
	for _, s := range subs {
		out = append(out, splitToFit(s, caps)...)
	}
	return out
}

func splitToFit(r model.Request, caps Caps) []model.Request {
	if caps.MaxPVsPerSub > 0 && len(r.PVs) > caps.MaxPVsPerSub {
		n := ceilDiv(len(r.PVs), caps.MaxPVsPerSub)
		var out []model.Request
		for _, h := range splitHorizontal(r, n) {
			out = append(out, splitToFit(h, caps)...)
		}
		return out
	}
	if caps.MaxRangePerSub > 0 && r.Range.DurationNanos() > caps.MaxRangePerSub {
		n := ceilDiv64(r.Range.DurationNanos(), caps.MaxRangePerSub)
		var out []model.Request
		for _, v := range splitVertical(r, n) {
			out = append(out, splitToFit(v, caps)...)
		}
		return out
	}
	return []model.Request{r}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 1
	}
	return (a + b - 1) / b
}

func ceilDiv64(a, b int64) int {
	if b <= 0 {
		return 1
	}
	n := (a + b - 1) / b
	if n < 1 {
		n = 1
	}
	return int(n)
}
