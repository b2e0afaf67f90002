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

// Package request provides mutable builders for data and metadata requests.
// Requests are immutable once built (§4.1); the builders themselves are not
// safe for concurrent use, matching the teacher's PipelineOptions-style
// plain-struct configuration objects.
package request

import (
	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

// DataRequestBuilder accumulates the fields of a data request before it is
// built into an immutable model.Request.
type DataRequestBuilder struct {
	pvOrder    []string
	pvSeen     map[string]struct{}
	begin      *model.Instant
	end        *model.Instant
	streamPref model.StreamKind
	id         string
}

// New returns an empty builder. Any attempt to build before selecting PVs
// and a range fails with the empty-request/unbounded-range errors below.
func New() *DataRequestBuilder {
	return &DataRequestBuilder{pvSeen: make(map[string]struct{})}
}

// SelectPV adds a single PV name to the request's PV set.
func (b *DataRequestBuilder) SelectPV(name string) *DataRequestBuilder {
	if _, ok := b.pvSeen[name]; ok {
		return b
	}
	b.pvSeen[name] = struct{}{}
	b.pvOrder = append(b.pvOrder, name)
	return b
}

// SelectPVs adds multiple PV names to the request's PV set.
func (b *DataRequestBuilder) SelectPVs(names []string) *DataRequestBuilder {
	for _, n := range names {
		b.SelectPV(n)
	}
	return b
}

// RangeBetween bounds the request to [a, b].
func (b *DataRequestBuilder) RangeBetween(a, bEnd model.Instant) *DataRequestBuilder {
	begin, end := a, bEnd
	b.begin = &begin
	b.end = &end
	return b
}

// RangeAfter sets only the lower bound; the upper bound remains unset until
// a later call fills it in, otherwise Build fails with unbounded-range.
func (b *DataRequestBuilder) RangeAfter(a model.Instant) *DataRequestBuilder {
	begin := a
	b.begin = &begin
	return b
}

// RangeBefore sets only the upper bound.
func (b *DataRequestBuilder) RangeBefore(bEnd model.Instant) *DataRequestBuilder {
	end := bEnd
	b.end = &end
	return b
}

// SetStreamType sets the request's transport preference.
func (b *DataRequestBuilder) SetStreamType(kind model.StreamKind) *DataRequestBuilder {
	b.streamPref = kind
	return b
}

// SetID attaches an optional caller-supplied identity to the request.
func (b *DataRequestBuilder) SetID(id string) *DataRequestBuilder {
	b.id = id
	return b
}

// BuildDataRequest validates the accumulated fields and returns an immutable
// Request, or a *xerr.Error of kind Malformed describing the first violation
// found (§4.1): empty PV set, unbounded range (either endpoint unset), or
// inverted range (begin >= end).
func (b *DataRequestBuilder) BuildDataRequest() (model.Request, error) {
	if len(b.pvOrder) == 0 {
		return model.Request{}, xerr.New(xerr.Malformed, "empty request: no PVs selected")
	}
	if b.begin == nil || b.end == nil {
		return model.Request{}, xerr.New(xerr.Malformed, "unbounded range: both begin and end must be set")
	}
	if !b.begin.Before(*b.end) {
		return model.Request{}, xerr.New(xerr.Malformed, "bad range: begin must be strictly before end")
	}
	pvs := make([]string, len(b.pvOrder))
	copy(pvs, b.pvOrder)
	return model.Request{
		PVs:        pvs,
		Range:      model.Interval{Begin: *b.begin, End: *b.end},
		StreamPref: b.streamPref,
		ID:         b.id,
	}, nil
}
