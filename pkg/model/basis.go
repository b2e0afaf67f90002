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

package model

// BasisTag discriminates the two timestamp-basis shapes.
type BasisTag int

const (
	// BasisClock is a uniform sampling clock: (start, period, count).
	BasisClock BasisTag = iota
	// BasisList is an explicit, strictly increasing, non-empty timestamp list.
	BasisList
)

// Basis is the timestamp schema of a bucket: a tagged union of a uniform
// clock or an explicit timestamp list. Per §9, this is kept as an explicit
// tagged struct with free functions rather than a common base with virtual
// methods.
type Basis struct {
	Tag BasisTag

	// Clock fields, valid when Tag == BasisClock.
	Start      Instant
	PeriodNs   int64
	ClockCount int

	// List fields, valid when Tag == BasisList.
	Timestamps []Instant
}

// NewClockBasis constructs a uniform-clock basis. PeriodNs must be > 0 and
// count must be >= 1; callers at the transport boundary are expected to
// reject malformed buckets before they reach here (see §9 open questions:
// partial buckets are rejected, not repaired).
func NewClockBasis(start Instant, periodNs int64, count int) Basis {
	return Basis{Tag: BasisClock, Start: start, PeriodNs: periodNs, ClockCount: count}
}

// NewListBasis constructs an explicit timestamp-list basis. ts must already
// be strictly increasing and non-empty.
func NewListBasis(ts []Instant) Basis {
	return Basis{Tag: BasisList, Timestamps: ts}
}

// SampleCount returns the basis's sample_count: ClockCount for a clock basis,
// len(Timestamps) for a list basis.
func SampleCount(b Basis) int {
	if b.Tag == BasisClock {
		return b.ClockCount
	}
	return len(b.Timestamps)
}

// Domain returns the basis's covered closed interval.
func Domain(b Basis) Interval {
	if b.Tag == BasisClock {
		end := b.Start.AddNanos(int64(b.ClockCount-1) * b.PeriodNs)
		return Interval{Begin: b.Start, End: end}
	}
	n := len(b.Timestamps)
	if n == 0 {
		return Interval{}
	}
	return Interval{Begin: b.Timestamps[0], End: b.Timestamps[n-1]}
}

// StartOf returns the basis's starting instant, used to order correlated
// blocks (§3: "Correlated set: ... totally ordered by basis.start").
func StartOf(b Basis) Instant {
	if b.Tag == BasisClock {
		return b.Start
	}
	if len(b.Timestamps) == 0 {
		return Instant{}
	}
	return b.Timestamps[0]
}

// Equal reports whether a and b are the same basis: equal field-by-field for
// clocks, element-by-element for lists. Equivalence is the correlation key
// (§3).
func Equal(a, b Basis) bool {
	if a.Tag != b.Tag {
		return false
	}
	if a.Tag == BasisClock {
		return a.Start.Equal(b.Start) && a.PeriodNs == b.PeriodNs && a.ClockCount == b.ClockCount
	}
	if len(a.Timestamps) != len(b.Timestamps) {
		return false
	}
	for i := range a.Timestamps {
		if !a.Timestamps[i].Equal(b.Timestamps[i]) {
			return false
		}
	}
	return true
}

// Timestamps materializes the basis's full timestamp sequence. For a clock
// basis this is realized eagerly here; the assembler may choose to do this
// lazily per §4.6, but the pure function itself is unconditional.
func Timestamps(b Basis) []Instant {
	if b.Tag == BasisList {
		return b.Timestamps
	}
	out := make([]Instant, b.ClockCount)
	cur := b.Start
	for i := 0; i < b.ClockCount; i++ {
		out[i] = cur
		cur = cur.AddNanos(b.PeriodNs)
	}
	return out
}
