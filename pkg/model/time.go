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

// Package model defines the archive's data model: time instants and
// intervals, timestamp bases, value columns, buckets, and correlated blocks.
package model

import "fmt"

// Instant is a point in time expressed as seconds since epoch plus a
// nanosecond remainder in [0, 1e9). Instants are totally ordered
// lexicographically on (Seconds, Nanos).
type Instant struct {
	Seconds int64
	Nanos   int32
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func (a Instant) Compare(b Instant) int {
	switch {
	case a.Seconds < b.Seconds:
		return -1
	case a.Seconds > b.Seconds:
		return 1
	case a.Nanos < b.Nanos:
		return -1
	case a.Nanos > b.Nanos:
		return 1
	default:
		return 0
	}
}

// Before reports whether a is strictly earlier than b.
func (a Instant) Before(b Instant) bool { return a.Compare(b) < 0 }

// After reports whether a is strictly later than b.
func (a Instant) After(b Instant) bool { return a.Compare(b) > 0 }

// Equal reports whether a and b denote the same instant.
func (a Instant) Equal(b Instant) bool { return a.Compare(b) == 0 }

// AddNanos returns the instant n nanoseconds after a, normalizing the
// nanosecond remainder back into [0, 1e9).
func (a Instant) AddNanos(n int64) Instant {
	total := int64(a.Nanos) + n
	sec := a.Seconds + total/1_000_000_000
	nanos := total % 1_000_000_000
	if nanos < 0 {
		nanos += 1_000_000_000
		sec--
	}
	return Instant{Seconds: sec, Nanos: int32(nanos)}
}

// SubNanos returns the signed nanosecond distance from b to a (a - b).
func (a Instant) SubNanos(b Instant) int64 {
	return (a.Seconds-b.Seconds)*1_000_000_000 + int64(a.Nanos-b.Nanos)
}

// String renders the instant as "seconds.nanos" for diagnostics.
func (a Instant) String() string {
	return fmt.Sprintf("%d.%09d", a.Seconds, a.Nanos)
}

// Interval is a closed time range [Begin, End] with Begin <= End.
type Interval struct {
	Begin Instant
	End   Instant
}

// Valid reports whether Begin <= End.
func (iv Interval) Valid() bool { return !iv.End.Before(iv.Begin) }

// IntersectsClosed reports whether iv and other share any point, endpoints
// included.
func (iv Interval) IntersectsClosed(other Interval) bool {
	return !iv.End.Before(other.Begin) && !other.End.Before(iv.Begin)
}

// DurationNanos returns End - Begin in nanoseconds.
func (iv Interval) DurationNanos() int64 { return iv.End.SubNanos(iv.Begin) }
