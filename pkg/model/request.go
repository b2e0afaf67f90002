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

// StreamKind selects the transport mode a request prefers (§4.3).
type StreamKind int

const (
	StreamUnary StreamKind = iota
	StreamForward
	StreamBidi
)

// String implements fmt.Stringer.
func (k StreamKind) String() string {
	switch k {
	case StreamUnary:
		return "unary"
	case StreamForward:
		return "forward"
	case StreamBidi:
		return "bidi"
	default:
		return "unknown"
	}
}

// Request is an immutable data request, produced by request.DataRequestBuilder
// (§4.1) and consumed by the decomposer.
type Request struct {
	PVs        []string
	Range      Interval
	StreamPref StreamKind
	ID         string
}

// ApproxDomainSize returns |pvs| * duration_seconds, an informational
// budgeting helper (§4.1).
func (r Request) ApproxDomainSize() float64 {
	seconds := float64(r.Range.DurationNanos()) / 1e9
	return float64(len(r.PVs)) * seconds
}
