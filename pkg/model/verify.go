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

// VerifyOrdering reports whether s's blocks have strictly increasing start
// times (§4.5 verify_ordering).
func VerifyOrdering(s *Set) bool {
	blocks := s.Blocks()
	for i := 1; i < len(blocks); i++ {
		if !StartOf(blocks[i-1].Basis).Before(StartOf(blocks[i].Basis)) {
			return false
		}
	}
	return true
}

// VerifyDisjointDomains reports whether no two adjacent blocks' domains
// intersect-closed. Ordering makes adjacency sufficient (§4.5
// verify_disjoint_domains).
func VerifyDisjointDomains(s *Set) bool {
	blocks := s.Blocks()
	for i := 1; i < len(blocks); i++ {
		if Domain(blocks[i-1].Basis).IntersectsClosed(Domain(blocks[i].Basis)) {
			return false
		}
	}
	return true
}

// VerifyColumnSizes reports whether every column in every block has a length
// equal to its block's basis sample count (§4.5 verify_column_sizes).
func VerifyColumnSizes(s *Set) bool {
	for _, blk := range s.Blocks() {
		want := SampleCount(blk.Basis)
		for _, col := range blk.Columns {
			if len(col.Values) != want {
				return false
			}
		}
	}
	return true
}

// VerifyPVUniqueness reports whether each block's PV names are unique. This
// holds trivially given Columns is a map keyed by PV name, but is exposed so
// tests can assert the invariant explicitly per §8.
func VerifyPVUniqueness(s *Set) bool {
	for _, blk := range s.Blocks() {
		seen := make(map[string]struct{}, len(blk.Columns))
		for pv := range blk.Columns {
			if _, dup := seen[pv]; dup {
				return false
			}
			seen[pv] = struct{}{}
		}
	}
	return true
}
