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

import (
	"fmt"
	"sort"

	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
)

// Block is a correlated block: a basis paired with one column per PV that
// shares it. Per §3, len(Columns) >= 1 and every column's length equals
// basis.sample_count.
type Block struct {
	Basis   Basis
	Columns map[string]Column
}

// NewBlock seeds a block from its first bucket.
func NewBlock(b Bucket) *Block {
	return &Block{
		Basis:   b.Basis,
		Columns: map[string]Column{b.Column.PVName: b.Column},
	}
}

// AddColumn adds col to the block, rejecting a PV that is already present
// (§4.5 insert_bucket: "rejecting duplicate PV with duplicate-series error").
func (blk *Block) AddColumn(col Column) error {
	if _, exists := blk.Columns[col.PVName]; exists {
		return xerr.New(xerr.DuplicateSeries, fmt.Sprintf("pv %q already present in block", col.PVName))
	}
	blk.Columns[col.PVName] = col
	return nil
}

// Set is the ordered collection of correlated blocks that covers a query's
// result, kept sorted by Basis.Start throughout its lifetime (§3 Correlated
// set, §4.5 state).
type Set struct {
	blocks []*Block
}

// NewSet returns an empty, ordered correlated set.
func NewSet() *Set { return &Set{} }

// Len returns the number of blocks currently in the set.
func (s *Set) Len() int { return len(s.blocks) }

// Blocks returns the set's blocks in start-time order. The returned slice
// must not be mutated by the caller (§4.5 correlated_set: "returns a borrow
// of S; caller must not mutate").
func (s *Set) Blocks() []*Block { return s.blocks }

// Find returns the block whose basis equals basis, or nil if none matches.
func (s *Set) Find(basis Basis) *Block {
	for _, blk := range s.blocks {
		if Equal(blk.Basis, basis) {
			return blk
		}
	}
	return nil
}

// Insert inserts blk keeping the set ordered by Basis.Start. Callers are
// responsible for having already verified blk's basis has no existing match
// (see Find) and that its domain does not intersect any existing block
// (disjointness is the caller's responsibility during merge, not enforced
// here, to keep Insert O(log n + n) without re-validating work already done).
func (s *Set) Insert(blk *Block) {
	start := StartOf(blk.Basis)
	idx := sort.Search(len(s.blocks), func(i int) bool {
		return !StartOf(s.blocks[i].Basis).Before(start)
	})
	s.blocks = append(s.blocks, nil)
	copy(s.blocks[idx+1:], s.blocks[idx:])
	s.blocks[idx] = blk
}

// Reset clears the set in place.
func (s *Set) Reset() { s.blocks = nil }

// Clone returns a shallow copy of the set's block-pointer slice — enough for
// callers who need to stop observing future mutation without deep-copying
// block contents.
func (s *Set) Clone() *Set {
	out := &Set{blocks: make([]*Block, len(s.blocks))}
	copy(out.blocks, s.blocks)
	return out
}
