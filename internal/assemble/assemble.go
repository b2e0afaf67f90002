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

// Package assemble resolves a correlated set into a table: a realized
// timestamp axis and, per requested PV, a column concatenated across blocks
// with null runs where a block carries no sample for that PV (§4.6).
package assemble

import (
	"fmt"
	"time"

	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

// Table is the assembled result. Both StaticTable and DynamicTable satisfy
// it; callers should not care which they got, matching the teacher's
// IdemShim convention of a thin façade type over either an eager or a lazy
// backing store.
type Table interface {
	ColumnCount() int
	RowCount() int
	Duration() time.Duration
	AllocationSize() int64
	Column(pv string) ([]model.Value, error)
	Cell(row int, pv string) (model.Value, error)
	Clear()
}

// Config selects between static and dynamic materialization (§4.6).
type Config struct {
	// StaticMax is the estimated-byte threshold at or below which a static
	// table is produced; above it, a dynamic table is produced.
	StaticMax int64
	// StaticDefault is used when StaticMax is <= 0 (treated as "always
	// static" when true).
	StaticDefault bool
	// DynamicEnabled gates the dynamic-table path entirely (table.
	// dynamic_enabled). When false, Assemble always produces a StaticTable
	// regardless of StaticMax/StaticDefault, e.g. for callers who never
	// intend to hold a table past the correlator's next reset.
	DynamicEnabled bool
}

// Assemble resolves set against the PV list pvs into a Table, picking
// static or dynamic materialization per cfg.
func Assemble(set *model.Set, pvs []string, cfg Config) (Table, error) {
	est := estimateBytes(set, pvs)
	useStatic := cfg.StaticDefault
	if cfg.StaticMax > 0 {
		useStatic = est <= cfg.StaticMax
	}
	if !cfg.DynamicEnabled {
		useStatic = true
	}
	if useStatic {
		return newStaticTable(set, pvs)
	}
	return newDynamicTable(set, pvs), nil
}

// estimateBytes approximates the table's materialized size: one 8-byte
// timestamp per row plus one value slot per requested PV per row.
func estimateBytes(set *model.Set, pvs []string) int64 {
	rows := int64(0)
	for _, blk := range set.Blocks() {
		rows += int64(model.SampleCount(blk.Basis))
	}
	const perCell = 8
	return rows * (8 + int64(len(pvs))*perCell)
}

// realizeAxis concatenates every block's timestamp sequence in start-time
// order to produce the table's global timestamp axis (§4.6 steps 1-2).
func realizeAxis(set *model.Set) []model.Instant {
	var axis []model.Instant
	for _, blk := range set.Blocks() {
		axis = append(axis, model.Timestamps(blk.Basis)...)
	}
	return axis
}

// realizeColumn walks the blocks in order, appending pv's values where
// present and a null run sized to the block's sample count otherwise
// (§4.6 step 3).
func realizeColumn(set *model.Set, pv string) ([]model.Value, error) {
	var out []model.Value
	for _, blk := range set.Blocks() {
		n := model.SampleCount(blk.Basis)
		col, ok := blk.Columns[pv]
		if !ok {
			kind := model.KindFloat64
			for _, c := range blk.Columns {
				kind = c.Type
				break
			}
			for i := 0; i < n; i++ {
				out = append(out, model.NullValue(kind))
			}
			continue
		}
		if len(col.Values) != n {
			return nil, xerr.New(xerr.SizeMismatch, fmt.Sprintf("pv %q: column length %d does not match block sample count %d", pv, len(col.Values), n))
		}
		out = append(out, col.Values...)
	}
	return out, nil
}

func tableDuration(set *model.Set) time.Duration {
	blocks := set.Blocks()
	if len(blocks) == 0 {
		return 0
	}
	first := model.StartOf(blocks[0].Basis)
	last := model.Domain(blocks[len(blocks)-1].Basis).End
	return time.Duration(last.SubNanos(first))
}

func rowCount(set *model.Set) int {
	n := 0
	for _, blk := range set.Blocks() {
		n += model.SampleCount(blk.Basis)
	}
	return n
}
