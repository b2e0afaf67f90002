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

package assemble

import (
	"fmt"
	"time"

	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

// StaticTable fully materializes every requested column in memory at
// assembly time (§4.6: "static is the default when total estimated bytes <=
// static_max").
type StaticTable struct {
	axis     []model.Instant
	columns  map[string][]model.Value
	order    []string
	rows     int
	duration time.Duration
	alloc    int64
}

func newStaticTable(set *model.Set, pvs []string) (*StaticTable, error) {
	axis := realizeAxis(set)
	columns := make(map[string][]model.Value, len(pvs))
	for _, pv := range pvs {
		col, err := realizeColumn(set, pv)
		if err != nil {
			return nil, err
		}
		columns[pv] = col
	}
	return &StaticTable{
		axis:     axis,
		columns:  columns,
		order:    append([]string(nil), pvs...),
		rows:     rowCount(set),
		duration: tableDuration(set),
		alloc:    estimateBytes(set, pvs),
	}, nil
}

// ColumnCount returns the number of requested PV columns.
func (t *StaticTable) ColumnCount() int { return len(t.order) }

// RowCount returns the number of rows on the timestamp axis.
func (t *StaticTable) RowCount() int { return t.rows }

// Duration returns the span from the first to the last realized timestamp.
func (t *StaticTable) Duration() time.Duration { return t.duration }

// AllocationSize returns the estimated byte size computed at assembly time.
func (t *StaticTable) AllocationSize() int64 { return t.alloc }

// Column returns the full materialized column for pv.
func (t *StaticTable) Column(pv string) ([]model.Value, error) {
	col, ok := t.columns[pv]
	if !ok {
		return nil, xerr.New(xerr.Malformed, fmt.Sprintf("column %q was not requested in this table", pv))
	}
	return col, nil
}

// Cell returns the value at (row, pv).
func (t *StaticTable) Cell(row int, pv string) (model.Value, error) {
	col, err := t.Column(pv)
	if err != nil {
		return model.Value{}, err
	}
	if row < 0 || row >= len(col) {
		return model.Value{}, xerr.New(xerr.Malformed, fmt.Sprintf("row %d out of range [0,%d)", row, len(col)))
	}
	return col[row], nil
}

// Clear drops the materialized columns and axis, freeing their memory.
func (t *StaticTable) Clear() {
	t.axis = nil
	t.columns = nil
	t.rows = 0
	t.alloc = 0
}
