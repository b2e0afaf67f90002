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

// DynamicTable keeps a reference to the correlated set and the requested PV
// list and realizes columns on demand, caching each as it is first read
// (§4.6: "dynamic ... keeps a reference to S and realizes columns on
// demand"). Used above static_max to avoid materializing every column
// up front.
type DynamicTable struct {
	set   *model.Set
	pvs   map[string]bool
	order []string
	cache map[string][]model.Value
}

func newDynamicTable(set *model.Set, pvs []string) *DynamicTable {
	declared := make(map[string]bool, len(pvs))
	for _, pv := range pvs {
		declared[pv] = true
	}
	return &DynamicTable{
		set:   set,
		pvs:   declared,
		order: append([]string(nil), pvs...),
		cache: make(map[string][]model.Value),
	}
}

// ColumnCount returns the number of requested PV columns.
func (t *DynamicTable) ColumnCount() int { return len(t.order) }

// RowCount realizes the timestamp axis length from the backing set.
func (t *DynamicTable) RowCount() int { return rowCount(t.set) }

// Duration returns the span from the first to the last realized timestamp.
func (t *DynamicTable) Duration() time.Duration { return tableDuration(t.set) }

// AllocationSize estimates the table's size as if fully materialized.
func (t *DynamicTable) AllocationSize() int64 { return estimateBytes(t.set, t.order) }

// Column realizes and caches pv's column from the backing set.
func (t *DynamicTable) Column(pv string) ([]model.Value, error) {
	if !t.pvs[pv] {
		return nil, xerr.New(xerr.Malformed, fmt.Sprintf("column %q was not requested in this table", pv))
	}
	if cached, ok := t.cache[pv]; ok {
		return cached, nil
	}
	col, err := realizeColumn(t.set, pv)
	if err != nil {
		return nil, err
	}
	t.cache[pv] = col
	return col, nil
}

// Cell returns the value at (row, pv), realizing pv's column if needed.
func (t *DynamicTable) Cell(row int, pv string) (model.Value, error) {
	col, err := t.Column(pv)
	if err != nil {
		return model.Value{}, err
	}
	if row < 0 || row >= len(col) {
		return model.Value{}, xerr.New(xerr.Malformed, fmt.Sprintf("row %d out of range [0,%d)", row, len(col)))
	}
	return col[row], nil
}

// Clear drops the realized-column cache; the next Column call re-derives
// from the backing set.
func (t *DynamicTable) Clear() {
	t.cache = make(map[string][]model.Value)
}
