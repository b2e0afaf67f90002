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
	"testing"

	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

func clockBlock(startSec int64, count int, cols map[string]float64) *model.Block {
	basis := model.NewClockBasis(model.Instant{Seconds: startSec}, 1_000_000_000, count)
	blk := &model.Block{Basis: basis, Columns: make(map[string]model.Column)}
	for pv, v := range cols {
		values := make([]model.Value, count)
		for i := range values {
			values[i] = model.Value{Kind: model.KindFloat64, Float64: v + float64(i)}
		}
		blk.Columns[pv] = model.Column{PVName: pv, Type: model.KindFloat64, Values: values}
	}
	return blk
}

func setOf(blocks ...*model.Block) *model.Set {
	s := model.NewSet()
	for _, b := range blocks {
		s.Insert(b)
	}
	return s
}

func TestAssembleStaticFillsNullRuns(t *testing.T) {
	set := setOf(
		clockBlock(0, 2, map[string]float64{"pv1": 1, "pv2": 10}),
		clockBlock(10, 3, map[string]float64{"pv1": 2}), // pv2 missing here
	)
	table, err := Assemble(set, []string{"pv1", "pv2"}, Config{StaticDefault: true})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if table.RowCount() != 5 {
		t.Fatalf("RowCount() = %d, want 5", table.RowCount())
	}
	pv2, err := table.Column("pv2")
	if err != nil {
		t.Fatalf("Column(pv2) error = %v", err)
	}
	if len(pv2) != 5 {
		t.Fatalf("len(pv2) = %d, want 5", len(pv2))
	}
	for i := 2; i < 5; i++ {
		if !pv2[i].Null {
			t.Fatalf("pv2[%d].Null = false, want true (null run for missing block)", i)
		}
	}
	for i := 0; i < 2; i++ {
		if pv2[i].Null {
			t.Fatalf("pv2[%d].Null = true, want false (present in first block)", i)
		}
	}
}

func TestAssembleSelectsDynamicAboveStaticMax(t *testing.T) {
	set := setOf(clockBlock(0, 1000, map[string]float64{"pv1": 1}))
	table, err := Assemble(set, []string{"pv1"}, Config{StaticMax: 1, DynamicEnabled: true})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if _, ok := table.(*DynamicTable); !ok {
		t.Fatalf("Assemble() returned %T, want *DynamicTable when estimate exceeds StaticMax", table)
	}
}

func TestAssembleDynamicDisabledForcesStatic(t *testing.T) {
	set := setOf(clockBlock(0, 1000, map[string]float64{"pv1": 1}))
	table, err := Assemble(set, []string{"pv1"}, Config{StaticMax: 1, DynamicEnabled: false})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if _, ok := table.(*StaticTable); !ok {
		t.Fatalf("Assemble() returned %T, want *StaticTable when DynamicEnabled is false even above StaticMax", table)
	}
}

func TestAssembleSelectsStaticBelowStaticMax(t *testing.T) {
	set := setOf(clockBlock(0, 2, map[string]float64{"pv1": 1}))
	table, err := Assemble(set, []string{"pv1"}, Config{StaticMax: 1 << 30, DynamicEnabled: true})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if _, ok := table.(*StaticTable); !ok {
		t.Fatalf("Assemble() returned %T, want *StaticTable when estimate is within StaticMax", table)
	}
}

func TestDynamicTableCachesColumn(t *testing.T) {
	set := setOf(clockBlock(0, 2, map[string]float64{"pv1": 1}))
	dt := newDynamicTable(set, []string{"pv1"})
	col1, err := dt.Column("pv1")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	col2, err := dt.Column("pv1")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if &col1[0] != &col2[0] {
		t.Fatal("Column() did not return the cached slice on second call")
	}
	dt.Clear()
	col3, err := dt.Column("pv1")
	if err != nil {
		t.Fatalf("Column() error after Clear = %v", err)
	}
	if len(col3) != len(col1) {
		t.Fatalf("len(col3) = %d, want %d after re-realization", len(col3), len(col1))
	}
}

func TestTableCellOutOfRange(t *testing.T) {
	set := setOf(clockBlock(0, 2, map[string]float64{"pv1": 1}))
	table, err := Assemble(set, []string{"pv1"}, Config{StaticDefault: true})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if _, err := table.Cell(5, "pv1"); err == nil {
		t.Fatal("Cell() with out-of-range row = nil error, want error")
	}
}
