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

package queryengine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/osprey-dcs/dp-query-engine/internal/assemble"
	"github.com/osprey-dcs/dp-query-engine/internal/transport"
	"github.com/osprey-dcs/dp-query-engine/internal/transport/transporttest"
	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

func testConfig() Config {
	return Config{
		MultistreamMaxStreams: 1,
		TableStaticDefault:    true,
	}
}

func clockBucket(pv string, startSec int64, n int) model.Bucket {
	basis := model.NewClockBasis(model.Instant{Seconds: startSec}, 1_000_000_000, n)
	values := make([]model.Value, n)
	for i := range values {
		values[i] = model.Value{Kind: model.KindFloat64, Float64: float64(i)}
	}
	return model.Bucket{Basis: basis, Column: model.Column{PVName: pv, Type: model.KindFloat64, Values: values}}
}

func TestQueryDataUnarySingleBucket(t *testing.T) {
	script := transporttest.NewScript()
	script.Enqueue("r1", transport.Frame{Buckets: []model.Bucket{clockBucket("pv1", 0, 3)}})

	svc := New(testConfig(), script)
	table, err := svc.QueryDataUnary(context.Background(), model.Request{PVs: []string{"pv1"}, ID: "r1"})
	if err != nil {
		t.Fatalf("QueryDataUnary() error = %v", err)
	}
	if table.RowCount() != 3 {
		t.Fatalf("RowCount() = %d, want 3", table.RowCount())
	}
}

func TestQueryDataTwoDisjointBlocksSamePV(t *testing.T) {
	script := transporttest.NewScript()
	script.Enqueue("r1",
		transport.Frame{Buckets: []model.Bucket{clockBucket("pv1", 0, 2)}},
		transport.Frame{Buckets: []model.Bucket{clockBucket("pv1", 10, 2)}},
	)

	svc := New(testConfig(), script)
	req := model.Request{PVs: []string{"pv1"}, StreamPref: model.StreamForward, ID: "r1"}
	table, err := svc.QueryData(context.Background(), req)
	if err != nil {
		t.Fatalf("QueryData() error = %v", err)
	}
	if table.RowCount() != 4 {
		t.Fatalf("RowCount() = %d, want 4 (two 2-sample blocks)", table.RowCount())
	}
}

func TestQueryDataDynamicTableSurvivesCorrelatorReset(t *testing.T) {
	script := transporttest.NewScript()
	script.Enqueue("r1",
		transport.Frame{Buckets: []model.Bucket{clockBucket("pv1", 0, 2)}},
		transport.Frame{Buckets: []model.Bucket{clockBucket("pv1", 10, 2)}},
	)

	cfg := testConfig()
	cfg.TableStaticMax = 1 // forces the dynamic path regardless of set size
	cfg.TableDynamicEnabled = true
	svc := New(cfg, script)
	req := model.Request{PVs: []string{"pv1"}, StreamPref: model.StreamForward, ID: "r1"}
	table, err := svc.QueryData(context.Background(), req)
	if err != nil {
		t.Fatalf("QueryData() error = %v", err)
	}
	if _, ok := table.(*assemble.DynamicTable); !ok {
		t.Fatalf("QueryData() returned %T, want *assemble.DynamicTable", table)
	}
	// The façade resets its correlator immediately after assembling; a
	// dynamic table returned to the caller must still read real data.
	col, err := table.Column("pv1")
	if err != nil {
		t.Fatalf("Column(pv1) error after correlator reset = %v", err)
	}
	if len(col) != 4 {
		t.Fatalf("len(col) = %d, want 4 (correlator reset must not invalidate an already-returned dynamic table)", len(col))
	}
}

func TestQueryDataNullRunForMissingPV(t *testing.T) {
	script := transporttest.NewScript()
	script.Enqueue("r1",
		transport.Frame{Buckets: []model.Bucket{clockBucket("pv1", 0, 2), clockBucket("pv2", 0, 2)}},
		transport.Frame{Buckets: []model.Bucket{clockBucket("pv1", 10, 2)}}, // pv2 absent here
	)

	svc := New(testConfig(), script)
	req := model.Request{PVs: []string{"pv1", "pv2"}, StreamPref: model.StreamForward, ID: "r1"}
	table, err := svc.QueryData(context.Background(), req)
	if err != nil {
		t.Fatalf("QueryData() error = %v", err)
	}
	pv2, err := table.Column("pv2")
	if err != nil {
		t.Fatalf("Column(pv2) error = %v", err)
	}
	if len(pv2) != 4 {
		t.Fatalf("len(pv2) = %d, want 4", len(pv2))
	}
	for i := 2; i < 4; i++ {
		if !pv2[i].Null {
			t.Fatalf("pv2[%d].Null = false, want true", i)
		}
	}
}

func TestQueryDataMultiCombinesRequests(t *testing.T) {
	script := transporttest.NewScript()
	script.Enqueue("reqA", transport.Frame{Buckets: []model.Bucket{clockBucket("pv1", 0, 2)}})
	script.Enqueue("reqB", transport.Frame{Buckets: []model.Bucket{clockBucket("pv2", 0, 2)}})

	svc := New(testConfig(), script)
	reqs := []model.Request{
		{PVs: []string{"pv1"}, StreamPref: model.StreamForward, ID: "reqA"},
		{PVs: []string{"pv2"}, StreamPref: model.StreamForward, ID: "reqB"},
	}
	table, err := svc.QueryDataMulti(context.Background(), reqs)
	if err != nil {
		t.Fatalf("QueryDataMulti() error = %v", err)
	}
	if table.ColumnCount() != 2 {
		t.Fatalf("ColumnCount() = %d, want 2", table.ColumnCount())
	}
}

func TestQueryDataTransportFailureWrapsAsQueryFailure(t *testing.T) {
	script := transporttest.NewScript()
	script.FailOpen("r1", fmt.Errorf("connection reset"))

	svc := New(testConfig(), script)
	req := model.Request{PVs: []string{"pv1"}, StreamPref: model.StreamForward, ID: "r1"}
	_, err := svc.QueryData(context.Background(), req)
	if xerr.KindOf(err) != xerr.QueryFailure {
		t.Fatalf("QueryData() kind = %v, want QueryFailure", xerr.KindOf(err))
	}
	if svc.correlator.CorrelatedSet().Len() != 0 {
		t.Fatal("correlator was not reset after a failed call")
	}
}

func TestShutdownRejectsNewCallsAndTerminates(t *testing.T) {
	script := transporttest.NewScript()
	svc := New(testConfig(), script)

	if !svc.Shutdown() {
		t.Fatal("Shutdown() = false on first call, want true")
	}
	if svc.Shutdown() {
		t.Fatal("Shutdown() = true on second call, want false")
	}
	if !svc.AwaitTermination(time.Second) {
		t.Fatal("AwaitTermination() = false, want true after Shutdown completes")
	}

	_, err := svc.QueryMeta(context.Background(), model.MetadataRequest{Names: []string{"pv1"}})
	if xerr.KindOf(err) != xerr.Cancelled {
		t.Fatalf("QueryMeta() after Shutdown kind = %v, want Cancelled", xerr.KindOf(err))
	}
}

func TestShutdownNowTerminatesImmediately(t *testing.T) {
	script := transporttest.NewScript()
	svc := New(testConfig(), script)

	if !svc.ShutdownNow() {
		t.Fatal("ShutdownNow() = false, want true")
	}
	if !svc.AwaitTermination(time.Second) {
		t.Fatal("AwaitTermination() = false, want true immediately after ShutdownNow")
	}
	if svc.ShutdownNow() {
		t.Fatal("ShutdownNow() = true on second call, want false (already terminated)")
	}
}
