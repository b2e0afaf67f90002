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

package ingest

import (
	"context"
	"testing"

	"github.com/osprey-dcs/dp-query-engine/internal/transport"
	"github.com/osprey-dcs/dp-query-engine/internal/transport/transporttest"
	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

type recordingSink struct {
	buckets []model.Bucket
}

func (s *recordingSink) InsertBucket(b model.Bucket) error {
	s.buckets = append(s.buckets, b)
	return nil
}

func bucketAt(pv string, sec int64) model.Bucket {
	basis := model.NewClockBasis(model.Instant{Seconds: sec}, 1_000_000_000, 1)
	return model.Bucket{Basis: basis, Column: model.Column{PVName: pv, Type: model.KindFloat64, Values: []model.Value{{Kind: model.KindFloat64}}}}
}

func TestRunUnaryDeliversBuckets(t *testing.T) {
	script := transporttest.NewScript()
	script.Enqueue("r1", transport.Frame{Buckets: []model.Bucket{bucketAt("pv1", 0), bucketAt("pv2", 1)}})

	sink := &recordingSink{}
	req := model.Request{PVs: []string{"pv1", "pv2"}, StreamPref: model.StreamUnary, ID: "r1"}
	g := New(script, req, sink)
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sink.buckets) != 2 {
		t.Fatalf("len(sink.buckets) = %d, want 2", len(sink.buckets))
	}
}

func TestRunForwardDeliversInOrder(t *testing.T) {
	script := transporttest.NewScript()
	script.Enqueue("r1",
		transport.Frame{Buckets: []model.Bucket{bucketAt("pv1", 0)}},
		transport.Frame{Buckets: []model.Bucket{bucketAt("pv2", 1)}},
		transport.Frame{Buckets: []model.Bucket{bucketAt("pv3", 2)}},
	)
	sink := &recordingSink{}
	req := model.Request{PVs: []string{"pv1", "pv2", "pv3"}, StreamPref: model.StreamForward, ID: "r1"}
	g := New(script, req, sink)
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sink.buckets) != 3 {
		t.Fatalf("len(sink.buckets) = %d, want 3", len(sink.buckets))
	}
	for i, name := range []string{"pv1", "pv2", "pv3"} {
		if sink.buckets[i].Column.PVName != name {
			t.Fatalf("sink.buckets[%d].PVName = %q, want %q (order must be preserved)", i, sink.buckets[i].Column.PVName, name)
		}
	}
}

func TestRunExceptionalRejected(t *testing.T) {
	script := transporttest.NewScript()
	script.Enqueue("r1", transport.Frame{Exceptional: &transport.Exceptional{Status: transport.StatusRejected, Message: "too big"}})
	sink := &recordingSink{}
	req := model.Request{PVs: []string{"pv1"}, StreamPref: model.StreamForward, ID: "r1"}
	g := New(script, req, sink)
	err := g.Run(context.Background())
	if xerr.KindOf(err) != xerr.TransportRejected {
		t.Fatalf("Run() kind = %v, want TransportRejected", xerr.KindOf(err))
	}
}

func TestRunUnaryExhaustedIsFatal(t *testing.T) {
	script := transporttest.NewScript()
	script.Enqueue("r1", transport.Frame{Exceptional: &transport.Exceptional{Status: transport.StatusExhausted, Message: "result exceeds unary frame size"}})
	sink := &recordingSink{}
	req := model.Request{PVs: []string{"pv1"}, StreamPref: model.StreamUnary, ID: "r1"}
	g := New(script, req, sink)
	err := g.Run(context.Background())
	if xerr.KindOf(err) != xerr.Exhausted {
		t.Fatalf("Run() kind = %v, want Exhausted", xerr.KindOf(err))
	}
}

func TestRunOpenStreamFailureIsTransportFailure(t *testing.T) {
	script := transporttest.NewScript()
	script.FailOpen("r1", errBoom)
	sink := &recordingSink{}
	req := model.Request{PVs: []string{"pv1"}, StreamPref: model.StreamForward, ID: "r1"}
	g := New(script, req, sink)
	err := g.Run(context.Background())
	if xerr.KindOf(err) != xerr.TransportFailure {
		t.Fatalf("Run() kind = %v, want TransportFailure", xerr.KindOf(err))
	}
}

func TestCancelStopsForwardStream(t *testing.T) {
	script := transporttest.NewScript()
	for i := 0; i < 100; i++ {
		script.Enqueue("r1", transport.Frame{Buckets: []model.Bucket{bucketAt("pv1", int64(i))}})
	}
	sink := &recordingSink{}
	req := model.Request{PVs: []string{"pv1"}, StreamPref: model.StreamForward, ID: "r1"}
	g := New(script, req, sink)
	g.Cancel()
	err := g.Run(context.Background())
	if xerr.KindOf(err) != xerr.Cancelled {
		t.Fatalf("Run() after Cancel() kind = %v, want Cancelled", xerr.KindOf(err))
	}
}

var errBoom = xerr.New(xerr.TransportFailure, "boom")
