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

package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/osprey-dcs/dp-query-engine/internal/transport"
	"github.com/osprey-dcs/dp-query-engine/internal/transport/transporttest"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

type countingSink struct {
	mu    sync.Mutex
	count int
}

func (s *countingSink) InsertBucket(b model.Bucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	return nil
}

func bucketAt(pv string, sec int64) model.Bucket {
	basis := model.NewClockBasis(model.Instant{Seconds: sec}, 1_000_000_000, 1)
	return model.Bucket{Basis: basis, Column: model.Column{PVName: pv, Type: model.KindFloat64, Values: []model.Value{{Kind: model.KindFloat64}}}}
}

func TestRunCompletesAllSubRequests(t *testing.T) {
	script := transporttest.NewScript()
	var subs []model.Request
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("sub-%d", i)
		script.Enqueue(id, transport.Frame{Buckets: []model.Bucket{bucketAt(fmt.Sprintf("pv%d", i), int64(i))}})
		subs = append(subs, model.Request{PVs: []string{fmt.Sprintf("pv%d", i)}, StreamPref: model.StreamUnary, ID: id})
	}

	sink := &countingSink{}
	res := Run(context.Background(), script, subs, sink, Config{MaxStreams: 3})
	if res.Completed != 8 {
		t.Fatalf("Completed = %d, want 8", res.Completed)
	}
	if len(res.Errs) != 0 {
		t.Fatalf("Errs = %v, want none", res.Errs)
	}
	if sink.count != 8 {
		t.Fatalf("sink.count = %d, want 8", sink.count)
	}
}

func TestRunFailFastRecordsFailure(t *testing.T) {
	script := transporttest.NewScript()
	script.FailOpen("bad", fmt.Errorf("boom"))
	for i := 0; i < 50; i++ {
		script.Enqueue("good", transport.Frame{Buckets: []model.Bucket{bucketAt(fmt.Sprintf("pv%d", i), int64(i))}})
	}
	subs := []model.Request{
		{PVs: []string{"bad-pv"}, StreamPref: model.StreamForward, ID: "bad"},
		{PVs: []string{"good-pv"}, StreamPref: model.StreamForward, ID: "good"},
	}
	sink := &countingSink{}
	res := Run(context.Background(), script, subs, sink, Config{MaxStreams: 2, FailFast: true})
	if len(res.Errs) == 0 {
		t.Fatal("Errs is empty, want at least one failure recorded")
	}
}

func TestRunAggregatesWithoutFailFast(t *testing.T) {
	script := transporttest.NewScript()
	script.FailOpen("bad", fmt.Errorf("boom"))
	script.Enqueue("good", transport.Frame{Buckets: []model.Bucket{bucketAt("pv1", 0)}})
	subs := []model.Request{
		{PVs: []string{"bad-pv"}, StreamPref: model.StreamForward, ID: "bad"},
		{PVs: []string{"good-pv"}, StreamPref: model.StreamForward, ID: "good"},
	}
	sink := &countingSink{}
	res := Run(context.Background(), script, subs, sink, Config{MaxStreams: 2, FailFast: false})
	if res.Completed != 1 {
		t.Fatalf("Completed = %d, want 1 (the good sub-request)", res.Completed)
	}
	if len(res.Errs) != 1 {
		t.Fatalf("len(Errs) = %d, want 1", len(res.Errs))
	}
}
